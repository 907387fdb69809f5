package pms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SmoobuAdapter talks to the Smoobu channel-manager REST API. Credentials
// are the raw API key, sent as the Api-Key header on every request.
type SmoobuAdapter struct {
	baseURL    string
	httpClient *http.Client
}

// NewSmoobuAdapter builds a SmoobuAdapter. baseURL defaults to the
// production Smoobu API when empty, so tests can point it at a fake server.
func NewSmoobuAdapter(baseURL string, httpClient *http.Client) *SmoobuAdapter {
	if baseURL == "" {
		baseURL = "https://login.smoobu.com/api"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &SmoobuAdapter{baseURL: baseURL, httpClient: httpClient}
}

func (a *SmoobuAdapter) Name() string { return "smoobu" }

func (a *SmoobuAdapter) do(ctx context.Context, method, path string, credentials []byte, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshalling smoobu request body: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("building smoobu request: %w", err)
	}
	req.Header.Set("Api-Key", string(credentials))
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling smoobu api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("smoobu api %s %s returned %d: %s", method, path, resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (a *SmoobuAdapter) TestConnection(ctx context.Context, credentials []byte) error {
	return a.do(ctx, http.MethodGet, "/me", credentials, nil, nil)
}

type smoobuApartment struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	MaxGuests int    `json:"maxOccupancy"`
	Location struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
}

func (a *SmoobuAdapter) GetProperties(ctx context.Context, credentials []byte) ([]RemoteProperty, error) {
	var resp struct {
		Apartments []smoobuApartment `json:"apartments"`
	}
	if err := a.do(ctx, http.MethodGet, "/apartments", credentials, nil, &resp); err != nil {
		return nil, err
	}

	out := make([]RemoteProperty, 0, len(resp.Apartments))
	for _, apt := range resp.Apartments {
		out = append(out, RemoteProperty{
			ExternalID: fmt.Sprintf("%d", apt.ID),
			Name:       apt.Name,
			Capacity:   apt.MaxGuests,
			Latitude:   apt.Location.Latitude,
			Longitude:  apt.Location.Longitude,
		})
	}
	return out, nil
}

func (a *SmoobuAdapter) GetReservations(ctx context.Context, credentials []byte, propertyExternalID string, since time.Time) ([]RemoteReservation, error) {
	var resp struct {
		Bookings []struct {
			ID        int    `json:"id"`
			ArrivalAt string `json:"arrival"`
			Departure string `json:"departure"`
			Status    string `json:"status"`
		} `json:"bookings"`
	}
	path := fmt.Sprintf("/reservations?apartmentId=%s&from=%s", propertyExternalID, since.Format("2006-01-02"))
	if err := a.do(ctx, http.MethodGet, path, credentials, nil, &resp); err != nil {
		return nil, err
	}

	out := make([]RemoteReservation, 0, len(resp.Bookings))
	for _, b := range resp.Bookings {
		checkIn, _ := time.Parse("2006-01-02", b.ArrivalAt)
		checkOut, _ := time.Parse("2006-01-02", b.Departure)
		out = append(out, RemoteReservation{
			ExternalID: fmt.Sprintf("%d", b.ID),
			PropertyID: propertyExternalID,
			CheckIn:    checkIn,
			CheckOut:   checkOut,
			Status:     b.Status,
		})
	}
	return out, nil
}

func (a *SmoobuAdapter) CreateReservation(ctx context.Context, credentials []byte, res RemoteReservation) (string, error) {
	var resp struct {
		ID int `json:"id"`
	}
	body := map[string]any{
		"apartmentId": res.PropertyID,
		"arrival":     res.CheckIn.Format("2006-01-02"),
		"departure":   res.CheckOut.Format("2006-01-02"),
	}
	if err := a.do(ctx, http.MethodPost, "/reservations", credentials, body, &resp); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", resp.ID), nil
}

func (a *SmoobuAdapter) UpdateReservation(ctx context.Context, credentials []byte, res RemoteReservation) error {
	body := map[string]any{
		"arrival":   res.CheckIn.Format("2006-01-02"),
		"departure": res.CheckOut.Format("2006-01-02"),
	}
	return a.do(ctx, http.MethodPut, "/reservations/"+res.ExternalID, credentials, body, nil)
}

func (a *SmoobuAdapter) DeleteReservation(ctx context.Context, credentials []byte, externalID string) error {
	return a.do(ctx, http.MethodDelete, "/reservations/"+externalID, credentials, nil, nil)
}

func (a *SmoobuAdapter) UpdatePropertySettings(ctx context.Context, credentials []byte, propertyExternalID string, settings map[string]any) error {
	return a.do(ctx, http.MethodPut, "/apartments/"+propertyExternalID, credentials, settings, nil)
}

func (a *SmoobuAdapter) UpdateRate(ctx context.Context, credentials []byte, update RateUpdate) error {
	body := map[string]any{
		update.Date.Format("2006-01-02"): map[string]any{"price": float64(update.PriceCents) / 100},
	}
	path := fmt.Sprintf("/rates/%s", update.PropertyExternalID)
	return a.do(ctx, http.MethodPost, path, credentials, body, nil)
}

func (a *SmoobuAdapter) UpdateBatchRates(ctx context.Context, credentials []byte, updates []RateUpdate) error {
	byProperty := make(map[string]map[string]any)
	for _, u := range updates {
		days, ok := byProperty[u.PropertyExternalID]
		if !ok {
			days = make(map[string]any)
			byProperty[u.PropertyExternalID] = days
		}
		days[u.Date.Format("2006-01-02")] = map[string]any{"price": float64(u.PriceCents) / 100}
	}
	for propertyID, days := range byProperty {
		if err := a.do(ctx, http.MethodPost, "/rates/"+propertyID, credentials, days, nil); err != nil {
			return err
		}
	}
	return nil
}
