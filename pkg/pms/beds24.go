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

// Beds24Credentials is the JSON shape stored in integrations.credentials
// for a Beds24 integration: a long-lived refresh token exchanged for a
// short-lived access token on each call, per Beds24's v2 API.
type Beds24Credentials struct {
	RefreshToken string `json:"refreshToken"`
}

// Beds24Adapter talks to the Beds24 v2 REST API.
type Beds24Adapter struct {
	baseURL    string
	httpClient *http.Client
}

func NewBeds24Adapter(baseURL string, httpClient *http.Client) *Beds24Adapter {
	if baseURL == "" {
		baseURL = "https://api.beds24.com/v2"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Beds24Adapter{baseURL: baseURL, httpClient: httpClient}
}

func (a *Beds24Adapter) Name() string { return "beds24" }

func (a *Beds24Adapter) accessToken(ctx context.Context, credentials []byte) (string, error) {
	var creds Beds24Credentials
	if err := json.Unmarshal(credentials, &creds); err != nil {
		return "", fmt.Errorf("decoding beds24 credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/authentication/token", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("refreshToken", creds.RefreshToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("refreshing beds24 token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("beds24 token refresh returned %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Token, nil
}

func (a *Beds24Adapter) do(ctx context.Context, method, path, token string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("token", token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling beds24 api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("beds24 api %s %s returned %d: %s", method, path, resp.StatusCode, string(respBody))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (a *Beds24Adapter) TestConnection(ctx context.Context, credentials []byte) error {
	_, err := a.accessToken(ctx, credentials)
	return err
}

func (a *Beds24Adapter) GetProperties(ctx context.Context, credentials []byte) ([]RemoteProperty, error) {
	token, err := a.accessToken(ctx, credentials)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data []struct {
			PropertyID int    `json:"propId"`
			Name       string `json:"name"`
			Latitude   float64 `json:"latitude"`
			Longitude  float64 `json:"longitude"`
		} `json:"data"`
	}
	if err := a.do(ctx, http.MethodGet, "/properties", token, nil, &resp); err != nil {
		return nil, err
	}

	out := make([]RemoteProperty, 0, len(resp.Data))
	for _, p := range resp.Data {
		out = append(out, RemoteProperty{
			ExternalID: fmt.Sprintf("%d", p.PropertyID),
			Name:       p.Name,
			Latitude:   p.Latitude,
			Longitude:  p.Longitude,
		})
	}
	return out, nil
}

func (a *Beds24Adapter) GetReservations(ctx context.Context, credentials []byte, propertyExternalID string, since time.Time) ([]RemoteReservation, error) {
	token, err := a.accessToken(ctx, credentials)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data []struct {
			BookID    int    `json:"bookId"`
			ArrivalAt string `json:"arrival"`
			Departure string `json:"departure"`
			Status    string `json:"status"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/bookings?propertyId=%s&arrivalFrom=%s", propertyExternalID, since.Format("2006-01-02"))
	if err := a.do(ctx, http.MethodGet, path, token, nil, &resp); err != nil {
		return nil, err
	}

	out := make([]RemoteReservation, 0, len(resp.Data))
	for _, b := range resp.Data {
		checkIn, _ := time.Parse("2006-01-02", b.ArrivalAt)
		checkOut, _ := time.Parse("2006-01-02", b.Departure)
		out = append(out, RemoteReservation{
			ExternalID: fmt.Sprintf("%d", b.BookID),
			PropertyID: propertyExternalID,
			CheckIn:    checkIn,
			CheckOut:   checkOut,
			Status:     b.Status,
		})
	}
	return out, nil
}

func (a *Beds24Adapter) CreateReservation(ctx context.Context, credentials []byte, res RemoteReservation) (string, error) {
	token, err := a.accessToken(ctx, credentials)
	if err != nil {
		return "", err
	}
	var resp struct {
		Data []struct {
			BookID int `json:"bookId"`
		} `json:"data"`
	}
	body := []map[string]any{{
		"propertyId": res.PropertyID,
		"arrival":    res.CheckIn.Format("2006-01-02"),
		"departure":  res.CheckOut.Format("2006-01-02"),
	}}
	if err := a.do(ctx, http.MethodPost, "/bookings", token, body, &resp); err != nil {
		return "", err
	}
	if len(resp.Data) == 0 {
		return "", fmt.Errorf("beds24 returned no booking id")
	}
	return fmt.Sprintf("%d", resp.Data[0].BookID), nil
}

func (a *Beds24Adapter) UpdateReservation(ctx context.Context, credentials []byte, res RemoteReservation) error {
	token, err := a.accessToken(ctx, credentials)
	if err != nil {
		return err
	}
	body := []map[string]any{{
		"bookId":    res.ExternalID,
		"arrival":   res.CheckIn.Format("2006-01-02"),
		"departure": res.CheckOut.Format("2006-01-02"),
	}}
	return a.do(ctx, http.MethodPost, "/bookings", token, body, nil)
}

func (a *Beds24Adapter) DeleteReservation(ctx context.Context, credentials []byte, externalID string) error {
	token, err := a.accessToken(ctx, credentials)
	if err != nil {
		return err
	}
	body := []map[string]any{{"bookId": externalID, "status": "cancelled"}}
	return a.do(ctx, http.MethodPost, "/bookings", token, body, nil)
}

func (a *Beds24Adapter) UpdatePropertySettings(ctx context.Context, credentials []byte, propertyExternalID string, settings map[string]any) error {
	token, err := a.accessToken(ctx, credentials)
	if err != nil {
		return err
	}
	return a.do(ctx, http.MethodPost, "/properties", token, settings, nil)
}

func (a *Beds24Adapter) UpdateRate(ctx context.Context, credentials []byte, update RateUpdate) error {
	return a.UpdateBatchRates(ctx, credentials, []RateUpdate{update})
}

func (a *Beds24Adapter) UpdateBatchRates(ctx context.Context, credentials []byte, updates []RateUpdate) error {
	token, err := a.accessToken(ctx, credentials)
	if err != nil {
		return err
	}

	calendar := make([]map[string]any, 0, len(updates))
	for _, u := range updates {
		calendar = append(calendar, map[string]any{
			"propertyId": u.PropertyExternalID,
			"from":       u.Date.Format("2006-01-02"),
			"to":         u.Date.Format("2006-01-02"),
			"price1":     float64(u.PriceCents) / 100,
		})
	}
	return a.do(ctx, http.MethodPost, "/inventory/calendar", token, calendar, nil)
}
