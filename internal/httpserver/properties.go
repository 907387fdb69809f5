package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/devco/pricingcore/internal/db"
	"github.com/devco/pricingcore/internal/service"
	"github.com/devco/pricingcore/internal/store"
	"github.com/devco/pricingcore/pkg/billing"
	"github.com/devco/pricingcore/pkg/domain"
	"github.com/devco/pricingcore/pkg/geo"
	"github.com/devco/pricingcore/pkg/orchestration"
	"github.com/devco/pricingcore/pkg/pms"
	"github.com/devco/pricingcore/pkg/pmssync"
)

// PropertiesHandler exposes the property endpoints (creation, status
// transition, group membership, pricing rules, reservation push and pull)
// the external frontend collaborator calls on behalf of an
// already-authenticated user.
// It trusts the identity headers the frontend sets after its own auth
// check, since this core never authenticates users itself.
type PropertiesHandler struct {
	orchestrator *orchestration.Orchestrator
	store        *store.Store
	sync         *service.PropertySync
	logger       *slog.Logger
}

func NewPropertiesHandler(orchestrator *orchestration.Orchestrator, st *store.Store, sync *service.PropertySync, logger *slog.Logger) *PropertiesHandler {
	return &PropertiesHandler{orchestrator: orchestrator, store: st, sync: sync, logger: logger}
}

type changeStatusRequest struct {
	Status string `json:"status"`
}

// HandleChangeStatus processes PATCH /properties/{id}/status.
func (h *PropertiesHandler) HandleChangeStatus(w http.ResponseWriter, r *http.Request) {
	propertyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid property id", http.StatusBadRequest)
		return
	}

	var req changeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	actor, err := actorFromHeaders(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	property, err := h.store.GetProperty(r.Context(), propertyID)
	if err != nil {
		h.logger.Error("loading property", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if property == nil {
		http.Error(w, "property not found", http.StatusNotFound)
		return
	}

	prop := orchestration.PropertyForStatusChange{
		ID:       property.ID,
		TenantID: property.TenantID,
		Status:   domain.PropertyStatus(property.Status),
	}

	if err := h.orchestrator.ChangePropertyStatus(r.Context(), prop, domain.PropertyStatus(req.Status), actor); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	if _, err := h.store.UpdatePropertyStatus(r.Context(), propertyID, req.Status); err != nil {
		h.logger.Error("persisting property status change", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type createPropertyRequest struct {
	TenantID       string  `json:"tenant_id"`
	Name           string  `json:"name"`
	Capacity       int32   `json:"capacity"`
	SurfaceArea    float64 `json:"surface_area"`
	PropertyType   string  `json:"property_type"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	BasePriceCents int32   `json:"base_price_cents"`
	Strategy       string  `json:"strategy"`
	FloorPriceCents int32  `json:"floor_price_cents"`
	MinStay        int32   `json:"min_stay"`
}

// HandleCreateProperty processes POST /properties. A trialing tenant that
// would exceed domain.TrialPropertyLimit active properties is rejected
// with a structured LIMIT_EXCEEDED error instead of having the property
// created.
func (h *PropertiesHandler) HandleCreateProperty(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromHeaders(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if !domain.CanManageProperties(actor.Role) {
		writeDomainError(w, h.logger, domain.NewAuthorization("only admins and managers may create properties"))
		return
	}

	var req createPropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		http.Error(w, "invalid tenant id", http.StatusBadRequest)
		return
	}

	tenant, err := h.store.GetTenant(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("loading tenant", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if tenant == nil {
		http.Error(w, "tenant not found", http.StatusNotFound)
		return
	}

	currentCount, err := h.store.CountActivePropertiesByTenant(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("counting active properties", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := billing.CheckTrialLimit(domain.SubscriptionStatus(tenant.SubscriptionStatus), int(currentCount), 1); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = "equilibre"
	}
	minStay := req.MinStay
	if minStay == 0 {
		minStay = 1
	}

	property, err := h.store.CreateProperty(r.Context(), db.CreatePropertyParams{
		ID:              uuid.New(),
		TenantID:        tenantID,
		TeamID:          orchestration.GetOrInitTeamID(uuid.Nil, tenantID),
		Name:            req.Name,
		Status:          string(domain.PropertyStatusActive),
		Capacity:        req.Capacity,
		SurfaceArea:     pgtype.Float8{Float64: req.SurfaceArea, Valid: req.SurfaceArea > 0},
		PropertyType:    req.PropertyType,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		BasePriceCents:  req.BasePriceCents,
		Strategy:        strategy,
		FloorPriceCents: req.FloorPriceCents,
		MinStay:         minStay,
	})
	if err != nil {
		h.logger.Error("creating property", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(property)
}

type addToGroupRequest struct {
	GroupID string `json:"group_id"`
}

// HandleAddToGroup processes POST /properties/{id}/group, adding the
// property to an existing group once it passes geofencing and attribute
// coherence checks against the group's main property.
func (h *PropertiesHandler) HandleAddToGroup(w http.ResponseWriter, r *http.Request) {
	propertyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid property id", http.StatusBadRequest)
		return
	}

	var req addToGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	groupID, err := uuid.Parse(req.GroupID)
	if err != nil {
		http.Error(w, "invalid group id", http.StatusBadRequest)
		return
	}

	actor, err := actorFromHeaders(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	candidate, err := h.store.GetProperty(r.Context(), propertyID)
	if err != nil {
		h.logger.Error("loading candidate property", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if candidate == nil {
		http.Error(w, "property not found", http.StatusNotFound)
		return
	}

	group, err := h.store.GetGroup(r.Context(), groupID)
	if err != nil {
		h.logger.Error("loading group", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if group == nil || !group.MainPropertyID.Valid {
		http.Error(w, "group not found or has no main property", http.StatusNotFound)
		return
	}

	mainProperty, err := h.store.GetProperty(r.Context(), uuid.UUID(group.MainPropertyID.Bytes))
	if err != nil {
		h.logger.Error("loading group main property", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if mainProperty == nil {
		http.Error(w, "group main property not found", http.StatusNotFound)
		return
	}

	apply := func(ctx context.Context) error {
		if err := h.store.AddGroupProperty(ctx, groupID, propertyID); err != nil {
			return err
		}
		_, err := h.store.UpdatePropertyGroup(ctx, propertyID, pgtype.UUID{Bytes: groupID, Valid: true})
		return err
	}

	err = h.orchestrator.AddPropertyToGroup(r.Context(),
		propertyForGeoCheck(*candidate), propertyForGeoCheck(*mainProperty), groupID, actor, apply)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type updatePricingRulesRequest struct {
	Strategy               string   `json:"strategy"`
	FloorPriceCents        int32    `json:"floor_price_cents"`
	CeilingPriceCents      *int32   `json:"ceiling_price_cents"`
	MinStay                int32    `json:"min_stay"`
	MaxStay                *int32   `json:"max_stay"`
	WeeklyDiscountPercent  *float64 `json:"weekly_discount_percent"`
	MonthlyDiscountPercent *float64 `json:"monthly_discount_percent"`
	WeekendMarkupPercent   *float64 `json:"weekend_markup_percent"`
}

// HandleUpdatePricingRules processes PATCH /properties/{id}/pricing-rules.
// The new rules are pushed to the property's PMS before being committed
// locally; a rejected push leaves the stored rules unchanged.
func (h *PropertiesHandler) HandleUpdatePricingRules(w http.ResponseWriter, r *http.Request) {
	propertyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid property id", http.StatusBadRequest)
		return
	}

	var req updatePricingRulesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if _, err := actorFromHeaders(r); err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	rules := service.PropertyPricingRules{
		Strategy:        req.Strategy,
		FloorPriceCents: req.FloorPriceCents,
		MinStay:         req.MinStay,
	}
	if req.CeilingPriceCents != nil {
		rules.CeilingPriceCents = pgtype.Int4{Int32: *req.CeilingPriceCents, Valid: true}
	}
	if req.MaxStay != nil {
		rules.MaxStay = pgtype.Int4{Int32: *req.MaxStay, Valid: true}
	}
	if req.WeeklyDiscountPercent != nil {
		rules.WeeklyDiscountPercent = pgtype.Float8{Float64: *req.WeeklyDiscountPercent, Valid: true}
	}
	if req.MonthlyDiscountPercent != nil {
		rules.MonthlyDiscountPercent = pgtype.Float8{Float64: *req.MonthlyDiscountPercent, Valid: true}
	}
	if req.WeekendMarkupPercent != nil {
		rules.WeekendMarkupPercent = pgtype.Float8{Float64: *req.WeekendMarkupPercent, Valid: true}
	}

	property, err := h.sync.UpdatePricingRules(r.Context(), propertyID, rules)
	if err != nil {
		h.logger.Error("updating property pricing rules", "error", err, "property_id", propertyID)
		http.Error(w, "internal error", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(property)
}

type reservationMutationRequest struct {
	Kind       string `json:"kind"`
	ExternalID string `json:"external_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	Status     string `json:"status"`
}

type pushReservationsRequest struct {
	Mutations []reservationMutationRequest `json:"mutations"`
}

// HandlePushReservations processes POST /properties/{id}/reservations,
// pushing local reservation changes to the property's PMS best-effort: a
// failing mutation is logged but does not fail the rest of the batch.
func (h *PropertiesHandler) HandlePushReservations(w http.ResponseWriter, r *http.Request) {
	propertyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid property id", http.StatusBadRequest)
		return
	}
	if _, err := actorFromHeaders(r); err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	var req pushReservationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	mutations := make([]pmssync.ReservationMutation, len(req.Mutations))
	for i, m := range req.Mutations {
		checkIn, err := time.Parse(time.RFC3339, m.CheckIn)
		if err != nil && m.CheckIn != "" {
			http.Error(w, "invalid check_in", http.StatusBadRequest)
			return
		}
		checkOut, err := time.Parse(time.RFC3339, m.CheckOut)
		if err != nil && m.CheckOut != "" {
			http.Error(w, "invalid check_out", http.StatusBadRequest)
			return
		}
		mutations[i] = pmssync.ReservationMutation{
			Kind: m.Kind,
			Reservation: pms.RemoteReservation{
				ExternalID: m.ExternalID,
				PropertyID: propertyID.String(),
				CheckIn:    checkIn,
				CheckOut:   checkOut,
				Status:     m.Status,
			},
		}
	}

	if err := h.sync.PushReservationMutations(r.Context(), propertyID, mutations); err != nil {
		h.logger.Error("pushing reservation mutations", "error", err, "property_id", propertyID)
		http.Error(w, "internal error", http.StatusBadGateway)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// HandlePullReservations processes POST /properties/{id}/reservations/pull,
// fetching PMS-originated reservations since the given cursor (or the last
// 24 hours when omitted) and upserting them locally.
func (h *PropertiesHandler) HandlePullReservations(w http.ResponseWriter, r *http.Request) {
	propertyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid property id", http.StatusBadRequest)
		return
	}
	if _, err := actorFromHeaders(r); err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	since := time.Now().Add(-24 * time.Hour)
	if s := r.URL.Query().Get("since"); s != "" {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			http.Error(w, "invalid since", http.StatusBadRequest)
			return
		}
		since = parsed
	}

	if err := h.sync.PullReservations(r.Context(), propertyID, since); err != nil {
		h.logger.Error("pulling reservations", "error", err, "property_id", propertyID)
		http.Error(w, "internal error", http.StatusBadGateway)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func propertyForGeoCheck(p db.Property) orchestration.PropertyForGeoCheck {
	return orchestration.PropertyForGeoCheck{
		ID:           p.ID,
		TenantID:     p.TenantID,
		Capacity:     int(p.Capacity),
		SurfaceArea:  p.SurfaceArea.Float64,
		PropertyType: p.PropertyType,
		Location:     geo.Point{Latitude: p.Latitude, Longitude: p.Longitude},
	}
}

func actorFromHeaders(r *http.Request) (domain.Actor, error) {
	userID, err := uuid.Parse(r.Header.Get("X-User-Id"))
	if err != nil {
		return domain.Actor{}, errInvalidActor
	}
	role := domain.Role(r.Header.Get("X-User-Role"))
	return domain.Actor{UserID: userID, Email: r.Header.Get("X-User-Email"), Role: role}, nil
}

var errInvalidActor = httpError("missing or invalid actor identity headers")

type httpError string

func (e httpError) Error() string { return string(e) }

// domainErrorBody is the JSON shape a domain.Error is serialized to, so a
// client can branch on Code and read Fields (currentCount/maxAllowed,
// distance/maxDistance, ...) instead of parsing Message.
type domainErrorBody struct {
	Code    domain.Code    `json:"code,omitempty"`
	Message string         `json:"message"`
	Fields  map[string]any `json:"fields,omitempty"`
}

func writeDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	derr, ok := err.(*domain.Error)
	if !ok {
		logger.Error("unexpected error handling request", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	status := http.StatusInternalServerError
	switch derr.Kind {
	case domain.KindValidation:
		status = http.StatusBadRequest
	case domain.KindAuthorization:
		status = http.StatusForbidden
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindConflict, domain.KindBusinessRule:
		status = http.StatusConflict
	case domain.KindRemoteProvider:
		status = http.StatusBadGateway
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domainErrorBody{Code: derr.Code, Message: derr.Message, Fields: derr.Fields})
}
