package httpserver

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	gostripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// EventHandler processes a verified Stripe event. Implemented by
// pkg/webhook.Handler.
type EventHandler interface {
	HandleEvent(ctx context.Context, event gostripe.Event) error
}

// StripeWebhookHandler verifies the Stripe signature on an inbound
// delivery before handing the event to EventHandler.
type StripeWebhookHandler struct {
	handler       EventHandler
	webhookSecret string
	logger        *slog.Logger
}

func NewStripeWebhookHandler(handler EventHandler, webhookSecret string, logger *slog.Logger) *StripeWebhookHandler {
	return &StripeWebhookHandler{handler: handler, webhookSecret: webhookSecret, logger: logger}
}

func (h *StripeWebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const maxBodyBytes = int64(65536)
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "reading request body", http.StatusBadRequest)
		return
	}

	event, err := webhook.ConstructEvent(body, r.Header.Get("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		h.logger.Warn("rejecting stripe webhook with invalid signature", "error", err)
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	if err := h.handler.HandleEvent(r.Context(), event); err != nil {
		h.logger.Error("handling stripe webhook event", "error", err, "event_id", event.ID, "event_type", event.Type)
		http.Error(w, "processing event", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
