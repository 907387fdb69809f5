// Package ops provides a best-effort operational alerting sink for failures
// that are logged-and-swallowed rather than surfaced to callers (billing
// reconciliation, audit writes, scheduler retries). Losing one of these
// notifications is never allowed to affect the originating operation.
package ops

import (
	"context"
	"fmt"
	"log/slog"

	goslack "github.com/slack-go/slack"

	"github.com/devco/pricingcore/internal/telemetry"
)

// Notifier posts best-effort messages to an ops Slack channel.
type Notifier struct {
	client  *goslack.Client
	channel string
	logger  *slog.Logger
}

// NewNotifier creates a Notifier. If botToken is empty the notifier is a
// no-op (logging only).
func NewNotifier(botToken, channel string, logger *slog.Logger) *Notifier {
	var client *goslack.Client
	if botToken != "" {
		client = goslack.New(botToken)
	}
	return &Notifier{client: client, channel: channel, logger: logger}
}

// IsEnabled reports whether the notifier has a configured Slack client.
func (n *Notifier) IsEnabled() bool {
	return n.client != nil && n.channel != ""
}

// Alert posts a best-effort message tagged with the originating component.
// Errors are logged, never returned: callers must not let ops alerting
// failures affect the operation that triggered the alert.
func (n *Notifier) Alert(ctx context.Context, component, message string) {
	telemetry.OpsAlertsTotal.WithLabelValues(component).Inc()

	if !n.IsEnabled() {
		n.logger.Warn("ops alert (slack disabled)", "component", component, "message", message)
		return
	}

	text := fmt.Sprintf(":warning: [%s] %s", component, message)
	if _, _, err := n.client.PostMessageContext(ctx, n.channel, goslack.MsgOptionText(text, false)); err != nil {
		n.logger.Error("posting ops alert to slack", "component", component, "error", err)
	}
}
