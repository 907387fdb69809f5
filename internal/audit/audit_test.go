package audit

import (
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/devco/pricingcore/pkg/domain"
)

func TestLog_DropsWhenFull(t *testing.T) {
	logger := slog.Default()
	w := NewWriter(nil, logger)
	// Don't start the background goroutine — nothing drains the channel.

	for i := 0; i < bufferSize; i++ {
		w.Log(Entry{Action: "test", PropertyID: uuid.New()})
	}

	// The next log should be dropped (non-blocking), not a deadlock.
	w.Log(Entry{Action: "dropped", PropertyID: uuid.New()})

	if len(w.entries) != bufferSize {
		t.Errorf("buffer size = %d, want %d", len(w.entries), bufferSize)
	}
}

func TestLog_SetsTimestampWhenZero(t *testing.T) {
	logger := slog.Default()
	w := NewWriter(nil, logger)

	w.Log(Entry{Action: "create", PropertyID: uuid.New()})

	entry := <-w.entries
	if entry.At.IsZero() {
		t.Fatal("expected Log to stamp a non-zero timestamp")
	}
}

func TestLogMutation_MarshalsChanges(t *testing.T) {
	logger := slog.Default()
	w := NewWriter(nil, logger)

	propertyID := uuid.New()
	userID := uuid.New()

	w.LogMutation(domain.PropertyMutation{
		PropertyID: propertyID,
		Actor:      domain.Actor{UserID: userID, Email: "ops@example.com", Role: domain.RoleManager},
		Action:     "status_changed",
		Changes:    map[string]any{"status": "archived"},
		At:         time.Now().UTC(),
	})

	entry := <-w.entries
	if entry.PropertyID != propertyID {
		t.Errorf("PropertyID = %v, want %v", entry.PropertyID, propertyID)
	}
	if entry.UserID != userID {
		t.Errorf("UserID = %v, want %v", entry.UserID, userID)
	}
	if string(entry.Changes) == "" {
		t.Error("expected non-empty marshalled changes")
	}
}
