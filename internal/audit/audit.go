// Package audit provides an async, buffered writer for property_logs rows:
// every mutation to a property is recorded without making the caller wait
// on a database round trip.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/devco/pricingcore/internal/db"
	"github.com/devco/pricingcore/pkg/domain"
)

// Entry represents a single property log entry to be written.
type Entry struct {
	PropertyID uuid.UUID
	UserID     uuid.UUID
	UserEmail  string
	Action     string
	Changes    json.RawMessage
	At         time.Time
}

// Writer is an async, buffered property log writer. Entries are sent to an
// internal channel and flushed by a background goroutine.
type Writer struct {
	pool    *pgxpool.Pool
	logger  *slog.Logger
	entries chan Entry
	wg      sync.WaitGroup
}

const (
	bufferSize    = 256
	flushInterval = 2 * time.Second
	flushBatch    = 32
)

// NewWriter creates a Writer. Call Start to begin processing entries.
func NewWriter(pool *pgxpool.Pool, logger *slog.Logger) *Writer {
	return &Writer{
		pool:    pool,
		logger:  logger,
		entries: make(chan Entry, bufferSize),
	}
}

// Start launches the background goroutine that flushes entries to the
// database and returns immediately. The goroutine exits, after flushing
// the entries already queued, when the context is cancelled or Close is
// called.
func (w *Writer) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
}

// Close waits for all pending entries to be flushed.
func (w *Writer) Close() {
	close(w.entries)
	w.wg.Wait()
}

// Log enqueues a property log entry for async writing. It never blocks the
// caller; if the buffer is full the entry is dropped and a warning is logged.
func (w *Writer) Log(entry Entry) {
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	select {
	case w.entries <- entry:
	default:
		w.logger.Warn("property log buffer full, dropping entry",
			"action", entry.Action, "property_id", entry.PropertyID)
	}
}

// LogMutation is a convenience wrapper around Log for a domain.PropertyMutation.
func (w *Writer) LogMutation(m domain.PropertyMutation) {
	changes, err := json.Marshal(m.Changes)
	if err != nil {
		w.logger.Error("marshalling property mutation changes", "error", err, "action", m.Action)
		changes = json.RawMessage(`{}`)
	}
	w.Log(Entry{
		PropertyID: m.PropertyID,
		UserID:     m.Actor.UserID,
		UserEmail:  m.Actor.Email,
		Action:     m.Action,
		Changes:    changes,
		At:         m.At,
	})
}

// run is the background loop that drains the entries channel.
func (w *Writer) run(ctx context.Context) {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]Entry, 0, flushBatch)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		w.flush(batch)
		batch = batch[:0]
	}

	for {
		select {
		case entry, ok := <-w.entries:
			if !ok {
				flush()
				return
			}
			batch = append(batch, entry)
			if len(batch) >= flushBatch {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			for {
				select {
				case entry, ok := <-w.entries:
					if !ok {
						flush()
						return
					}
					batch = append(batch, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}

// flush writes a batch of entries to the database.
func (w *Writer) flush(entries []Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	q := db.New(w.pool)
	for _, e := range entries {
		arg := db.CreatePropertyLogParams{
			ID:         uuid.New(),
			PropertyID: e.PropertyID,
			Action:     e.Action,
			Changes:    e.Changes,
			Timestamp:  e.At,
		}
		if e.UserID != uuid.Nil {
			arg.UserID = pgtype.UUID{Bytes: e.UserID, Valid: true}
		}
		if e.UserEmail != "" {
			arg.UserEmail = pgtype.Text{String: e.UserEmail, Valid: true}
		}
		if err := q.CreatePropertyLog(ctx, arg); err != nil {
			w.logger.Error("writing property log entry", "error", err,
				"action", e.Action, "property_id", e.PropertyID)
		}
	}
}
