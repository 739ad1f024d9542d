package auditevent

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinsync/clinsync/internal/offline"
)

// Recorder appends audit events for the agent's own mutations. Appends are
// best-effort and asynchronous: a failed audit write is logged, never
// surfaced to the caller whose mutation triggered it.
type Recorder struct {
	repo  *offline.Repository[*AuditEvent, Request]
	store *SQLiteStore
	actor string
	log   zerolog.Logger
	wg    sync.WaitGroup
}

func NewRecorder(repo *offline.Repository[*AuditEvent, Request], store *SQLiteStore, actor string, logger zerolog.Logger) *Recorder {
	return &Recorder{
		repo:  repo,
		store: store,
		actor: actor,
		log:   logger.With().Str("component", "audit").Logger(),
	}
}

// Record appends one audit event. Deleting a record that never reached the
// backend instead drops its unsent audit rows; the temporary id they
// reference is gone for good, so they could never ship.
func (r *Recorder) Record(action, entityType string, entityID int64, detail string) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if action == "delete" && entityID < 0 {
			if err := r.store.DeleteForEntity(ctx, entityType, entityID); err != nil {
				r.log.Warn().Err(err).Str("entity_type", entityType).Int64("entity_id", entityID).
					Msg("audit cleanup failed")
			}
			return
		}

		req := Request{
			Action:     action,
			EntityType: entityType,
			EntityID:   entityID,
			Actor:      r.actor,
			Detail:     detail,
			RecordedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if _, err := r.repo.Create(ctx, req); err != nil {
			r.log.Warn().Err(err).Str("action", action).Str("entity_type", entityType).Int64("entity_id", entityID).
				Msg("audit append failed")
		}
	}()
}

// Close waits for in-flight appends. Call after the HTTP server has stopped
// accepting requests.
func (r *Recorder) Close() {
	r.wg.Wait()
}
