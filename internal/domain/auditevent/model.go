package auditevent

import (
	"context"
	"fmt"
	"time"

	"github.com/clinsync/clinsync/internal/offline"
)

// AuditEvent maps to the audit_events table. The audit log is itself a
// synced entity: appended locally, shipped to the backend like any other
// pending create.
type AuditEvent struct {
	ID         int64          `db:"id" json:"id"`
	Action     string         `db:"action" json:"action"`
	EntityType string         `db:"entity_type" json:"entity_type"`
	EntityID   int64          `db:"entity_id" json:"entity_id"`
	Actor      string         `db:"actor" json:"actor"`
	Detail     string         `db:"detail" json:"detail"`
	RecordedAt string         `db:"recorded_at" json:"recorded_at"`
	SyncStatus offline.Status `db:"sync_status" json:"sync_status"`
}

func (a *AuditEvent) RecordID() int64 { return a.ID }

func (a *AuditEvent) RecordStatus() offline.Status { return a.SyncStatus }

// Request is the wire payload for appending an audit event.
type Request struct {
	Action     string `json:"action"`
	EntityType string `json:"entity_type"`
	EntityID   int64  `json:"entity_id"`
	Actor      string `json:"actor"`
	Detail     string `json:"detail"`
	RecordedAt string `json:"recorded_at"`
}

func (r *Request) Validate() error {
	if r.Action == "" {
		return fmt.Errorf("action is required")
	}
	if r.EntityType == "" {
		return fmt.Errorf("entity_type is required")
	}
	if r.RecordedAt != "" {
		if _, err := time.Parse(time.RFC3339, r.RecordedAt); err != nil {
			return fmt.Errorf("invalid recorded_at: %s", r.RecordedAt)
		}
	}
	return nil
}

// Materialize builds a local record from a request payload, used when the
// write cannot reach the backend.
func Materialize(req Request, id int64) *AuditEvent {
	if req.RecordedAt == "" {
		req.RecordedAt = time.Now().UTC().Format(time.RFC3339)
	}
	return &AuditEvent{
		ID:         id,
		Action:     req.Action,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		Actor:      req.Actor,
		Detail:     req.Detail,
		RecordedAt: req.RecordedAt,
	}
}

// RequestOf rebuilds the wire payload from a stored record at dispatch time.
// Deferred while the referenced entity id is still temporary; the manager
// runs this repository last, so ids that will resolve already have.
func RequestOf(_ context.Context, a *AuditEvent) (Request, error) {
	if a.EntityID < 0 {
		return Request{}, offline.ErrUnresolvedRef
	}
	return Request{
		Action:     a.Action,
		EntityType: a.EntityType,
		EntityID:   a.EntityID,
		Actor:      a.Actor,
		Detail:     a.Detail,
		RecordedAt: a.RecordedAt,
	}, nil
}
