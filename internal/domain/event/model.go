package event

import (
	"context"
	"fmt"
	"time"

	"github.com/clinsync/clinsync/internal/offline"
)

// Event maps to the events table plus the event_patients join table.
// PatientIDs holds the joined patient ids and is persisted through the join
// table, not an events column.
type Event struct {
	ID         int64          `db:"id" json:"id"`
	Title      string         `db:"title" json:"title"`
	Kind       string         `db:"kind" json:"kind"`
	Location   string         `db:"location" json:"location"`
	StartsAt   string         `db:"starts_at" json:"starts_at"`
	EndsAt     string         `db:"ends_at" json:"ends_at"`
	PatientIDs []int64        `db:"-" json:"patient_ids"`
	SyncStatus offline.Status `db:"sync_status" json:"sync_status"`
}

func (e *Event) RecordID() int64 { return e.ID }

func (e *Event) RecordStatus() offline.Status { return e.SyncStatus }

// Request is the wire payload for creating or updating an event. PatientIDs
// always carries the full relation set; the stored set is replaced, never
// merged.
type Request struct {
	Title      string  `json:"title"`
	Kind       string  `json:"kind"`
	Location   string  `json:"location"`
	StartsAt   string  `json:"starts_at"`
	EndsAt     string  `json:"ends_at"`
	PatientIDs []int64 `json:"patient_ids"`
}

var validKinds = map[string]bool{
	"appointment": true, "admission": true, "procedure": true,
	"home-visit": true, "telehealth": true, "other": true,
}

func (r *Request) Validate() error {
	if r.Title == "" {
		return fmt.Errorf("title is required")
	}
	if r.Kind == "" {
		r.Kind = "other"
	}
	if !validKinds[r.Kind] {
		return fmt.Errorf("invalid kind: %s", r.Kind)
	}
	if r.StartsAt == "" {
		return fmt.Errorf("starts_at is required")
	}
	starts, err := time.Parse(time.RFC3339, r.StartsAt)
	if err != nil {
		return fmt.Errorf("invalid starts_at: %s", r.StartsAt)
	}
	if r.EndsAt != "" {
		ends, err := time.Parse(time.RFC3339, r.EndsAt)
		if err != nil {
			return fmt.Errorf("invalid ends_at: %s", r.EndsAt)
		}
		if ends.Before(starts) {
			return fmt.Errorf("ends_at precedes starts_at")
		}
	}
	for _, pid := range r.PatientIDs {
		if pid == 0 {
			return fmt.Errorf("patient_ids must not contain zero")
		}
	}
	return nil
}

// Materialize builds a local record from a request payload, used when the
// write cannot reach the backend.
func Materialize(req Request, id int64) *Event {
	return &Event{
		ID:         id,
		Title:      req.Title,
		Kind:       req.Kind,
		Location:   req.Location,
		StartsAt:   req.StartsAt,
		EndsAt:     req.EndsAt,
		PatientIDs: req.PatientIDs,
	}
}

// RequestOf rebuilds the wire payload from a stored record at dispatch time.
// Deferred while any joined patient id is still temporary.
func RequestOf(_ context.Context, e *Event) (Request, error) {
	for _, pid := range e.PatientIDs {
		if pid < 0 {
			return Request{}, offline.ErrUnresolvedRef
		}
	}
	return Request{
		Title:      e.Title,
		Kind:       e.Kind,
		Location:   e.Location,
		StartsAt:   e.StartsAt,
		EndsAt:     e.EndsAt,
		PatientIDs: e.PatientIDs,
	}, nil
}
