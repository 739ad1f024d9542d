// Package offline implements the offline-first synchronization core: a
// generic per-entity repository that always persists locally, talks to the
// backend opportunistically, and reconciles pending local mutations with
// authoritative server state, plus the manager that orchestrates repositories
// as a group.
package offline

import "fmt"

// Status is the synchronization state of a single record. The underlying
// string values are persisted in SQLite and exchanged with tooling, so they
// must never change.
type Status string

const (
	StatusSynced        Status = "SYNCED"
	StatusPendingCreate Status = "PENDING_CREATE"
	StatusPendingUpdate Status = "PENDING_UPDATE"
	StatusPendingDelete Status = "PENDING_DELETE"
)

// Valid reports whether s is one of the four known record states.
func (s Status) Valid() bool {
	switch s {
	case StatusSynced, StatusPendingCreate, StatusPendingUpdate, StatusPendingDelete:
		return true
	}
	return false
}

// Pending reports whether the record still carries an unsent local mutation.
func (s Status) Pending() bool {
	return s.Valid() && s != StatusSynced
}

// ParseStatus converts a stored string into a Status, rejecting anything
// outside the closed set.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown sync status: %q", raw)
	}
	return s, nil
}

// State is the overall state of the synchronization manager.
type State string

const (
	StateIdle      State = "IDLE"
	StateSyncing   State = "SYNCING"
	StateCompleted State = "COMPLETED"
	StateFailed    State = "FAILED"
)
