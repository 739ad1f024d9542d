package auditevent

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/clinsync/clinsync/internal/netmon"
	"github.com/clinsync/clinsync/internal/offline"
)

// stubRemote stands in for the backend in tests that run with connectivity
// down.
type stubRemote struct{}

func (stubRemote) List(context.Context) ([]*AuditEvent, error) {
	return nil, &offline.ConnectivityError{Op: "audit_events.list", Cause: errors.New("offline")}
}

func (stubRemote) Get(context.Context, int64) (*AuditEvent, bool, error) {
	return nil, false, &offline.ConnectivityError{Op: "audit_events.get", Cause: errors.New("offline")}
}

func (stubRemote) Create(context.Context, Request) (*AuditEvent, error) {
	return nil, &offline.ConnectivityError{Op: "audit_events.create", Cause: errors.New("offline")}
}

func (stubRemote) Update(context.Context, int64, Request) (*AuditEvent, error) {
	return nil, &offline.ConnectivityError{Op: "audit_events.update", Cause: errors.New("offline")}
}

func (stubRemote) Delete(context.Context, int64) error {
	return &offline.ConnectivityError{Op: "audit_events.delete", Cause: errors.New("offline")}
}

func newOfflineRecorder(t *testing.T) (*Recorder, *SQLiteStore) {
	t.Helper()
	store := openStore(t)
	repo := offline.NewRepository(offline.Config[*AuditEvent, Request]{
		Kind:        "audit_events",
		Store:       store,
		Remote:      stubRemote{},
		Net:         netmon.NewStatic(false),
		Logger:      zerolog.Nop(),
		Materialize: Materialize,
		RequestOf:   RequestOf,
	})
	return NewRecorder(repo, store, "dr.adams", zerolog.Nop()), store
}

func TestRecorder_AppendsOffline(t *testing.T) {
	rec, store := newOfflineRecorder(t)

	rec.Record("create", "patients", -5, "Ada Lovelace")
	rec.Close()

	all, err := store.GetAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 audit row, got %d", len(all))
	}
	a := all[0]
	if a.ID >= 0 {
		t.Errorf("expected a temporary negative id, got %d", a.ID)
	}
	if a.SyncStatus != offline.StatusPendingCreate {
		t.Errorf("expected status %s, got %s", offline.StatusPendingCreate, a.SyncStatus)
	}
	if a.Action != "create" || a.EntityType != "patients" || a.EntityID != -5 {
		t.Errorf("unexpected row: %+v", a)
	}
	if a.Actor != "dr.adams" {
		t.Errorf("expected actor dr.adams, got %s", a.Actor)
	}
	if a.RecordedAt == "" {
		t.Error("expected recorded_at to be stamped")
	}
}

func TestRecorder_DeleteOfUnsentEntityDropsItsTrail(t *testing.T) {
	rec, store := newOfflineRecorder(t)
	ctx := context.Background()

	rec.Record("create", "patients", -5, "Ada Lovelace")
	rec.Record("create", "patients", -6, "Grace Hopper")
	rec.Close()

	rec.Record("update", "patients", -5, "Ada King")
	rec.Close()

	// Discarding the unsent patient -5 removes its trail; -6 is untouched.
	rec.Record("delete", "patients", -5, "")
	rec.Close()

	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected only the unrelated row to survive, got %d rows", len(all))
	}
	if all[0].EntityID != -6 {
		t.Errorf("expected the row for entity -6, got %+v", all[0])
	}
}

func TestRecorder_DeleteOfShippedEntityIsRecorded(t *testing.T) {
	rec, store := newOfflineRecorder(t)

	rec.Record("delete", "patients", 7, "")
	rec.Close()

	all, err := store.GetAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 audit row, got %d", len(all))
	}
	if all[0].Action != "delete" || all[0].EntityID != 7 {
		t.Errorf("unexpected row: %+v", all[0])
	}
}
