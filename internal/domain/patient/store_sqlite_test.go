package patient

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/clinsync/clinsync/internal/offline"
	"github.com/clinsync/clinsync/internal/platform/db"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "agent.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewSQLiteStore(database)
}

func TestStore_InsertAndGetByID(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	p := &Patient{ID: 1, FirstName: "Ada", LastName: "Lovelace", BirthDate: "1815-12-10", Gender: "female"}
	if err := store.Insert(ctx, p, offline.StatusSynced); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, found, err := store.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("expected record to be found")
	}
	if got.FirstName != "Ada" || got.LastName != "Lovelace" {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.SyncStatus != offline.StatusSynced {
		t.Errorf("expected status %s, got %s", offline.StatusSynced, got.SyncStatus)
	}
}

func TestStore_GetByID_Missing(t *testing.T) {
	store := openStore(t)

	_, found, err := store.GetByID(context.Background(), 999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected absence for unknown id")
	}
}

func TestStore_GetAll_OrderedByID(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for _, p := range []*Patient{
		{ID: 7, FirstName: "Charlie"},
		{ID: -3, FirstName: "Alice"},
		{ID: 2, FirstName: "Bob"},
	} {
		if err := store.Insert(ctx, p, offline.StatusSynced); err != nil {
			t.Fatalf("insert %d: %v", p.ID, err)
		}
	}

	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
	for i, want := range []int64{-3, 2, 7} {
		if all[i].ID != want {
			t.Errorf("position %d: expected id %d, got %d", i, want, all[i].ID)
		}
	}
}

func TestStore_Update(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	p := &Patient{ID: 1, FirstName: "Ada", LastName: "Lovelace"}
	if err := store.Insert(ctx, p, offline.StatusSynced); err != nil {
		t.Fatalf("insert: %v", err)
	}

	p.Phone = "555-0199"
	if err := store.Update(ctx, p, offline.StatusPendingUpdate); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _, err := store.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Phone != "555-0199" {
		t.Errorf("expected updated phone, got %s", got.Phone)
	}
	if got.SyncStatus != offline.StatusPendingUpdate {
		t.Errorf("expected status %s, got %s", offline.StatusPendingUpdate, got.SyncStatus)
	}
}

func TestStore_MarkForDeletion(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	p := &Patient{ID: 1, FirstName: "Ada"}
	if err := store.Insert(ctx, p, offline.StatusSynced); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := store.MarkForDeletion(ctx, 1); err != nil {
		t.Fatalf("mark for deletion: %v", err)
	}

	got, found, err := store.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("tombstoned row must remain readable")
	}
	if got.SyncStatus != offline.StatusPendingDelete {
		t.Errorf("expected status %s, got %s", offline.StatusPendingDelete, got.SyncStatus)
	}
}

func TestStore_Delete(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	p := &Patient{ID: 1, FirstName: "Ada"}
	if err := store.Insert(ctx, p, offline.StatusSynced); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := store.Delete(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}

	_, found, err := store.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected row to be gone")
	}
}

func TestStore_GetToSync(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	seeds := []struct {
		id     int64
		status offline.Status
	}{
		{1, offline.StatusSynced},
		{-2, offline.StatusPendingCreate},
		{3, offline.StatusPendingUpdate},
		{4, offline.StatusPendingDelete},
	}
	for _, s := range seeds {
		if err := store.Insert(ctx, &Patient{ID: s.id, FirstName: "P"}, s.status); err != nil {
			t.Fatalf("insert %d: %v", s.id, err)
		}
	}

	pending, err := store.GetToSync(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("expected 3 pending records, got %d", len(pending))
	}
	for _, p := range pending {
		if p.SyncStatus == offline.StatusSynced {
			t.Errorf("record %d: synced row must not be returned", p.ID)
		}
	}
}

func TestStore_UpdateSyncStatus(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.Insert(ctx, &Patient{ID: 1, FirstName: "Ada"}, offline.StatusPendingUpdate); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := store.UpdateSyncStatus(ctx, 1, offline.StatusSynced); err != nil {
		t.Fatalf("update sync status: %v", err)
	}

	got, _, err := store.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.SyncStatus != offline.StatusSynced {
		t.Errorf("expected status %s, got %s", offline.StatusSynced, got.SyncStatus)
	}
}
