package diagnosis

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

func TestStore_RoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	d := &Diagnosis{ID: 1, PatientID: 10, Code: "E11.9", Display: "Type 2 diabetes",
		ClinicalStatus: "active", RecordedAt: "2026-03-01T10:00:00Z"}
	if err := store.Insert(ctx, d, offline.StatusSynced); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, found, err := store.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("expected record to be found")
	}
	if got.PatientID != 10 || got.Code != "E11.9" || got.RecordedAt != "2026-03-01T10:00:00Z" {
		t.Errorf("unexpected record: %+v", got)
	}
}

func TestStore_ReassignPatient(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	rows := []*Diagnosis{
		{ID: -1, PatientID: -50, Code: "E11.9"},
		{ID: -2, PatientID: -50, Code: "J45"},
		{ID: 3, PatientID: 12, Code: "I10"},
	}
	for _, d := range rows {
		status := offline.StatusPendingCreate
		if d.ID > 0 {
			status = offline.StatusSynced
		}
		if err := store.Insert(ctx, d, status); err != nil {
			t.Fatalf("insert %d: %v", d.ID, err)
		}
	}

	if err := store.ReassignPatient(ctx, -50, 200); err != nil {
		t.Fatalf("reassign: %v", err)
	}

	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, d := range all {
		switch d.ID {
		case -1, -2:
			if d.PatientID != 200 {
				t.Errorf("diagnosis %d: expected patient 200, got %d", d.ID, d.PatientID)
			}
		case 3:
			if d.PatientID != 12 {
				t.Errorf("diagnosis 3: unrelated row must keep patient 12, got %d", d.PatientID)
			}
		}
	}
}
