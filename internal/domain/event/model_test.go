package event

import (
	"context"
	"errors"
	"testing"

	"github.com/clinsync/clinsync/internal/offline"
)

func TestRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"valid", Request{Title: "Checkup", Kind: "appointment", StartsAt: "2026-03-01T09:00:00Z"}, false},
		{"with patients", Request{Title: "Rounds", Kind: "admission", StartsAt: "2026-03-01T09:00:00Z", PatientIDs: []int64{1, 2}}, false},
		{"temporary patient ids", Request{Title: "Rounds", StartsAt: "2026-03-01T09:00:00Z", PatientIDs: []int64{-4}}, false},
		{"missing title", Request{Kind: "appointment", StartsAt: "2026-03-01T09:00:00Z"}, true},
		{"unknown kind", Request{Title: "Checkup", Kind: "party", StartsAt: "2026-03-01T09:00:00Z"}, true},
		{"missing starts_at", Request{Title: "Checkup", Kind: "appointment"}, true},
		{"bad starts_at", Request{Title: "Checkup", StartsAt: "tomorrow"}, true},
		{"bad ends_at", Request{Title: "Checkup", StartsAt: "2026-03-01T09:00:00Z", EndsAt: "later"}, true},
		{"ends before starts", Request{Title: "Checkup", StartsAt: "2026-03-01T09:00:00Z", EndsAt: "2026-03-01T08:00:00Z"}, true},
		{"zero patient id", Request{Title: "Checkup", StartsAt: "2026-03-01T09:00:00Z", PatientIDs: []int64{0}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestRequest_Validate_DefaultsKind(t *testing.T) {
	req := Request{Title: "Checkup", StartsAt: "2026-03-01T09:00:00Z"}
	if err := req.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Kind != "other" {
		t.Errorf("expected kind to default to other, got %s", req.Kind)
	}
}

func TestMaterialize(t *testing.T) {
	e := Materialize(Request{Title: "Checkup", Kind: "appointment", Location: "Room 4",
		StartsAt: "2026-03-01T09:00:00Z", EndsAt: "2026-03-01T09:30:00Z", PatientIDs: []int64{3, 5}}, -11)

	if e.ID != -11 {
		t.Errorf("expected id -11, got %d", e.ID)
	}
	if e.Title != "Checkup" || e.Location != "Room 4" {
		t.Errorf("fields not carried over: %+v", e)
	}
	if len(e.PatientIDs) != 2 {
		t.Errorf("expected 2 patient ids, got %v", e.PatientIDs)
	}
}

func TestRequestOf(t *testing.T) {
	e := &Event{ID: 9, Title: "Checkup", Kind: "appointment", StartsAt: "2026-03-01T09:00:00Z", PatientIDs: []int64{3, 5}}

	req, err := RequestOf(context.Background(), e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Title != "Checkup" || len(req.PatientIDs) != 2 {
		t.Errorf("request does not mirror the record: %+v", req)
	}
}

func TestRequestOf_UnresolvedJoinedPatient(t *testing.T) {
	e := &Event{ID: 9, Title: "Checkup", PatientIDs: []int64{3, -50}}

	_, err := RequestOf(context.Background(), e)
	if !errors.Is(err, offline.ErrUnresolvedRef) {
		t.Errorf("expected ErrUnresolvedRef while a joined patient id is temporary, got %v", err)
	}
}
