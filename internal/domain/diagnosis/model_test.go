package diagnosis

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
		{"valid", Request{PatientID: 1, Code: "E11.9", ClinicalStatus: "active"}, false},
		{"temporary patient id", Request{PatientID: -5, Code: "E11.9"}, false},
		{"missing patient", Request{Code: "E11.9"}, true},
		{"missing code", Request{PatientID: 1}, true},
		{"resolved status", Request{PatientID: 1, Code: "J45", ClinicalStatus: "resolved"}, false},
		{"unknown status", Request{PatientID: 1, Code: "J45", ClinicalStatus: "cured"}, true},
		{"valid recorded_at", Request{PatientID: 1, Code: "J45", RecordedAt: "2026-03-01T10:00:00Z"}, false},
		{"bad recorded_at", Request{PatientID: 1, Code: "J45", RecordedAt: "yesterday"}, true},
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

func TestRequest_Validate_DefaultsClinicalStatus(t *testing.T) {
	req := Request{PatientID: 1, Code: "E11.9"}
	if err := req.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.ClinicalStatus != "active" {
		t.Errorf("expected clinical_status to default to active, got %s", req.ClinicalStatus)
	}
}

func TestMaterialize_DefaultsRecordedAt(t *testing.T) {
	d := Materialize(Request{PatientID: 1, Code: "E11.9"}, -7)

	if d.ID != -7 {
		t.Errorf("expected id -7, got %d", d.ID)
	}
	if d.RecordedAt == "" {
		t.Error("expected recorded_at to be stamped")
	}
}

func TestMaterialize_KeepsGivenRecordedAt(t *testing.T) {
	d := Materialize(Request{PatientID: 1, Code: "E11.9", RecordedAt: "2026-03-01T10:00:00Z"}, -7)
	if d.RecordedAt != "2026-03-01T10:00:00Z" {
		t.Errorf("expected recorded_at to be kept, got %s", d.RecordedAt)
	}
}

func TestRequestOf(t *testing.T) {
	d := &Diagnosis{ID: 3, PatientID: 12, Code: "E11.9", Display: "Type 2 diabetes", ClinicalStatus: "active"}

	req, err := RequestOf(context.Background(), d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.PatientID != 12 || req.Code != "E11.9" || req.Display != "Type 2 diabetes" {
		t.Errorf("request does not mirror the record: %+v", req)
	}
}

func TestRequestOf_UnresolvedPatient(t *testing.T) {
	d := &Diagnosis{ID: 3, PatientID: -50, Code: "E11.9"}

	_, err := RequestOf(context.Background(), d)
	if !errors.Is(err, offline.ErrUnresolvedRef) {
		t.Errorf("expected ErrUnresolvedRef while the patient id is temporary, got %v", err)
	}
}
