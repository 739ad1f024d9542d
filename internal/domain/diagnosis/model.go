package diagnosis

import (
	"context"
	"fmt"
	"time"

	"github.com/clinsync/clinsync/internal/offline"
)

// Diagnosis maps to the diagnoses table. RecordedAt is stored as RFC 3339
// text so rows survive round trips through SQLite unchanged.
type Diagnosis struct {
	ID             int64          `db:"id" json:"id"`
	PatientID      int64          `db:"patient_id" json:"patient_id"`
	Code           string         `db:"code" json:"code"`
	Display        string         `db:"display" json:"display"`
	ClinicalStatus string         `db:"clinical_status" json:"clinical_status"`
	RecordedAt     string         `db:"recorded_at" json:"recorded_at"`
	SyncStatus     offline.Status `db:"sync_status" json:"sync_status"`
}

func (d *Diagnosis) RecordID() int64 { return d.ID }

func (d *Diagnosis) RecordStatus() offline.Status { return d.SyncStatus }

// Request is the wire payload for creating or updating a diagnosis.
type Request struct {
	PatientID      int64  `json:"patient_id"`
	Code           string `json:"code"`
	Display        string `json:"display"`
	ClinicalStatus string `json:"clinical_status"`
	RecordedAt     string `json:"recorded_at"`
}

var validClinicalStatuses = map[string]bool{
	"active": true, "recurrence": true, "relapse": true,
	"inactive": true, "remission": true, "resolved": true,
}

func (r *Request) Validate() error {
	if r.PatientID == 0 {
		return fmt.Errorf("patient_id is required")
	}
	if r.Code == "" {
		return fmt.Errorf("code is required")
	}
	if r.ClinicalStatus == "" {
		r.ClinicalStatus = "active"
	}
	if !validClinicalStatuses[r.ClinicalStatus] {
		return fmt.Errorf("invalid clinical_status: %s", r.ClinicalStatus)
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
func Materialize(req Request, id int64) *Diagnosis {
	if req.RecordedAt == "" {
		req.RecordedAt = time.Now().UTC().Format(time.RFC3339)
	}
	return &Diagnosis{
		ID:             id,
		PatientID:      req.PatientID,
		Code:           req.Code,
		Display:        req.Display,
		ClinicalStatus: req.ClinicalStatus,
		RecordedAt:     req.RecordedAt,
	}
}

// RequestOf rebuilds the wire payload from a stored record at dispatch time.
// While the referenced patient still carries a temporary id the payload
// cannot be sent, so the dispatch is deferred until that id resolves.
func RequestOf(_ context.Context, d *Diagnosis) (Request, error) {
	if d.PatientID < 0 {
		return Request{}, offline.ErrUnresolvedRef
	}
	return Request{
		PatientID:      d.PatientID,
		Code:           d.Code,
		Display:        d.Display,
		ClinicalStatus: d.ClinicalStatus,
		RecordedAt:     d.RecordedAt,
	}, nil
}
