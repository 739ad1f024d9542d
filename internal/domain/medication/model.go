package medication

import (
	"context"
	"fmt"
	"time"

	"github.com/clinsync/clinsync/internal/offline"
)

// Medication maps to the medications table. Dates are stored as ISO 8601
// dates; EndDate is nil for an open-ended course.
type Medication struct {
	ID         int64          `db:"id" json:"id"`
	PatientID  int64          `db:"patient_id" json:"patient_id"`
	Name       string         `db:"name" json:"name"`
	Dose       string         `db:"dose" json:"dose"`
	Frequency  string         `db:"frequency" json:"frequency"`
	StartDate  string         `db:"start_date" json:"start_date"`
	EndDate    *string        `db:"end_date" json:"end_date,omitempty"`
	SyncStatus offline.Status `db:"sync_status" json:"sync_status"`
}

func (m *Medication) RecordID() int64 { return m.ID }

func (m *Medication) RecordStatus() offline.Status { return m.SyncStatus }

// Request is the wire payload for creating or updating a medication.
type Request struct {
	PatientID int64   `json:"patient_id"`
	Name      string  `json:"name"`
	Dose      string  `json:"dose"`
	Frequency string  `json:"frequency"`
	StartDate string  `json:"start_date"`
	EndDate   *string `json:"end_date,omitempty"`
}

func (r *Request) Validate() error {
	if r.PatientID == 0 {
		return fmt.Errorf("patient_id is required")
	}
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if r.StartDate == "" {
		return fmt.Errorf("start_date is required")
	}
	if _, err := time.Parse("2006-01-02", r.StartDate); err != nil {
		return fmt.Errorf("invalid start_date: %s", r.StartDate)
	}
	if r.EndDate != nil {
		end, err := time.Parse("2006-01-02", *r.EndDate)
		if err != nil {
			return fmt.Errorf("invalid end_date: %s", *r.EndDate)
		}
		start, _ := time.Parse("2006-01-02", r.StartDate)
		if end.Before(start) {
			return fmt.Errorf("end_date precedes start_date")
		}
	}
	return nil
}

// Materialize builds a local record from a request payload, used when the
// write cannot reach the backend.
func Materialize(req Request, id int64) *Medication {
	return &Medication{
		ID:        id,
		PatientID: req.PatientID,
		Name:      req.Name,
		Dose:      req.Dose,
		Frequency: req.Frequency,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}
}

// RequestOf rebuilds the wire payload from a stored record at dispatch time.
// Deferred while the referenced patient id is still temporary.
func RequestOf(_ context.Context, m *Medication) (Request, error) {
	if m.PatientID < 0 {
		return Request{}, offline.ErrUnresolvedRef
	}
	return Request{
		PatientID: m.PatientID,
		Name:      m.Name,
		Dose:      m.Dose,
		Frequency: m.Frequency,
		StartDate: m.StartDate,
		EndDate:   m.EndDate,
	}, nil
}
