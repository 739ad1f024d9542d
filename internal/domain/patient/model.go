package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/clinsync/clinsync/internal/offline"
)

// Patient maps to the patients table.
type Patient struct {
	ID         int64          `db:"id" json:"id"`
	FirstName  string         `db:"first_name" json:"first_name"`
	LastName   string         `db:"last_name" json:"last_name"`
	BirthDate  string         `db:"birth_date" json:"birth_date"`
	Gender     string         `db:"gender" json:"gender"`
	Phone      string         `db:"phone" json:"phone"`
	SyncStatus offline.Status `db:"sync_status" json:"sync_status"`
}

func (p *Patient) RecordID() int64 { return p.ID }

func (p *Patient) RecordStatus() offline.Status { return p.SyncStatus }

// Request is the wire payload for creating or updating a patient.
type Request struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	BirthDate string `json:"birth_date"`
	Gender    string `json:"gender"`
	Phone     string `json:"phone"`
}

var validGenders = map[string]bool{
	"male": true, "female": true, "other": true, "unknown": true, "": true,
}

func (r *Request) Validate() error {
	if r.FirstName == "" && r.LastName == "" {
		return fmt.Errorf("a name is required")
	}
	if !validGenders[r.Gender] {
		return fmt.Errorf("invalid gender: %s", r.Gender)
	}
	if r.BirthDate != "" {
		if _, err := time.Parse("2006-01-02", r.BirthDate); err != nil {
			return fmt.Errorf("invalid birth_date: %s", r.BirthDate)
		}
	}
	return nil
}

// Materialize builds a local record from a request payload, used when the
// write cannot reach the backend.
func Materialize(req Request, id int64) *Patient {
	return &Patient{
		ID:        id,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		BirthDate: req.BirthDate,
		Gender:    req.Gender,
		Phone:     req.Phone,
	}
}

// RequestOf rebuilds the wire payload from a stored record at dispatch time.
func RequestOf(_ context.Context, p *Patient) (Request, error) {
	return Request{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		BirthDate: p.BirthDate,
		Gender:    p.Gender,
		Phone:     p.Phone,
	}, nil
}
