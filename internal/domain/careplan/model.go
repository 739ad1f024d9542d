package careplan

import (
	"context"
	"fmt"
	"time"

	"github.com/clinsync/clinsync/internal/offline"
)

// -- CarePlan --

// CarePlan maps to the care_plans table.
type CarePlan struct {
	ID          int64          `db:"id" json:"id"`
	PatientID   int64          `db:"patient_id" json:"patient_id"`
	Title       string         `db:"title" json:"title"`
	Status      string         `db:"status" json:"status"`
	PeriodStart string         `db:"period_start" json:"period_start"`
	PeriodEnd   string         `db:"period_end" json:"period_end"`
	SyncStatus  offline.Status `db:"sync_status" json:"sync_status"`
}

func (p *CarePlan) RecordID() int64 { return p.ID }

func (p *CarePlan) RecordStatus() offline.Status { return p.SyncStatus }

// CarePlanRequest is the wire payload for creating or updating a care plan.
type CarePlanRequest struct {
	PatientID   int64  `json:"patient_id"`
	Title       string `json:"title"`
	Status      string `json:"status"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
}

var validPlanStatuses = map[string]bool{
	"draft": true, "active": true, "on-hold": true,
	"completed": true, "revoked": true, "entered-in-error": true,
}

func (r *CarePlanRequest) Validate() error {
	if r.PatientID == 0 {
		return fmt.Errorf("patient_id is required")
	}
	if r.Title == "" {
		return fmt.Errorf("title is required")
	}
	if r.Status == "" {
		r.Status = "active"
	}
	if !validPlanStatuses[r.Status] {
		return fmt.Errorf("invalid status: %s", r.Status)
	}
	for _, d := range []string{r.PeriodStart, r.PeriodEnd} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return fmt.Errorf("invalid period date: %s", d)
		}
	}
	return nil
}

// MaterializeCarePlan builds a local record from a request payload, used when
// the write cannot reach the backend.
func MaterializeCarePlan(req CarePlanRequest, id int64) *CarePlan {
	return &CarePlan{
		ID:          id,
		PatientID:   req.PatientID,
		Title:       req.Title,
		Status:      req.Status,
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
	}
}

// CarePlanRequestOf rebuilds the wire payload from a stored record at
// dispatch time. Deferred while the referenced patient id is still temporary.
func CarePlanRequestOf(_ context.Context, p *CarePlan) (CarePlanRequest, error) {
	if p.PatientID < 0 {
		return CarePlanRequest{}, offline.ErrUnresolvedRef
	}
	return CarePlanRequest{
		PatientID:   p.PatientID,
		Title:       p.Title,
		Status:      p.Status,
		PeriodStart: p.PeriodStart,
		PeriodEnd:   p.PeriodEnd,
	}, nil
}

// -- Goal --

// Goal maps to the goals table. Achieved is stored as 0/1.
type Goal struct {
	ID          int64          `db:"id" json:"id"`
	CarePlanID  int64          `db:"care_plan_id" json:"care_plan_id"`
	Description string         `db:"description" json:"description"`
	TargetDate  string         `db:"target_date" json:"target_date"`
	Achieved    bool           `db:"achieved" json:"achieved"`
	SyncStatus  offline.Status `db:"sync_status" json:"sync_status"`
}

func (g *Goal) RecordID() int64 { return g.ID }

func (g *Goal) RecordStatus() offline.Status { return g.SyncStatus }

// GoalRequest is the wire payload for creating or updating a goal.
type GoalRequest struct {
	CarePlanID  int64  `json:"care_plan_id"`
	Description string `json:"description"`
	TargetDate  string `json:"target_date"`
	Achieved    bool   `json:"achieved"`
}

func (r *GoalRequest) Validate() error {
	if r.CarePlanID == 0 {
		return fmt.Errorf("care_plan_id is required")
	}
	if r.Description == "" {
		return fmt.Errorf("description is required")
	}
	if r.TargetDate != "" {
		if _, err := time.Parse("2006-01-02", r.TargetDate); err != nil {
			return fmt.Errorf("invalid target_date: %s", r.TargetDate)
		}
	}
	return nil
}

// MaterializeGoal builds a local record from a request payload, used when the
// write cannot reach the backend.
func MaterializeGoal(req GoalRequest, id int64) *Goal {
	return &Goal{
		ID:          id,
		CarePlanID:  req.CarePlanID,
		Description: req.Description,
		TargetDate:  req.TargetDate,
		Achieved:    req.Achieved,
	}
}

// GoalRequestOf rebuilds the wire payload from a stored record at dispatch
// time. Deferred while the referenced care plan id is still temporary.
func GoalRequestOf(_ context.Context, g *Goal) (GoalRequest, error) {
	if g.CarePlanID < 0 {
		return GoalRequest{}, offline.ErrUnresolvedRef
	}
	return GoalRequest{
		CarePlanID:  g.CarePlanID,
		Description: g.Description,
		TargetDate:  g.TargetDate,
		Achieved:    g.Achieved,
	}, nil
}

// -- Measure --

// Measure maps to the measures table.
type Measure struct {
	ID         int64          `db:"id" json:"id"`
	GoalID     int64          `db:"goal_id" json:"goal_id"`
	Name       string         `db:"name" json:"name"`
	Value      float64        `db:"value" json:"value"`
	Unit       string         `db:"unit" json:"unit"`
	RecordedAt string         `db:"recorded_at" json:"recorded_at"`
	SyncStatus offline.Status `db:"sync_status" json:"sync_status"`
}

func (m *Measure) RecordID() int64 { return m.ID }

func (m *Measure) RecordStatus() offline.Status { return m.SyncStatus }

// MeasureRequest is the wire payload for creating or updating a measure.
type MeasureRequest struct {
	GoalID     int64   `json:"goal_id"`
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	Unit       string  `json:"unit"`
	RecordedAt string  `json:"recorded_at"`
}

func (r *MeasureRequest) Validate() error {
	if r.GoalID == 0 {
		return fmt.Errorf("goal_id is required")
	}
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if r.RecordedAt != "" {
		if _, err := time.Parse(time.RFC3339, r.RecordedAt); err != nil {
			return fmt.Errorf("invalid recorded_at: %s", r.RecordedAt)
		}
	}
	return nil
}

// MaterializeMeasure builds a local record from a request payload, used when
// the write cannot reach the backend.
func MaterializeMeasure(req MeasureRequest, id int64) *Measure {
	if req.RecordedAt == "" {
		req.RecordedAt = time.Now().UTC().Format(time.RFC3339)
	}
	return &Measure{
		ID:         id,
		GoalID:     req.GoalID,
		Name:       req.Name,
		Value:      req.Value,
		Unit:       req.Unit,
		RecordedAt: req.RecordedAt,
	}
}

// MeasureRequestOf rebuilds the wire payload from a stored record at dispatch
// time. Deferred while the referenced goal id is still temporary.
func MeasureRequestOf(_ context.Context, m *Measure) (MeasureRequest, error) {
	if m.GoalID < 0 {
		return MeasureRequest{}, offline.ErrUnresolvedRef
	}
	return MeasureRequest{
		GoalID:     m.GoalID,
		Name:       m.Name,
		Value:      m.Value,
		Unit:       m.Unit,
		RecordedAt: m.RecordedAt,
	}, nil
}
