package careplan

import (
	"context"
	"database/sql"
	"errors"

	"github.com/clinsync/clinsync/internal/offline"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// -- CarePlan store --

// CarePlanStore persists care plans in the agent database.
type CarePlanStore struct {
	db *sql.DB
}

func NewCarePlanStore(db *sql.DB) *CarePlanStore {
	return &CarePlanStore{db: db}
}

const carePlanCols = `id, patient_id, title, status, period_start, period_end, sync_status`

func scanCarePlan(row rowScanner) (*CarePlan, error) {
	var p CarePlan
	err := row.Scan(&p.ID, &p.PatientID, &p.Title, &p.Status, &p.PeriodStart, &p.PeriodEnd, &p.SyncStatus)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *CarePlanStore) GetAll(ctx context.Context) ([]*CarePlan, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+carePlanCols+` FROM care_plans ORDER BY id`)
	if err != nil {
		return nil, &offline.StorageError{Op: "care_plans.get_all", Err: err}
	}
	defer rows.Close()

	var out []*CarePlan
	for rows.Next() {
		p, err := scanCarePlan(rows)
		if err != nil {
			return nil, &offline.StorageError{Op: "care_plans.get_all", Err: err}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &offline.StorageError{Op: "care_plans.get_all", Err: err}
	}
	return out, nil
}

func (s *CarePlanStore) GetByID(ctx context.Context, id int64) (*CarePlan, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+carePlanCols+` FROM care_plans WHERE id = ?`, id)
	p, err := scanCarePlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &offline.StorageError{Op: "care_plans.get_by_id", Err: err}
	}
	return p, true, nil
}

func (s *CarePlanStore) Insert(ctx context.Context, p *CarePlan, status offline.Status) error {
	p.SyncStatus = status
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO care_plans (`+carePlanCols+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.PatientID, p.Title, p.Status, p.PeriodStart, p.PeriodEnd, p.SyncStatus)
	if err != nil {
		return &offline.StorageError{Op: "care_plans.insert", Err: err}
	}
	return nil
}

func (s *CarePlanStore) Update(ctx context.Context, p *CarePlan, status offline.Status) error {
	p.SyncStatus = status
	_, err := s.db.ExecContext(ctx,
		`UPDATE care_plans SET patient_id = ?, title = ?, status = ?, period_start = ?, period_end = ?, sync_status = ? WHERE id = ?`,
		p.PatientID, p.Title, p.Status, p.PeriodStart, p.PeriodEnd, p.SyncStatus, p.ID)
	if err != nil {
		return &offline.StorageError{Op: "care_plans.update", Err: err}
	}
	return nil
}

func (s *CarePlanStore) MarkForDeletion(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE care_plans SET sync_status = ? WHERE id = ?`, offline.StatusPendingDelete, id)
	if err != nil {
		return &offline.StorageError{Op: "care_plans.mark_for_deletion", Err: err}
	}
	return nil
}

func (s *CarePlanStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM care_plans WHERE id = ?`, id)
	if err != nil {
		return &offline.StorageError{Op: "care_plans.delete", Err: err}
	}
	return nil
}

func (s *CarePlanStore) GetToSync(ctx context.Context) ([]*CarePlan, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+carePlanCols+` FROM care_plans WHERE sync_status != ? ORDER BY id`, offline.StatusSynced)
	if err != nil {
		return nil, &offline.StorageError{Op: "care_plans.get_to_sync", Err: err}
	}
	defer rows.Close()

	var out []*CarePlan
	for rows.Next() {
		p, err := scanCarePlan(rows)
		if err != nil {
			return nil, &offline.StorageError{Op: "care_plans.get_to_sync", Err: err}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &offline.StorageError{Op: "care_plans.get_to_sync", Err: err}
	}
	return out, nil
}

func (s *CarePlanStore) UpdateSyncStatus(ctx context.Context, id int64, status offline.Status) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE care_plans SET sync_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return &offline.StorageError{Op: "care_plans.update_sync_status", Err: err}
	}
	return nil
}

// ReassignPatient rewrites rows that reference a temporary patient id once
// the backend has assigned the real one.
func (s *CarePlanStore) ReassignPatient(ctx context.Context, oldID, newID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE care_plans SET patient_id = ? WHERE patient_id = ?`, newID, oldID)
	if err != nil {
		return &offline.StorageError{Op: "care_plans.reassign_patient", Err: err}
	}
	return nil
}

// -- Goal store --

// GoalStore persists goals in the agent database.
type GoalStore struct {
	db *sql.DB
}

func NewGoalStore(db *sql.DB) *GoalStore {
	return &GoalStore{db: db}
}

const goalCols = `id, care_plan_id, description, target_date, achieved, sync_status`

func scanGoal(row rowScanner) (*Goal, error) {
	var g Goal
	err := row.Scan(&g.ID, &g.CarePlanID, &g.Description, &g.TargetDate, &g.Achieved, &g.SyncStatus)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *GoalStore) GetAll(ctx context.Context) ([]*Goal, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+goalCols+` FROM goals ORDER BY id`)
	if err != nil {
		return nil, &offline.StorageError{Op: "goals.get_all", Err: err}
	}
	defer rows.Close()

	var out []*Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, &offline.StorageError{Op: "goals.get_all", Err: err}
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, &offline.StorageError{Op: "goals.get_all", Err: err}
	}
	return out, nil
}

func (s *GoalStore) GetByID(ctx context.Context, id int64) (*Goal, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+goalCols+` FROM goals WHERE id = ?`, id)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &offline.StorageError{Op: "goals.get_by_id", Err: err}
	}
	return g, true, nil
}

func (s *GoalStore) Insert(ctx context.Context, g *Goal, status offline.Status) error {
	g.SyncStatus = status
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO goals (`+goalCols+`) VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, g.CarePlanID, g.Description, g.TargetDate, g.Achieved, g.SyncStatus)
	if err != nil {
		return &offline.StorageError{Op: "goals.insert", Err: err}
	}
	return nil
}

func (s *GoalStore) Update(ctx context.Context, g *Goal, status offline.Status) error {
	g.SyncStatus = status
	_, err := s.db.ExecContext(ctx,
		`UPDATE goals SET care_plan_id = ?, description = ?, target_date = ?, achieved = ?, sync_status = ? WHERE id = ?`,
		g.CarePlanID, g.Description, g.TargetDate, g.Achieved, g.SyncStatus, g.ID)
	if err != nil {
		return &offline.StorageError{Op: "goals.update", Err: err}
	}
	return nil
}

func (s *GoalStore) MarkForDeletion(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE goals SET sync_status = ? WHERE id = ?`, offline.StatusPendingDelete, id)
	if err != nil {
		return &offline.StorageError{Op: "goals.mark_for_deletion", Err: err}
	}
	return nil
}

func (s *GoalStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return &offline.StorageError{Op: "goals.delete", Err: err}
	}
	return nil
}

func (s *GoalStore) GetToSync(ctx context.Context) ([]*Goal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+goalCols+` FROM goals WHERE sync_status != ? ORDER BY id`, offline.StatusSynced)
	if err != nil {
		return nil, &offline.StorageError{Op: "goals.get_to_sync", Err: err}
	}
	defer rows.Close()

	var out []*Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, &offline.StorageError{Op: "goals.get_to_sync", Err: err}
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, &offline.StorageError{Op: "goals.get_to_sync", Err: err}
	}
	return out, nil
}

func (s *GoalStore) UpdateSyncStatus(ctx context.Context, id int64, status offline.Status) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE goals SET sync_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return &offline.StorageError{Op: "goals.update_sync_status", Err: err}
	}
	return nil
}

// ReassignCarePlan rewrites rows that reference a temporary care plan id once
// the backend has assigned the real one.
func (s *GoalStore) ReassignCarePlan(ctx context.Context, oldID, newID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE goals SET care_plan_id = ? WHERE care_plan_id = ?`, newID, oldID)
	if err != nil {
		return &offline.StorageError{Op: "goals.reassign_care_plan", Err: err}
	}
	return nil
}

// -- Measure store --

// MeasureStore persists measures in the agent database.
type MeasureStore struct {
	db *sql.DB
}

func NewMeasureStore(db *sql.DB) *MeasureStore {
	return &MeasureStore{db: db}
}

const measureCols = `id, goal_id, name, value, unit, recorded_at, sync_status`

func scanMeasure(row rowScanner) (*Measure, error) {
	var m Measure
	err := row.Scan(&m.ID, &m.GoalID, &m.Name, &m.Value, &m.Unit, &m.RecordedAt, &m.SyncStatus)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *MeasureStore) GetAll(ctx context.Context) ([]*Measure, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+measureCols+` FROM measures ORDER BY id`)
	if err != nil {
		return nil, &offline.StorageError{Op: "measures.get_all", Err: err}
	}
	defer rows.Close()

	var out []*Measure
	for rows.Next() {
		m, err := scanMeasure(rows)
		if err != nil {
			return nil, &offline.StorageError{Op: "measures.get_all", Err: err}
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &offline.StorageError{Op: "measures.get_all", Err: err}
	}
	return out, nil
}

func (s *MeasureStore) GetByID(ctx context.Context, id int64) (*Measure, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+measureCols+` FROM measures WHERE id = ?`, id)
	m, err := scanMeasure(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &offline.StorageError{Op: "measures.get_by_id", Err: err}
	}
	return m, true, nil
}

func (s *MeasureStore) Insert(ctx context.Context, m *Measure, status offline.Status) error {
	m.SyncStatus = status
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO measures (`+measureCols+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.GoalID, m.Name, m.Value, m.Unit, m.RecordedAt, m.SyncStatus)
	if err != nil {
		return &offline.StorageError{Op: "measures.insert", Err: err}
	}
	return nil
}

func (s *MeasureStore) Update(ctx context.Context, m *Measure, status offline.Status) error {
	m.SyncStatus = status
	_, err := s.db.ExecContext(ctx,
		`UPDATE measures SET goal_id = ?, name = ?, value = ?, unit = ?, recorded_at = ?, sync_status = ? WHERE id = ?`,
		m.GoalID, m.Name, m.Value, m.Unit, m.RecordedAt, m.SyncStatus, m.ID)
	if err != nil {
		return &offline.StorageError{Op: "measures.update", Err: err}
	}
	return nil
}

func (s *MeasureStore) MarkForDeletion(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE measures SET sync_status = ? WHERE id = ?`, offline.StatusPendingDelete, id)
	if err != nil {
		return &offline.StorageError{Op: "measures.mark_for_deletion", Err: err}
	}
	return nil
}

func (s *MeasureStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM measures WHERE id = ?`, id)
	if err != nil {
		return &offline.StorageError{Op: "measures.delete", Err: err}
	}
	return nil
}

func (s *MeasureStore) GetToSync(ctx context.Context) ([]*Measure, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+measureCols+` FROM measures WHERE sync_status != ? ORDER BY id`, offline.StatusSynced)
	if err != nil {
		return nil, &offline.StorageError{Op: "measures.get_to_sync", Err: err}
	}
	defer rows.Close()

	var out []*Measure
	for rows.Next() {
		m, err := scanMeasure(rows)
		if err != nil {
			return nil, &offline.StorageError{Op: "measures.get_to_sync", Err: err}
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &offline.StorageError{Op: "measures.get_to_sync", Err: err}
	}
	return out, nil
}

func (s *MeasureStore) UpdateSyncStatus(ctx context.Context, id int64, status offline.Status) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE measures SET sync_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return &offline.StorageError{Op: "measures.update_sync_status", Err: err}
	}
	return nil
}

// ReassignGoal rewrites rows that reference a temporary goal id once the
// backend has assigned the real one.
func (s *MeasureStore) ReassignGoal(ctx context.Context, oldID, newID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE measures SET goal_id = ? WHERE goal_id = ?`, newID, oldID)
	if err != nil {
		return &offline.StorageError{Op: "measures.reassign_goal", Err: err}
	}
	return nil
}
