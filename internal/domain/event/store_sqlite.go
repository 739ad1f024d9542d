package event

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/clinsync/clinsync/internal/offline"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// SQLiteStore persists events and their patient joins in the agent database.
// Writes touch two tables, so Insert and Update run in a transaction; the
// join set is always replaced wholesale.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const eventCols = `id, title, kind, location, starts_at, ends_at, sync_status`

func scanEvent(row rowScanner) (*Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.Title, &e.Kind, &e.Location, &e.StartsAt, &e.EndsAt, &e.SyncStatus)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *SQLiteStore) GetAll(ctx context.Context) ([]*Event, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+eventCols+` FROM events ORDER BY id`)
	if err != nil {
		return nil, &offline.StorageError{Op: "events.get_all", Err: err}
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, &offline.StorageError{Op: "events.get_all", Err: err}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &offline.StorageError{Op: "events.get_all", Err: err}
	}
	if err := s.attachPatients(ctx, out); err != nil {
		return nil, &offline.StorageError{Op: "events.get_all", Err: err}
	}
	return out, nil
}

func (s *SQLiteStore) GetByID(ctx context.Context, id int64) (*Event, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+eventCols+` FROM events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &offline.StorageError{Op: "events.get_by_id", Err: err}
	}
	if err := s.attachPatients(ctx, []*Event{e}); err != nil {
		return nil, false, &offline.StorageError{Op: "events.get_by_id", Err: err}
	}
	return e, true, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, e *Event, status offline.Status) error {
	e.SyncStatus = status
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &offline.StorageError{Op: "events.insert", Err: err}
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO events (`+eventCols+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Title, e.Kind, e.Location, e.StartsAt, e.EndsAt, e.SyncStatus)
	if err != nil {
		return &offline.StorageError{Op: "events.insert", Err: err}
	}
	if err := replaceJoins(ctx, tx, e.ID, e.PatientIDs); err != nil {
		return &offline.StorageError{Op: "events.insert", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &offline.StorageError{Op: "events.insert", Err: err}
	}
	return nil
}

func (s *SQLiteStore) Update(ctx context.Context, e *Event, status offline.Status) error {
	e.SyncStatus = status
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &offline.StorageError{Op: "events.update", Err: err}
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE events SET title = ?, kind = ?, location = ?, starts_at = ?, ends_at = ?, sync_status = ? WHERE id = ?`,
		e.Title, e.Kind, e.Location, e.StartsAt, e.EndsAt, e.SyncStatus, e.ID)
	if err != nil {
		return &offline.StorageError{Op: "events.update", Err: err}
	}
	if err := replaceJoins(ctx, tx, e.ID, e.PatientIDs); err != nil {
		return &offline.StorageError{Op: "events.update", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &offline.StorageError{Op: "events.update", Err: err}
	}
	return nil
}

func (s *SQLiteStore) MarkForDeletion(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE events SET sync_status = ? WHERE id = ?`, offline.StatusPendingDelete, id)
	if err != nil {
		return &offline.StorageError{Op: "events.mark_for_deletion", Err: err}
	}
	return nil
}

// Delete removes the event row; event_patients rows go with it through the
// schema's ON DELETE CASCADE.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return &offline.StorageError{Op: "events.delete", Err: err}
	}
	return nil
}

func (s *SQLiteStore) GetToSync(ctx context.Context) ([]*Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventCols+` FROM events WHERE sync_status != ? ORDER BY id`, offline.StatusSynced)
	if err != nil {
		return nil, &offline.StorageError{Op: "events.get_to_sync", Err: err}
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, &offline.StorageError{Op: "events.get_to_sync", Err: err}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &offline.StorageError{Op: "events.get_to_sync", Err: err}
	}
	if err := s.attachPatients(ctx, out); err != nil {
		return nil, &offline.StorageError{Op: "events.get_to_sync", Err: err}
	}
	return out, nil
}

func (s *SQLiteStore) UpdateSyncStatus(ctx context.Context, id int64, status offline.Status) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE events SET sync_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return &offline.StorageError{Op: "events.update_sync_status", Err: err}
	}
	return nil
}

// ReassignPatient rewrites join rows that reference a temporary patient id
// once the backend has assigned the real one. OR REPLACE collapses the row
// when an event already references the resolved id.
func (s *SQLiteStore) ReassignPatient(ctx context.Context, oldID, newID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE OR REPLACE event_patients SET patient_id = ? WHERE patient_id = ?`, newID, oldID)
	if err != nil {
		return &offline.StorageError{Op: "events.reassign_patient", Err: err}
	}
	return nil
}

// attachPatients loads the join rows for the given events in one query.
func (s *SQLiteStore) attachPatients(ctx context.Context, events []*Event) error {
	if len(events) == 0 {
		return nil
	}
	byID := make(map[int64]*Event, len(events))
	for _, e := range events {
		byID[e.ID] = e
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT event_id, patient_id FROM event_patients ORDER BY event_id, patient_id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var eventID, patientID int64
		if err := rows.Scan(&eventID, &patientID); err != nil {
			return err
		}
		if e, ok := byID[eventID]; ok {
			e.PatientIDs = append(e.PatientIDs, patientID)
		}
	}
	return rows.Err()
}

func replaceJoins(ctx context.Context, tx *sql.Tx, eventID int64, patientIDs []int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM event_patients WHERE event_id = ?`, eventID); err != nil {
		return err
	}
	ids := dedupe(patientIDs)
	for _, pid := range ids {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO event_patients (event_id, patient_id) VALUES (?, ?)`, eventID, pid)
		if err != nil {
			return err
		}
	}
	return nil
}

func dedupe(ids []int64) []int64 {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
