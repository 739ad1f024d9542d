package medication

import (
	"context"
	"database/sql"
	"errors"

	"github.com/clinsync/clinsync/internal/offline"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// SQLiteStore persists medications in the agent database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const medicationCols = `id, patient_id, name, dose, frequency, start_date, end_date, sync_status`

func scanMedication(row rowScanner) (*Medication, error) {
	var m Medication
	err := row.Scan(&m.ID, &m.PatientID, &m.Name, &m.Dose, &m.Frequency, &m.StartDate, &m.EndDate, &m.SyncStatus)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *SQLiteStore) GetAll(ctx context.Context) ([]*Medication, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+medicationCols+` FROM medications ORDER BY id`)
	if err != nil {
		return nil, &offline.StorageError{Op: "medications.get_all", Err: err}
	}
	defer rows.Close()

	var out []*Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, &offline.StorageError{Op: "medications.get_all", Err: err}
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &offline.StorageError{Op: "medications.get_all", Err: err}
	}
	return out, nil
}

func (s *SQLiteStore) GetByID(ctx context.Context, id int64) (*Medication, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+medicationCols+` FROM medications WHERE id = ?`, id)
	m, err := scanMedication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &offline.StorageError{Op: "medications.get_by_id", Err: err}
	}
	return m, true, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, m *Medication, status offline.Status) error {
	m.SyncStatus = status
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO medications (`+medicationCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.PatientID, m.Name, m.Dose, m.Frequency, m.StartDate, m.EndDate, m.SyncStatus)
	if err != nil {
		return &offline.StorageError{Op: "medications.insert", Err: err}
	}
	return nil
}

func (s *SQLiteStore) Update(ctx context.Context, m *Medication, status offline.Status) error {
	m.SyncStatus = status
	_, err := s.db.ExecContext(ctx,
		`UPDATE medications SET patient_id = ?, name = ?, dose = ?, frequency = ?, start_date = ?, end_date = ?, sync_status = ? WHERE id = ?`,
		m.PatientID, m.Name, m.Dose, m.Frequency, m.StartDate, m.EndDate, m.SyncStatus, m.ID)
	if err != nil {
		return &offline.StorageError{Op: "medications.update", Err: err}
	}
	return nil
}

func (s *SQLiteStore) MarkForDeletion(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE medications SET sync_status = ? WHERE id = ?`, offline.StatusPendingDelete, id)
	if err != nil {
		return &offline.StorageError{Op: "medications.mark_for_deletion", Err: err}
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM medications WHERE id = ?`, id)
	if err != nil {
		return &offline.StorageError{Op: "medications.delete", Err: err}
	}
	return nil
}

func (s *SQLiteStore) GetToSync(ctx context.Context) ([]*Medication, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+medicationCols+` FROM medications WHERE sync_status != ? ORDER BY id`, offline.StatusSynced)
	if err != nil {
		return nil, &offline.StorageError{Op: "medications.get_to_sync", Err: err}
	}
	defer rows.Close()

	var out []*Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, &offline.StorageError{Op: "medications.get_to_sync", Err: err}
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &offline.StorageError{Op: "medications.get_to_sync", Err: err}
	}
	return out, nil
}

func (s *SQLiteStore) UpdateSyncStatus(ctx context.Context, id int64, status offline.Status) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE medications SET sync_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return &offline.StorageError{Op: "medications.update_sync_status", Err: err}
	}
	return nil
}

// ReassignPatient rewrites rows that reference a temporary patient id once
// the backend has assigned the real one.
func (s *SQLiteStore) ReassignPatient(ctx context.Context, oldID, newID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE medications SET patient_id = ? WHERE patient_id = ?`, newID, oldID)
	if err != nil {
		return &offline.StorageError{Op: "medications.reassign_patient", Err: err}
	}
	return nil
}
