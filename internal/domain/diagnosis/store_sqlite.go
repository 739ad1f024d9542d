package diagnosis

import (
	"context"
	"database/sql"
	"errors"

	"github.com/clinsync/clinsync/internal/offline"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// SQLiteStore persists diagnoses in the agent database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const diagnosisCols = `id, patient_id, code, display, clinical_status, recorded_at, sync_status`

func scanDiagnosis(row rowScanner) (*Diagnosis, error) {
	var d Diagnosis
	err := row.Scan(&d.ID, &d.PatientID, &d.Code, &d.Display, &d.ClinicalStatus, &d.RecordedAt, &d.SyncStatus)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *SQLiteStore) GetAll(ctx context.Context) ([]*Diagnosis, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+diagnosisCols+` FROM diagnoses ORDER BY id`)
	if err != nil {
		return nil, &offline.StorageError{Op: "diagnoses.get_all", Err: err}
	}
	defer rows.Close()

	var out []*Diagnosis
	for rows.Next() {
		d, err := scanDiagnosis(rows)
		if err != nil {
			return nil, &offline.StorageError{Op: "diagnoses.get_all", Err: err}
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, &offline.StorageError{Op: "diagnoses.get_all", Err: err}
	}
	return out, nil
}

func (s *SQLiteStore) GetByID(ctx context.Context, id int64) (*Diagnosis, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+diagnosisCols+` FROM diagnoses WHERE id = ?`, id)
	d, err := scanDiagnosis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &offline.StorageError{Op: "diagnoses.get_by_id", Err: err}
	}
	return d, true, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, d *Diagnosis, status offline.Status) error {
	d.SyncStatus = status
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO diagnoses (`+diagnosisCols+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.PatientID, d.Code, d.Display, d.ClinicalStatus, d.RecordedAt, d.SyncStatus)
	if err != nil {
		return &offline.StorageError{Op: "diagnoses.insert", Err: err}
	}
	return nil
}

func (s *SQLiteStore) Update(ctx context.Context, d *Diagnosis, status offline.Status) error {
	d.SyncStatus = status
	_, err := s.db.ExecContext(ctx,
		`UPDATE diagnoses SET patient_id = ?, code = ?, display = ?, clinical_status = ?, recorded_at = ?, sync_status = ? WHERE id = ?`,
		d.PatientID, d.Code, d.Display, d.ClinicalStatus, d.RecordedAt, d.SyncStatus, d.ID)
	if err != nil {
		return &offline.StorageError{Op: "diagnoses.update", Err: err}
	}
	return nil
}

func (s *SQLiteStore) MarkForDeletion(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE diagnoses SET sync_status = ? WHERE id = ?`, offline.StatusPendingDelete, id)
	if err != nil {
		return &offline.StorageError{Op: "diagnoses.mark_for_deletion", Err: err}
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM diagnoses WHERE id = ?`, id)
	if err != nil {
		return &offline.StorageError{Op: "diagnoses.delete", Err: err}
	}
	return nil
}

func (s *SQLiteStore) GetToSync(ctx context.Context) ([]*Diagnosis, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+diagnosisCols+` FROM diagnoses WHERE sync_status != ? ORDER BY id`, offline.StatusSynced)
	if err != nil {
		return nil, &offline.StorageError{Op: "diagnoses.get_to_sync", Err: err}
	}
	defer rows.Close()

	var out []*Diagnosis
	for rows.Next() {
		d, err := scanDiagnosis(rows)
		if err != nil {
			return nil, &offline.StorageError{Op: "diagnoses.get_to_sync", Err: err}
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, &offline.StorageError{Op: "diagnoses.get_to_sync", Err: err}
	}
	return out, nil
}

func (s *SQLiteStore) UpdateSyncStatus(ctx context.Context, id int64, status offline.Status) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE diagnoses SET sync_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return &offline.StorageError{Op: "diagnoses.update_sync_status", Err: err}
	}
	return nil
}

// ReassignPatient rewrites rows that reference a temporary patient id once
// the backend has assigned the real one.
func (s *SQLiteStore) ReassignPatient(ctx context.Context, oldID, newID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE diagnoses SET patient_id = ? WHERE patient_id = ?`, newID, oldID)
	if err != nil {
		return &offline.StorageError{Op: "diagnoses.reassign_patient", Err: err}
	}
	return nil
}
