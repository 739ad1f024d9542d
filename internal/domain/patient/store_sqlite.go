package patient

import (
	"context"
	"database/sql"

	"github.com/clinsync/clinsync/internal/offline"
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// SQLiteStore is the local patient store.
type SQLiteStore struct{ db *sql.DB }

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const patientCols = `id, first_name, last_name, birth_date, gender, phone, sync_status`

func scanPatient(row rowScanner) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.BirthDate,
		&p.Gender, &p.Phone, &p.SyncStatus)
	return &p, err
}

func (s *SQLiteStore) GetAll(ctx context.Context) ([]*Patient, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+patientCols+` FROM patients ORDER BY id`)
	if err != nil {
		return nil, &offline.StorageError{Op: "patients.get_all", Err: err}
	}
	defer rows.Close()

	var out []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, &offline.StorageError{Op: "patients.get_all", Err: err}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &offline.StorageError{Op: "patients.get_all", Err: err}
	}
	return out, nil
}

func (s *SQLiteStore) GetByID(ctx context.Context, id int64) (*Patient, bool, error) {
	p, err := scanPatient(s.db.QueryRowContext(ctx,
		`SELECT `+patientCols+` FROM patients WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &offline.StorageError{Op: "patients.get_by_id", Err: err}
	}
	return p, true, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, p *Patient, status offline.Status) error {
	p.SyncStatus = status
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO patients (id, first_name, last_name, birth_date, gender, phone, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.FirstName, p.LastName, p.BirthDate, p.Gender, p.Phone, p.SyncStatus)
	if err != nil {
		return &offline.StorageError{Op: "patients.insert", Err: err}
	}
	return nil
}

func (s *SQLiteStore) Update(ctx context.Context, p *Patient, status offline.Status) error {
	p.SyncStatus = status
	_, err := s.db.ExecContext(ctx, `
		UPDATE patients SET first_name = ?, last_name = ?, birth_date = ?, gender = ?, phone = ?, sync_status = ?
		WHERE id = ?`,
		p.FirstName, p.LastName, p.BirthDate, p.Gender, p.Phone, p.SyncStatus, p.ID)
	if err != nil {
		return &offline.StorageError{Op: "patients.update", Err: err}
	}
	return nil
}

func (s *SQLiteStore) MarkForDeletion(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE patients SET sync_status = ? WHERE id = ?`, offline.StatusPendingDelete, id)
	if err != nil {
		return &offline.StorageError{Op: "patients.mark_for_deletion", Err: err}
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM patients WHERE id = ?`, id)
	if err != nil {
		return &offline.StorageError{Op: "patients.delete", Err: err}
	}
	return nil
}

func (s *SQLiteStore) GetToSync(ctx context.Context) ([]*Patient, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+patientCols+` FROM patients WHERE sync_status != ? ORDER BY id`, offline.StatusSynced)
	if err != nil {
		return nil, &offline.StorageError{Op: "patients.get_to_sync", Err: err}
	}
	defer rows.Close()

	var out []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, &offline.StorageError{Op: "patients.get_to_sync", Err: err}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &offline.StorageError{Op: "patients.get_to_sync", Err: err}
	}
	return out, nil
}

func (s *SQLiteStore) UpdateSyncStatus(ctx context.Context, id int64, status offline.Status) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE patients SET sync_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return &offline.StorageError{Op: "patients.update_sync_status", Err: err}
	}
	return nil
}
