package auditevent

import (
	"context"
	"database/sql"
	"errors"

	"github.com/clinsync/clinsync/internal/offline"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// SQLiteStore persists audit events in the agent database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const auditCols = `id, action, entity_type, entity_id, actor, detail, recorded_at, sync_status`

func scanAuditEvent(row rowScanner) (*AuditEvent, error) {
	var a AuditEvent
	err := row.Scan(&a.ID, &a.Action, &a.EntityType, &a.EntityID, &a.Actor, &a.Detail, &a.RecordedAt, &a.SyncStatus)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *SQLiteStore) GetAll(ctx context.Context) ([]*AuditEvent, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+auditCols+` FROM audit_events ORDER BY id`)
	if err != nil {
		return nil, &offline.StorageError{Op: "audit_events.get_all", Err: err}
	}
	defer rows.Close()

	var out []*AuditEvent
	for rows.Next() {
		a, err := scanAuditEvent(rows)
		if err != nil {
			return nil, &offline.StorageError{Op: "audit_events.get_all", Err: err}
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, &offline.StorageError{Op: "audit_events.get_all", Err: err}
	}
	return out, nil
}

func (s *SQLiteStore) GetByID(ctx context.Context, id int64) (*AuditEvent, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+auditCols+` FROM audit_events WHERE id = ?`, id)
	a, err := scanAuditEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &offline.StorageError{Op: "audit_events.get_by_id", Err: err}
	}
	return a, true, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, a *AuditEvent, status offline.Status) error {
	a.SyncStatus = status
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_events (`+auditCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Action, a.EntityType, a.EntityID, a.Actor, a.Detail, a.RecordedAt, a.SyncStatus)
	if err != nil {
		return &offline.StorageError{Op: "audit_events.insert", Err: err}
	}
	return nil
}

func (s *SQLiteStore) Update(ctx context.Context, a *AuditEvent, status offline.Status) error {
	a.SyncStatus = status
	_, err := s.db.ExecContext(ctx,
		`UPDATE audit_events SET action = ?, entity_type = ?, entity_id = ?, actor = ?, detail = ?, recorded_at = ?, sync_status = ? WHERE id = ?`,
		a.Action, a.EntityType, a.EntityID, a.Actor, a.Detail, a.RecordedAt, a.SyncStatus, a.ID)
	if err != nil {
		return &offline.StorageError{Op: "audit_events.update", Err: err}
	}
	return nil
}

func (s *SQLiteStore) MarkForDeletion(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE audit_events SET sync_status = ? WHERE id = ?`, offline.StatusPendingDelete, id)
	if err != nil {
		return &offline.StorageError{Op: "audit_events.mark_for_deletion", Err: err}
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM audit_events WHERE id = ?`, id)
	if err != nil {
		return &offline.StorageError{Op: "audit_events.delete", Err: err}
	}
	return nil
}

func (s *SQLiteStore) GetToSync(ctx context.Context) ([]*AuditEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+auditCols+` FROM audit_events WHERE sync_status != ? ORDER BY id`, offline.StatusSynced)
	if err != nil {
		return nil, &offline.StorageError{Op: "audit_events.get_to_sync", Err: err}
	}
	defer rows.Close()

	var out []*AuditEvent
	for rows.Next() {
		a, err := scanAuditEvent(rows)
		if err != nil {
			return nil, &offline.StorageError{Op: "audit_events.get_to_sync", Err: err}
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, &offline.StorageError{Op: "audit_events.get_to_sync", Err: err}
	}
	return out, nil
}

func (s *SQLiteStore) UpdateSyncStatus(ctx context.Context, id int64, status offline.Status) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE audit_events SET sync_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return &offline.StorageError{Op: "audit_events.update_sync_status", Err: err}
	}
	return nil
}

// ReassignEntity rewrites rows that reference a temporary entity id once the
// backend has assigned the real one.
func (s *SQLiteStore) ReassignEntity(ctx context.Context, entityType string, oldID, newID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE audit_events SET entity_id = ? WHERE entity_type = ? AND entity_id = ?`,
		newID, entityType, oldID)
	if err != nil {
		return &offline.StorageError{Op: "audit_events.reassign_entity", Err: err}
	}
	return nil
}

// DeleteForEntity drops unsent rows for an entity discarded before it ever
// reached the backend; their temporary id would otherwise never resolve.
func (s *SQLiteStore) DeleteForEntity(ctx context.Context, entityType string, entityID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM audit_events WHERE entity_type = ? AND entity_id = ? AND sync_status != ?`,
		entityType, entityID, offline.StatusSynced)
	if err != nil {
		return &offline.StorageError{Op: "audit_events.delete_for_entity", Err: err}
	}
	return nil
}
