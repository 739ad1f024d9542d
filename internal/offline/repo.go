package offline

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// Config assembles one entity kind's repository. Store, Remote, Net and the
// two hooks are required; TempIDs may be shared across repositories so ids
// stay unique process-wide. OnResolved is optional.
type Config[R Record, Req any] struct {
	// Kind labels the repository in logs and run reports, e.g. "patients".
	Kind string

	Store  Store[R]
	Remote Remote[R, Req]
	Net    Connectivity

	TempIDs *TempIDs
	Logger  zerolog.Logger

	// Materialize builds a local record from a request payload and an id.
	// Used on the offline create and update paths, where no server record
	// exists to persist.
	Materialize func(req Req, id int64) R

	// RequestOf rebuilds the wire request for a stored record at dispatch
	// time. Implementations that reference other entities return
	// ErrUnresolvedRef while a referenced id is still temporary, which
	// defers the dispatch to a later run.
	RequestOf func(ctx context.Context, rec R) (Req, error)

	// OnResolved is invoked after a pending create is confirmed and the
	// temporary row replaced, so dependent rows in other stores can be
	// rewritten from tempID to serverID.
	OnResolved func(ctx context.Context, tempID, serverID int64) error
}

// Repository is the synchronization core for one entity kind. It composes a
// local store and a remote client, persists every write locally no matter
// what the network does, and tracks each record's state so Synchronize can
// replay unsent work. One generic implementation serves every entity kind;
// per-kind variation comes in through Config.
type Repository[R Record, Req any] struct {
	kind    string
	store   Store[R]
	remote  Remote[R, Req]
	net     Connectivity
	tempIDs *TempIDs
	log     zerolog.Logger

	materialize func(req Req, id int64) R
	requestOf   func(ctx context.Context, rec R) (Req, error)
	onResolved  func(ctx context.Context, tempID, serverID int64) error
}

func NewRepository[R Record, Req any](cfg Config[R, Req]) *Repository[R, Req] {
	ids := cfg.TempIDs
	if ids == nil {
		ids = NewTempIDs()
	}
	return &Repository[R, Req]{
		kind:        cfg.Kind,
		store:       cfg.Store,
		remote:      cfg.Remote,
		net:         cfg.Net,
		tempIDs:     ids,
		log:         cfg.Logger.With().Str("component", "repository").Str("kind", cfg.Kind).Logger(),
		materialize: cfg.Materialize,
		requestOf:   cfg.RequestOf,
		onResolved:  cfg.OnResolved,
	}
}

func (r *Repository[R, Req]) Kind() string { return r.kind }

// GetAll reads through to the backend when online, caching the returned
// records as Synced, and falls back to the local store on any remote failure
// or while offline. The local cache is always a valid, if stale, answer.
func (r *Repository[R, Req]) GetAll(ctx context.Context) ([]R, error) {
	if r.net.Online() {
		recs, err := r.remote.List(ctx)
		if err == nil {
			if err := r.cacheRemote(ctx, recs); err != nil {
				return nil, err
			}
			return recs, nil
		}
		r.logRemoteFailure("get_all", err)
	}
	recs, err := r.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// GetByID reads through to the backend for server-assigned ids. Temporary
// negative ids never go remote: the backend has no knowledge of them.
func (r *Repository[R, Req]) GetByID(ctx context.Context, id int64) (R, bool, error) {
	var zero R
	if id >= 0 && r.net.Online() {
		rec, found, err := r.remote.Get(ctx, id)
		if err == nil {
			if !found {
				return zero, false, nil
			}
			if err := r.cacheOne(ctx, rec); err != nil {
				return zero, false, err
			}
			return rec, true, nil
		}
		r.logRemoteFailure("get_by_id", err)
	}
	return r.store.GetByID(ctx, id)
}

// Create persists the record no matter what the network does. Online and
// accepted, the server's record is stored as Synced. Offline, or when the
// remote call fails, the record gets a temporary negative id and is queued
// as PendingCreate; the caller never blocks on connectivity.
func (r *Repository[R, Req]) Create(ctx context.Context, req Req) (R, error) {
	var zero R
	if r.net.Online() && r.sendable(ctx, req, 0) {
		rec, err := r.remote.Create(ctx, req)
		if err == nil {
			if err := r.store.Insert(ctx, rec, StatusSynced); err != nil {
				return zero, err
			}
			return rec, nil
		}
		r.logRemoteFailure("create", err)
	}

	rec := r.materialize(req, r.tempIDs.Next())
	if err := r.store.Insert(ctx, rec, StatusPendingCreate); err != nil {
		return zero, err
	}
	return rec, nil
}

// sendable reports whether a payload can go to the backend as-is. A payload
// referencing a temporary id must stay local until the id resolves; the
// backend has never issued it.
func (r *Repository[R, Req]) sendable(ctx context.Context, req Req, id int64) bool {
	_, err := r.requestOf(ctx, r.materialize(req, id))
	return !errors.Is(err, ErrUnresolvedRef)
}

// Update applies the edit remotely when it can. When it cannot, the edit is
// persisted locally with a status that preserves the record's history: a
// record the server has never seen stays PendingCreate, anything else
// becomes PendingUpdate.
func (r *Repository[R, Req]) Update(ctx context.Context, id int64, req Req) (R, error) {
	var zero R
	if id >= 0 && r.net.Online() && r.sendable(ctx, req, id) {
		rec, err := r.remote.Update(ctx, id, req)
		if err == nil {
			if err := r.store.Update(ctx, rec, StatusSynced); err != nil {
				return zero, err
			}
			return rec, nil
		}
		r.logRemoteFailure("update", err)
	}

	existing, found, err := r.store.GetByID(ctx, id)
	if err != nil {
		return zero, err
	}
	if !found {
		return zero, ErrNotFound
	}

	status := StatusPendingUpdate
	if existing.RecordStatus() == StatusPendingCreate {
		status = StatusPendingCreate
	}
	rec := r.materialize(req, id)
	if err := r.store.Update(ctx, rec, status); err != nil {
		return zero, err
	}
	return rec, nil
}

// Delete removes the record. A record that was never synchronized has no
// remote counterpart, so it is deleted locally at once, which also cancels
// any pending create or update. A Synced record is deleted remotely when
// online; otherwise it is kept as a PendingDelete tombstone until the next
// successful run.
func (r *Repository[R, Req]) Delete(ctx context.Context, id int64) error {
	existing, found, err := r.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}

	if existing.RecordStatus() != StatusSynced {
		return r.store.Delete(ctx, id)
	}

	if r.net.Online() {
		err := r.remote.Delete(ctx, id)
		if err == nil {
			return r.store.Delete(ctx, id)
		}
		r.logRemoteFailure("delete", err)
	}
	return r.store.MarkForDeletion(ctx, id)
}

// HasPending reports whether any record still carries an unsent mutation.
func (r *Repository[R, Req]) HasPending(ctx context.Context) (bool, error) {
	n, err := r.PendingCount(ctx)
	return n > 0, err
}

// PendingCount reports how many records still carry unsent mutations.
func (r *Repository[R, Req]) PendingCount(ctx context.Context) (int, error) {
	pending, err := r.store.GetToSync(ctx)
	if err != nil {
		return 0, err
	}
	return len(pending), nil
}

// Synchronize replays every pending local mutation against the backend, one
// record at a time, then pulls the full remote collection and merges it into
// the local store. Remote failures inside the loop are isolated: one record
// failing never blocks the rest, and the record simply stays queued for the
// next run. The return value is true only when the dispatch loop hit no
// storage failure and the pull fetch succeeded. Offline it is a no-op
// returning false.
func (r *Repository[R, Req]) Synchronize(ctx context.Context) bool {
	if !r.net.Online() {
		return false
	}

	pending, err := r.store.GetToSync(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("synchronize aborted: cannot read pending records")
		return false
	}

	for _, rec := range pending {
		if err := r.dispatch(ctx, rec); err != nil {
			if errors.Is(err, ErrStorage) {
				r.log.Error().Err(err).Int64("id", rec.RecordID()).Msg("synchronize aborted: local storage failure")
				return false
			}
			evt := r.log.Warn()
			if errors.Is(err, ErrUnexpected) {
				evt = r.log.Error()
			}
			evt.Err(err).
				Int64("id", rec.RecordID()).
				Str("status", string(rec.RecordStatus())).
				Msg("record left pending for next run")
		}
	}

	remote, err := r.remote.List(ctx)
	if err != nil {
		r.logRemoteFailure("reconcile", err)
		return false
	}
	if err := r.cacheRemote(ctx, remote); err != nil {
		r.log.Error().Err(err).Msg("reconciliation aborted: local storage failure")
		return false
	}
	return true
}

// dispatch replays a single pending record. Exhaustive over the closed
// status set; a Synced record can only appear here through store corruption
// and is skipped loudly.
func (r *Repository[R, Req]) dispatch(ctx context.Context, rec R) error {
	id := rec.RecordID()

	switch rec.RecordStatus() {
	case StatusPendingCreate:
		req, err := r.requestOf(ctx, rec)
		if err != nil {
			return err
		}
		created, err := r.remote.Create(ctx, req)
		if err != nil {
			return err
		}
		if err := r.store.Delete(ctx, id); err != nil {
			return err
		}
		if err := r.store.Insert(ctx, created, StatusSynced); err != nil {
			return err
		}
		r.log.Info().Int64("temp_id", id).Int64("id", created.RecordID()).Msg("pending create confirmed")
		if r.onResolved != nil {
			if err := r.onResolved(ctx, id, created.RecordID()); err != nil {
				return err
			}
		}
		return nil

	case StatusPendingUpdate:
		req, err := r.requestOf(ctx, rec)
		if err != nil {
			return err
		}
		if _, err := r.remote.Update(ctx, id, req); err != nil {
			return err
		}
		r.log.Info().Int64("id", id).Msg("pending update confirmed")
		return r.store.UpdateSyncStatus(ctx, id, StatusSynced)

	case StatusPendingDelete:
		if err := r.remote.Delete(ctx, id); err != nil {
			return err
		}
		r.log.Info().Int64("id", id).Msg("pending delete confirmed")
		return r.store.Delete(ctx, id)

	case StatusSynced:
		r.log.Warn().Int64("id", id).Msg("synced record in pending set, skipping")
		return nil
	}

	r.log.Warn().Int64("id", id).Str("status", string(rec.RecordStatus())).Msg("unrecognized status in pending set, skipping")
	return nil
}

// cacheRemote merges a remote collection into the local store: records the
// store has never seen are inserted as Synced, records already settled are
// overwritten with the server version, and records carrying a pending status
// are skipped. Unsent local intent is never clobbered by a pull.
func (r *Repository[R, Req]) cacheRemote(ctx context.Context, recs []R) error {
	for _, rec := range recs {
		if err := r.cacheOne(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository[R, Req]) cacheOne(ctx context.Context, rec R) error {
	local, found, err := r.store.GetByID(ctx, rec.RecordID())
	if err != nil {
		return err
	}
	switch {
	case !found:
		return r.store.Insert(ctx, rec, StatusSynced)
	case local.RecordStatus() == StatusSynced:
		return r.store.Update(ctx, rec, StatusSynced)
	default:
		// Pending local edit wins until its own dispatch settles it.
		return nil
	}
}

func (r *Repository[R, Req]) logRemoteFailure(op string, err error) {
	evt := r.log.Warn()
	if errors.Is(err, ErrUnexpected) {
		evt = r.log.Error()
	}
	evt.Err(err).Str("op", op).Msg("remote call failed, using local store")
}
