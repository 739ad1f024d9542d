package auditevent

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/clinsync/clinsync/internal/offline"
	"github.com/clinsync/clinsync/internal/platform/api"
)

// Remote talks to the backend audit-events resource.
type Remote struct {
	api *api.Client
}

func NewRemote(client *api.Client) *Remote {
	return &Remote{api: client}
}

func (r *Remote) List(ctx context.Context) ([]*AuditEvent, error) {
	var out []*AuditEvent
	if err := r.api.GetJSON(ctx, "/audit-events", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Remote) Get(ctx context.Context, id int64) (*AuditEvent, bool, error) {
	var out AuditEvent
	err := r.api.GetJSON(ctx, fmt.Sprintf("/audit-events/%d", id), &out)
	if err != nil {
		var srv *offline.ServerError
		if errors.As(err, &srv) && srv.Code == http.StatusNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &out, true, nil
}

func (r *Remote) Create(ctx context.Context, req Request) (*AuditEvent, error) {
	var out AuditEvent
	if err := r.api.PostJSON(ctx, "/audit-events", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update and Delete complete the remote contract; the local API never
// mutates the audit log, so neither is reachable through a handler.

func (r *Remote) Update(ctx context.Context, id int64, req Request) (*AuditEvent, error) {
	var out AuditEvent
	if err := r.api.PutJSON(ctx, fmt.Sprintf("/audit-events/%d", id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Remote) Delete(ctx context.Context, id int64) error {
	return r.api.Delete(ctx, fmt.Sprintf("/audit-events/%d", id))
}
