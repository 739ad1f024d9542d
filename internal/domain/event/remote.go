package event

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/clinsync/clinsync/internal/offline"
	"github.com/clinsync/clinsync/internal/platform/api"
)

// Remote talks to the backend events resource.
type Remote struct {
	api *api.Client
}

func NewRemote(client *api.Client) *Remote {
	return &Remote{api: client}
}

func (r *Remote) List(ctx context.Context) ([]*Event, error) {
	var out []*Event
	if err := r.api.GetJSON(ctx, "/events", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Remote) Get(ctx context.Context, id int64) (*Event, bool, error) {
	var out Event
	err := r.api.GetJSON(ctx, fmt.Sprintf("/events/%d", id), &out)
	if err != nil {
		var srv *offline.ServerError
		if errors.As(err, &srv) && srv.Code == http.StatusNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &out, true, nil
}

func (r *Remote) Create(ctx context.Context, req Request) (*Event, error) {
	var out Event
	if err := r.api.PostJSON(ctx, "/events", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Remote) Update(ctx context.Context, id int64, req Request) (*Event, error) {
	var out Event
	if err := r.api.PutJSON(ctx, fmt.Sprintf("/events/%d", id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Remote) Delete(ctx context.Context, id int64) error {
	return r.api.Delete(ctx, fmt.Sprintf("/events/%d", id))
}
