package medication

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/clinsync/clinsync/internal/offline"
	"github.com/clinsync/clinsync/internal/platform/api"
)

// Remote talks to the backend medications resource.
type Remote struct {
	api *api.Client
}

func NewRemote(client *api.Client) *Remote {
	return &Remote{api: client}
}

func (r *Remote) List(ctx context.Context) ([]*Medication, error) {
	var out []*Medication
	if err := r.api.GetJSON(ctx, "/medications", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Remote) Get(ctx context.Context, id int64) (*Medication, bool, error) {
	var out Medication
	err := r.api.GetJSON(ctx, fmt.Sprintf("/medications/%d", id), &out)
	if err != nil {
		var srv *offline.ServerError
		if errors.As(err, &srv) && srv.Code == http.StatusNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &out, true, nil
}

func (r *Remote) Create(ctx context.Context, req Request) (*Medication, error) {
	var out Medication
	if err := r.api.PostJSON(ctx, "/medications", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Remote) Update(ctx context.Context, id int64, req Request) (*Medication, error) {
	var out Medication
	if err := r.api.PutJSON(ctx, fmt.Sprintf("/medications/%d", id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Remote) Delete(ctx context.Context, id int64) error {
	return r.api.Delete(ctx, fmt.Sprintf("/medications/%d", id))
}
