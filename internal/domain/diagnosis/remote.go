package diagnosis

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/clinsync/clinsync/internal/offline"
	"github.com/clinsync/clinsync/internal/platform/api"
)

// Remote talks to the backend diagnoses resource.
type Remote struct {
	api *api.Client
}

func NewRemote(client *api.Client) *Remote {
	return &Remote{api: client}
}

func (r *Remote) List(ctx context.Context) ([]*Diagnosis, error) {
	var out []*Diagnosis
	if err := r.api.GetJSON(ctx, "/diagnoses", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Remote) Get(ctx context.Context, id int64) (*Diagnosis, bool, error) {
	var out Diagnosis
	err := r.api.GetJSON(ctx, fmt.Sprintf("/diagnoses/%d", id), &out)
	if err != nil {
		var srv *offline.ServerError
		if errors.As(err, &srv) && srv.Code == http.StatusNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &out, true, nil
}

func (r *Remote) Create(ctx context.Context, req Request) (*Diagnosis, error) {
	var out Diagnosis
	if err := r.api.PostJSON(ctx, "/diagnoses", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Remote) Update(ctx context.Context, id int64, req Request) (*Diagnosis, error) {
	var out Diagnosis
	if err := r.api.PutJSON(ctx, fmt.Sprintf("/diagnoses/%d", id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Remote) Delete(ctx context.Context, id int64) error {
	return r.api.Delete(ctx, fmt.Sprintf("/diagnoses/%d", id))
}
