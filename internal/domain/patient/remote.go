package patient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/clinsync/clinsync/internal/offline"
	"github.com/clinsync/clinsync/internal/platform/api"
)

// Remote talks to the backend patients endpoint.
type Remote struct{ api *api.Client }

func NewRemote(client *api.Client) *Remote {
	return &Remote{api: client}
}

func (r *Remote) List(ctx context.Context) ([]*Patient, error) {
	var out []*Patient
	if err := r.api.GetJSON(ctx, "/patients", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Remote) Get(ctx context.Context, id int64) (*Patient, bool, error) {
	var out Patient
	err := r.api.GetJSON(ctx, fmt.Sprintf("/patients/%d", id), &out)
	if err != nil {
		var srv *offline.ServerError
		if errors.As(err, &srv) && srv.Code == http.StatusNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &out, true, nil
}

func (r *Remote) Create(ctx context.Context, req Request) (*Patient, error) {
	var out Patient
	if err := r.api.PostJSON(ctx, "/patients", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Remote) Update(ctx context.Context, id int64, req Request) (*Patient, error) {
	var out Patient
	if err := r.api.PutJSON(ctx, fmt.Sprintf("/patients/%d", id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Remote) Delete(ctx context.Context, id int64) error {
	return r.api.Delete(ctx, fmt.Sprintf("/patients/%d", id))
}
