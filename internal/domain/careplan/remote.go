package careplan

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/clinsync/clinsync/internal/offline"
	"github.com/clinsync/clinsync/internal/platform/api"
)

func absent(err error) bool {
	var srv *offline.ServerError
	return errors.As(err, &srv) && srv.Code == http.StatusNotFound
}

// -- CarePlan remote --

// CarePlanRemote talks to the backend careplans resource.
type CarePlanRemote struct {
	api *api.Client
}

func NewCarePlanRemote(client *api.Client) *CarePlanRemote {
	return &CarePlanRemote{api: client}
}

func (r *CarePlanRemote) List(ctx context.Context) ([]*CarePlan, error) {
	var out []*CarePlan
	if err := r.api.GetJSON(ctx, "/careplans", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CarePlanRemote) Get(ctx context.Context, id int64) (*CarePlan, bool, error) {
	var out CarePlan
	err := r.api.GetJSON(ctx, fmt.Sprintf("/careplans/%d", id), &out)
	if err != nil {
		if absent(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &out, true, nil
}

func (r *CarePlanRemote) Create(ctx context.Context, req CarePlanRequest) (*CarePlan, error) {
	var out CarePlan
	if err := r.api.PostJSON(ctx, "/careplans", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *CarePlanRemote) Update(ctx context.Context, id int64, req CarePlanRequest) (*CarePlan, error) {
	var out CarePlan
	if err := r.api.PutJSON(ctx, fmt.Sprintf("/careplans/%d", id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *CarePlanRemote) Delete(ctx context.Context, id int64) error {
	return r.api.Delete(ctx, fmt.Sprintf("/careplans/%d", id))
}

// -- Goal remote --

// GoalRemote talks to the backend goals resource.
type GoalRemote struct {
	api *api.Client
}

func NewGoalRemote(client *api.Client) *GoalRemote {
	return &GoalRemote{api: client}
}

func (r *GoalRemote) List(ctx context.Context) ([]*Goal, error) {
	var out []*Goal
	if err := r.api.GetJSON(ctx, "/goals", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GoalRemote) Get(ctx context.Context, id int64) (*Goal, bool, error) {
	var out Goal
	err := r.api.GetJSON(ctx, fmt.Sprintf("/goals/%d", id), &out)
	if err != nil {
		if absent(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &out, true, nil
}

func (r *GoalRemote) Create(ctx context.Context, req GoalRequest) (*Goal, error) {
	var out Goal
	if err := r.api.PostJSON(ctx, "/goals", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *GoalRemote) Update(ctx context.Context, id int64, req GoalRequest) (*Goal, error) {
	var out Goal
	if err := r.api.PutJSON(ctx, fmt.Sprintf("/goals/%d", id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *GoalRemote) Delete(ctx context.Context, id int64) error {
	return r.api.Delete(ctx, fmt.Sprintf("/goals/%d", id))
}

// -- Measure remote --

// MeasureRemote talks to the backend measures resource.
type MeasureRemote struct {
	api *api.Client
}

func NewMeasureRemote(client *api.Client) *MeasureRemote {
	return &MeasureRemote{api: client}
}

func (r *MeasureRemote) List(ctx context.Context) ([]*Measure, error) {
	var out []*Measure
	if err := r.api.GetJSON(ctx, "/measures", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MeasureRemote) Get(ctx context.Context, id int64) (*Measure, bool, error) {
	var out Measure
	err := r.api.GetJSON(ctx, fmt.Sprintf("/measures/%d", id), &out)
	if err != nil {
		if absent(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &out, true, nil
}

func (r *MeasureRemote) Create(ctx context.Context, req MeasureRequest) (*Measure, error) {
	var out Measure
	if err := r.api.PostJSON(ctx, "/measures", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *MeasureRemote) Update(ctx context.Context, id int64, req MeasureRequest) (*Measure, error) {
	var out Measure
	if err := r.api.PutJSON(ctx, fmt.Sprintf("/measures/%d", id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *MeasureRemote) Delete(ctx context.Context, id int64) error {
	return r.api.Delete(ctx, fmt.Sprintf("/measures/%d", id))
}
