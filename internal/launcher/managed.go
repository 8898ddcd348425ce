package launcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cworthy-ocean/cstarorc/internal/converter"
	"github.com/cworthy-ocean/cstarorc/internal/model"
	"github.com/cworthy-ocean/cstarorc/internal/store"
)

// Managed submits steps to a managed task-service API, grounded on
// original_source/.../launch/managed.py. No SDK for this kind of
// managed-task service is available, so this is a documented net/http
// stdlib boundary (see DESIGN.md) rather than a third-party client.
type Managed struct {
	RunID       string
	Cache       *store.Cache
	Converter   converter.Func
	Client      *http.Client
	BaseURL     string
	Account     string
	Queue       string
	MaxWalltime string
}

var _ Launcher = (*Managed)(nil)

func (m *Managed) client() *http.Client {
	if m.Client != nil {
		return m.Client
	}
	return http.DefaultClient
}

type submitRequest struct {
	Command     string   `json:"command"`
	DependsOn   []string `json:"depends_on"`
	Account     string   `json:"account"`
	Queue       string   `json:"queue"`
	MaxWalltime string   `json:"max_walltime"`
}

type submitResponse struct {
	TaskID string `json:"task_id"`
}

type statusResponse struct {
	State string `json:"state"`
}

func (m *Managed) Launch(ctx context.Context, step *model.Step, depHandles []model.Handle) (*model.Task, error) {
	key := store.Key{RunID: m.RunID, Step: step.Name, Phase: store.PhaseSubmit}
	if cached, ok, err := m.Cache.Get(ctx, key); err != nil {
		return nil, &SubmitError{Step: step.Name, Err: err}
	} else if ok {
		return &model.Task{Step: step, Status: model.Submitted, Handle: model.Handle(cached)}, nil
	}

	deps := make([]string, len(depHandles))
	for i, h := range depHandles {
		deps[i] = string(h)
	}

	body, err := json.Marshal(submitRequest{
		Command:     m.Converter(step),
		DependsOn:   deps,
		Account:     m.Account,
		Queue:       m.Queue,
		MaxWalltime: m.MaxWalltime,
	})
	if err != nil {
		return nil, &SubmitError{Step: step.Name, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.BaseURL+"/tasks", bytes.NewReader(body))
	if err != nil {
		return nil, &SubmitError{Step: step.Name, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client().Do(req)
	if err != nil {
		return nil, &SubmitError{Step: step.Name, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, &SubmitError{Step: step.Name, Err: fmt.Errorf("managed task service returned %s", resp.Status)}
	}

	var parsed submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &SubmitError{Step: step.Name, Err: err}
	}

	if err := m.Cache.Put(ctx, key, parsed.TaskID); err != nil {
		return nil, &SubmitError{Step: step.Name, Err: err}
	}

	return &model.Task{Step: step, Status: model.Submitted, Handle: model.Handle(parsed.TaskID)}, nil
}

// QueryStatus maps the service's reported state using the same table as
// the batch launcher (the two tables are identical; the
// overlapping/contradictory mapping present in the original source is not
// reproduced — the table has no CRASHED entry, so a crashed task maps to
// Unsubmitted like any other unlisted state).
func (m *Managed) QueryStatus(ctx context.Context, step *model.Step, task *model.Task) (model.Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.BaseURL+"/tasks/"+string(task.Handle), nil)
	if err != nil {
		return model.Unsubmitted, &QueryError{Step: step.Name, Err: err}
	}
	resp, err := m.client().Do(req)
	if err != nil {
		return model.Unsubmitted, &QueryError{Step: step.Name, Err: err}
	}
	defer resp.Body.Close()

	var parsed statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return model.Unsubmitted, &QueryError{Step: step.Name, Err: err}
	}
	return mapBatchState(strings.ToUpper(parsed.State)), nil
}

func (m *Managed) Cancel(ctx context.Context, task *model.Task) *model.Task {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, m.BaseURL+"/tasks/"+string(task.Handle), nil)
	if err != nil {
		return task
	}
	resp, err := m.client().Do(req)
	if err != nil {
		return task
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return task
	}
	task.Status = model.Cancelled
	return task
}
