package progress

import (
	"encoding/json"
	"net/http"
	"sort"
)

type (
	// StageStatus is the probe view of a stage
	StageStatus struct {
		Stage         Stage  `json:"stage"`
		TotalTasks    int    `json:"totalTasks"`
		FinishedTasks int    `json:"finishedTasks"`
		Closed        bool   `json:"closed"`
		Error         string `json:"error,omitempty"`
	}

	// RunStatus is the probe view of a run
	RunStatus struct {
		Name   string        `json:"name"`
		Action Action        `json:"action"`
		Done   bool          `json:"done"`
		Error  string        `json:"error,omitempty"`
		Stages []StageStatus `json:"stages"`
	}

	// Status is the probe view of the whole store
	Status struct {
		Ready            bool        `json:"ready"`
		Error            string      `json:"error,omitempty"`
		Runs             []RunStatus `json:"runs"`
		PendingBeans     []string    `json:"pendingBeans"`
		InitializedBeans int64       `json:"initializedBeans"`
	}
)

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Status takes a snapshot of the store
func (p *Progress) Status() Status {
	status := Status{
		Ready:            p.ApplicationReady(),
		Error:            errorString(p.Error()),
		Runs:             []RunStatus{},
		PendingBeans:     p.beans.Pending(),
		InitializedBeans: p.beans.InitializedCount(),
	}
	for name, run := range p.Runs() {
		rs := RunStatus{
			Name:   name,
			Action: run.Action(),
			Done:   run.Done(),
			Error:  errorString(run.Error()),
			Stages: []StageStatus{},
		}
		for _, stage := range run.Stages() {
			rs.Stages = append(rs.Stages, StageStatus{
				Stage:         stage.Stage(),
				TotalTasks:    stage.TotalTasks(),
				FinishedTasks: stage.FinishedTasks(),
				Closed:        stage.Closed(),
				Error:         errorString(stage.Error()),
			})
		}
		status.Runs = append(status.Runs, rs)
	}
	sort.Slice(status.Runs, func(i, j int) bool {
		return status.Runs[i].Name < status.Runs[j].Name
	})
	return status
}

// Healthy reports if every run finished without error
func (s Status) Healthy() bool {
	if s.Error != "" {
		return false
	}
	for _, run := range s.Runs {
		if !run.Done || run.Error != "" {
			return false
		}
	}
	return true
}

// StatusHandler serves the store snapshot as JSON; the response is 503
// until every run finished without error
func StatusHandler(p *Progress) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := p.Status()
		w.Header().Set("Content-Type", "application/json")
		if !status.Healthy() {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(status)
	})
}
