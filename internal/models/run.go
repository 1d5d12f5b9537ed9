package models

import (
	"fmt"
	"time"
)

// RunStatus tracks the lifecycle of a pipeline run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusAborted   RunStatus = "aborted"
)

// RunCounters tallies per-row outcomes across one pipeline run. These back
// the end-of-run report so dropped rows are always accounted for.
type RunCounters struct {
	HistoricalRows   int `json:"historical_rows"`
	LiveRows         int `json:"live_rows"`
	MergedRows       int `json:"merged_rows"`
	SkippedRows      int `json:"skipped_rows"`
	FilteredRows     int `json:"filtered_rows"`
	DuplicateRows    int `json:"duplicate_rows"`
	IncompleteTracks int `json:"incomplete_tracks"`
}

// PipelineRun is one entry of the persisted run ledger.
type PipelineRun struct {
	id         string
	startedAt  time.Time
	finishedAt *time.Time
	counters   RunCounters
	status     RunStatus
}

// NewPipelineRun creates a run record in the running state.
func NewPipelineRun() *PipelineRun {
	return &PipelineRun{
		startedAt: time.Now().UTC(),
		status:    RunStatusRunning,
	}
}

func (p *PipelineRun) ID() string { return p.id }

func (p *PipelineRun) StartedAt() time.Time { return p.startedAt }

func (p *PipelineRun) FinishedAt() *time.Time { return p.finishedAt }

func (p *PipelineRun) Counters() RunCounters { return p.counters }

func (p *PipelineRun) Status() RunStatus { return p.status }

func (p *PipelineRun) SetID(id string) { p.id = id }

func (p *PipelineRun) SetStartedAt(ts time.Time) { p.startedAt = ts }

func (p *PipelineRun) SetCounters(c RunCounters) { p.counters = c }

// Finish marks the run done with the given status.
func (p *PipelineRun) Finish(status RunStatus) {
	now := time.Now().UTC()
	p.finishedAt = &now
	p.status = status
}

func (p *PipelineRun) SetFinishedAt(ts *time.Time) { p.finishedAt = ts }

func (p *PipelineRun) SetStatus(status RunStatus) { p.status = status }

// Validate checks that the run carries a known status.
func (p *PipelineRun) Validate() error {
	switch p.status {
	case RunStatusRunning, RunStatusCompleted, RunStatusAborted:
		return nil
	default:
		return fmt.Errorf("unknown run status: %s", p.status)
	}
}
