package model

import "time"

// RunState represents the current stage of a pipeline run.
type RunState string

const (
	RunStateIdle        RunState = "idle"
	RunStateFetching    RunState = "fetching"
	RunStateEnriching   RunState = "enriching"
	RunStateFiltering   RunState = "filtering"
	RunStateDispatching RunState = "dispatching"
	RunStateNotifying   RunState = "notifying"
	RunStateDone        RunState = "done"
	RunStateAborted     RunState = "aborted"
)

// RunSummary is the aggregate outcome of one pipeline run. It is produced
// once per invocation and discarded afterward; nothing persists across runs.
type RunSummary struct {
	RunID  string   `json:"run_id"`
	Date   string   `json:"date"` // YYYY-MM-DD the run checked releases for
	State  RunState `json:"state"`
	Source string   `json:"source"`

	Found       int `json:"found"`    // candidates surfaced by the source
	Enriched    int `json:"enriched"` // candidates resolved to full records
	Dropped     int `json:"dropped"`  // candidates that could not be resolved
	FilteredIn  int `json:"filtered_in"`
	FilteredOut int `json:"filtered_out"`

	DispatchAttempts  int `json:"dispatch_attempts"`
	DispatchSuccesses int `json:"dispatch_successes"`
	DispatchFailures  int `json:"dispatch_failures"`
	AlreadyRequested  int `json:"already_requested"`

	Notified       int `json:"notified"`
	NotifyFailures int `json:"notify_failures"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Aborted reports whether the run failed at the fetch stage. Every later
// stage isolates per-item failures, so this is the only fatal outcome.
func (s *RunSummary) Aborted() bool { return s.State == RunStateAborted }
