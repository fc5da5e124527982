package dispatch

import "github.com/digitarr/digitarr/internal/model"

// Status classifies one request attempt against one target.
type Status string

const (
	// StatusAdded means the target accepted a new request.
	StatusAdded Status = "added"
	// StatusAlreadyRequested means the target already tracks the movie.
	// Success-adjacent: never retried, never logged as a failure, but also
	// never notified on its own since nothing new happened.
	StatusAlreadyRequested Status = "already_requested"
	// StatusFailed means the attempt failed after any retries.
	StatusFailed Status = "failed"
)

// Outcome is the result of dispatching one record to one target.
type Outcome struct {
	Target model.ServiceKind
	Status Status
	// Reason captures the HTTP status or error category for failures.
	Reason string
}

// Delivered reports whether at least one outcome added a new request.
// AlreadyRequested alone does not count: a notification should only fire
// when something actually changed.
func Delivered(outcomes []Outcome) bool {
	for _, o := range outcomes {
		if o.Status == StatusAdded {
			return true
		}
	}
	return false
}

// AddedTargets returns the kinds that accepted a new request.
func AddedTargets(outcomes []Outcome) []string {
	var kinds []string
	for _, o := range outcomes {
		if o.Status == StatusAdded {
			kinds = append(kinds, string(o.Target))
		}
	}
	return kinds
}
