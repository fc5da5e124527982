// Package source surfaces today's digital-release candidates. A source
// failure is the one fatal condition in a pipeline run: there is no useful
// partial result when the listing itself cannot be read.
package source

import (
	"context"
	"fmt"

	"github.com/digitarr/digitarr/internal/model"
)

// Source produces today's candidate movie identities.
type Source interface {
	// Name identifies the source in logs and summaries.
	Name() string
	// FetchToday returns candidates whose digital release date is today.
	FetchToday(ctx context.Context) ([]model.CandidateIdentity, error)
}

// UnavailableError is a network-level failure fetching the listing.
type UnavailableError struct {
	Source string
	Err    error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// ParseError means the listing was fetched but its structure did not match
// expectations. Kept distinct from UnavailableError: a parse failure points
// at an upstream page redesign, not a flaky network.
type ParseError struct {
	Source string
	Detail string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("source %s parse failure: %s", e.Source, e.Detail)
}
