package dispatch

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/digitarr/digitarr/internal/model"
	"github.com/digitarr/digitarr/pkg/overseerr"
	"github.com/digitarr/digitarr/pkg/radarr"
	"github.com/digitarr/digitarr/pkg/riven"
)

// ErrAlreadyRequested is the normalized duplicate signal across all target
// kinds. Target adapters translate their client's sentinel into this one.
var ErrAlreadyRequested = eris.New("dispatch: already requested")

// Target is one downstream request service. Requests are keyed by TMDB id,
// never by title, so the same movie maps to the same entity on every target.
type Target interface {
	Kind() model.ServiceKind
	// Request asks the target to request the movie, returning
	// ErrAlreadyRequested for duplicates.
	Request(ctx context.Context, rec *model.MovieRecord) error
}

// OverseerrTarget adapts an Overseerr client to the Target interface.
type OverseerrTarget struct {
	Client overseerr.Client
}

func (t *OverseerrTarget) Kind() model.ServiceKind { return model.ServiceOverseerr }

func (t *OverseerrTarget) Request(ctx context.Context, rec *model.MovieRecord) error {
	err := t.Client.CreateRequest(ctx, rec.TMDBID)
	if eris.Is(err, overseerr.ErrAlreadyRequested) {
		return ErrAlreadyRequested
	}
	return err
}

// RivenTarget adapts a Riven client to the Target interface.
type RivenTarget struct {
	Client riven.Client
}

func (t *RivenTarget) Kind() model.ServiceKind { return model.ServiceRiven }

func (t *RivenTarget) Request(ctx context.Context, rec *model.MovieRecord) error {
	err := t.Client.AddMovie(ctx, rec.TMDBID)
	if eris.Is(err, riven.ErrAlreadyRequested) {
		return ErrAlreadyRequested
	}
	return err
}

// RadarrTarget adapts a Radarr client to the Target interface.
type RadarrTarget struct {
	Client radarr.Client
}

func (t *RadarrTarget) Kind() model.ServiceKind { return model.ServiceRadarr }

func (t *RadarrTarget) Request(ctx context.Context, rec *model.MovieRecord) error {
	err := t.Client.AddMovie(ctx, rec.TMDBID, rec.Title)
	if eris.Is(err, radarr.ErrAlreadyRequested) {
		return ErrAlreadyRequested
	}
	return err
}
