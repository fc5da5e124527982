// Package enrich resolves release candidates into full movie records using
// TMDB. Enrichment failures are isolated per candidate: one unresolvable
// title never blocks the rest of the run.
package enrich

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/digitarr/digitarr/internal/model"
	"github.com/digitarr/digitarr/pkg/tmdb"
)

// ErrNotFound means the candidate could not be resolved to a TMDB movie with
// enough confidence. The candidate is dropped, not treated as a run failure.
var ErrNotFound = eris.New("enrich: no confident match")

// Enricher builds MovieRecords from candidate identities.
type Enricher struct {
	client         tmdb.Client
	region         string
	matchThreshold float64
	concurrency    int
}

// New creates an Enricher. matchThreshold is the minimum title similarity
// (0..1) for accepting a search match for id-less candidates.
func New(client tmdb.Client, region string, matchThreshold float64, concurrency int) *Enricher {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Enricher{
		client:         client,
		region:         region,
		matchThreshold: matchThreshold,
		concurrency:    concurrency,
	}
}

// Enrich resolves one candidate into an immutable MovieRecord. Returns
// ErrNotFound when no confident resolution exists.
func (e *Enricher) Enrich(ctx context.Context, id model.CandidateIdentity) (*model.MovieRecord, error) {
	tmdbID := id.TMDBID
	if !id.HasID() {
		resolved, err := e.resolve(ctx, id)
		if err != nil {
			return nil, err
		}
		tmdbID = resolved
	}

	details, err := e.client.MovieDetails(ctx, tmdbID)
	if err != nil {
		return nil, eris.Wrapf(err, "enrich: details for %d", tmdbID)
	}

	cert, err := e.client.Certification(ctx, tmdbID, e.region)
	if err != nil {
		// A missing certification never blocks the record; downstream rules
		// treat it as absent.
		zap.L().Warn("certification lookup failed",
			zap.Int("tmdb_id", tmdbID),
			zap.Error(err),
		)
		cert = ""
	}

	genres := make([]string, 0, len(details.Genres))
	for _, g := range details.Genres {
		genres = append(genres, g.Name)
	}

	return &model.MovieRecord{
		TMDBID:           details.ID,
		Title:            details.Title,
		ReleaseDate:      details.ReleaseDate,
		VoteAverage:      details.VoteAverage,
		OriginalLanguage: details.OriginalLanguage,
		Genres:           genres,
		Certification:    cert,
		Adult:            details.Adult,
		PosterPath:       details.PosterPath,
		Overview:         details.Overview,
	}, nil
}

// Result pairs a candidate with its enrichment outcome.
type Result struct {
	Candidate model.CandidateIdentity
	Record    *model.MovieRecord
	Err       error
}

// EnrichAll enriches candidates with bounded concurrency, one Result per
// candidate in input order.
func (e *Enricher) EnrichAll(ctx context.Context, candidates []model.CandidateIdentity) []Result {
	results := make([]Result, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	var mu sync.Mutex
	for i, cand := range candidates {
		i, cand := i, cand
		g.Go(func() error {
			rec, err := e.Enrich(gctx, cand)
			mu.Lock()
			results[i] = Result{Candidate: cand, Record: rec, Err: err}
			mu.Unlock()

			if err != nil {
				if eris.Is(err, ErrNotFound) {
					zap.L().Info("dropping unresolvable candidate",
						zap.String("title", cand.Title),
						zap.Int("tmdb_id", cand.TMDBID),
					)
				} else {
					zap.L().Warn("enrichment failed",
						zap.String("title", cand.Title),
						zap.Int("tmdb_id", cand.TMDBID),
						zap.Error(err),
					)
				}
			}
			return nil // per-item isolation: never abort the group
		})
	}
	_ = g.Wait()

	return results
}
