package enrich

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/digitarr/digitarr/internal/model"
	"github.com/digitarr/digitarr/internal/title"
)

// resolve finds the TMDB id for a title-only candidate via search. Match
// selection order is part of the contract: exact normalized-title match
// wins, then closest release year when the candidate year is known, then
// highest popularity. Anything below the similarity threshold is rejected
// rather than guessed at.
func (e *Enricher) resolve(ctx context.Context, cand model.CandidateIdentity) (int, error) {
	results, err := e.client.SearchMovie(ctx, cand.Title, cand.Year)
	if err != nil {
		return 0, eris.Wrapf(err, "enrich: search %q", cand.Title)
	}
	if len(results) == 0 && cand.Year > 0 {
		// Year constraints are wrong for late-year digital releases of
		// last year's theatrical films; retry unconstrained.
		results, err = e.client.SearchMovie(ctx, cand.Title, 0)
		if err != nil {
			return 0, eris.Wrapf(err, "enrich: search %q", cand.Title)
		}
	}

	type scored struct {
		id         int
		exact      bool
		yearDelta  int
		popularity float64
		similarity float64
	}

	wantNorm := title.Normalize(cand.Title)
	var matches []scored
	for _, r := range results {
		sim := title.Similarity(cand.Title, r.Title)
		if sim < e.matchThreshold {
			continue
		}
		s := scored{
			id:         r.ID,
			exact:      title.Normalize(r.Title) == wantNorm,
			yearDelta:  1 << 16,
			popularity: r.Popularity,
			similarity: sim,
		}
		if cand.Year > 0 && len(r.ReleaseDate) >= 4 {
			if y := parseYear(r.ReleaseDate); y > 0 {
				s.yearDelta = abs(y - cand.Year)
			}
		}
		matches = append(matches, s)
	}

	if len(matches) == 0 {
		zap.L().Debug("no search result cleared similarity threshold",
			zap.String("title", cand.Title),
			zap.Float64("threshold", e.matchThreshold),
			zap.Int("results", len(results)),
		)
		return 0, ErrNotFound
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].exact != matches[j].exact {
			return matches[i].exact
		}
		if matches[i].yearDelta != matches[j].yearDelta {
			return matches[i].yearDelta < matches[j].yearDelta
		}
		return matches[i].popularity > matches[j].popularity
	})

	best := matches[0]
	zap.L().Debug("resolved scraped title",
		zap.String("title", cand.Title),
		zap.Int("tmdb_id", best.id),
		zap.Bool("exact", best.exact),
		zap.Float64("similarity", best.similarity),
	)
	return best.id, nil
}

func parseYear(releaseDate string) int {
	y := 0
	for _, c := range releaseDate[:4] {
		if c < '0' || c > '9' {
			return 0
		}
		y = y*10 + int(c-'0')
	}
	return y
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
