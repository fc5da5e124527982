// Package filter decides which enriched records qualify for requesting.
// Everything here is pure: no I/O, no shared state.
package filter

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/digitarr/digitarr/internal/config"
	"github.com/digitarr/digitarr/internal/model"
)

// Passes evaluates every configured rule against the record. Rules combine
// as a logical AND and short-circuit on the first failure; the returned
// reason names the rejecting rule for diagnostics, and is empty on pass.
//
// Absent attributes are handled asymmetrically on purpose: a missing
// certification or language never matches an exclusion list, but a missing
// language does fail a non-empty allow-list (an unlabeled movie cannot
// prove it is allowed).
func Passes(rec *model.MovieRecord, cfg config.FilterConfig) (bool, string) {
	if cfg.ExcludeAdult && rec.Adult {
		return false, "adult"
	}

	if cfg.MinRating > 0 && rec.VoteAverage < cfg.MinRating {
		return false, fmt.Sprintf("rating %.1f below minimum %.1f", rec.VoteAverage, cfg.MinRating)
	}

	if len(cfg.AllowedLanguages) > 0 && !containsFold(cfg.AllowedLanguages, rec.OriginalLanguage) {
		return false, fmt.Sprintf("language %q not in allow-list", rec.OriginalLanguage)
	}

	for _, g := range rec.Genres {
		if containsFold(cfg.ExcludedGenres, g) {
			return false, fmt.Sprintf("genre %q excluded", g)
		}
	}

	if rec.Certification != "" && containsFold(cfg.ExcludedCertifications, rec.Certification) {
		return false, fmt.Sprintf("certification %q excluded", rec.Certification)
	}

	return true, ""
}

// Apply partitions records into those passing the rules and a rejected count,
// logging each rejection with its rule.
func Apply(records []*model.MovieRecord, cfg config.FilterConfig) (kept []*model.MovieRecord, rejected int) {
	for _, rec := range records {
		ok, reason := Passes(rec, cfg)
		if !ok {
			rejected++
			zap.L().Info("filtered out",
				zap.String("title", rec.Title),
				zap.Int("tmdb_id", rec.TMDBID),
				zap.String("rule", reason),
			)
			continue
		}
		kept = append(kept, rec)
	}
	return kept, rejected
}

// containsFold reports whether list contains s, case-insensitively. An empty
// or absent s never matches anything.
func containsFold(list []string, s string) bool {
	if s == "" {
		return false
	}
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
