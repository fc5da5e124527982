package source

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/digitarr/digitarr/internal/model"
	"github.com/digitarr/digitarr/pkg/tmdb"
)

// TMDBSource lists today's digital releases straight from TMDB's discover
// endpoint. Candidates carry TMDB ids, so enrichment needs no search step.
type TMDBSource struct {
	client tmdb.Client
	region string
	loc    *time.Location
	now    func() time.Time
}

// NewTMDBSource creates a TMDB-backed release source. "Today" is evaluated
// in loc, which should match the timezone TMDB's release data is keyed to
// for the configured region.
func NewTMDBSource(client tmdb.Client, region string, loc *time.Location) *TMDBSource {
	return &TMDBSource{
		client: client,
		region: region,
		loc:    loc,
		now:    time.Now,
	}
}

func (s *TMDBSource) Name() string { return "tmdb" }

func (s *TMDBSource) FetchToday(ctx context.Context) ([]model.CandidateIdentity, error) {
	date := s.now().In(s.loc).Format("2006-01-02")
	zap.L().Info("fetching digital releases from tmdb",
		zap.String("date", date),
		zap.String("region", s.region),
	)

	movies, err := s.client.DiscoverDigital(ctx, date, s.region)
	if err != nil {
		return nil, &UnavailableError{Source: s.Name(), Err: err}
	}

	candidates := make([]model.CandidateIdentity, 0, len(movies))
	seen := make(map[int]struct{}, len(movies))
	for _, m := range movies {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		candidates = append(candidates, model.CandidateIdentity{TMDBID: m.ID, Title: m.Title})
	}
	return candidates, nil
}
