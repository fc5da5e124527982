package enrich

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/digitarr/digitarr/pkg/tmdb"
)

// --- TMDB mock ---

type mockTMDBClient struct {
	mock.Mock
}

func (m *mockTMDBClient) DiscoverDigital(ctx context.Context, date, region string) ([]tmdb.Movie, error) {
	args := m.Called(ctx, date, region)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tmdb.Movie), args.Error(1)
}

func (m *mockTMDBClient) MovieDetails(ctx context.Context, id int) (*tmdb.MovieDetails, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tmdb.MovieDetails), args.Error(1)
}

func (m *mockTMDBClient) Certification(ctx context.Context, id int, region string) (string, error) {
	args := m.Called(ctx, id, region)
	return args.String(0), args.Error(1)
}

func (m *mockTMDBClient) SearchMovie(ctx context.Context, query string, year int) ([]tmdb.Movie, error) {
	args := m.Called(ctx, query, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tmdb.Movie), args.Error(1)
}
