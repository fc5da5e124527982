package pipeline

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/digitarr/digitarr/internal/model"
	"github.com/digitarr/digitarr/pkg/discord"
	"github.com/digitarr/digitarr/pkg/tmdb"
)

// --- Source stub ---

type stubSource struct {
	name       string
	candidates []model.CandidateIdentity
	err        error
}

func (s *stubSource) Name() string {
	if s.name == "" {
		return "stub"
	}
	return s.name
}

func (s *stubSource) FetchToday(ctx context.Context) ([]model.CandidateIdentity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.candidates, nil
}

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

// --- dispatch target stub ---

type stubTarget struct {
	kind model.ServiceKind
	err  error

	mu    sync.Mutex
	calls int
}

func (s *stubTarget) Kind() model.ServiceKind { return s.kind }

func (s *stubTarget) Request(ctx context.Context, rec *model.MovieRecord) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.err
}

func (s *stubTarget) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// --- Discord stub ---

type stubDiscord struct {
	mu   sync.Mutex
	sent []discord.Message
	err  error
}

func (s *stubDiscord) Send(ctx context.Context, msg discord.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *stubDiscord) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}
