package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/digitarr/digitarr/internal/config"
	"github.com/digitarr/digitarr/internal/dispatch"
	"github.com/digitarr/digitarr/internal/enrich"
	"github.com/digitarr/digitarr/internal/model"
	"github.com/digitarr/digitarr/internal/notify"
	"github.com/digitarr/digitarr/internal/source"
	"github.com/digitarr/digitarr/pkg/overseerr"
	"github.com/digitarr/digitarr/pkg/tmdb"
)

func fastDispatch(targets ...dispatch.Target) *dispatch.Dispatcher {
	return dispatch.New(targets, dispatch.Options{MaxRetries: 0, RetryBackoff: time.Millisecond})
}

func theGorge() *tmdb.MovieDetails {
	return &tmdb.MovieDetails{
		ID:               998877,
		Title:            "The Gorge",
		ReleaseDate:      "2026-08-31",
		VoteAverage:      7.2,
		OriginalLanguage: "en",
		Genres:           []tmdb.Genre{{ID: 28, Name: "Action"}},
		PosterPath:       "/gorge.jpg",
		Overview:         "Two operatives guard opposite sides of a gorge.",
	}
}

func enricherFor(client tmdb.Client) *enrich.Enricher {
	return enrich.New(client, "US", 0.5, 2)
}

// Scenario: one candidate passes the filters and is dispatched to two
// targets, one succeeding and one failing with a 503. The record counts as
// delivered and exactly one notification fires.
func TestRun_PartialDispatchFailureStillNotifies(t *testing.T) {
	src := &stubSource{candidates: []model.CandidateIdentity{{TMDBID: 998877}}}

	client := &mockTMDBClient{}
	client.On("MovieDetails", mock.Anything, 998877).Return(theGorge(), nil)
	client.On("Certification", mock.Anything, 998877, "US").Return("PG-13", nil)

	added := &stubTarget{kind: model.ServiceOverseerr}
	failing := &stubTarget{kind: model.ServiceRiven, err: &overseerr.APIError{StatusCode: 503}}

	webhook := &stubDiscord{}
	filters := config.FilterConfig{MinRating: 6.0, AllowedLanguages: []string{"en"}}

	orch := New(src, enricherFor(client), filters, fastDispatch(added, failing), notify.New(webhook), 0)
	summary, err := orch.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, model.RunStateDone, summary.State)
	assert.Equal(t, 1, summary.Found)
	assert.Equal(t, 1, summary.FilteredIn)
	assert.Equal(t, 0, summary.FilteredOut)
	assert.Equal(t, 2, summary.DispatchAttempts)
	assert.Equal(t, 1, summary.DispatchSuccesses)
	assert.Equal(t, 1, summary.DispatchFailures)
	assert.Equal(t, 1, summary.Notified)
	assert.Equal(t, 1, webhook.sentCount())
}

// Scenario: an excluded certification stops the record before dispatch.
func TestRun_FilteredRecordIsNeverDispatched(t *testing.T) {
	src := &stubSource{candidates: []model.CandidateIdentity{{TMDBID: 998877}}}

	client := &mockTMDBClient{}
	client.On("MovieDetails", mock.Anything, 998877).Return(theGorge(), nil)
	client.On("Certification", mock.Anything, 998877, "US").Return("R", nil)

	target := &stubTarget{kind: model.ServiceOverseerr}
	webhook := &stubDiscord{}
	filters := config.FilterConfig{ExcludedCertifications: []string{"R"}}

	orch := New(src, enricherFor(client), filters, fastDispatch(target), notify.New(webhook), 0)
	summary, err := orch.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, summary.FilteredOut)
	assert.Equal(t, 0, summary.FilteredIn)
	assert.Equal(t, 0, summary.DispatchAttempts)
	assert.Equal(t, 0, target.callCount())
	assert.Equal(t, 0, webhook.sentCount())
}

// Scenario: the source is down. The run aborts with zeroed downstream
// counts and no crash.
func TestRun_SourceFailureAbortsCleanly(t *testing.T) {
	src := &stubSource{err: &source.UnavailableError{Source: "tmdb", Err: context.DeadlineExceeded}}

	client := &mockTMDBClient{}
	target := &stubTarget{kind: model.ServiceOverseerr}
	webhook := &stubDiscord{}

	orch := New(src, enricherFor(client), config.FilterConfig{}, fastDispatch(target), notify.New(webhook), 0)
	summary, err := orch.Run(context.Background())

	require.Error(t, err)
	assert.Equal(t, model.RunStateAborted, summary.State)
	assert.Zero(t, summary.Found)
	assert.Zero(t, summary.DispatchAttempts)
	assert.Zero(t, summary.Notified)
	assert.Equal(t, 0, target.callCount())
}

func TestRun_ParseFailureAbortsCleanly(t *testing.T) {
	src := &stubSource{err: &source.ParseError{Source: "dvdsreleasedates", Detail: "no date headers"}}

	orch := New(src, enricherFor(&mockTMDBClient{}), config.FilterConfig{},
		fastDispatch(&stubTarget{kind: model.ServiceOverseerr}), notify.New(&stubDiscord{}), 0)
	summary, err := orch.Run(context.Background())

	require.Error(t, err)
	assert.Equal(t, model.RunStateAborted, summary.State)
}

// AlreadyRequested on every target means nothing new happened, so no
// notification fires.
func TestRun_AlreadyRequestedAloneIsSilent(t *testing.T) {
	src := &stubSource{candidates: []model.CandidateIdentity{{TMDBID: 998877}}}

	client := &mockTMDBClient{}
	client.On("MovieDetails", mock.Anything, 998877).Return(theGorge(), nil)
	client.On("Certification", mock.Anything, 998877, "US").Return("", nil)

	dup := &stubTarget{kind: model.ServiceOverseerr, err: dispatch.ErrAlreadyRequested}
	webhook := &stubDiscord{}

	orch := New(src, enricherFor(client), config.FilterConfig{}, fastDispatch(dup), notify.New(webhook), 0)
	summary, err := orch.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, summary.AlreadyRequested)
	assert.Equal(t, 0, summary.DispatchSuccesses)
	assert.Equal(t, 0, summary.Notified)
	assert.Equal(t, 0, webhook.sentCount())
}

// AlreadyRequested paired with an Added outcome still notifies, naming only
// the target that actually added.
func TestRun_AlreadyRequestedPairedWithAddedNotifies(t *testing.T) {
	src := &stubSource{candidates: []model.CandidateIdentity{{TMDBID: 998877}}}

	client := &mockTMDBClient{}
	client.On("MovieDetails", mock.Anything, 998877).Return(theGorge(), nil)
	client.On("Certification", mock.Anything, 998877, "US").Return("", nil)

	dup := &stubTarget{kind: model.ServiceOverseerr, err: dispatch.ErrAlreadyRequested}
	added := &stubTarget{kind: model.ServiceRiven}
	webhook := &stubDiscord{}

	orch := New(src, enricherFor(client), config.FilterConfig{}, fastDispatch(dup, added), notify.New(webhook), 0)
	summary, err := orch.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Notified)
	require.Equal(t, 1, webhook.sentCount())
}

// Running twice against an unchanged listing, with targets reporting
// duplicates the second time, produces zero new notifications.
func TestRun_SecondRunIsIdempotent(t *testing.T) {
	candidates := []model.CandidateIdentity{{TMDBID: 998877}}

	client := &mockTMDBClient{}
	client.On("MovieDetails", mock.Anything, 998877).Return(theGorge(), nil)
	client.On("Certification", mock.Anything, 998877, "US").Return("", nil)

	webhook := &stubDiscord{}

	first := New(&stubSource{candidates: candidates}, enricherFor(client), config.FilterConfig{},
		fastDispatch(&stubTarget{kind: model.ServiceOverseerr}), notify.New(webhook), 0)
	summary1, err := first.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary1.Notified)

	second := New(&stubSource{candidates: candidates}, enricherFor(client), config.FilterConfig{},
		fastDispatch(&stubTarget{kind: model.ServiceOverseerr, err: dispatch.ErrAlreadyRequested}),
		notify.New(webhook), 0)
	summary2, err := second.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, summary2.Notified)
	assert.Equal(t, 1, summary2.AlreadyRequested)
	assert.Equal(t, 1, webhook.sentCount(), "no new notification on the second run")
}

// Unresolvable candidates are dropped without affecting the others.
func TestRun_DroppedCandidatesAreCounted(t *testing.T) {
	src := &stubSource{candidates: []model.CandidateIdentity{
		{Title: "Totally Unknown Movie", Year: 2026},
		{TMDBID: 998877},
	}}

	client := &mockTMDBClient{}
	client.On("SearchMovie", mock.Anything, "Totally Unknown Movie", 2026).Return([]tmdb.Movie{}, nil)
	client.On("SearchMovie", mock.Anything, "Totally Unknown Movie", 0).Return([]tmdb.Movie{}, nil)
	client.On("MovieDetails", mock.Anything, 998877).Return(theGorge(), nil)
	client.On("Certification", mock.Anything, 998877, "US").Return("", nil)

	orch := New(src, enricherFor(client), config.FilterConfig{},
		fastDispatch(&stubTarget{kind: model.ServiceOverseerr}), notify.New(&stubDiscord{}), 0)
	summary, err := orch.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Found)
	assert.Equal(t, 1, summary.Dropped)
	assert.Equal(t, 1, summary.Enriched)
	assert.Equal(t, 1, summary.DispatchSuccesses)
}

// Notification failure is recorded but never fails the run or the dispatch
// counts.
func TestRun_NotifyFailureIsNonFatal(t *testing.T) {
	src := &stubSource{candidates: []model.CandidateIdentity{{TMDBID: 998877}}}

	client := &mockTMDBClient{}
	client.On("MovieDetails", mock.Anything, 998877).Return(theGorge(), nil)
	client.On("Certification", mock.Anything, 998877, "US").Return("", nil)

	webhook := &stubDiscord{err: context.DeadlineExceeded}

	orch := New(src, enricherFor(client), config.FilterConfig{},
		fastDispatch(&stubTarget{kind: model.ServiceOverseerr}), notify.New(webhook), 0)
	summary, err := orch.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, model.RunStateDone, summary.State)
	assert.Equal(t, 1, summary.DispatchSuccesses)
	assert.Equal(t, 0, summary.Notified)
	assert.Equal(t, 1, summary.NotifyFailures)
}

// A canceled context during the pre-dispatch delay ends the run without
// dispatching anything.
func TestRun_DelayIsInterruptible(t *testing.T) {
	src := &stubSource{candidates: []model.CandidateIdentity{{TMDBID: 998877}}}

	client := &mockTMDBClient{}
	client.On("MovieDetails", mock.Anything, 998877).Return(theGorge(), nil)
	client.On("Certification", mock.Anything, 998877, "US").Return("", nil)

	target := &stubTarget{kind: model.ServiceOverseerr}

	ctx, cancel := context.WithCancel(context.Background())
	orch := New(src, enricherFor(client), config.FilterConfig{},
		fastDispatch(target), notify.New(&stubDiscord{}), time.Hour)

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	done := make(chan struct{})
	var summary *model.RunSummary
	go func() {
		summary, _ = orch.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancellation")
	}

	assert.Equal(t, 0, target.callCount(), "no dispatch after cancellation")
	assert.Equal(t, 0, summary.DispatchAttempts)
}
