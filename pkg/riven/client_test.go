package riven

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rivenServer records the sequence of API calls so tests can assert on the
// lookup / remove / add flow.
type rivenServer struct {
	t         *testing.T
	lookup    string // JSON body for GET /api/v1/items
	calls     []string
	addStatus int
}

func (s *rivenServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/items":
			s.calls = append(s.calls, "lookup")
			fmt.Fprint(w, s.lookup)
		case r.Method == http.MethodDelete && r.URL.Path == "/api/v1/items/remove":
			s.calls = append(s.calls, "remove:"+r.URL.Query().Get("ids"))
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/items/add":
			s.calls = append(s.calls, "add:"+r.URL.Query().Get("tmdb_ids"))
			assert.Equal(s.t, "movie", r.URL.Query().Get("media_type"))
			status := s.addStatus
			if status == 0 {
				status = http.StatusOK
			}
			w.WriteHeader(status)
		default:
			s.t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}
}

func TestAddMovie_NewItem(t *testing.T) {
	srv := &rivenServer{t: t, lookup: `{"items":[]}`}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	c := NewClient(ts.URL, "secret")
	err := c.AddMovie(context.Background(), 603)

	require.NoError(t, err)
	assert.Equal(t, []string{"lookup", "add:603"}, srv.calls)
}

func TestAddMovie_UnknownStateIsRemovedAndReadded(t *testing.T) {
	srv := &rivenServer{
		t:      t,
		lookup: `{"items":[{"id":42,"tmdb_id":603,"state":"Unknown"}]}`,
	}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	c := NewClient(ts.URL, "secret")
	err := c.AddMovie(context.Background(), 603)

	require.NoError(t, err)
	assert.Equal(t, []string{"lookup", "remove:42", "add:603"}, srv.calls)
}

func TestAddMovie_TrackedStateIsAlreadyRequested(t *testing.T) {
	srv := &rivenServer{
		t:      t,
		lookup: `{"items":[{"id":42,"tmdb_id":603,"state":"Completed"}]}`,
	}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	c := NewClient(ts.URL, "secret")
	err := c.AddMovie(context.Background(), 603)

	assert.True(t, eris.Is(err, ErrAlreadyRequested))
	assert.Equal(t, []string{"lookup"}, srv.calls)
}

func TestAddMovie_LookupIgnoresOtherItems(t *testing.T) {
	srv := &rivenServer{
		t:      t,
		lookup: `{"items":[{"id":7,"tmdb_id":999,"state":"Completed"}]}`,
	}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	c := NewClient(ts.URL, "secret")
	err := c.AddMovie(context.Background(), 603)

	require.NoError(t, err)
	assert.Equal(t, []string{"lookup", "add:603"}, srv.calls)
}

func TestAddMovie_ConflictOnAdd(t *testing.T) {
	srv := &rivenServer{t: t, lookup: `{"items":[]}`, addStatus: http.StatusConflict}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	c := NewClient(ts.URL, "secret")
	err := c.AddMovie(context.Background(), 603)

	assert.True(t, eris.Is(err, ErrAlreadyRequested))
}

func TestAddMovie_LookupFailureCarriesStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "secret")
	err := c.AddMovie(context.Background(), 603)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.HTTPStatus())
}
