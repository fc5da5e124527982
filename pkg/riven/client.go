package riven

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// ErrAlreadyRequested is returned when Riven already tracks the movie.
var ErrAlreadyRequested = eris.New("riven: item already exists")

// APIError is a non-2xx response from the Riven API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("riven: status %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus returns the response status code.
func (e *APIError) HTTPStatus() int { return e.StatusCode }

// Client adds movies to a Riven instance.
type Client interface {
	// AddMovie adds the movie with the given TMDB id. If the item already
	// exists in the "Unknown" state it is removed first so Riven issues a
	// fresh request; if it exists in any other state, ErrAlreadyRequested
	// is returned.
	AddMovie(ctx context.Context, tmdbID int) error
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a Riven API client.
func NewClient(baseURL, apiKey string, opts ...Option) Client {
	c := &httpClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type itemsResponse struct {
	Items []struct {
		ID     json.Number `json:"id"`
		TMDBID json.Number `json:"tmdb_id"`
		State  string      `json:"state"`
	} `json:"items"`
}

func (c *httpClient) AddMovie(ctx context.Context, tmdbID int) error {
	// Items stuck in Unknown never progress; remove and re-add to trigger a
	// fresh request. Items in any other state are already being handled.
	existing, err := c.lookupItem(ctx, tmdbID)
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.state != "Unknown" {
			return ErrAlreadyRequested
		}
		if err := c.removeItem(ctx, existing.id); err != nil {
			return err
		}
	}

	q := url.Values{}
	q.Set("tmdb_ids", strconv.Itoa(tmdbID))
	q.Set("media_type", "movie")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/items/add?"+q.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "riven: create request")
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "riven: send request")
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return nil
	case http.StatusConflict:
		return ErrAlreadyRequested
	default:
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
}

type rivenItem struct {
	id    string
	state string
}

func (c *httpClient) lookupItem(ctx context.Context, tmdbID int) (*rivenItem, error) {
	q := url.Values{}
	q.Set("type", "movie")
	q.Set("limit", "1")
	q.Set("search", strconv.Itoa(tmdbID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/items?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "riven: create lookup request")
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "riven: lookup item")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "riven: read lookup response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var items itemsResponse
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, eris.Wrap(err, "riven: unmarshal lookup response")
	}

	want := strconv.Itoa(tmdbID)
	for _, it := range items.Items {
		if it.TMDBID.String() == want {
			return &rivenItem{id: it.ID.String(), state: it.State}, nil
		}
	}
	return nil, nil
}

func (c *httpClient) removeItem(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/v1/items/remove?ids="+url.QueryEscape(id), nil)
	if err != nil {
		return eris.Wrap(err, "riven: create remove request")
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "riven: remove item")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return nil
}
