package overseerr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// ErrAlreadyRequested is returned when Overseerr already has a request for
// the movie. It is a steady state, not a failure.
var ErrAlreadyRequested = eris.New("overseerr: media already requested")

// APIError is a non-2xx response from the Overseerr API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("overseerr: status %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus returns the response status code.
func (e *APIError) HTTPStatus() int { return e.StatusCode }

// Client creates media requests in Overseerr.
type Client interface {
	// CreateRequest asks Overseerr to request the movie with the given TMDB
	// id. Returns ErrAlreadyRequested if a request already exists.
	CreateRequest(ctx context.Context, tmdbID int) error
}

type mediaRequest struct {
	MediaType string `json:"mediaType"`
	MediaID   int    `json:"mediaId"`
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

// NewClient creates an Overseerr API client.
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

func (c *httpClient) CreateRequest(ctx context.Context, tmdbID int) error {
	body, err := json.Marshal(mediaRequest{MediaType: "movie", MediaID: tmdbID})
	if err != nil {
		return eris.Wrap(err, "overseerr: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/request", bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "overseerr: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "overseerr: send request")
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusConflict:
		return ErrAlreadyRequested
	default:
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
}
