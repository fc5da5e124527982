package radarr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// ErrAlreadyRequested is returned when the movie is already in Radarr.
var ErrAlreadyRequested = eris.New("radarr: movie already exists")

// APIError is a non-2xx response from the Radarr API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("radarr: status %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus returns the response status code.
func (e *APIError) HTTPStatus() int { return e.StatusCode }

// Client adds movies to a Radarr instance.
type Client interface {
	// AddMovie adds the movie with the given TMDB id and starts a search
	// for it. Returns ErrAlreadyRequested if Radarr already has it.
	AddMovie(ctx context.Context, tmdbID int, title string) error
}

type addMovieRequest struct {
	Title            string          `json:"title"`
	TMDBID           int             `json:"tmdbId"`
	QualityProfileID int             `json:"qualityProfileId"`
	RootFolderPath   string          `json:"rootFolderPath"`
	Monitored        bool            `json:"monitored"`
	AddOptions       movieAddOptions `json:"addOptions"`
}

type movieAddOptions struct {
	SearchForMovie bool `json:"searchForMovie"`
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithQualityProfile sets the quality profile id for added movies.
func WithQualityProfile(id int) Option {
	return func(c *httpClient) {
		c.qualityProfileID = id
	}
}

// WithRootFolder sets the root folder path for added movies.
func WithRootFolder(path string) Option {
	return func(c *httpClient) {
		c.rootFolder = path
	}
}

type httpClient struct {
	baseURL          string
	apiKey           string
	qualityProfileID int
	rootFolder       string
	http             *http.Client
}

// NewClient creates a Radarr API client.
func NewClient(baseURL, apiKey string, opts ...Option) Client {
	c := &httpClient{
		baseURL:          baseURL,
		apiKey:           apiKey,
		qualityProfileID: 1,
		rootFolder:       "/movies",
		http:             &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) AddMovie(ctx context.Context, tmdbID int, title string) error {
	body, err := json.Marshal(addMovieRequest{
		Title:            title,
		TMDBID:           tmdbID,
		QualityProfileID: c.qualityProfileID,
		RootFolderPath:   c.rootFolder,
		Monitored:        true,
		AddOptions:       movieAddOptions{SearchForMovie: true},
	})
	if err != nil {
		return eris.Wrap(err, "radarr: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v3/movie", bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "radarr: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "radarr: send request")
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusConflict:
		return ErrAlreadyRequested
	case resp.StatusCode == http.StatusBadRequest && strings.Contains(string(respBody), "MovieExistsValidator"):
		// v3 reports duplicates as a 400 validation failure, not a 409.
		return ErrAlreadyRequested
	default:
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
}
