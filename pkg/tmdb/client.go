package tmdb

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.themoviedb.org/3"

// Digital is TMDB's release type code for digital (home) releases.
const releaseTypeDigital = "4"

// Client performs read-only queries against the TMDB v3 API.
type Client interface {
	// DiscoverDigital lists movies whose digital release date equals date
	// (YYYY-MM-DD) in the given region, following pagination.
	DiscoverDigital(ctx context.Context, date, region string) ([]Movie, error)
	// MovieDetails fetches the full detail record for one movie.
	MovieDetails(ctx context.Context, id int) (*MovieDetails, error)
	// Certification returns the regional certification code for one movie,
	// or "" when the movie is unrated in that region.
	Certification(ctx context.Context, id int, region string) (string, error)
	// SearchMovie searches by title, optionally constrained by year (0 = any).
	SearchMovie(ctx context.Context, query string, year int) ([]Movie, error)
}

// Movie is the summary record returned by discover and search endpoints.
type Movie struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	Overview         string  `json:"overview"`
	ReleaseDate      string  `json:"release_date"`
	VoteAverage      float64 `json:"vote_average"`
	Popularity       float64 `json:"popularity"`
	OriginalLanguage string  `json:"original_language"`
	Adult            bool    `json:"adult"`
	PosterPath       string  `json:"poster_path"`
	GenreIDs         []int   `json:"genre_ids"`
}

// MovieDetails is the full record from the movie detail endpoint.
type MovieDetails struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	Overview         string  `json:"overview"`
	ReleaseDate      string  `json:"release_date"`
	VoteAverage      float64 `json:"vote_average"`
	OriginalLanguage string  `json:"original_language"`
	Adult            bool    `json:"adult"`
	PosterPath       string  `json:"poster_path"`
	Genres           []Genre `json:"genres"`
}

// Genre is a TMDB genre entry.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type pagedMovies struct {
	Page         int     `json:"page"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
	Results      []Movie `json:"results"`
}

type releaseDatesResponse struct {
	Results []struct {
		ISO3166 string `json:"iso_3166_1"`
		Dates   []struct {
			Certification string `json:"certification"`
			Type          int    `json:"type"`
		} `json:"release_dates"`
	} `json:"results"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outgoing requests per second. Discover plus one detail
// and one certification call per candidate fans out quickly against TMDB's
// request budget.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a TMDB API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(4), 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) DiscoverDigital(ctx context.Context, date, region string) ([]Movie, error) {
	var all []Movie
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("with_release_type", releaseTypeDigital)
		q.Set("release_date.gte", date)
		q.Set("release_date.lte", date)
		q.Set("region", region)
		q.Set("sort_by", "popularity.desc")
		q.Set("page", strconv.Itoa(page))

		var resp pagedMovies
		if err := c.get(ctx, "/discover/movie", q, &resp); err != nil {
			return nil, eris.Wrap(err, "tmdb: discover digital releases")
		}
		all = append(all, resp.Results...)
		if page >= resp.TotalPages || resp.TotalPages == 0 {
			break
		}
	}
	return all, nil
}

func (c *httpClient) MovieDetails(ctx context.Context, id int) (*MovieDetails, error) {
	var details MovieDetails
	if err := c.get(ctx, "/movie/"+strconv.Itoa(id), url.Values{}, &details); err != nil {
		return nil, eris.Wrapf(err, "tmdb: movie details %d", id)
	}
	return &details, nil
}

func (c *httpClient) Certification(ctx context.Context, id int, region string) (string, error) {
	var resp releaseDatesResponse
	if err := c.get(ctx, "/movie/"+strconv.Itoa(id)+"/release_dates", url.Values{}, &resp); err != nil {
		return "", eris.Wrapf(err, "tmdb: release dates %d", id)
	}
	for _, country := range resp.Results {
		if country.ISO3166 != region {
			continue
		}
		for _, rd := range country.Dates {
			if rd.Certification != "" {
				return rd.Certification, nil
			}
		}
	}
	return "", nil
}

func (c *httpClient) SearchMovie(ctx context.Context, query string, year int) ([]Movie, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("include_adult", "false")
	if year > 0 {
		q.Set("year", strconv.Itoa(year))
	}

	var resp pagedMovies
	if err := c.get(ctx, "/search/movie", q, &resp); err != nil {
		return nil, eris.Wrapf(err, "tmdb: search %q", query)
	}
	return resp.Results, nil
}

func (c *httpClient) get(ctx context.Context, path string, q url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "rate limit wait")
		}
	}

	q.Set("api_key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response")
	}

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "unmarshal response")
	}
	return nil
}
