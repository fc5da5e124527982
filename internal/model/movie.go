package model

// CandidateIdentity is the minimal handle to a movie before enrichment.
// Sources that talk to TMDB directly carry a TMDBID; the scraped-page source
// only knows a title (and usually a year) until enrichment resolves it.
type CandidateIdentity struct {
	TMDBID int    `json:"tmdb_id,omitempty"`
	Title  string `json:"title,omitempty"`
	Year   int    `json:"year,omitempty"`
}

// HasID reports whether the candidate already carries a TMDB identifier.
func (c CandidateIdentity) HasID() bool { return c.TMDBID > 0 }

// MovieRecord is the enriched, read-only view of one movie. It is built once
// by the enricher and never mutated afterward; every downstream decision
// (filtering, dispatch, notification) reads this single snapshot.
type MovieRecord struct {
	TMDBID           int      `json:"tmdb_id"`
	Title            string   `json:"title"`
	ReleaseDate      string   `json:"release_date"` // YYYY-MM-DD, digital release
	VoteAverage      float64  `json:"vote_average"`
	OriginalLanguage string   `json:"original_language"`
	Genres           []string `json:"genres,omitempty"`
	Certification    string   `json:"certification,omitempty"` // empty = unrated / unknown
	Adult            bool     `json:"adult"`
	PosterPath       string   `json:"poster_path,omitempty"`
	Overview         string   `json:"overview,omitempty"`
}

// ServiceKind identifies one of the supported request services.
type ServiceKind string

const (
	ServiceOverseerr ServiceKind = "overseerr"
	ServiceRiven     ServiceKind = "riven"
	ServiceRadarr    ServiceKind = "radarr"
)

// ServiceTarget is one configured downstream request service.
type ServiceTarget struct {
	Kind    ServiceKind `json:"kind"`
	BaseURL string      `json:"base_url"`
	APIKey  string      `json:"-"`
}
