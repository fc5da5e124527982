package source

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/digitarr/digitarr/internal/model"
	"github.com/digitarr/digitarr/internal/title"
)

const scrapeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// dateHeader matches listing-section headers like "Tuesday January 14, 2025".
var dateHeader = regexp.MustCompile(
	`(?:Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday)\s+` +
		`(January|February|March|April|May|June|July|August|September|October|November|December)\s+` +
		`(\d{1,2}),\s+(\d{4})`)

// navTitles are link texts on the listing page that are navigation, not movies.
var navTitles = map[string]struct{}{
	"digital releases":  {},
	"new dvd releases":  {},
	"release date news": {},
}

// ScrapedSource reads a dvdsreleasedates.com-style listing page: a
// semi-structured table of date headers followed by per-vendor movie rows.
// The same title often appears once per vendor, so rows are grouped by
// normalized title before yielding candidates. Candidates carry no TMDB id;
// the enricher resolves them by search.
type ScrapedSource struct {
	url  string
	http *http.Client
	loc  *time.Location
	now  func() time.Time
}

// NewScrapedSource creates a release source backed by the listing page at url.
func NewScrapedSource(url string, loc *time.Location) *ScrapedSource {
	return &ScrapedSource{
		url:  url,
		http: &http.Client{Timeout: 30 * time.Second},
		loc:  loc,
		now:  time.Now,
	}
}

func (s *ScrapedSource) Name() string { return "dvdsreleasedates" }

func (s *ScrapedSource) FetchToday(ctx context.Context) ([]model.CandidateIdentity, error) {
	today := s.now().In(s.loc)
	zap.L().Info("fetching digital releases from listing page",
		zap.String("url", s.url),
		zap.String("date", today.Format("2006-01-02")),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, &UnavailableError{Source: s.Name(), Err: err}
	}
	req.Header.Set("User-Agent", scrapeUserAgent)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, &UnavailableError{Source: s.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &UnavailableError{
			Source: s.Name(),
			Err:    fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &ParseError{Source: s.Name(), Detail: "not parseable as HTML: " + err.Error()}
	}

	return s.parse(doc, today)
}

// parse walks the listing in document order, tracking the date header most
// recently seen and collecting movie links while that date is today.
func (s *ScrapedSource) parse(doc *goquery.Document, today time.Time) ([]model.CandidateIdentity, error) {
	wantDate := today.Format("2006-01-02")
	headerCount := 0
	var currentDate string

	type entry struct {
		title string
		year  int
	}
	order := make([]string, 0, 16)
	byNorm := make(map[string]entry)

	doc.Find("td, div, tr").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if m := dateHeader.FindStringSubmatch(text); m != nil {
			headerCount++
			day, _ := strconv.Atoi(m[2])
			year, _ := strconv.Atoi(m[3])
			if t, err := time.Parse("January 2 2006", fmt.Sprintf("%s %d %d", m[1], day, year)); err == nil {
				currentDate = t.Format("2006-01-02")
			}
		}

		if currentDate != wantDate {
			return
		}

		sel.Find("a").Each(func(_ int, link *goquery.Selection) {
			href, _ := link.Attr("href")
			linkTitle := strings.TrimSpace(link.Text())
			if !strings.Contains(href, "/movies/") || len(linkTitle) < 2 {
				return
			}
			if _, nav := navTitles[strings.ToLower(linkTitle)]; nav {
				return
			}
			norm := title.Normalize(linkTitle)
			if norm == "" {
				return
			}
			// Multiple vendors list the same title separately; keep the first.
			if _, dup := byNorm[norm]; !dup {
				byNorm[norm] = entry{title: linkTitle, year: today.Year()}
				order = append(order, norm)
			}
		})
	})

	if headerCount == 0 {
		return nil, &ParseError{Source: s.Name(), Detail: "no date headers found; page structure changed"}
	}

	candidates := make([]model.CandidateIdentity, 0, len(order))
	for _, norm := range order {
		e := byNorm[norm]
		candidates = append(candidates, model.CandidateIdentity{Title: e.title, Year: e.year})
	}
	return candidates, nil
}
