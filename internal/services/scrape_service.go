package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/phuslu/log"

	"github.com/govjobalert/govjobalert/internal/dtos"
	"github.com/govjobalert/govjobalert/internal/models"
)

const (
	DefaultScrapeTarget = "https://www.sarkariresult.com/latestjob/"

	maxPageBytes = 5 << 20
	maxPageHTML  = 50000
)

// ListingExtractor turns a job board page into listings.
type ListingExtractor interface {
	ExtractJobListings(ctx context.Context, rawHTML string) ([]dtos.ScrapedJob, error)
}

// Ingester stores a batch of job records.
type Ingester interface {
	BulkUpsert(ctx context.Context, inputs []dtos.JobInput) (*dtos.BulkImportResult, error)
}

// ScrapeService fetches a job board page, has the LLM extract its listings
// and hands them to an Ingester as job records.
type ScrapeService struct {
	HTTP      *http.Client
	Extractor ListingExtractor
	Matcher   *MatcherService
	Ingester  Ingester
	TargetURL string

	// Now is the clock used for postedDate.
	Now func() time.Time
}

func NewScrapeService(extractor ListingExtractor, matcher *MatcherService, ingester Ingester, targetURL string) *ScrapeService {
	if targetURL == "" {
		targetURL = DefaultScrapeTarget
	}
	return &ScrapeService{
		HTTP:      &http.Client{Timeout: 30 * time.Second},
		Extractor: extractor,
		Matcher:   matcher,
		Ingester:  ingester,
		TargetURL: targetURL,
		Now:       time.Now,
	}
}

// Run performs one scrape cycle.
func (s *ScrapeService) Run(ctx context.Context) (*dtos.BulkImportResult, error) {
	start := time.Now()
	log.Info().Str("target", s.TargetURL).Msg("scrape cycle starting")

	if s.Matcher != nil {
		if err := s.Matcher.Refresh(ctx); err != nil {
			log.Warn().Err(err).Msg("catalog refresh failed, using fallback slugs")
		}
	}

	page, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(s.TargetURL)
	if err != nil {
		return nil, fmt.Errorf("parse target url: %w", err)
	}
	cleaned, err := condenseHTML(page, base)
	if err != nil {
		return nil, err
	}

	listings, err := s.Extractor.ExtractJobListings(ctx, cleaned)
	if err != nil {
		return nil, fmt.Errorf("extract listings: %w", err)
	}
	if len(listings) == 0 {
		log.Info().Msg("scrape cycle found no listings")
		return &dtos.BulkImportResult{}, nil
	}

	inputs := make([]dtos.JobInput, 0, len(listings))
	for _, l := range listings {
		inputs = append(inputs, s.toInput(l))
	}
	result, err := s.Ingester.BulkUpsert(ctx, inputs)
	if err != nil {
		return nil, fmt.Errorf("ingest listings: %w", err)
	}

	log.Info().
		Int("listings", len(listings)).
		Int("processed", result.Summary.Processed).
		Int("failed", result.Summary.Failed).
		Dur("took", time.Since(start)).
		Msg("scrape cycle finished")
	for _, e := range result.Errors {
		log.Warn().Msg(e)
	}
	return result, nil
}

func (s *ScrapeService) fetch(ctx context.Context) (io.Reader, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.TargetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "govjobalert-scraper/1.0")

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.TargetURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", s.TargetURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.TargetURL, err)
	}
	return bytes.NewReader(body), nil
}

// condenseHTML drops markup the model does not need, makes links absolute
// and truncates the result.
func condenseHTML(r io.Reader, base *url.URL) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript, svg, iframe, header, footer, nav, form").Remove()
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if u, err := base.Parse(strings.TrimSpace(href)); err == nil {
			a.SetAttr("href", u.String())
		}
	})

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	html, err := body.Html()
	if err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return truncateUTF8(strings.Join(strings.Fields(html), " "), maxPageHTML), nil
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func (s *ScrapeService) toInput(l dtos.ScrapedJob) dtos.JobInput {
	id := ListingID(l.Link)
	category := FallbackCategory
	location, state := FallbackLocation, FallbackState
	if s.Matcher != nil {
		category = s.Matcher.MatchCategory(l.Title, l.Department)
		location, state = s.Matcher.MatchLocation(l.Title, l.Department)
	}

	in := dtos.JobInput{
		ID:             &id,
		Title:          l.Title,
		Department:     l.Department,
		Category:       category,
		Location:       location,
		State:          state,
		PostedDate:     models.DateOf(s.Now()).String(),
		ApplicationURL: &l.Link,
	}
	if deadline, err := ParseDeadline(l.ApplicationDeadline); err == nil {
		v := deadline.String()
		in.ApplicationDeadline = &v
	} else if l.ApplicationDeadline != "" {
		log.Debug().Str("link", l.Link).Str("deadline", l.ApplicationDeadline).Msg("unparseable deadline dropped")
	}
	return in
}

// ListingID derives a stable job id from the last path segment of a listing
// link, without a ".php" suffix.
func ListingID(link string) int64 {
	slug := link
	if u, err := url.Parse(link); err == nil && u.Path != "" {
		slug = path.Base(strings.TrimRight(u.Path, "/"))
	}
	slug = strings.TrimSuffix(slug, ".php")

	h := fnv.New32a()
	_, _ = h.Write([]byte(slug))
	return int64(h.Sum32())
}

var deadlineLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	models.DateLayout,
	time.RFC3339,
}

var errNoDeadline = errors.New("no deadline")

// ParseDeadline reads the date formats job boards use for last dates. Day
// comes before month in the slash and dash forms.
func ParseDeadline(s string) (models.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.Date{}, errNoDeadline
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.DateOf(t), nil
		}
	}
	return models.Date{}, fmt.Errorf("unrecognised deadline %q", s)
}
