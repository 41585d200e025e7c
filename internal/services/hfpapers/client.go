// Package hfpapers discovers candidate papers from the Hugging Face weekly
// papers listing. The listing is plain server-rendered HTML, so discovery is
// an anchor-href scan rather than a structured API call.
package hfpapers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"apd/internal/config"
	"apd/internal/ledger"
	"apd/internal/logging"
	"apd/internal/period"
	"apd/internal/services"
)

// paperHref matches anchors linking to individual paper pages. The numeric id
// doubles as the arXiv identifier.
var paperHref = regexp.MustCompile(`href="(/papers/(\d{4}\.\d{4,5}))"`)

// titleAttr pulls a nearby title attribute or anchor text when present. Titles
// are best-effort; discovery only needs the key.
var anchorWithTitle = regexp.MustCompile(`<a[^>]*href="/papers/(\d{4}\.\d{4,5})"[^>]*>([^<]{3,300})</a>`)

// Client fetches and parses the weekly listing.
type Client struct {
	baseURL   string
	userAgent string
	maxPapers int
	http      *http.Client
	logger    *slog.Logger
}

// New builds a Client from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := time.Duration(cfg.Discovery.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.Discovery.BaseURL, "/"),
		userAgent: cfg.Discovery.UserAgent,
		maxPapers: cfg.Discovery.MaxPapers,
		http:      &http.Client{Timeout: timeout},
		logger:    logger.With(logging.String(logging.FieldComponent, "hfpapers")),
	}
}

// Discover returns the candidate papers for one week, deduplicated and capped
// at the configured maximum. When the weekly listing is unavailable it falls
// back to the seven per-date listings that make up the week.
func (c *Client) Discover(ctx context.Context, id period.ID) ([]ledger.Candidate, error) {
	weekURL := fmt.Sprintf("%s/papers/week/%s", c.baseURL, id.ISOWeek())
	body, err := c.fetch(ctx, weekURL)
	if err == nil {
		candidates := parseListing(c.baseURL, body)
		if len(candidates) > 0 {
			return c.cap(candidates), nil
		}
		c.logger.Warn("weekly listing empty, trying per-date pages", logging.String("url", weekURL))
	} else if services.IsPermanent(err) {
		c.logger.Warn("weekly listing unavailable, trying per-date pages",
			logging.String("url", weekURL), logging.Error(err))
	} else {
		return nil, err
	}

	return c.discoverByDates(ctx, id)
}

// discoverByDates merges the per-date listings for the week. Individual date
// pages that 404 (weekends, holidays) are skipped.
func (c *Client) discoverByDates(ctx context.Context, id period.ID) ([]ledger.Candidate, error) {
	seen := make(map[string]ledger.Candidate)
	var order []string
	for _, date := range id.Dates() {
		dateURL := fmt.Sprintf("%s/papers/date/%s", c.baseURL, date)
		body, err := c.fetch(ctx, dateURL)
		if err != nil {
			if services.IsPermanent(err) {
				continue
			}
			return nil, err
		}
		for _, candidate := range parseListing(c.baseURL, body) {
			if _, ok := seen[candidate.Key]; !ok {
				seen[candidate.Key] = candidate
				order = append(order, candidate.Key)
			}
		}
	}
	if len(order) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "discovery", "list week",
			fmt.Sprintf("No papers found for week %s", id), nil)
	}
	candidates := make([]ledger.Candidate, 0, len(order))
	for _, key := range order {
		candidates = append(candidates, seen[key])
	}
	return c.cap(candidates), nil
}

func (c *Client) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", services.Wrap(services.ErrPermanent, "discovery", "build request", "Invalid listing URL", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "discovery", "fetch listing", "Listing request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return "", services.Wrap(services.ErrNotFound, "discovery", "fetch listing",
			fmt.Sprintf("Listing not found: %s", url), nil)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", services.Wrap(services.ErrTransient, "discovery", "fetch listing",
			fmt.Sprintf("Listing returned status %d", resp.StatusCode), nil)
	default:
		return "", services.Wrap(services.ErrPermanent, "discovery", "fetch listing",
			fmt.Sprintf("Listing returned status %d", resp.StatusCode), nil)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "discovery", "read listing", "Failed to read listing body", err)
	}
	return string(data), nil
}

func (c *Client) cap(candidates []ledger.Candidate) []ledger.Candidate {
	if c.maxPapers > 0 && len(candidates) > c.maxPapers {
		return candidates[:c.maxPapers]
	}
	return candidates
}

// parseListing extracts unique paper candidates from a listing page, keeping
// first-seen document order.
func parseListing(baseURL, body string) []ledger.Candidate {
	titles := make(map[string]string)
	for _, m := range anchorWithTitle.FindAllStringSubmatch(body, -1) {
		key, text := m[1], cleanTitle(m[2])
		if text != "" {
			if existing, ok := titles[key]; !ok || len(text) > len(existing) {
				titles[key] = text
			}
		}
	}

	seen := make(map[string]bool)
	var candidates []ledger.Candidate
	for _, m := range paperHref.FindAllStringSubmatch(body, -1) {
		href, key := m[1], m[2]
		if seen[key] {
			continue
		}
		seen[key] = true
		candidates = append(candidates, ledger.Candidate{
			Key:     key,
			Title:   titles[key],
			PageURL: baseURL + href,
		})
	}
	return candidates
}

func cleanTitle(raw string) string {
	title := strings.Join(strings.Fields(raw), " ")
	title = strings.ReplaceAll(title, "&amp;", "&")
	title = strings.ReplaceAll(title, "&#39;", "'")
	title = strings.ReplaceAll(title, "&quot;", `"`)
	return strings.TrimSpace(title)
}

// SortCandidates orders candidates by key for deterministic ingestion when
// callers need a stable order independent of page layout.
func SortCandidates(candidates []ledger.Candidate) {
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Key < candidates[j].Key })
}
