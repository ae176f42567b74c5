// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/pdiddy/citeimpact/internal/httputil"
	"github.com/pdiddy/citeimpact/pkg/types"
)

// scholarBaseURL is the Google Scholar root. Declared as a var so tests
// can substitute an httptest server.
var scholarBaseURL = "https://scholar.google.com"

const (
	scholarPageSize = 10

	// One backoff-and-retry on a plain 429 before surfacing
	// ErrRateLimited; there is no alternative source for profile pages.
	scholarRetries429 = 1
)

var (
	yearRe    = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	citedByRe = regexp.MustCompile(`Cited by (\d+)`)
)

// ScholarProfile scrapes public Scholar pages. Slow, result pages list
// ten entries each, and the site gates heavy traffic behind a CAPTCHA;
// those gates surface as ErrBlocked and are never retried.
type ScholarProfile struct {
	Client *http.Client
	Policy CallPolicy
	// UserAgent is sent with every request. Scholar serves a degraded
	// page to clients without a browser-like agent.
	UserAgent string
}

// Name returns the provider identifier.
func (g *ScholarProfile) Name() types.Source { return types.SourceScholarProfile }

// Traits declares the provider's operational characteristics.
func (g *ScholarProfile) Traits() Traits {
	return Traits{Latency: LatencySlow, InteractiveUnblock: true}
}

func (g *ScholarProfile) fetch(ctx context.Context, reqURL string) (*html.Node, error) {
	var doc *html.Node
	err := g.Policy.call(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", g.UserAgent)
		req.Header.Set("Accept-Language", "en")

		resp, err := httputil.DoWithRetry(ctx, g.Client, req, scholarRetries429)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTransient, err)
		}
		defer resp.Body.Close()

		// Scholar serves its CAPTCHA interstitial with a 200 or 429, so
		// the body has to be inspected either way.
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTransient, err)
		}
		if isCaptchaPage(body) {
			return fmt.Errorf("scholar_profile: CAPTCHA interstitial: %w", ErrBlocked)
		}
		if err := checkStatus("scholar_profile", resp); err != nil {
			return err
		}

		doc, err = html.Parse(strings.NewReader(string(body)))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		return nil
	})
	return doc, err
}

func isCaptchaPage(body []byte) bool {
	lower := strings.ToLower(string(body))
	return strings.Contains(lower, "not a robot") || strings.Contains(lower, "captcha")
}

// FindPaper scrapes the search results page and accepts the first hit
// whose title matches the query. The paper id carries the cites
// parameter of the "Cited by" link, which is the key for listing
// citations later; papers never cited get a synthetic hash id.
func (g *ScholarProfile) FindPaper(ctx context.Context, title string) (*types.PaperRecord, error) {
	params := url.Values{"hl": {"en"}, "q": {title}}
	doc, err := g.fetch(ctx, scholarBaseURL+"/scholar?"+params.Encode())
	if err != nil {
		return nil, err
	}

	for _, result := range findAllByClass(doc, "div", "gs_ri") {
		hit := parseSearchResult(result)
		if hit.Title == "" || !titlesRoughlyMatch(hit.Title, title) {
			continue
		}
		rec := &types.PaperRecord{
			Title:         hit.Title,
			Year:          hit.Year,
			Venue:         hit.Venue,
			CitationCount: hit.CitedBy,
			ResolvedBy:    types.SourceScholarProfile,
		}
		id := hit.CitesID
		if id == "" {
			id = "gs_" + fmt.Sprintf("%x", md5.Sum([]byte(title)))[:12]
		}
		rec.SetID(types.SourceScholarProfile, id)
		return rec, nil
	}
	return nil, fmt.Errorf("scholar_profile: %q: %w", title, ErrNotFound)
}

// ListCitations walks the "Cited by" result pages for a paper. The id
// must be a real cites key; synthetic hash ids cannot be listed.
func (g *ScholarProfile) ListCitations(ctx context.Context, ref PaperRef, max int) (*CitationPage, error) {
	if ref.ID == "" || strings.HasPrefix(ref.ID, "gs_") {
		return nil, fmt.Errorf("scholar_profile: no cites id: %w", ErrNotFound)
	}
	if max <= 0 {
		max = 100
	}

	page := &CitationPage{}
	for start := 0; len(page.Citations) < max; start += scholarPageSize {
		params := url.Values{
			"hl":    {"en"},
			"cites": {ref.ID},
			"start": {strconv.Itoa(start)},
		}
		doc, err := g.fetch(ctx, scholarBaseURL+"/scholar?"+params.Encode())
		if err != nil {
			// Partial results are allowed after the first successful page,
			// except a CAPTCHA gate which the orchestrator must see.
			if len(page.Citations) > 0 && !IsBlocked(err) {
				page.Incomplete = true
				return page, nil
			}
			return nil, err
		}

		results := findAllByClass(doc, "div", "gs_ri")
		if len(results) == 0 {
			return page, nil
		}
		for _, result := range results {
			if len(page.Citations) >= max {
				page.Incomplete = true
				return page, nil
			}
			hit := parseSearchResult(result)
			if hit.Title == "" {
				continue
			}
			c := types.CitationRecord{
				Title:         hit.Title,
				Year:          hit.Year,
				Venue:         hit.Venue,
				URL:           hit.URL,
				CitationCount: hit.CitedBy,
				Sources:       []types.Source{types.SourceScholarProfile},
			}
			for _, name := range hit.Authors {
				c.Authors = append(c.Authors, types.AuthorRecord{Name: name})
			}
			page.Citations = append(page.Citations, c)
		}
		if len(results) < scholarPageSize {
			return page, nil
		}
	}
	page.Incomplete = true
	return page, nil
}

// AuthorProfile fetches a Scholar profile page. With an id the profile
// is read directly; otherwise the author search page picks the first
// matching profile. Profiles carry the scraped h-index, total citations,
// affiliation, and publication titles.
func (g *ScholarProfile) AuthorProfile(ctx context.Context, ref AuthorRef) (*types.AuthorRecord, error) {
	id := ref.ID
	if id == "" {
		found, err := g.searchProfileID(ctx, ref.Name)
		if err != nil {
			return nil, err
		}
		id = found
	}

	params := url.Values{"hl": {"en"}, "user": {id}}
	doc, err := g.fetch(ctx, scholarBaseURL+"/citations?"+params.Encode())
	if err != nil {
		return nil, err
	}

	rec := &types.AuthorRecord{Name: ref.Name}
	rec.SetProfileID(types.SourceScholarProfile, id)

	if n := findFirstByID(doc, "gsc_prf_in"); n != nil {
		if name := strings.TrimSpace(nodeText(n)); name != "" {
			rec.Name = name
		}
	}
	if n := findFirstByClass(doc, "div", "gsc_prf_il"); n != nil {
		rec.Affiliation = strings.TrimSpace(nodeText(n))
	}

	// The stats table lists citations, h-index, and i10-index rows with
	// an "all time" column first.
	stats := findAllByClass(doc, "td", "gsc_rsb_std")
	if len(stats) >= 3 {
		if v, err := strconv.Atoi(strings.TrimSpace(nodeText(stats[0]))); err == nil {
			rec.TotalCitations = types.TaggedInt{Value: v, Source: types.SourceScholarProfile}
		}
		if v, err := strconv.Atoi(strings.TrimSpace(nodeText(stats[2]))); err == nil {
			rec.HIndex = types.TaggedInt{Value: v, Source: types.SourceScholarProfile}
		}
	}

	for _, n := range findAllByClass(doc, "a", "gsc_a_at") {
		if t := strings.TrimSpace(nodeText(n)); t != "" {
			rec.Publications = append(rec.Publications, t)
		}
	}
	rec.WorksCount = len(rec.Publications)

	if !rec.Enriched() && rec.Affiliation == "" {
		return nil, fmt.Errorf("scholar_profile: empty profile %q: %w", id, ErrNotFound)
	}
	return rec, nil
}

// searchProfileID resolves a name through the profile search page and
// returns the user parameter of the first hit.
func (g *ScholarProfile) searchProfileID(ctx context.Context, name string) (string, error) {
	params := url.Values{
		"hl":       {"en"},
		"view_op":  {"search_authors"},
		"mauthors": {name},
	}
	doc, err := g.fetch(ctx, scholarBaseURL+"/citations?"+params.Encode())
	if err != nil {
		return "", err
	}

	for _, n := range findAllByClass(doc, "h3", "gs_ai_name") {
		link := findFirst(n, func(c *html.Node) bool { return c.Type == html.ElementNode && c.Data == "a" })
		if link == nil {
			continue
		}
		if id := userParam(attrVal(link, "href")); id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("scholar_profile: no profile for %q: %w", name, ErrNotFound)
}

// scholarHit is one parsed gs_ri result block.
type scholarHit struct {
	Title   string
	URL     string
	Authors []string
	Venue   string
	Year    int
	CitedBy int
	CitesID string
}

// parseSearchResult extracts a hit from one result block. The byline has
// the form "Author1, Author2 - Venue, Year - Publisher"; the footer links
// carry "Cited by N" with the cites key in the href.
func parseSearchResult(result *html.Node) scholarHit {
	var hit scholarHit

	if h3 := findFirstByClass(result, "h3", "gs_rt"); h3 != nil {
		title := nodeText(h3)
		title = strings.ReplaceAll(title, "[HTML]", "")
		title = strings.ReplaceAll(title, "[PDF]", "")
		title = strings.ReplaceAll(title, "[BOOK]", "")
		title = strings.ReplaceAll(title, "[CITATION]", "")
		hit.Title = strings.TrimSpace(title)
		if link := findFirst(h3, func(c *html.Node) bool { return c.Type == html.ElementNode && c.Data == "a" }); link != nil {
			hit.URL = attrVal(link, "href")
		}
	}

	if byline := findFirstByClass(result, "div", "gs_a"); byline != nil {
		parts := strings.Split(nodeText(byline), " - ")
		if len(parts) > 0 {
			for _, a := range strings.Split(parts[0], ",") {
				if name := strings.TrimSpace(a); name != "" && name != "…" {
					hit.Authors = append(hit.Authors, name)
				}
				if len(hit.Authors) == 3 {
					break
				}
			}
		}
		if len(parts) > 1 {
			venueYear := strings.TrimSpace(parts[1])
			if loc := yearRe.FindStringIndex(venueYear); loc != nil {
				hit.Year, _ = strconv.Atoi(venueYear[loc[0]:loc[1]])
				hit.Venue = strings.TrimSuffix(strings.TrimSpace(venueYear[:loc[0]]), ",")
			} else {
				hit.Venue = venueYear
			}
		}
	}

	for _, link := range findAll(result, func(c *html.Node) bool { return c.Type == html.ElementNode && c.Data == "a" }) {
		m := citedByRe.FindStringSubmatch(nodeText(link))
		if m == nil {
			continue
		}
		hit.CitedBy, _ = strconv.Atoi(m[1])
		hit.CitesID = citesParam(attrVal(link, "href"))
		break
	}
	return hit
}

func citesParam(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return u.Query().Get("cites")
}

func userParam(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return u.Query().Get("user")
}

// HTML traversal helpers.

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if match(c) {
			out = append(out, c)
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return out
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findFirst(child, match); found != nil {
			return found
		}
	}
	return nil
}

func findAllByClass(n *html.Node, tag, class string) []*html.Node {
	return findAll(n, func(c *html.Node) bool {
		return c.Type == html.ElementNode && c.Data == tag && hasClass(c, class)
	})
}

func findFirstByClass(n *html.Node, tag, class string) *html.Node {
	return findFirst(n, func(c *html.Node) bool {
		return c.Type == html.ElementNode && c.Data == tag && hasClass(c, class)
	})
}

func findFirstByID(n *html.Node, id string) *html.Node {
	return findFirst(n, func(c *html.Node) bool {
		return c.Type == html.ElementNode && attrVal(c, "id") == id
	})
}

func hasClass(n *html.Node, class string) bool {
	for _, f := range strings.Fields(attrVal(n, "class")) {
		if f == class {
			return true
		}
	}
	return false
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// nodeText flattens the text content of a node, matching what a browser
// would render for the element.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return sb.String()
}
