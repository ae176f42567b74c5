// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/citeimpact/pkg/types"
)

// crossrefAPIBase is the Crossref REST API root. Declared as a var so
// tests can substitute an httptest server.
var crossrefAPIBase = "https://api.crossref.org"

// Crossref resolves DOIs and venue metadata from the registration
// agency's works index. It carries is-referenced-by counts but no
// cited-by listing and no author profiles.
type Crossref struct {
	Client *http.Client
	Policy CallPolicy
	// Email joins the polite pool: Crossref routes mailto-identified
	// clients to faster, more reliable servers.
	Email     string
	UserAgent string
}

// Name returns the provider identifier.
func (c *Crossref) Name() types.Source { return types.SourceCrossref }

// Traits declares the provider's operational characteristics.
func (c *Crossref) Traits() Traits {
	return Traits{Latency: LatencyFast}
}

func (c *Crossref) get(ctx context.Context, reqURL string, out any) error {
	return c.Policy.call(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		agent := c.UserAgent
		if c.Email != "" {
			agent += " (mailto:" + c.Email + ")"
		}
		req.Header.Set("User-Agent", agent)

		resp, err := c.Client.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTransient, err)
		}
		defer resp.Body.Close()

		if err := checkStatus("crossref", resp); err != nil {
			return err
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		return nil
	})
}

// FindPaper searches the works index by bibliographic query. Among hits
// whose title contains or is contained by the query, the one with the
// highest referenced-by count wins; mismatched hits are rejected.
func (c *Crossref) FindPaper(ctx context.Context, title string) (*types.PaperRecord, error) {
	params := url.Values{
		"query.bibliographic": {title},
		"rows":                {"5"},
	}
	reqURL := crossrefAPIBase + "/works?" + params.Encode()

	var wr struct {
		Message struct {
			Items []crossrefWork `json:"items"`
		} `json:"message"`
	}
	if err := c.get(ctx, reqURL, &wr); err != nil {
		return nil, err
	}

	var best *crossrefWork
	for i := range wr.Message.Items {
		item := &wr.Message.Items[i]
		if !titlesRoughlyMatch(item.title(), title) {
			continue
		}
		if best == nil || item.ReferencedByCount > best.ReferencedByCount {
			best = item
		}
	}
	if best == nil {
		return nil, fmt.Errorf("crossref: %q: %w", title, ErrNotFound)
	}
	return best.toRecord(), nil
}

// FindByDOI fetches a single work by its DOI.
func (c *Crossref) FindByDOI(ctx context.Context, doi string) (*types.PaperRecord, error) {
	reqURL := crossrefAPIBase + "/works/" + url.PathEscape(doi)

	var wr struct {
		Message crossrefWork `json:"message"`
	}
	if err := c.get(ctx, reqURL, &wr); err != nil {
		return nil, err
	}
	return wr.Message.toRecord(), nil
}

// ListCitations reports NotFound: Crossref counts citations but exposes
// no cited-by listing, so citing papers come from other providers.
func (c *Crossref) ListCitations(ctx context.Context, ref PaperRef, max int) (*CitationPage, error) {
	return nil, fmt.Errorf("crossref: no cited-by listing: %w", ErrNotFound)
}

// AuthorProfile reports NotFound: Crossref indexes works, not people.
func (c *Crossref) AuthorProfile(ctx context.Context, ref AuthorRef) (*types.AuthorRecord, error) {
	return nil, fmt.Errorf("crossref: no author profiles: %w", ErrNotFound)
}

// crossrefWork is the subset of a Crossref work message the engine uses.
type crossrefWork struct {
	DOI               string     `json:"DOI"`
	Title             []string   `json:"title"`
	ContainerTitle    []string   `json:"container-title"`
	ReferencedByCount int        `json:"is-referenced-by-count"`
	Type              string     `json:"type"`
	PublishedPrint    *dateParts `json:"published-print"`
	PublishedOnline   *dateParts `json:"published-online"`
	Created           *dateParts `json:"created"`
	Author            []struct {
		Given  string `json:"given"`
		Family string `json:"family"`
	} `json:"author"`
}

type dateParts struct {
	DateParts [][]int `json:"date-parts"`
}

func (d *dateParts) year() int {
	if d == nil || len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
		return 0
	}
	return d.DateParts[0][0]
}

func (w *crossrefWork) title() string {
	if len(w.Title) == 0 {
		return ""
	}
	return w.Title[0]
}

func (w *crossrefWork) venue() string {
	if len(w.ContainerTitle) == 0 {
		return ""
	}
	return w.ContainerTitle[0]
}

func (w *crossrefWork) toRecord() *types.PaperRecord {
	year := w.PublishedPrint.year()
	if year == 0 {
		year = w.PublishedOnline.year()
	}
	if year == 0 {
		year = w.Created.year()
	}
	rec := &types.PaperRecord{
		DOI:           w.DOI,
		Title:         w.title(),
		Year:          year,
		Venue:         w.venue(),
		CitationCount: w.ReferencedByCount,
		ResolvedBy:    types.SourceCrossref,
	}
	if w.DOI != "" {
		rec.SetID(types.SourceCrossref, w.DOI)
	}
	return rec
}

// AuthorNames flattens given+family author names in work order.
func (w *crossrefWork) AuthorNames() []string {
	var names []string
	for _, a := range w.Author {
		name := strings.TrimSpace(a.Given + " " + a.Family)
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
