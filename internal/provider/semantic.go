// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/citeimpact/internal/resolver"
	"github.com/pdiddy/citeimpact/pkg/types"
)

// semanticAPIBase is the Semantic Scholar graph API root. Declared as a
// var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1"

const (
	semanticPaperFields    = "paperId,title,year,venue,citationCount,influentialCitationCount,externalIds"
	semanticCitationFields = "isInfluential,contexts,intents,citingPaper.paperId,citingPaper.title,citingPaper.year,citingPaper.venue,citingPaper.citationCount,citingPaper.externalIds,citingPaper.authors"
	semanticAuthorFields   = "authorId,name,affiliations,paperCount,citationCount,hIndex,papers.title"
)

// SemanticScholar is the structured citation-graph provider. Fast API,
// unique author ids, and model-flagged influential citations.
type SemanticScholar struct {
	Client *http.Client
	Policy CallPolicy
	APIKey string
	// UserAgent is sent with every request.
	UserAgent string
}

// Name returns the provider identifier.
func (s *SemanticScholar) Name() types.Source { return types.SourceSemanticScholar }

// Traits declares the provider's operational characteristics.
func (s *SemanticScholar) Traits() Traits {
	return Traits{Latency: LatencyFast}
}

func (s *SemanticScholar) get(ctx context.Context, reqURL string, out any) error {
	return s.Policy.call(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", s.UserAgent)
		if s.APIKey != "" {
			req.Header.Set("x-api-key", s.APIKey)
		}

		resp, err := s.Client.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTransient, err)
		}
		defer resp.Body.Close()

		if err := checkStatus("semantic_scholar", resp); err != nil {
			return err
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		return nil
	})
}

// FindPaper resolves a title through the paper search endpoint. The top
// hit is accepted only when its normalized title matches the query.
func (s *SemanticScholar) FindPaper(ctx context.Context, title string) (*types.PaperRecord, error) {
	params := url.Values{
		"query":  {title},
		"fields": {semanticPaperFields},
		"limit":  {"5"},
	}
	reqURL := semanticAPIBase + "/paper/search?" + params.Encode()

	var sr struct {
		Data []semanticPaper `json:"data"`
	}
	if err := s.get(ctx, reqURL, &sr); err != nil {
		return nil, err
	}

	want := resolver.NormalizeTitle(title)
	for _, p := range sr.Data {
		if resolver.NormalizeTitle(p.Title) == want {
			return p.toRecord(), nil
		}
	}
	if len(sr.Data) == 0 {
		return nil, fmt.Errorf("semantic_scholar: %q: %w", title, ErrNotFound)
	}
	// No exact normalized match; take the top hit only if it is close in
	// length, otherwise treat as not found rather than guessing.
	top := sr.Data[0]
	if titlesRoughlyMatch(top.Title, title) {
		return top.toRecord(), nil
	}
	return nil, fmt.Errorf("semantic_scholar: %q: %w", title, ErrNotFound)
}

// ListCitations pages through the citations endpoint up to max entries.
func (s *SemanticScholar) ListCitations(ctx context.Context, ref PaperRef, max int) (*CitationPage, error) {
	if ref.ID == "" {
		return nil, fmt.Errorf("semantic_scholar: no paper id: %w", ErrNotFound)
	}
	if max <= 0 {
		max = 100
	}

	page := &CitationPage{}
	offset := 0
	for len(page.Citations) < max {
		limit := max - len(page.Citations)
		if limit > 100 {
			limit = 100
		}
		params := url.Values{
			"fields": {semanticCitationFields},
			"limit":  {fmt.Sprintf("%d", limit)},
			"offset": {fmt.Sprintf("%d", offset)},
		}
		reqURL := semanticAPIBase + "/paper/" + url.PathEscape(ref.ID) + "/citations?" + params.Encode()

		var cr struct {
			Next *int `json:"next"`
			Data []struct {
				IsInfluential bool           `json:"isInfluential"`
				Contexts      []string       `json:"contexts"`
				Intents       []string       `json:"intents"`
				CitingPaper   semanticPaper `json:"citingPaper"`
			} `json:"data"`
		}
		err := s.get(ctx, reqURL, &cr)
		if err != nil {
			// Partial results are allowed after the first successful page.
			if len(page.Citations) > 0 && IsTransient(err) {
				page.Incomplete = true
				return page, nil
			}
			return nil, err
		}

		for _, d := range cr.Data {
			c := types.CitationRecord{
				Title:         d.CitingPaper.Title,
				Year:          d.CitingPaper.Year,
				Venue:         d.CitingPaper.Venue,
				DOI:           d.CitingPaper.ExternalIDs.DOI,
				CitationCount: d.CitingPaper.CitationCount,
				Influential:   d.IsInfluential,
				Contexts:      d.Contexts,
				Intents:       d.Intents,
				Sources:       []types.Source{types.SourceSemanticScholar},
			}
			if d.CitingPaper.PaperID != "" {
				c.URL = "https://www.semanticscholar.org/paper/" + d.CitingPaper.PaperID
			}
			for _, a := range d.CitingPaper.Authors {
				ar := types.AuthorRecord{Name: a.Name}
				ar.SetProfileID(types.SourceSemanticScholar, a.AuthorID)
				c.Authors = append(c.Authors, ar)
			}
			page.Citations = append(page.Citations, c)
		}

		if cr.Next == nil || len(cr.Data) == 0 {
			return page, nil
		}
		offset = *cr.Next
	}
	// Hit the cap with more available.
	page.Incomplete = true
	return page, nil
}

// AuthorProfile fetches an author by id, or searches by name and returns
// the single candidate when the name is unambiguous. Ambiguous names are
// reported as NotFound; callers disambiguate through SearchAuthors.
func (s *SemanticScholar) AuthorProfile(ctx context.Context, ref AuthorRef) (*types.AuthorRecord, error) {
	if ref.ID != "" {
		reqURL := semanticAPIBase + "/author/" + url.PathEscape(ref.ID) + "?" +
			url.Values{"fields": {semanticAuthorFields}}.Encode()
		var sa semanticAuthor
		if err := s.get(ctx, reqURL, &sa); err != nil {
			return nil, err
		}
		return sa.toRecord(), nil
	}

	candidates, err := s.SearchAuthors(ctx, ref.Name)
	if err != nil {
		return nil, err
	}
	if len(candidates) != 1 {
		return nil, fmt.Errorf("semantic_scholar: %d candidates for %q: %w",
			len(candidates), ref.Name, ErrNotFound)
	}
	return &candidates[0], nil
}

// SearchAuthors returns all author candidates matching a name, each with
// known publication titles for overlap disambiguation.
func (s *SemanticScholar) SearchAuthors(ctx context.Context, name string) ([]types.AuthorRecord, error) {
	params := url.Values{
		"query":  {name},
		"fields": {semanticAuthorFields},
		"limit":  {"10"},
	}
	reqURL := semanticAPIBase + "/author/search?" + params.Encode()

	var ar struct {
		Data []semanticAuthor `json:"data"`
	}
	if err := s.get(ctx, reqURL, &ar); err != nil {
		return nil, err
	}
	if len(ar.Data) == 0 {
		return nil, fmt.Errorf("semantic_scholar: author %q: %w", name, ErrNotFound)
	}

	records := make([]types.AuthorRecord, 0, len(ar.Data))
	for _, a := range ar.Data {
		records = append(records, *a.toRecord())
	}
	return records, nil
}

// titlesRoughlyMatch accepts a hit whose normalized title contains or is
// contained by the query, covering subtitle differences across sources.
func titlesRoughlyMatch(a, b string) bool {
	na, nb := resolver.NormalizeTitle(a), resolver.NormalizeTitle(b)
	if na == "" || nb == "" {
		return false
	}
	return strings.HasPrefix(na, nb) || strings.HasPrefix(nb, na)
}

// Semantic Scholar API JSON structures.

type semanticPaper struct {
	PaperID                  string             `json:"paperId"`
	Title                    string             `json:"title"`
	Year                     int                `json:"year"`
	Venue                    string             `json:"venue"`
	CitationCount            int                `json:"citationCount"`
	InfluentialCitationCount int                `json:"influentialCitationCount"`
	ExternalIDs              semanticExternalID `json:"externalIds"`
	Authors                  []struct {
		AuthorID string `json:"authorId"`
		Name     string `json:"name"`
	} `json:"authors"`
}

type semanticExternalID struct {
	DOI string `json:"DOI"`
}

func (p semanticPaper) toRecord() *types.PaperRecord {
	rec := &types.PaperRecord{
		DOI:              p.ExternalIDs.DOI,
		Title:            p.Title,
		Year:             p.Year,
		Venue:            p.Venue,
		CitationCount:    p.CitationCount,
		InfluentialCount: p.InfluentialCitationCount,
		ResolvedBy:       types.SourceSemanticScholar,
	}
	rec.SetID(types.SourceSemanticScholar, p.PaperID)
	return rec
}

type semanticAuthor struct {
	AuthorID      string   `json:"authorId"`
	Name          string   `json:"name"`
	Affiliations  []string `json:"affiliations"`
	PaperCount    int      `json:"paperCount"`
	CitationCount int      `json:"citationCount"`
	HIndex        int      `json:"hIndex"`
	Papers        []struct {
		Title string `json:"title"`
	} `json:"papers"`
}

func (a semanticAuthor) toRecord() *types.AuthorRecord {
	rec := &types.AuthorRecord{
		Name:       a.Name,
		WorksCount: a.PaperCount,
	}
	rec.SetProfileID(types.SourceSemanticScholar, a.AuthorID)
	if a.HIndex > 0 {
		rec.HIndex = types.TaggedInt{Value: a.HIndex, Source: types.SourceSemanticScholar}
	}
	if a.CitationCount > 0 {
		rec.TotalCitations = types.TaggedInt{Value: a.CitationCount, Source: types.SourceSemanticScholar}
	}
	if len(a.Affiliations) > 0 {
		rec.Affiliation = a.Affiliations[0]
	}
	for _, p := range a.Papers {
		if p.Title != "" {
			rec.Publications = append(rec.Publications, p.Title)
		}
	}
	return rec
}
