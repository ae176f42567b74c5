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

// openalexAPIBase is the OpenAlex API root. Declared as a var so tests
// can substitute an httptest server.
var openalexAPIBase = "https://api.openalex.org"

// OpenAlex is the affiliation provider: its author records carry the
// last known institution with a type label, which no other source has.
// Abstracts come back as inverted indices and are reconstructed.
type OpenAlex struct {
	Client *http.Client
	Policy CallPolicy
	// Email joins the polite pool for higher rate limits.
	Email     string
	UserAgent string
}

// Name returns the provider identifier.
func (o *OpenAlex) Name() types.Source { return types.SourceOpenAlex }

// Traits declares the provider's operational characteristics.
func (o *OpenAlex) Traits() Traits {
	return Traits{Latency: LatencyFast}
}

func (o *OpenAlex) get(ctx context.Context, reqURL string, out any) error {
	return o.Policy.call(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", o.UserAgent)

		resp, err := o.Client.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTransient, err)
		}
		defer resp.Body.Close()

		if err := checkStatus("openalex", resp); err != nil {
			return err
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		return nil
	})
}

func (o *OpenAlex) values(extra url.Values) url.Values {
	if o.Email != "" {
		extra.Set("mailto", o.Email)
	}
	return extra
}

// FindPaper searches works by title and accepts the first hit with a
// matching normalized title.
func (o *OpenAlex) FindPaper(ctx context.Context, title string) (*types.PaperRecord, error) {
	params := o.values(url.Values{
		"search":   {title},
		"per-page": {"5"},
	})
	reqURL := openalexAPIBase + "/works?" + params.Encode()

	var wr struct {
		Results []openalexWork `json:"results"`
	}
	if err := o.get(ctx, reqURL, &wr); err != nil {
		return nil, err
	}

	for i := range wr.Results {
		if titlesRoughlyMatch(wr.Results[i].DisplayName, title) {
			return wr.Results[i].toRecord(), nil
		}
	}
	return nil, fmt.Errorf("openalex: %q: %w", title, ErrNotFound)
}

// ListCitations filters works citing the given OpenAlex work id. The
// authorships carry institution names, so citing authors arrive with
// affiliations attached.
func (o *OpenAlex) ListCitations(ctx context.Context, ref PaperRef, max int) (*CitationPage, error) {
	if ref.ID == "" {
		return nil, fmt.Errorf("openalex: no work id: %w", ErrNotFound)
	}
	if max <= 0 {
		max = 100
	}

	page := &CitationPage{}
	for pageNum := 1; len(page.Citations) < max; pageNum++ {
		perPage := max - len(page.Citations)
		if perPage > 100 {
			perPage = 100
		}
		params := o.values(url.Values{
			"filter":   {"cites:" + ref.ID},
			"per-page": {fmt.Sprintf("%d", perPage)},
			"page":     {fmt.Sprintf("%d", pageNum)},
		})
		reqURL := openalexAPIBase + "/works?" + params.Encode()

		var wr struct {
			Meta struct {
				Count int `json:"count"`
			} `json:"meta"`
			Results []openalexWork `json:"results"`
		}
		if err := o.get(ctx, reqURL, &wr); err != nil {
			if len(page.Citations) > 0 && IsTransient(err) {
				page.Incomplete = true
				return page, nil
			}
			return nil, err
		}
		if len(wr.Results) == 0 {
			return page, nil
		}

		for i := range wr.Results {
			w := &wr.Results[i]
			c := types.CitationRecord{
				Title:         w.DisplayName,
				Year:          w.PublicationYear,
				Venue:         w.venue(),
				DOI:           stripDOIPrefix(w.DOI),
				URL:           w.ID,
				CitationCount: w.CitedByCount,
				Sources:       []types.Source{types.SourceOpenAlex},
			}
			for _, as := range w.Authorships {
				ar := types.AuthorRecord{Name: as.Author.DisplayName}
				ar.SetProfileID(types.SourceOpenAlex, stripOpenAlexPrefix(as.Author.ID))
				ar.SetProfileID(types.SourceORCID, stripORCIDPrefix(as.Author.ORCID))
				if len(as.Institutions) > 0 {
					ar.Affiliation = as.Institutions[0].DisplayName
					ar.InstitutionKind = as.Institutions[0].Type
				}
				c.Authors = append(c.Authors, ar)
			}
			page.Citations = append(page.Citations, c)
		}

		if len(page.Citations) >= wr.Meta.Count {
			return page, nil
		}
	}
	page.Incomplete = true
	return page, nil
}

// AuthorProfile resolves an author by OpenAlex id, by ORCID, or by name
// search. Records carry the h-index, total citations, works count, and
// the last known institution with its type.
func (o *OpenAlex) AuthorProfile(ctx context.Context, ref AuthorRef) (*types.AuthorRecord, error) {
	id := ref.ID
	if id == "" && ref.ORCID != "" {
		// OpenAlex accepts external ids in the path as scheme:value.
		id = "orcid:" + ref.ORCID
	}
	var oa openalexAuthor
	if id != "" {
		reqURL := openalexAPIBase + "/authors/" + url.PathEscape(id)
		if o.Email != "" {
			reqURL += "?" + o.values(url.Values{}).Encode()
		}
		if err := o.get(ctx, reqURL, &oa); err != nil {
			return nil, err
		}
	} else {
		params := o.values(url.Values{
			"search":   {ref.Name},
			"per-page": {"1"},
		})
		var ar struct {
			Results []openalexAuthor `json:"results"`
		}
		if err := o.get(ctx, openalexAPIBase+"/authors?"+params.Encode(), &ar); err != nil {
			return nil, err
		}
		if len(ar.Results) == 0 {
			return nil, fmt.Errorf("openalex: author %q: %w", ref.Name, ErrNotFound)
		}
		oa = ar.Results[0]
	}
	return oa.toRecord(), nil
}

// OpenAlex API JSON structures.

type openalexWork struct {
	ID              string `json:"id"`
	DOI             string `json:"doi"`
	DisplayName     string `json:"display_name"`
	PublicationYear int    `json:"publication_year"`
	CitedByCount    int    `json:"cited_by_count"`
	PrimaryLocation struct {
		Source struct {
			DisplayName string `json:"display_name"`
		} `json:"source"`
	} `json:"primary_location"`
	Authorships []struct {
		Author struct {
			ID          string `json:"id"`
			DisplayName string `json:"display_name"`
			ORCID       string `json:"orcid"`
		} `json:"author"`
		Institutions []openalexInstitution `json:"institutions"`
	} `json:"authorships"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
}

type openalexInstitution struct {
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
}

type openalexAuthor struct {
	ID           string `json:"id"`
	DisplayName  string `json:"display_name"`
	ORCID        string `json:"orcid"`
	WorksCount   int    `json:"works_count"`
	CitedByCount int    `json:"cited_by_count"`
	SummaryStats struct {
		HIndex int `json:"h_index"`
	} `json:"summary_stats"`
	LastKnownInstitutions []openalexInstitution `json:"last_known_institutions"`
}

func (w *openalexWork) venue() string {
	return w.PrimaryLocation.Source.DisplayName
}

func (w *openalexWork) toRecord() *types.PaperRecord {
	rec := &types.PaperRecord{
		DOI:           stripDOIPrefix(w.DOI),
		Title:         w.DisplayName,
		Year:          w.PublicationYear,
		Venue:         w.venue(),
		Abstract:      ReconstructAbstract(w.AbstractInvertedIndex),
		CitationCount: w.CitedByCount,
		ResolvedBy:    types.SourceOpenAlex,
	}
	rec.SetID(types.SourceOpenAlex, stripOpenAlexPrefix(w.ID))
	return rec
}

func (a *openalexAuthor) toRecord() *types.AuthorRecord {
	rec := &types.AuthorRecord{
		Name:       a.DisplayName,
		WorksCount: a.WorksCount,
	}
	rec.SetProfileID(types.SourceOpenAlex, stripOpenAlexPrefix(a.ID))
	rec.SetProfileID(types.SourceORCID, stripORCIDPrefix(a.ORCID))
	if a.SummaryStats.HIndex > 0 {
		rec.HIndex = types.TaggedInt{Value: a.SummaryStats.HIndex, Source: types.SourceOpenAlex}
	}
	if a.CitedByCount > 0 {
		rec.TotalCitations = types.TaggedInt{Value: a.CitedByCount, Source: types.SourceOpenAlex}
	}
	if len(a.LastKnownInstitutions) > 0 {
		rec.Affiliation = a.LastKnownInstitutions[0].DisplayName
		rec.InstitutionKind = a.LastKnownInstitutions[0].Type
	}
	return rec
}

func stripDOIPrefix(doi string) string {
	return strings.TrimPrefix(doi, "https://doi.org/")
}

func stripOpenAlexPrefix(id string) string {
	return strings.TrimPrefix(id, "https://openalex.org/")
}

func stripORCIDPrefix(id string) string {
	return strings.TrimPrefix(id, "https://orcid.org/")
}

// ReconstructAbstract flattens OpenAlex's inverted abstract index back
// into prose, word positions mapping each token to its place.
func ReconstructAbstract(inverted map[string][]int) string {
	if len(inverted) == 0 {
		return ""
	}
	maxPos := -1
	for _, positions := range inverted {
		for _, pos := range positions {
			if pos > maxPos {
				maxPos = pos
			}
		}
	}
	if maxPos < 0 || maxPos > 100000 {
		return ""
	}
	words := make([]string, maxPos+1)
	for word, positions := range inverted {
		for _, pos := range positions {
			if pos >= 0 {
				words[pos] = word
			}
		}
	}
	var sb strings.Builder
	for _, w := range words {
		if w == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(w)
	}
	return sb.String()
}
