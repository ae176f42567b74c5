// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/citeimpact/internal/resolver"
	"github.com/pdiddy/citeimpact/pkg/types"
)

// dblpAPIBase is the DBLP search API root. Declared as a var so tests
// can substitute an httptest server.
var dblpAPIBase = "https://dblp.org"

// DBLP covers computer-science bibliography: publication and author
// search plus per-person publication lists. It has no citation graph
// and no h-index data.
type DBLP struct {
	Client    *http.Client
	Policy    CallPolicy
	UserAgent string
}

// Name returns the provider identifier.
func (d *DBLP) Name() types.Source { return types.SourceDBLP }

// Traits declares the provider's operational characteristics.
func (d *DBLP) Traits() Traits {
	return Traits{Latency: LatencyFast}
}

func (d *DBLP) get(ctx context.Context, reqURL string, out any) error {
	return d.Policy.call(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", d.UserAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := d.Client.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTransient, err)
		}
		defer resp.Body.Close()

		if err := checkStatus("dblp", resp); err != nil {
			return err
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		return nil
	})
}

// FindPaper searches the publication index and scores hits by title word
// overlap. DBLP titles end with a period, so matching runs on normalized
// forms; a hit needs more than half the query's words to be accepted.
func (d *DBLP) FindPaper(ctx context.Context, title string) (*types.PaperRecord, error) {
	params := url.Values{
		"q":      {title},
		"format": {"json"},
		"h":      {"10"},
	}
	reqURL := dblpAPIBase + "/search/publ/api?" + params.Encode()

	var sr dblpSearchResult
	if err := d.get(ctx, reqURL, &sr); err != nil {
		return nil, err
	}
	hits := sr.Result.Hits.Hit
	if len(hits) == 0 {
		return nil, fmt.Errorf("dblp: %q: %w", title, ErrNotFound)
	}

	queryWords := wordSet(resolver.NormalizeTitle(title))
	var best *dblpInfo
	bestScore := 0.0
	for i := range hits {
		info := &hits[i].Info
		hitWords := wordSet(resolver.NormalizeTitle(info.Title))
		score := overlapRatio(queryWords, hitWords)
		if score > bestScore {
			bestScore = score
			best = info
		}
	}
	if best == nil || bestScore <= 0.5 {
		return nil, fmt.Errorf("dblp: %q: %w", title, ErrNotFound)
	}
	return best.toRecord(), nil
}

// ListCitations reports NotFound: DBLP indexes publications, not the
// citation graph.
func (d *DBLP) ListCitations(ctx context.Context, ref PaperRef, max int) (*CitationPage, error) {
	return nil, fmt.Errorf("dblp: no citation graph: %w", ErrNotFound)
}

// AuthorProfile searches the author index and loads the person's
// publication list. The record carries no metrics, only the name, the
// pid, and publication titles for overlap disambiguation.
func (d *DBLP) AuthorProfile(ctx context.Context, ref AuthorRef) (*types.AuthorRecord, error) {
	pid := ref.ID
	name := ref.Name
	if pid == "" {
		params := url.Values{
			"q":      {ref.Name},
			"format": {"json"},
			"h":      {"10"},
		}
		var sr dblpSearchResult
		if err := d.get(ctx, dblpAPIBase+"/search/author/api?"+params.Encode(), &sr); err != nil {
			return nil, err
		}
		if len(sr.Result.Hits.Hit) == 0 {
			return nil, fmt.Errorf("dblp: author %q: %w", ref.Name, ErrNotFound)
		}
		info := sr.Result.Hits.Hit[0].Info
		pid = dblpPID(info.URL)
		if info.Author != "" {
			name = info.Author
		}
	}
	if pid == "" {
		return nil, fmt.Errorf("dblp: author %q has no pid: %w", ref.Name, ErrNotFound)
	}

	rec := &types.AuthorRecord{Name: name}
	rec.SetProfileID(types.SourceDBLP, pid)

	var person struct {
		DBLPPerson struct {
			R dblpRecordList `json:"r"`
		} `json:"dblpPerson"`
	}
	if err := d.get(ctx, dblpAPIBase+"/pid/"+pid+".json", &person); err != nil {
		// The search hit alone still identifies the author.
		if IsNotFound(err) {
			return rec, nil
		}
		return nil, err
	}
	for _, pub := range person.DBLPPerson.R.Records {
		if pub.Title != "" {
			rec.Publications = append(rec.Publications, strings.TrimSuffix(pub.Title, "."))
		}
	}
	rec.WorksCount = len(rec.Publications)
	return rec, nil
}

// VenueInfo looks up a conference or journal by name or acronym.
func (d *DBLP) VenueInfo(ctx context.Context, venue string) (name, acronym, kind string, err error) {
	params := url.Values{
		"q":      {venue},
		"format": {"json"},
		"h":      {"5"},
	}
	var sr dblpSearchResult
	if err := d.get(ctx, dblpAPIBase+"/search/venue/api?"+params.Encode(), &sr); err != nil {
		return "", "", "", err
	}
	if len(sr.Result.Hits.Hit) == 0 {
		return "", "", "", fmt.Errorf("dblp: venue %q: %w", venue, ErrNotFound)
	}
	info := sr.Result.Hits.Hit[0].Info
	return info.Venue.First(), info.Acronym, info.Type, nil
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		set[w] = true
	}
	return set
}

func overlapRatio(query, hit map[string]bool) float64 {
	if len(query) == 0 {
		return 0
	}
	n := 0
	for w := range query {
		if hit[w] {
			n++
		}
	}
	return float64(n) / float64(len(query))
}

// dblpPID extracts the person id from a profile URL such as
// https://dblp.org/pid/123/4567.
func dblpPID(profileURL string) string {
	_, pid, ok := strings.Cut(profileURL, "/pid/")
	if !ok {
		return ""
	}
	return strings.TrimSuffix(pid, ".html")
}

// DBLP search API JSON structures. Several fields are single values or
// arrays depending on the record, so they decode through custom types.

type dblpSearchResult struct {
	Result struct {
		Hits struct {
			Hit []struct {
				Info dblpInfo `json:"info"`
			} `json:"hit"`
		} `json:"hits"`
	} `json:"result"`
}

type dblpInfo struct {
	Title   string         `json:"title"`
	Venue   dblpStringList `json:"venue"`
	Year    dblpYear       `json:"year"`
	Type    string         `json:"type"`
	DOI     string         `json:"doi"`
	URL     string         `json:"url"`
	Author  string         `json:"author"`
	Acronym string         `json:"acronym"`
	Authors struct {
		Author dblpNameList `json:"author"`
	} `json:"authors"`
}

func (i *dblpInfo) toRecord() *types.PaperRecord {
	rec := &types.PaperRecord{
		DOI:        i.DOI,
		Title:      strings.TrimSuffix(i.Title, "."),
		Year:       int(i.Year),
		Venue:      i.Venue.First(),
		ResolvedBy: types.SourceDBLP,
	}
	rec.SetID(types.SourceDBLP, i.URL)
	return rec
}

// dblpYear decodes a year that arrives as either a JSON string or number.
type dblpYear int

func (y *dblpYear) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*y = 0
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("dblp year %q: %w", s, err)
	}
	*y = dblpYear(v)
	return nil
}

// dblpStringList decodes a field that is either one string or a list.
type dblpStringList []string

func (l *dblpStringList) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*l = dblpStringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*l = dblpStringList(many)
	return nil
}

func (l dblpStringList) First() string {
	if len(l) == 0 {
		return ""
	}
	return l[0]
}

// dblpNameList decodes author entries that are one or many objects of
// the form {"@pid": ..., "text": ...}, or bare strings.
type dblpNameList []string

func (l *dblpNameList) UnmarshalJSON(b []byte) error {
	type entry struct {
		Text string `json:"text"`
	}
	var names []string

	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		raw = []json.RawMessage{b}
	}
	for _, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			names = append(names, s)
			continue
		}
		var e entry
		if err := json.Unmarshal(r, &e); err != nil {
			return err
		}
		if e.Text != "" {
			names = append(names, e.Text)
		}
	}
	*l = dblpNameList(names)
	return nil
}

// dblpRecordList decodes a person page's publication records, each an
// object keyed by kind (article, inproceedings) that may arrive as one
// object or a list.
type dblpRecordList struct {
	Records []dblpPublication
}

type dblpPublication struct {
	Title     string         `json:"title"`
	Year      dblpYear       `json:"year"`
	Journal   string         `json:"journal"`
	Booktitle string         `json:"booktitle"`
	DOI       string         `json:"doi"`
	EE        dblpStringList `json:"ee"`
}

func (l *dblpRecordList) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		raw = []json.RawMessage{b}
	}
	for _, r := range raw {
		var byKind map[string]dblpPublication
		if err := json.Unmarshal(r, &byKind); err != nil {
			return err
		}
		for _, pub := range byKind {
			l.Records = append(l.Records, pub)
		}
	}
	return nil
}
