// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/pdiddy/citeimpact/pkg/types"
)

func mustParseHTML(t *testing.T, s string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

const scholarResultPage = `<html><body>
<div class="gs_r"><div class="gs_ri">
  <h3 class="gs_rt"><span>[PDF]</span> <a href="https://example.org/attention.pdf">Attention Is All You Need</a></h3>
  <div class="gs_a">A Vaswani, N Shazeer, N Parmar - Advances in neural information processing systems, 2017 - proceedings.neurips.cc</div>
  <div class="gs_fl"><a href="/scholar?cites=2960712678066186980&amp;hl=en">Cited by 90000</a> <a href="/scholar?related=x">Related articles</a></div>
</div></div>
<div class="gs_r"><div class="gs_ri">
  <h3 class="gs_rt"><a href="https://example.org/other">Some Other Paper About Transformers</a></h3>
  <div class="gs_a">B Author - Journal of Examples, 2020</div>
</div></div>
</body></html>`

const scholarCaptchaPage = `<html><body>
<form>Please show you're not a robot</form>
</body></html>`

const scholarProfilePage = `<html><body>
<div id="gsc_prf_in">Ashish Vaswani</div>
<div class="gsc_prf_il">Google Brain</div>
<table id="gsc_rsb_st">
  <tr><td class="gsc_rsb_std">120000</td><td class="gsc_rsb_std">90000</td></tr>
  <tr><td class="gsc_rsb_std">45</td><td class="gsc_rsb_std">40</td></tr>
  <tr><td class="gsc_rsb_std">60</td><td class="gsc_rsb_std">55</td></tr>
</table>
<td class="gsc_a_t"><a class="gsc_a_at" href="#">Attention Is All You Need</a></td>
<td class="gsc_a_t"><a class="gsc_a_at" href="#">Tensor2Tensor for Neural Machine Translation</a></td>
</body></html>`

func newScholar(ts *httptest.Server) *ScholarProfile {
	return &ScholarProfile{
		Client:    ts.Client(),
		Policy:    testPolicy(),
		UserAgent: "Mozilla/5.0 (citeimpact test)",
	}
}

func swapScholarBase(t *testing.T, url string) {
	t.Helper()
	old := scholarBaseURL
	scholarBaseURL = url
	t.Cleanup(func() { scholarBaseURL = old })
}

func TestScholarFindPaperParsesResult(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "Attention Is All You Need" {
			t.Errorf("q = %q", got)
		}
		fmt.Fprint(w, scholarResultPage)
	}))
	defer ts.Close()
	swapScholarBase(t, ts.URL)

	rec, err := newScholar(ts).FindPaper(context.Background(), "Attention Is All You Need")
	if err != nil {
		t.Fatalf("FindPaper: %v", err)
	}
	if rec.Title != "Attention Is All You Need" {
		t.Errorf("Title = %q (notation markers should be stripped)", rec.Title)
	}
	if rec.Year != 2017 {
		t.Errorf("Year = %d, want 2017", rec.Year)
	}
	if rec.Venue != "Advances in neural information processing systems" {
		t.Errorf("Venue = %q", rec.Venue)
	}
	if rec.CitationCount != 90000 {
		t.Errorf("CitationCount = %d, want 90000", rec.CitationCount)
	}
	if got := rec.ID(types.SourceScholarProfile); got != "2960712678066186980" {
		t.Errorf("cites id = %q", got)
	}
}

func TestScholarFindPaperWithoutCitedByGetsHashID(t *testing.T) {
	page := `<html><body><div class="gs_ri">
		<h3 class="gs_rt"><a href="#">Obscure Uncited Work</a></h3>
		<div class="gs_a">C Author - Workshop, 2023</div>
	</div></body></html>`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer ts.Close()
	swapScholarBase(t, ts.URL)

	rec, err := newScholar(ts).FindPaper(context.Background(), "Obscure Uncited Work")
	if err != nil {
		t.Fatalf("FindPaper: %v", err)
	}
	id := rec.ID(types.SourceScholarProfile)
	if !strings.HasPrefix(id, "gs_") || len(id) != 15 {
		t.Errorf("synthetic id = %q, want gs_ + 12 hex chars", id)
	}
}

func TestScholarCaptchaIsBlocked(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, scholarCaptchaPage)
	}))
	defer ts.Close()
	swapScholarBase(t, ts.URL)

	_, err := newScholar(ts).FindPaper(context.Background(), "anything")
	if !IsBlocked(err) {
		t.Errorf("err = %v, want Blocked on CAPTCHA page", err)
	}
}

func TestScholarListCitationsParsesBylines(t *testing.T) {
	page := `<html><body>
	<div class="gs_ri">
	  <h3 class="gs_rt"><a href="https://example.org/bert">BERT: Pre-training of Deep Bidirectional Transformers</a></h3>
	  <div class="gs_a">J Devlin, MW Chang, K Lee - Proceedings of NAACL-HLT, 2019 - aclanthology.org</div>
	  <div class="gs_fl"><a href="/scholar?cites=123&hl=en">Cited by 70000</a></div>
	</div>
	<div class="gs_ri">
	  <h3 class="gs_rt"><a href="#">Universal Language Model Fine-tuning</a></h3>
	  <div class="gs_a">J Howard, S Ruder - arXiv preprint arXiv:1801.06146, 2018</div>
	</div>
	</body></html>`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("cites"); got != "2960712678066186980" {
			t.Errorf("cites = %q", got)
		}
		fmt.Fprint(w, page)
	}))
	defer ts.Close()
	swapScholarBase(t, ts.URL)

	got, err := newScholar(ts).ListCitations(context.Background(), PaperRef{ID: "2960712678066186980"}, 50)
	if err != nil {
		t.Fatalf("ListCitations: %v", err)
	}
	if len(got.Citations) != 2 {
		t.Fatalf("len(Citations) = %d, want 2", len(got.Citations))
	}

	first := got.Citations[0]
	if first.Year != 2019 {
		t.Errorf("Year = %d", first.Year)
	}
	if first.Venue != "Proceedings of NAACL-HLT" {
		t.Errorf("Venue = %q", first.Venue)
	}
	if first.CitationCount != 70000 {
		t.Errorf("CitationCount = %d", first.CitationCount)
	}
	if len(first.Authors) != 3 || first.Authors[0].Name != "J Devlin" {
		t.Errorf("Authors = %+v", first.Authors)
	}
	if got.Citations[1].Venue != "arXiv preprint arXiv:1801.06146" {
		t.Errorf("venue without trailing year = %q", got.Citations[1].Venue)
	}
}

func TestScholarListCitationsRejectsSyntheticID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for synthetic id")
	}))
	defer ts.Close()
	swapScholarBase(t, ts.URL)

	_, err := newScholar(ts).ListCitations(context.Background(), PaperRef{ID: "gs_abc123def456"}, 10)
	if !IsNotFound(err) {
		t.Errorf("err = %v, want NotFound", err)
	}
}

func TestScholarAuthorProfileByID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("user"); got != "g0dR4_AAAAAJ" {
			t.Errorf("user = %q", got)
		}
		fmt.Fprint(w, scholarProfilePage)
	}))
	defer ts.Close()
	swapScholarBase(t, ts.URL)

	rec, err := newScholar(ts).AuthorProfile(context.Background(), AuthorRef{ID: "g0dR4_AAAAAJ", Name: "A Vaswani"})
	if err != nil {
		t.Fatalf("AuthorProfile: %v", err)
	}
	if rec.Name != "Ashish Vaswani" {
		t.Errorf("Name = %q (profile name should replace query name)", rec.Name)
	}
	if rec.Affiliation != "Google Brain" {
		t.Errorf("Affiliation = %q", rec.Affiliation)
	}
	if rec.TotalCitations.Value != 120000 || rec.TotalCitations.Source != types.SourceScholarProfile {
		t.Errorf("TotalCitations = %+v", rec.TotalCitations)
	}
	if rec.HIndex.Value != 45 {
		t.Errorf("HIndex = %d, want 45 (all-time column)", rec.HIndex.Value)
	}
	if len(rec.Publications) != 2 {
		t.Errorf("Publications = %v", rec.Publications)
	}
}

func TestScholarAuthorProfileByNameSearch(t *testing.T) {
	searchPage := `<html><body>
	<h3 class="gs_ai_name"><a href="/citations?hl=en&amp;user=xyzUser42">Ashish Vaswani</a></h3>
	</body></html>`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("view_op") == "search_authors" {
			fmt.Fprint(w, searchPage)
			return
		}
		if got := r.URL.Query().Get("user"); got != "xyzUser42" {
			t.Errorf("user = %q", got)
		}
		fmt.Fprint(w, scholarProfilePage)
	}))
	defer ts.Close()
	swapScholarBase(t, ts.URL)

	rec, err := newScholar(ts).AuthorProfile(context.Background(), AuthorRef{Name: "Ashish Vaswani"})
	if err != nil {
		t.Fatalf("AuthorProfile: %v", err)
	}
	if got := rec.ProfileID(types.SourceScholarProfile); got != "xyzUser42" {
		t.Errorf("profile id = %q", got)
	}
	if rec.HIndex.Value != 45 {
		t.Errorf("HIndex = %d", rec.HIndex.Value)
	}
}

func TestScholarAuthorProfileNoMatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><div>No profiles match your search</div></body></html>`)
	}))
	defer ts.Close()
	swapScholarBase(t, ts.URL)

	_, err := newScholar(ts).AuthorProfile(context.Background(), AuthorRef{Name: "Nobody Nowhere"})
	if !IsNotFound(err) {
		t.Errorf("err = %v, want NotFound", err)
	}
}

func TestParseSearchResultVenueWithoutYear(t *testing.T) {
	page := `<div class="gs_ri">
		<h3 class="gs_rt"><a href="#">Title Here</a></h3>
		<div class="gs_a">A Author - Some Venue Name</div>
	</div>`
	doc := mustParseHTML(t, page)
	results := findAllByClass(doc, "div", "gs_ri")
	if len(results) != 1 {
		t.Fatalf("results = %d", len(results))
	}
	hit := parseSearchResult(results[0])
	if hit.Venue != "Some Venue Name" || hit.Year != 0 {
		t.Errorf("venue=%q year=%d", hit.Venue, hit.Year)
	}
}
