// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/citeimpact/pkg/types"
)

func newSemantic(ts *httptest.Server) *SemanticScholar {
	return &SemanticScholar{
		Client:    ts.Client(),
		Policy:    testPolicy(),
		UserAgent: "citeimpact-test",
	}
}

func swapSemanticBase(t *testing.T, url string) {
	t.Helper()
	old := semanticAPIBase
	semanticAPIBase = url
	t.Cleanup(func() { semanticAPIBase = old })
}

func TestSemanticFindPaperPrefersExactNormalizedMatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[
			{"paperId":"p1","title":"Attention Is All You Need: A Survey","year":2021,"citationCount":50},
			{"paperId":"p2","title":"Attention Is All You Need","year":2017,"venue":"NeurIPS","citationCount":90000,"influentialCitationCount":12000,"externalIds":{"DOI":"10.5555/3295222"}}
		]}`)
	}))
	defer ts.Close()
	swapSemanticBase(t, ts.URL)

	rec, err := newSemantic(ts).FindPaper(context.Background(), "Attention Is All You Need")
	if err != nil {
		t.Fatalf("FindPaper: %v", err)
	}
	if rec.ID(types.SourceSemanticScholar) != "p2" {
		t.Errorf("resolved id = %q, want p2 (exact normalized match)", rec.ID(types.SourceSemanticScholar))
	}
	if rec.DOI != "10.5555/3295222" {
		t.Errorf("DOI = %q", rec.DOI)
	}
	if rec.InfluentialCount != 12000 {
		t.Errorf("InfluentialCount = %d, want 12000", rec.InfluentialCount)
	}
	if rec.ResolvedBy != types.SourceSemanticScholar {
		t.Errorf("ResolvedBy = %q", rec.ResolvedBy)
	}
}

func TestSemanticFindPaperSendsAPIKey(t *testing.T) {
	var gotKey string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		fmt.Fprint(w, `{"data":[{"paperId":"p1","title":"Deep Learning"}]}`)
	}))
	defer ts.Close()
	swapSemanticBase(t, ts.URL)

	s := newSemantic(ts)
	s.APIKey = "sekrit"
	if _, err := s.FindPaper(context.Background(), "Deep Learning"); err != nil {
		t.Fatalf("FindPaper: %v", err)
	}
	if gotKey != "sekrit" {
		t.Errorf("x-api-key = %q, want sekrit", gotKey)
	}
}

func TestSemanticFindPaperNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer ts.Close()
	swapSemanticBase(t, ts.URL)

	_, err := newSemantic(ts).FindPaper(context.Background(), "No Such Paper Anywhere")
	if !IsNotFound(err) {
		t.Errorf("err = %v, want NotFound", err)
	}
}

func TestSemanticFindPaperRejectsUnrelatedTopHit(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"paperId":"x","title":"Completely Different Topic Entirely Unrelated"}]}`)
	}))
	defer ts.Close()
	swapSemanticBase(t, ts.URL)

	_, err := newSemantic(ts).FindPaper(context.Background(), "Graph Neural Networks")
	if !IsNotFound(err) {
		t.Errorf("err = %v, want NotFound for unrelated hit", err)
	}
}

func TestSemanticListCitationsPaging(t *testing.T) {
	pageBodies := map[string]string{
		"0": `{"next":2,"data":[
			{"isInfluential":true,"contexts":["builds on the encoder"],"intents":["methodology"],
			 "citingPaper":{"paperId":"c1","title":"BERT","year":2019,"venue":"NAACL","citationCount":70000,
			   "authors":[{"authorId":"a1","name":"Jacob Devlin"}]}},
			{"citingPaper":{"paperId":"c2","title":"GPT","year":2018,"citationCount":9000}}
		]}`,
		"2": `{"data":[
			{"citingPaper":{"paperId":"c3","title":"T5","year":2020,"citationCount":15000}}
		]}`,
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pageBodies[r.URL.Query().Get("offset")]
		if !ok {
			t.Errorf("unexpected offset %q", r.URL.Query().Get("offset"))
			body = `{"data":[]}`
		}
		fmt.Fprint(w, body)
	}))
	defer ts.Close()
	swapSemanticBase(t, ts.URL)

	page, err := newSemantic(ts).ListCitations(context.Background(), PaperRef{ID: "p2"}, 10)
	if err != nil {
		t.Fatalf("ListCitations: %v", err)
	}
	if len(page.Citations) != 3 {
		t.Fatalf("len(Citations) = %d, want 3", len(page.Citations))
	}
	if page.Incomplete {
		t.Error("page should be complete")
	}

	first := page.Citations[0]
	if !first.Influential {
		t.Error("first citation should be influential")
	}
	if len(first.Contexts) != 1 || !strings.Contains(first.Contexts[0], "encoder") {
		t.Errorf("Contexts = %v", first.Contexts)
	}
	if len(first.Authors) != 1 || first.Authors[0].Name != "Jacob Devlin" {
		t.Errorf("Authors = %+v", first.Authors)
	}
	if got := first.Authors[0].ProfileID(types.SourceSemanticScholar); got != "a1" {
		t.Errorf("author profile id = %q, want a1", got)
	}
}

func TestSemanticListCitationsCapSetsIncomplete(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"next":2,"data":[
			{"citingPaper":{"paperId":"c1","title":"One"}},
			{"citingPaper":{"paperId":"c2","title":"Two"}}
		]}`)
	}))
	defer ts.Close()
	swapSemanticBase(t, ts.URL)

	page, err := newSemantic(ts).ListCitations(context.Background(), PaperRef{ID: "p"}, 2)
	if err != nil {
		t.Fatalf("ListCitations: %v", err)
	}
	if len(page.Citations) != 2 {
		t.Fatalf("len(Citations) = %d, want 2", len(page.Citations))
	}
	if !page.Incomplete {
		t.Error("capped listing should be flagged incomplete")
	}
}

func TestSemanticListCitationsPartialAfterTransient(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("offset") != "0" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"next":1,"data":[{"citingPaper":{"paperId":"c1","title":"One"}}]}`)
	}))
	defer ts.Close()
	swapSemanticBase(t, ts.URL)

	s := newSemantic(ts)
	s.Policy.MaxRetries = 0
	page, err := s.ListCitations(context.Background(), PaperRef{ID: "p"}, 10)
	if err != nil {
		t.Fatalf("partial page should not error, got %v", err)
	}
	if len(page.Citations) != 1 || !page.Incomplete {
		t.Errorf("got %d citations, incomplete=%v; want 1 partial", len(page.Citations), page.Incomplete)
	}
}

func TestSemanticListCitationsNoID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer ts.Close()
	swapSemanticBase(t, ts.URL)

	_, err := newSemantic(ts).ListCitations(context.Background(), PaperRef{Title: "untracked"}, 10)
	if !IsNotFound(err) {
		t.Errorf("err = %v, want NotFound without id", err)
	}
}

func TestSemanticAuthorProfileByID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/author/a1") {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprint(w, `{"authorId":"a1","name":"Jacob Devlin","affiliations":["Google"],
			"paperCount":40,"citationCount":90000,"hIndex":30,
			"papers":[{"title":"BERT"},{"title":"Natural Questions"}]}`)
	}))
	defer ts.Close()
	swapSemanticBase(t, ts.URL)

	rec, err := newSemantic(ts).AuthorProfile(context.Background(), AuthorRef{ID: "a1"})
	if err != nil {
		t.Fatalf("AuthorProfile: %v", err)
	}
	if rec.HIndex.Value != 30 || rec.HIndex.Source != types.SourceSemanticScholar {
		t.Errorf("HIndex = %+v", rec.HIndex)
	}
	if rec.TotalCitations.Value != 90000 {
		t.Errorf("TotalCitations = %+v", rec.TotalCitations)
	}
	if rec.Affiliation != "Google" {
		t.Errorf("Affiliation = %q", rec.Affiliation)
	}
	if len(rec.Publications) != 2 {
		t.Errorf("Publications = %v", rec.Publications)
	}
}

func TestSemanticAuthorProfileAmbiguousNameIsNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[
			{"authorId":"a1","name":"Wei Zhang"},
			{"authorId":"a2","name":"Wei Zhang"}
		]}`)
	}))
	defer ts.Close()
	swapSemanticBase(t, ts.URL)

	_, err := newSemantic(ts).AuthorProfile(context.Background(), AuthorRef{Name: "Wei Zhang"})
	if !IsNotFound(err) {
		t.Errorf("err = %v, want NotFound for ambiguous name", err)
	}
}

func TestSemanticSearchAuthorsReturnsAllCandidates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[
			{"authorId":"a1","name":"Wei Zhang","hIndex":12,"citationCount":900,"papers":[{"title":"Robust Optimization"}]},
			{"authorId":"a2","name":"Wei Zhang","hIndex":40,"citationCount":20000,"papers":[{"title":"Image Segmentation"}]}
		]}`)
	}))
	defer ts.Close()
	swapSemanticBase(t, ts.URL)

	got, err := newSemantic(ts).SearchAuthors(context.Background(), "Wei Zhang")
	if err != nil {
		t.Fatalf("SearchAuthors: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[1].HIndex.Value != 40 {
		t.Errorf("second candidate HIndex = %d", got[1].HIndex.Value)
	}
	if len(got[0].Publications) != 1 || got[0].Publications[0] != "Robust Optimization" {
		t.Errorf("first candidate Publications = %v", got[0].Publications)
	}
}

func TestSemanticRateLimitedSurfaces(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()
	swapSemanticBase(t, ts.URL)

	_, err := newSemantic(ts).FindPaper(context.Background(), "anything")
	if !IsRateLimited(err) {
		t.Errorf("err = %v, want RateLimited", err)
	}
}
