// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/citeimpact/pkg/types"
)

func newDBLP(ts *httptest.Server) *DBLP {
	return &DBLP{
		Client:    ts.Client(),
		Policy:    testPolicy(),
		UserAgent: "citeimpact-test",
	}
}

func swapDBLPBase(t *testing.T, url string) {
	t.Helper()
	old := dblpAPIBase
	dblpAPIBase = url
	t.Cleanup(func() { dblpAPIBase = old })
}

func TestDBLPFindPaperWordOverlap(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":{"hits":{"hit":[
			{"info":{"title":"Attention in Psychology.","venue":"CogSci","year":"2010"}},
			{"info":{"title":"Attention Is All You Need.","venue":["NIPS"],"year":"2017",
			 "doi":"10.5555/3295222","url":"https://dblp.org/rec/conf/nips/VaswaniSPUJGKP17"}}
		]}}}`)
	}))
	defer ts.Close()
	swapDBLPBase(t, ts.URL)

	rec, err := newDBLP(ts).FindPaper(context.Background(), "Attention Is All You Need")
	if err != nil {
		t.Fatalf("FindPaper: %v", err)
	}
	if rec.Title != "Attention Is All You Need" {
		t.Errorf("Title = %q (trailing period should be stripped)", rec.Title)
	}
	if rec.Year != 2017 {
		t.Errorf("Year = %d (string year should decode)", rec.Year)
	}
	if rec.Venue != "NIPS" {
		t.Errorf("Venue = %q (list venue should flatten)", rec.Venue)
	}
	if rec.ResolvedBy != types.SourceDBLP {
		t.Errorf("ResolvedBy = %q", rec.ResolvedBy)
	}
}

func TestDBLPFindPaperLowOverlapIsNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":{"hits":{"hit":[
			{"info":{"title":"Networks.","year":"2001"}}
		]}}}`)
	}))
	defer ts.Close()
	swapDBLPBase(t, ts.URL)

	_, err := newDBLP(ts).FindPaper(context.Background(), "Graph Neural Networks for Molecule Design")
	if !IsNotFound(err) {
		t.Errorf("err = %v, want NotFound for low word overlap", err)
	}
}

func TestDBLPFindPaperEmptyHits(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":{"hits":{}}}`)
	}))
	defer ts.Close()
	swapDBLPBase(t, ts.URL)

	_, err := newDBLP(ts).FindPaper(context.Background(), "anything")
	if !IsNotFound(err) {
		t.Errorf("err = %v, want NotFound", err)
	}
}

func TestDBLPNoCitationGraph(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))
	defer ts.Close()
	swapDBLPBase(t, ts.URL)

	_, err := newDBLP(ts).ListCitations(context.Background(), PaperRef{ID: "x"}, 10)
	if !IsNotFound(err) {
		t.Errorf("err = %v, want NotFound", err)
	}
}

func TestDBLPAuthorProfileLoadsPublications(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/search/author/api"):
			fmt.Fprint(w, `{"result":{"hits":{"hit":[
				{"info":{"author":"Ashish Vaswani","url":"https://dblp.org/pid/130/0083"}}
			]}}}`)
		case strings.Contains(r.URL.Path, "/pid/130/0083.json"):
			fmt.Fprint(w, `{"dblpPerson":{"r":[
				{"inproceedings":{"title":"Attention Is All You Need.","year":"2017","booktitle":"NIPS"}},
				{"article":{"title":"Tensor2Tensor.","year":"2018","journal":"CoRR"}}
			]}}`)
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))
	defer ts.Close()
	swapDBLPBase(t, ts.URL)

	rec, err := newDBLP(ts).AuthorProfile(context.Background(), AuthorRef{Name: "Ashish Vaswani"})
	if err != nil {
		t.Fatalf("AuthorProfile: %v", err)
	}
	if rec.Name != "Ashish Vaswani" {
		t.Errorf("Name = %q", rec.Name)
	}
	if got := rec.ProfileID(types.SourceDBLP); got != "130/0083" {
		t.Errorf("pid = %q", got)
	}
	if len(rec.Publications) != 2 {
		t.Fatalf("Publications = %v", rec.Publications)
	}
	for _, p := range rec.Publications {
		if strings.HasSuffix(p, ".") {
			t.Errorf("publication %q should have trailing period stripped", p)
		}
	}
	if rec.HIndex.Present() {
		t.Error("dblp carries no h-index data")
	}
}

func TestDBLPAuthorProfileSurvivesMissingPersonPage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/search/author/api") {
			fmt.Fprint(w, `{"result":{"hits":{"hit":[
				{"info":{"author":"Jane Doe","url":"https://dblp.org/pid/99/123"}}
			]}}}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()
	swapDBLPBase(t, ts.URL)

	rec, err := newDBLP(ts).AuthorProfile(context.Background(), AuthorRef{Name: "Jane Doe"})
	if err != nil {
		t.Fatalf("AuthorProfile: %v", err)
	}
	if rec.Name != "Jane Doe" || len(rec.Publications) != 0 {
		t.Errorf("rec = %+v", rec)
	}
}

func TestDBLPVenueInfo(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":{"hits":{"hit":[
			{"info":{"venue":"International Conference on Software Engineering","acronym":"ICSE","type":"Conference or Workshop"}}
		]}}}`)
	}))
	defer ts.Close()
	swapDBLPBase(t, ts.URL)

	name, acronym, kind, err := newDBLP(ts).VenueInfo(context.Background(), "ICSE")
	if err != nil {
		t.Fatalf("VenueInfo: %v", err)
	}
	if name != "International Conference on Software Engineering" || acronym != "ICSE" || kind != "Conference or Workshop" {
		t.Errorf("got %q %q %q", name, acronym, kind)
	}
}

func TestDBLPNameListDecoding(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"single string", `"Jane Doe"`, []string{"Jane Doe"}},
		{"single object", `{"@pid":"1/2","text":"Jane Doe"}`, []string{"Jane Doe"}},
		{"object list", `[{"@pid":"1/2","text":"Jane Doe"},{"@pid":"3/4","text":"John Roe"}]`, []string{"Jane Doe", "John Roe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l dblpNameList
			if err := json.Unmarshal([]byte(tt.in), &l); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if len(l) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(l), len(tt.want))
			}
			for i := range l {
				if l[i] != tt.want[i] {
					t.Errorf("l[%d] = %q, want %q", i, l[i], tt.want[i])
				}
			}
		})
	}
}

func TestDBLPPID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://dblp.org/pid/130/0083", "130/0083"},
		{"https://dblp.org/pid/99/123.html", "99/123"},
		{"https://dblp.org/rec/conf/nips/X17", ""},
	}
	for _, tt := range tests {
		if got := dblpPID(tt.url); got != tt.want {
			t.Errorf("dblpPID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
