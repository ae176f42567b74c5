// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package impact folds merged citation and author data into the summary
// statistics of an analysis: headline counts, venue and institution
// breakdowns, and h-index percentiles. Pure computation, no fetching.
package impact

import (
	"sort"
	"strings"

	"github.com/pdiddy/citeimpact/internal/rankings"
	"github.com/pdiddy/citeimpact/pkg/types"
)

// DefaultHIndexThreshold marks an author as high-profile.
const DefaultHIndexThreshold = 20

// Aggregator computes analysis summaries against a rankings table.
type Aggregator struct {
	Rankings *rankings.Table

	// HIndexThreshold marks high-profile authors; zero means the default.
	HIndexThreshold int
}

func (a *Aggregator) threshold() int {
	if a.HIndexThreshold > 0 {
		return a.HIndexThreshold
	}
	return DefaultHIndexThreshold
}

// Summarize fills the derived sections of a result from its paper,
// citation, and author data. Citations and authors must already be in
// their final order.
func (a *Aggregator) Summarize(res *types.AnalysisResult) {
	res.Venues = a.venueStats(res.Citations)
	res.Institutions = a.institutionBreakdown(res.Authors)
	res.Percentiles = hIndexPercentiles(res.Authors)
	res.HighProfile = a.highProfile(res.Authors)
	res.Influential, res.Methodological = classifyCitations(res.Citations)

	o := &res.Overview
	o.TotalCitations = res.Paper.CitationCount
	if o.TotalCitations < len(res.Citations) {
		o.TotalCitations = len(res.Citations)
	}
	o.AnalyzedCitations = len(res.Citations)
	o.InfluentialCitations = len(res.Influential)
	o.UniqueAuthors = len(res.Authors)
	for i := range res.Authors {
		if res.Authors[i].Enriched() {
			o.EnrichedAuthors++
		}
	}
	o.HighProfileAuthors = len(res.HighProfile)
	o.UniqueVenues = len(res.Venues)
	o.TopTierCitations = a.topTierCount(res.Citations)
}

// SortCitations orders citations by descending citing citation count
// with a lexical title tie-break, so identical inputs always produce
// identical output.
func SortCitations(citations []types.CitationRecord) {
	sort.SliceStable(citations, func(i, j int) bool {
		if citations[i].CitationCount != citations[j].CitationCount {
			return citations[i].CitationCount > citations[j].CitationCount
		}
		return citations[i].Title < citations[j].Title
	})
}

// SortAuthors orders authors by descending h-index, then name. Authors
// without an h-index sort last.
func SortAuthors(authors []types.AuthorRecord) {
	sort.SliceStable(authors, func(i, j int) bool {
		hi, hj := authors[i].HIndex.Value, authors[j].HIndex.Value
		if hi != hj {
			return hi > hj
		}
		return authors[i].Name < authors[j].Name
	})
}

func (a *Aggregator) venueStats(citations []types.CitationRecord) []types.VenueStats {
	counts := make(map[string]int)
	display := make(map[string]string)
	for i := range citations {
		v := strings.TrimSpace(citations[i].Venue)
		if v == "" || strings.EqualFold(v, "unknown") {
			continue
		}
		key := strings.ToLower(v)
		counts[key]++
		if _, ok := display[key]; !ok {
			display[key] = v
		}
	}

	stats := make([]types.VenueStats, 0, len(counts))
	for key, n := range counts {
		vs := types.VenueStats{Name: display[key], Count: n}
		if a.Rankings != nil {
			if r, ok := a.Rankings.LookupVenue(display[key]); ok {
				vs.Tier = r.Tier
				vs.CORERank = r.CORE
				vs.CCFRank = r.CCF
			}
		}
		stats = append(stats, vs)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Name < stats[j].Name
	})
	return stats
}

func (a *Aggregator) institutionBreakdown(authors []types.AuthorRecord) types.InstitutionBreakdown {
	var b types.InstitutionBreakdown
	for i := range authors {
		switch rankings.Categorize(authors[i].InstitutionKind, authors[i].Affiliation) {
		case rankings.CategoryUniversity:
			b.University++
		case rankings.CategoryIndustry:
			b.Industry++
		case rankings.CategoryGovernment:
			b.Government++
		default:
			b.Other++
		}
	}
	return b
}

// hIndexPercentiles computes nearest-rank percentiles over authors with
// a known h-index.
func hIndexPercentiles(authors []types.AuthorRecord) types.HIndexPercentiles {
	var values []int
	for i := range authors {
		if authors[i].HIndex.Present() {
			values = append(values, authors[i].HIndex.Value)
		}
	}
	if len(values) == 0 {
		return types.HIndexPercentiles{}
	}
	sort.Ints(values)
	return types.HIndexPercentiles{
		P50: values[nearestRank(50, len(values))],
		P90: values[nearestRank(90, len(values))],
		Max: values[len(values)-1],
	}
}

func nearestRank(percentile, n int) int {
	idx := (percentile*n + 99) / 100
	if idx < 1 {
		idx = 1
	}
	return idx - 1
}

func (a *Aggregator) highProfile(authors []types.AuthorRecord) []types.AuthorRecord {
	var high []types.AuthorRecord
	for i := range authors {
		if authors[i].HIndex.Present() && authors[i].HIndex.Value >= a.threshold() {
			high = append(high, authors[i])
		}
	}
	return high
}

// classifyCitations returns the positions of influential citations and
// of citations whose intents mark methodological use.
func classifyCitations(citations []types.CitationRecord) (influential, methodological []int) {
	for i := range citations {
		if citations[i].Influential {
			influential = append(influential, i)
		}
		for _, intent := range citations[i].Intents {
			if strings.EqualFold(intent, "methodology") {
				methodological = append(methodological, i)
				break
			}
		}
	}
	return influential, methodological
}

func (a *Aggregator) topTierCount(citations []types.CitationRecord) int {
	if a.Rankings == nil {
		return 0
	}
	n := 0
	for i := range citations {
		r, ok := a.Rankings.LookupVenue(citations[i].Venue)
		if ok && (r.CORE == "A*" || r.CORE == "A") {
			n++
		}
	}
	return n
}
