// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Stage names the phase of a run in which a provider was consulted.
type Stage string

const (
	StageResolve   Stage = "resolve"
	StageCitations Stage = "citations"
	StageAuthor    Stage = "author"
)

// ProviderFailure records one provider's failure at one stage.
type ProviderFailure struct {
	Provider Source `json:"provider" yaml:"provider"`
	Stage    Stage  `json:"stage" yaml:"stage"`
	Reason   string `json:"reason" yaml:"reason"`
}

// DegradationReport lists which providers failed or were skipped during a
// run and why. A run always returns either a result with this report or a
// single fatal error.
type DegradationReport struct {
	Failures []ProviderFailure `json:"failures,omitempty" yaml:"failures,omitempty"`

	// UnenrichedAuthors counts citing authors left with a bare name.
	UnenrichedAuthors int `json:"unenriched_authors" yaml:"unenriched_authors"`

	// BlockedProviders lists providers that hit an interactive gate
	// (e.g. a CAPTCHA wall) and were suspended for the rest of the run.
	BlockedProviders []Source `json:"blocked_providers,omitempty" yaml:"blocked_providers,omitempty"`
}

// Degraded reports whether anything was skipped or left unenriched.
func (d *DegradationReport) Degraded() bool {
	return len(d.Failures) > 0 || d.UnenrichedAuthors > 0 || len(d.BlockedProviders) > 0
}

// VenueStats summarizes one venue across the citation list.
type VenueStats struct {
	Name     string `json:"name" yaml:"name"`
	Count    int    `json:"count" yaml:"count"`
	Tier     string `json:"tier,omitempty" yaml:"tier,omitempty"`
	CORERank string `json:"core_rank,omitempty" yaml:"core_rank,omitempty"`
	CCFRank  string `json:"ccf_rank,omitempty" yaml:"ccf_rank,omitempty"`
}

// InstitutionBreakdown counts citing authors by institution kind.
type InstitutionBreakdown struct {
	University int `json:"university" yaml:"university"`
	Industry   int `json:"industry" yaml:"industry"`
	Government int `json:"government" yaml:"government"`
	Other      int `json:"other" yaml:"other"`
}

// HIndexPercentiles summarizes the h-index distribution of enriched authors.
type HIndexPercentiles struct {
	P50 int `json:"p50" yaml:"p50"`
	P90 int `json:"p90" yaml:"p90"`
	Max int `json:"max" yaml:"max"`
}

// Overview holds the headline counts of an analysis.
type Overview struct {
	TotalCitations       int `json:"total_citations" yaml:"total_citations"`
	AnalyzedCitations    int `json:"analyzed_citations" yaml:"analyzed_citations"`
	InfluentialCitations int `json:"influential_citations" yaml:"influential_citations"`
	UniqueAuthors        int `json:"unique_authors" yaml:"unique_authors"`
	EnrichedAuthors      int `json:"enriched_authors" yaml:"enriched_authors"`
	HighProfileAuthors   int `json:"high_profile_authors" yaml:"high_profile_authors"`
	UniqueVenues         int `json:"unique_venues" yaml:"unique_venues"`
	TopTierCitations     int `json:"top_tier_citations" yaml:"top_tier_citations"`
}

// AnalysisResult is the structured output of one analysis run.
type AnalysisResult struct {
	Paper    PaperRecord `json:"paper" yaml:"paper"`
	Overview Overview    `json:"overview" yaml:"overview"`

	// Citations is ordered by descending citing-paper citation count,
	// ties broken by title; reproducible for identical inputs.
	Citations []CitationRecord `json:"citations" yaml:"citations"`

	// Authors is the deduplicated citing-author list with provenance-tagged
	// fields, sorted by descending h-index then name.
	Authors []AuthorRecord `json:"authors" yaml:"authors"`

	// HighProfile lists authors at or above the configured h-index threshold.
	HighProfile []AuthorRecord `json:"high_profile,omitempty" yaml:"high_profile,omitempty"`

	Venues       []VenueStats         `json:"venues,omitempty" yaml:"venues,omitempty"`
	Institutions InstitutionBreakdown `json:"institutions" yaml:"institutions"`
	Percentiles  HIndexPercentiles    `json:"percentiles" yaml:"percentiles"`

	// Influential and Methodological index into Citations by position.
	Influential    []int `json:"influential,omitempty" yaml:"influential,omitempty"`
	Methodological []int `json:"methodological,omitempty" yaml:"methodological,omitempty"`

	Degradation DegradationReport `json:"degradation" yaml:"degradation"`

	// GeneratedAt is when the result was computed (zero when served from cache).
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`

	// FromCache reports whether the result was served from the cache store.
	FromCache bool `json:"from_cache" yaml:"from_cache"`
}
