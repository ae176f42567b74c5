// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SourceMode selects which provider set an analysis run uses.
type SourceMode string

const (
	// ModeAPI uses only the structured API providers.
	ModeAPI SourceMode = "api"

	// ModeScrape uses only the profile-scrape provider.
	ModeScrape SourceMode = "scrape"

	// ModeComprehensive uses APIs first and supplements with scraping.
	ModeComprehensive SourceMode = "comprehensive"
)

// HTTPConfig holds shared HTTP settings used by providers.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "citeimpact/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ProviderConfig holds per-provider call settings.
type ProviderConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxRetries is the number of retry attempts after a transient failure.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// PolitenessDelay is the minimum spacing between calls to the same
	// provider, to respect shared rate limits.
	PolitenessDelay time.Duration `json:"politeness_delay" yaml:"politeness_delay"`

	// APIKey is an optional key for higher rate limits.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Email is sent to providers with a polite-pool convention (OpenAlex,
	// Crossref).
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

// AnalysisConfig holds settings for one analysis run. Read once per run,
// never mutated by the engine.
type AnalysisConfig struct {
	// HIndexThreshold is the minimum h-index for the high-profile list
	// (default 20).
	HIndexThreshold int `json:"h_index_threshold" yaml:"h_index_threshold"`

	// MaxCitations caps how many citations are collected and enriched
	// (default 100).
	MaxCitations int `json:"max_citations" yaml:"max_citations"`

	// Mode selects the provider set: api, scrape, or comprehensive.
	Mode SourceMode `json:"data_source" yaml:"data_source"`

	// Email identifies the caller to polite-pool APIs.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`

	// Workers bounds concurrent author enrichment (default 4).
	Workers int `json:"workers" yaml:"workers"`

	// PreferStructuredMetrics flips the merge precedence for h-index and
	// total citations from the scraped profile to the structured graph API.
	PreferStructuredMetrics bool `json:"prefer_structured_metrics" yaml:"prefer_structured_metrics"`

	// DefaultAuthorIDs maps sources to the caller's own profile ids,
	// enabling direct citation-page access without a search step.
	DefaultAuthorIDs map[Source]string `json:"default_author_ids,omitempty" yaml:"default_author_ids,omitempty"`
}

// CacheConfig holds settings for the cache store.
type CacheConfig struct {
	// Dir is the cache root directory.
	Dir string `json:"dir" yaml:"dir"`

	// Disabled bypasses the cache entirely: every read misses and
	// writes are dropped.
	Disabled bool `json:"disabled" yaml:"disabled"`
}

// RankingsConfig holds settings for the static rank datasets.
type RankingsConfig struct {
	// DataDir overrides the embedded venue/institution datasets.
	DataDir string `json:"data_dir,omitempty" yaml:"data_dir,omitempty"`
}

// EngineConfig groups all configuration for the engine.
type EngineConfig struct {
	Analysis AnalysisConfig `json:"analysis" yaml:"analysis"`
	Provider ProviderConfig `json:"provider" yaml:"provider"`
	Cache    CacheConfig    `json:"cache" yaml:"cache"`
	Rankings RankingsConfig `json:"rankings" yaml:"rankings"`
}
