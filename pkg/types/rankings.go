// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// VenueRank holds static ranking data for a publication venue.
type VenueRank struct {
	// Tier is a human-readable tier label derived from the CORE rank
	// (e.g. "Tier 1 (CORE A* - Flagship)").
	Tier string `json:"tier,omitempty" yaml:"tier,omitempty"`

	// CORE is the CORE conference rank: A*, A, B, or C.
	CORE string `json:"core,omitempty" yaml:"core,omitempty"`

	// CCF is the China Computer Federation rank: A, B, or C.
	CCF string `json:"ccf,omitempty" yaml:"ccf,omitempty"`
}

// InstitutionRank holds static ranking data for a university or institute.
type InstitutionRank struct {
	// QS is the QS World University Ranking position (0 = unranked).
	QS int `json:"qs,omitempty" yaml:"qs,omitempty"`

	// QSTier is a band label for the QS rank (e.g. "Top 25").
	QSTier string `json:"qs_tier,omitempty" yaml:"qs_tier,omitempty"`

	// USNews is the US News position (0 = unranked).
	USNews int `json:"usnews,omitempty" yaml:"usnews,omitempty"`

	// USNewsTier is a band label for the US News rank.
	USNewsTier string `json:"usnews_tier,omitempty" yaml:"usnews_tier,omitempty"`
}
