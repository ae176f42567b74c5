// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package provider implements the five citation data sources behind a
// common capability set. Each provider fails independently and signals
// distinct error kinds; the orchestrator decides fallback order.
package provider

import (
	"context"

	"github.com/pdiddy/citeimpact/pkg/types"
)

// LatencyClass declares a provider's expected response speed.
type LatencyClass string

const (
	// LatencyFast marks structured API providers.
	LatencyFast LatencyClass = "fast"

	// LatencySlow marks page-scraping providers.
	LatencySlow LatencyClass = "slow"
)

// Traits declares a provider's operational characteristics. The
// orchestrator uses them to pick workers and surface blocking notices.
type Traits struct {
	Latency LatencyClass

	// InteractiveUnblock reports whether the provider can hit a gate that
	// needs human action (CAPTCHA). Such providers return ErrBlocked
	// instead of retrying.
	InteractiveUnblock bool
}

// PaperRef identifies a paper to a provider: its id at that provider when
// known, otherwise by title.
type PaperRef struct {
	ID    string
	DOI   string
	Title string
}

// AuthorRef identifies an author to a provider.
type AuthorRef struct {
	ID   string
	Name string

	// ORCID is the author's registry id, usable by providers that index
	// it when no provider-local id is known.
	ORCID string

	// KnownTitles are publication titles attributed to the target author,
	// used to disambiguate same-named candidates.
	KnownTitles []string
}

// CitationPage is one provider's citation listing for a paper.
type CitationPage struct {
	Citations []types.CitationRecord

	// Incomplete reports that the listing was capped or partial, inviting
	// a secondary provider merge.
	Incomplete bool
}

// Provider is the common capability set implemented per source.
//
// FindPaper resolves a title to a PaperRecord without citations.
// ListCitations returns citing papers; partial results are allowed after
// the first success. AuthorProfile resolves an author; providers without
// profile data return ErrNotFound.
type Provider interface {
	Name() types.Source
	FindPaper(ctx context.Context, title string) (*types.PaperRecord, error)
	ListCitations(ctx context.Context, ref PaperRef, max int) (*CitationPage, error)
	AuthorProfile(ctx context.Context, ref AuthorRef) (*types.AuthorRecord, error)
	Traits() Traits
}
