// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package hybrid

import (
	"context"
	"fmt"

	"github.com/pdiddy/citeimpact/internal/provider"
	"github.com/pdiddy/citeimpact/internal/resolver"
	"github.com/pdiddy/citeimpact/pkg/types"
)

// collectCitations fills paper.Citations up to the configured cap. The
// provider that resolved the paper is tried first; when its listing is
// incomplete or it fails, the remaining listing providers merge in,
// deduplicated by title key. Failures degrade the run, never abort it.
func (r *run) collectCitations(ctx context.Context, paper *types.PaperRecord) {
	max := r.eng.Config.MaxCitations
	if max <= 0 {
		max = 100
	}

	var merged []types.CitationRecord
	index := make(map[string]int)

	for _, p := range r.citationOrder(paper.ResolvedBy) {
		if r.suspended(p.Name()) || ctx.Err() != nil {
			continue
		}
		ref, ok := r.paperRefFor(ctx, p, paper)
		if !ok {
			continue
		}

		page, err := p.ListCitations(ctx, ref, max)
		if err != nil {
			switch {
			case provider.IsNotFound(err):
				// This source has no listing for the paper.
			case provider.IsBlocked(err):
				r.block(p.Name())
				r.fail(p.Name(), types.StageCitations, failureReason(err))
			default:
				r.fail(p.Name(), types.StageCitations, failureReason(err))
				fmt.Fprintf(r.eng.log(), "warning: %s citation listing failed: %v\n", p.Name(), err)
			}
			continue
		}

		mergeCitations(&merged, index, page.Citations, max)
		if !page.Incomplete && len(merged) > 0 {
			break
		}
	}
	paper.Citations = merged
}

// citationOrder puts the resolving provider first, then the remaining
// mode-admitted listing providers.
func (r *run) citationOrder(primary types.Source) []provider.Provider {
	out := make([]provider.Provider, 0, len(r.eng.Citers))
	for _, p := range r.eng.Citers {
		if p.Name() == primary && r.eng.allowed(p) {
			out = append(out, p)
		}
	}
	for _, p := range r.eng.Citers {
		if p.Name() != primary && r.eng.allowed(p) {
			out = append(out, p)
		}
	}
	return out
}

// paperRefFor builds the provider-local reference for the paper, running
// a title resolution against the provider when it has not assigned an id
// yet. Discovered ids are folded back into the record.
func (r *run) paperRefFor(ctx context.Context, p provider.Provider, paper *types.PaperRecord) (provider.PaperRef, bool) {
	id := paper.ID(p.Name())
	if id == "" {
		found, err := p.FindPaper(ctx, paper.Title)
		if err != nil {
			if provider.IsBlocked(err) {
				r.block(p.Name())
			}
			return provider.PaperRef{}, false
		}
		for src, v := range found.IDs {
			paper.SetID(src, v)
		}
		if paper.DOI == "" {
			paper.DOI = found.DOI
		}
		id = paper.ID(p.Name())
	}
	return provider.PaperRef{ID: id, DOI: paper.DOI, Title: paper.Title}, true
}

// mergeCitations folds a provider's page into the accumulated list. A
// citation whose title key is already present gains the new source tag
// and fills fields the first source left empty; counts from the first
// source are kept, never blended.
func mergeCitations(merged *[]types.CitationRecord, index map[string]int, page []types.CitationRecord, max int) {
	for _, c := range page {
		key := resolver.TitleKey(c.Title)
		if key == "" {
			continue
		}
		j, seen := index[key]
		if !seen {
			if len(*merged) >= max {
				continue
			}
			index[key] = len(*merged)
			*merged = append(*merged, c)
			continue
		}

		dst := &(*merged)[j]
		for _, src := range c.Sources {
			if !dst.FromSource(src) {
				dst.Sources = append(dst.Sources, src)
			}
		}
		if dst.DOI == "" {
			dst.DOI = c.DOI
		}
		if dst.Year == 0 {
			dst.Year = c.Year
		}
		if dst.Venue == "" {
			dst.Venue = c.Venue
		}
		if dst.URL == "" {
			dst.URL = c.URL
		}
		if dst.CitationCount == 0 {
			dst.CitationCount = c.CitationCount
		}
		dst.Influential = dst.Influential || c.Influential
		if len(dst.Contexts) == 0 {
			dst.Contexts = c.Contexts
		}
		if len(dst.Intents) == 0 {
			dst.Intents = c.Intents
		}
		if len(dst.Authors) == 0 {
			dst.Authors = c.Authors
		}
	}
}
