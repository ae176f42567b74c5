// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package hybrid

import (
	"context"
	"fmt"
	"sync"

	"github.com/pdiddy/citeimpact/internal/cache"
	"github.com/pdiddy/citeimpact/internal/provider"
	"github.com/pdiddy/citeimpact/internal/resolver"
	"github.com/pdiddy/citeimpact/pkg/types"
)

const defaultWorkers = 4

// enrichAuthors enriches every citing author through a bounded worker
// pool and collapses name variants through the identity map. Authors no
// provider could enrich keep their bare name; the count goes into the
// degradation report.
func (r *run) enrichAuthors(ctx context.Context, paper *types.PaperRecord) []types.AuthorRecord {
	seeds := authorSeeds(paper.Citations)
	if len(seeds) == 0 {
		return nil
	}

	workers := r.eng.Config.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	if workers > len(seeds) {
		workers = len(seeds)
	}

	identity := resolver.NewIdentityMap()
	jobs := make(chan *types.AuthorRecord)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for a := range jobs {
				r.enrichAuthor(ctx, a)
				identity.Canonical(a)
			}
		}()
	}
	for _, a := range seeds {
		jobs <- a
	}
	close(jobs)
	wg.Wait()

	records := identity.Records()
	out := make([]types.AuthorRecord, 0, len(records))
	unenriched := 0
	for _, rec := range records {
		if !rec.Enriched() {
			unenriched++
		}
		out = append(out, *rec)
	}
	r.mu.Lock()
	r.unenriched = unenriched
	r.mu.Unlock()
	return out
}

// authorSeeds collects one work item per distinct normalized author name
// across the citation list, aggregating the papers each name appeared on
// and any profile ids the sources attached.
func authorSeeds(citations []types.CitationRecord) []*types.AuthorRecord {
	byName := make(map[string]*types.AuthorRecord)
	var order []*types.AuthorRecord
	for i := range citations {
		c := &citations[i]
		for j := range c.Authors {
			a := &c.Authors[j]
			key := resolver.NormalizeName(a.Name)
			if key == "" {
				continue
			}
			seed, ok := byName[key]
			if !ok {
				clone := *a
				clone.CitingPapers = nil
				seed = &clone
				byName[key] = seed
				order = append(order, seed)
			}
			for src, id := range a.ProfileIDs {
				if seed.ProfileID(src) == "" {
					seed.SetProfileID(src, id)
				}
			}
			if c.Title != "" && !containsTitle(seed.CitingPapers, c.Title) {
				seed.CitingPapers = append(seed.CitingPapers, c.Title)
			}
		}
	}
	return order
}

// enrichAuthor fills one author record: cached profile first, then the
// profile providers in order (directly when a source id is known, by name
// only while the record is still bare), and finally the candidate search
// with publication-overlap disambiguation. Below the overlap threshold
// the bare name is kept rather than guessing.
func (r *run) enrichAuthor(ctx context.Context, a *types.AuthorRecord) {
	eng := r.eng
	key := resolver.NormalizeName(a.Name)
	prefer := eng.Config.PreferStructuredMetrics

	var cached types.AuthorRecord
	if eng.Cache != nil && eng.Cache.Get(cache.ClassAuthor, key, &cached) {
		resolver.Merge(a, &cached, prefer)
		return
	}
	if eng.Cache != nil && eng.Index != nil && r.cachedByPublication(ctx, a, prefer) {
		return
	}

	known := r.knownTitles(ctx, key, a)
	for _, p := range eng.Profiles {
		if !eng.allowed(p) || r.suspended(p.Name()) || ctx.Err() != nil {
			continue
		}
		ref := provider.AuthorRef{
			ID:          a.ProfileID(p.Name()),
			Name:        a.Name,
			ORCID:       a.ProfileID(types.SourceORCID),
			KnownTitles: known,
		}
		if ref.ID == "" && a.Enriched() {
			// A name search is a guess; only take it while nothing
			// better has landed.
			continue
		}

		prof, err := p.AuthorProfile(ctx, ref)
		if err != nil {
			switch {
			case provider.IsNotFound(err):
			case provider.IsBlocked(err):
				r.block(p.Name())
				r.fail(p.Name(), types.StageAuthor, failureReason(err))
			default:
				r.fail(p.Name(), types.StageAuthor, failureReason(err))
			}
			continue
		}
		resolver.Merge(a, prof, prefer)
	}

	if !a.Enriched() && eng.Search != nil && eng.Config.Mode != types.ModeScrape && ctx.Err() == nil {
		candidates, err := eng.Search.SearchAuthors(ctx, a.Name)
		if err == nil {
			if pick := resolver.PickCandidate(candidates, known); pick != nil {
				resolver.Merge(a, pick, prefer)
			}
		} else if !provider.IsNotFound(err) {
			r.fail(sourceOf(eng.Search), types.StageAuthor, failureReason(err))
		}
	}

	if a.Enriched() {
		r.persistAuthor(ctx, key, a)
	}
}

// cachedByPublication reaches the cached profile behind a name variant:
// the citing papers' title keys lead through the publication index to
// author cache keys recorded under other renderings. A candidate is
// adopted only when its last name matches.
func (r *run) cachedByPublication(ctx context.Context, a *types.AuthorRecord, prefer bool) bool {
	eng := r.eng
	last := resolver.LastName(a.Name)
	if last == "" {
		return false
	}
	seen := map[string]bool{resolver.NormalizeName(a.Name): true}
	for _, t := range a.CitingPapers {
		cands, err := eng.Index.AuthorsFor(ctx, resolver.TitleKey(t))
		if err != nil {
			continue
		}
		for _, cand := range cands {
			if seen[cand.Key] || resolver.LastName(cand.Name) != last {
				continue
			}
			seen[cand.Key] = true
			var rec types.AuthorRecord
			if eng.Cache.Get(cache.ClassAuthor, cand.Key, &rec) {
				resolver.Merge(a, &rec, prefer)
				return true
			}
		}
	}
	return false
}

// knownTitles gathers the titles attributable to the author for overlap
// matching: the citing papers from this run plus anything the
// publication index remembers from earlier runs.
func (r *run) knownTitles(ctx context.Context, key string, a *types.AuthorRecord) []string {
	known := append([]string(nil), a.CitingPapers...)
	known = append(known, a.Publications...)
	if r.eng.Index != nil {
		indexed, err := r.eng.Index.TitlesFor(ctx, key)
		if err == nil {
			for _, t := range indexed {
				if !containsTitle(known, t) {
					known = append(known, t)
				}
			}
		}
	}
	return known
}

// persistAuthor writes the enriched profile to the cache and the
// publication index. The writes outlive run cancellation so work already
// paid for is not lost.
func (r *run) persistAuthor(ctx context.Context, key string, a *types.AuthorRecord) {
	eng := r.eng
	if eng.Cache != nil {
		if err := eng.Cache.Put(cache.ClassAuthor, key, a); err != nil {
			fmt.Fprintf(eng.log(), "warning: caching author %q: %v\n", a.Name, err)
		}
	}
	if eng.Index != nil && len(a.Publications) > 0 {
		keys := make([]string, 0, len(a.Publications))
		for _, t := range a.Publications {
			if k := resolver.TitleKey(t); k != "" {
				keys = append(keys, k)
			}
		}
		err := eng.Index.RecordPublications(context.WithoutCancel(ctx), key, a.Name, keys)
		if err != nil {
			fmt.Fprintf(eng.log(), "warning: indexing publications for %q: %v\n", a.Name, err)
		}
	}
}

func sourceOf(s AuthorSearcher) types.Source {
	if p, ok := s.(provider.Provider); ok {
		return p.Name()
	}
	return types.SourceSemanticScholar
}

func containsTitle(list []string, t string) bool {
	for _, v := range list {
		if v == t {
			return true
		}
	}
	return false
}
