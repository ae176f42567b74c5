// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolver

import (
	"sort"
	"sync"

	"github.com/pdiddy/citeimpact/pkg/types"
)

// IdentityMap collapses author name variants within one analysis run.
// The same physical person appearing under different renderings across
// citing papers becomes one record when publication-overlap matching
// succeeds; otherwise entries stay distinct. Duplication is the safe
// default, false merging is not.
//
// Safe for concurrent use by enrichment workers.
type IdentityMap struct {
	mu      sync.Mutex
	byKey   map[identityKey]*types.AuthorRecord
	ordered []identityKey
}

type identityKey struct {
	name        string
	institution string
}

// NewIdentityMap returns an empty per-run identity map.
func NewIdentityMap() *IdentityMap {
	return &IdentityMap{byKey: make(map[identityKey]*types.AuthorRecord)}
}

func keyFor(a *types.AuthorRecord) identityKey {
	return identityKey{
		name:        NormalizeName(a.Name),
		institution: NormalizeName(a.Affiliation),
	}
}

// Canonical returns the canonical record for the author, merging the
// incoming record into an existing one when identity matching succeeds.
// A non-exact-key candidate is only adopted when it shares the last name
// and at least one publication title (the overlap threshold).
func (m *IdentityMap) Canonical(a *types.AuthorRecord) *types.AuthorRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := keyFor(a)
	if existing, ok := m.byKey[key]; ok {
		Merge(existing, a, false)
		return existing
	}

	// Look for an entry with the same last name whose publication set
	// overlaps. Iterate in insertion order so the outcome is deterministic.
	last := LastName(a.Name)
	var best *types.AuthorRecord
	bestScore := 0
	for _, k := range m.ordered {
		cand := m.byKey[k]
		if LastName(cand.Name) != last {
			continue
		}
		score := OverlapScore(cand.Publications, a.Publications)
		if score > bestScore ||
			(score == bestScore && score > 0 && cand.TotalCitations.Value > best.TotalCitations.Value) {
			best = cand
			bestScore = score
		}
	}
	if best != nil && bestScore >= 1 {
		Merge(best, a, false)
		m.byKey[key] = best
		return best
	}

	clone := *a
	m.byKey[key] = &clone
	m.ordered = append(m.ordered, key)
	return &clone
}

// Records returns all canonical authors in first-seen order.
func (m *IdentityMap) Records() []*types.AuthorRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[*types.AuthorRecord]bool, len(m.ordered))
	out := make([]*types.AuthorRecord, 0, len(m.ordered))
	for _, k := range m.ordered {
		r := m.byKey[k]
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

// OverlapScore counts normalized publication titles shared by two sets.
func OverlapScore(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, t := range a {
		if k := TitleKey(t); k != "" {
			set[k] = true
		}
	}
	score := 0
	counted := make(map[string]bool, len(b))
	for _, t := range b {
		k := TitleKey(t)
		if k != "" && set[k] && !counted[k] {
			counted[k] = true
			score++
		}
	}
	return score
}

// PickCandidate disambiguates same-named author candidates against the
// titles known to be authored by the target. The candidate with the
// highest overlap wins, requiring at least one shared title; ties break
// to higher total citations. Below the threshold the result is nil and
// the caller keeps the bare name rather than guessing.
func PickCandidate(candidates []types.AuthorRecord, knownTitles []string) *types.AuthorRecord {
	var best *types.AuthorRecord
	bestScore := 0
	for i := range candidates {
		c := &candidates[i]
		score := OverlapScore(c.Publications, knownTitles)
		if score < 1 {
			continue
		}
		if best == nil || score > bestScore ||
			(score == bestScore && c.TotalCitations.Value > best.TotalCitations.Value) {
			best = c
			bestScore = score
		}
	}
	return best
}

// Merge folds src's fields into dst under the precedence rules:
// h-index and total citations prefer the scraped profile source over the
// structured graph (flipped when preferStructured is set); affiliation
// prefers the longer non-empty string; numeric values are never blended
// and always keep their provenance tag.
func Merge(dst, src *types.AuthorRecord, preferStructured bool) {
	dst.HIndex = pickTagged(dst.HIndex, src.HIndex, preferStructured)
	dst.TotalCitations = pickTagged(dst.TotalCitations, src.TotalCitations, preferStructured)

	if len(src.Affiliation) > len(dst.Affiliation) {
		dst.Affiliation = src.Affiliation
	}
	if dst.InstitutionKind == "" || dst.InstitutionKind == "Other" {
		if src.InstitutionKind != "" {
			dst.InstitutionKind = src.InstitutionKind
		}
	}
	if src.WorksCount > dst.WorksCount {
		dst.WorksCount = src.WorksCount
	}
	// Prefer the fuller name rendering.
	if fullerName(src.Name, dst.Name) {
		dst.Name = src.Name
	}

	dst.Publications = mergeTitles(dst.Publications, src.Publications)
	for s, id := range src.ProfileIDs {
		if dst.ProfileID(s) == "" {
			dst.SetProfileID(s, id)
		}
	}
	for _, t := range src.CitingPapers {
		if !containsString(dst.CitingPapers, t) {
			dst.CitingPapers = append(dst.CitingPapers, t)
		}
	}
}

// pickTagged selects between two provenance-tagged values. An absent value
// never wins; between two present values the preferred source wins, and a
// same-source update overwrites.
func pickTagged(cur, next types.TaggedInt, preferStructured bool) types.TaggedInt {
	if !next.Present() {
		return cur
	}
	if !cur.Present() {
		return next
	}
	preferred := types.SourceScholarProfile
	if preferStructured {
		preferred = types.SourceSemanticScholar
	}
	if next.Source == preferred {
		return next
	}
	if cur.Source == preferred {
		return cur
	}
	return next
}

// fullerName reports whether a is a fuller rendering than b: not
// abbreviated when b is, or simply longer.
func fullerName(a, b string) bool {
	if a == "" {
		return false
	}
	if b == "" {
		return true
	}
	aAbbrev := leadTokenAbbreviated(a)
	bAbbrev := leadTokenAbbreviated(b)
	if aAbbrev != bAbbrev {
		return bAbbrev
	}
	return len(a) > len(b)
}

func leadTokenAbbreviated(name string) bool {
	fields := []rune{}
	for _, f := range name {
		if f == ' ' {
			break
		}
		fields = append(fields, f)
	}
	n := len(fields)
	return n <= 2 || (n <= 3 && fields[n-1] == '.')
}

func mergeTitles(dst, src []string) []string {
	if len(src) == 0 {
		return dst
	}
	seen := make(map[string]bool, len(dst))
	for _, t := range dst {
		seen[TitleKey(t)] = true
	}
	for _, t := range src {
		k := TitleKey(t)
		if k != "" && !seen[k] {
			seen[k] = true
			dst = append(dst, t)
		}
	}
	sort.Strings(dst)
	return dst
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
