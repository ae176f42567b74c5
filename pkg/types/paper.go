// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the citation impact engine.
package types

// Source identifies which provider produced a record or field value.
// Used as a provenance tag on merged numeric fields.
type Source string

const (
	SourceSemanticScholar Source = "semantic_scholar"
	SourceScholarProfile  Source = "scholar_profile"
	SourceCrossref        Source = "crossref"
	SourceOpenAlex        Source = "openalex"
	SourceDBLP            Source = "dblp"

	// SourceORCID tags ORCID identifiers carried on author records. ORCID
	// is an id registry, not a fetchable provider; the ids arrive through
	// providers that embed them (OpenAlex) and can drive their lookups.
	SourceORCID Source = "orcid"
)

// PaperRecord holds the resolved metadata for an analyzed paper.
// Immutable once fetched within one analysis run. When no stable
// identifier exists, identity is the normalized title.
type PaperRecord struct {
	// IDs maps each source that knows this paper to its identifier there.
	IDs map[Source]string `json:"ids,omitempty" yaml:"ids,omitempty"`

	// DOI is the Digital Object Identifier, when any source supplied one.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	Title string `json:"title" yaml:"title"`
	Year  int    `json:"year,omitempty" yaml:"year,omitempty"`
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// Abstract is filled only by sources that carry one.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// CitationCount is the total citation count reported by the resolving source.
	CitationCount int `json:"citation_count" yaml:"citation_count"`

	// InfluentialCount is the number of citations the source's model flagged
	// as substantively building on this paper.
	InfluentialCount int `json:"influential_count,omitempty" yaml:"influential_count,omitempty"`

	// ResolvedBy records which provider resolved this paper.
	ResolvedBy Source `json:"resolved_by" yaml:"resolved_by"`

	Citations []CitationRecord `json:"citations,omitempty" yaml:"citations,omitempty"`
}

// ID returns the identifier this paper carries for src, or "".
func (p *PaperRecord) ID(src Source) string {
	if p.IDs == nil {
		return ""
	}
	return p.IDs[src]
}

// SetID records the paper's identifier at src.
func (p *PaperRecord) SetID(src Source, id string) {
	if id == "" {
		return
	}
	if p.IDs == nil {
		p.IDs = make(map[Source]string)
	}
	p.IDs[src] = id
}

// CitationRecord describes one paper that cites the analyzed paper.
// Belongs to exactly one PaperRecord.
type CitationRecord struct {
	Title string `json:"title" yaml:"title"`
	Year  int    `json:"year,omitempty" yaml:"year,omitempty"`
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`
	DOI   string `json:"doi,omitempty" yaml:"doi,omitempty"`
	URL   string `json:"url,omitempty" yaml:"url,omitempty"`

	// CitationCount is how many citations the citing paper itself has.
	CitationCount int `json:"citation_count" yaml:"citation_count"`

	// Influential reports whether the source's model flagged this citation
	// as substantive rather than a passing mention.
	Influential bool `json:"influential,omitempty" yaml:"influential,omitempty"`

	// Contexts holds citation-context snippets, when the source supplies them.
	Contexts []string `json:"contexts,omitempty" yaml:"contexts,omitempty"`

	// Intents holds source-classified citation intents (e.g. "methodology").
	Intents []string `json:"intents,omitempty" yaml:"intents,omitempty"`

	// Authors lists the citing paper's authors in source order.
	Authors []AuthorRecord `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Sources records every provider that reported this citation.
	Sources []Source `json:"sources,omitempty" yaml:"sources,omitempty"`
}

// FromSource reports whether src contributed this citation.
func (c *CitationRecord) FromSource(src Source) bool {
	for _, s := range c.Sources {
		if s == src {
			return true
		}
	}
	return false
}

// TaggedInt is an optional integer field carrying the source it came from.
// A zero Source means the value is absent; merged values are never averaged.
type TaggedInt struct {
	Value  int    `json:"value" yaml:"value"`
	Source Source `json:"source" yaml:"source"`
}

// Present reports whether the field holds a value.
func (t TaggedInt) Present() bool { return t.Source != "" }

// AuthorRecord holds what is known about one citing author. The same
// person may appear under name variants across papers; the resolver's
// identity map decides which records collapse into one.
type AuthorRecord struct {
	// Name as it appears on the citing paper.
	Name string `json:"name" yaml:"name"`

	HIndex         TaggedInt `json:"h_index,omitzero" yaml:"h_index,omitempty"`
	TotalCitations TaggedInt `json:"total_citations,omitzero" yaml:"total_citations,omitempty"`

	// Affiliation is free text as reported by a source.
	Affiliation string `json:"affiliation,omitempty" yaml:"affiliation,omitempty"`

	// InstitutionKind categorizes the affiliation: University, Industry,
	// Government, or Other.
	InstitutionKind string `json:"institution_kind,omitempty" yaml:"institution_kind,omitempty"`

	WorksCount int `json:"works_count,omitempty" yaml:"works_count,omitempty"`

	// Publications lists known publication titles, used for identity matching.
	Publications []string `json:"publications,omitempty" yaml:"publications,omitempty"`

	// ProfileIDs maps sources to this author's identifier there.
	ProfileIDs map[Source]string `json:"profile_ids,omitempty" yaml:"profile_ids,omitempty"`

	// CitingPapers lists the titles of analyzed citations this author appeared on.
	CitingPapers []string `json:"citing_papers,omitempty" yaml:"citing_papers,omitempty"`
}

// Enriched reports whether any provider contributed profile data beyond the name.
func (a *AuthorRecord) Enriched() bool {
	return a.HIndex.Present() || a.TotalCitations.Present() || a.Affiliation != ""
}

// ProfileID returns the author's identifier at src, or "".
func (a *AuthorRecord) ProfileID(src Source) string {
	if a.ProfileIDs == nil {
		return ""
	}
	return a.ProfileIDs[src]
}

// SetProfileID records the author's identifier at src.
func (a *AuthorRecord) SetProfileID(src Source, id string) {
	if id == "" {
		return
	}
	if a.ProfileIDs == nil {
		a.ProfileIDs = make(map[Source]string)
	}
	a.ProfileIDs[src] = id
}
