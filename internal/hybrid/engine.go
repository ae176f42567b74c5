// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package hybrid orchestrates the multi-provider analysis pipeline:
// resolve the paper through a fallback chain, collect citations from the
// resolving source with secondary merges, enrich citing authors through a
// worker pool, and aggregate the result. A run returns either a result
// with a degradation report or a single fatal error, never both.
package hybrid

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/citeimpact/internal/cache"
	"github.com/pdiddy/citeimpact/internal/impact"
	"github.com/pdiddy/citeimpact/internal/provider"
	"github.com/pdiddy/citeimpact/internal/rankings"
	"github.com/pdiddy/citeimpact/internal/resolver"
	"github.com/pdiddy/citeimpact/pkg/types"
)

// Politeness spacing between consecutive calls to one provider, used when
// the config does not set its own delay. Scraping gets a wider margin.
const (
	apiPolitenessDelay    = time.Second
	scrapePolitenessDelay = 2 * time.Second
)

// AuthorSearcher returns same-named author candidates, each carrying
// known publication titles for overlap disambiguation.
type AuthorSearcher interface {
	SearchAuthors(ctx context.Context, name string) ([]types.AuthorRecord, error)
}

// Engine runs analyses against a fixed provider set. Construct with New
// for the production wiring, or populate the fields directly in tests.
type Engine struct {
	// Resolution is consulted in order to resolve the analyzed paper.
	Resolution []provider.Provider

	// Citers can list citing papers. The resolving provider is tried
	// first, the rest merge in when the listing comes back incomplete.
	Citers []provider.Provider

	// Profiles are consulted in order for author enrichment.
	Profiles []provider.Provider

	// Search disambiguates authors the profile providers could not
	// enrich directly.
	Search AuthorSearcher

	Cache    *cache.Store
	Index    *cache.Index
	Rankings *rankings.Table
	Config   types.AnalysisConfig

	// Log receives progress and warning lines.
	Log io.Writer
}

// New wires the production provider set from config. The returned engine
// owns the publication index; call Close when done.
func New(cfg types.EngineConfig, logw io.Writer) (*Engine, error) {
	client := &http.Client{}
	ua := cfg.Provider.UserAgent
	if ua == "" {
		ua = "citeimpact/0.1 (https://github.com/pdiddy/citeimpact)"
	}
	email := cfg.Provider.Email
	if email == "" {
		email = cfg.Analysis.Email
	}

	semantic := &provider.SemanticScholar{
		Client:    client,
		Policy:    provider.NewCallPolicy(cfg.Provider, apiPolitenessDelay),
		APIKey:    cfg.Provider.APIKey,
		UserAgent: ua,
	}
	scholar := &provider.ScholarProfile{
		Client:    client,
		Policy:    provider.NewCallPolicy(cfg.Provider, scrapePolitenessDelay),
		UserAgent: ua,
	}
	crossref := &provider.Crossref{
		Client:    client,
		Policy:    provider.NewCallPolicy(cfg.Provider, apiPolitenessDelay),
		Email:     email,
		UserAgent: ua,
	}
	openalex := &provider.OpenAlex{
		Client:    client,
		Policy:    provider.NewCallPolicy(cfg.Provider, apiPolitenessDelay),
		Email:     email,
		UserAgent: ua,
	}
	dblp := &provider.DBLP{
		Client:    client,
		Policy:    provider.NewCallPolicy(cfg.Provider, apiPolitenessDelay),
		UserAgent: ua,
	}

	table, err := rankings.Load(cfg.Rankings.DataDir)
	if err != nil {
		return nil, fmt.Errorf("loading rankings: %w", err)
	}

	eng := &Engine{
		Resolution: []provider.Provider{semantic, scholar, crossref, dblp},
		Citers:     []provider.Provider{semantic, scholar, openalex},
		Profiles:   []provider.Provider{scholar, semantic, openalex},
		Search:     semantic,
		Cache:      cache.NewStore(cfg.Cache.Dir, cfg.Cache.Disabled),
		Rankings:   table,
		Config:     cfg.Analysis,
		Log:        logw,
	}
	if !cfg.Cache.Disabled && cfg.Cache.Dir != "" {
		idx, err := cache.OpenIndex(cfg.Cache.Dir)
		if err != nil {
			return nil, fmt.Errorf("opening publication index: %w", err)
		}
		eng.Index = idx
	}
	return eng, nil
}

// Close releases the publication index.
func (e *Engine) Close() error {
	if e.Index != nil {
		return e.Index.Close()
	}
	return nil
}

func (e *Engine) log() io.Writer {
	if e.Log != nil {
		return e.Log
	}
	return io.Discard
}

// allowed reports whether the configured source mode admits the provider:
// api mode excludes scraping, scrape mode admits only scraping.
func (e *Engine) allowed(p provider.Provider) bool {
	switch e.Config.Mode {
	case types.ModeAPI:
		return !p.Traits().InteractiveUnblock
	case types.ModeScrape:
		return p.Traits().InteractiveUnblock
	default:
		return true
	}
}

// Analyze resolves the paper by title or DOI, collects and enriches its
// citations, and returns the aggregated result. A fresh result is cached;
// repeated calls within the analysis TTL are served from the cache.
func (e *Engine) Analyze(ctx context.Context, title string) (*types.AnalysisResult, error) {
	key := resolver.TitleKey(title)

	var cached types.AnalysisResult
	if e.Cache != nil && e.Cache.Get(cache.ClassAnalysis, key, &cached) {
		cached.FromCache = true
		return &cached, nil
	}

	r := e.newRun()
	paper, err := r.resolvePaper(ctx, title)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(e.log(), "resolved %q via %s\n", paper.Title, paper.ResolvedBy)

	r.collectCitations(ctx, paper)
	fmt.Fprintf(e.log(), "collected %d citations\n", len(paper.Citations))

	authors := r.enrichAuthors(ctx, paper)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &types.AnalysisResult{
		Paper:       *paper,
		Citations:   paper.Citations,
		Authors:     authors,
		Degradation: r.reportCopy(),
		GeneratedAt: time.Now().UTC(),
	}
	res.Paper.Citations = nil

	impact.SortCitations(res.Citations)
	impact.SortAuthors(res.Authors)
	agg := &impact.Aggregator{Rankings: e.Rankings, HIndexThreshold: e.Config.HIndexThreshold}
	agg.Summarize(res)

	if e.Cache != nil {
		if err := e.Cache.Put(cache.ClassAnalysis, key, res); err != nil {
			fmt.Fprintf(e.log(), "warning: caching analysis: %v\n", err)
		}
	}
	return res, nil
}

// AuthorReport fetches and merges one author's profile across the
// admitted providers, outside of any paper analysis. With no explicit
// ids the configured default profile ids apply, so callers can reach
// their own citation pages without a search step.
func (e *Engine) AuthorReport(ctx context.Context, name string, ids map[types.Source]string) (*types.AuthorRecord, error) {
	if name == "" {
		return nil, fmt.Errorf("author name required")
	}
	if ids == nil {
		ids = e.Config.DefaultAuthorIDs
	}
	a := &types.AuthorRecord{Name: name}
	for src, id := range ids {
		a.SetProfileID(src, id)
	}

	r := e.newRun()
	r.enrichAuthor(ctx, a)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !a.Enriched() {
		return nil, fmt.Errorf("no provider could enrich %q", name)
	}
	return a, nil
}

// run holds the mutable state of one analysis: accumulated degradations
// and providers suspended after hitting an interactive gate. Shared by
// enrichment workers.
type run struct {
	eng *Engine

	mu         sync.Mutex
	failures   []types.ProviderFailure
	blocked    map[types.Source]bool
	unenriched int
}

func (e *Engine) newRun() *run {
	return &run{eng: e, blocked: make(map[types.Source]bool)}
}

// fail records one provider failure, collapsing duplicates so retries
// across many authors do not flood the report.
func (r *run) fail(src types.Source, stage types.Stage, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.failures {
		if f.Provider == src && f.Stage == stage && f.Reason == reason {
			return
		}
	}
	r.failures = append(r.failures, types.ProviderFailure{Provider: src, Stage: stage, Reason: reason})
}

// block suspends a provider for the rest of the run. The notice is
// printed once.
func (r *run) block(src types.Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.blocked[src] {
		return
	}
	r.blocked[src] = true
	fmt.Fprintf(r.eng.log(), "warning: %s hit an interactive gate, suspended for this run\n", src)
}

func (r *run) suspended(src types.Source) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.blocked[src]
}

func (r *run) reportCopy() types.DegradationReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep := types.DegradationReport{
		Failures:          append([]types.ProviderFailure(nil), r.failures...),
		UnenrichedAuthors: r.unenriched,
	}
	for src := range r.blocked {
		rep.BlockedProviders = append(rep.BlockedProviders, src)
	}
	sort.Slice(rep.BlockedProviders, func(i, j int) bool {
		return rep.BlockedProviders[i] < rep.BlockedProviders[j]
	})
	return rep
}

// doiResolver is satisfied by providers that can fetch a work directly
// by its DOI, skipping the title search.
type doiResolver interface {
	FindByDOI(ctx context.Context, doi string) (*types.PaperRecord, error)
}

// looksLikeDOI reports whether the query is a DOI rather than a title.
// Every DOI starts with the "10." directory indicator and a registrant
// slash.
func looksLikeDOI(q string) bool {
	return strings.HasPrefix(q, "10.") && strings.Contains(q, "/") && !strings.Contains(q, " ")
}

// resolvePaper walks the resolution chain in order. A DOI query goes
// through the providers that index DOIs directly; a title runs the
// search. NotFound falls through silently; rate limits, blocks, and
// transient failures are recorded and skipped. Exhausting the chain is
// fatal.
func (r *run) resolvePaper(ctx context.Context, title string) (*types.PaperRecord, error) {
	byDOI := looksLikeDOI(title)
	var attempts []types.ProviderFailure
	for _, p := range r.eng.Resolution {
		if !r.eng.allowed(p) || r.suspended(p.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var rec *types.PaperRecord
		var err error
		if byDOI {
			dr, ok := p.(doiResolver)
			if !ok {
				continue
			}
			rec, err = dr.FindByDOI(ctx, title)
		} else {
			rec, err = p.FindPaper(ctx, title)
		}
		if err == nil {
			return rec, nil
		}

		reason := failureReason(err)
		attempts = append(attempts, types.ProviderFailure{
			Provider: p.Name(), Stage: types.StageResolve, Reason: reason,
		})
		r.fail(p.Name(), types.StageResolve, reason)
		switch {
		case provider.IsNotFound(err):
			// Normal fallback, recorded but not warned about.
		case provider.IsBlocked(err):
			r.block(p.Name())
		default:
			fmt.Fprintf(r.eng.log(), "warning: %s could not resolve %q: %v\n", p.Name(), title, err)
		}
	}
	return nil, &PaperNotResolvedError{Title: title, Attempts: attempts}
}

// failureReason maps an error onto the short reason recorded in reports.
func failureReason(err error) string {
	switch {
	case provider.IsNotFound(err):
		return "not found"
	case provider.IsRateLimited(err):
		return "rate limited"
	case provider.IsBlocked(err):
		return "blocked by interactive gate"
	case provider.IsTransient(err):
		return "transient failure"
	default:
		return err.Error()
	}
}
