// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citeimpact/internal/hybrid"
	"github.com/pdiddy/citeimpact/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [paper title or DOI]",
	Short: "Analyze the citation impact of a paper",
	Long: `Analyze resolves a paper by title through the provider fallback chain,
collects its citing papers, enriches the citing authors, and prints the
aggregated impact report. Sources that fail are skipped and listed in the
report rather than aborting the run.

A DOI argument (10.xxxx/...) skips the title search and resolves through
the DOI registry directly.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().Bool("json", false, "output the full result as JSON")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide the paper title to analyze")
	}
	title := strings.Join(args, " ")

	eng, err := hybrid.New(engineConfig(cmd), os.Stderr)
	if err != nil {
		return err
	}
	defer eng.Close()

	res, err := eng.Analyze(context.Background(), title)
	if err != nil {
		return err
	}

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printAnalysis(res)
	return nil
}

func printAnalysis(res *types.AnalysisResult) {
	p := &res.Paper
	fmt.Printf("Paper: %s", p.Title)
	if p.Year > 0 {
		fmt.Printf(" (%d)", p.Year)
	}
	fmt.Printf("\nResolved via: %s", p.ResolvedBy)
	if res.FromCache {
		fmt.Print("  [cached]")
	}
	fmt.Println()
	if p.DOI != "" {
		fmt.Printf("DOI: %s\n", p.DOI)
	}

	o := &res.Overview
	fmt.Printf("\nCitations: %d analyzed of %d total, %d influential\n",
		o.AnalyzedCitations, o.TotalCitations, o.InfluentialCitations)
	fmt.Printf("Authors:   %d unique, %d enriched, %d high-profile\n",
		o.UniqueAuthors, o.EnrichedAuthors, o.HighProfileAuthors)
	fmt.Printf("H-index:   p50=%d p90=%d max=%d\n",
		res.Percentiles.P50, res.Percentiles.P90, res.Percentiles.Max)
	fmt.Printf("Institutions: %d university, %d industry, %d government, %d other\n",
		res.Institutions.University, res.Institutions.Industry,
		res.Institutions.Government, res.Institutions.Other)

	if len(res.Venues) > 0 {
		fmt.Println("\nTop venues:")
		for i, v := range res.Venues {
			if i >= 10 {
				break
			}
			line := fmt.Sprintf("  %3d  %s", v.Count, v.Name)
			if v.CORERank != "" {
				line += fmt.Sprintf("  [CORE %s]", v.CORERank)
			}
			fmt.Println(line)
		}
	}

	if len(res.HighProfile) > 0 {
		fmt.Println("\nHigh-profile citing authors:")
		for i := range res.HighProfile {
			a := &res.HighProfile[i]
			line := fmt.Sprintf("  h=%-4d %s", a.HIndex.Value, a.Name)
			if a.Affiliation != "" {
				line += " — " + a.Affiliation
			}
			fmt.Println(line)
		}
	}

	d := &res.Degradation
	if d.Degraded() {
		fmt.Println("\nWarnings:")
		for _, src := range d.BlockedProviders {
			fmt.Printf("  %s suspended after an interactive gate\n", src)
		}
		for _, f := range d.Failures {
			fmt.Printf("  %s (%s): %s\n", f.Provider, f.Stage, f.Reason)
		}
		if d.UnenrichedAuthors > 0 {
			fmt.Printf("  %d author(s) kept a bare name\n", d.UnenrichedAuthors)
		}
	}
}
