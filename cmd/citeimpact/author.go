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

var authorCmd = &cobra.Command{
	Use:   "author [name]",
	Short: "Fetch and merge one author's profile across sources",
	Long: `Author looks up a single researcher across the profile sources and
prints the merged record: h-index, total citations, affiliation, and known
publications, each tagged with the source that supplied it.

Profile ids given by flag (or configured as default_author_ids) skip the
name-search step and fetch the profile pages directly.`,
	RunE: runAuthor,
}

func init() {
	authorCmd.Flags().String("scholar-id", "", "Google Scholar profile id")
	authorCmd.Flags().String("semantic-id", "", "Semantic Scholar author id")
	authorCmd.Flags().String("openalex-id", "", "OpenAlex author id")
	authorCmd.Flags().String("orcid", "", "ORCID id (resolved through OpenAlex)")
	authorCmd.Flags().Bool("json", false, "output the record as JSON")

	rootCmd.AddCommand(authorCmd)
}

func runAuthor(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide the author name")
	}
	name := strings.Join(args, " ")

	ids := make(map[types.Source]string)
	for src, flag := range map[types.Source]string{
		types.SourceScholarProfile:  "scholar-id",
		types.SourceSemanticScholar: "semantic-id",
		types.SourceOpenAlex:        "openalex-id",
		types.SourceORCID:           "orcid",
	} {
		if v, _ := cmd.Flags().GetString(flag); v != "" {
			ids[src] = v
		}
	}
	if len(ids) == 0 {
		ids = nil // fall back to configured defaults
	}

	eng, err := hybrid.New(engineConfig(cmd), os.Stderr)
	if err != nil {
		return err
	}
	defer eng.Close()

	rec, err := eng.AuthorReport(context.Background(), name, ids)
	if err != nil {
		return err
	}

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}

	fmt.Printf("Name: %s\n", rec.Name)
	if rec.HIndex.Present() {
		fmt.Printf("H-index: %d (%s)\n", rec.HIndex.Value, rec.HIndex.Source)
	}
	if rec.TotalCitations.Present() {
		fmt.Printf("Total citations: %d (%s)\n", rec.TotalCitations.Value, rec.TotalCitations.Source)
	}
	if rec.Affiliation != "" {
		fmt.Printf("Affiliation: %s\n", rec.Affiliation)
	}
	if id := rec.ProfileID(types.SourceORCID); id != "" {
		fmt.Printf("ORCID: %s\n", id)
	}
	if rec.WorksCount > 0 {
		fmt.Printf("Works: %d\n", rec.WorksCount)
	}
	if len(rec.Publications) > 0 {
		fmt.Printf("Known publications (%d):\n", len(rec.Publications))
		for i, t := range rec.Publications {
			if i >= 20 {
				fmt.Printf("  ... and %d more\n", len(rec.Publications)-i)
				break
			}
			fmt.Printf("  %s\n", t)
		}
	}
	return nil
}
