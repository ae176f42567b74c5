// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citeimpact/internal/provider"
	"github.com/pdiddy/citeimpact/internal/rankings"
)

var rankingsCmd = &cobra.Command{
	Use:   "rankings",
	Short: "Look up venue and university rankings",
}

var rankingsVenueCmd = &cobra.Command{
	Use:   "venue [name or acronym]",
	Short: "Look up a publication venue's CORE and CCF ranks",
	Long: `Venue resolves a venue name or acronym against the bundled rank
datasets. When the local datasets miss, the DBLP venue search resolves
the acronym to its full name before a second lookup, so "ICSE" finds the
conference even if only the full name is ranked.`,
	RunE: runRankingsVenue,
}

var rankingsUniversityCmd = &cobra.Command{
	Use:     "university [name]",
	Aliases: []string{"institution"},
	Short:   "Look up a university's QS and US News ranks",
	RunE:    runRankingsUniversity,
}

func init() {
	rankingsVenueCmd.Flags().Bool("offline", false, "skip the DBLP fallback lookup")

	rankingsCmd.AddCommand(rankingsVenueCmd)
	rankingsCmd.AddCommand(rankingsUniversityCmd)
	rootCmd.AddCommand(rankingsCmd)
}

func runRankingsVenue(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide the venue name or acronym")
	}
	query := strings.Join(args, " ")

	cfg := engineConfig(cmd)
	table, err := rankings.Load(cfg.Rankings.DataDir)
	if err != nil {
		return err
	}

	if rank, ok := table.LookupVenue(query); ok {
		printVenueRank(query, rank.Tier, rank.CORE, rank.CCF)
		return nil
	}

	if offline, _ := cmd.Flags().GetBool("offline"); offline {
		fmt.Printf("%s: not ranked\n", query)
		return nil
	}

	// Local miss: ask DBLP what the venue actually is, then retry with
	// the resolved full name.
	dblp := &provider.DBLP{
		Client:    &http.Client{},
		Policy:    provider.NewCallPolicy(cfg.Provider, 0),
		UserAgent: cfg.Provider.UserAgent,
	}
	name, acronym, kind, err := dblp.VenueInfo(context.Background(), query)
	if err != nil {
		return fmt.Errorf("venue %q not ranked and not known to dblp: %w", query, err)
	}
	fmt.Printf("dblp: %s", name)
	if acronym != "" {
		fmt.Printf(" (%s)", acronym)
	}
	if kind != "" {
		fmt.Printf(" [%s]", kind)
	}
	fmt.Println()

	for _, candidate := range []string{name, acronym} {
		if candidate == "" || strings.EqualFold(candidate, query) {
			continue
		}
		if rank, ok := table.LookupVenue(candidate); ok {
			printVenueRank(candidate, rank.Tier, rank.CORE, rank.CCF)
			return nil
		}
	}
	fmt.Printf("%s: not ranked\n", name)
	return nil
}

func printVenueRank(name, tier, core, ccf string) {
	fmt.Printf("%s\n", name)
	if tier != "" {
		fmt.Printf("  Tier: %s\n", tier)
	}
	if core != "" {
		fmt.Printf("  CORE: %s\n", core)
	}
	if ccf != "" {
		fmt.Printf("  CCF:  %s\n", ccf)
	}
}

func runRankingsUniversity(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide the university name")
	}
	query := strings.Join(args, " ")

	cfg := engineConfig(cmd)
	table, err := rankings.Load(cfg.Rankings.DataDir)
	if err != nil {
		return err
	}

	rank, ok := table.LookupInstitution(query)
	if !ok {
		fmt.Printf("%s: not ranked\n", query)
		return nil
	}
	fmt.Printf("%s\n", query)
	if rank.QS > 0 {
		fmt.Printf("  QS: #%d (%s)\n", rank.QS, rank.QSTier)
	}
	if rank.USNews > 0 {
		fmt.Printf("  US News: #%d (%s)\n", rank.USNews, rank.USNewsTier)
	}
	return nil
}
