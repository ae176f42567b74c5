// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citeimpact/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the local result cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-class cache entry counts, sizes, and ages",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached analysis, author, and publication record",
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	cfg := engineConfig(cmd)
	store := cache.NewStore(cfg.Cache.Dir, false)

	stats, err := store.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("Cache directory: %s\n", cfg.Cache.Dir)
	for _, class := range []cache.Class{cache.ClassAnalysis, cache.ClassAuthor, cache.ClassPublications} {
		cs := stats[class]
		fmt.Printf("  %-12s  %5d entries  %8d bytes%s\n", class, cs.Entries, cs.Bytes, entrySpan(cs))
	}

	idx, err := cache.OpenIndex(cfg.Cache.Dir)
	if err != nil {
		return err
	}
	defer idx.Close()
	n, err := idx.AuthorCount(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("  publication index: %d authors\n", n)
	return nil
}

// entrySpan renders the oldest and newest entry ages for one class.
func entrySpan(cs cache.ClassStats) string {
	if cs.Entries == 0 {
		return ""
	}
	return fmt.Sprintf("  oldest %s, newest %s",
		ageString(cs.Oldest), ageString(cs.Newest))
}

func ageString(t time.Time) string {
	age := time.Since(t)
	switch {
	case age >= 24*time.Hour:
		return fmt.Sprintf("%dd ago", int(age.Hours()/24))
	case age >= time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	case age >= time.Minute:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	default:
		return "just now"
	}
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	cfg := engineConfig(cmd)
	store := cache.NewStore(cfg.Cache.Dir, false)
	if err := store.Clear(); err != nil {
		return err
	}
	fmt.Println("Cache cleared.")
	return nil
}
