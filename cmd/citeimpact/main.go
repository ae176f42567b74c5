// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the citeimpact CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/citeimpact/internal/secrets"
	"github.com/pdiddy/citeimpact/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const defaultUserAgent = "citeimpact/0.1 (https://github.com/pdiddy/citeimpact)"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the citeimpact CLI.
var rootCmd = &cobra.Command{
	Use:   "citeimpact",
	Short: "Citation impact analysis across scholarly data sources",
	Long: `citeimpact measures who cites a paper and how much those citers matter.
It resolves the paper across several scholarly sources with automatic
fallback, collects the citing papers, enriches every citing author with
h-index, citation, and affiliation data, and aggregates the result into
venue, institution, and author-profile breakdowns.

Results are cached locally, so repeated analyses of the same paper are
instant until the cache entries expire.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./citeimpact.yaml or ~/.config/citeimpact/config.yaml)")

	// Settings shared by every analysis-running subcommand. Flags win
	// over the config file, the config file over built-in defaults.
	rootCmd.PersistentFlags().String("mode", "", "provider set: api, scrape, or comprehensive (default comprehensive)")
	rootCmd.PersistentFlags().Int("max-citations", 0, "cap on citations collected and enriched (default 100)")
	rootCmd.PersistentFlags().Int("h-index-threshold", 0, "minimum h-index for the high-profile list (default 20)")
	rootCmd.PersistentFlags().Int("workers", 0, "concurrent author enrichment workers (default 4)")
	rootCmd.PersistentFlags().Bool("prefer-structured", false, "prefer structured-graph metrics over scraped profiles when both exist")
	rootCmd.PersistentFlags().String("email", "", "contact email sent to polite-pool APIs")
	rootCmd.PersistentFlags().Duration("timeout", 0, "per-request HTTP timeout (default 15s)")
	rootCmd.PersistentFlags().Duration("politeness-delay", 0, "minimum spacing between calls to one provider")
	rootCmd.PersistentFlags().Int("max-retries", 0, "retries after a transient provider failure (default 1)")
	rootCmd.PersistentFlags().String("cache-dir", "", "cache directory (default: user cache dir)")
	rootCmd.PersistentFlags().Bool("no-cache", false, "bypass the cache for this run")
	rootCmd.PersistentFlags().String("rankings-dir", "", "directory of venue/university rank overlays")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("citeimpact")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "citeimpact"))
		}
	}

	viper.SetEnvPrefix("CITEIMPACT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// engineConfig assembles the engine configuration from flags, the viper
// config file, and the secrets directory, in that precedence.
func engineConfig(cmd *cobra.Command) types.EngineConfig {
	var cfg types.EngineConfig

	cfg.Analysis.Mode = types.SourceMode(stringSetting(cmd, "mode", "analysis.data_source", string(types.ModeComprehensive)))
	cfg.Analysis.MaxCitations = intSetting(cmd, "max-citations", "analysis.max_citations", 0)
	cfg.Analysis.HIndexThreshold = intSetting(cmd, "h-index-threshold", "analysis.h_index_threshold", 0)
	cfg.Analysis.Workers = intSetting(cmd, "workers", "analysis.workers", 0)
	cfg.Analysis.PreferStructuredMetrics = boolSetting(cmd, "prefer-structured", "analysis.prefer_structured_metrics")
	cfg.Analysis.Email = stringSetting(cmd, "email", "analysis.email", "")
	for src, id := range viper.GetStringMapString("analysis.default_author_ids") {
		if cfg.Analysis.DefaultAuthorIDs == nil {
			cfg.Analysis.DefaultAuthorIDs = make(map[types.Source]string)
		}
		cfg.Analysis.DefaultAuthorIDs[types.Source(src)] = id
	}

	cfg.Provider.Timeout = durationSetting(cmd, "timeout", "provider.timeout")
	cfg.Provider.PolitenessDelay = durationSetting(cmd, "politeness-delay", "provider.politeness_delay")
	cfg.Provider.MaxRetries = intSetting(cmd, "max-retries", "provider.max_retries", 0)
	cfg.Provider.UserAgent = defaultUserAgent
	cfg.Provider.APIKey = viper.GetString("provider.api_key")

	cfg.Cache.Dir = stringSetting(cmd, "cache-dir", "cache.dir", defaultCacheDir())
	cfg.Cache.Disabled = boolSetting(cmd, "no-cache", "cache.disabled")
	cfg.Rankings.DataDir = stringSetting(cmd, "rankings-dir", "rankings.data_dir", "")

	secrets.Apply(loadedSecrets, &cfg)
	return cfg
}

func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return ".citeimpact-cache"
	}
	return filepath.Join(base, "citeimpact")
}

func stringSetting(cmd *cobra.Command, flag, key, fallback string) string {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetString(flag)
		return v
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return fallback
}

func intSetting(cmd *cobra.Command, flag, key string, fallback int) int {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetInt(flag)
		return v
	}
	if viper.IsSet(key) {
		return viper.GetInt(key)
	}
	return fallback
}

func boolSetting(cmd *cobra.Command, flag, key string) bool {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetBool(flag)
		return v
	}
	return viper.GetBool(key)
}

func durationSetting(cmd *cobra.Command, flag, key string) time.Duration {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetDuration(flag)
		return v
	}
	if viper.IsSet(key) {
		return viper.GetDuration(key)
	}
	return 0
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
