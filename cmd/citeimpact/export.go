// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/citeimpact/internal/hybrid"
	"github.com/pdiddy/citeimpact/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export [paper title]",
	Short: "Export an analysis result to YAML, JSON, or CSV",
	Long: `Export runs (or re-reads from cache) the analysis for a paper and
writes the result to a file. YAML and JSON carry the full result; CSV
writes the citation table only, one citing paper per row.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("format", "yaml", "export format: yaml, json, or csv")
	exportCmd.Flags().String("out", "", "output file (default: derived from the title)")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide the paper title to export")
	}
	title := strings.Join(args, " ")
	format, _ := cmd.Flags().GetString("format")

	eng, err := hybrid.New(engineConfig(cmd), os.Stderr)
	if err != nil {
		return err
	}
	defer eng.Close()

	res, err := eng.Analyze(context.Background(), title)
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = exportFileName(title, format)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	defer f.Close()

	switch format {
	case "yaml", "":
		enc := yaml.NewEncoder(f)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
	case "json":
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	case "csv":
		if err := writeCitationsCSV(f, res.Citations); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported format %q: use yaml, json, or csv", format)
	}

	fmt.Printf("Exported to %s\n", out)
	return nil
}

func writeCitationsCSV(f *os.File, citations []types.CitationRecord) error {
	w := csv.NewWriter(f)
	if err := w.Write([]string{"title", "year", "venue", "doi", "citations", "influential", "authors", "sources"}); err != nil {
		return err
	}
	for i := range citations {
		c := &citations[i]
		names := make([]string, 0, len(c.Authors))
		for j := range c.Authors {
			names = append(names, c.Authors[j].Name)
		}
		sources := make([]string, 0, len(c.Sources))
		for _, s := range c.Sources {
			sources = append(sources, string(s))
		}
		row := []string{
			c.Title,
			strconv.Itoa(c.Year),
			c.Venue,
			c.DOI,
			strconv.Itoa(c.CitationCount),
			strconv.FormatBool(c.Influential),
			strings.Join(names, "; "),
			strings.Join(sources, "; "),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// exportFileName derives a filesystem-safe name from the paper title.
func exportFileName(title, format string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	name := strings.Trim(b.String(), "-")
	if len(name) > 60 {
		name = name[:60]
	}
	if name == "" {
		name = "analysis"
	}
	ext := format
	if ext == "" {
		ext = "yaml"
	}
	return name + "." + ext
}
