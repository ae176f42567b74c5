// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rankings maps venue and institution names to published tiers:
// CORE/CCF for venues, QS and US News for universities. Lookups are
// pure and case-insensitive; the bundled datasets can be extended with
// YAML files from a data directory.
package rankings

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/citeimpact/pkg/types"
)

//go:embed data/venues.yaml data/universities.yaml
var bundled embed.FS

type venueEntry struct {
	Name    string `yaml:"name"`
	Acronym string `yaml:"acronym"`
	CORE    string `yaml:"core"`
	CCF     string `yaml:"ccf"`
}

type universityEntry struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
	Country string   `yaml:"country"`
	QS      int      `yaml:"qs"`
	USNews  int      `yaml:"usnews"`
}

// Table holds the loaded rankings, keyed by lowercased name and alias.
type Table struct {
	venues       map[string]venueEntry
	universities map[string]universityEntry
}

// Load builds a table from the bundled datasets, then overlays any
// venues.yaml / universities.yaml found under dataDir. Overlay entries
// win on name collisions.
func Load(dataDir string) (*Table, error) {
	t := &Table{
		venues:       make(map[string]venueEntry),
		universities: make(map[string]universityEntry),
	}

	for _, name := range []string{"data/venues.yaml", "data/universities.yaml"} {
		data, err := bundled.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("reading bundled %s: %w", name, err)
		}
		if err := t.addYAML(filepath.Base(name), data); err != nil {
			return nil, fmt.Errorf("parsing bundled %s: %w", name, err)
		}
	}

	if dataDir != "" {
		for _, base := range []string{"venues.yaml", "universities.yaml"} {
			path := filepath.Join(dataDir, base)
			data, err := os.ReadFile(path)
			if os.IsNotExist(err) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", path, err)
			}
			if err := t.addYAML(base, data); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		}
	}
	return t, nil
}

func (t *Table) addYAML(base string, data []byte) error {
	switch base {
	case "venues.yaml":
		var entries []venueEntry
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return err
		}
		for _, e := range entries {
			for _, key := range []string{e.Name, e.Acronym} {
				if key != "" {
					t.venues[strings.ToLower(key)] = e
				}
			}
		}
	case "universities.yaml":
		var entries []universityEntry
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return err
		}
		for _, e := range entries {
			keys := append([]string{e.Name}, e.Aliases...)
			keys = append(keys, derivedAliases(e.Name)...)
			for _, key := range keys {
				if key != "" {
					t.universities[strings.ToLower(key)] = e
				}
			}
		}
	default:
		return fmt.Errorf("unknown dataset %q", base)
	}
	return nil
}

// derivedAliases generates common short forms, so "University of
// California, Berkeley" also answers to "UC Berkeley".
func derivedAliases(name string) []string {
	var aliases []string
	if rest, ok := strings.CutPrefix(name, "University of California, "); ok {
		aliases = append(aliases, "UC "+rest, "University of California "+rest)
	}
	if rest, ok := strings.CutPrefix(name, "University of "); ok && !strings.Contains(rest, " ") {
		aliases = append(aliases, rest+" University")
	}
	return aliases
}

// LookupVenue resolves a venue name or acronym to its rankings.
func (t *Table) LookupVenue(name string) (types.VenueRank, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return types.VenueRank{}, false
	}
	e, ok := t.venues[key]
	if !ok {
		return types.VenueRank{}, false
	}
	return types.VenueRank{
		Tier: coreTier(e.CORE),
		CORE: e.CORE,
		CCF:  e.CCF,
	}, true
}

// LookupInstitution resolves a university name to its rankings.
func (t *Table) LookupInstitution(name string) (types.InstitutionRank, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return types.InstitutionRank{}, false
	}
	e, ok := t.universities[key]
	if !ok {
		return types.InstitutionRank{}, false
	}
	r := types.InstitutionRank{QS: e.QS, USNews: e.USNews}
	if e.QS > 0 {
		r.QSTier = UniversityTier(e.QS)
	}
	if e.USNews > 0 {
		r.USNewsTier = UniversityTier(e.USNews)
	}
	return r, true
}

// UniversityTier converts a numeric rank to its band label.
func UniversityTier(rank int) string {
	switch {
	case rank <= 10:
		return "Top 10"
	case rank <= 25:
		return "Top 25"
	case rank <= 50:
		return "Top 50"
	case rank <= 100:
		return "Top 100"
	case rank <= 200:
		return "Top 200"
	case rank <= 500:
		return "Top 500"
	default:
		return "Ranked"
	}
}

// coreTier expands a CORE rank letter into its descriptive tier label.
func coreTier(core string) string {
	switch core {
	case "A*":
		return "Tier 1 (CORE A* - Flagship)"
	case "A":
		return "Tier 2 (CORE A - Excellent)"
	case "B":
		return "Tier 3 (CORE B - Good)"
	case "C":
		return "Tier 4 (CORE C - Acceptable)"
	case "":
		return ""
	default:
		return "CORE " + core
	}
}
