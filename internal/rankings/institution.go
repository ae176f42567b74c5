// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rankings

import (
	"strings"
)

// Institution categories.
const (
	CategoryUniversity = "University"
	CategoryIndustry   = "Industry"
	CategoryGovernment = "Government"
	CategoryOther      = "Other"
)

// Government agencies and national labs that affiliation strings name
// without any categorizable keyword.
var governmentNames = []string{
	"nasa", "national institutes of health", "national science foundation",
	"darpa", "department of energy", "national institute of standards",
	"sandia", "los alamos national laboratory", "lawrence livermore national laboratory",
	"oak ridge national laboratory", "argonne national laboratory",
	"brookhaven national laboratory", "fermilab", "pacific northwest national laboratory",
	"national renewable energy laboratory",
	"uk research and innovation", "medical research council",
	"european commission", "joint research centre", "european space agency",
	"chinese academy of sciences", "riken", "japan aerospace exploration agency",
	"indian space research organisation", "csiro", "national research council canada",
	"cern", "national laboratory", "national lab", "ministry of",
	"department of defense", "air force research", "naval research", "army research",
}

// Industry research labs. Single words match on word boundaries so
// "Stanford" never matches "ford".
var industryNames = []string{
	"google", "deepmind", "microsoft", "meta", "facebook", "apple", "amazon",
	"ibm", "intel", "nvidia", "openai", "anthropic", "adobe", "salesforce",
	"spotify", "uber", "netflix", "bell labs", "huawei", "qualcomm", "ericsson",
	"tesla", "toyota research", "pfizer", "moderna", "novartis", "roche",
	"genentech", "siemens", "bosch", "philips research", "baidu", "alibaba",
	"tencent", "samsung research",
}

var universityKeywords = []string{
	"university", "college", "institute of technology", "école", "universität",
	"universidad", "università", "université", "polytechnic", "academy", "school of",
}

// Categorize buckets an affiliation into University, Industry,
// Government, or Other, combining the provider's institution type with
// name heuristics. Government is checked first as the most specific.
func Categorize(institutionType, affiliation string) string {
	lower := strings.ToLower(strings.TrimSpace(affiliation))
	kind := strings.ToLower(strings.TrimSpace(institutionType))

	if lower != "" && lower != "unknown" {
		if kind == "government" || kind == "facility" || matchAny(lower, governmentNames) {
			return CategoryGovernment
		}
		if kind == "company" || matchAny(lower, industryNames) || hasCorporateSuffix(lower) {
			return CategoryIndustry
		}
		if kind == "education" || containsAny(lower, universityKeywords) {
			return CategoryUniversity
		}
	}

	switch {
	case kind == "":
		return CategoryOther
	case containsAny(kind, []string{"education", "university", "college", "institute", "school", "academy"}):
		return CategoryUniversity
	case containsAny(kind, []string{"company", "corporation", "corporate", "private"}):
		return CategoryIndustry
	case containsAny(kind, []string{"government", "federal", "national", "ministry"}):
		return CategoryGovernment
	case kind == "facility":
		// Facilities are usually national labs.
		return CategoryGovernment
	default:
		return CategoryOther
	}
}

// matchAny matches multi-word names by substring and single words by
// whole-word presence.
func matchAny(affiliation string, names []string) bool {
	var words map[string]bool
	for _, name := range names {
		if strings.Contains(name, " ") {
			if strings.Contains(affiliation, name) {
				return true
			}
			continue
		}
		if words == nil {
			words = wordSet(affiliation)
		}
		if words[name] {
			return true
		}
	}
	return false
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.FieldsFunc(s, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	}) {
		set[w] = true
	}
	return set
}

func hasCorporateSuffix(affiliation string) bool {
	words := wordSet(affiliation)
	for _, suffix := range []string{"inc", "corp", "ltd", "llc", "gmbh"} {
		if words[suffix] {
			return true
		}
	}
	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
