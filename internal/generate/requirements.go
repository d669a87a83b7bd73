package generate

import (
	"slices"
	"sort"
)

// Licenses are the accepted values of license.license.
var Licenses = []string{"MIT", "Apache-2.0", "GPL-3.0", "proprietary"}

// requirementGroups maps a requirement choice to its pip requirements.
var requirementGroups = map[string][]string{
	"data-science": {"numpy", "pandas", "scipy", "scikit-learn", "matplotlib"},
	"pytorch":      {"torch", "torchvision"},
	"tensorflow":   {"tensorflow"},
	"dogfood":      {"mloq"},
	"test":         {"pytest", "pytest-cov", "hypothesis"},
	"none":         nil,
}

// RequirementChoices returns the accepted requirement groups, sorted.
func RequirementChoices() []string {
	out := make([]string, 0, len(requirementGroups))
	for name := range requirementGroups {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ExpandRequirements returns the pip requirements of groups followed by
// extra, without duplicates.
func ExpandRequirements(groups, extra []string) []string {
	var out []string
	add := func(req string) {
		if req != "" && !slices.Contains(out, req) {
			out = append(out, req)
		}
	}
	for _, g := range groups {
		for _, req := range requirementGroups[g] {
			add(req)
		}
	}
	for _, req := range extra {
		add(req)
	}
	return out
}
