package analyzer

import (
	"sort"
	"strings"
)

// ImpactProfile aggregates the risk signals of one batch.
// Scopes are in category priority order and Components are sorted,
// so two profiles of the same batch compare equal.
type ImpactProfile struct {
	Breaking            bool       `json:"breaking"`
	Scopes              []Category `json:"scopes"`
	Components          []string   `json:"components"`
	DependenciesChanged bool       `json:"dependencies_changed"`
	SecurityImpact      bool       `json:"security_impact"`
	DatabaseChanged     bool       `json:"database_changed"`
	APIChanged          bool       `json:"api_changed"`
	PerformanceImpact   bool       `json:"performance_impact"`
}

// HasImpact reports whether any impact flag (not Breaking) is set
func (p ImpactProfile) HasImpact() bool {
	return p.DependenciesChanged || p.SecurityImpact || p.DatabaseChanged ||
		p.APIChanged || p.PerformanceImpact
}

// Analyze builds the impact profile of a classified batch
func (e *Engine) Analyze(batch []FileChange) ImpactProfile {
	var p ImpactProfile
	seenCat := make(map[Category]bool)
	seenComp := make(map[string]bool)

	for _, fc := range batch {
		path := normalizePath(fc.Path)

		if fc.Kind == KindDeleted || containsAny(path, e.c.contract) {
			p.Breaking = true
		}
		if e.c.manifests[baseName(path)] {
			p.DependenciesChanged = true
		}
		p.SecurityImpact = p.SecurityImpact || containsAny(path, e.c.keywords.Security)
		p.DatabaseChanged = p.DatabaseChanged || containsAny(path, e.c.keywords.Database)
		p.APIChanged = p.APIChanged || containsAny(path, e.c.keywords.API)
		p.PerformanceImpact = p.PerformanceImpact || containsAny(path, e.c.keywords.Performance)

		seenCat[fc.Category] = true
		if dir := firstDir(path); dir != "" {
			seenComp[dir] = true
		}
	}

	for _, cat := range Categories {
		if seenCat[cat] {
			p.Scopes = append(p.Scopes, cat)
		}
	}
	for comp := range seenComp {
		p.Components = append(p.Components, comp)
	}
	sort.Strings(p.Components)

	return p
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
