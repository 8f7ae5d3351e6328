package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nahidhasan98/autocommit/internal/analyzer"
)

// LoadRules reads a YAML rules file and overlays it on analyzer.DefaultRules.
// An empty path yields the defaults.
func LoadRules(path string) (analyzer.Rules, error) {
	if path == "" {
		return analyzer.DefaultRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return analyzer.Rules{}, fmt.Errorf("read rules file: %w", err)
	}

	rules, err := ParseRules(data)
	if err != nil {
		return analyzer.Rules{}, fmt.Errorf("rules file %s: %w", path, err)
	}
	return rules, nil
}

// ParseRules decodes a YAML rule overlay. Each non-empty category list of
// the filename, extension and path tables replaces the default list for that
// category; every other non-empty list replaces its default wholesale.
// Unknown keys are rejected.
func ParseRules(data []byte) (analyzer.Rules, error) {
	var overlay analyzer.Rules

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&overlay); err != nil && !errors.Is(err, io.EOF) {
		return analyzer.Rules{}, fmt.Errorf("decode: %w", err)
	}

	rules := mergeRules(analyzer.DefaultRules(), overlay)

	// Compile once so a broken table fails at load time
	if _, err := analyzer.New(rules); err != nil {
		return analyzer.Rules{}, err
	}
	return rules, nil
}

func mergeRules(base, overlay analyzer.Rules) analyzer.Rules {
	base.Filenames = mergeTable(base.Filenames, overlay.Filenames)
	base.Extensions = mergeTable(base.Extensions, overlay.Extensions)
	base.PathPatterns = mergeTable(base.PathPatterns, overlay.PathPatterns)

	if len(overlay.ContractPatterns) > 0 {
		base.ContractPatterns = overlay.ContractPatterns
	}
	if len(overlay.Manifests) > 0 {
		base.Manifests = overlay.Manifests
	}
	if len(overlay.Keywords.Security) > 0 {
		base.Keywords.Security = overlay.Keywords.Security
	}
	if len(overlay.Keywords.Database) > 0 {
		base.Keywords.Database = overlay.Keywords.Database
	}
	if len(overlay.Keywords.API) > 0 {
		base.Keywords.API = overlay.Keywords.API
	}
	if len(overlay.Keywords.Performance) > 0 {
		base.Keywords.Performance = overlay.Keywords.Performance
	}
	if len(overlay.Taxonomy) > 0 {
		base.Taxonomy = overlay.Taxonomy
	}
	return base
}

func mergeTable(base, overlay map[analyzer.Category][]string) map[analyzer.Category][]string {
	out := make(map[analyzer.Category][]string, len(base)+len(overlay))
	for cat, list := range base {
		out[cat] = list
	}
	for cat, list := range overlay {
		if len(list) > 0 {
			out[cat] = list
		}
	}
	return out
}
