package analyzer

import (
	"fmt"
	"regexp"
	"strings"
)

// Importance ranks commit types. Higher ranks win during type resolution.
type Importance string

const (
	ImportanceCritical Importance = "critical"
	ImportanceMajor    Importance = "major"
	ImportanceMedium   Importance = "medium"
	ImportanceMinor    Importance = "minor"
)

// Rank returns the ordinal of i, 0 for unknown values
func (i Importance) Rank() int {
	switch i {
	case ImportanceCritical:
		return 4
	case ImportanceMajor:
		return 3
	case ImportanceMedium:
		return 2
	case ImportanceMinor:
		return 1
	default:
		return 0
	}
}

// TypeRule is one entry of the commit-type taxonomy
type TypeRule struct {
	Type       string     `yaml:"type" json:"type"`
	Importance Importance `yaml:"importance" json:"importance"`
	Patterns   []string   `yaml:"patterns" json:"patterns"`
}

// ImpactKeywords holds the keyword list behind each impact flag
type ImpactKeywords struct {
	Security    []string `yaml:"security" json:"security"`
	Database    []string `yaml:"database" json:"database"`
	API         []string `yaml:"api" json:"api"`
	Performance []string `yaml:"performance" json:"performance"`
}

// Rules is the complete, versionable rule table of an Engine.
// It is a plain value: copy it, tweak it and pass it to New.
type Rules struct {
	// Filenames are exact (case-insensitive) basenames per category
	Filenames map[Category][]string `yaml:"filenames" json:"filenames"`
	// Extensions are basename suffixes per category, e.g. ".py" or "_test.go"
	Extensions map[Category][]string `yaml:"extensions" json:"extensions"`
	// PathPatterns are regular expressions matched against the normalized path
	PathPatterns map[Category][]string `yaml:"path_patterns" json:"path_patterns"`

	ContractPatterns []string       `yaml:"contract_patterns" json:"contract_patterns"`
	Manifests        []string       `yaml:"manifests" json:"manifests"`
	Keywords         ImpactKeywords `yaml:"keywords" json:"keywords"`
	Taxonomy         []TypeRule     `yaml:"taxonomy" json:"taxonomy"`
}

// DefaultRules returns the canonical rule table
func DefaultRules() Rules {
	return Rules{
		Filenames: map[Category][]string{
			CategoryConfig: {
				"dockerfile", "makefile", ".editorconfig", ".gitignore", ".gitattributes",
				".dockerignore", ".env", ".env.example", ".prettierrc", ".eslintrc",
			},
			CategoryDocs: {"readme", "license", "changelog", "contributing", "authors"},
			CategoryCI: {
				"jenkinsfile", ".gitlab-ci.yml", ".travis.yml", "azure-pipelines.yml",
				".drone.yml", "codecov.yml", "bitbucket-pipelines.yml",
			},
			CategoryDependencies: {
				"requirements.txt", "requirements-dev.txt", "package.json", "package-lock.json",
				"yarn.lock", "pnpm-lock.yaml", "go.mod", "go.sum", "pom.xml", "build.gradle",
				"cargo.toml", "cargo.lock", "gemfile", "gemfile.lock", "pipfile", "pipfile.lock",
				"pyproject.toml", "poetry.lock", "composer.json", "composer.lock",
			},
		},
		Extensions: map[Category][]string{
			CategoryFrontend: {
				".html", ".htm", ".css", ".scss", ".sass", ".less", ".js", ".jsx",
				".ts", ".tsx", ".vue", ".svelte",
			},
			CategoryBackend: {
				".py", ".go", ".java", ".rb", ".php", ".rs", ".cs", ".kt", ".scala",
				".c", ".cc", ".cpp", ".h", ".hpp", ".ex", ".exs", ".swift",
			},
			CategoryDatabase: {".sql", ".sqlite", ".db", ".prisma", ".dbml"},
			CategoryTest: {
				".test.js", ".test.jsx", ".test.ts", ".test.tsx", ".spec.js", ".spec.jsx",
				".spec.ts", ".spec.tsx", ".test.py", "_test.py", "_test.go", "_spec.rb",
			},
			CategoryConfig: {
				".yaml", ".yml", ".toml", ".ini", ".cfg", ".conf", ".json", ".env",
				".properties", ".xml",
			},
			CategoryDocs: {".md", ".markdown", ".rst", ".txt", ".adoc"},
		},
		PathPatterns: map[Category][]string{
			CategoryFrontend: {`(^|/)(frontend|client|web|ui|components|pages|views|static|public|assets|styles)/`},
			CategoryBackend:  {`(^|/)(backend|server|services?|handlers?|controllers?|internal|cmd|lib)/`},
			CategoryDatabase: {`(^|/)migrations?/`, `(^|/)(db|database|schemas?|seeds?)/`},
			CategoryTest:     {`(^|/)tests?/`, `(^|/)(__tests__|specs?|testdata|fixtures)/`},
			CategoryConfig:   {`(^|/)(config|configs|settings|conf)/`, `(^|/)\.config/`},
			CategoryDocs:     {`(^|/)docs?/`, `(^|/)(documentation|wiki)/`},
			CategoryCI:       {`(^|/)\.github/`, `(^|/)(\.gitlab|\.circleci|\.buildkite|ci)/`},
			CategoryDependencies: {`(^|/)(vendor|node_modules|third_party)/`},
		},
		ContractPatterns: []string{"api", "interface", "contract", "schema"},
		Manifests: []string{
			"requirements.txt", "package.json", "package-lock.json", "yarn.lock",
			"pnpm-lock.yaml", "go.mod", "go.sum", "pom.xml", "build.gradle",
			"cargo.toml", "cargo.lock", "gemfile", "gemfile.lock", "pipfile",
			"pipfile.lock", "pyproject.toml", "poetry.lock", "composer.json", "composer.lock",
		},
		Keywords: ImpactKeywords{
			Security: []string{
				"auth", "password", "crypto", "secret", "token", "credential",
				"permission", "security", "oauth", "jwt", "ssl", "tls",
			},
			Database: []string{
				"migration", "schema", "database", "models/", ".sql", "query", "entity", "repository",
			},
			API: []string{
				"api", "endpoint", "route", "controller", "graphql", "openapi", "swagger", "grpc", ".proto",
			},
			Performance: []string{
				"cache", "perf", "optimiz", "benchmark", "pool", "concurren", "profil", "throttl",
			},
		},
		Taxonomy: []TypeRule{
			{Type: "fix", Importance: ImportanceCritical, Patterns: []string{"fix", "resolve", "bug", "issue", "error", "crash"}},
			{Type: "feat", Importance: ImportanceMajor, Patterns: []string{"add", "new", "create", "implement"}},
			{Type: "refactor", Importance: ImportanceMedium, Patterns: []string{"refactor", "restructure", "optimize", "improve"}},
			{Type: "style", Importance: ImportanceMinor, Patterns: []string{"style", "format", "ui", "design"}},
			{Type: "docs", Importance: ImportanceMinor, Patterns: []string{"doc", "comment", "readme", "guide"}},
		},
	}
}

// typeLabel is the shape a commit type must have to appear in a header
var typeLabel = regexp.MustCompile(`^\w+$`)

// compiledRules is the lookup-ready form of Rules
type compiledRules struct {
	filenames    map[string]Category
	suffixes     []suffixRule
	pathPatterns []pathRule
	contract     []string
	manifests    map[string]bool
	keywords     ImpactKeywords
	taxonomy     []TypeRule
}

type suffixRule struct {
	suffix   string
	category Category
}

type pathRule struct {
	re       *regexp.Regexp
	category Category
}

// compile validates r and builds its lookup tables
func (r Rules) compile() (*compiledRules, error) {
	c := &compiledRules{
		filenames: make(map[string]Category),
		manifests: make(map[string]bool),
		contract:  lowerAll(r.ContractPatterns),
		keywords: ImpactKeywords{
			Security:    lowerAll(r.Keywords.Security),
			Database:    lowerAll(r.Keywords.Database),
			API:         lowerAll(r.Keywords.API),
			Performance: lowerAll(r.Keywords.Performance),
		},
	}

	for cat := range r.Filenames {
		if !cat.Valid() || cat == CategoryOther {
			return nil, fmt.Errorf("filenames: unknown category %q", cat)
		}
	}
	for cat := range r.Extensions {
		if !cat.Valid() || cat == CategoryOther {
			return nil, fmt.Errorf("extensions: unknown category %q", cat)
		}
	}
	for cat := range r.PathPatterns {
		if !cat.Valid() || cat == CategoryOther {
			return nil, fmt.Errorf("path_patterns: unknown category %q", cat)
		}
	}

	// Walk categories in priority order so earlier categories claim shared entries
	for _, cat := range Categories {
		for _, name := range lowerAll(r.Filenames[cat]) {
			if _, taken := c.filenames[name]; !taken {
				c.filenames[name] = cat
			}
		}
		for _, suffix := range lowerAll(r.Extensions[cat]) {
			c.suffixes = append(c.suffixes, suffixRule{suffix: suffix, category: cat})
		}
		for _, expr := range r.PathPatterns[cat] {
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("path pattern %q for %s: %w", expr, cat, err)
			}
			c.pathPatterns = append(c.pathPatterns, pathRule{re: re, category: cat})
		}
	}

	for _, name := range lowerAll(r.Manifests) {
		c.manifests[name] = true
	}

	for _, tr := range r.Taxonomy {
		if !typeLabel.MatchString(tr.Type) {
			return nil, fmt.Errorf("taxonomy entry: invalid type %q", tr.Type)
		}
		if tr.Importance.Rank() == 0 {
			return nil, fmt.Errorf("taxonomy entry %q: unknown importance %q", tr.Type, tr.Importance)
		}
		c.taxonomy = append(c.taxonomy, TypeRule{
			Type:       tr.Type,
			Importance: tr.Importance,
			Patterns:   lowerAll(tr.Patterns),
		})
	}

	return c, nil
}

// lowerAll lower-cases every entry and drops empty ones
func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
