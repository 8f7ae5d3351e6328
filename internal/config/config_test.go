package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nahidhasan98/autocommit/internal/analyzer"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WATCH_PATH", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("WATCH_ONCE", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.Watch.Path)
	assert.Equal(t, ".", cfg.Watch.RepoPath)
	assert.Equal(t, 30*time.Second, cfg.Watch.CommitDelay)
	assert.Equal(t, DefaultIgnorePatterns, cfg.Watch.IgnorePatterns)
	assert.False(t, cfg.Watch.Once)
	assert.True(t, cfg.Git.AutoPush)
	assert.Equal(t, 3, cfg.LLM.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.LLM.RetryDelay)
	assert.Equal(t, 3000, cfg.LLM.MaxDiffSize)
	assert.False(t, cfg.LLM.Enabled, "no key means local generation only")
	assert.Equal(t, 100, cfg.History.MaxEntries)
}

func TestLoadFromEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "test.env")
	content := "WATCH_PATH=/srv/project/src\nREPO_PATH=/srv/project\nCOMMIT_DELAY=5\n" +
		"IGNORE_PATTERNS=dist, build\nSIMULATION_MODE=true\nOPENAI_API_KEY=sk-test\nWATCH_ONCE=true\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	// godotenv never overrides variables that are already set
	for _, key := range []string{"WATCH_PATH", "REPO_PATH", "COMMIT_DELAY", "IGNORE_PATTERNS", "SIMULATION_MODE", "OPENAI_API_KEY", "WATCH_ONCE"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "/srv/project/src", cfg.Watch.Path)
	assert.Equal(t, "/srv/project", cfg.Watch.RepoPath)
	assert.Equal(t, 5*time.Second, cfg.Watch.CommitDelay)
	assert.Contains(t, cfg.Watch.IgnorePatterns, "dist")
	assert.Contains(t, cfg.Watch.IgnorePatterns, "build")
	assert.Contains(t, cfg.Watch.IgnorePatterns, ".git")
	assert.True(t, cfg.Watch.Once)
	assert.True(t, cfg.Git.Simulation)
	assert.True(t, cfg.LLM.Enabled)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Watch:    WatchConfig{Path: ".", CommitDelay: time.Second},
			LLM:      LLMConfig{MaxRetries: 3},
			History:  HistoryConfig{Driver: "sqlite3", DSN: "file::memory:", MaxEntries: 100},
			Security: SecurityConfig{APIKeys: []string{"a-long-secure-key"}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no watch path", mutate: func(c *Config) { c.Watch.Path = "" }, wantErr: "watch path"},
		{name: "zero delay", mutate: func(c *Config) { c.Watch.CommitDelay = 0 }, wantErr: "commit delay"},
		{name: "no retries", mutate: func(c *Config) { c.LLM.MaxRetries = 0 }, wantErr: "max retries"},
		{name: "no history size", mutate: func(c *Config) { c.History.MaxEntries = 0 }, wantErr: "max entries"},
		{name: "whatsapp without recipient", mutate: func(c *Config) { c.WhatsApp.Enabled = true }, wantErr: "recipient"},
		{name: "server disabled skips keys", mutate: func(c *Config) { c.Security.APIKeys = nil }},
		{
			name:    "server without keys",
			mutate:  func(c *Config) { c.Server.Enabled = true; c.Security.APIKeys = nil },
			wantErr: "API key",
		},
		{
			name:    "insecure key",
			mutate:  func(c *Config) { c.Server.Enabled = true; c.Security.APIKeys = []string{"short"} },
			wantErr: "insecure",
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Enabled = true; c.Server.Port = 70000 },
			wantErr: "port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseRulesOverlay(t *testing.T) {
	data := []byte(`
extensions:
  frontend: [".html", ".astro"]
manifests: ["deps.edn"]
keywords:
  security: ["vault"]
`)
	rules, err := ParseRules(data)
	require.NoError(t, err)

	defaults := analyzer.DefaultRules()
	assert.Equal(t, []string{".html", ".astro"}, rules.Extensions[analyzer.CategoryFrontend])
	assert.Equal(t, defaults.Extensions[analyzer.CategoryBackend], rules.Extensions[analyzer.CategoryBackend])
	assert.Equal(t, []string{"deps.edn"}, rules.Manifests)
	assert.Equal(t, []string{"vault"}, rules.Keywords.Security)
	assert.Equal(t, defaults.Keywords.API, rules.Keywords.API)
	assert.Equal(t, defaults.Taxonomy, rules.Taxonomy)

	e, err := analyzer.New(rules)
	require.NoError(t, err)
	assert.Equal(t, analyzer.CategoryFrontend, e.Classify("site/index.astro"))
}

func TestParseRulesEmptyIsDefault(t *testing.T) {
	rules, err := ParseRules(nil)
	require.NoError(t, err)
	assert.Equal(t, analyzer.DefaultRules(), rules)
}

func TestParseRulesRejectsBrokenTables(t *testing.T) {
	_, err := ParseRules([]byte("path_patterns:\n  backend: [\"([\"]\n"))
	assert.Error(t, err)

	_, err = ParseRules([]byte("extensions:\n  gui: [\".qml\"]\n"))
	assert.Error(t, err)

	_, err = ParseRules([]byte("taxonomies: []\n"))
	assert.Error(t, err, "unknown keys are rejected")
}

func TestLoadRules(t *testing.T) {
	rules, err := LoadRules("")
	require.NoError(t, err)
	assert.Equal(t, analyzer.DefaultRules(), rules)

	_, err = LoadRules(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("contract_patterns: [\"proto\"]\n"), 0o600))
	rules, err = LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"proto"}, rules.ContractPatterns)
}
