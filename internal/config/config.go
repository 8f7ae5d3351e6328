package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultIgnorePatterns are never watched nor committed
var DefaultIgnorePatterns = []string{
	".git", "__pycache__", ".pyc", ".swp", ".venv", "venv", ".env", ".idea", ".vscode",
	"*.db", "*.db-journal", "*.db-wal", "*.db-shm",
}

// Config holds the application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Watch configuration
	Watch WatchConfig

	// Git configuration
	Git GitConfig

	// LLM configuration
	LLM LLMConfig

	// History configuration
	History HistoryConfig

	// WhatsApp configuration
	WhatsApp WhatsAppConfig

	// Webhook configuration
	Webhooks WebhookConfig

	// Security configuration
	Security SecurityConfig

	// Rules configuration
	Rules RulesConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Enabled         bool
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RateLimit       float64 // requests per second per client, 0 disables
	RateBurst       int
	AllowedOrigins  []string
}

// WatchConfig holds file watching configuration
type WatchConfig struct {
	Path           string
	RepoPath       string
	CommitDelay    time.Duration
	IgnorePatterns []string
	Once           bool // commit the pending changes once and exit
}

// GitConfig holds git behaviour
type GitConfig struct {
	AutoPush   bool
	Remote     string
	Simulation bool // record commits without running git
}

// LLMConfig holds the chat completion client configuration
type LLMConfig struct {
	Enabled     bool
	APIKey      string
	BaseURL     string
	Model       string
	MaxRetries  int
	RetryDelay  time.Duration
	MaxDiffSize int
	Timeout     time.Duration
}

// HistoryConfig holds commit history storage configuration
type HistoryConfig struct {
	Driver     string
	DSN        string
	MaxEntries int
}

// WhatsAppConfig holds WhatsApp-specific configuration
type WhatsAppConfig struct {
	Enabled    bool
	SessionDSN string
	LogLevel   string
	DeviceName string // Custom device name that appears in WhatsApp linked devices
	Recipient  string // JID that receives commit notifications
}

// WebhookConfig holds the push webhook secrets
type WebhookConfig struct {
	GitHubSecret string
	GiteaSecret  string
}

// SecurityConfig holds security-specific configuration
type SecurityConfig struct {
	// API Keys - sent by clients for authentication
	APIKeys []string
}

// RulesConfig points at an optional classification rules file
type RulesConfig struct {
	File string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string // "json" or "text"
}

// Load loads configuration from environment variables with sensible defaults.
// envFile is optional; a missing file is not an error.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	_ = godotenv.Load(envFile)

	cfg := &Config{
		Server: ServerConfig{
			Enabled:         getEnvAsBool("SERVER_ENABLED", false),
			Host:            getEnv("SERVER_HOST", "127.0.0.1"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			RateLimit:       getEnvAsFloat("SERVER_RATE_LIMIT", 5),
			RateBurst:       getEnvAsInt("SERVER_RATE_BURST", 10),
			AllowedOrigins:  getEnvAsSlice("SERVER_ALLOWED_ORIGINS", []string{}),
		},
		Watch: WatchConfig{
			Path:           getEnv("WATCH_PATH", "."),
			RepoPath:       getEnv("REPO_PATH", ""),
			CommitDelay:    getEnvAsDuration("COMMIT_DELAY", 30*time.Second),
			IgnorePatterns: append(append([]string{}, DefaultIgnorePatterns...), getEnvAsSlice("IGNORE_PATTERNS", nil)...),
			Once:           getEnvAsBool("WATCH_ONCE", false),
		},
		Git: GitConfig{
			AutoPush:   getEnvAsBool("AUTO_PUSH", true),
			Remote:     getEnv("GIT_REMOTE", ""),
			Simulation: getEnvAsBool("SIMULATION_MODE", false),
		},
		LLM: LLMConfig{
			Enabled:     getEnvAsBool("LLM_ENABLED", true),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			Model:       getEnv("LLM_MODEL", "gpt-4o-mini"),
			MaxRetries:  getEnvAsInt("LLM_MAX_RETRIES", 3),
			RetryDelay:  getEnvAsDuration("LLM_RETRY_DELAY", 2*time.Second),
			MaxDiffSize: getEnvAsInt("MAX_DIFF_SIZE", 3000),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),
		},
		History: HistoryConfig{
			Driver:     getEnv("HISTORY_DRIVER", "sqlite3"),
			DSN:        getEnv("HISTORY_DSN", "file:autocommit_history.db?_foreign_keys=on"),
			MaxEntries: getEnvAsInt("HISTORY_MAX_ENTRIES", 100),
		},
		WhatsApp: WhatsAppConfig{
			Enabled:    getEnvAsBool("WHATSAPP_ENABLED", false),
			SessionDSN: getEnv("WHATSAPP_SESSION_DSN", "file:autocommit_whatsapp.db?_foreign_keys=on"),
			LogLevel:   getEnv("WHATSAPP_LOG_LEVEL", "INFO"),
			DeviceName: getEnv("WHATSAPP_DEVICE_NAME", "autocommit"),
			Recipient:  getEnv("WHATSAPP_RECIPIENT", ""),
		},
		Webhooks: WebhookConfig{
			GitHubSecret: getEnv("GITHUB_WEBHOOK_SECRET", ""),
			GiteaSecret:  getEnv("GITEA_WEBHOOK_SECRET", ""),
		},
		Security: SecurityConfig{
			APIKeys: getEnvAsSlice("API_KEYS", []string{}),
		},
		Rules: RulesConfig{
			File: getEnv("RULES_FILE", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	if cfg.Watch.RepoPath == "" {
		cfg.Watch.RepoPath = cfg.Watch.Path
	}
	// Without a key the generator runs the local engine only.
	if cfg.LLM.APIKey == "" {
		cfg.LLM.Enabled = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Watch.Path == "" {
		return fmt.Errorf("watch path is required")
	}
	if c.Watch.CommitDelay <= 0 {
		return fmt.Errorf("commit delay must be positive, got %s", c.Watch.CommitDelay)
	}

	if c.LLM.MaxRetries < 1 {
		return fmt.Errorf("llm max retries must be at least 1, got %d", c.LLM.MaxRetries)
	}
	if c.LLM.MaxDiffSize < 0 {
		return fmt.Errorf("max diff size must not be negative")
	}

	if c.History.Driver == "" {
		return fmt.Errorf("history driver is required")
	}
	if c.History.DSN == "" {
		return fmt.Errorf("history DSN is required")
	}
	if c.History.MaxEntries < 1 {
		return fmt.Errorf("history max entries must be at least 1, got %d", c.History.MaxEntries)
	}

	if c.WhatsApp.Enabled && c.WhatsApp.Recipient == "" {
		return fmt.Errorf("whatsapp recipient is required when whatsapp is enabled")
	}

	if !c.Server.Enabled {
		return nil
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Security validation
	if len(c.Security.APIKeys) == 0 {
		return fmt.Errorf("at least one API key is required when the server is enabled")
	}

	// Check for default/insecure API keys
	for _, key := range c.Security.APIKeys {
		if key == "default-api-key" || key == "api-key-123" || len(key) < 8 {
			return fmt.Errorf("insecure or default API key detected: '%s'. Please set secure API keys in environment variables", key)
		}
	}

	return nil
}

// Address returns the server address in the format host:port
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Helper functions to get environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		// bare numbers are seconds
		if secs, convErr := strconv.Atoi(valueStr); convErr == nil {
			return time.Duration(secs) * time.Second
		}
		return defaultValue
	}

	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	values := make([]string, 0)
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}

	return values
}
