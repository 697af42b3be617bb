package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	LLM         LLMConfig       `toml:"llm"`
	OpenAI      OpenAIConfig    `toml:"openai"`
	Claude      ClaudeConfig    `toml:"claude"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Crawler     CrawlerConfig   `toml:"crawler"`
	Tasks       TasksConfig     `toml:"tasks"`
	Batch       BatchConfig     `toml:"batch"`
	Backup      BackupConfig    `toml:"backup"`
	WebSocket   WebSocketConfig `toml:"websocket"`
	GitHub      GitHubConfig    `toml:"github"`
	Inbox       InboxConfig     `toml:"inbox"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderOpenAI uses any OpenAI-compatible chat completions endpoint
	LLMProviderOpenAI LLMProvider = "openai"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
)

// LLMConfig contains settings shared by all AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "openai", "claude" or "gemini" (default: "openai")
	Timeout         string      `toml:"timeout"`          // Per-call timeout (default: "60s")
	MaxRetries      int         `toml:"max_retries"`      // Retries on rate limit errors (default: 2)
}

// OpenAIConfig contains configuration for OpenAI-compatible endpoints
type OpenAIConfig struct {
	APIKey      string  `toml:"api_key"`
	BaseURL     string  `toml:"base_url"`    // default: "https://api.openai.com/v1"
	Model       string  `toml:"model"`       // default: "gpt-4o-mini"
	MaxTokens   int     `toml:"max_tokens"`  // default: 1000
	Temperature float32 `toml:"temperature"` // default: 0.3
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float32 `toml:"temperature"`
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Temperature float32 `toml:"temperature"`
}

// CrawlerConfig controls page fetching for enrichment and page info
type CrawlerConfig struct {
	Timeout           string  `toml:"timeout"`             // HTTP timeout per page (default: "10s")
	UserAgent         string  `toml:"user_agent"`          // User-Agent header sent to sites
	MaxContentChars   int     `toml:"max_content_chars"`   // Extracted content limit (default: 5000)
	RequestsPerSecond float64 `toml:"requests_per_second"` // Outbound fetch rate (default: 2)
	Burst             int     `toml:"burst"`               // Limiter burst (default: 2)
	BrowserFallback   bool    `toml:"browser_fallback"`    // Render pages without static content in headless Chrome
	ChromePath        string  `toml:"chrome_path"`         // Chrome binary; empty searches the usual locations
	RenderWait        string  `toml:"render_wait"`         // Wait after navigation before reading the DOM (default: "2s")
}

// TasksConfig controls the in-memory batch task registry
type TasksConfig struct {
	Retention string `toml:"retention"` // Completed tasks older than this are evicted (default: "1h")
}

// BatchConfig controls detached batch runs
type BatchConfig struct {
	RunTimeout string `toml:"run_timeout"` // Upper bound for one detached run (default: "2h")
}

// BackupConfig holds defaults for WebDAV backup when no setting has been saved yet
type BackupConfig struct {
	DefaultTime        string `toml:"default_time"`         // HH:MM (default: "02:00")
	DefaultPath        string `toml:"default_path"`         // Remote directory (default: "litemark-backup/")
	DefaultKeepBackups int    `toml:"default_keep_backups"` // Files kept after cleanup (default: 7)
	Timeout            string `toml:"timeout"`              // WebDAV request timeout (default: "30s")
}

// WebSocketConfig controls the /ws progress stream
type WebSocketConfig struct {
	ProgressInterval string `toml:"progress_interval"` // Minimum gap between task_progress messages per task (default: "250ms")
}

// GitHubConfig controls importing starred repositories as bookmarks
type GitHubConfig struct {
	Token    string `toml:"token"`    // Personal access token; empty makes unauthenticated calls
	BaseURL  string `toml:"base_url"` // API root for GitHub Enterprise (default: public API)
	Category string `toml:"category"` // Category for imported stars (default: "GitHub Stars")
}

// InboxConfig controls save-by-email polling. Credentials live in settings.
type InboxConfig struct {
	PollInterval string `toml:"poll_interval"` // How often to check the mailbox; empty disables polling
	Timeout      string `toml:"timeout"`       // IMAP dial timeout (default: "30s")
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderOpenAI,
			Timeout:         "60s",
			MaxRetries:      2,
		},
		OpenAI: OpenAIConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			MaxTokens:   1000,
			Temperature: 0.3,
		},
		Claude: ClaudeConfig{
			Model:       "claude-3-5-haiku-20241022",
			MaxTokens:   1000,
			Temperature: 0.3,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.0-flash",
			Temperature: 0.3,
		},
		Crawler: CrawlerConfig{
			Timeout:           "10s",
			UserAgent:         "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
			MaxContentChars:   5000,
			RequestsPerSecond: 2,
			Burst:             2,
			RenderWait:        "2s",
		},
		Tasks: TasksConfig{
			Retention: "1h",
		},
		Batch: BatchConfig{
			RunTimeout: "2h",
		},
		Backup: BackupConfig{
			DefaultTime:        "02:00",
			DefaultPath:        "litemark-backup/",
			DefaultKeepBackups: 7,
			Timeout:            "30s",
		},
		WebSocket: WebSocketConfig{
			ProgressInterval: "250ms",
		},
		GitHub: GitHubConfig{
			Category: "GitHub Stars",
		},
		Inbox: InboxConfig{
			Timeout: "30s",
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority: default -> file1 -> file2 -> ... -> env
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal merges into the existing values
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("LITEMARK_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("LITEMARK_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("LITEMARK_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if path := os.Getenv("LITEMARK_STORAGE_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}
	if reset := os.Getenv("LITEMARK_STORAGE_BADGER_RESET_ON_STARTUP"); reset != "" {
		config.Storage.Badger.ResetOnStartup = reset == "true" || reset == "1"
	}

	// Logging configuration
	if level := os.Getenv("LITEMARK_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("LITEMARK_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// LLM configuration
	if provider := os.Getenv("LITEMARK_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(strings.ToLower(provider))
	}
	if timeout := os.Getenv("LITEMARK_LLM_TIMEOUT"); timeout != "" {
		config.LLM.Timeout = timeout
	}
	if apiKey := os.Getenv("LITEMARK_OPENAI_API_KEY"); apiKey != "" {
		config.OpenAI.APIKey = apiKey
	} else if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" && config.OpenAI.APIKey == "" {
		config.OpenAI.APIKey = apiKey
	}
	if baseURL := os.Getenv("LITEMARK_OPENAI_BASE_URL"); baseURL != "" {
		config.OpenAI.BaseURL = baseURL
	}
	if model := os.Getenv("LITEMARK_OPENAI_MODEL"); model != "" {
		config.OpenAI.Model = model
	}
	if apiKey := os.Getenv("LITEMARK_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	} else if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" && config.Claude.APIKey == "" {
		config.Claude.APIKey = apiKey
	}
	if model := os.Getenv("LITEMARK_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if apiKey := os.Getenv("LITEMARK_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("LITEMARK_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}

	// Crawler configuration
	if timeout := os.Getenv("LITEMARK_CRAWLER_TIMEOUT"); timeout != "" {
		config.Crawler.Timeout = timeout
	}
	if rps := os.Getenv("LITEMARK_CRAWLER_REQUESTS_PER_SECOND"); rps != "" {
		if v, err := strconv.ParseFloat(rps, 64); err == nil {
			config.Crawler.RequestsPerSecond = v
		}
	}
	if fallback := os.Getenv("LITEMARK_CRAWLER_BROWSER_FALLBACK"); fallback != "" {
		config.Crawler.BrowserFallback = fallback == "true" || fallback == "1"
	}
	if chromePath := os.Getenv("LITEMARK_CRAWLER_CHROME_PATH"); chromePath != "" {
		config.Crawler.ChromePath = chromePath
	}

	// Tasks and batch configuration
	if retention := os.Getenv("LITEMARK_TASKS_RETENTION"); retention != "" {
		config.Tasks.Retention = retention
	}
	if runTimeout := os.Getenv("LITEMARK_BATCH_RUN_TIMEOUT"); runTimeout != "" {
		config.Batch.RunTimeout = runTimeout
	}

	// Backup configuration
	if backupTime := os.Getenv("LITEMARK_BACKUP_DEFAULT_TIME"); backupTime != "" {
		config.Backup.DefaultTime = backupTime
	}
	if timeout := os.Getenv("LITEMARK_BACKUP_TIMEOUT"); timeout != "" {
		config.Backup.Timeout = timeout
	}

	// GitHub and inbox configuration
	if token := os.Getenv("LITEMARK_GITHUB_TOKEN"); token != "" {
		config.GitHub.Token = token
	} else if token := os.Getenv("GITHUB_TOKEN"); token != "" && config.GitHub.Token == "" {
		config.GitHub.Token = token
	}
	if interval := os.Getenv("LITEMARK_INBOX_POLL_INTERVAL"); interval != "" {
		config.Inbox.PollInterval = interval
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// ParseDurationOr parses s as a duration, returning fallback when s is empty or invalid.
func ParseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
