// Package config loads service configuration from a YAML file, a .env file
// and environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/0xcro3dile/pdfchat-go/internal/domain/errs"
)

// DefaultPath is read when no config file is given and it exists.
const DefaultPath = "pdfchat.yaml"

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Chat     ChatConfig     `yaml:"chat"`
	Provider ProviderConfig `yaml:"provider"`
	Timeouts TimeoutConfig  `yaml:"timeouts"`
	Watcher  WatcherConfig  `yaml:"watcher"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	UploadDir   string `yaml:"upload_dir"`
	MaxUploadMB int64  `yaml:"max_upload_mb"`
}

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory" // lost on restart
)

// StoreConfig locates the persisted knowledge base.
type StoreConfig struct {
	Backend string `yaml:"backend"`
	Dir     string `yaml:"dir"`
}

// IngestConfig controls chunking.
type IngestConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// ChatConfig controls retrieval and history.
type ChatConfig struct {
	TopK          int `yaml:"top_k"`
	HistoryWindow int `yaml:"history_window"`
	MaxTurns      int `yaml:"max_turns"`
}

// ProviderConfig points at an OpenAI-compatible API.
type ProviderConfig struct {
	BaseURL        string  `yaml:"base_url"`
	APIKey         string  `yaml:"api_key"`
	ChatModel      string  `yaml:"chat_model"`
	EmbeddingModel string  `yaml:"embedding_model"`
	Temperature    float32 `yaml:"temperature"`
}

// TimeoutConfig bounds each external call.
type TimeoutConfig struct {
	Embedding  time.Duration `yaml:"embedding"`
	Generation time.Duration `yaml:"generation"`
}

// WatcherConfig enables ingestion of files dropped in the upload directory.
type WatcherConfig struct {
	Enabled bool          `yaml:"enabled"`
	Settle  time.Duration `yaml:"settle"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// Default returns the built-in configuration. It has no API key.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":8080",
			UploadDir:   "./document",
			MaxUploadMB: 64,
		},
		Store: StoreConfig{
			Backend: BackendSQLite,
			Dir:     "./data/index",
		},
		Ingest: IngestConfig{
			ChunkSize:    500,
			ChunkOverlap: 100,
		},
		Chat: ChatConfig{
			TopK:          5,
			HistoryWindow: 3,
			MaxTurns:      20,
		},
		Provider: ProviderConfig{
			BaseURL:        "https://generativelanguage.googleapis.com/v1beta/openai/",
			ChatModel:      "gemini-2.0-flash",
			EmbeddingModel: "text-embedding-004",
		},
		Timeouts: TimeoutConfig{
			Embedding:  30 * time.Second,
			Generation: 60 * time.Second,
		},
		Watcher: WatcherConfig{
			Settle: 500 * time.Millisecond,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (or
// DefaultPath if path is empty and that file exists), then .env, then the
// environment. It does not validate.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			path = DefaultPath
		}
	}
	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, errs.E(errs.KindConfiguration, "config.load", err)
		}
	}

	// A missing .env is fine.
	_ = godotenv.Load()

	if err := applyEnv(cfg); err != nil {
		return nil, errs.E(errs.KindConfiguration, "config.env", err)
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	envMappings := map[string]func(string) error{
		"PDFCHAT_SERVER_ADDR":          func(v string) error { cfg.Server.Addr = v; return nil },
		"PDFCHAT_UPLOAD_DIR":           func(v string) error { cfg.Server.UploadDir = v; return nil },
		"PDFCHAT_MAX_UPLOAD_MB":        func(v string) error { return parseInt64(v, &cfg.Server.MaxUploadMB) },
		"PDFCHAT_STORE_BACKEND":        func(v string) error { cfg.Store.Backend = v; return nil },
		"PDFCHAT_STORE_DIR":            func(v string) error { cfg.Store.Dir = v; return nil },
		"PDFCHAT_CHUNK_SIZE":           func(v string) error { return parseInt(v, &cfg.Ingest.ChunkSize) },
		"PDFCHAT_CHUNK_OVERLAP":        func(v string) error { return parseInt(v, &cfg.Ingest.ChunkOverlap) },
		"PDFCHAT_TOP_K":                func(v string) error { return parseInt(v, &cfg.Chat.TopK) },
		"PDFCHAT_HISTORY_WINDOW":       func(v string) error { return parseInt(v, &cfg.Chat.HistoryWindow) },
		"PDFCHAT_MAX_TURNS":            func(v string) error { return parseInt(v, &cfg.Chat.MaxTurns) },
		"PDFCHAT_BASE_URL":             func(v string) error { cfg.Provider.BaseURL = v; return nil },
		"PDFCHAT_API_KEY":              func(v string) error { cfg.Provider.APIKey = v; return nil },
		"PDFCHAT_CHAT_MODEL":           func(v string) error { cfg.Provider.ChatModel = v; return nil },
		"PDFCHAT_EMBEDDING_MODEL":      func(v string) error { cfg.Provider.EmbeddingModel = v; return nil },
		"PDFCHAT_EMBEDDING_TIMEOUT":    func(v string) error { return parseDuration(v, &cfg.Timeouts.Embedding) },
		"PDFCHAT_GENERATION_TIMEOUT":   func(v string) error { return parseDuration(v, &cfg.Timeouts.Generation) },
		"PDFCHAT_WATCHER_ENABLED":      func(v string) error { return parseBool(v, &cfg.Watcher.Enabled) },
		"PDFCHAT_LOG_LEVEL":            func(v string) error { cfg.Log.Level = v; return nil },
		"PDFCHAT_LOG_FORMAT":           func(v string) error { cfg.Log.Format = v; return nil },
		"PDFCHAT_PROVIDER_TEMPERATURE": func(v string) error { return parseFloat32(v, &cfg.Provider.Temperature) },
	}

	for envVar, setter := range envMappings {
		if value := os.Getenv(envVar); value != "" {
			if err := setter(value); err != nil {
				return fmt.Errorf("invalid value for %s: %w", envVar, err)
			}
		}
	}

	// Provider-native key variables are a last resort.
	for _, envVar := range []string{"GOOGLE_API_KEY", "OPENAI_API_KEY"} {
		if cfg.Provider.APIKey != "" {
			break
		}
		cfg.Provider.APIKey = os.Getenv(envVar)
	}
	return nil
}

// Validate reports every problem that would prevent the service from
// running.
func (c *Config) Validate() error {
	var problems []error
	if strings.TrimSpace(c.Provider.APIKey) == "" {
		problems = append(problems, errors.New("provider API key is required (set PDFCHAT_API_KEY or GOOGLE_API_KEY)"))
	}
	if c.Ingest.ChunkSize <= 0 {
		problems = append(problems, fmt.Errorf("ingest.chunk_size must be positive, got %d", c.Ingest.ChunkSize))
	}
	if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		problems = append(problems, fmt.Errorf("ingest.chunk_overlap must be in [0, chunk_size), got %d", c.Ingest.ChunkOverlap))
	}
	if c.Chat.TopK <= 0 {
		problems = append(problems, fmt.Errorf("chat.top_k must be positive, got %d", c.Chat.TopK))
	}
	if c.Chat.HistoryWindow < 0 {
		problems = append(problems, fmt.Errorf("chat.history_window must not be negative, got %d", c.Chat.HistoryWindow))
	}
	if c.Store.Dir == "" {
		problems = append(problems, errors.New("store.dir is required"))
	} else if err := c.checkStoreDir(); err != nil {
		problems = append(problems, err)
	}
	switch c.Store.Backend {
	case BackendSQLite, BackendMemory:
	default:
		problems = append(problems, fmt.Errorf("store.backend must be sqlite or memory, got %q", c.Store.Backend))
	}
	if c.Timeouts.Embedding < 0 || c.Timeouts.Generation < 0 {
		problems = append(problems, errors.New("timeouts must not be negative"))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		problems = append(problems, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}

	if len(problems) == 0 {
		return nil
	}
	return errs.E(errs.KindConfiguration, "config.validate", errors.Join(problems...))
}

// checkStoreDir rejects a store directory whose removal, done on every
// ingest, would take the working directory, the home directory or the
// upload directory with it.
func (c *Config) checkStoreDir() error {
	store, err := filepath.Abs(c.Store.Dir)
	if err != nil {
		return fmt.Errorf("store.dir: %w", err)
	}

	type guarded struct{ name, dir string }
	var protected []guarded
	if wd, err := os.Getwd(); err == nil {
		protected = append(protected, guarded{"the working directory", wd})
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		protected = append(protected, guarded{"the home directory", home})
	}
	if c.Server.UploadDir != "" {
		if upload, err := filepath.Abs(c.Server.UploadDir); err == nil {
			protected = append(protected, guarded{"server.upload_dir", upload})
		}
	}

	for _, p := range protected {
		if contains(store, p.dir) {
			return fmt.Errorf("store.dir %q must not be or contain %s", c.Store.Dir, p.name)
		}
	}
	return nil
}

// contains reports whether path is dir or lies beneath it. Both are absolute.
func contains(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func parseInt(v string, dst *int) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func parseInt64(v string, dst *int64) error {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func parseFloat32(v string, dst *float32) error {
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return err
	}
	*dst = float32(f)
	return nil
}

func parseBool(v string, dst *bool) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}
	*dst = b
	return nil
}

func parseDuration(v string, dst *time.Duration) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
