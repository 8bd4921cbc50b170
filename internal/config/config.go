// Package config loads the TOML configuration for the metagame pipeline.
// The policy decisions the engines refuse to make silently (draw
// counting, unknown-archetype handling, confidence level, presence gate)
// live here, explicitly.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/mtgtools/metagame/internal/reconcile"
	"github.com/mtgtools/metagame/internal/stats"
)

// Config represents the application configuration.
type Config struct {
	// Sources configures the decklist and match feeds.
	Sources SourcesConfig `toml:"sources"`

	// Rules configures archetype rule loading.
	Rules RulesConfig `toml:"rules"`

	// Reconcile holds the match-reconciliation policy.
	Reconcile ReconcileConfig `toml:"reconcile"`

	// Stats holds the statistics engine settings.
	Stats StatsConfig `toml:"stats"`

	// Database configures local storage.
	Database DatabaseConfig `toml:"database"`

	// Server configures the report API server.
	Server ServerConfig `toml:"server"`
}

// SourcesConfig contains feed locations. File paths and site URLs are
// both optional; at least one decklist and one match source must be set
// for the pipeline to run.
type SourcesConfig struct {
	DecklistPath string   `toml:"decklist_path"` // JSON file or directory
	MatchPath    string   `toml:"match_path"`    // JSON file or directory
	DecklistURL  string   `toml:"decklist_url"`  // decklist site base URL
	ResultsURL   string   `toml:"results_url"`   // results site base URL
	Tournaments  []string `toml:"tournaments"`   // tournament IDs to fetch remotely
	SessionFile  string   `toml:"session_file"`  // encrypted session cookie file
	CacheTTL     string   `toml:"cache_ttl"`     // remote page cache TTL (e.g., "6h")
}

// RulesConfig contains archetype rule loading settings.
type RulesConfig struct {
	Path string `toml:"path"` // rule file, or directory with index.toml
}

// ReconcileConfig contains the reconciliation policy and join settings.
type ReconcileConfig struct {
	CountDraws    bool `toml:"count_draws"`    // draws count toward matches played
	UnknownBucket bool `toml:"unknown_bucket"` // aggregate unresolved archetypes as "Unknown"
	KeyWidth      int  `toml:"key_width"`      // digits of the tournament join key
	ExactKeys     bool `toml:"exact_keys"`     // join on raw tournament IDs instead
}

// StatsConfig contains statistics engine settings.
type StatsConfig struct {
	ConfidenceLevel float64 `toml:"confidence_level"` // 0.90, 0.95 or 0.99
	MinPresence     float64 `toml:"min_presence"`     // composite score gate, percent
	SortBy          string  `toml:"sort_by"`          // presence, winrate or score
	Period          string  `toml:"period"`           // lookback, e.g. "8w" or "all"
}

// DatabaseConfig contains local storage settings.
type DatabaseConfig struct {
	Path string `toml:"path"` // SQLite database file
}

// ServerConfig contains report API server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Sources: SourcesConfig{
			DecklistPath: "data/decklists",
			MatchPath:    "data/matches",
			SessionFile:  "",
			CacheTTL:     "6h",
		},
		Rules: RulesConfig{
			Path: "rules",
		},
		Reconcile: ReconcileConfig{
			CountDraws:    true,
			UnknownBucket: false,
			KeyWidth:      reconcile.DefaultKeyWidth,
		},
		Stats: StatsConfig{
			ConfidenceLevel: 0.95,
			MinPresence:     2.0,
			SortBy:          string(stats.SortByPresence),
			Period:          "all",
		},
		Database: DatabaseConfig{
			Path: "metagame.db",
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8085,
		},
	}
}

// DefaultPath returns the default configuration file location.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".metagame")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.toml"), nil
}

// Load loads the configuration from path. A missing file yields the
// defaults; a present but invalid file is an error.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return config, nil
}

// Save saves the configuration to path.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if err := c.StatsConfig().Validate(); err != nil {
		return err
	}
	if _, err := stats.ParsePeriod(c.Stats.Period, time.Now()); err != nil {
		return err
	}
	if c.Reconcile.KeyWidth < 0 {
		return fmt.Errorf("key width cannot be negative: %d", c.Reconcile.KeyWidth)
	}
	if c.Sources.CacheTTL != "" {
		if _, err := time.ParseDuration(c.Sources.CacheTTL); err != nil {
			return fmt.Errorf("invalid cache TTL %q: %w", c.Sources.CacheTTL, err)
		}
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	return nil
}

// Policy returns the reconciliation policy from the config.
func (c *Config) Policy() reconcile.Policy {
	return reconcile.Policy{
		CountDraws:    c.Reconcile.CountDraws,
		UnknownBucket: c.Reconcile.UnknownBucket,
	}
}

// KeyExtractor returns the configured tournament key extractor.
func (c *Config) KeyExtractor() reconcile.KeyExtractor {
	if c.Reconcile.ExactKeys {
		return reconcile.ExactExtractor{}
	}
	width := c.Reconcile.KeyWidth
	if width == 0 {
		width = reconcile.DefaultKeyWidth
	}
	return reconcile.DigitRunExtractor{Width: width}
}

// StatsConfig returns the statistics engine configuration.
func (c *Config) StatsConfig() *stats.Config {
	return &stats.Config{
		ConfidenceLevel: c.Stats.ConfidenceLevel,
		MinPresence:     c.Stats.MinPresence,
		SortBy:          stats.SortKey(c.Stats.SortBy),
	}
}

// GetCacheTTL returns the remote cache TTL as a duration.
func (c *Config) GetCacheTTL() (time.Duration, error) {
	if c.Sources.CacheTTL == "" {
		return 6 * time.Hour, nil
	}
	return time.ParseDuration(c.Sources.CacheTTL)
}
