package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mtgtools/metagame/internal/reconcile"
	"github.com/mtgtools/metagame/internal/stats"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if !cfg.Reconcile.CountDraws {
		t.Error("draws should count by default")
	}
	if cfg.Reconcile.UnknownBucket {
		t.Error("unknown bucket should be off by default")
	}
	if cfg.Stats.MinPresence != 2.0 {
		t.Errorf("min presence = %v, want 2.0", cfg.Stats.MinPresence)
	}
}

func TestLoadSave(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.Stats.ConfidenceLevel != 0.95 {
			t.Errorf("confidence = %v, want default 0.95", cfg.Stats.ConfidenceLevel)
		}
	})

	t.Run("round-trip preserves values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")

		cfg := DefaultConfig()
		cfg.Reconcile.UnknownBucket = true
		cfg.Stats.SortBy = "winrate"
		cfg.Sources.Tournaments = []string{"1234567", "7654321"}
		if err := cfg.Save(path); err != nil {
			t.Fatalf("Save: %v", err)
		}

		loaded, err := Load(path)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if !loaded.Reconcile.UnknownBucket {
			t.Error("unknown bucket flag lost")
		}
		if loaded.Stats.SortBy != "winrate" {
			t.Errorf("sort by = %q", loaded.Stats.SortBy)
		}
		if len(loaded.Sources.Tournaments) != 2 {
			t.Errorf("tournaments = %v", loaded.Sources.Tournaments)
		}
	})

	t.Run("partial file keeps defaults for missing keys", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := "[stats]\nconfidence_level = 0.99\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.Stats.ConfidenceLevel != 0.99 {
			t.Errorf("confidence = %v, want 0.99", cfg.Stats.ConfidenceLevel)
		}
		if cfg.Stats.MinPresence != 2.0 {
			t.Errorf("min presence = %v, want default 2.0", cfg.Stats.MinPresence)
		}
	})

	t.Run("malformed TOML is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("[stats\n"), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"bad confidence", func(c *Config) { c.Stats.ConfidenceLevel = 0.5 }, true},
		{"bad sort key", func(c *Config) { c.Stats.SortBy = "elo" }, true},
		{"bad period", func(c *Config) { c.Stats.Period = "5y" }, true},
		{"negative key width", func(c *Config) { c.Reconcile.KeyWidth = -1 }, true},
		{"bad cache ttl", func(c *Config) { c.Sources.CacheTTL = "soon" }, true},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDerivedSettings(t *testing.T) {
	cfg := DefaultConfig()

	if policy := cfg.Policy(); policy != (reconcile.Policy{CountDraws: true}) {
		t.Errorf("policy = %+v", policy)
	}

	if _, ok := cfg.KeyExtractor().(reconcile.DigitRunExtractor); !ok {
		t.Errorf("default extractor should be the digit-run heuristic")
	}

	cfg.Reconcile.ExactKeys = true
	if _, ok := cfg.KeyExtractor().(reconcile.ExactExtractor); !ok {
		t.Errorf("exact_keys should select the exact extractor")
	}

	if sc := cfg.StatsConfig(); sc.SortBy != stats.SortByPresence {
		t.Errorf("stats sort = %v", sc.SortBy)
	}
}
