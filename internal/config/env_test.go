package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestConfigApplyEnv(t *testing.T) {
	t.Parallel()

	t.Run("overrides", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		err := cfg.applyEnv(lookupFrom(map[string]string{
			"DORALSCAN_SEEDS":           "https://a.example.com/, https://b.example.com/",
			"DORALSCAN_RENDERER":        "HTTP",
			"DORALSCAN_CONCURRENCY":     "8",
			"DORALSCAN_MAX_OPEN_PAGES":  "2",
			"DORALSCAN_TIMEOUT":         "45s",
			"DORALSCAN_CRAWL_DELAY":     "250ms",
			"DORALSCAN_PROXY":           "socks5://127.0.0.1:1080",
			"DORALSCAN_ROBOTS":          "true",
			"DORALSCAN_VALIDATE_PHONES": "1",
			"DORALSCAN_SAVE_PARTIAL":    "true",
			"DORALSCAN_REGION":          "ca",
			"DORALSCAN_DB_DIR":          "/tmp/doralscan",
		}))
		if err != nil {
			t.Fatalf("applyEnv() error = %v", err)
		}

		if len(cfg.Seeds) != 2 || cfg.Seeds[1] != "https://b.example.com/" {
			t.Errorf("Seeds = %v", cfg.Seeds)
		}
		if cfg.Renderer != RendererHTTP {
			t.Errorf("Renderer = %q", cfg.Renderer)
		}
		if cfg.Concurrency != 8 || cfg.MaxOpenPages != 2 {
			t.Errorf("Concurrency/MaxOpenPages = %d/%d", cfg.Concurrency, cfg.MaxOpenPages)
		}
		if cfg.Timeout != 45*time.Second || cfg.CrawlDelay != 250*time.Millisecond {
			t.Errorf("Timeout/CrawlDelay = %v/%v", cfg.Timeout, cfg.CrawlDelay)
		}
		if cfg.ProxyAddress != "socks5://127.0.0.1:1080" || !cfg.RespectRobots || !cfg.ValidatePhones || !cfg.SavePartial {
			t.Errorf("cfg = %+v", cfg)
		}
		if cfg.Region != "CA" || cfg.DBDir != "/tmp/doralscan" {
			t.Errorf("Region/DBDir = %q/%q", cfg.Region, cfg.DBDir)
		}
	})

	t.Run("unset keeps defaults", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		if err := cfg.applyEnv(lookupFrom(nil)); err != nil {
			t.Fatalf("applyEnv() error = %v", err)
		}
		if cfg.Concurrency != DefaultConcurrency || cfg.Renderer != DefaultRenderer {
			t.Errorf("cfg = %+v, want defaults", cfg)
		}
	})

	for _, key := range []string{"DORALSCAN_CONCURRENCY", "DORALSCAN_TIMEOUT", "DORALSCAN_TOR"} {
		t.Run("invalid "+key, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			err := cfg.applyEnv(lookupFrom(map[string]string{key: "not-a-value"}))
			if !errors.Is(err, ErrInvalidEnv) {
				t.Errorf("applyEnv() error = %v, want ErrInvalidEnv", err)
			}
		})
	}
}

func TestLoadEnv(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		if err := LoadEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
			t.Errorf("LoadEnv() error = %v", err)
		}
	})

	t.Run("loads variables", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(path, []byte("DORALSCAN_TEST_LOADENV=from-file\n"), 0o600); err != nil {
			t.Fatalf("write env: %v", err)
		}
		t.Cleanup(func() { _ = os.Unsetenv("DORALSCAN_TEST_LOADENV") })

		if err := LoadEnv(path); err != nil {
			t.Fatalf("LoadEnv() error = %v", err)
		}
		if got := os.Getenv("DORALSCAN_TEST_LOADENV"); got != "from-file" {
			t.Errorf("DORALSCAN_TEST_LOADENV = %q, want from-file", got)
		}
	})
}
