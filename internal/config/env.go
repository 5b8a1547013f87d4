package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "DORALSCAN_"

// LoadEnv loads variables from a dotenv file into the process environment.
// Variables already set are not overridden. A missing file is not an error.
// An empty path means ".env" in the current directory.
func LoadEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides c with DORALSCAN_* variables from the process
// environment.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

// applyEnv reads variables through lookup so tests need not touch the
// process environment.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return "", false
		}
		return strings.TrimSpace(v), true
	}

	if v, ok := get("SEEDS"); ok && v != "" {
		c.Seeds = splitList(v)
	}
	if v, ok := get("RENDERER"); ok && v != "" {
		c.Renderer = strings.ToLower(v)
	}
	if v, ok := get("PROXY"); ok {
		c.ProxyAddress = v
	}
	if v, ok := get("REGION"); ok && v != "" {
		c.Region = strings.ToUpper(v)
	}
	if v, ok := get("USER_AGENT"); ok && v != "" {
		c.UserAgent = v
	}
	if v, ok := get("CHROME_PATH"); ok {
		c.ChromePath = v
	}
	if v, ok := get("DB_DIR"); ok && v != "" {
		c.DBDir = v
	}
	if v, ok := get("LOG_FILE"); ok {
		c.LogFile = v
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"CONCURRENCY", &c.Concurrency},
		{"MAX_OPEN_PAGES", &c.MaxOpenPages},
		{"BATCH_SIZE", &c.BatchSize},
	}
	for _, e := range ints {
		if v, ok := get(e.name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: %s%s=%q", ErrInvalidEnv, EnvPrefix, e.name, v)
			}
			*e.dst = n
		}
	}

	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"TIMEOUT", &c.Timeout},
		{"CRAWL_DELAY", &c.CrawlDelay},
	}
	for _, e := range durations {
		if v, ok := get(e.name); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%w: %s%s=%q", ErrInvalidEnv, EnvPrefix, e.name, v)
			}
			*e.dst = d
		}
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"TOR", &c.UseTor},
		{"ROBOTS", &c.RespectRobots},
		{"VALIDATE_PHONES", &c.ValidatePhones},
		{"SAVE_PARTIAL", &c.SavePartial},
		{"VERBOSE", &c.Verbose},
	}
	for _, e := range bools {
		if v, ok := get(e.name); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%w: %s%s=%q", ErrInvalidEnv, EnvPrefix, e.name, v)
			}
			*e.dst = b
		}
	}

	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
