// Package config provides configuration structures and utilities for doralscan.
// It defines crawl settings, the per-seed configuration file, environment
// overrides and report output preferences.
package config
