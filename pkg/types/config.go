// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"path/filepath"
	"time"
)

// HTTPConfig holds shared HTTP settings used by the search sources.
type HTTPConfig struct {
	// Timeout bounds every search request.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "journal-scout/0.1").
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent" validate:"required"`

	// MaxRetries is the number of retries on HTTP 429 before a query is
	// counted as rate limited.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries" validate:"gte=0,lte=10"`
}

// SourceConfig holds per-source endpoint, credentials and pacing.
type SourceConfig struct {
	// BaseURL overrides the API root; tests point it at an httptest server.
	BaseURL string `mapstructure:"base_url" yaml:"base_url" validate:"required,url"`

	// APIKey is an optional key for higher rate limits.
	APIKey string `mapstructure:"api_key" yaml:"api_key,omitempty"`

	// Delay is the minimum spacing between consecutive requests to the source.
	Delay time.Duration `mapstructure:"delay" yaml:"delay" validate:"gte=0"`
}

// TrackerConfig holds the persistence endpoint used by the sync step.
type TrackerConfig struct {
	URL     string        `mapstructure:"url" yaml:"url" validate:"omitempty,url"`
	Key     string        `mapstructure:"key" yaml:"key,omitempty"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
}

// Enabled reports whether both the endpoint and the shared secret are set.
func (c TrackerConfig) Enabled() bool {
	return c.URL != "" && c.Key != ""
}

// LogConfig selects the log level and encoding.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=console json"`
}

// Config is built once at startup and passed to every component.
type Config struct {
	// OutputDir is where rendered reports are written.
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir" validate:"required"`

	// LookbackDays is the publication window searched by the collector.
	LookbackDays int `mapstructure:"lookback_days" yaml:"lookback_days" validate:"gte=1,lte=365"`

	// QueriesFile is an optional YAML query set; empty uses the built-in set.
	QueriesFile string `mapstructure:"queries_file" yaml:"queries_file,omitempty"`

	// MaxPerQuery is the number of hits requested per query.
	MaxPerQuery int `mapstructure:"max_per_query" yaml:"max_per_query" validate:"gte=1,lte=100"`

	// MaxPerCategory caps the papers rendered per report category.
	MaxPerCategory int `mapstructure:"max_per_category" yaml:"max_per_category" validate:"gte=1"`

	// MinAbstractLength discards records whose abstract is not longer than this.
	MinAbstractLength int `mapstructure:"min_abstract_length" yaml:"min_abstract_length" validate:"gte=0"`

	// MaxAbstractLength truncates abstracts, in runes. Zero disables truncation.
	MaxAbstractLength int `mapstructure:"max_abstract_length" yaml:"max_abstract_length" validate:"gte=0"`

	HTTP            HTTPConfig    `mapstructure:"http" yaml:"http"`
	PubMed          SourceConfig  `mapstructure:"pubmed" yaml:"pubmed"`
	SemanticScholar SourceConfig  `mapstructure:"semantic_scholar" yaml:"semantic_scholar"`
	Tracker         TrackerConfig `mapstructure:"tracker" yaml:"tracker"`

	// LedgerPath is the SQLite sync ledger. Empty means <OutputDir>/.scout/ledger.db.
	LedgerPath string `mapstructure:"ledger_path" yaml:"ledger_path,omitempty"`

	// MetricsTextfile, when set, receives Prometheus metrics after each run.
	MetricsTextfile string `mapstructure:"metrics_textfile" yaml:"metrics_textfile,omitempty"`

	Log LogConfig `mapstructure:"log" yaml:"log"`
}

// ResolvedLedgerPath returns LedgerPath or its default under OutputDir.
func (c *Config) ResolvedLedgerPath() string {
	if c.LedgerPath != "" {
		return c.LedgerPath
	}
	return filepath.Join(c.OutputDir, ".scout", "ledger.db")
}

// SourceSettings returns the endpoint settings for a search source.
func (c *Config) SourceSettings(s Source) SourceConfig {
	if s == SourceSemanticScholar {
		return c.SemanticScholar
	}
	return c.PubMed
}
