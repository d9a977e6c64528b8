// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config builds the single types.Config used by every command.
//
// Values come from, highest precedence first: bound command-line flags,
// SCOUT_* environment variables (a .env file is loaded into the
// environment first), the YAML config file, and the defaults below. API
// keys still empty after that are filled from the .secrets directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/journal-scout/internal/collect"
	"github.com/pdiddy/journal-scout/internal/secrets"
	"github.com/pdiddy/journal-scout/pkg/types"
)

// EnvPrefix prefixes every environment variable read by viper.
const EnvPrefix = "SCOUT"

// ErrTrackerNotConfigured is returned by RequireTracker when the tracker
// URL or key is missing.
var ErrTrackerNotConfigured = errors.New("tracker not configured: set SCOUT_TRACKER_URL and SCOUT_TRACKER_KEY (or .secrets/" + secrets.TrackerKey + ")")

// Options locates the optional inputs of Load.
type Options struct {
	// ConfigFile is an explicit config path; it must exist when set.
	// Otherwise scout.yaml is looked up in the working directory.
	ConfigFile string

	// EnvFile is loaded into the environment when present.
	EnvFile string

	// SecretsDir holds one file per credential.
	SecretsDir string

	Logger *zap.Logger
}

// SetDefaults registers every configuration key with its default value.
// Keys must be registered for environment variables to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("output_dir", "reports")
	v.SetDefault("lookback_days", 7)
	v.SetDefault("queries_file", "")
	v.SetDefault("max_per_query", 10)
	v.SetDefault("max_per_category", 15)
	v.SetDefault("min_abstract_length", 50)
	v.SetDefault("max_abstract_length", 1000)

	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("http.user_agent", "journal-scout/0.1")
	v.SetDefault("http.max_retries", 2)

	v.SetDefault("pubmed.base_url", collect.PubMedBaseURL)
	v.SetDefault("pubmed.api_key", "")
	v.SetDefault("pubmed.delay", 400*time.Millisecond)

	v.SetDefault("semantic_scholar.base_url", collect.SemanticScholarBaseURL)
	v.SetDefault("semantic_scholar.api_key", "")
	v.SetDefault("semantic_scholar.delay", 1100*time.Millisecond)

	v.SetDefault("tracker.url", "")
	v.SetDefault("tracker.key", "")
	v.SetDefault("tracker.timeout", 30*time.Second)

	v.SetDefault("ledger_path", "")
	v.SetDefault("metrics_textfile", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads and validates the configuration held by v.
func Load(v *viper.Viper, opts Options) (*types.Config, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", opts.EnvFile, err)
		}
	}

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// JOURNAL_OUTPUT_DIR is what cron setups of the journal scout export.
	if err := v.BindEnv("output_dir", EnvPrefix+"_OUTPUT_DIR", "JOURNAL_OUTPUT_DIR"); err != nil {
		return nil, fmt.Errorf("binding output_dir: %w", err)
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		v.SetConfigName("scout")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}
	if used := v.ConfigFileUsed(); used != "" {
		log.Debug("config file loaded", zap.String("path", used))
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if opts.SecretsDir != "" {
		s, err := secrets.Load(opts.SecretsDir, log)
		if err != nil {
			return nil, err
		}
		secrets.Fill(&cfg.Tracker.Key, s, secrets.TrackerKey)
		secrets.Fill(&cfg.SemanticScholar.APIKey, s, secrets.SemanticScholarKey)
		secrets.Fill(&cfg.PubMed.APIKey, s, secrets.NCBIKey)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the struct constraints of cfg.
func Validate(cfg *types.Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// RequireTracker returns ErrTrackerNotConfigured unless both the tracker
// URL and key are set.
func RequireTracker(cfg *types.Config) error {
	if !cfg.Tracker.Enabled() {
		return ErrTrackerNotConfigured
	}
	return nil
}
