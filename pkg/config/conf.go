// Package config reads and writes the app configuration file.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/TechNxt05/revtrust/pkg/oracle"
)

const (
	configFileName = "config.yaml"
	dirMode        = 0700
	fileMode       = 0600
)

// Config represents the app config object.
type Config struct {
	// Oracle selects the adjudication provider; unused until an API
	// key is stored via the auth command.
	Oracle oracle.Config `yaml:"oracle"`

	// AlwaysAdjudicate routes every identifier lookup straight to the
	// oracle before cache or pipeline are tried.
	AlwaysAdjudicate bool `yaml:"always_adjudicate"`

	// ReviewFiles are candidate flat-file corpora for the bounded scan
	// and the precompute job.
	ReviewFiles []string `yaml:"review_files"`

	// Bounded-scan budgets; zero means the package defaults.
	ScanRowBudget   int `yaml:"scan_row_budget"`
	ScanMatchBudget int `yaml:"scan_match_budget"`
}

func getDefaultConfig() *Config {
	return &Config{
		Oracle: oracle.Config{Provider: oracle.ProviderGemini},
		ReviewFiles: []string{
			"data/reviews.csv",
			"data/electronics_small.csv",
		},
	}
}

// Save writes the config to dirPath.
func Save(dirPath string, c *Config) error {
	if dirPath == "" {
		return errors.New("config directory required")
	}
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	path := filepath.Join(dirPath, configFileName)
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return fmt.Errorf("writing config file %s: %w", path, err)
	}
	return nil
}

// ReadOrCreate reads the app config from dirPath or creates the default.
func ReadOrCreate(dirPath string) (*Config, error) {
	if dirPath == "" {
		return nil, errors.New("config directory required")
	}

	if _, err := os.Stat(dirPath); errors.Is(err, os.ErrNotExist) {
		if err := os.Mkdir(dirPath, dirMode); err != nil {
			return nil, fmt.Errorf("creating dir %s: %w", dirPath, err)
		}
	}

	path := filepath.Join(dirPath, configFileName)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating default config", "path", path)
		if err := Save(dirPath, getDefaultConfig()); err != nil {
			return nil, fmt.Errorf("creating default config: %w", err)
		}
	}

	j, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config file %s: %w", path, err)
	}
	defer j.Close()

	b, err := io.ReadAll(j)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("unmarshaling config file %s: %w", path, err)
	}
	return &c, nil
}
