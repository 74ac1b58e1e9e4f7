// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/nolash/kitab/lib/digest"
)

// EnvironmentVariable names the config file when --config is not given.
const EnvironmentVariable = "KITAB_CONFIG"

// Config is kitab's configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" json:"store"`
	Import  ImportConfig  `yaml:"import" json:"import"`
	Apply   ApplyConfig   `yaml:"apply" json:"apply"`
	Catalog CatalogConfig `yaml:"catalog" json:"catalog"`
	Log     LogConfig     `yaml:"log" json:"log"`
}

// StoreConfig locates the record store.
type StoreConfig struct {
	Directory string `yaml:"directory" json:"directory"`
}

// ImportConfig configures the importer.
type ImportConfig struct {
	// Algorithm hashes files whose metadata comes from extended
	// attributes.
	Algorithm string `yaml:"algorithm" json:"algorithm"`
	// MaxSourceSize bounds the record and bibliography files the
	// importer parses, in bytes.
	MaxSourceSize int64 `yaml:"max_source_size" json:"max_source_size"`
}

// ApplyConfig configures the apply flow.
type ApplyConfig struct {
	// Algorithms are the candidate digests, tried in order.
	Algorithms []string `yaml:"algorithms" json:"algorithms"`
}

// CatalogConfig configures the search index.
type CatalogConfig struct {
	Path string `yaml:"path" json:"path"`
	// AutoIndex adds imported records to the catalog as they are stored.
	AutoIndex bool `yaml:"auto_index" json:"auto_index"`
}

// LogConfig configures command logging.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	Level string `yaml:"level" json:"level"`
	// Format is text, json, or auto (text on a terminal, JSON
	// otherwise).
	Format string `yaml:"format" json:"format"`
}

// DataDir returns kitab's default data directory.
func DataDir() string {
	if base := os.Getenv("XDG_DATA_HOME"); base != "" {
		return filepath.Join(base, "kitab")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "kitab")
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	data := DataDir()
	return &Config{
		Store:   StoreConfig{Directory: filepath.Join(data, "idx")},
		Import:  ImportConfig{Algorithm: digest.SHA512.String(), MaxSourceSize: 16 << 20},
		Apply:   ApplyConfig{Algorithms: []string{"sha512", "sha256", "md5", "bzz"}},
		Catalog: CatalogConfig{Path: filepath.Join(data, "catalog.db"), AutoIndex: true},
		Log:     LogConfig{Level: "info", Format: "auto"},
	}
}

// Load reads the file named by KITAB_CONFIG, or returns Default when
// the variable is unset.
func Load() (*Config, error) {
	path := os.Getenv(EnvironmentVariable)
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads the configuration file at path over the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	config := Default()
	if err := config.decode(path, data); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	config.expandVariables()
	return config, nil
}

func (c *Config) decode(path string, data []byte) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	case ".json", ".jsonc":
		decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		decoder.DisallowUnknownFields()
		return decoder.Decode(c)
	default:
		return fmt.Errorf("unsupported config format %q (want .yaml, .yml, .json, or .jsonc)", filepath.Ext(path))
	}
}

func (c *Config) expandVariables() {
	vars := map[string]string{
		"KITAB_DATA": DataDir(),
		"HOME":       os.Getenv("HOME"),
	}
	c.Store.Directory = expandVars(c.Store.Directory, vars)
	c.Catalog.Path = expandVars(c.Catalog.Path, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars replaces ${VAR} and ${VAR:-default}. vars take precedence
// over the environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name, fallback := parts[1], parts[2]
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return fallback
	})
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Store.Directory == "" {
		errs = append(errs, errors.New("store.directory is required"))
	}
	if _, err := c.ImportAlgorithm(); err != nil {
		errs = append(errs, fmt.Errorf("import.algorithm: %w", err))
	}
	if c.Import.MaxSourceSize < 0 {
		errs = append(errs, errors.New("import.max_source_size must not be negative"))
	}
	if len(c.Apply.Algorithms) == 0 {
		errs = append(errs, errors.New("apply.algorithms must name at least one algorithm"))
	}
	if _, err := c.ApplyAlgorithms(); err != nil {
		errs = append(errs, fmt.Errorf("apply.algorithms: %w", err))
	}
	if c.Catalog.Path == "" {
		errs = append(errs, errors.New("catalog.path is required"))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "auto", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be one of auto, text, json, not %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// ImportAlgorithm parses Import.Algorithm.
func (c *Config) ImportAlgorithm() (digest.Algorithm, error) {
	return digest.ParseAlgorithm(c.Import.Algorithm)
}

// ApplyAlgorithms parses Apply.Algorithms, dropping duplicates.
func (c *Config) ApplyAlgorithms() ([]digest.Algorithm, error) {
	var algorithms []digest.Algorithm
	seen := make(map[digest.Algorithm]bool)
	for _, name := range c.Apply.Algorithms {
		algorithm, err := digest.ParseAlgorithm(name)
		if err != nil {
			return nil, err
		}
		if seen[algorithm] {
			continue
		}
		seen[algorithm] = true
		algorithms = append(algorithms, algorithm)
	}
	return algorithms, nil
}

// ParseLevel parses a log level name.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}

// EnsurePaths creates the store directory and the catalog's parent
// directory.
func (c *Config) EnsurePaths() error {
	for _, dir := range []string{c.Store.Directory, filepath.Dir(c.Catalog.Path)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: creating %s: %w", dir, err)
		}
	}
	return nil
}
