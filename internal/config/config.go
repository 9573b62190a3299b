// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"poolchem/internal/errors"
	"poolchem/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Catalog locates the test catalog and recommendation store
	Catalog CatalogConfig `json:"catalog"`

	// Resolver tunes exception resolution
	Resolver ResolverConfig `json:"resolver"`

	// Report contains report output configuration
	Report ReportConfig `json:"report"`

	// Units contains display unit fallbacks
	Units UnitsConfig `json:"units"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// CatalogConfig contains catalog settings
type CatalogConfig struct {
	// Path is an HCL catalog file; empty selects the embedded catalog
	Path string `json:"path"`
}

// ResolverConfig contains exception resolver settings
type ResolverConfig struct {
	// StrictAmbiguity turns equally ranked matching variants into errors
	StrictAmbiguity bool `json:"strict_ambiguity"`
}

// ReportConfig contains report settings
type ReportConfig struct {
	// Format is the default output format (text, json)
	Format string `json:"format"`

	// ShowRanges prints min/max next to each value
	ShowRanges bool `json:"show_ranges"`

	// DecimalPlaces is the rounding applied to dosage amounts
	DecimalPlaces int32 `json:"decimal_places"`
}

// UnitsConfig contains unit fallbacks used when a product has no metric
type UnitsConfig struct {
	DisplayMass   string `json:"display_mass"`
	DisplayVolume string `json:"display_volume"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version: "1.0",
		Report: ReportConfig{
			Format:        "text",
			ShowRanges:    true,
			DecimalPlaces: 2,
		},
		Units: UnitsConfig{
			DisplayMass:   "g",
			DisplayVolume: "ml",
		},
		Logging: logging.DefaultConfig(),
	}
}

// DefaultPath returns $HOME/.poolchem.json
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".poolchem.json")
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errors.Wrap(errors.TypeConfig, "read config", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "parse config "+path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks value ranges that JSON decoding cannot express
func (c *Config) Validate() error {
	switch c.Report.Format {
	case "text", "json":
	default:
		return errors.Newf(errors.TypeConfig, "report.format must be text or json, got %q", c.Report.Format)
	}
	if c.Report.DecimalPlaces < 0 || c.Report.DecimalPlaces > 6 {
		return errors.Newf(errors.TypeConfig, "report.decimal_places must be between 0 and 6, got %d", c.Report.DecimalPlaces)
	}
	return nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
