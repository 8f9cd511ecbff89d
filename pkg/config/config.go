// Package config loads the optional geokit.yaml application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/go-drift/geokit/pkg/mapview"
	"github.com/go-drift/geokit/pkg/platform"
)

// Config represents the optional geokit.yaml configuration.
type Config struct {
	Location LocationConfig `yaml:"location"`
	Map      MapConfig      `yaml:"map"`
}

// LocationConfig contains location stream settings.
type LocationConfig struct {
	// HighAccuracy requests the highest available accuracy. Defaults to true.
	HighAccuracy *bool `yaml:"highAccuracy,omitempty"`
	// DistanceFilter is the minimum distance in meters between updates.
	DistanceFilter float64 `yaml:"distanceFilter,omitempty"`
	// IntervalMs is the desired update interval in milliseconds.
	IntervalMs int64 `yaml:"intervalMs,omitempty"`
	// FastestIntervalMs is the fastest acceptable update interval (Android).
	FastestIntervalMs int64 `yaml:"fastestIntervalMs,omitempty"`
}

// MapConfig contains map display settings.
type MapConfig struct {
	// AutoPanMode is one of off, recenter, navigation, compassNavigation.
	AutoPanMode string `yaml:"autoPanMode,omitempty"`
}

// Resolved contains resolved configuration values with defaults applied.
type Resolved struct {
	// Location is ready to pass to the platform location service.
	Location platform.LocationOptions
	// AutoPanMode is the parsed map follow mode.
	AutoPanMode mapview.AutoPanMode
}

// Default values applied when geokit.yaml is absent or fields are unset.
const (
	DefaultDistanceFilter = 10.0
	DefaultIntervalMs     = 1000
	DefaultAutoPanMode    = "recenter"
)

// LoadOptional reads geokit.yaml from dir if present. A missing file is not
// an error and yields an empty config.
func LoadOptional(dir string) (*Config, error) {
	path := filepath.Join(dir, "geokit.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read geokit.yaml: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse geokit.yaml: %w", err)
	}

	return &cfg, nil
}

// Resolve loads geokit.yaml (if present) and resolves defaults.
func Resolve(dir string) (*Resolved, error) {
	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}
	return resolve(cfg)
}

func resolve(cfg *Config) (*Resolved, error) {
	highAccuracy := true
	if cfg.Location.HighAccuracy != nil {
		highAccuracy = *cfg.Location.HighAccuracy
	}

	distanceFilter := cfg.Location.DistanceFilter
	if distanceFilter == 0 {
		distanceFilter = DefaultDistanceFilter
	}
	if distanceFilter < 0 {
		return nil, fmt.Errorf("location.distanceFilter must not be negative (got %v)", distanceFilter)
	}

	intervalMs := cfg.Location.IntervalMs
	if intervalMs == 0 {
		intervalMs = DefaultIntervalMs
	}
	if intervalMs < 0 {
		return nil, fmt.Errorf("location.intervalMs must not be negative (got %d)", intervalMs)
	}

	fastest := cfg.Location.FastestIntervalMs
	if fastest < 0 {
		return nil, fmt.Errorf("location.fastestIntervalMs must not be negative (got %d)", fastest)
	}

	modeText := cfg.Map.AutoPanMode
	if modeText == "" {
		modeText = DefaultAutoPanMode
	}
	mode, err := mapview.ParseAutoPanMode(modeText)
	if err != nil {
		return nil, fmt.Errorf("map.autoPanMode: %w", err)
	}

	return &Resolved{
		Location: platform.LocationOptions{
			HighAccuracy:      highAccuracy,
			DistanceFilter:    distanceFilter,
			IntervalMs:        intervalMs,
			FastestIntervalMs: fastest,
		},
		AutoPanMode: mode,
	}, nil
}
