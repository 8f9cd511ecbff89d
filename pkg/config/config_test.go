package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-drift/geokit/pkg/mapview"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "geokit.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoadOptionalMissingFile(t *testing.T) {
	cfg, err := LoadOptional(t.TempDir())
	if err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if cfg.Location.HighAccuracy != nil || cfg.Map.AutoPanMode != "" {
		t.Errorf("expected empty config, got %+v", cfg)
	}
}

func TestLoadOptionalInvalidYAML(t *testing.T) {
	dir := writeConfig(t, "location: [not a map")
	if _, err := LoadOptional(dir); err == nil {
		t.Error("expected parse error")
	}
}

func TestResolveDefaults(t *testing.T) {
	res, err := Resolve(t.TempDir())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !res.Location.HighAccuracy {
		t.Error("expected high accuracy by default")
	}
	if res.Location.DistanceFilter != DefaultDistanceFilter {
		t.Errorf("DistanceFilter = %v, want %v", res.Location.DistanceFilter, DefaultDistanceFilter)
	}
	if res.Location.IntervalMs != DefaultIntervalMs {
		t.Errorf("IntervalMs = %d, want %d", res.Location.IntervalMs, DefaultIntervalMs)
	}
	if res.AutoPanMode != mapview.AutoPanRecenter {
		t.Errorf("AutoPanMode = %v, want recenter", res.AutoPanMode)
	}
}

func TestResolveFullConfig(t *testing.T) {
	dir := writeConfig(t, `
location:
  highAccuracy: false
  distanceFilter: 25.5
  intervalMs: 5000
  fastestIntervalMs: 2000
map:
  autoPanMode: compassNavigation
`)
	res, err := Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Location.HighAccuracy {
		t.Error("expected high accuracy disabled")
	}
	if res.Location.DistanceFilter != 25.5 {
		t.Errorf("DistanceFilter = %v, want 25.5", res.Location.DistanceFilter)
	}
	if res.Location.IntervalMs != 5000 {
		t.Errorf("IntervalMs = %d, want 5000", res.Location.IntervalMs)
	}
	if res.Location.FastestIntervalMs != 2000 {
		t.Errorf("FastestIntervalMs = %d, want 2000", res.Location.FastestIntervalMs)
	}
	if res.AutoPanMode != mapview.AutoPanCompassNavigation {
		t.Errorf("AutoPanMode = %v, want compassNavigation", res.AutoPanMode)
	}
}

func TestResolveInvalidAutoPanMode(t *testing.T) {
	dir := writeConfig(t, "map:\n  autoPanMode: follow\n")
	_, err := Resolve(dir)
	if err == nil {
		t.Fatal("expected error for unknown autoPanMode")
	}
	if !strings.Contains(err.Error(), "autoPanMode") {
		t.Errorf("error should name the field, got %q", err)
	}
}

func TestResolveNegativeValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"distanceFilter", "location:\n  distanceFilter: -1\n"},
		{"intervalMs", "location:\n  intervalMs: -100\n"},
		{"fastestIntervalMs", "location:\n  fastestIntervalMs: -5\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := writeConfig(t, tc.content)
			if _, err := Resolve(dir); err == nil {
				t.Errorf("expected error for negative %s", tc.name)
			}
		})
	}
}
