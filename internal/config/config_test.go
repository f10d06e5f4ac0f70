package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadWithCSVCatalog(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeFile(t, dir, "runways.csv", `id,name,threshold_elevation_m,rdh_m
ZBAA_01,Beijing Capital 01,25.5,15.0
ZBAA_19,Beijing Capital 19,30.2,
# retired
ZUUU_02L,Chengdu Shuangliu 02L,495.0,16.5
`)

	cfgPath := writeFile(t, dir, "config.toml", `
[server]
port = 9090
additional_ports = [9091]

[logging]
level = "debug"
format = "json"

[runways]
db_path = "`+filepath.ToSlash(csvPath)+`"
default_id = "ZBAA_01"

[[runways.entries]]
id = "TEST_00"
name = "Sea level strip"
threshold_elevation_m = 0.0
reference_datum_height_m = 0.0

[approach]
gate_buffer_km = 0.0
`)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []int{9091}, cfg.Server.AdditionalPorts)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Missing keys keep defaults, explicit zeros are preserved
	assert.Equal(t, 3.0, cfg.Approach.DescentAngleDeg)
	assert.Equal(t, 0.0, cfg.Approach.GateBufferKm)
	assert.Equal(t, 15.0, cfg.Approach.ReferenceDatumHeightM)
	assert.Equal(t, 25.0, cfg.Plot.MaxKm)
	assert.Equal(t, 250, cfg.Plot.Samples)

	require.Len(t, cfg.Runways.Entries, 4)
	assert.Equal(t, "TEST_00", cfg.Runways.Entries[0].ID)
	require.NotNil(t, cfg.Runways.Entries[0].ReferenceDatumHeightM)
	assert.Equal(t, 0.0, *cfg.Runways.Entries[0].ReferenceDatumHeightM)

	zbaa19 := cfg.Runways.Entries[2]
	assert.Equal(t, "ZBAA_19", zbaa19.ID)
	require.NotNil(t, zbaa19.ReferenceDatumHeightM)
	assert.Equal(t, 15.0, *zbaa19.ReferenceDatumHeightM, "empty RDH takes the approach default")

	profile := cfg.Runways.Entries[1].RunwayProfile()
	assert.Equal(t, 40.5, profile.OriginAltitude())

	assert.Equal(t, "ZBAA_01", cfg.Runways.DefaultID)
}

func TestParseRunwaysCSVErrors(t *testing.T) {
	_, err := ParseRunwaysCSV(strings.NewReader("id,name,threshold_elevation_m,rdh_m\nXX,bad,abc,15\n"))
	assert.ErrorContains(t, err, "invalid threshold elevation")

	_, err = ParseRunwaysCSV(strings.NewReader("id,name,threshold_elevation_m,rdh_m\nXX,bad,10,x\n"))
	assert.ErrorContains(t, err, "invalid rdh")

	_, err = ParseRunwaysCSV(strings.NewReader("id,name,threshold_elevation_m,rdh_m\n,noid,10,15\n"))
	assert.ErrorContains(t, err, "empty runway id")

	_, err = ParseRunwaysCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func validConfig() Config {
	cfg := Default()
	cfg.Runways.Entries = []RunwayEntry{{ID: "ZBAA_01", ThresholdElevationM: 25.5}}
	return cfg
}

func TestValidate(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "ZBAA_01", cfg.Runways.DefaultID)
	require.NotNil(t, cfg.Runways.Entries[0].ReferenceDatumHeightM)
	assert.Equal(t, 15.0, *cfg.Runways.Entries[0].ReferenceDatumHeightM)

	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"duplicate port", func(c *Config) { c.Server.AdditionalPorts = []int{c.Server.Port} }, "duplicate port"},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, "invalid log level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "invalid log format"},
		{"zero angle", func(c *Config) { c.Approach.DescentAngleDeg = 0 }, "invalid [approach] section"},
		{"vertical angle", func(c *Config) { c.Approach.DescentAngleDeg = 90 }, "invalid [approach] section"},
		{"no runways", func(c *Config) { c.Runways.Entries = nil }, "no runways configured"},
		{"duplicate runway", func(c *Config) {
			c.Runways.Entries = append(c.Runways.Entries, RunwayEntry{ID: "ZBAA_01"})
		}, "duplicate runway id"},
		{"unknown default", func(c *Config) { c.Runways.DefaultID = "KJFK_04L" }, "not found in catalog"},
		{"bad plot range", func(c *Config) { c.Plot.MaxKm = -1 }, "invalid plot max_km"},
		{"too few samples", func(c *Config) { c.Plot.Samples = 1 }, "invalid plot samples"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadWithFallback(t *testing.T) {
	_, err := LoadWithFallback(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorContains(t, err, "config file not found")

	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", `
[[runways.entries]]
id = "ZBAA_01"
threshold_elevation_m = 25.5
`)
	cfg, err := LoadWithFallback(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Len(t, cfg.Runways.Entries, 1)
}
