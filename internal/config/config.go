package config

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/yegors/appgate/internal/glidepath"
)

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Server    ServerConfig    `toml:"server"`    // HTTP server settings
	Logging   LoggingConfig   `toml:"logging"`   // Application logging settings
	Runways   RunwaysConfig   `toml:"runways"`   // Runway catalog
	Approach  ApproachConfig  `toml:"approach"`  // Default glide path parameters
	Plot      PlotConfig      `toml:"plot"`      // Profile sampling defaults
	Metrics   MetricsConfig   `toml:"metrics"`   // Prometheus exposition
	WebSocket WebSocketConfig `toml:"websocket"` // Live session settings
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port               int      `toml:"port"`                  // Primary HTTP port for the server
	Host               string   `toml:"host"`                  // Host address to bind to (e.g., 127.0.0.1 for localhost only, 0.0.0.0 for all interfaces)
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`  // List of origins allowed for CORS requests (use ["*"] for all origins)
	ReadTimeoutSecs    int      `toml:"read_timeout_seconds"`  // Maximum duration for reading the entire request (0 = no timeout)
	WriteTimeoutSecs   int      `toml:"write_timeout_seconds"` // Maximum duration for writing the response (0 = no timeout)
	IdleTimeoutSecs    int      `toml:"idle_timeout_seconds"`  // Maximum duration to wait for the next request when keep-alives are enabled
	AdditionalPorts    []int    `toml:"additional_ports"`      // Additional HTTP ports to listen on (useful for multiple interfaces)
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level      string `toml:"level"`        // Log level: "debug", "info", "warn", or "error"
	Format     string `toml:"format"`       // Log format: "json" (structured) or "console" (human-readable)
	File       string `toml:"file"`         // Optional rotating log file
	MaxSizeMB  int    `toml:"max_size_mb"`  // Rotate after this many megabytes
	MaxBackups int    `toml:"max_backups"`  // Rotated files to keep (0 = all)
	MaxAgeDays int    `toml:"max_age_days"` // Days to keep rotated files (0 = forever)
}

// RunwaysConfig describes where runway profiles come from
type RunwaysConfig struct {
	DBPath    string        `toml:"db_path"`    // Optional CSV catalog: id,name,threshold_elevation_m,rdh_m
	DefaultID string        `toml:"default_id"` // Runway used when a request names none
	Entries   []RunwayEntry `toml:"entries"`    // Inline runways, merged with the CSV catalog
}

// RunwayEntry is a single runway threshold in the catalog
type RunwayEntry struct {
	ID                    string   `toml:"id"`                       // Unique identifier (e.g., "ZBAA_01")
	Name                  string   `toml:"name"`                     // Human-readable name
	ThresholdElevationM   float64  `toml:"threshold_elevation_m"`    // Threshold elevation above MSL in meters
	ReferenceDatumHeightM *float64 `toml:"reference_datum_height_m"` // RDH in meters (defaults to [approach] value)
}

// ApproachConfig contains the default glide path parameters
type ApproachConfig struct {
	DescentAngleDeg       float64 `toml:"descent_angle_deg"`        // Glide slope angle in degrees (default 3.0)
	GateBufferKm          float64 `toml:"gate_buffer_km"`           // Buffer added to the approach gate distance (default 2.0)
	ReferenceDatumHeightM float64 `toml:"reference_datum_height_m"` // RDH used when a runway publishes none (default 15.0)
}

// PlotConfig contains defaults for glide path profile sampling
type PlotConfig struct {
	MaxKm      float64 `toml:"max_km"`      // Profile range in km (default 25)
	Samples    int     `toml:"samples"`     // Number of profile points (default 250)
	MaxSamples int     `toml:"max_samples"` // Upper bound a client may request (default 5000)
}

// MetricsConfig contains Prometheus settings
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"` // Expose metrics over HTTP
	Path    string `toml:"path"`    // Metrics path (default "/metrics")
}

// WebSocketConfig contains live session settings
type WebSocketConfig struct {
	Enabled bool   `toml:"enabled"` // Serve the live session endpoint
	Path    string `toml:"path"`    // WebSocket path (default "/ws")
}

// Default returns a configuration seeded with the standard ILS defaults.
// Load decodes on top of it, so keys missing from the file keep these values
// while explicit zeros (e.g. gate_buffer_km = 0) are preserved.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:             8080,
			Host:             "127.0.0.1",
			ReadTimeoutSecs:  15,
			WriteTimeoutSecs: 15,
			IdleTimeoutSecs:  60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Approach: ApproachConfig{
			DescentAngleDeg:       glidepath.DefaultDescentAngle,
			GateBufferKm:          glidepath.DefaultGateBuffer,
			ReferenceDatumHeightM: glidepath.DefaultReferenceDatumHeight,
		},
		Plot: PlotConfig{
			MaxKm:      25.0,
			Samples:    250,
			MaxSamples: 5000,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		WebSocket: WebSocketConfig{
			Enabled: true,
			Path:    "/ws",
		},
	}
}

// Load loads the configuration from the specified file path
func Load(path string) (*Config, error) {
	config := Default()

	// Check if the file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	// Read the config file
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	// Merge runways from the CSV catalog
	if config.Runways.DBPath != "" {
		if err := config.loadRunwaysFromCSV(); err != nil {
			return nil, fmt.Errorf("failed to load runways from CSV: %w", err)
		}
	}

	return &config, nil
}

// loadRunwaysFromCSV parses the runway catalog and appends its entries
func (c *Config) loadRunwaysFromCSV() error {
	file, err := os.Open(c.Runways.DBPath)
	if err != nil {
		return err
	}
	defer file.Close()

	entries, err := ParseRunwaysCSV(file)
	if err != nil {
		return fmt.Errorf("%s: %w", c.Runways.DBPath, err)
	}

	c.Runways.Entries = append(c.Runways.Entries, entries...)
	return nil
}

// ParseRunwaysCSV reads runway entries from CSV with the header
// id,name,threshold_elevation_m,rdh_m. An empty rdh_m leaves the
// reference datum height unset.
func ParseRunwaysCSV(r io.Reader) ([]RunwayEntry, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.Comment = '#'
	reader.FieldsPerRecord = -1

	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	entries := make([]RunwayEntry, 0, len(records))
	for i, record := range records {
		line := i + 2
		if len(record) < 3 {
			return nil, fmt.Errorf("line %d: expected at least 3 columns, got %d", line, len(record))
		}

		entry := RunwayEntry{
			ID:   strings.TrimSpace(record[0]),
			Name: strings.TrimSpace(record[1]),
		}
		if entry.ID == "" {
			return nil, fmt.Errorf("line %d: empty runway id", line)
		}

		elev, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid threshold elevation for %s: %w", line, entry.ID, err)
		}
		entry.ThresholdElevationM = elev

		// RDH might be empty or valid float
		if len(record) > 3 && strings.TrimSpace(record[3]) != "" {
			rdh, err := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid rdh for %s: %w", line, entry.ID, err)
			}
			entry.ReferenceDatumHeightM = &rdh
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// LoadWithFallback loads the configuration by checking multiple locations in order of preference
func LoadWithFallback(preferredPath string) (*Config, error) {
	// List of paths to check in order of preference
	searchPaths := []string{
		preferredPath,         // User-specified path (if provided)
		"configs/config.toml", // configs/ folder
		"config.toml",         // Root directory
	}

	// Remove duplicates while preserving order
	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	var lastErr error
	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err == nil {
			// File exists, try to load it
			config, err := Load(path)
			if err != nil {
				lastErr = fmt.Errorf("failed to load config from %s: %w", path, err)
				continue
			}
			return config, nil
		}
		lastErr = fmt.Errorf("config file not found: %s", path)
	}

	return nil, fmt.Errorf("config file not found in any of the expected locations: %v. Last error: %w", uniquePaths, lastErr)
}

// Validate validates the configuration and fills in defaults
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	// Validate AdditionalPorts
	portsSeen := make(map[int]bool)
	portsSeen[c.Server.Port] = true
	for _, p := range c.Server.AdditionalPorts {
		if p <= 0 || p > 65535 {
			return fmt.Errorf("invalid additional server port: %d", p)
		}
		if portsSeen[p] {
			return fmt.Errorf("duplicate port configured: %d (primary or additional)", p)
		}
		portsSeen[p] = true
	}
	if c.Server.ReadTimeoutSecs < 0 || c.Server.WriteTimeoutSecs < 0 || c.Server.IdleTimeoutSecs < 0 {
		return fmt.Errorf("server timeouts must be >= 0")
	}

	// Validate logging config
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// Valid log level
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	switch c.Logging.Format {
	case "json", "console":
		// Valid log format
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}
	if c.Logging.File != "" && c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = 64
	}

	if err := c.ValidateApproach(); err != nil {
		return err
	}

	if err := c.ValidateRunways(); err != nil {
		return err
	}

	if err := c.ValidatePlot(); err != nil {
		return err
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.WebSocket.Path == "" {
		c.WebSocket.Path = "/ws"
	}

	return nil
}

// ValidateApproach checks the default glide path parameters
func (c *Config) ValidateApproach() error {
	model := glidepath.NewModel(c.Approach.DescentAngleDeg, c.Approach.GateBufferKm)
	if err := model.Validate(); err != nil {
		return fmt.Errorf("invalid [approach] section: %w", err)
	}
	if !isFinite(c.Approach.ReferenceDatumHeightM) {
		return fmt.Errorf("invalid reference_datum_height_m: %v", c.Approach.ReferenceDatumHeightM)
	}

	return nil
}

// ValidateRunways checks the catalog for duplicates and resolves the default runway
func (c *Config) ValidateRunways() error {
	if len(c.Runways.Entries) == 0 {
		return fmt.Errorf("no runways configured (set runways.db_path or add [[runways.entries]])")
	}

	seen := make(map[string]bool)
	for i := range c.Runways.Entries {
		entry := &c.Runways.Entries[i]
		if entry.ID == "" {
			return fmt.Errorf("runway entry %d has no id", i)
		}
		if seen[entry.ID] {
			return fmt.Errorf("duplicate runway id: %s", entry.ID)
		}
		seen[entry.ID] = true

		if !isFinite(entry.ThresholdElevationM) {
			return fmt.Errorf("runway %s: invalid threshold elevation %v", entry.ID, entry.ThresholdElevationM)
		}
		if entry.ReferenceDatumHeightM == nil {
			rdh := c.Approach.ReferenceDatumHeightM
			entry.ReferenceDatumHeightM = &rdh
		} else if !isFinite(*entry.ReferenceDatumHeightM) {
			return fmt.Errorf("runway %s: invalid reference datum height %v", entry.ID, *entry.ReferenceDatumHeightM)
		}
	}

	if c.Runways.DefaultID == "" {
		c.Runways.DefaultID = c.Runways.Entries[0].ID
	} else if !seen[c.Runways.DefaultID] {
		return fmt.Errorf("default runway %s not found in catalog", c.Runways.DefaultID)
	}

	return nil
}

// ValidatePlot checks the profile sampling defaults
func (c *Config) ValidatePlot() error {
	if !isFinite(c.Plot.MaxKm) || c.Plot.MaxKm <= 0 {
		return fmt.Errorf("invalid plot max_km: %v (must be > 0)", c.Plot.MaxKm)
	}
	if c.Plot.Samples < 2 {
		return fmt.Errorf("invalid plot samples: %d (must be >= 2)", c.Plot.Samples)
	}
	if c.Plot.MaxSamples < c.Plot.Samples {
		return fmt.Errorf("invalid plot max_samples: %d (must be >= samples %d)", c.Plot.MaxSamples, c.Plot.Samples)
	}

	return nil
}

// RunwayProfile converts a validated catalog entry into a glide path runway profile
func (e RunwayEntry) RunwayProfile() glidepath.RunwayProfile {
	rdh := glidepath.DefaultReferenceDatumHeight
	if e.ReferenceDatumHeightM != nil {
		rdh = *e.ReferenceDatumHeightM
	}
	return glidepath.NewRunwayProfile(e.ThresholdElevationM, rdh)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
