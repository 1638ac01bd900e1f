package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/distance.report/internal/units"
)

// DefaultConfigPath is the path to the canonical monitor defaults file.
const DefaultConfigPath = "config/monitor.defaults.json"

// ErrInvalidConfiguration is wrapped by every rejected configuration value.
// Values are never clamped into range.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Built-in defaults used when a field is omitted from the JSON file.
const (
	DefaultWindowSize         = 5
	DefaultSizeWindowSize     = 5
	DefaultProximityThreshold = 200.0
	DefaultMinConfidence      = 0.3
	DefaultDistanceUnit       = units.CM
	DefaultMaxMissedFrames    = 30
)

// MonitorConfig is the configuration value object for one monitoring run.
// It is passed explicitly to constructors; nothing reads it from globals.
type MonitorConfig struct {
	// Smoothing params
	WindowSize       *int  `json:"window_size,omitempty"`
	SizeWindowSize   *int  `json:"size_window_size,omitempty"`
	SmoothingEnabled *bool `json:"smoothing_enabled,omitempty"`
	MaxMissedFrames  *int  `json:"max_missed_frames,omitempty"` // 0 keeps history forever

	// Proximity params. Threshold shares the centroid coordinate units.
	ProximityThreshold *float64 `json:"proximity_threshold,omitempty"`

	// Detection gate
	MinConfidence *float64 `json:"min_confidence,omitempty"`

	// Display
	DistanceUnit *string `json:"distance_unit,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyMonitorConfig returns a MonitorConfig with all fields set to nil.
// Every Get* method then yields its built-in default.
func EmptyMonitorConfig() *MonitorConfig {
	return &MonitorConfig{}
}

// DefaultMonitorConfig returns a MonitorConfig with every field populated
// from the built-in defaults.
func DefaultMonitorConfig() *MonitorConfig {
	return &MonitorConfig{
		WindowSize:         ptrInt(DefaultWindowSize),
		SizeWindowSize:     ptrInt(DefaultSizeWindowSize),
		SmoothingEnabled:   ptrBool(true),
		MaxMissedFrames:    ptrInt(DefaultMaxMissedFrames),
		ProximityThreshold: ptrFloat64(DefaultProximityThreshold),
		MinConfidence:      ptrFloat64(DefaultMinConfidence),
		DistanceUnit:       ptrString(DefaultDistanceUnit),
	}
}

// LoadMonitorConfig loads a MonitorConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadMonitorConfig(path string) (*MonitorConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyMonitorConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *MonitorConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadMonitorConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks every populated field. Errors wrap ErrInvalidConfiguration.
func (c *MonitorConfig) Validate() error {
	if c.WindowSize != nil && *c.WindowSize < 1 {
		return fmt.Errorf("%w: window_size must be at least 1, got %d", ErrInvalidConfiguration, *c.WindowSize)
	}
	if c.SizeWindowSize != nil && *c.SizeWindowSize < 1 {
		return fmt.Errorf("%w: size_window_size must be at least 1, got %d", ErrInvalidConfiguration, *c.SizeWindowSize)
	}
	if c.MaxMissedFrames != nil && *c.MaxMissedFrames < 0 {
		return fmt.Errorf("%w: max_missed_frames must be non-negative, got %d", ErrInvalidConfiguration, *c.MaxMissedFrames)
	}
	if c.ProximityThreshold != nil && !(*c.ProximityThreshold > 0) {
		return fmt.Errorf("%w: proximity_threshold must be positive, got %f", ErrInvalidConfiguration, *c.ProximityThreshold)
	}
	if c.MinConfidence != nil {
		if !(*c.MinConfidence >= 0 && *c.MinConfidence <= 1) {
			return fmt.Errorf("%w: min_confidence must be between 0 and 1, got %f", ErrInvalidConfiguration, *c.MinConfidence)
		}
	}
	if c.DistanceUnit != nil && !units.IsValid(*c.DistanceUnit) {
		return fmt.Errorf("%w: distance_unit %q is not one of %s", ErrInvalidConfiguration, *c.DistanceUnit, units.GetValidUnitsString())
	}
	return nil
}

// GetWindowSize returns the bounding-box history length or the default.
func (c *MonitorConfig) GetWindowSize() int {
	if c.WindowSize == nil {
		return DefaultWindowSize
	}
	return *c.WindowSize
}

// GetSizeWindowSize returns the box-size history length or the default.
func (c *MonitorConfig) GetSizeWindowSize() int {
	if c.SizeWindowSize == nil {
		return DefaultSizeWindowSize
	}
	return *c.SizeWindowSize
}

// GetSmoothingEnabled returns the smoothing_enabled value or the default.
func (c *MonitorConfig) GetSmoothingEnabled() bool {
	if c.SmoothingEnabled == nil {
		return true
	}
	return *c.SmoothingEnabled
}

// GetMaxMissedFrames returns the max_missed_frames value or the default.
func (c *MonitorConfig) GetMaxMissedFrames() int {
	if c.MaxMissedFrames == nil {
		return DefaultMaxMissedFrames
	}
	return *c.MaxMissedFrames
}

// GetProximityThreshold returns the proximity_threshold value or the default.
func (c *MonitorConfig) GetProximityThreshold() float64 {
	if c.ProximityThreshold == nil {
		return DefaultProximityThreshold
	}
	return *c.ProximityThreshold
}

// GetMinConfidence returns the min_confidence value or the default.
func (c *MonitorConfig) GetMinConfidence() float64 {
	if c.MinConfidence == nil {
		return DefaultMinConfidence
	}
	return *c.MinConfidence
}

// GetDistanceUnit returns the display unit for depth labels or the default.
func (c *MonitorConfig) GetDistanceUnit() string {
	if c.DistanceUnit == nil || *c.DistanceUnit == "" {
		return DefaultDistanceUnit
	}
	return *c.DistanceUnit
}
