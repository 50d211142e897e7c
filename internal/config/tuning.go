package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TuningConfig carries the synchronization and windowing parameters that are
// deliberately tunable. Fields are pointers so a partial JSON file only
// overrides what it names; the Get* accessors supply defaults for the rest.
//
// The defaults are design constants, not guesses: the 0.1s dead-band balances
// perceptible drift against update storms and must stay symmetric across
// every producer/consumer pair, the 50ms guard covers the echo window after a
// programmatic seek, and the 1s heartbeat papers over messages lost to
// window-creation races.
type TuningConfig struct {
	// Sync params
	DeadBandSeconds   *float64 `json:"dead_band_seconds,omitempty"`
	SyncGuard         *string  `json:"sync_guard,omitempty"`         // duration string like "50ms"
	HeartbeatInterval *string  `json:"heartbeat_interval,omitempty"` // duration string like "1s"
	UpdateThrottle    *string  `json:"update_throttle,omitempty"`    // duration string like "16ms"

	// Data window params
	HalfWindowSeconds *float64 `json:"half_window_seconds,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields unset, meaning
// every accessor answers with its default.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file must have
// a .json extension and stay under the max file size. Fields omitted from the
// JSON retain their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

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

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *TuningConfig) Validate() error {
	if c.DeadBandSeconds != nil && *c.DeadBandSeconds <= 0 {
		return fmt.Errorf("dead_band_seconds must be positive, got %f", *c.DeadBandSeconds)
	}
	if c.HalfWindowSeconds != nil && *c.HalfWindowSeconds <= 0 {
		return fmt.Errorf("half_window_seconds must be positive, got %f", *c.HalfWindowSeconds)
	}
	for name, v := range map[string]*string{
		"sync_guard":         c.SyncGuard,
		"heartbeat_interval": c.HeartbeatInterval,
		"update_throttle":    c.UpdateThrottle,
	} {
		if v == nil || *v == "" {
			continue
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, *v, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	return nil
}

// GetDeadBandSeconds returns the dead-band threshold or the default.
func (c *TuningConfig) GetDeadBandSeconds() float64 {
	if c.DeadBandSeconds == nil {
		return 0.1 // default
	}
	return *c.DeadBandSeconds
}

// GetSyncGuard parses and returns the re-entrancy guard duration.
func (c *TuningConfig) GetSyncGuard() time.Duration {
	return c.duration(c.SyncGuard, 50*time.Millisecond)
}

// GetHeartbeatInterval parses and returns the heartbeat resend interval.
func (c *TuningConfig) GetHeartbeatInterval() time.Duration {
	return c.duration(c.HeartbeatInterval, time.Second)
}

// GetUpdateThrottle parses and returns the outbound update coalescing window.
func (c *TuningConfig) GetUpdateThrottle() time.Duration {
	return c.duration(c.UpdateThrottle, 16*time.Millisecond)
}

// GetHalfWindowSeconds returns the data window half-width or the default.
func (c *TuningConfig) GetHalfWindowSeconds() float64 {
	if c.HalfWindowSeconds == nil {
		return 10 // default
	}
	return *c.HalfWindowSeconds
}

func (c *TuningConfig) duration(v *string, def time.Duration) time.Duration {
	if v == nil || *v == "" {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return def // default on parse error
	}
	return d
}
