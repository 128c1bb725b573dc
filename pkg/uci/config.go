// Package uci loads the rfmapd configuration from a UCI-style config file.
package uci

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rfmap/rfmap/pkg/cache"
	"github.com/rfmap/rfmap/pkg/mqtt"
	"github.com/rfmap/rfmap/pkg/synthesis"
)

// Config represents the rfmap configuration
type Config struct {
	// Main configuration
	Enable          bool   `json:"enable"`
	LogLevel        string `json:"log_level"`
	DatabasePath    string `json:"database_path"`
	CycleIntervalMS int    `json:"cycle_interval_ms"`
	MetricsListener bool   `json:"metrics_listener"`
	MetricsPort     int    `json:"metrics_port"`

	// Subsystem configuration
	Cache     cache.Config     `json:"cache"`
	Synthesis synthesis.Config `json:"synthesis"`
	MQTT      *mqtt.Config     `json:"mqtt"`
}

// Default configuration values
const (
	DefaultLogLevel        = "info"
	DefaultDatabasePath    = "/var/lib/rfmap/emitters.db"
	DefaultCycleIntervalMS = 2000
	DefaultMetricsPort     = 9101
)

// LoadConfig loads and validates the rfmap configuration from UCI
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	// Set defaults
	cfg.setDefaults()

	// Check if config file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// Return default config if file doesn't exist
		return cfg, nil
	}

	// Parse UCI configuration
	if err := cfg.parseUCI(path); err != nil {
		return nil, fmt.Errorf("failed to parse UCI config: %w", err)
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// setDefaults sets default values for the configuration
func (c *Config) setDefaults() {
	c.Enable = true
	c.LogLevel = DefaultLogLevel
	c.DatabasePath = DefaultDatabasePath
	c.CycleIntervalMS = DefaultCycleIntervalMS
	c.MetricsListener = false
	c.MetricsPort = DefaultMetricsPort
	c.Cache = cache.DefaultConfig()
	c.Synthesis = synthesis.DefaultConfig()
	c.MQTT = mqtt.DefaultConfig()
}

// parseUCI parses the UCI configuration file
func (c *Config) parseUCI(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	lines := strings.Split(string(data), "\n")
	var currentSection string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "config ") {
			parts := strings.Fields(line)
			if len(parts) >= 3 {
				currentSection = strings.Trim(parts[2], "'\"")
			} else {
				currentSection = ""
			}
		} else if strings.HasPrefix(line, "option ") {
			parts := strings.Fields(line)
			if len(parts) >= 3 {
				option := parts[1]
				value := strings.Trim(parts[2], "'\"")

				switch currentSection {
				case "main":
					c.parseMainOption(option, value)
				case "cache":
					c.parseCacheOption(option, value)
				case "mobility":
					c.parseMobilityOption(option, value)
				case "synthesis":
					c.parseSynthesisOption(option, value)
				case "mqtt":
					c.parseMQTTOption(option, value)
				}
			}
		}
	}

	return nil
}

// parseMainOption parses a main configuration option
func (c *Config) parseMainOption(option, value string) {
	switch option {
	case "enable":
		c.Enable = value == "1"
	case "log_level":
		if isValidLogLevel(value) {
			c.LogLevel = value
		}
	case "database_path":
		c.DatabasePath = value
	case "cycle_interval_ms":
		if v, err := strconv.Atoi(value); err == nil && v > 0 {
			c.CycleIntervalMS = v
		}
	case "metrics_listener":
		c.MetricsListener = value == "1"
	case "metrics_port":
		if v, err := strconv.Atoi(value); err == nil && v > 0 && v < 65536 {
			c.MetricsPort = v
		}
	}
}

// parseCacheOption parses a cache configuration option
func (c *Config) parseCacheOption(option, value string) {
	switch option {
	case "max_idle_cycles":
		if v, err := strconv.Atoi(value); err == nil && v > 0 {
			c.Cache.MaxIdleCycles = v
		}
	case "max_resident":
		if v, err := strconv.Atoi(value); err == nil && v > 0 {
			c.Cache.MaxResident = v
		}
	}
}

// parseMobilityOption parses a mobility drift detection option
func (c *Config) parseMobilityOption(option, value string) {
	if c.Cache.Drift == nil {
		return
	}
	switch option {
	case "enabled":
		c.Cache.Drift.Enabled = value == "1"
	case "min_samples":
		if v, err := strconv.Atoi(value); err == nil && v > 1 {
			c.Cache.Drift.MinSamples = v
		}
	case "window_size":
		if v, err := strconv.Atoi(value); err == nil && v > 1 {
			c.Cache.Drift.WindowSize = v
		}
	case "max_slope_mps":
		if v, err := strconv.ParseFloat(value, 64); err == nil && v > 0 {
			c.Cache.Drift.MaxSlopeMps = v
		}
	}
}

// parseSynthesisOption parses a synthesis configuration option
func (c *Config) parseSynthesisOption(option, value string) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || v <= 0 {
		return
	}
	switch option {
	case "cull_tolerance_factor":
		c.Synthesis.CullToleranceFactor = v
	case "implausible_radius_penalty":
		c.Synthesis.ImplausibleRadiusPenalty = v
	case "accuracy_scale_factor":
		c.Synthesis.AccuracyScaleFactor = v
	case "min_accuracy_m":
		c.Synthesis.MinAccuracy = v
	case "suspicious_inflation":
		c.Synthesis.SuspiciousInflation = v
	case "median_trim_factor":
		c.Synthesis.MedianTrimFactor = v
	case "max_trim_fraction":
		c.Synthesis.MaxTrimFraction = v
	case "accuracy_ratio_override":
		c.Synthesis.AccuracyRatioOverride = v
	}
}

// parseMQTTOption parses an MQTT publisher option
func (c *Config) parseMQTTOption(option, value string) {
	switch option {
	case "enabled":
		c.MQTT.Enabled = value == "1"
	case "broker":
		c.MQTT.Broker = value
	case "port":
		if v, err := strconv.Atoi(value); err == nil && v > 0 && v < 65536 {
			c.MQTT.Port = v
		}
	case "client_id":
		c.MQTT.ClientID = value
	case "username":
		c.MQTT.Username = value
	case "password":
		c.MQTT.Password = value
	case "topic_prefix":
		c.MQTT.TopicPrefix = value
	case "qos":
		if v, err := strconv.Atoi(value); err == nil && v >= 0 && v <= 2 {
			c.MQTT.QoS = v
		}
	case "retain":
		c.MQTT.Retain = value == "1"
	}
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.CycleIntervalMS < 100 || c.CycleIntervalMS > 60000 {
		return fmt.Errorf("cycle_interval_ms must be between 100 and 60000")
	}

	if c.Cache.MaxIdleCycles < 1 || c.Cache.MaxIdleCycles > 10000 {
		return fmt.Errorf("max_idle_cycles must be between 1 and 10000")
	}

	if c.Cache.MaxResident < 10 || c.Cache.MaxResident > 100000 {
		return fmt.Errorf("max_resident must be between 10 and 100000")
	}

	if c.Synthesis.MaxTrimFraction >= 1.0 {
		return fmt.Errorf("max_trim_fraction must be below 1.0")
	}

	if c.Cache.Drift != nil && c.Cache.Drift.WindowSize < c.Cache.Drift.MinSamples {
		return fmt.Errorf("mobility window_size must be at least min_samples")
	}

	return nil
}

func isValidLogLevel(level string) bool {
	validLevels := []string{"debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return true
		}
	}
	return false
}
