// Package config loads and validates the safemirror YAML configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the complete safemirror configuration.
type Config struct {
	InstanceID       string        `yaml:"instance_id"`
	ShutdownTimeoutS int           `yaml:"shutdown_timeout_s"` // graceful shutdown timeout in seconds (default: 5)
	Capture          CaptureConfig `yaml:"capture"`
	Mirror           MirrorConfig  `yaml:"mirror"`
	Detect           DetectConfig  `yaml:"detect"`
	OCR              OCRConfig     `yaml:"ocr"`
	MQTT             MQTTConfig    `yaml:"mqtt"`
}

// CaptureConfig contains capture source settings.
type CaptureConfig struct {
	Source  string `yaml:"source"`  // x11, mock
	Display string `yaml:"display"` // X display for the x11 source (default ":0")
}

// MirrorConfig contains render loop settings.
type MirrorConfig struct {
	FPS           int    `yaml:"fps"`            // render tick cadence (default 60)
	DefaultWidth  int    `yaml:"default_width"`  // geometry fallback (default 1280)
	DefaultHeight int    `yaml:"default_height"` // geometry fallback (default 720)
	WindowTitle   string `yaml:"window_title"`
	Headless      bool   `yaml:"headless"` // present to a recording sink instead of a window
}

// DetectConfig contains detection settings.
type DetectConfig struct {
	Disabled      bool   `yaml:"disabled"`       // skip detection entirely
	IntervalTicks uint64 `yaml:"interval_ticks"` // duty cycle (default 60, ~1/s at 60 fps)
	BlockColor    string `yaml:"block_color"`    // redaction color, #RRGGBB (default #000000)
}

// OCRConfig contains text extraction engine settings.
type OCRConfig struct {
	Binary   string `yaml:"binary"`    // tesseract executable (default "tesseract")
	Lang     string `yaml:"lang"`      // recognition language (default "eng")
	TimeoutS int    `yaml:"timeout_s"` // per-call timeout (default 10)
}

// MQTTConfig contains optional detection-event broker settings. The
// emitter is disabled unless a broker is configured.
type MQTTConfig struct {
	Broker string `yaml:"broker"`
	Topic  string `yaml:"topic"`
	QoS    byte   `yaml:"qos"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns a validated configuration with stock values, used when
// no config file is supplied.
func Default() *Config {
	cfg := &Config{}
	// Validation on the zero value only fills defaults
	_ = Validate(cfg)
	return cfg
}
