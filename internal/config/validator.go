package config

import (
	"fmt"
	"regexp"
)

var instanceIDPattern = regexp.MustCompile(`^[a-z0-9\-]+$`)

var blockColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Validate checks the configuration and fills defaults in place.
func Validate(cfg *Config) error {
	if cfg.InstanceID == "" {
		cfg.InstanceID = "safemirror"
	}
	if !instanceIDPattern.MatchString(cfg.InstanceID) {
		return fmt.Errorf("instance_id must match pattern [a-z0-9-]+")
	}

	if cfg.ShutdownTimeoutS < 0 {
		return fmt.Errorf("shutdown_timeout_s must be >= 0")
	}

	switch cfg.Capture.Source {
	case "":
		cfg.Capture.Source = "x11"
	case "x11", "mock":
	default:
		return fmt.Errorf("capture.source must be 'x11' or 'mock', got %q", cfg.Capture.Source)
	}
	if cfg.Capture.Display == "" {
		cfg.Capture.Display = ":0"
	}

	if cfg.Mirror.FPS == 0 {
		cfg.Mirror.FPS = 60
	}
	if cfg.Mirror.FPS < 1 || cfg.Mirror.FPS > 240 {
		return fmt.Errorf("mirror.fps must be 1-240, got %d", cfg.Mirror.FPS)
	}
	if cfg.Mirror.DefaultWidth == 0 {
		cfg.Mirror.DefaultWidth = 1280
	}
	if cfg.Mirror.DefaultHeight == 0 {
		cfg.Mirror.DefaultHeight = 720
	}
	if cfg.Mirror.DefaultWidth < 0 || cfg.Mirror.DefaultHeight < 0 {
		return fmt.Errorf("mirror default resolution must be positive")
	}
	if cfg.Mirror.WindowTitle == "" {
		cfg.Mirror.WindowTitle = "CloakShare - Safe Mirror"
	}

	if cfg.Detect.IntervalTicks == 0 {
		cfg.Detect.IntervalTicks = 60
	}
	if cfg.Detect.BlockColor == "" {
		cfg.Detect.BlockColor = "#000000"
	}
	if !blockColorPattern.MatchString(cfg.Detect.BlockColor) {
		return fmt.Errorf("detect.block_color must be #RRGGBB, got %q", cfg.Detect.BlockColor)
	}

	if cfg.OCR.Binary == "" {
		cfg.OCR.Binary = "tesseract"
	}
	if cfg.OCR.Lang == "" {
		cfg.OCR.Lang = "eng"
	}
	if cfg.OCR.TimeoutS == 0 {
		cfg.OCR.TimeoutS = 10
	}
	if cfg.OCR.TimeoutS < 0 {
		return fmt.Errorf("ocr.timeout_s must be >= 0")
	}

	if cfg.MQTT.Broker != "" && cfg.MQTT.Topic == "" {
		cfg.MQTT.Topic = fmt.Sprintf("cloakshare/detections/%s", cfg.InstanceID)
	}
	if cfg.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0-2, got %d", cfg.MQTT.QoS)
	}

	return nil
}

// BlockColorRGBA parses the configured block color into RGBA bytes.
// Validate guarantees the format, so this never fails on a validated
// config.
func (c *Config) BlockColorRGBA() [4]byte {
	var r, g, b byte
	fmt.Sscanf(c.Detect.BlockColor, "#%02x%02x%02x", &r, &g, &b)
	return [4]byte{r, g, b, 255}
}
