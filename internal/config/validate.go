package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTranscode(); err != nil {
		return err
	}
	if err := c.validateDetector(); err != nil {
		return err
	}
	if err := c.validateRecognition(); err != nil {
		return err
	}
	if err := c.validateFallback(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateTranscode() error {
	if len(c.Transcode.DualStreamIndices) != 2 {
		return fmt.Errorf("transcode.dual_stream_indices must list exactly two stream indices, got %d", len(c.Transcode.DualStreamIndices))
	}
	first, second := c.Transcode.DualStreamIndices[0], c.Transcode.DualStreamIndices[1]
	if first < 0 || second < 0 {
		return errors.New("transcode.dual_stream_indices must be non-negative")
	}
	if first == second {
		return errors.New("transcode.dual_stream_indices must be distinct")
	}
	if c.Transcode.SampleRate < 0 {
		return errors.New("transcode.sample_rate must be positive")
	}
	return nil
}

func (c *Config) validateDetector() error {
	if c.Detector.Script == "" {
		return errors.New("detector.script must be set")
	}
	switch c.Detector.Sensitivity {
	case "low", "medium", "high":
		return nil
	default:
		return fmt.Errorf("detector.sensitivity: unsupported value %q (want low, medium, or high)", c.Detector.Sensitivity)
	}
}

func (c *Config) validateRecognition() error {
	if c.Recognition.TimeoutSeconds < 0 {
		return errors.New("recognition.timeout_seconds must be positive")
	}
	if c.Recognition.RequestDelayMS < 0 {
		return errors.New("recognition.request_delay_ms must be zero or positive")
	}
	if !strings.HasPrefix(c.Recognition.BaseURL, "http://") && !strings.HasPrefix(c.Recognition.BaseURL, "https://") {
		return fmt.Errorf("recognition.base_url must be an http(s) URL, got %q", c.Recognition.BaseURL)
	}
	return nil
}

func (c *Config) validateFallback() error {
	if c.Fallback.TimeoutSeconds < 0 {
		return errors.New("fallback.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateExport() error {
	if c.Export.FPS < 0 {
		return errors.New("export.fps must be positive")
	}
	if c.Export.BaseHours < 0 || c.Export.BaseHours > 23 {
		return errors.New("export.base_hours must be between 0 and 23")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout < 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	topic := c.Notifications.NtfyTopic
	if topic != "" && !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic must be a full http(s) topic URL, got %q", topic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
