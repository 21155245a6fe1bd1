package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// MaxImageBytesLimit is the hard ceiling for reference image uploads.
const MaxImageBytesLimit = 5 * 1024 * 1024

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := ensurePositiveMap(map[string]int{
		"api.timeout_seconds":           c.API.TimeoutSeconds,
		"poller.interval_seconds":       c.Poller.IntervalSeconds,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
		"dev_server.step_millis":        c.DevServer.StepMillis,
	}); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateUpload(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAPI() error {
	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("api.base_url must use http or https, got %q", c.API.BaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("api.base_url must include a host, got %q", c.API.BaseURL)
	}
	return nil
}

func (c *Config) validateVideo() error {
	if _, err := c.VideoDefaults(); err != nil {
		return fmt.Errorf("video: %w", err)
	}
	return nil
}

func (c *Config) validateUpload() error {
	if c.Upload.MaxImageBytes <= 0 {
		return errors.New("upload.max_image_bytes must be positive")
	}
	if c.Upload.MaxImageBytes > MaxImageBytesLimit {
		return fmt.Errorf("upload.max_image_bytes must not exceed %d", MaxImageBytesLimit)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", strings.TrimSpace(c.Logging.Level))
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
