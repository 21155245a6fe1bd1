package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeAPI()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeVideo()
	c.normalizeLogging()
	c.normalizeNotifications()
	c.DevServer.Bind = strings.TrimSpace(c.DevServer.Bind)
	if c.DevServer.Bind == "" {
		c.DevServer.Bind = defaultDevServerBind
	}
	return nil
}

func (c *Config) normalizeAPI() {
	if value, ok := os.LookupEnv("VIDGEN_API_URL"); ok && strings.TrimSpace(value) != "" {
		c.API.BaseURL = value
	}
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaultAPIBaseURL
	}
	c.API.UserAgent = strings.TrimSpace(c.API.UserAgent)
	if c.API.UserAgent == "" {
		c.API.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeVideo() {
	c.Video.Resolution = strings.ToLower(strings.TrimSpace(c.Video.Resolution))
	if c.Video.Resolution == "" {
		c.Video.Resolution = defaultVideoResolution
	}
	c.Video.Quality = strings.ToLower(strings.TrimSpace(c.Video.Quality))
	if c.Video.Quality == "" {
		c.Video.Quality = defaultVideoQuality
	}
	if c.Video.FPS == 0 {
		c.Video.FPS = defaultVideoFPS
	}
	if c.Video.Duration == 0 {
		c.Video.Duration = defaultVideoDuration
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeNotifications() {
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("VIDGEN_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = value
		}
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
}
