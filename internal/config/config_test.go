package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/better-hash/ai-video-generator/internal/config"
	"github.com/better-hash/ai-video-generator/internal/entity"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("VIDGEN_API_URL", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogs := filepath.Join(tempHome, ".local", "share", "vidgen", "logs")
	if cfg.Paths.LogDir != wantLogs {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogs)
	}
	if cfg.API.BaseURL != "http://127.0.0.1:8000/api" {
		t.Fatalf("unexpected base url: %q", cfg.API.BaseURL)
	}
	if cfg.APITimeout() != 30*time.Second {
		t.Fatalf("unexpected api timeout: %s", cfg.APITimeout())
	}
	if cfg.PollInterval() != 2*time.Second {
		t.Fatalf("unexpected poll interval: %s", cfg.PollInterval())
	}
	if cfg.History.Enabled {
		t.Fatal("expected history disabled by default")
	}
	settings, err := cfg.VideoDefaults()
	if err != nil {
		t.Fatalf("VideoDefaults returned error: %v", err)
	}
	if settings != entity.DefaultVideoSettings() {
		t.Fatalf("unexpected video defaults: %+v", settings)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, cfg.Paths.StateDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "vidgen.toml")

	type payload struct {
		API struct {
			BaseURL        string `toml:"base_url"`
			TimeoutSeconds int    `toml:"timeout_seconds"`
		} `toml:"api"`
		Video struct {
			Resolution string `toml:"resolution"`
			FPS        int    `toml:"fps"`
		} `toml:"video"`
		History struct {
			Enabled bool   `toml:"enabled"`
			Path    string `toml:"path"`
		} `toml:"history"`
	}
	custom := payload{}
	custom.API.BaseURL = "https://render.example.com/api/"
	custom.API.TimeoutSeconds = 45
	custom.Video.Resolution = "854x480"
	custom.Video.FPS = 60
	custom.History.Enabled = true
	custom.History.Path = filepath.Join(tempDir, "journal.db")

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom path to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.API.BaseURL != "https://render.example.com/api" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.API.BaseURL)
	}
	if cfg.APITimeout() != 45*time.Second {
		t.Fatalf("unexpected timeout: %s", cfg.APITimeout())
	}
	settings, err := cfg.VideoDefaults()
	if err != nil {
		t.Fatalf("VideoDefaults returned error: %v", err)
	}
	if settings.Resolution != entity.Resolution480p || settings.FPS != 60 || settings.Quality != entity.QualityHigh {
		t.Fatalf("unexpected settings: %+v", settings)
	}
	if !cfg.History.Enabled || cfg.History.Path != custom.History.Path {
		t.Fatalf("unexpected history config: %+v", cfg.History)
	}
}

func TestEnvironmentOverridesBaseURL(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("VIDGEN_API_URL", "http://render.internal:9000/api")
	t.Setenv("VIDGEN_NTFY_TOPIC", " https://ntfy.sh/renders ")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.API.BaseURL != "http://render.internal:9000/api" {
		t.Fatalf("expected env base url, got %q", cfg.API.BaseURL)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.sh/renders" {
		t.Fatalf("expected env ntfy topic, got %q", cfg.Notifications.NtfyTopic)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{name: "scheme", mutate: func(c *config.Config) { c.API.BaseURL = "ftp://example.com/api" }, want: "api.base_url"},
		{name: "timeout", mutate: func(c *config.Config) { c.API.TimeoutSeconds = 0 }, want: "api.timeout_seconds"},
		{name: "interval", mutate: func(c *config.Config) { c.Poller.IntervalSeconds = -1 }, want: "poller.interval_seconds"},
		{name: "fps", mutate: func(c *config.Config) { c.Video.FPS = 25 }, want: "video"},
		{name: "upload ceiling", mutate: func(c *config.Config) { c.Upload.MaxImageBytes = 6 * 1024 * 1024 }, want: "upload.max_image_bytes"},
		{name: "log format", mutate: func(c *config.Config) { c.Logging.Format = "xml" }, want: "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(sample) returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if cfg.DevServer.Bind != "127.0.0.1:8000" {
		t.Fatalf("unexpected dev server bind: %q", cfg.DevServer.Bind)
	}
}
