package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/better-hash/ai-video-generator/internal/config"
	"github.com/better-hash/ai-video-generator/internal/gateway"
	"github.com/better-hash/ai-video-generator/internal/history"
	"github.com/better-hash/ai-video-generator/internal/logging"
	"github.com/better-hash/ai-video-generator/internal/poller"
)

type commandContext struct {
	configFlag *string
	apiFlag    *string
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error

	mu      sync.Mutex
	logger  *slog.Logger
	history *history.Store
}

func newCommandContext(configFlag, apiFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		apiFlag:    apiFlag,
		verbose:    verbose,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		// A .env file in the working directory can supply VIDGEN_* overrides.
		// Variables already set in the environment win.
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			c.configErr = fmt.Errorf("load .env: %w", err)
			return
		}
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.apiFlag != nil && strings.TrimSpace(*c.apiFlag) != "" {
			cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(*c.apiFlag), "/")
		}
		if c.verbose != nil && *c.verbose {
			cfg.Logging.Level = "debug"
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

// configSource describes where the configuration came from.
func (c *commandContext) configSource() string {
	if c.configSeen {
		return c.configPath
	}
	return "defaults (no file at " + c.configPath + ")"
}

// loggerFor builds the process logger once. quiet keeps stderr clean, which
// the studio needs because it owns the terminal.
func (c *commandContext) loggerFor(quiet bool) (*slog.Logger, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.logger != nil {
		return c.logger, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg, quiet)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	c.logger = logger
	return logger, nil
}

func (c *commandContext) gatewayClient(quiet bool) (*gateway.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.loggerFor(quiet)
	if err != nil {
		return nil, err
	}
	return gateway.New(gateway.Config{
		BaseURL:       cfg.API.BaseURL,
		Timeout:       cfg.APITimeout(),
		UserAgent:     cfg.API.UserAgent,
		MaxImageBytes: cfg.Upload.MaxImageBytes,
	}, gateway.WithLogger(logger))
}

func (c *commandContext) newPoller(client *gateway.Client, quiet bool) (*poller.Poller, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.loggerFor(quiet)
	if err != nil {
		return nil, err
	}
	return poller.New(client, poller.Options{Interval: cfg.PollInterval(), Logger: logger}), nil
}

// historyStore opens the journal when history is enabled. It returns nil,
// nil when disabled.
func (c *commandContext) historyStore(ctx context.Context) (*history.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.history != nil {
		return c.history, nil
	}
	store, err := history.Open(ctx, cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	c.history = store
	return store, nil
}

// requireHistory is historyStore for commands that cannot work without it.
func (c *commandContext) requireHistory(ctx context.Context) (*history.Store, error) {
	store, err := c.historyStore(ctx)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("task history is disabled; set history.enabled = true in the config")
	}
	return store, nil
}

func (c *commandContext) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.history != nil {
		_ = c.history.Close()
		c.history = nil
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
