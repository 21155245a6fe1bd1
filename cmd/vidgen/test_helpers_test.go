package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/better-hash/ai-video-generator/internal/devbackend"
)

type cliTestEnv struct {
	server     *httptest.Server
	requests   *atomic.Int64
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("VIDGEN_API_URL", "")
	t.Setenv("VIDGEN_NTFY_TOPIC", "")

	var requests atomic.Int64
	backend := devbackend.New(devbackend.Options{StepInterval: -1})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		backend.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, server.URL+"/api", base)

	return &cliTestEnv{
		server:     server,
		requests:   &requests,
		configPath: configPath,
		baseDir:    base,
	}
}

func writeTestConfig(t *testing.T, path, apiURL, base string) {
	t.Helper()
	content := fmt.Sprintf(`[api]
base_url = %q
timeout_seconds = 5

[poller]
interval_seconds = 1

[paths]
log_dir = %q
state_dir = %q

[logging]
level = "error"

[history]
enabled = true
path = %q
`, apiURL, filepath.Join(base, "logs"), filepath.Join(base, "state"), filepath.Join(base, "state", "history.db"))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
