//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	BaseURL    string
	APIKey     string
	BinaryPath string
	Verbose    bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		BaseURL:    os.Getenv("KONG_BASE"),
		APIKey:     os.Getenv("KONG_APIKEY"),
		BinaryPath: binaryPath(),
		Verbose:    os.Getenv("KONGCLI_VERBOSE") == "true",
	}
}

func binaryPath() string {
	if path := os.Getenv("KONGCLI_BINARY_PATH"); path != "" {
		return path
	}

	for _, candidate := range []string{"../../kongcli", "./kongcli", "../kongcli"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "kongcli"
}

// SkipIfMissingConfig skips test if no admin API is configured or the binary is missing.
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	if config.BaseURL == "" {
		t.Skip("KONG_BASE not set, skipping integration test")
	}

	if _, err := exec.LookPath(config.BinaryPath); err != nil {
		t.Skipf("kongcli binary not found at %s, skipping integration test", config.BinaryPath)
	}
}

// CommandRunner runs kongcli against the configured admin API.
type CommandRunner struct {
	config *TestConfig
	t      *testing.T
}

func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	return &CommandRunner{config: config, t: t}
}

// Run executes a kongcli command and returns output
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	cmd := exec.Command(runner.config.BinaryPath, args...)
	cmd.Env = append(os.Environ(), "KONG_BASE="+runner.config.BaseURL)

	if runner.config.APIKey != "" {
		cmd.Env = append(cmd.Env, "KONG_APIKEY="+runner.config.APIKey)
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.BinaryPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// RunJSON executes a command with JSON output and decodes the result into v.
func (runner *CommandRunner) RunJSON(v interface{}, args ...string) {
	runner.t.Helper()

	stdout, stderr, err := runner.Run(append(args, "-o", "json")...)
	require.NoError(runner.t, err, stderr)
	require.NoError(runner.t, json.Unmarshal([]byte(stdout), v), stdout)
}

// GenerateTestName creates a unique test resource name
func GenerateTestName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// CleanupResource deletes a resource, logging instead of failing.
func (runner *CommandRunner) CleanupResource(command, id string) {
	stdout, stderr, err := runner.Run(command, "delete", id)
	if err != nil && runner.config.Verbose {
		runner.t.Logf("Cleanup warning for %s %s: %s\nStderr: %s", command, id, stdout, stderr)
	}
}
