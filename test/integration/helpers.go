//go:build integration

package integration

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TestConfig holds configuration for integration tests.
type TestConfig struct {
	URL           string
	Username      string
	Password      string
	Vendor        string
	DevportalPath string
	Verbose       bool
}

// LoadTestConfig loads configuration from environment variables.
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		URL:           os.Getenv("DEVPORTAL_TEST_URL"),
		Username:      os.Getenv("DEVPORTAL_TEST_USERNAME"),
		Password:      os.Getenv("DEVPORTAL_TEST_PASSWORD"),
		Vendor:        os.Getenv("DEVPORTAL_TEST_VENDOR"),
		DevportalPath: getDevportalPath(),
		Verbose:       os.Getenv("DEVPORTAL_TEST_VERBOSE") == "true",
	}
}

// getDevportalPath determines the path to the devportal binary.
func getDevportalPath() string {
	if path := os.Getenv("DEVPORTAL_BINARY_PATH"); path != "" {
		return path
	}

	candidates := []string{
		"../../devportal",
		"./devportal",
		"../devportal",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "devportal"
}

// SkipIfMissingConfig skips test if the API endpoint is not configured.
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.URL == "" {
		t.Skip("DEVPORTAL_TEST_URL not set, skipping integration test")
	}
}

// SkipIfMissingCredentials skips test if no vendor account is configured.
func (config *TestConfig) SkipIfMissingCredentials(t *testing.T) {
	t.Helper()

	config.SkipIfMissingConfig(t)

	if config.Username == "" || config.Password == "" || config.Vendor == "" {
		t.Skip("DEVPORTAL_TEST_USERNAME, DEVPORTAL_TEST_PASSWORD or DEVPORTAL_TEST_VENDOR not set, skipping integration test")
	}
}

// SkipIfMissingBinary skips test if the devportal binary cannot be found.
func (config *TestConfig) SkipIfMissingBinary(t *testing.T) {
	t.Helper()

	_, err := exec.LookPath(config.DevportalPath)
	if err != nil {
		t.Skipf("devportal binary not found at %s, skipping integration test", config.DevportalPath)
	}
}

// CommandRunner runs devportal commands against an isolated config file.
type CommandRunner struct {
	config     *TestConfig
	configFile string
	t          *testing.T
}

// NewCommandRunner creates a new command runner.
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	t.Helper()

	return &CommandRunner{
		config:     config,
		configFile: filepath.Join(t.TempDir(), "config.yml"),
		t:          t,
	}
}

// Run executes a devportal command and returns output.
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	return runner.RunWithInput("", args...)
}

// RunWithInput executes a devportal command with stdin input.
func (runner *CommandRunner) RunWithInput(input string, args ...string) (stdout, stderr string, err error) {
	args = append([]string{"--config", runner.configFile, "--url", runner.config.URL}, args...)

	// #nosec G204 -- test binary path comes from the test environment
	cmd := exec.Command(runner.config.DevportalPath, args...)

	var stdoutBuf, stderrBuf bytes.Buffer

	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	cmd.Stdin = strings.NewReader(input)

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.DevportalPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// Login logs in with the configured vendor account.
func (runner *CommandRunner) Login() error {
	_, _, err := runner.RunWithInput(runner.config.Password+"\n", "login", "--username", runner.config.Username)

	return err
}

// AssertJSONOutput verifies command output is valid JSON.
func AssertJSONOutput(t *testing.T, output string) {
	t.Helper()

	output = strings.TrimSpace(output)
	if !strings.HasPrefix(output, "{") && !strings.HasPrefix(output, "[") {
		t.Errorf("Output does not appear to be JSON: %s", output)
	}
}
