// Package config resolves driver configuration from the environment with
// sensible defaults. Library packages never read it; only the CLI, the
// scheduler and the web server do.
package config

import (
	"os"
	"path/filepath"
)

// Config holds settings for the AgentBus drivers.
type Config struct {
	// Addr is the listen address of the web front-end.
	Addr string
	// OutputDir receives scheduled workflow results.
	OutputDir string
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
	// LogFormat is json or text.
	LogFormat string
	// ModelProvider selects the analysis backend: openai or anthropic.
	ModelProvider string
}

// New resolves the configuration from AGENTBUS_* environment variables.
func New() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	return &Config{
		Addr:          getEnv("AGENTBUS_ADDR", ":8088"),
		OutputDir:     getEnv("AGENTBUS_OUTPUT_DIR", filepath.Join(homeDir, ".agentbus", "results")),
		LogLevel:      getEnv("AGENTBUS_LOG_LEVEL", "info"),
		LogFormat:     getEnv("AGENTBUS_LOG_FORMAT", "text"),
		ModelProvider: getEnv("AGENTBUS_MODEL_PROVIDER", "openai"),
	}, nil
}

// EnsureOutputDir creates the result directory if missing.
func (c *Config) EnsureOutputDir() error {
	return os.MkdirAll(c.OutputDir, 0o755)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
