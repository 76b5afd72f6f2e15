package config

import (
	"errors"
	"fmt"
)

// Validate rejects configurations the service cannot start with
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("config: database dsn is required")
	}
	if c.Queue.Concurrency < 1 {
		return fmt.Errorf("config: queue concurrency must be positive, got %d", c.Queue.Concurrency)
	}
	if c.Queue.MaxRetry < 0 {
		return fmt.Errorf("config: queue max_retry must not be negative, got %d", c.Queue.MaxRetry)
	}
	if c.Queue.BackoffBase <= 0 {
		return errors.New("config: queue backoff_base must be positive")
	}
	if c.Queue.ExecutionTimeout <= 0 {
		return errors.New("config: queue execution_timeout must be positive")
	}
	if len(c.Pipeline.Stages) == 0 {
		return errors.New("config: pipeline stages must not be empty")
	}
	seen := make(map[string]bool, len(c.Pipeline.Stages))
	for _, s := range c.Pipeline.Stages {
		if s == "" || seen[s] {
			return fmt.Errorf("config: invalid or duplicate stage name %q", s)
		}
		seen[s] = true
	}
	switch c.Agent.Storage {
	case "local", "r2":
	default:
		return fmt.Errorf("config: unsupported agent storage %q", c.Agent.Storage)
	}
	switch c.Agent.Provider {
	case "auto", "gemini", "groq", "openai", "ollama", "mock":
	default:
		return fmt.Errorf("config: unsupported agent provider %q", c.Agent.Provider)
	}
	if c.Sweep.Enabled && (c.Sweep.Interval <= 0 || c.Sweep.MinAge <= 0) {
		return errors.New("config: sweep interval and min_age must be positive")
	}
	return nil
}
