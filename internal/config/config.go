package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds the application configuration
type Config struct {
	Analysis AnalysisConfig `json:"analysis"`
	Pipeline PipelineConfig `json:"pipeline"`
	Output   OutputConfig   `json:"output"`
}

// AnalysisConfig holds the remote analysis backend settings. APIKey is
// normally supplied via environment, not the file.
type AnalysisConfig struct {
	Backend string `json:"backend"` // "gemini" or "ollama"
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	APIKey  string `json:"api_key,omitempty"`
}

// PipelineConfig holds compression and progress settings.
type PipelineConfig struct {
	MaxWidth        int     `json:"max_width"`
	Quality         float64 `json:"quality"`
	ResetDelayMilli int     `json:"reset_delay_ms"`
}

// OutputConfig holds settings for exported canvases and artifacts.
type OutputConfig struct {
	Dir         string `json:"dir"`
	ArtifactDir string `json:"artifact_dir"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Backend: "gemini",
		},
		Pipeline: PipelineConfig{
			MaxWidth:        1920,
			Quality:         0.8,
			ResetDelayMilli: 2000,
		},
		Output: OutputConfig{
			Dir: "./out",
		},
	}
}

// ResetDelay returns the configured progress reset delay.
func (c *Config) ResetDelay() time.Duration {
	return time.Duration(c.Pipeline.ResetDelayMilli) * time.Millisecond
}

// LoadFromFile loads configuration from a JSON file, filling missing
// sections with defaults.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Analysis.Backend {
	case "gemini", "ollama":
	default:
		return fmt.Errorf("analysis.backend must be \"gemini\" or \"ollama\"")
	}

	if c.Pipeline.MaxWidth < 1 {
		return fmt.Errorf("pipeline.max_width must be positive")
	}

	if c.Pipeline.Quality <= 0 || c.Pipeline.Quality > 1 {
		return fmt.Errorf("pipeline.quality must be in (0, 1]")
	}

	if c.Pipeline.ResetDelayMilli < 0 {
		return fmt.Errorf("pipeline.reset_delay_ms must not be negative")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "volleycoach", "config.json")
}
