package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds user preferences
type Config struct {
	ServerURL     string `yaml:"server_url" json:"server_url"` // Backend endpoint URL
	APIKey        string `yaml:"api_key" json:"api_key"`       // Anonymous API key sent with every request
	Theme         string `yaml:"theme" json:"theme"`           // "dark" or "light"
	PageSize      int    `yaml:"page_size" json:"page_size"`   // Invoice rows shown per screen
	ConfirmDelete bool   `yaml:"confirm_delete" json:"confirm_delete"`

	// Logging configuration
	LogLevel   string `yaml:"log_level" json:"log_level"`
	LogFile    string `yaml:"log_file" json:"log_file"`
	LogConsole bool   `yaml:"log_console" json:"log_console"`
}

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	logPath := ""
	if home != "" {
		logPath = filepath.Join(home, ".billfold", "logs", "billfold.log")
	}

	return &Config{
		ServerURL:     getEnv("BILLFOLD_SERVER_URL", "http://localhost:8080"),
		APIKey:        getEnv("BILLFOLD_API_KEY", ""),
		Theme:         "dark",
		PageSize:      10,
		ConfirmDelete: true,
		LogLevel:      getEnv("BILLFOLD_LOG_LEVEL", "INFO"),
		LogFile:       getEnv("BILLFOLD_LOG_FILE", logPath),
		LogConsole:    getEnv("BILLFOLD_LOG_CONSOLE", "false") == "true",
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Dir returns the billfold config directory (~/.billfold)
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".billfold"), nil
}

// Load loads config from ~/.billfold/config.yaml
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(dir, "config.yaml")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save saves config to ~/.billfold/config.yaml
func (c *Config) Save() error {
	dir, err := Dir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
