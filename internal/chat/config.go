/*-------------------------------------------------------------------------
 *
 * Configuration loading for DB Chat Client
 *
 * Copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package chat

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the chat client
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	UI      UIConfig      `yaml:"ui"`
}

// ServerConfig holds query-translation backend connection configuration
type ServerConfig struct {
	URL string `yaml:"url"` // Backend base URL (http or https)
}

// StorageConfig holds local persistence configuration
type StorageConfig struct {
	DataDir          string `yaml:"data_dir"`          // Directory for the conversation archive
	SessionFile      string `yaml:"session_file"`      // Session identity file
	VisualizationDir string `yaml:"visualization_dir"` // Where decoded visualization images land
}

// UIConfig holds UI configuration
type UIConfig struct {
	NoColor               bool `yaml:"no_color"`        // Disable colored output
	RenderMarkdown        bool `yaml:"render_markdown"` // Render assistant responses as markdown
	DisplayStatusMessages bool `yaml:"display_status_messages"`
}

// LoadConfig loads configuration from file, environment variables, and defaults
func LoadConfig(configPath string) (*Config, error) {
	home := os.Getenv("HOME")
	cfg := &Config{
		Server: ServerConfig{
			URL: getEnvOrDefault("PGEDGE_DBCHAT_SERVER_URL", "http://localhost:8001"),
		},
		Storage: StorageConfig{
			DataDir:          filepath.Join(home, ".pgedge-dbchat"),
			SessionFile:      filepath.Join(home, ".pgedge-dbchat-session"),
			VisualizationDir: filepath.Join(home, ".pgedge-dbchat", "visualizations"),
		},
		UI: UIConfig{
			NoColor:               os.Getenv("NO_COLOR") != "",
			RenderMarkdown:        true,
			DisplayStatusMessages: true,
		},
	}

	// Load from config file if provided
	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		// Try default locations
		defaultPaths := []string{
			".pgedge-dbchat.yaml",
			filepath.Join(home, ".pgedge-dbchat.yaml"),
			"/etc/pgedge-dbchat/config.yaml",
		}
		for _, path := range defaultPaths {
			if _, err := os.Stat(path); err == nil {
				if err := loadConfigFile(path, cfg); err == nil {
					break
				}
			}
		}
	}

	return cfg, nil
}

// loadConfigFile loads configuration from a YAML file
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server url is required")
	}

	u, err := url.Parse(c.Server.URL)
	if err != nil {
		return fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid server url scheme: %s (must be http or https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("server url has no host: %s", c.Server.URL)
	}

	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage data_dir is required")
	}
	if c.Storage.SessionFile == "" {
		return fmt.Errorf("storage session_file is required")
	}

	return nil
}

// getEnvOrDefault returns the environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
