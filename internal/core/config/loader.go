package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults if necessary
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Recovery.Timeout == 0 {
		cfg.Recovery.Timeout = 30 * time.Second
	}
	if cfg.Recovery.Network.InitialDelay == 0 {
		cfg.Recovery.Network.InitialDelay = 1 * time.Second
	}
	if cfg.Recovery.Network.MaxDelay == 0 {
		cfg.Recovery.Network.MaxDelay = 30 * time.Second
	}
	if cfg.Recovery.Network.MaxAttempts == 0 {
		cfg.Recovery.Network.MaxAttempts = 3
	}
	if cfg.Snapshot.Path == "" {
		cfg.Snapshot.Path = "faultline-state.json"
	}

	return &cfg, nil
}
