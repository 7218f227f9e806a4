package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	defaultServerURL = "http://localhost:8081"
	envServer        = "BUDGETX_SERVER"
)

// fileConfig is the optional ~/.config/budgetx/config.toml.
type fileConfig struct {
	ServerURL string `toml:"server_url"`
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "budgetx")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "budgetx")
}

func defaultConfigPath() string {
	return filepath.Join(configDir(), "config.toml")
}

// loadFileConfig reads path. A missing file is not an error.
func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// resolveServer picks the server URL: flag, then environment, then config
// file, then the local default.
func resolveServer(flag string, cfg fileConfig) string {
	for _, candidate := range []string{flag, os.Getenv(envServer), cfg.ServerURL} {
		if s := strings.TrimSpace(candidate); s != "" {
			return s
		}
	}
	return defaultServerURL
}

func readSmallFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxContextBytes {
		return nil, fmt.Errorf("%s is larger than %d bytes", path, maxContextBytes)
	}
	return os.ReadFile(path)
}
