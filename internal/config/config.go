// Copyright (c) 2026 SSHVault Team
// SSHVault - encrypted SSH public key store
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config loads and persists the SSHVault configuration file. The
// precedence order is CLI flags > environment > explicit --config file >
// user config dir > system config dir > current directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	// KeysFile overrides the default store file location when non-empty.
	KeysFile string `mapstructure:"keys_file" yaml:"keys_file"`
	// Language selects the UI locale (e.g. "en", "de").
	Language string `mapstructure:"language" yaml:"language"`
	// Audit configures the operation log database.
	Audit AuditConfig `mapstructure:"audit" yaml:"audit"`
}

// AuditConfig selects the audit log backend. Type is one of "sqlite",
// "postgres", "mysql" or "off".
type AuditConfig struct {
	Type string `mapstructure:"type" yaml:"type"`
	DSN  string `mapstructure:"dsn" yaml:"dsn"`
}

// Defaults returns the built-in configuration defaults keyed the way viper
// expects them.
func Defaults() map[string]any {
	return map[string]any{
		"keys_file":  "",
		"language":   "en",
		"audit.type": "sqlite",
		"audit.dsn":  "", // empty means a sqlite file next to the store
	}
}

// getConfigPath returns the full path for the configuration file.
func getConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "SSHVault")
		default: // Linux, macOS, etc.
			configDir = "/etc/sshvault"
		}
	} else {
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "sshvault")
	}

	return filepath.Join(configDir, "sshvault.yaml"), nil
}

// Load resolves the effective configuration for a command invocation.
// explicitFile, when non-nil, has the highest file precedence (--config).
func Load(cmd *cobra.Command, explicitFile *string) (Config, error) {
	var c Config
	v := viper.New()

	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	v.SetConfigName("sshvault")
	v.SetConfigType("yaml")

	if explicitFile != nil && *explicitFile != "" {
		v.SetConfigFile(*explicitFile)
	}

	if userConfigPath, err := getConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := getConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; a malformed one is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
	v.SetEnvPrefix("sshvault")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	return c, nil
}

// Write persists the configuration to the user (or system) config file,
// creating the directory as needed.
func Write(c *Config, system bool) error {
	path, err := getConfigPath(system)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	// 0600: the config may name a private store location.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}

	return nil
}
