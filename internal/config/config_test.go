// Copyright (c) 2026 SSHVault Team
// SSHVault - encrypted SSH public key store
// This source code is licensed under the MIT license found in the LICENSE file.
package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	cfg "github.com/sshvault/sshvault/internal/config"
)

// pointUserConfigAt redirects os.UserConfigDir to a temp dir.
func pointUserConfigAt(t *testing.T, dir string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Setenv("AppData", dir)
	} else {
		t.Setenv("XDG_CONFIG_HOME", dir)
	}
}

func TestLoad_Defaults(t *testing.T) {
	pointUserConfigAt(t, t.TempDir())

	c, err := cfg.Load(nil, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Language != "en" {
		t.Fatalf("unexpected default language: %s", c.Language)
	}
	if c.Audit.Type != "sqlite" {
		t.Fatalf("unexpected default audit type: %s", c.Audit.Type)
	}
	if c.KeysFile != "" {
		t.Fatalf("keys_file should default to empty, got %q", c.KeysFile)
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	pointUserConfigAt(t, t.TempDir())

	file := filepath.Join(t.TempDir(), "cfg.yaml")
	yaml := "keys_file: /tmp/custom/keys.enc\nlanguage: de\naudit:\n  type: postgres\n  dsn: postgresql://user@/audit\n"
	if err := os.WriteFile(file, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	c, err := cfg.Load(nil, &file)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.KeysFile != "/tmp/custom/keys.enc" {
		t.Fatalf("unexpected keys_file: %s", c.KeysFile)
	}
	if c.Language != "de" {
		t.Fatalf("unexpected language: %s", c.Language)
	}
	if c.Audit.Type != "postgres" || c.Audit.DSN != "postgresql://user@/audit" {
		t.Fatalf("unexpected audit config: %+v", c.Audit)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	pointUserConfigAt(t, t.TempDir())
	t.Setenv("SSHVAULT_LANGUAGE", "de")

	c, err := cfg.Load(nil, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Language != "de" {
		t.Fatalf("env override not applied: %s", c.Language)
	}
}

func TestWriteThenLoad(t *testing.T) {
	pointUserConfigAt(t, t.TempDir())

	c := cfg.Config{
		KeysFile: "/tmp/keys.enc",
		Language: "de",
		Audit:    cfg.AuditConfig{Type: "off"},
	}
	if err := cfg.Write(&c, false); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := cfg.Load(nil, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.KeysFile != "/tmp/keys.enc" || got.Language != "de" || got.Audit.Type != "off" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	pointUserConfigAt(t, t.TempDir())

	file := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(file, []byte("language: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := cfg.Load(nil, &file); err == nil {
		t.Fatalf("expected error for malformed config")
	}
}
