// Copyright (c) 2026 SSHVault Team
// SSHVault - encrypted SSH public key store
// This source code is licensed under the MIT license found in the LICENSE file.

package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// storeFileName is the default basename of the encrypted store file.
const storeFileName = "keys.enc"

// DefaultPath returns the per-user default store file location,
// e.g. ~/.config/sshvault/keys.enc on Linux.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not get user config directory: %w", err)
	}
	return filepath.Join(configDir, "sshvault", storeFileName), nil
}
