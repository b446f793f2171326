// Copyright (c) 2026 SSHVault Team
// SSHVault - encrypted SSH public key store
// This source code is licensed under the MIT license found in the LICENSE file.

// Package vaultcrypt implements the two encryption contexts of the store
// file: the local context, keyed from a machine identity with no user
// secret, and the password context, keyed from a user-supplied password.
// Both use XChaCha20-Poly1305 so a decryption with the wrong key fails at
// the authentication tag instead of yielding garbage.
package vaultcrypt

import (
	"crypto/sha256"
	"fmt"
	"io"
	"net"
	"os"
	"runtime"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// keyContext is mixed into the machine key derivation so that a key derived
// by SSHVault never matches one derived by another tool from the same
// machine identity.
const keyContext = "sshvault.store.v1"

// machineIDFiles are tried in order; the first readable non-empty one wins.
var machineIDFiles = []string{
	"/etc/machine-id",
	"/var/lib/dbus/machine-id",
	"/sys/class/dmi/id/product_uuid",
}

// machineIdentity collects stable machine-identifying material. It layers
// several read-only sources so that at least one survives on containers and
// minimal installs; the hostname and platform are always appended.
func machineIdentity() ([]byte, error) {
	var parts []string

	for _, path := range machineIDFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if id := strings.TrimSpace(string(data)); id != "" {
			parts = append(parts, id)
			break
		}
	}

	if mac, err := primaryMAC(); err == nil && mac != "" {
		parts = append(parts, mac)
	}

	hostname, err := os.Hostname()
	if err == nil && hostname != "" {
		parts = append(parts, hostname)
	}
	parts = append(parts, runtime.GOOS, runtime.GOARCH)

	if len(parts) <= 2 {
		// Only GOOS/GOARCH made it in; that is not machine-identifying.
		return nil, fmt.Errorf("no machine identity source available")
	}

	return []byte(strings.Join(parts, ":")), nil
}

// primaryMAC returns the hardware address of the first up, non-loopback
// interface.
func primaryMAC() (string, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return "", err
	}
	for _, iface := range interfaces {
		if iface.Flags&net.FlagUp != 0 && iface.Flags&net.FlagLoopback == 0 && len(iface.HardwareAddr) > 0 {
			return iface.HardwareAddr.String(), nil
		}
	}
	return "", fmt.Errorf("no suitable network interface found")
}

// deriveMachineKey expands the machine identity into a 256-bit symmetric
// key via HKDF-SHA256 with the application context string as info. The
// derivation is fast by design: the input is not a guessable password but
// machine state an attacker off the machine does not have.
func deriveMachineKey(identity []byte) ([]byte, error) {
	r := hkdf.New(sha256.New, identity, nil, []byte(keyContext))
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive machine key: %w", err)
	}
	return key, nil
}
