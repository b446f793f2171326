// Copyright (c) 2026 SSHVault Team
// SSHVault - encrypted SSH public key store
// This source code is licensed under the MIT license found in the LICENSE file.

package vaultcrypt

import "bytes"

// Cipher is the common contract of the two encryption contexts. The store
// manager serializes and deserializes through this interface and stays
// agnostic to which key derivation is in play.
type Cipher interface {
	// Encrypt seals plaintext into a self-contained blob embedding
	// whatever nonce and salt the context requires.
	Encrypt(plaintext []byte) ([]byte, error)
	// Decrypt opens a blob produced by Encrypt of the same context.
	// It returns ErrAuthentication on any integrity failure and ErrFormat
	// for blobs of the wrong context or shape.
	Decrypt(blob []byte) ([]byte, error)
}

var (
	_ Cipher = (*LocalCipher)(nil)
	_ Cipher = (*PasswordCipher)(nil)
)

// IsLocalBlob reports whether data starts with the machine-local context
// magic. Callers use this to recognize a store file before attempting
// anything else with it.
func IsLocalBlob(data []byte) bool {
	return bytes.HasPrefix(data, magicLocal)
}

// IsPasswordBlob reports whether data starts with the password context
// magic, i.e. looks like a password-protected export.
func IsPasswordBlob(data []byte) bool {
	return bytes.HasPrefix(data, magicPassword)
}
