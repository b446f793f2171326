// Copyright (c) 2026 SSHVault Team
// SSHVault - encrypted SSH public key store
// This source code is licensed under the MIT license found in the LICENSE file.

package vaultcrypt

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrAuthentication is returned when a ciphertext fails its integrity
// check: the file is corrupt, was encrypted on another machine, or (for the
// password context) the password is wrong. Callers must not distinguish
// these cases further.
var ErrAuthentication = errors.New("ciphertext authentication failed")

// ErrFormat is returned for blobs too short or carrying the wrong magic to
// be a store file of the expected context.
var ErrFormat = errors.New("unrecognized store file format")

// File magics. Four plaintext bytes identify the encryption context without
// revealing anything about the contents.
var (
	magicLocal    = []byte("SVL1")
	magicPassword = []byte("SVP1")
)

// LocalCipher is the machine-bound encryption context. The symmetric key is
// derived once at construction from the machine identity; no key material
// is ever written to disk.
type LocalCipher struct {
	key []byte
}

// NewLocalCipher derives the machine key and returns a ready cipher.
// It fails when no machine identity source is readable.
func NewLocalCipher() (*LocalCipher, error) {
	identity, err := machineIdentity()
	if err != nil {
		return nil, fmt.Errorf("collect machine identity: %w", err)
	}
	key, err := deriveMachineKey(identity)
	if err != nil {
		return nil, err
	}
	return &LocalCipher{key: key}, nil
}

// newLocalCipherWithKey exists for tests that need a deterministic key
// independent of the host machine.
func newLocalCipherWithKey(key []byte) *LocalCipher {
	return &LocalCipher{key: key}
}

// Encrypt seals plaintext into a self-contained blob:
// magic || nonce(24) || ciphertext+tag.
func (c *LocalCipher) Encrypt(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, len(magicLocal)+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, magicLocal...)
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, plaintext, magicLocal)
	return out, nil
}

// Decrypt opens a blob produced by Encrypt. A wrong machine, a flipped
// byte anywhere, or a password-context file all surface as an error; no
// partial plaintext ever escapes.
func (c *LocalCipher) Decrypt(blob []byte) ([]byte, error) {
	minLen := len(magicLocal) + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead
	if len(blob) < minLen {
		return nil, ErrFormat
	}
	if string(blob[:len(magicLocal)]) != string(magicLocal) {
		return nil, ErrFormat
	}

	nonce := blob[len(magicLocal) : len(magicLocal)+chacha20poly1305.NonceSizeX]
	ciphertext := blob[len(magicLocal)+chacha20poly1305.NonceSizeX:]

	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, magicLocal)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plaintext, nil
}
