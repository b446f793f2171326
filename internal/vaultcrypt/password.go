// Copyright (c) 2026 SSHVault Team
// SSHVault - encrypted SSH public key store
// This source code is licensed under the MIT license found in the LICENSE file.

package vaultcrypt

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Argon2id parameters for the password context. Deliberately slow: this
// derivation defends a user-chosen password on a file that may travel
// between machines.
const (
	passwordSaltSize     = 32
	passwordArgonTime    = 3
	passwordArgonMemory  = 64 * 1024 // KiB, i.e. 64 MiB
	passwordArgonThreads = 4
)

// PasswordCipher is the export/import encryption context. Every Encrypt
// call draws a fresh random salt, so two exports of the same store under
// the same password never share key material.
type PasswordCipher struct {
	password []byte
}

// NewPasswordCipher wraps a user-supplied password. The password is held
// as a byte slice so callers can zero it when done.
func NewPasswordCipher(password []byte) *PasswordCipher {
	p := make([]byte, len(password))
	copy(p, password)
	return &PasswordCipher{password: p}
}

// Encrypt seals plaintext into magic || salt(32) || nonce(24) ||
// ciphertext+tag. The salt is not secret; it only has to be unique.
func (c *PasswordCipher) Encrypt(plaintext []byte) ([]byte, error) {
	salt := make([]byte, passwordSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	key := c.deriveKey(salt)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, len(magicPassword)+len(salt)+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, magicPassword...)
	out = append(out, salt...)
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, plaintext, magicPassword)
	return out, nil
}

// Decrypt opens a blob produced by Encrypt. A wrong password and a corrupt
// file are indistinguishable here on purpose; both fail the tag check and
// surface as ErrAuthentication.
func (c *PasswordCipher) Decrypt(blob []byte) ([]byte, error) {
	minLen := len(magicPassword) + passwordSaltSize + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead
	if len(blob) < minLen {
		return nil, ErrFormat
	}
	if string(blob[:len(magicPassword)]) != string(magicPassword) {
		return nil, ErrFormat
	}

	off := len(magicPassword)
	salt := blob[off : off+passwordSaltSize]
	off += passwordSaltSize
	nonce := blob[off : off+chacha20poly1305.NonceSizeX]
	off += chacha20poly1305.NonceSizeX
	ciphertext := blob[off:]

	key := c.deriveKey(salt)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, magicPassword)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plaintext, nil
}

// Zero wipes the held password copy.
func (c *PasswordCipher) Zero() {
	for i := range c.password {
		c.password[i] = 0
	}
	c.password = nil
}

func (c *PasswordCipher) deriveKey(salt []byte) []byte {
	return argon2.IDKey(c.password, salt, passwordArgonTime, passwordArgonMemory, passwordArgonThreads, chacha20poly1305.KeySize)
}
