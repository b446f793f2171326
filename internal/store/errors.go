// Copyright (c) 2026 SSHVault Team
// SSHVault - encrypted SSH public key store
// This source code is licensed under the MIT license found in the LICENSE file.

package store

import (
	"errors"
	"fmt"
)

// The closed error taxonomy of the store. Callers branch on these with
// errors.Is / errors.As and build user-facing messages from the match,
// never by parsing error strings.
var (
	// ErrNotFound means the store file (or a record addressed by ID) does
	// not exist. Recoverable: the caller can offer create or import flows.
	ErrNotFound = errors.New("not found")

	// ErrCrypto means a decryption failed its authentication check: the
	// file is corrupt, belongs to another machine, or the password was
	// wrong. The cases are deliberately not distinguished.
	ErrCrypto = errors.New("decryption failed")

	// ErrInvalidPassword wraps ErrCrypto for password-based imports so the
	// CLI can show the single generic "invalid password or corrupt file"
	// message required for that flow.
	ErrInvalidPassword = fmt.Errorf("invalid password or corrupt file: %w", ErrCrypto)

	// ErrParse means the decrypted payload did not match the expected
	// structure.
	ErrParse = errors.New("malformed store payload")

	// ErrExists means a create was attempted over an existing store file.
	ErrExists = errors.New("store file already exists")

	// ErrEncrypted means a plain import was pointed at an encrypted file.
	// The caller must retry with a password, or not at all for a
	// machine-bound store file.
	ErrEncrypted = errors.New("file is encrypted")
)

// ValidationError reports which field of an add/update violated an
// invariant. Field is one of "name", "key", "tag".
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func errEmptyField(field string) error {
	return &ValidationError{Field: field, Reason: "must not be empty"}
}

func errDuplicateField(field string) error {
	return &ValidationError{Field: field, Reason: "already exists in the store"}
}
