// Copyright (c) 2026 SSHVault Team
// SSHVault - encrypted SSH public key store
// This source code is licensed under the MIT license found in the LICENSE file.

package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sshvault/sshvault/internal/model"
	"github.com/sshvault/sshvault/internal/sshkey"
	"github.com/sshvault/sshvault/internal/vaultcrypt"
)

// ExportPlain writes the current records to path as a compressed JSON
// document. Public key material is not secret, so the passwordless export
// carries no encryption; use ExportWithPassword for an opaque file.
func (m *Manager) ExportPlain(path string) (int, error) {
	records, err := m.List()
	if err != nil {
		return 0, err
	}
	data, err := encodePayload(records)
	if err != nil {
		return 0, err
	}
	if err := writeFileAtomic(path, data); err != nil {
		return 0, err
	}
	m.mu.RLock()
	m.logAction("EXPORT_KEYS", fmt.Sprintf("%d records to %s", len(records), path))
	m.mu.RUnlock()
	return len(records), nil
}

// ExportWithPassword re-encrypts the current serialized record list under
// the password context with a fresh random salt and writes it to path.
func (m *Manager) ExportWithPassword(path string, password []byte) (int, error) {
	records, err := m.List()
	if err != nil {
		return 0, err
	}
	data, err := encodePayload(records)
	if err != nil {
		return 0, err
	}

	pc := vaultcrypt.NewPasswordCipher(password)
	defer pc.Zero()
	blob, err := pc.Encrypt(data)
	if err != nil {
		return 0, fmt.Errorf("encrypt export: %w", err)
	}

	if err := writeFileAtomic(path, blob); err != nil {
		return 0, err
	}
	m.mu.RLock()
	m.logAction("EXPORT_KEYS_ENCRYPTED", fmt.Sprintf("%d records to %s", len(records), path))
	m.mu.RUnlock()
	return len(records), nil
}

// ImportWithPassword decrypts a password-protected export and merges its
// records into the store. The slow key derivation and the parse run before
// the write lock is taken; the store file is replaced all-or-nothing.
func (m *Manager) ImportWithPassword(path string, password []byte) (MergeResult, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return MergeResult{}, fmt.Errorf("import file %q: %w", path, ErrNotFound)
		}
		return MergeResult{}, fmt.Errorf("read import file: %w", err)
	}

	pc := vaultcrypt.NewPasswordCipher(password)
	defer pc.Zero()
	plaintext, err := pc.Decrypt(blob)
	if err != nil {
		// Wrong password, corrupt file and wrong-context file all look
		// the same to the user on purpose.
		return MergeResult{}, ErrInvalidPassword
	}

	incoming, err := decodePayload(plaintext)
	if err != nil {
		return MergeResult{}, err
	}
	return m.mergeAndSave(incoming, path)
}

// ImportPlain merges records from a passwordless file: either a compressed
// JSON export or a plaintext public key file (single line or
// authorized_keys style).
func (m *Manager) ImportPlain(path string) (MergeResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return MergeResult{}, fmt.Errorf("import file %q: %w", path, ErrNotFound)
		}
		return MergeResult{}, fmt.Errorf("read import file: %w", err)
	}

	// The encrypted formats are self-identifying; never let ciphertext
	// fall through to the key-line parser.
	if vaultcrypt.IsPasswordBlob(data) {
		return MergeResult{}, fmt.Errorf("%q is a password-protected export; import it with a password: %w", path, ErrEncrypted)
	}
	if vaultcrypt.IsLocalBlob(data) {
		return MergeResult{}, fmt.Errorf("%q is a machine-bound store file and cannot be imported directly: %w", path, ErrEncrypted)
	}

	incoming, err := decodePayload(data)
	if err != nil {
		// Not one of our exports; fall back to raw key lines.
		incoming, err = parseKeyLines(path, string(data))
		if err != nil {
			return MergeResult{}, err
		}
	}
	return m.mergeAndSave(incoming, path)
}

// mergeAndSave reconciles incoming candidates against the store under the
// write lock and persists the merged set. On any failure the store file
// and cache are left exactly as they were.
func (m *Manager) mergeAndSave(incoming []model.KeyRecord, source string) (MergeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureLoadedLocked(); err != nil {
		return MergeResult{}, err
	}

	merged, res := mergeRecords(m.records, incoming)
	if res.Imported > 0 {
		if err := m.saveLocked(merged); err != nil {
			return MergeResult{}, err
		}
		m.records = merged
	}
	m.logAction("IMPORT_KEYS", fmt.Sprintf("%d imported, %d duplicates from %s", res.Imported, res.Duplicates, source))
	return res, nil
}

// parseKeyLines turns a plaintext key file into import candidates. Blank
// lines and comments are skipped; a line that does not parse as a key
// still becomes a candidate (key_type ends up "unknown") so ingestion
// never silently drops content the user asked to import.
func parseKeyLines(path, content string) ([]model.KeyRecord, error) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var out []model.KeyRecord

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		name := sshkey.Comment(line)
		if name == "" {
			name = base
		}
		rec := model.NewKeyRecord(name, "", line)
		rec.SourcePath = path
		out = append(out, rec)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no key lines in %q", ErrParse, path)
	}
	return out, nil
}
