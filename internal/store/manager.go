// Copyright (c) 2026 SSHVault Team
// SSHVault - encrypted SSH public key store
// This source code is licensed under the MIT license found in the LICENSE file.

// Package store owns the in-memory record list and its encrypted
// persistence. All mutating operations hold the manager's write lock for
// their full read-validate-write cycle; the store file is the single
// source of truth and has no separate lock metadata, so no two
// persistence operations may interleave.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sshvault/sshvault/internal/logging"
	"github.com/sshvault/sshvault/internal/model"
	"github.com/sshvault/sshvault/internal/vaultcrypt"
)

// Auditor receives one entry per completed mutating operation. Audit
// failures never fail the operation itself.
type Auditor interface {
	LogAction(action, details string) error
}

// Manager binds a store file path to the machine-local encryption context
// and guards the decrypted record list. Relocating the store means
// constructing a new Manager for the new path, not mutating this one.
type Manager struct {
	mu     sync.RWMutex
	path   string
	cipher vaultcrypt.Cipher
	audit  Auditor

	loaded  bool
	records []model.KeyRecord
}

// NewManager returns a Manager bound to path, encrypting through cipher.
// Nothing is read from disk until the first operation needs it.
func NewManager(path string, cipher vaultcrypt.Cipher) *Manager {
	return &Manager{path: path, cipher: cipher}
}

// SetAuditor attaches an audit sink. Passing nil disables auditing.
func (m *Manager) SetAuditor(a Auditor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = a
}

// Path returns the store file location this manager is bound to.
func (m *Manager) Path() string {
	return m.path
}

// List returns a copy of all records in insertion order, loading and
// decrypting the store file on first use. A missing file is ErrNotFound.
func (m *Manager) List() ([]model.KeyRecord, error) {
	m.mu.RLock()
	if m.loaded {
		out := append([]model.KeyRecord(nil), m.records...)
		m.mu.RUnlock()
		return out, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureLoadedLocked(); err != nil {
		return nil, err
	}
	return append([]model.KeyRecord(nil), m.records...), nil
}

// Get returns the record with the given ID.
func (m *Manager) Get(id string) (model.KeyRecord, error) {
	records, err := m.List()
	if err != nil {
		return model.KeyRecord{}, err
	}
	for _, r := range records {
		if r.ID == id {
			return r, nil
		}
	}
	return model.KeyRecord{}, fmt.Errorf("record %q: %w", id, ErrNotFound)
}

// Reload drops the in-memory cache so the next operation re-reads the
// store file.
func (m *Manager) Reload() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded = false
	m.records = nil
}

// Create writes a fresh, empty store file. It refuses to clobber an
// existing one unless force is set.
func (m *Manager) Create(force bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !force {
		if _, err := os.Stat(m.path); err == nil {
			return fmt.Errorf("%q: %w", m.path, ErrExists)
		}
	}
	if err := m.saveLocked(nil); err != nil {
		return err
	}
	m.records = nil
	m.loaded = true
	m.logAction("CREATE_STORE", m.path)
	return nil
}

// Add validates and appends a new record, persists, and returns it.
func (m *Manager) Add(name, tag, keyContent string) (model.KeyRecord, error) {
	return m.add(name, tag, keyContent, "")
}

// AddFromFile reads a public key file, trims it, and adds it with the file
// recorded as provenance.
func (m *Manager) AddFromFile(name, tag, path string) (model.KeyRecord, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return model.KeyRecord{}, fmt.Errorf("read key file: %w", err)
	}
	source := path
	if abs, aerr := filepath.Abs(path); aerr == nil {
		source = abs
	}
	return m.add(name, tag, string(content), source)
}

func (m *Manager) add(name, tag, keyContent, sourcePath string) (model.KeyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureLoadedLocked(); err != nil {
		return model.KeyRecord{}, err
	}

	rec := model.NewKeyRecord(name, tag, keyContent)
	rec.SourcePath = sourcePath
	if err := validateRecord(rec, m.records, ""); err != nil {
		return model.KeyRecord{}, err
	}

	next := append(append([]model.KeyRecord(nil), m.records...), rec)
	if err := m.saveLocked(next); err != nil {
		return model.KeyRecord{}, err
	}
	m.records = next
	m.logAction("ADD_KEY", rec.String())
	return rec, nil
}

// Update applies a partial field set to the record with the given ID,
// re-validates the store invariants, and persists. sourcePath, when
// non-empty, replaces the record's provenance.
func (m *Manager) Update(id string, u model.KeyRecordUpdate, sourcePath string) (model.KeyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureLoadedLocked(); err != nil {
		return model.KeyRecord{}, err
	}

	idx := -1
	for i, r := range m.records {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return model.KeyRecord{}, fmt.Errorf("record %q: %w", id, ErrNotFound)
	}

	rec := m.records[idx]
	rec.Apply(u)
	if sourcePath != "" {
		rec.SourcePath = sourcePath
	}
	if err := validateRecord(rec, m.records, id); err != nil {
		return model.KeyRecord{}, err
	}

	next := append([]model.KeyRecord(nil), m.records...)
	next[idx] = rec
	if err := m.saveLocked(next); err != nil {
		return model.KeyRecord{}, err
	}
	m.records = next
	m.logAction("UPDATE_KEY", rec.String())
	return rec, nil
}

// Remove deletes the record with the given ID and persists.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureLoadedLocked(); err != nil {
		return err
	}

	next := make([]model.KeyRecord, 0, len(m.records))
	var removed *model.KeyRecord
	for _, r := range m.records {
		if r.ID == id {
			rr := r
			removed = &rr
			continue
		}
		next = append(next, r)
	}
	if removed == nil {
		return fmt.Errorf("record %q: %w", id, ErrNotFound)
	}

	if err := m.saveLocked(next); err != nil {
		return err
	}
	m.records = next
	m.logAction("REMOVE_KEY", removed.String())
	return nil
}

// validateRecord checks the field and uniqueness invariants of rec against
// existing records, skipping the record identified by excludeID (the one
// being updated).
func validateRecord(rec model.KeyRecord, existing []model.KeyRecord, excludeID string) error {
	if rec.Name == "" {
		return errEmptyField("name")
	}
	if rec.Key == "" {
		return errEmptyField("key")
	}
	for _, r := range existing {
		if r.ID == excludeID {
			continue
		}
		if r.Name == rec.Name {
			return errDuplicateField("name")
		}
		if r.Key == rec.Key {
			return errDuplicateField("key")
		}
	}
	return nil
}

// ensureLoadedLocked populates the cache from disk if needed. Caller holds
// the write lock.
func (m *Manager) ensureLoadedLocked() error {
	if m.loaded {
		return nil
	}

	blob, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("store file %q: %w", m.path, ErrNotFound)
		}
		return fmt.Errorf("read store file: %w", err)
	}

	plaintext, err := m.cipher.Decrypt(blob)
	if err != nil {
		return fmt.Errorf("open store file %q: %w", m.path, ErrCrypto)
	}

	records, err := decodePayload(plaintext)
	if err != nil {
		return err
	}

	m.records = records
	m.loaded = true
	return nil
}

// saveLocked serializes, encrypts and atomically replaces the store file.
// Caller holds the write lock. The previous file survives any failure.
func (m *Manager) saveLocked(records []model.KeyRecord) error {
	plaintext, err := encodePayload(records)
	if err != nil {
		return err
	}
	blob, err := m.cipher.Encrypt(plaintext)
	if err != nil {
		return fmt.Errorf("encrypt store payload: %w", err)
	}
	return writeFileAtomic(m.path, blob)
}

// writeFileAtomic writes data to a temp sibling and renames it over path,
// so a crash mid-write cannot corrupt an existing store file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".sshvault-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-ops once the rename has happened.
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp store file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp store file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		return fmt.Errorf("chmod temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp store file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}

// logAction forwards to the attached auditor, if any. Failures are logged
// at debug level and otherwise ignored.
func (m *Manager) logAction(action, details string) {
	if m.audit == nil {
		return
	}
	if err := m.audit.LogAction(action, details); err != nil {
		logging.Debugf("audit log write failed: %v", err)
	}
}
