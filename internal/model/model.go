// Copyright (c) 2026 SSHVault Team
// SSHVault - encrypted SSH public key store
// This source code is licensed under the MIT license found in the LICENSE file.

// Package model defines the core data types shared across SSHVault.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sshvault/sshvault/internal/sshkey"
)

// KeyRecord is one stored SSH public key entry. The record is pure data;
// uniqueness of ID, Name and Key within a store is enforced by the store
// manager, not here.
type KeyRecord struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Tag          string    `json:"tag,omitempty"`
	Key          string    `json:"key"`
	KeyType      string    `json:"key_type"`
	Created      time.Time `json:"created"`
	LastModified time.Time `json:"last_modified"`
	SourcePath   string    `json:"source_path,omitempty"`
}

// KeyRecordUpdate carries a partial field set for an update operation.
// Nil pointers mean "leave untouched".
type KeyRecordUpdate struct {
	Name *string `json:"name,omitempty"`
	Tag  *string `json:"tag,omitempty"`
	Key  *string `json:"key,omitempty"`
}

// NewKeyRecord builds a fresh record with a random ID and both timestamps
// set to now. The key content is trimmed and classified.
func NewKeyRecord(name, tag, keyContent string) KeyRecord {
	now := time.Now().UTC()
	key := strings.TrimSpace(keyContent)
	return KeyRecord{
		ID:           uuid.NewString(),
		Name:         name,
		Tag:          tag,
		Key:          key,
		KeyType:      sshkey.Classify(key),
		Created:      now,
		LastModified: now,
	}
}

// Apply copies the supplied fields of u onto r and refreshes LastModified.
// A key change re-runs classification. Created is never touched.
func (r *KeyRecord) Apply(u KeyRecordUpdate) {
	if u.Name != nil {
		r.Name = *u.Name
	}
	if u.Tag != nil {
		r.Tag = *u.Tag
	}
	if u.Key != nil {
		r.Key = strings.TrimSpace(*u.Key)
		r.KeyType = sshkey.Classify(r.Key)
	}
	r.LastModified = time.Now().UTC()
}

// String returns the user-facing label plus key type, e.g. "work (ed25519)".
func (r KeyRecord) String() string {
	return r.Name + " (" + r.KeyType + ")"
}
