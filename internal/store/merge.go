// Copyright (c) 2026 SSHVault Team
// SSHVault - encrypted SSH public key store
// This source code is licensed under the MIT license found in the LICENSE file.

package store

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sshvault/sshvault/internal/model"
	"github.com/sshvault/sshvault/internal/sshkey"
)

// MergeResult reports what an import did to the store.
type MergeResult struct {
	Imported   int `json:"imported_count"`
	Duplicates int `json:"duplicate_count"`
	Total      int `json:"total_in_store"`
}

// mergeRecords reconciles incoming candidates against existing records.
// A candidate whose key content byte-matches an existing key is a
// duplicate and is skipped. Every appended candidate gets a fresh ID
// (imported IDs are never trusted across stores) and a deterministic
// counter-suffixed name when its name collides. The original name is kept
// in the tag when the candidate has none.
func mergeRecords(existing, incoming []model.KeyRecord) ([]model.KeyRecord, MergeResult) {
	merged := append([]model.KeyRecord(nil), existing...)

	keys := make(map[string]struct{}, len(existing))
	names := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		keys[r.Key] = struct{}{}
		names[r.Name] = struct{}{}
	}

	var res MergeResult
	for _, cand := range incoming {
		rec := cand
		rec.Key = strings.TrimSpace(rec.Key)
		if rec.Key == "" {
			// Nothing to store and nothing it duplicates; skip silently.
			continue
		}
		if _, dup := keys[rec.Key]; dup {
			res.Duplicates++
			continue
		}

		rec.ID = uuid.NewString()
		rec.KeyType = sshkey.Classify(rec.Key)
		if _, taken := names[rec.Name]; taken || rec.Name == "" {
			original := rec.Name
			rec.Name = disambiguateName(original, names)
			if rec.Tag == "" && original != "" {
				rec.Tag = fmt.Sprintf("imported as %q", original)
			}
		}

		merged = append(merged, rec)
		keys[rec.Key] = struct{}{}
		names[rec.Name] = struct{}{}
		res.Imported++
	}

	res.Total = len(merged)
	return merged, res
}

// disambiguateName finds the first free "name (n)" variant, counting from
// 2. An empty name falls back to "imported". The result is checked against
// the growing name set, so two candidates can never end up equal.
func disambiguateName(name string, taken map[string]struct{}) string {
	if name == "" {
		name = "imported"
		if _, ok := taken[name]; !ok {
			return name
		}
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", name, n)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}
