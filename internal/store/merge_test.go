// Copyright (c) 2026 SSHVault Team
// SSHVault - encrypted SSH public key store
// This source code is licensed under the MIT license found in the LICENSE file.
package store

import (
	"fmt"
	"testing"

	"github.com/sshvault/sshvault/internal/model"
)

func TestMergeRecords_SkipsDuplicateKeys(t *testing.T) {
	existing := []model.KeyRecord{
		model.NewKeyRecord("k1", "", ed25519Line),
		model.NewKeyRecord("k2", "", rsaLine),
	}
	incoming := []model.KeyRecord{
		model.NewKeyRecord("other-name", "", ed25519Line), // same key, different name
		model.NewKeyRecord("k3", "", ecdsaLine),
	}

	merged, res := mergeRecords(existing, incoming)
	if res.Imported != 1 || res.Duplicates != 1 || res.Total != 3 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(merged) != 3 {
		t.Fatalf("expected 3 records, got %d", len(merged))
	}
	if merged[2].Key != ecdsaLine {
		t.Fatalf("appended record has wrong key")
	}
}

func TestMergeRecords_RenamesOnNameCollision(t *testing.T) {
	existing := []model.KeyRecord{
		model.NewKeyRecord("work", "", ed25519Line),
	}
	incoming := []model.KeyRecord{
		model.NewKeyRecord("work", "", rsaLine),
	}

	merged, res := mergeRecords(existing, incoming)
	if res.Imported != 1 || res.Duplicates != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	got := merged[1]
	if got.Name != "work (2)" {
		t.Fatalf("expected renamed record, got %q", got.Name)
	}
	if got.Tag != `imported as "work"` {
		t.Fatalf("original name not preserved in tag: %q", got.Tag)
	}
}

func TestMergeRecords_RenameKeepsExistingTag(t *testing.T) {
	existing := []model.KeyRecord{
		model.NewKeyRecord("work", "", ed25519Line),
	}
	incoming := []model.KeyRecord{
		model.NewKeyRecord("work", "from old laptop", rsaLine),
	}

	merged, _ := mergeRecords(existing, incoming)
	if merged[1].Tag != "from old laptop" {
		t.Fatalf("tag should not be overwritten: %q", merged[1].Tag)
	}
}

func TestMergeRecords_CountingDisambiguation(t *testing.T) {
	existing := []model.KeyRecord{
		model.NewKeyRecord("work", "", ed25519Line),
		{ID: "x", Name: "work (2)", Key: rsaLine},
	}
	incoming := []model.KeyRecord{
		model.NewKeyRecord("work", "", ecdsaLine),
	}

	merged, _ := mergeRecords(existing, incoming)
	if merged[2].Name != "work (3)" {
		t.Fatalf("expected next free suffix, got %q", merged[2].Name)
	}
}

func TestMergeRecords_TwoIncomingSameName(t *testing.T) {
	incoming := []model.KeyRecord{
		model.NewKeyRecord("key", "", ed25519Line),
		model.NewKeyRecord("key", "", rsaLine),
		model.NewKeyRecord("key", "", ecdsaLine),
	}

	merged, res := mergeRecords(nil, incoming)
	if res.Imported != 3 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if merged[0].Name != "key" || merged[1].Name != "key (2)" || merged[2].Name != "key (3)" {
		t.Fatalf("names not disambiguated deterministically: %q %q %q",
			merged[0].Name, merged[1].Name, merged[2].Name)
	}
}

func TestMergeRecords_FreshIDs(t *testing.T) {
	existing := []model.KeyRecord{
		model.NewKeyRecord("work", "", ed25519Line),
	}
	cand := model.NewKeyRecord("new", "", rsaLine)
	importedID := cand.ID

	merged, _ := mergeRecords(existing, []model.KeyRecord{cand})
	if merged[1].ID == importedID {
		t.Fatalf("imported ID was trusted across stores")
	}
	if merged[1].ID == "" {
		t.Fatalf("no fresh ID assigned")
	}
}

func TestMergeRecords_EmptyAndBlankKeys(t *testing.T) {
	incoming := []model.KeyRecord{
		{Name: "blank", Key: "   \n"},
		model.NewKeyRecord("real", "", ed25519Line),
	}

	merged, res := mergeRecords(nil, incoming)
	// A blank key is neither imported nor a duplicate of anything.
	if res.Imported != 1 || res.Duplicates != 0 || res.Total != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(merged) != 1 || merged[0].Name != "real" {
		t.Fatalf("unexpected merged set: %+v", merged)
	}
}

func TestMergeRecords_EmptyName(t *testing.T) {
	merged, _ := mergeRecords(nil, []model.KeyRecord{
		{Name: "", Key: ed25519Line},
	})
	if merged[0].Name != "imported" {
		t.Fatalf("expected fallback name, got %q", merged[0].Name)
	}
}

func TestMergeRecords_Idempotent(t *testing.T) {
	var incoming []model.KeyRecord
	for i := 0; i < 5; i++ {
		incoming = append(incoming, model.NewKeyRecord(
			fmt.Sprintf("key-%d", i), "",
			fmt.Sprintf("ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIB%d host-%d", i, i)))
	}

	merged, first := mergeRecords(nil, incoming)
	if first.Imported != 5 || first.Duplicates != 0 {
		t.Fatalf("unexpected first merge: %+v", first)
	}

	again, second := mergeRecords(merged, incoming)
	if second.Imported != 0 || second.Duplicates != 5 || second.Total != 5 {
		t.Fatalf("re-merge must be a no-op: %+v", second)
	}
	if len(again) != 5 {
		t.Fatalf("re-merge grew the store: %d", len(again))
	}
}

func TestMergeRecords_Reclassifies(t *testing.T) {
	merged, _ := mergeRecords(nil, []model.KeyRecord{
		{Name: "lied", Key: ed25519Line, KeyType: "rsa"},
	})
	if merged[0].KeyType != "ed25519" {
		t.Fatalf("imported key type was trusted: %s", merged[0].KeyType)
	}
}
