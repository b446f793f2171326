// Copyright (c) 2026 SSHVault Team
// SSHVault - encrypted SSH public key store
// This source code is licensed under the MIT license found in the LICENSE file.
package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestExportImportWithPassword(t *testing.T) {
	src := newTestManager(t)
	if _, err := src.Add("work", "laptop", ed25519Line); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := src.Add("personal", "", rsaLine); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	exportPath := filepath.Join(t.TempDir(), "keys.export")
	count, err := src.ExportWithPassword(exportPath, []byte("hunter2"))
	if err != nil {
		t.Fatalf("ExportWithPassword failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 exported, got %d", count)
	}

	dst := newTestManager(t)
	res, err := dst.ImportWithPassword(exportPath, []byte("hunter2"))
	if err != nil {
		t.Fatalf("ImportWithPassword failed: %v", err)
	}
	if res.Imported != 2 || res.Duplicates != 0 || res.Total != 2 {
		t.Fatalf("unexpected merge result: %+v", res)
	}

	records, err := dst.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 2 || records[0].Name != "work" || records[0].Tag != "laptop" {
		t.Fatalf("imported records wrong: %+v", records)
	}
}

func TestImportWithPassword_WrongPassword(t *testing.T) {
	src := newTestManager(t)
	if _, err := src.Add("work", "", ed25519Line); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	exportPath := filepath.Join(t.TempDir(), "keys.export")
	if _, err := src.ExportWithPassword(exportPath, []byte("hunter2")); err != nil {
		t.Fatalf("ExportWithPassword failed: %v", err)
	}

	dst := newTestManager(t)
	if _, err := dst.Add("existing", "", rsaLine); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	_, err := dst.ImportWithPassword(exportPath, []byte("wrong"))
	if !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("got %v, want ErrInvalidPassword", err)
	}
	if !errors.Is(err, ErrCrypto) {
		t.Fatalf("ErrInvalidPassword must also match ErrCrypto")
	}

	// The failed import must not have touched the store.
	records, err := dst.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 1 || records[0].Name != "existing" {
		t.Fatalf("store changed by failed import: %+v", records)
	}
}

func TestImportWithPassword_CorruptFile(t *testing.T) {
	src := newTestManager(t)
	if _, err := src.Add("work", "", ed25519Line); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	exportPath := filepath.Join(t.TempDir(), "keys.export")
	if _, err := src.ExportWithPassword(exportPath, []byte("hunter2")); err != nil {
		t.Fatalf("ExportWithPassword failed: %v", err)
	}

	blob, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	blob[len(blob)-1] ^= 0x01
	if err := os.WriteFile(exportPath, blob, 0o600); err != nil {
		t.Fatalf("write corrupt export: %v", err)
	}

	dst := newTestManager(t)
	if _, err := dst.ImportWithPassword(exportPath, []byte("hunter2")); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("got %v, want ErrInvalidPassword", err)
	}
}

func TestExportImportPlain(t *testing.T) {
	src := newTestManager(t)
	if _, err := src.Add("work", "", ed25519Line); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	exportPath := filepath.Join(t.TempDir(), "keys.json.zst")
	count, err := src.ExportPlain(exportPath)
	if err != nil {
		t.Fatalf("ExportPlain failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 exported, got %d", count)
	}

	dst := newTestManager(t)
	res, err := dst.ImportPlain(exportPath)
	if err != nil {
		t.Fatalf("ImportPlain failed: %v", err)
	}
	if res.Imported != 1 || res.Total != 1 {
		t.Fatalf("unexpected merge result: %+v", res)
	}
}

func TestImportPlain_AuthorizedKeysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authorized_keys")
	content := "# managed keys\n\n" +
		ed25519Line + "\n" +
		rsaLine + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}

	m := newTestManager(t)
	res, err := m.ImportPlain(path)
	if err != nil {
		t.Fatalf("ImportPlain failed: %v", err)
	}
	if res.Imported != 2 || res.Duplicates != 0 {
		t.Fatalf("unexpected merge result: %+v", res)
	}

	records, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	// Names come from the key comments.
	if records[0].Name != "alice@laptop" || records[1].Name != "bob@desktop" {
		t.Fatalf("unexpected names: %q %q", records[0].Name, records[1].Name)
	}
	if records[0].SourcePath != path {
		t.Fatalf("provenance not recorded: %q", records[0].SourcePath)
	}
}

func TestImportPlain_SingleKeyNoComment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id_ed25519.pub")
	if err := os.WriteFile(path, []byte("ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIBk\n"), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}

	m := newTestManager(t)
	if _, err := m.ImportPlain(path); err != nil {
		t.Fatalf("ImportPlain failed: %v", err)
	}

	records, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	// No comment, so the file basename names the record.
	if records[0].Name != "id_ed25519" {
		t.Fatalf("unexpected name: %q", records[0].Name)
	}
}

func TestImportPlain_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(path, []byte("# only comments\n\n"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	m := newTestManager(t)
	if _, err := m.ImportPlain(path); !errors.Is(err, ErrParse) {
		t.Fatalf("got %v, want ErrParse", err)
	}
}

func TestImportPlain_MissingFile(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.ImportPlain(filepath.Join(t.TempDir(), "nope")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestImportPlain_RejectsPasswordExport(t *testing.T) {
	src := newTestManager(t)
	if _, err := src.Add("work", "", ed25519Line); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	exportPath := filepath.Join(t.TempDir(), "keys.export")
	if _, err := src.ExportWithPassword(exportPath, []byte("hunter2")); err != nil {
		t.Fatalf("ExportWithPassword failed: %v", err)
	}

	dst := newTestManager(t)
	if _, err := dst.ImportPlain(exportPath); !errors.Is(err, ErrEncrypted) {
		t.Fatalf("got %v, want ErrEncrypted", err)
	}

	// Nothing resembling ciphertext may have been ingested.
	records, err := dst.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("ciphertext was ingested as records: %+v", records)
	}
}

func TestImportPlain_RejectsStoreFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.enc")
	if err := os.WriteFile(path, append([]byte("SVL1"), make([]byte, 64)...), 0o600); err != nil {
		t.Fatalf("write store blob: %v", err)
	}

	m := newTestManager(t)
	if _, err := m.ImportPlain(path); !errors.Is(err, ErrEncrypted) {
		t.Fatalf("got %v, want ErrEncrypted", err)
	}
}

func TestImport_ReimportAllDuplicates(t *testing.T) {
	src := newTestManager(t)
	if _, err := src.Add("work", "", ed25519Line); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	exportPath := filepath.Join(t.TempDir(), "keys.export")
	if _, err := src.ExportWithPassword(exportPath, []byte("hunter2")); err != nil {
		t.Fatalf("ExportWithPassword failed: %v", err)
	}

	// Importing into the store it came from skips everything.
	res, err := src.ImportWithPassword(exportPath, []byte("hunter2"))
	if err != nil {
		t.Fatalf("ImportWithPassword failed: %v", err)
	}
	if res.Imported != 0 || res.Duplicates != 1 || res.Total != 1 {
		t.Fatalf("unexpected merge result: %+v", res)
	}
}
