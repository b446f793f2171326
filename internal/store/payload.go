// Copyright (c) 2026 SSHVault Team
// SSHVault - encrypted SSH public key store
// This source code is licensed under the MIT license found in the LICENSE file.

package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/sshvault/sshvault/internal/model"
)

// schemaVersion guards the decrypted payload shape. Bump on incompatible
// envelope changes.
const schemaVersion = 1

// payload is the plaintext envelope inside the encrypted store file and
// inside plaintext exports: versioned JSON, zstd-compressed.
type payload struct {
	SchemaVersion int               `json:"schema_version"`
	Records       []model.KeyRecord `json:"records"`
}

// encodePayload serializes records to compressed JSON.
func encodePayload(records []model.KeyRecord) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("create zstd writer: %w", err)
	}
	if err := json.NewEncoder(zw).Encode(payload{SchemaVersion: schemaVersion, Records: records}); err != nil {
		_ = zw.Close()
		return nil, fmt.Errorf("encode store payload: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("flush zstd writer: %w", err)
	}
	return buf.Bytes(), nil
}

// decodePayload reverses encodePayload. Structural failures map to
// ErrParse: by the time this runs, the ciphertext already authenticated,
// so a bad shape is a payload problem and not a crypto one.
func decodePayload(data []byte) ([]model.KeyRecord, error) {
	zr, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: not a compressed payload", ErrParse)
	}
	defer zr.Close()

	var p payload
	if err := json.NewDecoder(zr).Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if p.SchemaVersion != schemaVersion {
		return nil, fmt.Errorf("%w: unsupported schema version %d", ErrParse, p.SchemaVersion)
	}
	return p.Records, nil
}
