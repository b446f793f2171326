// Copyright (c) 2026 SSHVault Team
// SSHVault - encrypted SSH public key store
// This source code is licensed under the MIT license found in the LICENSE file.

// Package sshkey provides lightweight parsing and classification of SSH
// public key lines. It deliberately does not validate the base64 key
// material; an unrecognized line still classifies (as "unknown") so that
// ingestion never blocks on malformed input.
package sshkey

import (
	"fmt"
	"strings"
)

// Known key type tags returned by Classify.
const (
	TypeRSA     = "rsa"
	TypeDSA     = "dsa"
	TypeECDSA   = "ecdsa"
	TypeEd25519 = "ed25519"
	TypeUnknown = "unknown"
)

// algorithmFamilies maps normalized SSH algorithm identifiers to their
// family tag. Certificate variants ("...-cert-v01@openssh.com") are reduced
// to their base identifier before lookup.
var algorithmFamilies = map[string]string{
	"ssh-rsa":                TypeRSA,
	"ssh-dss":                TypeDSA,
	"ssh-ed25519":            TypeEd25519,
	"sk-ssh-ed25519":         TypeEd25519,
	"ecdsa-sha2-nistp256":    TypeECDSA,
	"ecdsa-sha2-nistp384":    TypeECDSA,
	"ecdsa-sha2-nistp521":    TypeECDSA,
	"sk-ecdsa-sha2-nistp256": TypeECDSA,
}

// Classify determines the algorithm family of a raw public key line.
// It inspects the first whitespace-delimited token that looks like an SSH
// algorithm identifier, normalizes case, and maps it through a fixed table.
// Anything unmatched yields TypeUnknown; Classify never fails.
func Classify(rawKey string) string {
	algorithm, _, _, err := Parse(rawKey)
	if err != nil {
		return TypeUnknown
	}
	algorithm = strings.ToLower(algorithm)
	algorithm = strings.TrimSuffix(algorithm, "-cert-v01@openssh.com")
	algorithm = strings.TrimSuffix(algorithm, "@openssh.com")
	if family, ok := algorithmFamilies[algorithm]; ok {
		return family
	}
	// Catch less common curve names without enumerating every one.
	if strings.HasPrefix(algorithm, "ecdsa-") {
		return TypeECDSA
	}
	return TypeUnknown
}

// Parse splits a raw public key string (like one from an authorized_keys
// file) into its three core components: algorithm, key data, and comment.
// It correctly handles leading options in the line (e.g., from="...").
func Parse(rawKey string) (algorithm, keyData, comment string, err error) {
	fields := strings.Fields(rawKey)
	if len(fields) == 0 {
		err = fmt.Errorf("empty line")
		return
	}

	keyStartIndex := -1
	for i, field := range fields {
		lower := strings.ToLower(field)
		if strings.HasPrefix(lower, "ssh-") || strings.HasPrefix(lower, "ecdsa-") || strings.HasPrefix(lower, "sk-") {
			keyStartIndex = i
			break
		}
	}

	if keyStartIndex == -1 {
		err = fmt.Errorf("no valid SSH key type found in line")
		return
	}

	if len(fields) < keyStartIndex+2 {
		err = fmt.Errorf("invalid public key format: missing key data after algorithm")
		return
	}

	algorithm = fields[keyStartIndex]
	keyData = fields[keyStartIndex+1]
	if len(fields) > keyStartIndex+2 {
		comment = strings.Join(fields[keyStartIndex+2:], " ")
	}

	return
}

// Comment returns the trailing comment of a key line, or "" when the line
// has none or does not parse.
func Comment(rawKey string) string {
	_, _, comment, err := Parse(rawKey)
	if err != nil {
		return ""
	}
	return comment
}
