// Copyright (c) 2026 SSHVault Team
// SSHVault - encrypted SSH public key store
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sshvault/sshvault/internal/i18n"
	"github.com/sshvault/sshvault/internal/store"
)

// newExportCmd writes the store to a file, either as a compressed JSON
// document or password-encrypted for transfer to another machine.
func newExportCmd() *cobra.Command {
	var encrypt bool
	var password string
	cmd := &cobra.Command{
		Use:   "export <path>",
		Short: "Export the stored keys to a file",
		Long: `Export all keys to a file. Without --encrypt the file is a
zstd-compressed JSON document (public keys are not secret). With
--encrypt the file is sealed under a password so it can travel between
machines; the receiving side imports it with the same password.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var count int
			var err error
			if encrypt {
				pw, perr := resolvePassword(password, true)
				if perr != nil {
					return perr
				}
				defer wipe(pw)
				count, err = manager.ExportWithPassword(args[0], pw)
			} else {
				count, err = manager.ExportPlain(args[0])
			}
			if err != nil {
				if isStoreMissing(err) {
					return errors.New(i18n.T("store.not_found"))
				}
				return friendlyError(err)
			}

			fmt.Printf("Exported %d keys to %s\n", count, args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&encrypt, "encrypt", "e", false, "Encrypt the export with a password")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password for --encrypt (prompted when omitted)")
	return cmd
}

// newImportCmd merges keys from a file into the store.
func newImportCmd() *cobra.Command {
	var encrypted bool
	var password string
	cmd := &cobra.Command{
		Use:   "import <path>",
		Short: "Import keys from a file and merge them into the store",
		Long: `Import keys from a plain export, an authorized_keys-style file, or
(with --encrypted) a password-protected export. Records whose key content
already exists are skipped; name collisions are resolved by renaming, so
nothing the file carries is silently dropped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var res store.MergeResult
			var err error
			if encrypted {
				pw, perr := resolvePassword(password, false)
				if perr != nil {
					return perr
				}
				defer wipe(pw)
				res, err = manager.ImportWithPassword(args[0], pw)
			} else {
				res, err = manager.ImportPlain(args[0])
			}
			if err != nil {
				if isStoreMissing(err) {
					return errors.New(i18n.T("store.not_found"))
				}
				if errors.Is(err, store.ErrEncrypted) && !encrypted {
					return fmt.Errorf("%s (use --encrypted)", err)
				}
				return friendlyError(err)
			}

			fmt.Printf("Imported %d keys (%d duplicates skipped), %d now in store\n", res.Imported, res.Duplicates, res.Total)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&encrypted, "encrypted", "e", false, "The file is a password-protected export")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password for --encrypted (prompted when omitted)")
	return cmd
}

// resolvePassword returns the flag value when given, otherwise prompts on
// the terminal without echo. confirm asks twice (for exports, where a typo
// would lock the file forever).
func resolvePassword(flagValue string, confirm bool) ([]byte, error) {
	if flagValue != "" {
		return []byte(flagValue), nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("no terminal available; pass --password")
	}

	fmt.Fprint(os.Stderr, i18n.T("password.prompt"))
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	if len(pw) == 0 {
		return nil, errors.New("empty password")
	}

	if confirm {
		fmt.Fprint(os.Stderr, i18n.T("password.confirm"))
		again, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("read password: %w", err)
		}
		if string(pw) != string(again) {
			wipe(pw)
			wipe(again)
			return nil, errors.New(i18n.T("password.mismatch"))
		}
		wipe(again)
	}

	return pw, nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
