// Copyright (c) 2026 SSHVault Team
// SSHVault - encrypted SSH public key store
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/sshvault/sshvault/internal/i18n"
	"github.com/sshvault/sshvault/internal/model"
)

// listCmd shows all stored keys in table or JSON form.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored public keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := manager.List()
		if err != nil {
			if isStoreMissing(err) {
				return errors.New(i18n.T("store.not_found"))
			}
			return friendlyError(err)
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		}

		if len(records) == 0 {
			fmt.Println(i18n.T("keys.none"))
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tTYPE\tTAG\tMODIFIED")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Name, r.KeyType, r.Tag, r.LastModified.Local().Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

// showCmd prints one record in full, including the key line.
var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one key record in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := manager.Get(args[0])
		if err != nil {
			if isStoreMissing(err) {
				return errors.New(i18n.T("store.not_found"))
			}
			return friendlyError(err)
		}

		fmt.Printf("ID:       %s\n", rec.ID)
		fmt.Printf("Name:     %s\n", rec.Name)
		fmt.Printf("Type:     %s\n", rec.KeyType)
		if rec.Tag != "" {
			fmt.Printf("Tag:      %s\n", rec.Tag)
		}
		if rec.SourcePath != "" {
			fmt.Printf("Source:   %s\n", rec.SourcePath)
		}
		fmt.Printf("Created:  %s\n", rec.Created.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Modified: %s\n", rec.LastModified.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Key:      %s\n", rec.Key)
		return nil
	},
}

// newAddCmd adds a key from a flag value or a public key file.
func newAddCmd() *cobra.Command {
	var tag, keyContent, fromFile string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a public key to the store",
		Long: `Add a public key under a unique name. The key content comes from
--key or is read from a file given with --from-file. The algorithm family
is detected automatically; unrecognized content is stored with type
"unknown".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (keyContent == "") == (fromFile == "") {
				return errors.New("exactly one of --key and --from-file is required")
			}

			var rec model.KeyRecord
			var err error
			if fromFile != "" {
				rec, err = manager.AddFromFile(args[0], tag, fromFile)
			} else {
				rec, err = manager.Add(args[0], tag, keyContent)
			}
			if err != nil {
				if isStoreMissing(err) {
					return errors.New(i18n.T("store.not_found"))
				}
				return friendlyError(err)
			}

			fmt.Printf("%s %s\n", i18n.T("keys.added"), rec.String())
			return nil
		},
	}
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "Optional free-text tag")
	cmd.Flags().StringVarP(&keyContent, "key", "k", "", "Public key line")
	cmd.Flags().StringVarP(&fromFile, "from-file", "f", "", "Read the public key from a file")
	return cmd
}

// newUpdateCmd applies a partial update; only flags the user set change.
func newUpdateCmd() *cobra.Command {
	var name, tag, keyContent string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update name, tag or key content of a stored key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var u model.KeyRecordUpdate
			if cmd.Flags().Changed("name") {
				u.Name = &name
			}
			if cmd.Flags().Changed("tag") {
				u.Tag = &tag
			}
			if cmd.Flags().Changed("key") {
				u.Key = &keyContent
			}
			if u.Name == nil && u.Tag == nil && u.Key == nil {
				return errors.New("nothing to update: pass --name, --tag or --key")
			}

			rec, err := manager.Update(args[0], u, "")
			if err != nil {
				if isStoreMissing(err) {
					return errors.New(i18n.T("store.not_found"))
				}
				return friendlyError(err)
			}

			fmt.Printf("%s %s\n", i18n.T("keys.updated"), rec.String())
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "New name")
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "New tag (empty clears it)")
	cmd.Flags().StringVarP(&keyContent, "key", "k", "", "New public key line")
	return cmd
}

// removeCmd deletes a key by ID.
var removeCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Remove a key from the store",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := manager.Remove(args[0]); err != nil {
			if isStoreMissing(err) {
				return errors.New(i18n.T("store.not_found"))
			}
			return friendlyError(err)
		}
		fmt.Println(i18n.T("keys.removed"))
		return nil
	},
}

// copyCmd puts the key line of a record on the system clipboard.
var copyCmd = &cobra.Command{
	Use:   "copy <id>",
	Short: "Copy a key line to the clipboard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := manager.Get(args[0])
		if err != nil {
			if isStoreMissing(err) {
				return errors.New(i18n.T("store.not_found"))
			}
			return friendlyError(err)
		}
		if err := clipboard.WriteAll(rec.Key); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
		fmt.Println(i18n.T("keys.copied"))
		return nil
	},
}

func init() {
	listCmd.Flags().Bool("json", false, "Output as JSON")
}
