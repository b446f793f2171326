// Copyright (c) 2026 SSHVault Team
// SSHVault - encrypted SSH public key store
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface for SSHVault using the Cobra
// library. It defines the root command, the shared service bootstrap
// (config, i18n, store manager, audit log), and the path/store lifecycle
// subcommands.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sshvault/sshvault/internal/audit"
	"github.com/sshvault/sshvault/internal/config"
	"github.com/sshvault/sshvault/internal/i18n"
	"github.com/sshvault/sshvault/internal/logging"
	"github.com/sshvault/sshvault/internal/store"
	"github.com/sshvault/sshvault/internal/vaultcrypt"
)

var version = "dev" // set by the linker

// SetVersion overrides the version string reported by the root command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var (
	cfgFile   string
	verbose   bool
	appConfig config.Config

	manager  *store.Manager
	auditLog *audit.Log
)

// setupDefaultServices loads the configuration and wires the store manager
// and audit log. It runs before every subcommand except the ones that only
// touch configuration.
func setupDefaultServices(cmd *cobra.Command, _ []string) error {
	explicit, err := getConfigPathFromCli(cmd)
	if err != nil {
		return err
	}

	appConfig, err = config.Load(cmd, explicit)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logging.SetVerbose(verbose)
	i18n.Init(appConfig.Language)

	storePath := appConfig.KeysFile
	if storePath == "" {
		storePath, err = store.DefaultPath()
		if err != nil {
			return err
		}
	}

	cipher, err := vaultcrypt.NewLocalCipher()
	if err != nil {
		return fmt.Errorf("initialize machine cipher: %w", err)
	}
	manager = store.NewManager(storePath, cipher)

	if appConfig.Audit.Type != "off" {
		dsn := appConfig.Audit.DSN
		if dsn == "" {
			dsn = filepath.Join(filepath.Dir(storePath), "audit.db")
		}
		auditLog, err = audit.Open(appConfig.Audit.Type, dsn)
		if err != nil {
			// The store works without its audit trail; say so and move on.
			logging.Warnf("audit log unavailable: %v", err)
			auditLog = nil
		} else {
			manager.SetAuditor(auditLog)
		}
	}

	return nil
}

// getConfigPathFromCli returns the --config flag value if the user set it,
// verifying the file exists.
func getConfigPathFromCli(cmd *cobra.Command) (*string, error) {
	if !cmd.Flags().Changed("config") {
		return nil, nil
	}
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("could not read --config flag: %w", err)
	}
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
	}
	return &path, nil
}

// friendlyError maps the store error taxonomy onto localized user
// messages. Anything outside the taxonomy passes through unchanged.
func friendlyError(err error) error {
	if err == nil {
		return nil
	}
	var vErr *store.ValidationError
	switch {
	case errors.Is(err, store.ErrInvalidPassword):
		return errors.New(i18n.T("import.invalid_password"))
	case errors.Is(err, store.ErrCrypto):
		return errors.New(i18n.T("store.unreadable"))
	case errors.Is(err, store.ErrParse):
		return errors.New(i18n.T("store.malformed"))
	case errors.As(err, &vErr):
		return err
	default:
		return err
	}
}

// isStoreMissing reports whether err means the store file itself is absent
// (as opposed to a record not being found).
func isStoreMissing(err error) bool {
	return errors.Is(err, store.ErrNotFound) && manager != nil && !fileExists(manager.Path())
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Execute runs the CLI entrypoint. The main package calls this and handles
// process exit.
func Execute() error {
	defer func() {
		if auditLog != nil {
			if err := auditLog.Close(); err != nil {
				logging.Debugf("closing audit log: %v", err)
			}
		}
	}()

	return NewRootCmd().Execute()
}

// NewRootCmd creates and configures a new root cobra command. Tests use it
// to build isolated instances.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sshvault",
		Short: "SSHVault is a local, encrypted store for SSH public keys.",
		Long: `SSHVault keeps an inventory of SSH public keys in a single encrypted
file. On its home machine the store opens transparently: the encryption
key is derived from the machine identity, never typed and never written
to disk. To move keys between machines, export with a password and import
on the other side; imports merge without creating duplicates.`,
		PersistentPreRunE: setupDefaultServices,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.Version = version

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file")
	cmd.PersistentFlags().String("language", "en", `output language ("en", "de")`)

	cmd.AddCommand(listCmd)
	cmd.AddCommand(showCmd)
	cmd.AddCommand(newAddCmd())
	cmd.AddCommand(newUpdateCmd())
	cmd.AddCommand(removeCmd)
	cmd.AddCommand(copyCmd)
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(whereCmd)
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(auditCmd)
	cmd.AddCommand(configCmd)

	return cmd
}

// whereCmd prints the effective keys file location.
var whereCmd = &cobra.Command{
	Use:   "where",
	Short: "Print the location of the encrypted keys file",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(manager.Path())
		return nil
	},
}

// newInitCmd creates a fresh, empty keys store.
func newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a new, empty keys store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := manager.Create(force); err != nil {
				if errors.Is(err, store.ErrExists) {
					return fmt.Errorf("%s (use --force to overwrite)", err)
				}
				return friendlyError(err)
			}
			fmt.Println(i18n.T("store.created"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing store file")
	return cmd
}

// auditCmd lists the operation log, newest first.
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the audit log of store operations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if auditLog == nil {
			return errors.New("audit logging is disabled")
		}
		entries, err := auditLog.Entries()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "TIMESTAMP\tUSER\tACTION\tDETAILS")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Username, e.Action, e.Details)
		}
		return w.Flush()
	},
}

// configCmd groups the store path configuration commands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the SSHVault configuration",
}

var setPathCmd = &cobra.Command{
	Use:   "set-path <path>",
	Short: "Use a custom keys file location",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		abs, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		appConfig.KeysFile = abs
		if err := config.Write(&appConfig, false); err != nil {
			return err
		}
		fmt.Println(i18n.T("path.custom_set"))
		return nil
	},
}

var resetPathCmd = &cobra.Command{
	Use:   "reset-path",
	Short: "Go back to the default keys file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		appConfig.KeysFile = ""
		if err := config.Write(&appConfig, false); err != nil {
			return err
		}
		fmt.Println(i18n.T("path.reset"))
		return nil
	},
}

func init() {
	configCmd.AddCommand(setPathCmd)
	configCmd.AddCommand(resetPathCmd)
}
