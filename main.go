// Copyright (c) 2026 SSHVault Team
// SSHVault - encrypted SSH public key store
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for SSHVault.
//
// Usage:
//
//	go run . [flags]
//	./sshvault [flags]
//
// This launches the SSHVault CLI. See --help for options.
package main

import (
	"fmt"
	"os"

	"github.com/sshvault/sshvault/ui/cli"
)

// version is set at build time using -ldflags, e.g.:
// go build -ldflags "-X main.version=1.2.3"
var version = "dev"

func main() {
	cli.SetVersion(version)

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "sshvault: %v\n", err)
		os.Exit(1)
	}
}
