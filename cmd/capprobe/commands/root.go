// SPDX-License-Identifier: AGPL-3.0-or-later

/*
capprobe - a capability-probing harness.
It checks which concurrency and computation primitives actually work in the
current execution environment and reports the outcome of every check.

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.
*/

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set by the linker at build time.
var version = ""

func resolveVersion() string {
	if version != "" {
		return version
	}
	if v := os.Getenv("CAPPROBE_VERSION"); v != "" {
		return v
	}
	return "0.0.0-dev"
}

// NewRootCmd constructs the capprobe root Cobra command. Running it without a
// subcommand runs every probe.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "capprobe",
		Short: "Probe which concurrency primitives work in this environment",
		Long: `capprobe runs a fixed set of capability probes (goroutine workers, a bounded
task pool, an optional numeric library and a process pool) and reports which
of them work, which are unavailable and which fail.

Probe failures are reported, not fatal: the exit code is non-zero only when
the harness itself cannot complete a run.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		Args:              cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return a.setup(cmd) },
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runProbes(cmd, nil)
		},
	}

	a.bindGlobalFlags(cmd)
	a.bindOutputFlags(cmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of capprobe",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "capprobe version %s\n", resolveVersion())
		},
	})
	cmd.AddCommand(newRunCmd(a))
	cmd.AddCommand(newEnvCmd(a))
	cmd.AddCommand(newServeMCPCmd(a))

	return cmd
}
