// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bartekus/capprobe/cmd/capprobe/internal/clierr"
	"github.com/bartekus/capprobe/internal/probes"
)

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <probe>... | run <command>",
		Short: "Run capability probes",
		Long: `Run the named probes in the given order, or use a subcommand.
With --save the report is kept in the state directory so that report and
resume can work from it later.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return a.runProbes(cmd, args)
		},
	}
	a.bindOutputFlags(cmd)

	cmd.AddCommand(newRunAllCmd(a))
	cmd.AddCommand(newRunListCmd(a))
	cmd.AddCommand(newRunResumeCmd(a))
	cmd.AddCommand(newRunReportCmd(a))
	cmd.AddCommand(newRunResetCmd(a))
	return cmd
}

func newRunAllCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "all",
		Short: "Run every registered probe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runProbes(cmd, nil)
		},
	}
	a.bindOutputFlags(cmd)
	return cmd
}

// ProbeListItem is one entry of `run list --json`.
type ProbeListItem struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

func newRunListCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List probes in run order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list := probes.Filter(probes.Registry(), a.cfg.DisabledProbes)

			if asJSON {
				items := make([]ProbeListItem, 0, len(list))
				for _, p := range list {
					items = append(items, ProbeListItem{Name: p.Name(), Title: p.Title()})
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"probes": items})
			}

			for _, p := range list {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), p.Name()); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func newRunResumeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Re-run the probes that failed in the last saved run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := a.outputFormat()
			if err != nil {
				return err
			}
			h, err := a.newHarness(true)
			if err != nil {
				return err
			}
			report, err := h.Resume(cmd.Context())
			if err != nil {
				return clierr.Harness("resume failed", err)
			}
			if report == nil {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "Nothing to resume.")
				return err
			}
			return a.render(cmd, report, format)
		},
	}
	a.bindOutputFlags(cmd)
	return cmd
}

func newRunReportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the last saved run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := a.outputFormat()
			if err != nil {
				return err
			}
			store, err := a.store()
			if err != nil {
				return err
			}
			last, err := store.ReadLastRun()
			if err != nil {
				return clierr.Harness("reading saved run", err)
			}
			if last == nil {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No saved run found.")
				return err
			}
			return a.render(cmd, last, format)
		},
	}
	a.bindOutputFlags(cmd)
	return cmd
}

func newRunResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear saved run state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.store()
			if err != nil {
				return err
			}
			if err := store.Reset(); err != nil {
				return clierr.Harness("clearing saved run", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", store.Dir())
			return err
		},
	}
}
