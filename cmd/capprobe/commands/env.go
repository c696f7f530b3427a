// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bartekus/capprobe/internal/envinfo"
	"github.com/bartekus/capprobe/internal/presenter"
)

func newEnvCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Show environment information without running probes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := envinfo.New().Inspect()
			out := cmd.OutOrStdout()

			switch format {
			case "text", "":
				return presenter.RenderEnvironment(out, info, presenter.Options{Color: a.colors})
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(info); err != nil {
					return err
				}
				return enc.Close()
			}
			return fmt.Errorf("invalid format %q (want text, json or yaml)", format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json or yaml")
	return cmd
}
