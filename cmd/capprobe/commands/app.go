// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/bartekus/capprobe/cmd/capprobe/internal/clierr"
	"github.com/bartekus/capprobe/internal/config"
	"github.com/bartekus/capprobe/internal/harness"
	"github.com/bartekus/capprobe/internal/presenter"
	"github.com/bartekus/capprobe/internal/probes"
)

// app holds the flag values and resolved settings shared by every command.
type app struct {
	configPath string
	verbose    bool
	color      string
	stateDir   string
	timeout    time.Duration

	jsonOut bool
	format  string
	jq      string
	save    bool

	cfg    *config.Config
	logger *slog.Logger
	colors presenter.ColorMode
}

func (a *app) bindGlobalFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default: capprobe.yml in the working directory)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log probe progress to stderr")
	pf.StringVar(&a.color, "color", "", "style output: auto, always or never")
	pf.StringVar(&a.stateDir, "state-dir", "", "directory holding saved runs (default .capprobe/run)")
	pf.DurationVar(&a.timeout, "timeout", 0, "per-probe deadline (default 30s, 0 keeps the configured value)")
}

// bindOutputFlags registers the report flags on cmd. They are local so that
// commands without a report do not advertise them.
func (a *app) bindOutputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolVar(&a.jsonOut, "json", false, "print the structured summary as JSON")
	f.StringVar(&a.format, "format", "text", "output format: text, markdown or json")
	f.StringVar(&a.jq, "jq", "", "filter the JSON summary with a jq expression")
	f.BoolVar(&a.save, "save", false, "persist the report to the state directory")
}

// setup loads configuration and applies flag overrides. It runs before every
// command.
func (a *app) setup(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFile(a.configPath)
	} else {
		var wd string
		wd, err = os.Getwd()
		if err == nil {
			cfg, err = config.Load(wd)
		}
	}
	if err != nil {
		return clierr.Config("loading config", err)
	}

	if a.color != "" {
		cfg.Color = a.color
	}
	a.colors, err = presenter.ParseColorMode(cfg.Color)
	if err != nil {
		return clierr.Config("color", err)
	}
	if a.stateDir != "" {
		cfg.StateDir = a.stateDir
	}
	if a.timeout < 0 {
		return clierr.Config("timeout", fmt.Errorf("must not be negative, got %s", a.timeout))
	}
	if a.timeout > 0 {
		cfg.ProbeTimeout = a.timeout
	}
	a.cfg = cfg

	if a.verbose {
		a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
	} else {
		a.logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Path != "" {
		a.logger.Debug("config loaded", "path", cfg.Path)
	}
	return nil
}

func (a *app) store() (*harness.StateStore, error) {
	dir := a.cfg.StateDir
	if !filepath.IsAbs(dir) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(wd, dir)
	}
	return harness.NewStateStore(dir), nil
}

// newHarness builds a harness over the default registry minus disabled
// probes. withStore attaches the state store.
func (a *app) newHarness(withStore bool) (*harness.Harness, error) {
	deps := &harness.Deps{
		Seed:         a.cfg.SeedValue(),
		Capabilities: probes.DefaultCapabilities(),
		NewSpawner:   probes.DefaultSpawner,
		ThreadDelay:  a.cfg.ThreadDelay,
		Logger:       a.logger,
	}

	list := probes.Filter(probes.Registry(), a.cfg.DisabledProbes)
	opts := []harness.Option{harness.WithProbeTimeout(a.cfg.ProbeTimeout)}
	if withStore {
		store, err := a.store()
		if err != nil {
			return nil, err
		}
		opts = append(opts, harness.WithStateStore(store))
	}
	return harness.New(list, deps, opts...), nil
}

func (a *app) outputFormat() (presenter.Format, error) {
	if a.jsonOut {
		return presenter.FormatJSON, nil
	}
	return presenter.ParseFormat(a.format)
}

// runProbes runs names (all probes when empty) and renders the report.
func (a *app) runProbes(cmd *cobra.Command, names []string) error {
	format, err := a.outputFormat()
	if err != nil {
		return err
	}
	h, err := a.newHarness(a.save)
	if err != nil {
		return err
	}

	var report *harness.Report
	if len(names) == 0 {
		report, err = h.RunAll(cmd.Context())
	} else {
		report, err = h.RunList(cmd.Context(), names)
	}
	if err != nil {
		if errors.Is(err, harness.ErrUnknownProbe) {
			return err
		}
		return clierr.Harness("probe run failed", err)
	}
	return a.render(cmd, report, format)
}

func (a *app) render(cmd *cobra.Command, report *harness.Report, format presenter.Format) error {
	return presenter.Render(cmd.OutOrStdout(), report, format, a.jq, presenter.Options{Color: a.colors})
}
