// SPDX-License-Identifier: AGPL-3.0-or-later

// Package envinfo reads static facts about the running process.
package envinfo

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
)

// SearchPathEntries is how many leading search-path entries a snapshot keeps.
const SearchPathEntries = 3

// Info is an immutable snapshot of the hosting environment.
type Info struct {
	RuntimeVersion string   `json:"runtime_version" yaml:"runtime_version"`
	Platform       string   `json:"platform" yaml:"platform"`
	Executable     string   `json:"executable" yaml:"executable"`
	SearchPath     []string `json:"search_path" yaml:"search_path"`
	ModuleCount    int      `json:"module_count" yaml:"module_count"`
}

// Inspector gathers an Info. Each lookup can be replaced in tests; nil
// lookups fall back to the real process.
type Inspector struct {
	Version    func() string
	Platform   func() string
	Executable func() (string, error)
	Getenv     func(string) string
	BuildInfo  func() (*debug.BuildInfo, bool)
}

// New returns an Inspector bound to the running process.
func New() *Inspector {
	return &Inspector{}
}

// Inspect never fails: an unavailable fact is left empty or zero.
func (in *Inspector) Inspect() Info {
	info := Info{
		RuntimeVersion: in.version(),
		Platform:       in.platform(),
		SearchPath:     []string{},
	}

	if exe, err := in.executable(); err == nil {
		info.Executable = exe
	}

	for _, p := range filepath.SplitList(in.getenv("PATH")) {
		if len(info.SearchPath) == SearchPathEntries {
			break
		}
		info.SearchPath = append(info.SearchPath, p)
	}

	if bi, ok := in.buildInfo(); ok && bi != nil {
		// The main module counts as loaded alongside its dependencies.
		info.ModuleCount = 1 + len(bi.Deps)
	}

	return info
}

func (in *Inspector) version() string {
	if in.Version != nil {
		return in.Version()
	}
	return runtime.Version()
}

func (in *Inspector) platform() string {
	if in.Platform != nil {
		return in.Platform()
	}
	return runtime.GOOS + "/" + runtime.GOARCH
}

func (in *Inspector) executable() (string, error) {
	if in.Executable != nil {
		return in.Executable()
	}
	return os.Executable()
}

func (in *Inspector) getenv(key string) string {
	if in.Getenv != nil {
		return in.Getenv(key)
	}
	return os.Getenv(key)
}

func (in *Inspector) buildInfo() (*debug.BuildInfo, bool) {
	if in.BuildInfo != nil {
		return in.BuildInfo()
	}
	return debug.ReadBuildInfo()
}
