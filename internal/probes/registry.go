// SPDX-License-Identifier: AGPL-3.0-or-later

package probes

import (
	"github.com/bartekus/capprobe/internal/capability"
	"github.com/bartekus/capprobe/internal/harness"
	"github.com/bartekus/capprobe/internal/numeric"
	"github.com/bartekus/capprobe/internal/worker"
)

// Registry returns the probes in their canonical order. The numeric check
// runs before the process pool so a misbehaving spawner still leaves a
// useful partial report.
func Registry() []harness.Probe {
	return []harness.Probe{
		NewThreadProbe(),
		NewPooledTaskProbe(),
		NewNumericLibraryProbe(),
		NewProcessPoolProbe(),
	}
}

// Filter drops the named probes, keeping order.
func Filter(all []harness.Probe, disabled []string) []harness.Probe {
	if len(disabled) == 0 {
		return all
	}
	skip := make(map[string]bool, len(disabled))
	for _, name := range disabled {
		skip[name] = true
	}
	out := make([]harness.Probe, 0, len(all))
	for _, p := range all {
		if !skip[p.Name()] {
			out = append(out, p)
		}
	}
	return out
}

// DefaultCapabilities returns a fresh registry holding every compiled-in
// optional dependency.
func DefaultCapabilities() *capability.Registry {
	r := capability.NewRegistry()
	numeric.Register(r)
	return r
}

// DefaultSpawner launches workers by re-executing the running binary.
func DefaultSpawner() (worker.Spawner, error) {
	s, err := worker.NewExecSpawner()
	if err != nil {
		return nil, err
	}
	return s, nil
}
