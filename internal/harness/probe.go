// SPDX-License-Identifier: AGPL-3.0-or-later

package harness

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/bartekus/capprobe/internal/capability"
	"github.com/bartekus/capprobe/internal/worker"
)

// Deps carries the explicit state probes are built against. Nothing a probe
// needs comes from process-wide globals.
type Deps struct {
	// Seed feeds the random generator handed out by Rand.
	Seed uint64

	// Capabilities resolves optional dependencies such as the numeric library.
	Capabilities *capability.Registry

	// NewSpawner constructs the process launcher used by the process pool.
	NewSpawner func() (worker.Spawner, error)

	// ThreadDelay is the simulated work time of each thread-probe worker.
	ThreadDelay time.Duration

	Logger *slog.Logger
}

// Rand returns a fresh generator seeded from Seed, so repeated runs draw the
// same sequence.
func (d *Deps) Rand() *rand.Rand {
	return rand.New(rand.NewPCG(d.Seed, d.Seed^0x9e3779b97f4a7c15))
}

func (d *Deps) logger() *slog.Logger {
	if d == nil || d.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return d.Logger
}

// Probe tests one concurrency or dependency strategy.
type Probe interface {
	// Name returns the stable identifier (e.g. "pooled-task").
	Name() string

	// Title returns the section label used in transcripts.
	Title() string

	// Run executes the probe. Implementations convert every error into the
	// returned Outcome and must not panic.
	Run(ctx context.Context, deps *Deps) Outcome
}

// FailureExpecter is implemented by probes whose strategy is expected to
// fail in constrained hosts.
type FailureExpecter interface {
	ExpectsFailure() bool
}
