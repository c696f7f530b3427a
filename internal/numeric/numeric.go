// SPDX-License-Identifier: AGPL-3.0-or-later

// Package numeric exposes the optional numeric library to the capability registry.
//
// The gonum-backed provider is compiled in by default. Building with
// `-tags nonumeric` leaves the registry without it, which is how hosts that
// cannot ship the library are simulated.
package numeric

import (
	"math/rand/v2"

	"github.com/bartekus/capprobe/internal/capability"
)

// CapabilityName is the registry key of the numeric library.
const CapabilityName = "gonum"

// Library is the slice of a numeric library the probe needs.
type Library interface {
	// Name identifies the backing implementation.
	Name() string

	// RandomMatrixNorm fills a rows x cols matrix from rng and returns its
	// Frobenius norm.
	RandomMatrixNorm(rng *rand.Rand, rows, cols int) (float64, error)
}

// Register installs the compiled-in numeric library, if any, into r.
func Register(r *capability.Registry) {
	register(r)
}
