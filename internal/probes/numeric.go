// SPDX-License-Identifier: AGPL-3.0-or-later

package probes

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/bartekus/capprobe/internal/capability"
	"github.com/bartekus/capprobe/internal/harness"
	"github.com/bartekus/capprobe/internal/numeric"
)

// NumericMatrixSize is the side length of the random test matrix.
const NumericMatrixSize = 1000

// NumericLibraryProbe checks that the optional numeric library is present and
// actually computes.
type NumericLibraryProbe struct {
	capability string
	size       int
}

func NewNumericLibraryProbe() harness.Probe {
	return &NumericLibraryProbe{capability: numeric.CapabilityName, size: NumericMatrixSize}
}

func (p *NumericLibraryProbe) Name() string  { return harness.ProbeNumeric }
func (p *NumericLibraryProbe) Title() string { return "NumPy Compatibility Test" }

func (p *NumericLibraryProbe) Run(ctx context.Context, deps *harness.Deps) (out harness.Outcome) {
	if deps == nil || deps.Capabilities == nil || !deps.Capabilities.IsAvailable(p.capability) {
		return harness.Unavailable(fmt.Sprintf("numeric library %q not available (rebuild without -tags nonumeric)", p.capability))
	}

	defer func() {
		if r := recover(); r != nil {
			out = harness.Failed(harness.KindPanic, fmt.Sprint(r))
		}
	}()

	lib, err := capability.LookupAs[numeric.Library](deps.Capabilities, p.capability)
	if err != nil {
		if errors.Is(err, capability.ErrNotRegistered) {
			return harness.Unavailable(err.Error())
		}
		return harness.FailedWith(err)
	}
	if err := ctx.Err(); err != nil {
		return harness.FailedWith(err)
	}

	norm, err := lib.RandomMatrixNorm(deps.Rand(), p.size, p.size)
	if err != nil {
		return harness.FailedWith(fmt.Errorf("%s: %w", lib.Name(), err))
	}
	if math.IsNaN(norm) || math.IsInf(norm, 0) {
		return harness.Failed("WrongResult", fmt.Sprintf("%s returned non-finite norm %v", lib.Name(), norm))
	}
	return harness.Succeeded(fmt.Sprintf("matrix norm = %.2f", norm))
}
