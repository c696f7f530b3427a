// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !nonumeric

package numeric

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/bartekus/capprobe/internal/capability"
)

// Compiled is true when a numeric library is linked into the binary.
const Compiled = true

type gonumLibrary struct{}

// NewGonum returns the gonum-backed Library.
func NewGonum() Library { return gonumLibrary{} }

func (gonumLibrary) Name() string { return "gonum" }

func (gonumLibrary) RandomMatrixNorm(rng *rand.Rand, rows, cols int) (float64, error) {
	if rows <= 0 || cols <= 0 {
		return 0, fmt.Errorf("invalid matrix shape %dx%d", rows, cols)
	}
	if rng == nil {
		return 0, fmt.Errorf("nil random source")
	}
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = rng.Float64()
	}
	m := mat.NewDense(rows, cols, data)
	// For matrices, gonum's L2 selector is the Frobenius norm.
	return mat.Norm(m, 2), nil
}

func register(r *capability.Registry) {
	r.Register(CapabilityName, func() (any, error) {
		return NewGonum(), nil
	})
}
