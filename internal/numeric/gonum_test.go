// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !nonumeric

package numeric

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/capprobe/internal/capability"
)

func TestRegister_InstallsGonum(t *testing.T) {
	r := capability.NewRegistry()
	Register(r)

	require.True(t, r.IsAvailable(CapabilityName))
	lib, err := capability.LookupAs[Library](r, CapabilityName)
	require.NoError(t, err)
	assert.Equal(t, "gonum", lib.Name())
}

func TestRandomMatrixNorm_MatchesFrobenius(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	got, err := NewGonum().RandomMatrixNorm(rng, 3, 4)
	require.NoError(t, err)

	ref := rand.New(rand.NewPCG(7, 11))
	var sum float64
	for i := 0; i < 12; i++ {
		v := ref.Float64()
		sum += v * v
	}
	assert.InDelta(t, math.Sqrt(sum), got, 1e-12)
}

func TestRandomMatrixNorm_Deterministic(t *testing.T) {
	a, err := NewGonum().RandomMatrixNorm(rand.New(rand.NewPCG(1, 2)), 50, 50)
	require.NoError(t, err)
	b, err := NewGonum().RandomMatrixNorm(rand.New(rand.NewPCG(1, 2)), 50, 50)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRandomMatrixNorm_InvalidShape(t *testing.T) {
	_, err := NewGonum().RandomMatrixNorm(rand.New(rand.NewPCG(1, 2)), 0, 5)
	require.Error(t, err)
}
