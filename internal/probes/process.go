// SPDX-License-Identifier: AGPL-3.0-or-later

package probes

import (
	"context"
	"errors"
	"fmt"

	"github.com/bartekus/capprobe/internal/harness"
	"github.com/bartekus/capprobe/internal/pool"
	"github.com/bartekus/capprobe/internal/worker"
)

// ProcessPoolSize is the number of worker processes allowed at once.
const ProcessPoolSize = 2

// ProcessPoolProbe checks whether work can be spread over separate OS
// processes. Restricted hosts commonly refuse to spawn them, so failure is
// the expected outcome there.
type ProcessPoolProbe struct {
	size   int
	inputs []int
}

func NewProcessPoolProbe() harness.Probe {
	return &ProcessPoolProbe{size: ProcessPoolSize, inputs: []int{1, 2, 3, 4}}
}

func (p *ProcessPoolProbe) Name() string         { return harness.ProbeProcessPool }
func (p *ProcessPoolProbe) Title() string        { return "Multiprocessing Test (Expected to Fail)" }
func (p *ProcessPoolProbe) ExpectsFailure() bool { return true }

func (p *ProcessPoolProbe) Run(ctx context.Context, deps *harness.Deps) (out harness.Outcome) {
	// Spawners are external code; a panic while building or using one is
	// still a probe failure.
	defer func() {
		if r := recover(); r != nil {
			out = harness.Failed(harness.KindPanic, fmt.Sprint(r))
		}
	}()

	if deps == nil || deps.NewSpawner == nil {
		return harness.FailedWith(errors.New("no process spawner configured"))
	}
	spawner, err := deps.NewSpawner()
	if err != nil {
		return harness.FailedWith(fmt.Errorf("creating process pool: %w", err))
	}

	wp := pool.New(ctx, p.size)
	squares := make([]int, len(p.inputs))
	for i, v := range p.inputs {
		wp.Submit(func(ctx context.Context) error {
			resp, err := spawner.Run(ctx, worker.Request{Op: worker.OpSquare, Value: v})
			if err != nil {
				return err
			}
			squares[i] = resp.Value
			return nil
		})
	}
	if err := wp.Wait(); err != nil {
		return harness.FailedWith(err)
	}

	for i, v := range p.inputs {
		if squares[i] != v*v {
			return harness.Failed("WrongResult", fmt.Sprintf("worker returned %d for %d squared", squares[i], v))
		}
	}
	return harness.Succeeded(fmt.Sprintf("unexpectedly succeeded: %v", squares))
}
