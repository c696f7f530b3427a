// SPDX-License-Identifier: AGPL-3.0-or-later

package probes

import (
	"context"
	"fmt"

	"github.com/bartekus/capprobe/internal/harness"
	"github.com/bartekus/capprobe/internal/pool"
)

const (
	// PooledTasks is the number of tasks submitted to the pool.
	PooledTasks = 5

	// PooledLimit is the pool's concurrency ceiling.
	PooledLimit = 3

	pooledScale = 100000
)

// PooledTaskProbe checks that CPU-bound work runs on a bounded pool.
type PooledTaskProbe struct {
	tasks int
	limit int

	// newPool is swapped in tests to observe the pool after the run.
	newPool func(ctx context.Context, limit int) *pool.Pool
}

func NewPooledTaskProbe() harness.Probe {
	return &PooledTaskProbe{tasks: PooledTasks, limit: PooledLimit, newPool: pool.New}
}

func (p *PooledTaskProbe) Name() string  { return harness.ProbePooledTask }
func (p *PooledTaskProbe) Title() string { return "Concurrent Futures Test" }

func (p *PooledTaskProbe) Run(ctx context.Context, deps *harness.Deps) harness.Outcome {
	wp := p.newPool(ctx, p.limit)

	// Indexed by submission so the report order never depends on scheduling.
	results := make([]string, p.tasks)
	for n := 0; n < p.tasks; n++ {
		wp.Submit(func(ctx context.Context) error {
			sum, err := sumRange(ctx, n*pooledScale)
			if err != nil {
				return fmt.Errorf("task %d: %w", n, err)
			}
			results[n] = fmt.Sprintf("Task %d: %d", n, sum)
			return nil
		})
	}
	if err := wp.Wait(); err != nil {
		return harness.FailedWith(err)
	}

	return harness.Succeeded(
		fmt.Sprintf("%d tasks completed on a pool of %d (peak %d active)", p.tasks, p.limit, wp.Peak()),
		results...,
	)
}

// sumRange adds every integer in [0, n), checking ctx between chunks.
func sumRange(ctx context.Context, n int) (int, error) {
	const chunk = 1 << 14
	total := 0
	for i := 0; i < n; i++ {
		if i%chunk == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		total += i
	}
	return total, nil
}

