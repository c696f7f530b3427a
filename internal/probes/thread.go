// SPDX-License-Identifier: AGPL-3.0-or-later

package probes

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bartekus/capprobe/internal/harness"
)

// ThreadWorkers is the number of goroutines the thread probe starts.
const ThreadWorkers = 5

// DefaultThreadDelay is the simulated work time of each worker.
const DefaultThreadDelay = 100 * time.Millisecond

// ThreadProbe checks that plain goroutines with a join barrier work.
type ThreadProbe struct {
	workers int
}

func NewThreadProbe() harness.Probe {
	return &ThreadProbe{workers: ThreadWorkers}
}

func (p *ThreadProbe) Name() string  { return harness.ProbeThread }
func (p *ThreadProbe) Title() string { return "Threading Alternative Test" }

func (p *ThreadProbe) Run(ctx context.Context, deps *harness.Deps) harness.Outcome {
	delay := DefaultThreadDelay
	if deps != nil && deps.ThreadDelay > 0 {
		delay = deps.ThreadDelay
	}

	// Buffered to the worker count so no sender ever blocks.
	results := make(chan string, p.workers)
	errs := make(chan error, p.workers)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			value := id * id
			t := time.NewTimer(delay)
			defer t.Stop()
			select {
			case <-t.C:
			case <-ctx.Done():
				errs <- fmt.Errorf("worker %d: %w", id, ctx.Err())
				return
			}
			results <- fmt.Sprintf("Worker %d: %d", id, value)
		}(i)
	}
	wg.Wait()
	close(results)
	close(errs)

	if err := <-errs; err != nil {
		return harness.FailedWith(err)
	}

	items := make([]string, 0, p.workers)
	for r := range results {
		items = append(items, r)
	}
	if len(items) != p.workers {
		return harness.Failed("IncompleteResults", fmt.Sprintf("collected %d of %d worker results", len(items), p.workers))
	}
	return harness.Succeeded(strings.Join(items, "; "), items...)
}
