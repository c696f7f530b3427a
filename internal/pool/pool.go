// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pool provides the bounded worker pool used by probes that need a
// fixed concurrency ceiling.
package pool

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// PanicError carries a panic recovered from a submitted task.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// Kind reports the error category used in probe outcomes.
func (e *PanicError) Kind() string { return "Panic" }

// Pool runs submitted tasks with at most Limit of them active at once.
//
// A Pool is scoped to one use: submit tasks, then call Wait exactly once.
// Wait returns only after every submitted task has returned.
type Pool struct {
	g     *errgroup.Group
	ctx   context.Context
	limit int

	active atomic.Int32
	peak   atomic.Int32
	done   atomic.Int32
}

// New creates a pool bounded to limit concurrent tasks. The first task error
// cancels the context handed to tasks still waiting or running.
func New(ctx context.Context, limit int) *Pool {
	if limit < 1 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	return &Pool{g: g, ctx: gctx, limit: limit}
}

// Limit returns the concurrency ceiling.
func (p *Pool) Limit() int { return p.limit }

// Submit schedules fn. It blocks while the pool is at its limit.
func (p *Pool) Submit(fn func(ctx context.Context) error) {
	p.g.Go(func() (err error) {
		n := p.active.Add(1)
		for {
			cur := p.peak.Load()
			if n <= cur || p.peak.CompareAndSwap(cur, n) {
				break
			}
		}
		defer func() {
			if r := recover(); r != nil {
				err = &PanicError{Value: r, Stack: debug.Stack()}
			}
			p.active.Add(-1)
			p.done.Add(1)
		}()

		if err := p.ctx.Err(); err != nil {
			return err
		}
		return fn(p.ctx)
	})
}

// Wait blocks until all submitted tasks have returned and reports the first
// task error.
func (p *Pool) Wait() error {
	return p.g.Wait()
}

// Peak returns the highest number of tasks observed running at once.
func (p *Pool) Peak() int { return int(p.peak.Load()) }

// Completed returns how many submitted tasks have returned.
func (p *Pool) Completed() int { return int(p.done.Load()) }
