// SPDX-License-Identifier: AGPL-3.0-or-later

package pool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_RespectsLimit(t *testing.T) {
	p := New(context.Background(), 3)

	var running, maxSeen atomic.Int32
	for i := 0; i < 10; i++ {
		p.Submit(func(ctx context.Context) error {
			n := running.Add(1)
			for {
				cur := maxSeen.Load()
				if n <= cur || maxSeen.CompareAndSwap(cur, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			running.Add(-1)
			return nil
		})
	}
	require.NoError(t, p.Wait())

	assert.LessOrEqual(t, int(maxSeen.Load()), 3)
	assert.LessOrEqual(t, p.Peak(), 3)
	assert.GreaterOrEqual(t, p.Peak(), 1)
	assert.Equal(t, 10, p.Completed())
}

func TestPool_FirstErrorIsReturned(t *testing.T) {
	p := New(context.Background(), 2)
	boom := errors.New("boom")

	p.Submit(func(ctx context.Context) error { return boom })
	p.Submit(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	err := p.Wait()
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 2, p.Completed())
}

func TestPool_RecoversPanics(t *testing.T) {
	p := New(context.Background(), 1)
	p.Submit(func(ctx context.Context) error { panic("kaboom") })

	err := p.Wait()
	require.Error(t, err)

	var pe *PanicError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "kaboom", pe.Value)
	assert.Equal(t, "Panic", pe.Kind())
	assert.Equal(t, 1, p.Completed())
}

func TestPool_CanceledContextSkipsWork(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(ctx, 2)
	var ran atomic.Bool
	p.Submit(func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})

	require.ErrorIs(t, p.Wait(), context.Canceled)
	assert.False(t, ran.Load())
}

func TestNew_ClampsLimit(t *testing.T) {
	assert.Equal(t, 1, New(context.Background(), 0).Limit())
}
