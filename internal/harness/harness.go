// SPDX-License-Identifier: AGPL-3.0-or-later

// Package harness runs capability probes one after another and aggregates
// their outcomes into a Report.
package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bartekus/capprobe/internal/envinfo"
)

var (
	// ErrAborted is returned when the caller's context ends mid-run.
	ErrAborted = errors.New("probe run aborted")

	// ErrUnknownProbe is returned by RunList for names nobody registered.
	ErrUnknownProbe = errors.New("probe not found")
)

// DefaultProbeTimeout bounds a single probe run.
const DefaultProbeTimeout = 30 * time.Second

// DefaultDrainTimeout is how long a timed-out probe gets to unwind after its
// context is canceled before the next probe starts.
const DefaultDrainTimeout = 2 * time.Second

// Inspector supplies the environment snapshot for a run.
type Inspector interface {
	Inspect() envinfo.Info
}

// Harness manages the execution of probes. It is safe for concurrent use;
// runs are serialized so that no two probes ever execute at once.
type Harness struct {
	probes    []Probe
	deps      *Deps
	inspector Inspector
	store     *StateStore
	timeout   time.Duration
	drain     time.Duration
	now       func() time.Time

	mu sync.Mutex
}

// Option configures a Harness.
type Option func(*Harness)

// WithInspector replaces the environment inspector.
func WithInspector(in Inspector) Option {
	return func(h *Harness) { h.inspector = in }
}

// WithStateStore persists every finished report to store.
func WithStateStore(store *StateStore) Option {
	return func(h *Harness) { h.store = store }
}

// WithProbeTimeout bounds each probe run; zero disables the deadline.
func WithProbeTimeout(d time.Duration) Option {
	return func(h *Harness) { h.timeout = d }
}

// WithDrainTimeout bounds the wait for a timed-out probe to return.
func WithDrainTimeout(d time.Duration) Option {
	return func(h *Harness) { h.drain = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(h *Harness) { h.now = now }
}

// New creates a harness for probes in registration order.
func New(probes []Probe, deps *Deps, opts ...Option) *Harness {
	if deps == nil {
		deps = &Deps{}
	}
	h := &Harness{
		probes:    probes,
		deps:      deps,
		inspector: envinfo.New(),
		timeout:   DefaultProbeTimeout,
		drain:     DefaultDrainTimeout,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Probes returns the registered probes in order.
func (h *Harness) Probes() []Probe {
	return append([]Probe(nil), h.probes...)
}

// Inspect returns a fresh environment snapshot from the harness inspector.
func (h *Harness) Inspect() envinfo.Info {
	return h.inspector.Inspect()
}

// RunAll executes all probes in order.
// A failing probe never stops the ones after it; the returned error is
// reserved for faults of the harness itself.
func (h *Harness) RunAll(ctx context.Context) (*Report, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.executeSequence(ctx, h.probes, nil)
}

// RunList executes the named probes in the given order. The report holds
// only those probes, so flags of the others are nil.
func (h *Harness) RunList(ctx context.Context, names []string) (*Report, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var toRun []Probe
	for _, name := range names {
		p := h.findProbe(name)
		if p == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProbe, name)
		}
		toRun = append(toRun, p)
	}
	return h.executeSequence(ctx, toRun, nil)
}

// Resume re-runs the probes that failed in the last saved run and merges
// their new results into it, so the saved report keeps the evidence of the
// probes that passed. It returns (nil, nil) when there is nothing to resume.
func (h *Harness) Resume(ctx context.Context) (*Report, error) {
	if h.store == nil {
		return nil, errors.New("resume requires a state store")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	last, err := h.store.ReadLastRun()
	if err != nil {
		return nil, fmt.Errorf("loading last run: %w", err)
	}
	if last == nil || len(last.Failed()) == 0 {
		return nil, nil
	}

	var toRun []Probe
	for _, name := range last.Failed() {
		if p := h.findProbe(name); p != nil {
			toRun = append(toRun, p)
		}
	}
	return h.executeSequence(ctx, toRun, last)
}

func (h *Harness) probeNames() []string {
	names := make([]string, len(h.probes))
	for i, p := range h.probes {
		names[i] = p.Name()
	}
	return names
}

func (h *Harness) findProbe(name string) Probe {
	for _, p := range h.probes {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// executeSequence runs probes in order with h.mu held. A non-nil base is the
// saved report the new results are merged into.
func (h *Harness) executeSequence(ctx context.Context, probes []Probe, base *Report) (*Report, error) {
	log := h.deps.logger()

	report := &Report{
		Environment: h.inspector.Inspect(),
		Results:     make([]ProbeResult, 0, len(probes)),
		StartedAt:   h.now(),
	}

	for i, p := range probes {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w before %s: %v", ErrAborted, p.Name(), err)
		}

		log.Debug("probe started", slog.String("probe", p.Name()), slog.Int("index", i+1), slog.Int("total", len(probes)))
		res := h.runProbe(ctx, p)
		log.Debug("probe finished",
			slog.String("probe", res.Probe),
			slog.String("kind", string(res.Outcome.Kind)),
			slog.Duration("duration", res.Duration),
		)

		report.Results = append(report.Results, res)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAborted, err)
	}

	if base != nil {
		report = base.Merge(report, h.probeNames())
	}

	if h.store != nil {
		if err := h.store.Save(report); err != nil {
			return nil, fmt.Errorf("saving report: %w", err)
		}
	}
	return report, nil
}

// runProbe runs p under the per-probe deadline and turns panics, timeouts and
// malformed outcomes into failures.
func (h *Harness) runProbe(ctx context.Context, p Probe) ProbeResult {
	res := ProbeResult{Probe: p.Name(), Title: p.Title()}
	if fe, ok := p.(FailureExpecter); ok {
		res.ExpectFailure = fe.ExpectsFailure()
	}

	pctx, cancel := h.probeContext(ctx)
	defer cancel()

	done := make(chan Outcome, 1)
	start := h.now()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- Failed(KindPanic, fmt.Sprint(r))
			}
		}()
		done <- p.Run(pctx, h.deps)
	}()

	select {
	case o := <-done:
		if !o.Valid() {
			o = Failed(KindInvalidOutcome, fmt.Sprintf("probe returned malformed outcome of kind %q", o.Kind))
		}
		res.Outcome = o
	case <-pctx.Done():
		if errors.Is(pctx.Err(), context.DeadlineExceeded) {
			res.Outcome = Failed(KindTimeout, fmt.Sprintf("probe did not finish within %s", h.timeout))
		} else {
			res.Outcome = Failed(KindCanceled, pctx.Err().Error())
		}
		cancel()
		if !h.awaitUnwind(done) {
			h.deps.logger().Warn("probe still running after drain timeout", slog.String("probe", res.Probe))
		}
	}
	res.Duration = h.now().Sub(start)
	return res
}

// awaitUnwind waits up to the drain timeout for a canceled probe to return
// and reports whether it did.
func (h *Harness) awaitUnwind(done <-chan Outcome) bool {
	if h.drain <= 0 {
		return false
	}
	t := time.NewTimer(h.drain)
	defer t.Stop()
	select {
	case <-done:
		return true
	case <-t.C:
		return false
	}
}

func (h *Harness) probeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.timeout)
}
