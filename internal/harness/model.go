// SPDX-License-Identifier: AGPL-3.0-or-later

package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bartekus/capprobe/internal/envinfo"
)

// Probe names of the default registry. Report flags are derived from the
// results recorded under these names.
const (
	ProbeThread      = "thread"
	ProbePooledTask  = "pooled-task"
	ProbeNumeric     = "numeric"
	ProbeProcessPool = "process-pool"
)

// Failure kinds assigned by the harness itself.
const (
	KindTimeout        = "Timeout"
	KindCanceled       = "Canceled"
	KindPanic          = "Panic"
	KindInvalidOutcome = "InvalidOutcome"
)

// OutcomeKind classifies a probe run.
type OutcomeKind string

const (
	OutcomeSuccess     OutcomeKind = "success"
	OutcomeUnavailable OutcomeKind = "unavailable"
	OutcomeFailure     OutcomeKind = "failure"
)

// Outcome is the result of one probe run. Exactly one payload matches Kind:
// Detail/Items for success, Reason for unavailable, ErrorKind/Message for
// failure. Build it with Succeeded, Unavailable, Failed or FailedWith.
type Outcome struct {
	Kind      OutcomeKind `json:"kind"`
	Detail    string      `json:"detail,omitempty"`
	Items     []string    `json:"items,omitempty"`
	Reason    string      `json:"reason,omitempty"`
	ErrorKind string      `json:"error_kind,omitempty"`
	Message   string      `json:"message,omitempty"`
}

// Succeeded builds a success outcome. Items, when given, are the per-worker
// lines behind detail.
func Succeeded(detail string, items ...string) Outcome {
	o := Outcome{Kind: OutcomeSuccess, Detail: detail}
	if len(items) > 0 {
		o.Items = append([]string(nil), items...)
	}
	return o
}

// Unavailable builds an outcome for a missing optional prerequisite.
func Unavailable(reason string) Outcome {
	return Outcome{Kind: OutcomeUnavailable, Reason: reason}
}

// Failed builds a failure outcome from an explicit category and message.
func Failed(kind, message string) Outcome {
	if kind == "" {
		kind = "Error"
	}
	return Outcome{Kind: OutcomeFailure, ErrorKind: kind, Message: message}
}

// FailedWith builds a failure outcome from err, using ErrorKind for the
// category and err.Error() for the message.
func FailedWith(err error) Outcome {
	if err == nil {
		return Failed("Error", "unknown error")
	}
	return Failed(ErrorKind(err), err.Error())
}

// Valid reports whether exactly the payload matching Kind is populated.
func (o Outcome) Valid() bool {
	switch o.Kind {
	case OutcomeSuccess:
		return o.Reason == "" && o.ErrorKind == "" && o.Message == ""
	case OutcomeUnavailable:
		return o.Reason != "" && o.Detail == "" && len(o.Items) == 0 && o.ErrorKind == "" && o.Message == ""
	case OutcomeFailure:
		return o.ErrorKind != "" && o.Detail == "" && len(o.Items) == 0 && o.Reason == ""
	default:
		return false
	}
}

// ErrorKind names the category of err. Errors exposing Kind() string name
// themselves; context errors map to Timeout/Canceled; anything else is named
// after the first concrete error type in its chain that is not a plain
// fmt wrapper.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		if k, ok := e.(interface{ Kind() string }); ok && k.Kind() != "" {
			return k.Kind()
		}
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		name := strings.TrimPrefix(fmt.Sprintf("%T", e), "*")
		switch name {
		case "fmt.wrapError", "fmt.wrapErrors":
			continue
		case "errors.errorString":
			return "Error"
		}
		return name
	}
	return "Error"
}

// ProbeResult pairs a probe with its outcome. Duration is diagnostic only.
type ProbeResult struct {
	Probe         string        `json:"probe"`
	Title         string        `json:"title"`
	Outcome       Outcome       `json:"outcome"`
	Duration      time.Duration `json:"duration"`
	ExpectFailure bool          `json:"expect_failure,omitempty"`
}

// Passed is true only for a success outcome.
func (r ProbeResult) Passed() bool { return r.Outcome.Kind == OutcomeSuccess }

// Report is the aggregate of one harness run. Results follow registration
// order, not completion order.
type Report struct {
	Environment envinfo.Info  `json:"environment"`
	Results     []ProbeResult `json:"results"`
	StartedAt   time.Time     `json:"started_at"`
}

// Result returns the result recorded for the named probe.
func (r *Report) Result(name string) (ProbeResult, bool) {
	for _, res := range r.Results {
		if res.Probe == name {
			return res, true
		}
	}
	return ProbeResult{}, false
}

// Merge returns a report holding r's results with those of newer replacing
// them by probe name. Results follow order (registration order); names
// missing from order come last, in the order first seen. Environment and
// StartedAt come from newer.
func (r *Report) Merge(newer *Report, order []string) *Report {
	byName := make(map[string]ProbeResult, len(r.Results)+len(newer.Results))
	var seen []string
	for _, src := range [][]ProbeResult{r.Results, newer.Results} {
		for _, res := range src {
			if _, ok := byName[res.Probe]; !ok {
				seen = append(seen, res.Probe)
			}
			byName[res.Probe] = res
		}
	}

	merged := &Report{
		Environment: newer.Environment,
		Results:     make([]ProbeResult, 0, len(byName)),
		StartedAt:   newer.StartedAt,
	}
	placed := make(map[string]bool, len(byName))
	for _, name := range append(append([]string(nil), order...), seen...) {
		res, ok := byName[name]
		if !ok || placed[name] {
			continue
		}
		placed[name] = true
		merged.Results = append(merged.Results, res)
	}
	return merged
}

// Flags are the boolean conclusions drawn from a report. A nil flag means
// the probe it depends on has no result in the report, as after a partial
// run, and is left out of the JSON form.
type Flags struct {
	ThreadingWorks         *bool `json:"threading_works,omitempty"`
	ConcurrentFuturesWorks *bool `json:"concurrent_futures_works,omitempty"`
	NumpyAvailable         *bool `json:"numpy_available,omitempty"`
	MultiprocessingFails   *bool `json:"multiprocessing_fails,omitempty"`
}

// Flags derives the summary flags from Results on every call; they are never
// stored alongside the evidence.
func (r *Report) Flags() Flags {
	is := func(name string, want OutcomeKind) *bool {
		res, ok := r.Result(name)
		if !ok {
			return nil
		}
		v := res.Outcome.Kind == want
		return &v
	}
	return Flags{
		ThreadingWorks:         is(ProbeThread, OutcomeSuccess),
		ConcurrentFuturesWorks: is(ProbePooledTask, OutcomeSuccess),
		NumpyAvailable:         is(ProbeNumeric, OutcomeSuccess),
		MultiprocessingFails:   is(ProbeProcessPool, OutcomeFailure),
	}
}

// Failed lists the names of probes whose outcome is a failure.
func (r *Report) Failed() []string {
	var names []string
	for _, res := range r.Results {
		if res.Outcome.Kind == OutcomeFailure {
			names = append(names, res.Probe)
		}
	}
	return names
}
