// SPDX-License-Identifier: AGPL-3.0-or-later

package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/capprobe/internal/envinfo"
)

var (
	yes = func() *bool { v := true; return &v }()
	no  = func() *bool { v := false; return &v }()
)

type kindedErr struct{}

func (kindedErr) Error() string { return "kinded" }
func (kindedErr) Kind() string  { return "Custom" }

func TestErrorKind(t *testing.T) {
	_, statErr := os.Stat("/definitely/not/here")
	_, lookErr := exec.LookPath("capprobe-definitely-missing-binary")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", errors.New("x"), "Error"},
		{"path error", statErr, "fs.PathError"},
		{"wrapped path error", fmt.Errorf("stat: %w", statErr), "fs.PathError"},
		{"exec lookup", lookErr, "exec.Error"},
		{"kinded", fmt.Errorf("outer: %w", kindedErr{}), "Custom"},
		{"deadline", fmt.Errorf("wait: %w", context.DeadlineExceeded), KindTimeout},
		{"canceled", context.Canceled, KindCanceled},
		{"formatted", fmt.Errorf("no wrap %d", 1), "Error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ErrorKind(tc.err))
		})
	}

	var pathErr *fs.PathError
	assert.ErrorAs(t, statErr, &pathErr)
}

func TestFailedWith(t *testing.T) {
	o := FailedWith(fmt.Errorf("starting pool: %w", kindedErr{}))
	assert.Equal(t, OutcomeFailure, o.Kind)
	assert.Equal(t, "Custom", o.ErrorKind)
	assert.Equal(t, "starting pool: kinded", o.Message)
	assert.True(t, o.Valid())
}

func TestOutcome_Valid(t *testing.T) {
	assert.True(t, Succeeded("d", "a", "b").Valid())
	assert.True(t, Unavailable("missing").Valid())
	assert.True(t, Failed("", "m").Valid())
	assert.Equal(t, "Error", Failed("", "m").ErrorKind)

	assert.False(t, Outcome{}.Valid())
	assert.False(t, Outcome{Kind: OutcomeUnavailable}.Valid())
	assert.False(t, Outcome{Kind: OutcomeFailure, ErrorKind: "x", Detail: "d"}.Valid())
	assert.False(t, Outcome{Kind: OutcomeSuccess, Reason: "r"}.Valid())
}

func TestSucceeded_CopiesItems(t *testing.T) {
	items := []string{"a"}
	o := Succeeded("d", items...)
	items[0] = "changed"
	assert.Equal(t, []string{"a"}, o.Items)
}

func TestReport_Flags(t *testing.T) {
	tests := []struct {
		name    string
		results []ProbeResult
		want    Flags
	}{
		{
			name: "constrained host",
			results: []ProbeResult{
				{Probe: ProbeThread, Outcome: Succeeded("ok")},
				{Probe: ProbePooledTask, Outcome: Succeeded("ok")},
				{Probe: ProbeNumeric, Outcome: Unavailable("missing")},
				{Probe: ProbeProcessPool, Outcome: Failed("exec.Error", "denied")},
			},
			want: Flags{ThreadingWorks: yes, ConcurrentFuturesWorks: yes, NumpyAvailable: no, MultiprocessingFails: yes},
		},
		{
			name: "everything works",
			results: []ProbeResult{
				{Probe: ProbeThread, Outcome: Succeeded("ok")},
				{Probe: ProbePooledTask, Outcome: Succeeded("ok")},
				{Probe: ProbeNumeric, Outcome: Succeeded("matrix norm = 577.35")},
				{Probe: ProbeProcessPool, Outcome: Succeeded("unexpectedly succeeded")},
			},
			want: Flags{ThreadingWorks: yes, ConcurrentFuturesWorks: yes, NumpyAvailable: yes, MultiprocessingFails: no},
		},
		{
			name: "numeric present but broken",
			results: []ProbeResult{
				{Probe: ProbeNumeric, Outcome: Failed("Error", "bad shape")},
			},
			want: Flags{NumpyAvailable: no},
		},
		{
			name: "no results",
			want: Flags{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := &Report{Results: tc.results}
			assert.Equal(t, tc.want, r.Flags())
		})
	}
}

func TestReport_FlagsFollowResults(t *testing.T) {
	r := &Report{Results: []ProbeResult{{Probe: ProbeThread, Outcome: Succeeded("ok")}}}
	assert.Equal(t, yes, r.Flags().ThreadingWorks)

	r.Results[0].Outcome = Failed("Error", "x")
	assert.Equal(t, no, r.Flags().ThreadingWorks)
}

func TestFlags_JSONOmitsProbesThatDidNotRun(t *testing.T) {
	r := &Report{Results: []ProbeResult{{Probe: ProbeNumeric, Outcome: Unavailable("missing")}}}

	raw, err := json.Marshal(r.Flags())
	require.NoError(t, err)
	assert.JSONEq(t, `{"numpy_available": false}`, string(raw))
}

func TestReport_Merge(t *testing.T) {
	saved := &Report{
		Results: []ProbeResult{
			{Probe: ProbeThread, Outcome: Succeeded("ok")},
			{Probe: ProbeProcessPool, Outcome: Failed("exec.Error", "denied")},
			{Probe: "retired", Outcome: Succeeded("old")},
		},
		StartedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	newer := &Report{
		Environment: envinfo.Info{Platform: "linux/arm64"},
		Results: []ProbeResult{
			{Probe: ProbeProcessPool, Outcome: Succeeded("unexpectedly succeeded")},
			{Probe: ProbePooledTask, Outcome: Succeeded("ok")},
		},
		StartedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	}

	merged := saved.Merge(newer, []string{ProbeThread, ProbePooledTask, ProbeNumeric, ProbeProcessPool})

	var names []string
	for _, res := range merged.Results {
		names = append(names, res.Probe)
	}
	assert.Equal(t, []string{ProbeThread, ProbePooledTask, ProbeProcessPool, "retired"}, names)
	assert.Equal(t, OutcomeSuccess, merged.Results[2].Outcome.Kind)
	assert.Equal(t, newer.StartedAt, merged.StartedAt)
	assert.Equal(t, "linux/arm64", merged.Environment.Platform)
	assert.Len(t, saved.Results, 3)
}
