// SPDX-License-Identifier: AGPL-3.0-or-later

package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bartekus/capprobe/internal/envinfo"
	"github.com/bartekus/capprobe/internal/harness"
	"github.com/bartekus/capprobe/internal/presenter"
)

// RunProbesInput is the input of the run_probes tool.
type RunProbesInput struct {
	Probes []string `json:"probes,omitempty" jsonschema:"probe names to run in order; all registered probes when empty"`
}

// RunProbesOutput is the result of the run_probes tool.
type RunProbesOutput struct {
	Environment            envinfo.Info              `json:"environment"`
	ThreadingWorks         *bool                     `json:"threading_works,omitempty"`
	ConcurrentFuturesWorks *bool                     `json:"concurrent_futures_works,omitempty"`
	NumpyAvailable         *bool                     `json:"numpy_available,omitempty"`
	MultiprocessingFails   *bool                     `json:"multiprocessing_fails,omitempty"`
	Results                []presenter.ResultSummary `json:"results"`
}

// InspectEnvironmentInput is the input of the inspect_environment tool.
type InspectEnvironmentInput struct{}

// InspectEnvironmentOutput is the result of the inspect_environment tool.
type InspectEnvironmentOutput struct {
	Environment envinfo.Info `json:"environment"`
}

// Service backs the MCP tools with a harness.
type Service struct {
	harness *harness.Harness
}

// NewService creates a Service running probes through h.
func NewService(h *harness.Harness) *Service {
	return &Service{harness: h}
}

// RunProbes runs the requested probes. Probe failures are part of the
// output; only harness faults and unknown names are tool errors. Concurrent
// calls queue on the harness and run one at a time.
func (s *Service) RunProbes(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RunProbesInput,
) (*mcp.CallToolResult, RunProbesOutput, error) {
	var (
		report *harness.Report
		err    error
	)
	if len(input.Probes) == 0 {
		report, err = s.harness.RunAll(ctx)
	} else {
		report, err = s.harness.RunList(ctx, input.Probes)
	}
	if err != nil {
		return nil, RunProbesOutput{}, fmt.Errorf("run probes: %w", err)
	}

	sum := presenter.Summarize(report)
	return nil, RunProbesOutput{
		Environment:            sum.Environment,
		ThreadingWorks:         sum.ThreadingWorks,
		ConcurrentFuturesWorks: sum.ConcurrentFuturesWorks,
		NumpyAvailable:         sum.NumpyAvailable,
		MultiprocessingFails:   sum.MultiprocessingFails,
		Results:                sum.Results,
	}, nil
}

// InspectEnvironment returns a fresh environment snapshot.
func (s *Service) InspectEnvironment(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ InspectEnvironmentInput,
) (*mcp.CallToolResult, InspectEnvironmentOutput, error) {
	return nil, InspectEnvironmentOutput{Environment: s.harness.Inspect()}, nil
}
