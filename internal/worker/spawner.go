// SPDX-License-Identifier: AGPL-3.0-or-later

package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Spawner runs one request in a separate process.
type Spawner interface {
	Run(ctx context.Context, req Request) (Response, error)
}

// ExecSpawner re-executes a binary in worker mode for every request.
type ExecSpawner struct {
	Path string
	Env  []string
}

// NewExecSpawner returns a spawner for the running executable.
func NewExecSpawner() (*ExecSpawner, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locating executable: %w", err)
	}
	if _, err := os.Stat(exe); err != nil {
		return nil, err
	}
	return &ExecSpawner{Path: exe, Env: os.Environ()}, nil
}

// Run starts a worker process, sends req and waits for its response.
func (s *ExecSpawner) Run(ctx context.Context, req Request) (Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return Response{}, err
	}

	cmd := exec.CommandContext(ctx, s.Path)
	cmd.Env = append(append([]string{}, s.Env...), EnvKey+"=1")
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return Response{}, fmt.Errorf("worker %s(%d): %w: %s", req.Op, req.Value, err, msg)
		}
		return Response{}, fmt.Errorf("worker %s(%d): %w", req.Op, req.Value, err)
	}

	var resp Response
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return Response{}, fmt.Errorf("worker %s(%d): decoding response: %w", req.Op, req.Value, err)
	}
	if resp.Error != "" {
		return Response{}, fmt.Errorf("worker %s(%d): %s", req.Op, req.Value, resp.Error)
	}
	return resp, nil
}
