// SPDX-License-Identifier: AGPL-3.0-or-later

// Package worker implements the process-pool worker: the capprobe binary
// re-executes itself with EnvKey set, reads one Request from stdin and writes
// one Response to stdout.
package worker

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// EnvKey switches a capprobe process into worker mode when set to "1".
const EnvKey = "CAPPROBE_WORKER"

// OpSquare squares Request.Value.
const OpSquare = "square"

// Request is the single message a worker reads.
type Request struct {
	Op    string `json:"op"`
	Value int    `json:"value"`
}

// Response is the single message a worker writes.
type Response struct {
	Value int    `json:"value"`
	Error string `json:"error,omitempty"`
}

// IsWorker reports whether the current process was started as a worker.
func IsWorker() bool {
	return os.Getenv(EnvKey) == "1"
}

// Main runs the worker against the process's standard streams and returns
// the exit code.
func Main() int {
	if err := Serve(os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// Serve handles exactly one request.
func Serve(r io.Reader, w io.Writer) error {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return fmt.Errorf("decoding request: %w", err)
	}

	resp, err := handle(req)
	if err != nil {
		resp.Error = err.Error()
	}
	if encErr := json.NewEncoder(w).Encode(resp); encErr != nil {
		return fmt.Errorf("encoding response: %w", encErr)
	}
	return err
}

func handle(req Request) (Response, error) {
	switch req.Op {
	case OpSquare:
		return Response{Value: req.Value * req.Value}, nil
	default:
		return Response{}, fmt.Errorf("unknown op %q", req.Op)
	}
}
