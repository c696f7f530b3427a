// SPDX-License-Identifier: AGPL-3.0-or-later

// Package clierr maps command errors to process exit codes.
package clierr

import (
	"errors"
	"fmt"
)

// Exit codes of the capprobe binary. Probe failures are report data and
// never produce a non-zero code on their own.
const (
	ExitOK      = 0
	ExitGeneral = 1
	ExitHarness = 2
	ExitConfig  = 3
)

type ExitCoder interface {
	error
	ExitCode() int
}

// ExitError is an error that carries an explicit process exit code.
// It supports wrapping via Unwrap so errors.Is/As work as expected.
type ExitError struct {
	code  int
	msg   string
	cause error
}

func (e *ExitError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %v", e.msg, e.cause)
}

func (e *ExitError) ExitCode() int { return e.code }

func (e *ExitError) Unwrap() error { return e.cause }

// New creates an ExitError with a message.
func New(code int, msg string) error {
	return &ExitError{code: normalize(code), msg: msg}
}

// Wrap creates an ExitError that wraps an underlying cause.
func Wrap(code int, msg string, cause error) error {
	if cause == nil {
		return New(code, msg)
	}
	return &ExitError{code: normalize(code), msg: msg, cause: cause}
}

// Harness marks err as a fault of the probe harness itself.
func Harness(msg string, err error) error { return Wrap(ExitHarness, msg, err) }

// Config marks err as an unusable configuration.
func Config(msg string, err error) error { return Wrap(ExitConfig, msg, err) }

// ExitCodeOf extracts an exit code from any error, defaulting to ExitGeneral.
func ExitCodeOf(err error) int {
	if err == nil {
		return ExitOK
	}
	var ec ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return ExitGeneral
}

func normalize(code int) int {
	if code <= 0 {
		return ExitGeneral
	}
	return code
}
