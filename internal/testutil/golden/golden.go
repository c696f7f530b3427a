// SPDX-License-Identifier: AGPL-3.0-or-later

// Package golden compares rendered output against files under testdata/.
// Run the tests with -update to rewrite the files.
package golden

import (
	"flag"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Update rewrites golden files instead of comparing against them.
var Update = flag.Bool("update", false, "update golden files")

// Dir returns the testdata directory next to the calling test file.
func Dir(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(1)
	if !ok {
		t.Fatalf("runtime.Caller failed")
	}
	return filepath.Join(filepath.Dir(filename), "testdata")
}

// Assert compares got with testdata/<name>.golden, or rewrites the file when
// -update is set.
func Assert(t *testing.T, dir, name, got string) {
	t.Helper()
	checkName(t, name)
	path := filepath.Join(dir, name+".golden")

	if *Update {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("mkdir testdata: %v", err)
		}
		if err := os.WriteFile(path, []byte(got), 0o600); err != nil {
			t.Fatalf("write golden %s: %v", path, err)
		}
		return
	}

	want, err := os.ReadFile(path) //nolint:gosec // testdata path controlled by test
	if err != nil {
		t.Fatalf("read golden %s: %v (run with -update to create it)", path, err)
	}
	assert.Equal(t, string(want), got, "golden %s differs", name)
}

func checkName(t *testing.T, name string) {
	t.Helper()
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		t.Fatalf("invalid golden name %q", name)
	}
}
