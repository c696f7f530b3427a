// SPDX-License-Identifier: AGPL-3.0-or-later
package projection

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAtomicWrite(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "out", "last-run.json")
	content := []byte(`{"results":[]}`)

	if err := AtomicWrite(target, content); err != nil {
		t.Fatalf("AtomicWrite failed: %v", err)
	}

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("got %q, want %q", got, content)
	}

	entries, err := os.ReadDir(filepath.Dir(target))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}
}

func TestRenderTable_EscapesPipes(t *testing.T) {
	got := RenderTable([]string{"Probe", "Detail"}, [][]string{{"thread", "a|b\nc"}})
	want := "| Probe | Detail |\n| --- | --- |\n| thread | a\\|b c |\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderHeaderAndList(t *testing.T) {
	if got := RenderHeader(2, "Results"); got != "## Results\n\n" {
		t.Errorf("RenderHeader = %q", got)
	}
	if got := RenderList([]string{"a", "b"}); got != "- a\n- b\n" {
		t.Errorf("RenderList = %q", got)
	}
}
