// SPDX-License-Identifier: AGPL-3.0-or-later

// Package projection writes report artifacts to disk and renders Markdown
// fragments.
package projection

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AtomicWrite writes content to path atomically by writing to a temp file in
// the same directory and renaming it into place.
func AtomicWrite(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".capprobe-tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(content); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing content: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpFile.Name(), path); err != nil {
		return fmt.Errorf("moving temp file to %s: %w", path, err)
	}
	return nil
}

// RenderTable renders a Markdown table. Rows are emitted in the order given.
func RenderTable(headers []string, rows [][]string) string {
	var b strings.Builder

	b.WriteString("| " + strings.Join(escapeCells(headers), " | ") + " |\n")

	b.WriteString("|")
	for range headers {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")

	for _, row := range rows {
		b.WriteString("| " + strings.Join(escapeCells(row), " | ") + " |\n")
	}

	return b.String()
}

// RenderList renders a simple unordered Markdown list.
func RenderList(items []string) string {
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "- %s\n", item)
	}
	return b.String()
}

// RenderHeader renders a Markdown header.
func RenderHeader(level int, text string) string {
	return fmt.Sprintf("%s %s\n\n", strings.Repeat("#", level), text)
}

func escapeCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		c = strings.ReplaceAll(c, "|", `\|`)
		out[i] = strings.ReplaceAll(c, "\n", " ")
	}
	return out
}
