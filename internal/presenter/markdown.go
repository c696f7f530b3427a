// SPDX-License-Identifier: AGPL-3.0-or-later

package presenter

import (
	"fmt"
	"io"
	"strings"

	"github.com/bartekus/capprobe/internal/harness"
	"github.com/bartekus/capprobe/internal/projection"
)

// RenderMarkdown writes the report as a Markdown document with an environment
// list, a results table and the derived flags.
func RenderMarkdown(w io.Writer, report *harness.Report) error {
	sum := Summarize(report)

	var b strings.Builder
	b.WriteString(projection.RenderHeader(1, "Capability Probe Report"))

	b.WriteString(projection.RenderHeader(2, "Environment"))
	var env []string
	for _, f := range environmentFields(report.Environment) {
		env = append(env, fmt.Sprintf("**%s**: %s", f[0], f[1]))
	}
	b.WriteString(projection.RenderList(env))
	b.WriteString("\n")

	b.WriteString(projection.RenderHeader(2, "Results"))
	rows := make([][]string, 0, len(sum.Results))
	for _, r := range sum.Results {
		status := r.Status
		if r.ExpectedFailed {
			status += " (expected failure)"
		}
		rows = append(rows, []string{r.Name, r.Title, status, r.Detail, fmt.Sprintf("%dms", r.DurationMS)})
	}
	b.WriteString(projection.RenderTable([]string{"Probe", "Title", "Status", "Detail", "Duration"}, rows))
	b.WriteString("\n")

	b.WriteString(projection.RenderHeader(2, "Flags"))
	b.WriteString(projection.RenderList([]string{
		flagLine("threading_works", sum.ThreadingWorks),
		flagLine("concurrent_futures_works", sum.ConcurrentFuturesWorks),
		flagLine("numpy_available", sum.NumpyAvailable),
		flagLine("multiprocessing_fails", sum.MultiprocessingFails),
	}))

	_, err := io.WriteString(w, b.String())
	return err
}

// flagLine renders a nil flag as "not run".
func flagLine(name string, v *bool) string {
	if v == nil {
		return name + ": not run"
	}
	return fmt.Sprintf("%s: %t", name, *v)
}

// Format names an output format accepted by Render.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat validates a --format value. The empty string means text.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatMarkdown, FormatJSON:
		return Format(s), nil
	}
	return "", fmt.Errorf("invalid format %q (want text, markdown or json)", s)
}

// Render dispatches on format. A non-empty jq expression implies JSON.
func Render(w io.Writer, report *harness.Report, format Format, jq string, opts Options) error {
	if jq != "" {
		return FilterJSON(w, Summarize(report), jq)
	}
	switch format {
	case FormatJSON:
		return RenderJSON(w, Summarize(report))
	case FormatMarkdown:
		return RenderMarkdown(w, report)
	default:
		return RenderText(w, report, opts)
	}
}
