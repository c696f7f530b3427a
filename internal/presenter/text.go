// SPDX-License-Identifier: AGPL-3.0-or-later

package presenter

import (
	"fmt"
	"io"
	"strings"

	"github.com/bartekus/capprobe/internal/envinfo"
	"github.com/bartekus/capprobe/internal/harness"
)

const (
	banner  = "=== Capability Probe Report ==="
	trailer = "=== Test Complete ==="
	indent  = "   "
)

// RenderText writes the report as a transcript of numbered sections:
// environment first, then one section per result in report order.
func RenderText(w io.Writer, report *harness.Report, opts Options) error {
	s := newStyles(w, opts.Color)

	var b strings.Builder
	b.WriteString(s.paint(s.banner, banner) + "\n\n")

	b.WriteString(s.paint(s.section, "1. Environment Information:") + "\n")
	writeEnvironment(&b, s, report.Environment)
	b.WriteString("\n")

	for i, res := range report.Results {
		fmt.Fprintf(&b, "%s\n", s.paint(s.section, fmt.Sprintf("%d. %s:", i+2, res.Title)))
		for _, line := range outcomeLines(s, res) {
			b.WriteString(indent + line + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(s.paint(s.banner, trailer) + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderEnvironment writes only the environment facts.
func RenderEnvironment(w io.Writer, info envinfo.Info, opts Options) error {
	s := newStyles(w, opts.Color)
	var b strings.Builder
	writeEnvironment(&b, s, info)
	_, err := io.WriteString(w, b.String())
	return err
}

func writeEnvironment(b *strings.Builder, s *styles, info envinfo.Info) {
	for _, f := range environmentFields(info) {
		fmt.Fprintf(b, "%s%s %s\n", indent, s.paint(s.key, f[0]+":"), f[1])
	}
}

func environmentFields(info envinfo.Info) [][2]string {
	return [][2]string{
		{"runtime_version", info.RuntimeVersion},
		{"platform", info.Platform},
		{"executable", info.Executable},
		{"search_path", fmt.Sprintf("%v", info.SearchPath)},
		{"module_count", fmt.Sprintf("%d", info.ModuleCount)},
	}
}

// outcomeLines keeps the three outcome classes textually distinct. Probes that
// expect to fail read the other way round.
func outcomeLines(s *styles, res harness.ProbeResult) []string {
	o := res.Outcome
	switch o.Kind {
	case harness.OutcomeSuccess:
		if res.ExpectFailure {
			return []string{s.paint(s.warning, prefixed("unexpectedly succeeded", o.Detail))}
		}
		if len(o.Items) > 0 {
			lines := make([]string, len(o.Items))
			for i, item := range o.Items {
				lines[i] = s.paint(s.success, item)
			}
			return lines
		}
		return []string{s.paint(s.success, o.Detail)}
	case harness.OutcomeUnavailable:
		return []string{s.paint(s.warning, "UNAVAILABLE: "+o.Reason)}
	case harness.OutcomeFailure:
		if res.ExpectFailure {
			return []string{s.paint(s.muted, fmt.Sprintf("failed as expected: %s: %s", o.ErrorKind, o.Message))}
		}
		return []string{s.paint(s.failure, fmt.Sprintf("FAILED: %s: %s", o.ErrorKind, o.Message))}
	}
	return []string{s.paint(s.failure, fmt.Sprintf("FAILED: %s: unrecognized outcome %q", harness.KindInvalidOutcome, o.Kind))}
}

// prefixed adds prefix unless detail already starts with it.
func prefixed(prefix, detail string) string {
	if strings.HasPrefix(detail, prefix) {
		return detail
	}
	if detail == "" {
		return prefix
	}
	return prefix + ": " + detail
}
