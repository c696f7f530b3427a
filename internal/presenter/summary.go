// SPDX-License-Identifier: AGPL-3.0-or-later

package presenter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/itchyny/gojq"

	"github.com/bartekus/capprobe/internal/envinfo"
	"github.com/bartekus/capprobe/internal/harness"
)

// Summary is the machine-readable form of a report. The flag keys are
// promoted from harness.Flags.
type Summary struct {
	Environment envinfo.Info `json:"environment"`
	harness.Flags
	Results []ResultSummary `json:"results"`
}

// ResultSummary is one probe line of a Summary.
type ResultSummary struct {
	Name           string `json:"name"`
	Title          string `json:"title"`
	Status         string `json:"status"`
	Detail         string `json:"detail"`
	ExpectedFailed bool   `json:"expected_failure,omitempty"`
	DurationMS     int64  `json:"duration_ms"`
}

// Summarize flattens a report into a Summary.
func Summarize(report *harness.Report) Summary {
	sum := Summary{
		Environment: report.Environment,
		Flags:       report.Flags(),
		Results:     make([]ResultSummary, 0, len(report.Results)),
	}
	for _, res := range report.Results {
		sum.Results = append(sum.Results, ResultSummary{
			Name:           res.Probe,
			Title:          res.Title,
			Status:         string(res.Outcome.Kind),
			Detail:         detail(res.Outcome),
			ExpectedFailed: res.ExpectFailure,
			DurationMS:     res.Duration.Milliseconds(),
		})
	}
	return sum
}

func detail(o harness.Outcome) string {
	switch o.Kind {
	case harness.OutcomeSuccess:
		return o.Detail
	case harness.OutcomeUnavailable:
		return o.Reason
	default:
		return o.ErrorKind + ": " + o.Message
	}
}

// RenderJSON writes the summary as indented JSON.
func RenderJSON(w io.Writer, sum Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sum)
}

// FilterJSON applies a jq expression to the summary and writes each result,
// one JSON document per line. String results are written raw.
func FilterJSON(w io.Writer, sum Summary, expr string) error {
	query, err := gojq.Parse(expr)
	if err != nil {
		return fmt.Errorf("parsing jq expression: %w", err)
	}

	// gojq only walks plain maps and slices.
	raw, err := json.Marshal(sum)
	if err != nil {
		return err
	}
	var input any
	if err := json.Unmarshal(raw, &input); err != nil {
		return err
	}

	iter := query.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, ok := v.(error); ok {
			var halt *gojq.HaltError
			if errors.As(err, &halt) && halt.Value() == nil {
				return nil
			}
			return fmt.Errorf("evaluating jq expression: %w", err)
		}
		if s, ok := v.(string); ok {
			if _, err := fmt.Fprintln(w, s); err != nil {
				return err
			}
			continue
		}
		out, err := gojq.Marshal(v)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\n", out); err != nil {
			return err
		}
	}
}
