// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/capprobe/cmd/capprobe/internal/clierr"
	"github.com/bartekus/capprobe/internal/harness"
	"github.com/bartekus/capprobe/internal/numeric"
)

// execute runs a fresh root command and returns what it wrote to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func inTempDir(t *testing.T, config string) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	if config != "" {
		require.NoError(t, os.WriteFile("capprobe.yml", []byte(config), 0o600))
	}
	return dir
}

const fastConfig = "threadDelay: 1ms\n"

func TestCLICommandRun(t *testing.T) {
	out, err := execute(t, "run", "--help")
	require.NoError(t, err)

	assert.Contains(t, out, "Usage:")
	for _, sub := range []string{"all", "list", "report", "reset", "resume"} {
		assert.Contains(t, out, sub)
	}
	assert.Contains(t, out, "--jq")
}

func TestVersion(t *testing.T) {
	inTempDir(t, "")
	t.Setenv("CAPPROBE_VERSION", "1.2.3")

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "capprobe version 1.2.3\n", out)
}

func TestRunList(t *testing.T) {
	inTempDir(t, "")

	out, err := execute(t, "run", "list")
	require.NoError(t, err)
	assert.Equal(t, "thread\npooled-task\nnumeric\nprocess-pool\n", out)
}

func TestRunList_DisabledByConfig(t *testing.T) {
	inTempDir(t, "disabledProbes: [numeric]\n")

	out, err := execute(t, "run", "list", "--json")
	require.NoError(t, err)

	var doc struct {
		Probes []ProbeListItem `json:"probes"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Probes, 3)
	for _, p := range doc.Probes {
		assert.NotEqual(t, harness.ProbeNumeric, p.Name)
	}
}

func TestRunSubset_JSON(t *testing.T) {
	inTempDir(t, fastConfig)

	out, err := execute(t, "run", "thread", "pooled-task", "--json")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, true, doc["threading_works"])
	assert.Equal(t, true, doc["concurrent_futures_works"])
	assert.NotContains(t, doc, "numpy_available")
	assert.NotContains(t, doc, "multiprocessing_fails")
	assert.Len(t, doc["results"], 2)
}

func TestRunSubset_JQ(t *testing.T) {
	inTempDir(t, fastConfig)

	out, err := execute(t, "run", "thread", "--jq", ".results[0].status")
	require.NoError(t, err)
	assert.Equal(t, "success\n", out)
}

func TestRunSubset_Text(t *testing.T) {
	inTempDir(t, fastConfig)

	out, err := execute(t, "run", "thread", "--color", "never")
	require.NoError(t, err)
	assert.Contains(t, out, "2. Threading Alternative Test:\n")
	assert.Contains(t, out, "   Worker 4: 16\n")
	assert.True(t, strings.HasSuffix(out, "=== Test Complete ===\n"))
}

func TestRunUnknownProbe(t *testing.T) {
	inTempDir(t, "")

	_, err := execute(t, "run", "gpu")
	require.ErrorIs(t, err, harness.ErrUnknownProbe)
	assert.Equal(t, clierr.ExitGeneral, clierr.ExitCodeOf(err))
}

func TestInvalidFormat(t *testing.T) {
	inTempDir(t, "")

	_, err := execute(t, "run", "thread", "--format", "yaml")
	require.Error(t, err)
}

func TestConfigErrors(t *testing.T) {
	t.Run("bad value", func(t *testing.T) {
		inTempDir(t, "color: rainbow\n")
		_, err := execute(t, "run", "list")
		require.Error(t, err)
		assert.Equal(t, clierr.ExitConfig, clierr.ExitCodeOf(err))
	})

	t.Run("missing explicit file", func(t *testing.T) {
		inTempDir(t, "")
		_, err := execute(t, "--config", "nope.yml", "run", "list")
		require.Error(t, err)
		assert.Equal(t, clierr.ExitConfig, clierr.ExitCodeOf(err))
	})

	t.Run("bad color flag", func(t *testing.T) {
		inTempDir(t, "")
		_, err := execute(t, "--color", "sometimes", "run", "list")
		assert.Equal(t, clierr.ExitConfig, clierr.ExitCodeOf(err))
	})
}

func TestSaveReportReset(t *testing.T) {
	inTempDir(t, fastConfig)

	_, err := execute(t, "run", "thread", "--save", "--json")
	require.NoError(t, err)

	out, err := execute(t, "run", "report", "--format", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "| thread | Threading Alternative Test | success |")

	out, err = execute(t, "run", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared ")

	out, err = execute(t, "run", "report")
	require.NoError(t, err)
	assert.Equal(t, "No saved run found.\n", out)
}

func TestResume(t *testing.T) {
	dir := inTempDir(t, fastConfig)

	store := harness.NewStateStore(filepath.Join(dir, ".capprobe", "run"))
	require.NoError(t, store.Save(&harness.Report{Results: []harness.ProbeResult{
		{Probe: harness.ProbeThread, Outcome: harness.Failed(harness.KindTimeout, "probe exceeded 30s")},
		{Probe: harness.ProbePooledTask, Outcome: harness.Succeeded("ok")},
	}}))

	out, err := execute(t, "run", "resume", "--jq", "[.results[].name]")
	require.NoError(t, err)
	assert.Equal(t, "[\"thread\",\"pooled-task\"]\n", out)

	// The saved run keeps the pooled-task result it had before the resume.
	out, err = execute(t, "run", "report", "--json")
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, true, doc["threading_works"])
	assert.Equal(t, true, doc["concurrent_futures_works"])
	assert.NotContains(t, doc, "numpy_available")
	assert.Len(t, doc["results"], 2)

	out, err = execute(t, "run", "resume")
	require.NoError(t, err)
	assert.Equal(t, "Nothing to resume.\n", out)
}

func TestRootRunsEveryProbe(t *testing.T) {
	if testing.Short() {
		t.Skip("spawns worker processes")
	}
	inTempDir(t, fastConfig)

	start := time.Now()
	out, err := execute(t, "--json", "--timeout", "60s")
	require.NoError(t, err)

	var doc struct {
		harness.Flags
		Results []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Results, 4)
	require.NotNil(t, doc.ThreadingWorks)
	require.NotNil(t, doc.ConcurrentFuturesWorks)
	require.NotNil(t, doc.NumpyAvailable)
	assert.True(t, *doc.ThreadingWorks)
	assert.True(t, *doc.ConcurrentFuturesWorks)
	assert.Equal(t, numeric.Compiled, *doc.NumpyAvailable)
	assert.Equal(t, harness.ProbeProcessPool, doc.Results[3].Name)
	assert.Less(t, time.Since(start), 60*time.Second)
}

func TestEnv(t *testing.T) {
	inTempDir(t, "")

	out, err := execute(t, "env", "--format", "json")
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	for _, key := range []string{"runtime_version", "platform", "executable", "search_path", "module_count"} {
		assert.Contains(t, doc, key)
	}

	out, err = execute(t, "env", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "runtime_version: go")

	out, err = execute(t, "env", "--color", "never")
	require.NoError(t, err)
	assert.Contains(t, out, "   platform: ")

	_, err = execute(t, "env", "--format", "toml")
	require.Error(t, err)
}
