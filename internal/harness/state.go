// SPDX-License-Identifier: AGPL-3.0-or-later

package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/bartekus/capprobe/internal/projection"
)

// LockTimeout bounds how long Save and Reset wait for the state lock before
// proceeding without it.
const LockTimeout = 100 * time.Millisecond

// StateStore handles reading and writing saved runs.
type StateStore struct {
	baseDir string
}

// NewStateStore creates a store at the given base directory (e.g. .capprobe/run).
func NewStateStore(baseDir string) *StateStore {
	return &StateStore{baseDir: baseDir}
}

// Dir returns the base directory.
func (s *StateStore) Dir() string { return s.baseDir }

func (s *StateStore) lastRunPath() string {
	return filepath.Join(s.baseDir, "last-run.json")
}

func (s *StateStore) probePath(name string) string {
	return filepath.Join(s.baseDir, "probes", name+".json")
}

// lock takes the directory lock. A nil flock with a nil error means the lock
// was busy past LockTimeout and the caller proceeds unlocked.
func (s *StateStore) lock() (*flock.Flock, error) {
	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return nil, err
	}
	fl := flock.New(filepath.Join(s.baseDir, ".lock"))

	ctx, cancel := context.WithTimeout(context.Background(), LockTimeout)
	defer cancel()

	locked, err := fl.TryLockContext(ctx, 10*time.Millisecond)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, nil
		}
		return nil, fmt.Errorf("locking state dir: %w", err)
	}
	if !locked {
		return nil, nil
	}
	return fl, nil
}

// ReadLastRun loads the last saved report. A missing file yields (nil, nil).
func (s *StateStore) ReadLastRun() (*Report, error) {
	data, err := os.ReadFile(s.lastRunPath())
	if os.IsNotExist(err) {
		return nil, nil // Not found is clean state
	}
	if err != nil {
		return nil, fmt.Errorf("opening last run file: %w", err)
	}

	var last Report
	if err := json.Unmarshal(data, &last); err != nil {
		return nil, fmt.Errorf("decoding last run: %w", err)
	}
	return &last, nil
}

// ReadProbe loads the saved result of one probe. A missing file yields (nil, nil).
func (s *StateStore) ReadProbe(name string) (*ProbeResult, error) {
	data, err := os.ReadFile(s.probePath(name))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var res ProbeResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decoding probe %s: %w", name, err)
	}
	return &res, nil
}

// Save writes the report and one file per probe result.
func (s *StateStore) Save(report *Report) error {
	fl, err := s.lock()
	if err != nil {
		return err
	}
	if fl != nil {
		defer func() { _ = fl.Unlock() }()
	}

	for _, res := range report.Results {
		if err := writeJSON(s.probePath(res.Probe), res); err != nil {
			return fmt.Errorf("writing result for %s: %w", res.Probe, err)
		}
	}
	if err := writeJSON(s.lastRunPath(), report); err != nil {
		return fmt.Errorf("writing last run: %w", err)
	}
	return nil
}

// Reset clears the state directory. It waits for the state lock like Save,
// so a concurrent Save is never cut in half.
func (s *StateStore) Reset() error {
	if _, err := os.Stat(s.baseDir); os.IsNotExist(err) {
		return nil
	}
	fl, err := s.lock()
	if err != nil {
		return err
	}
	if fl != nil {
		defer func() { _ = fl.Unlock() }()
	}
	return os.RemoveAll(s.baseDir)
}

// LoadFailedProbes returns the probes that failed in the last saved run.
func (s *StateStore) LoadFailedProbes() ([]string, error) {
	last, err := s.ReadLastRun()
	if err != nil {
		return nil, err
	}
	if last == nil {
		return nil, nil
	}
	return last.Failed(), nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return projection.AtomicWrite(path, append(data, '\n'))
}
