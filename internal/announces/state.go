package announces

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// StateVersion is the current schema version of the run state file
	StateVersion = 1

	// StateFilename is the run state file name inside the index directory
	StateFilename = "state.json"
)

// RunState records the outcome of the last indexation run.
type RunState struct {
	Version   int       `json:"version"`
	LastRun   time.Time `json:"last_run"`
	Duration  string    `json:"duration"`
	Documents int       `json:"documents"`
	Removed   int       `json:"removed"`
	Errors    []string  `json:"errors,omitempty"`
}

// Succeeded reports whether the run indexed every eligible announce.
func (s *RunState) Succeeded() bool {
	return len(s.Errors) == 0
}

// LoadState reads the run state from path. A missing file yields a zero state
// with a zero LastRun.
func LoadState(path string) (*RunState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &RunState{Version: StateVersion}, nil
		}
		return nil, fmt.Errorf("failed to read state: %w", err)
	}

	var state RunState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state: %w", err)
	}
	return &state, nil
}

// Save writes the state atomically (temp file + rename).
func (s *RunState) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write state temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename state file: %w", err)
	}
	return nil
}
