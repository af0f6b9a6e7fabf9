package announces

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadState_Missing(t *testing.T) {
	state, err := LoadState(filepath.Join(t.TempDir(), StateFilename))
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if !state.LastRun.IsZero() {
		t.Errorf("Expected zero LastRun, got %v", state.LastRun)
	}
	if state.Version != StateVersion {
		t.Errorf("Version = %d, want %d", state.Version, StateVersion)
	}
}

func TestRunState_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", StateFilename)
	state := &RunState{
		Version:   StateVersion,
		LastRun:   time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Duration:  "1.5s",
		Documents: 12,
		Removed:   3,
		Errors:    []string{"announce 4 failed"},
	}

	if err := state.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("Temp file should be renamed away")
	}

	loaded, err := LoadState(path)
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if !loaded.LastRun.Equal(state.LastRun) || loaded.Documents != 12 || loaded.Removed != 3 {
		t.Errorf("Loaded state mismatch: %+v", loaded)
	}
	if len(loaded.Errors) != 1 || loaded.Succeeded() {
		t.Errorf("Expected one error, got %v", loaded.Errors)
	}
}

func TestLoadState_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), StateFilename)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadState(path); err == nil {
		t.Error("Expected error for corrupt state")
	}
}

func TestRunState_Succeeded(t *testing.T) {
	if !(&RunState{}).Succeeded() {
		t.Error("Expected empty error list to succeed")
	}
}
