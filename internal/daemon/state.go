package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ryan-gang/outreach-send/internal/pacer"
	"github.com/ryan-gang/outreach-send/internal/util"
)

// StateFile keeps the send budget in a small JSON file so a restart on the
// same day does not grant a fresh quota.
type StateFile struct {
	path string
}

func NewStateFile(path string) *StateFile {
	return &StateFile{path: path}
}

// Load returns the saved state. A missing file is an empty state; a corrupt
// one is reported on the console and treated as empty.
func (s *StateFile) Load() (pacer.State, error) {
	var state pacer.State

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return state, nil
	}
	if err != nil {
		return state, fmt.Errorf("reading state file: %w", err)
	}

	if err := json.Unmarshal(data, &state); err != nil {
		util.Red.Printf("Warning: failed to load budget state: %v\n", err)
		return pacer.State{}, nil
	}
	return state, nil
}

// Save replaces the state file.
func (s *StateFile) Save(state pacer.State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
