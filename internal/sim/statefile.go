package sim

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/stratolink/flightcore/internal/flight"
)

// FileStore persists flight state to a JSON file, standing in for the
// RTC backup RAM that survives deep sleep on the real board.
type FileStore struct {
	path string
}

// NewFileStore creates a store at the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load implements flight.StateStore.
func (s *FileStore) Load() (flight.State, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return flight.State{}, false, nil
		}
		return flight.State{}, false, fmt.Errorf("reading state file: %w", err)
	}

	var state flight.State
	if err := json.Unmarshal(data, &state); err != nil {
		// Corrupt backup memory is treated as absent, not fatal.
		return flight.State{}, false, nil
	}
	return state, true, nil
}

// Save implements flight.StateStore.
func (s *FileStore) Save(state flight.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}
