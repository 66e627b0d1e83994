// ABOUTME: Persisted sync state: device id and the outcome of the last pass.
// ABOUTME: Stored as JSON beside the queue so "sync status" can report it.
package sync

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
)

// State records the device identity and the most recent sync pass.
type State struct {
	DeviceID   string    `json:"device_id"`
	LastSyncAt time.Time `json:"last_sync_at"`
	LastResult Result    `json:"last_result"`
}

// StatePath returns the sync state file under dataDir.
func StatePath(dataDir string) string {
	return filepath.Join(dataDir, "sync.json")
}

// LoadState loads sync state from disk.
// A missing file yields a fresh state with a new device id.
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{DeviceID: GenerateDeviceID()}, nil
		}
		return nil, err
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, err
	}
	if st.DeviceID == "" {
		st.DeviceID = GenerateDeviceID()
	}
	return &st, nil
}

// SaveState persists sync state to disk.
func SaveState(path string, st *State) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// RecordPass stores the outcome of a pass.
func RecordPass(path string, r Result, at time.Time) error {
	st, err := LoadState(path)
	if err != nil {
		return err
	}
	st.LastSyncAt = at.UTC()
	st.LastResult = r
	return SaveState(path, st)
}

// GenerateDeviceID creates a new unique device ID.
func GenerateDeviceID() string {
	return ulid.Make().String()
}
