package isolation

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Marker is the durable, on-disk record that an arena session holds the save
// file. It survives process death; finding one at startup with no live
// session is the signal for crash recovery.
type Marker struct {
	SessionID  string    `json:"session_id"`
	BackupPath string    `json:"backup_path"`
	StartedAt  time.Time `json:"started_at"`
}

// MarkerFile manages the marker at a fixed path.
type MarkerFile struct {
	Path string
}

// NewMarkerFile creates a MarkerFile manager for the given path.
func NewMarkerFile(path string) *MarkerFile {
	return &MarkerFile{Path: path}
}

// Write persists the marker. The marker is written before the save file is
// moved so a crash between the two steps still leaves a recovery anchor.
func (m *MarkerFile) Write(marker Marker) error {
	data, err := json.Marshal(marker)
	if err != nil {
		return fmt.Errorf("marshal marker: %w", err)
	}
	return os.WriteFile(m.Path, append(data, '\n'), 0o644)
}

// Read loads the marker from disk.
func (m *MarkerFile) Read() (Marker, error) {
	data, err := os.ReadFile(m.Path)
	if err != nil {
		return Marker{}, err
	}
	var marker Marker
	if err := json.Unmarshal(data, &marker); err != nil {
		return Marker{}, fmt.Errorf("invalid marker file content: %w", err)
	}
	return marker, nil
}

// Exists reports whether the marker file is present.
func (m *MarkerFile) Exists() bool {
	_, err := os.Stat(m.Path)
	return err == nil
}

// Remove deletes the marker file.
func (m *MarkerFile) Remove() error {
	return os.Remove(m.Path)
}
