package wizard

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Draft is what survives a restart: the merged step data, which steps are
// saved and the server-side application id.
type Draft struct {
	Data          Steps           `json:"data"`
	Saved         [StepCount]bool `json:"saved"`
	ApplicationID uint64          `json:"applicationId,omitempty"`
}

// DraftStore loads and persists the draft. Load returns a zero Draft when
// nothing was stored yet.
type DraftStore interface {
	Load() (Draft, error)
	Save(Draft) error
}

// FileDraftStore keeps the draft as JSON in a single file.
type FileDraftStore struct {
	Path string
}

func (s FileDraftStore) Load() (Draft, error) {
	var d Draft
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return d, nil
	}
	if err != nil {
		return d, err
	}
	if err := json.Unmarshal(b, &d); err != nil {
		return Draft{}, fmt.Errorf("decode draft %s: %w", s.Path, err)
	}
	return d, nil
}

// Save replaces the file atomically: a crash leaves either the old or the
// new draft, never a torn one.
func (s FileDraftStore) Save(d Draft) error {
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.Path)
}
