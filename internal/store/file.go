package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// File writes one JSON document per session into a directory.
type File struct {
	dir string
}

func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, errors.New("snapshot directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}
	return &File{dir: dir}, nil
}

func (f *File) path(session string) string {
	return filepath.Join(f.dir, session+".json")
}

// Save writes through a temp file so readers never see a partial snapshot.
func (f *File) Save(_ context.Context, snapshot *Snapshot) error {
	if err := checkSnapshot(snapshot); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, snapshot.Session+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshot); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), f.path(snapshot.Session))
}

func (f *File) Load(_ context.Context, session string) (*Snapshot, error) {
	if err := checkSession(session); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path(session))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", session, err)
	}
	return &snapshot, nil
}
