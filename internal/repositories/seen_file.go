package repositories

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"

	"github.com/pkg/errors"
)

var ErrCorruptState = errors.New("seen state is corrupt")

// SeenFile keeps the seen set as a JSON array of ids.
type SeenFile struct {
	path string
}

func NewSeenFile(path string) *SeenFile {
	return &SeenFile{path: path}
}

func (s *SeenFile) Load(_ context.Context) ([]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "read %s", s.path)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, errors.Wrapf(ErrCorruptState, "%s: %v", s.path, err)
	}
	return ids, nil
}

// Save replaces the file atomically: readers see either the old or the new set.
func (s *SeenFile) Save(_ context.Context, ids []string) error {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	if sorted == nil {
		sorted = []string{}
	}

	data, err := json.MarshalIndent(sorted, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode seen ids")
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}

	return errors.Wrapf(os.Rename(tmpName, s.path), "replace %s", s.path)
}

func (s *SeenFile) Close() error {
	return nil
}
