package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"catalog-sync/internal/domain"
	"catalog-sync/internal/export"
	"catalog-sync/internal/timezone"
)

// FileStore keeps the snapshot as a CSV file with a JSON mirror next to it.
// The CSV is authoritative; the JSON is only read when the CSV is missing.
type FileStore struct {
	CSVPath  string
	JSONPath string // optional
	Clock    timezone.Clock
}

func NewFileStore(csvPath, jsonPath string, clock timezone.Clock) *FileStore {
	return &FileStore{CSVPath: csvPath, JSONPath: jsonPath, Clock: clock}
}

func (s *FileStore) Load(ctx context.Context) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	courses, err := s.read(s.CSVPath, export.ReadCSV)
	if errors.Is(err, fs.ErrNotExist) && s.JSONPath != "" {
		courses, err = s.read(s.JSONPath, export.ReadJSON)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}
	return domain.FromCourses(courses), nil
}

func (s *FileStore) read(path string, decode func(io.Reader, timezone.Clock) ([]domain.Course, error)) ([]domain.Course, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	courses, err := decode(f, s.Clock)
	if err != nil {
		return nil, fmt.Errorf("store: %s: %w", path, err)
	}
	return courses, nil
}

// Save stages both files as temp files and then renames the CSV into place,
// which is the commit point. The JSON mirror is renamed only after that, so a
// failed save never leaves a mirror newer than the committed CSV.
func (s *FileStore) Save(ctx context.Context, snap domain.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	courses := snap.Sorted()

	csvTmp, err := stage(s.CSVPath, func(w io.Writer) error {
		return export.WriteCSV(w, courses, s.Clock)
	})
	if err != nil {
		return fmt.Errorf("store: write %s: %w", s.CSVPath, err)
	}

	var jsonTmp string
	if s.JSONPath != "" {
		jsonTmp, err = stage(s.JSONPath, func(w io.Writer) error {
			return export.WriteJSON(w, courses, s.Clock)
		})
		if err != nil {
			_ = os.Remove(csvTmp)
			return fmt.Errorf("store: write %s: %w", s.JSONPath, err)
		}
	}

	if err := os.Rename(csvTmp, s.CSVPath); err != nil {
		_ = os.Remove(csvTmp)
		if jsonTmp != "" {
			_ = os.Remove(jsonTmp)
		}
		return fmt.Errorf("store: commit %s: %w", s.CSVPath, err)
	}
	if jsonTmp != "" {
		if err := os.Rename(jsonTmp, s.JSONPath); err != nil {
			_ = os.Remove(jsonTmp)
			return fmt.Errorf("store: %s committed but mirror %s not updated: %w", s.CSVPath, s.JSONPath, err)
		}
	}
	return nil
}

func (s *FileStore) Artifacts() []string {
	out := []string{s.CSVPath}
	if s.JSONPath != "" {
		out = append(out, s.JSONPath)
	}
	return out
}

func (s *FileStore) Close() error { return nil }

// stage writes a complete temp file next to path and returns its name.
func stage(path string, write func(io.Writer) error) (name string, err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return "", err
	}
	if err = tmp.Sync(); err != nil {
		return "", err
	}
	if err = tmp.Close(); err != nil {
		return "", err
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", err
	}
	return tmp.Name(), nil
}
