package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	logx "github.com/pamonha-express/server/pkg/logger"
)

type layout struct {
	dir   string
	index string
}

// FileArchive writes documents under BasePath and keeps each index as a JSON
// array of names next to them:
//
//	logs/conversations/{name}   logs/log-list.json
//	logs/questionarios/{name}   logs/questionario-list.json
type FileArchive struct {
	BasePath string

	// one writer per index; the map itself is never mutated after construction
	indexMu map[Kind]*sync.Mutex
}

var layouts = map[Kind]layout{
	Transcripts: {dir: "conversations", index: "log-list.json"},
	Assessments: {dir: "questionarios", index: "questionario-list.json"},
}

// NewFileArchive defaults basePath to "logs".
func NewFileArchive(basePath string) *FileArchive {
	if basePath == "" {
		basePath = "logs"
	}
	return &FileArchive{
		BasePath: basePath,
		indexMu: map[Kind]*sync.Mutex{
			Transcripts: {},
			Assessments: {},
		},
	}
}

func (a *FileArchive) Put(_ context.Context, kind Kind, name string, body []byte) (string, error) {
	if err := validate(kind, name); err != nil {
		return "", err
	}
	l := layouts[kind]
	dir := filepath.Join(a.BasePath, l.dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to ensure archive directory: %w", err)
	}

	mu := a.indexMu[kind]
	mu.Lock()
	defer mu.Unlock()

	names, err := a.readIndex(l)
	if err != nil {
		return "", err
	}
	name, err = freeName(dir, name)
	if err != nil {
		return "", err
	}
	if err := writeAtomic(dir, name, body); err != nil {
		return "", err
	}
	logx.Info().Str("kind", string(kind)).Str("path", filepath.Join(dir, name)).Msg("document archived")

	names = append([]string{name}, names...)
	data, err := json.MarshalIndent(names, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal index: %w", err)
	}
	if err := writeAtomic(a.BasePath, l.index, data); err != nil {
		return "", err
	}
	return name, nil
}

// freeName must be called with the kind's index lock held.
func freeName(dir, name string) (string, error) {
	for n := 1; n <= maxNameAttempts; n++ {
		c := candidate(name, n)
		_, err := os.Stat(filepath.Join(dir, c))
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to stat document: %w", err)
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNameTaken, name)
}

func (a *FileArchive) Get(_ context.Context, kind Kind, name string) ([]byte, error) {
	if err := validate(kind, name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(a.BasePath, layouts[kind].dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return data, nil
}

func (a *FileArchive) Index(_ context.Context, kind Kind) ([]string, error) {
	if err := validate(kind, "index"); err != nil {
		return nil, err
	}
	mu := a.indexMu[kind]
	mu.Lock()
	defer mu.Unlock()
	return a.readIndex(layouts[kind])
}

// readIndex must be called with the kind's index lock held.
func (a *FileArchive) readIndex(l layout) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(a.BasePath, l.index))
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("failed to decode index %s: %w", l.index, err)
	}
	return names, nil
}

// writeAtomic writes to a temp file in dir, fsyncs it and renames it over name.
func writeAtomic(dir, name string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to ensure directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

var _ Archive = (*FileArchive)(nil)
