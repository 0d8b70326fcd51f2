// Package storage keeps image artifacts on the local filesystem.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/parts-catalog/internal/common"
)

// ArtifactStore persists binary artifacts under relative keys ("<document>/<file>").
type ArtifactStore interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
	Remove(ctx context.Context, key string) error
	Path(key string) string
}

type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, common.NewAppError("INVALID_INPUT", "artifact root is required", common.ErrInvalidInput)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("artifact root: %w", err)
	}
	return &LocalStore{root: abs}, nil
}

func (s *LocalStore) Root() string { return s.root }

// Path resolves key inside the root; ".." segments are dropped.
func (s *LocalStore) Path(key string) string {
	clean := filepath.Clean("/" + filepath.ToSlash(key))
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
}

// Put writes data through a temp file in the target directory, so readers never see a partial artifact.
func (s *LocalStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := s.Path(key)
	if path == s.root {
		return "", common.NewAppError("INVALID_INPUT", "empty artifact key", common.ErrInvalidInput)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".artifact-*")
	if err != nil {
		return "", fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write artifact %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close artifact %q: %w", key, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("rename artifact %q: %w", key, err)
	}
	return path, nil
}

func (s *LocalStore) Remove(_ context.Context, key string) error {
	err := os.Remove(s.Path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove artifact %q: %w", key, err)
	}
	return nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SafeName turns a document stem into a filename component.
func SafeName(name string) string {
	name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "document"
	}
	return name
}
