package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event is a document that appeared or changed under one of the watched roots.
type Event struct {
	Path string
	Root string
}

type WatchConfig struct {
	Roots       []string      // directories to watch (recursive)
	InitialScan bool          // if true, walk roots and emit existing files
	Debounce    time.Duration // coalesce rapid write/rename bursts
	Logger      *slog.Logger
}

// StartWatcher watches the roots until ctx is done. Both channels are closed on return.
func StartWatcher(ctx context.Context, cfg WatchConfig) (<-chan Event, <-chan error, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Roots) == 0 {
		logger.Error("watcher start failed: no roots provided")
		return nil, nil, errors.New("no roots provided")
	}
	roots := make([]string, 0, len(cfg.Roots))
	for _, r := range cfg.Roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			return nil, nil, err
		}
		roots = append(roots, abs)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("failed to create fsnotify watcher", "error", err)
		return nil, nil, err
	}

	var initial []string
	addDir := func(root string) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				if path != root && IsHidden(path) {
					return filepath.SkipDir
				}
				return w.Add(path)
			}
			if cfg.InitialScan && AllowedExt(filepath.Ext(path)) && !IsHidden(path) {
				initial = append(initial, path)
			}
			return nil
		})
	}
	for _, r := range roots {
		if err := addDir(r); err != nil {
			logger.Error("failed to add root directory", "root", r, "error", err)
			_ = w.Close()
			return nil, nil, err
		}
	}

	evCh := make(chan Event, 256)
	errCh := make(chan error, 1)
	go func() {
		defer close(evCh)
		defer close(errCh)
		defer func(w *fsnotify.Watcher) {
			if err := w.Close(); err != nil {
				logger.Warn("failed to close watcher", "error", err)
			}
		}(w)

		pending := map[string]struct{}{}
		for _, p := range initial {
			pending[p] = struct{}{}
		}
		send := func() bool {
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			for _, p := range paths {
				select {
				case evCh <- Event{Path: p, Root: rootOf(roots, p)}:
					delete(pending, p)
				case <-ctx.Done():
					return false
				}
			}
			return true
		}
		if !send() {
			return
		}

		var timer *time.Timer
		var flush <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case <-flush:
				flush = nil
				if !send() {
					return
				}
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				// Track new dirs
				if e.Op&fsnotify.Create == fsnotify.Create {
					if err := tryAddDir(w, e.Name); err != nil {
						logger.Warn("failed to add new directory to watcher", "path", e.Name, "error", err)
					}
				}
				if !AllowedExt(filepath.Ext(e.Name)) || IsHidden(e.Name) || e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				pending[e.Name] = struct{}{}
				if cfg.Debounce <= 0 {
					if !send() {
						return
					}
					continue
				}
				if timer == nil {
					timer = time.NewTimer(cfg.Debounce)
				} else {
					timer.Reset(cfg.Debounce)
				}
				flush = timer.C
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watcher error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

// rootOf returns the watched root that contains path, longest match first.
func rootOf(roots []string, path string) string {
	best := ""
	for _, r := range roots {
		if (path == r || strings.HasPrefix(path, r+string(filepath.Separator))) && len(r) > len(best) {
			best = r
		}
	}
	return best
}

// tryAddDir watches path if it is a directory; files are ignored.
func tryAddDir(w *fsnotify.Watcher, path string) error {
	st, err := os.Stat(path)
	if err != nil || !st.IsDir() {
		return nil
	}
	return w.Add(path)
}
