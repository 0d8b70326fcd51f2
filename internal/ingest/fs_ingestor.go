package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/parts-catalog/constants"
	"github.com/joseph-ayodele/parts-catalog/internal/common"
)

// FSIngestor reads from the local filesystem.
type FSIngestor struct {
	logger *slog.Logger
}

func NewFSIngestor(logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{logger: logger}
}

var _ Ingestor = (*FSIngestor)(nil)

func (i *FSIngestor) IngestPath(ctx context.Context, kind constants.DocumentKind, path string) (IngestionResult, error) {
	out := IngestionResult{SourcePath: path, Kind: kind}
	if err := ctx.Err(); err != nil {
		return out, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, fmt.Errorf("abs path: %w", err)
	}
	out.SourcePath = abs

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext) {
		return out, common.NewAppError("UNSUPPORTED_FORMAT", fmt.Sprintf("extension %q", ext), common.ErrUnsupportedFormat)
	}

	f, err := os.Open(abs)
	if err != nil {
		return out, fmt.Errorf("open: %w", err)
	}
	defer func(f *os.File) {
		if err := f.Close(); err != nil {
			i.logger.Warn("close file error", "path", abs, "error", err)
		}
	}(f)

	st, err := f.Stat()
	if err != nil {
		return out, fmt.Errorf("stat: %w", err)
	}
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return out, fmt.Errorf("hash: %w", err)
	}
	out.HashHex = hex.EncodeToString(h.Sum(nil))
	out.Size = st.Size()
	out.ModTime = st.ModTime().UTC()
	return out, nil
}

// IngestDirectory walks root, skips hidden entries if requested and hashes every PDF.
// Results are sorted by path so batches are reproducible.
func (i *FSIngestor) IngestDirectory(
	ctx context.Context,
	kind constants.DocumentKind,
	root string,
	skipHidden bool,
) ([]IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, common.NewAppError("INVALID_INPUT", "root_path is required", common.ErrInvalidInput)
	}

	var results []IngestionResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			results = append(results, IngestionResult{SourcePath: path, Kind: kind, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		r, err := i.IngestPath(ctx, kind, path)
		if err != nil {
			i.logger.Warn("ingest failed", "path", path, "error", err)
			results = append(results, IngestionResult{SourcePath: path, Kind: kind, Err: err.Error()})
			stats.Failed++
			return nil
		}

		results = append(results, r)
		stats.Succeeded++
		return nil
	})

	sort.SliceStable(results, func(a, b int) bool { return results[a].SourcePath < results[b].SourcePath })
	i.logger.Info("directory scanned",
		"root", root,
		"kind", kind,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
	)
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}
