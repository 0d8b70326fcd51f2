package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/parts-catalog/constants"
	"github.com/joseph-ayodele/parts-catalog/internal/common"
	"github.com/joseph-ayodele/parts-catalog/internal/ingest"
	"github.com/joseph-ayodele/parts-catalog/internal/pdfdoc"
	"github.com/joseph-ayodele/parts-catalog/internal/pipeline"
	"github.com/joseph-ayodele/parts-catalog/internal/storage"
)

type processOptions struct {
	force         bool
	workers       int
	includeHidden bool
	maxPages      int
	skipImages    bool
}

type source struct {
	kind constants.DocumentKind
	dir  string
}

func newProcessCmd(a *app) *cobra.Command {
	opts := &processOptions{}
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Extract parts and guides from directories of PDFs",
		Example: `  # Catalogs only
  partsctl process catalogs ./catalogs

  # Catalogs first, then guides, under one run ID
  partsctl process all --catalogs ./catalogs --guides ./guides`,
	}
	cmd.PersistentFlags().BoolVar(&opts.force, "force", false, "reprocess documents whose content hash is unchanged")
	cmd.PersistentFlags().IntVar(&opts.workers, "workers", 0, "documents processed in parallel (overrides WORKERS)")
	cmd.PersistentFlags().BoolVar(&opts.includeHidden, "include-hidden", false, "descend into hidden files and directories")
	cmd.PersistentFlags().IntVar(&opts.maxPages, "max-pages", 0, "stop after this many pages per document (0 = all)")
	cmd.PersistentFlags().BoolVar(&opts.skipImages, "skip-images", false, "do not extract or associate images")

	cmd.AddCommand(&cobra.Command{
		Use:   "catalogs <dir>",
		Short: "Process a directory of parts catalogs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, a, opts, source{constants.KindCatalog, args[0]})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "guides <dir>",
		Short: "Process a directory of technical guides",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, a, opts, source{constants.KindGuide, args[0]})
		},
	})

	var catalogs, guides string
	all := &cobra.Command{
		Use:   "all",
		Short: "Process catalogs, then guides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var sources []source
			if catalogs != "" {
				sources = append(sources, source{constants.KindCatalog, catalogs})
			}
			if guides != "" {
				sources = append(sources, source{constants.KindGuide, guides})
			}
			if len(sources) == 0 {
				return common.NewAppError("INVALID_INPUT", "--catalogs or --guides is required", common.ErrInvalidInput)
			}
			return runProcess(cmd, a, opts, sources...)
		},
	}
	all.Flags().StringVar(&catalogs, "catalogs", "", "directory of parts catalogs")
	all.Flags().StringVar(&guides, "guides", "", "directory of technical guides")
	cmd.AddCommand(all)

	return cmd
}

func runProcess(cmd *cobra.Command, a *app, opts *processOptions, sources ...source) error {
	for _, s := range sources {
		if err := isDir(s.dir); err != nil {
			return err
		}
	}
	if opts.maxPages > 0 {
		a.cfg.Extraction.MaxPages = opts.maxPages
	}
	if opts.skipImages {
		a.cfg.Extraction.SkipImages = true
	}
	workers := a.cfg.Workers
	if opts.workers > 0 {
		workers = opts.workers
	}

	runID := uuid.NewString()
	ctx := common.WithRunID(cmd.Context(), runID)
	logger := common.LoggerFrom(ctx, a.logger)

	db, store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer a.closeDB(db)

	artifacts, err := storage.NewLocalStore(a.cfg.Storage.ImageDir)
	if err != nil {
		return err
	}
	reader := pdfdoc.NewReader(pdfdoc.Config{Pdftotext: a.cfg.Tools.Pdftotext}, a.logger)
	stages, err := pipeline.BuildStages(a.cfg, reader, artifacts, a.logger)
	if err != nil {
		return err
	}
	proc := pipeline.NewProcessor(a.logger, stages.Catalog, stages.Guide, store, store).Force(opts.force)
	batch := pipeline.NewBatch(proc, workers, a.logger)
	ingestor := ingest.NewFSIngestor(a.logger)

	out := cmd.OutOrStdout()
	for _, s := range sources {
		results, stats, err := ingestor.IngestDirectory(ctx, s.kind, s.dir, !opts.includeHidden)
		if err != nil {
			return common.WrapError(err, "scan "+s.dir)
		}
		for _, r := range results {
			if r.Err != "" {
				logger.Warn("ingest failed", "path", r.SourcePath, "error", r.Err)
			}
		}
		logger.Info("processing directory", "kind", s.kind, "dir", s.dir, "documents", stats.Succeeded)

		sum, runErr := batch.Run(ctx, ingest.Jobs(results))
		printSummary(out, s, sum)
		if runErr != nil {
			return runErr
		}
	}
	return printRunStatus(ctx, out, store, runID)
}

func printSummary(w io.Writer, s source, sum *pipeline.Summary) {
	fmt.Fprintf(w, "%s (%s)\n", s.kind, s.dir)
	fmt.Fprintf(w, "  documents processed: %d\n", sum.DocumentsProcessed)
	if s.kind == constants.KindGuide {
		fmt.Fprintf(w, "  guides processed:    %d\n", sum.GuidesProcessed)
	} else {
		fmt.Fprintf(w, "  parts extracted:     %d\n", sum.PartsExtracted)
		fmt.Fprintf(w, "  images associated:   %d\n", sum.ImagesAssociated)
	}
	if sum.Unchanged > 0 {
		fmt.Fprintf(w, "  unchanged:           %d\n", sum.Unchanged)
	}
	if sum.Canceled > 0 {
		fmt.Fprintf(w, "  canceled:            %d\n", sum.Canceled)
	}
	printPaths(w, "failed to open", sum.OpenFailures)
	printPaths(w, "failed to store", sum.StoreFailures)
}

func printPaths(w io.Writer, label string, paths []string) {
	if len(paths) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s (%d):\n", label, len(paths))
	for _, p := range paths {
		fmt.Fprintf(w, "    %s\n", p)
	}
}

type runSummarizer interface {
	RunSummary(ctx context.Context, runID string) (map[constants.DocumentStatus]int, error)
}

func printRunStatus(ctx context.Context, w io.Writer, store runSummarizer, runID string) error {
	counts, err := store.RunSummary(ctx, runID)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "run %s:", runID)
	for _, st := range []constants.DocumentStatus{
		constants.DocumentOK,
		constants.DocumentUnchanged,
		constants.DocumentOpenFailed,
		constants.DocumentStoreFailed,
		constants.DocumentCanceled,
	} {
		if n := counts[st]; n > 0 {
			fmt.Fprintf(w, " %s=%d", st, n)
		}
	}
	fmt.Fprintln(w)
	return nil
}
