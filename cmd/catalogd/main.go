package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/parts-catalog/constants"
	"github.com/joseph-ayodele/parts-catalog/internal/async"
	"github.com/joseph-ayodele/parts-catalog/internal/common"
	"github.com/joseph-ayodele/parts-catalog/internal/ingest"
	"github.com/joseph-ayodele/parts-catalog/internal/pdfdoc"
	"github.com/joseph-ayodele/parts-catalog/internal/pipeline"
	repo "github.com/joseph-ayodele/parts-catalog/internal/repository"
	"github.com/joseph-ayodele/parts-catalog/internal/storage"
)

func main() {
	cfg := common.LoadConfig()
	if err := cfg.ApplyFile(os.Getenv("PARTS_CONFIG")); err != nil {
		slog.Error("failed to load config file", "error", err)
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: common.ParseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	addr := cfg.Server.GRPCAddr
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repo.Open(ctx, repo.ConfigFrom(cfg.Database), logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repo.Close(db, logger)

	if err := repo.HealthCheck(ctx, db, 5*time.Second, logger); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	if err := repo.Migrate(ctx, db); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}
	store := repo.NewStore(db, logger)

	artifacts, err := storage.NewLocalStore(cfg.Storage.ImageDir)
	if err != nil {
		logger.Error("failed to open image store", "dir", cfg.Storage.ImageDir, "error", err)
		os.Exit(1)
	}
	reader := pdfdoc.NewReader(pdfdoc.Config{Pdftotext: cfg.Tools.Pdftotext}, logger)
	stages, err := pipeline.BuildStages(cfg, reader, artifacts, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	processor := pipeline.NewProcessor(logger, stages.Catalog, stages.Guide, store, store)

	queue := async.NewProcessorQueue(processor, logger,
		async.WithWorkers(cfg.Workers),
		async.WithQueueSize(cfg.Server.QueueSize),
		async.WithProcessTimeout(cfg.Server.JobTimeout),
		async.WithResultHandler(func(r *pipeline.DocumentResult) {
			logger.Info("document done",
				"path", r.Job.Path,
				"kind", r.Job.Kind,
				"status", r.Status,
				"parts", len(r.Parts),
				"images", r.ImagesAssociated(),
			)
		}),
	)

	// inbox root -> document kind
	kinds := map[string]constants.DocumentKind{}
	for dir, kind := range map[string]constants.DocumentKind{
		cfg.Server.CatalogInbox: constants.KindCatalog,
		cfg.Server.GuideInbox:   constants.KindGuide,
	} {
		if dir == "" {
			continue
		}
		abs, err := filepath.Abs(dir)
		if err == nil {
			err = os.MkdirAll(abs, 0o755)
		}
		if err != nil {
			logger.Error("inbox unavailable", "dir", dir, "error", err)
			os.Exit(1)
		}
		kinds[abs] = kind
	}
	roots := make([]string, 0, len(kinds))
	for r := range kinds {
		roots = append(roots, r)
	}

	events, watchErrs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       roots,
		InitialScan: true,
		Debounce:    cfg.Server.Debounce,
		Logger:      logger,
	})
	if err != nil {
		logger.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}

	ingestor := ingest.NewFSIngestor(logger)
	go func() {
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				res, err := ingestor.IngestPath(ctx, kinds[ev.Root], ev.Path)
				if err != nil {
					logger.Warn("ingest failed", "path", ev.Path, "error", err)
					continue
				}
				job := async.Job{Document: res.Job(), SubmittedAt: time.Now(), TraceID: uuid.NewString()}
				if err := queue.Enqueue(ctx, job); err != nil {
					logger.Warn("enqueue failed", "path", ev.Path, "error", err)
				}
			case err, ok := <-watchErrs:
				if !ok {
					watchErrs = nil
					continue
				}
				logger.Warn("watcher error", "error", err)
			}
		}
	}()

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", addr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer()

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	// Reflection for grpcurl
	reflection.Register(grpcServer)

	logger.Info("catalogd listening", "addr", addr, "inboxes", roots)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	queue.Shutdown(context.Background())
	grpcServer.GracefulStop()
}
