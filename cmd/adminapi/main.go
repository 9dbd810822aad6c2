package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/vxl-labs/glasscore/internal/api"
	"github.com/vxl-labs/glasscore/internal/config"
	"github.com/vxl-labs/glasscore/internal/observability"
	"github.com/vxl-labs/glasscore/internal/queue"
	"github.com/vxl-labs/glasscore/internal/storage"
	"github.com/vxl-labs/glasscore/internal/vision"
)

// adminapi is the operator-facing REST surface (gallery browsing, person
// rename/search, todos, summaries) — deliberately excludes the glasses
// WebSocket, which lives in cmd/core (spec §9's process split).
func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting glasscore admin API", "port", cfg.Server.AdminPort)

	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	minioStore, err := storage.NewMinIOStore(cfg.MinIO)
	if err != nil {
		slog.Error("connect to minio", "error", err)
		os.Exit(1)
	}
	if err := minioStore.EnsureBucket(context.Background()); err != nil {
		slog.Warn("ensure minio bucket", "error", err)
	}

	bus, err := queue.NewBus(cfg.NATS.URL, cfg.NATS.InvalidateSubject)
	if err != nil {
		slog.Error("connect to nats", "error", err)
		os.Exit(1)
	}
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := bus.ConsumeEvents(ctx, "admin-audit-log", auditLogHandler); err != nil {
		slog.Warn("start audit event consumer", "error", err)
	}

	var embedFn func([]byte) ([]float32, error)
	if fn, closeVision, err := newStandaloneEmbedder(cfg.Vision); err != nil {
		slog.Warn("standalone embedder init failed — person search unavailable", "error", err)
	} else {
		embedFn = fn
		defer closeVision()
	}

	router := api.NewRouter(api.RouterConfig{
		APIKey:  cfg.Server.APIKey,
		DB:      db,
		MinIO:   minioStore,
		Bus:     bus,
		EmbedFn: embedFn,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.AdminPort),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("admin API listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down admin API...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("admin API stopped")
}

// newStandaloneEmbedder loads the detection and embedding models for the
// person search endpoint, independent of cmd/core's live recognition
// pipeline. On failure the returned close func is nil, so callers defer it
// only when err is nil.
func newStandaloneEmbedder(cfg config.VisionConfig) (func([]byte) ([]float32, error), func(), error) {
	ort.SetSharedLibraryPath(getONNXLibPath())
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, nil, fmt.Errorf("init onnx runtime: %w", err)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		ort.DestroyEnvironment()
		return nil, nil, fmt.Errorf("create session options: %w", err)
	}
	defer opts.Destroy()

	det, err := vision.NewDetector(filepath.Join(cfg.ModelsDir, "det_10g.onnx"), float32(cfg.DetectionThreshold), opts)
	if err != nil {
		ort.DestroyEnvironment()
		return nil, nil, fmt.Errorf("load detector: %w", err)
	}

	emb, err := vision.NewEmbedder(filepath.Join(cfg.ModelsDir, "w600k_r50.onnx"))
	if err != nil {
		det.Close()
		ort.DestroyEnvironment()
		return nil, nil, fmt.Errorf("load embedder: %w", err)
	}

	embedFn := func(imageData []byte) ([]float32, error) {
		return vision.EmbedStandaloneImage(det, emb, imageData)
	}
	closeFn := func() {
		det.Close()
		emb.Close()
		ort.DestroyEnvironment()
	}
	return embedFn, closeFn, nil
}

// auditLogHandler surfaces the switch-event audit trail (published by
// cmd/core onto the EVENTS stream) in the admin API's own log output, so an
// operator tailing this process's logs sees presence transitions without
// needing direct NATS access.
func auditLogHandler(ctx context.Context, subject string, data []byte) error {
	slog.Info("audit event", "subject", subject, "data", string(data))
	return nil
}

func getONNXLibPath() string {
	if p := os.Getenv("GLASSCORE_ONNX_LIB_PATH"); p != "" {
		return p
	}
	return "libonnxruntime.so"
}
