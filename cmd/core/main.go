package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/vxl-labs/glasscore/internal/agent"
	glassws "github.com/vxl-labs/glasscore/internal/api/ws"
	"github.com/vxl-labs/glasscore/internal/config"
	"github.com/vxl-labs/glasscore/internal/conversation"
	"github.com/vxl-labs/glasscore/internal/fanout"
	"github.com/vxl-labs/glasscore/internal/ingest"
	"github.com/vxl-labs/glasscore/internal/observability"
	"github.com/vxl-labs/glasscore/internal/queue"
	"github.com/vxl-labs/glasscore/internal/recognition"
	"github.com/vxl-labs/glasscore/internal/storage"
	"github.com/vxl-labs/glasscore/internal/summarizer"
	"github.com/vxl-labs/glasscore/internal/switcher"
)

// core is the always-on glasses-facing process: Frame Ingest (A) ->
// Recognition Worker (B) -> Switch Detector (C) -> per-client Interaction
// Coordinators (D) -> Client Fanout (F), plus the Transcript Router (E) on
// each client's own WebSocket connection (spec §3, §9).
func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting glasscore core service", "frame_port", cfg.Server.FramePort, "ws_port", cfg.Server.WSPort)

	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.EnsureSchema(context.Background()); err != nil {
		slog.Error("ensure schema", "error", err)
		os.Exit(1)
	}

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

	if err := bus.EnsureStreams(context.Background()); err != nil {
		slog.Error("ensure nats streams", "error", err)
		os.Exit(1)
	}

	ort.SetSharedLibraryPath(getONNXLibPath())
	if err := ort.InitializeEnvironment(); err != nil {
		slog.Error("init onnx runtime", "error", err)
		os.Exit(1)
	}
	defer ort.DestroyEnvironment()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Construction order per spec §9: store -> recognition worker -> switch
	// detector -> per-client coordinators subscribing to the broadcast.
	worker, err := recognition.NewWorker(ctx, cfg.Vision, cfg.Recognition, db, minioStore, bus)
	if err != nil {
		slog.Error("init recognition worker", "error", err)
		os.Exit(1)
	}
	defer worker.Close()

	detector := switcher.NewDetector(cfg.Switching)

	summ := summarizer.New(cfg.Agent, db)
	registry := conversation.NewRegistry()
	hub := fanout.NewHub()

	newAgent := func() *agent.Agent {
		tools := []agent.Tool{
			agent.NotificationTool{},
			agent.UpdateNameTool{},
			agent.TodoTool{},
			agent.MemoryTool{},
			agent.CalendarTool{},
		}
		if cfg.Agent.TavilyAPIKey != "" {
			tools = append(tools, agent.NewWebSearchTool(cfg.Agent.TavilyAPIKey))
		}
		return agent.New(cfg.Agent, tools...)
	}

	wsServer := glassws.NewServer(db, bus, worker, summ, registry, hub, cfg.ASR, cfg.Agent, newAgent)

	// Frame Ingest (component A): bounded drop-oldest queue feeding the
	// single shared Recognition Worker (spec §4.1, §4.6).
	frameQueue := ingest.NewQueue(cfg.Recognition.QueueCapacity)

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.FramePort))
	if err != nil {
		slog.Error("listen for frame ingest", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := ingest.Serve(ctx, ln, frameQueue, cfg.Recognition.MaxReadErrors, cfg.Recognition.FrameReadTimeout); err != nil && ctx.Err() == nil {
			slog.Error("frame ingest server error", "error", err)
		}
	}()

	// Shared pipeline loop: one frame at a time through Recognition Worker
	// and Switch Detector, broadcasting confirmed transitions to every
	// connected client's Coordinator (spec §4.6 cross-cutting concern).
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case frame, ok := <-frameQueue.C():
				if !ok {
					return
				}
				obs := worker.ProcessFrame(ctx, frame)
				if ev, switched := detector.Observe(obs); switched {
					registry.Broadcast(ctx, ev)
					if err := bus.PublishEvent(ctx, "switch", ev); err != nil {
						slog.Warn("publish switch event to audit trail", "error", err)
					}
				}
			}
		}
	}()

	// Glasses-facing WebSocket + health/metrics.
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", wsServer.HandleWS)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.WSPort),
		Handler:      r,
		ReadTimeout:  0, // streaming connections must not be cut off by a fixed read deadline
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("core WebSocket server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("ws server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down core service...")
	cancel()
	_ = ln.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("core service stopped")
}

func getONNXLibPath() string {
	if p := os.Getenv("GLASSCORE_ONNX_LIB_PATH"); p != "" {
		return p
	}
	return "libonnxruntime.so"
}
