package application

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/tonote/notary-stream-service/internal/capture"
	"github.com/tonote/notary-stream-service/internal/config"
	"github.com/tonote/notary-stream-service/internal/database"
	"github.com/tonote/notary-stream-service/internal/handler"
	"github.com/tonote/notary-stream-service/internal/media"
	"github.com/tonote/notary-stream-service/internal/router"
	"github.com/tonote/notary-stream-service/internal/service"
	"github.com/tonote/notary-stream-service/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// API is the HTTP + WebSocket API application.
type API struct {
	cfg      *config.Config
	srv      *http.Server
	db       *gorm.DB
	hub      *service.Hub
	pipeline *capture.Pipeline
}

// NewAPI creates the API application: validates config, runs migrations,
// opens the DB, and wires the hub and capture pipeline.
func NewAPI(cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	logger, _ := zap.NewProduction()
	if cfg.AppEnv == "development" {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	rooms := service.NewRoomRegistry()
	hub := service.NewHub(rooms, cfg.WSMaxMessageSize, logger)
	hub.Upgrader().ReadBufferSize = cfg.WSReadBufferSize
	hub.Upgrader().WriteBufferSize = cfg.WSWriteBufferSize

	transcoder := media.NewFFmpeg(cfg.FFmpegBin, logger)
	pipeline := capture.NewPipeline(capture.NewBuffer(), cfg.CaptureDir, transcoder, logger)
	recordingSvc := service.NewRecordingService(db)
	pipeline.SetArtifactRecorder(recordingSvc)
	if cfg.AWSBucket != "" {
		store, err := storage.NewS3Store(context.Background(), cfg.AWSRegion, cfg.AWSBucket, logger)
		if err != nil {
			log.Printf("warning: object store init failed (upload disabled): %v", err)
		} else {
			pipeline.SetObjectStore(store)
		}
	}
	hub.SetRecorder(pipeline)

	roomHandler := handler.NewRoomHandler(rooms)
	recordingHandler := handler.NewRecordingHandler(recordingSvc)
	sessionWS := handler.NewSessionWSHandler(hub, logger)
	health := handler.NewHealthHandler()

	r := router.New(roomHandler, recordingHandler, sessionWS, health)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{cfg: cfg, srv: srv, db: db, hub: hub, pipeline: pipeline}, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled; then shuts
// down gracefully and waits for in-flight finalize jobs.
func (a *API) Run(ctx context.Context) error {
	addr := a.srv.Addr
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	log.Printf("HTTP server listening on %s", addr)
	log.Printf("  Health:        %s/health", base)
	log.Printf("  Ready:         %s/ready", base)
	log.Printf("  Recordings:    %s/recordings", base)
	log.Printf("  WebSocket:     ws://%s:%s/ws/session?username=...", host, a.cfg.HTTPPort)

	a.hub.SetContext(ctx)

	go func() {
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	a.pipeline.Drain(a.cfg.FinalizeDrainTimeout)
	return nil
}
