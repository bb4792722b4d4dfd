// Package server exposes the detection engine over HTTP: text and file
// scanning, anonymization, inspection with policy enforcement, the audit
// event listing and the WebSocket live feed.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dataveil/dataveil/internal/anonymize"
	"github.com/dataveil/dataveil/internal/config"
	"github.com/dataveil/dataveil/internal/logger"
	"github.com/dataveil/dataveil/internal/patterns"
	"github.com/dataveil/dataveil/internal/scan"
	"github.com/dataveil/dataveil/internal/websocket"
	"go.uber.org/zap"
)

// Version is stamped at build time
var Version = "0.1.0"

// EventsReader lists recorded detection events. The audit store implements
// it; a nil reader disables the events endpoint.
type EventsReader interface {
	Recent(ctx context.Context, identity string, limit int) ([]scan.Event, error)
}

// Server is the HTTP front end of the detection engine
type Server struct {
	cfg        *config.Config
	logger     *logger.Logger
	engine     *scan.Engine
	files      *scan.FileScanner
	anonymizer *anonymize.Engine
	events     EventsReader
	wsHub      *websocket.Hub
	limiter    *rateLimiter
	router     *mux.Router
	server     *http.Server
	startTime  time.Time
}

// New wires the engine stack behind a router. sink and events may be nil
// when auditing is disabled; detections are still broadcast on the hub.
func New(cfg *config.Config, log *logger.Logger, settings scan.SettingsProvider, sink scan.Sink, events EventsReader) *Server {
	wsHub := websocket.NewHub(cfg.WebSocket, log.WithComponent("websocket").Logger)

	registry := patterns.NewRegistry(log.WithComponent("patterns").Logger)
	engine := scan.NewEngine(registry, settings, &broadcastSink{next: sink, hub: wsHub},
		cfg.Scanner, log.WithComponent("scan").Logger)

	s := &Server{
		cfg:        cfg,
		logger:     log.WithComponent("server"),
		engine:     engine,
		files:      scan.NewFileScanner(engine, cfg.Scanner, log.WithComponent("filescan").Logger),
		anonymizer: anonymize.NewEngine(engine, log.WithComponent("anonymize").Logger),
		events:     events,
		wsHub:      wsHub,
		limiter:    newRateLimiter(cfg.Server.RateLimit),
		router:     mux.NewRouter(),
		startTime:  time.Now(),
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/info", s.handleInfo).Methods("GET")

	if s.cfg.WebSocket.Enabled {
		s.router.HandleFunc(s.cfg.WebSocket.Path, s.wsHub.HandleWebSocket).Methods("GET")
	}

	api := s.router.PathPrefix("/v1").Subrouter()
	api.Use(s.loggingMiddleware)
	api.Use(s.rateLimitMiddleware)
	api.HandleFunc("/scan", s.handleScan).Methods("POST")
	api.HandleFunc("/scan/file", s.handleScanFile).Methods("POST")
	api.HandleFunc("/anonymize", s.handleAnonymize).Methods("POST")
	api.HandleFunc("/inspect", s.handleInspect).Methods("POST")
	api.HandleFunc("/events", s.handleEvents).Methods("GET")
}

// Start starts the HTTP server and the WebSocket hub
func (s *Server) Start() error {
	s.logger.Info("Starting server",
		zap.Int("port", s.cfg.Server.Port),
		zap.String("security_mode", s.cfg.Security.Mode),
		zap.String("settings_source", s.cfg.Settings.Source),
	)

	go s.wsHub.Run()
	s.limiter.startCleanupRoutine()

	return s.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server and background routines
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping server")
	s.limiter.stop()
	return s.server.Shutdown(ctx)
}

// broadcastSink forwards detection events to the audit sink and mirrors
// them onto the WebSocket feed. The feed never blocks or fails a scan.
type broadcastSink struct {
	next scan.Sink
	hub  *websocket.Hub
}

func (b *broadcastSink) Record(ctx context.Context, event scan.Event) error {
	b.hub.BroadcastEvent(websocket.NewDetectionEvent(event))
	if b.next == nil {
		return nil
	}
	return b.next.Record(ctx, event)
}
