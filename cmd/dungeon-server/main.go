// Package main is the entry point for the Pythagoras Dungeon game server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pythagorasdungeon/server/internal/engine"
	"github.com/pythagorasdungeon/server/internal/events"
	"github.com/pythagorasdungeon/server/internal/infra/storage"
	"github.com/pythagorasdungeon/server/internal/network"
	"github.com/pythagorasdungeon/server/internal/platform/config"
	"github.com/pythagorasdungeon/server/internal/platform/logger"
	"github.com/pythagorasdungeon/server/internal/platform/metrics"
)

// EventPersisterAdapter translates engine events to storage events.
type EventPersisterAdapter struct {
	repo    storage.EventRepository
	timeout time.Duration
}

func (a *EventPersisterAdapter) Append(event events.GameEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	return a.repo.Append(ctx, storage.GameEvent{
		ID:        event.ID,
		SessionID: event.SessionID,
		Timestamp: event.Timestamp,
		EventType: string(event.Type),
		ActorID:   event.ActorID,
		TargetID:  event.TargetID,
		Payload:   event.Payload,
	})
}

func main() {
	cfg := config.DefaultConfig()
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()

	log.Println("[DUNGEON-SERVER] Initializing Pythagoras Dungeon server...")
	appLogger := logger.NewLogger()

	var (
		db        *sql.DB
		store     storage.KeyValueStore   = storage.NewMemoryStore()
		eventRepo storage.EventRepository = storage.NewMemoryEventRepository()
	)
	if cfg.DBPath != "" {
		appLogger.Info("Initializing SQLite database '" + cfg.DBPath + "'...")
		var err error
		db, err = storage.InitSQLite(cfg.DBPath)
		if err != nil {
			appLogger.Error("Failed to initialize SQLite: " + err.Error())
			os.Exit(1)
		}
		defer db.Close()

		store = storage.NewSQLiteSaveStore(db)
		if cfg.EventLogEnabled {
			eventRepo = storage.NewSQLiteEventRepository(db)
		}
	} else {
		appLogger.Warn("No database configured; the run will not survive a restart.")
	}

	appLogger.Info("Bootstrapping EventLog...")
	eventLog := events.NewEventLog(&EventPersisterAdapter{repo: eventRepo, timeout: cfg.SaveTimeout})
	eventLog.OnPersistError(func(err error) {
		appLogger.Errorf("Failed to persist event: %v", err)
	})

	appLogger.Info("Bootstrapping Engine...")
	saves := storage.NewSaveGame(store, cfg.SaveKey, appLogger)
	gameEngine := engine.NewEngine(saves, eventLog, appLogger,
		engine.WithPacingDelay(cfg.PacingDelay),
		engine.WithTickInterval(cfg.TickInterval),
		engine.WithSaveTimeout(cfg.SaveTimeout),
	)
	defer gameEngine.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gameEngine.Start(ctx)

	appLogger.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(gameEngine, cfg, appLogger)
	go hub.Run(ctx)
	hub.StartStatePoller(ctx)

	history := network.NewHistoryHandler(eventLog, storage.NewRecapper(eventRepo), gameEngine, appLogger)

	// Setup API Routes
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.Handle("/api/state", network.StateHandler(gameEngine, appLogger))
	mux.Handle("/api/metrics", metrics.Handler())
	mux.Handle("/metrics", metrics.PrometheusHandler())
	history.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("[DUNGEON-SERVER] HTTP API & WS Server listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	log.Println("[DUNGEON-SERVER] Server running. Press Ctrl+C to exit.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[DUNGEON-SERVER] Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Errorf("HTTP shutdown failed: %v", err)
	}

	// Stop producing events, then drain the writer before the deferred db.Close.
	gameEngine.Close()
	eventLog.Close()
}
