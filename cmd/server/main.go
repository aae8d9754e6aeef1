// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/civbuilder/civdraft/internal/handlers"
	"github.com/civbuilder/civdraft/internal/middleware"
	"github.com/civbuilder/civdraft/internal/store"
)

// buildStore picks the draft store from DRAFT_STORE: memory, file
// (default), redis or postgres.
func buildStore(ctx context.Context, logger *logrus.Logger) store.DraftStore {
	switch os.Getenv("DRAFT_STORE") {
	case "memory":
		logger.Info("Using in-memory draft store.")
		return store.NewMemoryStore()
	case "redis":
		st, err := store.NewRedisStore(ctx)
		if err != nil {
			log.Fatalf("redis store: %v", err)
		}
		logger.Info("Using redis draft store.")
		return st
	case "postgres":
		st, err := store.NewPostgresStore(ctx)
		if err != nil {
			log.Fatalf("postgres store: %v", err)
		}
		logger.Info("Using postgres draft store.")
		return st
	default:
		dir := os.Getenv("DRAFT_DIR")
		if dir == "" {
			dir = store.DefaultDir()
		}
		st, err := store.NewFileStore(dir)
		if err != nil {
			log.Fatalf("file store: %v", err)
		}
		logger.Infof("Using file draft store at %s.", dir)
		return st
	}
}

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	ctx := context.Background()
	srv := handlers.NewDraftServer(buildStore(ctx, logger), logger)
	go srv.ReapIdleSessions(ctx, 10*time.Minute)

	wrap := func(h http.Handler) http.Handler {
		return middleware.RecoverMiddleware(logger)(middleware.LogMiddleware(logger)(h))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handlers.HealthzHandler)

	// draft endpoints
	mux.Handle("/draft/create", wrap(http.HandlerFunc(srv.CreateDraftHandler)))
	mux.Handle("/draft/join/", wrap(http.HandlerFunc(srv.JoinDraftHandler)))
	mux.Handle("/draft/config/", wrap(http.HandlerFunc(srv.DraftConfigHandler)))

	// draft websocket
	mux.Handle("/draft/ws", wrap(http.HandlerFunc(
		handlers.DraftWSHandler(logger, srv),
	)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
