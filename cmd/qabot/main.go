package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	v1handlers "github.com/deepgram/qabot/internal/api/v1/handlers"
	v1mware "github.com/deepgram/qabot/internal/api/v1/middleware"
	"github.com/deepgram/qabot/internal/config"
	"github.com/deepgram/qabot/internal/connections"
	"github.com/deepgram/qabot/internal/services"
	"github.com/deepgram/qabot/internal/services/conversation"
	"github.com/deepgram/qabot/pkg/logger"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	envErr := godotenv.Load()
	logger.Init()
	if envErr != nil {
		log.Info().Msg("No .env file found, using environment variables")
	}

	svc, err := services.InitializeServices()
	if err != nil {
		log.Fatal().
			Err(err).
			Str("kind", conversation.KindOf(err).String()).
			Msg(conversation.Display(err))
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close services")
		}
	}()

	manager := connections.NewManager(connections.DefaultTimeouts)

	srv := &http.Server{
		Addr:              ":" + config.GetPort(),
		Handler:           setupRouter(svc, manager),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(manager.CloseAll)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc.Start(ctx)

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	stop()

	log.Info().Msg("Shutting down gracefully")

	// polls in flight get the same budget as a turn
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetPollConfig().Timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return
	}

	log.Info().Msg("Server stopped")
}

func setupRouter(svc *services.Services, manager *connections.Manager) *mux.Router {
	r := mux.NewRouter()
	r.Use(v1mware.RateLimit("global"))

	r.HandleFunc("/healthz", handleHealth).Methods("GET")
	v1handlers.RegisterV1Routes(r, svc, manager)
	v1handlers.RegisterPageRoutes(r, svc)

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
