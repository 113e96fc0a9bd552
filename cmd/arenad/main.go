package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/roverduel/arena/internal/arena"
	"github.com/roverduel/arena/internal/config"
	"github.com/roverduel/arena/internal/leaderboard"
	"github.com/roverduel/arena/internal/relay"
	"github.com/roverduel/arena/internal/stake"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	if level, err := zerolog.ParseLevel(cfg.Server.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	store, err := leaderboard.Open(cfg.Leaderboard.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Leaderboard.Path).Msg("failed to open leaderboard store")
	}
	defer store.Close()

	gateway := setupStakeGateway(cfg.Stake)

	hub := relay.NewHub()

	arenaCfg := arena.DefaultConfig()
	arenaCfg.ConfirmWindow = cfg.Arena.ConfirmWindow()
	arenaCfg.GameDuration = cfg.Arena.GameDuration()
	arenaCfg.PostGameCooldown = cfg.Arena.PostGameCooldown()
	arenaCfg.WinThreshold = cfg.Arena.WinThreshold
	arenaCfg.DetectEvery = cfg.Arena.DetectEvery

	orch := arena.New(arenaCfg, arena.Deps{
		Hub:     hub,
		Store:   store,
		Gateway: gateway,
	})

	handler := relay.NewHandler(hub, orch, relay.DefaultConfig())

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"service":"arenad","viewers":%d}`, hub.ViewerCount())
	})

	if st, err := os.Stat(cfg.Server.StaticDir); err == nil && st.IsDir() {
		mux.Handle("/", http.FileServer(http.Dir(cfg.Server.StaticDir)))
	}

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:     c.Handler(mux),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go orch.Run(ctx)

	go func() {
		log.Info().Str("addr", server.Addr).Msg("arena server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	cancel()

	log.Info().Msg("arena server shutdown complete")
}

func setupStakeGateway(cfg config.StakeConfig) stake.Gateway {
	if !cfg.Enabled {
		log.Info().Msg("stake gateway disabled; ranked mode unavailable")
		return stake.Disabled{}
	}

	house, err := stake.LoadHouseKey(cfg.HouseKeyFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load house wallet")
	}
	gw := stake.NewSolanaGateway(cfg.RPCURL, house)
	log.Info().
		Str("rpc_url", cfg.RPCURL).
		Str("house", gw.HousePublicKey().String()).
		Msg("stake gateway enabled")
	return gw
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
