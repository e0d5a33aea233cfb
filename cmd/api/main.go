// Package main is the entry point for the Waymark API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/pressly/goose/v3"

	"github.com/waymarkhq/waymark/internal/audio"
	"github.com/waymarkhq/waymark/internal/chat"
	"github.com/waymarkhq/waymark/internal/config"
	"github.com/waymarkhq/waymark/internal/geocode"
	"github.com/waymarkhq/waymark/internal/handler"
	"github.com/waymarkhq/waymark/internal/media"
	"github.com/waymarkhq/waymark/internal/middleware"
	"github.com/waymarkhq/waymark/internal/repo"
	"github.com/waymarkhq/waymark/internal/routing"
	"github.com/waymarkhq/waymark/internal/service"
	"github.com/waymarkhq/waymark/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	// .env is a local development convenience; deployed environments set
	// real environment variables.
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	// log/slog is the stdlib structured logger introduced in Go 1.21.
	// JSON handler writes machine-readable output suitable for log aggregators.
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	// pgxpool manages a pool of Postgres connections.
	// New() does not open connections immediately; the first query does.
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(context.Background()); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	if err := runMigrations(cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// --- Repositories and services ----------------------------------------
	routeRepo := repo.NewRouteRepo(pool)
	chatRepo := repo.NewChatMessageRepo(pool)
	audioRepo := repo.NewAudioRepo(pool)

	routeSvc := service.NewRouteService(routeRepo)
	exportSvc := service.NewExportService(routeRepo)

	places := geocode.NewClient(cfg.NominatimBaseURL, cfg.NominatimUserAgent, nil)

	// --- Directions --------------------------------------------------------
	// Without an API key the builder still serves: every build degrades to
	// the dashed straight-line fallback.
	var directions *routing.Builder
	if cfg.ORSAPIKey != "" {
		directions = routing.NewBuilder(routing.NewClient(cfg.ORSBaseURL, cfg.ORSAPIKey, nil), logger)
		slog.Info("directions service configured", "base_url", cfg.ORSBaseURL)
	} else {
		directions = routing.NewBuilder(nil, logger)
		slog.Warn("ORS_API_KEY not set; directions fall back to straight segments")
	}

	// --- Object store (optional) ------------------------------------------
	var mediaStore media.Store
	if cfg.MediaEnabled() {
		s3, err := media.NewS3Store(media.Config{
			Bucket:          cfg.MediaBucket,
			AccessKeyID:     cfg.MediaAccessKeyID,
			SecretAccessKey: cfg.MediaSecretAccessKey,
			Endpoint:        cfg.MediaEndpoint,
			PublicURL:       cfg.MediaPublicURL,
		})
		if err != nil {
			slog.Error("failed to configure media store", "error", err)
			os.Exit(1)
		}
		mediaStore = s3
		slog.Info("media store configured", "bucket", cfg.MediaBucket)
	} else {
		slog.Warn("media store not configured; uploads disabled")
	}

	// --- Audio generation (optional) --------------------------------------
	// Requires both a TTS key and a media store to put the result somewhere.
	var generator handler.AudioGenerator
	if cfg.TTSAPIKey != "" && mediaStore != nil {
		tts := audio.NewTTSClient(cfg.TTSBaseURL, cfg.TTSAPIKey, cfg.TTSModel, nil)
		synth := audio.NewSpeechService(tts, mediaStore)
		generator = audio.NewGenerator(synth, routeRepo, audioRepo, logger)
		slog.Info("audio generation configured", "model", cfg.TTSModel)
	} else {
		slog.Warn("audio generation not configured; ai-audio endpoints disabled")
	}

	// --- Chat (optional) ----------------------------------------------------
	var broker chat.Broker
	if cfg.NATSURL != "" {
		conn, err := nats.Connect(cfg.NATSURL,
			nats.Name("waymark-api"),
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second),
		)
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err, "url", cfg.NATSURL)
			os.Exit(1)
		}
		defer conn.Close()
		broker = chat.NewNATSBroker(conn)
		slog.Info("chat broker connected", "url", cfg.NATSURL)
	} else {
		slog.Warn("NATS_URL not set; chat endpoints disabled")
	}

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID, RealIP, Logger, Recoverer,
	// then CORS, the body size cap, and CSRF.
	// RequestID generates a unique trace ID per request.
	// RealIP sets r.RemoteAddr from X-Forwarded-For / X-Real-IP (safe behind a proxy).
	// SlogLogger writes one structured JSON log line per request.
	// Recoverer catches panics and returns HTTP 500 instead of crashing.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	// Body cap runs before CSRF because the CSRF check may parse form bodies.
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodySize))
	r.Use(middleware.NewCSRFHandler())

	srv := handler.NewServer(handler.Deps{
		Routes:   routeSvc,
		Export:   exportSvc,
		Audio:    generator,
		Places:   places,
		Chat:     chatRepo,
		Store:    chatRepo,
		Broker:   broker,
		Geometry: directions,
		Log:      logger,
	})
	r.Mount("/", srv.Routes())

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	// WriteTimeout stays generous because export downloads and websocket
	// upgrades flow through the same server.
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// runMigrations applies any pending schema migrations from the embedded FS.
// goose needs a database/sql handle, so a short-lived one is opened alongside
// the pgx pool.
func runMigrations(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return err
	}

	results, err := provider.Up(context.Background())
	if err != nil {
		return err
	}
	for _, res := range results {
		slog.Info("migration applied", "version", res.Source.Version, "path", res.Source.Path)
	}
	return nil
}
