// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joeshaw/envdecode"
	_ "github.com/joho/godotenv/autoload"
	"github.com/playdeck/uno/internal/auth"
	"github.com/playdeck/uno/internal/cache"
	"github.com/playdeck/uno/internal/database"
	"github.com/playdeck/uno/internal/handlers"
	"github.com/playdeck/uno/internal/middleware"
	"github.com/sirupsen/logrus"
)

type config struct {
	Port     string `env:"PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=debug"`

	// Seat token keys. Empty paths generate an ephemeral key pair at boot.
	JWTPrivateKeyFile string `env:"JWT_PRIVATE_KEY_FILE,default="`
	JWTPublicKeyFile  string `env:"JWT_PUBLIC_KEY_FILE,default="`

	// Registry eviction tuning.
	EvictIntervalSec int `env:"GAME_EVICT_INTERVAL_SEC,default=60"`
	MaxIdleSec       int `env:"GAME_MAX_IDLE_SEC,default=3600"`
	FinishedGraceSec int `env:"GAME_FINISHED_GRACE_SEC,default=300"`
}

func main() {
	var cfg config
	if err := envdecode.Decode(&cfg); err != nil {
		log.Fatalf("failed to decode config from environment: %v", err)
	}

	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)

	if cfg.JWTPrivateKeyFile != "" && cfg.JWTPublicKeyFile != "" {
		if err := auth.InitFromPath(cfg.JWTPrivateKeyFile, cfg.JWTPublicKeyFile); err != nil {
			log.Fatalf("failed to load signing keys: %v", err)
		}
	} else {
		auth.Init()
	}

	// Both backing stores are optional. Without Postgres the server is purely
	// in-memory; without Redis the historian queue stays empty.
	if err := database.ConnectDB(); err != nil {
		logger.Warnf("Postgres unavailable, snapshot persistence disabled: %v", err)
		database.DB = nil
	}
	if err := cache.ConnectRedis(); err != nil {
		logger.Warnf("Redis unavailable, action logging disabled: %v", err)
		cache.Rdb = nil
	}

	srv := handlers.NewGameServer(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv.Store.StartEvictionLoop(ctx,
		time.Duration(cfg.EvictIntervalSec)*time.Second,
		time.Duration(cfg.MaxIdleSec)*time.Second,
		time.Duration(cfg.FinishedGraceSec)*time.Second,
	)

	mux := http.NewServeMux()

	mux.Handle("/game/create", middleware.LogMiddleware(logger)(http.HandlerFunc(srv.CreateGameHandler)))
	mux.Handle("/game/state/", middleware.LogMiddleware(logger)(http.HandlerFunc(srv.GameStateHandler)))
	// The WS route is not wrapped: the handler hijacks the connection and logs
	// connect/disconnect itself.
	mux.Handle("/game/ws/", http.HandlerFunc(handlers.GameWSHandler(logger, srv)))
	mux.HandleFunc("/health", srv.HealthHandler)

	addr := ":" + cfg.Port
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
