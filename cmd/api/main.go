package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/petermazzocco/recipe-api/internal/auth"
	"github.com/petermazzocco/recipe-api/internal/config"
	"github.com/petermazzocco/recipe-api/internal/database"
	"github.com/petermazzocco/recipe-api/internal/images"
	"github.com/petermazzocco/recipe-api/internal/logger"
	"github.com/petermazzocco/recipe-api/internal/recipes"
	"github.com/petermazzocco/recipe-api/internal/server"
	"github.com/petermazzocco/recipe-api/internal/storage"
	"github.com/petermazzocco/recipe-api/internal/store/gormstore"
	"github.com/petermazzocco/recipe-api/internal/store/memstore"
	"github.com/petermazzocco/recipe-api/internal/users"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to a YAML config file")
	flag.Parse()

	// Initialize configuration from .env, the config file and the environment
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	level := logger.ParseLevel(cfg.LogLevel)
	logger.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := server.Deps{
		Config: cfg,
		Images: images.Processor{MaxBytes: cfg.Images.MaxBytes, MaxWidth: cfg.Images.MaxWidth},
	}

	// Database connection
	var (
		userRepo   users.Repository
		recipeRepo recipes.Repository
		tokens     auth.TokenStore
	)
	switch cfg.Database.Driver {
	case "memory":
		logger.Warn("using the in-memory store, data is lost on restart")
		userRepo = memstore.NewUserRepo()
		recipeRepo = memstore.NewRecipeRepo()
		tokens = memstore.NewTokenStore()
	default:
		db, err := database.Connect(ctx, cfg.Database, level)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := database.Migrate(db); err != nil {
			log.Fatalf("Failed to auto migrate models: %v", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			log.Fatalf("Failed to get database handle: %v", err)
		}
		defer sqlDB.Close()

		userRepo = gormstore.NewUserRepo(db)
		recipeRepo = gormstore.NewRecipeRepo(db)
		tokens = gormstore.NewTokenStore(db)
		deps.Ping = sqlDB.PingContext
	}

	// Tokens live in redis when it is configured
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer rdb.Close()
		tokens = auth.NewRedisTokenStore(rdb)
		logger.Info("token store", "backend", "redis", "addr", cfg.Redis.Addr)
	}

	// Image storage
	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to set up image storage: %v", err)
	}
	if local, ok := store.(*storage.LocalStore); ok {
		deps.MediaRoot = local.Root()
	}

	// OAUTH
	if cfg.OAuth.Enabled() {
		auth.SetupOAuth(cfg.OAuth)
		deps.OAuth = true
	}

	deps.Users = users.NewService(userRepo)
	deps.Recipes = recipes.NewService(recipeRepo, store)
	deps.Tokens = tokens
	deps.URLs = store

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	log.Printf("Starting API server on %s", cfg.Server.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
