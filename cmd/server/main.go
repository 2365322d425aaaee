package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	redislib "github.com/redis/go-redis/v9"

	"github.com/cuetable/backend/internal/api"
	"github.com/cuetable/backend/internal/config"
	"github.com/cuetable/backend/internal/database"
	"github.com/cuetable/backend/internal/game"
	"github.com/cuetable/backend/internal/middleware"
	"github.com/cuetable/backend/internal/migrations"
	"github.com/cuetable/backend/internal/redis"
	"github.com/cuetable/backend/internal/store"
	"github.com/cuetable/backend/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database (optional: shot history is disabled without it)
	var db *sqlx.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		// Run migrations on start if requested
		if os.Getenv("MIGRATE_ON_START") == "true" {
			log.Println("↗ Running DB migrations on startup...")
			if err := migrations.RunMigrations(cfg.DatabaseURL); err != nil {
				log.Fatalf("Failed to run migrations: %v", err)
			}
		}
	} else {
		log.Println("[DB] DATABASE_URL not set - shot history disabled")
	}

	// Initialize Redis (optional: snapshot caching is disabled without it)
	var rdb *redislib.Client
	if cfg.RedisURL != "" {
		var err error
		rdb, err = redis.Connect(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rdb.Close()
	} else {
		log.Println("[REDIS] REDIS_URL not set - snapshot caching disabled")
	}

	// Initialize the session manager and wire the live frame distributor
	game.InitializeManager(store.New(db), rdb, cfg)
	game.Manager.SetFrameSink(ws.TableHub)

	// Start the janitor that expires idle table sessions
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	game.Manager.StartJanitor(ctx)

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.WebSocketCORSCheck(cfg))

	// Initialize API handlers
	api.SetupRoutes(router, cfg)

	// Stop tick loops cleanly on SIGINT/SIGTERM
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Println("Shutting down: stopping table sessions...")
		game.Manager.Shutdown()
		os.Exit(0)
	}()

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting CueTable server on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
