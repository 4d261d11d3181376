package main

import (
	"context"   // Context for shutdown and Redis ping
	"errors"    // Error inspection
	"net/http"  // HTTP server
	"os"        // Signals
	"os/signal" // Signal notification
	"syscall"   // SIGTERM
	"time"      // Timeouts

	"finance_tracker/internal/api"     // Custom package for API handlers
	"finance_tracker/internal/auth"    // Credential store
	"finance_tracker/internal/config"  // Custom package for configuration
	"finance_tracker/internal/db"      // Database connection
	"finance_tracker/internal/events"  // Event publication
	"finance_tracker/internal/ledger"  // Ledger and balance
	"finance_tracker/internal/session" // Server-side sessions
	"finance_tracker/internal/utils"   // Cipher, key and cache helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if cfg.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET must be set")
	}

	// Load the asset key; a configured but missing key file is provisioned once
	key, created, err := utils.LoadKey(cfg.EncryptionKey, cfg.EncryptionKeyFile)
	if err != nil {
		logrus.Fatalf("failed to load encryption key: %v", err)
	}
	if created {
		logrus.WithField("path", cfg.EncryptionKeyFile).Warn("Generated a new encryption key; back this file up")
	}
	cipher, err := utils.NewAssetCipher(key)
	if err != nil {
		logrus.Fatalf("failed to build asset cipher: %v", err)
	}

	database, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	publisher := events.New(cfg.KafkaBrokers, cfg.KafkaTopic)
	sessions := session.NewRedisStore(redisClient)
	usersCache := utils.NewCache(redisClient, "admin:users:")
	creds := auth.NewService(database, cfg.DefaultBalance)
	creds.SetUsersCache(usersCache)
	ledgerSvc := ledger.NewService(database, cipher, publisher, cfg.AllowNegativeBalance)

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	r := api.NewRouter(api.Deps{
		DB:             database,
		Creds:          creds,
		Ledger:         ledgerSvc,
		Sessions:       sessions,
		Cipher:         cipher,
		UsersCache:     usersCache,
		JWTSecret:      cfg.JWTSecret,
		SessionTTL:     cfg.SessionTTL,
		LoginRateLimit: cfg.LoginRateLimit,
		LoginRateBurst: cfg.LoginRateBurst,
	})
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logrus.WithFields(logrus.Fields{
			"port":           cfg.AppPort,
			"db_driver":      cfg.DBDriver,
			"allow_negative": cfg.AllowNegativeBalance,
			"login_limit":    cfg.LoginRateLimit,
		}).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	waitForShutdown(srv, publisher, redisClient)
}

// waitForShutdown blocks until SIGINT or SIGTERM, then drains requests and closes clients
func waitForShutdown(srv *http.Server, publisher events.Publisher, redisClient *redis.Client) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("server shutdown: %v", err)
	}
	if err := publisher.Close(); err != nil {
		logrus.Errorf("close event publisher: %v", err)
	}
	if err := redisClient.Close(); err != nil {
		logrus.Errorf("close redis: %v", err)
	}
}
