// Command promote grants the admin role to an existing user.
package main

import (
	"context"
	"flag"

	"finance_tracker/internal/auth"
	"finance_tracker/internal/config"
	"finance_tracker/internal/db"
	"finance_tracker/internal/utils"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		logrus.Fatal("usage: promote <username>")
	}
	cfg := config.LoadConfig()
	database, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err)
	}
	ctx := context.Background()
	creds := auth.NewService(database, cfg.DefaultBalance)

	// The admin users page is cached by the server; drop it so the new role shows
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logrus.WithField("error", err.Error()).Warn("Redis unavailable; /admin/users may show the old role until its cache expires")
	} else {
		creds.SetUsersCache(utils.NewCache(redisClient, "admin:users:"))
	}

	if err := creds.Promote(ctx, flag.Arg(0)); err != nil {
		logrus.Fatalf("promote: %v", err)
	}
}
