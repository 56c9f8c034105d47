package main

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"

	"skillpath.app/backend/internal/agent"
	"skillpath.app/backend/internal/bootstrap"
	"skillpath.app/backend/internal/config"
	"skillpath.app/backend/internal/server"
	"skillpath.app/backend/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db := database.Connect()
	if err := bootstrap.Migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	if err := bootstrap.Seed(db); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Printf("redis unreachable, realtime features disabled: %v", err)
			redisClient = nil
		}
	} else {
		log.Println("REDIS_URL not set, realtime features disabled")
	}

	var generator agent.Generator
	llm, err := agent.NewLLMClient(context.Background())
	if err != nil {
		log.Printf("AI features disabled: %v", err)
	} else {
		generator = llm
		defer llm.Close()
	}

	srv := server.NewServer(cfg, db, redisClient, generator)
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}
