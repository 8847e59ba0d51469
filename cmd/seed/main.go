package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"matcha/backend/internal/config"
	"matcha/backend/internal/logger"
	"matcha/backend/internal/models"
	"matcha/backend/internal/storage"

	"github.com/joho/godotenv"
	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var interests = []string{"music", "travel", "coding", "hiking", "movies", "cooking", "gaming", "yoga"}

// Seeds demo users and a spread of like/dislike decisions so the realtime
// flows (matches, conversations, notifications) can be exercised locally.
func main() {
	_ = godotenv.Load()

	cfg := config.New()
	logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Component: "seed"})
	log := logger.L()

	db, err := gorm.Open(postgres.Open(cfg.DB.DSN), &gorm.Config{})
	if err != nil {
		log.Error("failed to connect postgres", "err", err)
		os.Exit(1)
	}

	store := storage.NewService(db, nil)
	if err := store.Migrate(); err != nil {
		log.Error("failed to run migrations", "err", err)
		os.Exit(1)
	}

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	ctx := context.Background()

	// fresh start
	for _, table := range []string{"messages", "conversations", "interactions", "reports", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			log.Error("failed to clear table", "table", table, "err", err)
			os.Exit(1)
		}
	}

	users := make([]models.User, 0, 20)
	for i := 1; i <= 20; i++ {
		u := models.User{
			Username: fmt.Sprintf("demo%02d", i),
			Email:    fmt.Sprintf("demo%02d@example.com", i),
			Interests: pq.StringArray{
				interests[r.Intn(len(interests))],
				interests[r.Intn(len(interests))],
			},
		}
		if err := db.Create(&u).Error; err != nil {
			log.Error("failed to create user", "err", err)
			os.Exit(1)
		}
		users = append(users, u)
	}
	log.Info("seeded users", "count", len(users))

	var likes, matches int
	for _, actor := range users {
		for _, target := range users {
			if actor.ID == target.ID || r.Float64() > 0.3 {
				continue
			}
			kind := models.InteractionLike
			if r.Float64() > 0.7 {
				kind = models.InteractionDislike
			}
			if err := store.UpsertInteraction(ctx, actor.ID, target.ID, kind); err != nil {
				log.Error("failed to seed interaction", "err", err)
				os.Exit(1)
			}
			if kind != models.InteractionLike {
				continue
			}
			likes++
			mutual, err := store.MutualLikeExists(ctx, actor.ID, target.ID)
			if err != nil {
				log.Error("failed to check mutual like", "err", err)
				os.Exit(1)
			}
			if mutual {
				if _, err := store.CreateConversationIfAbsent(ctx, actor.ID, target.ID); err != nil {
					log.Error("failed to create conversation", "err", err)
					os.Exit(1)
				}
				matches++
			}
		}
	}

	log.Info("seed complete", "likes", likes, "matches", matches)
}
