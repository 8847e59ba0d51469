package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"matcha/backend/internal/api/handler"
	"matcha/backend/internal/api/middleware"
	"matcha/backend/internal/config"
	"matcha/backend/internal/hub"
	"matcha/backend/internal/logger"
	"matcha/backend/internal/service/chat"
	"matcha/backend/internal/service/interaction"
	"matcha/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	// .env is optional; production config comes from the environment
	_ = godotenv.Load()

	cfg := config.New()
	logger.Init(logger.Config{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		Component: cfg.Log.Component,
	})
	log := logger.L()

	db, err := gorm.Open(postgres.Open(cfg.DB.DSN), &gorm.Config{})
	if err != nil {
		log.Error("failed to connect postgres", "err", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("failed to connect redis", "err", err)
		os.Exit(1)
	}

	store := storage.NewService(db, rdb)
	if err := store.Migrate(); err != nil {
		log.Error("failed to run migrations", "err", err)
		os.Exit(1)
	}

	h := hub.New(store, log)
	interactions := interaction.New(store, h.Dispatcher(), log)
	chatSvc := chat.New(store, h.Dispatcher(), log)
	h.SetChatService(chatSvc)

	go h.Run()
	if err := h.StartEventBusListener(ctx); err != nil {
		log.Error("failed to subscribe to event bus", "err", err)
		os.Exit(1)
	}

	if cfg.App.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	api := handler.New(h, interactions, chatSvc, log)

	authed := r.Group("/", middleware.Identity(cfg.JWT.Secret))
	{
		authed.GET("/ws", api.ServeWebSocket)

		authed.POST("/likes/:id", api.Like)
		authed.POST("/dislikes/:id", api.Dislike)
		authed.DELETE("/matches/:id", api.Unmatch)
		authed.GET("/likes", api.Likers)
		authed.GET("/likes/count", api.CountLikers)

		authed.POST("/conversations/:id/messages", api.PostMessage)
		authed.GET("/conversations/:id/messages", api.Messages)

		authed.POST("/reports", api.Report)
		authed.DELETE("/reports/:id", api.UndoReport)
	}

	server := &http.Server{
		Addr:           cfg.Addr(),
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Info("starting server", "addr", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "err", err)
			cancel()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-stop:
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("forced shutdown", "err", err)
	}
	h.Stop()
}
