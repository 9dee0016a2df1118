// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/palacegame/palace/internal/auth"
	"github.com/palacegame/palace/internal/cache"
	"github.com/palacegame/palace/internal/database"
	"github.com/palacegame/palace/internal/engine"
	"github.com/palacegame/palace/internal/handlers"
	"github.com/palacegame/palace/internal/room"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := auth.Init(); err != nil {
		logger.WithError(err).Fatal("failed to initialize session keys")
	}

	// Postgres is the durable store; without it the server still runs, with
	// rooms held in memory only.
	var store room.Store
	if os.Getenv("PG_HOST") != "" {
		if err := database.ConnectDB(); err != nil {
			logger.WithError(err).Fatal("failed to connect to Postgres")
		}
		store = database.NewGameStore(database.DB)
		logger.Info("using Postgres room store")
	} else {
		store = room.NewMemoryStore()
		logger.Warn("PG_HOST not set; rooms will not survive a restart")
	}

	if err := cache.ConnectRedis(); err != nil {
		logger.WithError(err).Warn("Redis unavailable; move journaling disabled")
	}

	hub := handlers.NewHub(logger)
	journal := func(rec cache.MoveRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.PublishMove(ctx, rec); err != nil {
			logger.WithError(err).Warn("failed to journal move")
		}
	}

	manager := room.NewManager(store, engine.StandardRules(), logger, hub.Publish, journal)
	go manager.SweepLoop(context.Background(), time.Minute)

	srv := handlers.NewServer(manager, hub, logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	logger.Infof("listening on :%s", port)
	if err := http.ListenAndServe(":"+port, srv.Routes()); err != nil {
		logger.WithError(err).Fatal("server exited")
	}
}
