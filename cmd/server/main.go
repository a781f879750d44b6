package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nantokaworks/draw-bot/internal/draw"
	"github.com/nantokaworks/draw-bot/internal/env"
	"github.com/nantokaworks/draw-bot/internal/localdb"
	"github.com/nantokaworks/draw-bot/internal/notification"
	"github.com/nantokaworks/draw-bot/internal/roster"
	"github.com/nantokaworks/draw-bot/internal/scheduler"
	"github.com/nantokaworks/draw-bot/internal/shared/logger"
	"github.com/nantokaworks/draw-bot/internal/version"
	"github.com/nantokaworks/draw-bot/internal/webserver"
	"go.uber.org/zap"
)

func main() {
	logger.Init(false)
	defer logger.Sync()

	logger.Info("Starting draw-bot server", zap.String("version", version.String()))

	env.LoadEnv()
	if env.Value.DebugMode {
		logger.Init(true)
		logger.Info("Debug mode enabled")
	}

	if err := os.MkdirAll(filepath.Dir(env.Value.DBPath), 0o755); err != nil {
		logger.Fatal("Failed to create data directory", zap.Error(err))
	}
	if _, err := localdb.SetupDB(env.Value.DBPath); err != nil {
		logger.Fatal("Failed to setup database", zap.Error(err))
	}

	// Every room in the registry is considered live until a leave command
	// says otherwise.
	liveRooms := roster.New()
	if rooms, err := localdb.ReadAllRooms(); err != nil {
		logger.Warn("Failed to seed live rooms from registry", zap.Error(err))
	} else {
		ids := make([]int64, 0, len(rooms))
		for _, room := range rooms {
			ids = append(ids, room.ID)
		}
		liveRooms.Seed(ids)
	}

	notifier := notification.New(nil)
	engine := draw.NewEngine(notifier, env.Value.Location)
	supervisor := scheduler.NewSupervisor(engine, liveRooms, env.Value.Location)

	if err := supervisor.StartAll(); err != nil {
		logger.Error("Failed to schedule autodraw tasks", zap.Error(err))
	}

	if err := webserver.StartWebServer(env.Value.ServerPort, webserver.Deps{
		Engine:     engine,
		Supervisor: supervisor,
		Roster:     liveRooms,
		Notifier:   notifier,
	}); err != nil {
		logger.Fatal("Failed to start web server", zap.Error(err))
	}

	logger.Info("Server started",
		zap.Int("port", env.Value.ServerPort),
		zap.String("api", fmt.Sprintf("http://localhost:%d/api/", env.Value.ServerPort)),
		zap.String("timezone", env.Value.TimezoneName))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")

	supervisor.Shutdown()
	webserver.Shutdown()
	notifier.Close()

	logger.Info("Shutdown complete")
}
