package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "missiontrack/app/configs"
	"missiontrack/app/core/coach"
	"missiontrack/app/core/db"
	"missiontrack/app/core/extract"
	"missiontrack/app/core/interaction/cli"
	"missiontrack/app/core/interaction/gateway"
	"missiontrack/app/core/interaction/httpapi"
	"missiontrack/app/core/pipeline"
	"missiontrack/app/core/progress"
	"missiontrack/app/core/queue"
	"missiontrack/app/core/summary"
	"missiontrack/app/core/sync"
	"missiontrack/app/pkg/logger"
)

const syncKeyEnv = "MISSIONTRACK_SYNC_KEY"

func main() {
	if err := logger.Init("output/logs"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logger.Info("MissionTrack starting...")

	cfgManager, err := config.NewManager(config.DefaultPath())
	if err != nil {
		logger.Error("Failed to load config: %v", err)
		os.Exit(1)
	}
	cfg := cfgManager.Get()

	database, err := db.NewSQLiteDB("output/db")
	if err != nil {
		logger.Error("Failed to initialize DB: %v", err)
		os.Exit(1)
	}
	defer database.Close()
	logger.Info("Database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jobs := queue.New(cfg.Sync.QueueBuffer)
	if err := jobs.Start(ctx, 2); err != nil {
		logger.Error("Failed to start job queue: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := jobs.Stop(5 * time.Second); err != nil {
			logger.Error("Job queue shutdown: %v", err)
		}
	}()

	var remote sync.RemoteStore = sync.Disabled{}
	if cfg.Sync.RemoteURL != "" {
		remote = sync.NewHTTPStore(cfg.Sync.RemoteURL, os.Getenv(syncKeyEnv),
			time.Duration(cfg.Sync.MirrorTimeoutSec)*time.Second)
		logger.Info("Remote mirror enabled: %s", cfg.Sync.RemoteURL)
	} else {
		logger.Info("Remote mirror disabled, running local-only")
	}

	store := progress.NewStore(database)
	tracker := sync.NewTracker(store, remote, jobs,
		time.Duration(cfg.Sync.MirrorTimeoutSec)*time.Second)

	extractorModel := newCompleter(cfg.Model.ExtractionModel, cfg.Model)
	coachModel := newCompleter(cfg.Model.CoachingModel, cfg.Model)

	extractor := extract.NewService(extractorModel)
	coachSvc := coach.NewService(coachModel)
	summarizer := summary.NewService(coachModel)

	responder := pipeline.New(tracker, extractor, coachSvc, pipeline.Config{
		Name:           cfg.Coach.Name,
		HistoryLimit:   cfg.Coach.HistoryLimit,
		ExtractTimeout: time.Duration(cfg.Model.ExtractTimeoutSec) * time.Second,
		CoachTimeout:   time.Duration(cfg.Model.CoachTimeoutSec) * time.Second,
	})

	gw := gateway.NewGateway(responder)
	gw.RegisterChannel(cli.NewCLIChannel(cfg.Coach.CLIUserID))

	apiServer := httpapi.NewServer(cfg.Server.Port, cfg.Coach.CLIUserID, responder, tracker, extractor, summarizer)
	apiServer.SetStatusProvider(func() interface{} { return gw.Health() })

	go func() {
		if err := gw.Start(ctx); err != nil {
			logger.Error("Gateway crashed: %v", err)
			os.Exit(1)
		}
	}()
	go func() {
		if err := apiServer.Start(ctx); err != nil {
			logger.Error("HTTP server crashed: %v", err)
			os.Exit(1)
		}
	}()

	logger.Info("MissionTrack is ready.")
	fmt.Println("- CLI Interface: Interactive")
	fmt.Printf("- HTTP API:      http://localhost:%d/api/chat (POST)\n", cfg.Server.Port)
	fmt.Printf("- Health:        http://localhost:%d/health\n", cfg.Server.Port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Received signal: %v. MissionTrack shutting down...", sig)
	cancel()
}

// newCompleter returns a live API-backed completer when a key is present,
// otherwise the unconfigured stub so every feature still degrades cleanly.
func newCompleter(model string, mc config.ModelConfig) extract.Completer {
	key := config.APIKey()
	if key == "" {
		return extract.Unconfigured{}
	}
	return extract.NewOpenAICompleter(extract.OpenAIConfig{
		APIKey:    key,
		Model:     model,
		BaseURL:   mc.BaseURL,
		MaxTokens: mc.MaxTokens,
	})
}
