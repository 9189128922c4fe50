package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"steprivals/internal/api"
	"steprivals/internal/repository"
	"steprivals/internal/service"
	"steprivals/internal/stepsource"
	"steprivals/pkg/auth"
	"steprivals/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	stepSource := stepsource.NewClient(cfg.StepSource)
	playerAuth := auth.NewPlayerAuth(cfg.Auth.TokenSecret, cfg.Auth.TokenLifetime)

	playerService := service.NewPlayerService(repo)
	challengeService := service.NewChallengeService(repo, repo, repo)
	participantService := service.NewParticipantService(repo, repo, stepSource)
	puzzleService := service.NewPuzzleService(challengeService, participantService, repo)

	hub := api.NewHub(challengeService)

	syncWorker := service.NewSyncWorker(challengeService, participantService, repo, repo, hub, cfg.Sync.Interval)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go syncWorker.Run(ctx)

	router := gin.New()
	router.Use(gin.Recovery())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	config.AllowHeaders = []string{"*"}
	config.AllowCredentials = true
	config.MaxAge = 12 * time.Hour

	router.Use(cors.New(config))

	a := router.Group("/api/v1")
	api.NewPlayerRoutes(a, playerService, participantService, playerAuth)
	api.NewChallengeRoutes(a, challengeService, participantService, playerAuth)
	api.NewPuzzleRoutes(a, puzzleService, playerAuth)
	api.NewWSRoutes(a, hub)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	zapLogger.Info("Starting server", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		zapLogger.Fatal("Failed to start server", zap.Error(err))
	}
}
