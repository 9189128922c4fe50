package api

import (
	"errors"
	"net/http"
	"time"

	"steprivals/internal/model"
	"steprivals/internal/service"
	"steprivals/pkg/auth"
	"steprivals/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type puzzleRoutes struct {
	pz service.PuzzleServiceI
	a  *auth.PlayerAuth
}

func NewPuzzleRoutes(handler *gin.RouterGroup, pz service.PuzzleServiceI, a *auth.PlayerAuth) {
	r := &puzzleRoutes{pz: pz, a: a}
	h := handler.Group("/challenges/:challenge_id/puzzles")
	h.Use(a.PlayerAuthMiddleware())
	{
		h.POST("/", r.ReportOutcome)
	}
}

type PuzzleOutcomeRequest struct {
	Kind           string  `json:"kind"`
	Success        bool    `json:"success"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	TimedOut       bool    `json:"timed_out"`
}

func (r *puzzleRoutes) ReportOutcome(c *gin.Context) {
	log := logger.Logger()

	playerID, exists := auth.PlayerID(c)
	if !exists {
		log.Error("player id not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	challengeID, err := uuid.Parse(c.Param("challenge_id"))
	if err != nil {
		log.Error("failed to parse challenge_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid challenge_id"})
		return
	}

	var req PuzzleOutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result := model.PuzzleResult{
		Kind:           model.PuzzleKind(req.Kind),
		Success:        req.Success,
		ElapsedSeconds: req.ElapsedSeconds,
		TimedOut:       req.TimedOut,
	}

	outcome, err := r.pz.Resolve(c.Request.Context(), challengeID, playerID, result, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrParticipantNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "you are not part of this challenge"})
		case errors.Is(err, service.ErrPuzzleOnCooldown):
			c.JSON(http.StatusConflict, gin.H{"error": "this puzzle is on cooldown"})
		case errors.Is(err, service.ErrSabotageActive):
			c.JSON(http.StatusConflict, gin.H{"error": "target already has an active sabotage"})
		default:
			log.Error("failed to resolve puzzle outcome", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve puzzle outcome"})
		}
		return
	}

	out := gin.H{
		"kind":            outcome.Kind,
		"success":         outcome.Success,
		"title":           outcome.Title,
		"message":         outcome.Message,
		"elapsed_seconds": outcome.ElapsedSeconds,
	}
	if outcome.Reason != "" {
		out["reason"] = outcome.Reason
	}
	if outcome.OpponentSeconds != nil {
		out["opponent_seconds"] = *outcome.OpponentSeconds
	}

	c.JSON(http.StatusOK, out)
}
