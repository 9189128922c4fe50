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

type challengeRoutes struct {
	cs service.ChallengeServiceI
	pt *service.ParticipantService
	a  *auth.PlayerAuth
}

func NewChallengeRoutes(handler *gin.RouterGroup, cs service.ChallengeServiceI, pt *service.ParticipantService, a *auth.PlayerAuth) {
	r := &challengeRoutes{cs: cs, pt: pt, a: a}
	h := handler.Group("/challenges")
	h.Use(a.PlayerAuthMiddleware())
	{
		h.POST("/", r.CreateChallenge)
		h.POST("/join", r.JoinChallenge)
		h.POST("/:challenge_id/start", r.StartChallenge)
		h.GET("/:challenge_id", r.GetChallenge)
		h.POST("/:challenge_id/steps", r.SyncSteps)
		h.POST("/:challenge_id/result-seen", r.MarkResultSeen)
	}
}

type CreateChallengeRequest struct {
	Name         string `json:"name"`
	Mode         string `json:"mode"`
	GoalSteps    int64  `json:"goal_steps"`
	DurationDays int    `json:"duration_days"`
}

func (r *challengeRoutes) CreateChallenge(c *gin.Context) {
	log := logger.Logger()

	playerID, exists := auth.PlayerID(c)
	if !exists {
		log.Error("player id not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	var req CreateChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	challenge, err := r.cs.Create(c.Request.Context(), playerID, req.Name, model.ChallengeMode(req.Mode), req.GoalSteps, req.DurationDays)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error("failed to create challenge", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create challenge"})
		return
	}

	c.JSON(http.StatusCreated, challengeJSON(challenge))
}

type JoinChallengeRequest struct {
	JoinCode string `json:"join_code"`
}

func (r *challengeRoutes) JoinChallenge(c *gin.Context) {
	log := logger.Logger()

	playerID, exists := auth.PlayerID(c)
	if !exists {
		log.Error("player id not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	var req JoinChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	challenge, err := r.cs.Join(c.Request.Context(), req.JoinCode, playerID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrChallengeNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "no challenge matches the provided join code"})
		case errors.Is(err, service.ErrChallengeFull):
			c.JSON(http.StatusConflict, gin.H{"error": "challenge is already full"})
		case errors.Is(err, service.ErrChallengeEnded):
			c.JSON(http.StatusConflict, gin.H{"error": "challenge has already ended"})
		default:
			log.Error("failed to join challenge", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join challenge"})
		}
		return
	}

	c.JSON(http.StatusOK, challengeJSON(challenge))
}

func (r *challengeRoutes) StartChallenge(c *gin.Context) {
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

	challenge, err := r.cs.Start(c.Request.Context(), challengeID, playerID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrChallengeNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "challenge not found"})
		case errors.Is(err, service.ErrNotCreator):
			c.JSON(http.StatusForbidden, gin.H{"error": "only the creator can start the challenge"})
		case errors.Is(err, service.ErrChallengeNotWaiting):
			c.JSON(http.StatusConflict, gin.H{"error": "challenge is not waiting to start"})
		default:
			log.Error("failed to start challenge", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start challenge"})
		}
		return
	}

	c.JSON(http.StatusOK, challengeJSON(challenge))
}

func (r *challengeRoutes) GetChallenge(c *gin.Context) {
	log := logger.Logger()

	challengeID, err := uuid.Parse(c.Param("challenge_id"))
	if err != nil {
		log.Error("failed to parse challenge_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid challenge_id"})
		return
	}

	view, err := r.cs.Projection(c.Request.Context(), challengeID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, service.ErrChallengeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "challenge not found"})
			return
		}
		log.Error("failed to get challenge", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get challenge"})
		return
	}

	c.JSON(http.StatusOK, viewJSON(view, time.Now().UTC()))
}

func (r *challengeRoutes) SyncSteps(c *gin.Context) {
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

	now := time.Now().UTC()
	participant, err := r.pt.SyncByID(c.Request.Context(), challengeID, playerID, now)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrChallengeNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "challenge not found"})
		case errors.Is(err, service.ErrParticipantNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "you are not part of this challenge"})
		case errors.Is(err, service.ErrChallengeNotActive):
			c.JSON(http.StatusConflict, gin.H{"error": "challenge is not active"})
		case errors.Is(err, service.ErrStepSourceUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "step source unavailable"})
		default:
			log.Error("failed to sync steps", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sync steps"})
		}
		return
	}

	c.JSON(http.StatusOK, participantJSON(participant, now))
}

func (r *challengeRoutes) MarkResultSeen(c *gin.Context) {
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

	err = r.pt.MarkResultSeen(c.Request.Context(), challengeID, playerID)
	if err != nil {
		if errors.Is(err, service.ErrParticipantNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "you are not part of this challenge"})
			return
		}
		log.Error("failed to mark result seen", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark result seen"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result_seen": true})
}

func challengeJSON(challenge *model.Challenge) gin.H {
	return gin.H{
		"challenge_id":       challenge.ID,
		"name":               challenge.Name,
		"join_code":          challenge.JoinCode,
		"mode":               challenge.Mode,
		"original_mode":      challenge.OriginalMode,
		"current_mode":       challenge.CurrentMode(),
		"goal_steps":         challenge.GoalSteps,
		"duration_days":      challenge.DurationDays,
		"status":             challenge.Status,
		"created_by":         challenge.CreatedBy,
		"player_ids":         challenge.PlayerIDs,
		"start_date":         challenge.StartDate,
		"end_date":           challenge.EndDate,
		"extension_seconds":  challenge.ExtensionSeconds,
		"effective_end_date": challenge.EffectiveEndDate(),
		"started_at":         challenge.StartedAt,
		"winner_id":          challenge.WinnerID,
		"winner_finished_at": challenge.WinnerFinishedAt,
	}
}

func participantJSON(p *model.Participant, now time.Time) gin.H {
	out := gin.H{
		"challenge_id":    p.ChallengeID,
		"player_id":       p.PlayerID,
		"steps":           p.Steps,
		"progress":        p.Progress,
		"character_state": p.CharacterState,
		"effective_state": p.EffectiveState(now),
		"under_sabotage":  p.UnderSabotage(now),
		"finished_at":     p.FinishedAt,
		"place":           p.Place,
		"result_seen":     p.ResultSeen,
		"updated_at":      p.UpdatedAt,
	}

	if p.Sabotage != nil {
		out["sabotage"] = gin.H{
			"state":       p.Sabotage.State,
			"expires_at":  p.Sabotage.ExpiresAt,
			"attacker_id": p.Sabotage.AttackerID,
			"attack_time": p.Sabotage.AttackTimeSeconds,
			"applied_at":  p.Sabotage.AppliedAt,
		}
	}

	return out
}

func viewJSON(view *service.ChallengeView, now time.Time) gin.H {
	participants := make([]gin.H, len(view.Participants))
	for i, p := range view.Participants {
		participants[i] = participantJSON(p, now)
	}

	out := challengeJSON(view.Challenge)
	out["current_mode"] = view.CurrentMode
	out["participants"] = participants

	if view.Rankings != nil {
		rankings := make([]gin.H, len(view.Rankings))
		for i, p := range view.Rankings {
			entry := participantJSON(p, now)
			entry["rank"] = i + 1
			rankings[i] = entry
		}
		out["rankings"] = rankings
	}

	return out
}
