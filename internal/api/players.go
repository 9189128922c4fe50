package api

import (
	"errors"
	"net/http"

	"steprivals/internal/service"
	"steprivals/pkg/auth"
	"steprivals/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type playerRoutes struct {
	ps service.PlayerServiceI
	pt *service.ParticipantService
	a  *auth.PlayerAuth
}

func NewPlayerRoutes(handler *gin.RouterGroup, ps service.PlayerServiceI, pt *service.ParticipantService, a *auth.PlayerAuth) {
	r := &playerRoutes{ps: ps, pt: pt, a: a}
	h := handler.Group("/players")
	{
		h.POST("/", r.RegisterPlayer)

		authed := h.Group("")
		authed.Use(a.PlayerAuthMiddleware())
		{
			authed.GET("/:player_id", r.GetPlayer)
			authed.PATCH("/:player_id", r.UpdateProfile)
			authed.GET("/:player_id/step-authorization", r.GetStepAuthorization)
			authed.POST("/:player_id/step-authorization", r.RequestStepAuthorization)
		}
	}
}

type RegisterPlayerRequest struct {
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar"`
}

type RegisterPlayerResponse struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	Token       string `json:"token"`
}

func (r *playerRoutes) RegisterPlayer(c *gin.Context) {
	log := logger.Logger()

	var req RegisterPlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	player, err := r.ps.Register(c.Request.Context(), req.DisplayName, req.Avatar)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error("failed to register player", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register player"})
		return
	}

	token, err := r.a.IssueToken(player.ID)
	if err != nil {
		log.Error("failed to issue session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue session token"})
		return
	}

	c.JSON(http.StatusCreated, RegisterPlayerResponse{
		PlayerID:    player.ID.String(),
		DisplayName: player.DisplayName,
		Token:       token,
	})
}

func (r *playerRoutes) GetPlayer(c *gin.Context) {
	log := logger.Logger()

	playerID, err := uuid.Parse(c.Param("player_id"))
	if err != nil {
		log.Error("failed to parse player_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player_id"})
		return
	}

	player, err := r.ps.GetPlayer(c.Request.Context(), playerID)
	if err != nil {
		if errors.Is(err, service.ErrPlayerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no player associated with the provided player_id"})
			return
		}
		log.Error("failed to get player", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get player"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"player_id":               player.ID,
		"display_name":            player.DisplayName,
		"avatar":                  player.Avatar,
		"challenges_participated": player.ChallengesParticipated,
		"challenges_completed":    player.ChallengesCompleted,
		"lifetime_steps":          player.LifetimeSteps,
		"created_at":              player.CreatedAt,
	})
}

type UpdateProfileRequest struct {
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar"`
}

func (r *playerRoutes) UpdateProfile(c *gin.Context) {
	log := logger.Logger()

	playerID, ok := requireSelf(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := r.ps.UpdateProfile(c.Request.Context(), playerID, req.DisplayName, req.Avatar)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrPlayerNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
		default:
			log.Error("failed to update profile", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"player_id":    playerID,
		"display_name": req.DisplayName,
		"avatar":       req.Avatar,
	})
}

func (r *playerRoutes) GetStepAuthorization(c *gin.Context) {
	log := logger.Logger()

	playerID, ok := requireSelf(c)
	if !ok {
		return
	}

	granted, err := r.pt.StepAuthorization(c.Request.Context(), playerID)
	if err != nil {
		log.Error("failed to query step authorization", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "step source unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"granted": granted})
}

func (r *playerRoutes) RequestStepAuthorization(c *gin.Context) {
	log := logger.Logger()

	playerID, ok := requireSelf(c)
	if !ok {
		return
	}

	err := r.pt.RequestStepAuthorization(c.Request.Context(), playerID)
	if err != nil {
		log.Error("failed to request step authorization", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "step source unavailable"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"requested": true})
}

// requireSelf resolves the path player and rejects requests on behalf of
// someone else.
func requireSelf(c *gin.Context) (uuid.UUID, bool) {
	log := logger.Logger()

	playerID, err := uuid.Parse(c.Param("player_id"))
	if err != nil {
		log.Error("failed to parse player_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player_id"})
		return uuid.Nil, false
	}

	authed, exists := auth.PlayerID(c)
	if !exists {
		log.Error("player id not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return uuid.Nil, false
	}

	if authed != playerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot act on behalf of another player"})
		return uuid.Nil, false
	}

	return playerID, true
}
