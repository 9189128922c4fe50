package auth

import (
	"net/http"
	"strings"
	"time"

	"steprivals/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const playerContextKey = "player_id"

type PlayerAuth struct {
	secret   []byte
	tokenTTL time.Duration
}

func NewPlayerAuth(secret string, tokenTTL time.Duration) *PlayerAuth {
	return &PlayerAuth{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

// IssueToken mints a session token for the player. Tokens are handed out at
// registration and carry only the player id.
func (a *PlayerAuth) IssueToken(playerID uuid.UUID) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   playerID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func (a *PlayerAuth) ParseToken(raw string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return uuid.Nil, jwt.ErrTokenInvalidClaims
	}

	return uuid.Parse(claims.Subject)
}

func (a *PlayerAuth) PlayerAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Info("missing authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			log.Info("invalid authorization header format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}

		raw := strings.TrimPrefix(authHeader, "Bearer ")
		playerID, err := a.ParseToken(raw)
		if err != nil {
			log.Info("invalid session token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session token"})
			return
		}

		c.Set(playerContextKey, playerID)
		c.Next()
	}
}

// PlayerID extracts the authenticated player id set by the middleware.
func PlayerID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(playerContextKey)
	if !exists {
		return uuid.Nil, false
	}

	playerID, ok := value.(uuid.UUID)
	if !ok {
		return uuid.Nil, false
	}

	return playerID, true
}
