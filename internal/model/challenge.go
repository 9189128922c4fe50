package model

import (
	"time"

	"github.com/google/uuid"
)

type ChallengeMode string

const (
	ModeSolo   ChallengeMode = "solo"
	ModeSocial ChallengeMode = "social"
)

type ChallengeStatus string

const (
	StatusWaiting ChallengeStatus = "waiting"
	StatusActive  ChallengeStatus = "active"
	StatusEnded   ChallengeStatus = "ended"
)

const (
	MaxGroupPlayers = 4
	JoinCodeLength  = 6
)

type Challenge struct {
	ID           uuid.UUID
	Name         string
	JoinCode     string
	Mode         ChallengeMode
	OriginalMode ChallengeMode
	GoalSteps    int64
	DurationDays int
	Status       ChallengeStatus
	CreatedBy    uuid.UUID
	PlayerIDs    []uuid.UUID
	StartDate    time.Time
	EndDate      time.Time

	// Cumulative bonus time earned via solo puzzles, in seconds.
	ExtensionSeconds int64

	CreatedAt        time.Time
	StartedAt        *time.Time
	WinnerID         *uuid.UUID
	WinnerFinishedAt *time.Time
}

func (c *Challenge) MaxPlayers() int {
	if c.OriginalMode == ModeSolo {
		return 1
	}
	return MaxGroupPlayers
}

func (c *Challenge) IsFull() bool {
	return len(c.PlayerIDs) >= c.MaxPlayers()
}

// AcceptsJoins reports whether a new player may still join.
func (c *Challenge) AcceptsJoins() bool {
	if c.IsFull() {
		return false
	}
	return c.Status == StatusActive || c.Status == StatusWaiting
}

// CurrentMode degrades a social challenge that lost all but one player to
// solo semantics. The stored Mode and OriginalMode are left untouched.
func (c *Challenge) CurrentMode() ChallengeMode {
	if c.OriginalMode == ModeSocial && len(c.PlayerIDs) == 1 {
		return ModeSolo
	}
	return c.Mode
}

// EffectiveEndDate is the only moment at which "time is up" is evaluated.
func (c *Challenge) EffectiveEndDate() time.Time {
	return c.EndDate.Add(time.Duration(c.ExtensionSeconds) * time.Second)
}

func (c *Challenge) TimeIsUp(now time.Time) bool {
	return !now.Before(c.EffectiveEndDate())
}

func (c *Challenge) HasPlayer(playerID uuid.UUID) bool {
	for _, id := range c.PlayerIDs {
		if id == playerID {
			return true
		}
	}
	return false
}
