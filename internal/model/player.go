package model

import (
	"time"

	"github.com/google/uuid"
)

type Player struct {
	ID                     uuid.UUID
	DisplayName            string
	Avatar                 string
	ChallengesParticipated int
	ChallengesCompleted    int
	LifetimeSteps          int64
	CreatedAt              time.Time
	UpdatedAt              time.Time
}
