package model

import (
	"time"

	"github.com/google/uuid"
)

type CharacterState string

const (
	StateHappy   CharacterState = "happy"
	StateNeutral CharacterState = "neutral"
	StateLazy    CharacterState = "lazy"
	StateDizzy   CharacterState = "dizzy"
)

// PuzzleCooldown is the lock applied after a failed solo or attack puzzle.
const PuzzleCooldown = 24 * time.Hour

// Sabotage is a temporary debuff applied by a rival. A nil Sabotage means
// no attack has been recorded; an expired one behaves the same on reads.
type Sabotage struct {
	State             CharacterState
	ExpiresAt         time.Time
	AttackerID        uuid.UUID
	AttackTimeSeconds float64
	AppliedAt         time.Time
}

func (s *Sabotage) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

type Participant struct {
	ChallengeID uuid.UUID
	PlayerID    uuid.UUID
	Steps       int64
	Progress    float64

	// CharacterState is the authoritative mood computed from progress.
	// Sabotage overrides it at read time only, via EffectiveState.
	CharacterState CharacterState
	Sabotage       *Sabotage

	SoloPuzzleFailedAt        *time.Time
	GroupAttackPuzzleFailedAt *time.Time
	GroupAttackSucceededAt    *time.Time

	FinishedAt *time.Time
	Place      *int
	ResultSeen bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EffectiveState returns the sabotage state while an unexpired sabotage is
// set, the authoritative state otherwise.
func (p *Participant) EffectiveState(now time.Time) CharacterState {
	if p.UnderSabotage(now) {
		return p.Sabotage.State
	}
	return p.CharacterState
}

func (p *Participant) UnderSabotage(now time.Time) bool {
	return p.Sabotage != nil && !p.Sabotage.Expired(now)
}

func (p *Participant) Finished() bool {
	return p.FinishedAt != nil
}

func (p *Participant) CanAttemptSoloPuzzle(now time.Time) bool {
	return p.SoloPuzzleFailedAt == nil || !now.Before(p.SoloPuzzleFailedAt.Add(PuzzleCooldown))
}

func (p *Participant) CanAttemptAttackPuzzle(now time.Time) bool {
	return p.GroupAttackPuzzleFailedAt == nil || !now.Before(p.GroupAttackPuzzleFailedAt.Add(PuzzleCooldown))
}
