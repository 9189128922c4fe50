package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"steprivals/internal/model"
	"steprivals/internal/repository"
	"steprivals/internal/stepsource"

	"github.com/google/uuid"
)

// SabotageDuration is how long an applied debuff overrides the target's
// displayed state.
const SabotageDuration = 3 * time.Hour

type ParticipantService struct {
	participants ParticipantRepository
	challenges   ChallengeRepository
	steps        stepsource.Source
}

func NewParticipantService(participants ParticipantRepository, challenges ChallengeRepository, steps stepsource.Source) *ParticipantService {
	return &ParticipantService{
		participants: participants,
		challenges:   challenges,
		steps:        steps,
	}
}

func (s *ParticipantService) GetParticipant(ctx context.Context, challengeID, playerID uuid.UUID) (*model.Participant, error) {
	participant, err := s.participants.GetParticipant(ctx, challengeID, playerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return participant, nil
}

// SyncSteps pulls the cumulative step count for the challenge window from the
// step oracle and persists the recomputed progress and mood. The oracle is
// queried from the challenge start up to now, capped at the effective end.
func (s *ParticipantService) SyncSteps(ctx context.Context, challenge *model.Challenge, participant *model.Participant, now time.Time) (*model.Participant, error) {
	if challenge.Status != model.StatusActive {
		return nil, ErrChallengeNotActive
	}

	windowEnd := now
	if effectiveEnd := challenge.EffectiveEndDate(); windowEnd.After(effectiveEnd) {
		windowEnd = effectiveEnd
	}

	steps, err := s.steps.Steps(ctx, participant.PlayerID, challenge.StartDate, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStepSourceUnavailable, err)
	}
	if steps < 0 {
		steps = 0
	}

	progress, state := EvaluateProgress(steps, challenge.GoalSteps, challenge.StartDate, challenge.EffectiveEndDate(), now)

	delta := steps - participant.Steps
	if delta < 0 {
		delta = 0
	}

	err = s.participants.UpdateProgress(ctx, challenge.ID, participant.PlayerID, steps, progress, state, delta, now)
	if err != nil {
		return nil, fmt.Errorf("failed to persist progress: %w", err)
	}

	updated := *participant
	updated.Steps = steps
	updated.Progress = progress
	updated.CharacterState = state
	updated.UpdatedAt = now
	return &updated, nil
}

// SyncByID is the explicit sync trigger used by the API.
func (s *ParticipantService) SyncByID(ctx context.Context, challengeID, playerID uuid.UUID, now time.Time) (*model.Participant, error) {
	challenge, err := s.challenges.GetChallengeByID(ctx, challengeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}

	participant, err := s.GetParticipant(ctx, challengeID, playerID)
	if err != nil {
		return nil, err
	}

	return s.SyncSteps(ctx, challenge, participant, now)
}

// Attack applies a sabotage debuff to the target. Rejected while the target
// already carries an unexpired sabotage, so the recorded attacker and solve
// time stay coherent for a later defense.
func (s *ParticipantService) Attack(ctx context.Context, challengeID, targetID, attackerID uuid.UUID, attackTimeSeconds float64, now time.Time) error {
	target, err := s.GetParticipant(ctx, challengeID, targetID)
	if err != nil {
		return err
	}

	if target.UnderSabotage(now) {
		return ErrSabotageActive
	}

	sabotage := &model.Sabotage{
		State:             model.StateDizzy,
		ExpiresAt:         now.Add(SabotageDuration),
		AttackerID:        attackerID,
		AttackTimeSeconds: attackTimeSeconds,
		AppliedAt:         now,
	}

	err = s.participants.ApplySabotage(ctx, challengeID, targetID, sabotage)
	if err != nil {
		return fmt.Errorf("failed to apply sabotage: %w", err)
	}

	return nil
}

// CancelSabotage removes the debuff after a successful defense. The
// authoritative character state reappears immediately.
func (s *ParticipantService) CancelSabotage(ctx context.Context, challengeID, playerID uuid.UUID) error {
	err := s.participants.ClearSabotage(ctx, challengeID, playerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrParticipantNotFound
		}
		return fmt.Errorf("failed to clear sabotage: %w", err)
	}
	return nil
}

func (s *ParticipantService) MarkResultSeen(ctx context.Context, challengeID, playerID uuid.UUID) error {
	err := s.participants.MarkResultSeen(ctx, challengeID, playerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrParticipantNotFound
		}
		return err
	}
	return nil
}

// StepAuthorization queries the oracle's authorization state for a player.
func (s *ParticipantService) StepAuthorization(ctx context.Context, playerID uuid.UUID) (bool, error) {
	granted, err := s.steps.Authorized(ctx, playerID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStepSourceUnavailable, err)
	}
	return granted, nil
}

func (s *ParticipantService) RequestStepAuthorization(ctx context.Context, playerID uuid.UUID) error {
	err := s.steps.RequestAuthorization(ctx, playerID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStepSourceUnavailable, err)
	}
	return nil
}
