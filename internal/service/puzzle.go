package service

import (
	"context"
	"fmt"
	"time"

	"steprivals/internal/model"

	"github.com/google/uuid"
)

type PuzzleService struct {
	challenges   *ChallengeService
	participants *ParticipantService
	repo         ParticipantRepository
}

func NewPuzzleService(challenges *ChallengeService, participants *ParticipantService, repo ParticipantRepository) *PuzzleService {
	return &PuzzleService{
		challenges:   challenges,
		participants: participants,
		repo:         repo,
	}
}

// Resolve interprets a mini-game result and applies the matching state
// mutation. The returned outcome is display data only; every mutation has
// already happened by the time it is built.
func (s *PuzzleService) Resolve(ctx context.Context, challengeID, playerID uuid.UUID, result model.PuzzleResult, now time.Time) (*model.PuzzleOutcome, error) {
	actor, err := s.participants.GetParticipant(ctx, challengeID, playerID)
	if err != nil {
		return nil, err
	}

	switch result.Kind {
	case model.PuzzleSoloExtension:
		return s.resolveSoloExtension(ctx, challengeID, actor, result, now)
	case model.PuzzleGroupAttack:
		return s.resolveGroupAttack(ctx, challengeID, actor, result, now)
	case model.PuzzleGroupDefense:
		return s.resolveGroupDefense(ctx, challengeID, actor, result, now)
	default:
		return nil, fmt.Errorf("%w: unknown puzzle kind %q", ErrValidation, result.Kind)
	}
}

func (s *PuzzleService) resolveSoloExtension(ctx context.Context, challengeID uuid.UUID, actor *model.Participant, result model.PuzzleResult, now time.Time) (*model.PuzzleOutcome, error) {
	if !actor.CanAttemptSoloPuzzle(now) {
		return nil, ErrPuzzleOnCooldown
	}

	if result.Success {
		err := s.challenges.ExtendByOneDay(ctx, challengeID)
		if err != nil {
			return nil, fmt.Errorf("failed to extend challenge: %w", err)
		}

		return &model.PuzzleOutcome{
			Kind:           model.PuzzleSoloExtension,
			Success:        true,
			Title:          "Extra day earned!",
			Message:        "Your deadline moved one day further out.",
			ElapsedSeconds: result.ElapsedSeconds,
		}, nil
	}

	err := s.repo.MarkSoloPuzzleFailed(ctx, challengeID, actor.PlayerID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to record solo puzzle failure: %w", err)
	}

	return &model.PuzzleOutcome{
		Kind:           model.PuzzleSoloExtension,
		Success:        false,
		Title:          "No extra time",
		Message:        "The puzzle got the better of you. Try again tomorrow.",
		Reason:         failureReason(result),
		ElapsedSeconds: result.ElapsedSeconds,
	}, nil
}

func (s *PuzzleService) resolveGroupAttack(ctx context.Context, challengeID uuid.UUID, actor *model.Participant, result model.PuzzleResult, now time.Time) (*model.PuzzleOutcome, error) {
	if !actor.CanAttemptAttackPuzzle(now) {
		return nil, ErrPuzzleOnCooldown
	}

	if !result.Success {
		err := s.repo.MarkAttackPuzzleFailed(ctx, challengeID, actor.PlayerID, now)
		if err != nil {
			return nil, fmt.Errorf("failed to record attack puzzle failure: %w", err)
		}

		return &model.PuzzleOutcome{
			Kind:           model.PuzzleGroupAttack,
			Success:        false,
			Title:          "Attack failed",
			Message:        "You fumbled the wires. No sabotage this time.",
			Reason:         failureReason(result),
			ElapsedSeconds: result.ElapsedSeconds,
		}, nil
	}

	target, err := s.leadingOpponent(ctx, challengeID, actor.PlayerID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return &model.PuzzleOutcome{
			Kind:           model.PuzzleGroupAttack,
			Success:        false,
			Title:          "Nobody to sabotage",
			Message:        "There is no rival ahead of you to attack.",
			Reason:         model.ReasonNoValidTarget,
			ElapsedSeconds: result.ElapsedSeconds,
		}, nil
	}

	err = s.participants.Attack(ctx, challengeID, target.PlayerID, actor.PlayerID, result.ElapsedSeconds, now)
	if err != nil {
		return nil, err
	}

	err = s.repo.MarkAttackSucceeded(ctx, challengeID, actor.PlayerID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to record attack success: %w", err)
	}

	return &model.PuzzleOutcome{
		Kind:           model.PuzzleGroupAttack,
		Success:        true,
		Title:          "Sabotage!",
		Message:        "The leader is dizzy for the next three hours.",
		ElapsedSeconds: result.ElapsedSeconds,
	}, nil
}

func (s *PuzzleService) resolveGroupDefense(ctx context.Context, challengeID uuid.UUID, actor *model.Participant, result model.PuzzleResult, now time.Time) (*model.PuzzleOutcome, error) {
	// Defense is a rescue action: never gated by a cooldown.
	if actor.Sabotage == nil {
		return &model.PuzzleOutcome{
			Kind:           model.PuzzleGroupDefense,
			Success:        false,
			Title:          "Nothing to defend",
			Message:        "No active attack was found on you.",
			Reason:         model.ReasonNoActiveAttack,
			ElapsedSeconds: result.ElapsedSeconds,
		}, nil
	}

	opponentSeconds := actor.Sabotage.AttackTimeSeconds

	if !result.Success {
		return &model.PuzzleOutcome{
			Kind:            model.PuzzleGroupDefense,
			Success:         false,
			Title:           "Defense failed",
			Message:         "The sabotage holds.",
			Reason:          failureReason(result),
			ElapsedSeconds:  result.ElapsedSeconds,
			OpponentSeconds: &opponentSeconds,
		}, nil
	}

	if result.ElapsedSeconds > opponentSeconds {
		return &model.PuzzleOutcome{
			Kind:            model.PuzzleGroupDefense,
			Success:         false,
			Title:           "Too slow",
			Message:         fmt.Sprintf("You solved it in %.1fs, but your rival needed only %.1fs.", result.ElapsedSeconds, opponentSeconds),
			Reason:          model.ReasonSlowerThanOpponent,
			ElapsedSeconds:  result.ElapsedSeconds,
			OpponentSeconds: &opponentSeconds,
		}, nil
	}

	err := s.participants.CancelSabotage(ctx, challengeID, actor.PlayerID)
	if err != nil {
		return nil, err
	}

	return &model.PuzzleOutcome{
		Kind:            model.PuzzleGroupDefense,
		Success:         true,
		Title:           "Sabotage repelled!",
		Message:         "You out-solved your attacker. The debuff is gone.",
		ElapsedSeconds:  result.ElapsedSeconds,
		OpponentSeconds: &opponentSeconds,
	}, nil
}

// leadingOpponent finds the attack target: the participant with the most
// steps, excluding the attacker. Nil when the attacker has no opponents.
func (s *PuzzleService) leadingOpponent(ctx context.Context, challengeID, attackerID uuid.UUID) (*model.Participant, error) {
	participants, err := s.repo.ListParticipants(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	var leader *model.Participant
	for _, p := range participants {
		if p.PlayerID == attackerID {
			continue
		}
		if leader == nil || p.Steps > leader.Steps {
			leader = p
		}
	}

	return leader, nil
}

func failureReason(result model.PuzzleResult) model.PuzzleReason {
	if result.TimedOut {
		return model.ReasonTimedOut
	}
	return model.ReasonNotSolved
}
