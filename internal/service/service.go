package service

import (
	"context"
	"errors"
	"time"

	"steprivals/internal/model"

	"github.com/google/uuid"
)

var (
	ErrPlayerNotFound      = errors.New("player not found")
	ErrChallengeNotFound   = errors.New("challenge not found")
	ErrParticipantNotFound = errors.New("participant not found")

	ErrChallengeFull       = errors.New("challenge is full")
	ErrChallengeEnded      = errors.New("challenge has ended")
	ErrChallengeNotWaiting = errors.New("challenge is not waiting to start")
	ErrChallengeNotActive  = errors.New("challenge is not active")
	ErrNotCreator          = errors.New("only the creator can start the challenge")

	ErrSabotageActive   = errors.New("target already has an active sabotage")
	ErrPuzzleOnCooldown = errors.New("puzzle is on cooldown")

	ErrValidation            = errors.New("validation failed")
	ErrStepSourceUnavailable = errors.New("step source unavailable")
)

type Service struct {
	*PlayerService
	*ChallengeService
	*ParticipantService
	*PuzzleService
}

func NewService(player *PlayerService, challenge *ChallengeService, participant *ParticipantService, puzzle *PuzzleService) *Service {
	return &Service{
		PlayerService:      player,
		ChallengeService:   challenge,
		ParticipantService: participant,
		PuzzleService:      puzzle,
	}
}

type PlayerServiceI interface {
	Register(ctx context.Context, displayName, avatar string) (*model.Player, error)
	GetPlayer(ctx context.Context, id uuid.UUID) (*model.Player, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, displayName, avatar string) error
}

type ChallengeServiceI interface {
	Create(ctx context.Context, creatorID uuid.UUID, name string, mode model.ChallengeMode, goalSteps int64, durationDays int) (*model.Challenge, error)
	Join(ctx context.Context, code string, playerID uuid.UUID) (*model.Challenge, error)
	Start(ctx context.Context, challengeID, requesterID uuid.UUID) (*model.Challenge, error)
	Projection(ctx context.Context, challengeID uuid.UUID, now time.Time) (*ChallengeView, error)
}

type PuzzleServiceI interface {
	Resolve(ctx context.Context, challengeID, playerID uuid.UUID, result model.PuzzleResult, now time.Time) (*model.PuzzleOutcome, error)
}

type PlayerRepository interface {
	CreatePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id uuid.UUID) (*model.Player, error)
	UpdatePlayerProfile(ctx context.Context, id uuid.UUID, displayName, avatar string) error
	IncrementChallengesCompleted(ctx context.Context, id uuid.UUID) error
}

type ChallengeRepository interface {
	CreateChallenge(ctx context.Context, challenge *model.Challenge) error
	GetChallengeByID(ctx context.Context, id uuid.UUID) (*model.Challenge, error)
	GetChallengeByJoinCode(ctx context.Context, code string) (*model.Challenge, error)
	AddParticipant(ctx context.Context, challengeID, playerID uuid.UUID, joinedAt time.Time) error
	StartChallenge(ctx context.Context, id uuid.UUID, startedAt time.Time) error
	AddExtension(ctx context.Context, id uuid.UUID, seconds int64) error
	SetWinner(ctx context.Context, id, winnerID uuid.UUID, finishedAt time.Time) error
	SetChallengeStatus(ctx context.Context, id uuid.UUID, status model.ChallengeStatus) error
	ListLiveChallenges(ctx context.Context) ([]*model.Challenge, error)
}

type ParticipantRepository interface {
	GetParticipant(ctx context.Context, challengeID, playerID uuid.UUID) (*model.Participant, error)
	ListParticipants(ctx context.Context, challengeID uuid.UUID) ([]*model.Participant, error)
	UpdateProgress(ctx context.Context, challengeID, playerID uuid.UUID, steps int64, progress float64, state model.CharacterState, stepsDelta int64, updatedAt time.Time) error
	ApplySabotage(ctx context.Context, challengeID, targetID uuid.UUID, sabotage *model.Sabotage) error
	ClearSabotage(ctx context.Context, challengeID, playerID uuid.UUID) error
	MarkSoloPuzzleFailed(ctx context.Context, challengeID, playerID uuid.UUID, failedAt time.Time) error
	MarkAttackPuzzleFailed(ctx context.Context, challengeID, playerID uuid.UUID, failedAt time.Time) error
	MarkAttackSucceeded(ctx context.Context, challengeID, playerID uuid.UUID, succeededAt time.Time) error
	SetFinishResult(ctx context.Context, challengeID, playerID uuid.UUID, finishedAt time.Time, place int) error
	MarkResultSeen(ctx context.Context, challengeID, playerID uuid.UUID) error
}
