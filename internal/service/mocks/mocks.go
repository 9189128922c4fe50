package mocks

import (
	"context"
	"time"

	"steprivals/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockPlayerRepository struct {
	mock.Mock
}

func (m *MockPlayerRepository) CreatePlayer(ctx context.Context, player *model.Player) error {
	args := m.Called(ctx, player)
	return args.Error(0)
}

func (m *MockPlayerRepository) GetPlayer(ctx context.Context, id uuid.UUID) (*model.Player, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Player), args.Error(1)
}

func (m *MockPlayerRepository) UpdatePlayerProfile(ctx context.Context, id uuid.UUID, displayName, avatar string) error {
	args := m.Called(ctx, id, displayName, avatar)
	return args.Error(0)
}

func (m *MockPlayerRepository) IncrementChallengesCompleted(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockChallengeRepository struct {
	mock.Mock
}

func (m *MockChallengeRepository) CreateChallenge(ctx context.Context, challenge *model.Challenge) error {
	args := m.Called(ctx, challenge)
	return args.Error(0)
}

func (m *MockChallengeRepository) GetChallengeByID(ctx context.Context, id uuid.UUID) (*model.Challenge, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Challenge), args.Error(1)
}

func (m *MockChallengeRepository) GetChallengeByJoinCode(ctx context.Context, code string) (*model.Challenge, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Challenge), args.Error(1)
}

func (m *MockChallengeRepository) AddParticipant(ctx context.Context, challengeID, playerID uuid.UUID, joinedAt time.Time) error {
	args := m.Called(ctx, challengeID, playerID, joinedAt)
	return args.Error(0)
}

func (m *MockChallengeRepository) StartChallenge(ctx context.Context, id uuid.UUID, startedAt time.Time) error {
	args := m.Called(ctx, id, startedAt)
	return args.Error(0)
}

func (m *MockChallengeRepository) AddExtension(ctx context.Context, id uuid.UUID, seconds int64) error {
	args := m.Called(ctx, id, seconds)
	return args.Error(0)
}

func (m *MockChallengeRepository) SetWinner(ctx context.Context, id, winnerID uuid.UUID, finishedAt time.Time) error {
	args := m.Called(ctx, id, winnerID, finishedAt)
	return args.Error(0)
}

func (m *MockChallengeRepository) SetChallengeStatus(ctx context.Context, id uuid.UUID, status model.ChallengeStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockChallengeRepository) ListLiveChallenges(ctx context.Context) ([]*model.Challenge, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Challenge), args.Error(1)
}

type MockParticipantRepository struct {
	mock.Mock
}

func (m *MockParticipantRepository) GetParticipant(ctx context.Context, challengeID, playerID uuid.UUID) (*model.Participant, error) {
	args := m.Called(ctx, challengeID, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Participant), args.Error(1)
}

func (m *MockParticipantRepository) ListParticipants(ctx context.Context, challengeID uuid.UUID) ([]*model.Participant, error) {
	args := m.Called(ctx, challengeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Participant), args.Error(1)
}

func (m *MockParticipantRepository) UpdateProgress(ctx context.Context, challengeID, playerID uuid.UUID, steps int64, progress float64, state model.CharacterState, stepsDelta int64, updatedAt time.Time) error {
	args := m.Called(ctx, challengeID, playerID, steps, progress, state, stepsDelta, updatedAt)
	return args.Error(0)
}

func (m *MockParticipantRepository) ApplySabotage(ctx context.Context, challengeID, targetID uuid.UUID, sabotage *model.Sabotage) error {
	args := m.Called(ctx, challengeID, targetID, sabotage)
	return args.Error(0)
}

func (m *MockParticipantRepository) ClearSabotage(ctx context.Context, challengeID, playerID uuid.UUID) error {
	args := m.Called(ctx, challengeID, playerID)
	return args.Error(0)
}

func (m *MockParticipantRepository) MarkSoloPuzzleFailed(ctx context.Context, challengeID, playerID uuid.UUID, failedAt time.Time) error {
	args := m.Called(ctx, challengeID, playerID, failedAt)
	return args.Error(0)
}

func (m *MockParticipantRepository) MarkAttackPuzzleFailed(ctx context.Context, challengeID, playerID uuid.UUID, failedAt time.Time) error {
	args := m.Called(ctx, challengeID, playerID, failedAt)
	return args.Error(0)
}

func (m *MockParticipantRepository) MarkAttackSucceeded(ctx context.Context, challengeID, playerID uuid.UUID, succeededAt time.Time) error {
	args := m.Called(ctx, challengeID, playerID, succeededAt)
	return args.Error(0)
}

func (m *MockParticipantRepository) SetFinishResult(ctx context.Context, challengeID, playerID uuid.UUID, finishedAt time.Time, place int) error {
	args := m.Called(ctx, challengeID, playerID, finishedAt, place)
	return args.Error(0)
}

func (m *MockParticipantRepository) MarkResultSeen(ctx context.Context, challengeID, playerID uuid.UUID) error {
	args := m.Called(ctx, challengeID, playerID)
	return args.Error(0)
}

type MockStepSource struct {
	mock.Mock
}

func (m *MockStepSource) Steps(ctx context.Context, playerID uuid.UUID, from, to time.Time) (int64, error) {
	args := m.Called(ctx, playerID, from, to)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStepSource) Authorized(ctx context.Context, playerID uuid.UUID) (bool, error) {
	args := m.Called(ctx, playerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStepSource) RequestAuthorization(ctx context.Context, playerID uuid.UUID) error {
	args := m.Called(ctx, playerID)
	return args.Error(0)
}
