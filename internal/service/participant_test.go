package service

import (
	"context"
	"testing"
	"time"

	"steprivals/internal/model"
	"steprivals/internal/service/mocks"
	"steprivals/internal/stepsource"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newParticipantService() (*ParticipantService, *mocks.MockChallengeRepository, *mocks.MockParticipantRepository, *mocks.MockStepSource) {
	challengeRepo := &mocks.MockChallengeRepository{}
	participantRepo := &mocks.MockParticipantRepository{}
	stepSource := &mocks.MockStepSource{}
	return NewParticipantService(participantRepo, challengeRepo, stepSource), challengeRepo, participantRepo, stepSource
}

func TestParticipantService_SyncSteps(t *testing.T) {
	challengeID := uuid.New()
	playerID := uuid.New()

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	challenge := func(status model.ChallengeStatus) *model.Challenge {
		return &model.Challenge{
			ID:        challengeID,
			Mode:      model.ModeSolo,
			Status:    status,
			GoalSteps: 10000,
			PlayerIDs: []uuid.UUID{playerID},
			StartDate: start,
			EndDate:   start.Add(72 * time.Hour),
		}
	}

	t.Run("persists oracle steps with recomputed mood", func(t *testing.T) {
		service, _, participantRepo, stepSource := newParticipantService()
		now := start.Add(36 * time.Hour)

		stepSource.On("Steps", mock.Anything, playerID, start, now).Return(int64(8000), nil)
		participantRepo.On("UpdateProgress", mock.Anything, challengeID, playerID,
			int64(8000), 0.8, model.StateHappy, int64(3000), now).Return(nil)

		participant := &model.Participant{ChallengeID: challengeID, PlayerID: playerID, Steps: 5000}
		updated, err := service.SyncSteps(context.Background(), challenge(model.StatusActive), participant, now)

		assert.NoError(t, err)
		assert.Equal(t, int64(8000), updated.Steps)
		assert.Equal(t, model.StateHappy, updated.CharacterState)
		assert.InDelta(t, 0.8, updated.Progress, 1e-9)

		// The input participant is left untouched.
		assert.Equal(t, int64(5000), participant.Steps)
		participantRepo.AssertExpectations(t)
	})

	t.Run("oracle window is capped at the effective end", func(t *testing.T) {
		service, _, participantRepo, stepSource := newParticipantService()

		c := challenge(model.StatusActive)
		now := c.EndDate.Add(time.Hour)

		stepSource.On("Steps", mock.Anything, playerID, start, c.EndDate).Return(int64(12000), nil)
		participantRepo.On("UpdateProgress", mock.Anything, challengeID, playerID,
			int64(12000), 1.0, mock.Anything, int64(12000), now).Return(nil)

		participant := &model.Participant{ChallengeID: challengeID, PlayerID: playerID}
		updated, err := service.SyncSteps(context.Background(), c, participant, now)

		assert.NoError(t, err)
		assert.Equal(t, int64(12000), updated.Steps)
		stepSource.AssertExpectations(t)
	})

	t.Run("a shrinking oracle total never yields a negative delta", func(t *testing.T) {
		service, _, participantRepo, stepSource := newParticipantService()
		now := start.Add(36 * time.Hour)

		stepSource.On("Steps", mock.Anything, playerID, start, now).Return(int64(4000), nil)
		participantRepo.On("UpdateProgress", mock.Anything, challengeID, playerID,
			int64(4000), mock.Anything, mock.Anything, int64(0), now).Return(nil)

		participant := &model.Participant{ChallengeID: challengeID, PlayerID: playerID, Steps: 5000}
		_, err := service.SyncSteps(context.Background(), challenge(model.StatusActive), participant, now)

		assert.NoError(t, err)
		participantRepo.AssertExpectations(t)
	})

	t.Run("inactive challenge is rejected", func(t *testing.T) {
		service, _, _, _ := newParticipantService()

		participant := &model.Participant{ChallengeID: challengeID, PlayerID: playerID}
		_, err := service.SyncSteps(context.Background(), challenge(model.StatusWaiting), participant, start)

		assert.ErrorIs(t, err, ErrChallengeNotActive)
	})

	t.Run("oracle failure surfaces as unavailability", func(t *testing.T) {
		service, _, participantRepo, stepSource := newParticipantService()
		now := start.Add(time.Hour)

		stepSource.On("Steps", mock.Anything, playerID, start, now).
			Return(int64(0), stepsource.ErrUnavailable)

		participant := &model.Participant{ChallengeID: challengeID, PlayerID: playerID}
		_, err := service.SyncSteps(context.Background(), challenge(model.StatusActive), participant, now)

		assert.ErrorIs(t, err, ErrStepSourceUnavailable)
		participantRepo.AssertNotCalled(t, "UpdateProgress",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything,
			mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestParticipantService_Attack(t *testing.T) {
	challengeID := uuid.New()
	targetID := uuid.New()
	attackerID := uuid.New()
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	t.Run("applies a three hour debuff", func(t *testing.T) {
		service, _, participantRepo, _ := newParticipantService()

		participantRepo.On("GetParticipant", mock.Anything, challengeID, targetID).
			Return(&model.Participant{ChallengeID: challengeID, PlayerID: targetID}, nil)
		participantRepo.On("ApplySabotage", mock.Anything, challengeID, targetID, mock.MatchedBy(func(s *model.Sabotage) bool {
			return s.State == model.StateDizzy &&
				s.AttackerID == attackerID &&
				s.ExpiresAt.Equal(now.Add(3*time.Hour)) &&
				s.AppliedAt.Equal(now)
		})).Return(nil)

		err := service.Attack(context.Background(), challengeID, targetID, attackerID, 9.9, now)

		assert.NoError(t, err)
		participantRepo.AssertExpectations(t)
	})

	t.Run("rejects stacking on an active sabotage", func(t *testing.T) {
		service, _, participantRepo, _ := newParticipantService()

		participantRepo.On("GetParticipant", mock.Anything, challengeID, targetID).
			Return(&model.Participant{
				ChallengeID: challengeID,
				PlayerID:    targetID,
				Sabotage: &model.Sabotage{
					State:      model.StateDizzy,
					ExpiresAt:  now.Add(time.Hour),
					AttackerID: uuid.New(),
				},
			}, nil)

		err := service.Attack(context.Background(), challengeID, targetID, attackerID, 9.9, now)

		assert.ErrorIs(t, err, ErrSabotageActive)
	})

	t.Run("an expired sabotage does not block a new attack", func(t *testing.T) {
		service, _, participantRepo, _ := newParticipantService()

		participantRepo.On("GetParticipant", mock.Anything, challengeID, targetID).
			Return(&model.Participant{
				ChallengeID: challengeID,
				PlayerID:    targetID,
				Sabotage: &model.Sabotage{
					State:      model.StateDizzy,
					ExpiresAt:  now.Add(-time.Minute),
					AttackerID: uuid.New(),
				},
			}, nil)
		participantRepo.On("ApplySabotage", mock.Anything, challengeID, targetID, mock.Anything).Return(nil)

		err := service.Attack(context.Background(), challengeID, targetID, attackerID, 9.9, now)

		assert.NoError(t, err)
		participantRepo.AssertExpectations(t)
	})
}
