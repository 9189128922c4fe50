package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"steprivals/internal/model"
	"steprivals/internal/repository"
	"steprivals/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newChallengeService() (*ChallengeService, *mocks.MockChallengeRepository, *mocks.MockParticipantRepository, *mocks.MockPlayerRepository) {
	challengeRepo := &mocks.MockChallengeRepository{}
	participantRepo := &mocks.MockParticipantRepository{}
	playerRepo := &mocks.MockPlayerRepository{}
	return NewChallengeService(challengeRepo, participantRepo, playerRepo), challengeRepo, participantRepo, playerRepo
}

func TestChallengeService_Create(t *testing.T) {
	creator := uuid.New()

	tests := []struct {
		name          string
		mode          model.ChallengeMode
		goal          int64
		days          int
		challengeName string
		expectedError error
		check         func(*testing.T, *model.Challenge)
	}{
		{
			name:          "solo challenge starts active",
			mode:          model.ModeSolo,
			goal:          10000,
			days:          3,
			challengeName: "Morning walks",
			check: func(t *testing.T, c *model.Challenge) {
				assert.Equal(t, model.StatusActive, c.Status)
				assert.NotNil(t, c.StartedAt)
				assert.Equal(t, 1, c.MaxPlayers())
			},
		},
		{
			name:          "social challenge waits for host",
			mode:          model.ModeSocial,
			goal:          50000,
			days:          7,
			challengeName: "Office showdown",
			check: func(t *testing.T, c *model.Challenge) {
				assert.Equal(t, model.StatusWaiting, c.Status)
				assert.Nil(t, c.StartedAt)
				assert.Equal(t, model.MaxGroupPlayers, c.MaxPlayers())
			},
		},
		{
			name:          "empty name rejected",
			mode:          model.ModeSolo,
			goal:          10000,
			days:          3,
			challengeName: "",
			expectedError: ErrValidation,
		},
		{
			name:          "multibyte name measured in runes",
			mode:          model.ModeSolo,
			goal:          10000,
			days:          3,
			challengeName: strings.Repeat("歩", 40),
			check: func(t *testing.T, c *model.Challenge) {
				assert.Equal(t, strings.Repeat("歩", 40), c.Name)
			},
		},
		{
			name:          "name over the rune limit rejected",
			mode:          model.ModeSolo,
			goal:          10000,
			days:          3,
			challengeName: strings.Repeat("歩", 65),
			expectedError: ErrValidation,
		},
		{
			name:          "goal too small rejected",
			mode:          model.ModeSolo,
			goal:          500,
			days:          3,
			challengeName: "Tiny",
			expectedError: ErrValidation,
		},
		{
			name:          "duration out of range rejected",
			mode:          model.ModeSolo,
			goal:          10000,
			days:          45,
			challengeName: "Too long",
			expectedError: ErrValidation,
		},
		{
			name:          "unknown mode rejected",
			mode:          model.ChallengeMode("ranked"),
			goal:          10000,
			days:          3,
			challengeName: "Odd mode",
			expectedError: ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, challengeRepo, _, _ := newChallengeService()

			if tt.expectedError == nil {
				challengeRepo.On("CreateChallenge", mock.Anything, mock.MatchedBy(func(c *model.Challenge) bool {
					return c.Mode == tt.mode &&
						c.OriginalMode == tt.mode &&
						c.GoalSteps == tt.goal &&
						len(c.JoinCode) == model.JoinCodeLength &&
						len(c.PlayerIDs) == 1 &&
						c.PlayerIDs[0] == creator &&
						c.EndDate.Equal(c.StartDate.AddDate(0, 0, tt.days))
				})).Return(nil)
			}

			challenge, err := service.Create(context.Background(), creator, tt.challengeName, tt.mode, tt.goal, tt.days)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}

			assert.NoError(t, err)
			assert.NotNil(t, challenge)
			if tt.check != nil {
				tt.check(t, challenge)
			}
			challengeRepo.AssertExpectations(t)
		})
	}
}

func TestChallengeService_Join(t *testing.T) {
	member := uuid.New()
	joiner := uuid.New()

	fullChallenge := func() *model.Challenge {
		c := &model.Challenge{
			ID:           uuid.New(),
			JoinCode:     "ABC234",
			Mode:         model.ModeSocial,
			OriginalMode: model.ModeSocial,
			Status:       model.StatusWaiting,
		}
		for i := 0; i < model.MaxGroupPlayers; i++ {
			c.PlayerIDs = append(c.PlayerIDs, uuid.New())
		}
		return c
	}

	tests := []struct {
		name          string
		code          string
		mockSetup     func(*mocks.MockChallengeRepository)
		expectedError error
		check         func(*testing.T, *model.Challenge)
	}{
		{
			name: "unknown code",
			code: "XYZ789",
			mockSetup: func(m *mocks.MockChallengeRepository) {
				m.On("GetChallengeByJoinCode", mock.Anything, "XYZ789").
					Return(nil, repository.ErrNotFound)
			},
			expectedError: ErrChallengeNotFound,
		},
		{
			name:          "short code rejected before lookup",
			code:          "AB",
			mockSetup:     func(m *mocks.MockChallengeRepository) {},
			expectedError: ErrValidation,
		},
		{
			name: "full challenge rejected",
			code: "ABC234",
			mockSetup: func(m *mocks.MockChallengeRepository) {
				m.On("GetChallengeByJoinCode", mock.Anything, "ABC234").
					Return(fullChallenge(), nil)
			},
			expectedError: ErrChallengeFull,
		},
		{
			name: "already a member is a no-op",
			code: "ABC234",
			mockSetup: func(m *mocks.MockChallengeRepository) {
				c := fullChallenge()
				c.PlayerIDs[0] = joiner
				m.On("GetChallengeByJoinCode", mock.Anything, "ABC234").
					Return(c, nil)
			},
			check: func(t *testing.T, c *model.Challenge) {
				assert.True(t, c.HasPlayer(joiner))
				assert.Equal(t, model.MaxGroupPlayers, len(c.PlayerIDs))
			},
		},
		{
			name: "ended challenge rejected",
			code: "ABC234",
			mockSetup: func(m *mocks.MockChallengeRepository) {
				c := &model.Challenge{
					ID:           uuid.New(),
					JoinCode:     "ABC234",
					Mode:         model.ModeSocial,
					OriginalMode: model.ModeSocial,
					Status:       model.StatusEnded,
					PlayerIDs:    []uuid.UUID{member},
				}
				m.On("GetChallengeByJoinCode", mock.Anything, "ABC234").
					Return(c, nil)
			},
			expectedError: ErrChallengeEnded,
		},
		{
			name: "successful join appends the player",
			code: "ABC234",
			mockSetup: func(m *mocks.MockChallengeRepository) {
				c := &model.Challenge{
					ID:           uuid.New(),
					JoinCode:     "ABC234",
					Mode:         model.ModeSocial,
					OriginalMode: model.ModeSocial,
					Status:       model.StatusWaiting,
					PlayerIDs:    []uuid.UUID{member},
				}
				m.On("GetChallengeByJoinCode", mock.Anything, "ABC234").
					Return(c, nil)
				m.On("AddParticipant", mock.Anything, c.ID, joiner, mock.Anything).
					Return(nil)
			},
			check: func(t *testing.T, c *model.Challenge) {
				assert.True(t, c.HasPlayer(joiner))
				assert.Equal(t, 2, len(c.PlayerIDs))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, challengeRepo, _, _ := newChallengeService()
			tt.mockSetup(challengeRepo)

			challenge, err := service.Join(context.Background(), tt.code, joiner)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}

			assert.NoError(t, err)
			assert.NotNil(t, challenge)
			if tt.check != nil {
				tt.check(t, challenge)
			}
			challengeRepo.AssertExpectations(t)
		})
	}
}

func TestChallengeService_Start(t *testing.T) {
	creator := uuid.New()
	stranger := uuid.New()
	challengeID := uuid.New()

	waiting := func() *model.Challenge {
		return &model.Challenge{
			ID:           challengeID,
			Mode:         model.ModeSocial,
			OriginalMode: model.ModeSocial,
			Status:       model.StatusWaiting,
			CreatedBy:    creator,
			PlayerIDs:    []uuid.UUID{creator},
		}
	}

	t.Run("creator starts a waiting challenge", func(t *testing.T) {
		service, challengeRepo, _, _ := newChallengeService()
		challengeRepo.On("GetChallengeByID", mock.Anything, challengeID).Return(waiting(), nil)
		challengeRepo.On("StartChallenge", mock.Anything, challengeID, mock.Anything).Return(nil)

		challenge, err := service.Start(context.Background(), challengeID, creator)

		assert.NoError(t, err)
		assert.Equal(t, model.StatusActive, challenge.Status)
		assert.NotNil(t, challenge.StartedAt)
		challengeRepo.AssertExpectations(t)
	})

	t.Run("non-creator is denied and nothing changes", func(t *testing.T) {
		service, challengeRepo, _, _ := newChallengeService()
		challengeRepo.On("GetChallengeByID", mock.Anything, challengeID).Return(waiting(), nil)

		_, err := service.Start(context.Background(), challengeID, stranger)

		assert.ErrorIs(t, err, ErrNotCreator)
		challengeRepo.AssertNotCalled(t, "StartChallenge", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("already active challenge rejected", func(t *testing.T) {
		service, challengeRepo, _, _ := newChallengeService()
		c := waiting()
		c.Status = model.StatusActive
		challengeRepo.On("GetChallengeByID", mock.Anything, challengeID).Return(c, nil)

		_, err := service.Start(context.Background(), challengeID, creator)

		assert.ErrorIs(t, err, ErrChallengeNotWaiting)
	})

	t.Run("missing challenge", func(t *testing.T) {
		service, challengeRepo, _, _ := newChallengeService()
		challengeRepo.On("GetChallengeByID", mock.Anything, challengeID).
			Return(nil, repository.ErrNotFound)

		_, err := service.Start(context.Background(), challengeID, creator)

		assert.ErrorIs(t, err, ErrChallengeNotFound)
	})
}

func TestChallengeService_Evaluate(t *testing.T) {
	challengeID := uuid.New()
	winner := uuid.New()
	other := uuid.New()

	active := func() *model.Challenge {
		start := time.Now().UTC().Add(-24 * time.Hour)
		return &model.Challenge{
			ID:           challengeID,
			Mode:         model.ModeSocial,
			OriginalMode: model.ModeSocial,
			Status:       model.StatusActive,
			GoalSteps:    10000,
			PlayerIDs:    []uuid.UUID{winner, other},
			StartDate:    start,
			EndDate:      start.Add(72 * time.Hour),
		}
	}

	t.Run("first finisher becomes winner", func(t *testing.T) {
		service, challengeRepo, participantRepo, playerRepo := newChallengeService()
		now := time.Now().UTC()

		participants := []*model.Participant{
			{ChallengeID: challengeID, PlayerID: winner, Steps: 12000},
			{ChallengeID: challengeID, PlayerID: other, Steps: 4000},
		}

		participantRepo.On("SetFinishResult", mock.Anything, challengeID, winner, now, 1).Return(nil)
		challengeRepo.On("SetWinner", mock.Anything, challengeID, winner, now).Return(nil)
		playerRepo.On("IncrementChallengesCompleted", mock.Anything, winner).Return(nil)

		challenge := active()
		changed, err := service.Evaluate(context.Background(), challenge, participants, now)

		assert.NoError(t, err)
		assert.True(t, changed)
		assert.NotNil(t, challenge.WinnerID)
		assert.Equal(t, winner, *challenge.WinnerID)
		participantRepo.AssertExpectations(t)
		challengeRepo.AssertExpectations(t)
		playerRepo.AssertExpectations(t)
	})

	t.Run("same tick finishers rank by steps", func(t *testing.T) {
		service, challengeRepo, participantRepo, playerRepo := newChallengeService()
		now := time.Now().UTC()

		// Roster order has the lower-stepped finisher first; the higher
		// step count must still take the win and place 1.
		participants := []*model.Participant{
			{ChallengeID: challengeID, PlayerID: other, Steps: 10000},
			{ChallengeID: challengeID, PlayerID: winner, Steps: 15000},
		}

		participantRepo.On("SetFinishResult", mock.Anything, challengeID, winner, now, 1).Return(nil)
		participantRepo.On("SetFinishResult", mock.Anything, challengeID, other, now, 2).Return(nil)
		challengeRepo.On("SetWinner", mock.Anything, challengeID, winner, now).Return(nil)
		challengeRepo.On("SetWinner", mock.Anything, challengeID, other, now).
			Return(repository.ErrWinnerAlreadySet)
		playerRepo.On("IncrementChallengesCompleted", mock.Anything, winner).Return(nil)
		playerRepo.On("IncrementChallengesCompleted", mock.Anything, other).Return(nil)

		challenge := active()
		changed, err := service.Evaluate(context.Background(), challenge, participants, now)

		assert.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, winner, *challenge.WinnerID)
		assert.Equal(t, 1, *participants[1].Place)
		assert.Equal(t, 2, *participants[0].Place)
		participantRepo.AssertExpectations(t)
		challengeRepo.AssertExpectations(t)
	})

	t.Run("losing the winner race still records the finish", func(t *testing.T) {
		service, challengeRepo, participantRepo, playerRepo := newChallengeService()
		now := time.Now().UTC()

		participants := []*model.Participant{
			{ChallengeID: challengeID, PlayerID: winner, Steps: 12000},
		}

		participantRepo.On("SetFinishResult", mock.Anything, challengeID, winner, now, 1).Return(nil)
		challengeRepo.On("SetWinner", mock.Anything, challengeID, winner, now).
			Return(repository.ErrWinnerAlreadySet)
		playerRepo.On("IncrementChallengesCompleted", mock.Anything, winner).Return(nil)

		challenge := active()
		changed, err := service.Evaluate(context.Background(), challenge, participants, now)

		assert.NoError(t, err)
		assert.True(t, changed)
		assert.Nil(t, challenge.WinnerID)
	})

	t.Run("deadline passing ends the challenge without a winner", func(t *testing.T) {
		service, challengeRepo, _, _ := newChallengeService()

		challenge := active()
		now := challenge.EffectiveEndDate().Add(time.Second)

		challengeRepo.On("SetChallengeStatus", mock.Anything, challengeID, model.StatusEnded).Return(nil)

		participants := []*model.Participant{
			{ChallengeID: challengeID, PlayerID: winner, Steps: 4000},
		}

		changed, err := service.Evaluate(context.Background(), challenge, participants, now)

		assert.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, model.StatusEnded, challenge.Status)
		assert.Nil(t, challenge.WinnerID)
	})

	t.Run("extension keeps the challenge alive past the nominal end", func(t *testing.T) {
		service, _, _, _ := newChallengeService()

		challenge := active()
		challenge.ExtensionSeconds = 86400
		now := challenge.EndDate.Add(time.Hour)

		changed, err := service.Evaluate(context.Background(), challenge, nil, now)

		assert.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, model.StatusActive, challenge.Status)
	})
}

func TestRankParticipants(t *testing.T) {
	winnerID := uuid.New()
	secondID := uuid.New()
	strollerA := uuid.New()
	strollerB := uuid.New()

	finished := time.Now().UTC()
	one, two := 1, 2

	participants := []*model.Participant{
		{PlayerID: strollerA, Steps: 3000},
		{PlayerID: secondID, Steps: 10000, FinishedAt: &finished, Place: &two},
		{PlayerID: strollerB, Steps: 7000},
		{PlayerID: winnerID, Steps: 10000, FinishedAt: &finished, Place: &one},
	}

	ranked := RankParticipants(participants, &winnerID)

	assert.Equal(t, winnerID, ranked[0].PlayerID)
	assert.Equal(t, secondID, ranked[1].PlayerID)
	assert.Equal(t, strollerB, ranked[2].PlayerID)
	assert.Equal(t, strollerA, ranked[3].PlayerID)

	// Input order is untouched.
	assert.Equal(t, strollerA, participants[0].PlayerID)
}

func TestRankParticipants_WinnerWithoutPlace(t *testing.T) {
	winnerID := uuid.New()
	otherID := uuid.New()
	finished := time.Now().UTC()

	participants := []*model.Participant{
		{PlayerID: otherID, Steps: 11000, FinishedAt: &finished},
		{PlayerID: winnerID, Steps: 10000, FinishedAt: &finished},
	}

	ranked := RankParticipants(participants, &winnerID)

	// The recorded winner ranks first even with fewer steps.
	assert.Equal(t, winnerID, ranked[0].PlayerID)
	assert.Equal(t, otherID, ranked[1].PlayerID)
}
