package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestChallenge_CurrentMode(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	tests := []struct {
		name     string
		mode     ChallengeMode
		original ChallengeMode
		players  []uuid.UUID
		expected ChallengeMode
	}{
		{
			name:     "solo stays solo",
			mode:     ModeSolo,
			original: ModeSolo,
			players:  []uuid.UUID{a},
			expected: ModeSolo,
		},
		{
			name:     "social with two players stays social",
			mode:     ModeSocial,
			original: ModeSocial,
			players:  []uuid.UUID{a, b},
			expected: ModeSocial,
		},
		{
			name:     "social reduced to one player degrades to solo",
			mode:     ModeSocial,
			original: ModeSocial,
			players:  []uuid.UUID{a},
			expected: ModeSolo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Challenge{Mode: tt.mode, OriginalMode: tt.original, PlayerIDs: tt.players}
			assert.Equal(t, tt.expected, c.CurrentMode())

			// The stored fields stay untouched.
			assert.Equal(t, tt.mode, c.Mode)
			assert.Equal(t, tt.original, c.OriginalMode)
		})
	}
}

func TestChallenge_EffectiveEndDate(t *testing.T) {
	end := time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)
	c := &Challenge{EndDate: end}

	assert.Equal(t, end, c.EffectiveEndDate())

	c.ExtensionSeconds = 86400
	assert.Equal(t, end.Add(24*time.Hour), c.EffectiveEndDate())

	// Extensions only accumulate.
	c.ExtensionSeconds += 86400
	assert.Equal(t, end.Add(48*time.Hour), c.EffectiveEndDate())
}

func TestChallenge_TimeIsUp(t *testing.T) {
	end := time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)
	c := &Challenge{EndDate: end, ExtensionSeconds: 0}

	assert.False(t, c.TimeIsUp(end.Add(-time.Second)))
	assert.True(t, c.TimeIsUp(end))
	assert.True(t, c.TimeIsUp(end.Add(time.Second)))

	// An extension pushes the deadline out.
	c.ExtensionSeconds = 3600
	assert.False(t, c.TimeIsUp(end.Add(time.Second)))
}

func TestChallenge_MaxPlayersAndFull(t *testing.T) {
	solo := &Challenge{OriginalMode: ModeSolo, PlayerIDs: []uuid.UUID{uuid.New()}}
	assert.Equal(t, 1, solo.MaxPlayers())
	assert.True(t, solo.IsFull())

	social := &Challenge{OriginalMode: ModeSocial, PlayerIDs: []uuid.UUID{uuid.New()}}
	assert.Equal(t, MaxGroupPlayers, social.MaxPlayers())
	assert.False(t, social.IsFull())

	for len(social.PlayerIDs) < MaxGroupPlayers {
		social.PlayerIDs = append(social.PlayerIDs, uuid.New())
	}
	assert.True(t, social.IsFull())
}

func TestChallenge_AcceptsJoins(t *testing.T) {
	players := []uuid.UUID{uuid.New()}

	waiting := &Challenge{OriginalMode: ModeSocial, Status: StatusWaiting, PlayerIDs: players}
	assert.True(t, waiting.AcceptsJoins())

	active := &Challenge{OriginalMode: ModeSocial, Status: StatusActive, PlayerIDs: players}
	assert.True(t, active.AcceptsJoins())

	ended := &Challenge{OriginalMode: ModeSocial, Status: StatusEnded, PlayerIDs: players}
	assert.False(t, ended.AcceptsJoins())

	full := &Challenge{OriginalMode: ModeSolo, Status: StatusActive, PlayerIDs: players}
	assert.False(t, full.AcceptsJoins())
}
