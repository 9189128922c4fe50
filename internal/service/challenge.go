package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"
	"unicode/utf8"

	"steprivals/internal/model"
	"steprivals/internal/repository"

	"github.com/google/uuid"
)

const (
	joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	MinGoalSteps    = 1000
	MinDurationDays = 1
	MaxDurationDays = 30
	MaxNameLength   = 64
)

type ChallengeService struct {
	challenges   ChallengeRepository
	participants ParticipantRepository
	players      PlayerRepository
}

func NewChallengeService(challenges ChallengeRepository, participants ParticipantRepository, players PlayerRepository) *ChallengeService {
	return &ChallengeService{
		challenges:   challenges,
		participants: participants,
		players:      players,
	}
}

// ChallengeView is the read-only projection consumed by the API and the
// websocket hub.
type ChallengeView struct {
	Challenge    *model.Challenge
	Participants []*model.Participant
	CurrentMode  model.ChallengeMode
	Rankings     []*model.Participant
}

func (s *ChallengeService) Create(ctx context.Context, creatorID uuid.UUID, name string, mode model.ChallengeMode, goalSteps int64, durationDays int) (*model.Challenge, error) {
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return nil, fmt.Errorf("%w: challenge name must be 1-%d characters", ErrValidation, MaxNameLength)
	}
	if mode != model.ModeSolo && mode != model.ModeSocial {
		return nil, fmt.Errorf("%w: unknown challenge mode %q", ErrValidation, mode)
	}
	if goalSteps < MinGoalSteps {
		return nil, fmt.Errorf("%w: goal must be at least %d steps", ErrValidation, MinGoalSteps)
	}
	if durationDays < MinDurationDays || durationDays > MaxDurationDays {
		return nil, fmt.Errorf("%w: duration must be %d-%d days", ErrValidation, MinDurationDays, MaxDurationDays)
	}

	code, err := generateJoinCode(model.JoinCodeLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate join code: %w", err)
	}

	now := time.Now().UTC()
	challenge := &model.Challenge{
		ID:           uuid.New(),
		Name:         name,
		JoinCode:     code,
		Mode:         mode,
		OriginalMode: mode,
		GoalSteps:    goalSteps,
		DurationDays: durationDays,
		CreatedBy:    creatorID,
		PlayerIDs:    []uuid.UUID{creatorID},
		StartDate:    now,
		EndDate:      now.AddDate(0, 0, durationDays),
		CreatedAt:    now,
	}

	// Solo challenges skip the lobby and start immediately.
	if mode == model.ModeSolo {
		challenge.Status = model.StatusActive
		challenge.StartedAt = &now
	} else {
		challenge.Status = model.StatusWaiting
	}

	err = s.challenges.CreateChallenge(ctx, challenge)
	if err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	return challenge, nil
}

// Join adds the player to the challenge behind the code. Joining a challenge
// the player is already in returns it unchanged.
func (s *ChallengeService) Join(ctx context.Context, code string, playerID uuid.UUID) (*model.Challenge, error) {
	if len(code) != model.JoinCodeLength {
		return nil, fmt.Errorf("%w: join code must be %d characters", ErrValidation, model.JoinCodeLength)
	}

	challenge, err := s.challenges.GetChallengeByJoinCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to look up join code: %w", err)
	}

	if challenge.HasPlayer(playerID) {
		return challenge, nil
	}

	if !challenge.AcceptsJoins() {
		if challenge.Status == model.StatusEnded {
			return nil, ErrChallengeEnded
		}
		return nil, ErrChallengeFull
	}

	now := time.Now().UTC()
	err = s.challenges.AddParticipant(ctx, challenge.ID, playerID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to add participant: %w", err)
	}

	challenge.PlayerIDs = append(challenge.PlayerIDs, playerID)
	return challenge, nil
}

// Start transitions a waiting social challenge to active. Only the creator
// may start it, and only from the waiting state.
func (s *ChallengeService) Start(ctx context.Context, challengeID, requesterID uuid.UUID) (*model.Challenge, error) {
	challenge, err := s.challenges.GetChallengeByID(ctx, challengeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}

	if requesterID != challenge.CreatedBy {
		return nil, ErrNotCreator
	}
	if challenge.Status != model.StatusWaiting {
		return nil, ErrChallengeNotWaiting
	}

	now := time.Now().UTC()
	err = s.challenges.StartChallenge(ctx, challengeID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to start challenge: %w", err)
	}

	challenge.Status = model.StatusActive
	challenge.StartedAt = &now
	return challenge, nil
}

// ExtendByOneDay is the solo puzzle reward.
func (s *ChallengeService) ExtendByOneDay(ctx context.Context, challengeID uuid.UUID) error {
	return s.challenges.AddExtension(ctx, challengeID, int64((24 * time.Hour).Seconds()))
}

func (s *ChallengeService) Projection(ctx context.Context, challengeID uuid.UUID, now time.Time) (*ChallengeView, error) {
	challenge, err := s.challenges.GetChallengeByID(ctx, challengeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}

	participants, err := s.participants.ListParticipants(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	view := &ChallengeView{
		Challenge:    challenge,
		Participants: participants,
		CurrentMode:  challenge.CurrentMode(),
	}

	if challenge.Status == model.StatusEnded || challenge.TimeIsUp(now) {
		view.Rankings = RankParticipants(participants, challenge.WinnerID)
	}

	return view, nil
}

// Evaluate applies the win and deadline rules: records finishers (earliest
// wins the challenge, via the repository's compare-and-set) and ends the
// challenge once its effective deadline has passed. Returns true when
// anything changed.
func (s *ChallengeService) Evaluate(ctx context.Context, challenge *model.Challenge, participants []*model.Participant, now time.Time) (bool, error) {
	changed := false

	if challenge.Status == model.StatusActive {
		finished := 0
		var reachers []*model.Participant
		for _, p := range participants {
			if p.Finished() {
				finished++
			} else if p.Steps >= challenge.GoalSteps {
				reachers = append(reachers, p)
			}
		}

		// Goal-reachers within one tick share a finish timestamp; the
		// higher step count finishes first.
		sort.SliceStable(reachers, func(i, j int) bool {
			return reachers[i].Steps > reachers[j].Steps
		})

		for _, p := range reachers {
			finished++
			err := s.participants.SetFinishResult(ctx, challenge.ID, p.PlayerID, now, finished)
			if err != nil {
				return changed, fmt.Errorf("failed to record finish: %w", err)
			}

			err = s.challenges.SetWinner(ctx, challenge.ID, p.PlayerID, now)
			if err != nil && !errors.Is(err, repository.ErrWinnerAlreadySet) {
				return changed, fmt.Errorf("failed to record winner: %w", err)
			}
			if err == nil {
				challenge.WinnerID = &p.PlayerID
				challenge.WinnerFinishedAt = &now
			}

			err = s.players.IncrementChallengesCompleted(ctx, p.PlayerID)
			if err != nil {
				return changed, fmt.Errorf("failed to update completion total: %w", err)
			}

			finishedAt := now
			p.FinishedAt = &finishedAt
			place := finished
			p.Place = &place
			changed = true
		}
	}

	if challenge.Status != model.StatusEnded && challenge.TimeIsUp(now) {
		err := s.challenges.SetChallengeStatus(ctx, challenge.ID, model.StatusEnded)
		if err != nil {
			return changed, fmt.Errorf("failed to end challenge: %w", err)
		}
		challenge.Status = model.StatusEnded
		changed = true
	}

	return changed, nil
}

// RankParticipants orders participants for the results screen: finishers
// first (by recorded place, the winner ranking first when unplaced, steps as
// tiebreak), then non-finishers by steps descending.
func RankParticipants(participants []*model.Participant, winnerID *uuid.UUID) []*model.Participant {
	ranked := make([]*model.Participant, len(participants))
	copy(ranked, participants)

	rankKey := func(p *model.Participant) int {
		if p.Place != nil {
			return *p.Place
		}
		if winnerID != nil && p.PlayerID == *winnerID {
			return 1
		}
		return int(^uint(0) >> 1)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]

		if a.Finished() != b.Finished() {
			return a.Finished()
		}
		if !a.Finished() {
			return a.Steps > b.Steps
		}

		ka, kb := rankKey(a), rankKey(b)
		if ka != kb {
			return ka < kb
		}
		return a.Steps > b.Steps
	})

	return ranked
}

func generateJoinCode(length int) (string, error) {
	code := make([]byte, length)
	max := big.NewInt(int64(len(joinCodeAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = joinCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}
