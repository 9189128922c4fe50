package service

import (
	"context"
	"errors"
	"time"

	"steprivals/internal/model"
	"steprivals/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier is told when a challenge's projection changed, so subscribers can
// be pushed a fresh snapshot.
type Notifier interface {
	Publish(challengeID uuid.UUID)
}

// SyncWorker periodically pulls step counts for every participant of every
// live challenge and applies the win/deadline rules. Errors inside a tick are
// logged and swallowed; a single missed tick has no correctness requirement.
type SyncWorker struct {
	challenges    *ChallengeService
	participants  *ParticipantService
	repo          ParticipantRepository
	challengeRepo ChallengeRepository
	notifier      Notifier
	interval      time.Duration
}

func NewSyncWorker(challenges *ChallengeService, participants *ParticipantService, repo ParticipantRepository, challengeRepo ChallengeRepository, notifier Notifier, interval time.Duration) *SyncWorker {
	return &SyncWorker{
		challenges:    challenges,
		participants:  participants,
		repo:          repo,
		challengeRepo: challengeRepo,
		notifier:      notifier,
		interval:      interval,
	}
}

func (w *SyncWorker) Run(ctx context.Context) {
	log := logger.Logger()
	log.Info("step sync worker started", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("step sync worker stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *SyncWorker) tick(ctx context.Context) {
	log := logger.Logger()
	now := time.Now().UTC()

	challenges, err := w.challengeRepo.ListLiveChallenges(ctx)
	if err != nil {
		log.Error("failed to list live challenges", zap.Error(err))
		return
	}

	for _, challenge := range challenges {
		changed, err := w.syncChallenge(ctx, challenge, now)
		if err != nil {
			log.Error("challenge sync failed",
				zap.String("challenge_id", challenge.ID.String()),
				zap.Error(err))
			continue
		}
		if changed && w.notifier != nil {
			w.notifier.Publish(challenge.ID)
		}
	}
}

func (w *SyncWorker) syncChallenge(ctx context.Context, challenge *model.Challenge, now time.Time) (bool, error) {
	log := logger.Logger()
	changed := false

	participants, err := w.repo.ListParticipants(ctx, challenge.ID)
	if err != nil {
		return false, err
	}

	if challenge.Status == model.StatusActive {
		for i, p := range participants {
			updated, err := w.participants.SyncSteps(ctx, challenge, p, now)
			if err != nil {
				// Best-effort: an unreachable oracle must not interrupt
				// the other participants' sync.
				if !errors.Is(err, ErrStepSourceUnavailable) {
					log.Warn("participant sync failed",
						zap.String("player_id", p.PlayerID.String()),
						zap.Error(err))
				}
				continue
			}
			participants[i] = updated
			changed = true
		}
	}

	evaluated, err := w.challenges.Evaluate(ctx, challenge, participants, now)
	if err != nil {
		return changed, err
	}

	return changed || evaluated, nil
}
