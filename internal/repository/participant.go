package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"steprivals/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Participant struct {
	ChallengeID    uuid.UUID `db:"challenge_id"`
	PlayerID       uuid.UUID `db:"player_id"`
	Steps          int64     `db:"steps"`
	Progress       float64   `db:"progress"`
	CharacterState string    `db:"character_state"`

	SabotageState      *string    `db:"sabotage_state"`
	SabotageExpiresAt  *time.Time `db:"sabotage_expires_at"`
	SabotageAttackerID *uuid.UUID `db:"sabotage_attacker_id"`
	SabotageAttackTime *float64   `db:"sabotage_attack_time"`
	SabotageAppliedAt  *time.Time `db:"sabotage_applied_at"`

	SoloPuzzleFailedAt        *time.Time `db:"solo_puzzle_failed_at"`
	GroupAttackPuzzleFailedAt *time.Time `db:"group_attack_puzzle_failed_at"`
	GroupAttackSucceededAt    *time.Time `db:"group_attack_succeeded_at"`

	FinishedAt *time.Time `db:"finished_at"`
	Place      *int       `db:"place"`
	ResultSeen bool       `db:"result_seen"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (p *Participant) toModel() *model.Participant {
	out := &model.Participant{
		ChallengeID:               p.ChallengeID,
		PlayerID:                  p.PlayerID,
		Steps:                     p.Steps,
		Progress:                  p.Progress,
		CharacterState:            model.CharacterState(p.CharacterState),
		SoloPuzzleFailedAt:        p.SoloPuzzleFailedAt,
		GroupAttackPuzzleFailedAt: p.GroupAttackPuzzleFailedAt,
		GroupAttackSucceededAt:    p.GroupAttackSucceededAt,
		FinishedAt:                p.FinishedAt,
		Place:                     p.Place,
		ResultSeen:                p.ResultSeen,
		CreatedAt:                 p.CreatedAt,
		UpdatedAt:                 p.UpdatedAt,
	}

	if p.SabotageState != nil && p.SabotageExpiresAt != nil && p.SabotageAttackerID != nil {
		sabotage := &model.Sabotage{
			State:      model.CharacterState(*p.SabotageState),
			ExpiresAt:  *p.SabotageExpiresAt,
			AttackerID: *p.SabotageAttackerID,
		}
		if p.SabotageAttackTime != nil {
			sabotage.AttackTimeSeconds = *p.SabotageAttackTime
		}
		if p.SabotageAppliedAt != nil {
			sabotage.AppliedAt = *p.SabotageAppliedAt
		}
		out.Sabotage = sabotage
	}

	return out
}

func (r *Repository) insertParticipantWithTx(ctx context.Context, tx *sqlx.Tx, challengeID, playerID uuid.UUID, createdAt time.Time) error {
	query, args, err := squirrel.
		Insert("participants").
		SetMap(map[string]interface{}{
			"challenge_id":    challengeID,
			"player_id":       playerID,
			"steps":           0,
			"progress":        0.0,
			"character_state": string(model.StateNeutral),
			"result_seen":     false,
			"created_at":      createdAt,
			"updated_at":      createdAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

func (r *Repository) GetParticipant(ctx context.Context, challengeID, playerID uuid.UUID) (*model.Participant, error) {
	var participant Participant
	query, args, err := squirrel.
		Select("*").
		From("participants").
		Where(squirrel.Eq{"challenge_id": challengeID, "player_id": playerID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &participant, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return participant.toModel(), nil
}

func (r *Repository) ListParticipants(ctx context.Context, challengeID uuid.UUID) ([]*model.Participant, error) {
	var participants []Participant
	query, args, err := squirrel.
		Select("*").
		From("participants").
		Where(squirrel.Eq{"challenge_id": challengeID}).
		OrderBy("created_at ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.SelectContext(ctx, &participants, query, args...)
	if err != nil {
		return nil, err
	}

	list := make([]*model.Participant, len(participants))
	for i := range participants {
		list[i] = participants[i].toModel()
	}

	return list, nil
}

// UpdateProgress persists a sync tick: the new cumulative steps, the derived
// progress and mood, and the step delta added to the player's lifetime total.
func (r *Repository) UpdateProgress(ctx context.Context, challengeID, playerID uuid.UUID, steps int64, progress float64, state model.CharacterState, stepsDelta int64, updatedAt time.Time) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Update("participants").
			SetMap(map[string]interface{}{
				"steps":           steps,
				"progress":        progress,
				"character_state": string(state),
				"updated_at":      updatedAt,
			}).
			Where(squirrel.Eq{"challenge_id": challengeID, "player_id": playerID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotFound
		}

		return r.addLifetimeStepsWithTx(ctx, tx, playerID, stepsDelta)
	})
}

func (r *Repository) ApplySabotage(ctx context.Context, challengeID, targetID uuid.UUID, sabotage *model.Sabotage) error {
	query, args, err := squirrel.
		Update("participants").
		SetMap(map[string]interface{}{
			"sabotage_state":       string(sabotage.State),
			"sabotage_expires_at":  sabotage.ExpiresAt,
			"sabotage_attacker_id": sabotage.AttackerID,
			"sabotage_attack_time": sabotage.AttackTimeSeconds,
			"sabotage_applied_at":  sabotage.AppliedAt,
			"updated_at":           sabotage.AppliedAt,
		}).
		Where(squirrel.Eq{"challenge_id": challengeID, "player_id": targetID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// ClearSabotage removes the debuff entirely, attacker record included.
func (r *Repository) ClearSabotage(ctx context.Context, challengeID, playerID uuid.UUID) error {
	query, args, err := squirrel.
		Update("participants").
		SetMap(map[string]interface{}{
			"sabotage_state":       nil,
			"sabotage_expires_at":  nil,
			"sabotage_attacker_id": nil,
			"sabotage_attack_time": nil,
			"sabotage_applied_at":  nil,
			"updated_at":           time.Now().UTC(),
		}).
		Where(squirrel.Eq{"challenge_id": challengeID, "player_id": playerID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *Repository) MarkSoloPuzzleFailed(ctx context.Context, challengeID, playerID uuid.UUID, failedAt time.Time) error {
	return r.setParticipantTimestamp(ctx, challengeID, playerID, "solo_puzzle_failed_at", failedAt)
}

func (r *Repository) MarkAttackPuzzleFailed(ctx context.Context, challengeID, playerID uuid.UUID, failedAt time.Time) error {
	return r.setParticipantTimestamp(ctx, challengeID, playerID, "group_attack_puzzle_failed_at", failedAt)
}

func (r *Repository) MarkAttackSucceeded(ctx context.Context, challengeID, playerID uuid.UUID, succeededAt time.Time) error {
	return r.setParticipantTimestamp(ctx, challengeID, playerID, "group_attack_succeeded_at", succeededAt)
}

func (r *Repository) setParticipantTimestamp(ctx context.Context, challengeID, playerID uuid.UUID, column string, at time.Time) error {
	query, args, err := squirrel.
		Update("participants").
		SetMap(map[string]interface{}{
			column:       at,
			"updated_at": at,
		}).
		Where(squirrel.Eq{"challenge_id": challengeID, "player_id": playerID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// SetFinishResult records the finish once; a participant that already has a
// finish timestamp keeps its original one.
func (r *Repository) SetFinishResult(ctx context.Context, challengeID, playerID uuid.UUID, finishedAt time.Time, place int) error {
	query, args, err := squirrel.
		Update("participants").
		SetMap(map[string]interface{}{
			"finished_at": finishedAt,
			"place":       place,
			"updated_at":  finishedAt,
		}).
		Where(squirrel.Eq{"challenge_id": challengeID, "player_id": playerID}).
		Where(squirrel.Expr("finished_at IS NULL")).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *Repository) MarkResultSeen(ctx context.Context, challengeID, playerID uuid.UUID) error {
	query, args, err := squirrel.
		Update("participants").
		Set("result_seen", true).
		Where(squirrel.Eq{"challenge_id": challengeID, "player_id": playerID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
