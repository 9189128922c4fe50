package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"steprivals/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Challenge struct {
	ID               uuid.UUID      `db:"id"`
	Name             string         `db:"name"`
	JoinCode         string         `db:"join_code"`
	Mode             string         `db:"mode"`
	OriginalMode     string         `db:"original_mode"`
	GoalSteps        int64          `db:"goal_steps"`
	DurationDays     int            `db:"duration_days"`
	Status           string         `db:"status"`
	CreatedBy        uuid.UUID      `db:"created_by"`
	PlayerIDs        pq.StringArray `db:"player_ids"`
	StartDate        time.Time      `db:"start_date"`
	EndDate          time.Time      `db:"end_date"`
	ExtensionSeconds int64          `db:"extension_seconds"`
	CreatedAt        time.Time      `db:"created_at"`
	StartedAt        *time.Time     `db:"started_at"`
	WinnerID         *uuid.UUID     `db:"winner_id"`
	WinnerFinishedAt *time.Time     `db:"winner_finished_at"`
}

func (c *Challenge) toModel() (*model.Challenge, error) {
	playerIDs := make([]uuid.UUID, len(c.PlayerIDs))
	for i, raw := range c.PlayerIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse player id %q: %w", raw, err)
		}
		playerIDs[i] = id
	}

	return &model.Challenge{
		ID:               c.ID,
		Name:             c.Name,
		JoinCode:         c.JoinCode,
		Mode:             model.ChallengeMode(c.Mode),
		OriginalMode:     model.ChallengeMode(c.OriginalMode),
		GoalSteps:        c.GoalSteps,
		DurationDays:     c.DurationDays,
		Status:           model.ChallengeStatus(c.Status),
		CreatedBy:        c.CreatedBy,
		PlayerIDs:        playerIDs,
		StartDate:        c.StartDate,
		EndDate:          c.EndDate,
		ExtensionSeconds: c.ExtensionSeconds,
		CreatedAt:        c.CreatedAt,
		StartedAt:        c.StartedAt,
		WinnerID:         c.WinnerID,
		WinnerFinishedAt: c.WinnerFinishedAt,
	}, nil
}

// CreateChallenge inserts the challenge together with the creator's
// participant row and bumps the creator's participation counter.
func (r *Repository) CreateChallenge(ctx context.Context, challenge *model.Challenge) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		playerIDs := make(pq.StringArray, len(challenge.PlayerIDs))
		for i, id := range challenge.PlayerIDs {
			playerIDs[i] = id.String()
		}

		query, args, err := squirrel.
			Insert("challenges").
			SetMap(map[string]interface{}{
				"id":                challenge.ID,
				"name":              challenge.Name,
				"join_code":         challenge.JoinCode,
				"mode":              string(challenge.Mode),
				"original_mode":     string(challenge.OriginalMode),
				"goal_steps":        challenge.GoalSteps,
				"duration_days":     challenge.DurationDays,
				"status":            string(challenge.Status),
				"created_by":        challenge.CreatedBy,
				"player_ids":        playerIDs,
				"start_date":        challenge.StartDate,
				"end_date":          challenge.EndDate,
				"extension_seconds": challenge.ExtensionSeconds,
				"created_at":        challenge.CreatedAt,
				"started_at":        challenge.StartedAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build challenge insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to insert challenge: %w", err)
		}

		err = r.insertParticipantWithTx(ctx, tx, challenge.ID, challenge.CreatedBy, challenge.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert creator participant: %w", err)
		}

		err = r.incrementParticipatedWithTx(ctx, tx, challenge.CreatedBy)
		if err != nil {
			return fmt.Errorf("failed to update creator participation: %w", err)
		}

		return nil
	})
}

func (r *Repository) GetChallengeByID(ctx context.Context, id uuid.UUID) (*model.Challenge, error) {
	return r.getChallengeWhere(ctx, squirrel.Eq{"id": id})
}

func (r *Repository) GetChallengeByJoinCode(ctx context.Context, code string) (*model.Challenge, error) {
	return r.getChallengeWhere(ctx, squirrel.Eq{"join_code": code})
}

func (r *Repository) getChallengeWhere(ctx context.Context, pred interface{}) (*model.Challenge, error) {
	var challenge Challenge
	query, args, err := squirrel.
		Select("*").
		From("challenges").
		Where(pred).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &challenge, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return challenge.toModel()
}

// AddParticipant appends the player to the challenge roster, creates their
// participant row and bumps their participation counter.
func (r *Repository) AddParticipant(ctx context.Context, challengeID, playerID uuid.UUID, joinedAt time.Time) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Update("challenges").
			Set("player_ids", squirrel.Expr("array_append(player_ids, ?)", playerID.String())).
			Where(squirrel.Eq{"id": challengeID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build roster update query: %w", err)
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to update roster: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotFound
		}

		err = r.insertParticipantWithTx(ctx, tx, challengeID, playerID, joinedAt)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}

		err = r.incrementParticipatedWithTx(ctx, tx, playerID)
		if err != nil {
			return fmt.Errorf("failed to update participation: %w", err)
		}

		return nil
	})
}

func (r *Repository) StartChallenge(ctx context.Context, id uuid.UUID, startedAt time.Time) error {
	query, args, err := squirrel.
		Update("challenges").
		SetMap(map[string]interface{}{
			"status":     string(model.StatusActive),
			"started_at": startedAt,
		}).
		Where(squirrel.Eq{"id": id, "status": string(model.StatusWaiting)}).
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

func (r *Repository) AddExtension(ctx context.Context, id uuid.UUID, seconds int64) error {
	query, args, err := squirrel.
		Update("challenges").
		Set("extension_seconds", squirrel.Expr("extension_seconds + ?", seconds)).
		Where(squirrel.Eq{"id": id}).
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

// SetWinner records the winner with a compare-and-set: it only succeeds while
// winner_id is still unset, so concurrent finishers cannot overwrite each other.
func (r *Repository) SetWinner(ctx context.Context, id, winnerID uuid.UUID, finishedAt time.Time) error {
	query, args, err := squirrel.
		Update("challenges").
		SetMap(map[string]interface{}{
			"winner_id":          winnerID,
			"winner_finished_at": finishedAt,
		}).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Expr("winner_id IS NULL")).
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
		return ErrWinnerAlreadySet
	}

	return nil
}

func (r *Repository) SetChallengeStatus(ctx context.Context, id uuid.UUID, status model.ChallengeStatus) error {
	query, args, err := squirrel.
		Update("challenges").
		Set("status", string(status)).
		Where(squirrel.Eq{"id": id}).
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

// ListLiveChallenges returns every challenge that has not ended yet.
func (r *Repository) ListLiveChallenges(ctx context.Context) ([]*model.Challenge, error) {
	var challenges []Challenge
	query, args, err := squirrel.
		Select("*").
		From("challenges").
		Where(squirrel.NotEq{"status": string(model.StatusEnded)}).
		OrderBy("created_at ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.SelectContext(ctx, &challenges, query, args...)
	if err != nil {
		return nil, err
	}

	list := make([]*model.Challenge, 0, len(challenges))
	for i := range challenges {
		c, err := challenges[i].toModel()
		if err != nil {
			// Malformed rows are skipped from list results.
			continue
		}
		list = append(list, c)
	}

	return list, nil
}
