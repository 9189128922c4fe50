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
)

type Player struct {
	ID                     uuid.UUID `db:"id"`
	DisplayName            string    `db:"display_name"`
	Avatar                 string    `db:"avatar"`
	ChallengesParticipated int       `db:"challenges_participated"`
	ChallengesCompleted    int       `db:"challenges_completed"`
	LifetimeSteps          int64     `db:"lifetime_steps"`
	CreatedAt              time.Time `db:"created_at"`
	UpdatedAt              time.Time `db:"updated_at"`
}

func (p *Player) toModel() *model.Player {
	return &model.Player{
		ID:                     p.ID,
		DisplayName:            p.DisplayName,
		Avatar:                 p.Avatar,
		ChallengesParticipated: p.ChallengesParticipated,
		ChallengesCompleted:    p.ChallengesCompleted,
		LifetimeSteps:          p.LifetimeSteps,
		CreatedAt:              p.CreatedAt,
		UpdatedAt:              p.UpdatedAt,
	}
}

func (r *Repository) CreatePlayer(ctx context.Context, player *model.Player) error {
	query, args, err := squirrel.
		Insert("players").
		SetMap(map[string]interface{}{
			"id":                      player.ID,
			"display_name":            player.DisplayName,
			"avatar":                  player.Avatar,
			"challenges_participated": player.ChallengesParticipated,
			"challenges_completed":    player.ChallengesCompleted,
			"lifetime_steps":          player.LifetimeSteps,
			"created_at":              player.CreatedAt,
			"updated_at":              player.UpdatedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build player insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert player: %w", err)
	}

	return nil
}

func (r *Repository) GetPlayer(ctx context.Context, id uuid.UUID) (*model.Player, error) {
	var player Player
	query, args, err := squirrel.
		Select("*").
		From("players").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &player, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return player.toModel(), nil
}

func (r *Repository) UpdatePlayerProfile(ctx context.Context, id uuid.UUID, displayName, avatar string) error {
	query, args, err := squirrel.
		Update("players").
		SetMap(map[string]interface{}{
			"display_name": displayName,
			"avatar":       avatar,
			"updated_at":   time.Now().UTC(),
		}).
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

func (r *Repository) IncrementChallengesCompleted(ctx context.Context, id uuid.UUID) error {
	query, args, err := squirrel.
		Update("players").
		Set("challenges_completed", squirrel.Expr("challenges_completed + 1")).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *Repository) incrementParticipatedWithTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	query, args, err := squirrel.
		Update("players").
		Set("challenges_participated", squirrel.Expr("challenges_participated + 1")).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

func (r *Repository) addLifetimeStepsWithTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, delta int64) error {
	if delta <= 0 {
		return nil
	}

	query, args, err := squirrel.
		Update("players").
		Set("lifetime_steps", squirrel.Expr("lifetime_steps + ?", delta)).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, query, args...)
	return err
}
