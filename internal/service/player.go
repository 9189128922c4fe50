package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"steprivals/internal/model"
	"steprivals/internal/repository"

	"github.com/google/uuid"
)

const MaxDisplayNameLength = 32

type PlayerService struct {
	players PlayerRepository
}

func NewPlayerService(players PlayerRepository) *PlayerService {
	return &PlayerService{
		players: players,
	}
}

func (s *PlayerService) Register(ctx context.Context, displayName, avatar string) (*model.Player, error) {
	if err := validateDisplayName(displayName); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	player := &model.Player{
		ID:          uuid.New(),
		DisplayName: displayName,
		Avatar:      avatar,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.players.CreatePlayer(ctx, player)
	if err != nil {
		return nil, fmt.Errorf("failed to register player: %w", err)
	}

	return player, nil
}

func (s *PlayerService) GetPlayer(ctx context.Context, id uuid.UUID) (*model.Player, error) {
	player, err := s.players.GetPlayer(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return player, nil
}

func (s *PlayerService) UpdateProfile(ctx context.Context, id uuid.UUID, displayName, avatar string) error {
	if err := validateDisplayName(displayName); err != nil {
		return err
	}

	err := s.players.UpdatePlayerProfile(ctx, id, displayName, avatar)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlayerNotFound
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

func validateDisplayName(name string) error {
	if name == "" || utf8.RuneCountInString(name) > MaxDisplayNameLength {
		return fmt.Errorf("%w: display name must be 1-%d characters", ErrValidation, MaxDisplayNameLength)
	}
	return nil
}
