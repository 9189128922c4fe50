package stepsource

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrUnauthorized = errors.New("step source authorization not granted")
	ErrUnavailable  = errors.New("step source unavailable")
)

// Source is the external step-count oracle: a cumulative, non-negative step
// count over a time window, plus a queryable authorization state.
type Source interface {
	Steps(ctx context.Context, playerID uuid.UUID, from, to time.Time) (int64, error)
	Authorized(ctx context.Context, playerID uuid.UUID) (bool, error)
	RequestAuthorization(ctx context.Context, playerID uuid.UUID) error
}
