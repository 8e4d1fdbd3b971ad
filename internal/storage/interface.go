package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal"
)

var ErrNotFound = errors.New("storage: not found")

// FoodLogRepository lists entries newest first. A zero since returns every
// entry of the user.
type FoodLogRepository interface {
	SaveFoodLog(ctx context.Context, log *internal.FoodLog) error
	ListFoodLogs(ctx context.Context, userID string, since time.Time) ([]internal.FoodLog, error)
	DeleteFoodLog(ctx context.Context, userID, id string) error
}

type StoolLogRepository interface {
	SaveStoolLog(ctx context.Context, log *internal.StoolLog) error
	ListStoolLogs(ctx context.Context, userID string, since time.Time) ([]internal.StoolLog, error)
	DeleteStoolLog(ctx context.Context, userID, id string) error
}

type ProfileRepository interface {
	SaveHealthProfile(ctx context.Context, p *internal.HealthProfile) error
	GetHealthProfile(ctx context.Context, userID string) (*internal.HealthProfile, error)
}

// Store is implemented by every backend.
type Store interface {
	FoodLogRepository
	StoolLogRepository
	ProfileRepository
	Close() error
}
