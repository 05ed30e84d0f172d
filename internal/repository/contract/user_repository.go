package contract

import (
	"context"

	"wizzmo-be/internal/entity"
	"wizzmo-be/internal/repository/specification"

	"github.com/google/uuid"
)

// UserStats is the aggregate written back after sessions resolve or get rated.
type UserStats struct {
	SessionsResolved int
	RatingAverage    float64
	RatingCount      int
}

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	Delete(ctx context.Context, id uuid.UUID) error // Soft delete
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	FindOneUnscoped(ctx context.Context, specs ...specification.Specification) (*entity.User, error) // Includes soft-deleted
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// Token Management
	CreateRefreshToken(ctx context.Context, token *entity.UserRefreshToken) error
	FindRefreshToken(ctx context.Context, specs ...specification.Specification) (*entity.UserRefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllRefreshTokens(ctx context.Context, userId uuid.UUID) error

	// Provider
	SaveUserProvider(ctx context.Context, provider *entity.UserProvider) error
	FindUserProvider(ctx context.Context, specs ...specification.Specification) (*entity.UserProvider, error)

	// Business Specific
	UpdateMode(ctx context.Context, id uuid.UUID, mode entity.UserMode) error
	UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) error
	UpdateStats(ctx context.Context, id uuid.UUID, stats UserStats) error
	IncrementQuestionsAsked(ctx context.Context, id uuid.UUID) error
}
