package contract

import (
	"context"

	"wizzmo-be/internal/entity"
	"wizzmo-be/internal/repository/specification"

	"github.com/google/uuid"
)

type QuestionRepository interface {
	Create(ctx context.Context, question *entity.Question) error
	Update(ctx context.Context, question *entity.Question) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Question, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Question, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// AdjustVotes applies signed deltas to the vote counters in one statement.
	AdjustVotes(ctx context.Context, id uuid.UUID, upDelta, downDelta int) error
	IncrementCommentCount(ctx context.Context, id uuid.UUID) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.QuestionStatus) error
}

type CommentRepository interface {
	Create(ctx context.Context, comment *entity.Comment) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Comment, error)
}

type VoteRepository interface {
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Vote, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Vote, error)
	Create(ctx context.Context, vote *entity.Vote) error
	Update(ctx context.Context, vote *entity.Vote) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type FavoriteRepository interface {
	Create(ctx context.Context, favorite *entity.Favorite) error
	Delete(ctx context.Context, studentId, mentorId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Favorite, error)
}
