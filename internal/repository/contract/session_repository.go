package contract

import (
	"context"
	"time"

	"wizzmo-be/internal/entity"
	"wizzmo-be/internal/repository/specification"

	"github.com/google/uuid"
)

// MentorAggregate is what the mentor pass and the stats job compute from sessions.
type MentorAggregate struct {
	SessionsResolved int
	ActiveSessions   int
	RatingAverage    float64
	RatingCount      int
}

type AdviceSessionRepository interface {
	Create(ctx context.Context, session *entity.AdviceSession) error
	Update(ctx context.Context, session *entity.AdviceSession) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.AdviceSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AdviceSession, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// NextSeq atomically reserves the next message sequence number for the session.
	NextSeq(ctx context.Context, id uuid.UUID, at time.Time) (int64, error)
	AggregateForMentor(ctx context.Context, mentorId uuid.UUID) (*MentorAggregate, error)
}

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*entity.Message, error)
	Delete(ctx context.Context, id uuid.UUID) error // Soft delete (unsend)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Message, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error)
	BumpVersion(ctx context.Context, id uuid.UUID) (*entity.Message, error)
}

type ReactionRepository interface {
	Create(ctx context.Context, reaction *entity.Reaction) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Reaction, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Reaction, error)
}
