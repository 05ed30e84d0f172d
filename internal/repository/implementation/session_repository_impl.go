package implementation

import (
	"context"
	"errors"
	"time"

	"wizzmo-be/internal/entity"
	"wizzmo-be/internal/mapper"
	"wizzmo-be/internal/model"
	"wizzmo-be/internal/repository/contract"
	"wizzmo-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AdviceSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SessionMapper
}

func NewAdviceSessionRepository(db *gorm.DB) contract.AdviceSessionRepository {
	return &AdviceSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSessionMapper(),
	}
}

func (r *AdviceSessionRepositoryImpl) Create(ctx context.Context, session *entity.AdviceSession) error {
	m := r.mapper.ToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ToEntity(m)
	return nil
}

func (r *AdviceSessionRepositoryImpl) Update(ctx context.Context, session *entity.AdviceSession) error {
	m := r.mapper.ToModel(session)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ToEntity(m)
	return nil
}

func (r *AdviceSessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.AdviceSession, error) {
	var m model.AdviceSession
	if err := applySpecifications(r.db.WithContext(ctx), specs...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *AdviceSessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AdviceSession, error) {
	var models []*model.AdviceSession
	if err := applySpecifications(r.db.WithContext(ctx), specs...).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]*entity.AdviceSession, 0, len(models))
	for _, m := range models {
		res = append(res, r.mapper.ToEntity(m))
	}
	return res, nil
}

func (r *AdviceSessionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.AdviceSession{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// NextSeq increments last_seq in place; the row lock it takes serializes
// concurrent senders until the transaction ends.
func (r *AdviceSessionRepositoryImpl) NextSeq(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	var seq int64
	err := r.db.WithContext(ctx).Raw(`
		UPDATE advice_sessions
		SET last_seq = last_seq + 1, last_message_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
		RETURNING last_seq
	`, at, at, id).Scan(&seq).Error
	if err != nil {
		return 0, err
	}
	if seq == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return seq, nil
}

func (r *AdviceSessionRepositoryImpl) AggregateForMentor(ctx context.Context, mentorId uuid.UUID) (*contract.MentorAggregate, error) {
	var row struct {
		SessionsResolved int
		ActiveSessions   int
		RatingAverage    float64
		RatingCount      int
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) FILTER (WHERE status = 'resolved') AS sessions_resolved,
			COUNT(*) FILTER (WHERE status = 'active') AS active_sessions,
			COALESCE(AVG(rating) FILTER (WHERE rating IS NOT NULL), 0) AS rating_average,
			COUNT(rating) AS rating_count
		FROM advice_sessions
		WHERE mentor_id = ? AND deleted_at IS NULL
	`, mentorId).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &contract.MentorAggregate{
		SessionsResolved: row.SessionsResolved,
		ActiveSessions:   row.ActiveSessions,
		RatingAverage:    row.RatingAverage,
		RatingCount:      row.RatingCount,
	}, nil
}
