package implementation

import (
	"context"
	"errors"

	"wizzmo-be/internal/entity"
	"wizzmo-be/internal/mapper"
	"wizzmo-be/internal/model"
	"wizzmo-be/internal/repository/contract"
	"wizzmo-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SessionMapper
}

func NewMessageRepository(db *gorm.DB) contract.MessageRepository {
	return &MessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewSessionMapper(),
	}
}

func (r *MessageRepositoryImpl) Create(ctx context.Context, message *entity.Message) error {
	m := r.mapper.MessageToModel(message)
	if err := r.db.WithContext(ctx).Omit("Reactions").Create(m).Error; err != nil {
		return err
	}
	*message = *r.mapper.MessageToEntity(m)
	return nil
}

// UpdateFields writes only the given columns and bumps version in the same
// statement, then reloads the row. Concurrent writers never share a version.
func (r *MessageRepositoryImpl) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*entity.Message, error) {
	columns := make(map[string]interface{}, len(fields)+2)
	for k, v := range fields {
		columns[k] = v
	}
	columns["version"] = gorm.Expr("version + 1")
	columns["updated_at"] = gorm.Expr("NOW()")

	res := r.db.WithContext(ctx).Model(&model.Message{}).Where("id = ?", id).UpdateColumns(columns)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return r.FindOne(ctx, specification.ByID{ID: id}, specification.WithReactions{})
}

func (r *MessageRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Message{}).Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"deleted_at": gorm.Expr("NOW()"),
			"version":    gorm.Expr("version + 1"),
		}).Error
}

func (r *MessageRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Message, error) {
	var m model.Message
	if err := applySpecifications(r.db.WithContext(ctx), specs...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.MessageToEntity(&m), nil
}

func (r *MessageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	var models []*model.Message
	if err := applySpecifications(r.db.WithContext(ctx), specs...).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]*entity.Message, 0, len(models))
	for _, m := range models {
		res = append(res, r.mapper.MessageToEntity(m))
	}
	return res, nil
}

// BumpVersion marks a message as changed when a child row (reaction) moves.
func (r *MessageRepositoryImpl) BumpVersion(ctx context.Context, id uuid.UUID) (*entity.Message, error) {
	return r.UpdateFields(ctx, id, nil)
}

// Reactions

type ReactionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SessionMapper
}

func NewReactionRepository(db *gorm.DB) contract.ReactionRepository {
	return &ReactionRepositoryImpl{db: db, mapper: mapper.NewSessionMapper()}
}

func (r *ReactionRepositoryImpl) Create(ctx context.Context, reaction *entity.Reaction) error {
	m := r.mapper.ReactionToModel(reaction)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*reaction = *r.mapper.ReactionToEntity(m)
	return nil
}

func (r *ReactionRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Reaction{}).Error
}

func (r *ReactionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Reaction, error) {
	var m model.Reaction
	if err := applySpecifications(r.db.WithContext(ctx), specs...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ReactionToEntity(&m), nil
}

func (r *ReactionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Reaction, error) {
	var models []*model.Reaction
	if err := applySpecifications(r.db.WithContext(ctx), specs...).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]*entity.Reaction, 0, len(models))
	for _, m := range models {
		res = append(res, r.mapper.ReactionToEntity(m))
	}
	return res, nil
}
