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

type QuestionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.QuestionMapper
}

func NewQuestionRepository(db *gorm.DB) contract.QuestionRepository {
	return &QuestionRepositoryImpl{
		db:     db,
		mapper: mapper.NewQuestionMapper(),
	}
}

func (r *QuestionRepositoryImpl) Create(ctx context.Context, question *entity.Question) error {
	m := r.mapper.ToModel(question)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*question = *r.mapper.ToEntity(m)
	return nil
}

func (r *QuestionRepositoryImpl) Update(ctx context.Context, question *entity.Question) error {
	m := r.mapper.ToModel(question)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*question = *r.mapper.ToEntity(m)
	return nil
}

func (r *QuestionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Question, error) {
	var m model.Question
	if err := applySpecifications(r.db.WithContext(ctx), specs...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *QuestionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Question, error) {
	var models []*model.Question
	if err := applySpecifications(r.db.WithContext(ctx), specs...).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]*entity.Question, 0, len(models))
	for _, m := range models {
		res = append(res, r.mapper.ToEntity(m))
	}
	return res, nil
}

func (r *QuestionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Question{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *QuestionRepositoryImpl) AdjustVotes(ctx context.Context, id uuid.UUID, upDelta, downDelta int) error {
	return r.db.WithContext(ctx).Model(&model.Question{}).Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"upvotes":   gorm.Expr("GREATEST(upvotes + ?, 0)", upDelta),
			"downvotes": gorm.Expr("GREATEST(downvotes + ?, 0)", downDelta),
		}).Error
}

func (r *QuestionRepositoryImpl) IncrementCommentCount(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Question{}).Where("id = ?", id).
		UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
}

func (r *QuestionRepositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.QuestionStatus) error {
	return r.db.WithContext(ctx).Model(&model.Question{}).Where("id = ?", id).Update("status", string(status)).Error
}

// Comments

type CommentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.QuestionMapper
}

func NewCommentRepository(db *gorm.DB) contract.CommentRepository {
	return &CommentRepositoryImpl{db: db, mapper: mapper.NewQuestionMapper()}
}

func (r *CommentRepositoryImpl) Create(ctx context.Context, comment *entity.Comment) error {
	m := r.mapper.CommentToModel(comment)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*comment = *r.mapper.CommentToEntity(m)
	return nil
}

func (r *CommentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Comment, error) {
	var models []*model.Comment
	if err := applySpecifications(r.db.WithContext(ctx), specs...).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]*entity.Comment, 0, len(models))
	for _, m := range models {
		res = append(res, r.mapper.CommentToEntity(m))
	}
	return res, nil
}

// Votes

type VoteRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.QuestionMapper
}

func NewVoteRepository(db *gorm.DB) contract.VoteRepository {
	return &VoteRepositoryImpl{db: db, mapper: mapper.NewQuestionMapper()}
}

func (r *VoteRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Vote, error) {
	var m model.Vote
	if err := applySpecifications(r.db.WithContext(ctx), specs...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.VoteToEntity(&m), nil
}

func (r *VoteRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Vote, error) {
	var models []*model.Vote
	if err := applySpecifications(r.db.WithContext(ctx), specs...).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]*entity.Vote, 0, len(models))
	for _, m := range models {
		res = append(res, r.mapper.VoteToEntity(m))
	}
	return res, nil
}

func (r *VoteRepositoryImpl) Create(ctx context.Context, vote *entity.Vote) error {
	m := r.mapper.VoteToModel(vote)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*vote = *r.mapper.VoteToEntity(m)
	return nil
}

func (r *VoteRepositoryImpl) Update(ctx context.Context, vote *entity.Vote) error {
	return r.db.WithContext(ctx).Model(&model.Vote{}).Where("id = ?", vote.Id).
		Update("vote_type", string(vote.VoteType)).Error
}

func (r *VoteRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Vote{}).Error
}

// Favorites

type FavoriteRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.QuestionMapper
}

func NewFavoriteRepository(db *gorm.DB) contract.FavoriteRepository {
	return &FavoriteRepositoryImpl{db: db, mapper: mapper.NewQuestionMapper()}
}

func (r *FavoriteRepositoryImpl) Create(ctx context.Context, favorite *entity.Favorite) error {
	m := r.mapper.FavoriteToModel(favorite)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*favorite = *r.mapper.FavoriteToEntity(m)
	return nil
}

func (r *FavoriteRepositoryImpl) Delete(ctx context.Context, studentId, mentorId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("student_id = ? AND mentor_id = ?", studentId, mentorId).
		Delete(&model.Favorite{}).Error
}

func (r *FavoriteRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Favorite, error) {
	var models []*model.Favorite
	if err := applySpecifications(r.db.WithContext(ctx), specs...).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]*entity.Favorite, 0, len(models))
	for _, m := range models {
		res = append(res, r.mapper.FavoriteToEntity(m))
	}
	return res, nil
}
