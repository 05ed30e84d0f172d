package implementation

import (
	"context"
	"errors"

	"wizzmo-be/internal/entity"
	"wizzmo-be/internal/mapper"
	"wizzmo-be/internal/model"
	"wizzmo-be/internal/repository/contract"
	"wizzmo-be/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CategoryRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CategoryMapper
}

func NewCategoryRepository(db *gorm.DB) contract.CategoryRepository {
	return &CategoryRepositoryImpl{
		db:     db,
		mapper: mapper.NewCategoryMapper(),
	}
}

func (r *CategoryRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Category, error) {
	var m model.Category
	if err := applySpecifications(r.db.WithContext(ctx), specs...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *CategoryRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Category, error) {
	var models []*model.Category
	if err := applySpecifications(r.db.WithContext(ctx), specs...).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]*entity.Category, 0, len(models))
	for _, m := range models {
		res = append(res, r.mapper.ToEntity(m))
	}
	return res, nil
}

func (r *CategoryRepositoryImpl) Upsert(ctx context.Context, category *entity.Category) error {
	m := r.mapper.ToModel(category)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "emoji", "sort_order"}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	*category = *r.mapper.ToEntity(m)
	return nil
}
