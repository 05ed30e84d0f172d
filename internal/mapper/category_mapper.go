package mapper

import (
	"wizzmo-be/internal/entity"
	"wizzmo-be/internal/model"
)

type CategoryMapper struct{}

func NewCategoryMapper() *CategoryMapper {
	return &CategoryMapper{}
}

func (m *CategoryMapper) ToEntity(c *model.Category) *entity.Category {
	if c == nil {
		return nil
	}
	return &entity.Category{
		Id:        c.Id,
		Name:      c.Name,
		Slug:      c.Slug,
		Emoji:     c.Emoji,
		SortOrder: c.SortOrder,
	}
}

func (m *CategoryMapper) ToModel(c *entity.Category) *model.Category {
	if c == nil {
		return nil
	}
	return &model.Category{
		Id:        c.Id,
		Name:      c.Name,
		Slug:      c.Slug,
		Emoji:     c.Emoji,
		SortOrder: c.SortOrder,
	}
}
