package contract

import (
	"context"

	"wizzmo-be/internal/entity"
	"wizzmo-be/internal/repository/specification"
)

type CategoryRepository interface {
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Category, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Category, error)
	// Upsert inserts or updates by slug.
	Upsert(ctx context.Context, category *entity.Category) error
}
