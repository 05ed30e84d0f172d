package service

import (
	"context"

	"wizzmo-be/internal/dto"
	"wizzmo-be/internal/entity"
	"wizzmo-be/internal/pkg/logger"
	"wizzmo-be/internal/repository/memory"
	"wizzmo-be/internal/repository/specification"
	"wizzmo-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// DefaultCategories is what cmd/seed installs.
var DefaultCategories = []entity.Category{
	{Name: "Dating", Slug: "dating", Emoji: "💘", SortOrder: 1},
	{Name: "Friendships", Slug: "friendships", Emoji: "🫶", SortOrder: 2},
	{Name: "Academics", Slug: "academics", Emoji: "📚", SortOrder: 3},
	{Name: "College Life", Slug: "college-life", Emoji: "🎓", SortOrder: 4},
	{Name: "Career", Slug: "career", Emoji: "💼", SortOrder: 5},
	{Name: "Mental Health", Slug: "mental-health", Emoji: "🧠", SortOrder: 6},
	{Name: "Family", Slug: "family", Emoji: "🏡", SortOrder: 7},
	{Name: "Style", Slug: "style", Emoji: "👗", SortOrder: 8},
}

type ICategoryService interface {
	List(ctx context.Context) ([]dto.CategoryResponse, error)
	Seed(ctx context.Context, categories []entity.Category) error
}

type categoryService struct {
	uowFactory unitofwork.RepositoryFactory
	cache      *memory.CacheRepository
	logger     logger.ILogger
}

func NewCategoryService(uowFactory unitofwork.RepositoryFactory, cache *memory.CacheRepository, log logger.ILogger) ICategoryService {
	return &categoryService{uowFactory: uowFactory, cache: cache, logger: log}
}

func (s *categoryService) List(ctx context.Context) ([]dto.CategoryResponse, error) {
	categories, ok := []*entity.Category(nil), false
	if s.cache != nil {
		categories, ok = s.cache.GetCategories()
	}
	if !ok {
		uow := s.uowFactory.NewUnitOfWork(ctx)
		var err error
		categories, err = uow.CategoryRepository().FindAll(ctx, specification.OrderBy{Field: "sort_order"}, specification.OrderBy{Field: "name"})
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			s.cache.SaveCategories(categories)
		}
	}

	res := make([]dto.CategoryResponse, 0, len(categories))
	for _, c := range categories {
		res = append(res, toCategoryResponse(c))
	}
	return res, nil
}

// Seed upserts by slug, so running it twice is harmless.
func (s *categoryService) Seed(ctx context.Context, categories []entity.Category) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	for i := range categories {
		c := categories[i]
		if c.Id == uuid.Nil {
			c.Id = uuid.New()
		}
		if err := uow.CategoryRepository().Upsert(ctx, &c); err != nil {
			return err
		}
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.InvalidateCategories()
	}
	s.logger.Info("CATEGORY", "Categories seeded", map[string]interface{}{"count": len(categories)})
	return nil
}
