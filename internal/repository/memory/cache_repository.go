package memory

import (
	"time"

	"wizzmo-be/internal/entity"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const categoriesKey = "categories:all"

// CacheRepository keeps hot read models (profiles, the category list) in process.
type CacheRepository struct {
	cache *cache.Cache
}

func NewCacheRepository(ttl time.Duration) *CacheRepository {
	// purge expired items every 10 minutes
	c := cache.New(ttl, 10*time.Minute)
	return &CacheRepository{
		cache: c,
	}
}

func profileKey(id uuid.UUID) string {
	return "profile:" + id.String()
}

func (r *CacheRepository) SaveProfile(user *entity.User) {
	cp := *user
	r.cache.Set(profileKey(user.Id), &cp, cache.DefaultExpiration)
}

func (r *CacheRepository) GetProfile(id uuid.UUID) (*entity.User, bool) {
	if x, found := r.cache.Get(profileKey(id)); found {
		cp := *x.(*entity.User)
		return &cp, true
	}
	return nil, false
}

func (r *CacheRepository) InvalidateProfile(id uuid.UUID) {
	r.cache.Delete(profileKey(id))
}

func (r *CacheRepository) SaveCategories(categories []*entity.Category) {
	r.cache.Set(categoriesKey, categories, cache.NoExpiration)
}

func (r *CacheRepository) GetCategories() ([]*entity.Category, bool) {
	if x, found := r.cache.Get(categoriesKey); found {
		return x.([]*entity.Category), true
	}
	return nil, false
}

func (r *CacheRepository) InvalidateCategories() {
	r.cache.Delete(categoriesKey)
}
