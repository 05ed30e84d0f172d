package memory

import (
	"testing"
	"time"

	"wizzmo-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileCacheReturnsCopies(t *testing.T) {
	repo := NewCacheRepository(time.Minute)
	user := &entity.User{Id: uuid.New(), Username: "ana"}

	repo.SaveProfile(user)
	user.Username = "mutated"

	got, ok := repo.GetProfile(user.Id)
	require.True(t, ok)
	assert.Equal(t, "ana", got.Username)

	got.Username = "also mutated"
	again, _ := repo.GetProfile(user.Id)
	assert.Equal(t, "ana", again.Username)
}

func TestProfileCacheInvalidate(t *testing.T) {
	repo := NewCacheRepository(time.Minute)
	id := uuid.New()
	repo.SaveProfile(&entity.User{Id: id})

	repo.InvalidateProfile(id)

	_, ok := repo.GetProfile(id)
	assert.False(t, ok)
}

func TestCategoryCache(t *testing.T) {
	repo := NewCacheRepository(time.Minute)
	_, ok := repo.GetCategories()
	assert.False(t, ok)

	repo.SaveCategories([]*entity.Category{{Slug: "dating"}, {Slug: "school"}})
	got, ok := repo.GetCategories()
	require.True(t, ok)
	assert.Len(t, got, 2)

	repo.InvalidateCategories()
	_, ok = repo.GetCategories()
	assert.False(t, ok)
}
