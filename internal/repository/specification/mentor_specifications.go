package specification

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Mentors struct{}

func (s Mentors) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("role IN ?", []string{"mentor", "both"})
}

// WithExpertise matches users whose expertise list contains the category slug.
type WithExpertise struct {
	Slug string
}

func (s WithExpertise) Apply(db *gorm.DB) *gorm.DB {
	raw, _ := json.Marshal([]string{s.Slug})
	return db.Where("expertise @> ?", string(raw))
}

type ExcludeUser struct {
	UserID uuid.UUID
}

func (s ExcludeUser) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id <> ?", s.UserID)
}
