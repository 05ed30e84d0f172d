package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PublicQuestions struct{}

func (s PublicQuestions) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_public = ?", true)
}

type ByCategoryID struct {
	CategoryID uuid.UUID
}

func (s ByCategoryID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("category_id = ?", s.CategoryID)
}

type ByQuestionID struct {
	QuestionID uuid.UUID
}

func (s ByQuestionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("question_id = ?", s.QuestionID)
}

type BySlug struct {
	Slug string
}

func (s BySlug) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("slug = ?", s.Slug)
}

type ByQuestionIDs struct {
	QuestionIDs []uuid.UUID
}

func (s ByQuestionIDs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("question_id IN ?", s.QuestionIDs)
}
