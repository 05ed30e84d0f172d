package model

import "github.com/google/uuid"

type Category struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"type:varchar(100);not null"`
	Slug      string    `gorm:"type:varchar(100);uniqueIndex;not null"`
	Emoji     string    `gorm:"type:varchar(16)"`
	SortOrder int       `gorm:"default:0"`
}

func (Category) TableName() string {
	return "categories"
}
