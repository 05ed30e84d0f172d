package entity

import "github.com/google/uuid"

type Category struct {
	Id        uuid.UUID
	Name      string
	Slug      string
	Emoji     string
	SortOrder int
}
