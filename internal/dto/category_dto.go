package dto

import "github.com/google/uuid"

type CategoryResponse struct {
	Id        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Emoji     string    `json:"emoji"`
	SortOrder int       `json:"sort_order"`
}
