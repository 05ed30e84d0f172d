package entity

import (
	"time"

	"github.com/google/uuid"
)

type Favorite struct {
	Id        uuid.UUID
	StudentId uuid.UUID
	MentorId  uuid.UUID
	CreatedAt time.Time
}
