package entity

import (
	"time"

	"github.com/google/uuid"
)

// UnsendWindow bounds both unsend and edit.
const UnsendWindow = 5 * time.Minute

type Message struct {
	Id            uuid.UUID
	SessionId     uuid.UUID
	SenderId      uuid.UUID
	Seq           int64
	Content       *string
	AudioURL      *string
	AudioDuration *int
	ImageURL      *string
	IsRead        bool
	ReplyToId     *uuid.UUID
	Version       int64
	EditedAt      *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
	Reactions     []*Reaction
}

func (m *Message) CanUnsend(now time.Time) bool {
	return now.Sub(m.CreatedAt) <= UnsendWindow
}

// Touch bumps the row version after any mutation.
func (m *Message) Touch(now time.Time) {
	m.Version++
	m.UpdatedAt = now
}

func (m *Message) HasPayload() bool {
	return (m.Content != nil && *m.Content != "") || m.AudioURL != nil || m.ImageURL != nil
}

type Reaction struct {
	Id        uuid.UUID
	MessageId uuid.UUID
	UserId    uuid.UUID
	Emoji     string
	CreatedAt time.Time
}
