package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Message struct {
	Id            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_messages_session_seq,priority:1"`
	SenderId      uuid.UUID  `gorm:"type:uuid;not null"`
	Seq           int64      `gorm:"not null;uniqueIndex:idx_messages_session_seq,priority:2"`
	Content       *string    `gorm:"type:text"`
	AudioURL      *string    `gorm:"type:text"`
	AudioDuration *int
	ImageURL      *string    `gorm:"type:text"`
	IsRead        bool       `gorm:"default:false"`
	ReplyToId     *uuid.UUID `gorm:"type:uuid"`
	Version       int64      `gorm:"not null;default:1"`
	EditedAt      *time.Time
	CreatedAt     time.Time      `gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime"`
	DeletedAt     gorm.DeletedAt `gorm:"index"`
	Reactions     []Reaction     `gorm:"foreignKey:MessageId"`
}

func (Message) TableName() string {
	return "messages"
}

type Reaction struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MessageId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reactions_message_user_emoji,priority:1"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reactions_message_user_emoji,priority:2"`
	Emoji     string    `gorm:"type:varchar(16);not null;uniqueIndex:idx_reactions_message_user_emoji,priority:3"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Reaction) TableName() string {
	return "message_reactions"
}
