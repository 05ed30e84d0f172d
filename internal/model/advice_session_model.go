package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AdviceSession struct {
	Id            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	QuestionId    uuid.UUID  `gorm:"type:uuid;not null;index"`
	StudentId     uuid.UUID  `gorm:"type:uuid;not null;index"`
	MentorId      *uuid.UUID `gorm:"type:uuid;index"`
	Status        string     `gorm:"type:varchar(20);not null;default:'pending';index"`
	Rating        *int
	Feedback      string `gorm:"type:text"`
	LastSeq       int64  `gorm:"not null;default:0"`
	AcceptedAt    *time.Time
	ResolvedAt    *time.Time
	RatedAt       *time.Time
	LastMessageAt *time.Time
	CreatedAt     time.Time      `gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime"`
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

func (AdviceSession) TableName() string {
	return "advice_sessions"
}
