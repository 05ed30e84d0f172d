package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BySessionID struct {
	SessionID uuid.UUID
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

type AfterSeq struct {
	Seq int64
}

func (s AfterSeq) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("seq > ?", s.Seq)
}

type OrderBySeq struct{}

func (s OrderBySeq) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("seq ASC")
}

type ByMessageID struct {
	MessageID uuid.UUID
}

func (s ByMessageID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("message_id = ?", s.MessageID)
}

type ByMessageIDs struct {
	MessageIDs []uuid.UUID
}

func (s ByMessageIDs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("message_id IN ?", s.MessageIDs)
}

type ByEmoji struct {
	Emoji string
}

func (s ByEmoji) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("emoji = ?", s.Emoji)
}

// UnreadFor matches messages the reader has not seen yet, i.e. sent by the other side.
type UnreadFor struct {
	ReaderID uuid.UUID
}

func (s UnreadFor) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("sender_id <> ? AND is_read = ?", s.ReaderID, false)
}

type WithReactions struct{}

func (s WithReactions) Apply(db *gorm.DB) *gorm.DB {
	return db.Preload("Reactions")
}
