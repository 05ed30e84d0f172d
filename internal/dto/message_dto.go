// FILE: internal/dto/message_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"
)

type ReactionResponse struct {
	Id        uuid.UUID `json:"id"`
	UserId    uuid.UUID `json:"user_id"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageResponse is also the record shape of "messages" row changes.
type MessageResponse struct {
	Id            uuid.UUID          `json:"id"`
	SessionId     uuid.UUID          `json:"session_id"`
	SenderId      uuid.UUID          `json:"sender_id"`
	Seq           int64              `json:"seq"`
	Content       *string            `json:"content"`
	AudioURL      *string            `json:"audio_url"`
	AudioDuration *int               `json:"audio_duration"`
	ImageURL      *string            `json:"image_url"`
	IsRead        bool               `json:"is_read"`
	ReplyToId     *uuid.UUID         `json:"reply_to_id"`
	Version       int64              `json:"version"`
	EditedAt      *time.Time         `json:"edited_at"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	DeletedAt     *time.Time         `json:"deleted_at,omitempty"`
	Reactions     []ReactionResponse `json:"reactions"`
}

type SendMessageRequest struct {
	Content   string     `json:"content" validate:"required,min=1,max=4000"`
	ReplyToId *uuid.UUID `json:"reply_to_id"`
}

// SendMediaRequest is the non-file part of the multipart media upload.
type SendMediaRequest struct {
	Kind      string     `form:"kind" validate:"required,oneof=audio image"`
	Duration  int        `form:"duration" validate:"omitempty,min=0,max=3600"`
	Caption   string     `form:"caption" validate:"max=4000"`
	ReplyToId *uuid.UUID `form:"-"`
}

type EditMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=4000"`
}

type ReactionRequest struct {
	Emoji string `json:"emoji" validate:"required,max=16"`
}

type MarkReadResponse struct {
	Updated int `json:"updated"`
}
