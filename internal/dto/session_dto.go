// FILE: internal/dto/session_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"
)

type SessionResponse struct {
	Id            uuid.UUID      `json:"id"`
	QuestionId    uuid.UUID      `json:"question_id"`
	QuestionTitle string         `json:"question_title,omitempty"`
	StudentId     uuid.UUID      `json:"student_id"`
	MentorId      *uuid.UUID     `json:"mentor_id"`
	Student       *AuthorSummary `json:"student,omitempty"`
	Mentor        *AuthorSummary `json:"mentor,omitempty"`
	Status        string         `json:"status"`
	Rating        *int           `json:"rating"`
	Feedback      string         `json:"feedback,omitempty"`
	LastSeq       int64          `json:"last_seq"`
	AcceptedAt    *time.Time     `json:"accepted_at"`
	ResolvedAt    *time.Time     `json:"resolved_at"`
	RatedAt       *time.Time     `json:"rated_at"`
	LastMessageAt *time.Time     `json:"last_message_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type RateSessionRequest struct {
	SessionId uuid.UUID `json:"session_id" validate:"required"`
	Rating    int       `json:"rating" validate:"required,min=1,max=5"`
	Feedback  string    `json:"feedback" validate:"max=1000"`
}
