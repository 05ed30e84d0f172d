// FILE: internal/dto/question_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"
)

type AskQuestionRequest struct {
	Title       string      `json:"title" validate:"required,min=5,max=200"`
	Body        string      `json:"body" validate:"max=5000"`
	CategoryId  *uuid.UUID  `json:"category_id"`
	IsAnonymous bool        `json:"is_anonymous"`
	MentorIds   []uuid.UUID `json:"mentor_ids" validate:"omitempty,max=5"` // non-empty: private, directed
}

type AuthorSummary struct {
	Id        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	AvatarURL *string   `json:"avatar_url"`
}

type QuestionResponse struct {
	Id           uuid.UUID      `json:"id"`
	StudentId    *uuid.UUID     `json:"student_id"` // nil for anonymous questions seen by others
	Author       *AuthorSummary `json:"author,omitempty"`
	CategoryId   *uuid.UUID     `json:"category_id"`
	Title        string         `json:"title"`
	Body         string         `json:"body"`
	IsPublic     bool           `json:"is_public"`
	IsAnonymous  bool           `json:"is_anonymous"`
	Status       string         `json:"status"`
	Upvotes      int            `json:"upvotes"`
	Downvotes    int            `json:"downvotes"`
	CommentCount int            `json:"comment_count"`
	MyVote       *string        `json:"my_vote"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type AskQuestionResponse struct {
	Question QuestionResponse  `json:"question"`
	Sessions []SessionResponse `json:"sessions"`
}

type FeedResponse struct {
	Items  []QuestionResponse `json:"items"`
	Total  int64              `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

type VoteRequest struct {
	VoteType string `json:"vote_type" validate:"required,oneof=up down"`
}

type VoteResponse struct {
	QuestionId uuid.UUID `json:"question_id"`
	Upvotes    int       `json:"upvotes"`
	Downvotes  int       `json:"downvotes"`
	MyVote     *string   `json:"my_vote"`
}

type CommentRequest struct {
	Body string `json:"body" validate:"required,min=1,max=2000"`
}

type CommentResponse struct {
	Id         uuid.UUID      `json:"id"`
	QuestionId uuid.UUID      `json:"question_id"`
	AuthorId   uuid.UUID      `json:"author_id"`
	Author     *AuthorSummary `json:"author,omitempty"`
	Body       string         `json:"body"`
	CreatedAt  time.Time      `json:"created_at"`
}
