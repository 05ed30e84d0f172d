// FILE: internal/dto/user_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"
)

// UserResponse is both the own profile and the public profile; Email is
// only filled for the owner.
type UserResponse struct {
	Id               uuid.UUID `json:"id"`
	Email            string    `json:"email,omitempty"`
	FullName         string    `json:"full_name"`
	Username         string    `json:"username"`
	Role             string    `json:"role"`
	CurrentMode      string    `json:"current_mode"`
	AvatarURL        *string   `json:"avatar_url"`
	Bio              string    `json:"bio"`
	University       string    `json:"university"`
	Expertise        []string  `json:"expertise"`
	SessionsResolved int       `json:"sessions_resolved"`
	RatingAverage    float64   `json:"rating_average"`
	RatingCount      int       `json:"rating_count"`
	QuestionsAsked   int       `json:"questions_asked"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// UpdateProfileRequest patches only the fields that are present.
type UpdateProfileRequest struct {
	FullName   *string  `json:"full_name" validate:"omitempty,min=2,max=100"`
	Username   *string  `json:"username" validate:"omitempty,min=3,max=30,username"`
	Bio        *string  `json:"bio" validate:"omitempty,max=500"`
	University *string  `json:"university" validate:"omitempty,max=200"`
	Expertise  []string `json:"expertise" validate:"omitempty,max=10,dive,min=1,max=100"`
}

type SetModeRequest struct {
	Mode string `json:"mode" validate:"required,oneof=student mentor"`
}

type AvatarResponse struct {
	AvatarURL    string `json:"avatar_url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}
