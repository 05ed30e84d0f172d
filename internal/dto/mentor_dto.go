// FILE: internal/dto/mentor_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"
)

type MentorResponse struct {
	UserResponse
	IsFavorite bool `json:"is_favorite"`
}

// MentorPassResponse is the aggregated mentor card.
type MentorPassResponse struct {
	MentorId         uuid.UUID `json:"mentor_id"`
	Username         string    `json:"username"`
	FullName         string    `json:"full_name"`
	AvatarURL        *string   `json:"avatar_url"`
	Expertise        []string  `json:"expertise"`
	SessionsResolved int       `json:"sessions_resolved"`
	ActiveSessions   int       `json:"active_sessions"`
	RatingAverage    float64   `json:"rating_average"`
	RatingCount      int       `json:"rating_count"`
	FavoritedBy      int64     `json:"favorited_by"`
	MemberSince      time.Time `json:"member_since"`
}

type FavoriteResponse struct {
	MentorId   uuid.UUID `json:"mentor_id"`
	IsFavorite bool      `json:"is_favorite"`
}

// MentorStatsJob is the watermill payload asking for a mentor stats recompute.
type MentorStatsJob struct {
	MentorId uuid.UUID `json:"mentor_id"`
}
