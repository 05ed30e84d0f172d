// FILE: internal/entity/user_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string
type UserMode string
type UserStatus string

const (
	UserRoleStudent UserRole = "student"
	UserRoleMentor  UserRole = "mentor"
	UserRoleBoth    UserRole = "both"

	UserModeStudent UserMode = "student"
	UserModeMentor  UserMode = "mentor"

	UserStatusActive  UserStatus = "active"
	UserStatusDeleted UserStatus = "deleted"
)

type User struct {
	Id               uuid.UUID
	Email            string
	PasswordHash     *string
	FullName         string
	Username         string
	Role             UserRole
	CurrentMode      UserMode
	AvatarURL        *string
	Bio              string
	University       string
	Expertise        []string // category slugs
	Status           UserStatus
	SessionsResolved int
	RatingAverage    float64
	RatingCount      int
	QuestionsAsked   int
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        *time.Time
}

func (u *User) IsMentor() bool {
	return u.Role == UserRoleMentor || u.Role == UserRoleBoth
}

func (u *User) IsStudent() bool {
	return u.Role == UserRoleStudent || u.Role == UserRoleBoth
}

// CanUseMode reports whether the user's role allows acting in the given mode.
func (u *User) CanUseMode(mode UserMode) bool {
	switch mode {
	case UserModeStudent:
		return u.IsStudent()
	case UserModeMentor:
		return u.IsMentor()
	}
	return false
}

// DefaultMode is the mode a freshly registered user starts in.
func (r UserRole) DefaultMode() UserMode {
	if r == UserRoleMentor {
		return UserModeMentor
	}
	return UserModeStudent
}

type UserRefreshToken struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	Revoked   bool
	IpAddress string
	UserAgent string
	CreatedAt time.Time
}

type UserProvider struct {
	Id             uuid.UUID
	UserId         uuid.UUID
	ProviderName   string
	ProviderUserId string
	AvatarURL      string
	CreatedAt      time.Time
}
