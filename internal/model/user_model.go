package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	Id               uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email            string                      `gorm:"type:varchar(255);uniqueIndex:idx_users_email;not null"`
	PasswordHash     *string                     `gorm:"type:varchar(255)"`
	FullName         string                      `gorm:"type:varchar(255);not null"`
	Username         string                      `gorm:"type:varchar(50);uniqueIndex:idx_users_username;not null"`
	Role             string                      `gorm:"type:varchar(20);not null;default:'student'"`
	CurrentMode      string                      `gorm:"type:varchar(20);not null;default:'student'"`
	AvatarURL        *string                     `gorm:"type:text"`
	Bio              string                      `gorm:"type:text"`
	University       string                      `gorm:"type:varchar(255)"`
	Expertise        datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Status           string                      `gorm:"type:varchar(20);not null;default:'active'"`
	SessionsResolved int                         `gorm:"default:0"`
	RatingAverage    float64                     `gorm:"default:0"`
	RatingCount      int                         `gorm:"default:0"`
	QuestionsAsked   int                         `gorm:"default:0"`
	CreatedAt        time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt        time.Time                   `gorm:"autoUpdateTime"`
	DeletedAt        gorm.DeletedAt              `gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

type UserProvider struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId         uuid.UUID `gorm:"type:uuid;not null;index"`
	ProviderName   string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_user_providers_provider,priority:1"`
	ProviderUserId string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_user_providers_provider,priority:2"`
	AvatarURL      string    `gorm:"type:text"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

func (UserProvider) TableName() string {
	return "user_providers"
}

type UserRefreshToken struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;index"`
	TokenHash string    `gorm:"type:text;not null;index"`
	ExpiresAt time.Time `gorm:"not null"`
	Revoked   bool      `gorm:"default:false"`
	IpAddress string    `gorm:"type:varchar(45)"`
	UserAgent string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (UserRefreshToken) TableName() string {
	return "user_refresh_tokens"
}
