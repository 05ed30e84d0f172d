package specification

import (
	"gorm.io/gorm"

	"github.com/google/uuid"
)

type ByEmail struct {
	Email string
}

func (s ByEmail) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("email = ?", s.Email)
}

type ByUsername struct {
	Username string
}

func (s ByUsername) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("username = ?", s.Username)
}

type UserOwnedBy struct {
	UserID uuid.UUID
}

func (s UserOwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

type ActiveUsers struct{}

func (s ActiveUsers) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", "active")
}

// Token Specs

type ByTokenHash struct {
	Hash string
}

func (s ByTokenHash) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("token_hash = ?", s.Hash)
}

type NotRevoked struct{}

func (s NotRevoked) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("revoked = ?", false)
}

type ByProvider struct {
	Name   string
	UserID string
}

func (s ByProvider) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("provider_name = ? AND provider_user_id = ?", s.Name, s.UserID)
}
