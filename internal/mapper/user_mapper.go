package mapper

import (
	"wizzmo-be/internal/entity"
	"wizzmo-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UserMapper struct{}

func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

func (m *UserMapper) ToEntity(u *model.User) *entity.User {
	if u == nil {
		return nil
	}
	e := &entity.User{
		Id:               u.Id,
		Email:            u.Email,
		PasswordHash:     u.PasswordHash,
		FullName:         u.FullName,
		Username:         u.Username,
		Role:             entity.UserRole(u.Role),
		CurrentMode:      entity.UserMode(u.CurrentMode),
		AvatarURL:        u.AvatarURL,
		Bio:              u.Bio,
		University:       u.University,
		Expertise:        []string(u.Expertise),
		Status:           entity.UserStatus(u.Status),
		SessionsResolved: u.SessionsResolved,
		RatingAverage:    u.RatingAverage,
		RatingCount:      u.RatingCount,
		QuestionsAsked:   u.QuestionsAsked,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
	if e.Expertise == nil {
		e.Expertise = []string{}
	}
	if u.DeletedAt.Valid {
		t := u.DeletedAt.Time
		e.DeletedAt = &t
	}
	return e
}

func (m *UserMapper) ToModel(u *entity.User) *model.User {
	if u == nil {
		return nil
	}
	mdl := &model.User{
		Id:               u.Id,
		Email:            u.Email,
		PasswordHash:     u.PasswordHash,
		FullName:         u.FullName,
		Username:         u.Username,
		Role:             string(u.Role),
		CurrentMode:      string(u.CurrentMode),
		AvatarURL:        u.AvatarURL,
		Bio:              u.Bio,
		University:       u.University,
		Expertise:        datatypes.JSONSlice[string](u.Expertise),
		Status:           string(u.Status),
		SessionsResolved: u.SessionsResolved,
		RatingAverage:    u.RatingAverage,
		RatingCount:      u.RatingCount,
		QuestionsAsked:   u.QuestionsAsked,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
	if u.DeletedAt != nil {
		mdl.DeletedAt = gorm.DeletedAt{Time: *u.DeletedAt, Valid: true}
	}
	return mdl
}

func (m *UserMapper) ToEntities(users []*model.User) []*entity.User {
	res := make([]*entity.User, 0, len(users))
	for _, u := range users {
		res = append(res, m.ToEntity(u))
	}
	return res
}

func (m *UserMapper) RefreshTokenToEntity(t *model.UserRefreshToken) *entity.UserRefreshToken {
	if t == nil {
		return nil
	}
	return &entity.UserRefreshToken{
		Id:        t.Id,
		UserId:    t.UserId,
		TokenHash: t.TokenHash,
		ExpiresAt: t.ExpiresAt,
		Revoked:   t.Revoked,
		IpAddress: t.IpAddress,
		UserAgent: t.UserAgent,
		CreatedAt: t.CreatedAt,
	}
}

func (m *UserMapper) RefreshTokenToModel(t *entity.UserRefreshToken) *model.UserRefreshToken {
	if t == nil {
		return nil
	}
	return &model.UserRefreshToken{
		Id:        t.Id,
		UserId:    t.UserId,
		TokenHash: t.TokenHash,
		ExpiresAt: t.ExpiresAt,
		Revoked:   t.Revoked,
		IpAddress: t.IpAddress,
		UserAgent: t.UserAgent,
		CreatedAt: t.CreatedAt,
	}
}

func (m *UserMapper) ProviderToEntity(p *model.UserProvider) *entity.UserProvider {
	if p == nil {
		return nil
	}
	return &entity.UserProvider{
		Id:             p.Id,
		UserId:         p.UserId,
		ProviderName:   p.ProviderName,
		ProviderUserId: p.ProviderUserId,
		AvatarURL:      p.AvatarURL,
		CreatedAt:      p.CreatedAt,
	}
}

func (m *UserMapper) ProviderToModel(p *entity.UserProvider) *model.UserProvider {
	if p == nil {
		return nil
	}
	return &model.UserProvider{
		Id:             p.Id,
		UserId:         p.UserId,
		ProviderName:   p.ProviderName,
		ProviderUserId: p.ProviderUserId,
		AvatarURL:      p.AvatarURL,
		CreatedAt:      p.CreatedAt,
	}
}
