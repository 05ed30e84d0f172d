// FILE: internal/service/auth_service.go
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"wizzmo-be/internal/config"
	"wizzmo-be/internal/dto"
	"wizzmo-be/internal/entity"
	"wizzmo-be/internal/pkg/apperror"
	"wizzmo-be/internal/pkg/logger"
	"wizzmo-be/internal/pkg/mailer"
	"wizzmo-be/internal/pkg/serverutils"
	"wizzmo-be/internal/repository/specification"
	"wizzmo-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest, ipAddress, userAgent string) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest, ipAddress, userAgent string) (*dto.AuthResponse, error)
	Refresh(ctx context.Context, req *dto.RefreshRequest, ipAddress, userAgent string) (*dto.AuthResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}

type authService struct {
	uowFactory   unitofwork.RepositoryFactory
	emailService mailer.IEmailService
	authCfg      config.AuthConfig
	logger       logger.ILogger
	now          func() time.Time
}

func NewAuthService(uowFactory unitofwork.RepositoryFactory, emailService mailer.IEmailService, authCfg config.AuthConfig, log logger.ILogger) IAuthService {
	return &authService{
		uowFactory:   uowFactory,
		emailService: emailService,
		authCfg:      authCfg,
		logger:       log,
		now:          time.Now,
	}
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest, ipAddress, userAgent string) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)

	role := entity.UserRole(req.Role)
	if role == "" {
		role = entity.UserRoleStudent
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	// 1. Uniqueness (the unique indexes still catch races below)
	existing, err := uow.UserRepository().FindOne(ctx, specification.ByUsername{Username: username})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.Conflict(apperror.ErrUsernameTaken)
	}
	existing, err = uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.Conflict(apperror.ErrEmailTaken)
	}

	// 2. Hash password
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	hashStr := string(hash)

	now := s.now()
	user := &entity.User{
		Id:           uuid.New(),
		Email:        email,
		PasswordHash: &hashStr,
		FullName:     strings.TrimSpace(req.FullName),
		Username:     username,
		Role:         role,
		CurrentMode:  role.DefaultMode(),
		Expertise:    []string{},
		Status:       entity.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// 3. User + refresh token in one transaction
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.UserRepository().Create(ctx, user); err != nil {
		switch {
		case apperror.IsDuplicateKey(err, "idx_users_username"):
			return nil, apperror.Conflict(apperror.ErrUsernameTaken)
		case apperror.IsDuplicateKey(err, "idx_users_email"):
			return nil, apperror.Conflict(apperror.ErrEmailTaken)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	res, err := s.issueTokens(ctx, uow, user, ipAddress, userAgent)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("AUTH", "User registered", map[string]interface{}{"user_id": user.Id, "role": user.Role})

	go func() {
		if err := s.emailService.SendWelcome(user.Email, user.FullName); err != nil {
			s.logger.Warn("AUTH", "Failed to send welcome email", map[string]interface{}{"user_id": user.Id, "error": err.Error()})
		}
	}()

	return res, nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest, ipAddress, userAgent string) (*dto.AuthResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: strings.ToLower(strings.TrimSpace(req.Email))})
	if err != nil {
		return nil, err
	}
	if user == nil || user.Status != entity.UserStatusActive {
		return nil, apperror.Unauthorized(apperror.ErrInvalidCredentials)
	}

	// Google-only accounts have no password
	if user.PasswordHash == nil {
		return nil, apperror.Unauthorized(apperror.ErrInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperror.Unauthorized(apperror.ErrInvalidCredentials)
	}

	res, err := s.issueTokens(ctx, uow, user, ipAddress, userAgent)
	if err != nil {
		return nil, err
	}

	s.logger.Info("AUTH", "User logged in", map[string]interface{}{"user_id": user.Id, "ip": ipAddress})
	return res, nil
}

// Refresh rotates the refresh token: the presented one is revoked and a new pair issued.
func (s *authService) Refresh(ctx context.Context, req *dto.RefreshRequest, ipAddress, userAgent string) (*dto.AuthResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	tokenHash := hashToken(req.RefreshToken)

	stored, err := uow.UserRepository().FindRefreshToken(ctx, specification.ByTokenHash{Hash: tokenHash}, specification.NotRevoked{})
	if err != nil {
		return nil, err
	}
	if stored == nil || s.now().After(stored.ExpiresAt) {
		return nil, apperror.Unauthorized(apperror.ErrTokenInvalid)
	}

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: stored.UserId})
	if err != nil {
		return nil, err
	}
	if user == nil || user.Status != entity.UserStatusActive {
		return nil, apperror.Unauthorized(apperror.ErrTokenInvalid)
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.UserRepository().RevokeRefreshToken(ctx, tokenHash); err != nil {
		return nil, err
	}
	res, err := s.issueTokens(ctx, uow, user, ipAddress, userAgent)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.UserRepository().RevokeRefreshToken(ctx, hashToken(refreshToken))
}

func (s *authService) issueTokens(ctx context.Context, uow unitofwork.UnitOfWork, user *entity.User, ipAddress, userAgent string) (*dto.AuthResponse, error) {
	accessToken, err := serverutils.IssueAccessToken(user.Id, string(user.Role), s.authCfg.AccessTokenExpiry)
	if err != nil {
		return nil, err
	}

	rawRefreshToken := uuid.New().String()
	now := s.now()
	refreshToken := &entity.UserRefreshToken{
		Id:        uuid.New(),
		UserId:    user.Id,
		TokenHash: hashToken(rawRefreshToken),
		ExpiresAt: now.Add(s.authCfg.RefreshTokenExpiry),
		IpAddress: ipAddress,
		UserAgent: userAgent,
		CreatedAt: now,
	}
	if err := uow.UserRepository().CreateRefreshToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: rawRefreshToken,
		ExpiresIn:    int64(s.authCfg.AccessTokenExpiry.Seconds()),
		User:         toUserResponse(user, true),
	}, nil
}
