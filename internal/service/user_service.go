// FILE: internal/service/user_service.go
package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"wizzmo-be/internal/dto"
	"wizzmo-be/internal/entity"
	"wizzmo-be/internal/pkg/apperror"
	"wizzmo-be/internal/pkg/logger"
	"wizzmo-be/internal/pkg/mailer"
	"wizzmo-be/internal/pkg/storage"
	"wizzmo-be/internal/repository/memory"
	"wizzmo-be/internal/repository/specification"
	"wizzmo-be/internal/repository/unitofwork"
	"wizzmo-be/pkg/events"

	"github.com/google/uuid"
)

type IUserService interface {
	GetProfile(ctx context.Context, userId uuid.UUID) (*dto.UserResponse, error)
	GetUser(ctx context.Context, userId uuid.UUID) (*dto.UserResponse, error)
	UpdateProfile(ctx context.Context, userId uuid.UUID, req *dto.UpdateProfileRequest) (*dto.UserResponse, error)
	SetMode(ctx context.Context, userId uuid.UUID, req *dto.SetModeRequest) (*dto.UserResponse, error)
	UploadAvatar(ctx context.Context, userId uuid.UUID, file *multipart.FileHeader) (*dto.AvatarResponse, error)
	DeleteAccount(ctx context.Context, userId uuid.UUID) error
}

type userService struct {
	uowFactory   unitofwork.RepositoryFactory
	cache        *memory.CacheRepository
	storage      storage.IStorage
	emailService mailer.IEmailService
	feed         IChangeFeed
	logger       logger.ILogger
	now          func() time.Time
}

func NewUserService(
	uowFactory unitofwork.RepositoryFactory,
	cache *memory.CacheRepository,
	store storage.IStorage,
	emailService mailer.IEmailService,
	feed IChangeFeed,
	log logger.ILogger,
) IUserService {
	return &userService{
		uowFactory:   uowFactory,
		cache:        cache,
		storage:      store,
		emailService: emailService,
		feed:         feed,
		logger:       log,
		now:          time.Now,
	}
}

// loadUser reads through the profile cache.
func (s *userService) loadUser(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) (*entity.User, error) {
	if s.cache != nil {
		if u, ok := s.cache.GetProfile(userId); ok {
			return u, nil
		}
	}
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFound("user")
	}
	if s.cache != nil {
		s.cache.SaveProfile(user)
	}
	return user, nil
}

func (s *userService) invalidate(userId uuid.UUID) {
	if s.cache != nil {
		s.cache.InvalidateProfile(userId)
	}
}

func (s *userService) GetProfile(ctx context.Context, userId uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.loadUser(ctx, s.uowFactory.NewUnitOfWork(ctx), userId)
	if err != nil {
		return nil, err
	}
	res := toUserResponse(user, true)
	return &res, nil
}

func (s *userService) GetUser(ctx context.Context, userId uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.loadUser(ctx, s.uowFactory.NewUnitOfWork(ctx), userId)
	if err != nil {
		return nil, err
	}
	res := toUserResponse(user, false)
	return &res, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userId uuid.UUID, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFound("user")
	}

	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username != user.Username {
			taken, err := uow.UserRepository().FindOne(ctx, specification.ByUsername{Username: username})
			if err != nil {
				return nil, err
			}
			if taken != nil {
				return nil, apperror.Conflict(apperror.ErrUsernameTaken)
			}
			user.Username = username
		}
	}
	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.University != nil {
		user.University = *req.University
	}
	if req.Expertise != nil {
		user.Expertise = normalizeSlugs(req.Expertise)
	}
	user.UpdatedAt = s.now()

	if err := uow.UserRepository().Update(ctx, user); err != nil {
		if apperror.IsDuplicateKey(err, "idx_users_username") {
			return nil, apperror.Conflict(apperror.ErrUsernameTaken)
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	s.invalidate(userId)

	s.feed.Emit(ctx, TopicUsers, events.ChangeUpdate, toUserResponse(user, false), nil)

	res := toUserResponse(user, true)
	return &res, nil
}

// SetMode switches the active mode; pure students cannot enter mentor mode.
func (s *userService) SetMode(ctx context.Context, userId uuid.UUID, req *dto.SetModeRequest) (*dto.UserResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFound("user")
	}

	mode := entity.UserMode(req.Mode)
	if !user.CanUseMode(mode) {
		return nil, apperror.Forbidden(fmt.Sprintf("role %s cannot use %s mode", user.Role, mode))
	}

	if user.CurrentMode != mode {
		if err := uow.UserRepository().UpdateMode(ctx, userId, mode); err != nil {
			return nil, err
		}
		user.CurrentMode = mode
		user.UpdatedAt = s.now()
		s.invalidate(userId)
		s.feed.Emit(ctx, TopicUsers, events.ChangeUpdate, toUserResponse(user, false), nil)
	}

	res := toUserResponse(user, true)
	return &res, nil
}

func (s *userService) UploadAvatar(ctx context.Context, userId uuid.UUID, file *multipart.FileHeader) (*dto.AvatarResponse, error) {
	if file == nil {
		return nil, apperror.Validation("avatar file is required")
	}

	stored, err := s.storage.Save(storage.BucketAvatars, userId, file)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.UserRepository().UpdateAvatar(ctx, userId, stored.URL); err != nil {
		return nil, err
	}
	s.invalidate(userId)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err == nil && user != nil {
		s.feed.Emit(ctx, TopicUsers, events.ChangeUpdate, toUserResponse(user, false), nil)
	}

	return &dto.AvatarResponse{AvatarURL: stored.URL, ThumbnailURL: stored.ThumbnailURL}, nil
}

// DeleteAccount soft-deletes the user, revokes every session token and tells
// subscribers the row is gone.
func (s *userService) DeleteAccount(ctx context.Context, userId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return err
	}
	if user == nil {
		return apperror.NotFound("user")
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.UserRepository().RevokeAllRefreshTokens(ctx, userId); err != nil {
		return fmt.Errorf("revoke tokens: %w", err)
	}
	if err := uow.UserRepository().Delete(ctx, userId); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	s.invalidate(userId)
	s.feed.Emit(ctx, TopicUsers, events.ChangeDelete, nil, toUserResponse(user, false))

	s.logger.Info("USER", "Account deleted", map[string]interface{}{"user_id": userId})

	go func() {
		if err := s.emailService.SendGoodbye(user.Email, user.FullName); err != nil {
			s.logger.Warn("USER", "Failed to send goodbye email", map[string]interface{}{"user_id": userId, "error": err.Error()})
		}
	}()
	return nil
}

func normalizeSlugs(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
