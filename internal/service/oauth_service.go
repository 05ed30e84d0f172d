// FILE: internal/service/oauth_service.go
package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"wizzmo-be/internal/config"
	"wizzmo-be/internal/dto"
	"wizzmo-be/internal/entity"
	"wizzmo-be/internal/pkg/apperror"
	"wizzmo-be/internal/pkg/logger"
	"wizzmo-be/internal/repository/specification"
	"wizzmo-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type IOAuthService interface {
	GetLoginURL(provider string) (string, error)
	HandleCallback(ctx context.Context, provider string, code string) (*dto.AuthResponse, error)
}

type googleUser struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

type oauthService struct {
	uowFactory unitofwork.RepositoryFactory
	googleConf *oauth2.Config
	auth       *authService
	logger     logger.ILogger
}

func NewOAuthService(uowFactory unitofwork.RepositoryFactory, googleCfg config.GoogleConfig, authCfg config.AuthConfig, log logger.ILogger) IOAuthService {
	conf := &oauth2.Config{
		ClientID:     googleCfg.ClientID,
		ClientSecret: googleCfg.ClientSecret,
		RedirectURL:  googleCfg.RedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	return &oauthService{
		uowFactory: uowFactory,
		googleConf: conf,
		auth:       &authService{uowFactory: uowFactory, authCfg: authCfg, logger: log, now: time.Now},
		logger:     log,
	}
}

func (s *oauthService) GetLoginURL(provider string) (string, error) {
	if provider != "google" {
		return "", apperror.Validation("unsupported provider")
	}
	if s.googleConf.ClientID == "" {
		return "", apperror.Validation("google sign-in is not configured")
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return s.googleConf.AuthCodeURL(base64.URLEncoding.EncodeToString(b)), nil
}

func (s *oauthService) HandleCallback(ctx context.Context, provider string, code string) (*dto.AuthResponse, error) {
	if provider != "google" {
		return nil, apperror.Validation("unsupported provider")
	}

	token, err := s.googleConf.Exchange(ctx, code)
	if err != nil {
		return nil, apperror.New(apperror.KindUnauthorized, "code exchange failed", err)
	}

	profile, err := s.fetchGoogleUser(ctx, token)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	// Linked provider first, then a password account with the same email
	var user *entity.User
	link, err := uow.UserRepository().FindUserProvider(ctx, specification.ByProvider{Name: "google", UserID: profile.ID})
	if err != nil {
		return nil, err
	}
	if link != nil {
		if user, err = uow.UserRepository().FindOne(ctx, specification.ByID{ID: link.UserId}); err != nil {
			return nil, err
		}
	}
	if user == nil {
		if user, err = uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: strings.ToLower(profile.Email)}); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	if user == nil {
		user = &entity.User{
			Id:          uuid.New(),
			Email:       strings.ToLower(profile.Email),
			FullName:    profile.Name,
			Username:    usernameFromEmail(profile.Email),
			Role:        entity.UserRoleStudent,
			CurrentMode: entity.UserModeStudent,
			Expertise:   []string{},
			Status:      entity.UserStatusActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if profile.Picture != "" {
			pic := profile.Picture
			user.AvatarURL = &pic
		}
		if err := uow.UserRepository().Create(ctx, user); err != nil {
			return nil, fmt.Errorf("create google user: %w", err)
		}
		s.logger.Info("OAUTH", "New user created from Google sign-in", map[string]interface{}{"user_id": user.Id})
	}

	if err := uow.UserRepository().SaveUserProvider(ctx, &entity.UserProvider{
		Id:             uuid.New(),
		UserId:         user.Id,
		ProviderName:   "google",
		ProviderUserId: profile.ID,
		AvatarURL:      profile.Picture,
		CreatedAt:      now,
	}); err != nil {
		return nil, fmt.Errorf("failed to save provider info: %w", err)
	}

	return s.auth.issueTokens(ctx, uow, user, "", "google-oauth")
}

func (s *oauthService) fetchGoogleUser(ctx context.Context, token *oauth2.Token) (*googleUser, error) {
	resp, err := s.googleConf.Client(ctx, token).Get(googleUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	defer resp.Body.Close()

	var profile googleUser
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}
	if profile.ID == "" || profile.Email == "" {
		return nil, apperror.New(apperror.KindUnauthorized, "google profile is missing id or email", nil)
	}
	return &profile, nil
}

var usernameStrip = regexp.MustCompile(`[^A-Za-z0-9_.]`)

// usernameFromEmail derives a valid, most likely unique username for Google accounts.
func usernameFromEmail(email string) string {
	local := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		local = email[:at]
	}
	local = usernameStrip.ReplaceAllString(local, "")
	if len(local) > 20 {
		local = local[:20]
	}
	if local == "" {
		local = "user"
	}
	return local + "_" + uuid.New().String()[:6]
}
