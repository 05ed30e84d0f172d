// FILE: internal/pkg/serverutils/jwt_middleware.go
package serverutils

import (
	"os"
	"strings"
	"sync"
	"time"

	"wizzmo-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const localsUserID = "user_id"

var (
	secretMu         sync.RWMutex
	configuredSecret []byte
)

// SetJwtSecret overrides the JWT_SECRET environment lookup.
func SetJwtSecret(secret string) {
	secretMu.Lock()
	defer secretMu.Unlock()
	configuredSecret = []byte(secret)
}

func JwtSecret() []byte {
	secretMu.RLock()
	defer secretMu.RUnlock()
	if len(configuredSecret) > 0 {
		return configuredSecret
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_secret"
	}
	return []byte(secret)
}

// IssueAccessToken signs an HS256 token carrying the user id and role.
func IssueAccessToken(userID uuid.UUID, role string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"role":    role,
		"exp":     time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(JwtSecret())
}

// ParseToken validates an HS256 access token and returns the user id claim.
func ParseToken(tokenStr string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperror.ErrTokenInvalid
		}
		return JwtSecret(), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, apperror.ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, apperror.ErrTokenInvalid
	}
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, apperror.ErrTokenInvalid
	}
	return uuid.Parse(userIDStr)
}

// BearerToken reads the token from the Authorization header, falling back to ?token=.
func BearerToken(ctx *fiber.Ctx) string {
	authHeader := ctx.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return authHeader[7:]
	}
	return ctx.Query("token")
}

func JwtMiddleware(ctx *fiber.Ctx) error {
	tokenStr := BearerToken(ctx)
	if tokenStr == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
	}

	userID, err := ParseToken(tokenStr)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
	}

	ctx.Locals(localsUserID, userID)
	return ctx.Next()
}

// CurrentUserID returns the id set by JwtMiddleware.
func CurrentUserID(ctx *fiber.Ctx) uuid.UUID {
	if id, ok := ctx.Locals(localsUserID).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}
