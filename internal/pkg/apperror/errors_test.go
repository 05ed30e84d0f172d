package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "app error", err: Validation("bad"), want: KindValidation},
		{name: "wrapped app error", err: fmt.Errorf("ctx: %w", NotFound("session")), want: KindNotFound},
		{name: "gorm not found", err: gorm.ErrRecordNotFound, want: KindNotFound},
		{name: "forbidden sentinel", err: ErrForbidden, want: KindForbidden},
		{name: "bad credentials", err: ErrInvalidCredentials, want: KindUnauthorized},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, want: KindConflict},
		{name: "unknown", err: errors.New("boom"), want: KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestIsDuplicateKeyConstraint(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "idx_users_username"})

	assert.True(t, IsDuplicateKey(err))
	assert.True(t, IsDuplicateKey(err, "idx_users_username"))
	assert.False(t, IsDuplicateKey(err, "idx_users_email"))
	assert.False(t, IsDuplicateKey(&pgconn.PgError{Code: "23503"}))
}

func TestAppErrorUnwrap(t *testing.T) {
	err := Conflict(ErrUsernameTaken)

	assert.True(t, errors.Is(err, ErrUsernameTaken))
	assert.Equal(t, "username already taken", err.Error())
}
