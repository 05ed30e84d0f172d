package unitofwork

import (
	"context"
	"os"
	"testing"
	"time"

	"wizzmo-be/internal/entity"
	"wizzmo-be/internal/model"
	"wizzmo-be/internal/repository/specification"
	"wizzmo-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openFactory(t *testing.T) RepositoryFactory {
	t.Helper()
	_ = godotenv.Load("../../../.env")

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.UserRefreshToken{}, &model.Question{},
		&model.AdviceSession{}, &model.Message{}, &model.Reaction{},
	))
	return NewRepositoryFactory(db)
}

func newUser(role entity.UserRole) *entity.User {
	tag := uuid.NewString()[:8]
	return &entity.User{
		Id:          uuid.New(),
		Email:       "it-" + tag + "@example.edu",
		FullName:    "Integration " + tag,
		Username:    "it_" + tag,
		Role:        role,
		CurrentMode: entity.UserModeStudent,
		Status:      entity.UserStatusActive,
		Expertise:   []string{},
	}
}

func TestSessionSeqAndMessages(t *testing.T) {
	factory := openFactory(t)
	ctx := context.Background()

	student, mentor := newUser(entity.UserRoleStudent), newUser(entity.UserRoleMentor)
	question := &entity.Question{Id: uuid.New(), StudentId: student.Id, Title: "Integration question", IsPublic: true, Status: entity.QuestionStatusOpen}
	session := &entity.AdviceSession{Id: uuid.New(), QuestionId: question.Id, StudentId: student.Id, MentorId: &mentor.Id, Status: entity.SessionStatusActive}

	uow := factory.NewUnitOfWork(ctx)
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.UserRepository().Create(ctx, student))
	require.NoError(t, uow.UserRepository().Create(ctx, mentor))
	require.NoError(t, uow.QuestionRepository().Create(ctx, question))
	require.NoError(t, uow.AdviceSessionRepository().Create(ctx, session))
	require.NoError(t, uow.Commit())

	for i, text := range []string{"first", "second"} {
		uow := factory.NewUnitOfWork(ctx)
		require.NoError(t, uow.Begin(ctx))

		seq, err := uow.AdviceSessionRepository().NextSeq(ctx, session.Id, time.Now())
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), seq)

		content := text
		require.NoError(t, uow.MessageRepository().Create(ctx, &entity.Message{
			Id: uuid.New(), SessionId: session.Id, SenderId: student.Id, Seq: seq, Content: &content, Version: 1,
		}))
		require.NoError(t, uow.Commit())
	}

	msgs, err := factory.NewUnitOfWork(ctx).MessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: session.Id},
		specification.OrderBySeq{},
	)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", *msgs[0].Content)
	assert.Equal(t, int64(2), msgs[1].Seq)

	bumped, err := factory.NewUnitOfWork(ctx).MessageRepository().BumpVersion(ctx, msgs[0].Id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), bumped.Version)

	read, err := factory.NewUnitOfWork(ctx).MessageRepository().UpdateFields(ctx, msgs[0].Id, map[string]interface{}{"is_read": true})
	require.NoError(t, err)
	assert.Equal(t, int64(3), read.Version)
	assert.True(t, read.IsRead)
	assert.Equal(t, "first", *read.Content)

	missing, err := factory.NewUnitOfWork(ctx).MessageRepository().UpdateFields(ctx, uuid.New(), nil)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRollbackDiscardsWrites(t *testing.T) {
	factory := openFactory(t)
	ctx := context.Background()
	user := newUser(entity.UserRoleStudent)

	uow := factory.NewUnitOfWork(ctx)
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.UserRepository().Create(ctx, user))
	require.NoError(t, uow.Rollback())

	found, err := factory.NewUnitOfWork(ctx).UserRepository().FindOne(ctx, specification.ByID{ID: user.Id})
	require.NoError(t, err)
	assert.Nil(t, found)
}
