package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"wizzmo-be/internal/dto"
	"wizzmo-be/internal/entity"
	"wizzmo-be/internal/pkg/apperror"
	"wizzmo-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	store *fakeStore
	feed  *recordingFeed
	mail  *recordingMailer
	pub   *recordingPublisher
	svc   ISessionService
}

func newSessionFixture() sessionFixture {
	f := sessionFixture{
		store: newFakeStore(),
		feed:  &recordingFeed{},
		mail:  &recordingMailer{},
		pub:   &recordingPublisher{},
	}
	f.svc = NewSessionService(f.store, f.mail, f.pub, f.feed, "wizzmo://app/", nopLog)
	return f
}

func (f sessionFixture) statsJobs(t *testing.T) []uuid.UUID {
	f.pub.mu.Lock()
	defer f.pub.mu.Unlock()
	var ids []uuid.UUID
	for _, p := range f.pub.payloads {
		var job dto.MentorStatsJob
		require.NoError(t, json.Unmarshal(p, &job))
		ids = append(ids, job.MentorId)
	}
	return ids
}

func TestAcceptOpenPoolSession(t *testing.T) {
	f := newSessionFixture()
	student := f.store.addUser(entity.UserRoleStudent, "maya")
	mentor := f.store.addUser(entity.UserRoleMentor, "ava")
	session := f.store.addSession(student.Id, nil, entity.SessionStatusPending)
	ctx := context.Background()

	res, err := f.svc.Accept(ctx, mentor.Id, session.Id)
	require.NoError(t, err)
	assert.Equal(t, "active", res.Status)
	require.NotNil(t, res.MentorId)
	assert.Equal(t, mentor.Id, *res.MentorId)
	assert.NotNil(t, res.AcceptedAt)
	assert.Equal(t, "ava", res.Mentor.Username)

	assert.Len(t, f.feed.of(TopicSessions, events.ChangeUpdate), 1)
	assert.Eventually(t, func() bool { return f.mail.has("accepted:maya@example.edu") }, time.Second, 10*time.Millisecond)

	other := f.store.addUser(entity.UserRoleMentor, "zoe")
	_, err = f.svc.Accept(ctx, other.Id, session.Id)
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition, "a taken session cannot be accepted twice")
}

func TestAcceptRules(t *testing.T) {
	f := newSessionFixture()
	student := f.store.addUser(entity.UserRoleStudent, "maya")
	mentor := f.store.addUser(entity.UserRoleMentor, "ava")
	other := f.store.addUser(entity.UserRoleMentor, "zoe")
	ctx := context.Background()

	directed := f.store.addSession(student.Id, &mentor.Id, entity.SessionStatusAssigned)
	_, err := f.svc.Accept(ctx, other.Id, directed.Id)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	pool := f.store.addSession(student.Id, nil, entity.SessionStatusPending)
	_, err = f.svc.Accept(ctx, student.Id, pool.Id)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err), "students cannot accept")

	_, err = f.svc.Accept(ctx, mentor.Id, uuid.New())
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	assert.Empty(t, f.feed.of(TopicSessions, events.ChangeUpdate), "failed transitions emit nothing")
}

func TestDeclineReturnsSessionToPool(t *testing.T) {
	f := newSessionFixture()
	student := f.store.addUser(entity.UserRoleStudent, "maya")
	mentor := f.store.addUser(entity.UserRoleMentor, "ava")
	session := f.store.addSession(student.Id, &mentor.Id, entity.SessionStatusAssigned)

	_, err := f.svc.Decline(context.Background(), mentor.Id, session.Id)
	require.NoError(t, err)

	stored := f.store.session(session.Id)
	assert.Equal(t, entity.SessionStatusPending, stored.Status)
	assert.Nil(t, stored.MentorId)
}

func TestInboxByMode(t *testing.T) {
	f := newSessionFixture()
	student := f.store.addUser(entity.UserRoleStudent, "maya")
	mentor := f.store.addUser(entity.UserRoleMentor, "ava")
	other := f.store.addUser(entity.UserRoleMentor, "zoe")
	ctx := context.Background()

	mine := f.store.addSession(student.Id, &mentor.Id, entity.SessionStatusAssigned)
	pool := f.store.addSession(student.Id, nil, entity.SessionStatusPending)
	f.store.addSession(student.Id, &other.Id, entity.SessionStatusActive)

	inbox, err := f.svc.Inbox(ctx, mentor.Id, "")
	require.NoError(t, err)
	ids := []uuid.UUID{}
	for _, s := range inbox {
		ids = append(ids, s.Id)
	}
	assert.ElementsMatch(t, []uuid.UUID{mine.Id, pool.Id}, ids)

	own, err := f.svc.Inbox(ctx, student.Id, "student")
	require.NoError(t, err)
	assert.Len(t, own, 3)
	assert.Equal(t, "How do I settle in?", own[0].QuestionTitle)

	_, err = f.svc.Inbox(ctx, student.Id, "mentor")
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
}

func TestGetHidesSessionsFromOutsiders(t *testing.T) {
	f := newSessionFixture()
	student := f.store.addUser(entity.UserRoleStudent, "maya")
	mentor := f.store.addUser(entity.UserRoleMentor, "ava")
	outsider := f.store.addUser(entity.UserRoleStudent, "lee")
	ctx := context.Background()

	pool := f.store.addSession(student.Id, nil, entity.SessionStatusPending)
	_, err := f.svc.Get(ctx, mentor.Id, pool.Id)
	assert.NoError(t, err, "mentors may preview the open pool")

	_, err = f.svc.Get(ctx, outsider.Id, pool.Id)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestResolveAndRateEnqueueStats(t *testing.T) {
	f := newSessionFixture()
	student := f.store.addUser(entity.UserRoleStudent, "maya")
	mentor := f.store.addUser(entity.UserRoleMentor, "ava")
	session := f.store.addSession(student.Id, &mentor.Id, entity.SessionStatusActive)
	ctx := context.Background()

	_, err := f.svc.Rate(ctx, student.Id, &dto.RateSessionRequest{SessionId: session.Id, Rating: 5})
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition, "active sessions cannot be rated")

	res, err := f.svc.Resolve(ctx, student.Id, session.Id)
	require.NoError(t, err)
	assert.Equal(t, "resolved", res.Status)

	_, err = f.svc.Rate(ctx, mentor.Id, &dto.RateSessionRequest{SessionId: session.Id, Rating: 5})
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	res, err = f.svc.Rate(ctx, student.Id, &dto.RateSessionRequest{SessionId: session.Id, Rating: 4, Feedback: "  thanks!  "})
	require.NoError(t, err)
	require.NotNil(t, res.Rating)
	assert.Equal(t, 4, *res.Rating)
	assert.Equal(t, "thanks!", res.Feedback)

	_, err = f.svc.Rate(ctx, student.Id, &dto.RateSessionRequest{SessionId: session.Id, Rating: 3})
	assert.ErrorIs(t, err, apperror.ErrAlreadyRated)

	assert.Equal(t, []uuid.UUID{mentor.Id, mentor.Id}, f.statsJobs(t))

	q, _ := fakeQuestions{f.store}.FindOne(ctx)
	require.NotNil(t, q)
	assert.Equal(t, entity.QuestionStatusAnswered, q.Status)
}
