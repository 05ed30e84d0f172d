package service

import (
	"context"
	"testing"

	"wizzmo-be/internal/dto"
	"wizzmo-be/internal/entity"
	"wizzmo-be/internal/pkg/apperror"
	"wizzmo-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQuestionFixture() (*fakeStore, *recordingFeed, *questionService) {
	store := newFakeStore()
	feed := &recordingFeed{}
	return store, feed, NewQuestionService(store, feed, nopLog).(*questionService)
}

func TestAskPublicQuestionOpensPoolSession(t *testing.T) {
	store, feed, svc := newQuestionFixture()
	student := store.addUser(entity.UserRoleStudent, "maya")

	res, err := svc.Ask(context.Background(), student.Id, &dto.AskQuestionRequest{Title: "Roommate drama", Body: "help"})
	require.NoError(t, err)

	assert.True(t, res.Question.IsPublic)
	require.Len(t, res.Sessions, 1)
	assert.Equal(t, "pending", res.Sessions[0].Status)
	assert.Nil(t, res.Sessions[0].MentorId)
	assert.Equal(t, "Roommate drama", res.Sessions[0].QuestionTitle)

	assert.Len(t, feed.of(TopicQuestions, events.ChangeInsert), 1)
	assert.Len(t, feed.of(TopicSessions, events.ChangeInsert), 1)
	assert.Equal(t, 1, store.user(student.Id).QuestionsAsked)
}

func TestAskDirectedQuestionIsPrivate(t *testing.T) {
	store, feed, svc := newQuestionFixture()
	student := store.addUser(entity.UserRoleStudent, "maya")
	m1 := store.addUser(entity.UserRoleMentor, "ava")
	m2 := store.addUser(entity.UserRoleBoth, "zoe")
	outsider := store.addUser(entity.UserRoleStudent, "lee")

	res, err := svc.Ask(context.Background(), student.Id, &dto.AskQuestionRequest{
		Title:     "Should I switch majors?",
		MentorIds: []uuid.UUID{m1.Id, m2.Id, m1.Id},
	})
	require.NoError(t, err)

	assert.False(t, res.Question.IsPublic)
	require.Len(t, res.Sessions, 2)
	for _, s := range res.Sessions {
		assert.Equal(t, "assigned", s.Status)
	}
	assert.Empty(t, feed.of(TopicQuestions, events.ChangeInsert), "private questions stay off the public topic")

	_, err = svc.Get(context.Background(), m2.Id, res.Question.Id)
	assert.NoError(t, err)
	_, err = svc.Get(context.Background(), outsider.Id, res.Question.Id)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestAskValidation(t *testing.T) {
	store, _, svc := newQuestionFixture()
	student := store.addUser(entity.UserRoleStudent, "maya")
	other := store.addUser(entity.UserRoleStudent, "lee")
	mentor := store.addUser(entity.UserRoleMentor, "ava")
	ctx := context.Background()

	_, err := svc.Ask(ctx, student.Id, &dto.AskQuestionRequest{Title: "   "})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = svc.Ask(ctx, student.Id, &dto.AskQuestionRequest{Title: "Hello there", MentorIds: []uuid.UUID{other.Id}})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	missing := uuid.New()
	_, err = svc.Ask(ctx, student.Id, &dto.AskQuestionRequest{Title: "Hello there", CategoryId: &missing})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = svc.Ask(ctx, mentor.Id, &dto.AskQuestionRequest{Title: "Hello there"})
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
}

func TestVoteIsMutuallyExclusive(t *testing.T) {
	store, feed, svc := newQuestionFixture()
	student := store.addUser(entity.UserRoleStudent, "maya")
	voter := store.addUser(entity.UserRoleStudent, "lee")
	ctx := context.Background()

	asked, err := svc.Ask(ctx, student.Id, &dto.AskQuestionRequest{Title: "Best dorm snacks?"})
	require.NoError(t, err)
	qid := asked.Question.Id

	res, err := svc.Vote(ctx, voter.Id, qid, &dto.VoteRequest{VoteType: "down"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Upvotes)
	assert.Equal(t, 1, res.Downvotes)
	assert.Equal(t, "down", *res.MyVote)

	res, err = svc.Vote(ctx, voter.Id, qid, &dto.VoteRequest{VoteType: "up"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Upvotes, "up after down sets up")
	assert.Equal(t, 0, res.Downvotes, "and clears down")
	assert.Equal(t, "up", *res.MyVote)

	res, err = svc.Vote(ctx, voter.Id, qid, &dto.VoteRequest{VoteType: "up"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Upvotes)
	assert.Nil(t, res.MyVote, "repeating a vote clears it")

	assert.Len(t, feed.of(TopicQuestions, events.ChangeUpdate), 3)

	got, err := svc.Get(ctx, voter.Id, qid)
	require.NoError(t, err)
	assert.Nil(t, got.MyVote)
}

func TestAnonymousAuthorHiddenFromOthers(t *testing.T) {
	store, _, svc := newQuestionFixture()
	student := store.addUser(entity.UserRoleStudent, "maya")
	reader := store.addUser(entity.UserRoleStudent, "lee")
	ctx := context.Background()

	_, err := svc.Ask(ctx, student.Id, &dto.AskQuestionRequest{Title: "Embarrassing one", IsAnonymous: true})
	require.NoError(t, err)

	feed, err := svc.Feed(ctx, reader.Id, nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, feed.Items, 1)
	assert.Nil(t, feed.Items[0].StudentId)
	assert.Nil(t, feed.Items[0].Author)
	assert.Equal(t, defaultFeedLimit, feed.Limit)

	own, err := svc.Feed(ctx, student.Id, nil, 500, 0)
	require.NoError(t, err)
	require.NotNil(t, own.Items[0].Author)
	assert.Equal(t, "maya", own.Items[0].Author.Username)
	assert.Equal(t, maxFeedLimit, own.Limit)
}

func TestComments(t *testing.T) {
	store, _, svc := newQuestionFixture()
	student := store.addUser(entity.UserRoleStudent, "maya")
	mentor := store.addUser(entity.UserRoleMentor, "ava")
	ctx := context.Background()

	asked, err := svc.Ask(ctx, student.Id, &dto.AskQuestionRequest{Title: "Study tips?"})
	require.NoError(t, err)

	c, err := svc.AddComment(ctx, mentor.Id, asked.Question.Id, &dto.CommentRequest{Body: "Pomodoro!"})
	require.NoError(t, err)
	assert.Equal(t, "ava", c.Author.Username)

	list, err := svc.ListComments(ctx, student.Id, asked.Question.Id)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Pomodoro!", list[0].Body)

	got, err := svc.Get(ctx, student.Id, asked.Question.Id)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CommentCount)
}
