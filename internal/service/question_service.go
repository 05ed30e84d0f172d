package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wizzmo-be/internal/dto"
	"wizzmo-be/internal/entity"
	"wizzmo-be/internal/pkg/apperror"
	"wizzmo-be/internal/pkg/logger"
	"wizzmo-be/internal/repository/scope"
	"wizzmo-be/internal/repository/specification"
	"wizzmo-be/internal/repository/unitofwork"
	"wizzmo-be/pkg/events"

	"github.com/google/uuid"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 50
)

type IQuestionService interface {
	Feed(ctx context.Context, viewerId uuid.UUID, categoryId *uuid.UUID, limit, offset int) (*dto.FeedResponse, error)
	Get(ctx context.Context, viewerId, questionId uuid.UUID) (*dto.QuestionResponse, error)
	Ask(ctx context.Context, studentId uuid.UUID, req *dto.AskQuestionRequest) (*dto.AskQuestionResponse, error)
	Vote(ctx context.Context, userId, questionId uuid.UUID, req *dto.VoteRequest) (*dto.VoteResponse, error)
	ListComments(ctx context.Context, viewerId, questionId uuid.UUID) ([]dto.CommentResponse, error)
	AddComment(ctx context.Context, userId, questionId uuid.UUID, req *dto.CommentRequest) (*dto.CommentResponse, error)
}

type questionService struct {
	uowFactory unitofwork.RepositoryFactory
	feed       IChangeFeed
	logger     logger.ILogger
	now        func() time.Time
}

func NewQuestionService(uowFactory unitofwork.RepositoryFactory, feed IChangeFeed, log logger.ILogger) IQuestionService {
	return &questionService{uowFactory: uowFactory, feed: feed, logger: log, now: time.Now}
}

func (s *questionService) Feed(ctx context.Context, viewerId uuid.UUID, categoryId *uuid.UUID, limit, offset int) (*dto.FeedResponse, error) {
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}
	if offset < 0 {
		offset = 0
	}

	filters := []specification.Specification{specification.PublicQuestions{}}
	if categoryId != nil {
		filters = append(filters, specification.ByCategoryID{CategoryID: *categoryId})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	total, err := uow.QuestionRepository().Count(ctx, filters...)
	if err != nil {
		return nil, err
	}

	query := append(filters,
		specification.ScopeFunc(scope.OrderByCreatedDesc),
		specification.Pagination{Limit: limit, Offset: offset},
	)
	questions, err := uow.QuestionRepository().FindAll(ctx, query...)
	if err != nil {
		return nil, err
	}

	items, err := s.present(ctx, uow, viewerId, questions)
	if err != nil {
		return nil, err
	}
	return &dto.FeedResponse{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *questionService) Get(ctx context.Context, viewerId, questionId uuid.UUID) (*dto.QuestionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	q, err := s.loadVisible(ctx, uow, viewerId, questionId)
	if err != nil {
		return nil, err
	}
	items, err := s.present(ctx, uow, viewerId, []*entity.Question{q})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

// Ask posts a public question with one open-pool session, or a private one
// with an assigned session per directed mentor.
func (s *questionService) Ask(ctx context.Context, studentId uuid.UUID, req *dto.AskQuestionRequest) (*dto.AskQuestionResponse, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperror.Validation("title is required")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	student, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: studentId})
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, apperror.NotFound("user")
	}
	if !student.IsStudent() {
		return nil, apperror.Forbidden("only students can ask questions")
	}

	if req.CategoryId != nil {
		category, err := uow.CategoryRepository().FindOne(ctx, specification.ByID{ID: *req.CategoryId})
		if err != nil {
			return nil, err
		}
		if category == nil {
			return nil, apperror.Validation("unknown category")
		}
	}

	mentorIds := dedupeIds(req.MentorIds)
	for _, id := range mentorIds {
		if id == studentId {
			return nil, apperror.Validation("cannot direct a question at yourself")
		}
		mentor, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: id})
		if err != nil {
			return nil, err
		}
		if mentor == nil || !mentor.IsMentor() {
			return nil, apperror.Validation(fmt.Sprintf("%s is not a mentor", id))
		}
	}

	now := s.now()
	question := &entity.Question{
		Id:          uuid.New(),
		StudentId:   studentId,
		CategoryId:  req.CategoryId,
		Title:       title,
		Body:        strings.TrimSpace(req.Body),
		IsPublic:    len(mentorIds) == 0,
		IsAnonymous: req.IsAnonymous,
		Status:      entity.QuestionStatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	sessions := make([]*entity.AdviceSession, 0, len(mentorIds)+1)
	if question.IsPublic {
		sessions = append(sessions, &entity.AdviceSession{
			Id: uuid.New(), QuestionId: question.Id, StudentId: studentId,
			Status: entity.SessionStatusPending, CreatedAt: now, UpdatedAt: now,
		})
	}
	for _, id := range mentorIds {
		mentorId := id
		sessions = append(sessions, &entity.AdviceSession{
			Id: uuid.New(), QuestionId: question.Id, StudentId: studentId, MentorId: &mentorId,
			Status: entity.SessionStatusAssigned, CreatedAt: now, UpdatedAt: now,
		})
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.QuestionRepository().Create(ctx, question); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	for _, session := range sessions {
		if err := uow.AdviceSessionRepository().Create(ctx, session); err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
	}
	if err := uow.UserRepository().IncrementQuestionsAsked(ctx, studentId); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	if question.IsPublic {
		s.feed.Emit(ctx, TopicQuestions, events.ChangeInsert, toQuestionResponse(question, nil, uuid.Nil, nil), nil)
	}
	res := &dto.AskQuestionResponse{
		Question: toQuestionResponse(question, student, studentId, nil),
		Sessions: make([]dto.SessionResponse, 0, len(sessions)),
	}
	for _, session := range sessions {
		s.feed.Emit(ctx, TopicSessions, events.ChangeInsert, toSessionResponse(session), nil)
		sr := toSessionResponse(session)
		sr.QuestionTitle = question.Title
		res.Sessions = append(res.Sessions, sr)
	}

	s.logger.Info("QUESTION", "Question asked", map[string]interface{}{
		"question_id": question.Id,
		"public":      question.IsPublic,
		"sessions":    len(sessions),
	})
	return res, nil
}

// Vote keeps up and down mutually exclusive per user; repeating a vote clears it.
func (s *questionService) Vote(ctx context.Context, userId, questionId uuid.UUID, req *dto.VoteRequest) (*dto.VoteResponse, error) {
	requested := entity.VoteType(req.VoteType)
	if !requested.Valid() {
		return nil, apperror.Validation("vote_type must be up or down")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := s.loadVisible(ctx, uow, userId, questionId); err != nil {
		return nil, err
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	existing, err := uow.VoteRepository().FindOne(ctx,
		specification.ByQuestionID{QuestionID: questionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}

	var current *entity.VoteType
	if existing != nil {
		current = &existing.VoteType
	}
	outcome := entity.ApplyVote(current, requested)
	now := s.now()

	switch {
	case outcome.Next == nil:
		err = uow.VoteRepository().Delete(ctx, existing.Id)
	case existing == nil:
		err = uow.VoteRepository().Create(ctx, &entity.Vote{
			Id: uuid.New(), QuestionId: questionId, UserId: userId,
			VoteType: *outcome.Next, CreatedAt: now, UpdatedAt: now,
		})
	default:
		existing.VoteType = *outcome.Next
		existing.UpdatedAt = now
		err = uow.VoteRepository().Update(ctx, existing)
	}
	if err != nil {
		return nil, fmt.Errorf("save vote: %w", err)
	}

	if err := uow.QuestionRepository().AdjustVotes(ctx, questionId, outcome.UpDelta, outcome.DownDelta); err != nil {
		return nil, err
	}

	question, err := uow.QuestionRepository().FindOne(ctx, specification.ByID{ID: questionId})
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	if question.IsPublic {
		s.feed.Emit(ctx, TopicQuestions, events.ChangeUpdate, toQuestionResponse(question, nil, uuid.Nil, nil), nil)
	}

	res := &dto.VoteResponse{QuestionId: questionId, Upvotes: question.Upvotes, Downvotes: question.Downvotes}
	if outcome.Next != nil {
		v := string(*outcome.Next)
		res.MyVote = &v
	}
	return res, nil
}

func (s *questionService) ListComments(ctx context.Context, viewerId, questionId uuid.UUID) ([]dto.CommentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := s.loadVisible(ctx, uow, viewerId, questionId); err != nil {
		return nil, err
	}

	comments, err := uow.CommentRepository().FindAll(ctx,
		specification.ByQuestionID{QuestionID: questionId},
		specification.ScopeFunc(scope.OrderByCreatedAsc),
	)
	if err != nil {
		return nil, err
	}

	authorIds := make([]uuid.UUID, 0, len(comments))
	for _, c := range comments {
		authorIds = append(authorIds, c.AuthorId)
	}
	authors, err := usersByID(ctx, uow, authorIds)
	if err != nil {
		return nil, err
	}

	res := make([]dto.CommentResponse, 0, len(comments))
	for _, c := range comments {
		res = append(res, toCommentResponse(c, authors[c.AuthorId]))
	}
	return res, nil
}

func (s *questionService) AddComment(ctx context.Context, userId, questionId uuid.UUID, req *dto.CommentRequest) (*dto.CommentResponse, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, apperror.Validation("comment body is required")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	question, err := s.loadVisible(ctx, uow, userId, questionId)
	if err != nil {
		return nil, err
	}
	author, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}

	comment := &entity.Comment{Id: uuid.New(), QuestionId: questionId, AuthorId: userId, Body: body, CreatedAt: s.now()}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.CommentRepository().Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	if err := uow.QuestionRepository().IncrementCommentCount(ctx, questionId); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	question.CommentCount++
	if question.IsPublic {
		s.feed.Emit(ctx, TopicQuestions, events.ChangeUpdate, toQuestionResponse(question, nil, uuid.Nil, nil), nil)
	}

	res := toCommentResponse(comment, author)
	return &res, nil
}

// loadVisible returns the question when the viewer may see it: public ones to
// everybody, private ones to the author and the mentors it was directed at.
func (s *questionService) loadVisible(ctx context.Context, uow unitofwork.UnitOfWork, viewerId, questionId uuid.UUID) (*entity.Question, error) {
	q, err := uow.QuestionRepository().FindOne(ctx, specification.ByID{ID: questionId})
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, apperror.NotFound("question")
	}
	if q.IsPublic || q.StudentId == viewerId {
		return q, nil
	}

	sessions, err := uow.AdviceSessionRepository().FindAll(ctx, specification.ByQuestionID{QuestionID: questionId})
	if err != nil {
		return nil, err
	}
	for _, session := range sessions {
		if session.IsParticipant(viewerId) {
			return q, nil
		}
	}
	return nil, apperror.NotFound("question")
}

func (s *questionService) present(ctx context.Context, uow unitofwork.UnitOfWork, viewerId uuid.UUID, questions []*entity.Question) ([]dto.QuestionResponse, error) {
	if len(questions) == 0 {
		return []dto.QuestionResponse{}, nil
	}

	ids := make([]uuid.UUID, 0, len(questions))
	authorIds := make([]uuid.UUID, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.Id)
		authorIds = append(authorIds, q.StudentId)
	}

	authors, err := usersByID(ctx, uow, authorIds)
	if err != nil {
		return nil, err
	}

	votes, err := uow.VoteRepository().FindAll(ctx,
		specification.ByQuestionIDs{QuestionIDs: ids},
		specification.UserOwnedBy{UserID: viewerId},
	)
	if err != nil {
		return nil, err
	}
	myVotes := make(map[uuid.UUID]*entity.VoteType, len(votes))
	for _, v := range votes {
		vt := v.VoteType
		myVotes[v.QuestionId] = &vt
	}

	res := make([]dto.QuestionResponse, 0, len(questions))
	for _, q := range questions {
		res = append(res, toQuestionResponse(q, authors[q.StudentId], viewerId, myVotes[q.Id]))
	}
	return res, nil
}

func usersByID(ctx context.Context, uow unitofwork.UnitOfWork, ids []uuid.UUID) (map[uuid.UUID]*entity.User, error) {
	out := make(map[uuid.UUID]*entity.User, len(ids))
	ids = dedupeIds(ids)
	if len(ids) == 0 {
		return out, nil
	}
	users, err := uow.UserRepository().FindAll(ctx, specification.ByIDs{IDs: ids})
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.Id] = u
	}
	return out, nil
}

func dedupeIds(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
