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
	"wizzmo-be/internal/pkg/mailer"
	"wizzmo-be/internal/repository/specification"
	"wizzmo-be/internal/repository/unitofwork"
	"wizzmo-be/pkg/events"

	"github.com/google/uuid"
)

type ISessionService interface {
	// Inbox lists the student's own sessions, or for mentor mode the assigned
	// sessions plus the open pool. An empty mode uses the user's current mode.
	Inbox(ctx context.Context, userId uuid.UUID, mode string) ([]dto.SessionResponse, error)
	Get(ctx context.Context, userId, sessionId uuid.UUID) (*dto.SessionResponse, error)
	Accept(ctx context.Context, userId, sessionId uuid.UUID) (*dto.SessionResponse, error)
	Decline(ctx context.Context, userId, sessionId uuid.UUID) (*dto.SessionResponse, error)
	Resolve(ctx context.Context, userId, sessionId uuid.UUID) (*dto.SessionResponse, error)
	Rate(ctx context.Context, userId uuid.UUID, req *dto.RateSessionRequest) (*dto.SessionResponse, error)
}

type sessionService struct {
	uowFactory   unitofwork.RepositoryFactory
	emailService mailer.IEmailService
	publisher    IPublisherService
	feed         IChangeFeed
	appLink      string
	logger       logger.ILogger
	now          func() time.Time
}

func NewSessionService(
	uowFactory unitofwork.RepositoryFactory,
	emailService mailer.IEmailService,
	publisher IPublisherService,
	feed IChangeFeed,
	appLink string,
	log logger.ILogger,
) ISessionService {
	return &sessionService{
		uowFactory:   uowFactory,
		emailService: emailService,
		publisher:    publisher,
		feed:         feed,
		appLink:      strings.TrimRight(appLink, "/"),
		logger:       log,
		now:          time.Now,
	}
}

func (s *sessionService) Inbox(ctx context.Context, userId uuid.UUID, mode string) ([]dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFound("user")
	}

	m := entity.UserMode(mode)
	if m == "" {
		m = user.CurrentMode
	}
	if !user.CanUseMode(m) {
		return nil, apperror.Forbidden(fmt.Sprintf("role %s cannot use %s mode", user.Role, m))
	}

	var filter specification.Specification = specification.ByStudentID{StudentID: userId}
	if m == entity.UserModeMentor {
		filter = specification.MentorInbox{MentorID: userId}
	}

	sessions, err := uow.AdviceSessionRepository().FindAll(ctx, filter, specification.OrderBy{Field: "updated_at", Desc: true})
	if err != nil {
		return nil, err
	}
	return s.present(ctx, uow, userId, sessions)
}

func (s *sessionService) Get(ctx context.Context, userId, sessionId uuid.UUID) (*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.AdviceSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperror.NotFound("session")
	}
	viewer, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if viewer == nil || !session.CanView(viewer) {
		return nil, apperror.NotFound("session")
	}

	res, err := s.present(ctx, uow, userId, []*entity.AdviceSession{session})
	if err != nil {
		return nil, err
	}
	return &res[0], nil
}

func (s *sessionService) Accept(ctx context.Context, userId, sessionId uuid.UUID) (*dto.SessionResponse, error) {
	var mentor *entity.User
	session, err := s.transition(ctx, sessionId, func(uow unitofwork.UnitOfWork, session *entity.AdviceSession) error {
		var err error
		mentor, err = uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
		if err != nil {
			return err
		}
		if mentor == nil {
			return apperror.NotFound("user")
		}
		return session.Accept(mentor, s.now())
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("SESSION", "Session accepted", map[string]interface{}{"session_id": sessionId, "mentor_id": userId})
	s.notifyAccepted(ctx, session, mentor)

	return s.single(ctx, userId, session)
}

func (s *sessionService) Decline(ctx context.Context, userId, sessionId uuid.UUID) (*dto.SessionResponse, error) {
	session, err := s.transition(ctx, sessionId, func(_ unitofwork.UnitOfWork, session *entity.AdviceSession) error {
		return session.Decline(userId)
	})
	if err != nil {
		return nil, err
	}
	return s.single(ctx, userId, session)
}

func (s *sessionService) Resolve(ctx context.Context, userId, sessionId uuid.UUID) (*dto.SessionResponse, error) {
	session, err := s.transition(ctx, sessionId, func(uow unitofwork.UnitOfWork, session *entity.AdviceSession) error {
		if err := session.Resolve(userId, s.now()); err != nil {
			return err
		}
		return uow.QuestionRepository().UpdateStatus(ctx, session.QuestionId, entity.QuestionStatusAnswered)
	})
	if err != nil {
		return nil, err
	}

	if session.MentorId != nil {
		enqueueStats(ctx, s.publisher, s.logger, *session.MentorId)
	}
	return s.single(ctx, userId, session)
}

// Rate is the update_mentor_rating procedure: the student rates a resolved
// session once and the mentor's aggregate is recomputed in the background.
func (s *sessionService) Rate(ctx context.Context, userId uuid.UUID, req *dto.RateSessionRequest) (*dto.SessionResponse, error) {
	session, err := s.transition(ctx, req.SessionId, func(_ unitofwork.UnitOfWork, session *entity.AdviceSession) error {
		return session.Rate(userId, req.Rating, strings.TrimSpace(req.Feedback), s.now())
	})
	if err != nil {
		return nil, err
	}

	if session.MentorId != nil {
		enqueueStats(ctx, s.publisher, s.logger, *session.MentorId)
	}
	s.logger.Info("SESSION", "Session rated", map[string]interface{}{"session_id": session.Id, "rating": req.Rating})
	return s.single(ctx, userId, session)
}

// transition locks the session row, applies fn and saves, then emits the update.
func (s *sessionService) transition(ctx context.Context, sessionId uuid.UUID, fn func(uow unitofwork.UnitOfWork, session *entity.AdviceSession) error) (*entity.AdviceSession, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	session, err := uow.AdviceSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId}, specification.ForUpdate{})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperror.NotFound("session")
	}

	if err := fn(uow, session); err != nil {
		return nil, err
	}
	session.UpdatedAt = s.now()

	if err := uow.AdviceSessionRepository().Update(ctx, session); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.feed.Emit(ctx, TopicSessions, events.ChangeUpdate, toSessionResponse(session), nil)
	return session, nil
}

func (s *sessionService) single(ctx context.Context, viewerId uuid.UUID, session *entity.AdviceSession) (*dto.SessionResponse, error) {
	res, err := s.present(ctx, s.uowFactory.NewUnitOfWork(ctx), viewerId, []*entity.AdviceSession{session})
	if err != nil {
		return nil, err
	}
	return &res[0], nil
}

func (s *sessionService) notifyAccepted(ctx context.Context, session *entity.AdviceSession, mentor *entity.User) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	student, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: session.StudentId})
	if err != nil || student == nil {
		return
	}
	link := fmt.Sprintf("%s/chat/%s", s.appLink, session.Id)

	go func() {
		if err := s.emailService.SendSessionAccepted(student.Email, student.FullName, mentor.FullName, link); err != nil {
			s.logger.Warn("SESSION", "Failed to send session accepted email", map[string]interface{}{"session_id": session.Id, "error": err.Error()})
		}
	}()
}

// present adds question titles and participant summaries. The student of an
// anonymous question stays hidden from mentors.
func (s *sessionService) present(ctx context.Context, uow unitofwork.UnitOfWork, viewerId uuid.UUID, sessions []*entity.AdviceSession) ([]dto.SessionResponse, error) {
	res := make([]dto.SessionResponse, 0, len(sessions))
	if len(sessions) == 0 {
		return res, nil
	}

	questionIds := make([]uuid.UUID, 0, len(sessions))
	userIds := make([]uuid.UUID, 0, len(sessions)*2)
	for _, session := range sessions {
		questionIds = append(questionIds, session.QuestionId)
		userIds = append(userIds, session.StudentId)
		if session.MentorId != nil {
			userIds = append(userIds, *session.MentorId)
		}
	}

	questions, err := uow.QuestionRepository().FindAll(ctx, specification.ByIDs{IDs: dedupeIds(questionIds)})
	if err != nil {
		return nil, err
	}
	byQuestion := make(map[uuid.UUID]*entity.Question, len(questions))
	for _, q := range questions {
		byQuestion[q.Id] = q
	}

	users, err := usersByID(ctx, uow, userIds)
	if err != nil {
		return nil, err
	}

	for _, session := range sessions {
		item := toSessionResponse(session)
		q := byQuestion[session.QuestionId]
		if q != nil {
			item.QuestionTitle = q.Title
		}
		if q == nil || !q.IsAnonymous || session.StudentId == viewerId {
			item.Student = toAuthorSummary(users[session.StudentId])
		}
		if session.MentorId != nil {
			item.Mentor = toAuthorSummary(users[*session.MentorId])
		}
		res = append(res, item)
	}
	return res, nil
}
