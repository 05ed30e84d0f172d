// FILE: internal/service/realtime_service.go
package service

import (
	"context"

	"wizzmo-be/internal/pkg/apperror"
	"wizzmo-be/internal/pkg/logger"
	"wizzmo-be/internal/repository/specification"
	"wizzmo-be/internal/repository/unitofwork"
	internalWS "wizzmo-be/internal/websocket"
	"wizzmo-be/pkg/events"
	pktNats "wizzmo-be/pkg/nats"

	"github.com/google/uuid"
)

const dispatchDurable = "realtime-dispatch"

type IRealtimeService interface {
	// Start forwards the NATS change stream into the hub.
	Start(ctx context.Context) error
	Authorize(ctx context.Context, userID uuid.UUID, sub internalWS.Subscription) error
}

type realtimeService struct {
	uowFactory unitofwork.RepositoryFactory
	subscriber *pktNats.Subscriber
	hub        *internalWS.Hub
	logger     logger.ILogger
}

func NewRealtimeService(uowFactory unitofwork.RepositoryFactory, subscriber *pktNats.Subscriber, hub *internalWS.Hub, log logger.ILogger) IRealtimeService {
	s := &realtimeService{
		uowFactory: uowFactory,
		subscriber: subscriber,
		hub:        hub,
		logger:     log,
	}
	hub.SetAuthorizer(s.Authorize)
	return s
}

func (s *realtimeService) Start(ctx context.Context) error {
	if s.subscriber == nil {
		s.logger.Warn("RealtimeService", "NATS subscriber not configured, changes are delivered in-process only", nil)
		return nil
	}
	return s.subscriber.Subscribe(ctx, pktNats.SubjectPrefix+".>", dispatchDurable, func(ctx context.Context, event events.Event) error {
		change, ok := event.(events.RowChange)
		if !ok {
			return nil
		}
		s.hub.Publish(ctx, change)
		return nil
	})
}

// Authorize is the row policy for subscriptions:
//   - messages need session_id=eq.<session the user takes part in>;
//   - advice_sessions allow the user's own student_id/mentor_id, a session id
//     they take part in, or status=eq.pending for mentors watching the pool;
//   - users, questions and categories carry public rows only.
func (s *realtimeService) Authorize(ctx context.Context, userID uuid.UUID, sub internalWS.Subscription) error {
	switch sub.Topic {
	case TopicUsers, TopicQuestions, "categories":
		return nil
	case TopicMessages:
		if sub.Filter.Column != "session_id" {
			return apperror.Forbidden("messages subscriptions require a session_id filter")
		}
		return s.requireParticipant(ctx, userID, sub.Filter.Value)
	case TopicSessions:
		switch sub.Filter.Column {
		case "student_id", "mentor_id":
			if sub.Filter.Value != userID.String() {
				return apperror.Forbidden("can only watch your own sessions")
			}
			return nil
		case "id":
			return s.requireParticipant(ctx, userID, sub.Filter.Value)
		case "status":
			if sub.Filter.Value != "pending" {
				return apperror.Forbidden("only the pending pool can be watched by status")
			}
			return s.requireMentor(ctx, userID)
		}
		return apperror.Forbidden("advice_sessions subscriptions need a filter")
	}
	return apperror.Validation("unknown topic " + sub.Topic)
}

func (s *realtimeService) requireParticipant(ctx context.Context, userID uuid.UUID, rawSessionID string) error {
	sessionID, err := uuid.Parse(rawSessionID)
	if err != nil {
		return apperror.Validation("invalid session id")
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.AdviceSessionRepository().FindOne(ctx, specification.ByID{ID: sessionID})
	if err != nil {
		return apperror.Internal(err)
	}
	if session == nil {
		return apperror.NotFound("session")
	}
	if !session.IsParticipant(userID) {
		return apperror.Forbidden("not a participant of this session")
	}
	return nil
}

func (s *realtimeService) requireMentor(ctx context.Context, userID uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userID})
	if err != nil {
		return apperror.Internal(err)
	}
	if user == nil || !user.IsMentor() {
		return apperror.Forbidden("mentors only")
	}
	return nil
}
