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
	"wizzmo-be/internal/pkg/storage"
	"wizzmo-be/internal/repository/specification"
	"wizzmo-be/internal/repository/unitofwork"
	"wizzmo-be/pkg/events"

	"github.com/google/uuid"
)

type IMessageService interface {
	List(ctx context.Context, userId, sessionId uuid.UUID, afterSeq int64) ([]dto.MessageResponse, error)
	Send(ctx context.Context, userId, sessionId uuid.UUID, req *dto.SendMessageRequest) (*dto.MessageResponse, error)
	SendMedia(ctx context.Context, userId, sessionId uuid.UUID, req *dto.SendMediaRequest, file *multipart.FileHeader) (*dto.MessageResponse, error)
	Edit(ctx context.Context, userId, messageId uuid.UUID, req *dto.EditMessageRequest) (*dto.MessageResponse, error)
	Unsend(ctx context.Context, userId, messageId uuid.UUID) error
	ToggleReaction(ctx context.Context, userId, messageId uuid.UUID, req *dto.ReactionRequest) (*dto.MessageResponse, error)
	MarkRead(ctx context.Context, userId, sessionId uuid.UUID) (*dto.MarkReadResponse, error)
}

type messageService struct {
	uowFactory unitofwork.RepositoryFactory
	storage    storage.IStorage
	feed       IChangeFeed
	logger     logger.ILogger
	now        func() time.Time
}

func NewMessageService(uowFactory unitofwork.RepositoryFactory, store storage.IStorage, feed IChangeFeed, log logger.ILogger) IMessageService {
	return &messageService{
		uowFactory: uowFactory,
		storage:    store,
		feed:       feed,
		logger:     log,
		now:        time.Now,
	}
}

func (s *messageService) List(ctx context.Context, userId, sessionId uuid.UUID, afterSeq int64) ([]dto.MessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := participantSession(ctx, uow, userId, sessionId); err != nil {
		return nil, err
	}

	specs := []specification.Specification{specification.BySessionID{SessionID: sessionId}}
	if afterSeq > 0 {
		specs = append(specs, specification.AfterSeq{Seq: afterSeq})
	}
	specs = append(specs, specification.OrderBySeq{}, specification.WithReactions{})

	messages, err := uow.MessageRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := make([]dto.MessageResponse, 0, len(messages))
	for _, m := range messages {
		res = append(res, toMessageResponse(m))
	}
	return res, nil
}

func (s *messageService) Send(ctx context.Context, userId, sessionId uuid.UUID, req *dto.SendMessageRequest) (*dto.MessageResponse, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperror.Validation("message content is required")
	}
	return s.insert(ctx, userId, sessionId, req.ReplyToId, &entity.Message{Content: &content})
}

func (s *messageService) SendMedia(ctx context.Context, userId, sessionId uuid.UUID, req *dto.SendMediaRequest, file *multipart.FileHeader) (*dto.MessageResponse, error) {
	if file == nil {
		return nil, apperror.Validation("file is required")
	}

	// Check membership before anything lands on disk
	if _, err := participantSession(ctx, s.uowFactory.NewUnitOfWork(ctx), userId, sessionId); err != nil {
		return nil, err
	}

	msg := &entity.Message{}
	switch req.Kind {
	case "audio":
		stored, err := s.storage.Save(storage.BucketAudio, sessionId, file)
		if err != nil {
			return nil, err
		}
		duration := req.Duration
		msg.AudioURL = &stored.URL
		msg.AudioDuration = &duration
	case "image":
		stored, err := s.storage.Save(storage.BucketImages, sessionId, file)
		if err != nil {
			return nil, err
		}
		msg.ImageURL = &stored.URL
	default:
		return nil, apperror.Validation("kind must be audio or image")
	}

	if caption := strings.TrimSpace(req.Caption); caption != "" {
		msg.Content = &caption
	}
	return s.insert(ctx, userId, sessionId, req.ReplyToId, msg)
}

// insert reserves the next seq for the session and stores the message in the
// same transaction, so seq order is commit order per session.
func (s *messageService) insert(ctx context.Context, userId, sessionId uuid.UUID, replyTo *uuid.UUID, msg *entity.Message) (*dto.MessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := participantSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}
	if !session.AcceptsMessages() {
		return nil, apperror.New(apperror.KindConflict, "session is resolved", apperror.ErrInvalidTransition)
	}

	if replyTo != nil {
		parent, err := uow.MessageRepository().FindOne(ctx, specification.ByID{ID: *replyTo}, specification.BySessionID{SessionID: sessionId})
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, apperror.Validation("reply_to_id must reference a message of this session")
		}
	}

	now := s.now()
	msg.Id = uuid.New()
	msg.SessionId = sessionId
	msg.SenderId = userId
	msg.ReplyToId = replyTo
	msg.Version = 1
	msg.CreatedAt = now
	msg.UpdatedAt = now

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	seq, err := uow.AdviceSessionRepository().NextSeq(ctx, sessionId, now)
	if err != nil {
		return nil, fmt.Errorf("reserve seq: %w", err)
	}
	msg.Seq = seq

	if err := uow.MessageRepository().Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	res := toMessageResponse(msg)
	s.feed.Emit(ctx, TopicMessages, events.ChangeInsert, res, nil)

	session.LastSeq = seq
	session.LastMessageAt = &now
	session.UpdatedAt = now
	s.feed.Emit(ctx, TopicSessions, events.ChangeUpdate, toSessionResponse(session), nil)

	return &res, nil
}

// Edit is limited to the sender's text messages inside the unsend window.
func (s *messageService) Edit(ctx context.Context, userId, messageId uuid.UUID, req *dto.EditMessageRequest) (*dto.MessageResponse, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperror.Validation("message content is required")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	msg, err := s.ownMessage(ctx, uow, userId, messageId)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !msg.CanUnsend(now) {
		return nil, apperror.New(apperror.KindForbidden, "message can no longer be edited", apperror.ErrUnsendExpired)
	}
	if msg.Content == nil || msg.AudioURL != nil || msg.ImageURL != nil {
		return nil, apperror.Validation("only text messages can be edited")
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	updated, err := uow.MessageRepository().UpdateFields(ctx, messageId, map[string]interface{}{
		"content":   content,
		"edited_at": now,
	})
	if err != nil {
		return nil, fmt.Errorf("update message: %w", err)
	}
	if updated == nil {
		return nil, apperror.NotFound("message")
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	res := toMessageResponse(updated)
	s.feed.Emit(ctx, TopicMessages, events.ChangeUpdate, res, nil)
	return &res, nil
}

// Unsend soft-deletes the sender's message if it is at most five minutes old.
func (s *messageService) Unsend(ctx context.Context, userId, messageId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	msg, err := s.ownMessage(ctx, uow, userId, messageId)
	if err != nil {
		return err
	}

	now := s.now()
	if !msg.CanUnsend(now) {
		return apperror.New(apperror.KindForbidden, apperror.ErrUnsendExpired.Error(), apperror.ErrUnsendExpired)
	}

	if err := uow.MessageRepository().Delete(ctx, messageId); err != nil {
		return fmt.Errorf("unsend message: %w", err)
	}

	msg.Touch(now)
	msg.DeletedAt = &now
	s.feed.Emit(ctx, TopicMessages, events.ChangeDelete, nil, toMessageResponse(msg))

	s.logger.Info("MESSAGE", "Message unsent", map[string]interface{}{"message_id": messageId, "session_id": msg.SessionId})
	return nil
}

// ToggleReaction adds the emoji for the user, or removes it if already present.
func (s *messageService) ToggleReaction(ctx context.Context, userId, messageId uuid.UUID, req *dto.ReactionRequest) (*dto.MessageResponse, error) {
	emoji := strings.TrimSpace(req.Emoji)
	if emoji == "" {
		return nil, apperror.Validation("emoji is required")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	msg, err := uow.MessageRepository().FindOne(ctx, specification.ByID{ID: messageId})
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, apperror.NotFound("message")
	}
	if _, err := participantSession(ctx, uow, userId, msg.SessionId); err != nil {
		return nil, err
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	existing, err := uow.ReactionRepository().FindOne(ctx,
		specification.ByMessageID{MessageID: messageId},
		specification.UserOwnedBy{UserID: userId},
		specification.ByEmoji{Emoji: emoji},
	)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		err = uow.ReactionRepository().Delete(ctx, existing.Id)
	} else {
		err = uow.ReactionRepository().Create(ctx, &entity.Reaction{
			Id: uuid.New(), MessageId: messageId, UserId: userId, Emoji: emoji, CreatedAt: s.now(),
		})
	}
	if err != nil {
		return nil, fmt.Errorf("toggle reaction: %w", err)
	}

	updated, err := uow.MessageRepository().BumpVersion(ctx, messageId)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	res := toMessageResponse(updated)
	s.feed.Emit(ctx, TopicMessages, events.ChangeUpdate, res, nil)
	return &res, nil
}

// MarkRead flags every message from the other participant as read.
func (s *messageService) MarkRead(ctx context.Context, userId, sessionId uuid.UUID) (*dto.MarkReadResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := participantSession(ctx, uow, userId, sessionId); err != nil {
		return nil, err
	}

	unread, err := uow.MessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.UnreadFor{ReaderID: userId},
		specification.OrderBySeq{},
		specification.WithReactions{},
	)
	if err != nil {
		return nil, err
	}
	if len(unread) == 0 {
		return &dto.MarkReadResponse{Updated: 0}, nil
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	read := make([]*entity.Message, 0, len(unread))
	for _, m := range unread {
		updated, err := uow.MessageRepository().UpdateFields(ctx, m.Id, map[string]interface{}{"is_read": true})
		if err != nil {
			return nil, fmt.Errorf("mark read: %w", err)
		}
		if updated != nil {
			read = append(read, updated)
		}
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	for _, m := range read {
		s.feed.Emit(ctx, TopicMessages, events.ChangeUpdate, toMessageResponse(m), nil)
	}
	return &dto.MarkReadResponse{Updated: len(read)}, nil
}

func (s *messageService) ownMessage(ctx context.Context, uow unitofwork.UnitOfWork, userId, messageId uuid.UUID) (*entity.Message, error) {
	msg, err := uow.MessageRepository().FindOne(ctx, specification.ByID{ID: messageId})
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, apperror.NotFound("message")
	}
	if msg.SenderId != userId {
		return nil, apperror.Forbidden("only the sender can change this message")
	}
	return msg, nil
}

// participantSession loads a session the user takes part in. Outsiders get
// not found, not forbidden, so session ids cannot be probed.
func participantSession(ctx context.Context, uow unitofwork.UnitOfWork, userId, sessionId uuid.UUID) (*entity.AdviceSession, error) {
	session, err := uow.AdviceSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil || !session.IsParticipant(userId) {
		return nil, apperror.NotFound("session")
	}
	return session, nil
}
