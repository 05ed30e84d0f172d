package mapper

import (
	"wizzmo-be/internal/entity"
	"wizzmo-be/internal/model"

	"gorm.io/gorm"
)

type SessionMapper struct{}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{}
}

func (m *SessionMapper) ToEntity(s *model.AdviceSession) *entity.AdviceSession {
	if s == nil {
		return nil
	}
	return &entity.AdviceSession{
		Id:            s.Id,
		QuestionId:    s.QuestionId,
		StudentId:     s.StudentId,
		MentorId:      s.MentorId,
		Status:        entity.SessionStatus(s.Status),
		Rating:        s.Rating,
		Feedback:      s.Feedback,
		LastSeq:       s.LastSeq,
		AcceptedAt:    s.AcceptedAt,
		ResolvedAt:    s.ResolvedAt,
		RatedAt:       s.RatedAt,
		LastMessageAt: s.LastMessageAt,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func (m *SessionMapper) ToModel(s *entity.AdviceSession) *model.AdviceSession {
	if s == nil {
		return nil
	}
	return &model.AdviceSession{
		Id:            s.Id,
		QuestionId:    s.QuestionId,
		StudentId:     s.StudentId,
		MentorId:      s.MentorId,
		Status:        string(s.Status),
		Rating:        s.Rating,
		Feedback:      s.Feedback,
		LastSeq:       s.LastSeq,
		AcceptedAt:    s.AcceptedAt,
		ResolvedAt:    s.ResolvedAt,
		RatedAt:       s.RatedAt,
		LastMessageAt: s.LastMessageAt,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func (m *SessionMapper) MessageToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}
	e := &entity.Message{
		Id:            msg.Id,
		SessionId:     msg.SessionId,
		SenderId:      msg.SenderId,
		Seq:           msg.Seq,
		Content:       msg.Content,
		AudioURL:      msg.AudioURL,
		AudioDuration: msg.AudioDuration,
		ImageURL:      msg.ImageURL,
		IsRead:        msg.IsRead,
		ReplyToId:     msg.ReplyToId,
		Version:       msg.Version,
		EditedAt:      msg.EditedAt,
		CreatedAt:     msg.CreatedAt,
		UpdatedAt:     msg.UpdatedAt,
		Reactions:     make([]*entity.Reaction, 0, len(msg.Reactions)),
	}
	if msg.DeletedAt.Valid {
		t := msg.DeletedAt.Time
		e.DeletedAt = &t
	}
	for i := range msg.Reactions {
		e.Reactions = append(e.Reactions, m.ReactionToEntity(&msg.Reactions[i]))
	}
	return e
}

// MessageToModel leaves Reactions out; they are written through their own repository.
func (m *SessionMapper) MessageToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}
	mdl := &model.Message{
		Id:            msg.Id,
		SessionId:     msg.SessionId,
		SenderId:      msg.SenderId,
		Seq:           msg.Seq,
		Content:       msg.Content,
		AudioURL:      msg.AudioURL,
		AudioDuration: msg.AudioDuration,
		ImageURL:      msg.ImageURL,
		IsRead:        msg.IsRead,
		ReplyToId:     msg.ReplyToId,
		Version:       msg.Version,
		EditedAt:      msg.EditedAt,
		CreatedAt:     msg.CreatedAt,
		UpdatedAt:     msg.UpdatedAt,
	}
	if msg.DeletedAt != nil {
		mdl.DeletedAt = gorm.DeletedAt{Time: *msg.DeletedAt, Valid: true}
	}
	return mdl
}

func (m *SessionMapper) ReactionToEntity(r *model.Reaction) *entity.Reaction {
	if r == nil {
		return nil
	}
	return &entity.Reaction{Id: r.Id, MessageId: r.MessageId, UserId: r.UserId, Emoji: r.Emoji, CreatedAt: r.CreatedAt}
}

func (m *SessionMapper) ReactionToModel(r *entity.Reaction) *model.Reaction {
	if r == nil {
		return nil
	}
	return &model.Reaction{Id: r.Id, MessageId: r.MessageId, UserId: r.UserId, Emoji: r.Emoji, CreatedAt: r.CreatedAt}
}
