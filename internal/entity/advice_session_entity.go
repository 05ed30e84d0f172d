package entity

import (
	"time"

	"wizzmo-be/internal/pkg/apperror"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionStatusPending  SessionStatus = "pending"
	SessionStatusAssigned SessionStatus = "assigned"
	SessionStatusActive   SessionStatus = "active"
	SessionStatusResolved SessionStatus = "resolved"
)

type AdviceSession struct {
	Id            uuid.UUID
	QuestionId    uuid.UUID
	StudentId     uuid.UUID
	MentorId      *uuid.UUID
	Status        SessionStatus
	Rating        *int
	Feedback      string
	LastSeq       int64
	AcceptedAt    *time.Time
	ResolvedAt    *time.Time
	RatedAt       *time.Time
	LastMessageAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (s *AdviceSession) IsParticipant(userId uuid.UUID) bool {
	if s.StudentId == userId {
		return true
	}
	return s.MentorId != nil && *s.MentorId == userId
}

// CanView also lets mentors peek at open-pool sessions before accepting them.
func (s *AdviceSession) CanView(user *User) bool {
	if s.IsParticipant(user.Id) {
		return true
	}
	return s.Status == SessionStatusPending && s.MentorId == nil && user.IsMentor()
}

func (s *AdviceSession) Accept(mentor *User, now time.Time) error {
	if !mentor.IsMentor() {
		return apperror.Forbidden("only mentors can accept sessions")
	}
	if mentor.Id == s.StudentId {
		return apperror.Forbidden("cannot accept your own question")
	}

	switch s.Status {
	case SessionStatusPending:
		if s.MentorId != nil && *s.MentorId != mentor.Id {
			return apperror.Forbidden("session is directed at another mentor")
		}
	case SessionStatusAssigned:
		if s.MentorId == nil || *s.MentorId != mentor.Id {
			return apperror.Forbidden("session is assigned to another mentor")
		}
	default:
		return apperror.New(apperror.KindConflict, "session can no longer be accepted", apperror.ErrInvalidTransition)
	}

	id := mentor.Id
	s.MentorId = &id
	s.Status = SessionStatusActive
	s.AcceptedAt = &now
	return nil
}

// Decline returns a directed session to the open pool.
func (s *AdviceSession) Decline(mentorId uuid.UUID) error {
	if s.Status != SessionStatusAssigned {
		return apperror.New(apperror.KindConflict, "only assigned sessions can be declined", apperror.ErrInvalidTransition)
	}
	if s.MentorId == nil || *s.MentorId != mentorId {
		return apperror.Forbidden("session is not assigned to you")
	}
	s.MentorId = nil
	s.Status = SessionStatusPending
	return nil
}

func (s *AdviceSession) Resolve(userId uuid.UUID, now time.Time) error {
	if !s.IsParticipant(userId) {
		return apperror.Forbidden("not a participant of this session")
	}
	if s.Status == SessionStatusResolved {
		return apperror.New(apperror.KindConflict, "session already resolved", apperror.ErrInvalidTransition)
	}
	s.Status = SessionStatusResolved
	s.ResolvedAt = &now
	return nil
}

func (s *AdviceSession) Rate(studentId uuid.UUID, rating int, feedback string, now time.Time) error {
	if s.StudentId != studentId {
		return apperror.Forbidden("only the student can rate a session")
	}
	if s.Status != SessionStatusResolved {
		return apperror.New(apperror.KindConflict, "only resolved sessions can be rated", apperror.ErrInvalidTransition)
	}
	if s.Rating != nil {
		return apperror.Conflict(apperror.ErrAlreadyRated)
	}
	if rating < 1 || rating > 5 {
		return apperror.Validation("rating must be between 1 and 5")
	}
	s.Rating = &rating
	s.Feedback = feedback
	s.RatedAt = &now
	return nil
}

// AcceptsMessages reports whether new messages can be posted.
func (s *AdviceSession) AcceptsMessages() bool {
	return s.Status == SessionStatusActive || s.Status == SessionStatusAssigned || s.Status == SessionStatusPending
}
