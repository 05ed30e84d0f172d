package entity

import (
	"time"

	"github.com/google/uuid"
)

type QuestionStatus string
type VoteType string

const (
	QuestionStatusOpen     QuestionStatus = "open"
	QuestionStatusAnswered QuestionStatus = "answered"
	QuestionStatusClosed   QuestionStatus = "closed"

	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

type Question struct {
	Id           uuid.UUID
	StudentId    uuid.UUID
	CategoryId   *uuid.UUID
	Title        string
	Body         string
	IsPublic     bool
	IsAnonymous  bool
	Status       QuestionStatus
	Upvotes      int
	Downvotes    int
	CommentCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Comment struct {
	Id         uuid.UUID
	QuestionId uuid.UUID
	AuthorId   uuid.UUID
	Body       string
	CreatedAt  time.Time
}

type Vote struct {
	Id         uuid.UUID
	QuestionId uuid.UUID
	UserId     uuid.UUID
	VoteType   VoteType
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// VoteOutcome is the result of applying a vote request to a user's current vote.
// Next is nil when the user ends up with no vote.
type VoteOutcome struct {
	Next      *VoteType
	UpDelta   int
	DownDelta int
}

// ApplyVote keeps up and down mutually exclusive. Requesting the vote the user
// already holds clears it; requesting the opposite one swaps it.
func ApplyVote(current *VoteType, requested VoteType) VoteOutcome {
	delta := func(v VoteType, n int) (int, int) {
		if v == VoteUp {
			return n, 0
		}
		return 0, n
	}

	if current == nil {
		up, down := delta(requested, 1)
		next := requested
		return VoteOutcome{Next: &next, UpDelta: up, DownDelta: down}
	}

	if *current == requested {
		up, down := delta(requested, -1)
		return VoteOutcome{Next: nil, UpDelta: up, DownDelta: down}
	}

	clearUp, clearDown := delta(*current, -1)
	setUp, setDown := delta(requested, 1)
	next := requested
	return VoteOutcome{Next: &next, UpDelta: clearUp + setUp, DownDelta: clearDown + setDown}
}

func (v VoteType) Valid() bool {
	return v == VoteUp || v == VoteDown
}
