package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Question struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StudentId    uuid.UUID      `gorm:"type:uuid;not null;index"`
	CategoryId   *uuid.UUID     `gorm:"type:uuid;index"`
	Title        string         `gorm:"type:varchar(200);not null"`
	Body         string         `gorm:"type:text"`
	IsPublic     bool           `gorm:"default:true;index:idx_questions_public_created,priority:1"`
	IsAnonymous  bool           `gorm:"default:false"`
	Status       string         `gorm:"type:varchar(20);not null;default:'open'"`
	Upvotes      int            `gorm:"default:0"`
	Downvotes    int            `gorm:"default:0"`
	CommentCount int            `gorm:"default:0"`
	CreatedAt    time.Time      `gorm:"autoCreateTime;index:idx_questions_public_created,priority:2"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (Question) TableName() string {
	return "questions"
}

type Comment struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	QuestionId uuid.UUID `gorm:"type:uuid;not null;index"`
	AuthorId   uuid.UUID `gorm:"type:uuid;not null"`
	Body       string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (Comment) TableName() string {
	return "question_comments"
}

type Vote struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	QuestionId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_votes_question_user,priority:1"`
	UserId     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_votes_question_user,priority:2"`
	VoteType   string    `gorm:"type:varchar(10);not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (Vote) TableName() string {
	return "votes"
}

type Favorite struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StudentId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favorites_student_mentor,priority:1"`
	MentorId  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favorites_student_mentor,priority:2;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Favorite) TableName() string {
	return "favorites"
}
