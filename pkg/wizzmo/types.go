package wizzmo

import (
	"time"

	"github.com/google/uuid"
)

const (
	ModeStudent = "student"
	ModeMentor  = "mentor"

	RoleStudent = "student"
	RoleMentor  = "mentor"
	RoleBoth    = "both"
)

type User struct {
	Id               uuid.UUID `json:"id"`
	Email            string    `json:"email,omitempty"`
	FullName         string    `json:"full_name"`
	Username         string    `json:"username"`
	Role             string    `json:"role"`
	CurrentMode      string    `json:"current_mode"`
	AvatarURL        *string   `json:"avatar_url"`
	Bio              string    `json:"bio"`
	University       string    `json:"university"`
	Expertise        []string  `json:"expertise"`
	SessionsResolved int       `json:"sessions_resolved"`
	RatingAverage    float64   `json:"rating_average"`
	RatingCount      int       `json:"rating_count"`
	QuestionsAsked   int       `json:"questions_asked"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CanMentor reports whether the user may switch to mentor mode.
func (u *User) CanMentor() bool {
	return u.Role == RoleMentor || u.Role == RoleBoth
}

type Auth struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
	User         User   `json:"user"`
}

type SignUpInput struct {
	FullName string `json:"full_name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type ProfileUpdate struct {
	FullName   *string  `json:"full_name,omitempty"`
	Username   *string  `json:"username,omitempty"`
	Bio        *string  `json:"bio,omitempty"`
	University *string  `json:"university,omitempty"`
	Expertise  []string `json:"expertise,omitempty"`
}

type Avatar struct {
	AvatarURL    string `json:"avatar_url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

type Category struct {
	Id        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Emoji     string    `json:"emoji"`
	SortOrder int       `json:"sort_order"`
}

type Author struct {
	Id        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	AvatarURL *string   `json:"avatar_url"`
}

type Question struct {
	Id           uuid.UUID  `json:"id"`
	StudentId    *uuid.UUID `json:"student_id"`
	Author       *Author    `json:"author,omitempty"`
	CategoryId   *uuid.UUID `json:"category_id"`
	Title        string     `json:"title"`
	Body         string     `json:"body"`
	IsPublic     bool       `json:"is_public"`
	IsAnonymous  bool       `json:"is_anonymous"`
	Status       string     `json:"status"`
	Upvotes      int        `json:"upvotes"`
	Downvotes    int        `json:"downvotes"`
	CommentCount int        `json:"comment_count"`
	MyVote       *string    `json:"my_vote"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type AskInput struct {
	Title       string      `json:"title"`
	Body        string      `json:"body,omitempty"`
	CategoryId  *uuid.UUID  `json:"category_id,omitempty"`
	IsAnonymous bool        `json:"is_anonymous"`
	MentorIds   []uuid.UUID `json:"mentor_ids,omitempty"`
}

type Asked struct {
	Question Question  `json:"question"`
	Sessions []Session `json:"sessions"`
}

type Feed struct {
	Items  []Question `json:"items"`
	Total  int64      `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

type FeedQuery struct {
	CategoryId *uuid.UUID
	Limit      int
	Offset     int
}

type VoteResult struct {
	QuestionId uuid.UUID `json:"question_id"`
	Upvotes    int       `json:"upvotes"`
	Downvotes  int       `json:"downvotes"`
	MyVote     *string   `json:"my_vote"`
}

type Comment struct {
	Id         uuid.UUID `json:"id"`
	QuestionId uuid.UUID `json:"question_id"`
	AuthorId   uuid.UUID `json:"author_id"`
	Author     *Author   `json:"author,omitempty"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

type Mentor struct {
	User
	IsFavorite bool `json:"is_favorite"`
}

type MentorPass struct {
	MentorId         uuid.UUID `json:"mentor_id"`
	Username         string    `json:"username"`
	FullName         string    `json:"full_name"`
	AvatarURL        *string   `json:"avatar_url"`
	Expertise        []string  `json:"expertise"`
	SessionsResolved int       `json:"sessions_resolved"`
	ActiveSessions   int       `json:"active_sessions"`
	RatingAverage    float64   `json:"rating_average"`
	RatingCount      int       `json:"rating_count"`
	FavoritedBy      int64     `json:"favorited_by"`
	MemberSince      time.Time `json:"member_since"`
}

type FavoriteState struct {
	MentorId   uuid.UUID `json:"mentor_id"`
	IsFavorite bool      `json:"is_favorite"`
}

type Session struct {
	Id            uuid.UUID  `json:"id"`
	QuestionId    uuid.UUID  `json:"question_id"`
	QuestionTitle string     `json:"question_title,omitempty"`
	StudentId     uuid.UUID  `json:"student_id"`
	MentorId      *uuid.UUID `json:"mentor_id"`
	Student       *Author    `json:"student,omitempty"`
	Mentor        *Author    `json:"mentor,omitempty"`
	Status        string     `json:"status"`
	Rating        *int       `json:"rating"`
	Feedback      string     `json:"feedback,omitempty"`
	LastSeq       int64      `json:"last_seq"`
	AcceptedAt    *time.Time `json:"accepted_at"`
	ResolvedAt    *time.Time `json:"resolved_at"`
	RatedAt       *time.Time `json:"rated_at"`
	LastMessageAt *time.Time `json:"last_message_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type Reaction struct {
	Id        uuid.UUID `json:"id"`
	UserId    uuid.UUID `json:"user_id"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is a chat row. It is also the record shape of "messages" changes.
type Message struct {
	Id            uuid.UUID  `json:"id"`
	SessionId     uuid.UUID  `json:"session_id"`
	SenderId      uuid.UUID  `json:"sender_id"`
	Seq           int64      `json:"seq"`
	Content       *string    `json:"content"`
	AudioURL      *string    `json:"audio_url"`
	AudioDuration *int       `json:"audio_duration"`
	ImageURL      *string    `json:"image_url"`
	IsRead        bool       `json:"is_read"`
	ReplyToId     *uuid.UUID `json:"reply_to_id"`
	Version       int64      `json:"version"`
	EditedAt      *time.Time `json:"edited_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
	Reactions     []Reaction `json:"reactions"`
}

// Text returns the message content or "".
func (m *Message) Text() string {
	if m.Content == nil {
		return ""
	}
	return *m.Content
}

type MediaKind string

const (
	MediaAudio MediaKind = "audio"
	MediaImage MediaKind = "image"
)

// MediaUpload is a voice note or picture to attach to a session.
type MediaUpload struct {
	Kind      MediaKind
	Filename  string
	Data      []byte
	Duration  int // seconds, audio only
	Caption   string
	ReplyToId *uuid.UUID
}

type ReadResult struct {
	Updated int `json:"updated"`
}
