package service

import (
	"context"
	"io"
	"mime/multipart"
	"sort"
	"sync"
	"time"

	"wizzmo-be/internal/entity"
	"wizzmo-be/internal/pkg/logger"
	"wizzmo-be/internal/pkg/storage"
	"wizzmo-be/internal/repository/contract"
	"wizzmo-be/internal/repository/specification"
	"wizzmo-be/internal/repository/unitofwork"
	"wizzmo-be/pkg/events"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeStore is an in-memory stand-in for the Postgres tables. It understands
// the filtering specifications the services use and ignores ordering and
// locking ones.
type fakeStore struct {
	mu sync.Mutex

	users      []*entity.User
	tokens     []*entity.UserRefreshToken
	providers  []*entity.UserProvider
	categories []*entity.Category
	questions  []*entity.Question
	comments   []*entity.Comment
	votes      []*entity.Vote
	favorites  []*entity.Favorite
	sessions   []*entity.AdviceSession
	messages   []*entity.Message
	reactions  []*entity.Reaction

	commits int
	// beforeMessageWrite runs once ahead of the next targeted message update,
	// standing in for a writer that commits between our read and write.
	beforeMessageWrite func()
}

func newFakeStore() *fakeStore { return &fakeStore{} }

func (s *fakeStore) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUow{s: s}
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

// columns exposes the fields specifications filter on.
func columns(row interface{}) map[string]interface{} {
	optional := func(id *uuid.UUID) interface{} {
		if id == nil {
			return nil
		}
		return *id
	}
	switch r := row.(type) {
	case *entity.User:
		return map[string]interface{}{"id": r.Id, "email": r.Email, "username": r.Username, "role": string(r.Role), "status": string(r.Status), "expertise": r.Expertise}
	case *entity.UserRefreshToken:
		return map[string]interface{}{"id": r.Id, "user_id": r.UserId, "token_hash": r.TokenHash, "revoked": r.Revoked}
	case *entity.UserProvider:
		return map[string]interface{}{"id": r.Id, "user_id": r.UserId, "provider_name": r.ProviderName, "provider_user_id": r.ProviderUserId}
	case *entity.Category:
		return map[string]interface{}{"id": r.Id, "slug": r.Slug}
	case *entity.Question:
		return map[string]interface{}{"id": r.Id, "student_id": r.StudentId, "category_id": optional(r.CategoryId), "is_public": r.IsPublic}
	case *entity.Comment:
		return map[string]interface{}{"id": r.Id, "question_id": r.QuestionId, "author_id": r.AuthorId}
	case *entity.Vote:
		return map[string]interface{}{"id": r.Id, "question_id": r.QuestionId, "user_id": r.UserId}
	case *entity.Favorite:
		return map[string]interface{}{"id": r.Id, "student_id": r.StudentId, "mentor_id": r.MentorId}
	case *entity.AdviceSession:
		return map[string]interface{}{"id": r.Id, "question_id": r.QuestionId, "student_id": r.StudentId, "mentor_id": optional(r.MentorId), "status": string(r.Status)}
	case *entity.Message:
		return map[string]interface{}{"id": r.Id, "session_id": r.SessionId, "sender_id": r.SenderId, "seq": r.Seq, "is_read": r.IsRead}
	case *entity.Reaction:
		return map[string]interface{}{"id": r.Id, "message_id": r.MessageId, "user_id": r.UserId, "emoji": r.Emoji}
	}
	return map[string]interface{}{}
}

func containsID(ids []uuid.UUID, v interface{}) bool {
	for _, id := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func matchSpec(cols map[string]interface{}, spec specification.Specification) bool {
	switch s := spec.(type) {
	case specification.ByID:
		return cols["id"] == s.ID
	case specification.ByIDs:
		return containsID(s.IDs, cols["id"])
	case specification.ByEmail:
		return cols["email"] == s.Email
	case specification.ByUsername:
		return cols["username"] == s.Username
	case specification.UserOwnedBy:
		return cols["user_id"] == s.UserID
	case specification.ActiveUsers:
		return cols["status"] == "active"
	case specification.ByTokenHash:
		return cols["token_hash"] == s.Hash
	case specification.NotRevoked:
		return cols["revoked"] == false
	case specification.ByProvider:
		return cols["provider_name"] == s.Name && cols["provider_user_id"] == s.UserID
	case specification.Mentors:
		return cols["role"] == "mentor" || cols["role"] == "both"
	case specification.ExcludeUser:
		return cols["id"] != s.UserID
	case specification.WithExpertise:
		list, _ := cols["expertise"].([]string)
		for _, e := range list {
			if e == s.Slug {
				return true
			}
		}
		return false
	case specification.PublicQuestions:
		return cols["is_public"] == true
	case specification.ByCategoryID:
		return cols["category_id"] == s.CategoryID
	case specification.ByQuestionID:
		return cols["question_id"] == s.QuestionID
	case specification.ByQuestionIDs:
		return containsID(s.QuestionIDs, cols["question_id"])
	case specification.BySlug:
		return cols["slug"] == s.Slug
	case specification.ByStudentID:
		return cols["student_id"] == s.StudentID
	case specification.ByMentorID:
		return cols["mentor_id"] == s.MentorID
	case specification.ByStatus:
		for _, st := range s.Statuses {
			if cols["status"] == st {
				return true
			}
		}
		return false
	case specification.MentorInbox:
		return cols["mentor_id"] == s.MentorID ||
			(cols["status"] == "pending" && cols["mentor_id"] == nil && cols["student_id"] != s.MentorID)
	case specification.BySessionID:
		return cols["session_id"] == s.SessionID
	case specification.AfterSeq:
		return cols["seq"].(int64) > s.Seq
	case specification.ByMessageID:
		return cols["message_id"] == s.MessageID
	case specification.ByMessageIDs:
		return containsID(s.MessageIDs, cols["message_id"])
	case specification.ByEmoji:
		return cols["emoji"] == s.Emoji
	case specification.UnreadFor:
		return cols["sender_id"] != s.ReaderID && cols["is_read"] == false
	}
	return true
}

func matchAll(row interface{}, specs []specification.Specification) bool {
	cols := columns(row)
	for _, spec := range specs {
		if !matchSpec(cols, spec) {
			return false
		}
	}
	return true
}

type fakeUow struct {
	s      *fakeStore
	active bool
}

func (u *fakeUow) Begin(ctx context.Context) error { u.active = true; return nil }
func (u *fakeUow) Commit() error {
	u.active = false
	u.s.mu.Lock()
	u.s.commits++
	u.s.mu.Unlock()
	return nil
}
func (u *fakeUow) Rollback() error { u.active = false; return nil }

func (u *fakeUow) UserRepository() contract.UserRepository                 { return fakeUsers{u.s} }
func (u *fakeUow) CategoryRepository() contract.CategoryRepository         { return fakeCategories{u.s} }
func (u *fakeUow) QuestionRepository() contract.QuestionRepository         { return fakeQuestions{u.s} }
func (u *fakeUow) CommentRepository() contract.CommentRepository           { return fakeComments{u.s} }
func (u *fakeUow) VoteRepository() contract.VoteRepository                 { return fakeVotes{u.s} }
func (u *fakeUow) FavoriteRepository() contract.FavoriteRepository         { return fakeFavorites{u.s} }
func (u *fakeUow) AdviceSessionRepository() contract.AdviceSessionRepository { return fakeSessions{u.s} }
func (u *fakeUow) MessageRepository() contract.MessageRepository           { return fakeMessages{u.s} }
func (u *fakeUow) ReactionRepository() contract.ReactionRepository         { return fakeReactions{u.s} }

// Users

type fakeUsers struct{ s *fakeStore }

func copyUser(u *entity.User) *entity.User {
	cp := *u
	cp.Expertise = append([]string(nil), u.Expertise...)
	return &cp
}

func (r fakeUsers) Create(ctx context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == user.Username {
			return uniqueViolation("idx_users_username")
		}
		if u.Email == user.Email {
			return uniqueViolation("idx_users_email")
		}
	}
	r.s.users = append(r.s.users, copyUser(user))
	return nil
}

func (r fakeUsers) Update(ctx context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, u := range r.s.users {
		if u.Id != user.Id && u.Username == user.Username {
			return uniqueViolation("idx_users_username")
		}
		if u.Id == user.Id {
			r.s.users[i] = copyUser(user)
		}
	}
	return nil
}

func (r fakeUsers) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	for _, u := range r.s.users {
		if u.Id == id {
			u.DeletedAt = &now
			u.Status = entity.UserStatusDeleted
			u.Email = "deleted+" + id.String() + "@wizzmo.invalid"
			u.Username = "deleted_" + id.String()[:8]
		}
	}
	return nil
}

func (r fakeUsers) find(specs []specification.Specification, unscoped bool) []*entity.User {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.User
	for _, u := range r.s.users {
		if (unscoped || u.DeletedAt == nil) && matchAll(u, specs) {
			out = append(out, copyUser(u))
		}
	}
	return out
}

func (r fakeUsers) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	if res := r.find(specs, false); len(res) > 0 {
		return res[0], nil
	}
	return nil, nil
}

func (r fakeUsers) FindOneUnscoped(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	if res := r.find(specs, true); len(res) > 0 {
		return res[0], nil
	}
	return nil, nil
}

func (r fakeUsers) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error) {
	return r.find(specs, false), nil
}

func (r fakeUsers) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.find(specs, false))), nil
}

func (r fakeUsers) CreateRefreshToken(ctx context.Context, token *entity.UserRefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *token
	r.s.tokens = append(r.s.tokens, &cp)
	return nil
}

func (r fakeUsers) FindRefreshToken(ctx context.Context, specs ...specification.Specification) (*entity.UserRefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tokens {
		if matchAll(t, specs) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r fakeUsers) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tokens {
		if t.TokenHash == tokenHash {
			t.Revoked = true
		}
	}
	return nil
}

func (r fakeUsers) RevokeAllRefreshTokens(ctx context.Context, userId uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tokens {
		if t.UserId == userId {
			t.Revoked = true
		}
	}
	return nil
}

func (r fakeUsers) SaveUserProvider(ctx context.Context, provider *entity.UserProvider) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *provider
	r.s.providers = append(r.s.providers, &cp)
	return nil
}

func (r fakeUsers) FindUserProvider(ctx context.Context, specs ...specification.Specification) (*entity.UserProvider, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.providers {
		if matchAll(p, specs) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r fakeUsers) mutate(id uuid.UUID, fn func(u *entity.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Id == id {
			fn(u)
		}
	}
	return nil
}

func (r fakeUsers) UpdateMode(ctx context.Context, id uuid.UUID, mode entity.UserMode) error {
	return r.mutate(id, func(u *entity.User) { u.CurrentMode = mode })
}

func (r fakeUsers) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) error {
	return r.mutate(id, func(u *entity.User) { u.AvatarURL = &avatarURL })
}

func (r fakeUsers) UpdateStats(ctx context.Context, id uuid.UUID, stats contract.UserStats) error {
	return r.mutate(id, func(u *entity.User) {
		u.SessionsResolved = stats.SessionsResolved
		u.RatingAverage = stats.RatingAverage
		u.RatingCount = stats.RatingCount
	})
}

func (r fakeUsers) IncrementQuestionsAsked(ctx context.Context, id uuid.UUID) error {
	return r.mutate(id, func(u *entity.User) { u.QuestionsAsked++ })
}

// Categories

type fakeCategories struct{ s *fakeStore }

func (r fakeCategories) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Category, error) {
	res, _ := r.FindAll(ctx, specs...)
	if len(res) > 0 {
		return res[0], nil
	}
	return nil, nil
}

func (r fakeCategories) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Category
	for _, c := range r.s.categories {
		if matchAll(c, specs) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (r fakeCategories) Upsert(ctx context.Context, category *entity.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.categories {
		if c.Slug == category.Slug {
			c.Name, c.Emoji, c.SortOrder = category.Name, category.Emoji, category.SortOrder
			return nil
		}
	}
	cp := *category
	r.s.categories = append(r.s.categories, &cp)
	return nil
}

// Questions

type fakeQuestions struct{ s *fakeStore }

func (r fakeQuestions) Create(ctx context.Context, q *entity.Question) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *q
	r.s.questions = append(r.s.questions, &cp)
	return nil
}

func (r fakeQuestions) Update(ctx context.Context, q *entity.Question) error {
	return r.mutate(q.Id, func(stored *entity.Question) { *stored = *q })
}

func (r fakeQuestions) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Question, error) {
	res, _ := r.FindAll(ctx, specs...)
	if len(res) > 0 {
		return res[0], nil
	}
	return nil, nil
}

func (r fakeQuestions) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Question, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Question
	for _, q := range r.s.questions {
		if matchAll(q, specs) {
			cp := *q
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r fakeQuestions) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	res, _ := r.FindAll(ctx, specs...)
	return int64(len(res)), nil
}

func (r fakeQuestions) mutate(id uuid.UUID, fn func(q *entity.Question)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, q := range r.s.questions {
		if q.Id == id {
			fn(q)
		}
	}
	return nil
}

func (r fakeQuestions) AdjustVotes(ctx context.Context, id uuid.UUID, upDelta, downDelta int) error {
	return r.mutate(id, func(q *entity.Question) {
		q.Upvotes = max(q.Upvotes+upDelta, 0)
		q.Downvotes = max(q.Downvotes+downDelta, 0)
	})
}

func (r fakeQuestions) IncrementCommentCount(ctx context.Context, id uuid.UUID) error {
	return r.mutate(id, func(q *entity.Question) { q.CommentCount++ })
}

func (r fakeQuestions) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.QuestionStatus) error {
	return r.mutate(id, func(q *entity.Question) { q.Status = status })
}

type fakeComments struct{ s *fakeStore }

func (r fakeComments) Create(ctx context.Context, c *entity.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *c
	r.s.comments = append(r.s.comments, &cp)
	return nil
}

func (r fakeComments) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Comment
	for _, c := range r.s.comments {
		if matchAll(c, specs) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeVotes struct{ s *fakeStore }

func (r fakeVotes) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Vote, error) {
	res, _ := r.FindAll(ctx, specs...)
	if len(res) > 0 {
		return res[0], nil
	}
	return nil, nil
}

func (r fakeVotes) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Vote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Vote
	for _, v := range r.s.votes {
		if matchAll(v, specs) {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r fakeVotes) Create(ctx context.Context, vote *entity.Vote) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, v := range r.s.votes {
		if v.QuestionId == vote.QuestionId && v.UserId == vote.UserId {
			return uniqueViolation("idx_votes_question_user")
		}
	}
	cp := *vote
	r.s.votes = append(r.s.votes, &cp)
	return nil
}

func (r fakeVotes) Update(ctx context.Context, vote *entity.Vote) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, v := range r.s.votes {
		if v.Id == vote.Id {
			cp := *vote
			r.s.votes[i] = &cp
		}
	}
	return nil
}

func (r fakeVotes) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.votes[:0]
	for _, v := range r.s.votes {
		if v.Id != id {
			kept = append(kept, v)
		}
	}
	r.s.votes = kept
	return nil
}

type fakeFavorites struct{ s *fakeStore }

func (r fakeFavorites) Create(ctx context.Context, f *entity.Favorite) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.favorites {
		if existing.StudentId == f.StudentId && existing.MentorId == f.MentorId {
			return uniqueViolation("idx_favorites_student_mentor")
		}
	}
	cp := *f
	r.s.favorites = append(r.s.favorites, &cp)
	return nil
}

func (r fakeFavorites) Delete(ctx context.Context, studentId, mentorId uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.favorites[:0]
	for _, f := range r.s.favorites {
		if f.StudentId != studentId || f.MentorId != mentorId {
			kept = append(kept, f)
		}
	}
	r.s.favorites = kept
	return nil
}

func (r fakeFavorites) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Favorite, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Favorite
	for _, f := range r.s.favorites {
		if matchAll(f, specs) {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Sessions

type fakeSessions struct{ s *fakeStore }

func (r fakeSessions) Create(ctx context.Context, session *entity.AdviceSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *session
	r.s.sessions = append(r.s.sessions, &cp)
	return nil
}

func (r fakeSessions) Update(ctx context.Context, session *entity.AdviceSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, stored := range r.s.sessions {
		if stored.Id == session.Id {
			cp := *session
			r.s.sessions[i] = &cp
		}
	}
	return nil
}

func (r fakeSessions) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.AdviceSession, error) {
	res, _ := r.FindAll(ctx, specs...)
	if len(res) > 0 {
		return res[0], nil
	}
	return nil, nil
}

func (r fakeSessions) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AdviceSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.AdviceSession
	for _, session := range r.s.sessions {
		if matchAll(session, specs) {
			cp := *session
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r fakeSessions) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	res, _ := r.FindAll(ctx, specs...)
	return int64(len(res)), nil
}

func (r fakeSessions) NextSeq(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, session := range r.s.sessions {
		if session.Id == id {
			session.LastSeq++
			session.LastMessageAt = &at
			return session.LastSeq, nil
		}
	}
	return 0, nil
}

func (r fakeSessions) AggregateForMentor(ctx context.Context, mentorId uuid.UUID) (*contract.MentorAggregate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	agg := &contract.MentorAggregate{}
	total := 0
	for _, session := range r.s.sessions {
		if session.MentorId == nil || *session.MentorId != mentorId {
			continue
		}
		switch session.Status {
		case entity.SessionStatusResolved:
			agg.SessionsResolved++
		case entity.SessionStatusActive:
			agg.ActiveSessions++
		}
		if session.Rating != nil {
			agg.RatingCount++
			total += *session.Rating
		}
	}
	if agg.RatingCount > 0 {
		agg.RatingAverage = float64(total) / float64(agg.RatingCount)
	}
	return agg, nil
}

// Messages

type fakeMessages struct{ s *fakeStore }

func (r fakeMessages) copyWithReactions(m *entity.Message) *entity.Message {
	cp := *m
	cp.Reactions = nil
	for _, reaction := range r.s.reactions {
		if reaction.MessageId == m.Id {
			rc := *reaction
			cp.Reactions = append(cp.Reactions, &rc)
		}
	}
	return &cp
}

func (r fakeMessages) Create(ctx context.Context, m *entity.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *m
	cp.Reactions = nil
	r.s.messages = append(r.s.messages, &cp)
	return nil
}

func (r fakeMessages) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*entity.Message, error) {
	r.s.mu.Lock()
	hook := r.s.beforeMessageWrite
	r.s.beforeMessageWrite = nil
	r.s.mu.Unlock()
	if hook != nil {
		hook()
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.messages {
		if m.Id != id || m.DeletedAt != nil {
			continue
		}
		for k, v := range fields {
			switch k {
			case "content":
				content := v.(string)
				m.Content = &content
			case "edited_at":
				at := v.(time.Time)
				m.EditedAt = &at
			case "is_read":
				m.IsRead = v.(bool)
			default:
				panic("fakeMessages: unexpected column " + k)
			}
		}
		m.Version++
		m.UpdatedAt = time.Now()
		return r.copyWithReactions(m), nil
	}
	return nil, nil
}

func (r fakeMessages) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	for _, m := range r.s.messages {
		if m.Id == id {
			m.DeletedAt = &now
			m.Version++
		}
	}
	return nil
}

func (r fakeMessages) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Message, error) {
	res, _ := r.FindAll(ctx, specs...)
	if len(res) > 0 {
		return res[0], nil
	}
	return nil, nil
}

func (r fakeMessages) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Message
	for _, m := range r.s.messages {
		if m.DeletedAt == nil && matchAll(m, specs) {
			out = append(out, r.copyWithReactions(m))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (r fakeMessages) BumpVersion(ctx context.Context, id uuid.UUID) (*entity.Message, error) {
	return r.UpdateFields(ctx, id, nil)
}

type fakeReactions struct{ s *fakeStore }

func (r fakeReactions) Create(ctx context.Context, reaction *entity.Reaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *reaction
	r.s.reactions = append(r.s.reactions, &cp)
	return nil
}

func (r fakeReactions) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.reactions[:0]
	for _, reaction := range r.s.reactions {
		if reaction.Id != id {
			kept = append(kept, reaction)
		}
	}
	r.s.reactions = kept
	return nil
}

func (r fakeReactions) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Reaction, error) {
	res, _ := r.FindAll(ctx, specs...)
	if len(res) > 0 {
		return res[0], nil
	}
	return nil, nil
}

func (r fakeReactions) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Reaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Reaction
	for _, reaction := range r.s.reactions {
		if matchAll(reaction, specs) {
			cp := *reaction
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Collaborators

type recordingFeed struct {
	mu      sync.Mutex
	changes []events.RowChange
}

func (f *recordingFeed) Emit(ctx context.Context, table string, typ events.ChangeType, record, old interface{}) {
	change, err := events.NewRowChange(table, typ, record, old)
	if err != nil {
		panic(err)
	}
	f.mu.Lock()
	f.changes = append(f.changes, change)
	f.mu.Unlock()
}

func (f *recordingFeed) of(table string, typ events.ChangeType) []events.RowChange {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []events.RowChange
	for _, c := range f.changes {
		if c.Table == table && c.Type == typ {
			out = append(out, c)
		}
	}
	return out
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *recordingMailer) record(kind, to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, kind+":"+to)
	return nil
}

func (m *recordingMailer) SendWelcome(to, name string) error { return m.record("welcome", to) }
func (m *recordingMailer) SendSessionAccepted(to, student, mentor, link string) error {
	return m.record("accepted", to)
}
func (m *recordingMailer) SendGoodbye(to, name string) error { return m.record("goodbye", to) }

func (m *recordingMailer) has(entry string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sent {
		if s == entry {
			return true
		}
	}
	return false
}

type recordingPublisher struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (p *recordingPublisher) Publish(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return nil
}

type fakeStorage struct{}

func (fakeStorage) Save(bucket storage.Bucket, owner uuid.UUID, file *multipart.FileHeader) (*storage.StoredFile, error) {
	return &storage.StoredFile{URL: "/uploads/" + string(bucket) + "/" + owner.String() + "_" + file.Filename, Size: file.Size}, nil
}

func (fakeStorage) SaveReader(bucket storage.Bucket, owner uuid.UUID, filename string, r io.Reader) (*storage.StoredFile, error) {
	return &storage.StoredFile{URL: "/uploads/" + string(bucket) + "/" + owner.String() + "_" + filename}, nil
}

var nopLog logger.ILogger = logger.NewNopLogger()

// Fixtures

func (s *fakeStore) addUser(role entity.UserRole, username string) *entity.User {
	now := time.Now()
	u := &entity.User{
		Id:          uuid.New(),
		Email:       username + "@example.edu",
		FullName:    username,
		Username:    username,
		Role:        role,
		CurrentMode: role.DefaultMode(),
		Status:      entity.UserStatusActive,
		Expertise:   []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.mu.Lock()
	s.users = append(s.users, copyUser(u))
	s.mu.Unlock()
	return u
}

func (s *fakeStore) addSession(studentId uuid.UUID, mentorId *uuid.UUID, status entity.SessionStatus) *entity.AdviceSession {
	now := time.Now()
	q := &entity.Question{Id: uuid.New(), StudentId: studentId, Title: "How do I settle in?", IsPublic: mentorId == nil, Status: entity.QuestionStatusOpen, CreatedAt: now, UpdatedAt: now}
	session := &entity.AdviceSession{Id: uuid.New(), QuestionId: q.Id, StudentId: studentId, MentorId: mentorId, Status: status, CreatedAt: now, UpdatedAt: now}
	s.mu.Lock()
	s.questions = append(s.questions, q)
	cp := *session
	s.sessions = append(s.sessions, &cp)
	s.mu.Unlock()
	return session
}

func (s *fakeStore) user(id uuid.UUID) *entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Id == id {
			return copyUser(u)
		}
	}
	return nil
}

func (s *fakeStore) session(id uuid.UUID) *entity.AdviceSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range s.sessions {
		if session.Id == id {
			cp := *session
			return &cp
		}
	}
	return nil
}

func (s *fakeStore) liveMessages(sessionId uuid.UUID) []*entity.Message {
	res, _ := fakeMessages{s}.FindAll(context.Background(), specification.BySessionID{SessionID: sessionId})
	return res
}
