package service

import (
	"wizzmo-be/internal/dto"
	"wizzmo-be/internal/entity"

	"github.com/google/uuid"
)

func toUserResponse(u *entity.User, includeEmail bool) dto.UserResponse {
	res := dto.UserResponse{
		Id:               u.Id,
		FullName:         u.FullName,
		Username:         u.Username,
		Role:             string(u.Role),
		CurrentMode:      string(u.CurrentMode),
		AvatarURL:        u.AvatarURL,
		Bio:              u.Bio,
		University:       u.University,
		Expertise:        u.Expertise,
		SessionsResolved: u.SessionsResolved,
		RatingAverage:    u.RatingAverage,
		RatingCount:      u.RatingCount,
		QuestionsAsked:   u.QuestionsAsked,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
	if res.Expertise == nil {
		res.Expertise = []string{}
	}
	if includeEmail {
		res.Email = u.Email
	}
	return res
}

func toAuthorSummary(u *entity.User) *dto.AuthorSummary {
	if u == nil {
		return nil
	}
	return &dto.AuthorSummary{Id: u.Id, Username: u.Username, FullName: u.FullName, AvatarURL: u.AvatarURL}
}

func toCategoryResponse(c *entity.Category) dto.CategoryResponse {
	return dto.CategoryResponse{Id: c.Id, Name: c.Name, Slug: c.Slug, Emoji: c.Emoji, SortOrder: c.SortOrder}
}

// toQuestionResponse hides the author of anonymous questions from everyone but the author.
func toQuestionResponse(q *entity.Question, author *entity.User, viewer uuid.UUID, myVote *entity.VoteType) dto.QuestionResponse {
	res := dto.QuestionResponse{
		Id:           q.Id,
		CategoryId:   q.CategoryId,
		Title:        q.Title,
		Body:         q.Body,
		IsPublic:     q.IsPublic,
		IsAnonymous:  q.IsAnonymous,
		Status:       string(q.Status),
		Upvotes:      q.Upvotes,
		Downvotes:    q.Downvotes,
		CommentCount: q.CommentCount,
		CreatedAt:    q.CreatedAt,
		UpdatedAt:    q.UpdatedAt,
	}
	if !q.IsAnonymous || q.StudentId == viewer {
		id := q.StudentId
		res.StudentId = &id
		res.Author = toAuthorSummary(author)
	}
	if myVote != nil {
		v := string(*myVote)
		res.MyVote = &v
	}
	return res
}

func toCommentResponse(c *entity.Comment, author *entity.User) dto.CommentResponse {
	return dto.CommentResponse{
		Id:         c.Id,
		QuestionId: c.QuestionId,
		AuthorId:   c.AuthorId,
		Author:     toAuthorSummary(author),
		Body:       c.Body,
		CreatedAt:  c.CreatedAt,
	}
}

func toSessionResponse(s *entity.AdviceSession) dto.SessionResponse {
	return dto.SessionResponse{
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

func toMessageResponse(m *entity.Message) dto.MessageResponse {
	res := dto.MessageResponse{
		Id:            m.Id,
		SessionId:     m.SessionId,
		SenderId:      m.SenderId,
		Seq:           m.Seq,
		Content:       m.Content,
		AudioURL:      m.AudioURL,
		AudioDuration: m.AudioDuration,
		ImageURL:      m.ImageURL,
		IsRead:        m.IsRead,
		ReplyToId:     m.ReplyToId,
		Version:       m.Version,
		EditedAt:      m.EditedAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		DeletedAt:     m.DeletedAt,
		Reactions:     make([]dto.ReactionResponse, 0, len(m.Reactions)),
	}
	for _, r := range m.Reactions {
		res.Reactions = append(res.Reactions, dto.ReactionResponse{Id: r.Id, UserId: r.UserId, Emoji: r.Emoji, CreatedAt: r.CreatedAt})
	}
	return res
}
