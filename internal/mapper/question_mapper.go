package mapper

import (
	"wizzmo-be/internal/entity"
	"wizzmo-be/internal/model"
)

type QuestionMapper struct{}

func NewQuestionMapper() *QuestionMapper {
	return &QuestionMapper{}
}

func (m *QuestionMapper) ToEntity(q *model.Question) *entity.Question {
	if q == nil {
		return nil
	}
	return &entity.Question{
		Id:           q.Id,
		StudentId:    q.StudentId,
		CategoryId:   q.CategoryId,
		Title:        q.Title,
		Body:         q.Body,
		IsPublic:     q.IsPublic,
		IsAnonymous:  q.IsAnonymous,
		Status:       entity.QuestionStatus(q.Status),
		Upvotes:      q.Upvotes,
		Downvotes:    q.Downvotes,
		CommentCount: q.CommentCount,
		CreatedAt:    q.CreatedAt,
		UpdatedAt:    q.UpdatedAt,
	}
}

func (m *QuestionMapper) ToModel(q *entity.Question) *model.Question {
	if q == nil {
		return nil
	}
	return &model.Question{
		Id:           q.Id,
		StudentId:    q.StudentId,
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
}

func (m *QuestionMapper) CommentToEntity(c *model.Comment) *entity.Comment {
	if c == nil {
		return nil
	}
	return &entity.Comment{
		Id:         c.Id,
		QuestionId: c.QuestionId,
		AuthorId:   c.AuthorId,
		Body:       c.Body,
		CreatedAt:  c.CreatedAt,
	}
}

func (m *QuestionMapper) CommentToModel(c *entity.Comment) *model.Comment {
	if c == nil {
		return nil
	}
	return &model.Comment{
		Id:         c.Id,
		QuestionId: c.QuestionId,
		AuthorId:   c.AuthorId,
		Body:       c.Body,
		CreatedAt:  c.CreatedAt,
	}
}

func (m *QuestionMapper) VoteToEntity(v *model.Vote) *entity.Vote {
	if v == nil {
		return nil
	}
	return &entity.Vote{
		Id:         v.Id,
		QuestionId: v.QuestionId,
		UserId:     v.UserId,
		VoteType:   entity.VoteType(v.VoteType),
		CreatedAt:  v.CreatedAt,
		UpdatedAt:  v.UpdatedAt,
	}
}

func (m *QuestionMapper) VoteToModel(v *entity.Vote) *model.Vote {
	if v == nil {
		return nil
	}
	return &model.Vote{
		Id:         v.Id,
		QuestionId: v.QuestionId,
		UserId:     v.UserId,
		VoteType:   string(v.VoteType),
		CreatedAt:  v.CreatedAt,
		UpdatedAt:  v.UpdatedAt,
	}
}

func (m *QuestionMapper) FavoriteToEntity(f *model.Favorite) *entity.Favorite {
	if f == nil {
		return nil
	}
	return &entity.Favorite{Id: f.Id, StudentId: f.StudentId, MentorId: f.MentorId, CreatedAt: f.CreatedAt}
}

func (m *QuestionMapper) FavoriteToModel(f *entity.Favorite) *model.Favorite {
	if f == nil {
		return nil
	}
	return &model.Favorite{Id: f.Id, StudentId: f.StudentId, MentorId: f.MentorId, CreatedAt: f.CreatedAt}
}
