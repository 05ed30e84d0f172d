package unitofwork

import (
	"context"

	"wizzmo-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	CategoryRepository() contract.CategoryRepository

	QuestionRepository() contract.QuestionRepository
	CommentRepository() contract.CommentRepository
	VoteRepository() contract.VoteRepository
	FavoriteRepository() contract.FavoriteRepository

	AdviceSessionRepository() contract.AdviceSessionRepository
	MessageRepository() contract.MessageRepository
	ReactionRepository() contract.ReactionRepository
}
