package service

import (
	"context"
	"strings"
	"time"

	"wizzmo-be/internal/dto"
	"wizzmo-be/internal/entity"
	"wizzmo-be/internal/pkg/apperror"
	"wizzmo-be/internal/pkg/logger"
	"wizzmo-be/internal/repository/scope"
	"wizzmo-be/internal/repository/specification"
	"wizzmo-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

const maxMentorResults = 100

type IMentorService interface {
	// List is mentor discovery: optionally narrowed to a category slug, best rated first.
	List(ctx context.Context, viewerId uuid.UUID, category string) ([]dto.MentorResponse, error)
	// Pass is the mentor_pass procedure.
	Pass(ctx context.Context, mentorId uuid.UUID) (*dto.MentorPassResponse, error)
	AddFavorite(ctx context.Context, studentId, mentorId uuid.UUID) (*dto.FavoriteResponse, error)
	RemoveFavorite(ctx context.Context, studentId, mentorId uuid.UUID) (*dto.FavoriteResponse, error)
	ListFavorites(ctx context.Context, studentId uuid.UUID) ([]dto.MentorResponse, error)
}

type mentorService struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
	now        func() time.Time
}

func NewMentorService(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) IMentorService {
	return &mentorService{uowFactory: uowFactory, logger: log, now: time.Now}
}

func (s *mentorService) List(ctx context.Context, viewerId uuid.UUID, category string) ([]dto.MentorResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	specs := []specification.Specification{
		specification.Mentors{},
		specification.ActiveUsers{},
		specification.ExcludeUser{UserID: viewerId},
	}
	if slug := strings.ToLower(strings.TrimSpace(category)); slug != "" {
		specs = append(specs, specification.WithExpertise{Slug: slug})
	}
	specs = append(specs,
		specification.ScopeFunc(scope.OrderByRating),
		specification.Pagination{Limit: maxMentorResults},
	)

	mentors, err := uow.UserRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	favorites, err := s.favoriteSet(ctx, uow, viewerId)
	if err != nil {
		return nil, err
	}

	res := make([]dto.MentorResponse, 0, len(mentors))
	for _, m := range mentors {
		res = append(res, dto.MentorResponse{UserResponse: toUserResponse(m, false), IsFavorite: favorites[m.Id]})
	}
	return res, nil
}

func (s *mentorService) Pass(ctx context.Context, mentorId uuid.UUID) (*dto.MentorPassResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	mentor, err := s.loadMentor(ctx, uow, mentorId)
	if err != nil {
		return nil, err
	}

	agg, err := uow.AdviceSessionRepository().AggregateForMentor(ctx, mentorId)
	if err != nil {
		return nil, err
	}
	fans, err := uow.FavoriteRepository().FindAll(ctx, specification.ByMentorID{MentorID: mentorId})
	if err != nil {
		return nil, err
	}

	expertise := mentor.Expertise
	if expertise == nil {
		expertise = []string{}
	}
	return &dto.MentorPassResponse{
		MentorId:         mentor.Id,
		Username:         mentor.Username,
		FullName:         mentor.FullName,
		AvatarURL:        mentor.AvatarURL,
		Expertise:        expertise,
		SessionsResolved: agg.SessionsResolved,
		ActiveSessions:   agg.ActiveSessions,
		RatingAverage:    agg.RatingAverage,
		RatingCount:      agg.RatingCount,
		FavoritedBy:      int64(len(fans)),
		MemberSince:      mentor.CreatedAt,
	}, nil
}

// AddFavorite is idempotent.
func (s *mentorService) AddFavorite(ctx context.Context, studentId, mentorId uuid.UUID) (*dto.FavoriteResponse, error) {
	if studentId == mentorId {
		return nil, apperror.Validation("cannot favorite yourself")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := s.loadMentor(ctx, uow, mentorId); err != nil {
		return nil, err
	}

	err := uow.FavoriteRepository().Create(ctx, &entity.Favorite{
		Id: uuid.New(), StudentId: studentId, MentorId: mentorId, CreatedAt: s.now(),
	})
	if err != nil && !apperror.IsDuplicateKey(err) {
		return nil, err
	}
	return &dto.FavoriteResponse{MentorId: mentorId, IsFavorite: true}, nil
}

func (s *mentorService) RemoveFavorite(ctx context.Context, studentId, mentorId uuid.UUID) (*dto.FavoriteResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.FavoriteRepository().Delete(ctx, studentId, mentorId); err != nil {
		return nil, err
	}
	return &dto.FavoriteResponse{MentorId: mentorId, IsFavorite: false}, nil
}

func (s *mentorService) ListFavorites(ctx context.Context, studentId uuid.UUID) ([]dto.MentorResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	favorites, err := uow.FavoriteRepository().FindAll(ctx,
		specification.ByStudentID{StudentID: studentId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(favorites))
	for _, f := range favorites {
		ids = append(ids, f.MentorId)
	}
	mentors, err := usersByID(ctx, uow, ids)
	if err != nil {
		return nil, err
	}

	res := make([]dto.MentorResponse, 0, len(favorites))
	for _, f := range favorites {
		if m, ok := mentors[f.MentorId]; ok {
			res = append(res, dto.MentorResponse{UserResponse: toUserResponse(m, false), IsFavorite: true})
		}
	}
	return res, nil
}

func (s *mentorService) loadMentor(ctx context.Context, uow unitofwork.UnitOfWork, mentorId uuid.UUID) (*entity.User, error) {
	mentor, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: mentorId})
	if err != nil {
		return nil, err
	}
	if mentor == nil || !mentor.IsMentor() {
		return nil, apperror.NotFound("mentor")
	}
	return mentor, nil
}

func (s *mentorService) favoriteSet(ctx context.Context, uow unitofwork.UnitOfWork, studentId uuid.UUID) (map[uuid.UUID]bool, error) {
	favorites, err := uow.FavoriteRepository().FindAll(ctx, specification.ByStudentID{StudentID: studentId})
	if err != nil {
		return nil, err
	}
	set := make(map[uuid.UUID]bool, len(favorites))
	for _, f := range favorites {
		set[f.MentorId] = true
	}
	return set, nil
}
