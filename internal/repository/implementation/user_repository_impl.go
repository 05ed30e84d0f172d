package implementation

import (
	"context"
	"errors"

	"wizzmo-be/internal/entity"
	"wizzmo-be/internal/mapper"
	"wizzmo-be/internal/model"
	"wizzmo-be/internal/repository/contract"
	"wizzmo-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UserMapper
}

func NewUserRepository(db *gorm.DB) contract.UserRepository {
	return &UserRepositoryImpl{
		db:     db,
		mapper: mapper.NewUserMapper(),
	}
}

func applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *entity.User) error {
	modelUser := r.mapper.ToModel(user)
	if err := r.db.WithContext(ctx).Create(modelUser).Error; err != nil {
		return err
	}
	*user = *r.mapper.ToEntity(modelUser)
	return nil
}

func (r *UserRepositoryImpl) Update(ctx context.Context, user *entity.User) error {
	modelUser := r.mapper.ToModel(user)
	if err := r.db.WithContext(ctx).Save(modelUser).Error; err != nil {
		return err
	}
	*user = *r.mapper.ToEntity(modelUser)
	return nil
}

// Delete soft-deletes the user and frees the email and username for reuse.
func (r *UserRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	tag := id.String()
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     string(entity.UserStatusDeleted),
			"email":      "deleted+" + tag + "@wizzmo.invalid",
			"username":   "deleted_" + tag[:8] + tag[9:13],
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *UserRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	var modelUser model.User
	query := applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.First(&modelUser).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return r.mapper.ToEntity(&modelUser), nil
}

// FindOneUnscoped finds a user including soft-deleted ones (ignores deleted_at filter)
func (r *UserRepositoryImpl) FindOneUnscoped(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	var modelUser model.User
	query := applySpecifications(r.db.WithContext(ctx).Unscoped(), specs...)

	if err := query.First(&modelUser).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return r.mapper.ToEntity(&modelUser), nil
}

func (r *UserRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error) {
	var modelUsers []*model.User
	query := applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.Find(&modelUsers).Error; err != nil {
		return nil, err
	}

	return r.mapper.ToEntities(modelUsers), nil
}

func (r *UserRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.User{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Token Implementations

func (r *UserRepositoryImpl) CreateRefreshToken(ctx context.Context, token *entity.UserRefreshToken) error {
	m := r.mapper.RefreshTokenToModel(token)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	token.Id = m.Id
	return nil
}

func (r *UserRepositoryImpl) FindRefreshToken(ctx context.Context, specs ...specification.Specification) (*entity.UserRefreshToken, error) {
	var m model.UserRefreshToken
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.RefreshTokenToEntity(&m), nil
}

func (r *UserRepositoryImpl) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	return r.db.WithContext(ctx).Model(&model.UserRefreshToken{}).Where("token_hash = ?", tokenHash).Update("revoked", true).Error
}

func (r *UserRepositoryImpl) RevokeAllRefreshTokens(ctx context.Context, userId uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.UserRefreshToken{}).Where("user_id = ?", userId).Update("revoked", true).Error
}

// Provider

func (r *UserRepositoryImpl) SaveUserProvider(ctx context.Context, provider *entity.UserProvider) error {
	m := r.mapper.ProviderToModel(provider)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider_name"}, {Name: "provider_user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"avatar_url"}),
	}).Create(m).Error
}

func (r *UserRepositoryImpl) FindUserProvider(ctx context.Context, specs ...specification.Specification) (*entity.UserProvider, error) {
	var m model.UserProvider
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ProviderToEntity(&m), nil
}

// Business Specific

func (r *UserRepositoryImpl) UpdateMode(ctx context.Context, id uuid.UUID, mode entity.UserMode) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("current_mode", string(mode)).Error
}

func (r *UserRepositoryImpl) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("avatar_url", avatarURL).Error
}

func (r *UserRepositoryImpl) UpdateStats(ctx context.Context, id uuid.UUID, stats contract.UserStats) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"sessions_resolved": stats.SessionsResolved,
			"rating_average":    stats.RatingAverage,
			"rating_count":      stats.RatingCount,
		}).Error
}

func (r *UserRepositoryImpl) IncrementQuestionsAsked(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		UpdateColumn("questions_asked", gorm.Expr("questions_asked + 1")).Error
}
