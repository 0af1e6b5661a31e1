package repository

import (
	"context"
	"time"

	"teashop/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TeaRepository covers the browsable catalog: published teas, favorites and
// reviews.
type TeaRepository interface {
	ListPublished(ctx context.Context, now time.Time, page, limit int) ([]model.Tea, int64, error)
	FindPublishedByID(ctx context.Context, id uuid.UUID, now time.Time) (*model.Tea, error)
	CountFavorites(ctx context.Context, teaID uuid.UUID) (int64, error)
	IsFavorited(ctx context.Context, userID, teaID uuid.UUID) (bool, error)
	AddFavorite(ctx context.Context, userID, teaID uuid.UUID) error
	RemoveFavorite(ctx context.Context, userID, teaID uuid.UUID) error
	CreateReview(ctx context.Context, review *model.TeaReview) error
	ListReviews(ctx context.Context, teaID uuid.UUID) ([]model.TeaReview, error)
	HasReviewed(ctx context.Context, userID, teaID uuid.UUID) (bool, error)
}

type teaRepository struct {
	db *gorm.DB
}

func NewTeaRepository(db *gorm.DB) TeaRepository {
	return &teaRepository{db: db}
}

func (r *teaRepository) ListPublished(ctx context.Context, now time.Time, page, limit int) ([]model.Tea, int64, error) {
	var teas []model.Tea
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Tea{}).
		Where("published_at IS NOT NULL AND published_at < ?", now).
		Where("EXISTS (SELECT 1 FROM tea_products WHERE tea_products.tea_id = teas.id AND tea_products.is_available)")

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("Products", "is_available").
		Order("published_at DESC").
		Offset(offset).Limit(limit).
		Find(&teas).Error; err != nil {
		return nil, 0, err
	}

	return teas, total, nil
}

func (r *teaRepository) FindPublishedByID(ctx context.Context, id uuid.UUID, now time.Time) (*model.Tea, error) {
	var tea model.Tea
	if err := GetDB(ctx, r.db).
		Preload("Products", "is_available").
		Where("id = ? AND published_at IS NOT NULL AND published_at < ?", id, now).
		First(&tea).Error; err != nil {
		return nil, err
	}
	return &tea, nil
}

func (r *teaRepository) CountFavorites(ctx context.Context, teaID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.FavoriteTea{}).Where("tea_id = ?", teaID).Count(&count).Error
	return count, err
}

func (r *teaRepository) IsFavorited(ctx context.Context, userID, teaID uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.FavoriteTea{}).
		Where("user_id = ? AND tea_id = ?", userID, teaID).Count(&count).Error
	return count > 0, err
}

// AddFavorite is an idempotent insert; the (user, tea) unique index absorbs
// duplicates instead of a racy check-then-insert.
func (r *teaRepository) AddFavorite(ctx context.Context, userID, teaID uuid.UUID) error {
	fav := model.FavoriteTea{UserID: userID, TeaID: teaID}
	return GetDB(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "tea_id"}},
			DoNothing: true,
		}).
		Create(&fav).Error
}

func (r *teaRepository) RemoveFavorite(ctx context.Context, userID, teaID uuid.UUID) error {
	return GetDB(ctx, r.db).
		Where("user_id = ? AND tea_id = ?", userID, teaID).
		Delete(&model.FavoriteTea{}).Error
}

func (r *teaRepository) CreateReview(ctx context.Context, review *model.TeaReview) error {
	return GetDB(ctx, r.db).Create(review).Error
}

func (r *teaRepository) ListReviews(ctx context.Context, teaID uuid.UUID) ([]model.TeaReview, error) {
	var reviews []model.TeaReview
	if err := GetDB(ctx, r.db).
		Preload("User").
		Where("tea_id = ?", teaID).
		Order("created_at DESC").
		Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *teaRepository) HasReviewed(ctx context.Context, userID, teaID uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.TeaReview{}).
		Where("user_id = ? AND tea_id = ?", userID, teaID).Count(&count).Error
	return count > 0, err
}
