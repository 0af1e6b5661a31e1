package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"teashop/internal/model"
	"teashop/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Content string `json:"content"`
}

// TeaSummary is a catalog listing entry with viewer-specific annotations.
type TeaSummary struct {
	Tea            model.Tea `json:"tea"`
	FavoritesCount int64     `json:"favorites_count"`
	IsFavorited    bool      `json:"is_favorited"`
}

// TeaDetail adds priced products and reviews to the summary.
type TeaDetail struct {
	TeaSummary
	Products       []PricedProduct   `json:"products"`
	Reviews        []model.TeaReview `json:"reviews"`
	ViewerReviewed bool              `json:"viewer_reviewed"`
}

// PricedProduct pairs a product with its tax-inclusive price under the
// current tax rate.
type PricedProduct struct {
	Product      model.TeaProduct `json:"product"`
	PriceWithTax int              `json:"price_with_tax"`
}

// FavoriteResult reports the state after a favorite toggle.
type FavoriteResult struct {
	IsFavorited    bool  `json:"is_favorited"`
	FavoritesCount int64 `json:"favorites_count"`
}

// CatalogService serves the browsable side of the shop: published teas,
// favorites and reviews. Viewer annotations take a nil-able user id since
// listings are public.
type CatalogService interface {
	ListPublished(ctx context.Context, viewer *uuid.UUID, page, limit int) ([]TeaSummary, int64, error)
	GetTea(ctx context.Context, teaID uuid.UUID, viewer *uuid.UUID) (*TeaDetail, error)
	AddFavorite(ctx context.Context, userID, teaID uuid.UUID) (*FavoriteResult, error)
	RemoveFavorite(ctx context.Context, userID, teaID uuid.UUID) (*FavoriteResult, error)
	AddReview(ctx context.Context, userID, teaID uuid.UUID, req CreateReviewRequest) (*model.TeaReview, error)
}

type catalogService struct {
	teaRepo repository.TeaRepository
	pricing PricingService
}

func NewCatalogService(teaRepo repository.TeaRepository, pricing PricingService) CatalogService {
	return &catalogService{teaRepo: teaRepo, pricing: pricing}
}

func (s *catalogService) ListPublished(ctx context.Context, viewer *uuid.UUID, page, limit int) ([]TeaSummary, int64, error) {
	teas, total, err := s.teaRepo.ListPublished(ctx, time.Now(), page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list teas: %w", err)
	}

	summaries := make([]TeaSummary, 0, len(teas))
	for i := range teas {
		summary, err := s.annotate(ctx, &teas[i], viewer)
		if err != nil {
			return nil, 0, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, total, nil
}

func (s *catalogService) GetTea(ctx context.Context, teaID uuid.UUID, viewer *uuid.UUID) (*TeaDetail, error) {
	tea, err := s.teaRepo.FindPublishedByID(ctx, teaID, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("find tea: %w", err)
	}

	summary, err := s.annotate(ctx, tea, viewer)
	if err != nil {
		return nil, err
	}

	rate, err := s.pricing.CurrentTaxRate(ctx, time.Now())
	if err != nil {
		return nil, err
	}
	priced := make([]PricedProduct, 0, len(tea.Products))
	for i := range tea.Products {
		priced = append(priced, PricedProduct{
			Product:      tea.Products[i],
			PriceWithTax: tea.Products[i].PriceWithTax(rate),
		})
	}

	reviews, err := s.teaRepo.ListReviews(ctx, teaID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	detail := &TeaDetail{TeaSummary: summary, Products: priced, Reviews: reviews}
	if viewer != nil {
		reviewed, err := s.teaRepo.HasReviewed(ctx, *viewer, teaID)
		if err != nil {
			return nil, fmt.Errorf("check review: %w", err)
		}
		detail.ViewerReviewed = reviewed
	}
	return detail, nil
}

func (s *catalogService) AddFavorite(ctx context.Context, userID, teaID uuid.UUID) (*FavoriteResult, error) {
	if _, err := s.teaRepo.FindPublishedByID(ctx, teaID, time.Now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("find tea: %w", err)
	}

	if err := s.teaRepo.AddFavorite(ctx, userID, teaID); err != nil {
		return nil, fmt.Errorf("add favorite: %w", err)
	}
	count, err := s.teaRepo.CountFavorites(ctx, teaID)
	if err != nil {
		return nil, fmt.Errorf("count favorites: %w", err)
	}
	return &FavoriteResult{IsFavorited: true, FavoritesCount: count}, nil
}

func (s *catalogService) RemoveFavorite(ctx context.Context, userID, teaID uuid.UUID) (*FavoriteResult, error) {
	if err := s.teaRepo.RemoveFavorite(ctx, userID, teaID); err != nil {
		return nil, fmt.Errorf("remove favorite: %w", err)
	}
	count, err := s.teaRepo.CountFavorites(ctx, teaID)
	if err != nil {
		return nil, fmt.Errorf("count favorites: %w", err)
	}
	return &FavoriteResult{IsFavorited: false, FavoritesCount: count}, nil
}

// AddReview records one review per user per tea; the unique index backs the
// rule, the pre-check only produces a friendlier error.
func (s *catalogService) AddReview(ctx context.Context, userID, teaID uuid.UUID, req CreateReviewRequest) (*model.TeaReview, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, &model.ValidationError{Field: "rating", Message: "must be between 1 and 5"}
	}
	if _, err := s.teaRepo.FindPublishedByID(ctx, teaID, time.Now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("find tea: %w", err)
	}

	review := &model.TeaReview{
		UserID:  userID,
		TeaID:   teaID,
		Rating:  req.Rating,
		Content: req.Content,
	}
	if err := s.teaRepo.CreateReview(ctx, review); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &model.ValidationError{Field: "rating", Message: "you have already reviewed this tea"}
		}
		return nil, fmt.Errorf("create review: %w", err)
	}
	return review, nil
}

func (s *catalogService) annotate(ctx context.Context, tea *model.Tea, viewer *uuid.UUID) (TeaSummary, error) {
	count, err := s.teaRepo.CountFavorites(ctx, tea.ID)
	if err != nil {
		return TeaSummary{}, fmt.Errorf("count favorites: %w", err)
	}
	summary := TeaSummary{Tea: *tea, FavoritesCount: count}
	if viewer != nil {
		favorited, err := s.teaRepo.IsFavorited(ctx, *viewer, tea.ID)
		if err != nil {
			return TeaSummary{}, fmt.Errorf("check favorite: %w", err)
		}
		summary.IsFavorited = favorited
	}
	return summary, nil
}
