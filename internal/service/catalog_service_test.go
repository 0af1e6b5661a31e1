package service

import (
	"context"
	"testing"
	"time"

	"teashop/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func publishedTea(name string) *model.Tea {
	published := time.Now().Add(-time.Hour)
	return &model.Tea{
		ID:          uuid.New(),
		Name:        name,
		SteamType:   model.SteamTypeDeep,
		PublishedAt: &published,
		Products: []model.TeaProduct{
			{ID: uuid.New(), Weight: 100, Price: 1200, Stock: 10, IsAvailable: true},
		},
	}
}

func TestListPublishedHidesUnpublished(t *testing.T) {
	visible := publishedTea("Sencha")
	future := time.Now().Add(time.Hour)
	scheduled := &model.Tea{ID: uuid.New(), Name: "Shincha", PublishedAt: &future}
	draft := &model.Tea{ID: uuid.New(), Name: "Draft"}

	teaRepo := newFakeTeaRepo(visible, scheduled, draft)
	svc := NewCatalogService(teaRepo, newTestPricing())

	teas, total, err := svc.ListPublished(context.Background(), nil, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, teas, 1)
	assert.Equal(t, "Sencha", teas[0].Tea.Name)
	assert.False(t, teas[0].IsFavorited, "anonymous viewers get no favorite flag")
}

func TestGetTeaAnnotatesViewer(t *testing.T) {
	tea := publishedTea("Sencha")
	teaRepo := newFakeTeaRepo(tea)
	svc := NewCatalogService(teaRepo, newTestPricing())
	userID := uuid.New()

	require.NoError(t, teaRepo.AddFavorite(context.Background(), userID, tea.ID))

	detail, err := svc.GetTea(context.Background(), tea.ID, &userID)
	require.NoError(t, err)
	assert.True(t, detail.IsFavorited)
	assert.Equal(t, int64(1), detail.FavoritesCount)
	require.Len(t, detail.Products, 1)
	assert.Equal(t, 1320, detail.Products[0].PriceWithTax, "default 10% applied")

	other := uuid.New()
	detail, err = svc.GetTea(context.Background(), tea.ID, &other)
	require.NoError(t, err)
	assert.False(t, detail.IsFavorited)
	assert.Equal(t, int64(1), detail.FavoritesCount)
}

func TestGetTeaUnpublished(t *testing.T) {
	draft := &model.Tea{ID: uuid.New(), Name: "Draft"}
	svc := NewCatalogService(newFakeTeaRepo(draft), newTestPricing())

	_, err := svc.GetTea(context.Background(), draft.ID, nil)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestFavoriteToggle(t *testing.T) {
	tea := publishedTea("Sencha")
	svc := NewCatalogService(newFakeTeaRepo(tea), newTestPricing())
	userID := uuid.New()

	result, err := svc.AddFavorite(context.Background(), userID, tea.ID)
	require.NoError(t, err)
	assert.True(t, result.IsFavorited)
	assert.Equal(t, int64(1), result.FavoritesCount)

	// Favoriting twice does not double-count.
	result, err = svc.AddFavorite(context.Background(), userID, tea.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.FavoritesCount)

	result, err = svc.RemoveFavorite(context.Background(), userID, tea.ID)
	require.NoError(t, err)
	assert.False(t, result.IsFavorited)
	assert.Equal(t, int64(0), result.FavoritesCount)

	// Removing again stays at zero.
	result, err = svc.RemoveFavorite(context.Background(), userID, tea.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.FavoritesCount)
}

func TestAddReview(t *testing.T) {
	tea := publishedTea("Sencha")
	svc := NewCatalogService(newFakeTeaRepo(tea), newTestPricing())
	userID := uuid.New()

	review, err := svc.AddReview(context.Background(), userID, tea.ID, CreateReviewRequest{
		Rating: 4, Content: "Fragrant and smooth.",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, review.Rating)
	assert.Equal(t, "★★★★☆", review.Stars())

	// One review per user per tea.
	_, err = svc.AddReview(context.Background(), userID, tea.ID, CreateReviewRequest{Rating: 5})
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)

	// Out-of-range ratings never reach storage.
	_, err = svc.AddReview(context.Background(), uuid.New(), tea.ID, CreateReviewRequest{Rating: 6})
	require.ErrorAs(t, err, &verr)
	_, err = svc.AddReview(context.Background(), uuid.New(), tea.ID, CreateReviewRequest{Rating: 0})
	require.ErrorAs(t, err, &verr)
}

func TestGetTeaListsReviews(t *testing.T) {
	tea := publishedTea("Sencha")
	teaRepo := newFakeTeaRepo(tea)
	svc := NewCatalogService(teaRepo, newTestPricing())
	reviewer := uuid.New()

	_, err := svc.AddReview(context.Background(), reviewer, tea.ID, CreateReviewRequest{Rating: 5})
	require.NoError(t, err)

	detail, err := svc.GetTea(context.Background(), tea.ID, &reviewer)
	require.NoError(t, err)
	require.Len(t, detail.Reviews, 1)
	assert.True(t, detail.ViewerReviewed)

	other := uuid.New()
	detail, err = svc.GetTea(context.Background(), tea.ID, &other)
	require.NoError(t, err)
	assert.False(t, detail.ViewerReviewed)
}
