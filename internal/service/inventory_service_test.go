package service

import (
	"context"
	"testing"

	"teashop/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInventoryFixture(stock int) (InventoryService, *fakeProductRepo, *fakeStockRepo, *model.TeaProduct) {
	product := greenTeaProduct(1200, stock)
	productRepo := newFakeProductRepo(product)
	stockRepo := &fakeStockRepo{}
	svc := NewInventoryService(productRepo, stockRepo, &fakeTxManager{}, zerolog.Nop())
	return svc, productRepo, stockRepo, product
}

func TestAdjustStockRestock(t *testing.T) {
	svc, _, stockRepo, product := newInventoryFixture(3)

	updated, err := svc.AdjustStock(context.Background(), product.ID, AdjustStockRequest{Quantity: 7, Reason: "delivery"})
	require.NoError(t, err)
	assert.Equal(t, 10, updated.Stock)

	require.Len(t, stockRepo.movements, 1)
	m := stockRepo.movements[0]
	assert.Equal(t, model.MovementIn, m.MovementType)
	assert.Equal(t, 7, m.Quantity)
	assert.Equal(t, 10, m.StockAfter)
	assert.Nil(t, m.OrderID, "manual adjustments carry no order")
}

func TestAdjustStockWriteOff(t *testing.T) {
	svc, _, stockRepo, product := newInventoryFixture(5)

	updated, err := svc.AdjustStock(context.Background(), product.ID, AdjustStockRequest{Quantity: -2, Reason: "damaged"})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Stock)

	require.Len(t, stockRepo.movements, 1)
	assert.Equal(t, model.MovementOut, stockRepo.movements[0].MovementType)
	assert.Equal(t, 2, stockRepo.movements[0].Quantity)
}

func TestAdjustStockCannotGoNegative(t *testing.T) {
	svc, _, stockRepo, product := newInventoryFixture(2)

	var verr *model.ValidationError
	_, err := svc.AdjustStock(context.Background(), product.ID, AdjustStockRequest{Quantity: -3})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 2, product.Stock)
	assert.Empty(t, stockRepo.movements)

	_, err = svc.AdjustStock(context.Background(), product.ID, AdjustStockRequest{Quantity: 0})
	require.ErrorAs(t, err, &verr)
}

func TestAdjustStockUnknownProduct(t *testing.T) {
	svc, _, _, _ := newInventoryFixture(2)

	_, err := svc.AdjustStock(context.Background(), uuid.New(), AdjustStockRequest{Quantity: 1})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestListFlagged(t *testing.T) {
	svc, _, stockRepo, product := newInventoryFixture(0)

	orderID := uuid.New()
	stockRepo.movements = []*model.StockMovement{
		{ProductID: product.ID, OrderID: &orderID, MovementType: model.MovementOut, Quantity: 2, Flagged: true},
		{ProductID: product.ID, MovementType: model.MovementIn, Quantity: 5},
	}

	flagged, err := svc.ListFlagged(context.Background())
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	assert.True(t, flagged[0].Flagged)
}
