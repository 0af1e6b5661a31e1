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

func TestGetOrderScopedToOwner(t *testing.T) {
	orderRepo := newFakeOrderRepo()
	owner := uuid.New()
	order := &model.Order{ID: uuid.New(), UserID: owner, Status: model.OrderStatusPaid}
	orderRepo.orders[order.ID] = order

	svc := NewOrderService(orderRepo, zerolog.Nop())

	got, err := svc.GetOrder(context.Background(), owner, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = svc.GetOrder(context.Background(), uuid.New(), order.ID)
	assert.ErrorIs(t, err, model.ErrNotFound, "other users cannot see the order")
}

func TestAdvanceStatus(t *testing.T) {
	orderRepo := newFakeOrderRepo()
	order := &model.Order{ID: uuid.New(), UserID: uuid.New(), Status: model.OrderStatusPaid}
	orderRepo.orders[order.ID] = order

	svc := NewOrderService(orderRepo, zerolog.Nop())

	got, err := svc.AdvanceStatus(context.Background(), order.ID, UpdateOrderStatusRequest{Status: model.OrderStatusProcessing})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProcessing, got.Status)
}

func TestAdvanceStatusRejectsIllegalMove(t *testing.T) {
	orderRepo := newFakeOrderRepo()
	order := &model.Order{ID: uuid.New(), UserID: uuid.New(), Status: model.OrderStatusPaid}
	orderRepo.orders[order.ID] = order

	svc := NewOrderService(orderRepo, zerolog.Nop())

	var verr *model.ValidationError
	_, err := svc.AdvanceStatus(context.Background(), order.ID, UpdateOrderStatusRequest{Status: model.OrderStatusDelivered})
	require.ErrorAs(t, err, &verr, "skipping steps is rejected")

	_, err = svc.AdvanceStatus(context.Background(), order.ID, UpdateOrderStatusRequest{Status: model.OrderStatusCancelled})
	require.ErrorAs(t, err, &verr, "paid orders cannot be cancelled")
	assert.Equal(t, model.OrderStatusPaid, order.Status)
}

func TestAdvanceStatusConcurrentMove(t *testing.T) {
	orderRepo := newFakeOrderRepo()
	order := &model.Order{ID: uuid.New(), UserID: uuid.New(), Status: model.OrderStatusPaid}
	orderRepo.orders[order.ID] = order
	orderRepo.statusIfFn = func(uuid.UUID, string, string) (bool, error) {
		return false, nil // someone else moved it first
	}

	svc := NewOrderService(orderRepo, zerolog.Nop())

	var verr *model.ValidationError
	_, err := svc.AdvanceStatus(context.Background(), order.ID, UpdateOrderStatusRequest{Status: model.OrderStatusProcessing})
	require.ErrorAs(t, err, &verr)
}
