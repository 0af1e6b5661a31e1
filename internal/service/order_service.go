package service

import (
	"context"
	"errors"
	"fmt"

	"teashop/internal/model"
	"teashop/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// --- DTOs ---

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// OrderService covers order history for customers and fulfillment status
// moves for staff. Creation and payment live in CheckoutService.
type OrderService interface {
	ListOrders(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Order, int64, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error)
	AdvanceStatus(ctx context.Context, orderID uuid.UUID, req UpdateOrderStatusRequest) (*model.Order, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
	logger    zerolog.Logger
}

func NewOrderService(orderRepo repository.OrderRepository, logger zerolog.Logger) OrderService {
	return &orderService{orderRepo: orderRepo, logger: logger}
}

func (s *orderService) ListOrders(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Order, int64, error) {
	orders, total, err := s.orderRepo.ListByUser(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

func (s *orderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return order, nil
}

// AdvanceStatus moves an order one step through the fulfillment sequence.
// The transition is applied as a conditional update on the status the caller
// saw, so two staff members racing over the same order cannot double-apply.
func (s *orderService) AdvanceStatus(ctx context.Context, orderID uuid.UUID, req UpdateOrderStatusRequest) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}

	if !model.CanTransition(order.Status, req.Status) {
		return nil, &model.ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("cannot move from %s to %s", order.Status, req.Status),
		}
	}

	applied, err := s.orderRepo.UpdateStatusIf(ctx, orderID, order.Status, req.Status, nil)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if !applied {
		return nil, &model.ValidationError{Field: "status", Message: "order status changed concurrently, reload and retry"}
	}

	s.logger.Info().Str("order_id", orderID.String()).
		Str("from", order.Status).Str("to", req.Status).
		Msg("order status advanced")

	return s.orderRepo.FindByID(ctx, orderID)
}
