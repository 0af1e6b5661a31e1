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

type AdjustStockRequest struct {
	Quantity int    `json:"quantity" binding:"required"`
	Reason   string `json:"reason" binding:"max=200"`
}

// InventoryService handles manual stock adjustments and exposes the movement
// ledger. Every change to stock, manual or from fulfillment, leaves a ledger
// row recording the level after the move.
type InventoryService interface {
	AdjustStock(ctx context.Context, productID uuid.UUID, req AdjustStockRequest) (*model.TeaProduct, error)
	ListFlagged(ctx context.Context) ([]model.StockMovement, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.StockMovement, error)
}

type inventoryService struct {
	productRepo  repository.ProductRepository
	movementRepo repository.StockMovementRepository
	txManager    repository.TransactionManager
	logger       zerolog.Logger
}

func NewInventoryService(
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
	txManager repository.TransactionManager,
	logger zerolog.Logger,
) InventoryService {
	return &inventoryService{
		productRepo:  productRepo,
		movementRepo: movementRepo,
		txManager:    txManager,
		logger:       logger,
	}
}

// AdjustStock applies a signed delta to a product's stock under a row lock.
// Positive quantities restock, negative ones write off. Adjustments may not
// take stock below zero.
func (s *inventoryService) AdjustStock(ctx context.Context, productID uuid.UUID, req AdjustStockRequest) (*model.TeaProduct, error) {
	if req.Quantity == 0 {
		return nil, &model.ValidationError{Field: "quantity", Message: "must not be zero"}
	}

	var updated *model.TeaProduct
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, err := s.productRepo.FindByIDForUpdate(txCtx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.ErrNotFound
			}
			return fmt.Errorf("lock product: %w", err)
		}

		newStock := product.Stock + req.Quantity
		if newStock < 0 {
			return &model.ValidationError{
				Field:   "quantity",
				Message: fmt.Sprintf("only %d in stock", product.Stock),
			}
		}
		if err := s.productRepo.SetStock(txCtx, productID, newStock); err != nil {
			return fmt.Errorf("set stock: %w", err)
		}

		movementType := model.MovementIn
		quantity := req.Quantity
		if req.Quantity < 0 {
			movementType = model.MovementOut
			quantity = -req.Quantity
		}
		movement := &model.StockMovement{
			ProductID:    productID,
			MovementType: movementType,
			Quantity:     quantity,
			StockAfter:   newStock,
		}
		if err := s.movementRepo.Create(txCtx, movement); err != nil {
			return fmt.Errorf("record movement: %w", err)
		}

		product.Stock = newStock
		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("product_id", productID.String()).
		Int("delta", req.Quantity).Int("stock_after", updated.Stock).
		Str("reason", req.Reason).
		Msg("stock adjusted")

	return updated, nil
}

func (s *inventoryService) ListFlagged(ctx context.Context) ([]model.StockMovement, error) {
	return s.movementRepo.ListFlagged(ctx)
}

func (s *inventoryService) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.StockMovement, error) {
	return s.movementRepo.ListByOrder(ctx, orderID)
}
