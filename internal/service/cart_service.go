package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"teashop/internal/model"
	"teashop/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// --- DTOs ---

type AddCartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// CartResponse is a cart together with its live totals.
type CartResponse struct {
	Cart   *model.Cart `json:"cart"`
	Totals CartTotals  `json:"totals"`
}

// CartService mutates the per-user cart and computes its live totals.
// Quantities below one on update remove the line; that is deliberate policy,
// not an accident of validation.
type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*CartResponse, error)
	AddItem(ctx context.Context, userID uuid.UUID, req AddCartItemRequest) (*CartResponse, error)
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, req UpdateCartItemRequest) (*CartResponse, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartResponse, error)
	Totals(ctx context.Context, cart *model.Cart, asOf time.Time) (CartTotals, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	pricing     PricingService
	txManager   repository.TransactionManager
	logger      zerolog.Logger
}

func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	pricing PricingService,
	txManager repository.TransactionManager,
	logger zerolog.Logger,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		pricing:     pricing,
		txManager:   txManager,
		logger:      logger,
	}
}

func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*CartResponse, error) {
	if _, err := s.cartRepo.GetOrCreateByUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}
	return s.loadResponse(ctx, userID)
}

func (s *cartService) AddItem(ctx context.Context, userID uuid.UUID, req AddCartItemRequest) (*CartResponse, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, &model.ValidationError{Field: "product_id", Message: "must be a valid uuid"}
	}
	if req.Quantity < 1 {
		return nil, &model.ValidationError{Field: "quantity", Message: "must be at least 1"}
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, err := s.productRepo.FindByID(txCtx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.ErrNotFound
			}
			return fmt.Errorf("find product: %w", err)
		}
		if !product.IsAvailable {
			return model.ErrNotFound
		}

		cart, err := s.cartRepo.GetOrCreateByUser(txCtx, userID)
		if err != nil {
			return fmt.Errorf("get or create cart: %w", err)
		}

		// Requested quantity counts on top of whatever is already in the cart.
		existing := 0
		full, err := s.cartRepo.FindByUserWithItems(txCtx, userID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("load cart items: %w", err)
		}
		if full != nil {
			for i := range full.Items {
				if full.Items[i].ProductID == productID {
					existing = full.Items[i].Quantity
				}
			}
		}
		if existing+req.Quantity > product.Stock {
			return fmt.Errorf("%w: %s has %d in stock, %d already in cart",
				model.ErrOutOfStock, product.Tea.Name, product.Stock, existing)
		}

		return s.cartRepo.AddItem(txCtx, cart.ID, productID, req.Quantity)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", userID.String()).Str("product_id", req.ProductID).
		Int("quantity", req.Quantity).Msg("cart item added")

	return s.loadResponse(ctx, userID)
}

// UpdateItem sets an item's quantity. A quantity below one removes the line.
func (s *cartService) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, req UpdateCartItemRequest) (*CartResponse, error) {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		item, err := s.ownedItem(txCtx, userID, itemID)
		if err != nil {
			return err
		}

		if req.Quantity < 1 {
			return s.cartRepo.DeleteItem(txCtx, itemID)
		}
		if req.Quantity > item.Product.Stock {
			return fmt.Errorf("%w: only %d in stock", model.ErrOutOfStock, item.Product.Stock)
		}
		return s.cartRepo.UpdateItemQuantity(txCtx, itemID, req.Quantity)
	})
	if err != nil {
		return nil, err
	}
	return s.loadResponse(ctx, userID)
}

// RemoveItem deletes a line; removing an already-removed item succeeds.
func (s *cartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartResponse, error) {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		_, err := s.ownedItem(txCtx, userID, itemID)
		if errors.Is(err, model.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return s.cartRepo.DeleteItem(txCtx, itemID)
	})
	if err != nil {
		return nil, err
	}
	return s.loadResponse(ctx, userID)
}

// Totals computes the live breakdown via the pricing rules in effect at asOf.
func (s *cartService) Totals(ctx context.Context, cart *model.Cart, asOf time.Time) (CartTotals, error) {
	subtotal := cart.Subtotal()

	rate, err := s.pricing.CurrentTaxRate(ctx, asOf)
	if err != nil {
		return CartTotals{}, err
	}
	shipping, err := s.pricing.ShippingFeeFor(ctx, subtotal, asOf)
	if err != nil {
		return CartTotals{}, err
	}

	tax := model.TaxAmount(subtotal, rate)
	return CartTotals{
		Subtotal:    subtotal,
		TaxRate:     rate,
		TaxAmount:   tax,
		ShippingFee: shipping,
		TotalAmount: subtotal + tax + shipping,
		ItemCount:   cart.ItemCount(),
	}, nil
}

// ownedItem loads a cart item and checks it belongs to the caller's cart.
func (s *cartService) ownedItem(ctx context.Context, userID, itemID uuid.UUID) (*model.CartItem, error) {
	item, err := s.cartRepo.FindItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("find cart item: %w", err)
	}

	cart, err := s.cartRepo.GetOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if item.CartID != cart.ID {
		return nil, model.ErrNotFound
	}
	return item, nil
}

func (s *cartService) loadResponse(ctx context.Context, userID uuid.UUID) (*CartResponse, error) {
	cart, err := s.cartRepo.FindByUserWithItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	totals, err := s.Totals(ctx, cart, time.Now())
	if err != nil {
		return nil, err
	}
	return &CartResponse{Cart: cart, Totals: totals}, nil
}
