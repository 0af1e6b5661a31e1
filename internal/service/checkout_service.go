package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"teashop/internal/model"
	"teashop/internal/payment"
	"teashop/internal/repository"
	ws "teashop/internal/websocket"
	"teashop/pkg/cache"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// --- DTOs ---

type CheckoutRequest struct {
	ShippingName       string `json:"shipping_name" binding:"required,max=100"`
	ShippingPostalCode string `json:"shipping_postal_code" binding:"required"`
	ShippingAddress    string `json:"shipping_address" binding:"required,max=200"`
	ShippingPhone      string `json:"shipping_phone" binding:"required"`
}

// CheckoutResponse carries the created order and the gateway URL the customer
// must be redirected to.
type CheckoutResponse struct {
	Order       *model.Order `json:"order"`
	RedirectURL string       `json:"redirect_url"`
}

var (
	postalCodeRe = regexp.MustCompile(`^\d{3}-?\d{4}$`)
	phoneRe      = regexp.MustCompile(`^0\d{9,10}$`)
)

const orderNumberAttempts = 3

// CheckoutService turns a mutable cart into an immutable order and reconciles
// the outcome of the external payment session. Payment confirmation can fire
// from both the browser return path and the gateway webhook; a guarded status
// transition makes sure fulfillment runs exactly once.
type CheckoutService interface {
	BeginCheckout(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*CheckoutResponse, error)
	CompleteFromReturn(ctx context.Context, userID, orderID uuid.UUID, sessionID string) (*model.Order, error)
	CancelPayment(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type checkoutService struct {
	cartRepo    repository.CartRepository
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	stockRepo   repository.StockMovementRepository
	userRepo    repository.UserRepository
	pricing     PricingService
	gateway     payment.Gateway
	events      cache.Cache // nil disables webhook de-duplication
	txManager   repository.TransactionManager
	hub         *ws.Hub
	baseURL     string
	logger      zerolog.Logger
}

func NewCheckoutService(
	cartRepo repository.CartRepository,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	stockRepo repository.StockMovementRepository,
	userRepo repository.UserRepository,
	pricing PricingService,
	gateway payment.Gateway,
	events cache.Cache,
	txManager repository.TransactionManager,
	hub *ws.Hub,
	baseURL string,
	logger zerolog.Logger,
) CheckoutService {
	return &checkoutService{
		cartRepo:    cartRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		stockRepo:   stockRepo,
		userRepo:    userRepo,
		pricing:     pricing,
		gateway:     gateway,
		events:      events,
		txManager:   txManager,
		hub:         hub,
		baseURL:     strings.TrimRight(baseURL, "/"),
		logger:      logger,
	}
}

// BeginCheckout snapshots the cart into a pending order with frozen prices
// and totals, then opens a hosted payment session. The order is persisted
// before the gateway call; if the gateway refuses, the order is rolled back
// and the failure surfaced as ErrPaymentSession.
func (s *checkoutService) BeginCheckout(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*CheckoutResponse, error) {
	if err := validateShipping(req); err != nil {
		return nil, err
	}

	cart, err := s.cartRepo.FindByUserWithItems(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrEmptyCart
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, model.ErrEmptyCart
	}

	// Stock may have moved since the items were added; re-validate at
	// checkout time and name every offending product.
	var short []string
	for i := range cart.Items {
		item := &cart.Items[i]
		if item.Quantity > item.Product.Stock || !item.Product.IsAvailable {
			short = append(short, productLabel(&item.Product))
		}
	}
	if len(short) > 0 {
		return nil, &model.InsufficientStockError{Products: short}
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	now := time.Now()
	rate, err := s.pricing.CurrentTaxRate(ctx, now)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		UserID:             userID,
		Status:             model.OrderStatusPending,
		ShippingName:       req.ShippingName,
		ShippingPostalCode: req.ShippingPostalCode,
		ShippingAddress:    req.ShippingAddress,
		ShippingPhone:      req.ShippingPhone,
	}
	for i := range cart.Items {
		item := &cart.Items[i]
		order.Items = append(order.Items, model.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.Product.Price, // frozen at this instant
		})
	}
	order.CalculateAmounts(rate, 0)
	shipping, err := s.pricing.ShippingFeeFor(ctx, order.Subtotal, now)
	if err != nil {
		return nil, err
	}
	order.CalculateAmounts(rate, shipping)

	// The order number is opaque and unique; on the rare collision the
	// whole insert is retried with a fresh number rather than pre-checked.
	for attempt := 0; ; attempt++ {
		order.OrderNumber = newOrderNumber()
		err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			return s.orderRepo.Create(txCtx, order)
		})
		if err == nil {
			break
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) && attempt < orderNumberAttempts-1 {
			order.ID = uuid.Nil
			continue
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	session, err := s.gateway.CreateSession(ctx, s.sessionRequest(order, cart, user.Email))
	if err != nil {
		if delErr := s.orderRepo.HardDelete(ctx, order.ID); delErr != nil {
			s.logger.Error().Err(delErr).Str("order_id", order.ID.String()).
				Msg("failed to roll back order after gateway error")
		}
		return nil, fmt.Errorf("%w: %v", model.ErrPaymentSession, err)
	}

	if err := s.orderRepo.SetCheckoutSession(ctx, order.ID, session.ID); err != nil {
		if delErr := s.orderRepo.HardDelete(ctx, order.ID); delErr != nil {
			s.logger.Error().Err(delErr).Str("order_id", order.ID.String()).
				Msg("failed to roll back order after session record error")
		}
		return nil, fmt.Errorf("record checkout session: %w", err)
	}
	order.CheckoutSessionID = session.ID

	s.logger.Info().Str("order_number", order.OrderNumber).Int("total", order.TotalAmount).
		Str("session_id", session.ID).Msg("checkout session opened")

	return &CheckoutResponse{Order: order, RedirectURL: session.URL}, nil
}

// CompleteFromReturn handles the customer landing back on the success URL.
// The session status is fetched from the gateway rather than trusted from
// the query string.
func (s *checkoutService) CompleteFromReturn(ctx context.Context, userID, orderID uuid.UUID, sessionID string) (*model.Order, error) {
	order, err := s.orderRepo.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("load order: %w", err)
	}
	if order.Status != model.OrderStatusPending {
		return order, nil
	}

	status, err := s.gateway.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("retrieve payment session: %w", err)
	}
	if !status.Paid {
		return order, nil
	}

	return s.confirm(ctx, order, status.PaymentIntentID)
}

// CancelPayment marks a pending order cancelled. Inventory and the cart are
// untouched: nothing was decremented yet.
func (s *checkoutService) CancelPayment(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("load order: %w", err)
	}

	moved, err := s.orderRepo.UpdateStatusIf(ctx, orderID, model.OrderStatusPending, model.OrderStatusCancelled, nil)
	if err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}
	if moved {
		order.Status = model.OrderStatusCancelled
		s.logger.Info().Str("order_number", order.OrderNumber).Msg("order cancelled")
	}
	return order, nil
}

// HandleWebhook processes a gateway notification. A bad signature rejects the
// request without touching any state. Confirmation itself is idempotent, so
// the redis de-duplication is only an optimization to skip repeat deliveries;
// the event id is marked consumed only after confirmation succeeds, so a
// transient failure keeps the gateway's retries effective.
func (s *checkoutService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.VerifyWebhook(payload, signature)
	if err != nil {
		return err
	}
	if event.Type != payment.EventCheckoutCompleted || !event.Paid {
		return nil
	}

	var eventKey string
	if s.events != nil && event.ID != "" {
		eventKey = s.events.Key("webhook", event.ID)
		seen, err := s.events.Get(ctx, eventKey)
		if err != nil {
			s.logger.Warn().Err(err).Msg("webhook dedup store unavailable, relying on guarded transition")
			eventKey = ""
		} else if seen != "" {
			return nil
		}
	}

	orderID, err := uuid.Parse(event.OrderID)
	if err != nil {
		s.logger.Warn().Str("event_id", event.ID).Msg("webhook event carries no usable order id")
		return nil
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn().Str("order_id", event.OrderID).Msg("webhook for unknown order")
			return nil
		}
		return fmt.Errorf("load order: %w", err)
	}

	if _, err := s.confirm(ctx, order, event.PaymentIntentID); err != nil {
		return err
	}

	if eventKey != "" {
		if err := s.events.Set(ctx, eventKey, 1, 24*time.Hour); err != nil {
			s.logger.Warn().Err(err).Msg("failed to mark webhook event consumed")
		}
	}
	return nil
}

// confirm performs the guarded pending → paid transition. Only the caller
// whose conditional update matched a row decrements stock, writes the ledger
// and clears the cart, so concurrent confirmations cannot double-apply.
func (s *checkoutService) confirm(ctx context.Context, order *model.Order, paymentIntentID string) (*model.Order, error) {
	if order.Status != model.OrderStatusPending {
		return order, nil
	}

	won := false
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		moved, err := s.orderRepo.UpdateStatusIf(txCtx, order.ID,
			model.OrderStatusPending, model.OrderStatusPaid,
			map[string]interface{}{"payment_intent_id": paymentIntentID})
		if err != nil {
			return fmt.Errorf("transition order to paid: %w", err)
		}
		if !moved {
			return nil
		}
		won = true

		for i := range order.Items {
			if err := s.fulfillLine(txCtx, order, &order.Items[i]); err != nil {
				return err
			}
		}

		cart, err := s.cartRepo.GetOrCreateByUser(txCtx, order.UserID)
		if err != nil {
			return fmt.Errorf("load cart for clearing: %w", err)
		}
		return s.cartRepo.ClearItems(txCtx, cart.ID)
	})
	if err != nil {
		return nil, err
	}

	if won {
		s.logger.Info().Str("order_number", order.OrderNumber).Msg("payment confirmed")
		s.hub.Publish("order.paid", map[string]interface{}{
			"order_id":     order.ID.String(),
			"order_number": order.OrderNumber,
			"total_amount": order.TotalAmount,
		})
	}

	return s.orderRepo.FindByID(ctx, order.ID)
}

// fulfillLine decrements one product line and records the ledger row. A
// decrement that cannot be satisfied clamps stock at zero and flags the row
// for manual reconciliation; the customer already paid, so the order stands.
func (s *checkoutService) fulfillLine(ctx context.Context, order *model.Order, item *model.OrderItem) error {
	applied, err := s.productRepo.DecrementStock(ctx, item.ProductID, item.Quantity)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if !applied {
		if err := s.productRepo.ClampStockToZero(ctx, item.ProductID); err != nil {
			return fmt.Errorf("clamp stock: %w", err)
		}
		s.logger.Error().Str("order_number", order.OrderNumber).
			Str("product_id", item.ProductID.String()).Int("quantity", item.Quantity).
			Msg("oversold line, stock clamped to zero and flagged")
	}

	product, err := s.productRepo.FindByID(ctx, item.ProductID)
	if err != nil {
		return fmt.Errorf("reload product: %w", err)
	}

	orderID := order.ID
	movement := &model.StockMovement{
		ProductID:    item.ProductID,
		OrderID:      &orderID,
		MovementType: model.MovementOut,
		Quantity:     item.Quantity,
		StockAfter:   product.Stock,
		Flagged:      !applied,
	}
	if err := s.stockRepo.Create(ctx, movement); err != nil {
		return fmt.Errorf("record stock movement: %w", err)
	}

	s.hub.Publish("stock.updated", map[string]interface{}{
		"product_id": item.ProductID.String(),
		"stock":      product.Stock,
	})
	return nil
}

func (s *checkoutService) sessionRequest(order *model.Order, cart *model.Cart, email string) payment.SessionRequest {
	req := payment.SessionRequest{
		OrderID:       order.ID.String(),
		CustomerEmail: email,
		SuccessURL:    s.baseURL + "/api/payment/success?session_id={CHECKOUT_SESSION_ID}&order_id=" + order.ID.String(),
		CancelURL:     s.baseURL + "/api/payment/cancel?order_id=" + order.ID.String(),
	}

	for i := range order.Items {
		item := &order.Items[i]
		var label, desc string
		for j := range cart.Items {
			if cart.Items[j].ProductID == item.ProductID {
				label = productLabel(&cart.Items[j].Product)
				desc = truncate(cart.Items[j].Product.Tea.Description, 100)
			}
		}
		// The hosted page shows tax-inclusive unit prices.
		gross := item.UnitPrice + model.TaxAmount(item.UnitPrice, order.TaxRate)
		req.LineItems = append(req.LineItems, payment.LineItem{
			Name:        label,
			Description: desc,
			UnitAmount:  int64(gross),
			Quantity:    int64(item.Quantity),
		})
	}

	if order.ShippingFee > 0 {
		req.LineItems = append(req.LineItems, payment.LineItem{
			Name:       "送料",
			UnitAmount: int64(order.ShippingFee),
			Quantity:   1,
		})
	}
	return req
}

func validateShipping(req CheckoutRequest) error {
	if strings.TrimSpace(req.ShippingName) == "" {
		return &model.ValidationError{Field: "shipping_name", Message: "must not be blank"}
	}
	if !postalCodeRe.MatchString(req.ShippingPostalCode) {
		return &model.ValidationError{Field: "shipping_postal_code", Message: "must look like 123-4567"}
	}
	if strings.TrimSpace(req.ShippingAddress) == "" {
		return &model.ValidationError{Field: "shipping_address", Message: "must not be blank"}
	}
	if !phoneRe.MatchString(req.ShippingPhone) {
		return &model.ValidationError{Field: "shipping_phone", Message: "must be a domestic phone number"}
	}
	return nil
}

func newOrderNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "ORD-" + strings.ToUpper(raw[:12])
}

func productLabel(p *model.TeaProduct) string {
	return fmt.Sprintf("%s (%dg)", p.Tea.Name, p.Weight)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
