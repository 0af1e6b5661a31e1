package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"teashop/internal/model"
	"teashop/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateTaxRateRequest struct {
	Rate          string `json:"rate" binding:"required"`           // percent as decimal string, e.g. "10.00"
	EffectiveFrom string `json:"effective_from" binding:"required"` // YYYY-MM-DD
}

type CreateShippingFeeRequest struct {
	Fee           *int   `json:"fee" binding:"required,min=0"` // pointer: a flat fee of zero is a valid rule
	FreeThreshold *int   `json:"free_threshold" binding:"omitempty,min=0"`
	EffectiveFrom string `json:"effective_from" binding:"required"` // YYYY-MM-DD
}

// CartTotals is the live price breakdown for a cart at a point in time.
type CartTotals struct {
	Subtotal    int             `json:"subtotal"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	TaxAmount   int             `json:"tax_amount"`
	ShippingFee int             `json:"shipping_fee"`
	TotalAmount int             `json:"total_amount"`
	ItemCount   int             `json:"item_count"`
}

// PricingService resolves which tax rate and shipping rule apply on a given
// date. It is a pure read over configuration storage: results are never
// cached, since active rules can change between requests.
type PricingService interface {
	CurrentTaxRate(ctx context.Context, asOf time.Time) (decimal.Decimal, error)
	CurrentShippingRule(ctx context.Context, asOf time.Time) (model.ShippingFee, error)
	ShippingFeeFor(ctx context.Context, subtotal int, asOf time.Time) (int, error)
	ListTaxRates(ctx context.Context) ([]model.TaxRate, error)
	CreateTaxRate(ctx context.Context, req CreateTaxRateRequest) (*model.TaxRate, error)
	ListShippingFees(ctx context.Context) ([]model.ShippingFee, error)
	CreateShippingFee(ctx context.Context, req CreateShippingFeeRequest) (*model.ShippingFee, error)
}

type pricingService struct {
	taxRepo      repository.TaxRateRepository
	shippingRepo repository.ShippingFeeRepository
}

func NewPricingService(taxRepo repository.TaxRateRepository, shippingRepo repository.ShippingFeeRepository) PricingService {
	return &pricingService{taxRepo: taxRepo, shippingRepo: shippingRepo}
}

func (s *pricingService) CurrentTaxRate(ctx context.Context, asOf time.Time) (decimal.Decimal, error) {
	rate, err := s.taxRepo.FindActive(ctx, asOf)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.DefaultTaxRate, nil
		}
		return decimal.Zero, fmt.Errorf("resolve tax rate: %w", err)
	}
	return rate.Rate, nil
}

func (s *pricingService) CurrentShippingRule(ctx context.Context, asOf time.Time) (model.ShippingFee, error) {
	rule, err := s.shippingRepo.FindActive(ctx, asOf)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.DefaultShippingFee(), nil
		}
		return model.ShippingFee{}, fmt.Errorf("resolve shipping rule: %w", err)
	}
	return *rule, nil
}

func (s *pricingService) ShippingFeeFor(ctx context.Context, subtotal int, asOf time.Time) (int, error) {
	rule, err := s.CurrentShippingRule(ctx, asOf)
	if err != nil {
		return 0, err
	}
	return rule.FeeFor(subtotal), nil
}

func (s *pricingService) ListTaxRates(ctx context.Context) ([]model.TaxRate, error) {
	return s.taxRepo.List(ctx)
}

func (s *pricingService) CreateTaxRate(ctx context.Context, req CreateTaxRateRequest) (*model.TaxRate, error) {
	rate, err := decimal.NewFromString(req.Rate)
	if err != nil || rate.IsNegative() {
		return nil, &model.ValidationError{Field: "rate", Message: "must be a non-negative decimal percentage"}
	}
	effectiveFrom, err := time.Parse("2006-01-02", req.EffectiveFrom)
	if err != nil {
		return nil, &model.ValidationError{Field: "effective_from", Message: "must be YYYY-MM-DD"}
	}

	row := &model.TaxRate{Rate: rate, EffectiveFrom: effectiveFrom, IsActive: true}
	if err := s.taxRepo.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("create tax rate: %w", err)
	}
	return row, nil
}

func (s *pricingService) ListShippingFees(ctx context.Context) ([]model.ShippingFee, error) {
	return s.shippingRepo.List(ctx)
}

func (s *pricingService) CreateShippingFee(ctx context.Context, req CreateShippingFeeRequest) (*model.ShippingFee, error) {
	if req.Fee == nil || *req.Fee < 0 {
		return nil, &model.ValidationError{Field: "fee", Message: "must be a non-negative amount"}
	}
	effectiveFrom, err := time.Parse("2006-01-02", req.EffectiveFrom)
	if err != nil {
		return nil, &model.ValidationError{Field: "effective_from", Message: "must be YYYY-MM-DD"}
	}

	row := &model.ShippingFee{
		Fee:           *req.Fee,
		FreeThreshold: req.FreeThreshold,
		EffectiveFrom: effectiveFrom,
		IsActive:      true,
	}
	if err := s.shippingRepo.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("create shipping fee: %w", err)
	}
	return row, nil
}
