package model

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for business-rule violations. Handlers map these onto HTTP
// status codes; services wrap them with context where useful.
var (
	ErrNotFound              = errors.New("not found")
	ErrOutOfStock            = errors.New("out of stock")
	ErrEmptyCart             = errors.New("cart is empty")
	ErrPaymentSession        = errors.New("payment session creation failed")
	ErrSignatureVerification = errors.New("webhook signature verification failed")
	ErrTokenExpired          = errors.New("verification token expired")
	ErrEmailNotVerified      = errors.New("email not verified")
	ErrInvalidCredentials    = errors.New("invalid email or password")
)

// ValidationError reports a malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// InsufficientStockError names every product whose cart quantity exceeds the
// stock available at checkout time.
type InsufficientStockError struct {
	Products []string
}

func (e *InsufficientStockError) Error() string {
	return "insufficient stock: " + strings.Join(e.Products, ", ")
}
