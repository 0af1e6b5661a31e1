package handler

import (
	"errors"
	"net/http"

	"teashop/internal/model"
	"teashop/pkg/response"

	"github.com/gin-gonic/gin"
)

// writeError maps service errors onto HTTP status codes and the standard
// error envelope.
func writeError(c *gin.Context, err error) {
	var validationErr *model.ValidationError
	var stockErr *model.InsufficientStockError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, validationErr.Error()))
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, stockErr.Error()))
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Resource not found"))
	case errors.Is(err, model.ErrOutOfStock):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	case errors.Is(err, model.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Cart is empty"))
	case errors.Is(err, model.ErrPaymentSession):
		c.JSON(http.StatusBadGateway, response.Error(http.StatusBadGateway, "Payment session could not be created"))
	case errors.Is(err, model.ErrSignatureVerification):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid webhook signature"))
	case errors.Is(err, model.ErrTokenExpired):
		c.JSON(http.StatusGone, response.Error(http.StatusGone, "Verification link has expired, request a new one"))
	case errors.Is(err, model.ErrEmailNotVerified):
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Email address is not verified"))
	case errors.Is(err, model.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid email or password"))
	default:
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
	}
}
