package handler

import (
	"io"
	"net/http"

	"teashop/internal/middleware"
	"teashop/internal/service"
	"teashop/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
	jwtSecret       []byte
}

func NewCheckoutHandler(checkoutService service.CheckoutService, jwtSecret []byte) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService, jwtSecret: jwtSecret}
}

func (h *CheckoutHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/api/checkout", middleware.RequireAuth(h.jwtSecret), h.BeginCheckout)

	payment := router.Group("/api/payment")
	{
		payment.GET("/success", middleware.RequireAuth(h.jwtSecret), h.PaymentSuccess)
		payment.GET("/cancel", middleware.RequireAuth(h.jwtSecret), h.PaymentCancel)
	}

	// Signed by the gateway, not by a user token.
	router.POST("/api/webhooks/stripe", h.Webhook)
}

// BeginCheckout snapshots the cart into an order and opens a payment session
// @Summary      Begin checkout
// @Description  Freezes the cart into a pending order with locked-in prices and returns the hosted payment page URL
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CheckoutRequest  true  "Shipping Details"
// @Success      201      {object}  response.Response{data=service.CheckoutResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      502      {object}  response.Response
// @Router       /api/checkout [post]
func (h *CheckoutHandler) BeginCheckout(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.checkoutService.BeginCheckout(c.Request.Context(), userID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// PaymentSuccess handles the browser returning from a completed payment
// @Summary      Payment success return
// @Description  Verifies the session against the gateway and confirms the order when it is actually paid
// @Tags         checkout
// @Produce      json
// @Security     BearerAuth
// @Param        session_id  query     string  true  "Gateway session id"
// @Param        order_id    query     string  true  "Order id"
// @Success      200         {object}  response.Response{data=model.Order}
// @Failure      404         {object}  response.Response
// @Router       /api/payment/success [get]
func (h *CheckoutHandler) PaymentSuccess(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	orderID, err := uuid.Parse(c.Query("order_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "order_id is required"))
		return
	}
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "session_id is required"))
		return
	}

	order, err := h.checkoutService.CompleteFromReturn(c.Request.Context(), userID, orderID, sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// PaymentCancel handles the browser returning from an abandoned payment
// @Summary      Payment cancel return
// @Description  Cancels a pending order; inventory and the cart are untouched
// @Tags         checkout
// @Produce      json
// @Security     BearerAuth
// @Param        order_id  query     string  true  "Order id"
// @Success      200       {object}  response.Response{data=model.Order}
// @Failure      404       {object}  response.Response
// @Router       /api/payment/cancel [get]
func (h *CheckoutHandler) PaymentCancel(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	orderID, err := uuid.Parse(c.Query("order_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "order_id is required"))
		return
	}

	order, err := h.checkoutService.CancelPayment(c.Request.Context(), userID, orderID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// Webhook receives signed gateway notifications
// @Summary      Payment webhook
// @Description  Verifies the gateway signature and confirms paid orders. Redeliveries are harmless.
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/webhooks/stripe [post]
func (h *CheckoutHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, 65536))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Unreadable payload"))
		return
	}

	if err := h.checkoutService.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Message(http.StatusOK, "received"))
}
