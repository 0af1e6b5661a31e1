package handler

import (
	"net/http"

	"teashop/internal/middleware"
	"teashop/internal/service"
	"teashop/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminHandler groups the staff-only operations: pricing configuration,
// manual stock adjustments and fulfillment status moves.
type AdminHandler struct {
	pricingService   service.PricingService
	inventoryService service.InventoryService
	orderService     service.OrderService
	jwtSecret        []byte
}

func NewAdminHandler(
	pricingService service.PricingService,
	inventoryService service.InventoryService,
	orderService service.OrderService,
	jwtSecret []byte,
) *AdminHandler {
	return &AdminHandler{
		pricingService:   pricingService,
		inventoryService: inventoryService,
		orderService:     orderService,
		jwtSecret:        jwtSecret,
	}
}

func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.RequireRole(h.jwtSecret, "admin"))
	{
		admin.GET("/tax-rates", h.ListTaxRates)
		admin.POST("/tax-rates", h.CreateTaxRate)
		admin.GET("/shipping-fees", h.ListShippingFees)
		admin.POST("/shipping-fees", h.CreateShippingFee)
		admin.POST("/products/:id/stock", h.AdjustStock)
		admin.GET("/stock-movements/flagged", h.ListFlaggedMovements)
		admin.PUT("/orders/:id/status", h.UpdateOrderStatus)
	}
}

// ListTaxRates returns all configured tax rates
// @Summary      List tax rates
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.TaxRate}
// @Router       /api/admin/tax-rates [get]
func (h *AdminHandler) ListTaxRates(c *gin.Context) {
	rates, err := h.pricingService.ListTaxRates(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rates))
}

// CreateTaxRate adds a tax rate effective from a date
// @Summary      Create tax rate
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateTaxRateRequest  true  "Tax Rate Payload"
// @Success      201      {object}  response.Response{data=model.TaxRate}
// @Failure      400      {object}  response.Response
// @Router       /api/admin/tax-rates [post]
func (h *AdminHandler) CreateTaxRate(c *gin.Context) {
	var req service.CreateTaxRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	rate, err := h.pricingService.CreateTaxRate(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, rate))
}

// ListShippingFees returns all configured shipping fee rules
// @Summary      List shipping fees
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.ShippingFee}
// @Router       /api/admin/shipping-fees [get]
func (h *AdminHandler) ListShippingFees(c *gin.Context) {
	fees, err := h.pricingService.ListShippingFees(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, fees))
}

// CreateShippingFee adds a shipping fee rule effective from a date
// @Summary      Create shipping fee
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateShippingFeeRequest  true  "Shipping Fee Payload"
// @Success      201      {object}  response.Response{data=model.ShippingFee}
// @Failure      400      {object}  response.Response
// @Router       /api/admin/shipping-fees [post]
func (h *AdminHandler) CreateShippingFee(c *gin.Context) {
	var req service.CreateShippingFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	fee, err := h.pricingService.CreateShippingFee(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, fee))
}

// AdjustStock applies a signed stock delta to a product
// @Summary      Adjust product stock
// @Description  Restocks (positive) or writes off (negative) and records a ledger row
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Product ID"
// @Param        payload  body      service.AdjustStockRequest  true  "Adjustment Payload"
// @Success      200      {object}  response.Response{data=model.TeaProduct}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/admin/products/{id}/stock [post]
func (h *AdminHandler) AdjustStock(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Resource not found"))
		return
	}

	var req service.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	product, err := h.inventoryService.AdjustStock(c.Request.Context(), productID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// ListFlaggedMovements returns ledger rows needing manual reconciliation
// @Summary      List flagged stock movements
// @Description  Flagged rows mark decrements that could not be fully applied because concurrent orders drained the stock
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.StockMovement}
// @Router       /api/admin/stock-movements/flagged [get]
func (h *AdminHandler) ListFlaggedMovements(c *gin.Context) {
	movements, err := h.inventoryService.ListFlagged(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, movements))
}

// UpdateOrderStatus moves an order through the fulfillment sequence
// @Summary      Update order status
// @Description  Moves an order one step forward, or to cancelled while still pending
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                            true  "Order ID"
// @Param        payload  body      service.UpdateOrderStatusRequest  true  "Status Payload"
// @Success      200      {object}  response.Response{data=model.Order}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/admin/orders/{id}/status [put]
func (h *AdminHandler) UpdateOrderStatus(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Resource not found"))
		return
	}

	var req service.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.AdvanceStatus(c.Request.Context(), orderID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}
