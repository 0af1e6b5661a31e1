package handler

import (
	"net/http"

	"teashop/internal/middleware"
	"teashop/internal/service"
	"teashop/pkg/pagination"
	"teashop/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrderHandler struct {
	orderService service.OrderService
	jwtSecret    []byte
}

func NewOrderHandler(orderService service.OrderService, jwtSecret []byte) *OrderHandler {
	return &OrderHandler{orderService: orderService, jwtSecret: jwtSecret}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/orders")
	orders.Use(middleware.RequireAuth(h.jwtSecret))
	{
		orders.GET("", h.ListOrders)
		orders.GET("/:id", h.GetOrder)
	}
}

// ListOrders returns the caller's order history
// @Summary      List orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  response.Response{data=[]model.Order}
// @Router       /api/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	params := pagination.Parse(c)

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), userID, params.Page, params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"orders": orders,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	}))
}

// GetOrder returns one of the caller's orders
// @Summary      Get order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=model.Order}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Resource not found"))
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}
