package handler

import (
	"net/http"

	"teashop/internal/middleware"
	"teashop/internal/service"
	"teashop/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CartHandler struct {
	cartService service.CartService
	jwtSecret   []byte
}

func NewCartHandler(cartService service.CartService, jwtSecret []byte) *CartHandler {
	return &CartHandler{cartService: cartService, jwtSecret: jwtSecret}
}

func (h *CartHandler) RegisterRoutes(router *gin.RouterGroup) {
	cart := router.Group("/api/cart")
	cart.Use(middleware.RequireAuth(h.jwtSecret))
	{
		cart.GET("", h.GetCart)
		cart.POST("/items", h.AddItem)
		cart.PATCH("/items/:id", h.UpdateItem)
		cart.DELETE("/items/:id", h.RemoveItem)
	}
}

// GetCart returns the caller's cart with live totals
// @Summary      Get cart
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.CartResponse}
// @Router       /api/cart [get]
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	cart, err := h.cartService.GetCart(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, cart))
}

// AddItem puts a product into the cart
// @Summary      Add cart item
// @Description  Adds a quantity of a product. Adding an already-carted product increases its quantity.
// @Tags         cart
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.AddCartItemRequest  true  "Item Payload"
// @Success      200      {object}  response.Response{data=service.CartResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req service.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	cart, err := h.cartService.AddItem(c.Request.Context(), userID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, cart))
}

// UpdateItem changes a cart line's quantity
// @Summary      Update cart item
// @Description  Sets the quantity of a cart line. A quantity below one removes the line.
// @Tags         cart
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Cart item ID"
// @Param        payload  body      service.UpdateCartItemRequest  true  "Quantity Payload"
// @Success      200      {object}  response.Response{data=service.CartResponse}
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/cart/items/{id} [patch]
func (h *CartHandler) UpdateItem(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Resource not found"))
		return
	}

	var req service.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	cart, err := h.cartService.UpdateItem(c.Request.Context(), userID, itemID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, cart))
}

// RemoveItem deletes a cart line
// @Summary      Remove cart item
// @Description  Removes a line from the cart. Removing an absent line still succeeds.
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Cart item ID"
// @Success      200  {object}  response.Response{data=service.CartResponse}
// @Router       /api/cart/items/{id} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Resource not found"))
		return
	}

	cart, err := h.cartService.RemoveItem(c.Request.Context(), userID, itemID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, cart))
}
