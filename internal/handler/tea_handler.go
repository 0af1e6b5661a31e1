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

type TeaHandler struct {
	catalogService service.CatalogService
	jwtSecret      []byte
}

func NewTeaHandler(catalogService service.CatalogService, jwtSecret []byte) *TeaHandler {
	return &TeaHandler{catalogService: catalogService, jwtSecret: jwtSecret}
}

func (h *TeaHandler) RegisterRoutes(router *gin.RouterGroup) {
	teas := router.Group("/api/teas")
	teas.Use(middleware.OptionalAuth(h.jwtSecret))
	{
		teas.GET("", h.ListTeas)
		teas.GET("/:id", h.GetTea)
	}

	authed := router.Group("/api/teas")
	authed.Use(middleware.RequireAuth(h.jwtSecret))
	{
		authed.POST("/:id/favorite", h.AddFavorite)
		authed.DELETE("/:id/favorite", h.RemoveFavorite)
		authed.POST("/:id/reviews", h.AddReview)
	}
}

// viewer returns the optional authenticated user id.
func viewer(c *gin.Context) *uuid.UUID {
	if id, ok := middleware.UserID(c); ok {
		return &id
	}
	return nil
}

// ListTeas returns the published catalog
// @Summary      List published teas
// @Description  Returns published teas with favorite counts; annotated per viewer when authenticated
// @Tags         catalog
// @Produce      json
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  response.Response{data=[]service.TeaSummary}
// @Router       /api/teas [get]
func (h *TeaHandler) ListTeas(c *gin.Context) {
	params := pagination.Parse(c)

	teas, total, err := h.catalogService.ListPublished(c.Request.Context(), viewer(c), params.Page, params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"teas":  teas,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

// GetTea returns one tea with products, prices and reviews
// @Summary      Get tea detail
// @Tags         catalog
// @Produce      json
// @Param        id   path      string  true  "Tea ID"
// @Success      200  {object}  response.Response{data=service.TeaDetail}
// @Failure      404  {object}  response.Response
// @Router       /api/teas/{id} [get]
func (h *TeaHandler) GetTea(c *gin.Context) {
	teaID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Resource not found"))
		return
	}

	detail, err := h.catalogService.GetTea(c.Request.Context(), teaID, viewer(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, detail))
}

// AddFavorite marks a tea as a favorite of the caller
// @Summary      Favorite a tea
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Tea ID"
// @Success      200  {object}  response.Response{data=service.FavoriteResult}
// @Failure      404  {object}  response.Response
// @Router       /api/teas/{id}/favorite [post]
func (h *TeaHandler) AddFavorite(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	teaID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Resource not found"))
		return
	}

	result, err := h.catalogService.AddFavorite(c.Request.Context(), userID, teaID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// RemoveFavorite removes a tea from the caller's favorites
// @Summary      Unfavorite a tea
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Tea ID"
// @Success      200  {object}  response.Response{data=service.FavoriteResult}
// @Router       /api/teas/{id}/favorite [delete]
func (h *TeaHandler) RemoveFavorite(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	teaID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Resource not found"))
		return
	}

	result, err := h.catalogService.RemoveFavorite(c.Request.Context(), userID, teaID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// AddReview posts a review for a tea
// @Summary      Review a tea
// @Description  Records a star rating and optional comment. One review per user per tea.
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                       true  "Tea ID"
// @Param        payload  body      service.CreateReviewRequest  true  "Review Payload"
// @Success      201      {object}  response.Response{data=model.TeaReview}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/teas/{id}/reviews [post]
func (h *TeaHandler) AddReview(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	teaID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Resource not found"))
		return
	}

	var req service.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	review, err := h.catalogService.AddReview(c.Request.Context(), userID, teaID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, review))
}
