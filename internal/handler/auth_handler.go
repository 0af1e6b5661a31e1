package handler

import (
	"net/http"

	"teashop/internal/service"
	"teashop/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/api/auth")
	{
		auth.POST("/signup", h.Signup)
		auth.GET("/verify-email/:token", h.VerifyEmail)
		auth.POST("/resend-verification", h.ResendVerification)
		auth.POST("/login", h.Login)
	}
}

// Signup registers a new account and sends a verification email
// @Summary      Register a new account
// @Description  Creates an unverified account and emails a confirmation link. The response is identical whether or not the address was already registered.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SignupRequest  true  "Signup Payload"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req service.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	msg, err := h.authService.Signup(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Message(http.StatusOK, msg))
}

// VerifyEmail activates the account behind a verification token
// @Summary      Verify email address
// @Description  Activates the account linked to the token if it is still within its validity window
// @Tags         auth
// @Produce      json
// @Param        token  path      string  true  "Verification token"
// @Success      200    {object}  response.Response
// @Failure      404    {object}  response.Response
// @Failure      410    {object}  response.Response
// @Router       /api/auth/verify-email/{token} [get]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	token, err := uuid.Parse(c.Param("token"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Resource not found"))
		return
	}

	if err := h.authService.VerifyEmail(c.Request.Context(), token); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Message(http.StatusOK, "Email verified. You can now log in."))
}

// ResendVerification emails a fresh verification link
// @Summary      Resend verification email
// @Description  Rotates the verification token for an unverified account and sends a new link
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ResendVerificationRequest  true  "Resend Payload"
// @Success      200      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/auth/resend-verification [post]
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req service.ResendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.authService.ResendVerification(c.Request.Context(), req); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Message(http.StatusOK, "A new verification email has been sent."))
}

// Login authenticates by email and password
// @Summary      Login
// @Description  Authenticates a verified account and returns a JWT token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Login Credentials"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      401      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	tokenRes, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tokenRes))
}
