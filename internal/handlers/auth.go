// Package handlers contains HTTP request handlers for the contacts service.
package handlers

import (
	"errors"
	"net/http"

	"github.com/GunarsK-portfolio/contacts-service/internal/middleware"
	"github.com/GunarsK-portfolio/contacts-service/internal/models"
	"github.com/GunarsK-portfolio/contacts-service/internal/service"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication HTTP requests.
type AuthHandler struct {
	authService service.AuthService
	jwtService  service.JWTService
	cookies     *CookieHelper
}

// NewAuthHandler creates a new AuthHandler instance.
func NewAuthHandler(authService service.AuthService, jwtService service.JWTService, cookies *CookieHelper) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		jwtService:  jwtService,
		cookies:     cookies,
	}
}

// SignupRequest represents the registration payload.
type SignupRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// SignupResponse is returned after registration.
type SignupResponse struct {
	User   *models.User `json:"user"`
	Detail string       `json:"detail"`
}

// LoginRequest represents the login payload. Username carries the email and
// may be sent as JSON or as an OAuth2 password form.
type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// RequestEmailRequest asks for a new confirmation email.
type RequestEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// Signup godoc
// @Summary Register a user
// @Description Create an account and send a confirmation email
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignupRequest true "Account details"
// @Success 201 {object} SignupResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.authService.Signup(c.Request.Context(), req.Username, req.Email, req.Password)
	if errors.Is(err, service.ErrConflict) {
		RespondError(c, http.StatusConflict, "Account already exists")
		return
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SignupResponse{
		User:   user,
		Detail: "User successfully created. Check your email for confirmation.",
	})
}

// Login godoc
// @Summary User login
// @Description Authenticate with email and password and return access and refresh tokens
// @Tags auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} service.TokenPair
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	pair, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.setCookies(c, pair)
	c.JSON(http.StatusOK, pair)
}

// Refresh godoc
// @Summary Refresh tokens
// @Description Rotate the token pair using the refresh token from the Authorization header or cookie
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} service.TokenPair
// @Failure 401 {object} ErrorResponse
// @Router /auth/refresh_token [get]
func (h *AuthHandler) Refresh(c *gin.Context) {
	token := middleware.BearerToken(c, middleware.RefreshTokenCookie)
	if token == "" {
		RespondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	pair, err := h.authService.Refresh(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			h.cookies.ClearAuthCookies(c)
		}
		respondServiceError(c, err)
		return
	}

	h.setCookies(c, pair)
	c.JSON(http.StatusOK, pair)
}

// Logout godoc
// @Summary User logout
// @Description Revoke the stored refresh token and clear auth cookies
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} MessageResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), middleware.CurrentUser(c)); err != nil {
		LogAndRespondError(c, http.StatusInternalServerError, err, "logout failed")
		return
	}

	h.cookies.ClearAuthCookies(c)
	c.JSON(http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

// ConfirmEmail godoc
// @Summary Confirm email
// @Description Confirm an email address with the token from the confirmation email
// @Tags auth
// @Produce json
// @Param token path string true "Email token"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /auth/confirmed_email/{token} [get]
func (h *AuthHandler) ConfirmEmail(c *gin.Context) {
	already, err := h.authService.ConfirmEmail(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if already {
		c.JSON(http.StatusOK, MessageResponse{Message: "Your email is already confirmed"})
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Email confirmed"})
}

// RequestEmail godoc
// @Summary Resend confirmation email
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RequestEmailRequest true "Email address"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Router /auth/request_email [post]
func (h *AuthHandler) RequestEmail(c *gin.Context) {
	var req RequestEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	already, err := h.authService.RequestConfirmation(c.Request.Context(), req.Email)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if already {
		c.JSON(http.StatusOK, MessageResponse{Message: "Your email is already confirmed"})
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Check your email for confirmation."})
}

func (h *AuthHandler) setCookies(c *gin.Context, pair *service.TokenPair) {
	h.cookies.SetAuthCookies(c, pair.AccessToken, pair.RefreshToken,
		h.jwtService.GetAccessExpiry(), h.jwtService.GetRefreshExpiry())
}
