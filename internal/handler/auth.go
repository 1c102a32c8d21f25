package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smarttracker/backend/internal/model"
	"github.com/smarttracker/backend/internal/service"
)

type AuthHandler struct {
	users *service.UserService
	auth  *service.AuthService
}

func NewAuthHandler(users *service.UserService, auth *service.AuthService) *AuthHandler {
	return &AuthHandler{users: users, auth: auth}
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.RegisterRequest true "Registration details"
// @Success 201 {object} model.APIResponse
// @Failure 400 {object} model.APIResponse
// @Failure 409 {object} model.APIResponse
// @Failure 500 {object} model.APIResponse
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse("Invalid request body", service.CodeValidationError))
		return
	}

	user, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, model.SuccessResponse("User registered successfully", user))
}

// CheckUsername godoc
// @Summary Check username availability
// @Tags auth
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} model.APIResponse
// @Router /api/v1/auth/check-username/{username} [get]
func (h *AuthHandler) CheckUsername(c *gin.Context) {
	exists, err := h.users.ExistsByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		writeError(c, err)
		return
	}

	available := !exists
	message := "Username available"
	if !available {
		message = "Username already taken"
	}
	c.JSON(http.StatusOK, model.SuccessResponse(message, available))
}

// CheckEmail godoc
// @Summary Check email availability
// @Tags auth
// @Produce json
// @Param email path string true "Email"
// @Success 200 {object} model.APIResponse
// @Router /api/v1/auth/check-email/{email} [get]
func (h *AuthHandler) CheckEmail(c *gin.Context) {
	exists, err := h.users.ExistsByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		writeError(c, err)
		return
	}

	available := !exists
	message := "Email available"
	if !available {
		message = "Email already registered"
	}
	c.JSON(http.StatusOK, model.SuccessResponse(message, available))
}

// ValidatePassword godoc
// @Summary Check password against the length policy
// @Description Quick pre-flight length check; registration additionally applies a weak-password denylist.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.ValidatePasswordRequest true "Password"
// @Success 200 {object} model.APIResponse
// @Router /api/v1/auth/validate-password [post]
func (h *AuthHandler) ValidatePassword(c *gin.Context) {
	var req model.ValidatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse("Invalid request body", service.CodeValidationError))
		return
	}

	isValid := service.IsPasswordValid(req.Password)
	message := "Password is valid"
	if !isValid {
		message = "Password is too weak"
	}
	c.JSON(http.StatusOK, model.SuccessResponse(message, model.PasswordValidity{IsValid: isValid}))
}

// Login godoc
// @Summary Authenticate and receive a token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.LoginRequest true "Credentials"
// @Success 200 {object} model.APIResponse
// @Failure 401 {object} model.APIResponse
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse("Invalid request body", service.CodeValidationError))
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse("Login successful", resp))
}

// Refresh godoc
// @Summary Exchange a refresh token for a new token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.RefreshRequest true "Refresh token"
// @Success 200 {object} model.APIResponse
// @Failure 401 {object} model.APIResponse
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req model.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse("Invalid request body", service.CodeValidationError))
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse("Token refreshed successfully", pair))
}

// Logout godoc
// @Summary Log out
// @Description Acknowledgement only: tokens are stateless and remain valid until expiry.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.APIResponse
// @Failure 401 {object} model.APIResponse
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	principal := GetAuthUser(c)
	if principal == nil {
		writeError(c, service.ErrUnauthenticated())
		return
	}

	h.auth.Logout(c.Request.Context(), principal.Username)
	c.JSON(http.StatusOK, model.SuccessResponse("Logged out successfully", nil))
}

// Me godoc
// @Summary Get the current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.APIResponse
// @Failure 401 {object} model.APIResponse
// @Router /api/v1/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	principal := GetAuthUser(c)
	if principal == nil {
		writeError(c, service.ErrUnauthenticated())
		return
	}

	user, err := h.auth.CurrentUser(c.Request.Context(), principal.Username)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse("Current user", user))
}

func writeError(c *gin.Context, err error) {
	var appErr *service.Error
	if !errors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError,
			model.ErrorResponse("An unexpected error occurred. Please try again later.", service.CodeInternalError))
		return
	}

	resp := model.ErrorResponse(appErr.Message, appErr.Code)

	switch appErr.Kind {
	case service.KindValidation:
		if len(appErr.Fields) > 0 {
			resp.Data = appErr.Fields
		}
		c.JSON(http.StatusBadRequest, resp)
	case service.KindDuplicate:
		c.JSON(http.StatusConflict, resp)
	case service.KindAuthentication, service.KindUnauthenticated:
		c.JSON(http.StatusUnauthorized, resp)
	default:
		c.JSON(http.StatusInternalServerError, resp)
	}
}
