package handlers

import (
	"errors"
	"net/http"

	"github.com/collabhub/backend/internal/dto"
	apperrors "github.com/collabhub/backend/internal/errors"
	"github.com/collabhub/backend/internal/middleware"
	"github.com/collabhub/backend/internal/models"
	"github.com/collabhub/backend/internal/services"
	"github.com/gin-gonic/gin"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register creates a new user account and returns the initial token pair.
func (h *AuthHandler) Register(c *gin.Context) {
	type RegisterRequest struct {
		Email     string `json:"email" binding:"required,email"`
		Username  string `json:"username" binding:"required,min=3,max=50"`
		Password  string `json:"password" binding:"required"`
		FirstName string `json:"first_name" binding:"max=100"`
		LastName  string `json:"last_name" binding:"max=100"`
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	user, pair, err := h.authService.Register(services.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	userDTO := dto.ToUserDTO(*user)
	c.JSON(http.StatusCreated, dto.AuthResponseDTO{
		User:         &userDTO,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Login authenticates a user and returns a fresh token pair.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
		MFACode  string `json:"mfa_code"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	user, pair, err := h.authService.Login(services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		MFACode:  req.MFACode,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	userDTO := dto.ToUserDTO(*user)
	c.JSON(http.StatusOK, dto.AuthResponseDTO{
		User:         &userDTO,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Refresh rotates the presented refresh token and returns a new pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	type RefreshRequest struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	pair, err := h.authService.Refresh(req.RefreshToken)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AuthResponseDTO{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout invalidates the presented refresh token for the caller.
func (h *AuthHandler) Logout(c *gin.Context) {
	type LogoutRequest struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	var req LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	authCtx, ok := middleware.GetAuth(c)
	if !ok {
		apperrors.Unauthorized(c, "", "")
		return
	}

	if err := h.authService.Logout(authCtx.UserID, req.RefreshToken); err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// ChangePassword rotates the caller's password and revokes all of
// their refresh tokens.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	type ChangePasswordRequest struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required"`
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	authCtx, ok := middleware.GetAuth(c)
	if !ok {
		apperrors.Unauthorized(c, "", "")
		return
	}

	if err := h.authService.ChangePassword(authCtx.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password changed; all sessions have been signed out",
	})
}

// GetCurrentUser returns the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	authCtx, ok := middleware.GetAuth(c)
	if !ok {
		apperrors.Unauthorized(c, "", "")
		return
	}

	user, err := h.authService.GetUser(authCtx.UserID)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// UpdateProfile updates the caller's name and accessibility preferences.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	type UpdateProfileRequest struct {
		FirstName   *string             `json:"first_name" binding:"omitempty,max=100"`
		LastName    *string             `json:"last_name" binding:"omitempty,max=100"`
		Preferences *models.Preferences `json:"preferences"`
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	authCtx, ok := middleware.GetAuth(c)
	if !ok {
		apperrors.Unauthorized(c, "", "")
		return
	}

	user, err := h.authService.UpdateProfile(authCtx.UserID, services.UpdateProfileInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Preferences: req.Preferences,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

func respondAuthError(c *gin.Context, err error) {
	var verr *apperrors.ValidationError
	if errors.As(err, &verr) {
		apperrors.UnprocessableEntity(c, verr)
		return
	}

	switch {
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrUsernameTaken):
		apperrors.Conflict(c, apperrors.ErrCodeDuplicateIdentity, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		apperrors.Unauthorized(c, apperrors.ErrCodeInvalidCredentials, err.Error())
	case errors.Is(err, services.ErrAccountDisabled):
		apperrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrMFARequired):
		apperrors.Unauthorized(c, apperrors.ErrCodeMFARequired, err.Error())
	case errors.Is(err, services.ErrInvalidRefreshToken):
		apperrors.Unauthorized(c, apperrors.ErrCodeInvalidToken, err.Error())
	case errors.Is(err, services.ErrRefreshTokenExpired):
		apperrors.Unauthorized(c, apperrors.ErrCodeTokenExpired, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		apperrors.NotFound(c, err.Error())
	default:
		apperrors.InternalError(c, "")
	}
}
