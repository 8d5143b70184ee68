package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/collabhub/backend/internal/audit"
	"github.com/collabhub/backend/internal/auth"
	"github.com/collabhub/backend/internal/dto"
	"github.com/collabhub/backend/internal/middleware"
	"github.com/collabhub/backend/internal/models"
	"github.com/collabhub/backend/internal/repository"
	"github.com/collabhub/backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type authTestEnv struct {
	db          *gorm.DB
	router      *gin.Engine
	authService *services.AuthService
}

func setupAuthTestEnv(t *testing.T) authTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.AuditLog{},
	)
	require.NoError(t, err)

	issuer := auth.NewIssuer([]byte("test-secret"), time.Minute)
	auditor := audit.NewRecorder(repository.NewAuditLogRepository(db), zap.NewNop())
	authService := services.NewAuthService(
		repository.NewUserRepository(db),
		repository.NewRefreshTokenRepository(db),
		issuer,
		time.Hour,
		auditor,
	)
	handler := NewAuthHandler(authService)

	r := gin.New()
	r.POST("/api/auth/register", handler.Register)
	r.POST("/api/auth/login", handler.Login)
	r.POST("/api/auth/refresh", handler.Refresh)
	r.POST("/api/auth/logout", middleware.RequireAuth(issuer), handler.Logout)
	r.PUT("/api/auth/password", middleware.RequireAuth(issuer), handler.ChangePassword)
	r.GET("/api/auth/me", middleware.RequireAuth(issuer), handler.GetCurrentUser)
	r.PATCH("/api/auth/me", middleware.RequireAuth(issuer), handler.UpdateProfile)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return authTestEnv{
		db:          db,
		router:      r,
		authService: authService,
	}
}

func (env authTestEnv) doJSON(t *testing.T, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_Register(t *testing.T) {
	env := setupAuthTestEnv(t)

	w := env.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "new@x.com",
		"username": "newuser",
		"password": "Str0ng!pass",
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.AuthResponseDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.NotNil(t, response.User)
	require.Equal(t, "newuser", response.User.Username)
	require.NotEmpty(t, response.AccessToken)
	require.NotEmpty(t, response.RefreshToken)

	// The raw body must not carry credential material.
	require.NotContains(t, w.Body.String(), "password_hash")
	require.NotContains(t, w.Body.String(), "mfa_secret")
}

func TestAuthHandler_Register_WeakPassword(t *testing.T) {
	env := setupAuthTestEnv(t)

	w := env.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "new@x.com",
		"username": "newuser",
		"password": "weak",
	})

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var response struct {
		Code    string `json:"code"`
		Details []struct {
			Field  string `json:"field"`
			Reason string `json:"reason"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.GreaterOrEqual(t, len(response.Details), 2)
}

func TestAuthHandler_Login_NoEnumerationSignal(t *testing.T) {
	env := setupAuthTestEnv(t)

	_, _, err := env.authService.Register(services.RegisterInput{
		Email:    "existing@x.com",
		Username: "existing",
		Password: "Str0ng!pass",
	})
	require.NoError(t, err)

	wrongPassword := env.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "existing@x.com",
		"password": "Wr0ng!pass",
	})
	unknownEmail := env.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "nobody@x.com",
		"password": "Str0ng!pass",
	})

	require.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	require.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	require.JSONEq(t, wrongPassword.Body.String(), unknownEmail.Body.String())
}

func TestAuthHandler_RefreshRotation(t *testing.T) {
	env := setupAuthTestEnv(t)

	_, pair, err := env.authService.Register(services.RegisterInput{
		Email:    "a@x.com",
		Username: "alice",
		Password: "Str0ng!pass",
	})
	require.NoError(t, err)

	first := env.doJSON(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refresh_token": pair.RefreshToken,
	})
	require.Equal(t, http.StatusOK, first.Code)

	var rotated dto.AuthResponseDTO
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &rotated))
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// Replaying the consumed token fails.
	second := env.doJSON(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refresh_token": pair.RefreshToken,
	})
	require.Equal(t, http.StatusUnauthorized, second.Code)
}

func TestAuthHandler_GetCurrentUser(t *testing.T) {
	env := setupAuthTestEnv(t)

	_, pair, err := env.authService.Register(services.RegisterInput{
		Email:    "a@x.com",
		Username: "alice",
		Password: "Str0ng!pass",
	})
	require.NoError(t, err)

	w := env.doJSON(t, http.MethodGet, "/api/auth/me", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var response dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "alice", response.Username)
}

func TestAuthHandler_GetCurrentUser_RequiresToken(t *testing.T) {
	env := setupAuthTestEnv(t)

	w := env.doJSON(t, http.MethodGet, "/api/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.doJSON(t, http.MethodGet, "/api/auth/me", "garbage-token", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_ChangePassword_RevokesSessions(t *testing.T) {
	env := setupAuthTestEnv(t)

	_, pair, err := env.authService.Register(services.RegisterInput{
		Email:    "a@x.com",
		Username: "alice",
		Password: "Str0ng!pass",
	})
	require.NoError(t, err)

	w := env.doJSON(t, http.MethodPut, "/api/auth/password", pair.AccessToken, map[string]string{
		"current_password": "Str0ng!pass",
		"new_password":     "N3w!passw0rd",
	})
	require.Equal(t, http.StatusOK, w.Code)

	refresh := env.doJSON(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refresh_token": pair.RefreshToken,
	})
	require.Equal(t, http.StatusUnauthorized, refresh.Code)
}

func TestAuthHandler_UpdateProfile(t *testing.T) {
	env := setupAuthTestEnv(t)

	_, pair, err := env.authService.Register(services.RegisterInput{
		Email:    "a@x.com",
		Username: "alice",
		Password: "Str0ng!pass",
	})
	require.NoError(t, err)

	w := env.doJSON(t, http.MethodPatch, "/api/auth/me", pair.AccessToken, map[string]interface{}{
		"first_name": "Alice",
		"preferences": map[string]interface{}{
			"theme":         "high-contrast",
			"font_size":     "large",
			"reduce_motion": true,
			"screen_reader": true,
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var response dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "Alice", response.FirstName)
	require.Equal(t, "high-contrast", response.Preferences.Theme)
	require.True(t, response.Preferences.ScreenReader)
}
