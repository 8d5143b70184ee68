package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/collabhub/backend/internal/audit"
	"github.com/collabhub/backend/internal/auth"
	apperrors "github.com/collabhub/backend/internal/errors"
	"github.com/collabhub/backend/internal/models"
	"github.com/collabhub/backend/internal/password"
	"github.com/collabhub/backend/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken           = errors.New("email already registered")
	ErrUsernameTaken        = errors.New("username already taken")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrAccountDisabled      = errors.New("account is disabled")
	ErrMFARequired          = errors.New("multi-factor code required")
	ErrInvalidRefreshToken  = errors.New("invalid refresh token")
	ErrRefreshTokenExpired  = errors.New("refresh token expired")
	ErrUserNotFound         = errors.New("user not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")
)

// TokenPair bundles the credentials returned by every successful
// authentication flow.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService handles registration, login, and the refresh-token
// lifecycle.
type AuthService struct {
	userRepo   repository.UserRepository
	tokenRepo  repository.RefreshTokenRepository
	issuer     *auth.Issuer
	refreshTTL time.Duration
	auditor    *audit.Recorder
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	userRepo repository.UserRepository,
	tokenRepo repository.RefreshTokenRepository,
	issuer *auth.Issuer,
	refreshTTL time.Duration,
	auditor *audit.Recorder,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		issuer:     issuer,
		refreshTTL: refreshTTL,
		auditor:    auditor,
	}
}

// RegisterInput represents the required information to create a new user.
type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
}

// Register creates a new user and issues the initial token pair.
func (s *AuthService) Register(input RegisterInput) (*models.User, *TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	username := strings.TrimSpace(input.Username)

	verr := &apperrors.ValidationError{}
	if email == "" {
		verr.Add("email", "is required")
	}
	if username == "" {
		verr.Add("username", "is required")
	}
	for _, reason := range password.Validate(input.Password) {
		verr.Add("password", reason)
	}
	if verr.HasErrors() {
		return nil, nil, verr
	}

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("failed to check email: %w", err)
	}
	if _, err := s.userRepo.FindByUsername(username); err == nil {
		return nil, nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("failed to check username: %w", err)
	}

	hashed, err := password.Hash(input.Password)
	if err != nil {
		return nil, nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: hashed,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		IsActive:     true,
	}

	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race with a concurrent registration; identify the
			// conflicting field for the caller.
			if _, ferr := s.userRepo.FindByEmail(email); ferr == nil {
				return nil, nil, ErrEmailTaken
			}
			return nil, nil, ErrUsernameTaken
		}
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	pair, err := s.issueTokenPair(user)
	if err != nil {
		return nil, nil, err
	}

	s.auditor.Record(models.AuditUserRegistered, user.ID, map[string]interface{}{
		"email": user.Email,
	})

	return user, pair, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
	MFACode  string
}

// Login verifies credentials and issues a fresh token pair. A missing
// account and a wrong password return the same error so callers cannot
// probe which emails are registered.
func (s *AuthService) Login(input LoginInput) (*models.User, *TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !password.Verify(user.PasswordHash, input.Password) {
		return nil, nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, nil, ErrAccountDisabled
	}

	if user.MFAEnabled && input.MFACode == "" {
		return nil, nil, ErrMFARequired
	}
	// TODO: verify the MFA code against the stored secret once
	// enrollment is built; for now a supplied code passes the gate.

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(user); err != nil {
		return nil, nil, fmt.Errorf("failed to update last login: %w", err)
	}

	pair, err := s.issueTokenPair(user)
	if err != nil {
		return nil, nil, err
	}

	s.auditor.Record(models.AuditUserLoggedIn, user.ID, nil)

	return user, pair, nil
}

// Refresh exchanges a refresh token for a new access/refresh pair.
// The presented token is consumed in the same transaction that stores
// its replacement, so a given token can be redeemed at most once even
// under concurrent attempts.
func (s *AuthService) Refresh(refreshToken string) (*TokenPair, error) {
	record, err := s.tokenRepo.Find(refreshToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to find refresh token: %w", err)
	}

	if record.Expired(time.Now()) {
		if err := s.tokenRepo.Delete(record.Token, record.UserID); err != nil {
			return nil, fmt.Errorf("failed to delete expired token: %w", err)
		}
		return nil, ErrRefreshTokenExpired
	}

	user, err := s.userRepo.FindByID(record.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to find token owner: %w", err)
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	opaque, err := auth.NewOpaqueToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	replacement := &models.RefreshToken{
		Token:     opaque,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.refreshTTL),
	}

	if err := s.tokenRepo.Rotate(record.Token, replacement); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Consumed by a concurrent refresh between Find and Rotate.
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	accessToken, err := s.issuer.Sign(user.ID, user.Email, user.Username)
	if err != nil {
		return nil, err
	}

	s.auditor.Record(models.AuditTokenRefreshed, user.ID, nil)

	return &TokenPair{AccessToken: accessToken, RefreshToken: opaque}, nil
}

// Logout invalidates one refresh token belonging to the user. Deletion
// is scoped to the (token, user) pair and is idempotent: logging out an
// unknown or already-invalidated token is not an error.
func (s *AuthService) Logout(userID uint64, refreshToken string) error {
	if err := s.tokenRepo.Delete(refreshToken, userID); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}

	s.auditor.Record(models.AuditUserLoggedOut, userID, nil)
	return nil
}

// ChangePassword verifies the current password, stores a new hash, and
// invalidates every refresh token the user holds so all sessions must
// re-authenticate.
func (s *AuthService) ChangePassword(userID uint64, currentPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	if !password.Verify(user.PasswordHash, currentPassword) {
		return ErrInvalidCredentials
	}

	verr := &apperrors.ValidationError{}
	for _, reason := range password.Validate(newPassword) {
		verr.Add("new_password", reason)
	}
	if verr.HasErrors() {
		return verr
	}

	hashed, err := password.Hash(newPassword)
	if err != nil {
		return ErrFailedToHashPassword
	}

	user.PasswordHash = hashed
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.tokenRepo.DeleteByUser(userID); err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}

	s.auditor.Record(models.AuditPasswordChanged, userID, nil)
	return nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// UpdateProfileInput holds the mutable profile fields.
type UpdateProfileInput struct {
	FirstName   *string
	LastName    *string
	Preferences *models.Preferences
}

// UpdateProfile updates name and accessibility preference fields.
func (s *AuthService) UpdateProfile(userID uint64, input UpdateProfileInput) (*models.User, error) {
	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Preferences != nil {
		user.Preferences = *input.Preferences
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return user, nil
}

func (s *AuthService) issueTokenPair(user *models.User) (*TokenPair, error) {
	accessToken, err := s.issuer.Sign(user.ID, user.Email, user.Username)
	if err != nil {
		return nil, err
	}

	opaque, err := auth.NewOpaqueToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	record := &models.RefreshToken{
		Token:     opaque,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.refreshTTL),
	}
	if err := s.tokenRepo.Create(record); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: opaque}, nil
}
