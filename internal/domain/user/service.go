// internal/domain/user/service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Kyac99/finance-gestion-app/internal/domain/shared"
	"github.com/Kyac99/finance-gestion-app/internal/pkg/auth"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// TokenRevoker remembers revoked token ids until they would have expired
type TokenRevoker interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// Service handles staff accounts and their sessions
type Service struct {
	db        *gorm.DB
	jwt       *auth.JWTManager
	passwords *auth.PasswordManager
	revoker   TokenRevoker
	log       logrus.FieldLogger
	clock     shared.Clock
}

// NewService creates a new user service. revoker may be nil, in which case
// logout cannot invalidate tokens before they expire.
func NewService(db *gorm.DB, jwt *auth.JWTManager, passwords *auth.PasswordManager, revoker TokenRevoker, log logrus.FieldLogger) *Service {
	return &Service{
		db:        db,
		jwt:       jwt,
		passwords: passwords,
		revoker:   revoker,
		log:       log,
		clock:     time.Now,
	}
}

// WithClock replaces the time source
func (s *Service) WithClock(clock shared.Clock) *Service {
	s.clock = clock
	return s
}

var errBadCredentials = shared.Unauthorized("invalid email or password")

// LoginRequest represents user login data
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries the refresh token to exchange
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest optionally carries the refresh token to revoke with the access token
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// CreateUserRequest represents staff account creation data
type CreateUserRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name" binding:"max=100"`
	LastName  string `json:"last_name" binding:"max=100"`
	IsAdmin   bool   `json:"is_admin"`
}

// UpdateProfileRequest represents profile update data
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,max=100"`
	LastName  *string `json:"last_name" binding:"omitempty,max=100"`
}

// ChangePasswordRequest represents a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// StatusRequest activates or deactivates an account
type StatusRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// ListRequest represents user list query parameters
type ListRequest struct {
	shared.ListRequest
	Role string `form:"role" binding:"omitempty,oneof=admin staff"`
}

// ListResponse represents a page of users
type ListResponse struct {
	Users      []User            `json:"users"`
	Pagination shared.Pagination `json:"pagination"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User   *User           `json:"user"`
	Tokens *auth.TokenPair `json:"tokens"`
}

var userSort = shared.SortSpec{
	Fields: map[string]string{
		"email":         "email",
		"created_at":    "created_at",
		"last_login_at": "last_login_at",
	},
	DefaultField: "created_at",
	DefaultOrder: "desc",
}

// Login checks the credentials of an active account and issues tokens
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	var user User
	err := s.db.WithContext(ctx).
		Where("email = ? AND is_active = ?", NormalizeEmail(req.Email), true).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errBadCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.passwords.VerifyPassword(req.Password, user.Password); err != nil {
		s.log.WithField("user_id", user.ID).Warn("Rejected login with wrong password")
		return nil, errBadCredentials
	}

	tokens, err := s.jwt.GeneratePair(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}

	now := s.clock.Now()
	if err := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", user.ID).Update("last_login_at", now).Error; err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	user.LastLoginAt = &now

	s.log.WithField("user_id", user.ID).Info("User logged in")
	return &AuthResponse{User: &user, Tokens: tokens}, nil
}

// Refresh exchanges a valid refresh token for a new pair. The old refresh
// token is revoked when a revoker is configured.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, shared.Unauthorized("invalid refresh token")
	}
	if err := s.ensureNotRevoked(ctx, claims); err != nil {
		return nil, err
	}

	var user User
	err = s.db.WithContext(ctx).Where("id = ? AND is_active = ?", claims.UserID, true).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.Unauthorized("user not found or inactive")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	tokens, err := s.jwt.GeneratePair(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}
	if err := s.revoke(ctx, claims); err != nil {
		return nil, err
	}

	return &AuthResponse{User: &user, Tokens: tokens}, nil
}

// Logout revokes the access token behind claims and, when given, the
// refresh token of the same session.
func (s *Service) Logout(ctx context.Context, claims *auth.Claims, refreshToken string) error {
	if s.revoker == nil {
		s.log.WithField("user_id", claims.UserID).Warn("Logout without token store, tokens stay valid until expiry")
		return nil
	}

	if err := s.revoke(ctx, claims); err != nil {
		return err
	}
	if refreshToken != "" {
		refreshClaims, err := s.jwt.ValidateRefreshToken(refreshToken)
		if err != nil || refreshClaims.UserID != claims.UserID {
			return shared.Invalid("invalid refresh token")
		}
		if err := s.revoke(ctx, refreshClaims); err != nil {
			return err
		}
	}

	s.log.WithField("user_id", claims.UserID).Info("User logged out")
	return nil
}

// IsRevoked reports whether the token behind claims was logged out
func (s *Service) IsRevoked(ctx context.Context, claims *auth.Claims) (bool, error) {
	if s.revoker == nil || claims.ID == "" {
		return false, nil
	}
	return s.revoker.IsTokenRevoked(ctx, claims.ID)
}

func (s *Service) ensureNotRevoked(ctx context.Context, claims *auth.Claims) error {
	revoked, err := s.IsRevoked(ctx, claims)
	if err != nil {
		return fmt.Errorf("failed to check token: %w", err)
	}
	if revoked {
		return shared.Unauthorized("token has been revoked")
	}
	return nil
}

func (s *Service) revoke(ctx context.Context, claims *auth.Claims) error {
	if s.revoker == nil || claims.ID == "" {
		return nil
	}
	ttl := s.jwt.RemainingTTL(claims)
	if ttl <= 0 {
		return nil
	}
	if err := s.revoker.RevokeToken(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// GetProfile gets an active user by ID
func (s *Service) GetProfile(ctx context.Context, userID uint) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", userID, true).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NotFound("user")
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return &user, nil
}

// UpdateProfile applies the non-nil fields of req
func (s *Service) UpdateProfile(ctx context.Context, userID uint, req *UpdateProfileRequest) (*User, error) {
	if _, err := s.GetProfile(ctx, userID); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update profile: %w", err)
		}
	}

	return s.GetProfile(ctx, userID)
}

// ChangePassword replaces the password after verifying the current one
func (s *Service) ChangePassword(ctx context.Context, userID uint, req *ChangePasswordRequest) error {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.passwords.VerifyPassword(req.CurrentPassword, user.Password); err != nil {
		return shared.Invalid("current password is incorrect")
	}
	if err := s.passwords.ValidatePassword(req.NewPassword); err != nil {
		return shared.Invalid("%s", err.Error())
	}

	hash, err := s.passwords.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Update("password", hash).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.log.WithField("user_id", userID).Info("Password changed")
	return nil
}

// CreateUser creates a staff account
func (s *Service) CreateUser(ctx context.Context, req *CreateUserRequest) (*User, error) {
	if err := s.passwords.ValidatePassword(req.Password); err != nil {
		return nil, shared.Invalid("%s", err.Error())
	}

	hash, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := User{
		Email:     req.Email,
		Password:  hash,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		IsActive:  true,
		IsAdmin:   req.IsAdmin,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, shared.Conflict("a user with email %s already exists", user.Email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"is_admin": user.IsAdmin,
	}).Info("User created")
	return &user, nil
}

// EnsureAdmin creates an administrator with the given credentials unless an
// account with that email already exists. It reports whether one was created.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&User{}).Where("email = ?", NormalizeEmail(email)).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to look up admin: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	_, err := s.CreateUser(ctx, &CreateUserRequest{
		Email:     email,
		Password:  password,
		FirstName: "Admin",
		IsAdmin:   true,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListUsers lists accounts with search on email and name
func (s *Service) ListUsers(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	req.Normalize()

	query := s.db.WithContext(ctx).Model(&User{})
	switch req.Role {
	case "admin":
		query = query.Where("is_admin = ?", true)
	case "staff":
		query = query.Where("is_admin = ?", false)
	}
	if req.Search != "" {
		search := req.SearchPattern()
		query = query.Where("LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", search, search, search)
	}

	users := []User{}
	pagination, err := shared.Paginate(query, &req.ListRequest, userSort.OrderClause(req.SortBy, req.SortOrder)+", id desc", &users)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return &ListResponse{Users: users, Pagination: pagination}, nil
}

// SetActive activates or deactivates an account. Admins cannot deactivate themselves.
func (s *Service) SetActive(ctx context.Context, actorID, userID uint, active bool) (*User, error) {
	if actorID == userID && !active {
		return nil, shared.InvalidState("you cannot deactivate your own account")
	}

	result := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Update("is_active", active)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update user status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, shared.NotFound("user")
	}

	var user User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"user_id":   userID,
		"is_active": active,
		"actor_id":  actorID,
	}).Info("User status changed")
	return &user, nil
}
