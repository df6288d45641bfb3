package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sahilchouksey/reddit-scout-api/model"
	authutil "github.com/sahilchouksey/reddit-scout-api/utils/auth"
	"github.com/sahilchouksey/reddit-scout-api/utils/validation"
	"gorm.io/gorm"
)

const (
	// DefaultSessionTimeout is the session validity window when none is configured
	DefaultSessionTimeout = 7 * 24 * time.Hour
	// PasswordResetTimeout is the validity window of a reset token
	PasswordResetTimeout = time.Hour
)

// AuthService orchestrates registration, login, logout and session validation
// over the user and session tables.
type AuthService struct {
	db             *gorm.DB
	sessionTimeout time.Duration
}

// NewAuthService creates a new auth service. sessionTimeoutDays <= 0 selects
// the default 7-day window.
func NewAuthService(db *gorm.DB, sessionTimeoutDays int) *AuthService {
	timeout := DefaultSessionTimeout
	if sessionTimeoutDays > 0 {
		timeout = time.Duration(sessionTimeoutDays) * 24 * time.Hour
	}
	return &AuthService{
		db:             db,
		sessionTimeout: timeout,
	}
}

// RegisterResult reports the outcome of a registration attempt
type RegisterResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	UserID   uint   `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
}

// LoginResult reports the outcome of a login attempt
type LoginResult struct {
	Success      bool      `json:"success"`
	Message      string    `json:"message,omitempty"`
	UserID       uint      `json:"user_id,omitempty"`
	Username     string    `json:"username,omitempty"`
	Email        string    `json:"email,omitempty"`
	SessionToken string    `json:"session_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// SessionInfo reports the state of a session token
type SessionInfo struct {
	Valid     bool      `json:"valid"`
	Message   string    `json:"message,omitempty"`
	UserID    uint      `json:"user_id,omitempty"`
	Username  string    `json:"username,omitempty"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Register validates and creates a new user. Validation happens before any
// storage access; uniqueness is checked in one query and a concurrent
// duplicate racing past it is caught via the unique constraint and translated
// into the same conflict message.
func (s *AuthService) Register(ctx context.Context, username, email, password string) RegisterResult {
	username = validation.SanitizeString(username)
	email = strings.ToLower(validation.SanitizeString(email))

	if ok, msg := validation.ValidateUsername(username); !ok {
		return RegisterResult{Success: false, Message: msg}
	}
	if !validation.ValidateEmail(email) {
		return RegisterResult{Success: false, Message: "Invalid email format"}
	}
	if ok, errs := validation.ValidatePassword(password); !ok {
		return RegisterResult{Success: false, Message: strings.Join(errs, "; ")}
	}

	// Check if user exists (username or email, one query)
	var existing model.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", username, email).
		First(&existing).Error
	if err == nil {
		return RegisterResult{Success: false, Message: conflictMessage(existing.Username == username)}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("User registration failed: %v", err)
		return RegisterResult{Success: false, Message: "Registration failed. Please try again."}
	}

	hash, err := authutil.HashPassword(password)
	if err != nil {
		log.Printf("Password hashing failed: %v", err)
		return RegisterResult{Success: false, Message: "Registration failed. Please try again."}
	}

	user := model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		// A concurrent registration can slip past the existence check; the
		// unique index settles the race and we report the colliding field.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			taken := s.usernameTaken(ctx, username)
			return RegisterResult{Success: false, Message: conflictMessage(taken)}
		}
		log.Printf("User registration failed: %v", err)
		return RegisterResult{Success: false, Message: "Registration failed. Please try again."}
	}

	log.Printf("New user registered: %s", username)
	return RegisterResult{
		Success:  true,
		Message:  "Registration successful",
		UserID:   user.ID,
		Username: user.Username,
	}
}

func conflictMessage(usernameConflict bool) string {
	if usernameConflict {
		return "Username already exists"
	}
	return "Email already registered"
}

func (s *AuthService) usernameTaken(ctx context.Context, username string) bool {
	var count int64
	s.db.WithContext(ctx).Model(&model.User{}).Where("username = ?", username).Count(&count)
	return count > 0
}

// FindByUsernameOrEmail looks up a user by either identifier. Email lookup is
// case-insensitive because emails are stored lowercase.
func (s *AuthService) FindByUsernameOrEmail(ctx context.Context, identifier string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", identifier, strings.ToLower(identifier)).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Login authenticates by username or email and mints a new session. Unknown
// identifier and wrong password produce the same generic message so the
// endpoint cannot be used to enumerate accounts.
func (s *AuthService) Login(ctx context.Context, identifier, password, userAgent, ipAddress string) LoginResult {
	user, err := s.FindByUsernameOrEmail(ctx, validation.SanitizeString(identifier))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("User login failed: %v", err)
		}
		return LoginResult{Success: false, Message: "Invalid credentials"}
	}

	if !user.IsActive {
		return LoginResult{Success: false, Message: "Account is disabled"}
	}

	if !authutil.CheckPassword(password, user.PasswordHash) {
		return LoginResult{Success: false, Message: "Invalid credentials"}
	}

	token, err := authutil.GenerateSessionToken()
	if err != nil {
		log.Printf("User login failed: %v", err)
		return LoginResult{Success: false, Message: "Login failed. Please try again."}
	}
	expiresAt := time.Now().Add(s.sessionTimeout)

	// Session creation and last-login update commit or roll back together so
	// a session row never exists without its bookkeeping.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session := model.Session{
			UserID:       user.ID,
			SessionToken: token,
			ExpiresAt:    expiresAt,
			UserAgent:    userAgent,
			IPAddress:    ipAddress,
		}
		if err := tx.Create(&session).Error; err != nil {
			return err
		}
		now := time.Now()
		return tx.Model(&model.User{}).Where("id = ?", user.ID).
			Update("last_login", now).Error
	})
	if err != nil {
		log.Printf("User login failed: %v", err)
		return LoginResult{Success: false, Message: "Login failed. Please try again."}
	}

	log.Printf("User logged in: %s", user.Username)
	return LoginResult{
		Success:      true,
		UserID:       user.ID,
		Username:     user.Username,
		Email:        user.Email,
		SessionToken: token,
		ExpiresAt:    expiresAt,
	}
}

// ValidateSession checks a token against the session table. A session is
// valid iff the row exists, the expiry is in the future and the owning
// account is active.
func (s *AuthService) ValidateSession(ctx context.Context, token string) SessionInfo {
	if token == "" {
		return SessionInfo{Valid: false, Message: "No session token provided"}
	}

	var session model.Session
	err := s.db.WithContext(ctx).Preload("User").
		Where("session_token = ? AND expires_at > ?", token, time.Now()).
		First(&session).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Session validation failed: %v", err)
			return SessionInfo{Valid: false, Message: "Session validation failed"}
		}
		return SessionInfo{Valid: false, Message: "Invalid or expired session"}
	}

	if !session.User.IsActive {
		return SessionInfo{Valid: false, Message: "Account is disabled"}
	}

	return SessionInfo{
		Valid:     true,
		UserID:    session.UserID,
		Username:  session.User.Username,
		Email:     session.User.Email,
		ExpiresAt: session.ExpiresAt,
	}
}

// Logout revokes a session by deleting its row. Idempotent: revoking an
// unknown token is a no-op returning false.
func (s *AuthService) Logout(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}

	result := s.db.WithContext(ctx).
		Where("session_token = ?", token).
		Delete(&model.Session{})
	if result.Error != nil {
		log.Printf("Logout failed: %v", result.Error)
		return false
	}
	if result.RowsAffected > 0 {
		log.Printf("User logged out: session %s...", token[:min(10, len(token))])
		return true
	}
	return false
}

// CleanupExpiredSessions bulk-deletes sessions whose expiry has passed and
// returns the number removed. Intended to be driven by the cron manager or
// the cleanup command.
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at <= ?", time.Now()).
		Delete(&model.Session{})
	if result.Error != nil {
		return 0, fmt.Errorf("session cleanup failed: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		log.Printf("Cleaned up %d expired sessions", result.RowsAffected)
	}
	return result.RowsAffected, nil
}

// GetUserSessions returns a user's currently valid sessions for the
// "active devices" view.
func (s *AuthService) GetUserSessions(ctx context.Context, userID uint) ([]model.Session, error) {
	var sessions []model.Session
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND expires_at > ?", userID, time.Now()).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get user sessions: %w", err)
	}
	return sessions, nil
}

// DeactivateUser soft-disables an account. Existing session rows stay until
// the sweep but validate as invalid immediately.
func (s *AuthService) DeactivateUser(ctx context.Context, userID uint) error {
	result := s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RequestPasswordReset mints a single-use reset token for the account behind
// the email. Returns the token and true when the account exists; callers must
// present the same generic message either way.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, bool) {
	user, err := s.FindByUsernameOrEmail(ctx, strings.ToLower(email))
	if err != nil || !user.IsActive {
		return "", false
	}

	reset := model.PasswordResetToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(PasswordResetTimeout),
	}
	if err := s.db.WithContext(ctx).Create(&reset).Error; err != nil {
		log.Printf("Password reset request failed: %v", err)
		return "", false
	}
	return reset.Token, true
}

// ResetPassword consumes a reset token, replaces the password hash and
// revokes every session the user holds, atomically.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) RegisterResult {
	if ok, errs := validation.ValidatePassword(newPassword); !ok {
		return RegisterResult{Success: false, Message: strings.Join(errs, "; ")}
	}

	var reset model.PasswordResetToken
	err := s.db.WithContext(ctx).
		Where("token = ?", token).
		First(&reset).Error
	if err != nil || reset.IsExpired() || reset.IsUsed() {
		return RegisterResult{Success: false, Message: "Invalid or expired reset token"}
	}

	hash, err := authutil.HashPassword(newPassword)
	if err != nil {
		return RegisterResult{Success: false, Message: "Password reset failed. Please try again."}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.User{}).Where("id = ?", reset.UserID).
			Update("password_hash", hash).Error; err != nil {
			return err
		}
		reset.MarkAsUsed()
		if err := tx.Save(&reset).Error; err != nil {
			return err
		}
		// Changing the password invalidates every open session
		return tx.Where("user_id = ?", reset.UserID).Delete(&model.Session{}).Error
	})
	if err != nil {
		log.Printf("Password reset failed: %v", err)
		return RegisterResult{Success: false, Message: "Password reset failed. Please try again."}
	}

	return RegisterResult{Success: true, Message: "Password updated", UserID: reset.UserID}
}

// CleanupExpiredResetTokens purges used or expired reset tokens
func (s *AuthService) CleanupExpiredResetTokens(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at <= ? OR used_at IS NOT NULL", time.Now()).
		Delete(&model.PasswordResetToken{})
	return result.RowsAffected, result.Error
}
