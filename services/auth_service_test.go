package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sahilchouksey/reddit-scout-api/model"
	"gorm.io/gorm"
)

const testPassword = "Sup3rSecret"

func registerTestUser(t *testing.T, svc *AuthService, username, email string) RegisterResult {
	t.Helper()
	result := svc.Register(context.Background(), username, email, testPassword)
	if !result.Success {
		t.Fatalf("registration of %s failed: %s", username, result.Message)
	}
	return result
}

func TestRegisterAndLogin(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, 7)
	ctx := context.Background()

	result := registerTestUser(t, svc, "alice", "Alice@Example.COM")
	if result.UserID == 0 {
		t.Fatal("registration returned zero user ID")
	}

	// Email is stored lowercase
	var user model.User
	if err := db.First(&user, result.UserID).Error; err != nil {
		t.Fatalf("failed to load user: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("stored email = %q, want lowercase", user.Email)
	}
	if user.PasswordHash == testPassword {
		t.Error("password stored in plaintext")
	}

	// Login by username
	login := svc.Login(ctx, "alice", testPassword, "go-test", "127.0.0.1")
	if !login.Success {
		t.Fatalf("login by username failed: %s", login.Message)
	}
	if login.SessionToken == "" {
		t.Fatal("login returned no session token")
	}
	if !login.ExpiresAt.After(time.Now().Add(6 * 24 * time.Hour)) {
		t.Errorf("session expiry %v not near the 7-day window", login.ExpiresAt)
	}

	// Login by email, any case
	if res := svc.Login(ctx, "ALICE@example.com", testPassword, "", ""); !res.Success {
		t.Errorf("login by email failed: %s", res.Message)
	}

	// last_login was touched
	if err := db.First(&user, result.UserID).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if user.LastLogin == nil {
		t.Error("last_login not set after login")
	}
}

func TestRegisterValidation(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, 7)
	ctx := context.Background()

	cases := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"short username", "ab", "a@b.com", testPassword},
		{"bad username chars", "has space", "a@b.com", testPassword},
		{"bad email", "gooduser", "not-an-email", testPassword},
		{"weak password", "gooduser", "a@b.com", "alllowercase"},
		{"short password", "gooduser", "a@b.com", "Ab1"},
	}
	for _, tc := range cases {
		if result := svc.Register(ctx, tc.username, tc.email, tc.password); result.Success {
			t.Errorf("%s: registration unexpectedly succeeded", tc.name)
		}
	}

	var count int64
	db.Model(&model.User{}).Count(&count)
	if count != 0 {
		t.Errorf("invalid registrations created %d users", count)
	}
}

func TestRegisterConflicts(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, 7)
	ctx := context.Background()

	registerTestUser(t, svc, "alice", "alice@example.com")

	if result := svc.Register(ctx, "alice", "other@example.com", testPassword); result.Success {
		t.Error("duplicate username accepted")
	} else if result.Message != "Username already exists" {
		t.Errorf("username conflict message = %q", result.Message)
	}

	if result := svc.Register(ctx, "alice2", "alice@example.com", testPassword); result.Success {
		t.Error("duplicate email accepted")
	} else if result.Message != "Email already registered" {
		t.Errorf("email conflict message = %q", result.Message)
	}

	var count int64
	db.Model(&model.User{}).Count(&count)
	if count != 1 {
		t.Errorf("user count = %d, want 1", count)
	}
}

func TestLoginEnumerationResistance(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, 7)
	ctx := context.Background()

	registerTestUser(t, svc, "alice", "alice@example.com")

	unknownUser := svc.Login(ctx, "nobody", testPassword, "", "")
	wrongPassword := svc.Login(ctx, "alice", "WrongPass1", "", "")

	if unknownUser.Success || wrongPassword.Success {
		t.Fatal("bad login succeeded")
	}
	if unknownUser.Message != wrongPassword.Message {
		t.Errorf("distinguishable failure messages: %q vs %q", unknownUser.Message, wrongPassword.Message)
	}
	if unknownUser.Message != "Invalid credentials" {
		t.Errorf("failure message = %q, want generic", unknownUser.Message)
	}
}

func TestLoginDisabledAccount(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, 7)
	ctx := context.Background()

	result := registerTestUser(t, svc, "alice", "alice@example.com")
	if err := svc.DeactivateUser(ctx, result.UserID); err != nil {
		t.Fatalf("DeactivateUser failed: %v", err)
	}

	login := svc.Login(ctx, "alice", testPassword, "", "")
	if login.Success {
		t.Fatal("disabled account logged in")
	}
	if login.Message != "Account is disabled" {
		t.Errorf("message = %q, want account-disabled", login.Message)
	}
}

func TestValidateSession(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, 7)
	ctx := context.Background()

	result := registerTestUser(t, svc, "alice", "alice@example.com")
	login := svc.Login(ctx, "alice", testPassword, "", "")
	if !login.Success {
		t.Fatalf("login failed: %s", login.Message)
	}

	info := svc.ValidateSession(ctx, login.SessionToken)
	if !info.Valid {
		t.Fatalf("fresh session invalid: %s", info.Message)
	}
	if info.UserID != result.UserID || info.Username != "alice" || info.Email != "alice@example.com" {
		t.Errorf("session info mismatch: %+v", info)
	}

	if info := svc.ValidateSession(ctx, ""); info.Valid {
		t.Error("empty token validated")
	}
	if info := svc.ValidateSession(ctx, "no-such-token"); info.Valid {
		t.Error("unknown token validated")
	}
}

func TestValidateSessionExpiry(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, 7)
	ctx := context.Background()

	result := registerTestUser(t, svc, "alice", "alice@example.com")

	expired := model.Session{
		UserID:       result.UserID,
		SessionToken: "expired-token",
		ExpiresAt:    time.Now().Add(-time.Minute),
	}
	if err := db.Create(&expired).Error; err != nil {
		t.Fatalf("failed to insert expired session: %v", err)
	}

	info := svc.ValidateSession(ctx, "expired-token")
	if info.Valid {
		t.Error("expired session validated")
	}
	if info.Message != "Invalid or expired session" {
		t.Errorf("expired session message = %q", info.Message)
	}
}

func TestValidateSessionDisabledAccount(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, 7)
	ctx := context.Background()

	result := registerTestUser(t, svc, "alice", "alice@example.com")
	login := svc.Login(ctx, "alice", testPassword, "", "")
	if !login.Success {
		t.Fatalf("login failed: %s", login.Message)
	}

	// Disabling the account invalidates live sessions immediately
	if err := svc.DeactivateUser(ctx, result.UserID); err != nil {
		t.Fatalf("DeactivateUser failed: %v", err)
	}

	info := svc.ValidateSession(ctx, login.SessionToken)
	if info.Valid {
		t.Error("session for disabled account validated")
	}
	if info.Message != "Account is disabled" {
		t.Errorf("message = %q, want account-disabled", info.Message)
	}
}

func TestLogoutIdempotent(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, 7)
	ctx := context.Background()

	registerTestUser(t, svc, "alice", "alice@example.com")
	login := svc.Login(ctx, "alice", testPassword, "", "")
	if !login.Success {
		t.Fatalf("login failed: %s", login.Message)
	}

	if !svc.Logout(ctx, login.SessionToken) {
		t.Fatal("logout of a live session returned false")
	}
	if svc.ValidateSession(ctx, login.SessionToken).Valid {
		t.Error("token still validates after logout")
	}
	if svc.Logout(ctx, login.SessionToken) {
		t.Error("second logout of the same token returned true")
	}
	if svc.Logout(ctx, "never-existed") {
		t.Error("logout of an unknown token returned true")
	}
}

func TestCleanupExpiredSessions(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, 7)
	ctx := context.Background()

	result := registerTestUser(t, svc, "alice", "alice@example.com")
	login := svc.Login(ctx, "alice", testPassword, "", "")
	if !login.Success {
		t.Fatalf("login failed: %s", login.Message)
	}

	for i, age := range []time.Duration{time.Minute, time.Hour, 24 * time.Hour} {
		session := model.Session{
			UserID:       result.UserID,
			SessionToken: strings.Repeat("x", i+1),
			ExpiresAt:    time.Now().Add(-age),
		}
		if err := db.Create(&session).Error; err != nil {
			t.Fatalf("failed to insert expired session: %v", err)
		}
	}

	removed, err := svc.CleanupExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("CleanupExpiredSessions failed: %v", err)
	}
	if removed != 3 {
		t.Errorf("removed %d sessions, want 3", removed)
	}

	// The live session survived
	if !svc.ValidateSession(ctx, login.SessionToken).Valid {
		t.Error("cleanup removed a live session")
	}

	// Second sweep removes nothing
	removed, err = svc.CleanupExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("second cleanup failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("second sweep removed %d sessions, want 0", removed)
	}
}

func TestGetUserSessions(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, 7)
	ctx := context.Background()

	result := registerTestUser(t, svc, "alice", "alice@example.com")

	for i := 0; i < 2; i++ {
		if res := svc.Login(ctx, "alice", testPassword, "", ""); !res.Success {
			t.Fatalf("login failed: %s", res.Message)
		}
	}
	expired := model.Session{
		UserID:       result.UserID,
		SessionToken: "stale",
		ExpiresAt:    time.Now().Add(-time.Hour),
	}
	if err := db.Create(&expired).Error; err != nil {
		t.Fatalf("failed to insert expired session: %v", err)
	}

	sessions, err := svc.GetUserSessions(ctx, result.UserID)
	if err != nil {
		t.Fatalf("GetUserSessions failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Errorf("got %d sessions, want 2 live ones", len(sessions))
	}
}

func TestPasswordResetFlow(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, 7)
	ctx := context.Background()

	registerTestUser(t, svc, "alice", "alice@example.com")
	login := svc.Login(ctx, "alice", testPassword, "", "")
	if !login.Success {
		t.Fatalf("login failed: %s", login.Message)
	}

	// Unknown email issues nothing
	if _, issued := svc.RequestPasswordReset(ctx, "nobody@example.com"); issued {
		t.Error("reset token issued for unknown email")
	}

	token, issued := svc.RequestPasswordReset(ctx, "alice@example.com")
	if !issued || token == "" {
		t.Fatal("reset token not issued for a known email")
	}

	// Weak replacement password is rejected and the token survives
	if result := svc.ResetPassword(ctx, token, "weak"); result.Success {
		t.Fatal("weak password accepted by reset")
	}

	result := svc.ResetPassword(ctx, token, "N3wPassword")
	if !result.Success {
		t.Fatalf("reset failed: %s", result.Message)
	}

	// All sessions were revoked
	if svc.ValidateSession(ctx, login.SessionToken).Valid {
		t.Error("old session survived a password reset")
	}

	// Old password no longer works, new one does
	if svc.Login(ctx, "alice", testPassword, "", "").Success {
		t.Error("old password still accepted")
	}
	if res := svc.Login(ctx, "alice", "N3wPassword", "", ""); !res.Success {
		t.Errorf("new password rejected: %s", res.Message)
	}

	// The token is single-use
	if result := svc.ResetPassword(ctx, token, "An0therPass"); result.Success {
		t.Error("reset token accepted twice")
	}
}

func TestResetPasswordExpiredToken(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, 7)
	ctx := context.Background()

	result := registerTestUser(t, svc, "alice", "alice@example.com")

	stale := model.PasswordResetToken{
		UserID:    result.UserID,
		Token:     "stale-token",
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	if err := db.Create(&stale).Error; err != nil {
		t.Fatalf("failed to insert token: %v", err)
	}

	if res := svc.ResetPassword(ctx, "stale-token", "N3wPassword"); res.Success {
		t.Error("expired reset token accepted")
	}
}

func TestCleanupExpiredResetTokens(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, 7)
	ctx := context.Background()

	result := registerTestUser(t, svc, "alice", "alice@example.com")

	used := model.PasswordResetToken{
		UserID:    result.UserID,
		Token:     "used",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	used.MarkAsUsed()
	expired := model.PasswordResetToken{
		UserID:    result.UserID,
		Token:     "expired",
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	live := model.PasswordResetToken{
		UserID:    result.UserID,
		Token:     "live",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	for _, tok := range []*model.PasswordResetToken{&used, &expired, &live} {
		if err := db.Create(tok).Error; err != nil {
			t.Fatalf("failed to insert token: %v", err)
		}
	}

	removed, err := svc.CleanupExpiredResetTokens(ctx)
	if err != nil {
		t.Fatalf("CleanupExpiredResetTokens failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed %d tokens, want 2", removed)
	}

	var remaining []model.PasswordResetToken
	if err := db.Find(&remaining).Error; err != nil {
		t.Fatalf("failed to list tokens: %v", err)
	}
	if len(remaining) != 1 || remaining[0].Token != "live" {
		t.Errorf("surviving tokens: %+v", remaining)
	}
}

func TestDeactivateUnknownUser(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, 7)

	if err := svc.DeactivateUser(context.Background(), 9999); err != gorm.ErrRecordNotFound {
		t.Errorf("DeactivateUser(unknown) error = %v, want ErrRecordNotFound", err)
	}
}
