package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/smarttracker/backend/internal/config"
	"github.com/smarttracker/backend/internal/db"
	"github.com/smarttracker/backend/internal/model"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:     "test-secret",
		JWTAccessTTL:  "15m",
		JWTRefreshTTL: "168h",
	}
}

func newTestAuthService(t *testing.T, repo UserRepository) *AuthService {
	t.Helper()
	svc, err := NewAuthService(repo, testAuthConfig(), testLogger())
	require.NoError(t, err)
	return svc
}

// registerTestUser seeds alice/Str0ngP@ss! through the registration workflow.
func registerTestUser(t *testing.T, repo *db.Memory) {
	t.Helper()
	users := NewUserService(repo, testLogger())
	_, err := users.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)
}

func TestNewAuthServiceConfig(t *testing.T) {
	repo := db.NewMemory()

	cfg := testAuthConfig()
	cfg.JWTSecret = ""
	_, err := NewAuthService(repo, cfg, testLogger())
	assert.ErrorIs(t, err, ErrMisconfigured)

	cfg = testAuthConfig()
	cfg.JWTAccessTTL = "not-a-duration"
	_, err = NewAuthService(repo, cfg, testLogger())
	assert.ErrorIs(t, err, ErrMisconfigured)
}

func TestLoginSuccess(t *testing.T) {
	repo := db.NewMemory()
	registerTestUser(t, repo)
	auth := newTestAuthService(t, repo)

	before := time.Now().UTC()
	resp, err := auth.Login(context.Background(), model.LoginRequest{
		UsernameOrEmail: "alice",
		Password:        "Str0ngP@ss!",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, TokenTypeBearer, resp.TokenType)
	assert.Equal(t, int64(900), resp.ExpiresIn)
	assert.Equal(t, "alice", resp.User.Username)

	require.NotNil(t, resp.User.LastLogin)
	assert.False(t, resp.User.LastLogin.Before(before))

	stored, err := repo.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, stored.LastLogin)
}

func TestLoginByEmail(t *testing.T) {
	repo := db.NewMemory()
	registerTestUser(t, repo)
	auth := newTestAuthService(t, repo)

	resp, err := auth.Login(context.Background(), model.LoginRequest{
		UsernameOrEmail: "alice@example.com",
		Password:        "Str0ngP@ss!",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.User.Username)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := db.NewMemory()
	registerTestUser(t, repo)
	auth := newTestAuthService(t, repo)

	_, err := auth.Login(context.Background(), model.LoginRequest{
		UsernameOrEmail: "alice",
		Password:        "wrong-password",
	})
	var appErr *Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, KindAuthentication, appErr.Kind)
	assert.Equal(t, "Invalid username or password", appErr.Message)
}

func TestLoginUnknownUser(t *testing.T) {
	repo := db.NewMemory()
	auth := newTestAuthService(t, repo)

	_, err := auth.Login(context.Background(), model.LoginRequest{
		UsernameOrEmail: "nobody",
		Password:        "whatever123",
	})
	var appErr *Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, KindAuthentication, appErr.Kind)
	assert.Equal(t, "Invalid username or password", appErr.Message)
}

func seedUserWithFlags(t *testing.T, repo *db.Memory, username string, enabled, nonLocked bool) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("Str0ngP@ss!"), bcrypt.DefaultCost)
	require.NoError(t, err)
	_, err = repo.Save(context.Background(), &model.User{
		Username:              username,
		Email:                 username + "@example.com",
		PasswordHash:          string(hash),
		Enabled:               enabled,
		AccountNonLocked:      nonLocked,
		AccountNonExpired:     true,
		CredentialsNonExpired: true,
	})
	require.NoError(t, err)
}

func TestLoginDisabledAccount(t *testing.T) {
	repo := db.NewMemory()
	seedUserWithFlags(t, repo, "carol", false, true)
	auth := newTestAuthService(t, repo)

	_, err := auth.Login(context.Background(), model.LoginRequest{
		UsernameOrEmail: "carol",
		Password:        "Str0ngP@ss!",
	})
	var appErr *Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, KindAuthentication, appErr.Kind)
	assert.Equal(t, "User account is disabled", appErr.Message)
}

func TestLoginLockedAccount(t *testing.T) {
	repo := db.NewMemory()
	seedUserWithFlags(t, repo, "dave", true, false)
	auth := newTestAuthService(t, repo)

	_, err := auth.Login(context.Background(), model.LoginRequest{
		UsernameOrEmail: "dave",
		Password:        "Str0ngP@ss!",
	})
	var appErr *Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "User account is locked", appErr.Message)
}

func TestRefreshIssuesNewPair(t *testing.T) {
	repo := db.NewMemory()
	registerTestUser(t, repo)
	auth := newTestAuthService(t, repo)

	login, err := auth.Login(context.Background(), model.LoginRequest{
		UsernameOrEmail: "alice",
		Password:        "Str0ngP@ss!",
	})
	require.NoError(t, err)

	pair, err := auth.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, TokenTypeBearer, pair.TokenType)
	assert.Equal(t, int64(900), pair.ExpiresIn)

	// The new access token is usable.
	principal, err := auth.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", principal.Username)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	repo := db.NewMemory()
	registerTestUser(t, repo)
	auth := newTestAuthService(t, repo)

	login, err := auth.Login(context.Background(), model.LoginRequest{
		UsernameOrEmail: "alice",
		Password:        "Str0ngP@ss!",
	})
	require.NoError(t, err)

	_, err = auth.Refresh(context.Background(), login.AccessToken)
	var appErr *Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Invalid refresh token", appErr.Message)
}

func TestRefreshUnresolvableSubject(t *testing.T) {
	seeded := db.NewMemory()
	registerTestUser(t, seeded)
	issuing := newTestAuthService(t, seeded)

	login, err := issuing.Login(context.Background(), model.LoginRequest{
		UsernameOrEmail: "alice",
		Password:        "Str0ngP@ss!",
	})
	require.NoError(t, err)

	// Same signing key, different store: the subject resolves to nothing.
	validating := newTestAuthService(t, db.NewMemory())
	_, err = validating.Refresh(context.Background(), login.RefreshToken)
	var appErr *Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, KindAuthentication, appErr.Kind)
	assert.Equal(t, "Invalid refresh token", appErr.Message)
}

func TestRefreshMalformedToken(t *testing.T) {
	auth := newTestAuthService(t, db.NewMemory())

	_, err := auth.Refresh(context.Background(), "not.a.jwt")
	var appErr *Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Invalid refresh token", appErr.Message)
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	repo := db.NewMemory()
	registerTestUser(t, repo)
	auth := newTestAuthService(t, repo)

	login, err := auth.Login(context.Background(), model.LoginRequest{
		UsernameOrEmail: "alice",
		Password:        "Str0ngP@ss!",
	})
	require.NoError(t, err)

	cfg := testAuthConfig()
	cfg.JWTSecret = "a-different-secret"
	other, err := NewAuthService(repo, cfg, testLogger())
	require.NoError(t, err)

	_, err = other.ParseAccessToken(login.AccessToken)
	assert.Error(t, err)
}

func TestCurrentUser(t *testing.T) {
	repo := db.NewMemory()
	registerTestUser(t, repo)
	auth := newTestAuthService(t, repo)

	user, err := auth.CurrentUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = auth.CurrentUser(context.Background(), "ghost")
	var appErr *Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, KindUnauthenticated, appErr.Kind)
}
