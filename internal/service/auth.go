package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/smarttracker/backend/internal/config"
	"github.com/smarttracker/backend/internal/db"
	"github.com/smarttracker/backend/internal/model"
)

// TokenTypeBearer is the token_type constant returned with every pair.
const TokenTypeBearer = "Bearer"

const (
	tokenUseAccess  = "access"
	tokenUseRefresh = "refresh"
)

var ErrMisconfigured = errors.New("auth config invalid")

type AuthService struct {
	repo       UserRepository
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	log        *slog.Logger
}

type authClaims struct {
	TokenUse string `json:"typ"`
	jwt.RegisteredClaims
}

func NewAuthService(repo UserRepository, cfg config.AuthConfig, log *slog.Logger) (*AuthService, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%w: JWT_SECRET is required", ErrMisconfigured)
	}

	accessTTL, err := time.ParseDuration(cfg.JWTAccessTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid JWT_ACCESS_TTL", ErrMisconfigured)
	}

	refreshTTL, err := time.ParseDuration(cfg.JWTRefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid JWT_REFRESH_TTL", ErrMisconfigured)
	}

	return &AuthService{
		repo:       repo,
		jwtSecret:  []byte(cfg.JWTSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		log:        log,
	}, nil
}

// Login verifies the credentials, issues a token pair bound to the
// username subject and records the login time. Distinct internal causes
// (store failure, signing failure) are logged but collapse to the same
// caller-visible authentication failure.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	s.log.Info("authentication attempt", "usernameOrEmail", req.UsernameOrEmail)

	user, err := s.resolveUser(ctx, req.UsernameOrEmail)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, newAuthError("Invalid username or password")
		}
		s.log.Error("user lookup failed during login", "err", err)
		return nil, newAuthError("Authentication failed: " + err.Error())
	}

	if !user.Enabled {
		s.log.Warn("login rejected for disabled account", "username", user.Username)
		return nil, newAuthError("User account is disabled")
	}
	if !user.AccountNonLocked {
		s.log.Warn("login rejected for locked account", "username", user.Username)
		return nil, newAuthError("User account is locked")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.log.Warn("invalid credentials", "username", user.Username)
		return nil, newAuthError("Invalid username or password")
	}

	pair, err := s.issueTokenPair(user.Username)
	if err != nil {
		s.log.Error("token issuance failed", "username", user.Username, "err", err)
		return nil, newAuthError("Authentication failed: " + err.Error())
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.log.Error("failed to record last login", "username", user.Username, "err", err)
		return nil, newAuthError("Authentication failed: " + err.Error())
	}
	user.LastLogin = &now

	s.log.Info("user authenticated", "username", user.Username)

	return &model.LoginResponse{TokenPair: *pair, User: user.ToResponse()}, nil
}

// Refresh validates a refresh token and issues a brand-new pair with the
// same expiry policy as login.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	claims, err := s.parseToken(refreshToken, tokenUseRefresh)
	if err != nil {
		s.log.Warn("refresh token rejected", "err", err)
		return nil, newAuthError("Invalid refresh token")
	}

	user, err := s.repo.FindByUsername(ctx, claims.Subject)
	if err != nil {
		s.log.Warn("refresh token subject did not resolve", "subject", claims.Subject)
		return nil, newAuthError("Invalid refresh token")
	}

	if !user.Enabled || !user.AccountNonLocked {
		return nil, newAuthError("Invalid refresh token")
	}

	pair, err := s.issueTokenPair(user.Username)
	if err != nil {
		s.log.Error("token issuance failed on refresh", "username", user.Username, "err", err)
		return nil, newAuthError("Invalid refresh token")
	}

	s.log.Info("token refreshed", "username", user.Username)

	return pair, nil
}

// Logout has no server-side effect: tokens are stateless and stay valid
// until natural expiry. It exists to acknowledge the client and leave an
// audit line.
func (s *AuthService) Logout(ctx context.Context, username string) {
	s.log.Info("user logged out", "username", username)
}

// CurrentUser returns the projection for an authenticated principal.
func (s *AuthService) CurrentUser(ctx context.Context, username string) (*model.UserResponse, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrUnauthenticated()
		}
		return nil, newInternalError(err)
	}
	resp := user.ToResponse()
	return &resp, nil
}

// ParseAccessToken validates a bearer token and extracts the principal.
// Refresh tokens are not accepted here.
func (s *AuthService) ParseAccessToken(tokenStr string) (*model.AuthUser, error) {
	claims, err := s.parseToken(tokenStr, tokenUseAccess)
	if err != nil {
		return nil, err
	}
	return &model.AuthUser{Username: claims.Subject}, nil
}

// AccessTokenTTL is the lifetime reported as expiresIn.
func (s *AuthService) AccessTokenTTL() time.Duration {
	return s.accessTTL
}

// resolveUser tries the identifier as a username first, then as an email.
func (s *AuthService) resolveUser(ctx context.Context, usernameOrEmail string) (*model.User, error) {
	user, err := s.repo.FindByUsername(ctx, usernameOrEmail)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}
	return s.repo.FindByEmail(ctx, usernameOrEmail)
}

func (s *AuthService) issueTokenPair(username string) (*model.TokenPair, error) {
	accessToken, err := s.signToken(username, tokenUseAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.signToken(username, tokenUseRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

func (s *AuthService) signToken(username, use string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := authClaims{
		TokenUse: use,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) parseToken(tokenStr, wantUse string) (*authClaims, error) {
	claims := &authClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.TokenUse != wantUse {
		return nil, fmt.Errorf("token is not a %s token", wantUse)
	}
	return claims, nil
}
