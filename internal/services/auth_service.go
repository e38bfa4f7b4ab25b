package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yukikurage/task-graphql-api/internal/auth"
	"github.com/yukikurage/task-graphql-api/internal/models"
	"github.com/yukikurage/task-graphql-api/internal/observability"
	"github.com/yukikurage/task-graphql-api/internal/ratelimit"
	"github.com/yukikurage/task-graphql-api/internal/repository"
	"github.com/yukikurage/task-graphql-api/internal/security"
	"gorm.io/gorm"
)

// AuthService handles credentials and the token lifecycle.
type AuthService struct {
	userRepo   repository.UserRepository
	tokenRepo  repository.RefreshTokenRepository
	jwt        *auth.Manager
	limiter    ratelimit.Limiter
	loginLimit int
	prom       *observability.Prom
	log        *slog.Logger
}

// AuthServiceOption customizes an AuthService.
type AuthServiceOption func(*AuthService)

// WithLoginLimiter caps login attempts per username.
func WithLoginLimiter(limiter ratelimit.Limiter, limit int) AuthServiceOption {
	return func(s *AuthService) {
		s.limiter = limiter
		s.loginLimit = limit
	}
}

func WithAuthMetrics(prom *observability.Prom) AuthServiceOption {
	return func(s *AuthService) {
		s.prom = prom
	}
}

func WithAuthLogger(log *slog.Logger) AuthServiceOption {
	return func(s *AuthService) {
		s.log = log
	}
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, tokenRepo repository.RefreshTokenRepository, jwt *auth.Manager, opts ...AuthServiceOption) *AuthService {
	s := &AuthService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		jwt:       jwt,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TokenPair is what a successful login or refresh hands back.
type TokenPair struct {
	Token            string
	RefreshToken     string
	Payload          map[string]interface{}
	RefreshExpiresIn int64

	refreshJTI string
}

// Authenticate verifies credentials. Unknown users and wrong passwords are
// indistinguishable to the caller.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	if s.limiter != nil {
		if d := s.limiter.Allow(ctx, "login:"+username, s.loginLimit); !d.Allowed {
			s.prom.ObserveAuth("login", "rate_limited")
			return nil, ErrRateLimited
		}
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.prom.ObserveAuth("login", "invalid_credentials")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := security.CheckPassword(user.PasswordHash, password); err != nil {
		s.prom.ObserveAuth("login", "invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		s.prom.ObserveAuth("login", "inactive")
		return nil, ErrInactiveAccount
	}

	return user, nil
}

// Login authenticates and issues a fresh token pair.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.User, *TokenPair, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.IssueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.prom.ObserveAuth("login", "ok")
	s.log.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return user, pair, nil
}

// IssueTokenPair signs a new access token and a new refresh token and stores
// the refresh token's hash.
func (s *AuthService) IssueTokenPair(ctx context.Context, user *models.User) (*TokenPair, error) {
	var pair *TokenPair
	err := s.tokenRepo.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		pair, err = s.issue(ctx, tx, user, 0)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// IssueTokenPairTx is IssueTokenPair inside a caller-owned transaction.
func (s *AuthService) IssueTokenPairTx(ctx context.Context, tx *gorm.DB, user *models.User) (*TokenPair, error) {
	return s.issue(ctx, tx, user, 0)
}

func (s *AuthService) issue(ctx context.Context, tx *gorm.DB, user *models.User, origIat int64) (*TokenPair, error) {
	access, claims, err := s.jwt.GenerateAccessToken(user.ID, user.Username, origIat)
	if err != nil {
		return nil, err
	}

	refresh, refreshClaims, err := s.jwt.GenerateRefreshToken(user.ID, user.Username, claims.OrigIat)
	if err != nil {
		return nil, err
	}

	row := &models.RefreshToken{
		ID:        refreshClaims.ID,
		UserID:    user.ID,
		TokenHash: s.jwt.HashRefreshToken(refresh),
		ExpiresAt: refreshClaims.ExpiresAt.Time,
	}
	if err := s.tokenRepo.Create(ctx, tx, row); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenPair{
		Token:            access,
		RefreshToken:     refresh,
		Payload:          claims.Payload(),
		RefreshExpiresIn: refreshClaims.ExpiresAt.Unix(),
		refreshJTI:       refreshClaims.ID,
	}, nil
}

// VerifyAccessToken returns the claims of a valid access token.
func (s *AuthService) VerifyAccessToken(token string) (*auth.Claims, error) {
	return s.jwt.VerifyAccessToken(token)
}

// ResolveIdentity verifies an access token and loads its user with groups.
func (s *AuthService) ResolveIdentity(ctx context.Context, token string) (*auth.Identity, error) {
	claims, err := s.jwt.VerifyAccessToken(token)
	if err != nil {
		return nil, err
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	user, err := s.activeUser(ctx, userID, "Groups")
	if err != nil {
		return nil, err
	}
	return auth.NewIdentity(user), nil
}

// Refresh consumes a refresh token and returns a new pair. The stored row is
// locked so only one of two concurrent refreshes can succeed.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwt.VerifyRefreshToken(refreshToken)
	if err != nil {
		s.prom.ObserveAuth("refresh", "invalid")
		return nil, err
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	user, err := s.activeUser(ctx, userID)
	if err != nil {
		s.prom.ObserveAuth("refresh", "inactive")
		return nil, err
	}

	var pair *TokenPair
	err = s.tokenRepo.Transaction(ctx, func(tx *gorm.DB) error {
		row, err := s.tokenRepo.GetForUpdate(ctx, tx, claims.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return auth.ErrTokenInvalid
			}
			return fmt.Errorf("failed to load refresh token: %w", err)
		}

		switch {
		case row.Revoked():
			// reuse of a rotated token
			s.log.WarnContext(ctx, "revoked refresh token presented", "jti", row.ID, "user_id", row.UserID)
			return auth.ErrTokenInvalid
		case row.TokenHash != s.jwt.HashRefreshToken(refreshToken), row.UserID != userID:
			return auth.ErrTokenInvalid
		case time.Now().UTC().After(row.ExpiresAt):
			return auth.ErrTokenExpired
		}

		pair, err = s.issue(ctx, tx, user, claims.OrigIat)
		if err != nil {
			return err
		}

		return s.tokenRepo.Revoke(ctx, tx, row.ID, &pair.refreshJTI)
	})
	if err != nil {
		s.prom.ObserveAuth("refresh", "error")
		return nil, err
	}

	s.prom.ObserveAuth("refresh", "ok")
	return pair, nil
}

// Revoke marks a refresh token as unusable. Revoking an already revoked or
// expired token succeeds with revoked=false.
func (s *AuthService) Revoke(ctx context.Context, refreshToken string) (bool, error) {
	claims, err := s.jwt.VerifyRefreshToken(refreshToken)
	if errors.Is(err, auth.ErrTokenExpired) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	revoked := false
	err = s.tokenRepo.Transaction(ctx, func(tx *gorm.DB) error {
		row, err := s.tokenRepo.GetForUpdate(ctx, tx, claims.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return auth.ErrTokenInvalid
			}
			return fmt.Errorf("failed to load refresh token: %w", err)
		}
		if row.TokenHash != s.jwt.HashRefreshToken(refreshToken) {
			return auth.ErrTokenInvalid
		}
		if row.Revoked() {
			return nil
		}
		revoked = true
		return s.tokenRepo.Revoke(ctx, tx, row.ID, nil)
	})
	if err != nil {
		return false, err
	}

	s.prom.ObserveAuth("revoke", "ok")
	return revoked, nil
}

// RevokeAll revokes every outstanding refresh token of the user.
func (s *AuthService) RevokeAll(ctx context.Context, userID uint64) error {
	if err := s.tokenRepo.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	return nil
}

func (s *AuthService) activeUser(ctx context.Context, id uint64, preload ...string) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserInactiveOrMissing
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrUserInactiveOrMissing
	}
	return user, nil
}
