package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/karstgames/savepoint/internal/dependencies/clock"
	"github.com/karstgames/savepoint/internal/model"
)

// Claims is the set of claims carried by an access token. The role claim is a
// snapshot taken at issuance; state-changing operations must re-check the
// stored role rather than trust it.
type Claims struct {
	jwt.RegisteredClaims
	AccountID model.AccountID `json:"id"`
	Username  string          `json:"user"`
	Role      model.Role      `json:"role"`
}

// Config holds configuration for the token service
type Config struct {
	// Domain is the issuer claim; verification requires an exact match
	Domain string
	// Secret is the HMAC-SHA256 signing key
	Secret []byte
	// Lifetime is how long issued tokens stay valid
	Lifetime time.Duration
	// RefreshWindow is how close to expiry a token must be before it can
	// be refreshed
	RefreshWindow time.Duration
	// Leeway expands the validity interval on both ends to absorb clock
	// skew between hosts
	Leeway time.Duration
}

// DefaultConfig returns default token configuration (secret and domain must
// still be provided)
func DefaultConfig() Config {
	return Config{
		Lifetime:      15 * time.Minute,
		RefreshWindow: 30 * time.Second,
		Leeway:        3 * time.Second,
	}
}

// Service issues and verifies signed, time-bounded access tokens. It holds no
// persistent state; tokens are self-contained bearer capabilities with no
// revocation list.
type Service struct {
	cfg   Config
	clock clock.Clock
}

// New creates a new token service
func New(cfg Config, clk clock.Clock) (*Service, error) {
	if cfg.Domain == "" {
		return nil, errors.New("token: domain is required")
	}
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token: secret is required")
	}
	defaults := DefaultConfig()
	if cfg.Lifetime == 0 {
		cfg.Lifetime = defaults.Lifetime
	}
	if cfg.RefreshWindow == 0 {
		cfg.RefreshWindow = defaults.RefreshWindow
	}
	if cfg.Leeway == 0 {
		cfg.Leeway = defaults.Leeway
	}
	return &Service{cfg: cfg, clock: clk}, nil
}

// Issue signs a new token for the given identity
func (s *Service) Issue(username string, role model.Role, id model.AccountID) (string, error) {
	now := s.clock.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Domain,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.Lifetime)),
		},
		AccountID: id,
		Username:  username,
		Role:      role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, issuer, and validity interval of a token and
// returns its claims. Every failure mode collapses to ErrInvalidToken.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return s.cfg.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Domain),
		jwt.WithLeeway(s.cfg.Leeway),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, model.ErrInvalidToken
	}
	return claims, nil
}

// Refresh issues a replacement token for claims nearing expiry. Tokens with
// more than RefreshWindow of validity left are rejected; refresh only buys
// seamless renewal, not indefinite extension on demand.
func (s *Service) Refresh(claims *Claims) (string, error) {
	if claims.ExpiresAt == nil {
		return "", model.ErrInvalidToken
	}
	remaining := claims.ExpiresAt.Time.Sub(s.clock.Now())
	if remaining > s.cfg.RefreshWindow {
		return "", model.ErrTokenNotExpiring
	}
	return s.Issue(claims.Username, claims.Role, claims.AccountID)
}
