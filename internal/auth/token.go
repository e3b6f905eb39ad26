package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/tokenauth/token-service/internal/config"
	"github.com/tokenauth/token-service/internal/domain"
)

const (
	// AccessTokenSubject is the fixed sub claim of every issued token.
	AccessTokenSubject = "AccessToken"
	// AccessTokenTTL is the lifetime of an issued token.
	AccessTokenTTL = 24 * time.Hour

	bearerPrefix = "Bearer "
)

// ErrInvalidToken is returned when a token cannot be parsed or verified.
var ErrInvalidToken = errors.New("invalid token")

// UserLookup resolves an identity hint to a stored user. Implementations
// return domain.ErrUserNotFound when nothing matches.
type UserLookup interface {
	FindByPhone(ctx context.Context, phone string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}

// IdentityLoader rebuilds a principal, with its authorities, from a username.
type IdentityLoader interface {
	LoadByUsername(ctx context.Context, username string) (*domain.Principal, error)
}

// Claims describes the JWT payload.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenService issues and validates signed session tokens.
// It holds no mutable state and is safe for concurrent use.
type TokenService struct {
	key        []byte
	users      UserLookup
	identities IdentityLoader
	now        func() time.Time
}

// TokenOption customizes a TokenService.
type TokenOption func(*TokenService)

// WithClock overrides the time source used for issuing and validating.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewTokenService decodes the base64 secret into the signing key.
func NewTokenService(secret string, users UserLookup, identities IdentityLoader, opts ...TokenOption) (*TokenService, error) {
	key, err := config.DecodeSecret(secret)
	if err != nil {
		return nil, err
	}
	s := &TokenService{
		key:        key,
		users:      users,
		identities: identities,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IssueToken signs a token for the identity hint (phone, email or username).
// The hint is resolved to a canonical username by phone, then by email, and
// used verbatim when neither matches.
func (s *TokenService) IssueToken(ctx context.Context, identityHint string) (string, time.Time, error) {
	username, err := s.resolveUsername(ctx, identityHint)
	if err != nil {
		return "", time.Time{}, err
	}

	expiresAt := jwt.NewNumericDate(s.now().Add(AccessTokenTTL))
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   AccessTokenSubject,
			ExpiresAt: expiresAt,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt.Time, nil
}

func (s *TokenService) resolveUsername(ctx context.Context, hint string) (string, error) {
	lookups := []struct {
		name string
		find func(context.Context, string) (*domain.User, error)
	}{
		{"phone", s.users.FindByPhone},
		{"email", s.users.FindByEmail},
	}
	for _, l := range lookups {
		user, err := l.find(ctx, hint)
		if err == nil && user != nil {
			return user.Username, nil
		}
		if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
			return "", fmt.Errorf("lookup user by %s: %w", l.name, err)
		}
	}
	return hint, nil
}

// ValidateToken reports whether the signature verifies and the token has not expired.
func (s *TokenService) ValidateToken(token string) bool {
	return s.Inspect(token) == domain.TokenValid
}

// Inspect classifies a token as valid, expired or invalid. A token whose
// signature does not verify is invalid regardless of its expiry.
func (s *TokenService) Inspect(token string) domain.TokenStatus {
	claims, err := s.verifySignature(token)
	if err != nil {
		return domain.TokenInvalid
	}
	if err := s.validator().Validate(claims); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.TokenExpired
		}
		return domain.TokenInvalid
	}
	return domain.TokenValid
}

// ResolveIdentity verifies the token, reads its username claim and loads the principal.
func (s *TokenService) ResolveIdentity(ctx context.Context, token string) (*domain.Principal, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}
	return s.identities.LoadByUsername(ctx, claims.Username)
}

// Authenticate validates the token and, when valid, loads its principal.
// Expired and invalid tokens are reported through the result status; the
// error is reserved for identity loading failures.
func (s *TokenService) Authenticate(ctx context.Context, token string) (domain.AuthResult, error) {
	if status := s.Inspect(token); status != domain.TokenValid {
		return domain.AuthResult{Status: status}, nil
	}

	principal, err := s.ResolveIdentity(ctx, token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return domain.AuthResult{Status: domain.TokenInvalid}, nil
		}
		return domain.AuthResult{}, err
	}
	return domain.AuthResult{Status: domain.TokenValid, Principal: principal}, nil
}

// StripAuthPrefix returns the token carried in a "Bearer " header value.
func (s *TokenService) StripAuthPrefix(headerValue string) string {
	return StripAuthPrefix(headerValue)
}

// StripAuthPrefix returns what follows the "Bearer " prefix, or "" when the
// value is empty or carries another scheme.
func StripAuthPrefix(headerValue string) string {
	if strings.TrimSpace(headerValue) == "" || !strings.HasPrefix(headerValue, bearerPrefix) {
		return ""
	}
	return headerValue[len(bearerPrefix):]
}

func (s *TokenService) parse(token string) (*Claims, error) {
	claims, err := s.verifySignature(token)
	if err != nil {
		return nil, err
	}
	if err := s.validator().Validate(claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Username == "" {
		return nil, fmt.Errorf("%w: missing username claim", ErrInvalidToken)
	}
	return claims, nil
}

// verifySignature checks structure, algorithm and signature only.
func (s *TokenService) verifySignature(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return s.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("%w: unexpected claims", ErrInvalidToken)
	}
	return claims, nil
}

func (s *TokenService) validator() *jwt.Validator {
	return jwt.NewValidator(jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.now))
}
