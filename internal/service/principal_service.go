package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/tokenauth/token-service/internal/domain"
	"github.com/tokenauth/token-service/internal/repository"
)

// PrincipalCache is a best-effort store of loaded principals.
type PrincipalCache interface {
	Get(ctx context.Context, username string) (*domain.Principal, bool, error)
	Set(ctx context.Context, principal *domain.Principal) error
	Delete(ctx context.Context, username string) error
}

// PrincipalService loads principals, with their authorities, by username.
type PrincipalService struct {
	users  repository.UserRepository
	cache  PrincipalCache
	logger *zap.Logger
}

// NewPrincipalService builds the service. cache may be nil.
func NewPrincipalService(users repository.UserRepository, cache PrincipalCache, logger *zap.Logger) *PrincipalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrincipalService{users: users, cache: cache, logger: logger}
}

// LoadByUsername returns the principal for username or domain.ErrUserNotFound.
// Cache failures are logged and fall through to the repository.
func (s *PrincipalService) LoadByUsername(ctx context.Context, username string) (*domain.Principal, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, username)
		if err != nil {
			s.logger.Warn("principal cache read failed", zap.String("username", username), zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	authorities, err := s.users.Authorities(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	principal := domain.NewPrincipal(user, authorities)

	if s.cache != nil {
		if err := s.cache.Set(ctx, principal); err != nil {
			s.logger.Warn("principal cache write failed", zap.String("username", username), zap.Error(err))
		}
	}
	return principal, nil
}

// Evict drops a cached principal.
func (s *PrincipalService) Evict(ctx context.Context, username string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, username)
}
