package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenauth/token-service/internal/domain"
)

func seedUser(t *testing.T, users *memoryUsers, username string) *domain.User {
	t.Helper()
	email := username + "@example.com"
	user := &domain.User{Username: username, Name: "Test", Email: &email}
	require.NoError(t, users.Create(context.Background(), user, []domain.Authority{domain.AuthorityUser}))
	return user
}

func TestPrincipalServiceLoadByUsername(t *testing.T) {
	users := newMemoryUsers()
	user := seedUser(t, users, "kim")
	cache := newMemoryCache()
	svc := NewPrincipalService(users, cache, nil)

	p, err := svc.LoadByUsername(context.Background(), "kim")
	require.NoError(t, err)
	assert.Equal(t, user.ID, p.UserID)
	assert.Equal(t, []domain.Authority{domain.AuthorityUser}, p.Authorities)
	assert.Contains(t, cache.entries, "kim")
	assert.Equal(t, 1, users.lookups)

	again, err := svc.LoadByUsername(context.Background(), "kim")
	require.NoError(t, err)
	assert.Same(t, p, again)
	assert.Equal(t, 1, users.lookups, "second load is served from cache")

	require.NoError(t, svc.Evict(context.Background(), "kim"))
	assert.NotContains(t, cache.entries, "kim")
}

func TestPrincipalServiceCacheErrorFallsThrough(t *testing.T) {
	users := newMemoryUsers()
	seedUser(t, users, "lee")
	cache := newMemoryCache()
	cache.getErr = errors.New("redis down")

	p, err := NewPrincipalService(users, cache, nil).LoadByUsername(context.Background(), "lee")
	require.NoError(t, err)
	assert.Equal(t, "lee", p.Username)
}

func TestPrincipalServiceNotFound(t *testing.T) {
	svc := NewPrincipalService(newMemoryUsers(), nil, nil)

	_, err := svc.LoadByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.NoError(t, svc.Evict(context.Background(), "ghost"))
}
