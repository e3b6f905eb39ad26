package service

import (
	"context"
	"encoding/base64"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tokenauth/token-service/internal/auth"
	"github.com/tokenauth/token-service/internal/domain"
)

var testSecret = base64.StdEncoding.EncodeToString([]byte(strings.Repeat("s", 32)))

type memoryUsers struct {
	mu          sync.Mutex
	users       []*domain.User
	authorities map[string][]domain.Authority
	lookups     int
	failWith    error
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{authorities: map[string][]domain.Authority{}}
}

func (m *memoryUsers) Create(_ context.Context, user *domain.User, authorities []domain.Authority) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username || sameOptional(u.Email, user.Email) || sameOptional(u.Phone, user.Phone) {
			return domain.ErrUserExists
		}
	}
	user.ID = strconv.Itoa(len(m.users) + 1)
	m.users = append(m.users, user)
	m.authorities[user.ID] = authorities
	return nil
}

func (m *memoryUsers) FindByPhone(_ context.Context, phone string) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.Phone != nil && *u.Phone == phone })
}

func (m *memoryUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.Email != nil && strings.EqualFold(*u.Email, email) })
}

func (m *memoryUsers) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.Username == username })
}

func (m *memoryUsers) Authorities(_ context.Context, userID string) ([]domain.Authority, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authorities[userID], nil
}

func (m *memoryUsers) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == userID {
			u.PasswordHash = passwordHash
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (m *memoryUsers) find(match func(*domain.User) bool) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, u := range m.users {
		if match(u) {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func sameOptional(a, b *string) bool {
	return a != nil && b != nil && *a == *b
}

type memoryCache struct {
	entries map[string]*domain.Principal
	getErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]*domain.Principal{}}
}

func (c *memoryCache) Get(_ context.Context, username string) (*domain.Principal, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	p, ok := c.entries[username]
	return p, ok, nil
}

func (c *memoryCache) Set(_ context.Context, principal *domain.Principal) error {
	c.entries[principal.Username] = principal
	return nil
}

func (c *memoryCache) Delete(_ context.Context, username string) error {
	delete(c.entries, username)
	return nil
}

func newTokenService(t *testing.T, users *memoryUsers, principals *PrincipalService) *auth.TokenService {
	t.Helper()
	tokens, err := auth.NewTokenService(testSecret, users, principals)
	require.NoError(t, err)
	return tokens
}
