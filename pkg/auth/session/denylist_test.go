package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mu     sync.Mutex
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *mockStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return nil
}

func (m *mockStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) RevokedTokenKey(jti string) string {
	return "revoked:" + jti
}

func newTestDenylist(store *mockStore) *Denylist {
	return &Denylist{store: store, keyer: store}
}

func TestDenylistRevokeAndCheck(t *testing.T) {
	store := newMockStore()
	list := newTestDenylist(store)
	ctx := context.Background()

	revoked, err := list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, list.Revoke(ctx, "jti-1", time.Minute))
	assert.Equal(t, time.Minute, store.ttls["revoked:jti-1"])

	revoked, err = list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestDenylistSkipsExpiredTokens(t *testing.T) {
	store := newMockStore()
	list := newTestDenylist(store)

	require.NoError(t, list.Revoke(context.Background(), "jti-1", 0))
	assert.Empty(t, store.data)
}

func TestDenylistValidatesInput(t *testing.T) {
	list := newTestDenylist(newMockStore())
	require.Error(t, list.Revoke(context.Background(), " ", time.Minute))
	_, err := list.IsRevoked(context.Background(), "")
	require.Error(t, err)
}

func TestDenylistPropagatesStoreErrors(t *testing.T) {
	store := newMockStore()
	store.getErr = errors.New("connection refused")
	_, err := newTestDenylist(store).IsRevoked(context.Background(), "jti-1")
	require.ErrorContains(t, err, "connection refused")
}

func TestNewDenylistRequiresClient(t *testing.T) {
	_, err := NewDenylist(nil)
	require.Error(t, err)
}
