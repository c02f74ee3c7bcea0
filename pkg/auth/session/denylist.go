package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redisclient "github.com/TetyanaPavlyuk/library-api-service/pkg/redis"
	redislib "github.com/redis/go-redis/v9"
)

type denylistStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
}

type denylistKeyer interface {
	RevokedTokenKey(jti string) string
}

// RevocationChecker exposes the read-only surface needed by middleware.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Denylist tracks access tokens revoked before their expiry. The identity
// provider writes entries on logout; the API only reads them.
type Denylist struct {
	store denylistStore
	keyer denylistKeyer
}

// NewDenylist constructs a denylist backed by Redis.
func NewDenylist(client *redisclient.Client) (*Denylist, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &Denylist{store: client, keyer: client}, nil
}

// Revoke denylists the token id until ttl elapses. Callers pass the token's
// remaining lifetime so entries expire with the token.
func (d *Denylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if strings.TrimSpace(jti) == "" {
		return fmt.Errorf("token id is required")
	}
	if ttl <= 0 {
		return nil
	}
	return d.store.Set(ctx, d.keyer.RevokedTokenKey(jti), "1", ttl)
}

// IsRevoked reports whether the token id has been denylisted.
func (d *Denylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if strings.TrimSpace(jti) == "" {
		return false, fmt.Errorf("token id is required")
	}
	if _, err := d.store.Get(ctx, d.keyer.RevokedTokenKey(jti)); err != nil {
		if errors.Is(err, redislib.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
