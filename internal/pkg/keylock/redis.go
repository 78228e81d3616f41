package keylock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// release deletes the key only when it still carries the caller's token.
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type tokenGenerator interface {
	Generate() string
}

// Redis is a Locker backed by SET NX PX leases.
type Redis struct {
	client redis.UniversalClient
	prefix string
	tokens tokenGenerator
}

// NewRedis returns a Redis locker. Keys are stored under "keylock:<key>".
func NewRedis(client redis.UniversalClient, tokens tokenGenerator) *Redis {
	return &Redis{client: client, prefix: "keylock:", tokens: tokens}
}

// TryLock implements Locker.
func (r *Redis) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := r.tokens.Generate()

	ok, err := r.client.SetNX(ctx, r.prefix+key, token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrBusy
	}

	return token, nil
}

// Unlock implements Locker.
func (r *Redis) Unlock(ctx context.Context, key, token string) error {
	n, err := release.Run(ctx, r.client, []string{r.prefix + key}, token).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}
