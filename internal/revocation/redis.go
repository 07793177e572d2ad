package revocation

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore backs revocation state with a shared Redis, for deployments
// running more than one server instance.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func key(userID string) string {
	return "revocation:user:" + userID
}

func (s *RedisStore) SetUserCutoff(ctx context.Context, userID string, ttl time.Duration) error {
	return s.client.Set(ctx, key(userID), time.Now().UTC().Format(time.RFC3339Nano), ttl).Err()
}

func (s *RedisStore) UserCutoff(ctx context.Context, userID string) (time.Time, error) {
	val, err := s.client.Get(ctx, key(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, val)
}

// NewRedisClient builds a client from addr/password/db, pinging with a
// short timeout. Returns nil when the server is unreachable so callers can
// fall back to the in-process store.
func NewRedisClient(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}
	return client
}
