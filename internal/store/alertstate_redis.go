package store

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

// alertStateCASScript sets the new state only when the stored value still
// equals the expected one ("" means no key). Running it server-side makes
// the write-or-update a single atomic operation, not a read-modify-write
// split across a network round trip.
const alertStateCASScript = `
local cur = redis.call("GET", KEYS[1])
if cur == false then cur = "" end
if cur == ARGV[1] then
  redis.call("SET", KEYS[1], ARGV[2])
  return 1
end
return 0
`

// RedisAlertState stores the last-alert state in redis so that cooldown
// enforcement survives process restarts and multiple workers.
type RedisAlertState struct {
	client *redis.Client
	script *redis.Script
}

func NewRedisAlertState(ctx context.Context, url string) (*RedisAlertState, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisAlertState{
		client: client,
		script: redis.NewScript(alertStateCASScript),
	}, nil
}

func (r *RedisAlertState) key(scope string) string {
	return "windalert:last_alert:" + scope
}

func (r *RedisAlertState) Get(ctx context.Context, scope string) (*AlertState, error) {
	v, err := r.client.Get(ctx, r.key(scope)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeAlertState(v)
}

func (r *RedisAlertState) CompareAndSet(ctx context.Context, scope string, prev *AlertState, next AlertState) (bool, error) {
	res, err := r.script.Run(ctx, r.client,
		[]string{r.key(scope)},
		encodeAlertState(prev), encodeAlertState(&next),
	).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

// Close releases the underlying connection pool.
func (r *RedisAlertState) Close() error {
	return r.client.Close()
}
