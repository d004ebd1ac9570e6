// Package window implements a fixed-window request counter shared between service instances.
package window

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RedisCounter считает запросы в фиксированном окне через INCR + PEXPIRE
type RedisCounter struct {
	rdb redis.Scripter
}

// NewRedisCounter создает счётчик поверх клиента Redis
func NewRedisCounter(rdb redis.Scripter) *RedisCounter {
	return &RedisCounter{rdb: rdb}
}

// Incr увеличивает счётчик key и возвращает его значение в текущем окне
func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	ms := window.Milliseconds()
	if ms <= 0 {
		ms = time.Minute.Milliseconds()
	}

	res, err := fixedWindowScript.Run(ctx, c.rdb, []string{key}, ms).Result()
	if err != nil {
		return 0, fmt.Errorf("window: incr %s: %w", key, err)
	}

	switch v := res.(type) {
	case int64:
		return v, nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("window: parse counter %q: %w", v, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("window: unexpected script result type %T", res)
	}
}
