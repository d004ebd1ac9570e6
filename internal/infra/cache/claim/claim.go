// Package claim provides short-lived send claims so that two overlapping reminder
// sweeps rarely call the notification gateway for the same reminder at once.
// A claim is only an optimisation: exactly-once marking is guaranteed by the
// conditional insert in the appointment store, never by this package.
package claim

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

const defaultPrefix = "reminder-claim"

// releaseScript удаляет ключ, только если он всё ещё принадлежит владельцу токена
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// ReleaseFunc освобождает захваченный claim
type ReleaseFunc func(ctx context.Context)

// RedisClaimer захватывает claim через SET NX PX
type RedisClaimer struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
}

// NewRedisClaimer создает claimer. ttl должен перекрывать время одной отправки
func NewRedisClaimer(rdb redis.Cmdable, ttl time.Duration) *RedisClaimer {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisClaimer{rdb: rdb, ttl: ttl, prefix: defaultPrefix}
}

// Claim пытается захватить право отправки напоминания reminderType для записи.
// ok = false означает, что отправкой уже занимается другой прогон
func (c *RedisClaimer) Claim(ctx context.Context, appointmentID int64, reminderType domain.ReminderType) (ReleaseFunc, bool, error) {
	key := Key(c.prefix, appointmentID, reminderType)
	token := uuid.NewString()

	ok, err := c.rdb.SetNX(ctx, key, token, c.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("claim: set %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) {
		// Ошибка освобождения не критична: ключ истечёт по TTL
		_ = releaseScript.Run(ctx, c.rdb, []string{key}, token).Err()
	}
	return release, true, nil
}

// Key формирует ключ claim
func Key(prefix string, appointmentID int64, reminderType domain.ReminderType) string {
	return fmt.Sprintf("%s:%d:%s", prefix, appointmentID, reminderType)
}

// NoopClaimer всегда выдаёт claim. Используется, когда Redis выключен
type NoopClaimer struct{}

func (NoopClaimer) Claim(context.Context, int64, domain.ReminderType) (ReleaseFunc, bool, error) {
	return func(context.Context) {}, true, nil
}
