package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the lock only when the caller still owns it,
// so an expired holder cannot release a successor's lock.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Locker is a best-effort leader lock on Redis. When Redis is not
// configured the scheduler runs unlocked, which is fine for a single
// instance.
type Locker struct {
	client *redis.Client
	log    *zap.Logger
}

func NewLocker(client *redis.Client, log *zap.Logger) *Locker {
	if client == nil {
		return nil
	}
	return &Locker{client: client, log: log.Named("scheduler.locker")}
}

// TryAcquire attempts to take the named lock for ttl. On success it
// returns a release func bound to this holder's token.
func (l *Locker) TryAcquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool) {
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		// Redis being down must not stall invoicing; run unlocked.
		l.log.Warn("lock acquire failed, proceeding without lock", zap.Error(err))
		return func() {}, true
	}
	if !acquired {
		return nil, false
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
			l.log.Warn("lock release failed", zap.String("key", key), zap.Error(err))
		}
	}, true
}
