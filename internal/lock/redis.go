package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"netbaseline/internal/types"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript resets the expiry only while the key still holds our token
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisConfig represents the distributed lock configuration
type RedisConfig struct {
	Prefix        string
	TTL           time.Duration
	RetryInterval time.Duration
	WaitTimeout   time.Duration

	// RefreshInterval defaults to a third of TTL
	RefreshInterval time.Duration
}

// RedisLocker implements Locker with SET NX PX, a token checked lease
// refresh and a token checked release
type RedisLocker struct {
	client *redis.Client
	cfg    RedisConfig
	logger *zap.Logger
}

// NewRedisLocker creates new Redis backed locker
func NewRedisLocker(client *redis.Client, cfg RedisConfig, logger *zap.Logger) *RedisLocker {
	if cfg.Prefix == "" {
		cfg.Prefix = "netbaseline:lock:"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 200 * time.Millisecond
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = cfg.TTL
	}
	if cfg.RefreshInterval <= 0 || cfg.RefreshInterval >= cfg.TTL {
		cfg.RefreshInterval = cfg.TTL / 3
	}

	return &RedisLocker{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// Acquire polls until the key is set or the wait budget is spent. The lease
// is refreshed while held; the returned context is cancelled with
// types.ErrLockLost once the lease can no longer be guaranteed.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (context.Context, func(), error) {
	redisKey := l.cfg.Prefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.cfg.WaitTimeout)

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.cfg.TTL).Result()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, nil, fmt.Errorf("lock %s: %w", key, types.ErrLockNotAcquired)
		}
		if err := waitRetry(ctx, l.cfg.RetryInterval); err != nil {
			return nil, nil, err
		}
	}
	acquired := time.Now()

	lease, cancel := context.WithCancelCause(ctx)
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		l.refresh(lease, cancel, stop, key, redisKey, token, acquired)
	}()

	var once sync.Once
	return lease, func() {
		once.Do(func() {
			close(stop)
			<-done
			cancel(context.Canceled)

			// The caller's ctx may already be done
			ctx, cancelRelease := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelRelease()

			if err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil {
				l.logger.Warn("Failed to release lock",
					zap.String("key", key),
					zap.Error(err))
			}
		})
	}, nil
}

// refresh extends the lease every RefreshInterval. The lease is cancelled
// when another holder owns the key or when no refresh succeeded within TTL.
func (l *RedisLocker) refresh(lease context.Context, cancel context.CancelCauseFunc, stop <-chan struct{}, key, redisKey, token string, lastExtended time.Time) {
	ticker := time.NewTicker(l.cfg.RefreshInterval)
	defer ticker.Stop()

	ttl := l.cfg.TTL.Milliseconds()
	for {
		select {
		case <-stop:
			return
		case <-lease.Done():
			return
		case <-ticker.C:
		}

		ctx, cancelExtend := context.WithTimeout(context.Background(), l.cfg.RefreshInterval)
		n, err := extendScript.Run(ctx, l.client, []string{redisKey}, token, ttl).Int()
		cancelExtend()

		switch {
		case err == nil && n == 1:
			lastExtended = time.Now()
		case err == nil:
			l.logger.Error("Lock taken over by another holder", zap.String("key", key))
			cancel(fmt.Errorf("lock %s: %w", key, types.ErrLockLost))
			return
		default:
			l.logger.Warn("Failed to extend lock", zap.String("key", key), zap.Error(err))
			// Stop before the last extension can lapse
			if time.Since(lastExtended)+l.cfg.RefreshInterval >= l.cfg.TTL {
				cancel(fmt.Errorf("lock %s: %w", key, types.ErrLockLost))
				return
			}
		}
	}
}

var _ Locker = (*RedisLocker)(nil)
