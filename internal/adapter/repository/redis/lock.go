package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mimhaad/finance-ledger/internal/domain"
)

// ErrLockLost cancels a locked run whose lock could not be extended.
var ErrLockLost = errors.New("lock lost")

// LockOptions tunes the redsync mutex used by Locker.
type LockOptions struct {
	Expiry     time.Duration
	Tries      int
	RetryDelay time.Duration
}

// DefaultLockOptions fails fast when the lock is held elsewhere.
func DefaultLockOptions() LockOptions {
	return LockOptions{
		Expiry:     2 * time.Minute,
		Tries:      1,
		RetryDelay: 100 * time.Millisecond,
	}
}

// Locker implements usecase.Locker on top of redsync.
type Locker struct {
	rs     *redsync.Redsync
	opts   LockOptions
	prefix string
	logger zerolog.Logger
}

// NewLocker creates a Locker backed by client.
func NewLocker(client redis.UniversalClient, opts LockOptions, logger zerolog.Logger) *Locker {
	return &Locker{
		rs:     redsync.New(goredis.NewPool(client)),
		opts:   opts,
		prefix: "ledger:lock:",
		logger: logger.With().Str("component", "locker").Logger(),
	}
}

// WithLock runs fn while holding key. A lock held by another process is
// reported as domain.ErrSyncInProgress. The lock is extended every third of
// its expiry while fn runs; if an extension fails the context passed to fn is
// cancelled with ErrLockLost.
func (l *Locker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	mutex := l.rs.NewMutex(
		l.prefix+key,
		redsync.WithExpiry(l.opts.Expiry),
		redsync.WithTries(l.opts.Tries),
		redsync.WithRetryDelay(l.opts.RetryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		if isLockContention(err) {
			l.logger.Debug().Str("key", key).Msg("lock held by another process")
			return domain.ErrSyncInProgress
		}
		return fmt.Errorf("acquire lock %s: %w", key, err)
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		l.keepAlive(runCtx, mutex, key, cancel)
	}()

	defer func() {
		cancel(nil)
		<-stopped
		// Use a fresh context so a cancelled caller still releases the lock.
		if ok, err := mutex.UnlockContext(context.WithoutCancel(ctx)); !ok || err != nil {
			l.logger.Warn().Err(err).Str("key", key).Msg("failed to release lock")
		}
	}()

	return fn(runCtx)
}

func (l *Locker) keepAlive(ctx context.Context, mutex *redsync.Mutex, key string, cancel context.CancelCauseFunc) {
	interval := l.opts.Expiry / 3
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ok, err := mutex.ExtendContext(ctx)
			if ctx.Err() != nil {
				return
			}
			if !ok || err != nil {
				l.logger.Error().Err(err).Str("key", key).Msg("lost lock while running")
				cancel(ErrLockLost)
				return
			}
		}
	}
}

func isLockContention(err error) bool {
	return errors.Is(err, redsync.ErrFailed) ||
		strings.Contains(err.Error(), "lock already taken")
}
