package service

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/domain"
	"golang.org/x/sync/semaphore"
)

// KeyedLocker serializes work per key. Each key is backed by a weighted
// semaphore of size one that lives only while someone holds or waits on it.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sem  *semaphore.Weighted
	refs int
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: make(map[string]*keyedLock)}
}

func orgLockKey(orgID string) string             { return "org:" + orgID }
func partitionLockKey(partitionID string) string { return "partition:" + partitionID }

// Lock acquires every key, in sorted order so overlapping key sets cannot
// deadlock, and returns a function releasing all of them. If ctx ends first
// nothing stays held and ctx.Err() is returned.
func (l *KeyedLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = sortedKeys(keys)

	held := make([]string, 0, len(keys))
	for _, k := range keys {
		kl := l.ref(k)
		if err := kl.sem.Acquire(ctx, 1); err != nil {
			l.unref(k)
			l.release(held)
			return nil, err
		}
		held = append(held, k)
	}

	return l.releaseOnce(held), nil
}

// TryLock is Lock without waiting. It reports false when any key is taken.
func (l *KeyedLocker) TryLock(keys ...string) (func(), bool) {
	keys = sortedKeys(keys)

	held := make([]string, 0, len(keys))
	for _, k := range keys {
		kl := l.ref(k)
		if !kl.sem.TryAcquire(1) {
			l.unref(k)
			l.release(held)
			return nil, false
		}
		held = append(held, k)
	}

	return l.releaseOnce(held), true
}

// size reports how many keys are currently tracked.
func (l *KeyedLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func (l *KeyedLocker) ref(key string) *keyedLock {
	l.mu.Lock()
	defer l.mu.Unlock()

	kl, ok := l.locks[key]
	if !ok {
		kl = &keyedLock{sem: semaphore.NewWeighted(1)}
		l.locks[key] = kl
	}
	kl.refs++
	return kl
}

func (l *KeyedLocker) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kl := l.locks[key]
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

func (l *KeyedLocker) release(keys []string) {
	for i := len(keys) - 1; i >= 0; i-- {
		l.mu.Lock()
		kl := l.locks[keys[i]]
		l.mu.Unlock()

		kl.sem.Release(1)
		l.unref(keys[i])
	}
}

func (l *KeyedLocker) releaseOnce(keys []string) func() {
	var once sync.Once
	return func() { once.Do(func() { l.release(keys) }) }
}

func sortedKeys(keys []string) []string {
	out := slices.Clone(keys)
	slices.Sort(out)
	return slices.Compact(out)
}

// acquire locks keys, giving up with domain.ErrBusy after timeout. A zero
// timeout waits as long as ctx allows.
func acquire(ctx context.Context, l *KeyedLocker, timeout time.Duration, keys ...string) (func(), error) {
	lockCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	unlock, err := l.Lock(lockCtx, keys...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domain.ErrBusy
	}
	return unlock, nil
}
