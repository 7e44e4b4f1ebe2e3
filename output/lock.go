package output

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// Locker serializes work on one output path, from the duplicate scan to the final move.
type Locker interface {
	Lock(ctx context.Context, path string) (unlock func(), err error)
}

// NoLock accepts the duplicate-name race: two items rendering the same name may both download.
type NoLock struct{}

func (NoLock) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}

// KeyedLocker is an in-process lock per path.
type KeyedLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewKeyedLocker returns an empty KeyedLocker.
func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{slots: make(map[string]chan struct{})}
}

func (k *KeyedLocker) slot(path string) chan struct{} {
	k.mu.Lock()
	defer k.mu.Unlock()

	s, ok := k.slots[path]
	if !ok {
		s = make(chan struct{}, 1)
		k.slots[path] = s
	}
	return s
}

// Lock blocks until path is free or ctx is done.
func (k *KeyedLocker) Lock(ctx context.Context, path string) (func(), error) {
	s := k.slot(filepath.Clean(path))

	select {
	case s <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-s }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// FileLocker extends KeyedLocker across processes with lock files in a directory.
type FileLocker struct {
	keyed *KeyedLocker
	dir   string
	retry time.Duration
}

// NewFileLocker stores lock files in dir. Lock files live on the real filesystem since flock needs file descriptors.
func NewFileLocker(dir string) (*FileLocker, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	return &FileLocker{keyed: NewKeyedLocker(), dir: dir, retry: 100 * time.Millisecond}, nil
}

// Lock takes the in-process lock, then the lock file for path.
func (f *FileLocker) Lock(ctx context.Context, path string) (func(), error) {
	release, err := f.keyed.Lock(ctx, path)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256([]byte(filepath.Clean(path)))
	fl := flock.New(filepath.Join(f.dir, hex.EncodeToString(sum[:])+".lock"))

	locked, err := fl.TryLockContext(ctx, f.retry)
	if err != nil || !locked {
		release()
		if err == nil {
			err = ctx.Err()
		}
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			_ = fl.Unlock()
			release()
		})
	}, nil
}
