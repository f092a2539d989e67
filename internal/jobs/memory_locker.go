package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/google/uuid"
)

type heldLock struct {
	token     string
	expiresAt time.Time
}

// MemoryLocker keeps run-locks in process. Suitable for a single node.
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]heldLock
	clock func() time.Time
}

// NewMemoryLocker creates an in-process locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		held:  make(map[string]heldLock),
		clock: time.Now,
	}
}

var _ Locker = (*MemoryLocker)(nil)

// Acquire takes key unless an unexpired holder has it.
func (l *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if h, ok := l.held[key]; ok && now.Before(h.expiresAt) {
		return nil, fmt.Errorf("%s: %w", key, apperrors.ErrJobRunning)
	}
	token := uuid.NewString()
	l.held[key] = heldLock{token: token, expiresAt: now.Add(ttl)}
	return &memoryLock{locker: l, key: key, token: token}, nil
}

type memoryLock struct {
	locker *MemoryLocker
	key    string
	token  string
}

// Release drops the lock unless it expired and was taken over.
func (m *memoryLock) Release(ctx context.Context) error {
	m.locker.mu.Lock()
	defer m.locker.mu.Unlock()
	if h, ok := m.locker.held[m.key]; ok && h.token == m.token {
		delete(m.locker.held, m.key)
	}
	return nil
}
