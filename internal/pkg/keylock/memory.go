package keylock

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
)

type lease struct {
	token   string
	expires time.Time
}

// Memory is an in-process Locker for single instance deployments and tests.
type Memory struct {
	mu     sync.Mutex
	leases map[string]lease
	clock  clock.Clocker
	seq    atomic.Uint64
}

// NewMemory returns an empty in-process locker.
func NewMemory(clk clock.Clocker) *Memory {
	return &Memory{leases: make(map[string]lease), clock: clk}
}

// TryLock implements Locker.
func (m *Memory) TryLock(_ context.Context, key string, ttl time.Duration) (string, error) {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.leases[key]; ok && now.Before(cur.expires) {
		return "", ErrBusy
	}

	token := strconv.FormatUint(m.seq.Inc(), 10)
	m.leases[key] = lease{token: token, expires: now.Add(ttl)}

	return token, nil
}

// Unlock implements Locker.
func (m *Memory) Unlock(_ context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.leases[key]
	if !ok || cur.token != token {
		return ErrNotHeld
	}
	delete(m.leases, key)

	return nil
}
