package session

import (
	"context"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/ccastromar/movie-nlu/internal/logx"
)

// MemoryStore keeps encoded sessions in process. Entries idle for longer than
// the TTL are dropped by Sweep.
type MemoryStore struct {
	mu    sync.RWMutex
	ttl   time.Duration
	items map[string]memItem
	now   func() time.Time
}

type memItem struct {
	data    []byte
	expires time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, items: make(map[string]memItem), now: time.Now}
}

// Sessions are stored encoded so callers never share a live pointer.
func (m *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	it, ok := m.items[id]
	m.mu.RUnlock()
	if !ok || m.expired(it) {
		return nil, ErrNotFound
	}
	var s Session
	if err := sonic.Unmarshal(it.data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	data, err := sonic.Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.items[s.ID] = memItem{data: data, expires: m.now().Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.items, id)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) expired(it memItem) bool {
	return m.ttl > 0 && m.now().After(it.expires)
}

// Sweep removes expired sessions and returns how many went.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, it := range m.items {
		if m.expired(it) {
			delete(m.items, id)
			n++
		}
	}
	return n
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Janitor sweeps every interval until ctx is done.
func (m *MemoryStore) Janitor(ctx context.Context, every time.Duration) error {
	if every <= 0 {
		every = time.Minute
	}
	tick := time.NewTicker(every)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			if n := m.Sweep(); n > 0 {
				logx.Debug("Session", "swept %d expired sessions", n)
			}
		}
	}
}
