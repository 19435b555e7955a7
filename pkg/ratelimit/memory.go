package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

const defaultShards = 32

type shard struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

// MemoryStore keeps entries for the life of the process. Identifiers are
// spread over independently locked shards so unrelated callers do not
// contend. Entries are never evicted.
type MemoryStore struct {
	shards []*shard
	now    func() time.Time
}

type MemoryOption func(*MemoryStore)

func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

func WithShards(n int) MemoryOption {
	return func(s *MemoryStore) {
		if n > 0 {
			s.shards = newShards(n)
		}
	}
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		shards: newShards(defaultShards),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newShards(n int) []*shard {
	shards := make([]*shard, n)
	for i := range shards {
		shards[i] = &shard{entries: make(map[string]*Entry)}
	}
	return shards
}

func (s *MemoryStore) shardFor(identifier string) *shard {
	return s.shards[xxhash.Sum64String(identifier)%uint64(len(s.shards))]
}

func (s *MemoryStore) Hit(_ context.Context, identifier string, window time.Duration) (Entry, error) {
	sh := s.shardFor(identifier)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	now := s.now()
	e, ok := sh.entries[identifier]
	if !ok {
		e = &Entry{Identifier: identifier, WindowResetAt: now.Add(window)}
		sh.entries[identifier] = e
	}
	if now.After(e.WindowResetAt) {
		e.Count = 0
		e.WindowResetAt = now.Add(window)
	}
	e.Count++

	return *e, nil
}

// Get returns a copy of the stored entry without counting a hit.
func (s *MemoryStore) Get(identifier string) (Entry, bool) {
	sh := s.shardFor(identifier)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.entries[identifier]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Len is the number of identifiers ever seen.
func (s *MemoryStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.entries)
		sh.mu.Unlock()
	}
	return n
}
