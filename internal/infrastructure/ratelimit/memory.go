// Package ratelimit implements per-key fixed window call limits.
package ratelimit

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"file-vault-api/internal/application/ports"
)

const (
	shardCount = 32
	// sweepAt is the shard size above which expired buckets are dropped.
	sweepAt = 1024
)

type (
	bucket struct {
		start time.Time
		count int
	}
	shard struct {
		mu      sync.Mutex
		buckets map[string]*bucket
	}
	Memory struct {
		limit  int
		window time.Duration
		now    func() time.Time
		shards [shardCount]*shard
	}
)

func NewMemory(limit int, window time.Duration) *Memory {
	return NewMemoryWithClock(limit, window, time.Now)
}

func NewMemoryWithClock(limit int, window time.Duration, now func() time.Time) *Memory {
	m := &Memory{limit: limit, window: window, now: now}
	for i := range m.shards {
		m.shards[i] = &shard{buckets: make(map[string]*bucket)}
	}
	return m
}

var _ ports.RateLimiter = (*Memory)(nil)

func (m *Memory) Allow(_ context.Context, key string) (ports.RateDecision, error) {
	now := m.now()
	sh := m.shards[shardFor(key)]

	sh.mu.Lock()
	defer sh.mu.Unlock()

	b, ok := sh.buckets[key]
	if !ok || !now.Before(b.start.Add(m.window)) {
		if len(sh.buckets) >= sweepAt {
			sh.sweep(now, m.window)
		}
		b = &bucket{start: now}
		sh.buckets[key] = b
	}

	resetAt := b.start.Add(m.window)
	if b.count >= m.limit {
		return ports.RateDecision{
			Allowed:    false,
			Limit:      m.limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: resetAt.Sub(now),
		}, nil
	}

	b.count++

	return ports.RateDecision{
		Allowed:   true,
		Limit:     m.limit,
		Remaining: m.limit - b.count,
		ResetAt:   resetAt,
	}, nil
}

func (s *shard) sweep(now time.Time, window time.Duration) {
	for k, b := range s.buckets {
		if !now.Before(b.start.Add(window)) {
			delete(s.buckets, k)
		}
	}
}

func shardFor(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % shardCount
}
