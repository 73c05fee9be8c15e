package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// sweepInterval bounds how often Set scans for expired entries.
const sweepInterval = time.Minute

// Provider stores JSON-encodable values with an optional expiration.
type Provider interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

type memoryItem struct {
	data      []byte
	expiresAt time.Time
}

func (i memoryItem) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && now.After(i.expiresAt)
}

// MemoryCache is an in-process Provider used when Redis is not configured.
type MemoryCache struct {
	mu        sync.RWMutex
	items     map[string]memoryItem
	lastSweep time.Time
	now       func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: map[string]memoryItem{}, now: time.Now}
}

func (p *MemoryCache) Get(_ context.Context, key string, dest any) error {
	p.mu.RLock()
	item, ok := p.items[key]
	p.mu.RUnlock()
	if !ok {
		return ErrMiss
	}
	if item.expired(p.now()) {
		p.mu.Lock()
		// a concurrent Set may have stored a fresh value
		if cur, ok := p.items[key]; ok && cur.expired(p.now()) {
			delete(p.items, key)
		}
		p.mu.Unlock()
		return ErrMiss
	}
	if len(item.data) == 0 {
		return ErrMiss
	}
	return json.Unmarshal(item.data, dest)
}

func (p *MemoryCache) Set(_ context.Context, key string, value any, expiration time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	now := p.now()
	var expiresAt time.Time
	if expiration > 0 {
		expiresAt = now.Add(expiration)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items[key] = memoryItem{data: b, expiresAt: expiresAt}
	if now.Sub(p.lastSweep) >= sweepInterval {
		p.sweepLocked(now)
	}
	return nil
}

// sweepLocked drops every expired entry.
func (p *MemoryCache) sweepLocked(now time.Time) {
	for k, item := range p.items {
		if item.expired(now) {
			delete(p.items, k)
		}
	}
	p.lastSweep = now
}

// Len returns the number of stored entries, expired ones included.
func (p *MemoryCache) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.items)
}
