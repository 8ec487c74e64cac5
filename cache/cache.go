// Package cache holds resolved cert records so repeat scans of the same
// slab skip the vision and registry round-trips.
package cache

import (
	"sync"
	"time"

	"github.com/J3698/tcg/models"
)

// entry holds a cached cert record with its creation timestamp.
type entry struct {
	record    models.CertRecord
	createdAt time.Time
}

// Cache is a simple in-memory TTL cache keyed by cert number.
// It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	ttl        time.Duration
}

// New creates a Cache with the given capacity and entry lifetime.
// A background goroutine evicts expired entries every 5 minutes.
func New(maxEntries int, ttl time.Duration) *Cache {
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
	}

	go c.cleanupLoop()
	return c
}

// Get retrieves a cached cert record if it exists and has not expired.
func (c *Cache) Get(certNumber string) (models.CertRecord, bool) {
	c.mu.RLock()
	e, ok := c.store[certNumber]
	c.mu.RUnlock()

	if !ok || time.Since(e.createdAt) > c.ttl {
		return models.CertRecord{}, false
	}

	return e.record, true
}

// Set stores a cert record. If the cache is at capacity, a random entry
// is evicted to make room (map iteration is random in Go).
func (c *Cache) Set(certNumber string, record models.CertRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[certNumber] = &entry{
		record:    record,
		createdAt: time.Now(),
	}
}

// cleanupLoop evicts expired entries every 5 minutes.
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-c.ttl)
		c.mu.Lock()
		for k, e := range c.store {
			if e.createdAt.Before(cutoff) {
				delete(c.store, k)
			}
		}
		c.mu.Unlock()
	}
}
