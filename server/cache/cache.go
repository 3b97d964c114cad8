// Package cache holds the per-meeting response caches used by the booking, roster and voting views.
package cache

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

func MeetingRolesKey(clubID int, meetingID int) string {
	return fmt.Sprintf("meeting_roles_%d_%d", clubID, meetingID)
}

func RoleTakersKey(clubID int, meetingID int) string {
	return fmt.Sprintf("role_takers_%d_%d", clubID, meetingID)
}

func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
	}
}

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a small in-process key value store. Losing it is always safe, a miss just reloads from the store.
type Cache struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]entry
}

func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || (c.ttl > 0 && time.Now().After(e.expiresAt)) {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

func (c *Cache) Delete(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		delete(c.entries, key)
	}
}

// InvalidateMeeting drops both caches of a meeting.
func (c *Cache) InvalidateMeeting(clubID int, meetingID int) {
	c.Delete(MeetingRolesKey(clubID, meetingID), RoleTakersKey(clubID, meetingID))
}

// InvalidatePrefix drops every key starting with prefix.
func (c *Cache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Load returns the cached value of key or fills it with fn.
func Load[T any](c *Cache, key string, fn func() (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		if t, ok := v.(T); ok {
			return t, nil
		}
	}

	v, err := fn()
	if err != nil {
		return v, err
	}
	c.Set(key, v)
	return v, nil
}
