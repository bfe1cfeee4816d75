// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package timeline

import (
	"sync"
)

// ItemCache returns previously produced items by reference when a new item
// has the same id and equal values. Entries not seen in the latest call are
// evicted, so the cache holds at most one layout's worth of items.
type ItemCache struct {
	mu    sync.Mutex
	items map[string]*Item
}

// NewItemCache creates an empty cache.
func NewItemCache() *ItemCache {
	return &ItemCache{items: make(map[string]*Item)}
}

// Reuse replaces each item equal to its cached predecessor with that
// predecessor, in place, and returns items with the number served from the
// cache.
func (c *ItemCache) Reuse(items []*Item) ([]*Item, int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := make(map[string]*Item, len(items))
	reused := 0
	for i, item := range items {
		if cached, ok := c.items[item.ID]; ok && *cached == *item {
			items[i] = cached
			reused++
		}
		next[item.ID] = items[i]
	}
	c.items = next
	return items, reused
}

// Len returns the number of cached items.
func (c *ItemCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Reset drops all cached items.
func (c *ItemCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*Item)
}
