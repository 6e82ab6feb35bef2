// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cache holds parsed config files and resolved module paths between
// loads. A Cache is always passed explicitly; there is no package-level state.
package cache

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// NoCache is the token that bypasses the cache entirely.
const NoCache = ""

type entryKey struct {
	token string
	key   string
}

// 🗄️ Cache is a read-through store partitioned by caller token
//
// Entries are stored under (token, key). Two loads that share a token see the
// same parsed files; a new token starts from nothing. Concurrent misses for
// the same entry run the loader once. Failed loads are not stored.
type Cache struct {
	mu     sync.RWMutex
	items  map[entryKey]any
	group  singleflight.Group
	hits   atomic.Int64
	misses atomic.Int64
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{items: make(map[entryKey]any)}
}

// Stats reports hit and miss counts since creation.
type Stats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// Do returns the value stored under (token, key), calling load on a miss.
// A nil cache or the NoCache token always calls load.
func (c *Cache) Do(token, key string, load func() (any, error)) (any, error) {
	if c == nil || token == NoCache {
		return load()
	}

	k := entryKey{token: token, key: key}

	c.mu.RLock()
	v, ok := c.items[k]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return v, nil
	}

	v, err, _ := c.group.Do(token+"\x00"+key, func() (any, error) {
		c.mu.RLock()
		v, ok := c.items[k]
		c.mu.RUnlock()
		if ok {
			return v, nil
		}

		c.misses.Add(1)
		v, err := load()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.items[k] = v
		c.mu.Unlock()
		return v, nil
	})
	return v, err
}

// Load is the typed form of Cache.Do.
func Load[V any](c *Cache, token, key string, load func() (V, error)) (V, error) {
	v, err := c.Do(token, key, func() (any, error) {
		return load()
	})
	if err != nil {
		var zero V
		return zero, err
	}
	out, _ := v.(V)
	return out, nil
}

// Invalidate drops every entry stored under token.
func (c *Cache) Invalidate(token string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.items {
		if k.token == token {
			delete(c.items, k)
		}
	}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.items = make(map[entryKey]any)
	c.mu.Unlock()
}

func (c *Cache) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	c.mu.RLock()
	n := len(c.items)
	c.mu.RUnlock()
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Entries: n}
}
