// Package cache holds the in-memory sets the collaboration session consults
// before every push.
package cache

import (
	"cmp"
	"slices"
	"sync"

	"github.com/scout-helper/tracker/pkg/core"
)

// ContributedSet remembers which marks were already pushed to a session.
// It only grows until Reset.
type ContributedSet struct {
	m    sync.Mutex
	keys map[core.ContributionKey]struct{}
}

func NewContributedSet(keys ...core.ContributionKey) *ContributedSet {
	c := &ContributedSet{keys: make(map[core.ContributionKey]struct{}, len(keys))}
	for _, k := range keys {
		c.keys[k] = struct{}{}
	}
	return c
}

// Contains reports whether key was already contributed.
func (c *ContributedSet) Contains(key core.ContributionKey) bool {
	c.m.Lock()
	defer c.m.Unlock()
	_, ok := c.keys[key]
	return ok
}

// Add records key and reports whether it was new.
func (c *ContributedSet) Add(key core.ContributionKey) bool {
	c.m.Lock()
	defer c.m.Unlock()
	if _, ok := c.keys[key]; ok {
		return false
	}
	c.keys[key] = struct{}{}
	return true
}

// Pending returns the sightings whose key has not been contributed yet. A key
// repeated inside sightings is returned once.
func (c *ContributedSet) Pending(sightings []core.Sighting) []core.Sighting {
	c.m.Lock()
	defer c.m.Unlock()
	seen := make(map[core.ContributionKey]struct{}, len(sightings))
	var out []core.Sighting
	for _, s := range sightings {
		k := s.Key()
		if _, ok := c.keys[k]; ok {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}

// MarkAll records every sighting's key.
func (c *ContributedSet) MarkAll(sightings []core.Sighting) {
	c.m.Lock()
	defer c.m.Unlock()
	for _, s := range sightings {
		c.keys[s.Key()] = struct{}{}
	}
}

// Keys returns the contributed keys ordered by mob then instance.
func (c *ContributedSet) Keys() []core.ContributionKey {
	c.m.Lock()
	keys := make([]core.ContributionKey, 0, len(c.keys))
	for k := range c.keys {
		keys = append(keys, k)
	}
	c.m.Unlock()

	slices.SortFunc(keys, func(a, b core.ContributionKey) int {
		if n := cmp.Compare(a.MobID, b.MobID); n != 0 {
			return n
		}
		return cmp.Compare(a.Instance, b.Instance)
	})
	return keys
}

func (c *ContributedSet) Len() int {
	c.m.Lock()
	defer c.m.Unlock()
	return len(c.keys)
}

func (c *ContributedSet) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.keys = make(map[core.ContributionKey]struct{})
}

// SafeCounter is a thread-safe counter
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}
