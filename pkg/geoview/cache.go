package geoview

import (
	"container/list"
	"sync"
	"time"

	"github.com/beetlebugorg/geoview/internal/geometry"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

// stateCache holds resample states with an LRU eviction policy.
//
// Each state is charged an estimated memory size when added, and charged
// again as its simplification cache grows. When the total exceeds the limit,
// least-recently-used states are evicted.
//
// Memory estimation is approximate, based on record count and coordinate
// count.
type stateCache struct {
	maxMemory  int64 // Maximum memory in bytes, 0 for unlimited
	usedMemory int64 // Current memory usage estimate
	states     map[uuid.UUID]*cacheEntry
	lru        *list.List // LRU list (most recent at front)
	logger     *zap.Logger
	mu         sync.Mutex
}

// cacheEntry tracks a cached state and its metadata
type cacheEntry struct {
	id           uuid.UUID
	state        *resampleState
	memorySize   int64
	element      *list.Element // Position in LRU list
	lastAccessed time.Time
	accessCount  int
}

func newStateCache(maxMemoryBytes int64, logger *zap.Logger) *stateCache {
	return &stateCache{
		maxMemory: maxMemoryBytes,
		states:    make(map[uuid.UUID]*cacheEntry),
		lru:       list.New(),
		logger:    loggerOrNop(logger),
	}
}

// Get returns the state cached for id, building it with loader on a miss.
// The second result reports whether loader ran.
//
// A state too large for the cache is still returned, just not retained.
func (c *stateCache) Get(id uuid.UUID, loader func() *resampleState) (*resampleState, bool) {
	c.mu.Lock()
	if entry, ok := c.states[id]; ok {
		c.touch(entry)
		c.mu.Unlock()
		return entry.state, false
	}
	c.mu.Unlock()

	// Build outside the lock so other sources proceed
	state, err := c.Add(id, loader())
	if err != nil {
		c.logger.Debug("resample state not cached", zap.String("element", id.String()), zap.Error(err))
	}
	return state, true
}

// Add caches state under id, evicting least-recently-used states to make
// room, and returns the state now held for id. When another caller cached a
// state for id first, that one is kept and returned. Add fails, returning
// state uncached, when state alone exceeds the limit.
func (c *stateCache) Add(id uuid.UUID, state *resampleState) (*resampleState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addLocked(id, state)
}

func (c *stateCache) addLocked(id uuid.UUID, state *resampleState) (*resampleState, error) {
	if entry, ok := c.states[id]; ok {
		c.touch(entry)
		return entry.state, nil
	}

	memSize := estimateStateMemory(state)

	// If state is larger than max memory, don't cache it
	if c.maxMemory > 0 && memSize > c.maxMemory {
		return state, errors.Newf("state too large for cache (%d bytes > %d bytes max)", memSize, c.maxMemory)
	}

	// Evict until we have space
	if c.maxMemory > 0 {
		for c.usedMemory+memSize > c.maxMemory && c.lru.Len() > 0 {
			c.evictLRU()
		}
	}

	entry := &cacheEntry{
		id:           id,
		state:        state,
		memorySize:   memSize,
		lastAccessed: time.Now(),
		accessCount:  1,
	}
	entry.element = c.lru.PushFront(entry)
	c.states[id] = entry
	c.usedMemory += memSize
	return state, nil
}

func (c *stateCache) touch(entry *cacheEntry) {
	entry.lastAccessed = time.Now()
	entry.accessCount++
	c.lru.MoveToFront(entry.element)
}

// Grow charges delta more bytes to the state cached for id and evicts other
// states when the limit is exceeded. The grown state itself is kept.
func (c *stateCache) Grow(id uuid.UUID, delta int64) {
	if delta == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.states[id]
	if !ok {
		return
	}
	entry.memorySize += delta
	c.usedMemory += delta

	if c.maxMemory <= 0 {
		return
	}
	for c.usedMemory > c.maxMemory && c.lru.Len() > 1 {
		back := c.lru.Back()
		if back.Value.(*cacheEntry).id == id {
			c.lru.MoveToFront(back)
			continue
		}
		c.evictLRU()
	}
}

// evictLRU removes the least recently used state from cache.
// Must be called with c.mu locked.
func (c *stateCache) evictLRU() {
	elem := c.lru.Back()
	if elem == nil {
		return
	}

	entry := elem.Value.(*cacheEntry)
	c.lru.Remove(elem)
	delete(c.states, entry.id)
	c.usedMemory -= entry.memorySize

	c.logger.Debug("evicted resample state",
		zap.String("element", entry.id.String()),
		zap.Int64("bytes", entry.memorySize),
		zap.Int("accesses", entry.accessCount),
		zap.Duration("idle", time.Since(entry.lastAccessed)))
}

// Remove explicitly removes a state from the cache.
func (c *stateCache) Remove(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.states[id]; ok {
		c.lru.Remove(entry.element)
		delete(c.states, id)
		c.usedMemory -= entry.memorySize
	}
}

// Clear removes all states from the cache.
func (c *stateCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.states = make(map[uuid.UUID]*cacheEntry)
	c.lru.Init()
	c.usedMemory = 0
}

// Stats returns cache occupancy.
func (c *stateCache) Stats() cacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	totalAccess := 0
	for _, entry := range c.states {
		totalAccess += entry.accessCount
	}
	return cacheStats{
		StateCount:  len(c.states),
		UsedMemory:  c.usedMemory,
		MaxMemory:   c.maxMemory,
		TotalAccess: totalAccess,
	}
}

// cacheStats holds cache occupancy metrics.
type cacheStats struct {
	StateCount  int   // Number of states currently cached
	UsedMemory  int64 // Estimated memory usage in bytes
	MaxMemory   int64 // Maximum memory limit in bytes
	TotalAccess int   // Total number of accesses across all cached states
}

// estimateStateMemory estimates memory usage for a resample state.
//
// This is approximate and based on:
//   - Base overhead: ~1KB per state
//   - Records: ~1KB per record (index entry, attributes, area memo)
//   - Geometry coordinates: 16 bytes per coordinate pair
func estimateStateMemory(state *resampleState) int64 {
	if state == nil {
		return 0
	}

	size := int64(1024)
	size += int64(len(state.records)) * 1024
	for _, rec := range state.records {
		size += int64(geometry.VertexCount(rec.Geometry)) * 16
	}
	for _, g := range state.simplify {
		size += estimateGeometryMemory(g)
	}
	return size
}

// estimateGeometryMemory is the charge for one cached simplified geometry.
func estimateGeometryMemory(g orb.Geometry) int64 {
	return 64 + int64(geometry.VertexCount(g))*16
}
