// Package cache simulates a write-allocate, write-back, set-associative cache
// with LRU replacement.
package cache

import (
	"fmt"
	"sync"

	"github.com/sarchlab/cachesim/mem/cache/internal/tagging"
	"github.com/sarchlab/cachesim/sim/hooking"
)

// A Cache counts hits, misses, evictions and dirty bytes for a stream of
// accesses. Access must be called from a single goroutine. Stats and
// Snapshot may be called concurrently with Access.
type Cache struct {
	hooking.HookableBase

	name         string
	geometry     Geometry
	blockSize    uint64
	tags         tagging.TagArray
	victimFinder tagging.VictimFinder

	lock  sync.RWMutex
	stats Stats
}

// AccessResult is the outcome of one trace record.
type AccessResult struct {
	Op Operation

	// Hit reports whether the record's own access found its block. For a
	// Modify, this is the outcome of the implicit load.
	Hit bool

	// Evicted reports whether a valid block was replaced.
	Evicted bool

	// EvictedDirty reports whether the replaced block was dirty.
	EvictedDirty bool

	// SubAccesses lists what happened to the cache, one entry per load or
	// store. It is empty for instruction fetches.
	SubAccesses []AccessEvent
}

// Name returns the name of the cache.
func (c *Cache) Name() string {
	return c.name
}

// Geometry returns the shape of the cache.
func (c *Cache) Geometry() Geometry {
	return c.geometry
}

// Stats returns a copy of the counters.
func (c *Cache) Stats() Stats {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.stats
}

// Access applies one trace record to the cache. Instruction fetches are
// counted but do not change the cache. A Modify is a load followed by a
// store to the same address.
func (c *Cache) Access(op Operation, addr uint64, size int) AccessResult {
	result := c.access(op, addr, size)

	for _, event := range result.SubAccesses {
		c.traceAccess(event)
	}

	return result
}

func (c *Cache) access(op Operation, addr uint64, size int) AccessResult {
	c.lock.Lock()
	defer c.lock.Unlock()

	result := AccessResult{Op: op}

	switch op {
	case OpInstruction:
		c.stats.Instructions++
		return result
	case OpLoad:
		c.stats.Accesses++
		result.SubAccesses = []AccessEvent{
			c.subAccess(op, addr, size, false, false),
		}
	case OpStore:
		c.stats.Accesses++
		result.SubAccesses = []AccessEvent{
			c.subAccess(op, addr, size, true, false),
		}
	case OpModify:
		c.stats.Accesses++
		result.SubAccesses = []AccessEvent{
			c.subAccess(op, addr, size, false, false),
			c.subAccess(op, addr, size, true, true),
		}
	default:
		panic(fmt.Sprintf("unknown operation %q", byte(op)))
	}

	primary := result.SubAccesses[0]
	result.Hit = primary.Hit
	result.Evicted = primary.Evicted
	result.EvictedDirty = primary.EvictedDirty

	return result
}

// subAccess runs a single load or store through the tag array.
func (c *Cache) subAccess(
	op Operation,
	addr uint64,
	size int,
	isWrite, isImplicit bool,
) AccessEvent {
	tag, _, _ := c.tags.Decoder().Decode(addr)
	set, setID := c.tags.GetSet(addr)

	event := AccessEvent{
		Cache:      c.name,
		Op:         op,
		IsWrite:    isWrite,
		IsImplicit: isImplicit,
		Address:    addr,
		Size:       size,
		SetID:      setID,
		Tag:        tag,
	}

	block, hit := set.Lookup(tag)
	if hit {
		c.hit(set, block, isWrite, &event)
	} else {
		c.miss(set, tag, isWrite, &event)
	}

	return event
}

func (c *Cache) hit(
	set *tagging.Set,
	block *tagging.Block,
	isWrite bool,
	event *AccessEvent,
) {
	c.stats.Hits++
	event.Hit = true
	event.WayID = block.WayID

	if set.IsMostRecentlyUsed(block) {
		c.stats.DoubleReferences++
		event.DoubleReference = true
	}

	if isWrite {
		c.markDirty(block, event)
	}

	c.tags.Visit(block)
}

func (c *Cache) miss(
	set *tagging.Set,
	tag uint64,
	isWrite bool,
	event *AccessEvent,
) {
	c.stats.Misses++

	victim := c.victimFinder.FindVictim(set)
	event.WayID = victim.WayID

	if victim.IsValid {
		c.evict(victim, event)
	}

	victim.IsValid = true
	victim.Tag = tag
	victim.IsDirty = false

	if isWrite {
		c.markDirty(victim, event)
	}

	c.tags.Visit(victim)
}

func (c *Cache) evict(victim *tagging.Block, event *AccessEvent) {
	c.stats.Evictions++
	event.Evicted = true
	event.EvictedAddress = c.tags.Decoder().Compose(
		victim.Tag, uint64(victim.SetID), 0)

	if victim.IsDirty {
		c.stats.DirtyBytesActive -= c.blockSize
		c.stats.DirtyBytesEvicted += c.blockSize
		event.EvictedDirty = true
	}
}

// markDirty charges the block's bytes only on the clean to dirty transition.
func (c *Cache) markDirty(block *tagging.Block, event *AccessEvent) {
	if block.IsDirty {
		return
	}

	block.IsDirty = true
	c.stats.DirtyBytesActive += c.blockSize
	event.BecameDirty = true
}

// CheckInvariants walks every block and verifies that no set holds the same
// tag twice, that invalid blocks are clean, and that DirtyBytesActive matches
// the dirty blocks in the cache.
func (c *Cache) CheckInvariants() error {
	c.lock.RLock()
	defer c.lock.RUnlock()

	var (
		numDirty uint64
		err      error
		setID    = -1
		seen     map[uint64]int
	)

	c.tags.ForEachBlock(func(block *tagging.Block) {
		if err != nil {
			return
		}

		if block.SetID != setID {
			setID = block.SetID
			seen = make(map[uint64]int, c.tags.NumWays())
		}

		if !block.IsValid {
			if block.IsDirty {
				err = fmt.Errorf("set %d way %d is invalid but dirty",
					block.SetID, block.WayID)
			}

			return
		}

		if way, dup := seen[block.Tag]; dup {
			err = fmt.Errorf("set %d holds tag 0x%x in ways %d and %d",
				block.SetID, block.Tag, way, block.WayID)

			return
		}

		seen[block.Tag] = block.WayID

		if block.IsDirty {
			numDirty++
		}
	})

	if err != nil {
		return err
	}

	if numDirty*c.blockSize != c.stats.DirtyBytesActive {
		return fmt.Errorf(
			"%d dirty blocks of %d bytes, but %d dirty bytes active",
			numDirty, c.blockSize, c.stats.DirtyBytesActive)
	}

	return nil
}

// Snapshot is a copy of the externally visible state of a cache.
type Snapshot struct {
	Name      string   `json:"name"`
	Geometry  Geometry `json:"geometry"`
	ByteSize  uint64   `json:"byte_size"`
	Stats     Stats    `json:"stats"`
	HitRate   float64  `json:"hit_rate"`
	NumBlocks int      `json:"num_blocks"`
}

// Snapshot copies the state of the cache.
func (c *Cache) Snapshot() Snapshot {
	stats := c.Stats()

	return Snapshot{
		Name:      c.name,
		Geometry:  c.geometry,
		ByteSize:  c.geometry.ByteSize(),
		Stats:     stats,
		HitRate:   stats.HitRate(),
		NumBlocks: c.tags.NumSets() * c.tags.NumWays(),
	}
}
