package cache

import (
	"github.com/sarchlab/cachesim/sim/hooking"
)

// HookPosAccess is triggered after every load or store the cache performs.
// The hook item is an AccessEvent. A Modify record triggers it twice.
var HookPosAccess = &hooking.HookPos{Name: "CacheAccess"}

// AccessEvent describes one load or store and what it did to the cache.
type AccessEvent struct {
	Cache string
	Op    Operation

	// IsWrite is true for the store half of a Modify and for Stores.
	IsWrite bool

	// IsImplicit marks the store half of a Modify.
	IsImplicit bool

	Address uint64
	Size    int
	SetID   int
	WayID   int
	Tag     uint64

	Hit             bool
	DoubleReference bool
	BecameDirty     bool

	Evicted        bool
	EvictedDirty   bool
	EvictedAddress uint64
}

func (c *Cache) traceAccess(event AccessEvent) {
	if c.NumHooks() == 0 {
		return
	}

	ctx := hooking.HookCtx{
		Domain: c,
		Pos:    HookPosAccess,
		Item:   event,
	}

	c.InvokeHook(ctx)
}
