package trace

import (
	"sync"

	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/sim/hooking"
)

// TagCountTracer counts accesses by what happened to them, for example
// "L hit", "M implicit store hit" or "S miss dirty eviction".
type TagCountTracer struct {
	lock sync.Mutex

	tagNames []string
	tagCount map[string]uint64
}

// NewTagCountTracer creates a new TagCountTracer
func NewTagCountTracer() *TagCountTracer {
	return &TagCountTracer{
		tagCount: make(map[string]uint64),
	}
}

// GetTagNames returns all the tag names collected, in the order they first
// appeared.
func (t *TagCountTracer) GetTagNames() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	names := make([]string, len(t.tagNames))
	copy(names, t.tagNames)

	return names
}

// GetTagCount returns the number of accesses recorded with a tag.
func (t *TagCountTracer) GetTagCount(tagName string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.tagCount[tagName]
}

// Func counts an access.
func (t *TagCountTracer) Func(ctx hooking.HookCtx) {
	if ctx.Pos != cache.HookPosAccess {
		return
	}

	event := ctx.Item.(cache.AccessEvent)

	t.lock.Lock()
	defer t.lock.Unlock()

	t.countTag(accessTag(event))
}

func (t *TagCountTracer) countTag(tag string) {
	_, ok := t.tagCount[tag]
	if !ok {
		t.tagNames = append(t.tagNames, tag)
	}

	t.tagCount[tag]++
}

func accessTag(event cache.AccessEvent) string {
	tag := event.Op.String()

	if event.IsImplicit {
		tag += " implicit store"
	}

	switch {
	case event.Hit:
		tag += " hit"
	case event.EvictedDirty:
		tag += " miss dirty eviction"
	case event.Evicted:
		tag += " miss eviction"
	default:
		tag += " miss"
	}

	return tag
}
