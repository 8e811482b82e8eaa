package cache

import (
	"fmt"

	"github.com/sarchlab/cachesim/mem/cache/internal/tagging"
	"github.com/sarchlab/cachesim/sim/hooking"
)

// Builder can build caches.
type Builder struct {
	geometry        Geometry
	replaceStrategy string
	hooks           []hooking.Hook

	victimFinder tagging.VictimFinder
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		replaceStrategy: "lru",
	}
}

// WithGeometry sets s, E and b at once.
func (b Builder) WithGeometry(geometry Geometry) Builder {
	b.geometry = geometry
	return b
}

// WithSetIndexBits sets the number of set index bits (s) of the builder.
func (b Builder) WithSetIndexBits(setIndexBits int) Builder {
	b.geometry.SetIndexBits = setIndexBits
	return b
}

// WithWayAssociativity sets the way associativity (E) of the builder.
func (b Builder) WithWayAssociativity(wayAssociativity int) Builder {
	b.geometry.Assoc = wayAssociativity
	return b
}

// WithBlockOffsetBits sets the number of block offset bits (b) of the
// builder.
func (b Builder) WithBlockOffsetBits(blockOffsetBits int) Builder {
	b.geometry.BlockOffsetBits = blockOffsetBits
	return b
}

// WithReplaceStrategy sets the replacement strategy. Only "lru" is
// supported.
func (b Builder) WithReplaceStrategy(replaceStrategy string) Builder {
	b.replaceStrategy = replaceStrategy
	return b
}

// WithHook registers a hook on every cache built.
func (b Builder) WithHook(hook hooking.Hook) Builder {
	b.hooks = append(b.hooks[:len(b.hooks):len(b.hooks)], hook)
	return b
}

func (b Builder) withVictimFinder(victimFinder tagging.VictimFinder) Builder {
	b.victimFinder = victimFinder
	return b
}

// Build builds a cache. It fails if the geometry is invalid; in that case no
// storage is allocated.
func (b Builder) Build(name string) (*Cache, error) {
	if err := b.geometry.Validate(); err != nil {
		return nil, err
	}

	victimFinder, err := b.createVictimFinder()
	if err != nil {
		return nil, err
	}

	c := &Cache{
		name:         name,
		geometry:     b.geometry,
		blockSize:    b.geometry.BlockSize(),
		victimFinder: victimFinder,
		tags: tagging.NewTagArray(
			b.geometry.NumSets(),
			b.geometry.Assoc,
			tagging.NewAddressDecoder(
				b.geometry.SetIndexBits, b.geometry.BlockOffsetBits),
		),
	}

	for _, hook := range b.hooks {
		c.AcceptHook(hook)
	}

	return c, nil
}

func (b Builder) createVictimFinder() (tagging.VictimFinder, error) {
	if b.victimFinder != nil {
		return b.victimFinder, nil
	}

	switch b.replaceStrategy {
	case "lru":
		return tagging.NewLRUVictimFinder(), nil
	default:
		return nil, fmt.Errorf("unknown replace strategy %q",
			b.replaceStrategy)
	}
}
