package tagging

// A VictimFinder decides which block should be evicted
type VictimFinder interface {
	FindVictim(set *Set) *Block
}

// LRUVictimFinder evicts the least recently used block
type LRUVictimFinder struct {
}

// NewLRUVictimFinder returns a newly constructed lru evictor
func NewLRUVictimFinder() *LRUVictimFinder {
	e := new(LRUVictimFinder)
	return e
}

// FindVictim returns the block with the smallest recency. Among blocks with
// the same recency, the one with the lowest way index wins. Invalid blocks
// are not treated specially; they are picked first only because they are
// never more recent than a valid block.
func (e *LRUVictimFinder) FindVictim(set *Set) *Block {
	victim := &set.Blocks[0]

	for i := 1; i < len(set.Blocks); i++ {
		if set.Blocks[i].Recency < victim.Recency {
			victim = &set.Blocks[i]
		}
	}

	return victim
}
