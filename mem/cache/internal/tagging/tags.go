// Package tagging keeps track of which memory blocks a cache holds.
package tagging

// A TagArray holds the blocks of every set of a cache.
type TagArray interface {
	// NumSets returns the number of sets.
	NumSets() int

	// NumWays returns the number of blocks in each set.
	NumWays() int

	// Decoder returns the decoder used to map addresses to sets.
	Decoder() AddressDecoder

	// GetSet returns the set that addr maps to.
	GetSet(addr uint64) (set *Set, setID int)

	// Visit makes the block the most recently used one of its set.
	Visit(block *Block)

	// ForEachBlock calls fn for every block, set by set, way by way.
	ForEachBlock(fn func(block *Block))
}

// A Block of a cache is the information that is associated with a cache line.
type Block struct {
	SetID   int
	WayID   int
	Tag     uint64
	IsValid bool
	IsDirty bool

	// Recency is a logical timestamp. The larger, the more recently used.
	Recency uint64
}

// A Set is a list of blocks where a certain piece memory can be stored at.
type Set struct {
	Blocks []Block
}

// Lookup returns the valid block holding tag.
func (s *Set) Lookup(tag uint64) (*Block, bool) {
	for i := range s.Blocks {
		block := &s.Blocks[i]
		if block.IsValid && block.Tag == tag {
			return block, true
		}
	}

	return nil, false
}

// MaxRecency returns the largest recency of all the blocks, valid or not.
func (s *Set) MaxRecency() uint64 {
	maxRecency := s.Blocks[0].Recency
	for _, block := range s.Blocks[1:] {
		if block.Recency > maxRecency {
			maxRecency = block.Recency
		}
	}

	return maxRecency
}

// IsMostRecentlyUsed checks if no block in the set is more recent than block.
func (s *Set) IsMostRecentlyUsed(block *Block) bool {
	return block.Recency == s.MaxRecency()
}

// Visit marks the block as most recently used. The block ends up strictly
// more recent than every other block, including those that tied with it.
func (s *Set) Visit(block *Block) {
	block.Recency = s.MaxRecency() + 1
}

type tagArrayImpl struct {
	numSets int
	numWays int
	decoder AddressDecoder
	sets    []Set
}

// NewTagArray allocates all the sets of a cache at once.
func NewTagArray(numSets, numWays int, decoder AddressDecoder) TagArray {
	t := &tagArrayImpl{
		numSets: numSets,
		numWays: numWays,
		decoder: decoder,
	}

	t.reset()

	return t
}

func (t *tagArrayImpl) NumSets() int {
	return t.numSets
}

func (t *tagArrayImpl) NumWays() int {
	return t.numWays
}

func (t *tagArrayImpl) Decoder() AddressDecoder {
	return t.decoder
}

func (t *tagArrayImpl) GetSet(addr uint64) (set *Set, setID int) {
	_, setIndex, _ := t.decoder.Decode(addr)
	setID = int(setIndex)
	set = &t.sets[setID]

	return set, setID
}

func (t *tagArrayImpl) Visit(block *Block) {
	t.sets[block.SetID].Visit(block)
}

func (t *tagArrayImpl) ForEachBlock(fn func(block *Block)) {
	for i := range t.sets {
		for j := range t.sets[i].Blocks {
			fn(&t.sets[i].Blocks[j])
		}
	}
}

// reset allocates a single backing array and slices the sets out of it, so
// either every block exists or none does.
func (t *tagArrayImpl) reset() {
	blocks := make([]Block, t.numSets*t.numWays)
	sets := make([]Set, t.numSets)

	for i := range sets {
		sets[i].Blocks = blocks[i*t.numWays : (i+1)*t.numWays : (i+1)*t.numWays]
		for j := range sets[i].Blocks {
			sets[i].Blocks[j].SetID = i
			sets[i].Blocks[j].WayID = j
		}
	}

	t.sets = sets
}
