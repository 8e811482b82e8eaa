package tagging

// AddressDecoder splits a 64-bit address into tag, set index and block
// offset. Callers guarantee that both bit counts are positive and that their
// sum is below 64.
type AddressDecoder struct {
	SetIndexBits    uint
	BlockOffsetBits uint
}

// NewAddressDecoder creates an AddressDecoder for the given geometry.
func NewAddressDecoder(setIndexBits, blockOffsetBits int) AddressDecoder {
	return AddressDecoder{
		SetIndexBits:    uint(setIndexBits),
		BlockOffsetBits: uint(blockOffsetBits),
	}
}

// Decode returns the tag, the set index and the block offset of addr.
func (d AddressDecoder) Decode(addr uint64) (tag, setIndex, blockOffset uint64) {
	blockOffset = addr & d.offsetMask()
	setIndex = (addr >> d.BlockOffsetBits) & d.setMask()
	tag = addr >> (d.SetIndexBits + d.BlockOffsetBits)

	return tag, setIndex, blockOffset
}

// Compose rebuilds an address from its parts. Bits of setIndex and
// blockOffset that do not fit the geometry are dropped.
func (d AddressDecoder) Compose(tag, setIndex, blockOffset uint64) uint64 {
	return tag<<(d.SetIndexBits+d.BlockOffsetBits) |
		(setIndex&d.setMask())<<d.BlockOffsetBits |
		blockOffset&d.offsetMask()
}

// TagBits returns the number of bits used by the tag.
func (d AddressDecoder) TagBits() int {
	return 64 - int(d.SetIndexBits) - int(d.BlockOffsetBits)
}

// NumSets returns 2^s.
func (d AddressDecoder) NumSets() uint64 {
	return 1 << d.SetIndexBits
}

// BlockSize returns 2^b.
func (d AddressDecoder) BlockSize() uint64 {
	return 1 << d.BlockOffsetBits
}

func (d AddressDecoder) setMask() uint64 {
	return d.NumSets() - 1
}

func (d AddressDecoder) offsetMask() uint64 {
	return d.BlockSize() - 1
}
