package cache

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxNumBlocks limits the number of blocks a single cache can hold.
const MaxNumBlocks = 1 << 30

var (
	// ErrInvalidGeometry is returned when the geometry parameters cannot
	// describe a cache.
	ErrInvalidGeometry = errors.New("invalid cache geometry")

	// ErrCacheTooLarge is returned when the cache would hold more than
	// MaxNumBlocks blocks.
	ErrCacheTooLarge = errors.New("cache too large")
)

// Geometry describes the shape of a set-associative cache.
type Geometry struct {
	// SetIndexBits is s. The cache has 2^s sets.
	SetIndexBits int `json:"set_index_bits"`

	// Assoc is E, the number of blocks in each set.
	Assoc int `json:"assoc"`

	// BlockOffsetBits is b. Each block holds 2^b bytes.
	BlockOffsetBits int `json:"block_offset_bits"`
}

// Validate checks that s, E and b are positive and s + b < 64.
func (g Geometry) Validate() error {
	if g.SetIndexBits <= 0 {
		return fmt.Errorf("%w: set index bits must be positive, got %d",
			ErrInvalidGeometry, g.SetIndexBits)
	}

	if g.Assoc <= 0 {
		return fmt.Errorf("%w: associativity must be positive, got %d",
			ErrInvalidGeometry, g.Assoc)
	}

	if g.BlockOffsetBits <= 0 {
		return fmt.Errorf("%w: block offset bits must be positive, got %d",
			ErrInvalidGeometry, g.BlockOffsetBits)
	}

	if g.SetIndexBits+g.BlockOffsetBits >= 64 {
		return fmt.Errorf("%w: s + b must be less than 64, got %d",
			ErrInvalidGeometry, g.SetIndexBits+g.BlockOffsetBits)
	}

	if g.SetIndexBits > 30 || g.Assoc > MaxNumBlocks ||
		g.NumSets()*g.Assoc > MaxNumBlocks {
		return fmt.Errorf("%w: %s needs more than %d blocks",
			ErrCacheTooLarge, g, MaxNumBlocks)
	}

	return nil
}

// NumSets returns 2^s.
func (g Geometry) NumSets() int {
	return 1 << g.SetIndexBits
}

// BlockSize returns 2^b, in bytes.
func (g Geometry) BlockSize() uint64 {
	return 1 << g.BlockOffsetBits
}

// TagBits returns 64 - s - b.
func (g Geometry) TagBits() int {
	return 64 - g.SetIndexBits - g.BlockOffsetBits
}

// ByteSize returns the number of data bytes the cache can hold.
func (g Geometry) ByteSize() uint64 {
	return uint64(g.NumSets()) * uint64(g.Assoc) * g.BlockSize()
}

func (g Geometry) String() string {
	return fmt.Sprintf("s=%d,E=%d,b=%d",
		g.SetIndexBits, g.Assoc, g.BlockOffsetBits)
}

// ParseGeometry parses "s:E:b", for example "4:2:5". The result is
// validated.
func ParseGeometry(str string) (Geometry, error) {
	fields := strings.Split(str, ":")
	if len(fields) != 3 {
		return Geometry{}, fmt.Errorf("%w: %q is not in s:E:b form",
			ErrInvalidGeometry, str)
	}

	values := make([]int, 3)
	for i, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return Geometry{}, fmt.Errorf("%w: %q: %v",
				ErrInvalidGeometry, str, err)
		}

		values[i] = v
	}

	g := Geometry{
		SetIndexBits:    values[0],
		Assoc:           values[1],
		BlockOffsetBits: values[2],
	}

	if err := g.Validate(); err != nil {
		return Geometry{}, err
	}

	return g, nil
}
