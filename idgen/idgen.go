// Package idgen generates identifiers for progress bars, recordings and
// other objects that outlive a single function call.
package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/rs/xid"
)

// Generator produces unique identifiers.
type Generator interface {
	Generate() string
}

// NewSequential returns a generator whose first emitted ID is "1". The IDs
// are deterministic, which keeps test output stable.
func NewSequential() Generator {
	return &sequentialGenerator{}
}

// NewXID returns a generator that produces globally unique, sortable IDs.
func NewXID() Generator {
	return xidGenerator{}
}

type sequentialGenerator struct {
	next uint64
}

func (g *sequentialGenerator) Generate() string {
	return strconv.FormatUint(atomic.AddUint64(&g.next, 1), 10)
}

type xidGenerator struct{}

func (xidGenerator) Generate() string {
	return xid.New().String()
}
