package cache

import "fmt"

// Operation is the kind of a memory access. The values are the characters
// used in trace files.
type Operation byte

// The operations that can appear in a trace.
const (
	OpInstruction Operation = 'I'
	OpLoad        Operation = 'L'
	OpStore       Operation = 'S'
	OpModify      Operation = 'M'
)

// ParseOperation converts a trace character into an Operation. Matching is
// case-sensitive.
func ParseOperation(c byte) (Operation, error) {
	switch op := Operation(c); op {
	case OpInstruction, OpLoad, OpStore, OpModify:
		return op, nil
	default:
		return 0, fmt.Errorf("unknown operation %q", c)
	}
}

// IsData returns true for the operations that touch the data cache.
func (o Operation) IsData() bool {
	return o == OpLoad || o == OpStore || o == OpModify
}

func (o Operation) String() string {
	switch o {
	case OpInstruction:
		return "I"
	case OpLoad:
		return "L"
	case OpStore:
		return "S"
	case OpModify:
		return "M"
	default:
		return fmt.Sprintf("Operation(%d)", byte(o))
	}
}
