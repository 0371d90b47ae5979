// Package address provides the ordered addressing scheme over the bytecode streams.
package address

import "fmt"

// Kind is the stream an address points into.
type Kind uint8

// Stream kinds in their address order.
const (
	Main Kind = iota
	Mission
	Streamed
)

var kindNames = map[Kind]string{
	Main:     "main",
	Mission:  "mission",
	Streamed: "streamed",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Address identifies one instruction by stream kind, block index and instruction index.
// The main stream has exactly one block with index 0.
type Address struct {
	Kind  Kind
	Block int
	Index int
}

// New returns a new address.
func New(kind Kind, block, index int) Address {
	return Address{
		Kind:  kind,
		Block: block,
		Index: index,
	}
}

// Compare returns -1, 0 or +1 depending on whether a orders before, equal to
// or after b. Ordering is by kind, then block, then index.
func (a Address) Compare(b Address) int {
	switch {
	case a.Kind != b.Kind:
		return compareInt(int(a.Kind), int(b.Kind))
	case a.Block != b.Block:
		return compareInt(a.Block, b.Block)
	default:
		return compareInt(a.Index, b.Index)
	}
}

// Less returns whether a orders strictly before b.
func (a Address) Less(b Address) bool {
	return a.Compare(b) < 0
}

// Next returns the address of the following instruction in the same block.
func (a Address) Next() Address {
	a.Index++
	return a
}

// SameBlock returns whether both addresses are in the same block of the same stream.
func (a Address) SameBlock(b Address) bool {
	return a.Kind == b.Kind && a.Block == b.Block
}

func (a Address) String() string {
	return fmt.Sprintf("%s:%d:%d", a.Kind, a.Block, a.Index)
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
