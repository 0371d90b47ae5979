// Package scope partitions the bytecode streams into lexical scopes.
package scope

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"sort"

	"github.com/retroenv/ir2decomp/internal/address"
	"github.com/retroenv/ir2decomp/internal/bytecode"
	"github.com/retroenv/ir2decomp/internal/instruction"
)

// ErrUnresolvedLabel is returned when a scope spawning command references a
// label that is not defined in the bytecode.
var ErrUnresolvedLabel = errors.New("unresolved label")

// spawners maps commands that transfer control into a new local variable frame
// to the index of their label argument.
var spawners = map[string]int{
	"GOSUB_FILE":       1,
	"START_NEW_SCRIPT": 0,
	"LAUNCH_MISSION":   0,
	"CALL":             3,
	"CALLNOT":          3,
}

const scriptNameCommand = "SCRIPT_NAME"

// Scope is a half open address range [Start, End) within one stream.
// A nil End marks a scope that runs until the end of its stream.
type Scope struct {
	Start address.Address
	End   *address.Address
}

// Contains returns whether the address is inside of the scope.
func (s Scope) Contains(addr address.Address) bool {
	if addr.Less(s.Start) {
		return false
	}
	if s.End == nil {
		return addr.Kind == s.Start.Kind
	}
	return addr.Less(*s.End)
}

// endsBefore returns whether the whole scope orders before the address.
func (s Scope) endsBefore(addr address.Address) bool {
	if s.End == nil {
		return s.Start.Kind < addr.Kind
	}
	return !addr.Less(*s.End)
}

// Empty returns whether the scope contains no instruction.
func (s Scope) Empty(b *bytecode.Bytecode) bool {
	_, ok := b.At(s.Start)
	return !ok
}

// Instructions returns an iterator over the instructions of the scope.
func (s Scope) Instructions(b *bytecode.Bytecode) iter.Seq2[address.Address, instruction.Instruction] {
	return func(yield func(address.Address, instruction.Instruction) bool) {
		for addr, ins := range b.From(s.Start) {
			if s.End != nil && !addr.Less(*s.End) {
				return
			}
			if !yield(addr, ins) {
				return
			}
		}
	}
}

// ScriptName returns the name declared by the first SCRIPT_NAME command of the scope.
func (s Scope) ScriptName(b *bytecode.Bytecode) (string, bool) {
	for _, ins := range s.Instructions(b) {
		cmd, ok := instruction.IsCommand(ins, scriptNameCommand)
		if !ok || len(cmd.Args) == 0 {
			continue
		}
		if text, ok := cmd.Args[0].(*instruction.Text); ok {
			return text.Value, true
		}
	}
	return "", false
}

func (s Scope) String() string {
	if s.End == nil {
		return fmt.Sprintf("[%s, end)", s.Start)
	}
	return fmt.Sprintf("[%s, %s)", s.Start, *s.End)
}

// Discover returns the sorted and non overlapping scopes of the bytecode.
// Scope boundaries are the first instruction of every block and the targets
// of all scope spawning commands. Empty mission and streamed blocks result in
// empty scopes.
func Discover(b *bytecode.Bytecode) ([]Scope, error) {
	var boundaries []address.Address
	for i := range b.Missions() {
		boundaries = append(boundaries, b.MissionAddress(i))
	}
	for i := range b.StreamedScripts() {
		boundaries = append(boundaries, b.StreamedAddress(i))
	}

	var previous *address.Address
	for addr, ins := range b.All() {
		if previous == nil || !previous.SameBlock(addr) {
			boundaries = append(boundaries, addr)
		}
		previous = &addr

		target, ok, err := spawnTarget(b, ins)
		if err != nil {
			return nil, fmt.Errorf("discovering scope at %s: %w", addr, err)
		}
		if ok {
			boundaries = append(boundaries, target)
		}
	}

	slices.SortFunc(boundaries, address.Address.Compare)
	boundaries = slices.Compact(boundaries)

	scopes := make([]Scope, 0, len(boundaries))
	for i, start := range boundaries {
		s := Scope{Start: start}
		if i+1 < len(boundaries) && boundaries[i+1].Kind == start.Kind {
			end := boundaries[i+1]
			s.End = &end
		}
		scopes = append(scopes, s)
	}
	return scopes, nil
}

// Containing returns the scope that contains the address. The scopes have to
// be sorted and non overlapping, an address in a gap returns false.
func Containing(scopes []Scope, addr address.Address) (Scope, bool) {
	i, ok := Index(scopes, addr)
	if !ok {
		return Scope{}, false
	}
	return scopes[i], true
}

// Index returns the position of the scope containing the address.
func Index(scopes []Scope, addr address.Address) (int, bool) {
	i := sort.Search(len(scopes), func(i int) bool {
		return !scopes[i].endsBefore(addr)
	})
	if i < len(scopes) && scopes[i].Contains(addr) {
		return i, true
	}
	return 0, false
}

func spawnTarget(b *bytecode.Bytecode, ins instruction.Instruction) (address.Address, bool, error) {
	cmd, ok := ins.(*instruction.Command)
	if !ok {
		return address.Address{}, false, nil
	}
	argIndex, ok := spawners[cmd.Name]
	if !ok {
		return address.Address{}, false, nil
	}

	if argIndex >= len(cmd.Args) {
		return address.Address{}, false, fmt.Errorf("%s is missing label argument %d", cmd.Name, argIndex)
	}
	label, ok := cmd.Args[argIndex].(*instruction.LabelRef)
	if !ok {
		return address.Address{}, false, fmt.Errorf("%s argument %d is not a label", cmd.Name, argIndex)
	}

	target, ok := b.LabelAddress(label.Name)
	if !ok {
		return address.Address{}, false, fmt.Errorf("%w '%s' in %s", ErrUnresolvedLabel, label.Name, cmd.Name)
	}
	return target, true, nil
}

// IsSpawner returns whether the command starts a new scope at its label argument.
func IsSpawner(name string) bool {
	_, ok := spawners[name]
	return ok
}
