// Package vars infers variable types, array sizes and symbolic tags from the
// untyped variable references of the bytecode.
package vars

import (
	"errors"
	"fmt"
	"iter"
	"sort"

	"github.com/retroenv/ir2decomp/internal/address"
	"github.com/retroenv/ir2decomp/internal/catalog"
	"github.com/retroenv/ir2decomp/internal/instruction"
)

// ErrTypeConflict is returned when one variable is used with two different
// concrete types.
var ErrTypeConflict = errors.New("conflicting variable types")

// ErrMisalignedVar is returned for a variable offset that is not a multiple
// of the slot size.
var ErrMisalignedVar = errors.New("misaligned variable offset")

// AssignmentAlternator is the alternator of the generic assignment commands
// that propagate tags between their operands.
const AssignmentAlternator = "SET"

// Catalog provides the command metadata used for inference.
type Catalog interface {
	Arg(command string, i int) (catalog.Arg, bool)
	InAlternator(alternator, command string) bool
}

// Instructions is a repeatable iteration over an instruction range.
type Instructions = iter.Seq2[address.Address, instruction.Instruction]

type snapshot map[uint32]*Info

// arrayRange is the byte range covered by an array.
type arrayRange struct {
	start uint32
	end   uint32
}

type analyzer struct {
	catalog Catalog
	scope   instruction.Scope
	arrays  []arrayRange // sorted by start
}

// Analyze runs the variable inference for all variables of the given
// visibility that are referenced in the instructions. Seeds describe known
// arrays that are not necessarily visible in the bytecode.
func Analyze(cat Catalog, instructions Instructions, scope instruction.Scope, seeds []*Info) (*Table, error) {
	a := &analyzer{
		catalog: cat,
		scope:   scope,
		arrays:  arrayRanges(Arrays(instructions, scope), seeds),
	}

	first, err := a.collect(instructions, seeds)
	if err != nil {
		return nil, err
	}
	second := a.propagate(instructions, first)

	infos := make([]*Info, 0, len(second))
	for _, info := range second {
		infos = append(infos, info)
	}
	return NewTable(infos), nil
}

// Arrays returns for every array base offset of the given visibility the
// largest byte span observed by any array access.
func Arrays(instructions Instructions, scope instruction.Scope) map[uint32]uint32 {
	spans := make(map[uint32]uint32)
	for _, ins := range instructions {
		cmd, ok := ins.(*instruction.Command)
		if !ok {
			continue
		}
		for _, arg := range cmd.Args {
			array, ok := arg.(*instruction.ArrayAccess)
			if !ok || array.Base.Scope != scope {
				continue
			}
			span := uint32(array.Count) * array.Base.Size()
			if span > spans[array.Base.Offset] {
				spans[array.Base.Offset] = span
			}
		}
	}
	return spans
}

func arrayRanges(spans map[uint32]uint32, seeds []*Info) []arrayRange {
	ranges := make([]arrayRange, 0, len(spans)+len(seeds))
	for start, span := range spans {
		ranges = append(ranges, arrayRange{start: start, end: start + span})
	}
	for _, seed := range seeds {
		ranges = append(ranges, arrayRange{start: seed.Start, end: seed.End()})
	}
	sort.Slice(ranges, func(i, j int) bool {
		if ranges[i].start == ranges[j].start {
			return ranges[i].end > ranges[j].end
		}
		return ranges[i].start < ranges[j].start
	})
	return ranges
}

// base returns the start of the array that contains the offset, or the
// offset itself if it is not inside of a known array.
func (a *analyzer) base(offset uint32) uint32 {
	for _, r := range a.arrays {
		if r.start > offset {
			break
		}
		if offset < r.end {
			return r.start
		}
	}
	return offset
}

// collect records every typed variable use, merging the catalog types and
// tags of the argument slots into the variable descriptions.
func (a *analyzer) collect(instructions Instructions, seeds []*Info) (snapshot, error) {
	infos := make(snapshot)
	for _, seed := range seeds {
		infos[seed.Start] = seed.clone()
	}

	for addr, ins := range instructions {
		cmd, ok := ins.(*instruction.Command)
		if !ok {
			continue
		}

		for i, arg := range cmd.Args {
			// a missing slot leaves the kind unknown and adds no tags
			slot, _ := a.catalog.Arg(cmd.Name, i)
			if err := a.collectArgument(infos, arg, slot); err != nil {
				return nil, fmt.Errorf("analyzing %s argument %d at %s: %w", cmd.Name, i, addr, err)
			}
		}
	}
	return infos, nil
}

func (a *analyzer) collectArgument(infos snapshot, arg instruction.Argument, slot catalog.Arg) error {
	switch arg := arg.(type) {
	case *instruction.Var:
		if arg.Scope != a.scope {
			return nil
		}
		if err := checkAligned(arg); err != nil {
			return err
		}
		return a.record(infos, a.base(arg.Offset), varKind(arg, slot), 0, slot)

	case *instruction.ArrayAccess:
		if index, ok := arg.Index.(*instruction.Var); ok && index.Scope == a.scope {
			if err := checkAligned(index); err != nil {
				return fmt.Errorf("array index: %w", err)
			}
			if err := a.record(infos, a.base(index.Offset), Int, 0, catalog.Arg{}); err != nil {
				return fmt.Errorf("array index: %w", err)
			}
		}
		if arg.Base.Scope != a.scope {
			return nil
		}
		if err := checkAligned(&arg.Base); err != nil {
			return err
		}
		kind := varKind(&arg.Base, slot)
		if kind == Unknown {
			kind = arrayElemKind(arg.Elem)
		}
		return a.record(infos, arg.Base.Offset, kind, arg.Count, slot)

	default:
		return nil
	}
}

func (a *analyzer) record(infos snapshot, start uint32, kind Kind, count int, slot catalog.Arg) error {
	info, ok := infos[start]
	if !ok {
		info = NewInfo(start, kind, count)
		infos[start] = info
	}

	if kind != Unknown {
		if info.Kind != Unknown && info.Kind != kind {
			return fmt.Errorf("%w: offset %d used as %s and %s", ErrTypeConflict, start, info.Kind, kind)
		}
		info.Kind = kind
	}
	info.Count = max(info.Count, count)

	for _, enum := range slot.Enums {
		info.Enums.Add(enum)
	}
	if slot.Entity != "" {
		info.Entities.Add(slot.Entity)
	}
	return nil
}

// propagate unions the tags of both operands of every generic assignment
// between two variables. It reads the collected snapshot and returns a new
// one, so tags travel exactly one assignment per run.
func (a *analyzer) propagate(instructions Instructions, collected snapshot) snapshot {
	result := make(snapshot, len(collected))
	for start, info := range collected {
		result[start] = info.clone()
	}

	for _, ins := range instructions {
		cmd, ok := ins.(*instruction.Command)
		if !ok || len(cmd.Args) < 2 || !a.catalog.InAlternator(AssignmentAlternator, cmd.Name) {
			continue
		}

		lhs, lhsOK := a.operandStart(cmd.Args[0])
		rhs, rhsOK := a.operandStart(cmd.Args[1])
		if !lhsOK || !rhsOK {
			continue
		}
		lhsCollected, lhsFound := collected[lhs]
		rhsCollected, rhsFound := collected[rhs]
		if !lhsFound || !rhsFound {
			continue
		}

		result[lhs].mergeTags(rhsCollected)
		result[rhs].mergeTags(lhsCollected)
	}
	return result
}

// operandStart returns the variable start offset that an operand was
// recorded under.
func (a *analyzer) operandStart(arg instruction.Argument) (uint32, bool) {
	switch arg := arg.(type) {
	case *instruction.Var:
		if arg.Scope != a.scope {
			return 0, false
		}
		return a.base(arg.Offset), true
	case *instruction.ArrayAccess:
		if arg.Base.Scope != a.scope {
			return 0, false
		}
		return arg.Base.Offset, true
	default:
		return 0, false
	}
}

func checkAligned(v *instruction.Var) error {
	if v.Offset%instruction.SlotSize != 0 {
		return fmt.Errorf("%w: %s", ErrMisalignedVar, v)
	}
	return nil
}

// varKind derives the variable kind from the reference and its catalog slot.
func varKind(v *instruction.Var, slot catalog.Arg) Kind {
	switch v.Elem {
	case instruction.ElemLabel8:
		return TextLabel
	case instruction.ElemLabel16:
		return TextLabel16
	}
	switch slot.Type {
	case catalog.TypeInt:
		return Int
	case catalog.TypeFloat:
		return Float
	default:
		return Unknown
	}
}

func arrayElemKind(elem instruction.ArrayElem) Kind {
	switch elem {
	case instruction.ArrayInt:
		return Int
	case instruction.ArrayFloat:
		return Float
	case instruction.ArrayLabel8:
		return TextLabel
	case instruction.ArrayLabel16:
		return TextLabel16
	default:
		return Unknown
	}
}
