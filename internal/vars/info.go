package vars

import (
	"fmt"
	"slices"
	"sort"

	"github.com/retroenv/ir2decomp/internal/instruction"
	"github.com/retroenv/retrogolib/set"
)

// Kind is the inferred element type of a variable.
type Kind uint8

// Variable kinds. Unknown is compatible with and upgraded by every other kind.
const (
	Unknown Kind = iota
	Int
	Float
	TextLabel
	TextLabel16
)

var kindNames = map[Kind]string{
	Unknown:     "UNKNOWN",
	Int:         "INT",
	Float:       "FLOAT",
	TextLabel:   "TEXT_LABEL",
	TextLabel16: "TEXT_LABEL16",
}

func (k Kind) String() string {
	return kindNames[k]
}

// ParseKind returns the kind for a type name like INT or TEXT_LABEL16.
func ParseKind(name string) (Kind, bool) {
	for kind, kindName := range kindNames {
		if kind != Unknown && kindName == name {
			return kind, true
		}
	}
	return Unknown, false
}

// Size returns the element size in bytes, unknown kinds use one slot.
func (k Kind) Size() uint32 {
	switch k {
	case TextLabel:
		return 8
	case TextLabel16:
		return 16
	default:
		return instruction.SlotSize
	}
}

// Info describes one inferred variable or array.
type Info struct {
	Start    uint32 // byte offset of the first element
	Kind     Kind
	Count    int // number of array elements, 0 for scalars
	Enums    set.Set[string]
	Entities set.Set[string]
}

// NewInfo returns a variable description with empty tag sets.
func NewInfo(start uint32, kind Kind, count int) *Info {
	return &Info{
		Start:    start,
		Kind:     kind,
		Count:    count,
		Enums:    set.New[string](),
		Entities: set.New[string](),
	}
}

// IsArray returns whether the variable is an array.
func (i *Info) IsArray() bool {
	return i.Count > 0
}

// End returns the byte offset after the last element.
func (i *Info) End() uint32 {
	return i.Start + i.Kind.Size()*uint32(max(i.Count, 1))
}

// Index returns the array element index of the byte offset.
func (i *Info) Index(offset uint32) int {
	return int((offset - i.Start) / i.Kind.Size())
}

// Slot returns the slot index of the first element.
func (i *Info) Slot() uint32 {
	return i.Start / instruction.SlotSize
}

// EnumNames returns the enum tags in sorted order.
func (i *Info) EnumNames() []string {
	return sortedKeys(i.Enums)
}

// EntityNames returns the entity tags in sorted order.
func (i *Info) EntityNames() []string {
	return sortedKeys(i.Entities)
}

func (i *Info) String() string {
	if i.IsArray() {
		return fmt.Sprintf("%s@%d[%d]", i.Kind, i.Start, i.Count)
	}
	return fmt.Sprintf("%s@%d", i.Kind, i.Start)
}

// clone returns a deep copy of the variable description.
func (i *Info) clone() *Info {
	c := NewInfo(i.Start, i.Kind, i.Count)
	c.mergeTags(i)
	return c
}

// mergeTags adds all tags of other to the variable.
func (i *Info) mergeTags(other *Info) {
	for tag := range other.Enums {
		i.Enums.Add(tag)
	}
	for tag := range other.Entities {
		i.Entities.Add(tag)
	}
}

// Table is a sorted list of non overlapping variables.
type Table struct {
	infos []*Info
}

// NewTable returns a table of the coalesced variables.
func NewTable(infos []*Info) *Table {
	return &Table{infos: Coalesce(infos)}
}

// At returns the variable covering the byte offset. Offsets that are not
// covered by any variable return false.
func (t *Table) At(offset uint32) (*Info, bool) {
	i := sort.Search(len(t.infos), func(i int) bool {
		return t.infos[i].End() > offset
	})
	if i < len(t.infos) && t.infos[i].Start <= offset {
		return t.infos[i], true
	}
	return nil, false
}

// Infos returns all variables sorted by start offset.
func (t *Table) Infos() []*Info {
	return t.infos
}

// Len returns the number of variables in the table.
func (t *Table) Len() int {
	return len(t.infos)
}

// Coalesce sorts the variables by start offset and merges every variable that
// starts inside of the previous one into it. Coalescing is idempotent.
func Coalesce(infos []*Info) []*Info {
	sorted := slices.Clone(infos)
	slices.SortStableFunc(sorted, func(a, b *Info) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		default:
			return 0
		}
	})

	result := make([]*Info, 0, len(sorted))
	for _, info := range sorted {
		if n := len(result); n > 0 && info.Start < result[n-1].End() {
			result[n-1].mergeTags(info)
			continue
		}
		result = append(result, info)
	}
	return result
}

func sortedKeys(s set.Set[string]) []string {
	keys := make([]string, 0, len(s))
	for key := range s {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Name returns the source name of the variable slot.
func Name(scope instruction.Scope, slot uint32) string {
	if scope == instruction.Local {
		return fmt.Sprintf("lvar_%d", slot)
	}
	return fmt.Sprintf("var_%d", slot)
}
