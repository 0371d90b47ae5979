package instruction

import (
	"fmt"
	"strconv"
	"strings"
)

// Argument is one operand of a command.
// It is one of *Number, *LabelRef, *Text, *Var or *ArrayAccess.
type Argument interface {
	fmt.Stringer

	isArgument()
}

// Width is the encoding width of a number argument.
type Width uint8

// Number widths.
const (
	Int8 Width = iota
	Int16
	Int32
	Float
)

// Scope is the visibility of a label reference or variable.
type Scope uint8

// Scopes.
const (
	Global Scope = iota
	Local
)

// TextKind is the encoding of a text argument.
type TextKind uint8

// Text kinds.
const (
	TextLabel8 TextKind = iota
	TextLabel16
	Buffer128
	String
)

// ElemKind is the element kind of a variable slot.
type ElemKind uint8

// Variable element kinds.
const (
	ElemNumber ElemKind = iota
	ElemLabel8
	ElemLabel16
)

// ArrayElem is the declared element type of an array access.
type ArrayElem uint8

// Array element types.
const (
	ArrayInt ArrayElem = iota
	ArrayFloat
	ArrayLabel8
	ArrayLabel16
)

// Number is an integer or floating point literal.
type Number struct {
	Width Width
	Int   int32   // value for integer widths
	Float float64 // value for Float width
}

// LabelRef references a label by name.
type LabelRef struct {
	Scope Scope
	Name  string
}

// Text is a quoted literal.
type Text struct {
	Kind  TextKind
	Value string
}

// Var references a variable. Global offsets are byte offsets into the shared
// variable store, local offsets are multiples of the 4 byte slot size.
type Var struct {
	Scope  Scope
	Elem   ElemKind
	Offset uint32
}

// ArrayAccess references an element of an array variable.
type ArrayAccess struct {
	Base  Var
	Index Argument
	Count int // element count of the array
	Elem  ArrayElem
}

// SlotSize is the size in bytes of one variable slot.
const SlotSize = 4

func (*Number) isArgument()      {}
func (*LabelRef) isArgument()    {}
func (*Text) isArgument()        {}
func (*Var) isArgument()         {}
func (*ArrayAccess) isArgument() {}

// IsFloat returns whether the number is a floating point literal.
func (n *Number) IsFloat() bool {
	return n.Width == Float
}

func (n *Number) String() string {
	switch n.Width {
	case Int8:
		return fmt.Sprintf("%di8", n.Int)
	case Int16:
		return fmt.Sprintf("%di16", n.Int)
	case Int32:
		return fmt.Sprintf("%di32", n.Int)
	default:
		return FormatHexFloat(n.Float) + "f"
	}
}

func (l *LabelRef) String() string {
	if l.Scope == Local {
		return "%" + l.Name
	}
	return "@" + l.Name
}

func (t *Text) String() string {
	switch t.Kind {
	case TextLabel16:
		return "v'" + t.Value + "'"
	case Buffer128:
		return `b"` + t.Value + `"`
	case String:
		return `"` + t.Value + `"`
	default:
		return "'" + t.Value + "'"
	}
}

// Size returns the size in bytes of one element of the variable.
func (v *Var) Size() uint32 {
	switch v.Elem {
	case ElemLabel8:
		return 8
	case ElemLabel16:
		return 16
	default:
		return SlotSize
	}
}

// Slot returns the slot index of the variable.
func (v *Var) Slot() uint32 {
	return v.Offset / SlotSize
}

// IsText returns whether the variable holds a text label.
func (v *Var) IsText() bool {
	return v.Elem == ElemLabel8 || v.Elem == ElemLabel16
}

func (v *Var) String() string {
	sigil := elemSigils[v.Elem]
	if v.Scope == Local {
		return strconv.FormatUint(uint64(v.Slot()), 10) + "@" + sigil
	}
	return sigil + "&" + strconv.FormatUint(uint64(v.Offset), 10)
}

func (a *ArrayAccess) String() string {
	return fmt.Sprintf("%s(%s,%d%c)", a.Base.String(), a.Index, a.Count, arrayElemChars[a.Elem])
}

var elemSigils = map[ElemKind]string{
	ElemNumber:  "",
	ElemLabel8:  "s",
	ElemLabel16: "v",
}

var arrayElemChars = map[ArrayElem]byte{
	ArrayInt:     'i',
	ArrayFloat:   'f',
	ArrayLabel8:  's',
	ArrayLabel16: 'v',
}

// FormatHexFloat formats a float as hex literal with 6 mantissa digits and
// an exponent without leading zeros, for example 0x1.800000p+0.
func FormatHexFloat(f float64) string {
	s := strconv.FormatFloat(f, 'x', 6, 64)
	pos := strings.IndexByte(s, 'p')
	if pos < 0 || pos+2 >= len(s) {
		return s
	}
	exponent := strings.TrimLeft(s[pos+2:], "0")
	if exponent == "" {
		exponent = "0"
	}
	return s[:pos+2] + exponent
}
