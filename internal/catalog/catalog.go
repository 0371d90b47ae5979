// Package catalog provides the command, argument, enum and alternator metadata
// that the bytecode does not retain.
package catalog

import (
	"github.com/elliotchance/orderedmap/v2"
	"github.com/retroenv/retrogolib/set"
)

// Argument types referenced by the inference and rendering code.
const (
	TypeInt   = "INT"
	TypeFloat = "FLOAT"
	TypeParam = "PARAM"
	TypeLabel = "LABEL"
)

// Arg describes one argument slot of a command.
type Arg struct {
	Type           string
	Desc           string
	Out            bool
	Ref            bool
	Optional       bool
	AllowConst     bool
	AllowGlobalVar bool
	AllowLocalVar  bool
	AllowTextLabel bool
	AllowPointer   bool
	PreserveCase   bool
	Entity         string   // entity type the slot refers to, empty if none
	Enums          []string // enum names attached to the slot
}

// Command describes one command of the script language.
type Command struct {
	Name      string
	ID        *int64
	Hash      *int64
	Supported bool
	Internal  bool
	Extension bool
	Args      []Arg
}

// Enum is a named set of integer constants.
type Enum struct {
	Name      string
	Global    bool
	Constants *orderedmap.OrderedMap[string, int32]

	names map[int32]string
}

// Alternator is a group of commands that are alternates of one generic operation.
type Alternator struct {
	Name         string
	Alternatives []string

	members set.Set[string]
}

// Catalog contains all loaded metadata. It is read only once loaded.
type Catalog struct {
	commands    *orderedmap.OrderedMap[string, *Command]
	enums       *orderedmap.OrderedMap[string, *Enum]
	alternators *orderedmap.OrderedMap[string, *Alternator]
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		commands:    orderedmap.NewOrderedMap[string, *Command](),
		enums:       orderedmap.NewOrderedMap[string, *Enum](),
		alternators: orderedmap.NewOrderedMap[string, *Alternator](),
	}
}

// HasOptional returns whether the last argument of the command is optional,
// allowing it to repeat.
func (c *Command) HasOptional() bool {
	return len(c.Args) > 0 && c.Args[len(c.Args)-1].Optional
}

// Arg returns the argument description for position i. Positions past the
// declared arguments map to the last argument if it is optional.
func (c *Command) Arg(i int) (Arg, bool) {
	switch {
	case i >= 0 && i < len(c.Args):
		return c.Args[i], true
	case i >= len(c.Args) && c.HasOptional():
		return c.Args[len(c.Args)-1], true
	default:
		return Arg{}, false
	}
}

// RequiredArgs returns the number of arguments that are not optional.
func (c *Command) RequiredArgs() int {
	n := 0
	for _, arg := range c.Args {
		if !arg.Optional {
			n++
		}
	}
	return n
}

// HasEnum returns whether the argument slot is tagged with the given enum.
func (a Arg) HasEnum(name string) bool {
	for _, enum := range a.Enums {
		if enum == name {
			return true
		}
	}
	return false
}

// ConstantName returns the constant name for the value. For duplicate values
// the first declared name is returned.
func (e *Enum) ConstantName(value int32) (string, bool) {
	name, ok := e.names[value]
	return name, ok
}

// Value returns the value of the named constant.
func (e *Enum) Value(name string) (int32, bool) {
	return e.Constants.Get(name)
}

// Contains returns whether the command is one of the alternatives.
func (a *Alternator) Contains(command string) bool {
	return a.members.Contains(command)
}

// Command returns the command with the given name.
func (c *Catalog) Command(name string) (*Command, bool) {
	return c.commands.Get(name)
}

// Arg returns the argument description of position i of the named command.
func (c *Catalog) Arg(command string, i int) (Arg, bool) {
	cmd, ok := c.commands.Get(command)
	if !ok {
		return Arg{}, false
	}
	return cmd.Arg(i)
}

// Enum returns the enum with the given name.
func (c *Catalog) Enum(name string) (*Enum, bool) {
	return c.enums.Get(name)
}

// Alternator returns the alternator with the given name.
func (c *Catalog) Alternator(name string) (*Alternator, bool) {
	return c.alternators.Get(name)
}

// InAlternator returns whether the command is an alternative of the named alternator.
func (c *Catalog) InAlternator(alternator, command string) bool {
	alt, ok := c.alternators.Get(alternator)
	if !ok {
		return false
	}
	return alt.Contains(command)
}

// Commands returns all commands in load order.
func (c *Catalog) Commands() []*Command {
	return values(c.commands)
}

// Enums returns all enums in load order.
func (c *Catalog) Enums() []*Enum {
	return values(c.enums)
}

// Alternators returns all alternators in load order.
func (c *Catalog) Alternators() []*Alternator {
	return values(c.alternators)
}

func (c *Catalog) addEnum(enum *Enum) {
	enum.names = make(map[int32]string, enum.Constants.Len())
	for el := enum.Constants.Front(); el != nil; el = el.Next() {
		if _, ok := enum.names[el.Value]; !ok {
			enum.names[el.Value] = el.Key
		}
	}
	c.enums.Set(enum.Name, enum)
}

func (c *Catalog) addAlternator(alt *Alternator) {
	alt.members = set.New[string]()
	for _, name := range alt.Alternatives {
		alt.members.Add(name)
	}
	c.alternators.Set(alt.Name, alt)
}

func values[K comparable, V any](m *orderedmap.OrderedMap[K, V]) []V {
	result := make([]V, 0, m.Len())
	for el := m.Front(); el != nil; el = el.Next() {
		result = append(result, el.Value)
	}
	return result
}
