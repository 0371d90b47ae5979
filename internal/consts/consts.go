// Package consts resolves integer arguments to symbolic constant names.
package consts

import (
	"sort"
	"strings"

	"github.com/retroenv/ir2decomp/internal/catalog"
	"github.com/retroenv/retrogolib/set"
)

// Enum names with special resolution rules.
const (
	ModelEnum        = "MODEL"
	DefaultModelEnum = "DEFAULTMODEL"
)

const boolPrefix = "Bool"

var boolNames = [2]string{"FALSE", "TRUE"}

// Enums provides the enums of the metadata catalog.
type Enums interface {
	Enum(name string) (*catalog.Enum, bool)
}

// Models provides the model name table of the bytecode.
type Models interface {
	Model(i int) (string, bool)
}

// Consts resolves constants and tracks which enums were used.
type Consts struct {
	enums  Enums
	models Models
	used   set.Set[string]
}

// New creates a new constants resolver.
func New(enums Enums, models Models) *Consts {
	return &Consts{
		enums:  enums,
		models: models,
		used:   set.New[string](),
	}
}

// Argument returns the symbolic name of an integer passed to the argument
// slot. It returns false if the literal value has to be used.
func (c *Consts) Argument(value int32, slot catalog.Arg) (string, bool) {
	if len(slot.Enums) > 0 {
		return c.enumName(slot.Enums[0], value)
	}
	if strings.HasPrefix(slot.Desc, boolPrefix) && (value == 0 || value == 1) {
		return boolNames[value], true
	}
	return "", false
}

// ForTags returns the symbolic name of a constant that is compared with or
// assigned to a variable with the given enum tags. The tags are tried in
// sorted order before falling back to the default model enum.
func (c *Consts) ForTags(value int32, tags []string) (string, bool) {
	sorted := append([]string(nil), tags...)
	sort.Strings(sorted)

	for _, tag := range sorted {
		if name, ok := c.enumName(tag, value); ok {
			return name, true
		}
	}
	return c.lookup(DefaultModelEnum, value)
}

// Used returns the names of all enums that resolved at least one constant,
// in sorted order.
func (c *Consts) Used() []string {
	names := make([]string, 0, len(c.used))
	for name := range c.used {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// enumName resolves the value in the named enum. Negative values of the
// model enum reference the model table of the bytecode, non negative ones
// the default models.
func (c *Consts) enumName(enum string, value int32) (string, bool) {
	if enum != ModelEnum {
		return c.lookup(enum, value)
	}
	if value >= 0 {
		return c.lookup(DefaultModelEnum, value)
	}

	name, ok := c.models.Model(int(-value - 1))
	if !ok || name == "" {
		return "", false
	}
	c.used.Add(ModelEnum)
	return name, true
}

func (c *Consts) lookup(enum string, value int32) (string, bool) {
	e, ok := c.enums.Enum(enum)
	if !ok {
		return "", false
	}
	name, ok := e.ConstantName(value)
	if !ok {
		return "", false
	}
	c.used.Add(enum)
	return name, true
}
