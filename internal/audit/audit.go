// Package audit cross-checks the commands used by a bytecode with the catalog.
package audit

import (
	"cmp"
	"fmt"
	"io"
	"slices"

	"github.com/retroenv/ir2decomp/internal/address"
	"github.com/retroenv/ir2decomp/internal/bytecode"
	"github.com/retroenv/ir2decomp/internal/catalog"
	"github.com/retroenv/ir2decomp/internal/consts"
	"github.com/retroenv/ir2decomp/internal/instruction"
)

// Catalog provides the command and enum metadata.
type Catalog interface {
	Command(name string) (*catalog.Command, bool)
	Enum(name string) (*catalog.Enum, bool)
}

// CommandCount is a command with its number of uses.
type CommandCount struct {
	Name  string
	Count int
}

// ArgMismatch is a command that is used with an argument count that does
// not fit its catalog declaration.
type ArgMismatch struct {
	Command  string
	Args     int // argument count of the use
	Declared int // declared argument count
	Optional bool
	First    address.Address
	Count    int
}

// UnnamedValue is an integer passed to an enum slot that has no name in the enum.
type UnnamedValue struct {
	Enum    string
	Value   int32
	Command string // first command that used the value
}

// Report contains the findings of an audit.
type Report struct {
	Missing       []CommandCount
	Unsupported   []CommandCount
	ArgMismatches []ArgMismatch
	UnnamedValues []UnnamedValue
}

type mismatchKey struct {
	command string
	args    int
}

type valueKey struct {
	enum  string
	value int32
}

type auditor struct {
	catalog Catalog

	missing     map[string]int
	unsupported map[string]int
	mismatches  map[mismatchKey]*ArgMismatch
	unnamed     map[valueKey]*UnnamedValue
}

// Run audits all commands of the bytecode.
func Run(cat Catalog, b *bytecode.Bytecode) *Report {
	a := &auditor{
		catalog:     cat,
		missing:     map[string]int{},
		unsupported: map[string]int{},
		mismatches:  map[mismatchKey]*ArgMismatch{},
		unnamed:     map[valueKey]*UnnamedValue{},
	}

	for addr, ins := range b.All() {
		if cmd, ok := ins.(*instruction.Command); ok {
			a.command(addr, cmd)
		}
	}
	return a.report()
}

func (a *auditor) command(addr address.Address, cmd *instruction.Command) {
	info, ok := a.catalog.Command(cmd.Name)
	if !ok {
		a.missing[cmd.Name]++
		return
	}
	if !info.Supported {
		a.unsupported[cmd.Name]++
	}

	args := len(cmd.Args)
	if (args > len(info.Args) && !info.HasOptional()) || args < info.RequiredArgs() {
		key := mismatchKey{command: cmd.Name, args: args}
		mismatch, ok := a.mismatches[key]
		if !ok {
			mismatch = &ArgMismatch{
				Command:  cmd.Name,
				Args:     args,
				Declared: len(info.Args),
				Optional: info.HasOptional(),
				First:    addr,
			}
			a.mismatches[key] = mismatch
		}
		mismatch.Count++
	}

	for i, arg := range cmd.Args {
		number, ok := arg.(*instruction.Number)
		if !ok || number.IsFloat() {
			continue
		}
		slot, ok := info.Arg(i)
		if !ok || len(slot.Enums) == 0 {
			continue
		}
		a.enumValue(cmd.Name, slot.Enums[0], number.Int)
	}
}

// enumValue records the value if the enum has no name for it. Negative
// model values reference the model table of the bytecode and are skipped.
func (a *auditor) enumValue(command, enum string, value int32) {
	if enum == consts.ModelEnum {
		if value < 0 {
			return
		}
		enum = consts.DefaultModelEnum
	}

	if e, ok := a.catalog.Enum(enum); ok {
		if _, ok := e.ConstantName(value); ok {
			return
		}
	}

	key := valueKey{enum: enum, value: value}
	if _, ok := a.unnamed[key]; !ok {
		a.unnamed[key] = &UnnamedValue{Enum: enum, Value: value, Command: command}
	}
}

func (a *auditor) report() *Report {
	r := &Report{
		Missing:     sortedCounts(a.missing),
		Unsupported: sortedCounts(a.unsupported),
	}

	for _, mismatch := range a.mismatches {
		r.ArgMismatches = append(r.ArgMismatches, *mismatch)
	}
	slices.SortFunc(r.ArgMismatches, func(x, y ArgMismatch) int {
		return cmp.Or(cmp.Compare(x.Command, y.Command), cmp.Compare(x.Args, y.Args))
	})

	for _, value := range a.unnamed {
		r.UnnamedValues = append(r.UnnamedValues, *value)
	}
	slices.SortFunc(r.UnnamedValues, func(x, y UnnamedValue) int {
		return cmp.Or(cmp.Compare(x.Enum, y.Enum), cmp.Compare(x.Value, y.Value))
	})
	return r
}

func sortedCounts(counts map[string]int) []CommandCount {
	result := make([]CommandCount, 0, len(counts))
	for name, count := range counts {
		result = append(result, CommandCount{Name: name, Count: count})
	}
	slices.SortFunc(result, func(x, y CommandCount) int {
		return cmp.Compare(x.Name, y.Name)
	})
	return result
}

// Empty returns whether the audit has no findings.
func (r *Report) Empty() bool {
	return len(r.Missing) == 0 && len(r.Unsupported) == 0 &&
		len(r.ArgMismatches) == 0 && len(r.UnnamedValues) == 0
}

// Write prints the findings in a line based text format.
func (r *Report) Write(w io.Writer) error {
	var lines []string
	for _, c := range r.Missing {
		lines = append(lines, fmt.Sprintf("Missing command %s used %d times", c.Name, c.Count))
	}
	for _, c := range r.Unsupported {
		lines = append(lines, fmt.Sprintf("Command %s is marked unsupported but used %d times", c.Name, c.Count))
	}
	for _, m := range r.ArgMismatches {
		declared := fmt.Sprintf("%d", m.Declared)
		if m.Optional {
			declared += "+"
		}
		lines = append(lines, fmt.Sprintf("Command %s used with %d arguments instead of %s at %s (%d times)",
			m.Command, m.Args, declared, m.First, m.Count))
	}
	for _, v := range r.UnnamedValues {
		lines = append(lines, fmt.Sprintf("Unknown value %d of enum %s used by %s", v.Value, v.Enum, v.Command))
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}
	return nil
}
