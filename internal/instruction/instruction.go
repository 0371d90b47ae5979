// Package instruction contains the decoded IR2 instruction and argument model.
package instruction

import (
	"fmt"
	"strings"
)

// Instruction is one decoded line of a bytecode block.
// It is one of *Label, *RawBytes or *Command.
type Instruction interface {
	fmt.Stringer

	isInstruction()
}

// Label marks a jump destination.
type Label struct {
	Name string
}

// RawBytes is undecoded data embedded in the bytecode.
type RawBytes struct {
	Bytes []byte
}

// Command is an opcode invocation with its arguments.
type Command struct {
	Not  bool   // negated condition
	Name string // upper case command name
	Args []Argument
}

// RawBytesName is the pseudo command that carries raw bytes in the text format.
const RawBytesName = "IR2_HEX"

func (*Label) isInstruction()    {}
func (*RawBytes) isInstruction() {}
func (*Command) isInstruction()  {}

func (l *Label) String() string {
	return l.Name + ":"
}

func (r *RawBytes) String() string {
	buf := &strings.Builder{}
	buf.WriteString(RawBytesName)
	for _, b := range r.Bytes {
		_, _ = fmt.Fprintf(buf, " %di8", int8(b))
	}
	return buf.String()
}

func (c *Command) String() string {
	buf := &strings.Builder{}
	if c.Not {
		buf.WriteString("NOT ")
	}
	buf.WriteString(c.Name)
	for _, arg := range c.Args {
		buf.WriteByte(' ')
		buf.WriteString(arg.String())
	}
	return buf.String()
}

// IsCommand returns the instruction as command if it is a command with the given name.
func IsCommand(ins Instruction, name string) (*Command, bool) {
	cmd, ok := ins.(*Command)
	if !ok || cmd.Name != name {
		return nil, false
	}
	return cmd, true
}
