// Package bytecode provides the container of the three IR2 instruction streams.
package bytecode

import (
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/retroenv/ir2decomp/internal/address"
	"github.com/retroenv/ir2decomp/internal/instruction"
)

// ErrDuplicateLabel is returned when a label name is defined more than once.
var ErrDuplicateLabel = errors.New("duplicate label")

// Block is an ordered list of instructions.
type Block []instruction.Instruction

// Bytecode owns the main, mission and streamed instruction streams and the
// side tables declared by block directives.
type Bytecode struct {
	main     Block
	missions []Block
	streamed []Block

	models      []string
	streamNames []string

	labels map[string]address.Address
}

// Streams bundles the parsed streams and side tables of a dump.
type Streams struct {
	Main     Block
	Missions []Block
	Streamed []Block

	Models      []string
	StreamNames []string
}

// New creates a new bytecode container and builds the label table.
func New(streams Streams) (*Bytecode, error) {
	b := &Bytecode{
		main:        streams.Main,
		missions:    streams.Missions,
		streamed:    streams.Streamed,
		models:      streams.Models,
		streamNames: streams.StreamNames,
		labels:      make(map[string]address.Address),
	}

	for addr, ins := range b.All() {
		label, ok := ins.(*instruction.Label)
		if !ok {
			continue
		}
		if previous, ok := b.labels[label.Name]; ok {
			return nil, fmt.Errorf("%w '%s' at %s, first defined at %s", ErrDuplicateLabel, label.Name, addr, previous)
		}
		b.labels[label.Name] = addr
	}
	return b, nil
}

// All returns an iterator over all instructions in address order.
func (b *Bytecode) All() iter.Seq2[address.Address, instruction.Instruction] {
	return func(yield func(address.Address, instruction.Instruction) bool) {
		if !yieldBlock(yield, address.Main, 0, b.main) {
			return
		}
		for i, block := range b.missions {
			if !yieldBlock(yield, address.Mission, i, block) {
				return
			}
		}
		for i, block := range b.streamed {
			if !yieldBlock(yield, address.Streamed, i, block) {
				return
			}
		}
	}
}

// From returns an iterator over the instructions starting at the given address,
// stopping at the end of its block.
func (b *Bytecode) From(start address.Address) iter.Seq2[address.Address, instruction.Instruction] {
	return func(yield func(address.Address, instruction.Instruction) bool) {
		for addr := start; ; addr = addr.Next() {
			ins, ok := b.At(addr)
			if !ok || !yield(addr, ins) {
				return
			}
		}
	}
}

// At returns the instruction at the given address. An address outside of
// the streams returns false.
func (b *Bytecode) At(addr address.Address) (instruction.Instruction, bool) {
	block, ok := b.block(addr.Kind, addr.Block)
	if !ok || addr.Index < 0 || addr.Index >= len(block) {
		return nil, false
	}
	return block[addr.Index], true
}

// LabelAddress returns the address of the label with the given name.
func (b *Bytecode) LabelAddress(name string) (address.Address, bool) {
	addr, ok := b.labels[name]
	return addr, ok
}

// MissionAddress returns the address of the first instruction of mission block i.
func (b *Bytecode) MissionAddress(i int) address.Address {
	return address.New(address.Mission, i, 0)
}

// StreamedAddress returns the address of the first instruction of streamed block i.
func (b *Bytecode) StreamedAddress(i int) address.Address {
	return address.New(address.Streamed, i, 0)
}

// Missions returns the number of mission blocks.
func (b *Bytecode) Missions() int {
	return len(b.missions)
}

// StreamedScripts returns the number of streamed blocks.
func (b *Bytecode) StreamedScripts() int {
	return len(b.streamed)
}

// Model returns the entry i of the model name table.
func (b *Bytecode) Model(i int) (string, bool) {
	if i < 0 || i >= len(b.models) {
		return "", false
	}
	return b.models[i], true
}

// StreamName returns the entry i of the stream name table.
func (b *Bytecode) StreamName(i int) (string, bool) {
	if i < 0 || i >= len(b.streamNames) {
		return "", false
	}
	return b.streamNames[i], true
}

// Lines returns the IR2 text lines of the bytecode, one per instruction or directive.
func (b *Bytecode) Lines() []string {
	var lines []string
	for _, model := range b.models {
		lines = append(lines, "#DEFINE_MODEL "+model)
	}
	for _, name := range b.streamNames {
		lines = append(lines, "#DEFINE_STREAM "+name)
	}
	for _, ins := range b.main {
		lines = append(lines, ins.String())
	}
	for i, block := range b.missions {
		lines = append(lines, fmt.Sprintf("#MISSION_BLOCK_START %d", i))
		for _, ins := range block {
			lines = append(lines, ins.String())
		}
		lines = append(lines, "#MISSION_BLOCK_END")
	}
	for i, block := range b.streamed {
		lines = append(lines, fmt.Sprintf("#STREAMED_BLOCK_START %d", i))
		for _, ins := range block {
			lines = append(lines, ins.String())
		}
		lines = append(lines, "#STREAMED_BLOCK_END")
	}
	return lines
}

func (b *Bytecode) String() string {
	return strings.Join(b.Lines(), "\n")
}

func (b *Bytecode) block(kind address.Kind, index int) (Block, bool) {
	var blocks []Block
	switch kind {
	case address.Main:
		if index != 0 {
			return nil, false
		}
		return b.main, true
	case address.Mission:
		blocks = b.missions
	case address.Streamed:
		blocks = b.streamed
	default:
		return nil, false
	}
	if index < 0 || index >= len(blocks) {
		return nil, false
	}
	return blocks[index], true
}

func yieldBlock(yield func(address.Address, instruction.Instruction) bool,
	kind address.Kind, blockIndex int, block Block) bool {

	for i, ins := range block {
		if !yield(address.New(kind, blockIndex, i), ins) {
			return false
		}
	}
	return true
}
