package decompiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/retroenv/ir2decomp/internal/address"
	"github.com/retroenv/ir2decomp/internal/instruction"
	"github.com/retroenv/ir2decomp/internal/output"
	"github.com/retroenv/ir2decomp/internal/scope"
	"github.com/retroenv/ir2decomp/internal/vars"
	"github.com/retroenv/ir2decomp/internal/writer"
	"github.com/retroenv/retrogolib/log"
)

var errNoScope = errors.New("address is not inside of any scope")

// emitter writes the script files while walking the bytecode in address order.
// At most one output file is open at a time.
type emitter struct {
	d    *Decompiler
	tree *output.Tree

	file   *output.File
	writer *writer.Writer
	unit   xref

	headerOpen bool // the start keyword of the file was written but not its end keyword
	pending    bool // a TERMINATE_THIS_SCRIPT was deferred
	braces     bool // the current scope is wrapped in braces
	scopeIndex int
	tab        int
}

func (e *emitter) openMain(input []byte) error {
	if err := e.openFile(output.MainFile, xref{name: output.MainFile, kind: mainUnit}); err != nil {
		return err
	}
	if err := e.writer.CommentHeader(input); err != nil {
		return err
	}

	declarations := writer.DeclarationOptions{Scope: instruction.Global}
	if err := e.writer.Variables(e.d.globals, declarations); err != nil {
		return fmt.Errorf("declaring global variables: %w", err)
	}
	return nil
}

// emit writes one instruction, handling scope and file transitions first.
func (e *emitter) emit(addr address.Address, ins instruction.Instruction) error {
	index, ok := scope.Index(e.d.scopes, addr)
	if !ok {
		return fmt.Errorf("%w: %s", errNoScope, addr)
	}

	if index != e.scopeIndex {
		consumed, err := e.enterScope(index, addr, ins)
		if err != nil {
			return err
		}
		if consumed {
			return nil
		}
	} else if e.pending {
		// the terminate does not end the scope, keep it in place
		e.pending = false
		if err := e.writer.Line(e.tab, terminateThisScript); err != nil {
			return err
		}
	}

	if cmd, ok := instruction.IsCommand(ins, terminateThisScript); ok && e.headerOpen && !cmd.Not && len(cmd.Args) == 0 {
		e.pending = true
		return nil
	}
	return e.emitInstruction(ins)
}

func (e *emitter) emitInstruction(ins instruction.Instruction) error {
	switch ins := ins.(type) {
	case *instruction.Label:
		return e.writer.Label(e.tab, strings.ToLower(ins.Name))

	case *instruction.RawBytes:
		if e.d.firstOccurrence("raw bytes") {
			e.d.logger.Warn("Raw bytes can not be decompiled, emitting them as comment")
		}
		return e.writer.Line(e.tab, "// "+ins.String())

	case *instruction.Command:
		line, err := e.d.renderCommand(ins)
		if err != nil {
			return err
		}
		return e.writer.Line(e.tab, line)

	default:
		return fmt.Errorf("unsupported instruction type %T", ins)
	}
}

// enterScope closes the current scope and opens the scope with the given
// index. It returns whether the instruction was written as part of the
// scope opening. The instruction is nil for an empty scope.
func (e *emitter) enterScope(index int, addr address.Address, ins instruction.Instruction) (bool, error) {
	if e.scopeIndex >= 0 {
		if err := e.closeScope(); err != nil {
			return false, err
		}
	}

	if x, ok := e.d.xrefs.Get(addr); ok {
		if err := e.closeFile(); err != nil {
			return false, err
		}
		if err := e.openFile(output.ScriptPath(x.name), x); err != nil {
			return false, err
		}
	}

	e.scopeIndex = index
	s := e.d.scopes[index]

	name, named := s.ScriptName(e.d.bytecode)
	if !named {
		e.d.logger.Debug("Scope has no script name", log.Stringer("start", s.Start))
	}
	e.d.logger.Debug("Decompiling scope", log.String("name", name), log.String("file", e.unit.name))

	var seeds []*vars.Info
	if named {
		var err error
		if seeds, err = e.d.seeds(name); err != nil {
			return false, err
		}
	}
	locals, err := vars.Analyze(e.d.catalog, s.Instructions(e.d.bytecode), instruction.Local, seeds)
	if err != nil {
		return false, fmt.Errorf("analyzing local variables of scope %s: %w", s, err)
	}
	e.d.locals = locals

	declarations := writer.DeclarationOptions{
		Scope:             instruction.Local,
		Mission:           s.Start.Kind == address.Mission,
		TimerSlots:        e.d.timers,
		MissionLocalBegin: uint32(max(e.d.options.MissionLocalBegin, 0)),
	}

	// the scope at the start of the main stream is not wrapped in braces
	if s.Start == address.New(address.Main, 0, 0) {
		e.braces = false
		e.tab = 0
		return false, e.writer.Variables(locals, declarations)
	}

	e.braces = true
	e.tab = 1
	declarations.Tab = 1

	label, isLabel := ins.(*instruction.Label)
	switch {
	case isLabel && e.d.options.ScopeThenLabel:
		if err := e.writer.Blank(); err != nil {
			return false, err
		}
		if err := e.writer.Line(0, "{"); err != nil {
			return false, err
		}
		if err := e.writer.Line(1, strings.ToLower(label.Name)+":"); err != nil {
			return false, err
		}

	case isLabel:
		if err := e.writer.Label(0, strings.ToLower(label.Name)); err != nil {
			return false, err
		}
		if err := e.writer.Line(0, "{"); err != nil {
			return false, err
		}

	default:
		if err := e.writer.Line(0, "{"); err != nil {
			return false, err
		}
	}

	if err := e.writer.Variables(locals, declarations); err != nil {
		return false, err
	}
	return isLabel, nil
}

// closeScope writes the closing brace of the current scope. A deferred
// terminate is written as end keyword of the file.
func (e *emitter) closeScope() error {
	if e.braces {
		if err := e.writer.Line(0, "}"); err != nil {
			return err
		}
	}
	if !e.pending {
		return nil
	}

	e.pending = false
	return e.closeHeader()
}

// closeHeader writes the end keyword of the file if its start keyword was written.
func (e *emitter) closeHeader() error {
	if !e.headerOpen {
		return nil
	}
	e.headerOpen = false
	_, end, _ := e.unit.header()
	return e.writer.Line(0, end)
}

func (e *emitter) openFile(name string, x xref) error {
	file, err := e.tree.Create(name)
	if err != nil {
		return err
	}

	e.file = file
	e.writer = writer.New(file)
	e.unit = x
	e.headerOpen = false

	start, _, ok := x.header()
	if !ok {
		return nil
	}
	e.headerOpen = true
	return e.writer.Line(0, start)
}

// closeFile ends the current file and closes it.
func (e *emitter) closeFile() error {
	if e.file == nil {
		return nil
	}
	if err := e.closeHeader(); err != nil {
		return err
	}

	file := e.file
	e.file = nil
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing script file: %w", err)
	}
	return nil
}

// finish closes the last scope and file after all instructions were written.
func (e *emitter) finish() error {
	if e.scopeIndex >= 0 {
		if err := e.closeScope(); err != nil {
			return err
		}
	}
	return e.closeFile()
}

// release closes a file that is still open after an aborted run.
func (e *emitter) release() {
	if e.file != nil {
		_ = e.file.Close()
		e.file = nil
	}
}
