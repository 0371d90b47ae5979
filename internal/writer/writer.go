// Package writer implements the script source file writing functionality.
package writer

import (
	"fmt"
	"io"
	"strings"

	"github.com/retroenv/ir2decomp/internal/instruction"
	"github.com/retroenv/ir2decomp/internal/vars"
	"github.com/retroenv/retrogolib/set"
	"github.com/zeebo/blake3"
)

const indent = "    "

// first global slots that are reserved by the script engine
const reservedGlobalSlots = 2

// Writer writes indented script source lines.
type Writer struct {
	writer io.Writer
}

// DeclarationOptions control the variable declaration output.
type DeclarationOptions struct {
	Scope      instruction.Scope
	Mission    bool            // the declarations belong to a mission scope
	TimerSlots set.Set[uint32] // local slots of the built-in timers
	Tab        int

	// MissionLocalBegin is the first local slot that is declared in missions.
	MissionLocalBegin uint32
}

// New creates a new writer.
func New(writer io.Writer) *Writer {
	return &Writer{
		writer: writer,
	}
}

// Line writes a line of text at the given indentation level.
func (w *Writer) Line(tab int, text string) error {
	if _, err := fmt.Fprintf(w.writer, "%s%s\n", strings.Repeat(indent, tab), text); err != nil {
		return fmt.Errorf("writing line: %w", err)
	}
	return nil
}

// Blank writes an empty line.
func (w *Writer) Blank() error {
	if _, err := fmt.Fprintln(w.writer); err != nil {
		return fmt.Errorf("writing line: %w", err)
	}
	return nil
}

// Label writes a label line preceded by an empty line.
func (w *Writer) Label(tab int, name string) error {
	if err := w.Blank(); err != nil {
		return err
	}
	return w.Line(tab, name+":")
}

// CommentHeader writes the blake3 checksum of the decompiled input as comment.
func (w *Writer) CommentHeader(input []byte) error {
	sum := blake3.Sum256(input)
	if _, err := fmt.Fprintf(w.writer, "// IR2 blake3 checksum: %x\n\n", sum); err != nil {
		return fmt.Errorf("writing checksum: %w", err)
	}
	return nil
}

// Variables writes the declarations of all variables of the table. Slots
// between declared variables are declared as unused integer variables.
func (w *Writer) Variables(table *vars.Table, options DeclarationOptions) error {
	prefix := ""
	next := uint32(reservedGlobalSlots)
	if options.Scope == instruction.Local {
		prefix = "L"
		next = 0
	}

	var declared bool
	for _, info := range table.Infos() {
		slot := info.Slot()
		if options.Scope == instruction.Local && options.TimerSlots.Contains(slot) {
			continue
		}
		declared = true

		for k := next; k < slot; k++ {
			if options.skipUnused(k) {
				continue
			}
			line := fmt.Sprintf("%sVAR_INT %s // unused variable", prefix, vars.Name(options.Scope, k))
			if err := w.Line(options.Tab, line); err != nil {
				return err
			}
		}

		if err := w.Line(options.Tab, declaration(prefix, info, options.Scope)); err != nil {
			return err
		}
		next = max(next, info.End()/instruction.SlotSize)
	}

	if declared {
		return w.Blank()
	}
	return nil
}

func (o DeclarationOptions) skipUnused(slot uint32) bool {
	if o.Scope != instruction.Local {
		return false
	}
	if o.Mission && slot < o.MissionLocalBegin {
		return true
	}
	return o.TimerSlots.Contains(slot)
}

func declaration(prefix string, info *vars.Info, scope instruction.Scope) string {
	kind := info.Kind
	if kind == vars.Unknown {
		kind = vars.Int
	}

	name := vars.Name(scope, info.Slot())
	if info.IsArray() {
		name = fmt.Sprintf("%s[%d]", name, info.Count)
	}

	line := fmt.Sprintf("%sVAR_%s %s", prefix, kind, name)
	if info.Kind == vars.Unknown {
		line += " // unknown type"
	}
	return line
}
