// Package decompiler lowers the IR2 bytecode into script source files.
package decompiler

import (
	"fmt"

	"github.com/retroenv/ir2decomp/internal/address"
	"github.com/retroenv/ir2decomp/internal/bytecode"
	"github.com/retroenv/ir2decomp/internal/catalog"
	"github.com/retroenv/ir2decomp/internal/consts"
	"github.com/retroenv/ir2decomp/internal/instruction"
	"github.com/retroenv/ir2decomp/internal/options"
	"github.com/retroenv/ir2decomp/internal/output"
	"github.com/retroenv/ir2decomp/internal/scope"
	"github.com/retroenv/ir2decomp/internal/symbols"
	"github.com/retroenv/ir2decomp/internal/vars"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrogolib/set"
)

// Catalog provides the command, enum and alternator metadata.
type Catalog interface {
	vars.Catalog
	consts.Enums

	Command(name string) (*catalog.Command, bool)
	Alternator(name string) (*catalog.Alternator, bool)
}

// Decompiler lowers a bytecode into script source.
type Decompiler struct {
	logger   *log.Logger
	options  options.Decompiler
	bytecode *bytecode.Bytecode
	catalog  Catalog
	consts   *consts.Consts

	scopes    []scope.Scope
	xrefs     *symbols.Manager[address.Address, xref]
	operators map[string]operator
	timers    set.Set[uint32]
	warned    set.Set[string]

	globals *vars.Table
	locals  *vars.Table // variables of the scope being emitted
}

// New creates a new decompiler. It discovers the scopes, the cross script
// references and the global variables of the bytecode.
func New(logger *log.Logger, b *bytecode.Bytecode, cat Catalog, opts options.Decompiler) (*Decompiler, error) {
	d := &Decompiler{
		logger:   logger,
		options:  opts,
		bytecode: b,
		catalog:  cat,
		consts:   consts.New(cat, b),
		timers:   opts.TimerSlots(),
		warned:   set.New[string](),
		locals:   vars.NewTable(nil),
	}

	var err error
	d.scopes, err = scope.Discover(b)
	if err != nil {
		return nil, fmt.Errorf("discovering scopes: %w", err)
	}

	d.operators, err = d.buildOperators()
	if err != nil {
		return nil, fmt.Errorf("building operator table: %w", err)
	}

	d.xrefs, err = d.buildXrefs()
	if err != nil {
		return nil, fmt.Errorf("building cross references: %w", err)
	}

	seeds, err := d.seeds("")
	if err != nil {
		return nil, err
	}
	d.globals, err = vars.Analyze(cat, b.All(), instruction.Global, seeds)
	if err != nil {
		return nil, fmt.Errorf("analyzing global variables: %w", err)
	}

	logger.Debug("Bytecode analyzed",
		log.Int("scopes", len(d.scopes)),
		log.Int("files", d.xrefs.Len()+1),
		log.Int("globals", d.globals.Len()))
	return d, nil
}

// Scopes returns the discovered scopes.
func (d *Decompiler) Scopes() []scope.Scope {
	return d.scopes
}

// Globals returns the inferred global variables.
func (d *Decompiler) Globals() *vars.Table {
	return d.globals
}

// Files returns the names of all script files besides the main file,
// relative to the main directory.
func (d *Decompiler) Files() []string {
	files := make([]string, 0, d.xrefs.Len())
	for _, x := range d.xrefs.Values() {
		files = append(files, x.name)
	}
	return files
}

// Process writes the script source of the whole bytecode into the tree.
// The checksum of the input is written as comment header of the main file.
func (d *Decompiler) Process(tree *output.Tree, input []byte) error {
	e := &emitter{
		d:          d,
		tree:       tree,
		scopeIndex: -1,
	}
	defer e.release()

	if err := e.openMain(input); err != nil {
		return err
	}

	for i, s := range d.scopes {
		if s.Empty(d.bytecode) {
			if _, err := e.enterScope(i, s.Start, nil); err != nil {
				return fmt.Errorf("decompiling empty scope %s: %w", s, err)
			}
			continue
		}

		for addr, ins := range s.Instructions(d.bytecode) {
			if err := e.emit(addr, ins); err != nil {
				return fmt.Errorf("decompiling '%s' at %s: %w", ins, addr, err)
			}
		}
	}

	if err := e.finish(); err != nil {
		return err
	}

	for _, addr := range d.xrefs.Unused() {
		d.logger.Debug("Script file is not referenced", log.Stringer("address", addr))
	}
	d.logger.Debug("Constants resolved", log.Int("enums", len(d.consts.Used())))
	return nil
}

// seeds returns the known arrays of the named scope as inference seeds.
// An empty name returns the global arrays.
func (d *Decompiler) seeds(scopeName string) ([]*vars.Info, error) {
	arrays := d.options.ScopeArrays(scopeName)
	seeds := make([]*vars.Info, 0, len(arrays))
	for _, array := range arrays {
		kind, ok := vars.ParseKind(array.Type)
		if !ok {
			return nil, fmt.Errorf("known array at slot %d of scope '%s' has invalid type '%s'",
				array.Slot, scopeName, array.Type)
		}
		seeds = append(seeds, vars.NewInfo(array.Slot*instruction.SlotSize, kind, array.Count))
	}
	return seeds, nil
}

// firstOccurrence returns whether the key is seen for the first time.
func (d *Decompiler) firstOccurrence(key string) bool {
	if d.warned.Contains(key) {
		return false
	}
	d.warned.Add(key)
	return true
}
