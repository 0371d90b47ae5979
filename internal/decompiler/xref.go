package decompiler

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/retroenv/ir2decomp/internal/address"
	"github.com/retroenv/ir2decomp/internal/instruction"
	"github.com/retroenv/ir2decomp/internal/output"
	"github.com/retroenv/ir2decomp/internal/scope"
	"github.com/retroenv/ir2decomp/internal/symbols"
	"github.com/retroenv/retrogolib/set"
)

// ErrMissingXref is returned when a cross script reference has no destination file.
var ErrMissingXref = errors.New("missing cross reference")

// unitKind is the kind of script file that an address starts.
type unitKind uint8

const (
	mainUnit unitKind = iota
	missionUnit
	streamedUnit
	subscriptUnit
	gosubUnit
)

// xref is the destination file of a cross script reference.
type xref struct {
	name string // path relative to the main directory
	kind unitKind
}

// header returns the keywords that open and close a script file.
func (x xref) header() (string, string, bool) {
	switch x.kind {
	case missionUnit, subscriptUnit:
		return "MISSION_START", "MISSION_END", true
	case streamedUnit:
		return "SCRIPT_START", "SCRIPT_END", true
	default:
		return "", "", false
	}
}

// base returns the file name without directory.
func (x xref) base() string {
	return path.Base(x.name)
}

// buildXrefs scans the whole bytecode for the start addresses of all script
// files and assigns a unique file name to each of them.
func (d *Decompiler) buildXrefs() (*symbols.Manager[address.Address, xref], error) {
	xrefs := symbols.New[address.Address, xref]()
	names := set.New[string]()

	add := func(addr address.Address, name string, kind unitKind) {
		if xrefs.Has(addr) {
			return
		}
		xrefs.Set(addr, xref{name: uniqueName(names, name), kind: kind})
	}

	for i := range d.bytecode.Missions() {
		addr := d.bytecode.MissionAddress(i)
		name := fmt.Sprintf("mission%d", i)
		if scriptName, ok := d.scriptName(addr); ok {
			name = strings.ToLower(scriptName)
		}
		add(addr, output.MissionsDir+"/"+output.FileName(name), missionUnit)
	}

	for i := range d.bytecode.StreamedScripts() {
		addr := d.bytecode.StreamedAddress(i)
		name := fmt.Sprintf("stream%d", i)
		if streamName, ok := d.bytecode.StreamName(i); ok && streamName != "" {
			name = strings.ToLower(streamName)
		}
		add(addr, output.StreamsDir+"/"+output.FileName(name), streamedUnit)
	}

	var subscripts, gosubs int
	for addr, ins := range d.bytecode.All() {
		cmd, ok := ins.(*instruction.Command)
		if !ok {
			continue
		}

		switch cmd.Name {
		case launchMission:
			target, err := d.labelTarget(cmd, 0)
			if err != nil {
				return nil, fmt.Errorf("resolving subscript at %s: %w", addr, err)
			}
			if xrefs.Has(target) {
				continue
			}
			name := fmt.Sprintf("subscript%d", subscripts)
			if scriptName, ok := d.scriptName(target); ok {
				name = strings.ToLower(scriptName)
			}
			subscripts++
			add(target, output.FileName(name), subscriptUnit)

		case gosubFile:
			target, err := d.labelTarget(cmd, 1)
			if err != nil {
				return nil, fmt.Errorf("resolving gosub file at %s: %w", addr, err)
			}
			if xrefs.Has(target) {
				continue
			}
			add(target, output.FileName(fmt.Sprintf("gosub%d", gosubs)), gosubUnit)
			gosubs++
		}
	}

	return xrefs, nil
}

// uniqueName returns the name, or the name with a numeric suffix if it
// was taken before.
func uniqueName(names set.Set[string], name string) string {
	candidate := name
	ext := path.Ext(name)
	for i := 2; names.Contains(candidate); i++ {
		candidate = fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), i, ext)
	}
	names.Add(candidate)
	return candidate
}

// scriptName returns the declared name of the scope that contains the address.
func (d *Decompiler) scriptName(addr address.Address) (string, bool) {
	s, ok := scope.Containing(d.scopes, addr)
	if !ok {
		return "", false
	}
	return s.ScriptName(d.bytecode)
}

// labelTarget returns the address of the label argument i of the command.
func (d *Decompiler) labelTarget(cmd *instruction.Command, i int) (address.Address, error) {
	if i >= len(cmd.Args) {
		return address.Address{}, fmt.Errorf("%w: %s is missing argument %d", ErrMissingXref, cmd.Name, i)
	}
	label, ok := cmd.Args[i].(*instruction.LabelRef)
	if !ok {
		return address.Address{}, fmt.Errorf("%w: %s argument %d is not a label", ErrMissingXref, cmd.Name, i)
	}
	target, ok := d.bytecode.LabelAddress(label.Name)
	if !ok {
		return address.Address{}, fmt.Errorf("%w: label '%s' of %s is not defined", ErrMissingXref, label.Name, cmd.Name)
	}
	return target, nil
}

// xrefFile returns the destination file name of a cross script reference.
func (d *Decompiler) xrefFile(addr address.Address) (string, error) {
	x, ok := d.xrefs.Get(addr)
	if !ok {
		return "", fmt.Errorf("%w: no script file starts at %s", ErrMissingXref, addr)
	}
	d.xrefs.MarkUsed(addr)
	return x.base(), nil
}
