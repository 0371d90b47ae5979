// Package options contains the program options.
package options

import "github.com/retroenv/retrogolib/set"

// Parameters contains file path options.
type Parameters struct {
	Input    string // IR2 dump to decompile
	Output   string // output directory of the generated source tree
	Config   string // gta3sc config directory containing commandline.txt and the catalog
	Catalog  string // catalog file or directory, defaults to the config directory
	Settings string // TOML settings file
	Batch    string // batch process files matching pattern (e.g. *.ir2)
}

// Flags contains behavior options.
type Flags struct {
	Verify bool // verify the parsed bytecode by serializing it back to IR2
	Debug  bool
	Quiet  bool
}

// Program options of the decompiler.
type Program struct {
	Parameters
	Flags
	Decompiler Decompiler

	// Explicit contains the names of all command line flags that were set.
	Explicit set.Set[string]
}

// Names of the command line flags that override the decompiler settings.
const (
	FlagScopeThenLabel  = "scope-then-label"
	FlagTimerIndex      = "timer-index"
	FlagArrays          = "arrays"
	FlagMissionVarBegin = "mission-var-begin"
)

// KnownArray declares an array that is not necessarily visible in the bytecode.
type KnownArray struct {
	Scope string `toml:"scope"` // script name of the scope, empty for globals
	Slot  uint32 `toml:"slot"`
	Type  string `toml:"type"`
	Count int    `toml:"count"`
}

// Decompiler defines options to control the decompiler.
type Decompiler struct {
	TimerIndex        int  // first local slot of the built-in timers, negative if none
	MissionLocalBegin int  // first local slot that is declared in missions
	ScopeThenLabel    bool // open a scope before its starting label
	Arrays            bool // pre-seed the inference with the known arrays

	KnownArrays []KnownArray
}

// NewDecompiler returns a new options instance with default options.
func NewDecompiler() Decompiler {
	return Decompiler{
		TimerIndex: -1,
	}
}

// TimerSlots returns the local slots of the built-in timers.
func (d Decompiler) TimerSlots() set.Set[uint32] {
	slots := set.New[uint32]()
	if d.TimerIndex >= 0 {
		slots.Add(uint32(d.TimerIndex))
		slots.Add(uint32(d.TimerIndex + 1))
	}
	return slots
}

// ScopeArrays returns the known arrays of the named scope.
func (d Decompiler) ScopeArrays(scope string) []KnownArray {
	if !d.Arrays {
		return nil
	}
	var arrays []KnownArray
	for _, array := range d.KnownArrays {
		if array.Scope == scope {
			arrays = append(arrays, array)
		}
	}
	return arrays
}
