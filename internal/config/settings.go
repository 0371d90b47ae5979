package config

import (
	_ "embed"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/retroenv/ir2decomp/internal/options"
	"github.com/spf13/afero"
)

//go:embed arrays.toml
var defaultArrays []byte

// Settings contains the decompiler options of a TOML settings file. Unset
// options keep their previous value.
type Settings struct {
	ScopeThenLabel  *bool `toml:"scope-then-label"`
	TimerIndex      *int  `toml:"timer-index"`
	Arrays          *bool `toml:"arrays"`
	MissionVarBegin *int  `toml:"mission-var-begin"`

	KnownArrays []options.KnownArray `toml:"known-array"`
}

// LoadSettings reads a TOML settings file.
func LoadSettings(fs afero.Fs, path string) (*Settings, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading settings file '%s': %w", path, err)
	}

	var settings Settings
	if err := toml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parsing settings file '%s': %w", path, err)
	}
	return &settings, nil
}

// Apply sets all options of the settings that have a value.
func (s *Settings) Apply(opts *options.Decompiler) {
	if s.ScopeThenLabel != nil {
		opts.ScopeThenLabel = *s.ScopeThenLabel
	}
	if s.TimerIndex != nil {
		opts.TimerIndex = *s.TimerIndex
	}
	if s.Arrays != nil {
		opts.Arrays = *s.Arrays
	}
	if s.MissionVarBegin != nil {
		opts.MissionLocalBegin = max(*s.MissionVarBegin, 0)
	}
	if len(s.KnownArrays) > 0 {
		opts.KnownArrays = s.KnownArrays
	}
}

// DefaultArrays returns the built-in table of arrays that are not
// recognizable as arrays from their accesses in the San Andreas scripts.
func DefaultArrays() ([]options.KnownArray, error) {
	var settings Settings
	if err := toml.Unmarshal(defaultArrays, &settings); err != nil {
		return nil, fmt.Errorf("parsing built-in arrays: %w", err)
	}
	return settings.KnownArrays, nil
}
