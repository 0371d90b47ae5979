// Package config handles application configuration and setup
package config

import (
	"fmt"

	"github.com/retroenv/ir2decomp/internal/options"
	"github.com/retroenv/retrogolib/log"
	"github.com/spf13/afero"
)

// CreateLogger creates a logger with appropriate settings
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// Resolve returns the decompiler options of the program. The defaults are
// overridden in order by the commandline.txt of the config directory, the
// settings file and the command line flags that were set explicitly.
func Resolve(fs afero.Fs, opts options.Program) (options.Decompiler, error) {
	result := options.NewDecompiler()

	if opts.Config != "" {
		commandLine, err := ReadCommandLine(fs, opts.Config)
		if err != nil {
			return options.Decompiler{}, err
		}
		if err := commandLine.Apply(&result); err != nil {
			return options.Decompiler{}, fmt.Errorf("applying %s: %w", CommandLineFile, err)
		}
	}

	if opts.Settings != "" {
		settings, err := LoadSettings(fs, opts.Settings)
		if err != nil {
			return options.Decompiler{}, err
		}
		settings.Apply(&result)
	}

	applyFlags(&result, opts)

	if result.Arrays && len(result.KnownArrays) == 0 {
		arrays, err := DefaultArrays()
		if err != nil {
			return options.Decompiler{}, err
		}
		result.KnownArrays = arrays
	}
	return result, nil
}

func applyFlags(result *options.Decompiler, opts options.Program) {
	flags := opts.Decompiler
	if opts.Explicit.Contains(options.FlagScopeThenLabel) {
		result.ScopeThenLabel = flags.ScopeThenLabel
	}
	if opts.Explicit.Contains(options.FlagTimerIndex) {
		result.TimerIndex = flags.TimerIndex
	}
	if opts.Explicit.Contains(options.FlagArrays) {
		result.Arrays = flags.Arrays
	}
	if opts.Explicit.Contains(options.FlagMissionVarBegin) {
		result.MissionLocalBegin = max(flags.MissionLocalBegin, 0)
	}
}
