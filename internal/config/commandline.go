package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/retroenv/ir2decomp/internal/options"
	"github.com/spf13/afero"
)

// CommandLineFile is the file of the config directory that contains the
// compiler options of the game configuration.
const CommandLineFile = "commandline.txt"

// compiler option keys that affect the decompiled output
const (
	keyScopeThenLabel  = "-fscope-then-label"
	keyTimerIndex      = "-ftimer-index"
	keyArrays          = "-farrays"
	keyMissionVarBegin = "-fmission-var-begin"
)

// CommandLine maps compiler option keys to their values. Options without
// a value are stored as "true".
type CommandLine map[string]string

// ReadCommandLine reads the commandline.txt of the config directory.
// A missing file returns an empty command line.
func ReadCommandLine(fs afero.Fs, dir string) (CommandLine, error) {
	path := filepath.Join(dir, CommandLineFile)
	file, err := fs.Open(path)
	if err != nil {
		if isNotExist(err) {
			return CommandLine{}, nil
		}
		return nil, fmt.Errorf("opening file '%s': %w", path, err)
	}
	defer func() { _ = file.Close() }()

	commandLine, err := ParseCommandLine(file)
	if err != nil {
		return nil, fmt.Errorf("reading file '%s': %w", path, err)
	}
	return commandLine, nil
}

// ParseCommandLine parses whitespace separated compiler options. The
// negated forms -fno-x and -mno-x set -fx and -mx to false.
func ParseCommandLine(reader io.Reader) (CommandLine, error) {
	commandLine := CommandLine{}

	scanner := bufio.NewScanner(reader)
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			value = "true"
		}

		for _, prefix := range []string{"-fno-", "-mno-"} {
			if name, negated := strings.CutPrefix(key, prefix); negated {
				key = prefix[:2] + name
				value = "false"
			}
		}
		commandLine[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning options: %w", err)
	}
	return commandLine, nil
}

// Apply sets the decompiler options that are contained in the command line.
func (c CommandLine) Apply(opts *options.Decompiler) error {
	if err := c.boolOption(keyScopeThenLabel, &opts.ScopeThenLabel); err != nil {
		return err
	}
	if err := c.boolOption(keyArrays, &opts.Arrays); err != nil {
		return err
	}
	if err := c.intOption(keyTimerIndex, &opts.TimerIndex); err != nil {
		return err
	}
	if err := c.intOption(keyMissionVarBegin, &opts.MissionLocalBegin); err != nil {
		return err
	}
	opts.MissionLocalBegin = max(opts.MissionLocalBegin, 0)
	return nil
}

func (c CommandLine) boolOption(key string, target *bool) error {
	value, ok := c[key]
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("option %s has invalid boolean value '%s'", key, value)
	}
	*target = b
	return nil
}

func (c CommandLine) intOption(key string, target *int) error {
	value, ok := c[key]
	if !ok {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("option %s has invalid integer value '%s'", key, value)
	}
	*target = i
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
