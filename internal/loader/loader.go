// Package loader handles reading the decompiler inputs.
package loader

import (
	"bytes"
	"fmt"

	"github.com/retroenv/ir2decomp/internal/bytecode"
	"github.com/retroenv/ir2decomp/internal/catalog"
	"github.com/retroenv/ir2decomp/internal/parser"
	"github.com/spf13/afero"
)

// Input is a loaded IR2 dump.
type Input struct {
	Data     []byte // raw file content
	Bytecode *bytecode.Bytecode
}

// Loader handles loading the input files from a filesystem.
type Loader struct {
	fs afero.Fs
}

// New creates a new loader reading from the given filesystem.
func New(fs afero.Fs) *Loader {
	return &Loader{
		fs: fs,
	}
}

// Load reads and parses an IR2 dump.
func (l *Loader) Load(path string) (*Input, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}

	b, err := parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing file %s: %w", path, err)
	}

	return &Input{
		Data:     data,
		Bytecode: b,
	}, nil
}

// LoadCatalog reads the command catalog from a file or a directory of XML files.
func (l *Loader) LoadCatalog(path string) (*catalog.Catalog, error) {
	cat, err := catalog.Load(l.fs, path)
	if err != nil {
		return nil, fmt.Errorf("loading catalog %s: %w", path, err)
	}
	return cat, nil
}
