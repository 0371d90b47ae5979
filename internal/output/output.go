// Package output manages the generated script source tree.
package output

import (
	"bufio"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// Directories and files of the generated source tree.
const (
	MainFile      = "main.sc"
	MainDir       = "main"
	MissionsDir   = "missions"
	StreamsDir    = "streams"
	fileExtension = ".sc"
)

// Tree is a generated source tree rooted at a directory.
type Tree struct {
	fs   afero.Fs
	root string
}

// File is a buffered output file. Closing it flushes the buffer.
type File struct {
	name   string
	file   afero.File
	writer *bufio.Writer
}

// New creates the directory structure of the source tree.
func New(fs afero.Fs, root string) (*Tree, error) {
	dirs := []string{
		filepath.Join(root, MainDir, MissionsDir),
		filepath.Join(root, MainDir, StreamsDir),
	}
	for _, dir := range dirs {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory '%s': %w", dir, err)
		}
	}

	return &Tree{
		fs:   fs,
		root: root,
	}, nil
}

// Create creates or truncates a file of the tree. The name is relative to
// the root directory.
func (t *Tree) Create(name string) (*File, error) {
	path := filepath.Join(t.root, filepath.FromSlash(name))
	file, err := t.fs.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file '%s': %w", path, err)
	}

	return &File{
		name:   name,
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

// Path returns the file system path of a file of the tree.
func (t *Tree) Path(name string) string {
	return filepath.Join(t.root, filepath.FromSlash(name))
}

// ScriptPath returns the tree relative name of a script file that is placed
// in the main directory.
func ScriptPath(name string) string {
	return MainDir + "/" + name
}

// FileName returns the script file name for a base name.
func FileName(base string) string {
	return base + fileExtension
}

// Name returns the tree relative name of the file.
func (f *File) Name() string {
	return f.name
}

func (f *File) Write(p []byte) (int, error) {
	n, err := f.writer.Write(p)
	if err != nil {
		return n, fmt.Errorf("writing to '%s': %w", f.name, err)
	}
	return n, nil
}

// Close flushes the buffered data and closes the file. The file is closed
// even if flushing fails.
func (f *File) Close() error {
	flushErr := f.writer.Flush()
	closeErr := f.file.Close()
	if flushErr != nil {
		return fmt.Errorf("flushing '%s': %w", f.name, flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("closing '%s': %w", f.name, closeErr)
	}
	return nil
}
