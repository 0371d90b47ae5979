// Package pipeline orchestrates the decompilation workflow stages.
package pipeline

import (
	"context"
	"fmt"

	"github.com/retroenv/ir2decomp/internal/config"
	"github.com/retroenv/ir2decomp/internal/decompiler"
	"github.com/retroenv/ir2decomp/internal/loader"
	"github.com/retroenv/ir2decomp/internal/options"
	"github.com/retroenv/ir2decomp/internal/output"
	"github.com/retroenv/ir2decomp/internal/verification"
	"github.com/retroenv/retrogolib/log"
	"github.com/spf13/afero"
)

// Result summarizes a finished decompilation.
type Result struct {
	Files   []string // script files besides the main file, relative to the main directory
	Scopes  int
	Globals int
}

// Pipeline orchestrates the complete decompilation workflow.
type Pipeline struct {
	logger *log.Logger
	fs     afero.Fs
	loader *loader.Loader
}

// New creates a new decompilation pipeline working on the given filesystem.
func New(logger *log.Logger, fs afero.Fs) *Pipeline {
	return &Pipeline{
		logger: logger,
		fs:     fs,
		loader: loader.New(fs),
	}
}

// Execute runs the complete decompilation pipeline.
func (p *Pipeline) Execute(ctx context.Context, opts options.Program) (*Result, error) {
	decompilerOpts, err := config.Resolve(p.fs, opts)
	if err != nil {
		return nil, fmt.Errorf("resolving configuration: %w", err)
	}

	input, err := p.loader.Load(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("loading input: %w", err)
	}

	if opts.Verify {
		if err := verification.Verify(p.logger, input.Data, input.Bytecode); err != nil {
			return nil, fmt.Errorf("verification failed: %w", err)
		}
		p.logger.Info("Verification successful")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cat, err := p.loader.LoadCatalog(opts.Catalog)
	if err != nil {
		return nil, err
	}

	p.printInfo(opts, decompilerOpts)

	dec, err := decompiler.New(p.logger, input.Bytecode, cat, decompilerOpts)
	if err != nil {
		return nil, fmt.Errorf("creating decompiler: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tree, err := output.New(p.fs, opts.Output)
	if err != nil {
		return nil, fmt.Errorf("creating output tree: %w", err)
	}
	if err := dec.Process(tree, input.Data); err != nil {
		return nil, fmt.Errorf("decompiling: %w", err)
	}

	return &Result{
		Files:   dec.Files(),
		Scopes:  len(dec.Scopes()),
		Globals: dec.Globals().Len(),
	}, nil
}

// printInfo prints information about the file being processed.
func (p *Pipeline) printInfo(opts options.Program, decompilerOpts options.Decompiler) {
	if opts.Quiet {
		return
	}

	p.logger.Info("Processing IR2 file",
		log.String("file", opts.Input),
		log.String("output", opts.Output),
	)
	p.logger.Debug("Decompiler options",
		log.Int("timer_index", decompilerOpts.TimerIndex),
		log.Int("mission_var_begin", decompilerOpts.MissionLocalBegin),
		log.Int("known_arrays", len(decompilerOpts.ScopeArrays(""))),
	)
}
