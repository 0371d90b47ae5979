// Package fileprocessor handles file selection and processing operations
package fileprocessor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/retroenv/ir2decomp/internal/options"
	"github.com/retroenv/ir2decomp/internal/pipeline"
	"github.com/retroenv/retrogolib/log"
	"github.com/spf13/afero"
)

// outputSuffix is appended to the input name without extension to name the
// generated source tree.
const outputSuffix = "_sc"

// ProcessFile decompiles the input file of the options.
func ProcessFile(ctx context.Context, logger *log.Logger, fs afero.Fs, opts options.Program) error {
	p := pipeline.New(logger, fs)

	result, err := p.Execute(ctx, opts)
	if err != nil {
		return err
	}

	if !opts.Quiet {
		logger.Info("Decompiled IR2 file",
			log.String("output", opts.Output),
			log.Int("files", len(result.Files)+1),
			log.Int("scopes", result.Scopes),
			log.Int("globals", result.Globals),
		)
	}
	return nil
}

// GetFilesToProcess returns list of files to process based on options
func GetFilesToProcess(fs afero.Fs, opts options.Program) ([]string, error) {
	if opts.Batch != "" {
		matches, err := afero.Glob(fs, opts.Batch)
		if err != nil {
			return nil, fmt.Errorf("globbing batch pattern: %w", err)
		}
		return matches, nil
	}
	return []string{opts.Input}, nil
}

// GenerateOutputDirectory generates the output directory name for a given input file
func GenerateOutputDirectory(inputFile string) string {
	ext := filepath.Ext(inputFile)
	return inputFile[:len(inputFile)-len(ext)] + outputSuffix
}

// PrintBanner prints application version information
func PrintBanner(logger *log.Logger, opts options.Program, version, commit, date string) {
	if opts.Quiet {
		return
	}

	versionString := version
	if commit != "" {
		if len(commit) > 7 {
			commit = commit[:7]
		}
		versionString += fmt.Sprintf(" (%s)", commit)
	}

	logger.Info("ir2decomp", log.String("version", versionString))

	if date != "" && !strings.Contains(date, "unknown") {
		logger.Info("Build", log.String("date", date))
	}
}
