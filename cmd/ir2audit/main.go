// Package main implements a utility that cross-checks an IR2 dump with the command catalog
package main

import (
	"fmt"
	"os"

	"github.com/retroenv/ir2decomp/internal/audit"
	"github.com/retroenv/ir2decomp/internal/config"
	"github.com/retroenv/ir2decomp/internal/loader"
	"github.com/retroenv/retrogolib/log"
	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
)

type optionFlags struct {
	input   string
	catalog string
	debug   bool
	strict  bool
}

func main() {
	options := readArguments()
	logger := config.CreateLogger(options.debug, false)

	report, err := run(options)
	if err != nil {
		logger.Fatal("Audit failed", log.Err(err))
	}

	if err := report.Write(os.Stdout); err != nil {
		logger.Fatal("Writing report failed", log.Err(err))
	}

	if report.Empty() {
		logger.Info("No findings")
	} else if options.strict {
		os.Exit(1)
	}
}

func readArguments() optionFlags {
	flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	options := optionFlags{}

	flags.StringVarP(&options.catalog, "catalog", "c", "", "XML catalog file or gta3sc config directory")
	flags.BoolVar(&options.debug, "debug", false, "enable debugging options for extended logging")
	flags.BoolVar(&options.strict, "strict", false, "exit with an error code if the audit has findings")

	err := flags.Parse(os.Args[1:])
	args := flags.Args()

	if err != nil || len(args) != 1 || options.catalog == "" {
		fmt.Printf("usage: ir2audit [options] <IR2 file to audit>\n\n")
		flags.PrintDefaults()
		os.Exit(1)
	}
	options.input = args[0]

	return options
}

func run(options optionFlags) (*audit.Report, error) {
	l := loader.New(afero.NewOsFs())

	input, err := l.Load(options.input)
	if err != nil {
		return nil, err
	}
	cat, err := l.LoadCatalog(options.catalog)
	if err != nil {
		return nil, err
	}
	return audit.Run(cat, input.Bytecode), nil
}
