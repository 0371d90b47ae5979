// Package cli handles command line interface logic
package cli

import (
	"fmt"
	"os"

	"github.com/retroenv/ir2decomp/internal/options"
	"github.com/retroenv/retrogolib/set"
	flag "github.com/spf13/pflag"
)

// ParseFlags parses the command line flags and returns the program options.
// The decompiler flags are only applied by the config resolution if they
// were set explicitly, the names of all set flags are recorded in Explicit.
func ParseFlags() (options.Program, error) {
	flags := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flags.Usage = func() {}

	opts := options.Program{
		Decompiler: options.NewDecompiler(),
		Explicit:   set.New[string](),
	}
	readOptionFlags(flags, &opts)
	readDecompilerFlags(flags, &opts.Decompiler)

	err := flags.Parse(os.Args[1:])
	args := flags.Args()
	if err != nil || (len(args) == 0 && opts.Batch == "") {
		return opts, &UsageError{flags: flags}
	}

	if err := validateArgs(args, opts); err != nil {
		return opts, err
	}

	flags.Visit(func(f *flag.Flag) {
		opts.Explicit.Add(f.Name)
	})

	if opts.Catalog == "" {
		opts.Catalog = opts.Config
	}
	if opts.Batch == "" {
		opts.Input = args[0]
	}
	return opts, nil
}

// UsageError represents an error that should show usage information
type UsageError struct {
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	return e.msg
}

// ShowUsage prints the usage information and all flag defaults.
func (e *UsageError) ShowUsage() {
	if e.msg != "" {
		fmt.Printf("%s\n\n", e.msg)
	}
	fmt.Printf("usage: ir2decomp [options] <IR2 file to decompile>\n\n")
	if e.flags != nil {
		e.flags.SetOutput(os.Stdout)
		e.flags.PrintDefaults()
	}
	fmt.Println()
}

// validateArgs checks the positional arguments and the required paths.
func validateArgs(args []string, opts options.Program) error {
	if opts.Batch != "" && len(args) > 0 {
		return &UsageError{
			msg: fmt.Sprintf("Input file %s can not be combined with the batch option", args[0]),
		}
	}
	if len(args) > 1 {
		return &UsageError{
			msg: fmt.Sprintf("Potential argument %s found after file to decompile, please pass the file to decompile as last argument", args[1]),
		}
	}
	if opts.Config == "" && opts.Catalog == "" {
		return &UsageError{
			msg: "A gta3sc config directory or a catalog is required to decompile",
		}
	}
	return nil
}

func readOptionFlags(flags *flag.FlagSet, opts *options.Program) {
	flags.StringVarP(&opts.Output, "output", "o", "", "output directory of the generated source tree, derived from the input name if not given")
	flags.StringVarP(&opts.Config, "config", "c", "", "gta3sc config directory containing commandline.txt and the XML catalog")
	flags.StringVar(&opts.Catalog, "catalog", "", "XML catalog file or directory, defaults to the config directory")
	flags.StringVar(&opts.Settings, "settings", "", "TOML settings file with decompiler options and known arrays")
	flags.StringVar(&opts.Batch, "batch", "", "process a batch of given path and file mask and automatically name the output directories, for example *.ir2")
	flags.BoolVar(&opts.Verify, "verify", false, "verify the parsed input by serializing it back to IR2 and comparing it with the input")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debugging options for extended logging")
	flags.BoolVarP(&opts.Quiet, "quiet", "q", false, "perform operations quietly")
}

func readDecompilerFlags(flags *flag.FlagSet, opts *options.Decompiler) {
	flags.BoolVar(&opts.ScopeThenLabel, options.FlagScopeThenLabel, false, "open the scope before the label that starts it")
	flags.IntVar(&opts.TimerIndex, options.FlagTimerIndex, -1, "first local variable slot of the two built-in timers, negative for none")
	flags.BoolVar(&opts.Arrays, options.FlagArrays, false, "seed the variable inference with the known arrays")
	flags.IntVar(&opts.MissionLocalBegin, options.FlagMissionVarBegin, 0, "first local variable slot that is declared in missions")
}
