package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/teness/tessc/internal/backend"
	"github.com/teness/tessc/internal/config"
	"github.com/teness/tessc/internal/driver"
)

type rootFlags struct {
	dumps       []string
	output      string
	noOpt       bool
	run         bool
	configFile  string
	entryPolicy string
	verbose     bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	f := &rootFlags{}

	root := &cobra.Command{
		Use:   "tessc [flags] <file.tss>",
		Short: "tessc compiles TenessScript programs",
		Long: `tessc compiles a TenessScript source file to a native executable
through LLVM, or runs it directly with --run.

Commands:
  repl   Read statements interactively and print their IR
`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDriver(cmd.Flags(), f, stdout, stderr)
			if err != nil {
				return err
			}
			res, err := d.Compile(cmd.Context(), args[0], f.output)
			if err != nil {
				return err
			}
			for _, path := range res.Dumps {
				d.Logger.Info("wrote", "path", path)
			}
			if res.Output != "" {
				d.Logger.Info("compiled", "output", res.Output)
				return nil
			}
			printResult(stdout, res.ExitCode)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.configFile, "config", "", "config file (default: $"+config.EnvVar+" or ./tessc.toml)")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "log every compiler stage")
	pf.BoolVar(&f.noOpt, "no-opt", false, "disable optimization")
	pf.StringVar(&f.entryPolicy, "entry-policy", "", "entry function policy: auto or always")

	fl := root.Flags()
	fl.StringArrayVarP(&f.dumps, "dump", "d", nil, "write a debug dump: tokens, ast, ir or asm (repeatable)")
	fl.StringVarP(&f.output, "output", "o", "", "output executable (default: input without .tss)")
	fl.BoolVar(&f.run, "run", false, "run the program instead of producing an executable")

	root.AddCommand(newReplCmd(f, stdout, stderr))
	return root
}

// loadOptions reads the config file and applies the flags set on the
// command line over it.
func loadOptions(flags *pflag.FlagSet, f *rootFlags) (config.Options, error) {
	var (
		opts config.Options
		err  error
	)
	if f.configFile != "" {
		opts, err = config.Load(f.configFile)
	} else {
		opts, err = config.LoadFromEnv()
	}
	if err != nil {
		return config.Options{}, err
	}
	if err := applyFlags(&opts, flags, f); err != nil {
		return config.Options{}, err
	}
	return opts, opts.Validate()
}

func applyFlags(opts *config.Options, flags *pflag.FlagSet, f *rootFlags) error {
	for _, d := range f.dumps {
		switch d {
		case "tokens":
			opts.DumpTokens = true
		case "ast":
			opts.DumpAST = true
		case "ir":
			opts.DumpIR = true
		case "asm":
			opts.DumpAsm = true
		default:
			return fmt.Errorf("unknown dump %q: want tokens, ast, ir or asm", d)
		}
	}
	if f.noOpt {
		opts.Optimize = false
	}
	if f.run {
		opts.ExecuteImmediately = true
	}
	if flags.Changed("entry-policy") {
		opts.EntryPolicy = f.entryPolicy
	}
	if f.verbose {
		opts.LogLevel = "debug"
	}
	return nil
}

// printResult reports the value returned by a program run with --run.
func printResult(w io.Writer, code int) {
	fmt.Fprintf(w, "Returned %d\n", code)
}

func newDriver(flags *pflag.FlagSet, f *rootFlags, stdout, stderr io.Writer) (*driver.Driver, error) {
	opts, err := loadOptions(flags, f)
	if err != nil {
		return nil, err
	}
	logger := driver.NewLogger(opts.LogLevel, stderr)
	tc := backend.NewToolchain(logger)
	tc.Stdout = stdout
	tc.Stderr = stderr
	return driver.New(opts, tc, logger), nil
}
