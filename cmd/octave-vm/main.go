// Command octave-vm compiles and runs function fixtures on the bytecode
// machine. A fixture is a JSON rendering of a parsed function body, which
// keeps the command independent of any particular front end.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chbinousamy/octave"
	"github.com/chbinousamy/octave/dis"
	"github.com/chbinousamy/octave/object"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	root := &cobra.Command{
		Use:   "octave-vm",
		Short: "Bytecode compiler and stack machine for function fixtures",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			processGlobalFlags()
		},
	}
	root.PersistentFlags().Bool("no-color", false, "Disable colored output")
	root.PersistentFlags().Bool("trace", false, "Log every executed instruction")
	viper.BindPFlags(root.PersistentFlags())
	viper.SetEnvPrefix("octave")
	viper.AutomaticEnv()

	runCmd := &cobra.Command{
		Use:   "run <fixture>",
		Short: "Compile a fixture and execute it",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			nargout, _ := cmd.Flags().GetInt("nargout")
			display, _ := cmd.Flags().GetBool("display")
			if err := runFixture(args[0], nargout, display); err != nil {
				fatal(err)
			}
		},
	}
	runCmd.Flags().Int("nargout", 0, "Number of results to request")
	runCmd.Flags().Bool("display", false, "Echo results of unterminated statements")
	root.AddCommand(runCmd)

	disCmd := &cobra.Command{
		Use:   "dis <fixture>",
		Short: "Compile a fixture and print its bytecode",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := disFixture(args[0]); err != nil {
				fatal(err)
			}
		},
	}
	root.AddCommand(disCmd)

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("octave-vm %s (commit %s, built %s)\n", version, commit, date)
		},
	})

	if err := root.Execute(); err != nil {
		fatal(err)
	}
}

func newEvaluator(display bool) *octave.BytecodeEvaluator {
	var opts []octave.Option
	if display {
		opts = append(opts, octave.WithDisplay())
	}
	if viper.GetBool("trace") {
		log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(zerolog.TraceLevel).
			With().Timestamp().Logger()
		opts = append(opts, octave.WithTraceLogger(log))
	}
	return octave.NewEvaluator(opts...)
}

func runFixture(path string, nargout int, display bool) error {
	fn, err := LoadFixture(path)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	results, err := newEvaluator(display).Eval(ctx, fn, nil, nargout)
	if err != nil {
		return err
	}
	for _, r := range results {
		if r == nil {
			continue
		}
		fmt.Println(inspect(r))
	}
	return nil
}

func disFixture(path string) error {
	fn, err := LoadFixture(path)
	if err != nil {
		return err
	}
	code, err := newEvaluator(false).Compile(fn)
	if err != nil {
		return err
	}
	instructions, err := dis.Disassemble(code)
	if err != nil {
		return err
	}
	dis.Print(instructions, os.Stdout)
	return nil
}

func inspect(v object.Value) string {
	if s, ok := v.(*object.String); ok {
		return s.Value()
	}
	return v.Inspect()
}
