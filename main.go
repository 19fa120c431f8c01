package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"c0vm/vm"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "c0vm",
		Short: "c0vm interprets a compiler-course three-address IR",
	}
	root.AddCommand(runCmd(), fmtCmd())
	return root
}

func readSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "reading %s", path)
	}
	return string(data), nil
}

func runCmd() *cobra.Command {
	var ssa bool
	var timeoutSeconds uint64
	var debug bool

	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "parse, validate, and interpret a program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readSource(args[0])
			if err != nil {
				return err
			}

			prog, perr := vm.Parse(source)
			if perr != nil {
				printDiagnostic(os.Stderr, perr)
				os.Exit(1)
			}

			if serr := vm.Analyze(prog, ssa); serr != nil {
				printDiagnostic(os.Stderr, serr)
				os.Exit(1)
			}

			cfg := vm.Config{
				SSA:     ssa,
				Timeout: time.Duration(timeoutSeconds) * time.Second,
				Debug:   debug,
				Stdout:  os.Stdout,
			}

			outcome, rerr := vm.Run(prog, cfg)
			if rerr != nil {
				printDiagnostic(os.Stderr, rerr.(vm.Error))
				os.Exit(1)
			}

			switch o := outcome.(type) {
			case vm.ReturnOutcome:
				fmt.Printf("return %d\n", o.Value)
			case vm.DivByZeroOutcome:
				fmt.Println("div-by-zero")
			case vm.TimeoutOutcome:
				fmt.Println("timeout")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&ssa, "ssa", false, "reject programs that are not in strict single-definition SSA form")
	cmd.Flags().Uint64Var(&timeoutSeconds, "timeout", 0, "wall-clock budget in seconds (0 disables the check)")
	cmd.Flags().BoolVar(&debug, "debug", false, "on `dump`, also pretty-print the store after the plain listing")
	return cmd
}

func fmtCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fmt <file>",
		Short: "parse a program and print it as a line-numbered listing (not re-parseable source)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readSource(args[0])
			if err != nil {
				return err
			}
			prog, perr := vm.Parse(source)
			if perr != nil {
				printDiagnostic(os.Stderr, perr)
				os.Exit(1)
			}
			var names []string
			prog.Funcs.Iter(func(name string, _ *vm.Func) bool {
				names = append(names, name)
				return false
			})
			for _, name := range names {
				fn, _ := prog.Get(name)
				fmt.Print(fn.String())
			}
			return nil
		},
	}
	return cmd
}

func printDiagnostic(w *os.File, e vm.Error) {
	msg := fmt.Sprintf("error[%s%d]: %s", e.Tag(), e.Code(), e.Message())
	if label, span, ok := e.Label(); ok && label != "" {
		msg += fmt.Sprintf(" - %s (%s)", label, span)
	}
	fmt.Fprintln(w, msg)
	if note, ok := e.Note(); ok {
		fmt.Fprintf(w, "  note: %s\n", note)
	}
}
