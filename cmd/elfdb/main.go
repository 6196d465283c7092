// Command elfdb is an interactive debugger for elfcode programs.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/udoprog/elfdb/tui"
	"github.com/udoprog/elfdb/vm"
)

var (
	flagStep     int64
	flagHeadless bool
	flagVerbose  bool
)

func main() {
	defer func() {
		if p := recover(); p != nil {
			fmt.Fprintln(os.Stderr, p)
			os.Exit(101)
		}
	}()

	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "elfdb [program]",
		Short: "Interactive debugger for elfcode programs",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDebugger,
	}

	cmd.Flags().Int64Var(&flagStep, "step", vm.DefaultNoninteractiveStep,
		"number of Free-mode steps between redraws")
	cmd.Flags().BoolVar(&flagHeadless, "headless", false,
		"run without a terminal UI, driving to completion or the first breakpoint")
	cmd.Flags().BoolVar(&flagVerbose, "verbose", false,
		"log control-loop lifecycle events to stderr")

	return cmd
}

func runDebugger(cmd *cobra.Command, args []string) error {
	level := zerolog.Disabled
	if flagVerbose {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	device := vm.NewDevice()
	if len(args) == 1 {
		if err := device.LoadPath(args[0]); err != nil {
			return fmt.Errorf("load %q: %w", args[0], err)
		}
	}

	opts := []vm.LoopOption{
		vm.WithLogger(log),
		vm.WithNoninteractiveStep(flagStep),
	}

	var collaborator tui.Collaborator
	if flagHeadless {
		opts = append(opts, vm.WithFree())
		collaborator = tui.NewHeadless()
	} else {
		opts = append(opts, vm.WithInteractive())
		collaborator = tui.NewTerminal()
	}

	loop := vm.NewLoop(device, opts...)

	if err := collaborator.Setup(); err != nil {
		return fmt.Errorf("setup collaborator: %w", err)
	}

	for {
		quit, err := collaborator.Draw(loop)
		if err != nil {
			_ = collaborator.Done(loop)
			return fmt.Errorf("control loop: %w", err)
		}
		if quit {
			break
		}

		if err := loop.Step(); err != nil && err != vm.ErrProgramHalted {
			_ = collaborator.Done(loop)
			return fmt.Errorf("step: %w", err)
		}
	}

	return collaborator.Done(loop)
}
