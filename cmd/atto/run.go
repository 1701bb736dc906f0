package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/chazu/atto/manifest"
	"github.com/chazu/atto/pkg/bytecode"
	"github.com/chazu/atto/pkg/imagefile"
)

// runConfig is the effective entry point and limits for one execution.
type runConfig struct {
	function    uint32
	instruction uint32
	maxSteps    uint64
	trace       bool
}

// runFlags registers the execution flags shared by `atto run` and
// `atto store run`. The returned function merges them over the manifest.
func runFlags(fs *flag.FlagSet) func(m *manifest.Manifest) runConfig {
	function := fs.Uint("f", 0, "Entry function index")
	instruction := fs.Uint("i", 0, "Entry instruction index")
	maxSteps := fs.Uint64("max-steps", 0, "Stop after this many instructions (0 = unlimited)")
	trace := fs.Bool("trace", false, "Log every executed instruction at debug level")

	return func(m *manifest.Manifest) runConfig {
		rc := runConfig{
			function:    m.Run.Function,
			instruction: m.Run.Instruction,
			maxSteps:    m.Run.MaxSteps,
			trace:       m.Run.Trace,
		}
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "f":
				rc.function = uint32(*function)
			case "i":
				rc.instruction = uint32(*instruction)
			case "max-steps":
				rc.maxSteps = *maxSteps
			case "trace":
				rc.trace = *trace
			}
		})
		return rc
	}
}

// handleRunCommand processes the `atto run` subcommand.
// Usage:
//
//	atto run prog.atto             # function 0, instruction 0
//	atto run -f 1 -i 4 prog.toml   # explicit entry point
//	atto run                       # [run] image from atto.toml
func handleRunCommand(args []string, opts options) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to atto.toml")
	resolve := runFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	m, err := loadManifest(*configPath)
	if err != nil {
		return err
	}
	opts.configureLogging(m)

	path := fs.Arg(0)
	if path == "" {
		path = m.ImagePath()
	}
	if path == "" {
		return errors.New("no image given and no [run] image in atto.toml")
	}

	img, err := imagefile.ReadFile(path)
	if err != nil {
		return err
	}
	return execute(img, resolve(m), opts)
}

// execute runs img to completion and prints the returned word.
func execute(img *bytecode.Image, rc runConfig, opts options) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	value, err := runImage(ctx, img, rc)
	if err != nil {
		return err
	}
	fmt.Fprintln(opts.out, uint64(value))
	return nil
}

// runImage enters img at the configured location and runs until the entry
// function returns.
func runImage(ctx context.Context, img *bytecode.Image, rc runConfig) (bytecode.Word, error) {
	vm := bytecode.NewVM(img)
	defer vm.Close()

	vm.Trace = rc.trace
	vm.SetMaxSteps(rc.maxSteps)

	if err := vm.Enter(rc.function, rc.instruction); err != nil {
		return 0, err
	}
	value, err := vm.Run(ctx)
	if err != nil {
		if loc, ok := vm.State().Location(); ok && errors.Is(err, bytecode.ErrStepLimit) {
			return 0, fmt.Errorf("%w at %s", err, loc)
		}
		return 0, err
	}
	return value, nil
}
