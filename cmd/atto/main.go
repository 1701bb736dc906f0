// Atto CLI - runs, inspects and stores Atto program images
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/atto/manifest"
)

// options holds flags shared by every subcommand.
type options struct {
	verbosity    int
	verbositySet bool
	out          io.Writer
}

// configureLogging applies the -v flag, falling back to the [log] table of
// the manifest when -v was not given.
func (o options) configureLogging(m *manifest.Manifest) {
	verbosity := o.verbosity
	var path *string
	if m != nil {
		if !o.verbositySet {
			verbosity = m.Log.Verbosity
		}
		if p := m.LogFilePath(); p != "" {
			path = &p
		}
	}
	commonlog.Configure(verbosity, path)
}

func main() {
	verbosity := flag.Int("v", 0, "Log verbosity (-4 silent .. 2 debug)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: atto [options] <command> [args...]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  run     Execute an image\n")
		fmt.Fprintf(os.Stderr, "  dis     Disassemble an image\n")
		fmt.Fprintf(os.Stderr, "  check   Validate an image without running it\n")
		fmt.Fprintf(os.Stderr, "  convert Convert between the binary and TOML image formats\n")
		fmt.Fprintf(os.Stderr, "  store   Manage the image store (put, get, ls, rm, run)\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  atto run prog.atto                  # Run function 0 from instruction 0\n")
		fmt.Fprintf(os.Stderr, "  atto run -f 2 -max-steps 1000 prog.toml\n")
		fmt.Fprintf(os.Stderr, "  atto -v 2 run -trace prog.atto      # Log every instruction\n")
		fmt.Fprintf(os.Stderr, "  atto convert -o prog.atto prog.toml # Assemble a TOML image\n")
		fmt.Fprintf(os.Stderr, "  atto store put prog.atto            # Prints the image hash\n")
	}
	flag.Parse()

	opts := options{verbosity: *verbosity, out: os.Stdout}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "v" {
			opts.verbositySet = true
		}
	})
	opts.configureLogging(nil)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	var err error
	switch args[0] {
	case "run":
		err = handleRunCommand(args[1:], opts)
	case "dis":
		err = handleDisCommand(args[1:], opts)
	case "check":
		err = handleCheckCommand(args[1:], opts)
	case "convert":
		err = handleConvertCommand(args[1:], opts)
	case "store":
		err = handleStoreCommand(args[1:], opts)
	case "help":
		flag.Usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		flag.Usage()
		os.Exit(2)
	}

	if err == flag.ErrHelp {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadManifest loads an explicit config file, or searches upward from the
// working directory. Without any atto.toml the defaults are used.
func loadManifest(configPath string) (*manifest.Manifest, error) {
	if configPath != "" {
		return manifest.LoadFile(configPath)
	}
	m, err := manifest.FindAndLoad(".")
	if err != nil {
		return nil, fmt.Errorf("loading manifest: %w", err)
	}
	if m == nil {
		m = manifest.Default(".")
	}
	return m, nil
}
