package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/chazu/atto/pkg/imagefile"
)

// handleDisCommand processes the `atto dis` subcommand.
func handleDisCommand(args []string, opts options) error {
	fs := flag.NewFlagSet("dis", flag.ContinueOnError)
	function := fs.Int("f", -1, "Only disassemble this function")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: atto dis [-f n] <image>")
	}

	img, err := imagefile.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}

	if *function < 0 {
		fmt.Fprint(opts.out, img.Disassemble())
		return nil
	}
	fn, err := img.Function(*function)
	if err != nil {
		return err
	}
	fmt.Fprint(opts.out, fn.DisassembleWithName(fmt.Sprintf("function %d", *function)))
	return nil
}

// handleCheckCommand processes the `atto check` subcommand. Every problem
// found is reported, not just the first.
func handleCheckCommand(args []string, opts options) error {
	if len(args) == 0 {
		return errors.New("usage: atto check <image>...")
	}
	failed := 0
	for _, path := range args {
		img, err := imagefile.ReadFile(path)
		if err == nil {
			err = img.Validate()
		}
		if err != nil {
			failed++
			fmt.Fprintf(opts.out, "%s:\n%v\n", path, err)
			continue
		}
		fmt.Fprintf(opts.out, "%s: ok (%d functions)\n", path, img.Len())
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d images failed validation", failed, len(args))
	}
	return nil
}

// handleConvertCommand processes the `atto convert` subcommand. The output
// format follows the output file extension: .toml for TOML, anything else
// for binary.
func handleConvertCommand(args []string, opts options) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	output := fs.String("o", "", "Output path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || *output == "" {
		return errors.New("usage: atto convert -o <output> <input>")
	}

	img, err := imagefile.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	if err := imagefile.WriteFile(*output, img); err != nil {
		return err
	}
	fmt.Fprintf(opts.out, "Wrote %s (%d functions)\n", *output, img.Len())
	return nil
}
