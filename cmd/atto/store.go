package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/chazu/atto/pkg/imagefile"
	"github.com/chazu/atto/store"
)

// handleStoreCommand processes the `atto store` subcommand.
// Usage:
//
//	atto store put prog.atto        # prints the hash
//	atto store get -o out.toml 3fa1 # hash or unique prefix
//	atto store ls
//	atto store rm 3fa1
//	atto store run -f 1 3fa1
func handleStoreCommand(args []string, opts options) error {
	fs := flag.NewFlagSet("store", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to atto.toml")
	dbPath := fs.String("db", "", "Image store database (overrides [store] path)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("usage: atto store [-db path] put|get|ls|rm|run ...")
	}

	m, err := loadManifest(*configPath)
	if err != nil {
		return err
	}
	opts.configureLogging(m)

	path := *dbPath
	if path == "" {
		path = m.StorePath()
	}
	s, err := store.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()

	sub, rest := fs.Arg(0), fs.Args()[1:]
	switch sub {
	case "put":
		if len(rest) == 0 {
			return errors.New("usage: atto store put <image>...")
		}
		for _, p := range rest {
			img, err := imagefile.ReadFile(p)
			if err != nil {
				return err
			}
			hash, err := s.Put(img)
			if err != nil {
				return err
			}
			fmt.Fprintf(opts.out, "%s  %s\n", hash, p)
		}
		return nil

	case "get":
		gfs := flag.NewFlagSet("store get", flag.ContinueOnError)
		output := gfs.String("o", "", "Write the image here instead of disassembling it")
		if err := gfs.Parse(rest); err != nil {
			return err
		}
		if gfs.NArg() != 1 {
			return errors.New("usage: atto store get [-o output] <hash>")
		}
		img, err := s.Get(gfs.Arg(0))
		if err != nil {
			return err
		}
		if *output == "" {
			fmt.Fprint(opts.out, img.Disassemble())
			return nil
		}
		return imagefile.WriteFile(*output, img)

	case "ls":
		entries, err := s.List()
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Fprintf(opts.out, "%s  %3d functions  %6d bytes  %s\n",
				e.Hash, e.Functions, e.Size, e.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil

	case "rm":
		if len(rest) == 0 {
			return errors.New("usage: atto store rm <hash>...")
		}
		for _, h := range rest {
			if err := s.Delete(h); err != nil {
				return err
			}
		}
		return nil

	case "run":
		rfs := flag.NewFlagSet("store run", flag.ContinueOnError)
		resolve := runFlags(rfs)
		if err := rfs.Parse(rest); err != nil {
			return err
		}
		if rfs.NArg() != 1 {
			return errors.New("usage: atto store run [-f n] [-i n] [-max-steps n] [-trace] <hash>")
		}
		img, err := s.Get(rfs.Arg(0))
		if err != nil {
			return err
		}
		return execute(img, resolve(m), opts)

	default:
		return fmt.Errorf("unknown store command: %s", sub)
	}
}
