// gxt converts GXT text tables between their binary variants and the
// textual source format, and inspects their structure.
//
// Usage:
//
//	gxt decode   [flags] FILE            binary to text
//	gxt build    [flags] -o OUT SOURCE   text to binary
//	gxt info     [flags] FILE...         block layout and fingerprint
//	gxt glyphs   [flags] FILE...         non-ASCII glyph listings
//	gxt dict     [flags] -o OUT NAMES... hash to name dictionary
//	gxt snapshot [flags] -o OUT FILE     CBOR snapshot, --restore to rebuild
//
// Defaults come from the YAML file named by --config or GXT_CONFIG.
package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/Lzh102938/gxt"
	"github.com/spf13/pflag"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// usageError marks errors caused by bad invocation.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...interface{}) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// run executes a subcommand and returns the process exit code: 0 on
// success, 1 on failure and 2 on usage errors.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 2
	}

	a := &app{stdout: stdout, stderr: stderr}
	var err error
	switch args[0] {
	case "decode":
		err = a.decode(args[1:])
	case "build":
		err = a.build(args[1:])
	case "info":
		err = a.info(args[1:])
	case "glyphs":
		err = a.glyphs(args[1:])
	case "dict":
		err = a.dict(args[1:])
	case "snapshot":
		err = a.snapshot(args[1:])
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "gxt: unknown command %q\n", args[0])
		printUsage(stderr)
		return 2
	}

	var uerr *usageError
	switch {
	case err == nil, errors.Is(err, pflag.ErrHelp):
		return 0
	case errors.As(err, &uerr):
		fmt.Fprintf(stderr, "gxt %s: %v\n", args[0], err)
		return 2
	default:
		fmt.Fprintf(stderr, "gxt %s: %v\n", args[0], err)
		return 1
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `usage: gxt <command> [flags] [args]

commands:
  decode    decode a binary table into textual source
  build     build a binary table from textual source
  info      print the block layout of binary tables
  glyphs    list the non-ASCII glyphs used by tables
  dict      build a hash to name dictionary
  snapshot  export a CBOR snapshot, or rebuild a table from one

Run "gxt <command> --help" for the flags of a command.
`)
}

// --------------------------------------------------------------------

type app struct {
	stdout io.Writer
	stderr io.Writer
}

func (a *app) flagSet(name string) (*pflag.FlagSet, *commonFlags) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(a.stderr)

	cf := new(commonFlags)
	cf.register(fs)
	return fs, cf
}

// setup parses args and returns the resolved config and logger.
func (a *app) setup(fs *pflag.FlagSet, cf *commonFlags, args []string) (*Config, *slog.Logger, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, nil, err
		}
		return nil, nil, usagef("%v", err)
	}

	cfg, err := cf.resolve(fs)
	if err != nil {
		return nil, nil, err
	}
	lvl, err := cfg.level()
	if err != nil {
		return nil, nil, usagef("%v", err)
	}
	logger := slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: lvl}))
	return cfg, logger, nil
}

// output returns a writer for path, stdout for "" or "-".
func (a *app) output(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return a.stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// loadDocument decodes a binary table, or parses textual source when the
// file is not a recognized binary variant.
func loadDocument(path string, cfg *Config, logger *slog.Logger) (*gxt.Document, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if _, err := gxt.Detect(buf); err == nil {
		ro, err := cfg.readerOptions(logger)
		if err != nil {
			return nil, err
		}
		return gxt.Decode(buf, ro)
	}

	to, done, err := cfg.textOptions()
	if err != nil {
		return nil, err
	}
	defer done()
	if to.Variant == gxt.VariantUnknown {
		return nil, usagef("%s is not a binary table; pass --variant to parse it as text", path)
	}
	return gxt.ReadText(bytes.NewReader(buf), to)
}

// --------------------------------------------------------------------

func (a *app) decode(args []string) error {
	fs, cf := a.flagSet("decode")
	out := fs.StringP("output", "o", "", "output file (default stdout)")
	cfg, logger, err := a.setup(fs, cf, args)
	if err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usagef("expected one input file")
	}

	ro, err := cfg.readerOptions(logger)
	if err != nil {
		return err
	}
	f, err := gxt.Open(fs.Arg(0), ro)
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := f.Document()
	if err != nil {
		return err
	}
	if n := len(f.Warnings()); n != 0 {
		logger.Warn("values decoded lossily", "file", fs.Arg(0), "count", n)
	}

	to, done, err := cfg.textOptions()
	if err != nil {
		return err
	}
	defer done()

	w, closeOut, err := a.output(*out)
	if err != nil {
		return err
	}
	if err := gxt.WriteText(w, doc, to); err != nil {
		_ = closeOut()
		return err
	}
	logger.Info("decoded", "file", fs.Arg(0), "variant", doc.Variant(), "tables", doc.NumTables(), "entries", doc.Len())
	return closeOut()
}

func (a *app) build(args []string) error {
	fs, cf := a.flagSet("build")
	out := fs.StringP("output", "o", "", "output file")
	cfg, logger, err := a.setup(fs, cf, args)
	if err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usagef("expected one source file")
	}
	if *out == "" {
		return usagef("--output is required")
	}

	to, done, err := cfg.textOptions()
	if err != nil {
		return usagef("%v", err)
	}
	defer done()
	if to.Variant == gxt.VariantUnknown {
		return usagef("--variant is required")
	}

	src, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer src.Close()

	doc, err := gxt.ReadText(src, to)
	if err != nil {
		return err
	}

	wo, err := cfg.writerOptions(logger)
	if err != nil {
		return usagef("%v", err)
	}
	if err := gxt.WriteFile(*out, doc, wo); err != nil {
		return err
	}
	logger.Info("built", "file", *out, "variant", to.Variant, "tables", doc.NumTables(), "entries", doc.Len())
	return nil
}

func (a *app) info(args []string) error {
	fs, cf := a.flagSet("info")
	cfg, logger, err := a.setup(fs, cf, args)
	if err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return usagef("expected at least one file")
	}

	ro, err := cfg.readerOptions(logger)
	if err != nil {
		return err
	}
	for _, path := range fs.Args() {
		buf, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		layout, err := gxt.Inspect(buf)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		doc, err := gxt.Decode(buf, ro)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		fmt.Fprintf(a.stdout, "%s\n", path)
		if _, err := layout.WriteTo(a.stdout); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "entries %d, fingerprint %x\n", doc.Len(), doc.Fingerprint())
	}
	return nil
}

func (a *app) glyphs(args []string) error {
	fs, cf := a.flagSet("glyphs")
	grid := fs.String("grid", "", "write the UTF-16LE character grid to this file")
	table := fs.String("table", "", "write the m_Table listing to this file")
	mapping := fs.String("map", "", "write the 65536x2 byte row/column map to this file")
	cfg, logger, err := a.setup(fs, cf, args)
	if err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return usagef("expected at least one file")
	}

	docs := make([]*gxt.Document, 0, fs.NArg())
	for _, path := range fs.Args() {
		doc, err := loadDocument(path, cfg, logger)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}
	g := gxt.CollectGlyphs(docs...)

	outputs := []struct {
		path  string
		write func(io.Writer) error
	}{
		{*grid, g.WriteGrid},
		{*table, g.WriteTable},
		{*mapping, g.WriteMap},
	}
	wrote := false
	for _, o := range outputs {
		if o.path == "" {
			continue
		}
		if err := writeFile(o.path, o.write); err != nil {
			return err
		}
		wrote = true
	}
	if !wrote {
		fmt.Fprintf(a.stdout, "%d glyphs\n%s\n", len(g), string(g))
	}
	return nil
}

func (a *app) dict(args []string) error {
	fs, cf := a.flagSet("dict")
	out := fs.StringP("output", "o", "", "output dictionary file")
	lookup := fs.StringSlice("lookup", nil, "hashes to resolve with --dictionary")
	cfg, logger, err := a.setup(fs, cf, args)
	if err != nil {
		return err
	}

	if len(*lookup) != 0 {
		return a.lookup(cfg, *lookup)
	}
	if *out == "" || fs.NArg() == 0 {
		return usagef("expected --output and at least one name source")
	}

	v, err := cfg.variant()
	if err != nil {
		return usagef("%v", err)
	}
	if v.KeyKind() != gxt.HashedKeys {
		return usagef("--variant must be a hashed-key variant (c or d)")
	}

	names := make(gxt.NameList)
	for _, path := range fs.Args() {
		n, err := collectNames(path, v, cfg, logger)
		if err != nil {
			return err
		}
		for _, name := range n {
			names.Add(v, name)
		}
	}
	if err := gxt.WriteDictionary(*out, names); err != nil {
		return err
	}
	logger.Info("wrote dictionary", "file", *out, "names", len(names))
	return nil
}

func (a *app) lookup(cfg *Config, hashes []string) error {
	if cfg.Dictionary == "" {
		return usagef("--lookup needs --dictionary")
	}
	dict, err := gxt.OpenDictionary(cfg.Dictionary)
	if err != nil {
		return err
	}
	defer dict.Close()

	for _, s := range hashes {
		h, err := strconv.ParseUint(s, 16, 32)
		if err != nil {
			return usagef("bad hash %q", s)
		}
		name, ok := dict.Lookup(uint32(h))
		if !ok {
			name = "-"
		}
		fmt.Fprintf(a.stdout, "%08X %s\n", h, name)
	}
	return nil
}

// collectNames reads the key names of a named-key binary table, or a
// plain list of names.
func collectNames(path string, v gxt.Variant, cfg *Config, logger *slog.Logger) (gxt.NameList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var head [8]byte
	n, _ := io.ReadFull(f, head[:])
	if src, err := gxt.Detect(head[:n]); err == nil && src.KeyKind() == gxt.NamedKeys {
		doc, err := loadDocument(path, cfg, logger)
		if err != nil {
			return nil, err
		}
		return gxt.CollectNames(doc, v), nil
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return gxt.LoadNameList(f, v)
}

func (a *app) snapshot(args []string) error {
	fs, cf := a.flagSet("snapshot")
	out := fs.StringP("output", "o", "", "output file (default stdout)")
	restore := fs.Bool("restore", false, "rebuild a binary table from a snapshot")
	cfg, logger, err := a.setup(fs, cf, args)
	if err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usagef("expected one input file")
	}

	if *restore {
		if *out == "" {
			return usagef("--output is required with --restore")
		}
		data, err := os.ReadFile(fs.Arg(0))
		if err != nil {
			return err
		}
		doc, err := gxt.UnmarshalSnapshot(data)
		if err != nil {
			return err
		}
		wo, err := cfg.writerOptions(logger)
		if err != nil {
			return usagef("%v", err)
		}
		return gxt.WriteFile(*out, doc, wo)
	}

	doc, err := loadDocument(fs.Arg(0), cfg, logger)
	if err != nil {
		return err
	}
	data, err := gxt.MarshalSnapshot(doc)
	if err != nil {
		return err
	}

	w, closeOut, err := a.output(*out)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		_ = closeOut()
		return err
	}
	logger.Info("wrote snapshot", "bytes", len(data), "fingerprint", fmt.Sprintf("%x", doc.Fingerprint()))
	return closeOut()
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
