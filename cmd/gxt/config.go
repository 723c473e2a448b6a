package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Lzh102938/gxt"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds the defaults of every subcommand. It is loaded from the
// file named by --config or GXT_CONFIG; flags override it.
type Config struct {
	// Variant of textual sources and build output (a/b/c/d or iii/vc/sa/iv).
	Variant string `yaml:"variant"`

	// Charset overrides the variant value charset.
	Charset string `yaml:"charset"`

	// Fallback overrides the charsets tried when decoding fails.
	Fallback []string `yaml:"fallback"`

	// TableOrder is "default", "insertion" or "name".
	TableOrder string `yaml:"table_order"`

	// SortKeys sorts entries by key on build.
	SortKeys bool `yaml:"sort_keys"`

	// Compression of text written by decode (none/snappy/zstd/lz4).
	Compression string `yaml:"compression"`

	// CodeTable is the path of a CHAR<TAB>HEX code table.
	CodeTable string `yaml:"code_table"`

	// Dictionary is the path of a hash to name dictionary built by
	// "gxt dict".
	Dictionary string `yaml:"dictionary"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the configuration used without a file.
func DefaultConfig() *Config {
	return &Config{
		TableOrder:  "default",
		Compression: "none",
		LogLevel:    "warn",
	}
}

// LoadConfig reads path over the defaults. An empty path falls back to
// GXT_CONFIG and then to the defaults alone.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = os.Getenv("GXT_CONFIG")
	}
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// commonFlags are shared by all subcommands.
type commonFlags struct {
	config     string
	variant    string
	charset    string
	fallback   []string
	tableOrder string
	sortKeys   bool
	compress   string
	codeTable  string
	dictionary string
	logLevel   string
}

func (c *commonFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&c.config, "config", "", "YAML config file (default $GXT_CONFIG)")
	fs.StringVar(&c.variant, "variant", "", "variant: a/iii, b/vc, c/sa, d/iv")
	fs.StringVar(&c.charset, "charset", "", "value charset override, e.g. gbk")
	fs.StringSliceVar(&c.fallback, "fallback", nil, "comma separated fallback charsets")
	fs.StringVar(&c.tableOrder, "table-order", "", "table order: default, insertion, name")
	fs.BoolVar(&c.sortKeys, "sort-keys", false, "sort entries by key")
	fs.StringVar(&c.compress, "compression", "", "text compression: none, snappy, zstd, lz4")
	fs.StringVar(&c.codeTable, "code-table", "", "CHAR<TAB>HEX code table file")
	fs.StringVar(&c.dictionary, "dictionary", "", "hash to name dictionary (CDB)")
	fs.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
}

// resolve loads the config file and applies the flags that were set.
func (c *commonFlags) resolve(fs *pflag.FlagSet) (*Config, error) {
	cfg, err := LoadConfig(c.config)
	if err != nil {
		return nil, err
	}

	set := func(name string, fn func()) {
		if fs.Changed(name) {
			fn()
		}
	}
	set("variant", func() { cfg.Variant = c.variant })
	set("charset", func() { cfg.Charset = c.charset })
	set("fallback", func() { cfg.Fallback = c.fallback })
	set("table-order", func() { cfg.TableOrder = c.tableOrder })
	set("sort-keys", func() { cfg.SortKeys = c.sortKeys })
	set("compression", func() { cfg.Compression = c.compress })
	set("code-table", func() { cfg.CodeTable = c.codeTable })
	set("dictionary", func() { cfg.Dictionary = c.dictionary })
	set("log-level", func() { cfg.LogLevel = c.logLevel })
	return cfg, nil
}

// --------------------------------------------------------------------

func (c *Config) variant() (gxt.Variant, error) {
	if c.Variant == "" {
		return gxt.VariantUnknown, nil
	}
	return gxt.ParseVariant(c.Variant)
}

func (c *Config) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return lvl, fmt.Errorf("bad log level %q", c.LogLevel)
	}
	return lvl, nil
}

func (c *Config) codeTable() (*gxt.CodeTable, error) {
	if c.CodeTable == "" {
		return nil, nil
	}
	f, err := os.Open(c.CodeTable)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return gxt.LoadCodeTable(f)
}

func (c *Config) charsets() (primary *gxt.Charset, fallback []*gxt.Charset, err error) {
	if c.Charset != "" {
		if primary, err = gxt.LookupCharset(c.Charset); err != nil {
			return nil, nil, err
		}
	}
	for _, name := range c.Fallback {
		cs, err := gxt.LookupCharset(name)
		if err != nil {
			return nil, nil, err
		}
		fallback = append(fallback, cs)
	}
	return primary, fallback, nil
}

func (c *Config) readerOptions(logger *slog.Logger) (*gxt.ReaderOptions, error) {
	primary, fallback, err := c.charsets()
	if err != nil {
		return nil, err
	}
	ct, err := c.codeTable()
	if err != nil {
		return nil, err
	}
	return &gxt.ReaderOptions{
		Charset:   primary,
		Fallback:  fallback,
		CodeTable: ct,
		Logger:    logger,
	}, nil
}

func (c *Config) writerOptions(logger *slog.Logger) (*gxt.WriterOptions, error) {
	v, err := c.variant()
	if err != nil {
		return nil, err
	}
	primary, _, err := c.charsets()
	if err != nil {
		return nil, err
	}
	order, err := gxt.ParseTableOrder(c.TableOrder)
	if err != nil {
		return nil, err
	}
	ct, err := c.codeTable()
	if err != nil {
		return nil, err
	}
	return &gxt.WriterOptions{
		Variant:    v,
		Charset:    primary,
		TableOrder: order,
		SortKeys:   c.SortKeys,
		CodeTable:  ct,
		Logger:     logger,
	}, nil
}

// textOptions opens the configured dictionary; the returned closer must
// be called when done.
func (c *Config) textOptions() (*gxt.TextOptions, func(), error) {
	v, err := c.variant()
	if err != nil {
		return nil, nil, err
	}
	comp, err := gxt.ParseCompression(c.Compression)
	if err != nil {
		return nil, nil, err
	}

	o := &gxt.TextOptions{Variant: v, Compression: comp}
	if c.Dictionary == "" {
		return o, func() {}, nil
	}
	dict, err := gxt.OpenDictionary(c.Dictionary)
	if err != nil {
		return nil, nil, err
	}
	o.Dictionary = dict
	return o, func() { _ = dict.Close() }, nil
}
