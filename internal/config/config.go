// Package config loads compiler options from TOML or YAML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/teness/tessc/internal/ir"
	"github.com/teness/tessc/internal/lexer"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "TESS_CONFIG"

// Options controls a compilation.
type Options struct {
	DumpTokens bool `toml:"dump_tokens" yaml:"dump_tokens"`
	DumpAST    bool `toml:"dump_ast" yaml:"dump_ast"`
	DumpIR     bool `toml:"dump_ir" yaml:"dump_ir"`
	DumpAsm    bool `toml:"dump_asm" yaml:"dump_asm"`

	Optimize bool `toml:"optimize" yaml:"optimize"`
	OptLevel int  `toml:"opt_level" yaml:"opt_level"`

	// OutputPath is the executable to produce. Empty derives it from the
	// input file.
	OutputPath string `toml:"output_path" yaml:"output_path"`

	// ExecuteImmediately runs the program instead of linking it.
	ExecuteImmediately bool `toml:"execute_immediately" yaml:"execute_immediately"`

	EntryName   string `toml:"entry_name" yaml:"entry_name"`
	EntryPolicy string `toml:"entry_policy" yaml:"entry_policy"`

	// Triple is the target triple. Empty means the host.
	Triple string `toml:"triple" yaml:"triple"`

	LogLevel string `toml:"log_level" yaml:"log_level"`
}

// Default returns the options used when no file sets them.
func Default() Options {
	return Options{
		Optimize:    true,
		OptLevel:    2,
		EntryName:   ir.DefaultEntryName,
		EntryPolicy: ir.EntryAuto.String(),
		LogLevel:    "info",
	}
}

// Format is a config file syntax.
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "toml"
}

// DetectFormat picks the format from the file extension. Unknown
// extensions are read as TOML.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (Options, error) {
	path = os.ExpandEnv(path)
	content, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("reading config: %w", err)
	}
	return Parse(content, DetectFormat(path))
}

// Parse decodes content over the defaults and validates the result. Keys
// absent from content keep their default values; unknown keys are errors.
func Parse(content []byte, format Format) (Options, error) {
	opts := Default()
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(content))
		dec.KnownFields(true)
		if err := dec.Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
			return Options{}, fmt.Errorf("failed to parse config: %w", err)
		}
	default:
		md, err := toml.Decode(string(content), &opts)
		if err != nil {
			return Options{}, fmt.Errorf("failed to parse config: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Options{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
		}
	}
	opts.EntryName = norm.NFC.String(opts.EntryName)
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// LoadFromEnv loads the file named by TESS_CONFIG, else the first of
// tessc.toml, tessc.yaml and tessc.yml in the working directory. With no
// file, the defaults are returned.
func LoadFromEnv() (Options, error) {
	if path := os.Getenv(EnvVar); path != "" {
		return Load(path)
	}
	for _, p := range []string{"tessc.toml", "tessc.yaml", "tessc.yml"} {
		if _, err := os.Stat(p); err == nil {
			return Load(p)
		}
	}
	return Default(), nil
}

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate reports the first invalid field.
func (o *Options) Validate() error {
	if o.OptLevel < 0 || o.OptLevel > 3 {
		return fmt.Errorf("opt_level must be between 0 and 3, got %d", o.OptLevel)
	}
	if _, err := ir.ParseEntryPolicy(o.EntryPolicy); err != nil {
		return fmt.Errorf("entry_policy: %w", err)
	}
	if !lexer.IsIdentifier(o.EntryName) {
		return fmt.Errorf("entry_name %q is not an identifier", o.EntryName)
	}
	if !logLevels[strings.ToLower(o.LogLevel)] {
		return fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", o.LogLevel)
	}
	return nil
}

// Policy returns the parsed entry policy.
func (o *Options) Policy() ir.EntryPolicy {
	p, _ := ir.ParseEntryPolicy(o.EntryPolicy)
	return p
}
