package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tnsilver/rpncalc"
)

// config is the contents of a configuration file, e.g.
//
//	preset: decimal64
//	rounding: half-up
//	log_level: info
//	constants:
//	  tau: 2*π
//	variables:
//	  rate: 0.07
//
// Constant and variable values are infix expressions. They are evaluated in
// name order after the arithmetic is set, so later names may use earlier
// ones.
type config struct {
	Preset    string            `yaml:"preset"`
	Precision *int              `yaml:"precision"`
	Rounding  string            `yaml:"rounding"`
	LogLevel  string            `yaml:"log_level"`
	Constants map[string]string `yaml:"constants"`
	Variables map[string]string `yaml:"variables"`
}

func loadConfig(name string) (*config, error) {
	b, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return parseConfig(b)
}

func parseConfig(b []byte) (*config, error) {
	cfg := new(config)
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if cfg.Precision != nil && *cfg.Precision < 0 {
		return nil, fmt.Errorf("reading config: precision (%d) must not be negative", *cfg.Precision)
	}
	return cfg, nil
}

// apply registers the constants and variables of the configuration.
func (cfg *config) apply(ctx *rpncalc.Context) error {
	for _, name := range sortedKeys(cfg.Constants) {
		r, err := rpncalc.EvalString(cfg.Constants[name], ctx)
		if err != nil {
			return fmt.Errorf("constant %s: %w", name, err)
		}
		if err := ctx.RegisterConstant(name, r); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(cfg.Variables) {
		r, err := rpncalc.EvalString(cfg.Variables[name], ctx)
		if err != nil {
			return fmt.Errorf("variable %s: %w", name, err)
		}
		if err := ctx.AddVariable(name, r); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var presets = map[string]rpncalc.Arithmetic{
	"decimal32":  rpncalc.Decimal32,
	"decimal64":  rpncalc.Decimal64,
	"decimal128": rpncalc.Decimal128,
	"unlimited":  rpncalc.Unlimited,
}

func parsePreset(s string) (rpncalc.Arithmetic, error) {
	a, ok := presets[strings.ToLower(s)]
	if !ok {
		return rpncalc.Arithmetic{}, fmt.Errorf("unknown preset %q", s)
	}
	return a, nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}
