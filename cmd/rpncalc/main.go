// Command rpncalc evaluates arithmetic expressions with arbitrary-precision
// decimals.
//
// Each argument is an infix expression. With no arguments, or with --in, the
// input is read as one expression, or as one expression per line with -n.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/tnsilver/rpncalc"
)

// errFailed reports that at least one expression failed. The failures have
// already been printed.
var errFailed = errors.New("some expressions failed")

type options struct {
	in        string
	given     []string
	lines     bool
	echo      bool
	postfix   bool
	precision int
	rounding  string
	preset    string
	config    string
	logLevel  string
	fixed     int
}

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, errFailed) {
			color.New(color.FgRed).Fprintln(cmd.ErrOrStderr(), "rpncalc:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "rpncalc [flags] [expression...]",
		Short: "Evaluate arithmetic expressions with arbitrary-precision decimals",
		Long: `rpncalc evaluates infix expressions like "3 + 4 × 2" or "{[2! - (8-3)] × 2}"
by converting them to reverse Polish notation.

Each argument is one expression. If there are no arguments, or --in is given,
expressions are also read from the input: the whole input is one expression,
or each nonblank line is one with -n.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, &opts, args)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.in, "in", "", "input file, or - for stdin (default stdin if no args given)")
	f.StringArrayVar(&opts.given, "given", nil, "name=value variable definition (any number of times)")
	f.BoolVarP(&opts.lines, "lines", "n", false, "read separate input lines as separate expressions")
	f.BoolVar(&opts.echo, "echo", false, "print the postfix form of each expression")
	f.BoolVar(&opts.postfix, "postfix", false, "expressions are already in postfix form")
	f.IntVarP(&opts.precision, "precision", "p", 34, "significant digits of calculations (0 for unlimited)")
	f.StringVarP(&opts.rounding, "rounding", "r", "half-even", "rounding mode: up, down, ceiling, floor, half-up, half-down, half-even, unnecessary")
	f.StringVar(&opts.preset, "preset", "", "arithmetic preset: decimal32, decimal64, decimal128, unlimited")
	f.StringVar(&opts.config, "config", "", "YAML configuration file")
	f.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	f.IntVar(&opts.fixed, "fixed", -1, "print results with this many digits after the decimal point")
	return cmd
}

func run(cmd *cobra.Command, opts *options, args []string) error {
	cfg := new(config)
	if opts.config != "" {
		var err error
		cfg, err = loadConfig(opts.config)
		if err != nil {
			return err
		}
	}
	level := cfg.LogLevel
	if cmd.Flags().Changed("log-level") || level == "" {
		level = opts.logLevel
	}
	lvl, err := parseLevel(level)
	if err != nil {
		return err
	}
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: lvl}))

	arith, err := arithmetic(cmd, opts, cfg)
	if err != nil {
		return err
	}
	ctx := rpncalc.NewContext(arith, rpncalc.WithLogger(log))
	if err := cfg.apply(ctx); err != nil {
		return err
	}
	for _, d := range opts.given {
		if err := addGiven(ctx, d); err != nil {
			return err
		}
	}

	exprs, err := inputs(cmd, opts, args)
	if err != nil {
		return err
	}
	log.Info("evaluating", slog.Int("expressions", len(exprs)), slog.String("arithmetic", fmt.Sprintf("%d/%v", arith.Precision, arith.Rounding)))
	out, errw := cmd.OutOrStdout(), cmd.ErrOrStderr()
	red := color.New(color.FgRed)
	failed := false
	for _, src := range exprs {
		postfix, r, err := eval(src, opts.postfix, ctx)
		if err != nil {
			red.Fprintf(errw, "%s: %v\n", src, err)
			failed = true
			continue
		}
		if opts.echo {
			fmt.Fprintf(out, "%s : ", postfix)
		}
		fmt.Fprintln(out, format(r, opts.fixed))
	}
	if failed {
		return errFailed
	}
	return nil
}

// arithmetic resolves precision and rounding from the preset, the
// configuration file, and flags, with flags taking priority.
func arithmetic(cmd *cobra.Command, opts *options, cfg *config) (rpncalc.Arithmetic, error) {
	arith := rpncalc.Decimal128
	preset := cfg.Preset
	if opts.preset != "" {
		preset = opts.preset
	}
	if preset != "" {
		var err error
		if arith, err = parsePreset(preset); err != nil {
			return arith, err
		}
	}
	if cfg.Precision != nil {
		arith.Precision = uint(*cfg.Precision)
	}
	if cfg.Rounding != "" {
		m, err := rpncalc.ParseRoundingMode(cfg.Rounding)
		if err != nil {
			return arith, err
		}
		arith.Rounding = m
	}
	flags := cmd.Flags()
	if flags.Changed("precision") {
		if opts.precision < 0 {
			return arith, fmt.Errorf("precision (%d) must not be negative", opts.precision)
		}
		arith.Precision = uint(opts.precision)
	}
	if flags.Changed("rounding") {
		m, err := rpncalc.ParseRoundingMode(opts.rounding)
		if err != nil {
			return arith, err
		}
		arith.Rounding = m
	}
	return arith, nil
}

// addGiven evaluates a name=value definition and sets the variable.
func addGiven(ctx *rpncalc.Context, def string) error {
	name, val, ok := strings.Cut(def, "=")
	if !ok {
		return fmt.Errorf(`variable definitions must be "name=value", not %q`, def)
	}
	name = strings.TrimSpace(name)
	r, err := rpncalc.EvalString(val, ctx)
	if err != nil {
		return fmt.Errorf("setting %s: %w", name, err)
	}
	return ctx.AddVariable(name, r)
}

// inputs collects the expressions from the input file and arguments.
func inputs(cmd *cobra.Command, opts *options, args []string) ([]string, error) {
	var exprs []string
	var in io.Reader
	switch {
	case opts.in != "" && opts.in != "-":
		f, err := os.Open(opts.in)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		in = f
	case opts.in == "-", len(args) == 0:
		in = cmd.InOrStdin()
	}
	if in != nil {
		if opts.lines {
			s := bufio.NewScanner(in)
			for s.Scan() {
				if line := strings.TrimSpace(s.Text()); line != "" {
					exprs = append(exprs, line)
				}
			}
			if err := s.Err(); err != nil {
				return nil, err
			}
		} else {
			b, err := io.ReadAll(in)
			if err != nil {
				return nil, err
			}
			if src := strings.TrimSpace(string(b)); src != "" {
				exprs = append(exprs, src)
			}
		}
	}
	return append(exprs, args...), nil
}

// eval evaluates one expression, returning its postfix form and result.
func eval(src string, postfix bool, ctx *rpncalc.Context) (string, decimal.Decimal, error) {
	if postfix {
		src = strings.Join(strings.Fields(src), " ")
	} else {
		var err error
		if src, err = rpncalc.Convert(src, ctx); err != nil {
			return "", decimal.Zero, err
		}
	}
	r, err := rpncalc.Evaluate(src, ctx)
	return src, r, err
}

func format(r decimal.Decimal, fixed int) string {
	if fixed >= 0 {
		return r.StringFixed(int32(fixed))
	}
	return r.String()
}
