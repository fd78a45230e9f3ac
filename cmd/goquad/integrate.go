package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/njchilds90/goquad"
)

type integrateFlags struct {
	preset  string
	a, b    float64
	n       int
	seed    uint64
	partial bool
	asJSON  bool
}

func newIntegrateCmd(a *app) *cobra.Command {
	var f integrateFlags
	cmd := &cobra.Command{
		Use:   "integrate [formula]",
		Short: "Integrate a formula or preset over [a, b] with every method",
		Example: `  goquad integrate "x**2" --a 0 --b 1
  goquad integrate --preset "sin(x)/x" --a -10 --b 10 --n 5000 --seed 7`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 1) == (f.preset != "") {
				return errors.New("give exactly one of a formula argument or --preset")
			}
			if !cmd.Flags().Changed("n") {
				f.n = a.cfg.Engine.DefaultN
			}
			ro := a.cfg.Engine.RuleOptions()
			if cmd.Flags().Changed("seed") {
				ro.Seed = f.seed
			}
			if f.partial {
				ro.AllowPartialGauss = true
			}
			c := a.coordinator(goquad.WithRuleOptions(ro))

			var (
				rep *goquad.Report
				err error
			)
			if f.preset != "" {
				rep, err = c.RunPreset(cmd.Context(), f.preset, f.a, f.b, f.n)
			} else {
				rep, err = c.Run(cmd.Context(), args[0], f.a, f.b, f.n)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if f.asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			_, err = fmt.Fprint(out, renderReport(rep))
			return err
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.preset, "preset", "p", "", "Preset name (see `goquad presets`)")
	fl.Float64Var(&f.a, "a", 0, "Lower limit")
	fl.Float64Var(&f.b, "b", 1, "Upper limit")
	fl.IntVar(&f.n, "n", goquad.DefaultN, "Subdivisions (Monte Carlo draws a multiple of this)")
	fl.Uint64Var(&f.seed, "seed", 0, "Monte Carlo seed; 0 draws a fresh one")
	fl.BoolVar(&f.partial, "partial-gauss", false, "Keep a Gauss-Legendre value when some nodes are undefined")
	fl.BoolVar(&f.asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func newEvalCmd(a *app) *cobra.Command {
	var x float64
	cmd := &cobra.Command{
		Use:   "eval [formula]",
		Short: "Evaluate a formula at a single x",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := goquad.Compile(args[0])
			if err != nil {
				return err
			}
			p := f.At(x)
			a.logger.Debug("evaluated",
				zap.String("formula", f.Source()),
				zap.String("node", goquad.TypeOf(f.Expr())),
				zap.Float64("x", x),
				zap.Stringer("point", p),
			)
			if !p.Valid {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), invalidStyle.Render("invalid"))
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatFloat(p.Value, 'g', -1, 64))
			return err
		},
	}
	cmd.Flags().Float64Var(&x, "x", 0, "Point to evaluate at")
	return cmd
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the named preset formulas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), renderPresets(goquad.Presets()))
			return err
		},
	}
}
