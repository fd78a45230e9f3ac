// Command goquad integrates f(x) over [a, b] with five quadrature methods
// and serves the same engine over HTTP.
//
// Usage:
//
//	goquad integrate "x*sin(x)" --a 0 --b 3.14159 --n 1000
//	goquad integrate --preset "e^(-x^2)" --a -2 --b 2 --json
//	goquad eval "sqrt(x)" --x 2
//	goquad presets
//	goquad serve --addr :8080
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/njchilds90/goquad"
	"github.com/njchilds90/goquad/internal/config"
	"github.com/njchilds90/goquad/internal/logging"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

// app carries state shared by the subcommands once the root pre-run has
// loaded it.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:     "goquad",
		Version: version,
		Short:   "Numerical integration with five quadrature methods",
		Long: `goquad evaluates a definite integral of a one-variable formula with the
midpoint rectangle, trapezoidal, Simpson, Monte Carlo and Gauss-Legendre
rules side by side, reporting each value and its wall time.

Formulas use x, the constants pi and e, the operators + - * / ** ^, and the
functions sin cos tan sinh cosh tanh exp log ln sqrt.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging, a.verbose)
			if err != nil {
				return err
			}
			a.cfg, a.logger = cfg, logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(
		newIntegrateCmd(a),
		newEvalCmd(a),
		newPresetsCmd(),
		newServeCmd(a),
	)
	return root
}

// coordinator builds a Coordinator from the loaded config plus extra options.
func (a *app) coordinator(opts ...goquad.Option) *goquad.Coordinator {
	base := append(a.cfg.Engine.CoordinatorOptions(), goquad.WithLogger(a.logger))
	return goquad.NewCoordinator(append(base, opts...)...)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}
