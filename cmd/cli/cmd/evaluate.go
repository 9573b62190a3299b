// Package cmd - evaluate command
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolchem/core/engine"
	"poolchem/core/report"
	"poolchem/core/types"
	"poolchem/core/ui"
	"poolchem/internal/config"
	"poolchem/internal/logging"
	"poolchem/internal/session"
)

var (
	jobFile      string
	catalogFile  string
	outputFormat string
	strict       bool
)

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate the test results of a job",
	Long: `Load a job file, apply its readings and overrides, and print the report.

The job file is YAML and holds the pool and product specifications, the
readings taken on site, observations, operator overrides and any results
saved by an earlier session.

Examples:
  poolchem evaluate --job visit.yaml
  poolchem evaluate --job visit.yaml --format json
  poolchem evaluate --job visit.yaml --catalog ./catalog.hcl --strict`,
	Args: cobra.NoArgs,
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringVarP(&jobFile, "job", "j", "", "job file (YAML) [REQUIRED]")
	evaluateCmd.Flags().StringVarP(&catalogFile, "catalog", "c", "", "catalog file (HCL), overrides the configured catalog")
	evaluateCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "output format (text, json), overrides the configured format")
	evaluateCmd.Flags().BoolVar(&strict, "strict", false, "fail when equally ranked exception variants match")

	evaluateCmd.MarkFlagRequired("job")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	logger := logging.L()

	c, err := loadCatalog(catalogFile)
	if err != nil {
		return err
	}

	job, err := session.Load(jobFile)
	if err != nil {
		return err
	}
	in, err := job.Input(c)
	if err != nil {
		return err
	}
	if err := c.CheckProducts(in.Products); err != nil {
		return err
	}

	ecfg := engineConfig(cfg, logger)
	if strict {
		ecfg.StrictAmbiguity = true
	}
	e, err := engine.Initialize(in, ecfg)
	if err != nil {
		return err
	}

	res, err := job.Apply(e)
	if err != nil {
		return err
	}

	r, err := report.Build(report.Meta{JobID: job.ID, PoolName: job.Pool.Name}, res)
	if err != nil {
		return err
	}
	logger.Info("job evaluated",
		zap.String("job_id", job.ID),
		zap.Uint64("version", r.Version),
		zap.String("hash", r.Hash),
		zap.Bool("needs_action", r.NeedsAction()))

	format := outputFormat
	if format == "" {
		format = cfg.Report.Format
	}
	f, err := report.DefaultRegistry(cfg.Report.ShowRanges).Get(report.Format(format))
	if err != nil {
		return err
	}
	if err := f.Render(cmd.OutOrStdout(), r); err != nil {
		return err
	}
	if f.Format() == report.FormatText {
		printSummary(ui.NewWriter(cmd.OutOrStdout(), noColor), r)
	}
	return nil
}

// printSummary lists the reported results that need attention
func printSummary(w *ui.Writer, r *report.Report) {
	var flagged []string
	for _, l := range r.Chemical {
		if l.Status == types.StatusLow || l.Status == types.StatusHigh {
			flagged = append(flagged, l.Name+" "+w.Status(l.Status))
		}
	}
	for _, l := range r.Observation {
		flagged = append(flagged, l.Name)
	}
	if len(flagged) == 0 {
		w.Success("All reported readings are in range.")
		return
	}
	w.Warning("Needs attention: %s", strings.Join(flagged, ", "))
}

// engineConfig maps the application configuration onto the engine
func engineConfig(cfg *config.Config, logger *zap.Logger) engine.Config {
	ecfg := engine.DefaultConfig()
	ecfg.Logger = logger
	ecfg.StrictAmbiguity = cfg.Resolver.StrictAmbiguity
	ecfg.DecimalPlaces = cfg.Report.DecimalPlaces
	ecfg.DisplayMass = cfg.Units.DisplayMass
	ecfg.DisplayVolume = cfg.Units.DisplayVolume
	return ecfg
}
