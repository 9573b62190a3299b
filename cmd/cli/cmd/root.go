// Package cmd provides the CLI commands for poolchem.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolchem/core/catalog"
	"poolchem/internal/config"
	"poolchem/internal/logging"
)

const version = "0.1.0"

var (
	cfgFile string
	verbose bool
	noColor bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "poolchem",
	Short: "Water chemistry dosage recommendations for pool service jobs",
	Long: `poolchem evaluates pool water test results.

It classifies each reading against the range that applies to the pool,
recommends dosages for out-of-range readings and observed problems, and
derives balance values such as the Langelier Saturation Index.

Examples:
  poolchem evaluate --job visit.yaml
  poolchem evaluate --job visit.yaml --format json
  poolchem convert 750 ml l
  poolchem catalog validate ./catalog.hcl`,
	SilenceUsage: true,
}

// Execute runs the CLI
func Execute() error {
	defer logging.Sync()
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.poolchem.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	// Add subcommands
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

func initConfig() {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	config.Set(cfg)

	// Initialize logging
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// loadCatalog returns the catalog at path, else the configured one, else the embedded default
func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		path = config.Get().Catalog.Path
	}
	if path == "" {
		return catalog.Default()
	}
	logging.Component("catalog").Debug("loading catalog file", zap.String("path", path))
	return catalog.LoadFile(path)
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "poolchem version %s\n", version)
	},
}
