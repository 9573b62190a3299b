// Package cmd - convert command
package cmd

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"poolchem/core/units"
	"poolchem/internal/config"
	"poolchem/internal/errors"
)

var convertPlaces int32

// convertCmd converts an amount between units
var convertCmd = &cobra.Command{
	Use:   "convert <amount> <from> <to>",
	Short: "Convert an amount between mass or volume units",
	Long: `Convert an amount between two units of the same dimension.

Supported units: ` + strings.Join(units.Symbols(), ", ") + `

Examples:
  poolchem convert 750 ml l
  poolchem convert 2.5 kg lb --places 3`,
	Args: cobra.ExactArgs(3),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().Int32VarP(&convertPlaces, "places", "p", -1, "decimal places (default: report.decimal_places)")
}

func runConvert(cmd *cobra.Command, args []string) error {
	amount, err := decimal.NewFromString(args[0])
	if err != nil {
		return errors.Wrap(errors.TypeInput, "amount", err)
	}
	from, err := units.Normalize(args[1])
	if err != nil {
		return err
	}
	to, err := units.Normalize(args[2])
	if err != nil {
		return err
	}

	converted, err := units.Convert(amount, from, to)
	if err != nil {
		return err
	}

	places := convertPlaces
	if places < 0 {
		places = config.Get().Report.DecimalPlaces
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s %s\n", amount, from, converted.Round(places), to)
	return nil
}
