// Package cmd - catalog commands
package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"poolchem/core/catalog"
	"poolchem/core/ui"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and validate test catalogs",
	Long: `Test catalog commands.

A catalog is an HCL file holding the chemical and observation tests with
their exception-scoped ranges, the dosage groups and the recommendations.
Without a file argument the configured catalog is used, falling back to
the embedded default catalog.`,
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a catalog file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCatalogValidate,
}

var catalogListCmd = &cobra.Command{
	Use:   "list [file]",
	Short: "List the tests and dosage groups of a catalog",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCatalogList,
}

func init() {
	catalogCmd.AddCommand(catalogValidateCmd)
	catalogCmd.AddCommand(catalogListCmd)
}

func catalogArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

func runCatalogValidate(cmd *cobra.Command, args []string) error {
	c, err := loadCatalog(catalogArg(args))
	if err != nil {
		return err
	}

	s := c.Stats()
	w := ui.NewWriter(cmd.OutOrStdout(), noColor)
	w.Success("Catalog is valid.")
	w.Println("  %-22s %d (%d auto-calculated)", "chemical tests", s.ChemicalTests, s.AutoCalculated)
	w.Println("  %-22s %d", "observation tests", s.ObservationTests)
	w.Println("  %-22s %d", "range variants", s.RangeVariants)
	w.Println("  %-22s %d", "dosage groups", s.Groups)
	w.Println("  %-22s %d (%d dosage variants)", "recommendations", s.Recommendations, s.DosageVariants)
	return nil
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	c, err := loadCatalog(catalogArg(args))
	if err != nil {
		return err
	}
	printCatalog(ui.NewWriter(cmd.OutOrStdout(), noColor), c)
	return nil
}

func printCatalog(w *ui.Writer, c *catalog.Catalog) {
	w.Header("CHEMICAL TESTS")
	table := w.NewTable("ID", "KEY", "UNIT", "DEFAULT RANGE", "FLAGS")
	for _, def := range c.ChemicalTests() {
		rng := "-"
		for _, v := range def.Ranges {
			if v.IsDefault() {
				rng = v.Value.String()
			}
		}
		var flags []string
		if def.Test.IsDefault {
			flags = append(flags, "default")
		}
		if def.Test.AutoCalculated {
			flags = append(flags, "auto")
		}
		if len(def.AppliesWhen) > 0 {
			flags = append(flags, "conditional")
		}
		if extra := len(def.Ranges) - 1; extra > 0 {
			flags = append(flags, fmt.Sprintf("+%d exceptions", extra))
		}
		table.AddRow(strconv.Itoa(def.Test.ID), def.Test.Key, def.Test.Unit, rng, strings.Join(flags, " "))
	}
	table.Render()

	w.Header("OBSERVATION TESTS")
	table = w.NewTable("ID", "KEY", "NAME", "FLAGS")
	for _, def := range c.ObservationTests() {
		flags := ""
		if def.Test.IsDefault {
			flags = "default"
		}
		table.AddRow(strconv.Itoa(def.Test.ID), def.Test.Key, def.Test.Name, flags)
	}
	table.Render()

	w.Header("DOSAGE GROUPS")
	table = w.NewTable("ID", "KEY", "KIND", "NAME")
	for _, g := range c.Groups() {
		table.AddRow(strconv.Itoa(g.ID), g.Key, string(g.Kind), g.Name)
	}
	table.Render()
}
