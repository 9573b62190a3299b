// Package catalog - HCL catalog files
package catalog

import (
	_ "embed"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/shopspring/decimal"

	"poolchem/core/exception"
	"poolchem/core/types"
	"poolchem/internal/errors"
)

//go:embed defaults/catalog.hcl
var defaultCatalog []byte

type fileSchema struct {
	ChemicalTests    []chemicalTestBlock    `hcl:"chemical_test,block"`
	ObservationTests []observationTestBlock `hcl:"observation_test,block"`
	Groups           []groupBlock           `hcl:"dosage_group,block"`
	Recommendations  []recommendationBlock  `hcl:"recommendation,block"`
}

type whenBlock struct {
	Kind   string   `hcl:"kind,label"`
	IDs    []int    `hcl:"ids,optional"`
	Op     string   `hcl:"op,optional"`
	Value  *float64 `hcl:"value,optional"`
	Upper  *float64 `hcl:"upper,optional"`
	Module string   `hcl:"module,optional"`
}

type rangeBlock struct {
	When   []whenBlock `hcl:"when,block"`
	Min    float64     `hcl:"min"`
	Max    float64     `hcl:"max"`
	Target *float64    `hcl:"target,optional"`
}

type chemicalTestBlock struct {
	Key            string       `hcl:"key,label"`
	ID             int          `hcl:"id"`
	Name           string       `hcl:"name"`
	Unit           string       `hcl:"unit,optional"`
	Default        bool         `hcl:"default,optional"`
	AutoCalculated bool         `hcl:"auto_calculated,optional"`
	AppliesWhen    []whenBlock  `hcl:"applies_when,block"`
	Ranges         []rangeBlock `hcl:"range,block"`
}

type observationTestBlock struct {
	Key         string      `hcl:"key,label"`
	ID          int         `hcl:"id"`
	Name        string      `hcl:"name"`
	Default     bool        `hcl:"default,optional"`
	AppliesWhen []whenBlock `hcl:"applies_when,block"`
}

type groupBlock struct {
	Key  string `hcl:"key,label"`
	ID   int    `hcl:"id"`
	Name string `hcl:"name"`
	Kind string `hcl:"kind"`
}

type dosageBlock struct {
	When      []whenBlock `hcl:"when,block"`
	Amount    float64     `hcl:"amount"`
	Unit      string      `hcl:"unit"`
	Product   int         `hcl:"product,optional"`
	Basis     string      `hcl:"basis,optional"`
	PerLitres *float64    `hcl:"per_litres,optional"`
	Step      *float64    `hcl:"step,optional"`
}

type recommendationBlock struct {
	Test           string        `hcl:"test"`
	Group          string        `hcl:"group"`
	Trigger        string        `hcl:"trigger"`
	Action         string        `hcl:"action"`
	Description    string        `hcl:"description,optional"`
	CustomerAction string        `hcl:"customer_action,optional"`
	Dosages        []dosageBlock `hcl:"dosage,block"`
}

// Default returns the embedded catalog
func Default() (*Catalog, error) {
	return Parse(defaultCatalog, "defaults/catalog.hcl")
}

// LoadFile parses a catalog file from disk
func LoadFile(path string) (*Catalog, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeParsing, err, "read catalog %s", path)
	}
	return Parse(src, path)
}

// Parse decodes and validates an HCL catalog
func Parse(src []byte, filename string) (*Catalog, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diagError("parse", filename, diags)
	}

	var doc fileSchema
	if diags := gohcl.DecodeBody(file.Body, nil, &doc); diags.HasErrors() {
		return nil, diagError("decode", filename, diags)
	}

	c, err := build(&doc)
	if err != nil {
		return nil, err
	}
	if err := c.Check(); err != nil {
		return nil, err
	}
	return c, nil
}

func build(doc *fileSchema) (*Catalog, error) {
	c := NewCatalog()
	chemicalByKey := make(map[string]int)
	observationByKey := make(map[string]int)
	groupByKey := make(map[string]types.DosageGroup)

	for _, b := range doc.ChemicalTests {
		applies, err := decodeConditions(b.AppliesWhen)
		if err != nil {
			return nil, errors.Wrapf(errors.TypeParsing, err, "chemical_test %q", b.Key)
		}
		def := ChemicalTestDef{
			Test: types.ChemicalTest{
				ID:             b.ID,
				Key:            b.Key,
				Name:           b.Name,
				Unit:           b.Unit,
				IsDefault:      b.Default,
				AutoCalculated: b.AutoCalculated,
			},
			AppliesWhen: applies,
		}
		for _, rb := range b.Ranges {
			conds, err := decodeConditions(rb.When)
			if err != nil {
				return nil, errors.Wrapf(errors.TypeParsing, err, "chemical_test %q range", b.Key)
			}
			r := types.Range{
				Min: decimal.NewFromFloat(rb.Min),
				Max: decimal.NewFromFloat(rb.Max),
			}
			if rb.Target != nil {
				r.Target = decimal.NewFromFloat(*rb.Target)
			} else {
				r.Target = r.Min.Add(r.Max).Div(decimal.NewFromInt(2))
			}
			def.Ranges = append(def.Ranges, exception.Variant[types.Range]{Conditions: conds, Value: r})
		}
		chemicalByKey[b.Key] = b.ID
		c.AddChemicalTest(def)
	}

	for _, b := range doc.ObservationTests {
		applies, err := decodeConditions(b.AppliesWhen)
		if err != nil {
			return nil, errors.Wrapf(errors.TypeParsing, err, "observation_test %q", b.Key)
		}
		observationByKey[b.Key] = b.ID
		c.AddObservationTest(ObservationTestDef{
			Test: types.ObservationTest{
				ID:        b.ID,
				Key:       b.Key,
				Name:      b.Name,
				IsDefault: b.Default,
			},
			AppliesWhen: applies,
		})
	}

	for _, b := range doc.Groups {
		g := types.DosageGroup{ID: b.ID, Key: b.Key, Name: b.Name, Kind: types.TestKind(b.Kind)}
		groupByKey[b.Key] = g
		c.AddGroup(g)
	}

	for i, b := range doc.Recommendations {
		g, ok := groupByKey[b.Group]
		if !ok {
			return nil, errors.Newf(errors.TypeCatalog, "recommendation %d: unknown dosage group %q", i, b.Group)
		}
		var testID int
		switch g.Kind {
		case types.KindChemical:
			testID, ok = chemicalByKey[b.Test]
		case types.KindObservation:
			testID, ok = observationByKey[b.Test]
		}
		if !ok {
			return nil, errors.Newf(errors.TypeCatalog, "recommendation %d: unknown %s test %q", i, g.Kind, b.Test)
		}

		def := RecommendationDef{
			Kind:         g.Kind,
			TestID:       testID,
			GroupID:      g.ID,
			Trigger:      types.Trigger(b.Trigger),
			Action:       b.Action,
			Description:  b.Description,
			CustomAction: b.CustomerAction,
		}
		for _, db := range b.Dosages {
			conds, err := decodeConditions(db.When)
			if err != nil {
				return nil, errors.Wrapf(errors.TypeParsing, err, "recommendation %d dosage", i)
			}
			d := types.Dosage{
				Amount:    decimal.NewFromFloat(db.Amount),
				Unit:      db.Unit,
				ProductID: db.Product,
				Basis:     types.DosageBasis(db.Basis),
			}
			if d.Basis == "" {
				d.Basis = types.BasisFixed
			}
			if db.PerLitres != nil {
				d.PerLitres = decimal.NewFromFloat(*db.PerLitres)
			}
			if db.Step != nil {
				d.Step = decimal.NewFromFloat(*db.Step)
			}
			def.Dosages = append(def.Dosages, exception.Variant[types.Dosage]{Conditions: conds, Value: d})
		}
		c.AddRecommendation(def)
	}

	return c, nil
}

func decodeConditions(blocks []whenBlock) ([]exception.Condition, error) {
	var out []exception.Condition
	for _, w := range blocks {
		kind, err := exception.ParseKind(w.Kind)
		if err != nil {
			return nil, err
		}
		cond := exception.Condition{Kind: kind, IDs: w.IDs, Module: w.Module}
		if w.Op != "" {
			cmp := &exception.Comparison{Op: exception.Op(w.Op)}
			if w.Value != nil {
				cmp.Value = decimal.NewFromFloat(*w.Value)
			}
			if w.Upper != nil {
				cmp.Upper = decimal.NewFromFloat(*w.Upper)
			}
			cond.Compare = cmp
		}
		if err := cond.Validate(); err != nil {
			return nil, err
		}
		out = append(out, cond)
	}
	return out, nil
}

// diagError keeps the error-severity diagnostics with their source positions
func diagError(stage, filename string, diags hcl.Diagnostics) error {
	var errs hcl.Diagnostics
	for _, d := range diags {
		if d.Severity == hcl.DiagError {
			errs = append(errs, d)
		}
	}
	e := errors.Parsing(stage+" catalog "+filename, errs)
	if len(errs) > 0 && errs[0].Subject != nil {
		e.WithContext("line", errs[0].Subject.Start.Line)
	}
	return e
}
