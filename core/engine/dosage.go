package engine

import (
	"strings"

	"github.com/shopspring/decimal"

	"poolchem/core/exception"
	"poolchem/core/types"
	"poolchem/core/units"
	"poolchem/internal/errors"
)

// recommendations builds the candidates of one result for a trigger, in
// dosage group order. rng is nil for observations.
func (e *Engine) recommendations(kind types.TestKind, testID int, key string, trigger types.Trigger, rng *types.Range, facts exception.Facts, value string) ([]types.DosageRecommendation, error) {
	defs := e.catalog.For(kind, testID, trigger)
	if len(defs) == 0 {
		return nil, nil
	}

	out := make([]types.DosageRecommendation, 0, len(defs))
	for _, def := range defs {
		group, _ := e.catalog.Group(def.GroupID)
		rec := types.DosageRecommendation{
			GroupID:      group.ID,
			GroupName:    group.Name,
			Description:  def.Description,
			CustomAction: def.CustomAction,
		}
		fill := placeholders{product: group.Name, value: value}
		if rng != nil {
			fill.target = rng.Target.String()
		}

		if len(def.Dosages) > 0 {
			subject := key + "/" + group.Key
			sel, err := exception.Resolve(def.Dosages, facts)
			if err != nil {
				return nil, errors.Wrapf(errors.TypeOf(err), err, "resolve dosage of %s", subject)
			}
			if err := e.checkAmbiguity("dosage", subject, sel.Index, sel.Contenders); err != nil {
				return nil, err
			}
			amount, unit, err := e.dosageAmount(sel.Value, rng, facts)
			if err != nil {
				return nil, errors.Wrapf(errors.TypeOf(err), err, "dosage of %s", subject)
			}
			rec.Amount = decimal.NewNullDecimal(amount)
			rec.Unit = unit
			if p, ok := facts.Products.Product(sel.Value.ProductID); ok {
				rec.ProductID = p.ID
				rec.ProductName = p.Name
				fill.product = p.Name
			}
			fill.amount = amount.String()
			fill.unit = unit
		}

		rec.Action = fill.apply(def.Action)
		out = append(out, rec)
	}
	return out, nil
}

// dosageAmount scales a dosage to the pool and converts it to the unit it is
// presented in: the product's metric, else the configured display unit.
func (e *Engine) dosageAmount(d types.Dosage, rng *types.Range, facts exception.Facts) (decimal.Decimal, string, error) {
	amount := d.Amount
	switch d.Basis {
	case types.BasisFixed, "":
	case types.BasisPerVolume, types.BasisPerDeviation:
		if !d.PerLitres.IsPositive() {
			return decimal.Zero, "", errors.Newf(errors.TypeCatalog, "%s basis needs a positive per_litres", d.Basis)
		}
		amount = amount.Mul(facts.Pool.Pool.Volume).Div(d.PerLitres)
		if d.Basis == types.BasisPerDeviation {
			if rng == nil || !facts.HasValue {
				return decimal.Zero, "", errors.Newf(errors.TypeCatalog, "per_deviation basis needs a reading and a target")
			}
			if !d.Step.IsPositive() {
				return decimal.Zero, "", errors.Newf(errors.TypeCatalog, "per_deviation basis needs a positive step")
			}
			amount = amount.Mul(rng.Target.Sub(facts.Value).Abs()).Div(d.Step)
		}
	default:
		return decimal.Zero, "", errors.Newf(errors.TypeCatalog, "unknown dosage basis %q", d.Basis)
	}

	from, err := units.Normalize(d.Unit)
	if err != nil {
		return decimal.Zero, "", err
	}
	to, err := e.presentationUnit(from, facts.Products.ProductUnit(d.ProductID))
	if err != nil {
		return decimal.Zero, "", err
	}
	converted, err := units.Convert(amount, from, to)
	if err != nil {
		return decimal.Zero, "", err
	}
	return converted.Round(e.config.DecimalPlaces), to, nil
}

func (e *Engine) presentationUnit(from, productUnit string) (string, error) {
	if productUnit != "" {
		return units.Normalize(productUnit)
	}
	u, _ := units.Lookup(from)
	fallback := e.config.DisplayVolume
	if u.Dimension == units.Mass {
		fallback = e.config.DisplayMass
	}
	if fallback == "" {
		return from, nil
	}
	return units.Normalize(fallback)
}

// placeholders fills {amount}, {unit}, {product}, {value} and {target} in action text
type placeholders struct {
	amount  string
	unit    string
	product string
	value   string
	target  string
}

func (p placeholders) apply(text string) string {
	return strings.NewReplacer(
		"{amount}", p.amount,
		"{unit}", p.unit,
		"{product}", p.product,
		"{value}", p.value,
		"{target}", p.target,
	).Replace(text)
}
