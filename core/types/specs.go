// Package types - Pool and product specifications
package types

import "github.com/shopspring/decimal"

// Pool holds the attributes of one pool that exceptions are matched against.
// Zero identifiers mean "not set".
type Pool struct {
	ID                int             `json:"id"`
	Name              string          `json:"name"`
	SurfaceTypeID     int             `json:"surface_type_id"`
	PoolTypeID        int             `json:"pool_type_id"`
	ClassificationID  int             `json:"classification_id"`
	GroundLevelID     int             `json:"ground_level_id"`
	LocationID        int             `json:"location_id"`
	CustomExceptionID int             `json:"custom_exception_id"`
	Volume            decimal.Decimal `json:"volume"` // litres
	EnabledModules    []string        `json:"enabled_modules,omitempty"`
}

// Sanitiser is one disinfection system installed on a pool
type Sanitiser struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	ClassificationID int    `json:"classification_id"`
}

// PoolSpecs is the read-only pool input of a job
type PoolSpecs struct {
	Pool       Pool        `json:"pool"`
	Sanitisers []Sanitiser `json:"sanitisers,omitempty"`
}

// HasSanitiser reports whether any installed sanitiser has one of the ids
func (p PoolSpecs) HasSanitiser(ids []int) bool {
	for _, s := range p.Sanitisers {
		if containsInt(ids, s.ID) {
			return true
		}
	}
	return false
}

// HasSanitiserClassification reports whether any installed sanitiser belongs to one of the classifications
func (p PoolSpecs) HasSanitiserClassification(ids []int) bool {
	for _, s := range p.Sanitisers {
		if containsInt(ids, s.ClassificationID) {
			return true
		}
	}
	return false
}

// HasModule reports whether the pool has the named module enabled
func (p PoolSpecs) HasModule(name string) bool {
	for _, m := range p.Pool.EnabledModules {
		if m == name {
			return true
		}
	}
	return false
}

// ProductCategory classifies products for the named exception conditions
type ProductCategory string

const (
	ProductPHReducer ProductCategory = "ph_reducer"
	ProductAlgaecide ProductCategory = "algaecide"
	ProductClarifier ProductCategory = "clarifier"
	ProductOther     ProductCategory = "other"
)

// Metric is a measurement unit a product is sold and dosed in
type Metric struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// Product is a chemical product available to the business
type Product struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Category ProductCategory `json:"category"`
	MetricID int             `json:"metric_id"`
}

// ProductSpecs is the read-only product input of a job
type ProductSpecs struct {
	Metrics  []Metric  `json:"metrics,omitempty"`
	Products []Product `json:"products,omitempty"`
}

// Product returns the product with the given id
func (p ProductSpecs) Product(id int) (Product, bool) {
	for _, prod := range p.Products {
		if prod.ID == id {
			return prod, true
		}
	}
	return Product{}, false
}

// Metric returns the metric with the given id
func (p ProductSpecs) Metric(id int) (Metric, bool) {
	for _, m := range p.Metrics {
		if m.ID == id {
			return m, true
		}
	}
	return Metric{}, false
}

// ProductUnit returns the unit a product is dosed in, or "" when it has no metric
func (p ProductSpecs) ProductUnit(productID int) string {
	prod, ok := p.Product(productID)
	if !ok {
		return ""
	}
	m, ok := p.Metric(prod.MetricID)
	if !ok {
		return ""
	}
	return m.Unit
}

// HasCategory reports whether a product of the category is available.
// A non-empty ids list restricts the check to those products.
func (p ProductSpecs) HasCategory(cat ProductCategory, ids []int) bool {
	for _, prod := range p.Products {
		if prod.Category != cat {
			continue
		}
		if len(ids) == 0 || containsInt(ids, prod.ID) {
			return true
		}
	}
	return false
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
