// Package catalog - Test catalog and recommendation store
// Static reference data: chemical and observation tests with their
// exception-scoped ranges, dosage groups, and per (test, group) recommendations.
package catalog

import (
	"poolchem/core/exception"
	"poolchem/core/types"
)

// ChemicalTestDef is a chemical test with its range variants
type ChemicalTestDef struct {
	Test types.ChemicalTest

	// AppliesWhen restricts the test to pools satisfying every condition
	AppliesWhen []exception.Condition

	Ranges []exception.Variant[types.Range]
}

// ObservationTestDef is an observation test with its applicability
type ObservationTestDef struct {
	Test        types.ObservationTest
	AppliesWhen []exception.Condition
}

// RecommendationDef is the stored recommendation for one (test, dosage group, trigger)
type RecommendationDef struct {
	Kind         types.TestKind
	TestID       int
	GroupID      int
	Trigger      types.Trigger
	Action       string
	Description  string
	CustomAction string

	// Dosages may be empty for advice-only recommendations
	Dosages []exception.Variant[types.Dosage]
}

// Catalog is the combined test catalog and recommendation store
type Catalog struct {
	chemical        []ChemicalTestDef
	observation     []ObservationTestDef
	groups          []types.DosageGroup
	recommendations []RecommendationDef

	chemicalIndex    map[int]int
	observationIndex map[int]int
	groupIndex       map[int]int
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		chemicalIndex:    make(map[int]int),
		observationIndex: make(map[int]int),
		groupIndex:       make(map[int]int),
	}
}

// AddChemicalTest registers a chemical test. Declaration order is preserved.
func (c *Catalog) AddChemicalTest(def ChemicalTestDef) {
	if _, dup := c.chemicalIndex[def.Test.ID]; !dup {
		c.chemicalIndex[def.Test.ID] = len(c.chemical)
	}
	c.chemical = append(c.chemical, def)
}

// AddObservationTest registers an observation test
func (c *Catalog) AddObservationTest(def ObservationTestDef) {
	if _, dup := c.observationIndex[def.Test.ID]; !dup {
		c.observationIndex[def.Test.ID] = len(c.observation)
	}
	c.observation = append(c.observation, def)
}

// AddGroup registers a dosage group. Group order is the default selection order.
func (c *Catalog) AddGroup(g types.DosageGroup) {
	if _, dup := c.groupIndex[g.ID]; !dup {
		c.groupIndex[g.ID] = len(c.groups)
	}
	c.groups = append(c.groups, g)
}

// AddRecommendation registers a recommendation
func (c *Catalog) AddRecommendation(r RecommendationDef) {
	c.recommendations = append(c.recommendations, r)
}

// ChemicalTests returns chemical tests in declaration order
func (c *Catalog) ChemicalTests() []ChemicalTestDef {
	return c.chemical
}

// ObservationTests returns observation tests in declaration order
func (c *Catalog) ObservationTests() []ObservationTestDef {
	return c.observation
}

// Groups returns dosage groups in declaration order
func (c *Catalog) Groups() []types.DosageGroup {
	return c.groups
}

// Recommendations returns every stored recommendation
func (c *Catalog) Recommendations() []RecommendationDef {
	return c.recommendations
}

// ChemicalTest returns a chemical test by id
func (c *Catalog) ChemicalTest(id int) (ChemicalTestDef, bool) {
	i, ok := c.chemicalIndex[id]
	if !ok {
		return ChemicalTestDef{}, false
	}
	return c.chemical[i], true
}

// ObservationTest returns an observation test by id
func (c *Catalog) ObservationTest(id int) (ObservationTestDef, bool) {
	i, ok := c.observationIndex[id]
	if !ok {
		return ObservationTestDef{}, false
	}
	return c.observation[i], true
}

// Group returns a dosage group by id
func (c *Catalog) Group(id int) (types.DosageGroup, bool) {
	i, ok := c.groupIndex[id]
	if !ok {
		return types.DosageGroup{}, false
	}
	return c.groups[i], true
}

// TestID resolves a test key of either kind
func (c *Catalog) TestID(kind types.TestKind, key string) (int, bool) {
	switch kind {
	case types.KindChemical:
		for _, t := range c.chemical {
			if t.Test.Key == key {
				return t.Test.ID, true
			}
		}
	case types.KindObservation:
		for _, t := range c.observation {
			if t.Test.Key == key {
				return t.Test.ID, true
			}
		}
	}
	return 0, false
}

// GroupByKey returns a dosage group by key
func (c *Catalog) GroupByKey(key string) (types.DosageGroup, bool) {
	for _, g := range c.groups {
		if g.Key == key {
			return g, true
		}
	}
	return types.DosageGroup{}, false
}

// For returns the recommendations of a test firing on trigger, ordered by
// dosage group declaration order.
func (c *Catalog) For(kind types.TestKind, testID int, trigger types.Trigger) []RecommendationDef {
	var out []RecommendationDef
	for _, g := range c.groups {
		for _, r := range c.recommendations {
			if r.Kind == kind && r.TestID == testID && r.Trigger == trigger && r.GroupID == g.ID {
				out = append(out, r)
			}
		}
	}
	return out
}

// HasGroupFor reports whether the test has any recommendation in the group
func (c *Catalog) HasGroupFor(kind types.TestKind, testID, groupID int) bool {
	for _, r := range c.recommendations {
		if r.Kind == kind && r.TestID == testID && r.GroupID == groupID {
			return true
		}
	}
	return false
}

// Stats returns catalog counts
func (c *Catalog) Stats() Stats {
	s := Stats{
		ChemicalTests:    len(c.chemical),
		ObservationTests: len(c.observation),
		Groups:           len(c.groups),
		Recommendations:  len(c.recommendations),
	}
	for _, t := range c.chemical {
		if t.Test.AutoCalculated {
			s.AutoCalculated++
		}
		s.RangeVariants += len(t.Ranges)
	}
	for _, r := range c.recommendations {
		s.DosageVariants += len(r.Dosages)
	}
	return s
}

// Stats holds catalog statistics
type Stats struct {
	ChemicalTests    int
	ObservationTests int
	AutoCalculated   int
	Groups           int
	Recommendations  int
	RangeVariants    int
	DosageVariants   int
}
