// Package engine is the result engine of one job.
//
// The engine owns the live chemical and observation results, classifies
// readings against their resolved ranges, resolves the candidate dosage
// recommendations of every out-of-range or present result, and recomputes
// auto-calculated values in dependency order. Every accepted mutation
// publishes a new immutable snapshot; a rejected one leaves the published
// snapshot untouched.
package engine

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"poolchem/core/catalog"
	"poolchem/core/derive"
	"poolchem/core/exception"
	"poolchem/core/types"
	"poolchem/internal/errors"
)

// Config tunes the engine
type Config struct {
	// Logger receives ambiguity warnings and cascade traces (nop when nil)
	Logger *zap.Logger

	// StrictAmbiguity turns equally ranked matching variants into AMBIGUOUS_EXCEPTION errors
	StrictAmbiguity bool

	// DecimalPlaces is the rounding applied to dosage amounts
	DecimalPlaces int32

	// DisplayMass and DisplayVolume are used when a dosage has no product metric.
	// Empty keeps the unit the dosage is defined in.
	DisplayMass   string
	DisplayVolume string
}

// DefaultConfig returns the default engine configuration
func DefaultConfig() Config {
	return Config{
		Logger:        zap.NewNop(),
		DecimalPlaces: 2,
	}
}

// Input is everything a job is built from
type Input struct {
	Catalog  *catalog.Catalog
	Pool     types.PoolSpecs
	Products types.ProductSpecs

	// Previously persisted results, keyed by test id
	SavedChemical    []types.SavedChemicalResult
	SavedObservation []types.SavedObservationResult
}

// Engine is the result engine of one job.
// Reads are lock free; writes are serialized.
type Engine struct {
	catalog  *catalog.Catalog
	facts    exception.Facts
	formulas map[string]derive.Formula
	graph    *derive.Graph
	config   Config
	logger   *zap.Logger

	// Result positions never change after Initialize
	chemicalIndex    map[int]int
	chemicalKeys     map[string]int
	observationIndex map[int]int

	mu    sync.Mutex
	state atomic.Pointer[types.Results]
}

// Initialize builds the result set of a job: one result per applicable test,
// ranges resolved against the pool, saved results merged over the defaults,
// derived values computed and recommendations resolved.
func Initialize(in Input, cfg Config) (*Engine, error) {
	if in.Catalog == nil {
		return nil, errors.Input("a catalog is required")
	}
	if err := in.Catalog.Check(); err != nil {
		return nil, err
	}
	if in.Pool.Pool.Volume.IsNegative() {
		return nil, errors.Newf(errors.TypeInput, "pool volume %s is negative", in.Pool.Pool.Volume)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	formulas := derive.Builtin()
	graph, err := derive.NewGraph(formulas)
	if err != nil {
		return nil, errors.Internal("build formula graph", err)
	}

	e := &Engine{
		catalog:          in.Catalog,
		facts:            exception.Facts{Pool: in.Pool, Products: in.Products},
		formulas:         make(map[string]derive.Formula, len(formulas)),
		graph:            graph,
		config:           cfg,
		logger:           cfg.Logger.With(zap.String("component", "engine")),
		chemicalIndex:    make(map[int]int),
		chemicalKeys:     make(map[string]int),
		observationIndex: make(map[int]int),
	}
	for _, f := range formulas {
		e.formulas[f.Key] = f
	}

	var res types.Results
	for _, def := range in.Catalog.ChemicalTests() {
		if !exception.AllSatisfied(def.AppliesWhen, e.facts) {
			e.logger.Debug("test does not apply to pool", zap.String("test", def.Test.Key))
			continue
		}
		rng, err := e.resolveRange(def)
		if err != nil {
			return nil, err
		}
		e.chemicalIndex[def.Test.ID] = len(res.Chemical)
		e.chemicalKeys[def.Test.Key] = len(res.Chemical)
		res.Chemical = append(res.Chemical, types.ChemicalResult{
			TestID:         def.Test.ID,
			Key:            def.Test.Key,
			Name:           def.Test.Name,
			Unit:           def.Test.Unit,
			IsDefault:      def.Test.IsDefault,
			AutoCalculated: def.Test.AutoCalculated,
			Range:          rng,
			Enabled:        def.Test.IsDefault,
			ShowOnReport:   true,
		})
	}

	for _, def := range in.Catalog.ObservationTests() {
		if !exception.AllSatisfied(def.AppliesWhen, e.facts) {
			e.logger.Debug("test does not apply to pool", zap.String("test", def.Test.Key))
			continue
		}
		e.observationIndex[def.Test.ID] = len(res.Observation)
		res.Observation = append(res.Observation, types.ObservationResult{
			TestID:       def.Test.ID,
			Key:          def.Test.Key,
			Name:         def.Test.Name,
			IsDefault:    def.Test.IsDefault,
			Enabled:      def.Test.IsDefault,
			ShowOnReport: true,
		})
	}

	if err := e.mergeSaved(&res, in.SavedChemical, in.SavedObservation); err != nil {
		return nil, err
	}

	for _, key := range graph.Order() {
		if idx, ok := e.chemicalKeys[key]; ok {
			e.derive(&res, idx)
		}
	}
	for i := range res.Chemical {
		if err := e.evaluateChemical(&res, i); err != nil {
			return nil, err
		}
	}
	for i := range res.Observation {
		if err := e.evaluateObservation(&res, i); err != nil {
			return nil, err
		}
	}

	res.Version = 1
	e.state.Store(&res)
	e.logger.Debug("job initialized",
		zap.Int("chemical_results", len(res.Chemical)),
		zap.Int("observation_results", len(res.Observation)))
	return e, nil
}

// Results returns the current snapshot. Consecutive calls without an
// intervening mutation return equal snapshots.
func (e *Engine) Results() types.Results {
	return e.state.Load().Clone()
}

// Catalog returns the catalog the job was built from
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// mutate applies fn to a copy of the current snapshot and publishes it when
// fn succeeds. On error the published snapshot is returned unchanged.
func (e *Engine) mutate(fn func(next *types.Results) error) (types.Results, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	current := e.state.Load()
	next := current.Clone()
	if err := fn(&next); err != nil {
		return current.Clone(), err
	}
	next.Version = current.Version + 1
	e.state.Store(&next)
	return next.Clone(), nil
}

func (e *Engine) mergeSaved(res *types.Results, chemical []types.SavedChemicalResult, observation []types.SavedObservationResult) error {
	for _, s := range chemical {
		idx, ok := e.chemicalIndex[s.TestID]
		if !ok {
			e.logger.Warn("skipping saved result for a test outside the job",
				zap.String("kind", string(types.KindChemical)), zap.Int("test_id", s.TestID))
			continue
		}
		r := &res.Chemical[idx]
		if !r.AutoCalculated {
			v, err := normalizeValue(s.Value)
			if err != nil {
				return errors.Wrapf(errors.TypeInput, err, "saved value for %q", r.Key)
			}
			r.Value = v
		}
		r.Enabled = s.Enabled || r.IsDefault
		if s.ShowOnReport != nil {
			r.ShowOnReport = *s.ShowOnReport
		}
		if s.CustomerAction != nil {
			r.CustomerAction = *s.CustomerAction
			r.CustomerActionEdited = true
		}
		r.PinnedGroupID = e.savedPin(types.KindChemical, r.Key, r.TestID, s.PinnedGroupID)
	}

	for _, s := range observation {
		idx, ok := e.observationIndex[s.TestID]
		if !ok {
			e.logger.Warn("skipping saved result for a test outside the job",
				zap.String("kind", string(types.KindObservation)), zap.Int("test_id", s.TestID))
			continue
		}
		r := &res.Observation[idx]
		r.Value = s.Value
		r.Enabled = s.Enabled || r.IsDefault
		if s.ShowOnReport != nil {
			r.ShowOnReport = *s.ShowOnReport
		}
		if s.CustomerAction != nil {
			r.CustomerAction = *s.CustomerAction
			r.CustomerActionEdited = true
		}
		r.PinnedGroupID = e.savedPin(types.KindObservation, r.Key, r.TestID, s.PinnedGroupID)
	}
	return nil
}

func (e *Engine) savedPin(kind types.TestKind, key string, testID, groupID int) int {
	if groupID == 0 {
		return 0
	}
	if !e.catalog.HasGroupFor(kind, testID, groupID) {
		e.logger.Warn("dropping saved pin to a group without a recommendation for the test",
			zap.String("test", key), zap.Int("group_id", groupID))
		return 0
	}
	return groupID
}

func (e *Engine) resolveRange(def catalog.ChemicalTestDef) (types.Range, error) {
	sel, err := exception.Resolve(def.Ranges, e.facts)
	if err != nil {
		return types.Range{}, errors.Wrapf(errors.TypeOf(err), err, "resolve range of %q", def.Test.Key)
	}
	if err := e.checkAmbiguity("range", def.Test.Key, sel.Index, sel.Contenders); err != nil {
		return types.Range{}, err
	}
	return sel.Value, nil
}

// checkAmbiguity reports equally ranked matches. Declaration order has
// already picked the winner; strict mode refuses it.
func (e *Engine) checkAmbiguity(what, subject string, winner int, contenders []int) error {
	if len(contenders) == 0 {
		return nil
	}
	if e.config.StrictAmbiguity {
		return errors.Newf(errors.TypeAmbiguous, "%s of %s: variant %d ties with %v", what, subject, winner, contenders).
			WithContext("winner", winner).
			WithContext("contenders", contenders)
	}
	e.logger.Warn("equally ranked exception variants matched; using declaration order",
		zap.String("definition", what),
		zap.String("subject", subject),
		zap.Int("winner", winner),
		zap.Ints("contenders", contenders))
	return nil
}

// maxValueLength bounds a reading in characters
const maxValueLength = 32

// normalizeValue accepts a plain decimal string or "" for no reading.
// Exponent notation is refused so a short input cannot expand into a huge value.
func normalizeValue(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", nil
	}
	if len(s) > maxValueLength {
		return "", errors.Newf(errors.TypeInput, "value is longer than %d characters", maxValueLength)
	}
	if strings.ContainsAny(s, "eE") {
		return "", errors.Newf(errors.TypeInput, "%q uses exponent notation", raw)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "", errors.Newf(errors.TypeInput, "%q is not a number", raw)
	}
	return d.String(), nil
}

// selectGroup prefers the pinned group when it is among the candidates
func selectGroup(recs []types.DosageRecommendation, pinned int) int {
	if len(recs) == 0 {
		return 0
	}
	if pinned != 0 {
		for _, rec := range recs {
			if rec.GroupID == pinned {
				return pinned
			}
		}
	}
	return recs[0].GroupID
}
