package exception

import (
	"sort"

	"poolchem/internal/errors"
)

// Variant is one candidate value guarded by conditions.
// A variant without conditions is the default.
type Variant[T any] struct {
	Conditions []Condition
	Value      T
}

// IsDefault reports whether the variant is untagged
func (v Variant[T]) IsDefault() bool {
	return len(v.Conditions) == 0
}

// Rank is the priority of the variant's highest-priority condition.
// Defaults rank after every tagged variant.
func (v Variant[T]) Rank() int {
	if v.IsDefault() {
		return int(kindCount)
	}
	best := int(kindCount)
	for _, c := range v.Conditions {
		if int(c.Kind) < best {
			best = int(c.Kind)
		}
	}
	return best
}

// Selection is the outcome of a resolution
type Selection[T any] struct {
	Value T

	// Index is the declaration index of the selected variant
	Index int

	// Default is true when no tagged variant matched
	Default bool

	// Contenders lists declaration indexes of other satisfied variants sharing
	// the winner's rank. Non-empty means declaration order broke a tie.
	Contenders []int
}

// Ambiguous reports whether declaration order decided between equally ranked matches
func (s Selection[T]) Ambiguous() bool {
	return len(s.Contenders) > 0
}

// Resolve selects the applicable variant: tagged variants are tried in rank
// order, ties broken by declaration order, and the first one whose conditions
// all hold wins. Without a match the default variant is used; a definition
// without a default is an UNRESOLVED_EXCEPTION error.
func Resolve[T any](variants []Variant[T], facts Facts) (Selection[T], error) {
	order := make([]int, len(variants))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return variants[order[a]].Rank() < variants[order[b]].Rank()
	})

	defaultIdx := -1
	winner := -1
	var contenders []int
	for _, idx := range order {
		v := variants[idx]
		if v.IsDefault() {
			if defaultIdx < 0 {
				defaultIdx = idx
			}
			continue
		}
		if !AllSatisfied(v.Conditions, facts) {
			continue
		}
		if winner < 0 {
			winner = idx
			continue
		}
		if v.Rank() == variants[winner].Rank() {
			contenders = append(contenders, idx)
		}
	}

	if winner >= 0 {
		return Selection[T]{Value: variants[winner].Value, Index: winner, Contenders: contenders}, nil
	}
	if defaultIdx < 0 {
		return Selection[T]{}, errors.New(errors.TypeUnresolved, "no variant matched and no default variant is defined")
	}
	return Selection[T]{Value: variants[defaultIdx].Value, Index: defaultIdx, Default: true}, nil
}

// CheckDefaults verifies the definition has exactly one default variant
func CheckDefaults[T any](variants []Variant[T]) error {
	n := 0
	for _, v := range variants {
		if v.IsDefault() {
			n++
		}
	}
	switch n {
	case 1:
		return nil
	case 0:
		return errors.New(errors.TypeUnresolved, "missing default variant")
	default:
		return errors.Newf(errors.TypeCatalog, "%d default variants, expected exactly one", n)
	}
}
