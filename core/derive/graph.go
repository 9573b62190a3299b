// Package derive computes auto-calculated chemical values and orders their
// recomputation along a static dependency graph.
package derive

import (
	"fmt"
	"sort"
)

// Graph is a dependency graph over test keys. An edge runs from a derived
// key to each input it reads.
type Graph struct {
	nodes map[string]bool

	// edges: derived -> inputs
	edges map[string][]string

	// reverseEdges: input -> derived keys reading it
	reverseEdges map[string][]string

	topoOrder []string
}

// CycleError indicates a dependency cycle
type CycleError struct {
	Node string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected at %s", e.Node)
}

// NewGraph builds and sorts the graph for a formula set
func NewGraph(formulas []Formula) (*Graph, error) {
	g := &Graph{
		nodes:        make(map[string]bool),
		edges:        make(map[string][]string),
		reverseEdges: make(map[string][]string),
	}
	for _, f := range formulas {
		g.nodes[f.Key] = true
		for _, in := range f.Inputs {
			g.nodes[in] = true
			g.edges[f.Key] = append(g.edges[f.Key], in)
			g.reverseEdges[in] = append(g.reverseEdges[in], f.Key)
		}
	}
	order, err := g.sort()
	if err != nil {
		return nil, err
	}
	g.topoOrder = order
	return g, nil
}

// Order returns every node, inputs before the values derived from them
func (g *Graph) Order() []string {
	out := make([]string, len(g.topoOrder))
	copy(out, g.topoOrder)
	return out
}

// Inputs returns the direct inputs of a derived key
func (g *Graph) Inputs(key string) []string {
	return g.edges[key]
}

// Dependents returns every key transitively derived from key, in recomputation order
func (g *Graph) Dependents(key string) []string {
	visited := make(map[string]bool)
	g.collectDependents(key, visited)
	var out []string
	for _, k := range g.topoOrder {
		if visited[k] {
			out = append(out, k)
		}
	}
	return out
}

func (g *Graph) collectDependents(key string, visited map[string]bool) {
	for _, dep := range g.reverseEdges[key] {
		if !visited[dep] {
			visited[dep] = true
			g.collectDependents(dep, visited)
		}
	}
}

func (g *Graph) sort() ([]string, error) {
	visited := make(map[string]bool)
	temp := make(map[string]bool)
	order := []string{}

	var visit func(n string) error
	visit = func(n string) error {
		if temp[n] {
			return &CycleError{Node: n}
		}
		if visited[n] {
			return nil
		}
		temp[n] = true
		for _, in := range g.edges[n] {
			if err := visit(in); err != nil {
				return err
			}
		}
		temp[n] = false
		visited[n] = true
		order = append(order, n)
		return nil
	}

	nodes := make([]string, 0, len(g.nodes))
	for n := range g.nodes {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	for _, n := range nodes {
		if err := visit(n); err != nil {
			return nil, err
		}
	}
	// post-order already places inputs first
	return order, nil
}
