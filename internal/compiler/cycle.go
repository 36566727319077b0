package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/tyinfer/internal/ir"
)

// CycleWarning represents a cycle between type variables of a problem.
//
// Cycles are warnings, not errors. Incorporation terminates on them, but
// fixation of a cycle can only commit the first variable it enters without
// the values of the others, which usually leaves some of them unresolved.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["T", "R", "T"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning" or "info"
}

// AnalyzeCycles reports cycles in the variable dependency graph of p.
//
// There is an edge T → R when a constraint gives T a bound whose type
// mentions R. Constraints between constructed types are decomposed
// structurally the same way the constraint system does it, so
// List<T> <: List<R> yields T → R.
//
// The algorithm:
//  1. Build the dependency graph from the constraints
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or a self-loop
//
// Nodes are visited in declaration order so the result is deterministic.
func AnalyzeCycles(p *ir.Problem) []CycleWarning {
	if p == nil || len(p.Constraints) == 0 {
		return []CycleWarning{}
	}

	graph := buildDependencyGraph(p)
	sccs := tarjanSCC(graph)

	warnings := []CycleWarning{}
	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}
	return warnings
}

// dependencyGraph maps a variable name to the variables its bounds mention,
// keeping nodes in declaration order.
type dependencyGraph struct {
	nodes []string
	edges map[string][]string
}

func (g *dependencyGraph) addEdge(from, to string) {
	for _, existing := range g.edges[from] {
		if existing == to {
			return
		}
	}
	g.edges[from] = append(g.edges[from], to)
}

func buildDependencyGraph(p *ir.Problem) *dependencyGraph {
	g := &dependencyGraph{edges: make(map[string][]string)}
	declared := make(map[*ir.TypeVariable]bool, len(p.Variables))
	for _, decl := range p.Variables {
		declared[decl.Var] = true
		g.nodes = append(g.nodes, decl.Var.Name)
		g.edges[decl.Var.Name] = nil
	}

	var relate func(left, right *ir.Type, kind ir.RelationKind)
	relate = func(left, right *ir.Type, kind ir.RelationKind) {
		switch {
		case left.IsVariable() && declared[left.Var]:
			for _, dep := range ir.NestedVariables(right) {
				if declared[dep] {
					g.addEdge(left.Var.Name, dep.Name)
				}
			}
		case right.IsVariable() && declared[right.Var]:
			for _, dep := range ir.NestedVariables(left) {
				if declared[dep] {
					g.addEdge(right.Var.Name, dep.Name)
				}
			}
		default:
			rels, err := ir.Decompose(kind, left, right)
			if err != nil {
				return
			}
			for _, rel := range rels {
				relate(rel.Left, rel.Right, rel.Kind)
			}
		}
	}

	for _, c := range p.Constraints {
		relate(c.Sub, c.Super, c.Kind)
	}
	return g
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph *dependencyGraph) bool {
	for _, neighbor := range graph.edges[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
//
// Returns a list of SCCs, where each SCC is a list of variable names.
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(graph *dependencyGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph.edges[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root node: pop the stack and create an SCC
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range graph.nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// cycleSCCToWarning converts an SCC to a CycleWarning.
func cycleSCCToWarning(scc []string, graph *dependencyGraph) CycleWarning {
	if len(scc) == 1 {
		name := scc[0]
		return CycleWarning{
			Path:    []string{name, name},
			Message: fmt.Sprintf("Type variable depends on itself: %s → %s", name, name),
			Level:   "warning",
		}
	}

	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("Type variables depend on each other: %s", strings.Join(path, " → ")),
		Level:   "warning",
	}
}

// reconstructCyclePath walks edges inside the SCC from the member declared
// first until it returns to it.
func reconstructCyclePath(scc []string, graph *dependencyGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	var start string
	for _, node := range graph.nodes {
		if members[node] {
			start = node
			break
		}
	}

	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph.edges[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}

		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}

	return path
}
