package config

import (
	"fmt"
	"strings"

	"github.com/devopsdash/dashconfig/internal/pathutil"
	"github.com/devopsdash/dashconfig/pkg/dashboard"
)

// visit states for the dependency traversal
const (
	unvisited = iota
	onStack
	done
)

// edge is a dependency edge from a stage to one of its predecessors.
type edge struct {
	to       int // index of the dependency stage
	depIndex int // index within the stage's dependencies list
}

// dependencyGraph is the stage graph with edges stage -> dependency.
// Only known, non-self, distinct dependencies become edges; the validator
// reports the others separately.
type dependencyGraph struct {
	stages []dashboard.PipelineStage
	edges  [][]edge
}

func newDependencyGraph(stages []dashboard.PipelineStage) *dependencyGraph {
	index := make(map[string]int, len(stages))
	for i, s := range stages {
		// Duplicate names resolve to the first declaration
		if _, exists := index[s.Name]; !exists {
			index[s.Name] = i
		}
	}

	g := &dependencyGraph{
		stages: stages,
		edges:  make([][]edge, len(stages)),
	}
	for i, s := range stages {
		seen := make(map[string]bool, len(s.Dependencies))
		for k, dep := range s.Dependencies {
			if dep == s.Name || seen[dep] {
				continue
			}
			seen[dep] = true
			to, ok := index[dep]
			if !ok {
				continue
			}
			g.edges[i] = append(g.edges[i], edge{to: to, depIndex: k})
		}
	}
	return g
}

// sort runs a single depth-first traversal over the stages in declaration
// order. It returns the stages in dependency-first order and a violation for
// every back edge, i.e. every cycle closed during the traversal.
func (g *dependencyGraph) sort() ([]string, []Violation) {
	state := make([]int, len(g.stages))
	order := make([]string, 0, len(g.stages))
	var path []int
	var cycles []Violation

	var visit func(i int)
	visit = func(i int) {
		state[i] = onStack
		path = append(path, i)
		for _, e := range g.edges[i] {
			switch state[e.to] {
			case unvisited:
				visit(e.to)
			case onStack:
				cycles = append(cycles, g.cycleViolation(path, i, e))
			}
		}
		path = path[:len(path)-1]
		state[i] = done
		order = append(order, g.stages[i].Name)
	}

	for i := range g.stages {
		if state[i] == unvisited {
			visit(i)
		}
	}
	return order, cycles
}

// cycleViolation builds the violation for the back edge from stage i, listing
// the cycle from the re-entered stage back to itself.
func (g *dependencyGraph) cycleViolation(path []int, i int, e edge) Violation {
	start := 0
	for k, p := range path {
		if p == e.to {
			start = k
			break
		}
	}
	cycle := make([]string, 0, len(path)-start+1)
	for _, p := range path[start:] {
		cycle = append(cycle, g.stages[p].Name)
	}
	cycle = append(cycle, g.stages[e.to].Name)

	depPath := pathutil.Index(pathutil.Field(pathutil.Index(pathutil.Field("pipeline", "stages"), i), "dependencies"), e.depIndex)
	return Violation{
		Code:    CodeDependencyCycle,
		Path:    depPath,
		Message: fmt.Sprintf("dependency cycle: %s", strings.Join(cycle, " -> ")),
		Stage:   g.stages[i].Name,
		Cycle:   cycle,
	}
}
