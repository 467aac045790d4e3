// Package graph holds the fixed directed topology connecting named agents.
package graph

import (
	"fmt"

	"github.com/hupe1980/campaignmesh/core"
)

var (
	// ErrUnknownNode is returned when an edge references a node that is not part of the graph.
	ErrUnknownNode = fmt.Errorf("unknown node")

	// ErrDuplicateNode is returned when two nodes share a name.
	ErrDuplicateNode = fmt.Errorf("duplicate node")
)

// Agent names used by the default campaign topology.
const (
	Planner    = "planner"
	Researcher = "researcher"
	Strategist = "strategist"
	Writer     = "writer"
	Feedback   = "feedback"
)

// Edge is a directed connection From -> To.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// DefaultEdges returns the campaign cycle
// planner -> researcher -> strategist -> writer -> feedback -> planner.
func DefaultEdges() []Edge {
	return []Edge{
		{From: Planner, To: Researcher},
		{From: Researcher, To: Strategist},
		{From: Strategist, To: Writer},
		{From: Writer, To: Feedback},
		{From: Feedback, To: Planner},
	}
}

// Graph maps agent names to agents and keeps an ordered edge list. It is
// immutable after construction and does not own the agents it references.
type Graph struct {
	order []string
	nodes map[string]core.Agent
	edges []Edge
	succ  map[string][]string
}

// New builds a graph over nodes connected by edges. Every edge endpoint must
// name one of the nodes.
func New(nodes []core.Agent, edges []Edge) (*Graph, error) {
	g := &Graph{
		nodes: make(map[string]core.Agent, len(nodes)),
		succ:  make(map[string][]string, len(nodes)),
	}

	for _, n := range nodes {
		name := n.Name()
		if _, exists := g.nodes[name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, name)
		}
		g.nodes[name] = n
		g.order = append(g.order, name)
	}

	for _, e := range edges {
		if _, ok := g.nodes[e.From]; !ok {
			return nil, fmt.Errorf("%w: edge %s->%s: %s", ErrUnknownNode, e.From, e.To, e.From)
		}
		if _, ok := g.nodes[e.To]; !ok {
			return nil, fmt.Errorf("%w: edge %s->%s: %s", ErrUnknownNode, e.From, e.To, e.To)
		}
		g.edges = append(g.edges, e)
		g.succ[e.From] = append(g.succ[e.From], e.To)
	}

	return g, nil
}

// Node returns the agent registered under name.
func (g *Graph) Node(name string) (core.Agent, bool) {
	a, ok := g.nodes[name]
	return a, ok
}

// Nodes returns node names in insertion order.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Agents returns the agents in insertion order.
func (g *Graph) Agents() []core.Agent {
	out := make([]core.Agent, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.nodes[name])
	}
	return out
}

// Edges returns a copy of the edge list in construction order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Successors returns the targets of edges leaving name, in edge order.
func (g *Graph) Successors(name string) []string {
	s := g.succ[name]
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// FirstSuccessor returns the first successor of name, if any.
func (g *Graph) FirstSuccessor(name string) (string, bool) {
	s := g.succ[name]
	if len(s) == 0 {
		return "", false
	}
	return s[0], true
}
