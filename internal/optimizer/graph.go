package optimizer

import (
	"fmt"

	"github.com/vanshika/basketwise/internal/domain"
)

// Node is one candidate product positioned at a stage of the graph.
type Node struct {
	ID      string
	Stage   int
	Index   int
	Product domain.Product
}

// Edge connects a node to a node of the next stage. Weight is the
// destination product's price.
type Edge struct {
	From   string
	To     string
	Weight float64
}

// Graph is a stage-partitioned DAG: one stage per desired item, complete
// bipartite edges between consecutive stages.
type Graph struct {
	Nodes  []Node
	Edges  []Edge
	Stages [][]Node

	byID     map[string]Node
	outgoing map[string][]Edge
}

// BuildGraph creates one stage per desired item, in order. A stage holds
// every candidate whose name contains the item text; stock and budget are
// not considered. Node ids are "{stage}_{position}".
func BuildGraph(desired []string, pool []domain.Product) Graph {
	g := Graph{
		Nodes:  []Node{},
		Edges:  []Edge{},
		Stages: make([][]Node, 0, len(desired)),
	}

	for stage, item := range desired {
		matches := matchingProducts(pool, item)
		nodes := make([]Node, 0, len(matches))
		for i, p := range matches {
			node := Node{
				ID:      fmt.Sprintf("%d_%d", stage, i),
				Stage:   stage,
				Index:   i,
				Product: p,
			}
			nodes = append(nodes, node)
			g.Nodes = append(g.Nodes, node)
		}
		g.Stages = append(g.Stages, nodes)
	}

	for i := 0; i+1 < len(g.Stages); i++ {
		for _, src := range g.Stages[i] {
			for _, dst := range g.Stages[i+1] {
				g.Edges = append(g.Edges, Edge{
					From:   src.ID,
					To:     dst.ID,
					Weight: dst.Product.Price,
				})
			}
		}
	}

	g.reindex()
	return g
}

// reindex rebuilds the id and adjacency lookups. Edge order within an
// adjacency list follows g.Edges.
func (g *Graph) reindex() {
	g.byID = make(map[string]Node, len(g.Nodes))
	for _, n := range g.Nodes {
		g.byID[n.ID] = n
	}
	g.outgoing = make(map[string][]Edge, len(g.Nodes))
	for _, e := range g.Edges {
		g.outgoing[e.From] = append(g.outgoing[e.From], e)
	}
}

func (g *Graph) ensureIndex() {
	if g.byID == nil || g.outgoing == nil {
		g.reindex()
	}
}

// Node looks up a node by id.
func (g *Graph) Node(id string) (Node, bool) {
	g.ensureIndex()
	n, ok := g.byID[id]
	return n, ok
}

// Outgoing returns the edges leaving the given node.
func (g *Graph) Outgoing(id string) []Edge {
	g.ensureIndex()
	return g.outgoing[id]
}

// Complete reports whether the graph has at least one stage and no empty
// stage, i.e. whether any complete path exists.
func (g *Graph) Complete() bool {
	if len(g.Stages) == 0 {
		return false
	}
	for _, s := range g.Stages {
		if len(s) == 0 {
			return false
		}
	}
	return true
}

// PathCount is the number of complete paths, the product of stage sizes.
// The count saturates at maxInt instead of overflowing.
func (g *Graph) PathCount() int {
	if !g.Complete() {
		return 0
	}
	const maxInt = int(^uint(0) >> 1)
	count := 1
	for _, s := range g.Stages {
		if count > maxInt/len(s) {
			return maxInt
		}
		count *= len(s)
	}
	return count
}
