package optimizer

import "math"

// PathResult is a complete path, one node per stage in stage order, and the
// sum of its product prices.
type PathResult struct {
	Path []Node
	Cost float64
}

func emptyPath() PathResult {
	return PathResult{Path: []Node{}, Cost: 0}
}

// Empty reports whether the result carries no path.
func (r PathResult) Empty() bool {
	return len(r.Path) == 0
}

// MinCostPath finds the cheapest complete path with a forward pass over the
// stages. Stage-0 nodes start at their own price; every edge relaxation adds
// the destination price, so each node on the path is counted exactly once.
// Ties resolve to the first node in stage order, both for predecessors and
// for the final stage.
//
// If the graph has no stages, any stage is empty, or no last-stage node is
// reachable, the result is an empty path with cost 0.
func MinCostPath(g Graph) PathResult {
	if !g.Complete() {
		return emptyPath()
	}

	dist := make(map[string]float64, len(g.Nodes))
	pred := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		dist[n.ID] = math.Inf(1)
	}
	for _, n := range g.Stages[0] {
		dist[n.ID] = n.Product.Price
	}

	for i := 0; i+1 < len(g.Stages); i++ {
		for _, src := range g.Stages[i] {
			for _, e := range g.Outgoing(src.ID) {
				candidate := dist[src.ID] + e.Weight
				if candidate < dist[e.To] {
					dist[e.To] = candidate
					pred[e.To] = src.ID
				}
			}
		}
	}

	last := g.Stages[len(g.Stages)-1]
	best := -1
	minCost := math.Inf(1)
	for i, n := range last {
		if dist[n.ID] < minCost {
			minCost = dist[n.ID]
			best = i
		}
	}
	if best < 0 {
		return emptyPath()
	}

	path := make([]Node, 0, len(g.Stages))
	for id := last[best].ID; ; {
		node, ok := g.Node(id)
		if !ok {
			break
		}
		path = append(path, node)
		prev, ok := pred[id]
		if !ok {
			break
		}
		id = prev
	}
	reverse(path)

	if len(path) != len(g.Stages) {
		return emptyPath()
	}
	return PathResult{Path: path, Cost: minCost}
}

func reverse(nodes []Node) {
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
}
