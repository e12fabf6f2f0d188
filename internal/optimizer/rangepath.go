package optimizer

// BestPathInRange enumerates every complete path and returns the cheapest
// whose cost lies in [minTotal, maxTotal]. Enumeration starts from the
// stage-0 nodes in order and extends each partial path along its outgoing
// edges in edge order, so on equal cost the lexicographically first path by
// stage position wins.
//
// The enumeration is exhaustive and recomputed from scratch on every call;
// its cost is the product of the stage sizes (see Graph.PathCount). The
// second return value is false when no complete path falls in the window,
// including when minTotal > maxTotal or the graph has an empty stage.
func BestPathInRange(g Graph, minTotal, maxTotal float64) (PathResult, bool) {
	if !g.Complete() || minTotal > maxTotal {
		return PathResult{}, false
	}

	paths := make([]PathResult, 0, len(g.Stages[0]))
	for _, n := range g.Stages[0] {
		paths = append(paths, PathResult{Path: []Node{n}, Cost: n.Product.Price})
	}

	for stage := 1; stage < len(g.Stages); stage++ {
		next := make([]PathResult, 0, len(paths)*len(g.Stages[stage]))
		for _, p := range paths {
			tail := p.Path[len(p.Path)-1]
			for _, e := range g.Outgoing(tail.ID) {
				dst, ok := g.Node(e.To)
				if !ok {
					continue
				}
				extended := make([]Node, len(p.Path), len(p.Path)+1)
				copy(extended, p.Path)
				next = append(next, PathResult{
					Path: append(extended, dst),
					Cost: p.Cost + dst.Product.Price,
				})
			}
		}
		paths = next
	}

	var (
		best  PathResult
		found bool
	)
	for _, p := range paths {
		if p.Cost < minTotal || p.Cost > maxTotal {
			continue
		}
		if !found || p.Cost < best.Cost {
			best = p
			found = true
		}
	}
	return best, found
}
