package graph

import "github.com/toreyjames/Asset-Inventory-Claude/internal/domain"

type Direction string

const (
	Upstream   Direction = "upstream"
	Downstream Direction = "downstream"
	Both       Direction = "both"
)

// Options narrows a traversal. MaxDepth 0 means unbounded. An empty Kinds
// slice traverses every relationship kind.
type Options struct {
	MaxDepth int
	Kinds    []domain.RelationshipKind
}

func (o Options) allows(kind domain.RelationshipKind) bool {
	if len(o.Kinds) == 0 {
		return true
	}
	for _, k := range o.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Visit is one asset reached by a traversal. Via is the edge that first
// reached it; Depth is its minimum distance from the root.
type Visit struct {
	Asset     domain.Asset
	Depth     int
	Direction Direction
	Via       Edge
}

// Traversal is the BFS result. The root itself is excluded from Visits.
type Traversal struct {
	RootID string
	Visits []Visit
	Depths map[string]int
	// CycleDetected flags a directed cycle inside the traversed subgraph.
	// Informational; rings are legal topology.
	CycleDetected bool
}

type bfsEntry struct {
	id    string
	depth int
}

// Traverse walks the graph from root in the given direction. BFS with a
// visited set: each asset appears at most once, at its shallowest depth,
// with snapshot-order tie breaking. Both is the union of the upstream and
// downstream closures. An unknown root is a NotFoundError, never an empty
// result.
func Traverse(idx *Index, rootID string, dir Direction, opts Options) (*Traversal, error) {
	if _, ok := idx.Asset(rootID); !ok {
		return nil, domain.NotFoundError{Kind: "asset", ID: rootID}
	}
	if dir == Both {
		return traverseBoth(idx, rootID, opts)
	}

	result := &Traversal{RootID: rootID, Depths: map[string]int{rootID: 0}}
	visited := map[string]struct{}{rootID: {}}
	queue := []bfsEntry{{id: rootID, depth: 0}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if opts.MaxDepth > 0 && current.depth >= opts.MaxDepth {
			continue
		}
		for _, step := range neighborSteps(idx, current.id, dir, opts) {
			if _, seen := visited[step.id]; seen {
				continue
			}
			visited[step.id] = struct{}{}
			asset, _ := idx.Asset(step.id)
			depth := current.depth + 1
			result.Depths[step.id] = depth
			result.Visits = append(result.Visits, Visit{
				Asset:     asset,
				Depth:     depth,
				Direction: dir,
				Via:       step.via,
			})
			queue = append(queue, bfsEntry{id: step.id, depth: depth})
		}
	}

	result.CycleDetected = hasCycle(idx, visited, opts)
	return result, nil
}

// traverseBoth runs the upstream and downstream closures as independent
// passes and merges them. Expanding both directions from every dequeued
// node would walk the weakly-connected component instead, pulling in
// co-feeders of shared targets that are not dependencies of the root.
func traverseBoth(idx *Index, rootID string, opts Options) (*Traversal, error) {
	up, err := Traverse(idx, rootID, Upstream, opts)
	if err != nil {
		return nil, err
	}
	down, err := Traverse(idx, rootID, Downstream, opts)
	if err != nil {
		return nil, err
	}

	result := &Traversal{RootID: rootID, Visits: up.Visits, Depths: up.Depths}
	index := make(map[string]int, len(up.Visits))
	for i, visit := range up.Visits {
		index[visit.Asset.ID] = i
	}
	for _, visit := range down.Visits {
		if i, ok := index[visit.Asset.ID]; ok {
			// Reachable in both directions, usually a cycle through
			// the root. Keep the shallower visit.
			if visit.Depth < result.Visits[i].Depth {
				result.Visits[i] = visit
				result.Depths[visit.Asset.ID] = visit.Depth
			}
			continue
		}
		index[visit.Asset.ID] = len(result.Visits)
		result.Visits = append(result.Visits, visit)
		result.Depths[visit.Asset.ID] = visit.Depth
	}

	nodes := make(map[string]struct{}, len(result.Depths))
	for id := range result.Depths {
		nodes[id] = struct{}{}
	}
	result.CycleDetected = hasCycle(idx, nodes, opts)
	return result, nil
}

type neighborStep struct {
	id  string
	via Edge
}

func neighborSteps(idx *Index, id string, dir Direction, opts Options) []neighborStep {
	var steps []neighborStep
	if dir == Downstream {
		for _, edge := range idx.Outgoing(id) {
			if !opts.allows(edge.Kind) {
				continue
			}
			steps = append(steps, neighborStep{id: edge.TargetID, via: edge})
		}
		return steps
	}
	for _, edge := range idx.Incoming(id) {
		if !opts.allows(edge.Kind) {
			continue
		}
		steps = append(steps, neighborStep{id: edge.SourceID, via: edge})
	}
	return steps
}

// hasCycle runs a coloring DFS over the directed edges among the visited
// nodes. Back edge means cycle.
func hasCycle(idx *Index, nodes map[string]struct{}, opts Options) bool {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(nodes))

	var dfs func(id string) bool
	dfs = func(id string) bool {
		color[id] = gray
		for _, edge := range idx.Outgoing(id) {
			if !opts.allows(edge.Kind) {
				continue
			}
			if _, in := nodes[edge.TargetID]; !in {
				continue
			}
			switch color[edge.TargetID] {
			case gray:
				return true
			case white:
				if dfs(edge.TargetID) {
					return true
				}
			}
		}
		color[id] = black
		return false
	}

	for id := range nodes {
		if color[id] == white && dfs(id) {
			return true
		}
	}
	return false
}
