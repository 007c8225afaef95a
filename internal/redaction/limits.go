package redaction

// LimitKind names the budget or guard that tripped.
type LimitKind string

const (
	LimitMaxDepth             LimitKind = "maxDepth"
	LimitMaxItemsPerContainer LimitKind = "maxItemsPerContainer"
	LimitMaxTotalNodes        LimitKind = "maxTotalNodes"
	LimitCycle                LimitKind = "cycle"
)

// LimitEvent records one limit or cycle trip. Trips are expected outcomes,
// not errors.
type LimitEvent struct {
	Kind LimitKind
	// Depth is the nesting level where the trip happened; the root container is 1.
	Depth int
	// NodesVisited counts the entries visited so far in this Transform call.
	NodesVisited int
}

// governor tracks the depth, per-container and total node budgets of one
// Transform call. A zero limit is disabled.
type governor struct {
	maxDepth int
	maxItems int
	maxNodes int

	nodes  int
	events int
}

func newGovernor(cfg *Config) governor {
	return governor{
		maxDepth: cfg.MaxDepth,
		maxItems: cfg.MaxItemsPerContainer,
		maxNodes: cfg.MaxTotalNodes,
	}
}

// visit counts one node and reports whether it is within the total budget.
func (g *governor) visit() bool {
	g.nodes++
	return g.maxNodes == 0 || g.nodes <= g.maxNodes
}

// depthAllowed reports whether a container may be entered at depth.
func (g *governor) depthAllowed(depth int) bool {
	return g.maxDepth == 0 || depth <= g.maxDepth
}

// itemAllowed reports whether the entry at index of a container is processed.
func (g *governor) itemAllowed(index int) bool {
	return g.maxItems == 0 || index < g.maxItems
}

func (g *governor) event(kind LimitKind, depth int) LimitEvent {
	g.events++
	return LimitEvent{Kind: kind, Depth: depth, NodesVisited: g.nodes}
}
