package query

import (
	"container/heap"
	"math"

	"github.com/webcortex/sitemap-engine/internal/feature"
	"github.com/webcortex/sitemap-engine/internal/sitemap"
)

// PathMinimize selects which edge quantity Pathfind treats as cost.
type PathMinimize int

const (
	// MinimizeHops counts edges traversed, ignoring their Weight.
	MinimizeHops PathMinimize = iota
	// MinimizeWeight sums each edge's Weight (0 = free, 255 = expensive).
	MinimizeWeight
	// MinimizeStateChanges counts only edges flagged ChangesState,
	// treating every other edge as free — for callers that want the
	// fewest state-mutating hops, not the fewest hops overall.
	MinimizeStateChanges
)

// PathConstraints narrows which edges Pathfind is allowed to traverse.
type PathConstraints struct {
	Minimize PathMinimize

	// AvoidFlags excludes any edge carrying one of these flags, e.g. to
	// route around auth-gated or state-changing links.
	AvoidFlags feature.EdgeFlags

	// AllowEdgeTypes restricts traversal to these edge types. A nil/empty
	// slice allows every type.
	AllowEdgeTypes []feature.EdgeTypeTag

	// MaxHops caps path length; 0 means unbounded.
	MaxHops int
}

func (c PathConstraints) allowsType(t feature.EdgeTypeTag) bool {
	if len(c.AllowEdgeTypes) == 0 {
		return true
	}
	for _, a := range c.AllowEdgeTypes {
		if a == t {
			return true
		}
	}
	return false
}

// PathResult describes the outcome of a Pathfind call.
type PathResult struct {
	// Found reports whether a path exists under the given constraints.
	// An unreachable target is a normal result, not an error.
	Found bool
	Nodes []int
	Cost  float64
	// Hops is len(Nodes)-1: the number of edges traversed, regardless
	// of which quantity Minimize optimized for.
	Hops int
	// RequiredActions lists the ActionRecord on each path edge's source
	// node whose TargetNode matches the next node, wherever that edge
	// is flagged RequiresForm or ChangesState — the invocable steps a
	// caller must actually perform to walk this path, not just follow
	// a link.
	RequiredActions []sitemap.ActionRecord
}

type pqItem struct {
	node int
	dist float64
	hops int
}

type priorityQueue []pqItem

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].dist != pq[j].dist {
		return pq[i].dist < pq[j].dist
	}
	return pq[i].node < pq[j].node
}
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x interface{}) { *pq = append(*pq, x.(pqItem)) }
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// Pathfind runs a Dijkstra-style search over m's CSR edge list from start
// to goal honoring constraints. It returns Found=false (not an error) when
// goal is unreachable under those constraints.
func Pathfind(m *sitemap.SiteMap, start, goal int, constraints PathConstraints) PathResult {
	n := m.NodeCount()
	if start < 0 || start >= n || goal < 0 || goal >= n {
		return PathResult{Found: false}
	}
	if start == goal {
		return PathResult{Found: true, Nodes: []int{start}, Cost: 0}
	}

	dist := make([]float64, n)
	hops := make([]int, n)
	prev := make([]int, n)
	visited := make([]bool, n)
	for i := range dist {
		dist[i] = math.Inf(1)
		prev[i] = -1
	}
	dist[start] = 0

	pq := &priorityQueue{{node: start, dist: 0, hops: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(pqItem)
		if visited[cur.node] {
			continue
		}
		visited[cur.node] = true
		if cur.node == goal {
			break
		}
		if constraints.MaxHops > 0 && cur.hops >= constraints.MaxHops {
			continue
		}

		for _, e := range m.OutEdges(cur.node) {
			if e.Flags&constraints.AvoidFlags != 0 {
				continue
			}
			if !constraints.allowsType(e.EdgeType) {
				continue
			}
			target := int(e.TargetNode)
			if target < 0 || target >= n || visited[target] {
				continue
			}

			step := 1.0
			switch constraints.Minimize {
			case MinimizeWeight:
				step = float64(e.Weight)
			case MinimizeStateChanges:
				step = 0.0
				if e.Flags.Has(feature.ChangesState) {
					step = 1.0
				}
			}
			nd := dist[cur.node] + step
			if nd < dist[target] {
				dist[target] = nd
				prev[target] = cur.node
				hops[target] = cur.hops + 1
				heap.Push(pq, pqItem{node: target, dist: nd, hops: hops[target]})
			}
		}
	}

	if !visited[goal] {
		return PathResult{Found: false}
	}

	path := []int{goal}
	for cur := goal; prev[cur] != -1; {
		cur = prev[cur]
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return PathResult{
		Found:           true,
		Nodes:           path,
		Cost:            dist[goal],
		Hops:            len(path) - 1,
		RequiredActions: requiredActions(m, path),
	}
}

// requiredActions walks consecutive (src, tgt) pairs along path and
// collects any ActionRecord on src that targets tgt and is flagged as a
// state-changing or form-driven step, rather than a plain navigation.
func requiredActions(m *sitemap.SiteMap, path []int) []sitemap.ActionRecord {
	var out []sitemap.ActionRecord
	for i := 0; i+1 < len(path); i++ {
		src, tgt := path[i], path[i+1]
		stateChanging := false
		for _, e := range m.OutEdges(src) {
			if int(e.TargetNode) == tgt && (e.Flags.Has(feature.ChangesState) || e.Flags.Has(feature.RequiresForm)) {
				stateChanging = true
				break
			}
		}
		if !stateChanging {
			continue
		}
		for _, a := range m.OutActions(src) {
			if int(a.TargetNode) == tgt {
				out = append(out, a)
			}
		}
	}
	return out
}
