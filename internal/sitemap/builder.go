package sitemap

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/webcortex/sitemap-engine/internal/feature"
)

// pendingEdge and pendingAction carry a source node index alongside the
// record so Build can group them by source before computing CSR offsets.
type pendingEdge struct {
	source int
	rec    EdgeRecord
}

type pendingAction struct {
	source int
	rec    ActionRecord
}

// Builder accumulates nodes, edges, actions and cluster data for a single
// domain and produces an immutable SiteMap via Build. A Builder is not
// safe for concurrent use; callers serialize access themselves (the crawl
// pipeline that feeds one belongs to a single goroutine per domain).
type Builder struct {
	domain  string
	mapped  time.Time
	nodes   []NodeRecord
	urls    []string
	feats   [][feature.Dim]float32
	edges   []pendingEdge
	actions []pendingAction

	clusterAssignments []uint16
	clusterCentroids   [][feature.Dim]float32

	flags uint16
}

// NewBuilder starts an empty SiteMap builder for domain, stamped with
// mappedAt as the build's reference time (used for Freshness/RenderedAt
// computations downstream; callers typically pass time.Now()).
func NewBuilder(domain string, mappedAt time.Time) *Builder {
	return &Builder{domain: domain, mapped: mappedAt}
}

// AddNode appends a page record plus its feature vector and returns the
// node's index, which callers use as the stable reference for AddEdge,
// AddAction, SetRendered and MergeFlags.
func (b *Builder) AddNode(url string, rec NodeRecord, feats [feature.Dim]float32) int {
	idx := len(b.nodes)
	b.nodes = append(b.nodes, rec)
	b.urls = append(b.urls, url)
	b.feats = append(b.feats, feats)
	return idx
}

// AddEdge records a directed link from source to the edge's TargetNode.
// The edge is buffered, not yet CSR-ordered; Build does that.
func (b *Builder) AddEdge(source int, rec EdgeRecord) {
	b.edges = append(b.edges, pendingEdge{source: source, rec: rec})
}

// AddAction records an invocable action discovered on source.
func (b *Builder) AddAction(source int, rec ActionRecord) {
	b.actions = append(b.actions, pendingAction{source: source, rec: rec})
}

// SetRendered marks node i as having been rendered (vs. estimated from
// static HTML) at renderedAt seconds since build start, clearing the
// Estimated flag per the ESTIMATED/RENDERED exclusivity invariant.
func (b *Builder) SetRendered(i int, renderedAt uint32) error {
	if i < 0 || i >= len(b.nodes) {
		return fmt.Errorf("sitemap: SetRendered: node index %d out of range", i)
	}
	n := b.nodes[i]
	n.Flags = (n.Flags &^ feature.Estimated) | feature.Rendered
	n.RenderedAt = renderedAt
	b.nodes[i] = n
	return nil
}

// MergeFlags ORs extra into node i's flags, then repairs the
// ESTIMATED/RENDERED exclusivity invariant by preferring RENDERED when both
// end up set — a node that has ever been rendered stays rendered.
func (b *Builder) MergeFlags(i int, extra feature.NodeFlags) error {
	if i < 0 || i >= len(b.nodes) {
		return fmt.Errorf("sitemap: MergeFlags: node index %d out of range", i)
	}
	n := b.nodes[i]
	n.Flags |= extra
	if n.Flags.Has(feature.Rendered) && n.Flags.Has(feature.Estimated) {
		n.Flags &^= feature.Estimated
	}
	b.nodes[i] = n
	return nil
}

// SetClusters installs the semantic clustering result computed externally
// (the engine's clustering pass runs over the full feature matrix, which a
// per-node Builder call cannot see in isolation).
func (b *Builder) SetClusters(assignments []uint16, centroids [][feature.Dim]float32) {
	b.clusterAssignments = assignments
	b.clusterCentroids = centroids
}

// Build finalizes the accumulated nodes, edges and actions into an
// immutable SiteMap: edges and actions are grouped by source node (stable
// sort, so insertion order within a node is preserved) and CSR offset
// arrays are computed, each node's FeatureNorm is derived from its feature
// vector's L2 norm, and the header is stamped with final counts.
func (b *Builder) Build() (*SiteMap, error) {
	n := len(b.nodes)

	sort.SliceStable(b.edges, func(i, j int) bool { return b.edges[i].source < b.edges[j].source })
	sort.SliceStable(b.actions, func(i, j int) bool { return b.actions[i].source < b.actions[j].source })

	for _, pe := range b.edges {
		if pe.source < 0 || pe.source >= n {
			return nil, fmt.Errorf("sitemap: Build: edge source %d out of range", pe.source)
		}
	}
	for _, pa := range b.actions {
		if pa.source < 0 || pa.source >= n {
			return nil, fmt.Errorf("sitemap: Build: action source %d out of range", pa.source)
		}
	}

	edges := reorderBySource(b.edges, n)
	edgeIndex := cumulativeCounts(b.edges, n)

	actionIndex := cumulativeActionCounts(b.actions, n)
	actions := reorderActionsBySource(b.actions, n)

	inbound := make([]int, n)
	for _, pe := range b.edges {
		t := int(pe.rec.TargetNode)
		if t >= 0 && t < n {
			inbound[t]++
		}
	}
	for i := range b.nodes {
		if inbound[i] > math.MaxUint16 {
			inbound[i] = math.MaxUint16
		}
		b.nodes[i].InboundCount = uint16(inbound[i])
		out := int(edgeIndex[i+1] - edgeIndex[i])
		if out > math.MaxUint16 {
			out = math.MaxUint16
		}
		b.nodes[i].OutboundCount = uint16(out)
		b.nodes[i].FeatureNorm = l2Norm(b.feats[i])
	}

	header := Header{
		Magic:         Magic,
		FormatVersion: FormatVersion,
		Domain:        b.domain,
		MappedAt:      uint64(b.mapped.Unix()),
		NodeCount:     uint32(n),
		EdgeCount:     uint32(len(edges)),
		ClusterCount:  uint16(len(b.clusterCentroids)),
		Flags:         b.flags | HeaderFlagHasSiteMap,
	}

	clusterAssignments := b.clusterAssignments
	if clusterAssignments == nil {
		clusterAssignments = make([]uint16, n)
	}

	return &SiteMap{
		Header:             header,
		Nodes:              b.nodes,
		Edges:              edges,
		EdgeIndex:          edgeIndex,
		Features:           b.feats,
		Actions:            actions,
		ActionIndex:        actionIndex,
		ClusterAssignments: clusterAssignments,
		ClusterCentroids:   b.clusterCentroids,
		URLs:               b.urls,
	}, nil
}

func l2Norm(v [feature.Dim]float32) float32 {
	var sumSq float64
	for _, f := range v {
		sumSq += float64(f) * float64(f)
	}
	return float32(math.Sqrt(sumSq))
}

func cumulativeCounts(edges []pendingEdge, n int) []uint32 {
	counts := make([]uint32, n+1)
	for _, e := range edges {
		counts[e.source+1]++
	}
	for i := 1; i <= n; i++ {
		counts[i] += counts[i-1]
	}
	return counts
}

func reorderBySource(edges []pendingEdge, n int) []EdgeRecord {
	out := make([]EdgeRecord, len(edges))
	cursor := cumulativeCounts(edges, n)
	placed := make([]uint32, n)
	copy(placed, cursor[:n])
	for _, e := range edges {
		out[placed[e.source]] = e.rec
		placed[e.source]++
	}
	return out
}

func cumulativeActionCounts(actions []pendingAction, n int) []uint32 {
	counts := make([]uint32, n+1)
	for _, a := range actions {
		counts[a.source+1]++
	}
	for i := 1; i <= n; i++ {
		counts[i] += counts[i-1]
	}
	return counts
}

func reorderActionsBySource(actions []pendingAction, n int) []ActionRecord {
	out := make([]ActionRecord, len(actions))
	cursor := cumulativeActionCounts(actions, n)
	placed := make([]uint32, n)
	copy(placed, cursor[:n])
	for _, a := range actions {
		out[placed[a.source]] = a.rec
		placed[a.source]++
	}
	return out
}
