// Package sitemap implements the binary, CSR-indexed property graph that is
// the compiled representation of a crawled website (component C2 of the
// engine), plus the mutable Builder that produces one (C3).
package sitemap

import "github.com/webcortex/sitemap-engine/internal/feature"

// Magic is the 4-byte ASCII marker "CTX\0" that opens every SiteMap file.
const Magic uint32 = 0x43545800

// FormatVersion is the only binary layout this implementation understands.
const FormatVersion uint16 = 1

// Header carries the fixed metadata block of a SiteMap.
type Header struct {
	Magic         uint32
	FormatVersion uint16
	Domain        string
	MappedAt      uint64 // unix seconds
	NodeCount     uint32
	EdgeCount     uint32
	ClusterCount  uint16
	Flags         uint16
}

const (
	HeaderFlagHasSiteMap         uint16 = 1 << 0
	HeaderFlagProgressiveActive  uint16 = 1 << 1
	HeaderFlagCached             uint16 = 1 << 2
)

func (h Header) HasSiteMap() bool        { return h.Flags&HeaderFlagHasSiteMap != 0 }
func (h Header) IsProgressiveActive() bool { return h.Flags&HeaderFlagProgressiveActive != 0 }
func (h Header) IsCached() bool          { return h.Flags&HeaderFlagCached != 0 }

// NodeRecord is the fixed-shape, 32-byte-on-disk record for a single page.
type NodeRecord struct {
	PageType      feature.PageTypeTag
	Confidence    uint8 // 0-255 -> 0.0-1.0
	Freshness     uint8
	Flags         feature.NodeFlags
	ContentHash   uint32
	RenderedAt    uint32 // seconds since build start, 0 if never rendered
	HTTPStatus    uint16
	Depth         uint16
	InboundCount  uint16
	OutboundCount uint16
	FeatureNorm   float32
	Reserved      uint64
}

// EdgeRecord is the fixed-shape, 8-byte-on-disk record for one outbound link.
type EdgeRecord struct {
	TargetNode uint32
	EdgeType   feature.EdgeTypeTag
	Weight     uint8 // 0 = free, 255 = expensive
	Flags      feature.EdgeFlags
	Reserved   uint8
}

// ActionRecord is the fixed-shape, 8-byte-on-disk record for one invocable
// action available on a page.
type ActionRecord struct {
	OpCode          feature.OpCode
	TargetNode      int32 // >=0 node index, -1 stays on page, -2 unknown
	CostHint        uint8 // 0 free .. 254 relative, 255 unknown
	Risk            feature.Risk
	HTTPExecutable  bool
}

// SiteMap is the immutable, memory-mappable compiled graph of one domain.
// Once returned by Builder.Build, a SiteMap is never mutated in place;
// changes produce a new SiteMap (directly, or via the delta engine).
type SiteMap struct {
	Header             Header
	Nodes              []NodeRecord
	Edges              []EdgeRecord
	EdgeIndex          []uint32 // len == NodeCount+1, CSR offsets into Edges
	Features           [][feature.Dim]float32
	Actions            []ActionRecord
	ActionIndex        []uint32 // len == NodeCount+1, CSR offsets into Actions
	ClusterAssignments []uint16
	ClusterCentroids   [][feature.Dim]float32
	URLs               []string
}

// NodeCount returns the number of nodes, a convenience over Header.NodeCount
// that also matches len(Nodes) by invariant.
func (m *SiteMap) NodeCount() int { return len(m.Nodes) }

// OutEdges returns the (possibly empty) slice of outbound edges for node i,
// honoring the CSR offset invariant. Returns nil for an out-of-range index
// rather than panicking.
func (m *SiteMap) OutEdges(i int) []EdgeRecord {
	if i < 0 || i+1 >= len(m.EdgeIndex) {
		return nil
	}
	return m.Edges[m.EdgeIndex[i]:m.EdgeIndex[i+1]]
}

// OutActions returns the (possibly empty) slice of actions available on
// node i.
func (m *SiteMap) OutActions(i int) []ActionRecord {
	if i < 0 || i+1 >= len(m.ActionIndex) {
		return nil
	}
	return m.Actions[m.ActionIndex[i]:m.ActionIndex[i+1]]
}
