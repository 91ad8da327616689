// Package delta computes and applies compact diffs between two versions
// of a SiteMap (component C7), so the Registry (C6) can sync domains
// incrementally instead of retransmitting a full compiled graph on every
// change.
package delta

import (
	"hash/fnv"
	"math"
	"math/bits"
	"time"

	"github.com/google/uuid"

	"github.com/webcortex/sitemap-engine/internal/feature"
	"github.com/webcortex/sitemap-engine/internal/sitemap"
)

// NewInstanceID generates a fresh instance identifier for a caller that
// doesn't already have one of its own to stamp onto ComputeDelta — e.g. a
// single-process embedder that never needed a stable contributor id
// before its first push.
func NewInstanceID() string {
	return uuid.NewString()
}

// dimValue pairs a feature dimension with its value, used wherever a
// delta only needs to carry the non-zero (or changed) slots of a 128-wide
// vector instead of the whole array.
type dimValue struct {
	Dim   uint8   `json:"dim"`
	Value float32 `json:"value"`
}

// CompactNode is the sparse representation of a newly added node: only
// its non-zero feature dimensions travel over the wire.
type CompactNode struct {
	URLHash  uint64     `json:"url_hash"`
	URL      string     `json:"url"`
	PageType uint8      `json:"page_type"`
	Features []dimValue `json:"features"`
}

// FeatureDelta carries the changed feature dimensions for a node that
// exists in both the base and the new map.
type FeatureDelta struct {
	ChangedDims []dimValue `json:"changed_dims"`
}

// EdgePair identifies an edge by its (source, target) node indices.
type EdgePair struct {
	Source uint32 `json:"source"`
	Target uint32 `json:"target"`
}

// MapDelta is the wire format for an incremental SiteMap update.
type MapDelta struct {
	Domain         string                  `json:"domain"`
	BaseHash       [32]byte                `json:"base_hash"`
	Timestamp      time.Time               `json:"timestamp"`
	InstanceID     string                  `json:"instance_id"`
	NodesAdded     []CompactNode           `json:"nodes_added"`
	NodesRemoved   []uint32                `json:"nodes_removed"`
	NodesModified  []NodeModification      `json:"nodes_modified"`
	EdgesAdded     []EdgePair              `json:"edges_added"`
	EdgesRemoved   []EdgePair              `json:"edges_removed"`
}

// NodeModification pairs a node index with the feature changes found on
// it between the base and new map.
type NodeModification struct {
	Index int          `json:"index"`
	Delta FeatureDelta `json:"delta"`
}

// featureEpsilon is the minimum absolute difference between two feature
// values for ComputeDelta to consider a dimension changed; it exists so
// float round-trip noise doesn't produce a delta entry for every node on
// every build.
const featureEpsilon = 0.001

// ComputeDelta diffs oldMap against newMap, matching nodes across the two
// by URL (the only identifier stable across a re-crawl where node indices
// can shift), and records the result as attributable to instanceID.
func ComputeDelta(oldMap, newMap *sitemap.SiteMap, instanceID string) MapDelta {
	oldByURL := make(map[string]int, len(oldMap.URLs))
	for i, u := range oldMap.URLs {
		oldByURL[u] = i
	}
	newByURL := make(map[string]int, len(newMap.URLs))
	for i, u := range newMap.URLs {
		newByURL[u] = i
	}

	var added []CompactNode
	var modified []NodeModification

	for newIdx, url := range newMap.URLs {
		if oldIdx, ok := oldByURL[url]; ok {
			changed := diffFeatures(oldMap.Features[oldIdx], newMap.Features[newIdx])
			if len(changed) > 0 {
				modified = append(modified, NodeModification{
					Index: newIdx,
					Delta: FeatureDelta{ChangedDims: changed},
				})
			}
			continue
		}
		added = append(added, CompactNode{
			URLHash:  fnvHash([]byte(url)),
			URL:      url,
			PageType: uint8(newMap.Nodes[newIdx].PageType),
			Features: sparseFeatures(newMap.Features[newIdx]),
		})
	}

	var removed []uint32
	for oldIdx, url := range oldMap.URLs {
		if _, ok := newByURL[url]; !ok {
			removed = append(removed, uint32(oldIdx))
		}
	}

	oldEdges := edgePairs(oldMap)
	newEdges := edgePairs(newMap)

	var edgesAdded, edgesRemoved []EdgePair
	for p := range newEdges {
		if _, ok := oldEdges[p]; !ok {
			edgesAdded = append(edgesAdded, p)
		}
	}
	for p := range oldEdges {
		if _, ok := newEdges[p]; !ok {
			edgesRemoved = append(edgesRemoved, p)
		}
	}

	return MapDelta{
		Domain:        newMap.Header.Domain,
		BaseHash:      HashMap(oldMap),
		Timestamp:     time.Now().UTC(),
		InstanceID:    instanceID,
		NodesAdded:    added,
		NodesRemoved:  removed,
		NodesModified: modified,
		EdgesAdded:    edgesAdded,
		EdgesRemoved:  edgesRemoved,
	}
}

func diffFeatures(oldF, newF [feature.Dim]float32) []dimValue {
	var out []dimValue
	for d := 0; d < feature.Dim; d++ {
		diff := newF[d] - oldF[d]
		if diff < 0 {
			diff = -diff
		}
		if diff > featureEpsilon {
			out = append(out, dimValue{Dim: uint8(d), Value: newF[d]})
		}
	}
	return out
}

func sparseFeatures(f [feature.Dim]float32) []dimValue {
	var out []dimValue
	for d, v := range f {
		if v != 0 {
			out = append(out, dimValue{Dim: uint8(d), Value: v})
		}
	}
	return out
}

func edgePairs(m *sitemap.SiteMap) map[EdgePair]struct{} {
	pairs := make(map[EdgePair]struct{}, len(m.Edges))
	for src := 0; src < m.NodeCount(); src++ {
		for _, e := range m.OutEdges(src) {
			pairs[EdgePair{Source: uint32(src), Target: e.TargetNode}] = struct{}{}
		}
	}
	return pairs
}

// ApplyDelta applies the feature modifications carried in d to map,
// mutating it in place. Only existing nodes can be modified this way:
// adding or removing nodes requires rebuilding the CSR edge and action
// indexes, which is the Builder's job, not this function's — a delta
// that names added/removed nodes must be applied by rebuilding a new
// SiteMap from scratch via the Builder, using d's NodesAdded/NodesRemoved
// as input, not by mutating an existing one.
func ApplyDelta(m *sitemap.SiteMap, d MapDelta) {
	for _, mod := range d.NodesModified {
		if mod.Index < 0 || mod.Index >= len(m.Features) {
			continue
		}
		for _, cv := range mod.Delta.ChangedDims {
			m.Features[mod.Index][cv.Dim] = cv.Value
		}
	}
	m.Header.MappedAt = uint64(d.Timestamp.Unix())
}

// HashMap computes a content hash over the parts of a SiteMap that
// matter for delta base verification: domain, node/edge counts, URLs and
// feature values. It deliberately excludes edges/actions/clusters, which
// don't participate in the modification-only delta semantics above.
func HashMap(m *sitemap.SiteMap) [32]byte {
	h := fnv.New64a()
	writeString(h, m.Header.Domain)
	writeUint32(h, m.Header.NodeCount)
	writeUint32(h, m.Header.EdgeCount)
	for _, u := range m.URLs {
		writeString(h, u)
	}
	for _, feats := range m.Features {
		for _, f := range feats {
			writeUint32(h, math.Float32bits(f))
		}
	}
	return expand(h.Sum64())
}

func writeString(h interface{ Write([]byte) (int, error) }, s string) {
	_, _ = h.Write([]byte(s))
}

func writeUint32(h interface{ Write([]byte) (int, error) }, v uint32) {
	var b [4]byte
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
	_, _ = h.Write(b[:])
}

func fnvHash(data []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(data)
	return h.Sum64()
}

// expand mirrors the on-disk trailer's digest32 expansion: the 64-bit sum
// occupies the first 8 bytes, with three left-rotations filling the rest.
func expand(sum uint64) [32]byte {
	var out [32]byte
	le64(out[0:8], sum)
	for i := uint(1); i < 4; i++ {
		le64(out[i*8:(i+1)*8], bits.RotateLeft64(sum, int(i*16)))
	}
	return out
}

func le64(dst []byte, v uint64) {
	for i := 0; i < 8; i++ {
		dst[i] = byte(v >> (8 * i))
	}
}
