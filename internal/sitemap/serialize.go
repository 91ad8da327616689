package sitemap

import (
	"bytes"
	"fmt"

	"github.com/webcortex/sitemap-engine/internal/feature"
)

const trailerSize = 32

// Serialize renders the SiteMap to the on-disk byte layout documented in
// §4.2: header, nodes, edges, edge_index, features, an action count prefix,
// actions, action_index, cluster assignments, centroids, urls, then a
// 32-byte integrity trailer over everything preceding it. The action-count
// prefix is the one wire-format detail the specification leaves implicit
// (the action block must be self-sized so it can be read before its CSR
// index, which is the only other place the count is recoverable from).
func (m *SiteMap) Serialize() []byte {
	var buf bytes.Buffer

	writeHeader(&buf, m.Header)

	for _, n := range m.Nodes {
		writeNode(&buf, n)
	}
	for _, e := range m.Edges {
		writeEdge(&buf, e)
	}
	for _, off := range m.EdgeIndex {
		writeU32(&buf, off)
	}
	for _, feats := range m.Features {
		for _, f := range feats {
			writeF32(&buf, f)
		}
	}

	writeU32(&buf, uint32(len(m.Actions)))
	for _, a := range m.Actions {
		writeAction(&buf, a)
	}
	for _, off := range m.ActionIndex {
		writeU32(&buf, off)
	}
	for _, c := range m.ClusterAssignments {
		writeU16(&buf, c)
	}
	for _, cent := range m.ClusterCentroids {
		for _, f := range cent {
			writeF32(&buf, f)
		}
	}
	for _, u := range m.URLs {
		writeString(&buf, u)
	}

	digest := contentDigest(buf.Bytes())
	buf.Write(digest[:])
	return buf.Bytes()
}

// Deserialize parses the on-disk byte layout back into a SiteMap, verifying
// magic, version, and the trailing integrity digest before trusting any of
// the interior data.
func Deserialize(data []byte) (*SiteMap, error) {
	if len(data) < trailerSize {
		return nil, ErrTruncated
	}
	body := data[:len(data)-trailerSize]
	trailer := data[len(data)-trailerSize:]
	want := contentDigest(body)
	if !bytes.Equal(want[:], trailer) {
		return nil, ErrChecksumMismatch
	}

	r := &reader{data: body}
	magic, err := r.u32()
	if err != nil {
		return nil, fmt.Errorf("sitemap: reading magic: %w", err)
	}
	if magic != Magic {
		return nil, ErrInvalidMagic
	}
	version, err := r.u16()
	if err != nil {
		return nil, fmt.Errorf("sitemap: reading version: %w", err)
	}
	if version != FormatVersion {
		return nil, ErrUnsupportedVersion
	}

	header, err := readHeaderBody(r)
	if err != nil {
		return nil, err
	}

	m := &SiteMap{Header: header}
	nodeCount := int(header.NodeCount)
	edgeCount := int(header.EdgeCount)
	clusterCount := int(header.ClusterCount)

	m.Nodes = make([]NodeRecord, nodeCount)
	for i := range m.Nodes {
		n, err := readNode(r)
		if err != nil {
			return nil, fmt.Errorf("sitemap: reading node %d: %w", i, err)
		}
		m.Nodes[i] = n
	}

	m.Edges = make([]EdgeRecord, edgeCount)
	for i := range m.Edges {
		e, err := readEdge(r)
		if err != nil {
			return nil, fmt.Errorf("sitemap: reading edge %d: %w", i, err)
		}
		m.Edges[i] = e
	}

	m.EdgeIndex = make([]uint32, nodeCount+1)
	for i := range m.EdgeIndex {
		v, err := r.u32()
		if err != nil {
			return nil, fmt.Errorf("sitemap: reading edge_index[%d]: %w", i, err)
		}
		m.EdgeIndex[i] = v
	}

	m.Features = make([][feature.Dim]float32, nodeCount)
	for i := range m.Features {
		for d := 0; d < feature.Dim; d++ {
			v, err := r.f32()
			if err != nil {
				return nil, fmt.Errorf("sitemap: reading features[%d][%d]: %w", i, d, err)
			}
			m.Features[i][d] = v
		}
	}

	actionCount, err := r.u32()
	if err != nil {
		return nil, fmt.Errorf("sitemap: reading action count: %w", err)
	}
	m.Actions = make([]ActionRecord, actionCount)
	for i := range m.Actions {
		a, err := readAction(r)
		if err != nil {
			return nil, fmt.Errorf("sitemap: reading action %d: %w", i, err)
		}
		m.Actions[i] = a
	}

	m.ActionIndex = make([]uint32, nodeCount+1)
	for i := range m.ActionIndex {
		v, err := r.u32()
		if err != nil {
			return nil, fmt.Errorf("sitemap: reading action_index[%d]: %w", i, err)
		}
		m.ActionIndex[i] = v
	}

	m.ClusterAssignments = make([]uint16, nodeCount)
	for i := range m.ClusterAssignments {
		v, err := r.u16()
		if err != nil {
			return nil, fmt.Errorf("sitemap: reading cluster_assignments[%d]: %w", i, err)
		}
		m.ClusterAssignments[i] = v
	}

	m.ClusterCentroids = make([][feature.Dim]float32, clusterCount)
	for i := range m.ClusterCentroids {
		for d := 0; d < feature.Dim; d++ {
			v, err := r.f32()
			if err != nil {
				return nil, fmt.Errorf("sitemap: reading centroid[%d][%d]: %w", i, d, err)
			}
			m.ClusterCentroids[i][d] = v
		}
	}

	m.URLs = make([]string, nodeCount)
	for i := range m.URLs {
		s, err := r.str()
		if err != nil {
			return nil, fmt.Errorf("sitemap: reading url[%d]: %w", i, err)
		}
		m.URLs[i] = s
	}

	return m, nil
}
