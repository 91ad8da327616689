package sitemap

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/webcortex/sitemap-engine/internal/feature"
)

// --- writers -----------------------------------------------------------

func writeU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeI32(buf *bytes.Buffer, v int32) { writeU32(buf, uint32(v)) }

func writeF32(buf *bytes.Buffer, v float32) {
	writeU32(buf, math.Float32bits(v))
}

func writeString(buf *bytes.Buffer, s string) {
	writeU16(buf, uint16(len(s)))
	buf.WriteString(s)
}

func writeHeader(buf *bytes.Buffer, h Header) {
	writeU32(buf, h.Magic)
	writeU16(buf, h.FormatVersion)
	writeString(buf, h.Domain)
	writeU64(buf, h.MappedAt)
	writeU32(buf, h.NodeCount)
	writeU32(buf, h.EdgeCount)
	writeU16(buf, h.ClusterCount)
	writeU16(buf, h.Flags)
}

func writeNode(buf *bytes.Buffer, n NodeRecord) {
	buf.WriteByte(byte(n.PageType))
	buf.WriteByte(n.Confidence)
	buf.WriteByte(n.Freshness)
	buf.WriteByte(byte(n.Flags))
	writeU32(buf, n.ContentHash)
	writeU32(buf, n.RenderedAt)
	writeU16(buf, n.HTTPStatus)
	writeU16(buf, n.Depth)
	writeU16(buf, n.InboundCount)
	writeU16(buf, n.OutboundCount)
	writeF32(buf, n.FeatureNorm)
	writeU64(buf, n.Reserved)
}

func writeEdge(buf *bytes.Buffer, e EdgeRecord) {
	writeU32(buf, e.TargetNode)
	buf.WriteByte(byte(e.EdgeType))
	buf.WriteByte(e.Weight)
	buf.WriteByte(byte(e.Flags))
	buf.WriteByte(e.Reserved)
}

func writeAction(buf *bytes.Buffer, a ActionRecord) {
	buf.WriteByte(a.OpCode.Category)
	buf.WriteByte(a.OpCode.Action)
	writeI32(buf, a.TargetNode)
	buf.WriteByte(a.CostHint)
	flag := byte(a.Risk) & 0x03
	if a.HTTPExecutable {
		flag |= 0x04
	}
	buf.WriteByte(flag)
}

// --- reader --------------------------------------------------------------

type reader struct {
	data []byte
	pos  int
}

func (r *reader) need(n int) error {
	if r.pos+n > len(r.data) {
		return ErrTruncated
	}
	return nil
}

func (r *reader) u8() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

func (r *reader) u16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) u32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) u64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *reader) i32() (int32, error) {
	v, err := r.u32()
	return int32(v), err
}

func (r *reader) f32() (float32, error) {
	v, err := r.u32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (r *reader) str() (string, error) {
	n, err := r.u16()
	if err != nil {
		return "", err
	}
	if err := r.need(int(n)); err != nil {
		return "", err
	}
	s := string(r.data[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

func readHeaderBody(r *reader) (Header, error) {
	var h Header
	h.Magic = Magic
	h.FormatVersion = FormatVersion

	domain, err := r.str()
	if err != nil {
		return h, fmt.Errorf("sitemap: reading domain: %w", err)
	}
	h.Domain = domain

	mappedAt, err := r.u64()
	if err != nil {
		return h, fmt.Errorf("sitemap: reading mapped_at: %w", err)
	}
	h.MappedAt = mappedAt

	nodeCount, err := r.u32()
	if err != nil {
		return h, fmt.Errorf("sitemap: reading node_count: %w", err)
	}
	h.NodeCount = nodeCount

	edgeCount, err := r.u32()
	if err != nil {
		return h, fmt.Errorf("sitemap: reading edge_count: %w", err)
	}
	h.EdgeCount = edgeCount

	clusterCount, err := r.u16()
	if err != nil {
		return h, fmt.Errorf("sitemap: reading cluster_count: %w", err)
	}
	h.ClusterCount = clusterCount

	flags, err := r.u16()
	if err != nil {
		return h, fmt.Errorf("sitemap: reading flags: %w", err)
	}
	h.Flags = flags

	return h, nil
}

func readNode(r *reader) (NodeRecord, error) {
	var n NodeRecord
	pt, err := r.u8()
	if err != nil {
		return n, err
	}
	n.PageType = feature.PageTypeFromByte(pt)

	conf, err := r.u8()
	if err != nil {
		return n, err
	}
	n.Confidence = conf

	fresh, err := r.u8()
	if err != nil {
		return n, err
	}
	n.Freshness = fresh

	flags, err := r.u8()
	if err != nil {
		return n, err
	}
	n.Flags = feature.NodeFlags(flags)

	if n.ContentHash, err = r.u32(); err != nil {
		return n, err
	}
	if n.RenderedAt, err = r.u32(); err != nil {
		return n, err
	}
	if n.HTTPStatus, err = r.u16(); err != nil {
		return n, err
	}
	if n.Depth, err = r.u16(); err != nil {
		return n, err
	}
	if n.InboundCount, err = r.u16(); err != nil {
		return n, err
	}
	if n.OutboundCount, err = r.u16(); err != nil {
		return n, err
	}
	if n.FeatureNorm, err = r.f32(); err != nil {
		return n, err
	}
	if n.Reserved, err = r.u64(); err != nil {
		return n, err
	}
	return n, nil
}

func readEdge(r *reader) (EdgeRecord, error) {
	var e EdgeRecord
	target, err := r.u32()
	if err != nil {
		return e, err
	}
	e.TargetNode = target

	et, err := r.u8()
	if err != nil {
		return e, err
	}
	e.EdgeType = feature.EdgeTypeFromByte(et)

	weight, err := r.u8()
	if err != nil {
		return e, err
	}
	e.Weight = weight

	flags, err := r.u8()
	if err != nil {
		return e, err
	}
	e.Flags = feature.EdgeFlags(flags)

	reserved, err := r.u8()
	if err != nil {
		return e, err
	}
	e.Reserved = reserved
	return e, nil
}

func readAction(r *reader) (ActionRecord, error) {
	var a ActionRecord
	cat, err := r.u8()
	if err != nil {
		return a, err
	}
	act, err := r.u8()
	if err != nil {
		return a, err
	}
	a.OpCode = feature.OpCode{Category: cat, Action: act}

	target, err := r.i32()
	if err != nil {
		return a, err
	}
	a.TargetNode = target

	cost, err := r.u8()
	if err != nil {
		return a, err
	}
	a.CostHint = cost

	flag, err := r.u8()
	if err != nil {
		return a, err
	}
	a.Risk = feature.Risk(flag & 0x03)
	a.HTTPExecutable = flag&0x04 != 0
	return a, nil
}
