package delta

import "github.com/webcortex/sitemap-engine/internal/jsonutil"

// Serialize encodes a delta as JSON. Deltas are small, sparse and
// heterogeneous (the one payload type besides the SiteMap binary itself
// that the engine persists), so a self-describing text format trades a
// little space for being trivially debuggable on disk and over a wire.
func Serialize(d MapDelta) ([]byte, error) {
	return jsonutil.Marshal(d)
}

// Deserialize decodes a delta previously produced by Serialize.
func Deserialize(data []byte) (MapDelta, error) {
	var d MapDelta
	err := jsonutil.Unmarshal(data, &d)
	return d, err
}
