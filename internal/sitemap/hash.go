package sitemap

import (
	"encoding/binary"
	"hash/fnv"
	"math/bits"
)

// digest32 expands a 64-bit FNV-1a sum into a 32-byte, deterministic digest
// by placing the sum in the first 8 bytes and three left-rotations of it in
// the remaining 24 — a direct port of the reference implementation's
// hash_map, used for both the on-disk integrity trailer and content-address
// hashing in the delta engine. It is deliberately not cryptographic: it only
// needs to be deterministic across processes, never adversarially secure.
func digest32(sum uint64) [32]byte {
	var out [32]byte
	binary.LittleEndian.PutUint64(out[0:8], sum)
	for i := uint(1); i < 4; i++ {
		rotated := bits.RotateLeft64(sum, int(i*16))
		binary.LittleEndian.PutUint64(out[i*8:(i+1)*8], rotated)
	}
	return out
}

// contentDigest computes the deterministic 32-byte digest of an arbitrary
// byte stream (used for the on-disk trailer).
func contentDigest(data []byte) [32]byte {
	h := fnv.New64a()
	_, _ = h.Write(data)
	return digest32(h.Sum64())
}

// fnv32 is a 32-bit FNV-1a hash of data. Nothing in this package calls it:
// NodeRecord.ContentHash is taken as given from the caller's record.
func fnv32(data []byte) uint32 {
	h := fnv.New32a()
	_, _ = h.Write(data)
	return h.Sum32()
}
