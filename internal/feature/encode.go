package feature

import "math"

// ExtractionBundle is the opaque, per-page artifact external collaborators
// (fetchers, HTML parsers, browser renderers) hand to the core. Its interior
// shape is owned by those out-of-scope collaborators; the core only ever
// reads it through an Encoder.
type ExtractionBundle struct {
	Content    map[string]any
	Actions    map[string]any
	Navigation map[string]any
	Structure  map[string]any
	Metadata   map[string]any
}

// NavigationResult is the outcome of fetching/rendering one page.
type NavigationResult struct {
	FinalURL     string
	Status       int
	RedirectChain []string
	LoadTimeMs   int64
}

// EncodeResult is what an Encoder lowers an ExtractionBundle into: exactly
// the fixed-width payload every downstream core component consumes.
type EncodeResult struct {
	Features [Dim]float32
	Flags    NodeFlags
}

// Encoder is the seam between arbitrary per-page JSON and the fixed 128-dim
// vector. Implementations live outside the core (HTML/CSS extraction is
// explicitly out of scope); the core only depends on this interface so it
// can be exercised with a fake in tests.
type Encoder interface {
	Encode(bundle ExtractionBundle, nav NavigationResult, url string, pageType PageTypeTag, confidence float32) EncodeResult
}

// NormalizeLoadTime maps a load time in milliseconds to [0,1], where 0ms is
// best (1.0) and 10s or slower is worst (0.0). Exposed so a real Encoder
// implementation can reuse the documented normalization without
// re-deriving it.
func NormalizeLoadTime(ms int64) float32 {
	v := float32(ms) / 10_000.0
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return 1.0 - v
}

// NormalizeLogCount implements the documented log-encoded-count convention:
// log10(1+n)/10, clamped to [0,1]. Used for review counts and similar.
func NormalizeLogCount(n float64) float32 {
	return clamp01(float32(math.Log10(1+n) / 10.0))
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
