package temporal

import (
	"fmt"
	"sort"
	"time"

	"github.com/webcortex/sitemap-engine/internal/registry"
	"github.com/webcortex/sitemap-engine/internal/sitemap"
)

// Store reconstructs a node's feature history from a Registry's delta
// chain (component C8), feeding both WQL temporal enrichment (§4.14) and
// the pattern detectors above (§4.16).
type Store struct {
	reg *registry.Registry
}

// NewStore wraps reg for history reconstruction.
func NewStore(reg *registry.Registry) *Store {
	return &Store{reg: reg}
}

// DimDiff summarizes how one feature dimension moved across a window.
type DimDiff struct {
	Dim  int
	From float32
	To   float32
}

func indexOfURL(m *sitemap.SiteMap, url string) int {
	for i, u := range m.URLs {
		if u == url {
			return i
		}
	}
	return -1
}

// History returns every observed value of feature dimension dim at url,
// in chronological order, drawn from domain's delta chain since since.
//
// It resolves url to a node index via cur (the domain's current
// SiteMap) and assumes that index stays assigned to the same URL across
// the whole delta chain: ComputeDelta matches surviving nodes by URL and
// only ever appends newly discovered URLs, so an index once bound to a
// URL is never reused by another one within a single registry lineage.
func (s *Store) History(domain string, cur *sitemap.SiteMap, url string, dim int, since time.Time) ([]Sample, error) {
	idx := indexOfURL(cur, url)
	if idx < 0 {
		return nil, fmt.Errorf("temporal: url %q not found in current snapshot for domain %q", url, domain)
	}

	deltas, found, err := s.reg.PullSince(domain, since)
	if err != nil {
		return nil, fmt.Errorf("temporal: pulling deltas for %q: %w", domain, err)
	}
	if !found {
		return nil, nil
	}
	sort.Slice(deltas, func(i, j int) bool { return deltas[i].Timestamp.Before(deltas[j].Timestamp) })

	samples := make([]Sample, 0, len(deltas))
	for _, d := range deltas {
		for _, mod := range d.NodesModified {
			if mod.Index != idx {
				continue
			}
			for _, cv := range mod.Delta.ChangedDims {
				if int(cv.Dim) == dim {
					samples = append(samples, Sample{At: d.Timestamp, Value: cv.Value})
				}
			}
		}
	}
	return samples, nil
}

// Diff summarizes every feature dimension that changed at url between
// since and now as a (from, to) pair, where from is the earliest
// recorded value in the window and to the latest. Dimensions untouched
// in the window are omitted.
func (s *Store) Diff(domain string, cur *sitemap.SiteMap, url string, since time.Time) ([]DimDiff, error) {
	idx := indexOfURL(cur, url)
	if idx < 0 {
		return nil, fmt.Errorf("temporal: url %q not found in current snapshot for domain %q", url, domain)
	}

	deltas, found, err := s.reg.PullSince(domain, since)
	if err != nil {
		return nil, fmt.Errorf("temporal: pulling deltas for %q: %w", domain, err)
	}
	if !found {
		return nil, nil
	}
	sort.Slice(deltas, func(i, j int) bool { return deltas[i].Timestamp.Before(deltas[j].Timestamp) })

	first := make(map[int]float32)
	last := make(map[int]float32)
	var order []int
	for _, d := range deltas {
		for _, mod := range d.NodesModified {
			if mod.Index != idx {
				continue
			}
			for _, cv := range mod.Delta.ChangedDims {
				dim := int(cv.Dim)
				if _, seen := first[dim]; !seen {
					first[dim] = cv.Value
					order = append(order, dim)
				}
				last[dim] = cv.Value
			}
		}
	}

	sort.Ints(order)
	diffs := make([]DimDiff, 0, len(order))
	for _, dim := range order {
		diffs = append(diffs, DimDiff{Dim: dim, From: first[dim], To: last[dim]})
	}
	return diffs, nil
}

// HistoricExtreme is the outcome of a cross-domain "best historic value"
// lookup: which domain currently holds the most favorable value for a
// dimension, among a candidate set.
type HistoricExtreme struct {
	Domain string
	Value  float32
}

// Candidate pairs a domain with the current SiteMap the caller already
// has in hand for it (typically pulled from the Map Cache or Registry),
// so BestHistoric never needs to perform I/O itself.
type Candidate struct {
	Domain string
	Map    *sitemap.SiteMap
	URL    string
}

// BestHistoric picks, among candidates, the domain whose named node
// currently carries the lowest value of dim — the "best" reading for
// price-like dimensions this function is named for in §4.12's
// `best_historic_<field>` pattern. Callers enriching a field where a
// higher value is better (e.g. rating) should negate the comparison
// upstream. The WQL executor does not call this function.
func BestHistoric(candidates []Candidate, dim int) (HistoricExtreme, bool) {
	var best HistoricExtreme
	found := false
	for _, c := range candidates {
		idx := indexOfURL(c.Map, c.URL)
		if idx < 0 {
			continue
		}
		v := c.Map.Features[idx][dim]
		if !found || v < best.Value {
			best = HistoricExtreme{Domain: c.Domain, Value: v}
			found = true
		}
	}
	return best, found
}
