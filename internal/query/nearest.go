package query

import (
	"math"

	"github.com/webcortex/sitemap-engine/internal/feature"
	"github.com/webcortex/sitemap-engine/internal/sitemap"
)

// ScoredNode pairs a node index with its similarity score.
type ScoredNode struct {
	Index int
	Score float32
}

// Nearest returns the k nodes whose feature vectors have the highest
// cosine similarity to query, restricted to candidates (or every node if
// candidates is nil). Ties break toward the lower node index, matching
// the deterministic ordering the rest of the engine assumes for stable
// output. A zero-norm node (FeatureNorm == 0) never matches, since cosine
// similarity is undefined for it.
func Nearest(m *sitemap.SiteMap, query [feature.Dim]float32, k int, candidates []int) []ScoredNode {
	if k <= 0 {
		return nil
	}
	queryNorm := l2norm(query)

	idxs := candidates
	if idxs == nil {
		idxs = make([]int, m.NodeCount())
		for i := range idxs {
			idxs[i] = i
		}
	}

	scored := make([]ScoredNode, 0, len(idxs))
	for _, i := range idxs {
		nodeNorm := m.Nodes[i].FeatureNorm
		if nodeNorm == 0 || queryNorm == 0 {
			continue
		}
		dot := dotProduct(query, m.Features[i])
		score := dot / (queryNorm * nodeNorm)
		scored = append(scored, ScoredNode{Index: i, Score: score})
	}

	sortByScoreDesc(scored)

	if k < len(scored) {
		scored = scored[:k]
	}
	return scored
}

func dotProduct(a, b [feature.Dim]float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func l2norm(v [feature.Dim]float32) float32 {
	var sumSq float32
	for _, f := range v {
		sumSq += f * f
	}
	return sqrt32(sumSq)
}

func sqrt32(v float32) float32 {
	if v <= 0 {
		return 0
	}
	return float32(math.Sqrt(float64(v)))
}

func sortByScoreDesc(scored []ScoredNode) {
	// Insertion sort: candidate lists are typically small (pre-filtered by
	// the caller), and stability under equal scores is what gives us the
	// lower-index tie-break.
	for i := 1; i < len(scored); i++ {
		j := i
		for j > 0 && less(scored[j], scored[j-1]) {
			scored[j], scored[j-1] = scored[j-1], scored[j]
			j--
		}
	}
}

func less(a, b ScoredNode) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Index < b.Index
}
