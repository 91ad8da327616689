package query_test

import (
	"testing"
	"time"

	"github.com/webcortex/sitemap-engine/internal/feature"
	"github.com/webcortex/sitemap-engine/internal/query"
	"github.com/webcortex/sitemap-engine/internal/sitemap"
)

// buildChain builds the three-node chain from the spec's pathfind
// scenario: 0 -> 1 -> 2 with weight 1 each, plus a direct 0 -> 2 edge
// with weight 5 that a weight-minimizing search must not prefer.
func buildChain(t *testing.T) *sitemap.SiteMap {
	t.Helper()
	b := sitemap.NewBuilder("example.com", time.Unix(1700000000, 0))

	var feats [feature.Dim]float32
	n0 := b.AddNode("https://example.com/0", sitemap.NodeRecord{PageType: feature.Home}, feats)
	n1 := b.AddNode("https://example.com/1", sitemap.NodeRecord{PageType: feature.ProductListing}, feats)
	n2 := b.AddNode("https://example.com/2", sitemap.NodeRecord{PageType: feature.ProductDetail}, feats)

	b.AddEdge(n0, sitemap.EdgeRecord{TargetNode: uint32(n1), EdgeType: feature.Navigation, Weight: 1})
	b.AddEdge(n1, sitemap.EdgeRecord{TargetNode: uint32(n2), EdgeType: feature.Navigation, Weight: 1})
	b.AddEdge(n0, sitemap.EdgeRecord{TargetNode: uint32(n2), EdgeType: feature.Navigation, Weight: 5})

	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return m
}

func TestPathfindMinimizeWeightPrefersCheaperRoute(t *testing.T) {
	m := buildChain(t)
	res := query.Pathfind(m, 0, 2, query.PathConstraints{Minimize: query.MinimizeWeight})
	if !res.Found {
		t.Fatal("expected a path to be found")
	}
	wantNodes := []int{0, 1, 2}
	if len(res.Nodes) != len(wantNodes) {
		t.Fatalf("Nodes = %v, want %v", res.Nodes, wantNodes)
	}
	for i, n := range wantNodes {
		if res.Nodes[i] != n {
			t.Fatalf("Nodes = %v, want %v", res.Nodes, wantNodes)
		}
	}
	if res.Cost != 2 {
		t.Errorf("Cost = %v, want 2", res.Cost)
	}
	if res.Hops != 2 {
		t.Errorf("Hops = %d, want 2", res.Hops)
	}
}

func TestPathfindUnreachableTargetIsNotAnError(t *testing.T) {
	b := sitemap.NewBuilder("example.com", time.Unix(1700000000, 0))
	var feats [feature.Dim]float32
	b.AddNode("https://example.com/0", sitemap.NodeRecord{PageType: feature.Home}, feats)
	b.AddNode("https://example.com/1", sitemap.NodeRecord{PageType: feature.Home}, feats)
	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	res := query.Pathfind(m, 0, 1, query.PathConstraints{})
	if res.Found {
		t.Fatal("expected Found=false for an unreachable target")
	}
}

func TestPathfindMinimizeStateChangesIgnoresFreeHops(t *testing.T) {
	b := sitemap.NewBuilder("example.com", time.Unix(1700000000, 0))
	var feats [feature.Dim]float32
	n0 := b.AddNode("https://example.com/0", sitemap.NodeRecord{PageType: feature.Home}, feats)
	n1 := b.AddNode("https://example.com/1", sitemap.NodeRecord{PageType: feature.Cart}, feats)
	n2 := b.AddNode("https://example.com/2", sitemap.NodeRecord{PageType: feature.Checkout}, feats)

	b.AddEdge(n0, sitemap.EdgeRecord{TargetNode: uint32(n1), EdgeType: feature.Navigation, Weight: 1})
	b.AddEdge(n1, sitemap.EdgeRecord{TargetNode: uint32(n2), EdgeType: feature.ActionResult, Weight: 1, Flags: feature.ChangesState})
	b.AddAction(n1, sitemap.ActionRecord{
		OpCode:     feature.OpCode{Category: feature.OpcodeCart, Action: 1},
		TargetNode: int32(n2),
		Risk:       feature.RiskCautious,
	})

	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	res := query.Pathfind(m, 0, 2, query.PathConstraints{Minimize: query.MinimizeStateChanges})
	if !res.Found {
		t.Fatal("expected a path to be found")
	}
	if res.Cost != 1 {
		t.Errorf("Cost = %v, want 1 (only the state-changing hop counts)", res.Cost)
	}
	if len(res.RequiredActions) != 1 {
		t.Fatalf("RequiredActions = %d, want 1", len(res.RequiredActions))
	}
	if res.RequiredActions[0].TargetNode != int32(n2) {
		t.Errorf("RequiredActions[0].TargetNode = %d, want %d", res.RequiredActions[0].TargetNode, n2)
	}
}
