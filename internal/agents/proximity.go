package agents

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/ai-coscientist/orchestrator/internal/blackboard"
	"github.com/ai-coscientist/orchestrator/internal/tasks"
)

// ProximityAgent computes the similarity graph between hypotheses,
// grounded on original_source/src/agents/proximity_agent.py. The
// original's placeholder implementation returns a uniform dummy
// similarity for every pair; this version still has no real embedding
// model to call (out of scope, §1), but derives a deterministic
// pseudo-similarity from a hash of each unordered id pair (Rand is not
// used for it) so the proximity-aware
// selector (internal/elo.Selector) has something non-degenerate to work
// with in tests.
type ProximityAgent struct {
	Rand *rand.Rand
}

// NewProximityAgent builds a ProximityAgent with its own seeded RNG.
func NewProximityAgent(seed int64) *ProximityAgent {
	return &ProximityAgent{Rand: rand.New(rand.NewSource(seed))}
}

func (a *ProximityAgent) Execute(ctx context.Context, task tasks.Task, bb *blackboard.Blackboard) (map[string]any, error) {
	if task.Kind != "calculate_proximity" {
		return nil, fmt.Errorf("proximity: unknown task kind %q", task.Kind)
	}

	hyps := bb.ListHypotheses()
	if len(hyps) < 2 {
		return map[string]any{"error": "not enough hypotheses for proximity calculation"}, nil
	}

	adjacency := make(map[string][]blackboard.ProximityEdge, len(hyps))
	for i, h1 := range hyps {
		edges := make([]blackboard.ProximityEdge, 0, len(hyps)-1)
		for j, h2 := range hyps {
			if i == j {
				continue
			}
			edges = append(edges, blackboard.ProximityEdge{
				HypothesisID: h2.ID,
				Similarity:   a.similarity(h1, h2),
			})
		}
		adjacency[h1.ID] = edges
	}

	graph := blackboard.ProximityGraph{Adjacency: adjacency}
	bb.PutProximity(graph)

	return map[string]any{
		"proximity_graph": graph,
	}, nil
}

// similarity is symmetric by construction: it only depends on the
// unordered pair of ids, derived from a stable hash seed rather than call
// order, so Adjacency[a][b].Similarity == Adjacency[b][a].Similarity up to
// the rounding spec.md §3 allows.
func (a *ProximityAgent) similarity(h1, h2 blackboard.Hypothesis) float64 {
	lo, hi := h1.ID, h2.ID
	if lo > hi {
		lo, hi = hi, lo
	}
	var sum uint32
	for _, r := range lo + hi {
		sum = sum*31 + uint32(r)
	}
	return float64(sum%1000) / 1000.0
}
