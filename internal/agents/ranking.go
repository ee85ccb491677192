package agents

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/ai-coscientist/orchestrator/internal/blackboard"
	"github.com/ai-coscientist/orchestrator/internal/elo"
	"github.com/ai-coscientist/orchestrator/internal/modelclient"
	"github.com/ai-coscientist/orchestrator/internal/tasks"
)

// RankingAgent runs the Elo tournament: selecting pairs, running matches
// (debate or simple comparison depending on current rating), and folding
// the outcome back into the shared TournamentState. Grounded on
// original_source/src/agents/ranking_agent.py, with the selector upgraded
// to the proximity-aware version spec.md §4.5/§9 calls for. mu guards
// every use of Rand (direct draws and the calls it makes into
// elo.Selector/elo.RandomWinner) against concurrent run_tournament_matches
// dispatches.
type RankingAgent struct {
	Model modelclient.ModelCaller
	Rand  *rand.Rand
	mu    sync.Mutex
}

// NewRankingAgent builds a RankingAgent with its own seeded RNG.
func NewRankingAgent(model modelclient.ModelCaller, seed int64) *RankingAgent {
	return &RankingAgent{Model: model, Rand: rand.New(rand.NewSource(seed))}
}

func (a *RankingAgent) Execute(ctx context.Context, task tasks.Task, bb *blackboard.Blackboard) (map[string]any, error) {
	switch task.Kind {
	case "run_tournament_matches":
		count := 5
		if c, ok := task.Payload["count"].(int); ok && c > 0 {
			count = c
		}
		return a.runMatches(ctx, bb, count)
	case "update_rankings":
		return a.updateRankings(bb), nil
	default:
		return nil, fmt.Errorf("ranking: unknown task kind %q", task.Kind)
	}
}

func (a *RankingAgent) runMatches(ctx context.Context, bb *blackboard.Blackboard, count int) (map[string]any, error) {
	eligibleIDs := bb.PassedReviewIDs()
	if len(eligibleIDs) < 2 {
		return map[string]any{"error": "not enough reviewed hypotheses for tournament"}, nil
	}

	hyps := bb.ListHypotheses()
	byID := make(map[string]blackboard.Hypothesis, len(hyps))
	for _, h := range hyps {
		byID[h.ID] = h
	}

	proxGraph := bb.Proximity()
	lookup := func(aID, bID string) (float64, bool) {
		for _, e := range proxGraph.Adjacency[aID] {
			if e.HypothesisID == bID {
				return e.Similarity, true
			}
		}
		return 0, false
	}
	if len(proxGraph.Adjacency) == 0 {
		lookup = nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	selector := elo.NewSelector(lookup, a.Rand)

	var matchesRun []blackboard.Match

	final := bb.UpdateTournament(func(state blackboard.TournamentState) blackboard.TournamentState {
		if state.Ratings == nil {
			state = blackboard.NewTournamentState()
		}

		for _, id := range eligibleIDs {
			if _, ok := state.Ratings[id]; !ok {
				state.Ratings[id] = elo.InitialRating
			}
		}

		matchCounts := make(map[string]int)
		for _, m := range state.Matches {
			matchCounts[m.H1]++
			matchCounts[m.H2]++
		}
		newlyEligible := make(map[string]bool)
		for _, id := range eligibleIDs {
			if matchCounts[id] == 0 {
				newlyEligible[id] = true
			}
		}

		eligible := make([]elo.Eligible, len(eligibleIDs))
		for i, id := range eligibleIDs {
			eligible[i] = elo.Eligible{ID: id, MatchCount: matchCounts[id], IsNewlyEligible: newlyEligible[id]}
		}

		for i := 0; i < count; i++ {
			h1, h2, ok := selector.SelectPair(eligible)
			if !ok {
				break
			}

			r1, r2 := state.Ratings[h1.ID], state.Ratings[h2.ID]
			kind := blackboard.MatchSimple
			if elo.IsDebate(r1, r2) {
				kind = blackboard.MatchDebate
			}

			winner := a.decideWinner(ctx, byID[h1.ID], byID[h2.ID], kind)
			winnerIsH1 := winner == h1.ID

			newR1, newR2 := elo.UpdateRatings(r1, r2, winnerIsH1)
			state.Ratings[h1.ID] = newR1
			state.Ratings[h2.ID] = newR2

			match := blackboard.Match{
				H1:     h1.ID,
				H2:     h2.ID,
				Winner: winner,
				Kind:   kind,
				At:     time.Now(),
			}
			state.Matches = append(state.Matches, match)
			matchesRun = append(matchesRun, match)

			matchCounts[h1.ID]++
			matchCounts[h2.ID]++
			eligible[indexOf(eligible, h1.ID)].MatchCount = matchCounts[h1.ID]
			eligible[indexOf(eligible, h2.ID)].MatchCount = matchCounts[h2.ID]
		}

		state.CompletedMatches += len(matchesRun)
		state.Progress = elo.Progress(state.CompletedMatches, len(eligibleIDs))
		state.TopRanked = elo.TopRanked(state.Ratings)
		return state
	})

	return map[string]any{
		"tournament_state": final,
		"matches":          matchesRun,
	}, nil
}

func (a *RankingAgent) updateRankings(bb *blackboard.Blackboard) map[string]any {
	final := bb.UpdateTournament(func(state blackboard.TournamentState) blackboard.TournamentState {
		state.TopRanked = elo.TopRanked(state.Ratings)
		return state
	})
	return map[string]any{"tournament_state": final}
}

func (a *RankingAgent) decideWinner(ctx context.Context, h1, h2 blackboard.Hypothesis, kind blackboard.MatchKind) string {
	var prompt string
	if kind == blackboard.MatchDebate {
		prompt = fmt.Sprintf("Run a multi-round scientific debate between:\n\nA: %s\n\nB: %s", h1.Statement, h2.Statement)
	} else {
		prompt = fmt.Sprintf("Compare on novelty, correctness, and testability:\n\nA: %s\n\nB: %s", h1.Statement, h2.Statement)
	}
	_, _ = a.Model.Call(ctx, prompt, modelclient.CallOptions{})
	return elo.RandomWinner(a.Rand, h1.ID, h2.ID)
}

func indexOf(eligible []elo.Eligible, id string) int {
	for i, e := range eligible {
		if e.ID == id {
			return i
		}
	}
	return -1
}
