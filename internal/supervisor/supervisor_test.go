package supervisor

import (
	"context"
	"testing"
	"time"

	"github.com/ai-coscientist/orchestrator/internal/agents"
	"github.com/ai-coscientist/orchestrator/internal/blackboard"
	"github.com/ai-coscientist/orchestrator/internal/coserr"
	"github.com/ai-coscientist/orchestrator/internal/modelclient"
)

func newTestRegistry(model modelclient.ModelCaller, seed int64) *agents.Registry {
	r := agents.NewRegistry()
	r.Register(agents.Generation, agents.NewGenerationAgent(model, seed+1))
	r.Register(agents.Reflection, agents.NewReflectionAgent(model, seed+2))
	r.Register(agents.Ranking, agents.NewRankingAgent(model, seed+3))
	r.Register(agents.Proximity, agents.NewProximityAgent(seed+4))
	r.Register(agents.Evolution, agents.NewEvolutionAgent(model, seed+5))
	r.Register(agents.MetaReview, agents.NewMetaReviewAgent(model))
	return r
}

func TestRun_EmptyGoalCompletesWithNoHypotheses(t *testing.T) {
	bb := blackboard.New(nil)
	model := modelclient.NewStaticModelCaller(1)
	registry := newTestRegistry(model, 1)
	sup := New(Config{
		NumWorkers:    1,
		Model:         model,
		MaxIterations: 1,
		Quantum:       5 * time.Millisecond,
	}, bb, registry)

	result, err := sup.Run(context.Background())
	if err != nil {
		t.Fatalf("an empty goal must not be a fatal error at the library level: %v", err)
	}
	if result.Status != "completed" {
		t.Errorf("expected status completed, got %q", result.Status)
	}
	if len(bb.ListHypotheses()) != 0 {
		t.Errorf("expected zero hypotheses for an empty goal, got %d", len(bb.ListHypotheses()))
	}
	if len(bb.Tournament().Matches) != 0 {
		t.Errorf("expected zero matches for an empty goal, got %d", len(bb.Tournament().Matches))
	}
	if _, ok := bb.Stats(0); !ok {
		t.Error("expected one recorded statistics entry for iteration 0")
	}
}

func TestRun_RejectsIncompleteRegistry(t *testing.T) {
	bb := blackboard.New(nil)
	registry := agents.NewRegistry()
	registry.Register(agents.Generation, agents.NewGenerationAgent(modelclient.NewStaticModelCaller(1), 1))

	sup := New(Config{Goal: "investigate X", NumWorkers: 1}, bb, registry)
	_, err := sup.Run(context.Background())
	if _, ok := err.(*coserr.ValidationError); !ok {
		t.Fatalf("expected a ValidationError for an incomplete registry, got %v (%T)", err, err)
	}
}

func TestRun_RejectsZeroWorkers(t *testing.T) {
	bb := blackboard.New(nil)
	registry := newTestRegistry(modelclient.NewStaticModelCaller(1), 1)
	sup := New(Config{Goal: "investigate X", NumWorkers: 0}, bb, registry)

	_, err := sup.Run(context.Background())
	if _, ok := err.(*coserr.ValidationError); !ok {
		t.Fatalf("expected a ValidationError for zero workers, got %v (%T)", err, err)
	}
}

func TestRun_EndToEndReachesCompletedOrMaxIterations(t *testing.T) {
	bb := blackboard.New(nil)
	model := modelclient.NewStaticModelCaller(7)
	registry := newTestRegistry(model, 7)

	var statsCalls int
	sup := New(Config{
		Goal:          "find a cheaper catalyst for nitrogen fixation",
		MaxIterations: 8,
		NumWorkers:    4,
		Model:         model,
		Seed:          7,
		Quantum:       5 * time.Millisecond,
		OnStats: func(blackboard.Statistics) {
			statsCalls++
		},
	}, bb, registry)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := sup.Run(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != "completed" && result.Status != "aborted" {
		t.Errorf("expected a terminal status, got %q", result.Status)
	}
	if statsCalls == 0 {
		t.Error("expected OnStats to be invoked at least once")
	}
	if len(bb.ListHypotheses()) == 0 {
		t.Error("expected at least one hypothesis to have been generated")
	}
}

func TestRun_CancelledContextAborts(t *testing.T) {
	bb := blackboard.New(nil)
	model := modelclient.NewStaticModelCaller(3)
	registry := newTestRegistry(model, 3)

	sup := New(Config{
		Goal:          "a goal",
		MaxIterations: 1000,
		NumWorkers:    2,
		Model:         model,
		Quantum:       2 * time.Millisecond,
	}, bb, registry)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	result, err := sup.Run(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != "aborted" {
		t.Errorf("expected status aborted, got %q", result.Status)
	}
}

func TestTerminal_MaxIterationsBoundary(t *testing.T) {
	sup := &Supervisor{cfg: Config{MaxIterations: 10}}
	if !sup.terminal(9, blackboard.Statistics{}) {
		t.Error("iteration == MaxIterations-1 should be terminal")
	}
	if sup.terminal(8, blackboard.Statistics{}) {
		t.Error("iteration below MaxIterations-1 with weak stats should not be terminal")
	}
}

func TestTerminal_StatisticsThreshold(t *testing.T) {
	sup := &Supervisor{cfg: Config{MaxIterations: 1000}}
	strong := blackboard.Statistics{
		NumHypotheses:      10,
		NumReviewed:        10,
		TopRanked:          []string{"a", "b", "c", "d", "e"},
		TournamentProgress: 0.95,
	}
	if !sup.terminal(0, strong) {
		t.Error("statistics meeting every threshold should be terminal regardless of iteration")
	}

	weak := strong
	weak.TournamentProgress = 0.5
	if sup.terminal(0, weak) {
		t.Error("insufficient tournament progress should not be terminal")
	}
}
