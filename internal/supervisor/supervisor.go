package supervisor

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/ai-coscientist/orchestrator/internal/agents"
	"github.com/ai-coscientist/orchestrator/internal/blackboard"
	"github.com/ai-coscientist/orchestrator/internal/coserr"
	"github.com/ai-coscientist/orchestrator/internal/events"
	"github.com/ai-coscientist/orchestrator/internal/modelclient"
	"github.com/ai-coscientist/orchestrator/internal/tasks"
)

// Defaults for the refill policy and termination predicate, named so
// tests and callers can override them without touching the loop itself.
const (
	DefaultHypothesisTarget    = 20
	DefaultReviewBatch         = 5
	DefaultTournamentMatches   = 10
	DefaultEvolutionBatch      = 3
	DefaultProximityEveryRounds = 3
	DefaultQuantum             = 2 * time.Second

	terminationMinHypotheses      = 10
	terminationMinReviewed        = 10
	terminationMinTopRanked       = 5
	terminationMinProgress        = 0.9
	terminationMinQueueProgress   = 0.8
)

// Config holds every tunable the supervisor loop reads. The CLI and the
// root coscientist.RunConfig both map into this shape.
type Config struct {
	Goal          string
	MaxIterations int
	NumWorkers    int
	Model         modelclient.ModelCaller
	Seed          int64

	HypothesisTarget     int
	ProximityEveryRounds int
	Quantum              time.Duration

	// OnStats, if set, is invoked with every recorded iteration's
	// Statistics — the supervisor's only hook for the optional dashboard
	// broadcaster. Purely observational; never required for correctness.
	OnStats func(blackboard.Statistics)
}

// Result is the value returned once the run terminates, mirroring the
// JSON result schema's shape.
type Result struct {
	Status           string                     `json:"status"`
	ResearchOverview agents.ResearchOverview    `json:"research_overview"`
	TopHypotheses    []string                   `json:"top_hypotheses"`
	Statistics       blackboard.Statistics      `json:"statistics"`
}

// Supervisor owns the whole run: queue, worker pool, and the round loop
// that seeds and refills it. Grounded on the teacher's dispatcher/executor
// loop shape (internal/supervisor/dispatcher.go), generalized from
// spawning OS processes once per plan to refilling a task queue every
// round.
type Supervisor struct {
	cfg      Config
	bb       *blackboard.Blackboard
	registry *agents.Registry
	log      *log.Logger
}

// New builds a Supervisor. The registry must already be complete
// (registry.CheckComplete() == nil); Run re-checks this and returns a
// ValidationError if not.
func New(cfg Config, bb *blackboard.Blackboard, registry *agents.Registry) *Supervisor {
	if cfg.Quantum <= 0 {
		cfg.Quantum = DefaultQuantum
	}
	if cfg.HypothesisTarget <= 0 {
		cfg.HypothesisTarget = DefaultHypothesisTarget
	}
	if cfg.ProximityEveryRounds <= 0 {
		cfg.ProximityEveryRounds = DefaultProximityEveryRounds
	}
	return &Supervisor{
		cfg:      cfg,
		bb:       bb,
		registry: registry,
		log:      log.New(os.Stderr, "[supervisor] ", log.LstdFlags),
	}
}

// Run executes the full initialization/round/termination/shutdown
// sequence and returns the final result.
func (s *Supervisor) Run(ctx context.Context) (Result, error) {
	if s.cfg.NumWorkers < 1 {
		return Result{}, coserr.NewValidationError("worker count must be at least 1, got %d", s.cfg.NumWorkers)
	}
	if err := s.registry.CheckComplete(); err != nil {
		return Result{}, coserr.NewValidationError("%v", err)
	}

	q, err := tasks.NewQueue(4 * s.cfg.NumWorkers)
	if err != nil {
		return Result{}, fmt.Errorf("supervisor: start task queue: %w", err)
	}
	defer q.Shutdown()

	pool := NewPool(s.registry, s.bb, s.log)
	poolCtx, cancelPool := context.WithCancel(ctx)

	poolDone := make(chan error, 1)
	go func() {
		poolDone <- pool.Run(poolCtx, q, s.cfg.NumWorkers)
	}()

	if err := s.initialize(ctx, q); err != nil {
		cancelPool()
		q.Shutdown()
		<-poolDone
		return Result{}, err
	}

	status, finalIteration := s.loop(ctx, q)

	// Shutdown: close the queue (tasks not yet dequeued are discarded),
	// cancel the workers' context so in-flight agent calls stop, then wait
	// for every worker to exit.
	q.Shutdown()
	cancelPool()
	<-poolDone

	overview := s.runMetaReview(ctx)
	tourn := s.bb.Tournament()
	stats := s.computeStatistics(finalIteration)

	s.bb.Events().Publish(events.NewEvent(events.EventRunCompleted, "supervisor", "dashboard", events.PriorityHigh, map[string]any{
		"status":         status,
		"top_hypotheses": tourn.TopRanked,
	}))

	return Result{
		Status:           status,
		ResearchOverview: overview,
		TopHypotheses:    tourn.TopRanked,
		Statistics:       stats,
	}, nil
}

func (s *Supervisor) initialize(ctx context.Context, q *tasks.Queue) error {
	planner := modelclient.CallOptions{Model: "", Temperature: 0}
	plan, err := s.cfg.Model.Call(ctx, "Parse the following research goal into a structured plan: "+s.cfg.Goal, planner)
	if err != nil {
		return fmt.Errorf("supervisor: parse research goal: %w", err)
	}
	s.bb.Put(blackboard.KeyResearchPlanConfig, map[string]any{
		"raw_goal": s.cfg.Goal,
		"plan":     plan,
	})

	return q.Enqueue(ctx, tasks.Task{
		ID:         uuid.NewString(),
		Capability: agents.Generation,
		Kind:       "initial_generation",
		Payload:    map[string]any{"research_goal": s.cfg.Goal},
	})
}

// loop runs rounds until the termination predicate fires or ctx is
// cancelled, returning the terminal status and the last computed
// iteration index.
func (s *Supervisor) loop(ctx context.Context, q *tasks.Queue) (string, int) {
	timer := time.NewTimer(s.cfg.Quantum)
	defer timer.Stop()

	for iteration := 0; ; iteration++ {
		select {
		case <-ctx.Done():
			return "aborted", iteration
		case <-timer.C:
		}

		stats := s.computeStatistics(iteration)
		s.bb.RecordStats(iteration, stats)
		if s.cfg.OnStats != nil {
			s.cfg.OnStats(stats)
		}

		if s.terminal(iteration, stats) {
			return "completed", iteration
		}

		s.refill(ctx, q, iteration, stats)
		timer.Reset(s.cfg.Quantum)
	}
}

func (s *Supervisor) computeStatistics(iteration int) blackboard.Statistics {
	hyps := s.bb.ListHypotheses()
	reviewedIDs := make(map[string]bool)
	for _, id := range s.bb.ReviewedIDs() {
		reviewedIDs[id] = true
	}

	var unreviewed []string
	methodCount := make(map[blackboard.GenerationMethod]int)
	for _, h := range hyps {
		methodCount[h.GenerationMethod]++
		if !reviewedIDs[h.ID] {
			unreviewed = append(unreviewed, h.ID)
		}
	}

	tourn := s.bb.Tournament()

	return blackboard.Statistics{
		Iteration:             iteration,
		NumHypotheses:         len(hyps),
		NumReviewed:           len(reviewedIDs),
		UnreviewedIDs:         unreviewed,
		TournamentProgress:    tourn.Progress,
		TopRanked:             tourn.TopRanked,
		GenerationMethodCount: methodCount,
	}
}

func (s *Supervisor) terminal(iteration int, stats blackboard.Statistics) bool {
	if iteration >= s.cfg.MaxIterations-1 {
		return true
	}
	return stats.NumHypotheses >= terminationMinHypotheses &&
		stats.NumReviewed >= terminationMinReviewed &&
		len(stats.TopRanked) >= terminationMinTopRanked &&
		stats.TournamentProgress > terminationMinProgress
}

// refill implements the five-step policy of spec.md §4.6 verbatim, one
// explicit method per step.
func (s *Supervisor) refill(ctx context.Context, q *tasks.Queue, iteration int, stats blackboard.Statistics) {
	s.enqueueGeneration(ctx, q, stats)
	s.enqueueReviews(ctx, q, stats)
	s.enqueueTournamentMatches(ctx, q, stats)
	s.enqueueEvolutions(ctx, q, stats)
	s.enqueueProximityEvery(ctx, q, iteration, s.cfg.ProximityEveryRounds)
}

func (s *Supervisor) enqueueGeneration(ctx context.Context, q *tasks.Queue, stats blackboard.Statistics) {
	if stats.NumHypotheses >= s.cfg.HypothesisTarget {
		return
	}
	s.enqueue(ctx, q, agents.Generation, "generate_hypotheses", map[string]any{"count": 5})
}

func (s *Supervisor) enqueueReviews(ctx context.Context, q *tasks.Queue, stats blackboard.Statistics) {
	ids := stats.UnreviewedIDs
	if len(ids) > DefaultReviewBatch {
		ids = ids[:DefaultReviewBatch]
	}
	for _, id := range ids {
		s.enqueue(ctx, q, agents.Reflection, "review_hypothesis", map[string]any{"hypothesis_id": id})
	}
}

func (s *Supervisor) enqueueTournamentMatches(ctx context.Context, q *tasks.Queue, stats blackboard.Statistics) {
	if stats.TournamentProgress >= terminationMinQueueProgress {
		return
	}
	s.enqueue(ctx, q, agents.Ranking, "run_tournament_matches", map[string]any{"count": DefaultTournamentMatches})
}

func (s *Supervisor) enqueueEvolutions(ctx context.Context, q *tasks.Queue, stats blackboard.Statistics) {
	ids := stats.TopRanked
	if len(ids) > DefaultEvolutionBatch {
		ids = ids[:DefaultEvolutionBatch]
	}
	for _, id := range ids {
		s.enqueue(ctx, q, agents.Evolution, "evolve_hypothesis", map[string]any{"hypothesis_id": id})
	}
}

func (s *Supervisor) enqueueProximityEvery(ctx context.Context, q *tasks.Queue, iteration, every int) {
	if every <= 0 || iteration%every != 0 {
		return
	}
	s.enqueue(ctx, q, agents.Proximity, "calculate_proximity", map[string]any{})
}

func (s *Supervisor) enqueue(ctx context.Context, q *tasks.Queue, capability agents.Capability, kind string, payload map[string]any) {
	err := q.Enqueue(ctx, tasks.Task{
		ID:         uuid.NewString(),
		Capability: capability,
		Kind:       kind,
		Payload:    payload,
	})
	if err != nil && ctx.Err() == nil {
		s.log.Printf("enqueue %s/%s failed: %v", capability, kind, err)
	}
}

func (s *Supervisor) runMetaReview(ctx context.Context) agents.ResearchOverview {
	agent, err := s.registry.Lookup(agents.MetaReview)
	if err != nil {
		s.log.Printf("meta-review unavailable: %v", err)
		return agents.ResearchOverview{}
	}

	tourn := s.bb.Tournament()
	result, err := agent.Execute(ctx, tasks.Task{
		ID:         uuid.NewString(),
		Capability: agents.MetaReview,
		Kind:       "generate_research_overview",
		Payload:    map[string]any{"top_hypotheses": tourn.TopRanked},
	}, s.bb)
	if err != nil {
		s.log.Printf("meta-review failed: %v", err)
		return agents.ResearchOverview{}
	}

	overview, _ := result["research_overview"].(agents.ResearchOverview)
	return overview
}
