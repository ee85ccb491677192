// Package coscientist is the root-importable library entry point for the
// autonomous research-idea orchestration core: wiring the blackboard,
// task queue, agent registry, and supervisor loop into a single Run call.
package coscientist

import (
	"context"
	"fmt"

	"github.com/ai-coscientist/orchestrator/internal/agents"
	"github.com/ai-coscientist/orchestrator/internal/blackboard"
	"github.com/ai-coscientist/orchestrator/internal/coserr"
	"github.com/ai-coscientist/orchestrator/internal/events"
	"github.com/ai-coscientist/orchestrator/internal/modelclient"
	"github.com/ai-coscientist/orchestrator/internal/statsstore"
	"github.com/ai-coscientist/orchestrator/internal/supervisor"
)

// RunConfig carries every knob Run needs. Model may be left nil, in which
// case a deterministic StaticModelCaller seeded from Seed is used — the
// orchestration core ships no real LLM transport (out of scope).
type RunConfig struct {
	Goal          string
	MaxIterations int
	NumWorkers    int
	Model         modelclient.ModelCaller
	Seed          int64

	HypothesisTarget     int
	ProximityEveryRounds int

	// OnStats, if set, is invoked with every recorded iteration's
	// Statistics — the supervisor's hook for an optional dashboard.
	OnStats func(blackboard.Statistics)

	// OnEventBus, if set, is called once with the run's internal
	// events.Bus before the supervisor starts, letting a caller subscribe
	// to a finer-grained stream (one event per blackboard mutation) than
	// OnStats provides.
	OnEventBus func(*events.Bus)
}

// Result is the JSON-serializable outcome of a run.
type Result = supervisor.Result

// Run builds a fresh blackboard, agent registry, and supervisor from cfg
// and executes one complete orchestration run. It never runs the
// toolchain of a second run concurrently against the same Blackboard —
// each call is a fully isolated run.
func Run(ctx context.Context, cfg RunConfig) (Result, error) {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 10
	}
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = 5
	}
	if cfg.Model == nil {
		cfg.Model = modelclient.NewStaticModelCaller(cfg.Seed)
	}

	stats, err := statsstore.Open()
	if err != nil {
		return Result{}, fmt.Errorf("coscientist: open statistics store: %w", err)
	}
	defer stats.Close()

	bb := blackboard.New(stats)
	if cfg.OnEventBus != nil {
		cfg.OnEventBus(bb.Events())
	}
	registry := buildRegistry(cfg.Model, cfg.Seed)
	if err := registry.CheckComplete(); err != nil {
		return Result{}, coserr.NewValidationError("%v", err)
	}

	sup := supervisor.New(supervisor.Config{
		Goal:                 cfg.Goal,
		MaxIterations:        cfg.MaxIterations,
		NumWorkers:           cfg.NumWorkers,
		Model:                cfg.Model,
		Seed:                 cfg.Seed,
		HypothesisTarget:     cfg.HypothesisTarget,
		ProximityEveryRounds: cfg.ProximityEveryRounds,
		OnStats:              cfg.OnStats,
	}, bb, registry)

	return sup.Run(ctx)
}

// buildRegistry wires one instance of every capability agent, each given
// an independent RNG derived from the run seed (spec.md §9: no two
// concurrent agents ever share a *rand.Rand).
func buildRegistry(model modelclient.ModelCaller, seed int64) *agents.Registry {
	registry := agents.NewRegistry()
	registry.Register(agents.Generation, agents.NewGenerationAgent(model, seed+1))
	registry.Register(agents.Reflection, agents.NewReflectionAgent(model, seed+2))
	registry.Register(agents.Ranking, agents.NewRankingAgent(model, seed+3))
	registry.Register(agents.Proximity, agents.NewProximityAgent(seed+4))
	registry.Register(agents.Evolution, agents.NewEvolutionAgent(model, seed+5))
	registry.Register(agents.MetaReview, agents.NewMetaReviewAgent(model))
	return registry
}
