// Package blackboard implements the concurrency-safe keyed store that
// mediates all inter-agent communication: hypotheses, reviews, the
// proximity graph, tournament state, and per-iteration statistics.
//
// Each resource gets its own lock (never nested), mirroring the teacher's
// internal/tasks.Queue and internal/memory store conventions. Readers
// always receive a defensive copy, never a pointer into internal state.
package blackboard

import (
	"strconv"
	"sync"

	"github.com/ai-coscientist/orchestrator/internal/coserr"
	"github.com/ai-coscientist/orchestrator/internal/events"
	"github.com/ai-coscientist/orchestrator/internal/statsstore"
)

// Reserved keys used by Put/Get for scalar/config values.
const (
	KeyResearchPlanConfig = "research_plan_config"
)

// Blackboard is the shared, in-memory store. All entities live for the
// duration of a single run; there is no cross-run persistence (see
// Non-goals).
type Blackboard struct {
	mu sync.RWMutex
	kv map[string]any

	hypMu      sync.RWMutex
	hyps       []Hypothesis
	hypIndex   map[string]int
	focusAreas []FocusArea

	reviewMu sync.RWMutex
	reviews  map[string]Review

	tournMu sync.Mutex
	tourn   TournamentState

	proxMu sync.RWMutex
	prox   ProximityGraph

	stats *statsstore.Store
	bus   *events.Bus
}

// New creates an empty blackboard. stats may be nil, in which case
// RecordStats only keeps the latest snapshot per iteration in memory and
// skips the queryable history. Hypothesis, review, tournament-match,
// proximity and statistics mutations are also published on an internal
// events.Bus ("dashboard" target; Put and PutFocusAreas publish nothing)
// so a subscriber — the live
// dashboard, a log tailer — can observe the run without polling.
func New(stats *statsstore.Store) *Blackboard {
	return &Blackboard{
		kv:       make(map[string]any),
		hypIndex: make(map[string]int),
		reviews:  make(map[string]Review),
		tourn:    NewTournamentState(),
		prox:     ProximityGraph{Adjacency: make(map[string][]ProximityEdge)},
		stats:    stats,
		bus:      events.NewBus(),
	}
}

// Events returns the blackboard's internal event bus. Subscribers receive
// every mutation published under the "dashboard" target.
func (b *Blackboard) Events() *events.Bus {
	return b.bus
}

// Put replaces the whole value stored under key.
func (b *Blackboard) Put(key string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.kv[key] = value
}

// Get returns a snapshot of the value stored under key, if any.
func (b *Blackboard) Get(key string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.kv[key]
	return v, ok
}

// AppendHypothesis inserts h into the hypothesis list. It fails if the id
// collides with an existing hypothesis, or if any parent id does not
// exist.
func (b *Blackboard) AppendHypothesis(h Hypothesis) error {
	b.hypMu.Lock()
	defer b.hypMu.Unlock()

	if _, exists := b.hypIndex[h.ID]; exists {
		return &coserr.BlackboardConflict{Reason: "duplicate hypothesis id: " + h.ID}
	}
	for _, parent := range h.ParentIDs {
		if _, ok := b.hypIndex[parent]; !ok {
			return &coserr.BlackboardConflict{Reason: "unknown parent id: " + parent}
		}
	}

	b.hypIndex[h.ID] = len(b.hyps)
	b.hyps = append(b.hyps, h)
	b.bus.Publish(events.NewEvent(events.EventHypothesisAdded, string(h.GenerationMethod), "dashboard", events.PriorityNormal, map[string]any{
		"hypothesis_id": h.ID,
		"title":         h.Title,
	}))
	return nil
}

// ListHypotheses returns an immutable ordered snapshot of all hypotheses.
func (b *Blackboard) ListHypotheses() []Hypothesis {
	b.hypMu.RLock()
	defer b.hypMu.RUnlock()

	out := make([]Hypothesis, len(b.hyps))
	copy(out, b.hyps)
	for i := range out {
		out[i].ParentIDs = append([]string(nil), out[i].ParentIDs...)
	}
	return out
}

// PutFocusAreas replaces the recorded focus areas (set once, during
// initial generation).
func (b *Blackboard) PutFocusAreas(areas []FocusArea) {
	b.hypMu.Lock()
	defer b.hypMu.Unlock()
	b.focusAreas = append([]FocusArea(nil), areas...)
}

// ListFocusAreas returns a snapshot of the recorded focus areas.
func (b *Blackboard) ListFocusAreas() []FocusArea {
	b.hypMu.RLock()
	defer b.hypMu.RUnlock()
	out := make([]FocusArea, len(b.focusAreas))
	copy(out, b.focusAreas)
	return out
}

// MarkReviewed records review for id. Idempotent: re-marking the same id
// is a no-op on membership, but the latest review data is kept (the spec
// requires only that prior data is not lost on the membership set, so we
// always store the freshest review content).
func (b *Blackboard) MarkReviewed(id string, review Review) {
	b.reviewMu.Lock()
	defer b.reviewMu.Unlock()
	b.reviews[id] = review
	b.bus.Publish(events.NewEvent(events.EventReviewRecorded, "reflection", "dashboard", events.PriorityNormal, map[string]any{
		"hypothesis_id": id,
		"passed":        review.Passed,
	}))
}

// Review returns the stored review for id, if any.
func (b *Blackboard) Review(id string) (Review, bool) {
	b.reviewMu.RLock()
	defer b.reviewMu.RUnlock()
	r, ok := b.reviews[id]
	if r.Full != nil {
		full := *r.Full
		r.Full = &full
	}
	if r.DeepVerification != nil {
		deep := *r.DeepVerification
		deep.Assumptions = append([]string(nil), deep.Assumptions...)
		r.DeepVerification = &deep
	}
	return r, ok
}

// ReviewedIDs returns the set of ids that have been reviewed (pass or
// fail).
func (b *Blackboard) ReviewedIDs() []string {
	b.reviewMu.RLock()
	defer b.reviewMu.RUnlock()
	out := make([]string, 0, len(b.reviews))
	for id := range b.reviews {
		out = append(out, id)
	}
	return out
}

// PassedReviewIDs returns the ids whose review passed, in the order they
// were reviewed is not guaranteed.
func (b *Blackboard) PassedReviewIDs() []string {
	b.reviewMu.RLock()
	defer b.reviewMu.RUnlock()
	out := make([]string, 0, len(b.reviews))
	for id, r := range b.reviews {
		if r.Passed {
			out = append(out, id)
		}
	}
	return out
}

// UpdateTournament runs fn under the single tournament lock, passing it a
// mutable copy of the current state, and stores whatever fn returns. This
// is the only way the tournament state is mutated, guaranteeing readers
// never observe a partially updated state and that rating updates are a
// well-defined linear sequence.
func (b *Blackboard) UpdateTournament(fn func(TournamentState) TournamentState) TournamentState {
	b.tournMu.Lock()
	defer b.tournMu.Unlock()

	prevMatches := len(b.tourn.Matches)
	next := fn(CloneTournamentState(b.tourn))
	b.tourn = next

	for _, m := range next.Matches[min(prevMatches, len(next.Matches)):] {
		b.bus.Publish(events.NewEvent(events.EventMatchRecorded, "ranking", "dashboard", events.PriorityLow, map[string]any{
			"h1": m.H1, "h2": m.H2, "winner": m.Winner, "kind": string(m.Kind),
		}))
	}
	return CloneTournamentState(next)
}

// Tournament returns a snapshot of the current tournament state.
func (b *Blackboard) Tournament() TournamentState {
	b.tournMu.Lock()
	defer b.tournMu.Unlock()
	return CloneTournamentState(b.tourn)
}

// PutProximity replaces the proximity graph wholesale.
func (b *Blackboard) PutProximity(g ProximityGraph) {
	b.proxMu.Lock()
	defer b.proxMu.Unlock()
	b.prox = g
	b.bus.Publish(events.NewEvent(events.EventProximityUpdated, "proximity", "dashboard", events.PriorityLow, map[string]any{
		"num_nodes": len(g.Adjacency),
	}))
}

// Proximity returns a snapshot of the current proximity graph.
func (b *Blackboard) Proximity() ProximityGraph {
	b.proxMu.RLock()
	defer b.proxMu.RUnlock()

	adj := make(map[string][]ProximityEdge, len(b.prox.Adjacency))
	for k, edges := range b.prox.Adjacency {
		cp := make([]ProximityEdge, len(edges))
		copy(cp, edges)
		adj[k] = cp
	}
	return ProximityGraph{Adjacency: adj}
}

// RecordStats stores stats under the conventional per-iteration key,
// overwriting any prior record for the same iteration, and mirrors it into
// the queryable statistics store if one is attached.
func (b *Blackboard) RecordStats(iteration int, stats Statistics) {
	b.Put(statsKey(iteration), stats)
	if b.stats != nil {
		b.stats.Record(iteration, stats)
	}
	b.bus.Publish(events.NewEvent(events.EventStatisticsUpdated, "supervisor", "dashboard", events.PriorityNormal, map[string]any{
		"iteration":           stats.Iteration,
		"num_hypotheses":      stats.NumHypotheses,
		"num_reviewed":        stats.NumReviewed,
		"tournament_progress": stats.TournamentProgress,
	}))
}

// Stats returns the recorded statistics for iteration, if any.
func (b *Blackboard) Stats(iteration int) (Statistics, bool) {
	v, ok := b.Get(statsKey(iteration))
	if !ok {
		return Statistics{}, false
	}
	return v.(Statistics), true
}

func statsKey(iteration int) string {
	return "stats_iteration_" + strconv.Itoa(iteration)
}
