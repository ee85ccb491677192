package blackboard

import "time"

// GenerationMethod enumerates how a hypothesis came into existence.
type GenerationMethod string

const (
	GenerationInitial     GenerationMethod = "initial"
	GenerationLiterature  GenerationMethod = "literature_exploration"
	GenerationDebate      GenerationMethod = "scientific_debate"
	GenerationAssumptions GenerationMethod = "assumptions_identification"
	GenerationEvolved     GenerationMethod = "evolution"
	GenerationFeedback    GenerationMethod = "feedback_driven"
)

// FocusArea is a top-level sub-topic derived from the research goal; each
// spawns initial hypotheses.
type FocusArea struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Hypothesis is a structured research proposal. Hypotheses are never
// mutated in place; evolution produces new hypotheses that reference their
// ancestors via ParentIDs.
type Hypothesis struct {
	ID               string           `json:"id"`
	ParentIDs        []string         `json:"parent_ids,omitempty"`
	Title            string           `json:"title"`
	Statement        string           `json:"statement"`
	Rationale        string           `json:"rationale"`
	Testability      string           `json:"testability"`
	GenerationMethod GenerationMethod `json:"generation_method"`
	FocusArea        string           `json:"focus_area,omitempty"`

	// Supplemented from the original reference's richer hypothesis schema;
	// optional, never required by an invariant.
	NoveltyClaim     string `json:"novelty_claim,omitempty"`
	ExperimentalPlan string `json:"experimental_plan,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// FullReview is the second-stage, deeper critique produced by reflection.
type FullReview struct {
	Passed            bool   `json:"passed"`
	NoveltyAssessment string `json:"novelty_assessment,omitempty"`
	Correctness       string `json:"correctness,omitempty"`
	Comment           string `json:"comment,omitempty"`
}

// DeepVerification is the third-stage assumption-by-assumption check.
type DeepVerification struct {
	Passed      bool     `json:"passed"`
	Observation string   `json:"observation,omitempty"`
	Assumptions []string `json:"assumptions,omitempty"`
}

// InitialReview is the first, cheap pass filter.
type InitialReview struct {
	Passed  bool   `json:"passed"`
	Comment string `json:"comment,omitempty"`
}

// Review is the reflection agent's multi-stage critique of a hypothesis.
// passed=true iff every stage present passed.
type Review struct {
	HypothesisID     string            `json:"hypothesis_id"`
	Initial          InitialReview     `json:"initial"`
	Full             *FullReview       `json:"full,omitempty"`
	DeepVerification *DeepVerification `json:"deep_verification,omitempty"`
	Observation      string            `json:"observation,omitempty"`
	Passed           bool              `json:"passed"`
}

// ProximityGraph is a symmetric (up to rounding) adjacency of similarity
// edges between hypotheses, with no self-edges.
type ProximityGraph struct {
	Adjacency map[string][]ProximityEdge `json:"adjacency"`
}

// ProximityEdge is one edge of the proximity graph.
type ProximityEdge struct {
	HypothesisID string  `json:"hypothesis_id"`
	Similarity   float64 `json:"similarity"`
}

// MatchKind distinguishes a multi-turn scientific debate from a single-turn
// simple comparison.
type MatchKind string

const (
	MatchDebate MatchKind = "debate"
	MatchSimple MatchKind = "simple"
)

// Match is one immutable pairwise comparison outcome.
type Match struct {
	H1     string    `json:"h1"`
	H2     string    `json:"h2"`
	Winner string    `json:"winner"`
	Kind   MatchKind `json:"kind"`
	At     time.Time `json:"at"`
}

// TournamentState is the full Elo tournament state, owned by the ranking
// capability but stored on the blackboard so every agent and the
// supervisor can read it.
type TournamentState struct {
	Ratings          map[string]int `json:"ratings"`
	Matches          []Match        `json:"matches"`
	CompletedMatches int            `json:"completed_matches"`
	Progress         float64        `json:"progress"`
	TopRanked        []string       `json:"top_ranked"`
}

// CloneTournamentState returns a deep copy safe to mutate independently of
// the original.
func CloneTournamentState(t TournamentState) TournamentState {
	ratings := make(map[string]int, len(t.Ratings))
	for k, v := range t.Ratings {
		ratings[k] = v
	}
	matches := make([]Match, len(t.Matches))
	copy(matches, t.Matches)
	top := make([]string, len(t.TopRanked))
	copy(top, t.TopRanked)
	return TournamentState{
		Ratings:          ratings,
		Matches:          matches,
		CompletedMatches: t.CompletedMatches,
		Progress:         t.Progress,
		TopRanked:        top,
	}
}

// NewTournamentState returns the zero-value tournament, as run by the
// ranking agent on first use.
func NewTournamentState() TournamentState {
	return TournamentState{
		Ratings: make(map[string]int),
	}
}

// Statistics is one immutable per-iteration snapshot computed by the
// supervisor.
type Statistics struct {
	Iteration             int                      `json:"iteration"`
	NumHypotheses         int                      `json:"num_hypotheses"`
	NumReviewed           int                      `json:"num_reviewed"`
	UnreviewedIDs         []string                 `json:"unreviewed_ids,omitempty"`
	TournamentProgress    float64                  `json:"tournament_progress"`
	TopRanked             []string                 `json:"top_ranked,omitempty"`
	GenerationMethodCount map[GenerationMethod]int `json:"generation_method_count,omitempty"`
}
