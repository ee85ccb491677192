package elo

import (
	"math/rand"
	"sort"
)

// Eligible is the minimal view of a hypothesis the selector needs: its id
// and how many matches it has already played. Callers project their real
// hypothesis/tournament types into this shape.
type Eligible struct {
	ID           string
	MatchCount   int
	IsNewlyEligible bool
}

// ProximityLookup returns the similarity (0..1) between two hypothesis
// ids, or ok=false if no edge is recorded between them.
type ProximityLookup func(a, b string) (similarity float64, ok bool)

// Selector picks pairs of eligible hypotheses to compare. It prefers pairs
// that involve a newly eligible hypothesis, then pairs that are closer on
// the proximity graph; ties between candidate pairs are broken by lower
// total completed-match count. Ratings are not considered: a high-ranked
// hypothesis gets no preference. When no proximity information is
// available, or no eligible pair has a recorded edge, it falls back to the
// simpler "first two eligible" behavior of the original reference.
type Selector struct {
	Proximity ProximityLookup
	Rand      *rand.Rand
}

// NewSelector builds a Selector with the given proximity lookup and RNG.
// rng may be nil, in which case a fresh source seeded with 1 is used.
func NewSelector(proximity ProximityLookup, rng *rand.Rand) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Selector{Proximity: proximity, Rand: rng}
}

// SelectPair chooses the next pair of hypotheses to match from the
// eligible set. Returns ok=false if fewer than two hypotheses are
// eligible.
func (s *Selector) SelectPair(eligible []Eligible) (h1, h2 Eligible, ok bool) {
	if len(eligible) < 2 {
		return Eligible{}, Eligible{}, false
	}

	if s.Proximity == nil {
		return s.fallbackPair(eligible)
	}

	type candidate struct {
		i, j       int
		similarity float64
		weight     int // higher is better: newly-eligible participant bonus
		totalMatches int
	}

	var candidates []candidate
	for i := 0; i < len(eligible); i++ {
		for j := i + 1; j < len(eligible); j++ {
			sim, hasEdge := s.Proximity(eligible[i].ID, eligible[j].ID)
			if !hasEdge {
				continue
			}
			weight := 0
			if eligible[i].IsNewlyEligible || eligible[j].IsNewlyEligible {
				weight = 1
			}
			candidates = append(candidates, candidate{
				i: i, j: j,
				similarity:   sim,
				weight:       weight,
				totalMatches: eligible[i].MatchCount + eligible[j].MatchCount,
			})
		}
	}

	if len(candidates) == 0 {
		return s.fallbackPair(eligible)
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		ca, cb := candidates[a], candidates[b]
		if ca.weight != cb.weight {
			return ca.weight > cb.weight
		}
		if ca.similarity != cb.similarity {
			return ca.similarity > cb.similarity
		}
		return ca.totalMatches < cb.totalMatches
	})

	best := candidates[0]
	return eligible[best.i], eligible[best.j], true
}

// fallbackPair implements the reference's simplified selector: pick the
// first two eligible hypotheses. Used when there is no proximity lookup
// (the graph has not yet been computed) and when no eligible pair has a
// recorded edge.
func (s *Selector) fallbackPair(eligible []Eligible) (h1, h2 Eligible, ok bool) {
	if len(eligible) < 2 {
		return Eligible{}, Eligible{}, false
	}
	return eligible[0], eligible[1], true
}

// RandomWinner picks a uniformly random winner between two ids. The
// ranking agent uses it to decide every match, debate or simple; the
// model's response is not parsed for a decision.
func RandomWinner(rng *rand.Rand, idA, idB string) string {
	if rng.Intn(2) == 0 {
		return idA
	}
	return idB
}
