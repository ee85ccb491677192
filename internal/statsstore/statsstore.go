// Package statsstore keeps a queryable, in-memory history of the
// supervisor's per-iteration statistics. It is backed by an embedded,
// pure-Go SQLite database opened against ":memory:" — discarded the moment
// the process exits, so it never becomes durable cross-run storage; it
// merely gives the run a queryable log instead of a bare slice, in the
// idiom of the teacher's internal/memory SQLite store.
package statsstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS iteration_stats (
	iteration              INTEGER PRIMARY KEY,
	num_hypotheses         INTEGER NOT NULL,
	num_reviewed           INTEGER NOT NULL,
	tournament_progress    REAL NOT NULL,
	top_ranked             TEXT NOT NULL,
	generation_methods     TEXT NOT NULL,
	recorded_at            DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// Row is the queryable projection of one recorded iteration.
type Row struct {
	Iteration          int
	NumHypotheses      int
	NumReviewed        int
	TournamentProgress float64
	TopRanked          []string
}

// Store wraps an in-memory SQLite connection holding the iteration_stats
// table.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open creates a fresh in-memory statistics store.
func Open() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open statsstore: %w", err)
	}
	db.SetMaxOpenConns(1) // :memory: is per-connection; keep a single conn alive

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init statsstore schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying connection, discarding all history.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record persists one iteration's statistics. Re-recording the same
// iteration overwrites the prior row.
func (s *Store) Record(iteration int, stats any) {
	num, reviewed, progress, topRanked, methods := extractRow(stats)

	topJSON, _ := json.Marshal(topRanked)
	methodsJSON, _ := json.Marshal(methods)

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.db.Exec(`
		INSERT INTO iteration_stats (iteration, num_hypotheses, num_reviewed, tournament_progress, top_ranked, generation_methods)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(iteration) DO UPDATE SET
			num_hypotheses=excluded.num_hypotheses,
			num_reviewed=excluded.num_reviewed,
			tournament_progress=excluded.tournament_progress,
			top_ranked=excluded.top_ranked,
			generation_methods=excluded.generation_methods
	`, iteration, num, reviewed, progress, string(topJSON), string(methodsJSON))
}

// History returns every recorded row, ordered by iteration.
func (s *Store) History() ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT iteration, num_hypotheses, num_reviewed, tournament_progress, top_ranked FROM iteration_stats ORDER BY iteration ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var topJSON string
		if err := rows.Scan(&r.Iteration, &r.NumHypotheses, &r.NumReviewed, &r.TournamentProgress, &topJSON); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(topJSON), &r.TopRanked)
		out = append(out, r)
	}
	return out, rows.Err()
}

// extractRow pulls the fields statsstore needs out of an arbitrary
// statistics value via a small structural interface, so callers can pass
// blackboard.Statistics without an import cycle.
func extractRow(stats any) (num, reviewed int, progress float64, topRanked []string, methods map[string]int) {
	type shape struct {
		Iteration             int            `json:"iteration"`
		NumHypotheses         int            `json:"num_hypotheses"`
		NumReviewed           int            `json:"num_reviewed"`
		TournamentProgress    float64        `json:"tournament_progress"`
		TopRanked             []string       `json:"top_ranked"`
		GenerationMethodCount map[string]int `json:"generation_method_count"`
	}
	// Statistics is recorded via reflection-free duck typing: the caller
	// (blackboard.RecordStats) always passes blackboard.Statistics, whose
	// field layout matches shape save for the GenerationMethodCount key
	// type (GenerationMethod vs string). Marshal/unmarshal through JSON to
	// bridge that without a direct dependency.
	data, err := json.Marshal(stats)
	if err != nil {
		return 0, 0, 0, nil, nil
	}
	var s shape
	if err := json.Unmarshal(data, &s); err != nil {
		return 0, 0, 0, nil, nil
	}
	return s.NumHypotheses, s.NumReviewed, s.TournamentProgress, s.TopRanked, s.GenerationMethodCount
}
