// Package leaderboard stores final solo scores. Lower scores rank higher;
// ties go to the earlier submission.
package leaderboard

import (
	"context"
	"errors"
	"sort"
	"sync"

	engine "github.com/jason-s-yu/cambio/engine"
)

// DefaultLimit is the number of entries Top returns when asked for n <= 0.
const DefaultLimit = 10

// ErrEmptyMode is returned for submissions without a mode.
var ErrEmptyMode = errors.New("leaderboard: empty mode")

// Board is a leaderboard backend.
type Board interface {
	engine.Leaderboard
	// Top returns the best n entries of a mode, best first.
	Top(ctx context.Context, mode string, n int) ([]engine.ScoreEntry, error)
	Close() error
}

// less orders entries best first.
func less(a, b engine.ScoreEntry) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.At.Before(b.At)
}

func sortEntries(entries []engine.ScoreEntry) {
	sort.SliceStable(entries, func(i, j int) bool { return less(entries[i], entries[j]) })
}

func limit(n int) int {
	if n <= 0 {
		return DefaultLimit
	}
	return n
}

// Memory keeps scores in process. Used in tests and single-instance
// deployments.
type Memory struct {
	mu     sync.RWMutex
	byMode map[string][]engine.ScoreEntry
	rounds map[string]bool // round ids already stored
}

func NewMemory() *Memory {
	return &Memory{
		byMode: make(map[string][]engine.ScoreEntry),
		rounds: make(map[string]bool),
	}
}

// SubmitScore stores e once per round id.
func (m *Memory) SubmitScore(ctx context.Context, e engine.ScoreEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.Mode == "" {
		return ErrEmptyMode
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := e.RoundID.String()
	if m.rounds[key] {
		return nil
	}
	m.rounds[key] = true

	entries := m.byMode[e.Mode]
	i := sort.Search(len(entries), func(i int) bool { return less(e, entries[i]) })
	entries = append(entries, engine.ScoreEntry{})
	copy(entries[i+1:], entries[i:])
	entries[i] = e
	m.byMode[e.Mode] = entries
	return nil
}

func (m *Memory) Top(ctx context.Context, mode string, n int) ([]engine.ScoreEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := m.byMode[mode]
	n = min(limit(n), len(entries))
	out := make([]engine.ScoreEntry, n)
	copy(out, entries[:n])
	return out, nil
}

func (m *Memory) Close() error { return nil }
