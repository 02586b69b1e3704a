package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ScoreEntry is one completed solo round as reported to a leaderboard.
type ScoreEntry struct {
	RoundID   uuid.UUID
	Player    string // filled in by the adapter that knows who played
	Mode      string
	Score     int
	Penalties int
	Build     string
	At        time.Time
}

// Leaderboard receives final solo scores. Failures are logged and reported
// as EventScoreSubmitFailed; they never affect the round.
type Leaderboard interface {
	SubmitScore(ctx context.Context, entry ScoreEntry) error
}

// LeaderboardFunc adapts a function to Leaderboard.
type LeaderboardFunc func(ctx context.Context, entry ScoreEntry) error

func (f LeaderboardFunc) SubmitScore(ctx context.Context, entry ScoreEntry) error {
	return f(ctx, entry)
}
