package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	engine "github.com/jason-s-yu/cambio/engine"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS solo_scores (
		round_id     UUID PRIMARY KEY,
		player       TEXT NOT NULL DEFAULT '',
		mode         TEXT NOT NULL,
		score        INTEGER NOT NULL,
		penalties    INTEGER NOT NULL DEFAULT 0,
		build        TEXT NOT NULL DEFAULT '',
		submitted_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS solo_scores_mode_score ON solo_scores (mode, score, submitted_at)`,
}

// Postgres stores every submission as a row of solo_scores.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects and creates the table when it is missing.
func NewPostgres(ctx context.Context, url string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("leaderboard: postgres ping: %w", err)
	}
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("leaderboard: postgres migrate: %w", err)
		}
	}
	return &Postgres{pool: pool}, nil
}

// SubmitScore inserts e. Resubmitting a round id keeps the first row.
func (p *Postgres) SubmitScore(ctx context.Context, e engine.ScoreEntry) error {
	if e.Mode == "" {
		return ErrEmptyMode
	}
	_, err := p.pool.Exec(ctx,
		`INSERT INTO solo_scores (round_id, player, mode, score, penalties, build, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (round_id) DO NOTHING`,
		e.RoundID.String(), e.Player, e.Mode, e.Score, e.Penalties, e.Build, e.At,
	)
	if err != nil {
		return fmt.Errorf("leaderboard: postgres insert: %w", err)
	}
	return nil
}

func (p *Postgres) Top(ctx context.Context, mode string, n int) ([]engine.ScoreEntry, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT round_id::text, player, mode, score, penalties, build, submitted_at
		 FROM solo_scores WHERE mode = $1
		 ORDER BY score, submitted_at
		 LIMIT $2`,
		mode, limit(n),
	)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: postgres query: %w", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (engine.ScoreEntry, error) {
		var (
			e     engine.ScoreEntry
			round string
			at    time.Time
		)
		if err := row.Scan(&round, &e.Player, &e.Mode, &e.Score, &e.Penalties, &e.Build, &at); err != nil {
			return e, err
		}
		id, err := uuid.Parse(round)
		if err != nil {
			return e, err
		}
		e.RoundID = id
		e.At = at.UTC()
		return e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("leaderboard: postgres scan: %w", err)
	}
	return entries, nil
}

// Truncate removes every row. Tests only.
func (p *Postgres) Truncate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `TRUNCATE solo_scores`)
	return err
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
