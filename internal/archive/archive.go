// Package archive persists pipeline artifacts — teams, players, games,
// events, and simulation runs — to Postgres. Nothing in the pipeline
// requires the archive; it exists so the API can serve past results
// without re-scraping.
package archive

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cbuckley/courtcast/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// EnsureSchema creates every archive table that does not exist yet.
func (p *Pool) EnsureSchema(ctx context.Context) error {
	if _, err := p.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// registerPreparedStatements registers the statements the API read
// paths use. Prepared statements eliminate parse overhead on every
// request.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// API: games for standings/seeding recomputation
		"games_by_season": "SELECT game_date, home, away, home_points, away_points, played FROM games WHERE season = $1 ORDER BY game_date, home",

		// API: simulation runs
		"list_runs":       "SELECT id, season, trials, seed, oracle, created_at FROM sim_runs ORDER BY created_at DESC LIMIT $1",
		"run_by_id":       "SELECT id, season, trials, seed, oracle, created_at FROM sim_runs WHERE id = $1",
		"run_team_rows":   "SELECT team, playoff_count, title_count, playoff_games_won, avg_regular_wins FROM sim_team_results WHERE run_id = $1 ORDER BY playoff_games_won DESC, team",
		"season_has_rows": "SELECT 1 FROM games WHERE season = $1 LIMIT 1",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
