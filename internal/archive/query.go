package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cbuckley/courtcast/internal/season"
	"github.com/cbuckley/courtcast/internal/team"
)

// Run is one archived simulation run.
type Run struct {
	ID        uuid.UUID `json:"id"`
	Season    int       `json:"season"`
	Trials    int       `json:"trials"`
	Seed      int64     `json:"seed"`
	Oracle    string    `json:"oracle"`
	CreatedAt time.Time `json:"created_at"`
}

// RunTeamResult is one team's aggregated outcome within a run.
type RunTeamResult struct {
	Team            string  `json:"team"`
	PlayoffCount    int     `json:"playoff_count"`
	TitleCount      int     `json:"title_count"`
	PlayoffGamesWon int     `json:"playoff_games_won"`
	AvgRegularWins  float64 `json:"avg_regular_wins"`
}

// GamesBySeason reads a season's archived schedule back into Game
// values, resolving abbreviations through the registry.
func (p *Pool) GamesBySeason(ctx context.Context, reg *team.Registry, seasonYear int) ([]*season.Game, error) {
	rows, err := p.Query(ctx, "games_by_season", seasonYear)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	var games []*season.Game
	for rows.Next() {
		var (
			date             time.Time
			home, away       string
			homePts, awayPts *int
			played           bool
		)
		if err := rows.Scan(&date, &home, &away, &homePts, &awayPts, &played); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		h, ok := reg.Lookup(home)
		if !ok {
			return nil, fmt.Errorf("archived game references unknown team %q", home)
		}
		a, ok := reg.Lookup(away)
		if !ok {
			return nil, fmt.Errorf("archived game references unknown team %q", away)
		}
		g := season.NewGame(date, h, a)
		if played && homePts != nil && awayPts != nil {
			g.SetResult(*homePts, *awayPts)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read games: %w", err)
	}
	season.AnnotateRestDays(games)
	return games, nil
}

// HasSeason reports whether any games are archived for the season.
func (p *Pool) HasSeason(ctx context.Context, seasonYear int) (bool, error) {
	var one int
	err := p.QueryRow(ctx, "season_has_rows", seasonYear).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListRuns returns the most recent simulation runs.
func (p *Pool) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := p.Query(ctx, "list_runs", limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Season, &r.Trials, &r.Seed, &r.Oracle, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunByID returns one run, false when no run has that id.
func (p *Pool) RunByID(ctx context.Context, id uuid.UUID) (Run, bool, error) {
	var r Run
	err := p.QueryRow(ctx, "run_by_id", id).Scan(&r.ID, &r.Season, &r.Trials, &r.Seed, &r.Oracle, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Run{}, false, nil
		}
		return Run{}, false, fmt.Errorf("query run: %w", err)
	}
	return r, true, nil
}

// RunTeamResults returns a run's per-team rows, most playoff games won
// first.
func (p *Pool) RunTeamResults(ctx context.Context, id uuid.UUID) ([]RunTeamResult, error) {
	rows, err := p.Query(ctx, "run_team_rows", id)
	if err != nil {
		return nil, fmt.Errorf("query run results: %w", err)
	}
	defer rows.Close()

	var results []RunTeamResult
	for rows.Next() {
		var r RunTeamResult
		if err := rows.Scan(&r.Team, &r.PlayoffCount, &r.TitleCount, &r.PlayoffGamesWon, &r.AvgRegularWins); err != nil {
			return nil, fmt.Errorf("scan run result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
