package archive

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cbuckley/courtcast/internal/event"
	"github.com/cbuckley/courtcast/internal/player"
	"github.com/cbuckley/courtcast/internal/season"
	"github.com/cbuckley/courtcast/internal/sim"
	"github.com/cbuckley/courtcast/internal/team"
)

// UpsertTeams writes the registry to the teams table.
func (p *Pool) UpsertTeams(ctx context.Context, teams []team.Team) error {
	for _, t := range teams {
		_, err := p.Exec(ctx, `
			INSERT INTO teams (abbrev, name, conference, division)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (abbrev) DO UPDATE SET
				name = EXCLUDED.name,
				conference = EXCLUDED.conference,
				division = EXCLUDED.division,
				updated_at = NOW()`,
			t.Abbrev, t.Name, string(t.Conference), t.Division,
		)
		if err != nil {
			return fmt.Errorf("upsert team %s: %w", t.Abbrev, err)
		}
	}
	return nil
}

// UpsertPlayers writes directory entries to the players table.
// Placeholder players have no birthdate to key on and are skipped.
func (p *Pool) UpsertPlayers(ctx context.Context, players []player.Player) (int, error) {
	written := 0
	for _, pl := range players {
		if pl.IsPlaceholder() {
			continue
		}
		_, err := p.Exec(ctx, `
			INSERT INTO players (name, birthdate, url, active)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (name, birthdate) DO UPDATE SET
				url = EXCLUDED.url,
				active = EXCLUDED.active,
				updated_at = NOW()`,
			pl.Name, pl.Birthdate, pl.URL, pl.Active,
		)
		if err != nil {
			return written, fmt.Errorf("upsert player %s: %w", pl, err)
		}
		written++
	}
	return written, nil
}

// UpsertGames writes a season's schedule, completed or not.
func (p *Pool) UpsertGames(ctx context.Context, seasonYear int, games []*season.Game) error {
	for _, g := range games {
		var homePts, awayPts *int
		if g.Completed() {
			homePts, awayPts = &g.HomePoints, &g.AwayPoints
		}
		_, err := p.Exec(ctx, `
			INSERT INTO games (season, game_date, home, away, home_points, away_points, played)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (season, game_date, home, away) DO UPDATE SET
				home_points = EXCLUDED.home_points,
				away_points = EXCLUDED.away_points,
				played = EXCLUDED.played,
				updated_at = NOW()`,
			seasonYear, g.Date, g.Home.Abbrev, g.Away.Abbrev, homePts, awayPts, g.Completed(),
		)
		if err != nil {
			return fmt.Errorf("upsert game %s: %w", g, err)
		}
	}
	return nil
}

// UpsertEvents writes classified player events for a season.
func (p *Pool) UpsertEvents(ctx context.Context, seasonYear int, events []event.Event) error {
	for _, e := range events {
		_, err := p.Exec(ctx, `
			INSERT INTO player_events (season, event_date, kind, team, player, notes)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (season, event_date, kind, team, player) DO UPDATE SET
				notes = EXCLUDED.notes,
				updated_at = NOW()`,
			seasonYear, e.Date, e.Kind.String(), e.Team.Abbrev, e.Player.Name, e.Notes,
		)
		if err != nil {
			return fmt.Errorf("upsert event %s: %w", e, err)
		}
	}
	return nil
}

// StoreRun archives one simulation run and its per-team results,
// returning the generated run id.
func (p *Pool) StoreRun(ctx context.Context, seasonYear int, seed int64, oracle string, agg *sim.Aggregate) (uuid.UUID, error) {
	id := uuid.New()

	tx, err := p.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO sim_runs (id, season, trials, seed, oracle)
		VALUES ($1, $2, $3, $4, $5)`,
		id, seasonYear, agg.Completed, seed, oracle,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert run: %w", err)
	}

	n := float64(agg.Completed)
	for abbrev, tr := range agg.Teams {
		meanWins := 0.0
		for wins, count := range tr.RegularSeasonWins {
			meanWins += float64(wins*count) / n
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO sim_team_results
				(run_id, team, playoff_count, title_count, playoff_games_won, avg_regular_wins)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			id, abbrev, tr.PlayoffCount, tr.TitleCount(), tr.Score(), meanWins,
		)
		if err != nil {
			return uuid.Nil, fmt.Errorf("insert team result %s: %w", abbrev, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}
