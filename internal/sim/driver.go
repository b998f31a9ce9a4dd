package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/cbuckley/courtcast/internal/season"
	"github.com/cbuckley/courtcast/internal/team"
)

// Home games for the higher seed in a best-of-seven, the 2-2-1-1-1
// format.
var seriesHomePattern = [7]bool{true, true, false, false, true, false, true}

// PlayoffRecord is the outcome of one simulated trial: the final
// regular-season standings, each bracket team's conference seed and
// playoff win count, and a line per completed series.
type PlayoffRecord struct {
	Standings *season.Standings
	Seeds     map[team.Team]int
	WinCounts map[team.Team]int
	Log       []string
}

func newPlayoffRecord(standings *season.Standings, east, west []team.Team) *PlayoffRecord {
	r := &PlayoffRecord{
		Standings: standings,
		Seeds:     make(map[team.Team]int, len(east)+len(west)),
		WinCounts: make(map[team.Team]int, len(east)+len(west)),
	}
	for i, t := range east {
		r.Seeds[t] = i + 1
		r.WinCounts[t] = 0
	}
	for i, t := range west {
		r.Seeds[t] = i + 1
		r.WinCounts[t] = 0
	}
	return r
}

// update folds one round's win counts in and logs each series.
func (r *PlayoffRecord) update(teams []team.Team, wins map[team.Team]int) {
	for t, n := range wins {
		r.WinCounts[t] += n
	}
	n := len(teams)
	for k := 0; k < n/2; k++ {
		top, bot := teams[k], teams[n-k-1]
		if wins[top] == 4 {
			r.Log = append(r.Log, fmt.Sprintf("%s(%d) def. %s(%d) %d-%d",
				top.Abbrev, r.Seeds[top], bot.Abbrev, r.Seeds[bot], wins[top], wins[bot]))
		} else {
			r.Log = append(r.Log, fmt.Sprintf("%s(%d) def. %s(%d) %d-%d",
				bot.Abbrev, r.Seeds[bot], top.Abbrev, r.Seeds[top], wins[bot], wins[top]))
		}
	}
}

// Champion returns the team that won sixteen playoff games, if the
// record has one.
func (r *PlayoffRecord) Champion() (team.Team, bool) {
	for t, n := range r.WinCounts {
		if n == 16 {
			return t, true
		}
	}
	return team.Team{}, false
}

// draw resolves one game with the oracle and a Bernoulli draw,
// recording a minimal synthetic margin.
func draw(g *season.Game, o Oracle, rng *rand.Rand) {
	if rng.Float64() < o.HomeWinProbability(g) {
		g.SetResult(1, 0)
	} else {
		g.SetResult(0, 1)
	}
}

// simulateRemaining draws every incomplete game in date order and
// applies the results to the standings.
func simulateRemaining(standings *season.Standings, schedule []*season.Game, o Oracle, rng *rand.Rand) error {
	remaining := make([]*season.Game, 0, len(schedule))
	for _, g := range schedule {
		if !g.Completed() {
			remaining = append(remaining, g.Clone())
		}
	}
	sort.SliceStable(remaining, func(i, j int) bool { return remaining[i].Date.Before(remaining[j].Date) })
	for _, g := range remaining {
		draw(g, o, rng)
		if err := standings.Update(g); err != nil {
			return err
		}
	}
	return nil
}

// simulatePlayIn turns a ten-seed conference into its eight bracket
// teams. 7 hosts 8 for the seven seed; the loser hosts the winner of
// 9 at 10 for the eight seed.
func simulatePlayIn(seeding []team.Team, o Oracle, rng *rand.Rand) ([]team.Team, error) {
	if len(seeding) != 10 {
		return nil, fmt.Errorf("play-in needs 10 seeds, got %d", len(seeding))
	}
	sevenEight := playInGame(seeding[6], seeding[7], o, rng)
	nineTen := playInGame(seeding[8], seeding[9], o, rng)
	elimination := playInGame(sevenEight.Loser(), nineTen.Winner(), o, rng)

	bracket := append([]team.Team(nil), seeding[:6]...)
	return append(bracket, sevenEight.Winner(), elimination.Winner()), nil
}

func playInGame(home, away team.Team, o Oracle, rng *rand.Rand) *season.Game {
	g := season.NewGame(time.Time{}, home, away)
	draw(g, o, rng)
	return g
}

// simulateRound plays one bracket round: seed k against seed n-1-k,
// best of seven, higher seed's home games per seriesHomePattern.
// Winners are returned in seed order.
func simulateRound(teams []team.Team, rec *PlayoffRecord, o Oracle, rng *rand.Rand) []team.Team {
	wins := make(map[team.Team]int, len(teams))
	n := len(teams)
	for i := 0; i < n/2; i++ {
		top, bot := teams[i], teams[n-1-i]
		for _, topHome := range seriesHomePattern {
			home, away := top, bot
			if !topHome {
				home, away = bot, top
			}
			g := season.NewGame(time.Time{}, home, away)
			draw(g, o, rng)
			wins[g.Winner()]++
			if wins[g.Winner()] == 4 {
				break
			}
		}
	}
	winners := make([]team.Team, 0, n/2)
	for _, t := range teams {
		if wins[t] == 4 {
			winners = append(winners, t)
		}
	}
	rec.update(teams, wins)
	return winners
}

// SimulateTrial runs one full trial: remaining schedule, seeding,
// play-in, bracket, finals. The caller's standings and schedule are
// never mutated.
func SimulateTrial(base *season.Standings, schedule []*season.Game, regular, playoff Oracle, rng *rand.Rand) (*PlayoffRecord, error) {
	if playoff == nil {
		playoff = regular
	}
	standings := base.Clone()
	if err := simulateRemaining(standings, schedule, regular, rng); err != nil {
		return nil, err
	}

	seeding := standings.PlayoffSeeding()
	east, err := simulatePlayIn(seeding.Conference(team.Eastern), playoff, rng)
	if err != nil {
		return nil, fmt.Errorf("East play-in: %w", err)
	}
	west, err := simulatePlayIn(seeding.Conference(team.Western), playoff, rng)
	if err != nil {
		return nil, fmt.Errorf("West play-in: %w", err)
	}

	rec := newPlayoffRecord(standings, east, west)
	for len(east) > 1 {
		east = simulateRound(east, rec, playoff, rng)
		west = simulateRound(west, rec, playoff, rng)
	}

	home := standings.HomeCourt(east[0], west[0])
	away := east[0]
	if home == east[0] {
		away = west[0]
	}
	simulateRound([]team.Team{home, away}, rec, playoff, rng)
	return rec, nil
}

// Config drives a Monte Carlo run.
type Config struct {
	Oracle        Oracle
	PlayoffOracle Oracle // nil means Oracle
	Trials        int
	Workers       int
	Seed          int64
	Wager         *Wager
	Logger        *slog.Logger
}

// Run simulates cfg.Trials independent trials on a worker pool and
// aggregates them. Each trial draws from its own generator seeded by
// (cfg.Seed, trial index), so results for a fixed seed do not depend
// on worker scheduling.
func Run(ctx context.Context, standings *season.Standings, schedule []*season.Game, cfg Config) (*Aggregate, error) {
	if cfg.Oracle == nil {
		return nil, fmt.Errorf("simulation needs an oracle")
	}
	if cfg.Trials < 1 {
		return nil, fmt.Errorf("trials must be positive, got %d", cfg.Trials)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > cfg.Trials {
		workers = cfg.Trials
	}

	start := time.Now()
	agg := newAggregate(standings.Registry(), cfg.Trials, cfg.Wager)

	trials := make(chan int, cfg.Trials)
	for i := 0; i < cfg.Trials; i++ {
		trials <- i
	}
	close(trials)

	var mu sync.Mutex
	var wg sync.WaitGroup
	var firstErr error

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for trial := range trials {
				if ctx.Err() != nil {
					return
				}
				rng := rand.New(rand.NewSource(cfg.Seed + int64(trial)))
				rec, err := SimulateTrial(standings, schedule, cfg.Oracle, cfg.PlayoffOracle, rng)

				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = fmt.Errorf("trial %d: %w", trial, err)
					}
				} else {
					agg.update(trial, rec)
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}
	logger.Info("Simulation complete",
		"trials", cfg.Trials, "workers", workers, "duration", time.Since(start).Round(time.Millisecond))
	return agg, nil
}
