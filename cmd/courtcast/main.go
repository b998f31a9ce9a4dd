// Command courtcast is the pipeline CLI: scrape, classify, seed,
// simulate, archive.
//
// Usage:
//
//	courtcast standings --season 2024
//	courtcast seeding --season 2024
//	courtcast players --archive
//	courtcast events --season 2024
//	courtcast simulate --trials 10000 --oracle efficiency --wager wager.yaml
//	courtcast archive --season 2024
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cbuckley/courtcast/internal/archive"
	"github.com/cbuckley/courtcast/internal/config"
	"github.com/cbuckley/courtcast/internal/event"
	"github.com/cbuckley/courtcast/internal/fetch"
	"github.com/cbuckley/courtcast/internal/player"
	"github.com/cbuckley/courtcast/internal/provider"
	"github.com/cbuckley/courtcast/internal/provider/bbref"
	"github.com/cbuckley/courtcast/internal/provider/fixturedl"
	"github.com/cbuckley/courtcast/internal/provider/pst"
	"github.com/cbuckley/courtcast/internal/provider/raptor"
	"github.com/cbuckley/courtcast/internal/provider/stuffer"
	"github.com/cbuckley/courtcast/internal/season"
	"github.com/cbuckley/courtcast/internal/sim"
	"github.com/cbuckley/courtcast/internal/team"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "courtcast",
		Short: "NBA season scraping, seeding, and playoff simulation",
	}

	root.AddCommand(teamsCmd())
	root.AddCommand(standingsCmd())
	root.AddCommand(seedingCmd())
	root.AddCommand(playersCmd())
	root.AddCommand(eventsCmd())
	root.AddCommand(simulateCmd())
	root.AddCommand(archiveCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// pipeline holds the collaborators every subcommand shares.
type pipeline struct {
	cfg      *config.Config
	registry *team.Registry
	fetch    *fetch.Client
}

// runPipeline handles config loading, registry and fetch setup, and
// context cancellation, then reports cache statistics.
func runPipeline(fn func(ctx context.Context, p *pipeline) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	registry, err := team.NewRegistry()
	if err != nil {
		return fmt.Errorf("build team registry: %w", err)
	}
	cache, err := fetch.NewCache(cfg.CacheDir)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	client := fetch.NewClient(cache, cfg.FetchRequestsPerMinute, logger)
	if cfg.UserAgent != "" {
		client.SetUserAgent(cfg.UserAgent)
	}

	p := &pipeline{cfg: cfg, registry: registry, fetch: client}
	if err := fn(ctx, p); err != nil {
		return err
	}

	stats := client.Stats()
	if stats.Hits+stats.Misses > 0 {
		logger.Info("Fetch cache", "hits", stats.Hits, "misses", stats.Misses)
	}
	return nil
}

// loadSchedule fetches a season's schedule and annotates rest days.
func loadSchedule(ctx context.Context, p *pipeline, year int) ([]*season.Game, error) {
	games, res, err := fixturedl.New(p.fetch, p.registry, "", logger).Season(ctx, year)
	if err != nil {
		return nil, err
	}
	logResult("Schedule", res)
	season.AnnotateRestDays(games)
	return games, nil
}

// buildStandings folds a schedule's completed games into standings.
func buildStandings(p *pipeline, games []*season.Game) (*season.Standings, error) {
	completed := make([]*season.Game, 0, len(games))
	for _, g := range games {
		if g.Completed() {
			completed = append(completed, g)
		}
	}
	return season.NewStandings(p.registry, completed)
}

// loadDirectory crawls the player index.
func loadDirectory(ctx context.Context, p *pipeline) (*player.Directory, error) {
	dir, res, err := bbref.New(p.fetch, "", logger).Directory(ctx)
	if err != nil {
		return nil, err
	}
	logResult("Player directory", res)
	logger.Info("Directory built", "players", dir.Len())
	return dir, nil
}

// seasonWindow is the transaction date range for a season: opening
// camp through the end of the Finals.
func seasonWindow(year int) (from, to time.Time) {
	from = time.Date(year, time.October, 1, 0, 0, 0, 0, time.UTC)
	to = time.Date(year+1, time.June, 30, 0, 0, 0, 0, time.UTC)
	if now := time.Now().UTC(); to.After(now) {
		to = now
	}
	return from, to
}

func logResult(stage string, res *provider.Result) {
	logger.Info(stage+" parsed", "summary", res.Summary())
	for _, e := range res.Errors {
		logger.Warn(stage+" row failed", "error", e)
	}
}

// --------------------------------------------------------------------------
// teams command
// --------------------------------------------------------------------------

func teamsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "teams",
		Short: "Print the team registry grouped by conference and division",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(func(ctx context.Context, p *pipeline) error {
				tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				for _, conf := range []team.Conference{team.Eastern, team.Western} {
					fmt.Fprintf(tw, "%s\n", conf)
					teams := p.registry.ConferenceTeams(conf)
					sort.SliceStable(teams, func(i, j int) bool {
						if teams[i].Division != teams[j].Division {
							return teams[i].Division < teams[j].Division
						}
						return teams[i].Abbrev < teams[j].Abbrev
					})
					for _, t := range teams {
						fmt.Fprintf(tw, "\t%s\t%s\t%s\n", t.Abbrev, t.Name, t.Division)
					}
				}
				fmt.Fprintln(tw, "Defunct")
				for _, t := range p.registry.All() {
					if t.Defunct() {
						fmt.Fprintf(tw, "\t%s\t%s\n", t.Abbrev, t.Name)
					}
				}
				return tw.Flush()
			})
		},
	}
}

// --------------------------------------------------------------------------
// standings / seeding commands
// --------------------------------------------------------------------------

func standingsCmd() *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "standings",
		Short: "Fetch the season schedule and print conference standings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(func(ctx context.Context, p *pipeline) error {
				if year == 0 {
					year = p.cfg.Season
				}
				games, err := loadSchedule(ctx, p, year)
				if err != nil {
					return err
				}
				standings, err := buildStandings(p, games)
				if err != nil {
					return err
				}
				return sim.WriteStandings(os.Stdout, standings)
			})
		},
	}
	cmd.Flags().IntVar(&year, "season", 0, "Season start year (default from config)")
	return cmd
}

func seedingCmd() *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "seeding",
		Short: "Print the ten playoff seeds per conference after tiebreaks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(func(ctx context.Context, p *pipeline) error {
				if year == 0 {
					year = p.cfg.Season
				}
				games, err := loadSchedule(ctx, p, year)
				if err != nil {
					return err
				}
				standings, err := buildStandings(p, games)
				if err != nil {
					return err
				}
				return sim.WriteSeeding(os.Stdout, standings.PlayoffSeeding())
			})
		},
	}
	cmd.Flags().IntVar(&year, "season", 0, "Season start year (default from config)")
	return cmd
}

// --------------------------------------------------------------------------
// players command
// --------------------------------------------------------------------------

func playersCmd() *cobra.Command {
	var archiveRun bool
	cmd := &cobra.Command{
		Use:   "players",
		Short: "Crawl the player index and build the identity directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(func(ctx context.Context, p *pipeline) error {
				dir, err := loadDirectory(ctx, p)
				if err != nil {
					return err
				}
				if !archiveRun {
					return nil
				}
				pool, err := archive.New(ctx, p.cfg)
				if err != nil {
					return err
				}
				defer pool.Close()
				if err := pool.EnsureSchema(ctx); err != nil {
					return err
				}
				written, err := pool.UpsertPlayers(ctx, dir.All())
				if err != nil {
					return err
				}
				logger.Info("Players archived", "written", written)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&archiveRun, "archive", false, "Upsert the directory into Postgres")
	return cmd
}

// --------------------------------------------------------------------------
// events command
// --------------------------------------------------------------------------

func eventsCmd() *cobra.Command {
	var year int
	var archiveRun bool
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Fetch and classify the season's transaction feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(func(ctx context.Context, p *pipeline) error {
				if year == 0 {
					year = p.cfg.Season
				}
				dir, err := loadDirectory(ctx, p)
				if err != nil {
					return err
				}
				rules, err := event.DefaultRules()
				if err != nil {
					return err
				}
				classifier := event.NewClassifier(p.registry, dir, rules, logger)
				from, to := seasonWindow(year)

				start := time.Now()
				events, res, err := event.Collect(ctx, pst.New(p.fetch, "", logger), classifier, from, to)
				if err != nil {
					return err
				}
				logResult("Transactions", res)

				byKind := make(map[string]int)
				for _, e := range events {
					byKind[e.Kind.String()]++
				}
				tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintf(tw, "Events:\t%d\n", len(events))
				for _, k := range sortedKeys(byKind) {
					fmt.Fprintf(tw, "  %s:\t%d\n", k, byKind[k])
				}
				tw.Flush()
				logger.Info("Events classified",
					"events", len(events), "duration", time.Since(start).Round(time.Second))

				if !archiveRun {
					return nil
				}
				pool, err := archive.New(ctx, p.cfg)
				if err != nil {
					return err
				}
				defer pool.Close()
				if err := pool.EnsureSchema(ctx); err != nil {
					return err
				}
				if err := pool.UpsertEvents(ctx, year, events); err != nil {
					return err
				}
				logger.Info("Events archived", "events", len(events))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&year, "season", 0, "Season start year (default from config)")
	cmd.Flags().BoolVar(&archiveRun, "archive", false, "Upsert classified events into Postgres")
	return cmd
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// --------------------------------------------------------------------------
// simulate command
// --------------------------------------------------------------------------

func simulateCmd() *cobra.Command {
	var (
		year       int
		trials     int
		workers    int
		seed       int64
		oracleName string
		wagerPath  string
		archiveRun bool
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run Monte Carlo trials over the rest of the season and playoffs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(func(ctx context.Context, p *pipeline) error {
				if year == 0 {
					year = p.cfg.Season
				}
				if trials == 0 {
					trials = p.cfg.SimTrials
				}
				if workers == 0 {
					workers = p.cfg.SimWorkers
				}
				if seed == 0 {
					seed = p.cfg.SimSeed
				}
				if wagerPath == "" {
					wagerPath = p.cfg.WagerPath
				}

				games, err := loadSchedule(ctx, p, year)
				if err != nil {
					return err
				}
				standings, err := buildStandings(p, games)
				if err != nil {
					return err
				}

				regular, playoff, err := buildOracle(ctx, p, oracleName, games)
				if err != nil {
					return err
				}

				var wager *sim.Wager
				if wagerPath != "" {
					wager, err = sim.LoadWager(wagerPath, p.registry)
					if err != nil {
						return err
					}
				}

				agg, err := sim.Run(ctx, standings, games, sim.Config{
					Oracle:        regular,
					PlayoffOracle: playoff,
					Trials:        trials,
					Workers:       workers,
					Seed:          seed,
					Wager:         wager,
					Logger:        logger,
				})
				if err != nil {
					return err
				}
				if err := agg.WriteReport(os.Stdout); err != nil {
					return err
				}

				if !archiveRun {
					return nil
				}
				pool, err := archive.New(ctx, p.cfg)
				if err != nil {
					return err
				}
				defer pool.Close()
				if err := pool.EnsureSchema(ctx); err != nil {
					return err
				}
				id, err := pool.StoreRun(ctx, year, seed, oracleName, agg)
				if err != nil {
					return err
				}
				logger.Info("Run archived", "id", id)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&year, "season", 0, "Season start year (default from config)")
	cmd.Flags().IntVar(&trials, "trials", 0, "Trial count (default from config)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent worker count (default from config)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (default from config)")
	cmd.Flags().StringVar(&oracleName, "oracle", "ratings", "Win-probability model: ratings or efficiency")
	cmd.Flags().StringVar(&wagerPath, "wager", "", "Wager config YAML (default from config)")
	cmd.Flags().BoolVar(&archiveRun, "archive", false, "Store the run in Postgres")
	return cmd
}

// buildOracle constructs the requested win-probability model. The
// efficiency model additionally needs the player directory, rosters,
// and impact ratings.
func buildOracle(ctx context.Context, p *pipeline, name string, games []*season.Game) (regular, playoff sim.Oracle, err error) {
	switch name {
	case "ratings":
		fitted, err := sim.FitRatings(p.registry.Current(), games, time.Now().UTC(), 0)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Ratings fitted", "iterations", fitted.Iterations())
		oracle := sim.NewRatingsOracle(fitted)
		return oracle, oracle, nil

	case "efficiency":
		if p.cfg.RaptorSource == "" {
			return nil, nil, fmt.Errorf("efficiency oracle needs RAPTOR_SOURCE (a CSV path or URL)")
		}
		dir, err := loadDirectory(ctx, p)
		if err != nil {
			return nil, nil, err
		}
		rules, err := event.DefaultRules()
		if err != nil {
			return nil, nil, err
		}
		rosters, res, err := stuffer.New(p.fetch, p.registry, "", logger).Rosters(ctx, p.cfg.SeasonSlug(), rules.PlayerMoves())
		if err != nil {
			return nil, nil, err
		}
		logResult("Rosters", res)
		ratings, res, err := raptor.New(p.fetch, logger).Ratings(ctx, p.cfg.RaptorSource, dir)
		if err != nil {
			return nil, nil, err
		}
		logResult("Impact ratings", res)
		models, res, err := sim.BuildTeamModels(p.registry, rosters, ratings, dir, sim.SeasonMinutes)
		if err != nil {
			return nil, nil, err
		}
		logResult("Team models", res)
		oracle := sim.NewEfficiencyOracle(models)
		return oracle, oracle.Playoffs(), nil
	}
	return nil, nil, fmt.Errorf("unknown oracle %q (want ratings or efficiency)", name)
}

// --------------------------------------------------------------------------
// archive command
// --------------------------------------------------------------------------

func archiveCmd() *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Push the season's teams, games, players, and events into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(func(ctx context.Context, p *pipeline) error {
				if year == 0 {
					year = p.cfg.Season
				}
				pool, err := archive.New(ctx, p.cfg)
				if err != nil {
					return err
				}
				defer pool.Close()
				if err := pool.EnsureSchema(ctx); err != nil {
					return err
				}

				start := time.Now()
				if err := pool.UpsertTeams(ctx, p.registry.All()); err != nil {
					return err
				}

				games, err := loadSchedule(ctx, p, year)
				if err != nil {
					return err
				}
				if err := pool.UpsertGames(ctx, year, games); err != nil {
					return err
				}

				dir, err := loadDirectory(ctx, p)
				if err != nil {
					return err
				}
				written, err := pool.UpsertPlayers(ctx, dir.All())
				if err != nil {
					return err
				}

				rules, err := event.DefaultRules()
				if err != nil {
					return err
				}
				classifier := event.NewClassifier(p.registry, dir, rules, logger)
				from, to := seasonWindow(year)
				events, res, err := event.Collect(ctx, pst.New(p.fetch, "", logger), classifier, from, to)
				if err != nil {
					return err
				}
				logResult("Transactions", res)
				if err := pool.UpsertEvents(ctx, year, events); err != nil {
					return err
				}

				logger.Info("Archive complete",
					"season", year, "games", len(games), "players", written,
					"events", len(events), "duration", time.Since(start).Round(time.Second))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&year, "season", 0, "Season start year (default from config)")
	return cmd
}
