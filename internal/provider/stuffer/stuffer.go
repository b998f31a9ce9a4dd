// Package stuffer scrapes per-player season stats from nbastuffer.com
// into team rosters with games played and minutes.
package stuffer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/cbuckley/courtcast/internal/fetch"
	"github.com/cbuckley/courtcast/internal/provider"
	"github.com/cbuckley/courtcast/internal/team"
)

// DefaultBaseURL is the production site root.
const DefaultBaseURL = "https://www.nbastuffer.com"

// Entry is one player's season line on a roster.
type Entry struct {
	Name           string
	GamesPlayed    float64
	MinutesPerGame float64
}

// Client scrapes the season player-stats page.
type Client struct {
	fetch    *fetch.Client
	registry *team.Registry
	baseURL  string
	logger   *slog.Logger
}

// New creates a roster client. An empty baseURL selects the
// production site.
func New(f *fetch.Client, registry *team.Registry, baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{fetch: f, registry: registry, baseURL: baseURL, logger: logger}
}

// Rosters fetches the player-stats page for a season slug such as
// "2024-2025" and groups entries by team abbreviation. moves reassigns
// players whose listed team has gone stale mid-season; keys are player
// names, values anything team.Registry.Parse accepts.
func (c *Client) Rosters(ctx context.Context, seasonSlug string, moves map[string]string) (map[string][]Entry, *provider.Result, error) {
	u := fmt.Sprintf("%s/%s-nba-player-stats/", c.baseURL, seasonSlug)
	text, err := c.fetch.Text(ctx, u, fetch.SameDay)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch player stats %s: %w", seasonSlug, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil, nil, fmt.Errorf("parse player stats %s: %w", seasonSlug, err)
	}

	table := doc.Find("table").FilterFunction(func(_ int, t *goquery.Selection) bool {
		return t.Find("thead th").Length() > 0
	}).First()
	if table.Length() == 0 {
		return nil, nil, fmt.Errorf("player stats %s: no stats table found", seasonSlug)
	}

	cols, err := headerColumns(table)
	if err != nil {
		return nil, nil, fmt.Errorf("player stats %s: %w", seasonSlug, err)
	}

	res := &provider.Result{}
	rosters := make(map[string][]Entry)
	table.Find("tbody tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td").Map(func(_ int, td *goquery.Selection) string {
			return provider.CleanCell(td.Text())
		})
		name, tm, entry, err := parseRow(cells, cols)
		if err != nil {
			res.AddErrorf("roster row %d: %v", i+1, err)
			res.Skipped++
			return
		}
		if override, ok := moves[name]; ok {
			tm = override
		}
		resolved, err := c.registry.Parse(strings.ToUpper(tm))
		if err != nil {
			res.AddErrorf("roster row %d (%s): %v", i+1, name, err)
			res.Skipped++
			return
		}
		rosters[resolved.Abbrev] = append(rosters[resolved.Abbrev], entry)
		res.Rows++
	})

	c.logger.Info("Loaded rosters", "season", seasonSlug, "teams", len(rosters), "summary", res.Summary())
	return rosters, res, nil
}

// columns holds the indexes of the four columns the model needs.
type columns struct {
	name, team, gp, mpg int
}

// headerColumns resolves columns by header text, so the site can add
// or reorder stat columns without breaking the parse.
func headerColumns(table *goquery.Selection) (columns, error) {
	cols := columns{name: -1, team: -1, gp: -1, mpg: -1}
	table.Find("thead th").Each(func(i int, th *goquery.Selection) {
		switch h := strings.ToUpper(provider.CleanCell(th.Text())); {
		case strings.Contains(h, "NAME") || strings.Contains(h, "PLAYER"):
			if cols.name == -1 {
				cols.name = i
			}
		case h == "TEAM":
			cols.team = i
		case h == "GP":
			cols.gp = i
		case h == "MPG":
			cols.mpg = i
		}
	})
	if cols.name == -1 || cols.team == -1 || cols.gp == -1 || cols.mpg == -1 {
		return cols, fmt.Errorf("header row missing one of NAME/TEAM/GP/MPG")
	}
	return cols, nil
}

func parseRow(cells []string, cols columns) (name, tm string, entry Entry, err error) {
	max := cols.name
	for _, i := range []int{cols.team, cols.gp, cols.mpg} {
		if i > max {
			max = i
		}
	}
	if len(cells) <= max {
		return "", "", entry, fmt.Errorf("short row (%d cells)", len(cells))
	}

	name = cells[cols.name]
	if name == "" {
		return "", "", entry, fmt.Errorf("empty player name")
	}
	gp, ok := provider.Number(cells[cols.gp])
	if !ok {
		return "", "", entry, fmt.Errorf("bad GP %q for %s", cells[cols.gp], name)
	}
	mpg, ok := provider.Number(cells[cols.mpg])
	if !ok {
		return "", "", entry, fmt.Errorf("bad MPG %q for %s", cells[cols.mpg], name)
	}
	return name, cells[cols.team], Entry{Name: name, GamesPlayed: gp, MinutesPerGame: mpg}, nil
}
