// Package fixturedl loads season schedules from the fixturedownload.com
// CSV feed.
package fixturedl

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/cbuckley/courtcast/internal/fetch"
	"github.com/cbuckley/courtcast/internal/provider"
	"github.com/cbuckley/courtcast/internal/season"
	"github.com/cbuckley/courtcast/internal/team"
)

// DefaultBaseURL is the production feed root.
const DefaultBaseURL = "https://fixturedownload.com/download"

// dateLayout covers the feed's day-first timestamps, EST wall time.
const dateLayout = "02/01/2006 15:04"

// Client fetches and parses schedule CSVs.
type Client struct {
	fetch    *fetch.Client
	registry *team.Registry
	baseURL  string
	logger   *slog.Logger
}

// New creates a schedule client. An empty baseURL selects the
// production feed.
func New(f *fetch.Client, registry *team.Registry, baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{fetch: f, registry: registry, baseURL: baseURL, logger: logger}
}

// Season fetches the schedule for the season starting in year. Played
// games carry their final score; future games are scheduled only.
// The feed gains results daily, so it caches for a day at most.
func (c *Client) Season(ctx context.Context, year int) ([]*season.Game, *provider.Result, error) {
	u := fmt.Sprintf("%s/nba-%d-EST.csv", c.baseURL, year)
	text, err := c.fetch.Text(ctx, u, fetch.SameDay)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch schedule %d: %w", year, err)
	}

	games, res, err := c.parse(text)
	if err != nil {
		return nil, nil, fmt.Errorf("parse schedule %d: %w", year, err)
	}
	c.logger.Info("Loaded schedule", "season", year, "games", len(games), "summary", res.Summary())
	return games, res, nil
}

func (c *Client) parse(text string) ([]*season.Game, *provider.Result, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("empty schedule feed")
	}

	col := make(map[string]int)
	for i, name := range records[0] {
		col[provider.CleanCell(name)] = i
	}
	for _, required := range []string{"Date", "Home Team", "Away Team", "Result"} {
		if _, ok := col[required]; !ok {
			return nil, nil, fmt.Errorf("schedule feed missing %q column", required)
		}
	}

	res := &provider.Result{}
	var games []*season.Game
	for i, rec := range records[1:] {
		g, err := c.parseRow(rec, col)
		if err != nil {
			res.AddErrorf("schedule row %d: %v", i+1, err)
			res.Skipped++
			continue
		}
		games = append(games, g)
		res.Rows++
	}
	return games, res, nil
}

func (c *Client) parseRow(rec []string, col map[string]int) (*season.Game, error) {
	cell := func(name string) string {
		i := col[name]
		if i >= len(rec) {
			return ""
		}
		return provider.CleanCell(rec[i])
	}

	date, err := time.Parse(dateLayout, cell("Date"))
	if err != nil {
		return nil, fmt.Errorf("bad date %q: %w", cell("Date"), err)
	}
	home, err := c.registry.Parse(cell("Home Team"))
	if err != nil {
		return nil, err
	}
	away, err := c.registry.Parse(cell("Away Team"))
	if err != nil {
		return nil, err
	}

	g := season.NewGame(date, home, away)
	if result := cell("Result"); result != "" {
		hp, ap, err := parseResult(result)
		if err != nil {
			return nil, err
		}
		g.SetResult(hp, ap)
	}
	return g, nil
}

// parseResult splits a "126 - 117" score cell, home points first.
func parseResult(s string) (home, away int, err error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("bad result %q", s)
	}
	home, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("bad result %q", s)
	}
	away, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("bad result %q", s)
	}
	if home == away {
		return 0, 0, fmt.Errorf("tied result %q", s)
	}
	return home, away, nil
}
