// Package raptor loads per-player impact ratings from a
// FiveThirtyEight RAPTOR CSV snapshot.
package raptor

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/cbuckley/courtcast/internal/fetch"
	"github.com/cbuckley/courtcast/internal/player"
	"github.com/cbuckley/courtcast/internal/provider"
)

// DefaultSource is the last published by-player snapshot.
const DefaultSource = "https://projects.fivethirtyeight.com/nba-model/2023/latest_RAPTOR_by_player.csv"

// Rating is one player's impact line, points per 100 possessions
// relative to league average.
type Rating struct {
	Player     string
	Minutes    float64
	Offense    float64
	Defense    float64
	Total      float64
	PaceImpact float64
}

// Client loads rating snapshots.
type Client struct {
	fetch  *fetch.Client
	logger *slog.Logger
}

// New creates a ratings client.
func New(f *fetch.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{fetch: f, logger: logger}
}

// Ratings loads a snapshot from src, a URL or a local file path, and
// resolves player names against the directory. Ratings are keyed by
// the directory's canonical player name. Unresolved names are
// reported in the result, never fatal.
func (c *Client) Ratings(ctx context.Context, src string, dir *player.Directory) (map[string]Rating, *provider.Result, error) {
	text, err := c.read(ctx, src)
	if err != nil {
		return nil, nil, fmt.Errorf("load ratings %s: %w", src, err)
	}

	records, err := csv.NewReader(strings.NewReader(text)).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse ratings csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("empty ratings csv")
	}

	col := make(map[string]int)
	for i, name := range records[0] {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"player_name", "mp", "raptor_offense", "raptor_defense", "raptor_total", "pace_impact"} {
		if _, ok := col[required]; !ok {
			return nil, nil, fmt.Errorf("ratings csv missing %q column", required)
		}
	}

	res := &provider.Result{}
	ratings := make(map[string]Rating)
	for i, rec := range records[1:] {
		name := rec[col["player_name"]]
		resolved, ok := c.resolve(dir, name)
		if !ok {
			res.AddErrorf("ratings row %d: unknown player %q", i+1, name)
			res.Skipped++
			continue
		}
		if _, dup := ratings[resolved]; dup {
			res.AddErrorf("ratings row %d: duplicate player %q", i+1, name)
			res.Skipped++
			continue
		}

		r := Rating{Player: resolved}
		fields := []struct {
			col string
			dst *float64
		}{
			{"mp", &r.Minutes},
			{"raptor_offense", &r.Offense},
			{"raptor_defense", &r.Defense},
			{"raptor_total", &r.Total},
			{"pace_impact", &r.PaceImpact},
		}
		bad := false
		for _, f := range fields {
			cell := rec[col[f.col]]
			v, ok := provider.Number(cell)
			if !ok {
				res.AddErrorf("ratings row %d (%s): bad %s %q", i+1, name, f.col, cell)
				bad = true
				break
			}
			*f.dst = v
		}
		if bad {
			res.Skipped++
			continue
		}
		ratings[resolved] = r
		res.Rows++
	}

	c.logger.Info("Loaded impact ratings", "players", len(ratings), "summary", res.Summary())
	return ratings, res, nil
}

// resolve maps a snapshot name onto the directory. An exact lookup
// wins; otherwise the fragment vote must pick exactly one player.
func (c *Client) resolve(dir *player.Directory, name string) (string, bool) {
	p, err := dir.Lookup(name)
	if err == nil {
		return p.Name, true
	}
	candidates := dir.CandidateMatches(name)
	if len(candidates) == 1 {
		return candidates[0].Name, true
	}
	return "", false
}

func (c *Client) read(ctx context.Context, src string) (string, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return c.fetch.Text(ctx, src, fetch.Forever)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
