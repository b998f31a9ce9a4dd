// Package season models games, team records, standings, and the
// playoff seeding rules derived from them.
package season

import (
	"fmt"
	"sort"
	"time"

	"github.com/cbuckley/courtcast/internal/team"
)

const dateLayout = "2006-01-02"

// defaultRestDays is used for a team's first game of the season and
// for synthetic games created during simulation.
const defaultRestDays = 3

// Game is one matchup. Identity is (date, home, away); point totals
// are state layered on top and never part of identity.
type Game struct {
	Date time.Time
	Home team.Team
	Away team.Team

	HomePoints int
	AwayPoints int
	played     bool

	// Days since each side's previous game, filled in by
	// AnnotateRestDays once the full schedule is known.
	HomeRestDays int
	AwayRestDays int
}

// NewGame returns an unplayed game.
func NewGame(date time.Time, home, away team.Team) *Game {
	return &Game{
		Date:         date,
		Home:         home,
		Away:         away,
		HomeRestDays: defaultRestDays,
		AwayRestDays: defaultRestDays,
	}
}

// GameKey is the comparable identity of a game.
type GameKey struct {
	Date string
	Home string
	Away string
}

func (g *Game) Key() GameKey {
	return GameKey{Date: g.Date.Format(dateLayout), Home: g.Home.Abbrev, Away: g.Away.Abbrev}
}

// Completed reports whether the game has a final score.
func (g *Game) Completed() bool { return g.played }

// SetResult records the final score. Recording twice, or recording a
// tie, is a caller bug.
func (g *Game) SetResult(homePoints, awayPoints int) {
	if g.played {
		panic(fmt.Sprintf("result already recorded for %s", g))
	}
	if homePoints == awayPoints {
		panic(fmt.Sprintf("tie score %d-%d for %s", homePoints, awayPoints, g))
	}
	g.HomePoints = homePoints
	g.AwayPoints = awayPoints
	g.played = true
}

// Involves reports whether t played in this game.
func (g *Game) Involves(t team.Team) bool { return g.Home == t || g.Away == t }

// Opponent returns the other side. Asking for a team that did not play
// is a caller bug.
func (g *Game) Opponent(t team.Team) team.Team {
	switch t {
	case g.Home:
		return g.Away
	case g.Away:
		return g.Home
	}
	panic(fmt.Sprintf("%s did not play in %s", t, g))
}

// Winner returns the winning team of a completed game.
func (g *Game) Winner() team.Team {
	g.mustBeCompleted()
	if g.HomePoints > g.AwayPoints {
		return g.Home
	}
	return g.Away
}

// Loser returns the losing team of a completed game.
func (g *Game) Loser() team.Team {
	g.mustBeCompleted()
	if g.HomePoints > g.AwayPoints {
		return g.Away
	}
	return g.Home
}

// WasWonBy reports whether t won. t must have played in the game and
// the game must be completed.
func (g *Game) WasWonBy(t team.Team) bool {
	g.mustBeCompleted()
	g.mustInvolve(t)
	return g.Winner() == t
}

// PointDifferential returns t's margin, negative for a loss. It is
// symmetric: g.PointDifferential(home) == -g.PointDifferential(away).
func (g *Game) PointDifferential(t team.Team) int {
	g.mustBeCompleted()
	g.mustInvolve(t)
	if t == g.Home {
		return g.HomePoints - g.AwayPoints
	}
	return g.AwayPoints - g.HomePoints
}

// RestDays returns t's days of rest before this game.
func (g *Game) RestDays(t team.Team) int {
	g.mustInvolve(t)
	if t == g.Home {
		return g.HomeRestDays
	}
	return g.AwayRestDays
}

// Clone returns an independent copy.
func (g *Game) Clone() *Game {
	c := *g
	return &c
}

func (g *Game) String() string {
	if g.played {
		return fmt.Sprintf("%s %s %d @ %s %d",
			g.Date.Format(dateLayout), g.Away.Abbrev, g.AwayPoints, g.Home.Abbrev, g.HomePoints)
	}
	return fmt.Sprintf("%s %s @ %s", g.Date.Format(dateLayout), g.Away.Abbrev, g.Home.Abbrev)
}

func (g *Game) mustBeCompleted() {
	if !g.played {
		panic(fmt.Sprintf("no result recorded for %s", g))
	}
}

func (g *Game) mustInvolve(t team.Team) {
	if !g.Involves(t) {
		panic(fmt.Sprintf("%s did not play in %s", t, g))
	}
}

// AnnotateRestDays fills in each side's rest days from the gaps in the
// schedule. Games are processed in date order; a team's first game
// keeps the default.
func AnnotateRestDays(games []*Game) {
	ordered := append([]*Game(nil), games...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Date.Before(ordered[j].Date) })

	last := make(map[string]time.Time)
	for _, g := range ordered {
		if prev, ok := last[g.Home.Abbrev]; ok {
			g.HomeRestDays = daysBetween(prev, g.Date)
		}
		if prev, ok := last[g.Away.Abbrev]; ok {
			g.AwayRestDays = daysBetween(prev, g.Date)
		}
		last[g.Home.Abbrev] = g.Date
		last[g.Away.Abbrev] = g.Date
	}
}

func daysBetween(a, b time.Time) int {
	return int(b.Truncate(24*time.Hour).Sub(a.Truncate(24*time.Hour)).Hours() / 24)
}
