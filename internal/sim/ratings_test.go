package sim

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbuckley/courtcast/internal/season"
	"github.com/cbuckley/courtcast/internal/team"
)

func playedOn(date time.Time, home, away team.Team, homePts, awayPts int) *season.Game {
	g := season.NewGame(date, home, away)
	g.SetResult(homePts, awayPts)
	return g
}

func TestWinMatrix(t *testing.T) {
	reg := simRegistry(t)
	east := reg.ConferenceTeams(team.Eastern)
	a, b, c := east[0], east[1], east[2]
	asOf := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)

	games := []*season.Game{
		playedOn(asOf.AddDate(0, 0, -1), a, b, 100, 90),
		playedOn(asOf.AddDate(0, 0, -2), b, a, 90, 100),
		playedOn(asOf.AddDate(0, 0, -3), a, b, 95, 100),
		season.NewGame(asOf, a, c), // unplayed, ignored
	}

	w := WinMatrix([]team.Team{a, b, c}, games, asOf, 0)
	assert.Equal(t, 2.0, w.At(0, 1))
	assert.Equal(t, 1.0, w.At(1, 0))
	assert.Equal(t, 0.0, w.At(0, 2))

	// A one-day half life discounts each win by 2^-daysAgo.
	weighted := WinMatrix([]team.Team{a, b, c}, games, asOf, 1)
	assert.InDelta(t, 0.5+0.25, weighted.At(0, 1), 1e-12)
	assert.InDelta(t, 0.125, weighted.At(1, 0), 1e-12)
}

func TestFitRatingsTwoTeams(t *testing.T) {
	reg := simRegistry(t)
	east := reg.ConferenceTeams(team.Eastern)
	a, b := east[0], east[1]
	day := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	// a beats b twice, loses once. The maximum-likelihood strengths
	// satisfy a/(a+b) = 2/3, so a is exactly twice b.
	games := []*season.Game{
		playedOn(day, a, b, 100, 90),
		playedOn(day.AddDate(0, 0, 1), b, a, 90, 100),
		playedOn(day.AddDate(0, 0, 2), a, b, 95, 100),
	}

	r, err := FitRatings([]team.Team{a, b}, games, day.AddDate(0, 0, 3), 0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r.Strength(b), 1e-6, "weakest team normalizes to 1")
	assert.InDelta(t, 2.0, r.Strength(a), 1e-3)
	assert.Greater(t, r.Iterations(), 0)
}

func TestFitRatingsIdleTeam(t *testing.T) {
	reg := simRegistry(t)
	east := reg.ConferenceTeams(team.Eastern)
	a, b, c := east[0], east[1], east[2]
	day := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	// c has played nothing yet; the fit runs over a and b alone and
	// c keeps strength 1 alongside the normalized weakest team.
	games := []*season.Game{
		playedOn(day, a, b, 100, 90),
		playedOn(day.AddDate(0, 0, 1), b, a, 90, 100),
		playedOn(day.AddDate(0, 0, 2), a, b, 95, 100),
		season.NewGame(day.AddDate(0, 0, 3), a, c),
	}
	r, err := FitRatings([]team.Team{a, b, c}, games, day.AddDate(0, 0, 4), 0)
	require.NoError(t, err)

	assert.Equal(t, 1.0, r.Strength(c), "idle team keeps strength 1")
	assert.InDelta(t, 1.0, r.Strength(b), 1e-6)
	assert.InDelta(t, 2.0, r.Strength(a), 1e-3)

	// The oracle stays a probability even against the idle team.
	p := NewRatingsOracle(r).HomeWinProbability(season.NewGame(day.AddDate(0, 0, 5), a, c))
	assert.Greater(t, p, 0.0)
	assert.Less(t, p, 1.0)
	assert.False(t, math.IsNaN(p))
}

func TestFitRatingsNoCompletedGames(t *testing.T) {
	reg := simRegistry(t)
	east := reg.ConferenceTeams(team.Eastern)
	a, b := east[0], east[1]
	day := time.Date(2024, time.October, 22, 0, 0, 0, 0, time.UTC)

	// A full schedule with nothing played yet must refuse to fit
	// rather than hand back unusable strengths.
	schedule := []*season.Game{
		season.NewGame(day, a, b),
		season.NewGame(day.AddDate(0, 0, 1), b, a),
	}
	_, err := FitRatings([]team.Team{a, b}, schedule, day, 0)
	assert.ErrorContains(t, err, "no completed games")

	_, err = FitRatings([]team.Team{a, b}, nil, day, 0)
	assert.ErrorContains(t, err, "no completed games")
}

func TestFitRatingsOrdering(t *testing.T) {
	reg := simRegistry(t)
	east := reg.ConferenceTeams(team.Eastern)
	teams := east[:4]
	day := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	// A round robin where each team beats everyone below it, plus one
	// upset that should not flip the overall ordering.
	var games []*season.Game
	n := 0
	for i := 0; i < len(teams); i++ {
		for j := i + 1; j < len(teams); j++ {
			for k := 0; k < 2; k++ {
				games = append(games, playedOn(day.AddDate(0, 0, n), teams[i], teams[j], 100, 90))
				n++
			}
		}
	}
	games = append(games, playedOn(day.AddDate(0, 0, n), teams[3], teams[0], 100, 90))

	r, err := FitRatings(teams, games, day.AddDate(0, 0, n+1), 0)
	require.NoError(t, err)
	for i := 0; i < len(teams)-1; i++ {
		assert.Greater(t, r.Strength(teams[i]), r.Strength(teams[i+1]),
			"%s should rate above %s", teams[i], teams[i+1])
	}

	_, err = FitRatings(teams[:1], games, day, 0)
	assert.Error(t, err)
}

func TestRatingsOracle(t *testing.T) {
	reg := simRegistry(t)
	east := reg.ConferenceTeams(team.Eastern)
	a, b := east[0], east[1]
	day := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	games := []*season.Game{
		playedOn(day, a, b, 100, 90),
		playedOn(day.AddDate(0, 0, 1), b, a, 90, 100),
		playedOn(day.AddDate(0, 0, 2), a, b, 95, 100),
	}
	r, err := FitRatings([]team.Team{a, b}, games, day.AddDate(0, 0, 3), 0)
	require.NoError(t, err)
	oracle := NewRatingsOracle(r)

	strongHome := season.NewGame(day.AddDate(0, 0, 10), a, b)
	weakHome := season.NewGame(day.AddDate(0, 0, 10), b, a)
	pStrong := oracle.HomeWinProbability(strongHome)
	pWeak := oracle.HomeWinProbability(weakHome)

	assert.Greater(t, pStrong, 0.5)
	assert.Greater(t, pStrong, pWeak)
	assert.Less(t, pStrong, 1.0)
	assert.Greater(t, pWeak, 0.0)
}
