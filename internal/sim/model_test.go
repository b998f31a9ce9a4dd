package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbuckley/courtcast/internal/player"
	"github.com/cbuckley/courtcast/internal/provider/raptor"
	"github.com/cbuckley/courtcast/internal/provider/stuffer"
	"github.com/cbuckley/courtcast/internal/season"
	"github.com/cbuckley/courtcast/internal/team"
)

func TestLogOddsRoundTrip(t *testing.T) {
	for _, p := range []float64{0.01, 0.25, 0.5, 0.75, 0.99} {
		assert.InDelta(t, p, fromLogOdds(logOdds(p)), 1e-12)
	}
	assert.InDelta(t, 0.0, logOdds(0.5), 1e-12)
	assert.Negative(t, logOdds(0.25))
	assert.Positive(t, logOdds(0.75))
}

func TestProjectMinutesSeasonScaling(t *testing.T) {
	lines := []PlayerLine{
		{Player: player.Player{Name: "A Starter"}, Rating: raptor.Rating{Minutes: 3000}},
		{Player: player.Player{Name: "B Bench"}, Rating: raptor.Rating{Minutes: 1000}},
	}
	minutes, err := projectMinutes(lines, SeasonMinutes)
	require.NoError(t, err)

	total := avgMinutesPerGame * playersOnCourt
	assert.InDelta(t, total*0.75, minutes["A Starter"], 1e-9)
	assert.InDelta(t, total*0.25, minutes["B Bench"], 1e-9)

	_, err = projectMinutes(nil, SeasonMinutes)
	assert.Error(t, err)
	_, err = projectMinutes([]PlayerLine{{Player: player.Player{Name: "X"}}}, SeasonMinutes)
	assert.Error(t, err, "zero season minutes cannot be scaled")
}

func TestProjectMinutesImpactRank(t *testing.T) {
	// Nine players at 40 adjusted minutes fill 240 with 20 left for
	// the lowest-rated tenth man.
	var lines []PlayerLine
	for i := 0; i < 10; i++ {
		lines = append(lines, PlayerLine{
			Player:         player.Player{Name: string(rune('A' + i))},
			GamesPlayed:    80,
			MinutesPerGame: 41.0,
			Rating:         raptor.Rating{Total: float64(10 - i)},
		})
	}
	minutes, err := projectMinutes(lines, ImpactRank)
	require.NoError(t, err)

	capped := lines[0].adjustedMPG()
	for i := 0; i < 6; i++ {
		assert.InDelta(t, capped, minutes[lines[i].Player.Name], 1e-9)
	}
	sum := 0.0
	for _, m := range minutes {
		sum += m
	}
	assert.InDelta(t, avgMinutesPerGame*playersOnCourt, sum, 1e-9)

	// A two-man roster cannot cover the minutes.
	_, err = projectMinutes(lines[:2], ImpactRank)
	assert.ErrorContains(t, err, "roster too thin")
}

func TestNewTeamModelAdjustments(t *testing.T) {
	reg := simRegistry(t)
	bos := reg.ConferenceTeams(team.Eastern)[0]

	lines := []PlayerLine{{
		Player: player.Player{Name: "Whole Team"},
		Rating: raptor.Rating{Minutes: 2000, Offense: 2.0, Defense: 1.0, PaceImpact: -0.5},
	}}
	m, err := NewTeamModel(bos, lines, SeasonMinutes)
	require.NoError(t, err)

	// One player soaking all 241.5 minutes carries a five-man share.
	assert.InDelta(t, playersOnCourt*2.0, m.OffenseAdj, 1e-9)
	assert.InDelta(t, playersOnCourt*1.0, m.DefenseAdj, 1e-9)
	assert.InDelta(t, avgPointsPer100+playersOnCourt*2.0, m.Offense(), 1e-9)
	assert.InDelta(t, avgPointsPer100-playersOnCourt*1.0, m.Defense(), 1e-9)
	assert.InDelta(t, avgPossessions-playersOnCourt*0.5, m.Pace(), 1e-9)
}

func TestEfficiencyOracleEvenMatchup(t *testing.T) {
	reg := simRegistry(t)
	east := reg.ConferenceTeams(team.Eastern)
	west := reg.ConferenceTeams(team.Western)

	models := make(map[string]*TeamModel)
	for _, tm := range reg.Current() {
		models[tm.Abbrev] = &TeamModel{Team: tm}
	}
	oracle := NewEfficiencyOracle(models)

	// Identical league-average teams on equal rest: all that is left
	// is home court.
	g := season.NewGame(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), east[0], west[0])
	assert.InDelta(t, homeCourtWinPct, oracle.HomeWinProbability(g), 1e-9)

	home, away := oracle.ExpectedScore(east[0], west[0])
	assert.InDelta(t, avgPointsPer100, home, 1e-9)
	assert.InDelta(t, home, away, 1e-9)

	// Playing the second night of a back-to-back costs the home side.
	tired := season.NewGame(g.Date, east[0], west[0])
	tired.HomeRestDays = 1
	assert.Less(t, oracle.HomeWinProbability(tired), oracle.HomeWinProbability(g))

	// The playoff view shares models but flattens the exponent.
	playoffs := oracle.Playoffs()
	assert.Equal(t, Playoffs, playoffs.gameType)
	assert.InDelta(t, homeCourtWinPct, playoffs.HomeWinProbability(g), 1e-9)
}

func TestEfficiencyOracleStrongerTeamFavored(t *testing.T) {
	reg := simRegistry(t)
	east := reg.ConferenceTeams(team.Eastern)
	strong, weak := east[0], east[1]

	models := map[string]*TeamModel{
		strong.Abbrev: {Team: strong, OffenseAdj: 5, DefenseAdj: 3},
		weak.Abbrev:   {Team: weak, OffenseAdj: -4, DefenseAdj: -2},
	}
	oracle := NewEfficiencyOracle(models)
	date := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	atHome := oracle.HomeWinProbability(season.NewGame(date, strong, weak))
	onRoad := 1 - oracle.HomeWinProbability(season.NewGame(date, weak, strong))
	assert.Greater(t, atHome, homeCourtWinPct)
	assert.Greater(t, atHome, onRoad, "home court helps the strong team")

	// Regular-season probabilities are more extreme than playoff ones
	// for the same matchup, the exponent being higher.
	playoff := oracle.Playoffs().HomeWinProbability(season.NewGame(date, strong, weak))
	assert.Greater(t, atHome, playoff)
}

func TestBuildTeamModels(t *testing.T) {
	reg := simRegistry(t)
	born := time.Date(1998, time.March, 3, 0, 0, 0, 0, time.UTC)

	var players []player.Player
	rosters := make(map[string][]stuffer.Entry)
	ratings := make(map[string]raptor.Rating)
	for i, tm := range reg.Current() {
		name := "Player " + tm.Abbrev
		players = append(players, player.Player{Name: name, Birthdate: born.AddDate(0, 0, i)})
		rosters[tm.Abbrev] = []stuffer.Entry{{Name: name, GamesPlayed: 70, MinutesPerGame: 34}}
		ratings[name] = raptor.Rating{Minutes: 2400, Offense: 1, Defense: 1}
	}
	// One roster entry that resolves nowhere.
	rosters[reg.Current()[0].Abbrev] = append(rosters[reg.Current()[0].Abbrev],
		stuffer.Entry{Name: "Nobody Anyoneknows", GamesPlayed: 5, MinutesPerGame: 3})

	dir, err := player.NewDirectory(players)
	require.NoError(t, err)

	models, res, err := BuildTeamModels(reg, rosters, ratings, dir, SeasonMinutes)
	require.NoError(t, err)
	assert.Len(t, models, len(reg.Current()))
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "Nobody Anyoneknows")
}
