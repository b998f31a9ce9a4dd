package sim

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbuckley/courtcast/internal/team"
)

// splitLeague claims every current franchise: the Eastern conference
// for one side, the Western for the other.
func splitLeague(t *testing.T, reg *team.Registry) *Wager {
	t.Helper()
	w := &Wager{
		Season: "2024-25",
		Sides:  []WagerSide{{Name: "Alice"}, {Name: "Bob"}},
	}
	for _, tm := range reg.ConferenceTeams(team.Eastern) {
		w.Sides[0].Teams = append(w.Sides[0].Teams, tm.Abbrev)
	}
	for _, tm := range reg.ConferenceTeams(team.Western) {
		w.Sides[1].Teams = append(w.Sides[1].Teams, tm.Abbrev)
	}
	require.NoError(t, w.Validate(reg))
	return w
}

func TestWagerValidate(t *testing.T) {
	reg := simRegistry(t)

	t.Run("valid split", func(t *testing.T) {
		w := splitLeague(t, reg)
		assert.Equal(t, 0, w.sideOf(reg.ConferenceTeams(team.Eastern)[0]))
		assert.Equal(t, 1, w.sideOf(reg.ConferenceTeams(team.Western)[0]))
	})

	t.Run("nicknames normalize to abbreviations", func(t *testing.T) {
		w := splitLeague(t, reg)
		for i, ab := range w.Sides[0].Teams {
			if ab == "BOS" {
				w.Sides[0].Teams[i] = "Celtics"
			}
		}
		require.NoError(t, w.Validate(reg))
		assert.Contains(t, w.Sides[0].Teams, "BOS")
		assert.NotContains(t, w.Sides[0].Teams, "Celtics")
	})

	t.Run("double claim", func(t *testing.T) {
		w := splitLeague(t, reg)
		w.Sides[1].Teams[0] = w.Sides[0].Teams[0]
		err := w.Validate(reg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "claimed by both")
	})

	t.Run("unclaimed team", func(t *testing.T) {
		w := splitLeague(t, reg)
		w.Sides[0].Teams = w.Sides[0].Teams[:len(w.Sides[0].Teams)-1]
		err := w.Validate(reg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unclaimed")
	})

	t.Run("defunct team", func(t *testing.T) {
		w := splitLeague(t, reg)
		w.Sides[0].Teams[0] = "SEA"
		err := w.Validate(reg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "defunct")
	})

	t.Run("one side", func(t *testing.T) {
		w := &Wager{Sides: []WagerSide{{Name: "solo"}}}
		assert.Error(t, w.Validate(reg))
	})
}

func TestAggregateWagerScoring(t *testing.T) {
	reg := simRegistry(t)
	wager := splitLeague(t, reg)
	east := reg.ConferenceTeams(team.Eastern)
	west := reg.ConferenceTeams(team.Western)

	agg := newAggregate(reg, 3, wager)

	// Build three hand-rolled trial outcomes. A record needs final
	// standings for the regular-season tallies; reuse an empty season.
	standings, _ := simSeason(t, reg)

	trial := func(idx int, eastWins, westWins int) {
		rec := &PlayoffRecord{
			Standings: standings,
			Seeds:     map[team.Team]int{east[0]: 1, west[0]: 1},
			WinCounts: map[team.Team]int{east[0]: eastWins, west[0]: westWins},
		}
		agg.update(idx, rec)
	}

	trial(0, 16, 9)  // Alice by 7
	trial(1, 9, 16)  // Bob by 7
	trial(2, 12, 12) // push

	assert.Equal(t, 3, agg.Completed)
	assert.Equal(t, [2]int{37, 37}, agg.SideGameWins)
	assert.Equal(t, [2]int{1, 1}, agg.SideTrialWins)
	assert.Equal(t, 1, agg.Pushes)

	mean, stddev := agg.MarginStats()
	assert.InDelta(t, 0.0, mean, 1e-9)
	assert.InDelta(t, 7.0, stddev, 1e-9)

	tr := agg.Teams[east[0].Abbrev]
	assert.Equal(t, 3, tr.PlayoffCount)
	assert.Equal(t, 16+9+12, tr.Score())
	assert.Equal(t, 1, tr.TitleCount())
}

func TestWriteReport(t *testing.T) {
	reg := simRegistry(t)
	standings, schedule := simSeason(t, reg)

	agg, err := Run(t.Context(), standings, schedule, Config{
		Oracle: ConstantOracle(0.5),
		Trials: 4,
		Seed:   3,
		Wager:  splitLeague(t, reg),
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, agg.WriteReport(&buf))
	out := buf.String()

	assert.Contains(t, out, "Simulations:")
	assert.Contains(t, out, "Pr[Alice wins]:")
	assert.Contains(t, out, "Pr[push]:")
	assert.Contains(t, out, "CHAMPIONS")
	assert.Contains(t, out, "MISSED PLAYOFFS")
	// One block per franchise.
	assert.Equal(t, 30, strings.Count(out, "Playoff probability:"))
}

func TestWriteStandingsAndSeeding(t *testing.T) {
	reg := simRegistry(t)
	standings, _ := simSeason(t, reg)

	var buf bytes.Buffer
	require.NoError(t, WriteStandings(&buf, standings))
	assert.Contains(t, buf.String(), "Eastern Conference")
	assert.Contains(t, buf.String(), "Western Conference")

	buf.Reset()
	require.NoError(t, WriteSeeding(&buf, standings.PlayoffSeeding()))
	assert.Contains(t, buf.String(), "Eastern Conference seeds")
}
