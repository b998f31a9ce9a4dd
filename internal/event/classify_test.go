package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbuckley/courtcast/internal/player"
	"github.com/cbuckley/courtcast/internal/provider/pst"
	"github.com/cbuckley/courtcast/internal/team"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testClassifier(t *testing.T) *Classifier {
	t.Helper()
	reg, err := team.NewRegistry()
	require.NoError(t, err)
	dir, err := player.NewDirectory([]player.Player{
		{Name: "Khris Middleton", Birthdate: date(1991, time.August, 12)},
		{Name: "LeBron James", Birthdate: date(1984, time.December, 30)},
		{Name: "Jaylen Brown", Birthdate: date(1996, time.October, 24)},
		{Name: "Bones Hyland", Birthdate: date(2000, time.September, 14)},
		{Name: "Royce O'Neale", Birthdate: date(1993, time.June, 5)},
		{Name: "Mike James", Birthdate: date(1975, time.June, 23)},
		{Name: "Mike James", Birthdate: date(1990, time.August, 18)},
		{Name: "Kenyon Martin", Birthdate: date(1977, time.December, 30)},
		{Name: "Kenyon Martin Jr.", Birthdate: date(2001, time.January, 6)},
	})
	require.NoError(t, err)
	rules, err := DefaultRules()
	require.NoError(t, err)
	return NewClassifier(reg, dir, rules, nil)
}

func TestClassifyDefaults(t *testing.T) {
	c := testClassifier(t)
	day := date(2023, time.January, 15)

	rows := []pst.Row{
		{Category: pst.PlayerMovement, Date: day, Team: "Bucks", Acquired: "• Khris Middleton", Notes: "signed to a 10-day contract"},
		{Category: pst.PlayerMovement, Date: day, Team: "Lakers", Relinquished: "• LeBron James", Notes: "waived"},
		{Category: pst.InjuredList, Date: day, Team: "Celtics", Acquired: "• Jaylen Brown", Notes: "activated from IL"},
		{Category: pst.InjuredList, Date: day, Team: "Celtics", Relinquished: "• Jaylen Brown", Notes: "placed on IL with a sore knee"},
		{Category: pst.Injuries, Date: day, Team: "Suns", Relinquished: "• Royce O'Neale", Notes: "sore right ankle (DTD)"},
		{Category: pst.Injuries, Date: day, Team: "Suns", Acquired: "• Royce O'Neale", Notes: "returned to lineup"},
		{Category: pst.Personal, Date: day, Team: "Nuggets", Relinquished: "• Bones Hyland", Notes: "birth of child"},
		{Category: pst.Disciplinary, Date: day, Team: "Rockets", Relinquished: "• Kenyon Martin Jr.", Notes: "suspended 1 game by team for conduct"},
	}

	events, res := c.Classify(rows)
	require.Empty(t, res.Errors)
	assert.Equal(t, 0, res.Skipped)
	assert.Equal(t, len(rows), res.Rows)
	require.Len(t, events, len(rows))

	wantKinds := []Kind{
		Acquisition, Relinquishing,
		ILActivation, ILPlacement,
		MissedGame, ReturnToLineup,
		MissedGame, Suspension,
	}
	wantTeams := []string{"MIL", "LAL", "BOS", "BOS", "PHX", "PHX", "DEN", "HOU"}
	for i, ev := range events {
		assert.Equal(t, wantKinds[i], ev.Kind, "row %d", i)
		assert.Equal(t, wantTeams[i], ev.Team.Abbrev, "row %d", i)
		assert.Equal(t, day, ev.Date, "row %d", i)
	}
	assert.Equal(t, "Khris Middleton", events[0].Player.Name)
	assert.Equal(t, "Kenyon Martin Jr", events[7].Player.Name)
}

func TestClassifyRuleOverrides(t *testing.T) {
	c := testClassifier(t)
	day := date(2023, time.February, 2)

	rows := []pst.Row{
		// The feed files some placements and activations on the wrong
		// side; the notes carry the truth.
		{Category: pst.InjuredList, Date: day, Team: "Bucks", Acquired: "• Khris Middleton", Notes: "placed on IL to rest"},
		{Category: pst.InjuredList, Date: day, Team: "Bucks", Relinquished: "• Khris Middleton", Notes: "activated from IL after surgery"},
		{Category: pst.InjuredList, Date: day, Team: "Lakers", Relinquished: "• LeBron James", Notes: "waived"},
		{Category: pst.Injuries, Date: day, Team: "Celtics", Acquired: "• Jaylen Brown", Notes: "torn ACL (out for season)"},
	}

	events, res := c.Classify(rows)
	require.Empty(t, res.Errors)
	require.Len(t, events, 4)
	assert.Equal(t, ILPlacement, events[0].Kind)
	assert.Equal(t, ILActivation, events[1].Kind)
	assert.Equal(t, Relinquishing, events[2].Kind)
	assert.Equal(t, ILPlacement, events[3].Kind)
}

func TestClassifySkips(t *testing.T) {
	c := testClassifier(t)
	day := date(2023, time.March, 8)

	rows := []pst.Row{
		// Fines change nothing about who plays.
		{Category: pst.Disciplinary, Date: day, Team: "Lakers", Relinquished: "• LeBron James", Notes: "fined $25,000 by league for criticizing officials"},
		// Staff movement, caught before name extraction ever runs.
		{Category: pst.PlayerMovement, Date: day, Team: "Cavaliers", Acquired: "• Somebody Unmatchable", Notes: "hired as assistant coach"},
		{Category: pst.Disciplinary, Date: day, Team: "Bucks", Acquired: "• Jon Horst", Notes: "GM fined for tampering comments"},
		// Out-of-league bleed from the source site.
		{Category: pst.PlayerMovement, Date: day, Team: "Browns", Relinquished: "• Myles Garrett", Notes: "suspended indefinitely"},
	}

	events, res := c.Classify(rows)
	assert.Empty(t, events)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 4, res.Skipped)
}

func TestClassifyTeamHandling(t *testing.T) {
	c := testClassifier(t)
	day := date(2007, time.November, 20)

	rows := []pst.Row{
		{Category: pst.InjuredList, Date: day, Team: "Sonics", Relinquished: "• Kenyon Martin", Notes: "placed on IL"},
		{Category: pst.InjuredList, Date: day, Team: "Harlem Globetrotters", Relinquished: "• Kenyon Martin", Notes: "placed on IL"},
	}

	events, res := c.Classify(rows)
	require.Len(t, events, 1)
	assert.Equal(t, "SEA", events[0].Team.Abbrev)
	assert.True(t, events[0].Team.Defunct())

	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "Harlem Globetrotters")
}

func TestClassifyPlaceholders(t *testing.T) {
	c := testClassifier(t)
	day := date(2023, time.July, 1)

	rows := []pst.Row{
		// An undrafted signing the directory has not caught up with.
		{Category: pst.PlayerMovement, Date: day, Team: "Wizards", Acquired: "• Jordan Futureman", Notes: "signed free agent"},
		// The same unknown name with unexplained notes is a problem.
		{Category: pst.PlayerMovement, Date: day, Team: "Wizards", Acquired: "• Jordan Futureman", Notes: "agreed to a three year deal"},
	}

	events, res := c.Classify(rows)
	assert.Empty(t, events)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "Jordan Futureman")
	assert.Contains(t, res.Errors[0], "not in the player directory")
}

func TestExtractPlayers(t *testing.T) {
	c := testClassifier(t)

	t.Run("assets are silent", func(t *testing.T) {
		players, problems := c.extractPlayers(
			"• Khris Middleton • cash considerations • 2024 second round pick (protected)")
		require.Empty(t, problems)
		require.Len(t, players, 1)
		assert.Equal(t, "Khris Middleton", players[0].Name)
	})

	t.Run("slash alternates vote", func(t *testing.T) {
		players, problems := c.extractPlayers("• Nah'Shon Hyland / Bones Hyland")
		require.Empty(t, problems)
		require.Len(t, players, 1)
		assert.Equal(t, "Bones Hyland", players[0].Name)
	})

	t.Run("birthdate qualifier", func(t *testing.T) {
		players, problems := c.extractPlayers("• Mike James (b. 1990-08-18)")
		require.Empty(t, problems)
		require.Len(t, players, 1)
		assert.Equal(t, date(1990, time.August, 18), players[0].Birthdate)
	})

	t.Run("override with birthdate", func(t *testing.T) {
		players, problems := c.extractPlayers("• Mike James (Lamont)")
		require.Empty(t, problems)
		require.Len(t, players, 1)
		assert.Equal(t, date(1975, time.June, 23), players[0].Birthdate)
	})

	t.Run("override drops entry", func(t *testing.T) {
		players, problems := c.extractPlayers("• Etorre Messina (P) / Ettore Messina (SN)")
		assert.Empty(t, problems)
		assert.Empty(t, players)
	})

	t.Run("never played is silent", func(t *testing.T) {
		players, problems := c.extractPlayers("• Chris Marcus")
		assert.Empty(t, problems)
		assert.Empty(t, players)
	})

	t.Run("ambiguity is loud", func(t *testing.T) {
		players, problems := c.extractPlayers("• Mike James")
		assert.Empty(t, players)
		require.Len(t, problems, 1)
		assert.Contains(t, problems[0], "ambiguous")
	})

	t.Run("suffix needs override", func(t *testing.T) {
		players, problems := c.extractPlayers("• Kenyon Martin Jr.")
		require.Empty(t, problems)
		require.Len(t, players, 1)
		assert.Equal(t, date(2001, time.January, 6), players[0].Birthdate)

		players, problems = c.extractPlayers("• Kenyon Martin Sr")
		require.Empty(t, problems)
		require.Len(t, players, 1)
		assert.Equal(t, date(1977, time.December, 30), players[0].Birthdate)
	})

	t.Run("unknown name becomes placeholder", func(t *testing.T) {
		players, problems := c.extractPlayers("• Harold Unknown Person")
		require.Empty(t, problems)
		require.Len(t, players, 1)
		assert.True(t, players[0].IsPlaceholder())
		assert.Equal(t, "Harold Unknown Person", players[0].Name)
	})

	t.Run("junk is loud", func(t *testing.T) {
		players, problems := c.extractPlayers("• went fishing forever")
		assert.Empty(t, players)
		require.Len(t, problems, 1)
		assert.Contains(t, problems[0], "does not name a player")
	})
}

func TestLooksLikePlayer(t *testing.T) {
	yes := []string{"Nene", "Kevin Durant", "Luc Mbah a Moute", "Juan Carlos Navarro"}
	no := []string{"", "v", "Middleton", "went fishing", "2029 second round", "A B C D E F"}
	for _, s := range yes {
		assert.True(t, looksLikePlayer(s), s)
	}
	for _, s := range no {
		assert.False(t, looksLikePlayer(s), s)
	}
}
