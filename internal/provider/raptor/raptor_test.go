package raptor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbuckley/courtcast/internal/fetch"
	"github.com/cbuckley/courtcast/internal/player"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func testDirectory(t *testing.T) *player.Directory {
	t.Helper()
	dir, err := player.NewDirectory([]player.Player{
		{Name: "Nikola Jokić", Birthdate: date(1995, 2, 19), Active: true},
		{Name: "Jayson Tatum", Birthdate: date(1998, 3, 3), Active: true},
		{Name: "B.J. Johnson", Birthdate: date(1995, 12, 11)},
		{Name: "Mike James", Birthdate: date(1990, 8, 18)},
		{Name: "Mike James", Birthdate: date(1975, 6, 23)},
		{Name: "Broken Line", Birthdate: date(1990, 1, 1)},
	})
	require.NoError(t, err)
	return dir
}

func TestRatingsFromURL(t *testing.T) {
	content, err := os.ReadFile(filepath.Join("testdata", "ratings.csv"))
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	}))
	defer srv.Close()

	cache, err := fetch.NewCache(t.TempDir())
	require.NoError(t, err)
	c := New(fetch.NewClient(cache, 60000, nil), nil)

	ratings, res, err := c.Ratings(context.Background(), srv.URL+"/ratings.csv", testDirectory(t))
	require.NoError(t, err)

	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, 4, res.Skipped)
	require.Len(t, res.Errors, 4)

	// The snapshot's plain-ASCII name resolves onto the directory's
	// transliterated canonical form.
	jokic, ok := ratings["Nikola Jokic"]
	require.True(t, ok)
	assert.Equal(t, 2737.0, jokic.Minutes)
	assert.Equal(t, 7.4, jokic.Offense)
	assert.Equal(t, 2.1, jokic.Defense)
	assert.Equal(t, 9.5, jokic.Total)
	assert.Equal(t, -0.4, jokic.PaceImpact)

	// Punctuated names key on the canonical spelling.
	_, ok = ratings["BJ Johnson"]
	assert.True(t, ok)

	// Namesakes cannot be told apart without a birthdate.
	_, ok = ratings["Mike James"]
	assert.False(t, ok)
}

func TestRatingsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.csv")
	csv := "player_name,mp,raptor_offense,raptor_defense,raptor_total,pace_impact\nJayson Tatum,2732,4.1,1.2,5.3,0.3\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	c := New(nil, nil)
	ratings, res, err := c.Ratings(context.Background(), path, testDirectory(t))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rows)

	tatum := ratings["Jayson Tatum"]
	assert.Equal(t, 5.3, tatum.Total)
}

func TestRatingsMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.csv")
	require.NoError(t, os.WriteFile(path, []byte("player_name,mp\nJayson Tatum,100\n"), 0o644))

	c := New(nil, nil)
	_, _, err := c.Ratings(context.Background(), path, testDirectory(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "raptor_offense")
}
