package player

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testDirectory(t *testing.T) *Directory {
	t.Helper()
	d, err := NewDirectory([]Player{
		{Name: "Mike Smith", Birthdate: date(1972, time.March, 19)},
		{Name: "Mike Smith", Birthdate: date(1976, time.April, 15)},
		{Name: "Herbert Jones", Birthdate: date(1998, time.October, 6), Active: true},
		{Name: "Damian Jones", Birthdate: date(1995, time.June, 30), Active: true},
		{Name: "Keyshawn George", Birthdate: date(2003, time.April, 28)},
		{Name: "B.J. Johnson", Birthdate: date(1995, time.November, 11)},
	})
	require.NoError(t, err)
	return d
}

func TestLookupSingle(t *testing.T) {
	d := testDirectory(t)

	p, err := d.Lookup("Herbert Jones")
	require.NoError(t, err)
	assert.Equal(t, "Herbert Jones", p.Name)

	// A single-variant name resolves even with a wrong birthdate.
	p, err = d.LookupBorn("Herbert Jones", date(1900, time.January, 1))
	require.NoError(t, err)
	assert.Equal(t, "Herbert Jones", p.Name)

	// Names are normalized on the way in.
	p, err = d.Lookup("B.J. Johnson")
	require.NoError(t, err)
	assert.Equal(t, "BJ Johnson", p.Name)
}

func TestLookupAmbiguous(t *testing.T) {
	d := testDirectory(t)

	_, err := d.Lookup("Mike Smith")
	require.Error(t, err)
	var amb *AmbiguousPlayerError
	require.True(t, errors.As(err, &amb))
	assert.Equal(t, "Mike Smith", amb.Name)
	require.Len(t, amb.Birthdates, 2)
	assert.Equal(t, date(1972, time.March, 19), amb.Birthdates[0])
	assert.Equal(t, date(1976, time.April, 15), amb.Birthdates[1])
	assert.True(t, IsMatchError(err))

	p, err := d.LookupBorn("Mike Smith", date(1976, time.April, 15))
	require.NoError(t, err)
	assert.Equal(t, date(1976, time.April, 15), p.Birthdate)
}

func TestLookupInvalid(t *testing.T) {
	d := testDirectory(t)

	_, err := d.Lookup("Nonexistent Person")
	var inv *InvalidPlayerError
	require.True(t, errors.As(err, &inv))
	assert.Equal(t, "Nonexistent Person", inv.Name)
	assert.Empty(t, inv.ValidBirthdates)
	assert.True(t, IsMatchError(err))

	// Known name, unknown birthdate: the error lists what would work.
	_, err = d.LookupBorn("Mike Smith", date(1999, time.January, 1))
	require.True(t, errors.As(err, &inv))
	assert.Equal(t, date(1999, time.January, 1), inv.Birthdate)
	assert.Len(t, inv.ValidBirthdates, 2)
}

func TestCandidateMatchesExact(t *testing.T) {
	d := testDirectory(t)

	// No parens, no alternates: the exact path returns all variants.
	got := d.CandidateMatches("Mike Smith")
	require.Len(t, got, 2)
	assert.Equal(t, "Mike Smith", got[0].Name)
	assert.Equal(t, "Mike Smith", got[1].Name)
}

func TestCandidateMatchesFragments(t *testing.T) {
	d := testDirectory(t)

	// "Herbert" and "Jones" both vote for Herbert Jones; "Keyshawn"
	// votes for Keyshawn George and "Jones" for Damian Jones, but only
	// the two-vote player survives.
	got := d.CandidateMatches("Herbert Jones / Herb Jones (Keyshawn)")
	require.Len(t, got, 1)
	assert.Equal(t, "Herbert Jones", got[0].Name)

	// A single shared fragment leaves a tie: both Joneses come back.
	got = d.CandidateMatches("Jones (unknown)")
	require.Len(t, got, 2)

	// Nothing matches at all.
	assert.Empty(t, d.CandidateMatches("Zzz Yyy"))
}

func TestCandidateMatchesUnbalancedParens(t *testing.T) {
	d := testDirectory(t)

	got := d.CandidateMatches("Damian Jones (center")
	require.Len(t, got, 1)
	assert.Equal(t, "Damian Jones", got[0].Name)
}

func TestExtractParenthesized(t *testing.T) {
	contents, rest := extractParenthesized("A (b) c (d e)")
	assert.Equal(t, []string{"b", "d e"}, contents)
	assert.Equal(t, "A  c", rest)

	contents, rest = extractParenthesized("A (b c")
	assert.Equal(t, []string{"b c"}, contents)
	assert.Equal(t, "A", rest)

	contents, rest = extractParenthesized("A) b")
	assert.Empty(t, contents)
	assert.Equal(t, "A) b", rest)

	contents, rest = extractParenthesized("x (y (z) w) v")
	assert.Equal(t, []string{"y (z) w"}, contents)
	assert.Equal(t, "x  v", rest)
}

func TestNewDirectoryRejectsDuplicates(t *testing.T) {
	_, err := NewDirectory([]Player{
		{Name: "Mike Smith", Birthdate: date(1976, time.April, 15)},
		{Name: "Mike. Smith.", Birthdate: date(1976, time.April, 15)},
	})
	require.Error(t, err)
}

func TestPlaceholder(t *testing.T) {
	p := NewPlaceholder("Marion Hillard")
	assert.True(t, p.IsPlaceholder())
	assert.Equal(t, "Marion Hillard", p.Name)
	assert.Equal(t, "Marion Hillard", p.String())
}
