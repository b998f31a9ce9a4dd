package player

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Player is one directory entry. Name is always in normalized form.
// Birthdate is zero for synthetic placeholders (people referenced by
// feeds who never appear in the directory source).
type Player struct {
	Name      string
	Birthdate time.Time
	URL       string
	Active    bool
}

// NewPlaceholder returns a synthetic player for a name the directory
// will never carry.
func NewPlaceholder(name string) Player {
	return Player{Name: Normalize(name)}
}

// IsPlaceholder reports whether the player is synthetic.
func (p Player) IsPlaceholder() bool { return p.Birthdate.IsZero() }

func (p Player) String() string {
	if p.IsPlaceholder() {
		return p.Name
	}
	return fmt.Sprintf("%s (b. %s)", p.Name, p.Birthdate.Format(dateLayout))
}

// MatchError is the common type of both lookup failure modes, so batch
// callers can branch on "resolution failed" without caring which way.
type MatchError interface {
	error
	matchError()
}

// IsMatchError reports whether err is a player resolution failure.
func IsMatchError(err error) bool {
	var m MatchError
	return errors.As(err, &m)
}

// InvalidPlayerError means no directory entry matches the searched name
// (or name+birthdate pair). ValidBirthdates carries the birthdates on
// file for the name when the name itself was known.
type InvalidPlayerError struct {
	Name            string
	Birthdate       time.Time // zero when the lookup had no birthdate
	ValidBirthdates []time.Time
}

func (e *InvalidPlayerError) Error() string {
	switch {
	case !e.Birthdate.IsZero() && len(e.ValidBirthdates) > 0:
		return fmt.Sprintf("no player %q born %s (known birthdates: %s)",
			e.Name, e.Birthdate.Format(dateLayout), formatDates(e.ValidBirthdates))
	case !e.Birthdate.IsZero():
		return fmt.Sprintf("no player %q born %s", e.Name, e.Birthdate.Format(dateLayout))
	default:
		return fmt.Sprintf("no player %q", e.Name)
	}
}

func (*InvalidPlayerError) matchError() {}

// AmbiguousPlayerError means the name maps to several players and no
// birthdate was given to pick one.
type AmbiguousPlayerError struct {
	Name       string
	Birthdates []time.Time
}

func (e *AmbiguousPlayerError) Error() string {
	return fmt.Sprintf("multiple players named %q; specify a birthdate: %s",
		e.Name, formatDates(e.Birthdates))
}

func (*AmbiguousPlayerError) matchError() {}

func formatDates(dates []time.Time) string {
	parts := make([]string, len(dates))
	for i, d := range dates {
		parts[i] = d.Format(dateLayout)
	}
	return strings.Join(parts, ", ")
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
