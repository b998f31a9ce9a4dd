// Package event turns raw transaction rows into typed player events:
// who joined or left a roster, who went on or came off the injured
// list, who sat out and who was suspended. The messy parts of the feed
// (miscategorized rows, non-player entries, name collisions) are
// handled by loaded rule tables, not scattered conditionals.
package event

import (
	"fmt"
	"time"

	"github.com/cbuckley/courtcast/internal/player"
	"github.com/cbuckley/courtcast/internal/team"
)

// Kind is the closed set of player event kinds.
type Kind int

const (
	Acquisition Kind = iota
	Relinquishing
	ILPlacement
	ILActivation
	MissedGame
	Suspension
	ReturnToLineup
)

var kindNames = map[Kind]string{
	Acquisition:    "acquisition",
	Relinquishing:  "relinquishing",
	ILPlacement:    "il_placement",
	ILActivation:   "il_activation",
	MissedGame:     "missed_game",
	Suspension:     "suspension",
	ReturnToLineup: "return_to_lineup",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a rule-table kind name back to its Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown event kind %q", s)
}

// Availability reports whether a player who just had this event is
// available to play for the team.
func (k Kind) Availability() bool {
	switch k {
	case Acquisition, ILActivation, ReturnToLineup:
		return true
	}
	return false
}

// Event is one dated player event.
type Event struct {
	Kind   Kind
	Date   time.Time
	Team   team.Team
	Player player.Player
	Notes  string
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s %s: %s (%s)",
		e.Date.Format("2006-01-02"), e.Team.Abbrev, e.Kind, e.Player.Name, e.Notes)
}
