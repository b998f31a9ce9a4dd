package season

import (
	"fmt"

	"github.com/cbuckley/courtcast/internal/team"
)

// WinLoss is a wins/losses tally. Tallies order by percentage, with
// wins breaking equal percentages (a 4-2 run outranks a 2-1 run).
type WinLoss struct {
	Wins   int
	Losses int
}

func (wl WinLoss) Games() int { return wl.Wins + wl.Losses }

// Pct is the winning percentage, zero for an empty tally.
func (wl WinLoss) Pct() float64 {
	n := wl.Games()
	if n == 0 {
		return 0
	}
	return float64(wl.Wins) / float64(n)
}

// Compare orders tallies: positive when wl outranks other. Percentage
// first, then wins, then fewer losses; distinct pairs never compare
// equal, which keeps group ordering in the seeding total.
func (wl WinLoss) Compare(other WinLoss) int {
	switch {
	case wl.Pct() > other.Pct():
		return 1
	case wl.Pct() < other.Pct():
		return -1
	case wl.Wins != other.Wins:
		if wl.Wins > other.Wins {
			return 1
		}
		return -1
	case wl.Losses != other.Losses:
		if wl.Losses < other.Losses {
			return 1
		}
		return -1
	}
	return 0
}

// Plus returns the merged tally.
func (wl WinLoss) Plus(other WinLoss) WinLoss {
	return WinLoss{Wins: wl.Wins + other.Wins, Losses: wl.Losses + other.Losses}
}

func (wl *WinLoss) add(won bool) {
	if won {
		wl.Wins++
	} else {
		wl.Losses++
	}
}

func (wl WinLoss) String() string { return fmt.Sprintf("%d-%d", wl.Wins, wl.Losses) }

// Record accumulates one team's results: overall, conference-only and
// division-only tallies, a per-opponent breakdown, and the cumulative
// point differential. Every completed game is folded in exactly once;
// replays are rejected rather than double counted.
type Record struct {
	Team       team.Team
	Overall    WinLoss
	Conference WinLoss
	Division   WinLoss
	PointDiff  int

	vsOpponent map[string]WinLoss
	applied    map[GameKey]bool
}

// NewRecord returns an empty record for t.
func NewRecord(t team.Team) *Record {
	return &Record{
		Team:       t,
		vsOpponent: make(map[string]WinLoss),
		applied:    make(map[GameKey]bool),
	}
}

// Apply folds one completed game into the record. The game must be
// completed and must involve the record's team; violating either is a
// caller bug. Applying the same game twice returns an error.
func (r *Record) Apply(g *Game) error {
	g.mustBeCompleted()
	g.mustInvolve(r.Team)

	key := g.Key()
	if r.applied[key] {
		return fmt.Errorf("game %s already applied to %s", g, r.Team)
	}
	r.applied[key] = true

	won := g.WasWonBy(r.Team)
	opp := g.Opponent(r.Team)

	r.Overall.add(won)
	if opp.Conference == r.Team.Conference {
		r.Conference.add(won)
	}
	if opp.Division == r.Team.Division {
		r.Division.add(won)
	}
	wl := r.vsOpponent[opp.Abbrev]
	wl.add(won)
	r.vsOpponent[opp.Abbrev] = wl
	r.PointDiff += g.PointDifferential(r.Team)
	return nil
}

// Against returns the head-to-head tally versus one opponent.
func (r *Record) Against(opp team.Team) WinLoss {
	return r.vsOpponent[opp.Abbrev]
}

// HeadToHead sums the head-to-head tallies over a team set. The
// record's own team is skipped if present.
func (r *Record) HeadToHead(teams []team.Team) WinLoss {
	var total WinLoss
	for _, t := range teams {
		if t == r.Team {
			continue
		}
		total = total.Plus(r.vsOpponent[t.Abbrev])
	}
	return total
}

// Clone returns an independent copy.
func (r *Record) Clone() *Record {
	c := &Record{
		Team:       r.Team,
		Overall:    r.Overall,
		Conference: r.Conference,
		Division:   r.Division,
		PointDiff:  r.PointDiff,
		vsOpponent: make(map[string]WinLoss, len(r.vsOpponent)),
		applied:    make(map[GameKey]bool, len(r.applied)),
	}
	for k, v := range r.vsOpponent {
		c.vsOpponent[k] = v
	}
	for k := range r.applied {
		c.applied[k] = true
	}
	return c
}

func (r *Record) String() string {
	return fmt.Sprintf("%s %s", r.Team.Abbrev, r.Overall)
}
