package season

import (
	"sort"

	"github.com/cbuckley/courtcast/internal/team"
)

// playoffTeams is the number of seeds per conference, play-in included.
const playoffTeams = 10

// PlayoffSeeding is the seed order for each conference; index 0 is the
// one seed.
type PlayoffSeeding struct {
	East []team.Team
	West []team.Team
}

// Conference returns the seed order for c.
func (p *PlayoffSeeding) Conference(c team.Conference) []team.Team {
	if c == team.Eastern {
		return p.East
	}
	return p.West
}

// PlayoffSeeding computes both conferences' ten seeds. Teams group by
// identical win-loss pairs; whole groups accumulate, best pair first,
// until ten seeds are covered (the last group may overshoot and is
// kept whole); each tied group orders by the tiebreak cascade; the
// concatenation truncates to ten.
//
// The cascade for a tied group: head-to-head inside the group; the
// division tally when every group member shares one division (absent
// from the comparison otherwise); the conference tally; head-to-head
// against this conference's playoff teams; head-to-head against the
// opposing conference's playoff teams; total point differential. The
// playoff team sets span every accumulated group of a conference, so
// both conferences' groups are computed before any group is ordered.
// Whatever the cascade cannot separate stays in table order.
func (s *Standings) PlayoffSeeding() *PlayoffSeeding {
	eastGroups := s.tieGroups(team.Eastern)
	westGroups := s.tieGroups(team.Western)
	eastSet := teamsOf(eastGroups...)
	westSet := teamsOf(westGroups...)
	return &PlayoffSeeding{
		East: truncateSeeds(s.orderGroups(eastGroups, eastSet, westSet)),
		West: truncateSeeds(s.orderGroups(westGroups, westSet, eastSet)),
	}
}

// tieGroups groups a conference by exact win-loss pair, best pair
// first, keeping whole groups until at least ten teams are covered.
func (s *Standings) tieGroups(c team.Conference) [][]*Record {
	byPair := make(map[WinLoss][]*Record)
	for _, t := range s.registry.ConferenceTeams(c) {
		rec := s.records[t.Abbrev]
		byPair[rec.Overall] = append(byPair[rec.Overall], rec)
	}
	pairs := make([]WinLoss, 0, len(byPair))
	for p := range byPair {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Compare(pairs[j]) > 0 })

	var groups [][]*Record
	covered := 0
	for _, p := range pairs {
		if covered >= playoffTeams {
			break
		}
		groups = append(groups, byPair[p])
		covered += len(byPair[p])
	}
	return groups
}

func (s *Standings) orderGroups(groups [][]*Record, own, opp []team.Team) []team.Team {
	var out []team.Team
	for _, grp := range groups {
		out = append(out, s.rankGroup(grp, own, opp)...)
	}
	return out
}

// rankGroup orders one tied group by the cascade.
func (s *Standings) rankGroup(grp []*Record, own, opp []team.Team) []team.Team {
	if len(grp) == 1 {
		return []team.Team{grp[0].Team}
	}
	group := teamsOf(grp)
	shared := sharedDivision(group)
	keys := make(map[string][]float64, len(grp))
	for _, rec := range grp {
		keys[rec.Team.Abbrev] = s.tiebreakKey(rec, group, shared, own, opp)
	}
	ordered := append([]*Record(nil), grp...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return compareKeys(keys[ordered[i].Team.Abbrev], keys[ordered[j].Team.Abbrev]) > 0
	})
	return teamsOf(ordered)
}

// tiebreakKey flattens the cascade into a comparable tuple. Win-loss
// components contribute (pct, wins) pairs. The division component is
// present only when the whole group shares a division; omitting it
// shifts the later components up, which is the intended comparison.
func (s *Standings) tiebreakKey(rec *Record, group []team.Team, shared bool, own, opp []team.Team) []float64 {
	key := make([]float64, 0, 11)
	push := func(wl WinLoss) { key = append(key, wl.Pct(), float64(wl.Wins)) }
	push(rec.HeadToHead(group))
	if shared {
		push(rec.Division)
	}
	push(rec.Conference)
	push(rec.HeadToHead(own))
	push(rec.HeadToHead(opp))
	return append(key, float64(rec.PointDiff))
}

// HomeCourt picks the home-court holder between two teams, normally
// the two conference champions. The league publishes no precise
// cross-conference rule; the policy here is the better overall record,
// then the regular cascade restricted to the pair with the playoff-set
// components degenerate. A dead tie goes to a.
func (s *Standings) HomeCourt(a, b team.Team) team.Team {
	ra, rb := s.Record(a), s.Record(b)
	if c := ra.Overall.Compare(rb.Overall); c != 0 {
		if c > 0 {
			return a
		}
		return b
	}
	pair := []team.Team{a, b}
	shared := sharedDivision(pair)
	if compareKeys(
		s.tiebreakKey(ra, pair, shared, nil, nil),
		s.tiebreakKey(rb, pair, shared, nil, nil),
	) < 0 {
		return b
	}
	return a
}

func truncateSeeds(ts []team.Team) []team.Team {
	if len(ts) > playoffTeams {
		return ts[:playoffTeams]
	}
	return ts
}

func teamsOf(groups ...[]*Record) []team.Team {
	var out []team.Team
	for _, grp := range groups {
		for _, rec := range grp {
			out = append(out, rec.Team)
		}
	}
	return out
}

func sharedDivision(ts []team.Team) bool {
	for _, t := range ts[1:] {
		if t.Division != ts[0].Division {
			return false
		}
	}
	return true
}

func compareKeys(a, b []float64) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		switch {
		case a[i] > b[i]:
			return 1
		case a[i] < b[i]:
			return -1
		}
	}
	return 0
}
