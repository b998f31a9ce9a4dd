package season

import (
	"fmt"
	"sort"

	"github.com/cbuckley/courtcast/internal/team"
)

// Standings holds one record per active franchise.
type Standings struct {
	registry *team.Registry
	records  map[string]*Record
}

// NewStandings builds standings from the completed games in a
// schedule. Incomplete games are skipped; a duplicated game surfaces
// as an error from the affected record.
func NewStandings(reg *team.Registry, games []*Game) (*Standings, error) {
	s := &Standings{registry: reg, records: make(map[string]*Record)}
	for _, t := range reg.Current() {
		s.records[t.Abbrev] = NewRecord(t)
	}
	for _, g := range games {
		if !g.Completed() {
			continue
		}
		if err := s.Update(g); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Update folds a completed game into both sides' records.
func (s *Standings) Update(g *Game) error {
	home, ok := s.records[g.Home.Abbrev]
	if !ok {
		return fmt.Errorf("no standings entry for %s", g.Home)
	}
	away, ok := s.records[g.Away.Abbrev]
	if !ok {
		return fmt.Errorf("no standings entry for %s", g.Away)
	}
	if err := home.Apply(g); err != nil {
		return err
	}
	return away.Apply(g)
}

// Registry returns the registry the standings were built over.
func (s *Standings) Registry() *team.Registry { return s.registry }

// Record returns t's record. Asking for a team outside the standings
// is a caller bug.
func (s *Standings) Record(t team.Team) *Record {
	rec, ok := s.records[t.Abbrev]
	if !ok {
		panic(fmt.Sprintf("no standings entry for %s", t))
	}
	return rec
}

// Wins returns t's win total.
func (s *Standings) Wins(t team.Team) int { return s.Record(t).Overall.Wins }

// ConferenceTable returns a conference's records, best first, ties in
// table order.
func (s *Standings) ConferenceTable(c team.Conference) []*Record {
	teams := s.registry.ConferenceTeams(c)
	out := make([]*Record, 0, len(teams))
	for _, t := range teams {
		out = append(out, s.records[t.Abbrev])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Overall.Compare(out[j].Overall) > 0
	})
	return out
}

// Clone returns a deep copy sharing only the immutable registry.
func (s *Standings) Clone() *Standings {
	c := &Standings{registry: s.registry, records: make(map[string]*Record, len(s.records))}
	for k, r := range s.records {
		c.records[k] = r.Clone()
	}
	return c
}
