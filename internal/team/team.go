// Package team defines the canonical team registry: team metadata,
// conference and division groupings, and tolerant parsing of the team
// references that appear in upstream feeds (abbreviations, nicknames,
// full names).
package team

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	yaml "gopkg.in/yaml.v2"
)

//go:embed teams.yaml
var teamsYAML []byte

// Conference groups teams for standings and playoff seeding. Defunct is
// a synthetic conference for franchises that no longer exist; they
// participate in parsing but never in standings groupings.
type Conference string

const (
	Eastern Conference = "Eastern"
	Western Conference = "Western"
	Defunct Conference = "Defunct"
)

// Other returns the opposing conference. Defunct has no opponent and
// maps to itself.
func (c Conference) Other() Conference {
	switch c {
	case Eastern:
		return Western
	case Western:
		return Eastern
	}
	return c
}

// Team is an immutable value describing one franchise. All teams come
// from the registry table, so two Team values for the same franchise
// are identical and ordinary equality works.
type Team struct {
	Abbrev     string
	Name       string
	Conference Conference
	Division   string
}

// Nickname is the last word of the full name: "Boston Celtics" ->
// "Celtics", "Portland Trail Blazers" -> "Blazers".
func (t Team) Nickname() string {
	fields := strings.Fields(t.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// Defunct reports whether the franchise no longer exists.
func (t Team) Defunct() bool { return t.Conference == Defunct }

func (t Team) String() string { return t.Abbrev }

// ParseError reports a team reference that matched no registry entry.
// It keeps the original input so batch jobs can report the offending
// cell verbatim.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unrecognized team %q", e.Input)
}

// Registry resolves upstream team references to canonical teams and
// exposes the conference/division groupings derived from the table.
type Registry struct {
	byAbbrev   map[string]Team
	byName     map[string]Team
	byNickname map[string]Team
	aliases    map[string]string
	current    []Team
	defunct    []Team
	byConf     map[Conference][]Team
	byDivision map[string][]Team
}

type tableRow struct {
	Abbrev     string `yaml:"abbrev"`
	Name       string `yaml:"name"`
	Conference string `yaml:"conference"`
	Division   string `yaml:"division"`
}

type table struct {
	Teams   []tableRow        `yaml:"teams"`
	Defunct []tableRow        `yaml:"defunct"`
	Aliases map[string]string `yaml:"aliases"`
}

// NewRegistry builds a registry from the embedded league table. The
// table is validated: three-letter abbreviations, unique across current
// and defunct franchises, known conferences, aliases pointing at real
// entries.
func NewRegistry() (*Registry, error) {
	var tbl table
	if err := yaml.Unmarshal(teamsYAML, &tbl); err != nil {
		return nil, fmt.Errorf("parse team table: %w", err)
	}

	r := &Registry{
		byAbbrev:   make(map[string]Team),
		byName:     make(map[string]Team),
		byNickname: make(map[string]Team),
		aliases:    make(map[string]string),
		byConf:     make(map[Conference][]Team),
		byDivision: make(map[string][]Team),
	}

	add := func(row tableRow, conf Conference, division string) error {
		ab := strings.ToUpper(strings.TrimSpace(row.Abbrev))
		if len(ab) != 3 {
			return fmt.Errorf("abbreviation %q for %q is not three letters", row.Abbrev, row.Name)
		}
		if prev, dup := r.byAbbrev[ab]; dup {
			return fmt.Errorf("abbreviation %s claimed by both %q and %q", ab, prev.Name, row.Name)
		}
		t := Team{Abbrev: ab, Name: row.Name, Conference: conf, Division: division}
		r.byAbbrev[ab] = t
		r.byName[strings.ToLower(t.Name)] = t

		// Current franchises win nickname collisions with defunct ones
		// ("Nets" means Brooklyn, not New Jersey). Current rows are
		// added first, so first-in wins.
		nick := strings.ToLower(t.Nickname())
		if _, taken := r.byNickname[nick]; !taken {
			r.byNickname[nick] = t
		}

		if t.Defunct() {
			r.defunct = append(r.defunct, t)
		} else {
			r.current = append(r.current, t)
			r.byConf[conf] = append(r.byConf[conf], t)
			r.byDivision[division] = append(r.byDivision[division], t)
		}
		return nil
	}

	for _, row := range tbl.Teams {
		conf := Conference(row.Conference)
		if conf != Eastern && conf != Western {
			return nil, fmt.Errorf("team %q has unknown conference %q", row.Name, row.Conference)
		}
		if row.Division == "" {
			return nil, fmt.Errorf("team %q has no division", row.Name)
		}
		if err := add(row, conf, row.Division); err != nil {
			return nil, err
		}
	}
	for _, row := range tbl.Defunct {
		if err := add(row, Defunct, string(Defunct)); err != nil {
			return nil, err
		}
	}

	for alias, canon := range tbl.Aliases {
		canon = strings.ToUpper(canon)
		if _, ok := r.byAbbrev[canon]; !ok {
			return nil, fmt.Errorf("alias %s points at unknown team %s", alias, canon)
		}
		r.aliases[strings.ToUpper(alias)] = canon
	}

	return r, nil
}

// Parse resolves a team reference. It accepts a three-letter
// abbreviation (case-insensitive, remapped through the historical alias
// table first), a nickname (the last word of the full name), or an
// exact full name. Anything else returns a *ParseError carrying the
// original input.
func (r *Registry) Parse(s string) (Team, error) {
	q := strings.TrimSpace(s)
	if q == "" {
		return Team{}, &ParseError{Input: s}
	}
	if len(q) == 3 {
		ab := strings.ToUpper(q)
		if canon, ok := r.aliases[ab]; ok {
			ab = canon
		}
		if t, ok := r.byAbbrev[ab]; ok {
			return t, nil
		}
	}
	lower := strings.ToLower(q)
	if t, ok := r.byName[lower]; ok {
		return t, nil
	}
	if t, ok := r.byNickname[lower]; ok {
		return t, nil
	}
	return Team{}, &ParseError{Input: s}
}

// Lookup returns the team for a canonical abbreviation.
func (r *Registry) Lookup(abbrev string) (Team, bool) {
	t, ok := r.byAbbrev[strings.ToUpper(abbrev)]
	return t, ok
}

// Current returns the active franchises in table order.
func (r *Registry) Current() []Team {
	return append([]Team(nil), r.current...)
}

// All returns every franchise, current then defunct, in table order.
func (r *Registry) All() []Team {
	out := append([]Team(nil), r.current...)
	return append(out, r.defunct...)
}

// ConferenceTeams returns the active teams of a conference. Defunct
// franchises are never grouped.
func (r *Registry) ConferenceTeams(c Conference) []Team {
	return append([]Team(nil), r.byConf[c]...)
}

// DivisionTeams returns the active teams of a division.
func (r *Registry) DivisionTeams(division string) []Team {
	return append([]Team(nil), r.byDivision[division]...)
}

// Divisions returns the division names in sorted order.
func (r *Registry) Divisions() []string {
	out := make([]string, 0, len(r.byDivision))
	for d := range r.byDivision {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
