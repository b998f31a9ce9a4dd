package event

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// side names which player cell of a row is being classified.
type side string

const (
	sideAcquired     side = "acquired"
	sideRelinquished side = "relinquished"
)

// rulesFile is the YAML shape of the rule table.
type rulesFile struct {
	Rules            []rowRule          `yaml:"rules"`
	NonPlayerTerms   []string           `yaml:"non_player_terms"`
	NonPlayerJobs    []string           `yaml:"non_player_jobs"`
	NeverPlayed      []string           `yaml:"never_played"`
	TeamAliases      map[string]string  `yaml:"team_aliases"`
	NameOverrides    []nameOverride     `yaml:"name_overrides"`
	PlaceholderNotes []string           `yaml:"placeholder_notes"`
	PlayerMoves      map[string]string  `yaml:"player_moves"`
}

// rowRule matches one row side and either skips it or fixes its kind.
// Every populated field must hold for the rule to apply.
type rowRule struct {
	Category      string `yaml:"category,omitempty"`
	Side          string `yaml:"side,omitempty"`
	Date          string `yaml:"date,omitempty"`
	Team          string `yaml:"team,omitempty"`
	NotesPrefix   string `yaml:"notes_prefix,omitempty"`
	NotesContains string `yaml:"notes_contains,omitempty"`
	NotesEquals   string `yaml:"notes_equals,omitempty"`
	CellContains  string `yaml:"cell_contains,omitempty"`
	Action        string `yaml:"action"`
}

type nameOverride struct {
	Raw  string `yaml:"raw"`
	Name string `yaml:"name,omitempty"`
	Born string `yaml:"born,omitempty"`
}

// Override is a compiled exact-string name correction. An empty Name
// drops the entry.
type Override struct {
	Name string
	Born time.Time
}

type compiledRule struct {
	rowRule
	date time.Time
	skip bool
	kind Kind
}

// Rules is the compiled rule table driving classification.
type Rules struct {
	rows             []compiledRule
	terms            map[string]bool
	jobs             map[string]bool
	neverPlayed      map[string]bool
	teamAliases      map[string]string
	overrides        map[string]Override
	placeholderNotes []string
	playerMoves      map[string]string
}

// DefaultRules compiles the embedded rule table.
func DefaultRules() (*Rules, error) {
	return ParseRules(defaultRulesYAML)
}

// ParseRules compiles a YAML rule table.
func ParseRules(data []byte) (*Rules, error) {
	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}

	r := &Rules{
		terms:            toSet(file.NonPlayerTerms),
		jobs:             toSet(file.NonPlayerJobs),
		neverPlayed:      make(map[string]bool),
		teamAliases:      file.TeamAliases,
		overrides:        make(map[string]Override),
		placeholderNotes: file.PlaceholderNotes,
		playerMoves:      file.PlayerMoves,
	}
	for _, n := range file.NeverPlayed {
		r.neverPlayed[n] = true
	}

	for i, raw := range file.Rules {
		c := compiledRule{rowRule: raw}
		if raw.Date != "" {
			d, err := time.Parse("2006-01-02", raw.Date)
			if err != nil {
				return nil, fmt.Errorf("rule %d: bad date %q", i, raw.Date)
			}
			c.date = d
		}
		if raw.Action == "skip" {
			c.skip = true
		} else {
			k, err := ParseKind(raw.Action)
			if err != nil {
				return nil, fmt.Errorf("rule %d: %w", i, err)
			}
			c.kind = k
		}
		r.rows = append(r.rows, c)
	}

	for i, o := range file.NameOverrides {
		if o.Raw == "" {
			return nil, fmt.Errorf("name override %d: empty raw string", i)
		}
		ov := Override{Name: o.Name}
		if o.Born != "" {
			d, err := time.Parse("2006-01-02", o.Born)
			if err != nil {
				return nil, fmt.Errorf("name override %q: bad birthdate %q", o.Raw, o.Born)
			}
			ov.Born = d
		}
		r.overrides[o.Raw] = ov
	}
	return r, nil
}

// match returns the first rule applying to a row side.
func (r *Rules) match(category string, sd side, date time.Time, teamCell, playerCell, notes string) (compiledRule, bool) {
	for _, c := range r.rows {
		if c.Category != "" && c.Category != category {
			continue
		}
		if c.Side != "" && c.Side != string(sd) {
			continue
		}
		if c.Date != "" && !date.Equal(c.date) {
			continue
		}
		if c.Team != "" && c.Team != teamCell {
			continue
		}
		if c.NotesPrefix != "" && !strings.HasPrefix(notes, c.NotesPrefix) {
			continue
		}
		if c.NotesContains != "" && !strings.Contains(notes, c.NotesContains) {
			continue
		}
		if c.NotesEquals != "" && notes != c.NotesEquals {
			continue
		}
		if c.CellContains != "" && !strings.Contains(playerCell, c.CellContains) {
			continue
		}
		return c, true
	}
	return compiledRule{}, false
}

// PlayerMoves is the roster correction table: player name to the
// abbreviation of the team they actually play for, overriding a stale
// listing on the roster site.
func (r *Rules) PlayerMoves() map[string]string {
	return r.playerMoves
}

// teamAlias maps feed spellings of renamed or relocated franchises.
func (r *Rules) teamAlias(name string) string {
	if mapped, ok := r.teamAliases[name]; ok {
		return mapped
	}
	return name
}

// placeholderTolerated reports whether notes explain an entry that is
// legitimately absent from the player directory, such as a draftee who
// never signed or a front-office hire.
func (r *Rules) placeholderTolerated(notes string) bool {
	for _, phrase := range r.placeholderNotes {
		if strings.Contains(notes, phrase) {
			return true
		}
	}
	return false
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = true
	}
	return set
}
