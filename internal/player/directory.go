package player

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Directory answers player lookups against the full player population.
// Both indexes are built eagerly at construction, before any lookup
// runs: an exact index from normalized name to birthdate variants, and
// a fragment index from name token to the players carrying that token.
type Directory struct {
	players   []Player
	byName    map[string][]int // normalized name -> indexes, sorted by birthdate
	fragments map[string][]int // lowercased name token -> indexes
}

// NewDirectory builds a directory from a player list. Names are
// normalized on the way in. Two entries with the same normalized name
// and birthdate are a data error.
func NewDirectory(players []Player) (*Directory, error) {
	d := &Directory{
		players:   make([]Player, 0, len(players)),
		byName:    make(map[string][]int),
		fragments: make(map[string][]int),
	}
	for _, p := range players {
		p.Name = Normalize(p.Name)
		if p.Name == "" {
			return nil, fmt.Errorf("player with empty name (born %s)", p.Birthdate.Format(dateLayout))
		}
		for _, i := range d.byName[p.Name] {
			if sameDate(d.players[i].Birthdate, p.Birthdate) {
				return nil, fmt.Errorf("duplicate player %s", p)
			}
		}
		idx := len(d.players)
		d.players = append(d.players, p)
		d.byName[p.Name] = append(d.byName[p.Name], idx)
		for _, tok := range nameTokens(p.Name) {
			d.fragments[tok] = append(d.fragments[tok], idx)
		}
	}
	for name := range d.byName {
		idxs := d.byName[name]
		sort.Slice(idxs, func(i, j int) bool {
			return d.players[idxs[i]].Birthdate.Before(d.players[idxs[j]].Birthdate)
		})
	}
	return d, nil
}

// Len returns the number of directory entries.
func (d *Directory) Len() int { return len(d.players) }

// All returns every entry in insertion order.
func (d *Directory) All() []Player {
	return append([]Player(nil), d.players...)
}

// Lookup resolves a name with no birthdate qualifier. An unknown name
// is an *InvalidPlayerError; a name with several birthdates on file is
// an *AmbiguousPlayerError listing them.
func (d *Directory) Lookup(name string) (Player, error) {
	key := Normalize(name)
	idxs := d.byName[key]
	switch len(idxs) {
	case 0:
		return Player{}, &InvalidPlayerError{Name: key}
	case 1:
		return d.players[idxs[0]], nil
	default:
		return Player{}, &AmbiguousPlayerError{Name: key, Birthdates: d.birthdates(idxs)}
	}
}

// LookupBorn resolves a name with a birthdate qualifier. A name with
// exactly one entry resolves to it regardless of the qualifier; with
// several entries the qualifier must match one of them.
func (d *Directory) LookupBorn(name string, birthdate time.Time) (Player, error) {
	key := Normalize(name)
	idxs := d.byName[key]
	switch len(idxs) {
	case 0:
		return Player{}, &InvalidPlayerError{Name: key, Birthdate: birthdate}
	case 1:
		return d.players[idxs[0]], nil
	default:
		for _, i := range idxs {
			if sameDate(d.players[i].Birthdate, birthdate) {
				return d.players[i], nil
			}
		}
		return Player{}, &InvalidPlayerError{
			Name:            key,
			Birthdate:       birthdate,
			ValidBirthdates: d.birthdates(idxs),
		}
	}
}

// CandidateMatches resolves a free-form name reference, as found in
// transaction feeds, to the directory players it could mean. The raw
// string may carry slash-separated alternates and parenthesized extra
// names ("Herbert Jones / Herb Jones (Keyshawn)").
//
// A reference with neither parens nor alternates tries the exact path
// first and returns all birthdate variants on a hit. Otherwise every
// distinct normalized fragment of the reference votes for the players
// whose own name contains it, and all players tied at the highest vote
// count are returned. No votes at all yields an empty slice.
func (d *Directory) CandidateMatches(rawName string) []Player {
	parens, remainder := extractParenthesized(rawName)

	if len(parens) == 0 && !strings.Contains(rawName, "/") {
		if idxs, ok := d.byName[Normalize(remainder)]; ok {
			return d.collect(idxs)
		}
	}

	frags := make(map[string]bool)
	for _, alt := range strings.Split(remainder, "/") {
		for _, tok := range nameTokens(Normalize(alt)) {
			frags[tok] = true
		}
	}
	for _, p := range parens {
		for _, tok := range nameTokens(Normalize(p)) {
			frags[tok] = true
		}
	}

	scores := make(map[int]int)
	for tok := range frags {
		for _, i := range d.fragments[tok] {
			scores[i]++
		}
	}
	best := 0
	for _, s := range scores {
		if s > best {
			best = s
		}
	}
	if best == 0 {
		return nil
	}
	var idxs []int
	for i, s := range scores {
		if s == best {
			idxs = append(idxs, i)
		}
	}
	sort.Ints(idxs)
	return d.collect(idxs)
}

func (d *Directory) collect(idxs []int) []Player {
	out := make([]Player, len(idxs))
	for i, idx := range idxs {
		out[i] = d.players[idx]
	}
	return out
}

func (d *Directory) birthdates(idxs []int) []time.Time {
	out := make([]time.Time, len(idxs))
	for i, idx := range idxs {
		out[i] = d.players[idx].Birthdate
	}
	return out
}

func nameTokens(normalized string) []string {
	fields := strings.Fields(strings.ToLower(normalized))
	out := fields[:0]
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

// extractParenthesized splits a raw reference into its parenthesized
// substrings and the text outside them. Unbalanced input is tolerated:
// an unclosed paren captures through end of string, a stray closer is
// treated as plain text.
func extractParenthesized(s string) (contents []string, remainder string) {
	var outside, inside strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '(':
			if depth == 0 {
				depth = 1
				continue
			}
			depth++
			inside.WriteRune(r)
		case r == ')' && depth > 0:
			depth--
			if depth == 0 {
				if c := strings.TrimSpace(inside.String()); c != "" {
					contents = append(contents, c)
				}
				inside.Reset()
				continue
			}
			inside.WriteRune(r)
		case depth > 0:
			inside.WriteRune(r)
		default:
			outside.WriteRune(r)
		}
	}
	if depth > 0 {
		if c := strings.TrimSpace(inside.String()); c != "" {
			contents = append(contents, c)
		}
	}
	return contents, strings.TrimSpace(outside.String())
}
