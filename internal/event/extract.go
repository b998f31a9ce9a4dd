package event

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/cbuckley/courtcast/internal/player"
)

// extractPlayers parses a bulleted player cell into directory players.
// Entries that are not players (traded picks, cash, dropped
// overrides) vanish silently; entries that should have resolved but
// did not come back as problems.
func (c *Classifier) extractPlayers(cell string) (players []player.Player, problems []string) {
	for _, entry := range strings.Split(cell, "•") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		p, ok, err := c.resolveEntry(entry)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		if ok {
			players = append(players, p)
		}
	}
	return players, problems
}

// resolveEntry maps one bulleted entry to a player. ok=false drops
// the entry without comment.
func (c *Classifier) resolveEntry(entry string) (player.Player, bool, error) {
	if ov, found := c.rules.overrides[entry]; found {
		if ov.Name == "" {
			return player.Player{}, false, nil
		}
		p, err := c.lookupOverride(ov)
		if err != nil {
			return player.Player{}, false, fmt.Errorf("override for %q: %v", entry, err)
		}
		return p, true, nil
	}

	if c.containsNonPlayerTerm(entry) {
		return player.Player{}, false, nil
	}
	if c.rules.neverPlayed[entry] {
		return player.Player{}, false, nil
	}

	if name, born, found := birthdateQualifier(entry); found {
		p, err := c.dir.LookupBorn(name, born)
		if err != nil {
			return player.Player{}, false, fmt.Errorf("entry %q: %v", entry, err)
		}
		return p, true, nil
	}

	matches := c.dir.CandidateMatches(entry)
	switch len(matches) {
	case 1:
		return matches[0], true, nil
	case 0:
		if name := primaryName(entry); looksLikePlayer(name) {
			return player.NewPlaceholder(name), true, nil
		}
		return player.Player{}, false, fmt.Errorf("entry %q does not name a player", entry)
	default:
		return player.Player{}, false, fmt.Errorf("entry %q is ambiguous between %d players", entry, len(matches))
	}
}

func (c *Classifier) lookupOverride(ov Override) (player.Player, error) {
	if !ov.Born.IsZero() {
		return c.dir.LookupBorn(ov.Name, ov.Born)
	}
	return c.dir.Lookup(ov.Name)
}

// containsNonPlayerTerm flags entries describing traded assets.
func (c *Classifier) containsNonPlayerTerm(entry string) bool {
	for _, w := range strings.Fields(entry) {
		if c.rules.terms[strings.ToLower(stripPunct(w))] {
			return true
		}
	}
	return false
}

// birthdateQualifier recognizes the feed's "(b. 1975-02-27)" name
// collision annotation.
func birthdateQualifier(entry string) (name string, born time.Time, found bool) {
	start := strings.Index(entry, "(b. ")
	if start == -1 {
		return "", time.Time{}, false
	}
	end := strings.Index(entry[start:], ")")
	if end == -1 {
		return "", time.Time{}, false
	}
	born, err := time.Parse("2006-01-02", entry[start+4:start+end])
	if err != nil {
		return "", time.Time{}, false
	}
	name = strings.TrimSpace(entry[:start] + entry[start+end+1:])
	return name, born, true
}

// primaryName is the first slash alternate with parens stripped.
func primaryName(entry string) string {
	var b strings.Builder
	depth := 0
	for _, r := range entry {
		switch {
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case depth == 0:
			b.WriteRune(r)
		}
	}
	first := strings.SplitN(b.String(), "/", 2)[0]
	return strings.Join(strings.Fields(first), " ")
}

// looksLikePlayer is the person-name gate: two to five tokens, each
// capitalized save for the particles that appear in real names.
func looksLikePlayer(s string) bool {
	if s == "Nene" {
		return true
	}
	tokens := strings.Fields(s)
	if len(tokens) < 2 || len(tokens) > 5 {
		return false
	}
	for _, tok := range tokens {
		if tok == "de" || tok == "a" {
			continue
		}
		r := []rune(tok)[0]
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func stripPunct(w string) string {
	return strings.TrimFunc(w, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
