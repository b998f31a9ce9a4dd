// Package player resolves the player name strings that appear in
// upstream feeds to canonical players. Feeds disagree on punctuation,
// accents, capitalization, and sometimes spelling; Normalize folds all
// of that into one canonical form, and Directory answers lookups and
// fuzzy candidate matches against the full player population.
package player

import (
	_ "embed"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	yaml "gopkg.in/yaml.v2"
)

//go:embed names.yaml
var namesYAML []byte

type nameTables struct {
	ApostropheKeep []string          `yaml:"apostrophe_keep"`
	Corrections    map[string]string `yaml:"corrections"`
}

var (
	apostropheKeep map[string]bool
	corrections    map[string]string
)

func init() {
	var tbl nameTables
	if err := yaml.Unmarshal(namesYAML, &tbl); err != nil {
		panic("player: bad names table: " + err.Error())
	}
	apostropheKeep = make(map[string]bool, len(tbl.ApostropheKeep))
	for _, tok := range tbl.ApostropheKeep {
		apostropheKeep[strings.ToLower(tok)] = true
	}
	corrections = tbl.Corrections
}

// stripMarks removes combining marks after NFD decomposition, turning
// accented Latin letters into plain ASCII.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldRunes covers letters that do not decompose into a base letter
// plus marks.
var foldRunes = map[rune]string{
	'đ': "dj", 'Đ': "Dj",
	'ø': "o", 'Ø': "O",
	'ł': "l", 'Ł': "L",
	'ß': "ss",
	'æ': "ae", 'Æ': "Ae",
	'œ': "oe", 'Œ': "Oe",
}

// Normalize maps a raw player name to its canonical form. It is pure
// and total: any string input yields a result. Periods are stripped
// ("B.J." -> "BJ"), accented Latin letters become ASCII, the letter
// after an apostrophe is capitalized ("o'brien" -> "O'Brien") except
// for tokens in the keep table ("Amar'e"), and known upstream
// misspellings are corrected last.
func Normalize(raw string) string {
	s := strings.ReplaceAll(raw, ".", "")
	s = transliterate(s)

	fields := strings.Fields(s)
	for i, tok := range fields {
		fields[i] = fixApostrophes(tok)
	}
	s = strings.Join(fields, " ")

	if fixed, ok := corrections[s]; ok {
		return fixed
	}
	return s
}

func transliterate(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if rep, ok := foldRunes[r]; ok {
			b.WriteString(rep)
			continue
		}
		b.WriteRune(r)
	}
	out, _, err := transform.String(stripMarks, b.String())
	if err != nil {
		return b.String()
	}
	return out
}

// fixApostrophes title-cases a token containing an apostrophe: first
// letter and the letter after each apostrophe. Tokens in the keep
// table only get the leading capital, preserving single-letter
// suffixes like "Amar'e".
func fixApostrophes(tok string) string {
	if !strings.ContainsRune(tok, '\'') {
		return tok
	}
	rs := []rune(tok)
	rs[0] = unicode.ToUpper(rs[0])
	if apostropheKeep[strings.ToLower(tok)] {
		return string(rs)
	}
	for i := 0; i < len(rs)-1; i++ {
		if rs[i] == '\'' {
			rs[i+1] = unicode.ToUpper(rs[i+1])
		}
	}
	return string(rs)
}
