package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"B.J. Johnson", "BJ Johnson"},
		{"T.J. McConnell", "TJ McConnell"},
		{"Amar'e Stoudemire", "Amar'e Stoudemire"},
		{"o'brien Jones", "O'Brien Jones"},
		{"d'angelo Russell", "D'Angelo Russell"},
		{"Nikola Jokić", "Nikola Jokic"},
		{"Luka Dončić", "Luka Doncic"},
		{"Dāvis Bertāns", "Davis Bertans"},
		{"Kristaps Porziņģis", "Kristaps Porzingis"},
		{"Nikola Đurišić", "Nikola Djurisic"},
		{"  LeBron   James ", "LeBron James"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

func TestNormalizeCorrections(t *testing.T) {
	assert.Equal(t, "Amar'e Stoudemire", Normalize("Amare Stoudemire"))
	assert.Equal(t, "Danny Fortson", Normalize("Danny Forston"))
	assert.Equal(t, "Ish Smith", Normalize("Ishmael Smith"))
}

func TestNormalizeIsTotal(t *testing.T) {
	// Garbage in, some string out; never a panic.
	for _, in := range []string{"...", "'", "(((", "/ /", "ø"} {
		_ = Normalize(in)
	}
	assert.Equal(t, "o", Normalize("ø "))
}
