package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanCell(t *testing.T) {
	assert.Equal(t, "", CleanCell(" "))
	assert.Equal(t, "Khris Middleton", CleanCell("  Khris  Middleton\n"))
	assert.Equal(t, "a b c", CleanCell("a\t b\n\nc"))
}

func TestNumber(t *testing.T) {
	v, ok := Number("35.7")
	assert.True(t, ok)
	assert.Equal(t, 35.7, v)

	v, ok = Number("1,234")
	assert.True(t, ok)
	assert.Equal(t, 1234.0, v)

	v, ok = Number("29.4%")
	assert.True(t, ok)
	assert.Equal(t, 29.4, v)

	_, ok = Number("")
	assert.False(t, ok)
	_, ok = Number("-")
	assert.False(t, ok)
	_, ok = Number("DNP")
	assert.False(t, ok)

	v, ok = Number("-4.6")
	assert.True(t, ok)
	assert.Equal(t, -4.6, v)
}

func TestResult(t *testing.T) {
	r := &Result{}
	r.Rows = 3
	r.AddErrorf("row %d: %s", 7, "bad date")
	other := Result{Rows: 2, Skipped: 1, Errors: []string{"x"}}
	r.Add(other)

	assert.Equal(t, 5, r.Rows)
	assert.Equal(t, 1, r.Skipped)
	assert.Len(t, r.Errors, 2)
	assert.Equal(t, "rows=5 skipped=1 errors=2", r.Summary())
}
