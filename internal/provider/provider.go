// Package provider holds the pieces shared by every source provider:
// the batch result type and cell parsing helpers. Row-level failures
// are collected into the Result so one bad row never sinks a batch.
package provider

import (
	"fmt"
	"strconv"
	"strings"
)

// Result tracks counts and errors from a provider run.
type Result struct {
	Rows    int
	Skipped int
	Errors  []string
}

// Add merges another Result into this one.
func (r *Result) Add(other Result) {
	r.Rows += other.Rows
	r.Skipped += other.Skipped
	r.Errors = append(r.Errors, other.Errors...)
}

// AddErrorf records a formatted error message.
func (r *Result) AddErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the run.
func (r *Result) Summary() string {
	return fmt.Sprintf("rows=%d skipped=%d errors=%d", r.Rows, r.Skipped, len(r.Errors))
}

// CleanCell normalizes a scraped table cell: non-breaking spaces
// become spaces and runs of whitespace collapse.
func CleanCell(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.Join(strings.Fields(s), " ")
}

// Number extracts a numeric cell value. Thousands separators and
// percent signs are tolerated; empty and dash cells are not numbers.
func Number(s string) (float64, bool) {
	s = CleanCell(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "-" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
