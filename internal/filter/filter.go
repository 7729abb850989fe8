// Package filter selects the database sequences worth aligning against a
// query, based on length and precursor mass.
package filter

import (
	"fmt"
	"math"

	"github.com/aria-lang/pepalign/internal/alignment"
	"github.com/aria-lang/pepalign/internal/mass"
	"github.com/aria-lang/pepalign/internal/peptide"
)

// Result represents the outcome of checking one database sequence.
type Result struct {
	Passed bool
	Reason string
}

// Filter represents a database filter configuration.
type Filter struct {
	MinLength  int     // Minimum database sequence length
	MaxLength  int     // Maximum database sequence length, 0 for no limit
	MassWindow float64 // Maximum precursor mass difference in Da, 0 disables
	// Tolerance, when set, requires the database mass to be within tolerance
	// of the query mass.
	Tolerance mass.Tolerance
	MassMode  peptide.MassMode
}

// DefaultFilter creates a filter that only rejects empty sequences.
func DefaultFilter() *Filter {
	return &Filter{MinLength: 1}
}

// PrecursorFilter creates a filter keeping sequences whose mass is within
// tolerance of the query.
func PrecursorFilter(tolerance mass.Tolerance, mode peptide.MassMode) *Filter {
	return &Filter{MinLength: 1, Tolerance: tolerance, MassMode: mode}
}

// Check checks if a database sequence passes the filter for query.
func (f *Filter) Check(db, query alignment.Sequence) Result {
	p := db.Peptidoform()
	n := p.Len()

	if n < f.MinLength {
		return Result{Reason: fmt.Sprintf("sequence too short: %d (min: %d)", n, f.MinLength)}
	}
	if f.MaxLength > 0 && n > f.MaxLength {
		return Result{Reason: fmt.Sprintf("sequence too long: %d (max: %d)", n, f.MaxLength)}
	}

	if f.MassWindow > 0 || f.Tolerance.Value > 0 {
		dbMass := p.Mass(f.MassMode)
		queryMass := query.Peptidoform().Mass(f.MassMode)

		if f.MassWindow > 0 {
			if diff := math.Abs(dbMass - queryMass); diff > f.MassWindow {
				return Result{Reason: fmt.Sprintf("mass difference %.4f Da outside window %.4f Da", diff, f.MassWindow)}
			}
		}
		if f.Tolerance.Value > 0 && !f.Tolerance.Within(queryMass, dbMass) {
			return Result{Reason: fmt.Sprintf("mass %.4f not within %s of %.4f", dbMass, f.Tolerance, queryMass)}
		}
	}

	return Result{Passed: true}
}

// Predicate returns Check bound to query, for use with
// alignment.Index.AlignOneFiltered.
func (f *Filter) Predicate(query alignment.Sequence) func(alignment.Sequence) bool {
	return func(db alignment.Sequence) bool {
		return f.Check(db, query).Passed
	}
}

// BatchResult represents the result of filtering a database.
type BatchResult struct {
	TotalProcessed int
	PassedCount    int
	FailedCount    int
	PassedIndices  []int
	FailReasons    map[int]string
}

// BatchFilter checks every database sequence against query.
func (f *Filter) BatchFilter(db []alignment.Sequence, query alignment.Sequence) *BatchResult {
	result := &BatchResult{
		PassedIndices: make([]int, 0),
		FailReasons:   make(map[int]string),
	}

	for i, s := range db {
		r := f.Check(s, query)
		if r.Passed {
			result.PassedIndices = append(result.PassedIndices, i)
		} else {
			result.FailReasons[i] = r.Reason
		}
	}

	result.TotalProcessed = len(db)
	result.PassedCount = len(result.PassedIndices)
	result.FailedCount = len(result.FailReasons)
	return result
}

// PassRate returns the proportion of sequences that passed filtering.
func (r *BatchResult) PassRate() float64 {
	if r.TotalProcessed == 0 {
		return 0.0
	}
	return float64(r.PassedCount) / float64(r.TotalProcessed)
}

func (r *BatchResult) String() string {
	return fmt.Sprintf("BatchResult { processed: %d, passed: %d (%.1f%%), failed: %d }",
		r.TotalProcessed, r.PassedCount, r.PassRate()*100, r.FailedCount)
}
