package alignment

import (
	"fmt"

	"github.com/aria-lang/pepalign/internal/diagonal"
	"github.com/aria-lang/pepalign/internal/mass"
	"github.com/aria-lang/pepalign/internal/peptide"
)

// Masses holds, for every position i and offset j < depth, the masses of the
// residues i-j through i.
type Masses = diagonal.Array[mass.Set]

// CalculateMasses precomputes the window masses of a peptide for steps of at
// most depth residues. Terminal modifications are included in every window
// touching the corresponding terminus.
func CalculateMasses(p *peptide.Peptide, mode peptide.MassMode, depth int) (*Masses, error) {
	n := p.Len()
	arr, err := diagonal.New[mass.Set](n, depth)
	if err != nil {
		return nil, fmt.Errorf("mass table for %q: %w", p.Sequence(), err)
	}

	single := make([]mass.Set, n)
	for i, e := range p.Elements {
		s := e.Masses(mode)
		if i == 0 {
			s = s.Shift(p.NTermMass(mode))
		}
		if i == n-1 {
			s = s.Shift(p.CTermMass(mode))
		}
		single[i] = s
	}

	for i := 0; i < n; i++ {
		arr.Set(i, 0, single[i])
		for j := 1; j <= min(i, depth-1); j++ {
			arr.Set(i, j, arr.At(i-1, j-1).Plus(single[i]))
		}
	}
	return arr, nil
}

// massRange is the lowest and highest mass of a window.
type massRange struct {
	lo, hi float64
}

// calculateRanges summarises every window by its mass range. When tolerance
// is set the range is widened to the tolerance bounds.
func calculateRanges(masses *Masses, tolerance *mass.Tolerance) *diagonal.Array[massRange] {
	ranges, _ := diagonal.New[massRange](masses.Len(), masses.Depth())
	for i := 0; i < masses.Len(); i++ {
		for j := 0; j <= min(i, masses.Depth()-1); j++ {
			s := masses.At(i, j)
			r := massRange{lo: s.Min(), hi: s.Max()}
			if tolerance != nil {
				r.lo, _ = tolerance.Bounds(s.Min())
				_, r.hi = tolerance.Bounds(s.Max())
			}
			ranges.Set(i, j, r)
		}
	}
	return ranges
}

// overlaps reports whether two ranges could hold masses within tolerance.
func (r massRange) overlaps(o massRange) bool {
	return r.lo <= o.hi && o.lo <= r.hi
}
