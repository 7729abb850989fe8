package alignment

import (
	"fmt"
	"math"

	"github.com/aria-lang/pepalign/internal/peptide"
)

// Sequence is anything that can provide a peptide to align.
type Sequence interface {
	Peptidoform() *peptide.Peptide
}

// Align computes the best alignment of a and b in which every step consumes at
// most depth residues on either side.
//
// Errors are only returned for invalid configuration: a depth below one or
// invalid scoring. Any pair of valid peptides, including empty ones, aligns.
func Align(a, b Sequence, scoring Scoring, alignType AlignType, depth int) (*Alignment, error) {
	depth, err := checkDepth(depth)
	if err != nil {
		return nil, err
	}
	if err := scoring.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring: %w", err)
	}

	massesA, err := CalculateMasses(a.Peptidoform(), scoring.MassMode, depth)
	if err != nil {
		return nil, err
	}
	massesB, err := CalculateMasses(b.Peptidoform(), scoring.MassMode, depth)
	if err != nil {
		return nil, err
	}
	return alignCached(a, massesA, b, massesB, scoring, alignType, depth), nil
}

// checkDepth rejects depths below one and caps the depth at Unbounded.
func checkDepth(depth int) (int, error) {
	if depth < 1 {
		return 0, fmt.Errorf("depth %d: %w", depth, ErrInvalidDepth)
	}
	return min(depth, Unbounded), nil
}

// AlignString parses two peptides and aligns them.
func AlignString(a, b string, scoring Scoring, alignType AlignType, depth int) (*Alignment, error) {
	pa, err := peptide.Parse(a)
	if err != nil {
		return nil, fmt.Errorf("sequence A: %w", err)
	}
	pb, err := peptide.Parse(b)
	if err != nil {
		return nil, fmt.Errorf("sequence B: %w", err)
	}
	return Align(pa, pb, scoring, alignType, depth)
}

// highest tracks the best cell seen so far, used as the end of local alignments.
type highest struct {
	score, a, b int
}

// tail is the kind of the last step of a partial path ending in a cell.
type tail uint8

const (
	tailMatch tail = iota // pair or window step
	tailGapA              // step 1/0
	tailGapB              // step 0/1
	tailStart             // empty path, the alignment starts in this cell
)

// unreachable marks a tail no path can end with.
const unreachable = math.MinInt32

// cell keeps the best partial path per kind of last step, so a gap can be
// extended from any cell even when a different step scores best there.
type cell struct {
	pieces [tailStart]Piece
	// from is the tail in the predecessor cell each piece continues.
	from  [tailStart]tail
	start bool
}

func newCell(start bool) cell {
	c := cell{start: start}
	for i := range c.pieces {
		c.pieces[i].Score = unreachable
	}
	return c
}

// best returns the highest scoring partial path in the cell, ignoring paths
// ending in skip. Ties prefer starting here, then matches, then gaps in A.
func (c *cell) best(skip tail) (int, tail, bool) {
	score, t, ok := 0, tailStart, c.start
	for k := tailMatch; k < tailStart; k++ {
		if k == skip {
			continue
		}
		if s := c.pieces[k].Score; s != unreachable && (!ok || s > score) {
			score, t, ok = s, k, true
		}
	}
	return score, t, ok
}

// total is the score of the best partial path in the cell.
func (c *cell) total() (int, bool) {
	score, _, ok := c.best(tailStart)
	return score, ok
}

// gapStep scores a gap residue after the paths in prev. kind is tailGapA or
// tailGapB. Continuing a gap of the same kind costs GapExtend, anything else
// opens a new gap.
func gapStep(prev *cell, kind tail, scoring Scoring) (Piece, tail) {
	p := Piece{Score: unreachable, Match: Gap}
	if kind == tailGapA {
		p.StepA = 1
	} else {
		p.StepB = 1
	}
	from := tailStart
	if ext := prev.pieces[kind]; ext.Score != unreachable {
		p.Score, p.LocalScore, from = ext.Score+scoring.GapExtend, scoring.GapExtend, kind
	}
	if score, t, ok := prev.best(kind); ok && score+scoring.GapOpen > p.Score {
		p.Score, p.LocalScore, from = score+scoring.GapOpen, scoring.GapOpen, t
	}
	return p, from
}

// freeStart reports whether an alignment of this type may start after a
// residues of A and b residues of B without paying for them.
func (t AlignType) freeStart(a, b int) bool {
	left := t.Left
	switch {
	case a == 0 && b == 0, !left.Global():
		return true
	case left.Either:
		return a == 0 || b == 0
	case left.GlobalA() && left.GlobalB():
		return false
	case left.GlobalA():
		return a == 0
	default:
		return b == 0
	}
}

// alignCached runs the recurrence with precomputed window masses.
func alignCached(a Sequence, massesA *Masses, b Sequence, massesB *Masses,
	scoring Scoring, alignType AlignType, depth int) *Alignment {

	pa, pb := a.Peptidoform(), b.Peptidoform()
	lenA, lenB := pa.Len(), pb.Len()

	matrix := make([][]cell, lenA+1)
	for i := range matrix {
		matrix[i] = make([]cell, lenB+1)
	}

	tolerance := scoring.Tolerance
	rangesA := calculateRanges(massesA, &tolerance)
	rangesB := calculateRanges(massesB, nil)

	var best highest
	for ia := 0; ia <= lenA; ia++ {
		for ib := 0; ib <= lenB; ib++ {
			c := &matrix[ia][ib]
			*c = newCell(alignType.freeStart(ia, ib))
			if ia > 0 {
				c.pieces[tailGapA], c.from[tailGapA] = gapStep(&matrix[ia-1][ib], tailGapA, scoring)
			}
			if ib > 0 {
				c.pieces[tailGapB], c.from[tailGapB] = gapStep(&matrix[ia][ib-1], tailGapB, scoring)
			}
			if ia == 0 || ib == 0 {
				continue
			}

			step := &c.pieces[tailMatch]
			match, local := scoring.scorePair(
				pa.Elements[ia-1], massesA.At(ia-1, 0),
				pb.Elements[ib-1], massesB.At(ib-1, 0))
			if score, t, ok := matrix[ia-1][ib-1].best(tailStart); ok {
				*step = Piece{Score: score + local, LocalScore: local, Match: match, StepA: 1, StepB: 1}
				c.from[tailMatch] = t
			}

			if match != FullIdentity {
				// Windows are visited by total size, so that among equally scoring
				// steps the one consuming the fewest residues wins.
				maxA, maxB := min(ia, depth), min(ib, depth)
				for size := 3; size <= maxA+maxB; size++ {
					for la := max(1, size-maxB); la <= min(maxA, size-1); la++ {
						lb := size - la
						if !rangesA.At(ia-1, la-1).overlaps(rangesB.At(ib-1, lb-1)) {
							continue
						}
						score, t, ok := matrix[ia-la][ib-lb].best(tailStart)
						if !ok {
							continue
						}
						match, local, ok := scoring.scoreWindow(
							pa.Elements[ia-la:ia], massesA.At(ia-1, la-1),
							pb.Elements[ib-lb:ib], massesB.At(ib-1, lb-1))
						if !ok || score+local <= step.Score {
							continue
						}
						*step = Piece{
							Score:      score + local,
							LocalScore: local,
							Match:      match,
							StepA:      uint16(la),
							StepB:      uint16(lb),
						}
						c.from[tailMatch] = t
					}
				}
			}

			if score, t, ok := c.best(tailStart); ok && t != tailStart && score >= best.score {
				best = highest{score: score, a: ia, b: ib}
			}
		}
	}

	endA, endB := findEnd(matrix, lenA, lenB, alignType, best)
	path, startA, startB := tracePath(matrix, endA, endB)

	return newAlignment(a, b, startA, startB, path, scoring, alignType, depth)
}

// gapPiece extends the piece in prev by one gap residue. inA selects a gap
// consuming A (step 1/0), otherwise B is consumed (step 0/1).
func gapPiece(prev Piece, inA bool, scoring Scoring) Piece {
	continues := (inA && prev.StepB == 0) || (!inA && prev.StepA == 0)
	local := scoring.gap(prev.empty() || !continues)
	p := Piece{Score: prev.Score + local, LocalScore: local, Match: Gap}
	if inA {
		p.StepA = 1
	} else {
		p.StepB = 1
	}
	return p
}

// findEnd picks the cell the traceback starts from.
func findEnd(matrix [][]cell, lenA, lenB int, alignType AlignType, best highest) (int, int) {
	right := alignType.Right

	// best cell in column lenB, so that B is consumed completely
	column := func() (int, int, int) {
		score, at := unreachable, 0
		for v := 0; v <= lenA; v++ {
			if s, ok := matrix[v][lenB].total(); ok && s >= score {
				score, at = s, v
			}
		}
		return score, at, lenB
	}
	// best cell in row lenA, so that A is consumed completely
	row := func() (int, int, int) {
		score, at := unreachable, 0
		for v := 0; v <= lenB; v++ {
			if s, ok := matrix[lenA][v].total(); ok && s >= score {
				score, at = s, v
			}
		}
		return score, lenA, at
	}

	switch {
	case right.GlobalA() && right.GlobalB():
		return lenA, lenB
	case right.GlobalB():
		_, a, b := column()
		return a, b
	case right.GlobalA():
		_, a, b := row()
		return a, b
	case right.Global():
		cs, ca, cb := column()
		rs, ra, rb := row()
		if cs >= rs {
			return ca, cb
		}
		return ra, rb
	default:
		return best.a, best.b
	}
}

// tracePath follows the steps back from (endA, endB) and returns the path in
// forward order with its start position.
func tracePath(matrix [][]cell, endA, endB int) ([]Piece, int, int) {
	var path []Piece
	a, b := endA, endB
	_, t, _ := matrix[a][b].best(tailStart)

	for t != tailStart {
		c := &matrix[a][b]
		p := c.pieces[t]
		path = append(path, p)
		t = c.from[t]
		a -= int(p.StepA)
		b -= int(p.StepB)
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, a, b
}
