package alignment

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"

	"github.com/aria-lang/pepalign/internal/mass"
	"github.com/aria-lang/pepalign/internal/peptide"
)

// Score summarises the quality of an alignment.
type Score struct {
	// Absolute is the cumulative score of the path.
	Absolute int
	// Max is the midpoint of the self alignment scores of both aligned regions.
	Max int
	// Normalised is Absolute/Max capped at 1, or 0 when Max is 0.
	Normalised float64
}

// Stats counts the step kinds of an alignment.
type Stats struct {
	// Identical counts identity steps, including identities with a mass mismatch.
	Identical int
	// MassSimilar counts the A residues consumed by mass preserving steps.
	MassSimilar int
	// Gaps counts gap steps.
	Gaps int
	// Length is the longer of the two aligned regions.
	Length int
}

func fraction(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

// Identity returns the fraction of identical residues.
func (s Stats) Identity() float64 { return fraction(s.Identical, s.Length) }

// MassSimilarity returns the fraction of residues in mass preserving steps.
func (s Stats) MassSimilarity() float64 { return fraction(s.MassSimilar, s.Length) }

// GapFraction returns the fraction of gap steps.
func (s Stats) GapFraction() float64 { return fraction(s.Gaps, s.Length) }

// Alignment is the result of aligning peptide A with peptide B. It is
// immutable once created.
type Alignment struct {
	seqA, seqB     Sequence
	startA, startB int
	path           []Piece
	alignType      AlignType
	depth          int
	scoring        Scoring
	score          Score
}

func newAlignment(a, b Sequence, startA, startB int, path []Piece,
	scoring Scoring, alignType AlignType, depth int) *Alignment {

	al := &Alignment{
		seqA:      a,
		seqB:      b,
		startA:    startA,
		startB:    startB,
		path:      path,
		alignType: alignType,
		depth:     depth,
		scoring:   scoring,
	}
	al.score = al.determineScore()
	return al
}

// determineScore computes the absolute and normalised score from the path.
func (a *Alignment) determineScore() Score {
	pa, pb := a.seqA.Peptidoform(), a.seqB.Peptidoform()
	self := func(p *peptide.Peptide, start, length int) int {
		total := 0
		for _, e := range p.Elements[start : start+length] {
			total += a.scoring.Matrix.Score(e.AminoAcid, e.AminoAcid)
		}
		return total
	}

	s := Score{Max: (self(pa, a.startA, a.LenA()) + self(pb, a.startB, a.LenB())) / 2}
	if len(a.path) > 0 {
		s.Absolute = a.path[len(a.path)-1].Score
	}
	if s.Max != 0 {
		s.Normalised = min(float64(s.Absolute)/float64(s.Max), 1)
	}
	return s
}

// SeqA returns the first sequence.
func (a *Alignment) SeqA() Sequence { return a.seqA }

// SeqB returns the second sequence.
func (a *Alignment) SeqB() Sequence { return a.seqB }

// StartA returns the index in A of the first aligned residue.
func (a *Alignment) StartA() int { return a.startA }

// StartB returns the index in B of the first aligned residue.
func (a *Alignment) StartB() int { return a.startB }

// Type returns the alignment type used.
func (a *Alignment) Type() AlignType { return a.alignType }

// Depth returns the maximal step size used.
func (a *Alignment) Depth() int { return a.depth }

// Scoring returns the scoring used.
func (a *Alignment) Scoring() Scoring { return a.scoring }

// Path returns a copy of the steps of the alignment.
func (a *Alignment) Path() []Piece {
	return append([]Piece(nil), a.path...)
}

// LenA returns the number of residues of A covered by the alignment.
func (a *Alignment) LenA() int {
	n := 0
	for _, p := range a.path {
		n += int(p.StepA)
	}
	return n
}

// LenB returns the number of residues of B covered by the alignment.
func (a *Alignment) LenB() int {
	n := 0
	for _, p := range a.path {
		n += int(p.StepB)
	}
	return n
}

// Score returns the absolute, maximal and normalised score.
func (a *Alignment) Score() Score { return a.score }

// NormalisedScore is shorthand for Score().Normalised.
func (a *Alignment) NormalisedScore() float64 { return a.score.Normalised }

// Stats counts identities, mass similar residues and gaps.
func (a *Alignment) Stats() Stats {
	s := Stats{Length: max(a.LenA(), a.LenB())}
	for _, p := range a.path {
		switch p.Match {
		case FullIdentity:
			s.Identical++
			s.MassSimilar += int(p.StepA)
		case IdentityMassMismatch:
			s.Identical++
		case Isobaric, Rotation:
			s.MassSimilar += int(p.StepA)
		case Gap:
			s.Gaps++
		}
	}
	return s
}

// regionMasses returns the total masses of residues start..start+length of p.
func (a *Alignment) regionMasses(p *peptide.Peptide, start, length int) mass.Set {
	mode := a.scoring.MassMode
	s := mass.Single(0)
	for _, e := range p.Elements[start : start+length] {
		s = s.Plus(e.Masses(mode))
	}
	if length > 0 && start == 0 {
		s = s.Shift(p.NTermMass(mode))
	}
	if length > 0 && start+length == p.Len() {
		s = s.Shift(p.CTermMass(mode))
	}
	return s
}

func (a *Alignment) closestMasses() (float64, float64) {
	ma, mb, _ := mass.Closest(
		a.regionMasses(a.seqA.Peptidoform(), a.startA, a.LenA()),
		a.regionMasses(a.seqB.Peptidoform(), a.startB, a.LenB()))
	return ma, mb
}

// PPM returns the smallest relative mass error between the aligned regions.
func (a *Alignment) PPM() float64 {
	return mass.PPM(a.closestMasses())
}

// MassDifference returns the mass of the aligned region of A minus that of B,
// for the closest pair of candidate masses.
func (a *Alignment) MassDifference() float64 {
	ma, mb := a.closestMasses()
	return ma - mb
}

// Short returns the path as a compact edit string, see CreateFromPath.
func (a *Alignment) Short() string {
	var b strings.Builder
	last, count := "", 0
	flush := func() {
		if count > 0 {
			fmt.Fprintf(&b, "%d%s", count, last)
		}
		last, count = "", 0
	}

	for _, p := range a.path {
		tok, special := p.token()
		switch {
		case special:
			flush()
			b.WriteString(tok)
		case tok == last:
			count++
		default:
			flush()
			last, count = tok, 1
		}
	}
	flush()
	return b.String()
}

var matchSymbols = map[MatchType]byte{
	FullIdentity:         '|',
	IdentityMassMismatch: ':',
	Mismatch:             '.',
	Isobaric:             '=',
	Rotation:             '~',
	Gap:                  ' ',
}

// Aligned returns both aligned regions with gaps, padded step by step to equal
// width, and a line of match symbols between them.
func (a *Alignment) Aligned() (lineA, matches, lineB string) {
	pa, pb := a.seqA.Peptidoform(), a.seqB.Peptidoform()
	var la, lm, lb strings.Builder
	ia, ib := a.startA, a.startB

	for _, p := range a.path {
		width := int(max(p.StepA, p.StepB))
		write := func(out *strings.Builder, seq *peptide.Peptide, from, n int) {
			for i := 0; i < width; i++ {
				switch {
				case n == 0:
					out.WriteByte('-')
				case i < n:
					out.WriteByte(seq.Elements[from+i].AminoAcid.Byte())
				default:
					out.WriteByte(' ')
				}
			}
		}
		write(&la, pa, ia, int(p.StepA))
		write(&lb, pb, ib, int(p.StepB))
		lm.WriteString(strings.Repeat(string(matchSymbols[p.Match]), width))
		ia += int(p.StepA)
		ib += int(p.StepB)
	}
	return la.String(), lm.String(), lb.String()
}

// Format returns a human readable rendering of the alignment.
func (a *Alignment) Format() string {
	lineA, matches, lineB := a.Aligned()
	stats := a.Stats()
	return fmt.Sprintf("A: %s\n   %s\nB: %s\nScore: %d/%d (%.3f)\nIdentity: %.1f%%\nMass similarity: %.1f%%\nGaps: %.1f%%\nPPM: %.2f\nPath: %s",
		lineA, matches, lineB,
		a.score.Absolute, a.score.Max, a.score.Normalised,
		stats.Identity()*100, stats.MassSimilarity()*100, stats.GapFraction()*100,
		a.PPM(), a.Short())
}

func (a *Alignment) String() string {
	return fmt.Sprintf("Alignment { start_a: %d, start_b: %d, path: %s, score: %d, normalised: %.3f }",
		a.startA, a.startB, a.Short(), a.score.Absolute, a.score.Normalised)
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (a *Alignment) MarshalLogObject(oe zapcore.ObjectEncoder) error {
	oe.AddString("a", a.seqA.Peptidoform().String())
	oe.AddString("b", a.seqB.Peptidoform().String())
	oe.AddString("type", a.alignType.String())
	oe.AddInt("depth", a.depth)
	oe.AddInt("start_a", a.startA)
	oe.AddInt("start_b", a.startB)
	oe.AddString("path", a.Short())
	oe.AddInt("score", a.score.Absolute)
	oe.AddInt("max_score", a.score.Max)
	oe.AddFloat64("normalised", a.score.Normalised)
	return nil
}
