// Package alignment implements mass based alignment of peptides.
//
// Besides the usual match, mismatch and gap steps the alignment can consume
// several residues on either side in a single step when their total masses
// coincide, so that for example N aligns with GG and Q with GA or AG.
package alignment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aria-lang/pepalign/internal/diagonal"
	"github.com/aria-lang/pepalign/internal/mass"
	"github.com/aria-lang/pepalign/internal/peptide"
)

// Unbounded is the depth to use when steps should not be limited in practice.
const Unbounded = 65535

var (
	// ErrInvalidDepth is returned when the maximal step size is below one.
	ErrInvalidDepth = diagonal.ErrInvalidDepth
	// ErrMassModeMismatch is returned when the scoring mass mode differs from an index.
	ErrMassModeMismatch = errors.New("scoring mass mode does not match index mass mode")
	// ErrNilMatrix is returned when scoring has no substitution matrix.
	ErrNilMatrix = errors.New("scoring has no substitution matrix")
)

// MatchType classifies a single alignment step.
type MatchType uint8

const (
	// FullIdentity is the same amino acid with the same mass.
	FullIdentity MatchType = iota
	// IdentityMassMismatch is the same amino acid carrying a different modification.
	IdentityMassMismatch
	// Mismatch is a substitution without mass correspondence.
	Mismatch
	// Isobaric is a set of residues with the same total mass as the other side.
	Isobaric
	// Rotation is the same residues in a different order.
	Rotation
	// Gap consumes a residue on one side only.
	Gap
)

func (m MatchType) String() string {
	switch m {
	case FullIdentity:
		return "full identity"
	case IdentityMassMismatch:
		return "identity mass mismatch"
	case Mismatch:
		return "mismatch"
	case Isobaric:
		return "isobaric"
	case Rotation:
		return "rotation"
	case Gap:
		return "gap"
	default:
		return "unknown"
	}
}

// PairMode tells which side of a pair is the modified peptidoform. It decides
// whether the same amino acid with different masses counts as an identity.
type PairMode int

const (
	// PairSame treats both sides alike.
	PairSame PairMode = iota
	// PairDatabaseToPeptidoform aligns database sequences (A) to peptidoforms (B).
	PairDatabaseToPeptidoform
	// PairPeptidoformToDatabase aligns peptidoforms (A) to database sequences (B).
	PairPeptidoformToDatabase
)

func (p PairMode) String() string {
	switch p {
	case PairDatabaseToPeptidoform:
		return "database-to-peptidoform"
	case PairPeptidoformToDatabase:
		return "peptidoform-to-database"
	default:
		return "same"
	}
}

// ParsePairMode parses the String form of a PairMode.
func ParsePairMode(s string) (PairMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "same", "":
		return PairSame, nil
	case "database-to-peptidoform":
		return PairDatabaseToPeptidoform, nil
	case "peptidoform-to-database":
		return PairPeptidoformToDatabase, nil
	}
	return PairSame, fmt.Errorf("unknown pair mode %q", s)
}

// Scoring holds every parameter of the alignment score.
type Scoring struct {
	// Mismatch is added to the matrix score of a mismatching pair.
	Mismatch int
	// MassMismatch is additionally added for the same amino acid with different masses.
	MassMismatch int
	// MassBase is the base score of any isobaric or rotated step.
	MassBase int
	// Rotated is the score per residue of a rotated step.
	Rotated int
	// Isobaric is the score per residue (averaged over both sides) of an isobaric step.
	Isobaric int
	// GapOpen is the score of the first residue of a gap.
	GapOpen int
	// GapExtend is the score of every further residue of a gap.
	GapExtend int

	Matrix    *Matrix
	Tolerance mass.Tolerance
	MassMode  peptide.MassMode
	Pair      PairMode
}

// DefaultScoring returns the standard peptide scoring: BLOSUM62, 10 ppm and
// monoisotopic masses.
func DefaultScoring() Scoring {
	return Scoring{
		Mismatch:     -1,
		MassMismatch: -1,
		MassBase:     1,
		Rotated:      3,
		Isobaric:     2,
		GapOpen:      -5,
		GapExtend:    -1,
		Matrix:       BLOSUM62,
		Tolerance:    mass.NewPPM(10),
		MassMode:     peptide.Monoisotopic,
		Pair:         PairSame,
	}
}

// Validate checks the scoring parameters.
func (s Scoring) Validate() error {
	if s.Matrix == nil {
		return ErrNilMatrix
	}
	if s.Mismatch > 0 {
		return fmt.Errorf("mismatch penalty should be <= 0")
	}
	if s.MassMismatch > 0 {
		return fmt.Errorf("mass mismatch penalty should be <= 0")
	}
	if s.GapOpen > 0 {
		return fmt.Errorf("gap open penalty should be <= 0")
	}
	if s.GapExtend > 0 {
		return fmt.Errorf("gap extend penalty should be <= 0")
	}
	if s.Tolerance.Value < 0 {
		return fmt.Errorf("tolerance should be >= 0")
	}
	return nil
}

// gap returns the local score of a gap residue.
func (s Scoring) gap(open bool) int {
	if open {
		return s.GapOpen
	}
	return s.GapExtend
}

// scorePair scores a single residue of A against a single residue of B.
func (s Scoring) scorePair(a peptide.Element, massA mass.Set, b peptide.Element, massB mass.Set) (MatchType, int) {
	within := s.Tolerance.WithinSet(massA, massB)
	matrix := s.Matrix.Score(a.AminoAcid, b.AminoAcid)

	switch {
	case a.AminoAcid == b.AminoAcid && within:
		return FullIdentity, matrix
	case a.AminoAcid == b.AminoAcid:
		if (s.Pair == PairDatabaseToPeptidoform && b.Modified()) ||
			(s.Pair == PairPeptidoformToDatabase && a.Modified()) {
			return IdentityMassMismatch, matrix + s.Mismatch + s.MassMismatch
		}
		return Mismatch, matrix + s.Mismatch
	case within:
		return Isobaric, s.MassBase + s.Isobaric
	default:
		return Mismatch, matrix + s.Mismatch
	}
}

// scoreWindow scores a multi residue step. ok is false when the windows do not
// have the same mass and the step is not a candidate.
func (s Scoring) scoreWindow(a []peptide.Element, massA mass.Set, b []peptide.Element, massB mass.Set) (MatchType, int, bool) {
	if !s.Tolerance.WithinSet(massA, massB) {
		return Gap, 0, false
	}
	if len(a) == len(b) && sameResidues(a, b) {
		return Rotation, s.MassBase + s.Rotated*len(a), true
	}
	return Isobaric, s.MassBase + s.Isobaric*(len(a)+len(b))/2, true
}

// sameResidues reports whether a and b hold the same multiset of residues.
func sameResidues(a, b []peptide.Element) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
outer:
	for _, x := range a {
		for j, y := range b {
			if !used[j] && x.Equal(y) {
				used[j] = true
				continue outer
			}
		}
		return false
	}
	return true
}

func (s Scoring) String() string {
	name := "<nil>"
	if s.Matrix != nil {
		name = s.Matrix.Name
	}
	return fmt.Sprintf("Scoring { matrix: %s, mismatch: %d, mass_mismatch: %d, mass_base: %d, rotated: %d, isobaric: %d, gap_open: %d, gap_extend: %d, tolerance: %s, mass_mode: %s, pair: %s }",
		name, s.Mismatch, s.MassMismatch, s.MassBase, s.Rotated, s.Isobaric,
		s.GapOpen, s.GapExtend, s.Tolerance, s.MassMode, s.Pair)
}
