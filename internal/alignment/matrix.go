package alignment

import (
	"math"
	"strings"

	"github.com/aria-lang/pepalign/internal/peptide"
)

// Matrix is an amino acid substitution matrix.
type Matrix struct {
	Name   string
	scores [peptide.NumAminoAcids][peptide.NumAminoAcids]int8
}

// Score returns the substitution score of a against b.
func (m *Matrix) Score(a, b peptide.AminoAcid) int {
	return int(m.scores[a][b])
}

// blosum62 in the order ARNDCQEGHILKMFPSTWYV.
var blosum62 = [20][20]int8{
	{4, -1, -2, -2, 0, -1, -1, 0, -2, -1, -1, -1, -1, -2, -1, 1, 0, -3, -2, 0},
	{-1, 5, 0, -2, -3, 1, 0, -2, 0, -3, -2, 2, -1, -3, -2, -1, -1, -3, -2, -3},
	{-2, 0, 6, 1, -3, 0, 0, 0, 1, -3, -3, 0, -2, -3, -2, 1, 0, -4, -2, -3},
	{-2, -2, 1, 6, -3, 0, 2, -1, -1, -3, -4, -1, -3, -3, -1, 0, -1, -4, -3, -3},
	{0, -3, -3, -3, 9, -3, -4, -3, -3, -1, -1, -3, -1, -2, -3, -1, -1, -2, -2, -1},
	{-1, 1, 0, 0, -3, 5, 2, -2, 0, -3, -2, 1, 0, -3, -1, 0, -1, -2, -1, -2},
	{-1, 0, 0, 2, -4, 2, 5, -2, 0, -3, -3, 1, -2, -3, -1, 0, -1, -3, -2, -2},
	{0, -2, 0, -1, -3, -2, -2, 6, -2, -4, -4, -2, -3, -3, -2, 0, -2, -2, -3, -3},
	{-2, 0, 1, -1, -3, 0, 0, -2, 8, -3, -3, -1, -2, -1, -2, -1, -2, -2, 2, -3},
	{-1, -3, -3, -3, -1, -3, -3, -4, -3, 4, 2, -3, 1, 0, -3, -2, -1, -3, -1, 3},
	{-1, -2, -3, -4, -1, -2, -3, -4, -3, 2, 4, -2, 2, 0, -3, -2, -1, -2, -1, 1},
	{-1, 2, 0, -1, -3, 1, 1, -2, -1, -3, -2, 5, -1, -3, -1, 0, -1, -3, -2, -2},
	{-1, -1, -2, -3, -1, 0, -2, -3, -2, 1, 2, -1, 5, 0, -2, -1, -1, -1, -1, 1},
	{-2, -3, -3, -3, -2, -3, -3, -3, -1, 0, 0, -3, 0, 6, -4, -2, -2, 1, 3, -1},
	{-1, -2, -2, -1, -3, -1, -1, -2, -2, -3, -3, -1, -2, -4, 7, -1, -1, -4, -3, -2},
	{1, -1, 1, 0, -1, 0, 0, 0, -1, -2, -2, 0, -1, -2, -1, 4, 1, -3, -2, -2},
	{0, -1, 0, -1, -1, -1, -1, -2, -2, -1, -1, -1, -1, -2, -1, 1, 5, -2, -2, 0},
	{-3, -3, -4, -4, -2, -2, -3, -2, -2, -3, -2, -3, -1, 1, -4, -3, -2, 11, 2, -3},
	{-2, -2, -2, -3, -2, -1, -2, -3, 2, -1, -1, -2, -1, 3, -3, -2, -2, 2, 7, -1},
	{0, -3, -3, -3, -1, -2, -2, -3, -3, 3, 1, -2, 1, -1, -2, -2, 0, -3, -1, 4},
}

// constituents maps every amino acid to the standard residues its score is derived from.
var constituents = [peptide.NumAminoAcids][]peptide.AminoAcid{
	peptide.Asx: {peptide.Asn, peptide.Asp},
	peptide.Xle: {peptide.Ile, peptide.Leu},
	peptide.Glx: {peptide.Gln, peptide.Glu},
	peptide.Sec: {peptide.Cys},
	peptide.Pyl: {peptide.Lys},
}

func standardOf(a peptide.AminoAcid) []peptide.AminoAcid {
	if c := constituents[a]; c != nil {
		return c
	}
	return []peptide.AminoAcid{a}
}

// extend builds a full matrix from a table over the twenty standard residues.
// Scores involving ambiguous or rare residues are the floor of the mean over
// their interpretations.
func extend(name string, table *[20][20]int8) *Matrix {
	m := &Matrix{Name: name}
	for a := 0; a < peptide.NumAminoAcids; a++ {
		for b := 0; b < peptide.NumAminoAcids; b++ {
			as, bs := standardOf(peptide.AminoAcid(a)), standardOf(peptide.AminoAcid(b))
			var total int
			for _, x := range as {
				for _, y := range bs {
					total += int(table[x][y])
				}
			}
			m.scores[a][b] = int8(math.Floor(float64(total) / float64(len(as)*len(bs))))
		}
	}
	return m
}

func identityTable(match, mismatch int8) *[20][20]int8 {
	var t [20][20]int8
	for a := range t {
		for b := range t[a] {
			if a == b {
				t[a][b] = match
			} else {
				t[a][b] = mismatch
			}
		}
	}
	return &t
}

var (
	// BLOSUM62 is the standard BLOSUM62 matrix.
	BLOSUM62 = extend("BLOSUM62", &blosum62)
	// Identity scores 9 for the same residue and -5 otherwise.
	Identity = extend("IDENTITY", identityTable(9, -5))
)

// MatrixByName returns a built in matrix, matched case insensitively.
func MatrixByName(name string) (*Matrix, bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "BLOSUM62", "":
		return BLOSUM62, true
	case "IDENTITY":
		return Identity, true
	}
	return nil, false
}
