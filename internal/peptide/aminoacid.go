package peptide

import "github.com/aria-lang/pepalign/internal/mass"

// AminoAcid identifies a residue. The first twenty values follow the order of
// the BLOSUM substitution tables.
type AminoAcid int

const (
	Ala AminoAcid = iota
	Arg
	Asn
	Asp
	Cys
	Gln
	Glu
	Gly
	His
	Ile
	Leu
	Lys
	Met
	Phe
	Pro
	Ser
	Thr
	Trp
	Tyr
	Val
	// Asx is either asparagine or aspartic acid (B).
	Asx
	// Xle is either isoleucine or leucine (J).
	Xle
	// Glx is either glutamine or glutamic acid (Z).
	Glx
	// Sec is selenocysteine (U).
	Sec
	// Pyl is pyrrolysine (O).
	Pyl

	// NumAminoAcids is the number of known amino acids.
	NumAminoAcids = int(Pyl) + 1
)

const oneLetter = "ARNDCQEGHILKMFPSTWYVBJZUO"

var residueFormulas = [NumAminoAcids][]Formula{
	Ala: {MustParseFormula("C3H5NO")},
	Arg: {MustParseFormula("C6H12N4O")},
	Asn: {MustParseFormula("C4H6N2O2")},
	Asp: {MustParseFormula("C4H5NO3")},
	Cys: {MustParseFormula("C3H5NOS")},
	Gln: {MustParseFormula("C5H8N2O2")},
	Glu: {MustParseFormula("C5H7NO3")},
	Gly: {MustParseFormula("C2H3NO")},
	His: {MustParseFormula("C6H7N3O")},
	Ile: {MustParseFormula("C6H11NO")},
	Leu: {MustParseFormula("C6H11NO")},
	Lys: {MustParseFormula("C6H12N2O")},
	Met: {MustParseFormula("C5H9NOS")},
	Phe: {MustParseFormula("C9H9NO")},
	Pro: {MustParseFormula("C5H7NO")},
	Ser: {MustParseFormula("C3H5NO2")},
	Thr: {MustParseFormula("C4H7NO2")},
	Trp: {MustParseFormula("C11H10N2O")},
	Tyr: {MustParseFormula("C9H9NO2")},
	Val: {MustParseFormula("C5H9NO")},
	Asx: {MustParseFormula("C4H6N2O2"), MustParseFormula("C4H5NO3")},
	Xle: {MustParseFormula("C6H11NO")},
	Glx: {MustParseFormula("C5H8N2O2"), MustParseFormula("C5H7NO3")},
	Sec: {MustParseFormula("C3H5NOSe")},
	Pyl: {MustParseFormula("C12H19N3O2")},
}

// FromByte returns the amino acid for a one letter code. Lower case letters are
// accepted. X and unknown letters are rejected.
func FromByte(c byte) (AminoAcid, bool) {
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	for i := 0; i < len(oneLetter); i++ {
		if oneLetter[i] == c {
			return AminoAcid(i), true
		}
	}
	return 0, false
}

// Byte returns the one letter code.
func (a AminoAcid) Byte() byte {
	if a < 0 || int(a) >= NumAminoAcids {
		return 'X'
	}
	return oneLetter[a]
}

func (a AminoAcid) String() string {
	return string(a.Byte())
}

// Formulas returns the residue formulas this amino acid may have. Ambiguous
// codes return one formula per interpretation.
func (a AminoAcid) Formulas() []Formula {
	return residueFormulas[a]
}

// Masses returns the residue masses of the amino acid.
func (a AminoAcid) Masses(mode MassMode) mass.Set {
	var s mass.Set
	for _, f := range residueFormulas[a] {
		s = s.Add(f.Mass(mode))
	}
	return s
}
