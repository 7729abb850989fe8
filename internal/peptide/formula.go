package peptide

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// MassMode selects which mass of a molecular formula is used.
type MassMode int

const (
	// Monoisotopic uses the mass of the lightest stable isotope of every element.
	Monoisotopic MassMode = iota
	// Average uses the natural abundance weighted average mass.
	Average
	// MostAbundant uses the mass of the most abundant isotope of every element.
	MostAbundant
)

func (m MassMode) String() string {
	switch m {
	case Monoisotopic:
		return "monoisotopic"
	case Average:
		return "average"
	case MostAbundant:
		return "most-abundant"
	default:
		return "unknown"
	}
}

// ParseMassMode parses the String form of a MassMode.
func ParseMassMode(s string) (MassMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monoisotopic", "mono", "":
		return Monoisotopic, nil
	case "average", "avg":
		return Average, nil
	case "most-abundant", "mostabundant", "most_abundant":
		return MostAbundant, nil
	}
	return Monoisotopic, fmt.Errorf("unknown mass mode %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m MassMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *MassMode) UnmarshalText(text []byte) error {
	parsed, err := ParseMassMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Atom is a chemical element occurring in peptides and their modifications.
type Atom int

const (
	Carbon Atom = iota
	Hydrogen
	Nitrogen
	Oxygen
	Phosphorus
	Sulfur
	Selenium
	numAtoms
)

var atomSymbols = [numAtoms]string{"C", "H", "N", "O", "P", "S", "Se"}

// atomMasses holds the element masses per MassMode.
var atomMasses = [3][numAtoms]float64{
	Monoisotopic: {12.0, 1.00782503207, 14.0030740048, 15.99491461956, 30.97376163, 31.97207100, 79.9165213},
	Average:      {12.0107, 1.00794, 14.0067, 15.9994, 30.973762, 32.065, 78.96},
	MostAbundant: {12.0, 1.00782503207, 14.0030740048, 15.99491461956, 30.97376163, 31.97207100, 79.9165213},
}

func (a Atom) String() string {
	if a < 0 || a >= numAtoms {
		return "?"
	}
	return atomSymbols[a]
}

// Formula is a molecular formula stored as signed element counts.
type Formula [numAtoms]int

// Mass returns the mass of the formula in Dalton.
func (f Formula) Mass(mode MassMode) float64 {
	table := atomMasses[Monoisotopic]
	if mode >= 0 && int(mode) < len(atomMasses) {
		table = atomMasses[mode]
	}
	var total float64
	for atom, count := range f {
		total += float64(count) * table[atom]
	}
	return total
}

// Add returns the sum of two formulas.
func (f Formula) Add(o Formula) Formula {
	for i := range f {
		f[i] += o[i]
	}
	return f
}

// IsEmpty reports whether every element count is zero.
func (f Formula) IsEmpty() bool {
	return f == Formula{}
}

func (f Formula) String() string {
	var b strings.Builder
	for atom, count := range f {
		if count == 0 {
			continue
		}
		b.WriteString(atomSymbols[atom])
		if count != 1 {
			b.WriteString(strconv.Itoa(count))
		}
	}
	return b.String()
}

// ParseFormula parses a formula such as "C2H3NO" or "H-1N-1O".
func ParseFormula(s string) (Formula, error) {
	var f Formula
	runes := []rune(strings.TrimSpace(s))
	if len(runes) == 0 {
		return f, fmt.Errorf("empty formula")
	}

	for i := 0; i < len(runes); {
		if !unicode.IsUpper(runes[i]) {
			return f, fmt.Errorf("formula %q: unexpected %q at %d", s, runes[i], i)
		}
		j := i + 1
		for j < len(runes) && unicode.IsLower(runes[j]) {
			j++
		}
		symbol := string(runes[i:j])

		atom := Atom(-1)
		for a, sym := range atomSymbols {
			if sym == symbol {
				atom = Atom(a)
				break
			}
		}
		if atom < 0 {
			return f, fmt.Errorf("formula %q: unknown element %q", s, symbol)
		}

		k := j
		if k < len(runes) && runes[k] == '-' {
			k++
		}
		for k < len(runes) && unicode.IsDigit(runes[k]) {
			k++
		}
		count := 1
		if k > j {
			n, err := strconv.Atoi(string(runes[j:k]))
			if err != nil {
				return f, fmt.Errorf("formula %q: bad count for %s: %w", s, symbol, err)
			}
			count = n
		}
		f[atom] += count
		i = k
	}
	return f, nil
}

// MustParseFormula is like ParseFormula but panics on error. It is meant for
// the built in tables.
func MustParseFormula(s string) Formula {
	f, err := ParseFormula(s)
	if err != nil {
		panic(err)
	}
	return f
}
