package peptide

import (
	"strconv"
	"strings"
)

// Modification is a chemical change to a residue or terminus. It is defined
// either by a formula or, for mass-only notation, by a mass delta.
type Modification struct {
	Name    string
	Formula Formula
	// Delta is used when the modification is only known by its mass.
	Delta    float64
	hasDelta bool
}

var knownModifications = map[string]Modification{
	"oxidation":       {Name: "Oxidation", Formula: MustParseFormula("O")},
	"carbamidomethyl": {Name: "Carbamidomethyl", Formula: MustParseFormula("C2H3NO")},
	"phospho":         {Name: "Phospho", Formula: MustParseFormula("HPO3")},
	"acetyl":          {Name: "Acetyl", Formula: MustParseFormula("C2H2O")},
	"deamidated":      {Name: "Deamidated", Formula: MustParseFormula("H-1N-1O")},
	"methyl":          {Name: "Methyl", Formula: MustParseFormula("CH2")},
	"amidated":        {Name: "Amidated", Formula: MustParseFormula("H1N1O-1")},
}

// LookupModification resolves a modification written in bracket notation:
// a known name ("Oxidation", "U:Oxidation"), a formula ("Formula:C2H3NO") or a
// signed mass delta ("+15.9949").
func LookupModification(text string) (Modification, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return Modification{}, &UnknownModificationError{Name: text}
	}

	if t[0] == '+' || t[0] == '-' {
		delta, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return Modification{}, &UnknownModificationError{Name: text}
		}
		return Modification{Name: t, Delta: delta, hasDelta: true}, nil
	}

	if rest, ok := cutPrefixFold(t, "formula:"); ok {
		f, err := ParseFormula(rest)
		if err != nil {
			return Modification{}, &UnknownModificationError{Name: text}
		}
		return Modification{Name: "Formula:" + f.String(), Formula: f}, nil
	}

	name := t
	if rest, ok := cutPrefixFold(t, "u:"); ok {
		name = rest
	}
	if m, ok := knownModifications[strings.ToLower(name)]; ok {
		return m, nil
	}
	return Modification{}, &UnknownModificationError{Name: text}
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return s, false
}

// Mass returns the mass the modification adds.
func (m Modification) Mass(mode MassMode) float64 {
	if m.hasDelta {
		return m.Delta
	}
	return m.Formula.Mass(mode)
}

// Equal reports whether two modifications describe the same change.
func (m Modification) Equal(o Modification) bool {
	if m.hasDelta != o.hasDelta {
		return false
	}
	if m.hasDelta {
		return m.Delta == o.Delta
	}
	return m.Formula == o.Formula
}

func (m Modification) String() string {
	return m.Name
}
