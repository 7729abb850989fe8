// Package peptide provides linear peptide types: residues, modifications and
// a parser for a subset of the ProForma notation.
//
// A residue position may carry several candidate masses, either because its
// amino acid code is ambiguous (B, Z) or because it takes part in an
// ambiguous modification group. Masses are always residue masses, without
// the water of a free peptide.
package peptide

import (
	"fmt"
	"strings"

	"github.com/aria-lang/pepalign/internal/mass"
)

// AmbiguousModification is a modification that is placed on one of several
// positions sharing the same group label.
type AmbiguousModification struct {
	Group        string
	Modification Modification
	// Defined marks the position where the group was written with its name.
	Defined bool
}

// Element is a single residue position with its modifications.
type Element struct {
	AminoAcid     AminoAcid
	Modifications []Modification
	Ambiguous     []AmbiguousModification
}

// Modified reports whether the position carries any modification.
func (e Element) Modified() bool {
	return len(e.Modifications) > 0 || len(e.Ambiguous) > 0
}

// Masses returns every mass the position can have.
func (e Element) Masses(mode MassMode) mass.Set {
	var shift float64
	for _, m := range e.Modifications {
		shift += m.Mass(mode)
	}
	s := e.AminoAcid.Masses(mode).Shift(shift)
	for _, am := range e.Ambiguous {
		s = s.Union(s.Shift(am.Modification.Mass(mode)))
	}
	return s
}

// Equal reports whether two positions hold the same residue with the same modifications.
func (e Element) Equal(o Element) bool {
	if e.AminoAcid != o.AminoAcid ||
		len(e.Modifications) != len(o.Modifications) ||
		len(e.Ambiguous) != len(o.Ambiguous) {
		return false
	}
	for i := range e.Modifications {
		if !e.Modifications[i].Equal(o.Modifications[i]) {
			return false
		}
	}
	for i := range e.Ambiguous {
		if !e.Ambiguous[i].Modification.Equal(o.Ambiguous[i].Modification) {
			return false
		}
	}
	return true
}

func (e Element) String() string {
	var b strings.Builder
	b.WriteByte(e.AminoAcid.Byte())
	for _, m := range e.Modifications {
		b.WriteString("[" + m.Name + "]")
	}
	for _, am := range e.Ambiguous {
		if am.Defined {
			b.WriteString("[" + am.Modification.Name + "#" + am.Group + "]")
		} else {
			b.WriteString("[#" + am.Group + "]")
		}
	}
	return b.String()
}

// Peptide is a linear peptide with optional terminal modifications.
type Peptide struct {
	ID          string
	Description string
	Elements    []Element
	NTerm       []Modification
	CTerm       []Modification
}

// Peptidoform returns the peptide itself, so *Peptide can be used wherever a
// sequence provider is expected.
func (p *Peptide) Peptidoform() *Peptide {
	return p
}

// Len returns the number of residues.
func (p *Peptide) Len() int {
	return len(p.Elements)
}

// Sequence returns the bare one letter sequence.
func (p *Peptide) Sequence() string {
	b := make([]byte, len(p.Elements))
	for i, e := range p.Elements {
		b[i] = e.AminoAcid.Byte()
	}
	return string(b)
}

// Modified reports whether any position or terminus is modified.
func (p *Peptide) Modified() bool {
	if len(p.NTerm) > 0 || len(p.CTerm) > 0 {
		return true
	}
	for _, e := range p.Elements {
		if e.Modified() {
			return true
		}
	}
	return false
}

// NTermMass returns the summed mass of the N-terminal modifications.
func (p *Peptide) NTermMass(mode MassMode) float64 {
	return sumMass(p.NTerm, mode)
}

// CTermMass returns the summed mass of the C-terminal modifications.
func (p *Peptide) CTermMass(mode MassMode) float64 {
	return sumMass(p.CTerm, mode)
}

func sumMass(mods []Modification, mode MassMode) float64 {
	var total float64
	for _, m := range mods {
		total += m.Mass(mode)
	}
	return total
}

// Mass returns the lowest neutral mass of the peptide, including water and
// terminal modifications.
func (p *Peptide) Mass(mode MassMode) float64 {
	total := MustParseFormula("H2O").Mass(mode) + p.NTermMass(mode) + p.CTermMass(mode)
	for _, e := range p.Elements {
		total += e.Masses(mode).Min()
	}
	return total
}

// String returns the peptide in ProForma notation.
func (p *Peptide) String() string {
	var b strings.Builder
	for _, m := range p.NTerm {
		b.WriteString("[" + m.Name + "]")
	}
	if len(p.NTerm) > 0 {
		b.WriteByte('-')
	}
	for _, e := range p.Elements {
		b.WriteString(e.String())
	}
	if len(p.CTerm) > 0 {
		b.WriteByte('-')
	}
	for _, m := range p.CTerm {
		b.WriteString("[" + m.Name + "]")
	}
	return b.String()
}

// Parse parses a peptide written in the supported ProForma subset:
//
//	PEPTIDE              plain residues
//	PEM[Oxidation]K      modification on the preceding residue
//	[Acetyl]-PEPTIDE     N-terminal modification
//	PEPTIDE-[Amidated]   C-terminal modification
//	S[Phospho#g1]T[#g1]  ambiguous modification on one of the group positions
//	PEPT[+79.966]IDE     mass delta modification
func Parse(s string) (*Peptide, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return nil, &EmptySequenceError{}
	}

	type groupRef struct {
		elem, slot, pos int
		group           string
	}
	p := &Peptide{}
	groups := make(map[string]Modification)
	var refs []groupRef

	i := 0
	if text[0] == '[' {
		for i < len(text) && text[i] == '[' {
			content, next, err := readBracket(text, i)
			if err != nil {
				return nil, err
			}
			if strings.Contains(content, "#") {
				return nil, &SyntaxError{Position: i, Reason: "terminal modifications cannot be ambiguous"}
			}
			m, err := LookupModification(content)
			if err != nil {
				return nil, err
			}
			p.NTerm = append(p.NTerm, m)
			i = next
		}
		if i >= len(text) || text[i] != '-' {
			return nil, &SyntaxError{Position: i, Reason: "expected '-' after N-terminal modification"}
		}
		i++
	}

	for i < len(text) {
		c := text[i]
		switch c {
		case '[':
			if len(p.Elements) == 0 {
				return nil, &SyntaxError{Position: i, Reason: "modification before the first residue"}
			}
			content, next, err := readBracket(text, i)
			if err != nil {
				return nil, err
			}
			last := len(p.Elements) - 1
			elem := &p.Elements[last]
			if name, group, ok := strings.Cut(content, "#"); ok {
				if group == "" {
					return nil, &SyntaxError{Position: i, Reason: "empty modification group"}
				}
				am := AmbiguousModification{Group: group}
				if strings.TrimSpace(name) != "" {
					m, err := LookupModification(name)
					if err != nil {
						return nil, err
					}
					if _, dup := groups[group]; dup {
						return nil, &SyntaxError{Position: i, Reason: fmt.Sprintf("group %q defined twice", group)}
					}
					groups[group] = m
					am.Modification = m
					am.Defined = true
				} else {
					refs = append(refs, groupRef{elem: last, slot: len(elem.Ambiguous), pos: i, group: group})
				}
				elem.Ambiguous = append(elem.Ambiguous, am)
			} else {
				m, err := LookupModification(content)
				if err != nil {
					return nil, err
				}
				elem.Modifications = append(elem.Modifications, m)
			}
			i = next
		case '-':
			if len(p.Elements) == 0 {
				return nil, &SyntaxError{Position: i, Reason: "unexpected '-'"}
			}
			i++
			if i >= len(text) || text[i] != '[' {
				return nil, &SyntaxError{Position: i, Reason: "expected C-terminal modification"}
			}
			for i < len(text) {
				if text[i] != '[' {
					return nil, &SyntaxError{Position: i, Reason: "unexpected text after C-terminal modification"}
				}
				content, next, err := readBracket(text, i)
				if err != nil {
					return nil, err
				}
				m, err := LookupModification(content)
				if err != nil {
					return nil, err
				}
				p.CTerm = append(p.CTerm, m)
				i = next
			}
		default:
			aa, ok := FromByte(c)
			if !ok {
				return nil, &InvalidResidueError{Position: i, Found: rune(c)}
			}
			p.Elements = append(p.Elements, Element{AminoAcid: aa})
			i++
		}
	}

	if len(p.Elements) == 0 {
		return nil, &EmptySequenceError{}
	}

	for _, r := range refs {
		m, ok := groups[r.group]
		if !ok {
			return nil, &SyntaxError{Position: r.pos, Reason: fmt.Sprintf("group %q has no named position", r.group)}
		}
		p.Elements[r.elem].Ambiguous[r.slot].Modification = m
	}
	return p, nil
}

// readBracket returns the text between the '[' at start and its closing ']'
// and the index just past the closing bracket.
func readBracket(text string, start int) (string, int, error) {
	for j := start + 1; j < len(text); j++ {
		switch text[j] {
		case ']':
			return text[start+1 : j], j + 1, nil
		case '[':
			return "", 0, &SyntaxError{Position: j, Reason: "nested '['"}
		}
	}
	return "", 0, &SyntaxError{Position: start, Reason: "unclosed '['"}
}

// MustParse is like Parse but panics on error.
func MustParse(s string) *Peptide {
	p, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("peptide: Parse(%q): %v", s, err))
	}
	return p
}

// WithID parses a peptide and attaches an identifier and description.
func WithID(s, id, description string) (*Peptide, error) {
	p, err := Parse(s)
	if err != nil {
		return nil, err
	}
	p.ID = id
	p.Description = description
	return p, nil
}
