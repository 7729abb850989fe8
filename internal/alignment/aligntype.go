package alignment

import (
	"fmt"
	"strings"
)

// Side describes which sequences must be aligned up to one of their ends.
type Side struct {
	// A and B mark the sequences that are aligned up to this end.
	A, B bool
	// Either requires at least one of the two sequences to reach this end.
	Either bool
}

// Global reports whether any sequence is bound to this end.
func (s Side) Global() bool {
	return s.Either || s.A || s.B
}

// GlobalA reports whether A is bound to this end.
func (s Side) GlobalA() bool {
	return !s.Either && s.A
}

// GlobalB reports whether B is bound to this end.
func (s Side) GlobalB() bool {
	return !s.Either && s.B
}

func (s Side) String() string {
	switch {
	case s.Either:
		return "either"
	case s.A && s.B:
		return "both"
	case s.A:
		return "a"
	case s.B:
		return "b"
	default:
		return "none"
	}
}

// AlignType describes the boundary behaviour of an alignment on its left
// (start) and right (end) side.
type AlignType struct {
	Left, Right Side
}

var (
	// Local lets both sequences start and end anywhere.
	Local = AlignType{}
	// Global aligns both sequences completely.
	Global = AlignType{Left: Side{A: true, B: true}, Right: Side{A: true, B: true}}
	// GlobalA aligns A completely and B locally.
	GlobalA = AlignType{Left: Side{A: true}, Right: Side{A: true}}
	// GlobalB aligns B completely and A locally.
	GlobalB = AlignType{Left: Side{B: true}, Right: Side{B: true}}
	// EitherGlobal requires that at each end one of the sequences is fully aligned.
	EitherGlobal = AlignType{Left: Side{Either: true}, Right: Side{Either: true}}
	// GlocalAB aligns the start of A and the end of B, so A's tail may overhang.
	GlocalAB = AlignType{Left: Side{A: true}, Right: Side{B: true}}
	// GlocalBA aligns the start of B and the end of A.
	GlocalBA = AlignType{Left: Side{B: true}, Right: Side{A: true}}
)

var alignTypeNames = []struct {
	name string
	typ  AlignType
}{
	{"local", Local},
	{"global", Global},
	{"global-a", GlobalA},
	{"global-b", GlobalB},
	{"either-global", EitherGlobal},
	{"glocal-ab", GlocalAB},
	{"glocal-ba", GlocalBA},
}

// ParseAlignType parses the name of a preset.
func ParseAlignType(s string) (AlignType, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, n := range alignTypeNames {
		if n.name == v {
			return n.typ, nil
		}
	}
	return AlignType{}, fmt.Errorf("unknown alignment type %q", s)
}

func (t AlignType) String() string {
	for _, n := range alignTypeNames {
		if n.typ == t {
			return n.name
		}
	}
	return fmt.Sprintf("left:%s/right:%s", t.Left, t.Right)
}

// MarshalText implements encoding.TextMarshaler.
func (t AlignType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *AlignType) UnmarshalText(text []byte) error {
	parsed, err := ParseAlignType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
