// Package mass provides multi-valued masses and the tolerance predicate used
// to decide whether two masses coincide.
package mass

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// dedupEpsilon is the distance below which two masses are considered the same value.
const dedupEpsilon = 1e-9

// Set is a small sorted set of candidate masses in Dalton. A residue with an
// ambiguous identity or an optional modification carries more than one mass.
type Set []float64

// Single returns a set holding one mass.
func Single(m float64) Set {
	return Set{m}
}

// Add inserts m keeping the set sorted and free of duplicates.
func (s Set) Add(m float64) Set {
	i := sort.SearchFloat64s(s, m)
	if i < len(s) && math.Abs(s[i]-m) < dedupEpsilon {
		return s
	}
	if i > 0 && math.Abs(s[i-1]-m) < dedupEpsilon {
		return s
	}
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = m
	return s
}

// Union returns all masses present in either set.
func (s Set) Union(o Set) Set {
	out := make(Set, 0, len(s)+len(o))
	out = append(out, s...)
	for _, m := range o {
		out = out.Add(m)
	}
	return out
}

// Plus returns the set of sums over every pairing of s and o.
func (s Set) Plus(o Set) Set {
	if len(s) == 0 {
		return append(Set(nil), o...)
	}
	if len(o) == 0 {
		return append(Set(nil), s...)
	}
	out := make(Set, 0, len(s)*len(o))
	for _, a := range s {
		for _, b := range o {
			out = out.Add(a + b)
		}
	}
	return out
}

// Shift adds delta to every mass.
func (s Set) Shift(delta float64) Set {
	out := make(Set, len(s))
	for i, m := range s {
		out[i] = m + delta
	}
	return out
}

// Min returns the lowest mass, or 0 for an empty set.
func (s Set) Min() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[0]
}

// Max returns the highest mass, or 0 for an empty set.
func (s Set) Max() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}

func (s Set) String() string {
	parts := make([]string, len(s))
	for i, m := range s {
		parts[i] = strconv.FormatFloat(m, 'f', 4, 64)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// PPM returns the relative difference between a and b in parts per million,
// relative to a.
func PPM(a, b float64) float64 {
	if a == b {
		return 0
	}
	if a == 0 {
		return math.Inf(1)
	}
	return math.Abs(a-b) / math.Abs(a) * 1e6
}

// Closest returns the pairing of a and b with the smallest ppm error.
// ok is false when either set is empty.
func Closest(a, b Set) (ma, mb float64, ok bool) {
	best := math.Inf(1)
	for _, x := range a {
		for _, y := range b {
			if p := PPM(x, y); p < best || !ok {
				best, ma, mb, ok = p, x, y, true
			}
		}
	}
	return ma, mb, ok
}

// Kind selects how a Tolerance is interpreted.
type Kind int

const (
	// Relative tolerances are expressed in parts per million.
	Relative Kind = iota
	// Absolute tolerances are expressed in Dalton.
	Absolute
)

// Tolerance decides whether two masses are the same within measurement error.
type Tolerance struct {
	Kind  Kind
	Value float64
}

// NewPPM creates a relative tolerance.
func NewPPM(ppm float64) Tolerance {
	return Tolerance{Kind: Relative, Value: ppm}
}

// NewAbsolute creates an absolute tolerance in Dalton.
func NewAbsolute(da float64) Tolerance {
	return Tolerance{Kind: Absolute, Value: da}
}

// Bounds returns the inclusive range of masses considered equal to m.
func (t Tolerance) Bounds(m float64) (lo, hi float64) {
	switch t.Kind {
	case Absolute:
		return m - t.Value, m + t.Value
	default:
		return m * (1 - t.Value/1e6), m * (1 + t.Value/1e6)
	}
}

// Within reports whether b lies inside the tolerance window around a.
func (t Tolerance) Within(a, b float64) bool {
	lo, hi := t.Bounds(a)
	return b >= lo && b <= hi
}

// WithinSet reports whether any pairing of a and b lies within tolerance.
func (t Tolerance) WithinSet(a, b Set) bool {
	for _, x := range a {
		for _, y := range b {
			if t.Within(x, y) {
				return true
			}
		}
	}
	return false
}

func (t Tolerance) String() string {
	if t.Kind == Absolute {
		return strconv.FormatFloat(t.Value, 'g', -1, 64) + "da"
	}
	return strconv.FormatFloat(t.Value, 'g', -1, 64) + "ppm"
}

// MarshalText implements encoding.TextMarshaler.
func (t Tolerance) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, so tolerances can be
// given as "10ppm" or "0.02da" in YAML and JSON documents.
func (t *Tolerance) UnmarshalText(text []byte) error {
	parsed, err := ParseTolerance(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTolerance parses strings of the form "10ppm", "10 ppm", "0.02da" or "0.02 Da".
func ParseTolerance(s string) (Tolerance, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	var kind Kind
	switch {
	case strings.HasSuffix(v, "ppm"):
		kind, v = Relative, strings.TrimSuffix(v, "ppm")
	case strings.HasSuffix(v, "da"):
		kind, v = Absolute, strings.TrimSuffix(v, "da")
	default:
		return Tolerance{}, fmt.Errorf("tolerance %q: missing unit (ppm or da)", s)
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return Tolerance{}, fmt.Errorf("tolerance %q: %w", s, err)
	}
	if value < 0 || math.IsNaN(value) {
		return Tolerance{}, fmt.Errorf("tolerance %q: must not be negative", s)
	}
	return Tolerance{Kind: kind, Value: value}, nil
}
