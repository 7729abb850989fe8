package alignment

import (
	"fmt"
	"strconv"
)

// PathError is returned when an edit string cannot be turned into an alignment.
type PathError struct {
	// Position is the byte offset of the offending token in the path.
	Position int
	Token    string
	Reason   string
}

func (e *PathError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("invalid path at %d: %s", e.Position, e.Reason)
	}
	return fmt.Sprintf("invalid path token %q at %d: %s", e.Token, e.Position, e.Reason)
}

type pathToken struct {
	pos    int
	text   string
	a, b   int
	symbol byte
}

var pathMatch = map[byte]MatchType{
	'=': FullIdentity,
	'X': Mismatch,
	'm': IdentityMassMismatch,
	'i': Isobaric,
	'r': Rotation,
}

// parsePath splits an edit string into its tokens.
func parsePath(path string) ([]pathToken, error) {
	var tokens []pathToken
	readCount := func(i int) (int, int, error) {
		start := i
		for i < len(path) && path[i] >= '0' && path[i] <= '9' {
			i++
		}
		if i == start {
			return 0, i, &PathError{Position: start, Token: path[start:min(start+1, len(path))], Reason: "expected a count"}
		}
		n, err := strconv.Atoi(path[start:i])
		if err != nil {
			return 0, i, &PathError{Position: start, Token: path[start:i], Reason: "count out of range"}
		}
		return n, i, nil
	}

	for i := 0; i < len(path); {
		start := i
		a, next, err := readCount(i)
		if err != nil {
			return nil, err
		}
		i = next
		b, colon := a, false
		if i < len(path) && path[i] == ':' {
			b, next, err = readCount(i + 1)
			if err != nil {
				return nil, err
			}
			i, colon = next, true
		}
		if i >= len(path) {
			return nil, &PathError{Position: start, Token: path[start:], Reason: "missing step symbol"}
		}
		t := pathToken{pos: start, text: path[start : i+1], a: a, b: b, symbol: path[i]}
		i++

		switch t.symbol {
		case '=', 'X', 'm', 'I', 'D', 'r':
			if colon {
				return nil, &PathError{Position: start, Token: t.text, Reason: "only isobaric steps take two counts"}
			}
		case 'i':
		default:
			return nil, &PathError{Position: start, Token: t.text, Reason: fmt.Sprintf("unknown step symbol %q", t.symbol)}
		}
		if t.a == 0 || t.b == 0 {
			return nil, &PathError{Position: start, Token: t.text, Reason: "count must be positive"}
		}
		tokens = append(tokens, t)
	}
	return tokens, nil
}

// CreateFromPath rebuilds an alignment from its edit string, as produced by
// Alignment.Short, starting at startA in a and startB in b.
//
// The path grammar is a sequence of tokens:
//
//	<n>=      n identical residues
//	<n>X      n mismatches
//	<n>m      n identities with a mass mismatch
//	<n>I      n residues only in B
//	<n>D      n residues only in A
//	<n>i      isobaric step of n residues on both sides
//	<a>:<b>i  isobaric step of a residues of A and b residues of B
//	<n>r      rotation of n residues, n at least 2
//
// Every step is rescored with scoring and must have the match type its symbol
// claims.
func CreateFromPath(a, b Sequence, startA, startB int, path string,
	scoring Scoring, alignType AlignType, depth int) (*Alignment, error) {

	depth, err := checkDepth(depth)
	if err != nil {
		return nil, err
	}
	if err := scoring.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring: %w", err)
	}

	pa, pb := a.Peptidoform(), b.Peptidoform()
	lenA, lenB := pa.Len(), pb.Len()
	if startA < 0 || startA > lenA || startB < 0 || startB > lenB {
		return nil, &PathError{Reason: fmt.Sprintf("start %d/%d outside sequences of length %d/%d",
			startA, startB, lenA, lenB)}
	}

	tokens, err := parsePath(path)
	if err != nil {
		return nil, err
	}

	massesA, err := CalculateMasses(pa, scoring.MassMode, depth)
	if err != nil {
		return nil, err
	}
	massesB, err := CalculateMasses(pb, scoring.MassMode, depth)
	if err != nil {
		return nil, err
	}

	var pieces []Piece
	ia, ib, score := startA, startB, 0
	add := func(p Piece) {
		score += p.LocalScore
		p.Score = score
		pieces = append(pieces, p)
		ia += int(p.StepA)
		ib += int(p.StepB)
	}
	overrun := func(t pathToken, la, lb int) error {
		if ia+la > lenA || ib+lb > lenB {
			return &PathError{Position: t.pos, Token: t.text,
				Reason: fmt.Sprintf("step %d/%d at %d/%d runs past the sequence end", la, lb, ia, ib)}
		}
		return nil
	}
	wrongType := func(t pathToken, got MatchType) error {
		return &PathError{Position: t.pos, Token: t.text,
			Reason: fmt.Sprintf("step at %d/%d is %s, not %s", ia, ib, got, pathMatch[t.symbol])}
	}

	for _, t := range tokens {
		switch t.symbol {
		case 'I', 'D':
			inA := t.symbol == 'D'
			for n := 0; n < t.a; n++ {
				la, lb := 0, 1
				if inA {
					la, lb = 1, 0
				}
				if err := overrun(t, la, lb); err != nil {
					return nil, err
				}
				prev := Piece{}
				if len(pieces) > 0 {
					prev = pieces[len(pieces)-1]
				}
				p := gapPiece(prev, inA, scoring)
				add(p)
			}

		case '=', 'X', 'm':
			for n := 0; n < t.a; n++ {
				if err := overrun(t, 1, 1); err != nil {
					return nil, err
				}
				match, local := scoring.scorePair(
					pa.Elements[ia], massesA.At(ia, 0),
					pb.Elements[ib], massesB.At(ib, 0))
				if match != pathMatch[t.symbol] {
					return nil, wrongType(t, match)
				}
				add(Piece{LocalScore: local, Match: match, StepA: 1, StepB: 1})
			}

		case 'i', 'r':
			la, lb := t.a, t.b
			if t.symbol == 'r' && la < 2 {
				return nil, &PathError{Position: t.pos, Token: t.text,
					Reason: "a rotation needs at least two residues"}
			}
			if la > depth || lb > depth {
				return nil, &PathError{Position: t.pos, Token: t.text,
					Reason: fmt.Sprintf("step %d/%d exceeds depth %d", la, lb, depth)}
			}
			if err := overrun(t, la, lb); err != nil {
				return nil, err
			}
			var match MatchType
			var local int
			if la == 1 && lb == 1 && t.symbol == 'i' {
				match, local = scoring.scorePair(
					pa.Elements[ia], massesA.At(ia, 0),
					pb.Elements[ib], massesB.At(ib, 0))
			} else {
				var ok bool
				match, local, ok = scoring.scoreWindow(
					pa.Elements[ia:ia+la], massesA.At(ia+la-1, la-1),
					pb.Elements[ib:ib+lb], massesB.At(ib+lb-1, lb-1))
				if !ok {
					return nil, &PathError{Position: t.pos, Token: t.text,
						Reason: fmt.Sprintf("masses of step %d/%d at %d/%d do not match", la, lb, ia, ib)}
				}
			}
			if match != pathMatch[t.symbol] {
				return nil, wrongType(t, match)
			}
			add(Piece{LocalScore: local, Match: match, StepA: uint16(la), StepB: uint16(lb)})
		}
	}

	return newAlignment(a, b, startA, startB, pieces, scoring, alignType, depth), nil
}
