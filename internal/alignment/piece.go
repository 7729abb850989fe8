package alignment

import "strconv"

// Piece is one step of an alignment path. Score is the cumulative score up to
// and including this step, LocalScore the contribution of the step alone.
type Piece struct {
	Score      int
	LocalScore int
	Match      MatchType
	StepA      uint16
	StepB      uint16
}

// empty reports whether the piece is the zero value of an unreached cell.
func (p Piece) empty() bool {
	return p.StepA == 0 && p.StepB == 0
}

// token returns the path symbol of the piece and whether it is a special token
// that is never merged with its neighbours.
func (p Piece) token() (string, bool) {
	switch {
	case p.Match == Isobaric && p.StepA == p.StepB:
		return strconv.Itoa(int(p.StepA)) + "i", true
	case p.Match == Isobaric:
		return strconv.Itoa(int(p.StepA)) + ":" + strconv.Itoa(int(p.StepB)) + "i", true
	case p.Match == Rotation:
		return strconv.Itoa(int(p.StepA)) + "r", true
	case p.StepA == 0 && p.StepB == 1:
		return "I", false
	case p.StepA == 1 && p.StepB == 0:
		return "D", false
	case p.Match == IdentityMassMismatch:
		return "m", false
	case p.Match == FullIdentity:
		return "=", false
	default:
		return "X", false
	}
}
