package peptide

import "fmt"

// ParseError is the base error type for peptide parsing.
type ParseError interface {
	error
	IsParseError()
}

// EmptySequenceError is returned when a peptide has no residues.
type EmptySequenceError struct{}

func (e *EmptySequenceError) Error() string {
	return "peptide must have at least one residue"
}

func (e *EmptySequenceError) IsParseError() {}

// InvalidResidueError is returned when an unknown residue letter is encountered.
type InvalidResidueError struct {
	Position int
	Found    rune
}

func (e *InvalidResidueError) Error() string {
	return fmt.Sprintf("invalid residue '%c' at position %d", e.Found, e.Position)
}

func (e *InvalidResidueError) IsParseError() {}

// UnknownModificationError is returned when a modification cannot be resolved.
type UnknownModificationError struct {
	Name string
}

func (e *UnknownModificationError) Error() string {
	return fmt.Sprintf("unknown modification %q", e.Name)
}

func (e *UnknownModificationError) IsParseError() {}

// SyntaxError is returned for malformed peptide notation.
type SyntaxError struct {
	Position int
	Reason   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d: %s", e.Position, e.Reason)
}

func (e *SyntaxError) IsParseError() {}
