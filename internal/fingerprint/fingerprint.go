// Package fingerprint provides a mass fingerprint index used to preselect
// database sequences before alignment.
//
// A fingerprint is the hash of a short vector of quantised segment masses
// taken from a window of a peptide. Two peptides that align well share at
// least one fingerprint, so only database entries sharing a fingerprint with
// a query need to be aligned.
package fingerprint

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/zeebo/wyhash"

	"github.com/aria-lang/pepalign/internal/alignment"
	"github.com/aria-lang/pepalign/internal/mass"
	"github.com/aria-lang/pepalign/internal/peptide"
)

// ErrInvalidOptions is returned for options that cannot generate fingerprints.
var ErrInvalidOptions = errors.New("invalid fingerprint options")

// Options bound the windows a fingerprint is built from.
//
// Each window covers between MinLength and MaxLength residues and is split
// into at most MaxSegments segments, with at most MaxGaps single residues
// skipped in between.
type Options struct {
	MinLength   int
	MaxLength   int
	MaxSegments int
	MaxGaps     int
}

// DefaultOptions returns the options used by the search command.
func DefaultOptions() Options {
	return Options{MinLength: 6, MaxLength: 7, MaxSegments: 3, MaxGaps: 1}
}

// Validate checks that the options describe at least one window.
func (o Options) Validate() error {
	switch {
	case o.MinLength < 1:
		return fmt.Errorf("%w: min length %d must be positive", ErrInvalidOptions, o.MinLength)
	case o.MaxLength < o.MinLength:
		return fmt.Errorf("%w: max length %d below min length %d", ErrInvalidOptions, o.MaxLength, o.MinLength)
	case o.MaxSegments < 1:
		return fmt.Errorf("%w: max segments %d must be positive", ErrInvalidOptions, o.MaxSegments)
	case o.MaxGaps < 0:
		return fmt.Errorf("%w: max gaps %d is negative", ErrInvalidOptions, o.MaxGaps)
	}
	return nil
}

// Generator produces fingerprints for peptides.
type Generator struct {
	Options   Options
	Tolerance mass.Tolerance
	MassMode  peptide.MassMode
	// Depth is the longest segment considered, in residues.
	Depth int
}

// NewGenerator returns a generator using the tolerance and mass mode of scoring.
func NewGenerator(opts Options, scoring alignment.Scoring, depth int) (*Generator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if depth < 1 {
		return nil, fmt.Errorf("depth %d: %w", depth, alignment.ErrInvalidDepth)
	}
	return &Generator{Options: opts, Tolerance: scoring.Tolerance, MassMode: scoring.MassMode, Depth: depth}, nil
}

// Library returns the fingerprints stored for a database peptide.
func (g *Generator) Library(p *peptide.Peptide) ([]uint64, error) {
	return g.generate(p, false)
}

// Query returns the fingerprints looked up for a query peptide. Every segment
// also emits its neighbouring bins, so masses close to a bin edge still meet.
func (g *Generator) Query(p *peptide.Peptide) ([]uint64, error) {
	return g.generate(p, true)
}

type walker struct {
	g         *Generator
	masses    *alignment.Masses
	neighbors bool
	bins      []int64
	buf       []byte
	seen      map[uint64]struct{}
	out       []uint64
}

func (g *Generator) generate(p *peptide.Peptide, neighbors bool) ([]uint64, error) {
	masses, err := alignment.CalculateMasses(p, g.MassMode, g.Depth)
	if err != nil {
		return nil, err
	}
	w := &walker{g: g, masses: masses, neighbors: neighbors, seen: make(map[uint64]struct{})}
	for end := 1; end <= p.Len(); end++ {
		w.walk(end, 0, 0, 0)
	}
	return w.out, nil
}

// walk extends the current window backwards from index, which is the number
// of residues not yet covered.
func (w *walker) walk(index, length, gaps, segments int) {
	opts := w.g.Options
	if length >= opts.MinLength {
		w.emit()
	}
	if index == 0 || length >= opts.MaxLength {
		return
	}

	if segments < opts.MaxSegments {
		longest := min(index, opts.MaxLength-length, w.g.Depth)
		for l := 1; l <= longest; l++ {
			for _, m := range w.masses.At(index-1, l-1) {
				bin := binIndex(m, w.g.Tolerance)
				lo, hi := bin, bin
				if w.neighbors {
					lo, hi = bin-1, bin+1
				}
				for b := lo; b <= hi; b++ {
					w.bins = append(w.bins, b)
					w.walk(index-l, length+l, gaps, segments+1)
					w.bins = w.bins[:len(w.bins)-1]
				}
			}
		}
	}

	if gaps < opts.MaxGaps {
		w.walk(index-1, length+1, gaps+1, segments)
	}
}

func (w *walker) emit() {
	w.buf = w.buf[:0]
	for _, b := range w.bins {
		w.buf = binary.LittleEndian.AppendUint64(w.buf, uint64(b))
	}
	h := wyhash.Hash(w.buf, uint64(len(w.bins)))
	if _, ok := w.seen[h]; ok {
		return
	}
	w.seen[h] = struct{}{}
	w.out = append(w.out, h)
}

// binIndex quantises a mass. Relative tolerances use a logarithmic scale so
// that every bin spans the same ppm width.
func binIndex(m float64, tol mass.Tolerance) int64 {
	if tol.Value <= 0 {
		return int64(math.Round(m * 1e6))
	}
	if tol.Kind == mass.Absolute {
		return int64(math.Round(m / tol.Value))
	}
	width := math.Abs(math.Log(1 - tol.Value/1e6))
	return int64(math.Round(math.Log(m) / width))
}

// Bucket is a fingerprint and the number of database sequences holding it.
type Bucket struct {
	Hash  uint64
	Count int
}

// Stats summarises an index.
type Stats struct {
	Sequences int
	Unique    int
	Total     int
}

func (s Stats) String() string {
	return fmt.Sprintf("FingerprintIndex { sequences: %d, unique: %d, total: %d }", s.Sequences, s.Unique, s.Total)
}

// Index maps fingerprints to the database sequences holding them.
type Index struct {
	gen     *Generator
	seqs    []alignment.Sequence
	buckets map[uint64][]int
	total   int
}

// NewIndex fingerprints every database sequence.
func NewIndex(seqs []alignment.Sequence, gen *Generator) (*Index, error) {
	idx := &Index{gen: gen, seqs: seqs, buckets: make(map[uint64][]int)}
	for i, s := range seqs {
		fps, err := gen.Library(s.Peptidoform())
		if err != nil {
			return nil, fmt.Errorf("index entry %d: %w", i, err)
		}
		for _, fp := range fps {
			idx.buckets[fp] = append(idx.buckets[fp], i)
		}
		idx.total += len(fps)
	}
	return idx, nil
}

// Len returns the number of database sequences.
func (idx *Index) Len() int { return len(idx.seqs) }

// Stats returns the index counters.
func (idx *Index) Stats() Stats {
	return Stats{Sequences: len(idx.seqs), Unique: len(idx.buckets), Total: idx.total}
}

// MostShared returns the n fingerprints held by the most sequences.
func (idx *Index) MostShared(n int) ([]Bucket, error) {
	if n <= 0 {
		return nil, fmt.Errorf("n must be positive")
	}
	buckets := make([]Bucket, 0, len(idx.buckets))
	for h, entries := range idx.buckets {
		buckets = append(buckets, Bucket{Hash: h, Count: len(entries)})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Hash < buckets[j].Hash
	})
	return buckets[:min(n, len(buckets))], nil
}

// Candidates returns the positions of the database sequences sharing a
// fingerprint with query, in ascending order.
func (idx *Index) Candidates(query alignment.Sequence) ([]int, error) {
	fps, err := idx.gen.Query(query.Peptidoform())
	if err != nil {
		return nil, err
	}
	hit := make(map[int]struct{})
	for _, fp := range fps {
		for _, i := range idx.buckets[fp] {
			hit[i] = struct{}{}
		}
	}
	out := make([]int, 0, len(hit))
	for i := range hit {
		out = append(out, i)
	}
	sort.Ints(out)
	return out, nil
}

// Filter returns a predicate accepting the candidates of query, for use with
// alignment.Index.AlignOneFiltered over the same database. Sequences are
// matched by identity, so the database must hold comparable values such as
// *peptide.Peptide.
func (idx *Index) Filter(query alignment.Sequence) (func(alignment.Sequence) bool, error) {
	candidates, err := idx.Candidates(query)
	if err != nil {
		return nil, err
	}
	keep := make(map[alignment.Sequence]struct{}, len(candidates))
	for _, i := range candidates {
		keep[idx.seqs[i]] = struct{}{}
	}
	return func(s alignment.Sequence) bool {
		_, ok := keep[s]
		return ok
	}, nil
}
