package alignment

import (
	"fmt"
	"iter"

	"github.com/exascience/pargo/parallel"
	"go.uber.org/atomic"

	"github.com/aria-lang/pepalign/internal/peptide"
)

// IndexedAlignment pairs an alignment with the position of its database
// sequence in the index.
type IndexedAlignment struct {
	Index     int
	Alignment *Alignment
}

type indexEntry struct {
	seq    Sequence
	masses *Masses
}

// Index holds database sequences with precomputed window masses so that many
// queries can be aligned against them without repeating that work.
//
// The database side of an Index is never modified after construction, so
// the alignment methods are safe for concurrent use.
type Index struct {
	entries []indexEntry
	mode    peptide.MassMode
	depth   int

	// OnProgress, when set, is called by the parallel methods with the number
	// of alignments finished so far. It may be called concurrently.
	OnProgress func(done int64)
}

// NewIndex precomputes the masses of every sequence for the given mass mode
// and maximal step size.
func NewIndex(seqs []Sequence, mode peptide.MassMode, depth int) (*Index, error) {
	depth, err := checkDepth(depth)
	if err != nil {
		return nil, err
	}
	idx := &Index{entries: make([]indexEntry, len(seqs)), mode: mode, depth: depth}
	for i, s := range seqs {
		m, err := CalculateMasses(s.Peptidoform(), mode, depth)
		if err != nil {
			return nil, fmt.Errorf("index entry %d: %w", i, err)
		}
		idx.entries[i] = indexEntry{seq: s, masses: m}
	}
	return idx, nil
}

// Len returns the number of database sequences.
func (idx *Index) Len() int { return len(idx.entries) }

// Depth returns the maximal step size of the index.
func (idx *Index) Depth() int { return idx.depth }

// MassMode returns the mass mode the masses were computed with.
func (idx *Index) MassMode() peptide.MassMode { return idx.mode }

// Sequence returns the database sequence at i.
func (idx *Index) Sequence(i int) Sequence { return idx.entries[i].seq }

// prepare validates scoring against the index and computes the query masses.
func (idx *Index) prepare(query Sequence, scoring Scoring) (*Masses, error) {
	if scoring.MassMode != idx.mode {
		return nil, fmt.Errorf("scoring uses %s, index uses %s: %w", scoring.MassMode, idx.mode, ErrMassModeMismatch)
	}
	if err := scoring.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring: %w", err)
	}
	return CalculateMasses(query.Peptidoform(), idx.mode, idx.depth)
}

// align aligns database entry i (as A) with query (as B), the same as
// Align(entry, query, ...).
func (idx *Index) align(query Sequence, masses *Masses, i int, scoring Scoring, alignType AlignType) *Alignment {
	e := idx.entries[i]
	return alignCached(e.seq, e.masses, query, masses, scoring, alignType, idx.depth)
}

// AlignOne aligns every database sequence (as A) with query (as B). The
// alignments are computed lazily, in database order, as the sequence is iterated.
func (idx *Index) AlignOne(query Sequence, scoring Scoring, alignType AlignType) (iter.Seq2[int, *Alignment], error) {
	return idx.AlignOneFiltered(query, nil, scoring, alignType)
}

// AlignOneFiltered is like AlignOne but skips database sequences for which
// filter returns false, before any alignment work is done. A nil filter keeps
// every sequence.
func (idx *Index) AlignOneFiltered(query Sequence, filter func(Sequence) bool,
	scoring Scoring, alignType AlignType) (iter.Seq2[int, *Alignment], error) {

	masses, err := idx.prepare(query, scoring)
	if err != nil {
		return nil, err
	}
	return func(yield func(int, *Alignment) bool) {
		for i, e := range idx.entries {
			if filter != nil && !filter(e.seq) {
				continue
			}
			if !yield(i, idx.align(query, masses, i, scoring, alignType)) {
				return
			}
		}
	}, nil
}

// Align aligns every query against the database. The outer sequence yields the
// query position and a lazy sequence of its alignments.
func (idx *Index) Align(queries []Sequence, scoring Scoring, alignType AlignType) (iter.Seq2[int, iter.Seq2[int, *Alignment]], error) {
	prepared := make([]iter.Seq2[int, *Alignment], len(queries))
	for q, query := range queries {
		seq, err := idx.AlignOne(query, scoring, alignType)
		if err != nil {
			return nil, fmt.Errorf("query %d: %w", q, err)
		}
		prepared[q] = seq
	}
	return func(yield func(int, iter.Seq2[int, *Alignment]) bool) {
		for q, seq := range prepared {
			if !yield(q, seq) {
				return
			}
		}
	}, nil
}

// progress counts finished alignments and reports them to OnProgress.
type progress struct {
	done *atomic.Int64
	hook func(int64)
}

func (idx *Index) newProgress() *progress {
	return &progress{done: atomic.NewInt64(0), hook: idx.OnProgress}
}

func (p *progress) add(n int64) {
	done := p.done.Add(n)
	if p.hook != nil {
		p.hook(done)
	}
}

// ParAlignOne aligns query against every database sequence in parallel. The
// result is in database order.
func (idx *Index) ParAlignOne(query Sequence, scoring Scoring, alignType AlignType) ([]*Alignment, error) {
	masses, err := idx.prepare(query, scoring)
	if err != nil {
		return nil, err
	}
	out := make([]*Alignment, len(idx.entries))
	prog := idx.newProgress()
	parallel.Range(0, len(idx.entries), 0, func(low, high int) {
		for i := low; i < high; i++ {
			out[i] = idx.align(query, masses, i, scoring, alignType)
		}
		prog.add(int64(high - low))
	})
	return out, nil
}

// ParAlignOneFiltered is the parallel form of AlignOneFiltered. The result
// holds only the sequences passing filter, in database order.
func (idx *Index) ParAlignOneFiltered(query Sequence, filter func(Sequence) bool,
	scoring Scoring, alignType AlignType) ([]IndexedAlignment, error) {

	masses, err := idx.prepare(query, scoring)
	if err != nil {
		return nil, err
	}

	var selected []int
	for i, e := range idx.entries {
		if filter == nil || filter(e.seq) {
			selected = append(selected, i)
		}
	}

	out := make([]IndexedAlignment, len(selected))
	prog := idx.newProgress()
	parallel.Range(0, len(selected), 0, func(low, high int) {
		for k := low; k < high; k++ {
			i := selected[k]
			out[k] = IndexedAlignment{Index: i, Alignment: idx.align(query, masses, i, scoring, alignType)}
		}
		prog.add(int64(high - low))
	})
	return out, nil
}

// ParAlign aligns every query against the database, in parallel over the
// queries. result[q][i] is the alignment of query q with database sequence i.
func (idx *Index) ParAlign(queries []Sequence, scoring Scoring, alignType AlignType) ([][]*Alignment, error) {
	masses := make([]*Masses, len(queries))
	for q, query := range queries {
		m, err := idx.prepare(query, scoring)
		if err != nil {
			return nil, fmt.Errorf("query %d: %w", q, err)
		}
		masses[q] = m
	}

	out := make([][]*Alignment, len(queries))
	prog := idx.newProgress()
	parallel.Range(0, len(queries), 0, func(low, high int) {
		for q := low; q < high; q++ {
			row := make([]*Alignment, len(idx.entries))
			for i := range idx.entries {
				row[i] = idx.align(queries[q], masses[q], i, scoring, alignType)
			}
			out[q] = row
			prog.add(int64(len(row)))
		}
	})
	return out, nil
}
