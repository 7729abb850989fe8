// Package pepalign provides a high-level API for mass based peptide alignment.
//
// This package exposes the core pepalign functionality through a simple API
// for common tasks: aligning two peptides, decoding stored alignments and
// searching queries against a peptide database.
//
// Example usage:
//
//	a, err := pepalign.Parse("ANA")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	b, _ := pepalign.Parse("AGGA")
//
//	al, err := pepalign.Align(a, b)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(al.Short()) // 1=1:2i1=
package pepalign

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/aria-lang/pepalign/internal/alignment"
	"github.com/aria-lang/pepalign/internal/config"
	"github.com/aria-lang/pepalign/internal/filter"
	"github.com/aria-lang/pepalign/internal/fingerprint"
	"github.com/aria-lang/pepalign/internal/peptide"
	"github.com/aria-lang/pepalign/internal/stats"
)

// Re-export types for convenience
type (
	Peptide            = peptide.Peptide
	MassMode           = peptide.MassMode
	Alignment          = alignment.Alignment
	AlignType          = alignment.AlignType
	Scoring            = alignment.Scoring
	Score              = alignment.Score
	Index              = alignment.Index
	PathError          = alignment.PathError
	Config             = config.Config
	Filter             = filter.Filter
	FingerprintOptions = fingerprint.Options
)

// Constants
const (
	Monoisotopic = peptide.Monoisotopic
	Average      = peptide.Average
	MostAbundant = peptide.MostAbundant
	Unbounded    = alignment.Unbounded
	DefaultDepth = config.DefaultDepth
)

// Alignment types
var (
	Local        = alignment.Local
	Global       = alignment.Global
	GlobalA      = alignment.GlobalA
	GlobalB      = alignment.GlobalB
	EitherGlobal = alignment.EitherGlobal
)

// Parse parses a peptide in ProForma notation.
func Parse(s string) (*Peptide, error) {
	return peptide.Parse(s)
}

// DefaultScoring returns the default peptide scoring.
func DefaultScoring() Scoring {
	return alignment.DefaultScoring()
}

// DefaultConfig returns the default scoring, depth and alignment type.
func DefaultConfig() Config {
	return config.Default()
}

// LoadConfig reads settings from a YAML file.
func LoadConfig(path string) (Config, error) {
	return config.Load(path)
}

// Align performs a global alignment with the default settings.
func Align(a, b *Peptide) (*Alignment, error) {
	return AlignWithConfig(a, b, config.Default())
}

// AlignWithConfig aligns two peptides with the given settings.
func AlignWithConfig(a, b *Peptide, cfg Config) (*Alignment, error) {
	return alignment.Align(a, b, cfg.Scoring, cfg.Type, cfg.Depth)
}

// Decode rebuilds an alignment from its short path notation.
func Decode(a, b *Peptide, startA, startB int, path string, cfg Config) (*Alignment, error) {
	return alignment.CreateFromPath(a, b, startA, startB, path, cfg.Scoring, cfg.Type, cfg.Depth)
}

// PeptideStats calculates statistics for a peptide.
func PeptideStats(p *Peptide) *stats.PeptideStats {
	return stats.FromPeptide(p)
}

// PeptideSetStats calculates statistics for multiple peptides.
func PeptideSetStats(peptides []*Peptide) (*stats.PeptideSetStats, error) {
	return stats.FromPeptides(peptides)
}

// ReadFASTA reads peptides from a FASTA file.
func ReadFASTA(filename string) ([]*Peptide, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	return ParseFASTA(file)
}

// ParseFASTA parses FASTA format from a reader. Sequence lines may carry
// ProForma modifications.
func ParseFASTA(r io.Reader) ([]*Peptide, error) {
	peptides := make([]*Peptide, 0)
	scanner := bufio.NewScanner(r)

	var currentID, currentDesc string
	var currentSeq strings.Builder

	flush := func() error {
		if currentSeq.Len() > 0 {
			p, err := peptide.WithID(currentSeq.String(), currentID, currentDesc)
			if err != nil {
				return fmt.Errorf("record %q: %w", currentID, err)
			}
			peptides = append(peptides, p)
			currentSeq.Reset()
		}
		return nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if len(line) == 0 {
			continue
		}

		if line[0] == '>' {
			if err := flush(); err != nil {
				return nil, err
			}

			parts := strings.SplitN(line[1:], " ", 2)
			currentID = parts[0]
			if len(parts) > 1 {
				currentDesc = parts[1]
			} else {
				currentDesc = ""
			}
		} else {
			currentSeq.WriteString(line)
		}
	}

	if err := flush(); err != nil {
		return nil, err
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	return peptides, nil
}

// WriteFASTA writes peptides in FASTA format.
func WriteFASTA(w io.Writer, peptides []*Peptide) error {
	for i, p := range peptides {
		id := p.ID
		if id == "" {
			id = fmt.Sprintf("peptide_%d", i+1)
		}
		header := ">" + id
		if p.Description != "" {
			header += " " + p.Description
		}
		if _, err := fmt.Fprintf(w, "%s\n%s\n", header, p.String()); err != nil {
			return fmt.Errorf("writing peptide: %w", err)
		}
	}
	return nil
}

// ParseQueries reads one peptide per line. Blank lines and lines starting
// with '#' are skipped; a FASTA input is detected by its leading '>'.
func ParseQueries(r io.Reader) ([]*Peptide, error) {
	br := bufio.NewReader(r)
	first, err := br.Peek(1)
	if err == nil && first[0] == '>' {
		return ParseFASTA(br)
	}

	peptides := make([]*Peptide, 0)
	scanner := bufio.NewScanner(br)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		p, err := peptide.WithID(line, fmt.Sprintf("line_%d", lineNum), "")
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		peptides = append(peptides, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading queries: %w", err)
	}
	return peptides, nil
}

// ReadQueries reads queries from a file, see ParseQueries.
func ReadQueries(filename string) ([]*Peptide, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	return ParseQueries(file)
}

// SearchOptions configures a Searcher.
type SearchOptions struct {
	Config Config
	// Fingerprint enables fingerprint preselection when set.
	Fingerprint *FingerprintOptions
	// Filter drops database entries before alignment when set.
	Filter *Filter
	// Parallel aligns the database entries of a query concurrently.
	Parallel bool
	// Top keeps only the best hits of every query, 0 keeps all.
	Top int
}

// Hit is one database match of a query.
type Hit struct {
	Database  int
	Alignment *Alignment
}

// Searcher aligns queries against a fixed peptide database.
type Searcher struct {
	db    []alignment.Sequence
	index *alignment.Index
	fp    *fingerprint.Index
	opts  SearchOptions
}

// NewSearcher indexes db for the given options.
func NewSearcher(db []*Peptide, opts SearchOptions) (*Searcher, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	seqs := make([]alignment.Sequence, len(db))
	for i, p := range db {
		seqs[i] = p
	}

	index, err := alignment.NewIndex(seqs, opts.Config.Scoring.MassMode, opts.Config.Depth)
	if err != nil {
		return nil, err
	}
	s := &Searcher{db: seqs, index: index, opts: opts}

	if opts.Fingerprint != nil {
		gen, err := fingerprint.NewGenerator(*opts.Fingerprint, opts.Config.Scoring, index.Depth())
		if err != nil {
			return nil, err
		}
		if s.fp, err = fingerprint.NewIndex(seqs, gen); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Index returns the underlying alignment index.
func (s *Searcher) Index() *Index { return s.index }

// Fingerprints returns the fingerprint index, nil when preselection is off.
func (s *Searcher) Fingerprints() *fingerprint.Index { return s.fp }

// Database returns the database peptide at i.
func (s *Searcher) Database(i int) *Peptide { return s.db[i].(*Peptide) }

func (s *Searcher) predicate(query *Peptide) (func(alignment.Sequence) bool, error) {
	var preds []func(alignment.Sequence) bool
	if s.fp != nil {
		p, err := s.fp.Filter(query)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	if s.opts.Filter != nil {
		preds = append(preds, s.opts.Filter.Predicate(query))
	}
	if len(preds) == 0 {
		return nil, nil
	}
	return func(seq alignment.Sequence) bool {
		for _, p := range preds {
			if !p(seq) {
				return false
			}
		}
		return true
	}, nil
}

// Search aligns query against the database and returns the hits ordered by
// descending normalised score, ties in database order. In every alignment the
// database entry is A and the query is B.
func (s *Searcher) Search(query *Peptide) ([]Hit, error) {
	pred, err := s.predicate(query)
	if err != nil {
		return nil, err
	}
	cfg := s.opts.Config

	var hits []Hit
	if s.opts.Parallel {
		res, err := s.index.ParAlignOneFiltered(query, pred, cfg.Scoring, cfg.Type)
		if err != nil {
			return nil, err
		}
		hits = make([]Hit, len(res))
		for i, r := range res {
			hits[i] = Hit{Database: r.Index, Alignment: r.Alignment}
		}
	} else {
		seq, err := s.index.AlignOneFiltered(query, pred, cfg.Scoring, cfg.Type)
		if err != nil {
			return nil, err
		}
		for i, al := range seq {
			hits = append(hits, Hit{Database: i, Alignment: al})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Alignment.NormalisedScore() > hits[j].Alignment.NormalisedScore()
	})
	if s.opts.Top > 0 && len(hits) > s.opts.Top {
		hits = hits[:s.opts.Top]
	}
	return hits, nil
}

// Version returns the pepalign version.
func Version() string {
	return "0.3.0"
}

// Info returns information about pepalign.
func Info() string {
	return fmt.Sprintf(`pepalign v%s - Mass based peptide alignment

Features:
  - ProForma peptide parsing with modifications
  - Mass tolerant alignment with isobaric and rotated steps
  - Local, global and glocal alignment types
  - Short path notation and decoding
  - Indexed and parallel database search
  - Mass fingerprint preselection
  - YAML scoring configuration
`, Version())
}
