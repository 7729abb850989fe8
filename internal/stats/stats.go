// Package stats provides statistical summaries for peptides and alignments.
package stats

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aria-lang/pepalign/internal/alignment"
	"github.com/aria-lang/pepalign/internal/peptide"
)

// PeptideStats represents statistics for a single peptide.
type PeptideStats struct {
	Length           int
	MonoisotopicMass float64
	AverageMass      float64
	ModifiedResidues int
	Composition      [peptide.NumAminoAcids]int
}

// FromPeptide calculates statistics for a peptide.
func FromPeptide(p *peptide.Peptide) *PeptideStats {
	s := &PeptideStats{
		Length:           p.Len(),
		MonoisotopicMass: p.Mass(peptide.Monoisotopic),
		AverageMass:      p.Mass(peptide.Average),
	}
	for _, e := range p.Elements {
		s.Composition[e.AminoAcid]++
		if e.Modified() {
			s.ModifiedResidues++
		}
	}
	return s
}

// Count returns how often aa occurs.
func (s *PeptideStats) Count(aa peptide.AminoAcid) int {
	return s.Composition[aa]
}

func (s *PeptideStats) String() string {
	var comp []string
	for aa, n := range s.Composition {
		if n > 0 {
			comp = append(comp, fmt.Sprintf("%s: %d", peptide.AminoAcid(aa), n))
		}
	}
	return fmt.Sprintf(`PeptideStats {
  length: %d
  monoisotopic mass: %.4f
  average mass: %.4f
  modified residues: %d
  %s
}`, s.Length, s.MonoisotopicMass, s.AverageMass, s.ModifiedResidues, strings.Join(comp, ", "))
}

// PeptideSetStats represents aggregated statistics for multiple peptides.
type PeptideSetStats struct {
	Count            int
	TotalResidues    int
	MinLength        int
	MaxLength        int
	MeanLength       float64
	MedianLength     int
	N50              int
	MeanMass         float64
	ModifiedResidues int
}

// FromPeptides calculates statistics for a collection of peptides.
func FromPeptides(peptides []*peptide.Peptide) (*PeptideSetStats, error) {
	if len(peptides) == 0 {
		return nil, fmt.Errorf("peptide list cannot be empty")
	}

	count := len(peptides)
	lengths := make([]int, count)
	total := 0
	massSum := 0.0
	modified := 0

	for i, p := range peptides {
		lengths[i] = p.Len()
		total += p.Len()
		massSum += p.Mass(peptide.Monoisotopic)
		for _, e := range p.Elements {
			if e.Modified() {
				modified++
			}
		}
	}

	sorted := make([]int, count)
	copy(sorted, lengths)
	sort.Ints(sorted)

	mid := count / 2
	var median int
	if count%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		median = sorted[mid]
	}

	// N50: the length at which half of all residues are in peptides at least
	// that long.
	half := total / 2
	running := 0
	n50 := sorted[count-1]
	for i := count - 1; i >= 0; i-- {
		running += sorted[i]
		if running >= half {
			n50 = sorted[i]
			break
		}
	}

	return &PeptideSetStats{
		Count:            count,
		TotalResidues:    total,
		MinLength:        sorted[0],
		MaxLength:        sorted[count-1],
		MeanLength:       float64(total) / float64(count),
		MedianLength:     median,
		N50:              n50,
		MeanMass:         massSum / float64(count),
		ModifiedResidues: modified,
	}, nil
}

func (s *PeptideSetStats) String() string {
	return fmt.Sprintf(`PeptideSetStats {
  count: %d
  total residues: %d
  length range: %d - %d
  mean length: %.1f
  median length: %d
  N50: %d
  mean mass: %.4f
  modified residues: %d
}`, s.Count, s.TotalResidues, s.MinLength, s.MaxLength,
		s.MeanLength, s.MedianLength, s.N50, s.MeanMass, s.ModifiedResidues)
}

// AlignmentSetStats represents aggregated statistics for alignments.
type AlignmentSetStats struct {
	Count              int
	MeanScore          float64
	BestScore          float64
	BestIndex          int
	MeanIdentity       float64
	MeanMassSimilarity float64
	IsobaricSteps      int
	RotationSteps      int
	GapSteps           int
}

// FromAlignments calculates statistics for a collection of alignments, for
// example all alignments of one query against a database.
func FromAlignments(alignments []*alignment.Alignment) (*AlignmentSetStats, error) {
	if len(alignments) == 0 {
		return nil, fmt.Errorf("alignment list cannot be empty")
	}

	s := &AlignmentSetStats{Count: len(alignments), BestScore: -1}
	scoreSum, identitySum, similaritySum := 0.0, 0.0, 0.0

	for i, a := range alignments {
		score := a.NormalisedScore()
		scoreSum += score
		if score > s.BestScore {
			s.BestScore = score
			s.BestIndex = i
		}

		st := a.Stats()
		identitySum += st.Identity()
		similaritySum += st.MassSimilarity()

		for _, p := range a.Path() {
			switch p.Match {
			case alignment.Isobaric:
				s.IsobaricSteps++
			case alignment.Rotation:
				s.RotationSteps++
			case alignment.Gap:
				s.GapSteps++
			}
		}
	}

	n := float64(len(alignments))
	s.MeanScore = scoreSum / n
	s.MeanIdentity = identitySum / n
	s.MeanMassSimilarity = similaritySum / n
	return s, nil
}

func (s *AlignmentSetStats) String() string {
	return fmt.Sprintf(`AlignmentSetStats {
  count: %d
  mean score: %.3f
  best score: %.3f (#%d)
  mean identity: %.1f%%
  mean mass similarity: %.1f%%
  isobaric steps: %d, rotation steps: %d, gap steps: %d
}`, s.Count, s.MeanScore, s.BestScore, s.BestIndex,
		s.MeanIdentity*100, s.MeanMassSimilarity*100,
		s.IsobaricSteps, s.RotationSteps, s.GapSteps)
}

// ScoreHistogram represents a histogram of normalised alignment scores.
type ScoreHistogram struct {
	Bins    []int
	NumBins int
}

// NewScoreHistogram bins the normalised scores of alignments over [0, 1].
func NewScoreHistogram(alignments []*alignment.Alignment, numBins int) (*ScoreHistogram, error) {
	if numBins <= 0 {
		return nil, fmt.Errorf("numBins must be positive")
	}

	bins := make([]int, numBins)
	for _, a := range alignments {
		bin := int(a.NormalisedScore() * float64(numBins))
		if bin >= numBins {
			bin = numBins - 1
		}
		if bin < 0 {
			bin = 0
		}
		bins[bin]++
	}
	return &ScoreHistogram{Bins: bins, NumBins: numBins}, nil
}

// ModeBin returns the score range of the most populated bin.
func (h *ScoreHistogram) ModeBin() (float64, float64) {
	best := 0
	for i, c := range h.Bins {
		if c > h.Bins[best] {
			best = i
		}
	}
	width := 1.0 / float64(h.NumBins)
	return float64(best) * width, float64(best+1) * width
}

func (h *ScoreHistogram) String() string {
	var b strings.Builder
	b.WriteString("Score Histogram:\n")
	width := 1.0 / float64(h.NumBins)
	for i, count := range h.Bins {
		start := float64(i) * width
		fmt.Fprintf(&b, "%.2f-%.2f: %s (%d)\n", start, start+width, strings.Repeat("#", count), count)
	}
	return b.String()
}
