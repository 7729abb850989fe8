package alignment

import (
	"math"
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/aria-lang/pepalign/internal/peptide"
)

var depths = []int{1, 4, Unbounded}

func mustAlign(t *testing.T, a, b string, alignType AlignType, depth int) *Alignment {
	t.Helper()
	al, err := Align(peptide.MustParse(a), peptide.MustParse(b), DefaultScoring(), alignType, depth)
	require.NoError(t, err)
	return al
}

func TestScoring(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		s := DefaultScoring()
		assert.Equal(t, -1, s.Mismatch)
		assert.Equal(t, -1, s.MassMismatch)
		assert.Equal(t, 1, s.MassBase)
		assert.Equal(t, 3, s.Rotated)
		assert.Equal(t, 2, s.Isobaric)
		assert.Equal(t, -5, s.GapOpen)
		assert.Equal(t, -1, s.GapExtend)
		assert.Same(t, BLOSUM62, s.Matrix)
		assert.Equal(t, peptide.Monoisotopic, s.MassMode)
		require.NoError(t, s.Validate())
	})

	t.Run("invalid scoring", func(t *testing.T) {
		s := DefaultScoring()
		s.GapOpen = 2
		require.Error(t, s.Validate())

		s = DefaultScoring()
		s.Mismatch = 1
		require.Error(t, s.Validate())

		s = DefaultScoring()
		s.Matrix = nil
		require.ErrorIs(t, s.Validate(), ErrNilMatrix)

		_, err := Align(peptide.MustParse("A"), peptide.MustParse("A"), s, Global, 1)
		require.ErrorIs(t, err, ErrNilMatrix)
	})

	t.Run("matrix", func(t *testing.T) {
		assert.Equal(t, 4, BLOSUM62.Score(peptide.Ala, peptide.Ala))
		assert.Equal(t, 11, BLOSUM62.Score(peptide.Trp, peptide.Trp))
		assert.Equal(t, -4, BLOSUM62.Score(peptide.Trp, peptide.Asn))
		assert.Equal(t, BLOSUM62.Score(peptide.Cys, peptide.Ala), BLOSUM62.Score(peptide.Sec, peptide.Ala))
		assert.Equal(t, 3, BLOSUM62.Score(peptide.Asx, peptide.Asx))
		assert.Equal(t, 9, Identity.Score(peptide.Gly, peptide.Gly))
		assert.Equal(t, -5, Identity.Score(peptide.Gly, peptide.Ala))

		for a := 0; a < peptide.NumAminoAcids; a++ {
			for b := 0; b < peptide.NumAminoAcids; b++ {
				assert.Equal(t,
					BLOSUM62.Score(peptide.AminoAcid(a), peptide.AminoAcid(b)),
					BLOSUM62.Score(peptide.AminoAcid(b), peptide.AminoAcid(a)))
			}
		}

		m, ok := MatrixByName("identity")
		require.True(t, ok)
		assert.Same(t, Identity, m)
		_, ok = MatrixByName("PAM30")
		assert.False(t, ok)
	})
}

func TestAlignType(t *testing.T) {
	assert.True(t, Global.Left.GlobalA())
	assert.True(t, Global.Right.GlobalB())
	assert.False(t, Local.Left.Global())
	assert.True(t, EitherGlobal.Left.Global())
	assert.False(t, EitherGlobal.Left.GlobalA())
	assert.False(t, EitherGlobal.Left.GlobalB())

	for _, name := range []string{"local", "global", "global-a", "global-b", "either-global", "glocal-ab", "glocal-ba"} {
		typ, err := ParseAlignType(name)
		require.NoError(t, err)
		assert.Equal(t, name, typ.String())
	}
	_, err := ParseAlignType("semi")
	assert.Error(t, err)
}

func TestAlignScenarios(t *testing.T) {
	tests := []struct {
		name      string
		a, b      string
		alignType AlignType
		depth     int
		path      string
		score     int
	}{
		{"single residue steps", "ANGARS", "AGGQRS", Global, 1, "1=1X1=1X2=", 16},
		{"isobaric windows", "ANGARS", "AGGQRS", Global, 4, "1=1:2i2:1i2=", 21},
		{"one to two", "ANA", "AGGA", Global, Unbounded, "1=1:2i1=", 12},
		{"rotation", "AGS", "ASG", Global, 2, "1=2r", 11},
		{"isobaric single residues are not merged", "LL", "II", Global, Unbounded, "1i1i", 6},
		{"consecutive isobaric windows", "NN", "GGGG", Global, Unbounded, "1:2i1:2i", 8},
		{"gap in A", "", "PEPTIDE", Global, 4, "7I", -11},
		{"gap in B", "PEPTIDE", "", Global, 4, "7D", -11},
		{"both empty", "", "", Global, 4, "", 0},
		{"local", "PEPTIDE", "WWWPEPTIDEWWW", Local, 4, "7=", 39},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := &peptide.Peptide{}, &peptide.Peptide{}
			if tt.a != "" {
				a = peptide.MustParse(tt.a)
			}
			if tt.b != "" {
				b = peptide.MustParse(tt.b)
			}
			al, err := Align(a, b, DefaultScoring(), tt.alignType, tt.depth)
			require.NoError(t, err)
			assert.Equal(t, tt.path, al.Short())
			assert.Equal(t, tt.score, al.Score().Absolute)
		})
	}
}

func TestAlignOneToTwo(t *testing.T) {
	al := mustAlign(t, "ANA", "AGGA", Global, Unbounded)

	score := al.Score()
	assert.Equal(t, 12, score.Absolute)
	assert.Equal(t, 17, score.Max)
	assert.InDelta(t, 12.0/17.0, score.Normalised, 1e-9)
	assert.InDelta(t, 0.0, al.PPM(), 1e-6)
	assert.InDelta(t, 0.0, al.MassDifference(), 1e-9)

	stats := al.Stats()
	assert.Equal(t, 2, stats.Identical)
	assert.Equal(t, 3, stats.MassSimilar)
	assert.Equal(t, 0, stats.Gaps)
	assert.Equal(t, 4, stats.Length)
	assert.InDelta(t, 0.5, stats.Identity(), 1e-9)
	assert.InDelta(t, 0.75, stats.MassSimilarity(), 1e-9)

	assert.Equal(t, 3, al.LenA())
	assert.Equal(t, 4, al.LenB())
	assert.Len(t, al.Path(), 3)
}

func TestAlignBoundaries(t *testing.T) {
	t.Run("empty against sequence", func(t *testing.T) {
		for _, n := range []int{1, 2, 5} {
			b := peptide.MustParse("GAVLIPFMW"[:n])
			al, err := Align(&peptide.Peptide{}, b, DefaultScoring(), Global, 4)
			require.NoError(t, err)
			assert.Equal(t, -5-(n-1), al.Score().Absolute)
			assert.Equal(t, n, al.Stats().Gaps)
		}
	})

	t.Run("empty pair", func(t *testing.T) {
		al, err := Align(&peptide.Peptide{}, &peptide.Peptide{}, DefaultScoring(), Local, 1)
		require.NoError(t, err)
		assert.Empty(t, al.Path())
		assert.Equal(t, Score{}, al.Score())
		assert.Equal(t, 0.0, al.Stats().Identity())
	})

	t.Run("global on B only", func(t *testing.T) {
		al := mustAlign(t, "PEPTIDE", "TIDE", GlobalB, 4)
		assert.Equal(t, "4=", al.Short())
		assert.Equal(t, 3, al.StartA())
		assert.Equal(t, 0, al.StartB())
	})

	t.Run("global on A only", func(t *testing.T) {
		al := mustAlign(t, "TIDE", "PEPTIDE", GlobalA, 4)
		assert.Equal(t, "4=", al.Short())
		assert.Equal(t, 0, al.StartA())
		assert.Equal(t, 3, al.StartB())
	})

	t.Run("either global", func(t *testing.T) {
		al := mustAlign(t, "PEPTIDE", "TIDE", EitherGlobal, 4)
		assert.Equal(t, "4=", al.Short())
		assert.Equal(t, 3, al.StartA())
	})

	t.Run("local start", func(t *testing.T) {
		al := mustAlign(t, "PEPTIDE", "WWWPEPTIDEWWW", Local, 4)
		assert.Equal(t, 0, al.StartA())
		assert.Equal(t, 3, al.StartB())
		assert.Equal(t, 1.0, al.NormalisedScore())
	})

	t.Run("invalid depth", func(t *testing.T) {
		_, err := Align(peptide.MustParse("A"), peptide.MustParse("A"), DefaultScoring(), Global, 0)
		require.ErrorIs(t, err, ErrInvalidDepth)
	})
}

func TestIdentityMassMismatch(t *testing.T) {
	a, b := peptide.MustParse("PEMK"), peptide.MustParse("PEM[Oxidation]K")

	s := DefaultScoring()
	s.Pair = PairDatabaseToPeptidoform
	al, err := Align(a, b, s, Global, 4)
	require.NoError(t, err)
	assert.Equal(t, "2=1m1=", al.Short())
	assert.Equal(t, 4, al.Stats().Identical)
	assert.Equal(t, 0, al.Stats().Gaps)
	assert.InDelta(t, -15.994915, al.MassDifference(), 1e-5)

	al, err = Align(a, b, DefaultScoring(), Global, 4)
	require.NoError(t, err)
	assert.Equal(t, "2=1X1=", al.Short())

	s.Pair = PairPeptidoformToDatabase
	al, err = Align(a, b, s, Global, 4)
	require.NoError(t, err)
	assert.Equal(t, "2=1X1=", al.Short())
}

func TestSelfAlignment(t *testing.T) {
	for _, seq := range []string{"PEPTIDE", "ANGARS", "WAQYLK", "M[Oxidation]KLNG"} {
		for _, depth := range depths {
			al := mustAlign(t, seq, seq, Global, depth)
			assert.Equal(t, 1.0, al.NormalisedScore(), "%s depth %d", seq, depth)
			assert.Equal(t, 1.0, al.Stats().Identity(), "%s depth %d", seq, depth)
			assert.InDelta(t, 0.0, al.PPM(), 1e-9)
		}
	}
}

func randomPeptide(rng *rand.Rand, n int) *peptide.Peptide {
	const residues = "ACDEFGHIKLMNPQRSTVWY"
	seq := make([]byte, n)
	for i := range seq {
		seq[i] = residues[rng.Intn(len(residues))]
	}
	return peptide.MustParse(string(seq))
}

func TestDepthMonotonicity(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	steps := []int{1, 2, 3, 4, 6, Unbounded}

	for n := 0; n < 150; n++ {
		a := randomPeptide(rng, 1+rng.Intn(10))
		b := randomPeptide(rng, 1+rng.Intn(10))
		for _, typ := range alignTypeNames {
			previous := math.MinInt
			for _, depth := range steps {
				al, err := Align(a, b, DefaultScoring(), typ.typ, depth)
				require.NoError(t, err)
				score := al.Score().Absolute
				require.GreaterOrEqual(t, score, previous, "%s/%s %s depth %d path %s", a, b, typ.name, depth, al.Short())
				previous = score
			}
		}
	}
}

func TestGapExtendsAfterWindow(t *testing.T) {
	tests := []struct {
		a, b      string
		alignType AlignType
	}{
		{"GPCVFRN", "RMAGI", Global},
		{"CLREWAMGPP", "GLYRIIEKS", GlobalB},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			single := mustAlign(t, tt.a, tt.b, tt.alignType, 1)
			double := mustAlign(t, tt.a, tt.b, tt.alignType, 2)
			assert.GreaterOrEqual(t, double.Score().Absolute, single.Score().Absolute, double.Short())

			// the score of a path does not depend on how it was found
			decoded, err := CreateFromPath(double.SeqA(), double.SeqB(), double.StartA(), double.StartB(),
				double.Short(), DefaultScoring(), tt.alignType, 2)
			require.NoError(t, err)
			assert.Equal(t, double.Score(), decoded.Score())
		})
	}
}

func TestAlignmentRendering(t *testing.T) {
	al := mustAlign(t, "ANA", "AGGA", Global, Unbounded)

	lineA, matches, lineB := al.Aligned()
	assert.Equal(t, "AN A", lineA)
	assert.Equal(t, "|==|", matches)
	assert.Equal(t, "AGGA", lineB)

	out := al.Format()
	assert.Contains(t, out, "Path: 1=1:2i1=")
	assert.Contains(t, out, "Score: 12/17")
	assert.Contains(t, al.String(), "1=1:2i1=")

	gapped, err := Align(&peptide.Peptide{}, peptide.MustParse("PEP"), DefaultScoring(), Global, 1)
	require.NoError(t, err)
	lineA, _, lineB = gapped.Aligned()
	assert.Equal(t, "---", lineA)
	assert.Equal(t, "PEP", lineB)
}

func TestAlignmentLogObject(t *testing.T) {
	al := mustAlign(t, "ANA", "AGGA", Global, Unbounded)
	enc := zapcore.NewMapObjectEncoder()
	require.NoError(t, al.MarshalLogObject(enc))
	assert.Equal(t, "1=1:2i1=", enc.Fields["path"])
	assert.Equal(t, 12, enc.Fields["score"])
	assert.Equal(t, "global", enc.Fields["type"])
}

func TestCalculateMasses(t *testing.T) {
	p := peptide.MustParse("[Acetyl]-GAS-[Amidated]")
	masses, err := CalculateMasses(p, peptide.Monoisotopic, 2)
	require.NoError(t, err)

	gly := peptide.Gly.Masses(peptide.Monoisotopic)[0]
	ala := peptide.Ala.Masses(peptide.Monoisotopic)[0]
	ser := peptide.Ser.Masses(peptide.Monoisotopic)[0]
	nterm := p.NTermMass(peptide.Monoisotopic)
	cterm := p.CTermMass(peptide.Monoisotopic)

	assert.InDelta(t, gly+nterm, masses.Get(0, 0)[0], 1e-9)
	assert.InDelta(t, ala, masses.Get(1, 0)[0], 1e-9)
	assert.InDelta(t, gly+ala+nterm, masses.Get(1, 1)[0], 1e-9)
	assert.InDelta(t, ala+ser+cterm, masses.Get(2, 1)[0], 1e-9)
	assert.Panics(t, func() { masses.Get(2, 2) })

	ambiguous, err := CalculateMasses(peptide.MustParse("BG"), peptide.Monoisotopic, 2)
	require.NoError(t, err)
	assert.Len(t, ambiguous.Get(1, 1), 2)

	_, err = CalculateMasses(p, peptide.Monoisotopic, 0)
	require.ErrorIs(t, err, ErrInvalidDepth)
}

func BenchmarkAlign(b *testing.B) {
	a := peptide.MustParse("MKWVTFISLLFLFSSAYSRGVFRRDTHKSEIAHRFKDLGE")
	c := peptide.MustParse("MKWVTFISLLLLFSSAYSRGVFRRDTHKSEIAHRFNDLGE")
	scoring := DefaultScoring()

	for _, depth := range []int{1, 4} {
		b.Run("depth "+strconv.Itoa(depth), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_, _ = Align(a, c, scoring, Global, depth)
			}
		})
	}
}
