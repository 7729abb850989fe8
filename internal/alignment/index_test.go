package alignment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/aria-lang/pepalign/internal/peptide"
)

func testDatabase() []Sequence {
	var seqs []Sequence
	for _, s := range []string{"ANGARS", "AGGQRS", "PEPTIDE", "ANA", "WAQYLKNNG", "MKWVTFISLL"} {
		seqs = append(seqs, peptide.MustParse(s))
	}
	return seqs
}

func assertSameAlignment(t *testing.T, want, got *Alignment) {
	t.Helper()
	assert.Equal(t, want.Short(), got.Short())
	assert.Equal(t, want.StartA(), got.StartA())
	assert.Equal(t, want.StartB(), got.StartB())
	assert.Equal(t, want.Score(), got.Score())
}

func TestIndexAlignOne(t *testing.T) {
	db := testDatabase()
	query := peptide.MustParse("AGGQRS")

	for _, depth := range depths {
		idx, err := NewIndex(db, peptide.Monoisotopic, depth)
		require.NoError(t, err)
		assert.Equal(t, len(db), idx.Len())
		assert.Equal(t, depth, idx.Depth())

		seq, err := idx.AlignOne(query, DefaultScoring(), Global)
		require.NoError(t, err)

		count := 0
		for i, al := range seq {
			assert.Equal(t, count, i)
			direct, err := Align(db[i], query, DefaultScoring(), Global, depth)
			require.NoError(t, err)
			assertSameAlignment(t, direct, al)
			assert.Same(t, db[i], al.SeqA())
			assert.Same(t, query, al.SeqB())
			count++
		}
		assert.Equal(t, len(db), count)
	}
}

func TestIndexAlignOneStopsEarly(t *testing.T) {
	idx, err := NewIndex(testDatabase(), peptide.Monoisotopic, 4)
	require.NoError(t, err)

	seq, err := idx.AlignOne(peptide.MustParse("PEPTIDE"), DefaultScoring(), Local)
	require.NoError(t, err)

	seen := 0
	for range seq {
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}

func TestIndexAlignOneFiltered(t *testing.T) {
	db := testDatabase()
	idx, err := NewIndex(db, peptide.Monoisotopic, 4)
	require.NoError(t, err)

	long := func(s Sequence) bool { return s.Peptidoform().Len() >= 7 }
	seq, err := idx.AlignOneFiltered(peptide.MustParse("PEPTIDE"), long, DefaultScoring(), Local)
	require.NoError(t, err)

	var indices []int
	for i, al := range seq {
		indices = append(indices, i)
		assert.GreaterOrEqual(t, al.SeqA().Peptidoform().Len(), 7)
	}
	assert.Equal(t, []int{2, 4, 5}, indices)

	par, err := idx.ParAlignOneFiltered(peptide.MustParse("PEPTIDE"), long, DefaultScoring(), Local)
	require.NoError(t, err)
	require.Len(t, par, 3)
	for k, r := range par {
		assert.Equal(t, indices[k], r.Index)
	}
	assert.Equal(t, "7=", par[0].Alignment.Short())
}

func TestIndexDatabaseIsA(t *testing.T) {
	db := peptide.MustParse("PEPM")
	query := peptide.MustParse("PEPM[Oxidation]")
	s := DefaultScoring()
	s.Pair = PairDatabaseToPeptidoform

	idx, err := NewIndex([]Sequence{db}, peptide.Monoisotopic, 4)
	require.NoError(t, err)
	par, err := idx.ParAlignOne(query, s, GlobalA)
	require.NoError(t, err)
	require.Len(t, par, 1)

	direct, err := Align(db, query, s, GlobalA, 4)
	require.NoError(t, err)
	assert.Equal(t, "3=1m", direct.Short())
	assertSameAlignment(t, direct, par[0])
	assert.Same(t, db, par[0].SeqA())
}

func TestIndexAlignMany(t *testing.T) {
	db := testDatabase()
	queries := []Sequence{peptide.MustParse("ANGARS"), peptide.MustParse("PEPTLDE")}
	idx, err := NewIndex(db, peptide.Monoisotopic, 4)
	require.NoError(t, err)

	all, err := idx.Align(queries, DefaultScoring(), EitherGlobal)
	require.NoError(t, err)

	par, err := idx.ParAlign(queries, DefaultScoring(), EitherGlobal)
	require.NoError(t, err)
	require.Len(t, par, len(queries))

	for q, seq := range all {
		require.Len(t, par[q], len(db))
		for i, al := range seq {
			direct, err := Align(db[i], queries[q], DefaultScoring(), EitherGlobal, 4)
			require.NoError(t, err)
			assertSameAlignment(t, direct, al)
			assertSameAlignment(t, direct, par[q][i])
		}
	}
}

func TestIndexParallel(t *testing.T) {
	db := testDatabase()
	idx, err := NewIndex(db, peptide.Monoisotopic, Unbounded)
	require.NoError(t, err)

	maxSeen := atomic.NewInt64(0)
	idx.OnProgress = func(done int64) {
		for {
			cur := maxSeen.Load()
			if done <= cur || maxSeen.CompareAndSwap(cur, done) {
				return
			}
		}
	}

	query := peptide.MustParse("ANA")
	par, err := idx.ParAlignOne(query, DefaultScoring(), Global)
	require.NoError(t, err)
	require.Len(t, par, len(db))
	assert.Equal(t, int64(len(db)), maxSeen.Load())

	seq, err := idx.AlignOne(query, DefaultScoring(), Global)
	require.NoError(t, err)
	for i, al := range seq {
		assertSameAlignment(t, al, par[i])
	}
}

func TestIndexErrors(t *testing.T) {
	_, err := NewIndex(testDatabase(), peptide.Monoisotopic, 0)
	require.ErrorIs(t, err, ErrInvalidDepth)

	idx, err := NewIndex(testDatabase(), peptide.Average, 4)
	require.NoError(t, err)

	query := peptide.MustParse("PEPTIDE")
	_, err = idx.AlignOne(query, DefaultScoring(), Global)
	require.ErrorIs(t, err, ErrMassModeMismatch)
	_, err = idx.ParAlignOne(query, DefaultScoring(), Global)
	require.ErrorIs(t, err, ErrMassModeMismatch)
	_, err = idx.Align([]Sequence{query}, DefaultScoring(), Global)
	require.ErrorIs(t, err, ErrMassModeMismatch)
	_, err = idx.ParAlign([]Sequence{query}, DefaultScoring(), Global)
	require.ErrorIs(t, err, ErrMassModeMismatch)

	s := DefaultScoring()
	s.MassMode = peptide.Average
	_, err = idx.AlignOne(query, s, Global)
	require.NoError(t, err)
}

func TestIndexEmpty(t *testing.T) {
	idx, err := NewIndex(nil, peptide.Monoisotopic, 4)
	require.NoError(t, err)

	par, err := idx.ParAlignOne(peptide.MustParse("PEPTIDE"), DefaultScoring(), Global)
	require.NoError(t, err)
	assert.Empty(t, par)
}
