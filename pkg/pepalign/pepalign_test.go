package pepalign

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFASTA = `>P1 first peptide
ANGA
RS

>P2
AGGQRS
>P3 modified
PEM[Oxidation]K
`

func TestParseFASTA(t *testing.T) {
	peptides, err := ParseFASTA(strings.NewReader(testFASTA))
	require.NoError(t, err)
	require.Len(t, peptides, 3)

	assert.Equal(t, "P1", peptides[0].ID)
	assert.Equal(t, "first peptide", peptides[0].Description)
	assert.Equal(t, "ANGARS", peptides[0].Sequence())
	assert.Equal(t, "P2", peptides[1].ID)
	assert.Empty(t, peptides[1].Description)
	assert.True(t, peptides[2].Modified())

	var buf bytes.Buffer
	require.NoError(t, WriteFASTA(&buf, peptides))
	back, err := ParseFASTA(&buf)
	require.NoError(t, err)
	require.Len(t, back, 3)
	for i := range peptides {
		assert.Equal(t, peptides[i].String(), back[i].String())
		assert.Equal(t, peptides[i].ID, back[i].ID)
	}
}

func TestParseFASTAInvalid(t *testing.T) {
	_, err := ParseFASTA(strings.NewReader(">bad\nPEP1TIDE\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"bad"`)
}

func TestParseQueries(t *testing.T) {
	peptides, err := ParseQueries(strings.NewReader("# queries\nPEPTIDE\n\nANA\n"))
	require.NoError(t, err)
	require.Len(t, peptides, 2)
	assert.Equal(t, "PEPTIDE", peptides[0].Sequence())
	assert.Equal(t, "line_2", peptides[0].ID)

	peptides, err = ParseQueries(strings.NewReader(testFASTA))
	require.NoError(t, err)
	assert.Len(t, peptides, 3)

	_, err = ParseQueries(strings.NewReader("PEPTIDE\nPEP?\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	peptides, err = ParseQueries(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, peptides)
}

func TestAlignAndDecode(t *testing.T) {
	a, err := Parse("ANA")
	require.NoError(t, err)
	b, err := Parse("AGGA")
	require.NoError(t, err)

	al, err := Align(a, b)
	require.NoError(t, err)
	assert.Equal(t, "1=1:2i1=", al.Short())
	assert.Equal(t, 12, al.Score().Absolute)

	back, err := Decode(a, b, 0, 0, al.Short(), DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, al.Score(), back.Score())

	_, err = Decode(a, b, 0, 0, "3X", DefaultConfig())
	var pathErr *PathError
	require.ErrorAs(t, err, &pathErr)
}

func searchDatabase(t *testing.T) []*Peptide {
	t.Helper()
	var db []*Peptide
	for _, s := range []string{"ANGARS", "AGGQRS", "PEPTIDE", "PEPTLDE", "WWWW"} {
		p, err := Parse(s)
		require.NoError(t, err)
		db = append(db, p)
	}
	return db
}

func TestSearcher(t *testing.T) {
	db := searchDatabase(t)
	query, err := Parse("PEPTIDE")
	require.NoError(t, err)

	s, err := NewSearcher(db, SearchOptions{Config: DefaultConfig()})
	require.NoError(t, err)
	assert.Nil(t, s.Fingerprints())
	assert.Equal(t, len(db), s.Index().Len())

	hits, err := s.Search(query)
	require.NoError(t, err)
	require.Len(t, hits, len(db))
	assert.Equal(t, 2, hits[0].Database)
	assert.InDelta(t, 1.0, hits[0].Alignment.NormalisedScore(), 1e-9)
	assert.Equal(t, 3, hits[1].Database)
	assert.Same(t, db[2], s.Database(hits[0].Database))
	assert.Same(t, db[2], hits[0].Alignment.SeqA())
	assert.Same(t, query, hits[0].Alignment.SeqB())
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Alignment.NormalisedScore(), hits[i].Alignment.NormalisedScore())
	}

	par, err := NewSearcher(db, SearchOptions{Config: DefaultConfig(), Parallel: true, Top: 2})
	require.NoError(t, err)
	top, err := par.Search(query)
	require.NoError(t, err)
	require.Len(t, top, 2)
	for i := range top {
		assert.Equal(t, hits[i].Database, top[i].Database)
		assert.Equal(t, hits[i].Alignment.Short(), top[i].Alignment.Short())
	}
}

func TestSearcherPreselection(t *testing.T) {
	db := searchDatabase(t)
	query, err := Parse("PEPTIDE")
	require.NoError(t, err)

	opts := FingerprintOptions{MinLength: 6, MaxLength: 7, MaxSegments: 3, MaxGaps: 1}
	s, err := NewSearcher(db, SearchOptions{Config: DefaultConfig(), Fingerprint: &opts})
	require.NoError(t, err)
	require.NotNil(t, s.Fingerprints())

	hits, err := s.Search(query)
	require.NoError(t, err)
	var found []int
	for _, h := range hits {
		found = append(found, h.Database)
	}
	assert.Contains(t, found, 2)
	assert.Contains(t, found, 3)
	assert.NotContains(t, found, 4)

	s, err = NewSearcher(db, SearchOptions{Config: DefaultConfig(), Filter: &Filter{MinLength: 5}, Parallel: true})
	require.NoError(t, err)
	hits, err = s.Search(query)
	require.NoError(t, err)
	assert.Len(t, hits, 4)

	bad := FingerprintOptions{}
	_, err = NewSearcher(db, SearchOptions{Config: DefaultConfig(), Fingerprint: &bad})
	require.Error(t, err)
}

func TestInfo(t *testing.T) {
	assert.Contains(t, Info(), Version())
}
