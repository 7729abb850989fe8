package alignment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aria-lang/pepalign/internal/peptide"
)

func TestRoundTrip(t *testing.T) {
	pairs := [][2]string{
		{"ANGARS", "AGGQRS"},
		{"ANA", "AGGA"},
		{"AGS", "ASG"},
		{"PEPTIDE", "PEPTLDE"},
		{"PEPTIDE", "WWWPEPTIDEWWW"},
		{"MKWVTFISLL", "MKWVTFLSLLGG"},
		{"NNQ", "GGGGAG"},
		{"LL", "II"},
		{"S[Phospho]ATK", "SATKR"},
	}
	types := []AlignType{Global, Local, GlobalA, GlobalB, EitherGlobal, GlocalAB, GlocalBA}

	for _, pair := range pairs {
		a, b := peptide.MustParse(pair[0]), peptide.MustParse(pair[1])
		for _, alignType := range types {
			for _, depth := range depths {
				al, err := Align(a, b, DefaultScoring(), alignType, depth)
				require.NoError(t, err)

				back, err := CreateFromPath(a, b, al.StartA(), al.StartB(), al.Short(),
					DefaultScoring(), alignType, depth)
				require.NoError(t, err, "%v %s depth %d path %s", pair, alignType, depth, al.Short())

				assert.Equal(t, al.Path(), back.Path(), "%v %s depth %d", pair, alignType, depth)
				assert.Equal(t, al.Score(), back.Score())
				assert.Equal(t, al.Stats(), back.Stats())
				assert.Equal(t, al.Short(), back.Short())
			}
		}
	}
}

func TestCreateFromPath(t *testing.T) {
	a, b := peptide.MustParse("ANGARS"), peptide.MustParse("AGGQRS")

	al, err := CreateFromPath(a, b, 0, 0, "1=1:2i2:1i2=", DefaultScoring(), Global, 4)
	require.NoError(t, err)
	assert.Equal(t, 21, al.Score().Absolute)
	assert.Equal(t, 6, al.LenA())
	assert.Equal(t, 6, al.LenB())

	al, err = CreateFromPath(a, b, 0, 0, "1=1X1=1X2=", DefaultScoring(), Global, 1)
	require.NoError(t, err)
	assert.Equal(t, 16, al.Score().Absolute)

	t.Run("gaps open once per run", func(t *testing.T) {
		al, err := CreateFromPath(&peptide.Peptide{}, peptide.MustParse("PEPTIDE"), 0, 0, "7I",
			DefaultScoring(), Global, 1)
		require.NoError(t, err)
		assert.Equal(t, -11, al.Score().Absolute)

		al, err = CreateFromPath(peptide.MustParse("PEK"), peptide.MustParse("PK"), 0, 0, "1=1D1=",
			DefaultScoring(), Global, 1)
		require.NoError(t, err)
		assert.Equal(t, 7-5+5, al.Score().Absolute)
	})

	t.Run("partial path from an offset", func(t *testing.T) {
		al, err := CreateFromPath(peptide.MustParse("PEPTIDE"), peptide.MustParse("TIDE"), 3, 0, "4=",
			DefaultScoring(), GlobalB, 4)
		require.NoError(t, err)
		assert.Equal(t, 20, al.Score().Absolute)
		assert.Equal(t, 3, al.StartA())
	})

	t.Run("empty path", func(t *testing.T) {
		al, err := CreateFromPath(a, b, 2, 2, "", DefaultScoring(), Local, 4)
		require.NoError(t, err)
		assert.Empty(t, al.Path())
	})
}

func TestCreateFromPathErrors(t *testing.T) {
	a, b := peptide.MustParse("ANGARS"), peptide.MustParse("AGGQRS")

	tests := []struct {
		name   string
		path   string
		depth  int
		startA int
	}{
		{"missing count", "=1", 4, 0},
		{"two counts on identity", "1:2=", 4, 0},
		{"zero count", "0=", 4, 0},
		{"unknown symbol", "1q", 4, 0},
		{"missing symbol", "12", 4, 0},
		{"missing second count", "1:i", 4, 0},
		{"two counts on rotation", "2:2r", 4, 0},
		{"single residue rotation", "1r", 4, 0},
		{"identity on different residues", "6=", 4, 0},
		{"isobaric without mass match", "1=2i", 4, 0},
		{"single isobaric without mass match", "1=1i", 4, 0},
		{"mismatch on identical residues", "1X", 4, 0},
		{"step larger than depth", "1=1:2i2:1i2=", 1, 0},
		{"runs past the end", "1=1X1=1X3=", 4, 0},
		{"gap past the end", "7D", 4, 0},
		{"start outside", "1=", 4, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreateFromPath(a, b, tt.startA, 0, tt.path, DefaultScoring(), Global, tt.depth)
			var pathErr *PathError
			require.ErrorAs(t, err, &pathErr)
			assert.NotEmpty(t, pathErr.Error())
		})
	}

	t.Run("invalid depth", func(t *testing.T) {
		_, err := CreateFromPath(a, b, 0, 0, "1=", DefaultScoring(), Global, 0)
		require.ErrorIs(t, err, ErrInvalidDepth)
	})

	t.Run("error position", func(t *testing.T) {
		_, err := CreateFromPath(a, b, 0, 0, "1=1X1q", DefaultScoring(), Global, 4)
		var pathErr *PathError
		require.ErrorAs(t, err, &pathErr)
		assert.Equal(t, 4, pathErr.Position)
		assert.Equal(t, "1q", pathErr.Token)
	})
}
