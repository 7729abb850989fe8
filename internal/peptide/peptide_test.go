package peptide

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("plain residues", func(t *testing.T) {
		p, err := Parse("anGARS")
		require.NoError(t, err)
		assert.Equal(t, 6, p.Len())
		assert.Equal(t, "ANGARS", p.Sequence())
		assert.False(t, p.Modified())
	})

	t.Run("residue modification", func(t *testing.T) {
		p, err := Parse("PEM[Oxidation]K")
		require.NoError(t, err)
		require.Len(t, p.Elements[2].Modifications, 1)
		assert.Equal(t, "Oxidation", p.Elements[2].Modifications[0].Name)
		assert.True(t, p.Elements[2].Modified())
		assert.False(t, p.Elements[1].Modified())
	})

	t.Run("terminal modifications", func(t *testing.T) {
		p, err := Parse("[Acetyl]-PEPTIDE-[Amidated]")
		require.NoError(t, err)
		require.Len(t, p.NTerm, 1)
		require.Len(t, p.CTerm, 1)
		assert.Equal(t, "[Acetyl]-PEPTIDE-[Amidated]", p.String())
		assert.InDelta(t, 42.010565, p.NTermMass(Monoisotopic), 1e-5)
	})

	t.Run("mass delta", func(t *testing.T) {
		p, err := Parse("PEPT[+79.966]IDE")
		require.NoError(t, err)
		assert.InDelta(t, 79.966, p.Elements[3].Modifications[0].Mass(Monoisotopic), 1e-9)
	})

	t.Run("formula and unimod prefix", func(t *testing.T) {
		p, err := Parse("C[Formula:C2H3NO]M[U:Oxidation]")
		require.NoError(t, err)
		assert.InDelta(t, 57.021464, p.Elements[0].Modifications[0].Mass(Monoisotopic), 1e-5)
		assert.InDelta(t, 15.994915, p.Elements[1].Modifications[0].Mass(Monoisotopic), 1e-5)
	})

	t.Run("ambiguous group", func(t *testing.T) {
		p, err := Parse("S[#g1]T[Phospho#g1]K")
		require.NoError(t, err)
		require.Len(t, p.Elements[0].Ambiguous, 1)
		assert.Equal(t, "Phospho", p.Elements[0].Ambiguous[0].Modification.Name)
		assert.True(t, p.Elements[1].Ambiguous[0].Defined)

		masses := p.Elements[0].Masses(Monoisotopic)
		require.Len(t, masses, 2)
		assert.InDelta(t, 79.966331, masses[1]-masses[0], 1e-5)
		assert.Equal(t, "S[#g1]T[Phospho#g1]K", p.String())
	})

	t.Run("with id", func(t *testing.T) {
		p, err := WithID("PEPTIDE", "sp|P1", "test")
		require.NoError(t, err)
		assert.Equal(t, "sp|P1", p.ID)
		assert.Equal(t, "test", p.Description)
	})
}

func TestParseErrors(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := Parse("   ")
		var target *EmptySequenceError
		assert.ErrorAs(t, err, &target)
	})

	t.Run("only terminal modification", func(t *testing.T) {
		_, err := Parse("[Acetyl]-")
		var target *EmptySequenceError
		assert.ErrorAs(t, err, &target)
	})

	t.Run("invalid residue", func(t *testing.T) {
		_, err := Parse("PEPXIDE")
		var target *InvalidResidueError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, 3, target.Position)
		assert.Equal(t, 'X', target.Found)
	})

	t.Run("unknown modification", func(t *testing.T) {
		_, err := Parse("PEP[Frobnicated]")
		var target *UnknownModificationError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, "Frobnicated", target.Name)
	})

	syntax := []string{
		"PEP[Oxidation",
		"[Oxidation]PEP",
		"-PEP",
		"PEP-",
		"PEP-[Amidated]K",
		"S[#g1]T",
		"S[Phospho#g1]T[Phospho#g1]",
		"S[Phospho#]",
		"P[[Oxidation]]",
	}
	for _, s := range syntax {
		t.Run("syntax "+s, func(t *testing.T) {
			_, err := Parse(s)
			var target *SyntaxError
			assert.ErrorAs(t, err, &target)

			var base ParseError
			assert.ErrorAs(t, err, &base)
		})
	}
}

func TestMasses(t *testing.T) {
	tests := []struct {
		aa   AminoAcid
		mono float64
	}{
		{Gly, 57.021464},
		{Ala, 71.037114},
		{Asn, 114.042927},
		{Gln, 128.058578},
		{Trp, 186.079313},
		{Sec, 150.953636},
	}
	for _, tt := range tests {
		t.Run(tt.aa.String(), func(t *testing.T) {
			m := tt.aa.Masses(Monoisotopic)
			require.Len(t, m, 1)
			assert.InDelta(t, tt.mono, m[0], 1e-5)
		})
	}

	t.Run("ambiguous codes", func(t *testing.T) {
		assert.Len(t, Asx.Masses(Monoisotopic), 2)
		assert.Len(t, Glx.Masses(Monoisotopic), 2)
		assert.Equal(t, Leu.Masses(Monoisotopic), Xle.Masses(Monoisotopic))
	})

	t.Run("isobaric pairs", func(t *testing.T) {
		gg := Gly.Masses(Monoisotopic)[0] * 2
		assert.InDelta(t, Asn.Masses(Monoisotopic)[0], gg, 1e-9)

		ga := Gly.Masses(Monoisotopic)[0] + Ala.Masses(Monoisotopic)[0]
		assert.InDelta(t, Gln.Masses(Monoisotopic)[0], ga, 1e-9)
	})

	t.Run("average differs from monoisotopic", func(t *testing.T) {
		assert.InDelta(t, 71.0779, Ala.Masses(Average)[0], 1e-3)
	})

	t.Run("peptide neutral mass", func(t *testing.T) {
		p := MustParse("GG")
		assert.InDelta(t, 132.053493, p.Mass(Monoisotopic), 1e-5)
	})
}

func TestAminoAcid(t *testing.T) {
	for i := 0; i < NumAminoAcids; i++ {
		aa := AminoAcid(i)
		back, ok := FromByte(aa.Byte())
		require.True(t, ok)
		assert.Equal(t, aa, back)
	}
	_, ok := FromByte('X')
	assert.False(t, ok)
	_, ok = FromByte('1')
	assert.False(t, ok)
}

func TestFormula(t *testing.T) {
	f, err := ParseFormula("H-1N-1O")
	require.NoError(t, err)
	assert.Equal(t, -1, f[Hydrogen])
	assert.Equal(t, -1, f[Nitrogen])
	assert.Equal(t, 1, f[Oxygen])
	assert.InDelta(t, 0.984016, f.Mass(Monoisotopic), 1e-5)

	sum := MustParseFormula("C2H3NO").Add(MustParseFormula("C2H3NO"))
	assert.Equal(t, MustParseFormula("C4H6N2O2"), sum)
	assert.Equal(t, "C4H6N2O2", sum.String())

	for _, bad := range []string{"", "c2", "Xx3", "C-"} {
		_, err := ParseFormula(bad)
		assert.Error(t, err, bad)
	}

	mode, err := ParseMassMode("Average")
	require.NoError(t, err)
	assert.Equal(t, Average, mode)
	_, err = ParseMassMode("heavy")
	assert.Error(t, err)
}
