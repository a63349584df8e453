package canon

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize_FragmentOrdering(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single fragment", "CCO", "CCO"},
		{"longer first", "O.CC", "CC.O"},
		{"ascii tie-break", "O.C.N", "C.N.O"},
		{"mixed lengths and ties", "Br.CCO.N.CCN", "CCN.CCO.Br.N"},
		{"empty fragments dropped", "..O..CC.", "CC.O"},
		{"uppercase before lowercase", "c.C", "C.c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form, err := Canonicalize(Record{R: tt.in, P: "X"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, form.R)
		})
	}
}

func TestCanonicalize_Context(t *testing.T) {
	form, err := Canonicalize(Record{R: "CC", C: "   ", P: "CCC"})
	require.NoError(t, err)
	assert.Equal(t, "", form.C)
	assert.False(t, form.HasContext())

	// context is never split or reordered
	form, err = Canonicalize(Record{R: "CC", C: "  O.Pd/C \t H2 ", P: "CCC"})
	require.NoError(t, err)
	assert.Equal(t, "O.Pd/C H2", form.C)
	assert.True(t, form.HasContext())
}

func TestCanonicalize_WhitespaceInvariance(t *testing.T) {
	base, err := Canonicalize(Record{R: "CC.O", C: "H2O cat", P: "CCO"})
	require.NoError(t, err)

	variants := []Record{
		{R: "  CC.O", C: "H2O cat", P: "CCO  "},
		{R: "CC . O", C: " H2O   cat ", P: "\tCCO\n"},
		{R: "CC.\tO", C: "H2O\n\ncat", P: " CCO"},
	}
	for _, v := range variants {
		got, err := Canonicalize(v)
		require.NoError(t, err)
		assert.Equal(t, base, got, "variant %+v", v)
	}
}

func TestCanonicalize_FragmentOrderInvariance(t *testing.T) {
	perms := []string{"A.BB.CCC.DD", "DD.CCC.BB.A", "BB.A.DD.CCC", "CCC.DD.A.BB"}
	var first Form
	for i, r := range perms {
		form, err := Canonicalize(Record{R: r, P: r})
		require.NoError(t, err)
		if i == 0 {
			first = form
			continue
		}
		assert.Equal(t, first, form)
	}
	assert.Equal(t, "CCC.BB.DD.A", first.R)
}

func TestCanonicalize_Idempotent(t *testing.T) {
	records := []Record{
		{R: "O.CC", C: "", P: "CCO"},
		{R: " CC=O ", C: "H2O", P: "CCO"},
		{R: "N.c1ccccc1.Cl", C: "Pd / C", P: "Clc1ccccc1.N"},
		{R: "a b . c", C: "x", P: "c.a b"},
	}
	for _, rec := range records {
		once, err := Canonicalize(rec)
		require.NoError(t, err)
		twice, err := Canonicalize(once.Record())
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	}
}

func TestCanonicalize_Malformed(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		side Side
	}{
		{"empty reactant", Record{R: "", P: "CC"}, SideReactant},
		{"whitespace reactant", Record{R: " \t ", P: "CC"}, SideReactant},
		{"dots only reactant", Record{R: " . . ", P: "CC"}, SideReactant},
		{"empty product", Record{R: "CC", P: ""}, SideProduct},
		{"both empty reports reactant", Record{}, SideReactant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Canonicalize(tt.rec)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedInput))

			var mErr *MalformedInputError
			require.True(t, errors.As(err, &mErr))
			assert.Equal(t, tt.side, mErr.Side)
		})
	}
}

func TestRecordSwap(t *testing.T) {
	rec := Record{R: "CC", C: "cat", P: "CCC"}
	assert.Equal(t, Record{R: "CCC", C: "cat", P: "CC"}, rec.Swap())
}

func TestFragments(t *testing.T) {
	assert.Nil(t, Fragments(""))
	assert.Equal(t, []string{"CC", "O"}, Fragments("CC.O"))
}
