package coords

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/transition-gate/internal/canon"
)

func derive(t *testing.T, r, c, p string) Coordinate {
	t.Helper()
	form, err := canon.Canonicalize(canon.Record{R: r, C: c, P: p})
	require.NoError(t, err)
	return Derive(form)
}

func TestDerive_FrozenVectors(t *testing.T) {
	tests := []struct {
		name    string
		r, c, p string
		g, a, k float64
	}{
		{"hydrogenation with context", "CC", "Pd/C", "CCC", 2.0 / 3.0, 0.5, 1},
		{"no context", "CC", "", "CCC", 2.0 / 3.0, 0.5, 0},
		{"reduction", "CC=O", "H2O", "CCO", 0.75, 0.5, 1},
		{"fragment order", "O.CC", "", "CCO", 1, 0.5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := derive(t, tt.r, tt.c, tt.p)
			assert.InDelta(t, tt.g, got.G, 1e-12)
			assert.InDelta(t, tt.a, got.A, 1e-12)
			assert.Equal(t, tt.k, got.C)
		})
	}
}

func TestAlignment(t *testing.T) {
	assert.Equal(t, 1.0, Alignment("CCO", "OCC"), "permuted characters are fully aligned")
	assert.Equal(t, 1.0, Alignment("CC.O", "CCO"), "separators are ignored")
	assert.Equal(t, 0.0, Alignment("AAA", "BBB"))
	assert.Equal(t, 0.0, Alignment("", ""))
	assert.InDelta(t, 1.0/3.0, Alignment("AB", "AC"), 1e-12)
}

func TestAlignment_OneIffSameMultiset(t *testing.T) {
	pairs := [][2]string{
		{"CC", "CC"},
		{"CCN", "NCC"},
		{"C=O", "O=C"},
	}
	for _, p := range pairs {
		assert.Equal(t, 1.0, Alignment(p[0], p[1]), "%q vs %q", p[0], p[1])
	}
	assert.Less(t, Alignment("CC", "CCC"), 1.0)
	assert.Less(t, Alignment("CN", "CO"), 1.0)
}

func TestAlignment_DecreasesWithSharedMass(t *testing.T) {
	// progressively replace shared characters on the product side
	r := "CCCCCC"
	products := []string{"CCCCCC", "CCCCCN", "CCCCNN", "CCCNNN", "CCNNNN", "CNNNNN", "NNNNNN"}
	prev := math.Inf(1)
	for _, p := range products {
		g := Alignment(r, p)
		assert.LessOrEqual(t, g, prev, "product %q", p)
		assert.GreaterOrEqual(t, g, 0.0)
		assert.LessOrEqual(t, g, 1.0)
		prev = g
	}
}

func TestAccessibility(t *testing.T) {
	assert.Equal(t, 1.0, Accessibility("CCO", "OCC"))
	assert.Equal(t, 0.5, Accessibility("CC", "CCC"))
	assert.Equal(t, 0.5, Accessibility("CCC", "CC"))
	assert.InDelta(t, 0.2, Accessibility("C", "CCCCC"), 1e-12)

	prev := 2.0
	for n := 0; n < 20; n++ {
		a := Accessibility("C", "C"+strings.Repeat("C", n))
		assert.Greater(t, a, 0.0)
		assert.Less(t, a, prev)
		prev = a
	}
}

func TestContextSupport(t *testing.T) {
	assert.Equal(t, 0.0, ContextSupport(""))
	assert.Equal(t, 1.0, ContextSupport("H2O"))
	assert.Equal(t, 1.0, ContextSupport("x"))
}

func TestDerive_Bounds(t *testing.T) {
	records := [][3]string{
		{"CC", "", "CCCCCCCCCCCCCCCCCCCC"},
		{"A", "ctx", "B"},
		{"N.c1ccccc1", "", "c1ccccc1N"},
		{"[Na+].[Cl-]", "H2O", "[Na+].[Cl-]"},
	}
	for _, rec := range records {
		c := derive(t, rec[0], rec[1], rec[2])
		assert.GreaterOrEqual(t, c.G, 0.0)
		assert.LessOrEqual(t, c.G, 1.0)
		assert.Greater(t, c.A, 0.0)
		assert.LessOrEqual(t, c.A, 1.0)
		assert.Contains(t, []float64{0, 1}, c.C)
	}
}
