package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/transition-gate/internal/canon"
)

func TestParseReaction(t *testing.T) {
	tests := []struct {
		line string
		want canon.Record
		ok   bool
	}{
		{"CC>Pd/C>CCC", canon.Record{R: "CC", C: "Pd/C", P: "CCC"}, true},
		{"CC>>CCC", canon.Record{R: "CC", P: "CCC"}, true},
		{"CC>Pd>CC>C", canon.Record{R: "CC", C: "Pd", P: "CC>C"}, true},
		{"CC=O>H2O>CCO\tUS03930836\t1976", canon.Record{R: "CC=O", C: "H2O", P: "CCO"}, true},
		{"  CC>>CCC  ", canon.Record{R: "CC", P: "CCC"}, true},
		{"", canon.Record{}, false},
		{"   ", canon.Record{}, false},
		{"CC>CCC", canon.Record{}, false},
		{"\tCC>>CCC", canon.Record{}, false},
		{"A>>B>>C", canon.Record{}, false},
		{"CC>>CCC>>", canon.Record{}, false},
		{"CC>Pd>>CCC", canon.Record{R: "CC>Pd", P: "CCC"}, true},
	}
	for _, tt := range tests {
		got, ok := ParseReaction(tt.line)
		assert.Equal(t, tt.ok, ok, "%q", tt.line)
		assert.Equal(t, tt.want, got, "%q", tt.line)
	}
}

func TestRecordID(t *testing.T) {
	id := RecordID("CC>>CCC")
	assert.Len(t, id, 16)
	assert.Equal(t, id, RecordID("  CC>>CCC\n"))
	assert.NotEqual(t, id, RecordID("CC>>CCCC"))
}

func TestReadRSMI(t *testing.T) {
	f, err := os.Open(filepath.Join("testdata", "sample.rsmi"))
	require.NoError(t, err)
	defer f.Close()

	res, err := ReadRSMI(f, Options{})
	require.NoError(t, err)
	require.Len(t, res.Entries, 4)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 1, res.Entries[0].Line)
	assert.Equal(t, 5, res.Entries[2].Line)
	assert.Equal(t, canon.Record{R: "CC=O", C: "H2O", P: "CCO"}, res.Entries[2].Record)
	assert.Equal(t, canon.Record{R: "O.CC", P: "CCO"}, res.Entries[3].Record)
}

func TestReadRSMI_MaxLines(t *testing.T) {
	res, err := ReadRSMI(strings.NewReader("A>>B\nC>>D\nE>>F\n"), Options{MaxLines: 2})
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)
	assert.Equal(t, "C", res.Entries[1].Record.R)
}

func TestReadCSV(t *testing.T) {
	res, err := ReadCSV(strings.NewReader("P,R\nCCC,CC\n"), Options{})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, canon.Record{R: "CC", P: "CCC"}, res.Entries[0].Record)
	assert.Equal(t, 2, res.Entries[0].Line)

	_, err = ReadCSV(strings.NewReader("a,b\n1,2\n"), Options{})
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	csvRes, err := Load(filepath.Join("testdata", "sample.csv"), Options{})
	require.NoError(t, err)
	rsmiRes, err := Load(filepath.Join("testdata", "sample.rsmi"), Options{})
	require.NoError(t, err)
	assert.Equal(t, Records(csvRes.Entries), Records(rsmiRes.Entries))

	_, err = Load(filepath.Join("testdata", "sample.json"), Options{})
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = Load(filepath.Join("testdata", "missing.csv"), Options{})
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
