package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/transition-gate/internal/canon"
	"github.com/danielpatrickdp/transition-gate/internal/coords"
	"github.com/danielpatrickdp/transition-gate/internal/gate"
)

// #region fixture-types

// Fixture is the top-level structure of a replay fixture (JSON or YAML).
type Fixture struct {
	Description string            `json:"description" yaml:"description"`
	Thresholds  FixtureThresholds `json:"thresholds" yaml:"thresholds"`
	Cases       []FixtureCase     `json:"cases" yaml:"cases"`
}

// FixtureThresholds mirrors gate.ThresholdConfig with tags.
type FixtureThresholds struct {
	Low  float64 `json:"tau_low" yaml:"tau_low"`
	High float64 `json:"tau_high" yaml:"tau_high"`
}

// FixtureCase is one record and what the gate should say about it. A case
// with a Coordinate skips canonicalization and feeds the gate directly.
type FixtureCase struct {
	ID         string             `json:"id" yaml:"id"`
	R          string             `json:"r" yaml:"r"`
	C          string             `json:"c" yaml:"c"`
	P          string             `json:"p" yaml:"p"`
	Coordinate *FixtureCoordinate `json:"coordinate,omitempty" yaml:"coordinate,omitempty"`
	Expected   FixtureExpected    `json:"expected" yaml:"expected"`
}

// FixtureCoordinate is a precomputed (g, a, c) triple.
type FixtureCoordinate struct {
	G float64 `json:"g" yaml:"g"`
	A float64 `json:"a" yaml:"a"`
	C float64 `json:"c" yaml:"c"`
}

// FixtureExpected holds the expected posture and, optionally, two-decimal values.
type FixtureExpected struct {
	Posture string   `json:"posture" yaml:"posture"`
	Reason  string   `json:"reason,omitempty" yaml:"reason,omitempty"`
	G       *float64 `json:"g,omitempty" yaml:"g,omitempty"`
	A       *float64 `json:"a,omitempty" yaml:"a,omitempty"`
	C       *float64 `json:"c,omitempty" yaml:"c,omitempty"`
	Score   *float64 `json:"score,omitempty" yaml:"score,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads a fixture; .yaml and .yml are parsed as YAML, anything
// else as JSON.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	default:
		err = json.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToThresholdConfig converts fixture thresholds to the gate type.
func (t FixtureThresholds) ToThresholdConfig() gate.ThresholdConfig {
	return gate.ThresholdConfig{Low: t.Low, High: t.High}
}

// ToCase converts a FixtureCase to a domain Case.
func (fc *FixtureCase) ToCase() (Case, error) {
	posture, err := gate.ParsePosture(fc.Expected.Posture)
	if err != nil {
		return Case{}, fmt.Errorf("case %s: %w", fc.ID, err)
	}
	c := Case{
		ID:      fc.ID,
		Record:  canon.Record{R: fc.R, C: fc.C, P: fc.P},
		Posture: posture,
		Reason:  gate.ReasonCode(fc.Expected.Reason),
		G:       fc.Expected.G,
		A:       fc.Expected.A,
		C:       fc.Expected.C,
		Score:   fc.Expected.Score,
	}
	if fc.Coordinate != nil {
		c.Coordinate = &coords.Coordinate{G: fc.Coordinate.G, A: fc.Coordinate.A, C: fc.Coordinate.C}
	}
	return c, nil
}

// ToCases converts every case in the fixture.
func (f *Fixture) ToCases() ([]Case, error) {
	out := make([]Case, len(f.Cases))
	for i := range f.Cases {
		c, err := f.Cases[i].ToCase()
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// #endregion fixture-loader
