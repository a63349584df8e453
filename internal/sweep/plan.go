package sweep

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/transition-gate/internal/gate"
)

// DefaultGridN is the per-axis resolution when a plan does not set one.
const DefaultGridN = 21

// ErrEmptyPlan is returned when a plan names no threshold configuration.
var ErrEmptyPlan = errors.New("sweep plan has no thresholds")

// Plan is a set of threshold configurations to probe on a common grid.
// Explicit thresholds come first, followed by every tau x band pair.
type Plan struct {
	GridN      int              `yaml:"grid_n"`
	Thresholds []ThresholdEntry `yaml:"thresholds"`
	Taus       []float64        `yaml:"taus"`
	Bands      []float64        `yaml:"bands"`
}

// ThresholdEntry is one explicit (low, high) pair in a plan file.
type ThresholdEntry struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

// LoadPlan reads a YAML plan.
func LoadPlan(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("read plan: %w", err)
	}
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Plan{}, fmt.Errorf("parse plan: %w", err)
	}
	return p, nil
}

// Configs expands the plan into validated threshold configurations.
func (p Plan) Configs() ([]gate.ThresholdConfig, error) {
	var out []gate.ThresholdConfig
	for _, t := range p.Thresholds {
		out = append(out, gate.ThresholdConfig{Low: t.Low, High: t.High})
	}
	for _, tau := range p.Taus {
		for _, band := range p.Bands {
			out = append(out, gate.FromBand(tau, band))
		}
	}
	if len(out) == 0 {
		return nil, ErrEmptyPlan
	}
	for i, cfg := range out {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("plan entry %d: %w", i, err)
		}
	}
	return out, nil
}

func (p Plan) gridN() int {
	if p.GridN < 2 {
		return DefaultGridN
	}
	return p.GridN
}
