package logging

import (
	"math"
	"time"

	"github.com/danielpatrickdp/transition-gate/internal/gate"
	"github.com/danielpatrickdp/transition-gate/internal/pipeline"
)

// #region provenance-entry
// ProvenanceEntry is a single row in the provenance_log table.
type ProvenanceEntry struct {
	RunID       string
	RecordID    string
	TriggerType string // "cli" | "http" | "grpc" | "batch"
	SignalsJSON string
	Decision    string // posture token
	Reason      string
	CreatedAt   time.Time
}

// #endregion provenance-entry

// #region evaluation-record
// EvaluationRecord captures one pipeline evaluation with the thresholds that
// produced it. Serialized as JSON into provenance_log.signals_json and used
// as the wire shape by the HTTP API.
type EvaluationRecord struct {
	RecordID string `json:"record_id,omitempty"`

	// Raw input
	R string `json:"r"`
	C string `json:"c"`
	P string `json:"p"`

	// Canonical form, empty when malformed
	RCanon string `json:"r_canon"`
	CCanon string `json:"c_canon"`
	PCanon string `json:"p_canon"`

	G float64 `json:"g"`
	A float64 `json:"a"`
	K float64 `json:"c_support"`

	// Score is nil for malformed input; NaN has no JSON encoding.
	Score     *float64 `json:"score"`
	Posture   string   `json:"posture"`
	Reason    string   `json:"reason"`
	Malformed bool     `json:"malformed"`

	Thresholds EvaluationThresholds `json:"thresholds"`
}

// EvaluationThresholds captures the gate config active at decision time.
type EvaluationThresholds struct {
	Low  float64 `json:"tau_low"`
	High float64 `json:"tau_high"`
}

// NewEvaluationRecord flattens an evaluation for serialization.
func NewEvaluationRecord(recordID string, ev pipeline.Evaluation, t gate.ThresholdConfig) EvaluationRecord {
	rec := EvaluationRecord{
		RecordID:   recordID,
		R:          ev.Record.R,
		C:          ev.Record.C,
		P:          ev.Record.P,
		RCanon:     ev.Form.R,
		CCanon:     ev.Form.C,
		PCanon:     ev.Form.P,
		G:          ev.Coordinate.G,
		A:          ev.Coordinate.A,
		K:          ev.Coordinate.C,
		Posture:    string(ev.Posture()),
		Reason:     string(ev.Result.Reason),
		Malformed:  ev.Malformed,
		Thresholds: EvaluationThresholds{Low: t.Low, High: t.High},
	}
	if s := ev.Score(); !math.IsNaN(s) {
		rec.Score = &s
	}
	return rec
}

// #endregion evaluation-record
