package store

import (
	"time"

	"github.com/danielpatrickdp/transition-gate/internal/gate"
)

// #region run-record
// RunRecord is one persisted batch run.
type RunRecord struct {
	RunID       string
	Source      string // input path or "-" for interactive runs
	Thresholds  gate.ThresholdConfig
	RecordCount int
	SummaryJSON string
	CreatedAt   time.Time
}

// #endregion run-record

// #region evaluation-row
// EvaluationRow is one stored evaluation, addressed by (RunID, Seq).
type EvaluationRow struct {
	RunID     string
	Seq       int
	RecordID  string
	R, C, P   string
	RCanon    string
	CCanon    string
	PCanon    string
	G         float64
	A         float64
	K         float64
	Score     float64 // NaN when malformed
	Posture   gate.Posture
	Reason    gate.ReasonCode
	Malformed bool
}

// #endregion evaluation-row
