package gate

import (
	"errors"
	"fmt"
	"math"
)

// #region posture
// Posture is the gate's three-way verdict.
type Posture string

const (
	PostureDeny    Posture = "DENY"
	PostureAbstain Posture = "ABSTAIN"
	PostureAllow   Posture = "ALLOW"
)

// Rank orders postures DENY < ABSTAIN < ALLOW. Unknown postures rank -1.
func (p Posture) Rank() int {
	switch p {
	case PostureDeny:
		return 0
	case PostureAbstain:
		return 1
	case PostureAllow:
		return 2
	default:
		return -1
	}
}

// ParsePosture accepts the three literal tokens.
func ParsePosture(s string) (Posture, error) {
	switch p := Posture(s); p {
	case PostureDeny, PostureAbstain, PostureAllow:
		return p, nil
	}
	return "", fmt.Errorf("unknown posture %q", s)
}

// Postures lists every posture in rank order.
func Postures() []Posture {
	return []Posture{PostureDeny, PostureAbstain, PostureAllow}
}

// #endregion posture

// #region reason-code
// ReasonCode is a deterministic label explaining a posture.
type ReasonCode string

const (
	ReasonAdmissible        ReasonCode = "RC_TR_ADMISSIBLE"
	ReasonNearThreshold     ReasonCode = "RC_TR_NEAR_THRESHOLD"
	ReasonBelowThreshold    ReasonCode = "RC_TR_BELOW_THRESHOLD"
	ReasonAlignInsufficient ReasonCode = "RC_TR_ALIGN_INSUFFICIENT"
	ReasonAccessLow         ReasonCode = "RC_TR_INTERNAL_ACCESS_LOW"
	ReasonConstraintTooWeak ReasonCode = "RC_TR_CONSTRAINT_TOO_WEAK"
	ReasonMalformedInput    ReasonCode = "RC_TR_MALFORMED_INPUT"
)

// DENY is refined by the first coordinate below this value.
const denyRefinementCutoff = 0.25

// #endregion reason-code

// #region threshold-config
// ThresholdConfig holds the two posture boundaries. It is a value: callers
// hand one to NewGate and nothing mutates it afterwards.
type ThresholdConfig struct {
	Low  float64 // tau_low, inclusive on the ABSTAIN side
	High float64 // tau_high, inclusive on the ALLOW side
}

// ErrInvalidThresholds is matched by every Validate failure.
var ErrInvalidThresholds = errors.New("invalid thresholds")

// DefaultThresholdConfig returns tau 0.62 with a 0.05 abstain band.
func DefaultThresholdConfig() ThresholdConfig {
	return ThresholdConfig{
		Low:  0.57,
		High: 0.67,
	}
}

// FromBand builds {tau-band, tau+band}, clamped to [0,1].
func FromBand(tau, band float64) ThresholdConfig {
	return ThresholdConfig{
		Low:  clamp01(tau - band),
		High: clamp01(tau + band),
	}
}

// Validate checks 0 <= Low <= High <= 1 with no NaN.
func (c ThresholdConfig) Validate() error {
	if math.IsNaN(c.Low) || math.IsNaN(c.High) {
		return fmt.Errorf("%w: NaN threshold", ErrInvalidThresholds)
	}
	if c.Low < 0 || c.Low > 1 {
		return fmt.Errorf("%w: tau_low %.4f outside [0,1]", ErrInvalidThresholds, c.Low)
	}
	if c.High < 0 || c.High > 1 {
		return fmt.Errorf("%w: tau_high %.4f outside [0,1]", ErrInvalidThresholds, c.High)
	}
	if c.Low > c.High {
		return fmt.Errorf("%w: tau_low %.4f exceeds tau_high %.4f", ErrInvalidThresholds, c.Low, c.High)
	}
	return nil
}

func (c ThresholdConfig) String() string {
	return fmt.Sprintf("tau_low=%.4f tau_high=%.4f", c.Low, c.High)
}

// #endregion threshold-config

// #region result
// Result is the output of one gate evaluation. Score is NaN for malformed input.
type Result struct {
	Score   float64
	Posture Posture
	Reason  ReasonCode
}

// #endregion result

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
