package coords

import (
	"math"

	"github.com/danielpatrickdp/transition-gate/internal/canon"
)

// #region coordinate
// Coordinate is the structural triple fed to the gate.
//
//	G  alignment, in [0,1]
//	A  accessibility, in (0,1]
//	C  contextual support, 0 or 1
type Coordinate struct {
	G float64
	A float64
	C float64
}

// #endregion coordinate

// #region derive
// Derive computes the coordinate of a canonical form. It is total and pure.
func Derive(form canon.Form) Coordinate {
	return Coordinate{
		G: Alignment(form.R, form.P),
		A: Accessibility(form.R, form.P),
		C: ContextSupport(form.C),
	}
}

// Alignment is the multiset overlap of the characters of r and p, ignoring
// fragment separators: sum of per-byte minimum counts over sum of maximum counts.
// Returns 0 when both sides are empty.
func Alignment(r, p string) float64 {
	var cr, cp [256]int
	countBytes(&cr, r)
	countBytes(&cp, p)

	var overlap, total int
	for ch := range cr {
		overlap += min(cr[ch], cp[ch])
		total += max(cr[ch], cp[ch])
	}
	if total == 0 {
		return 0
	}
	return float64(overlap) / float64(total)
}

// Accessibility is 1/(1+|len(p)-len(r)|) on the canonical strings.
func Accessibility(r, p string) float64 {
	delta := math.Abs(float64(len(p) - len(r)))
	return 1 / (1 + delta)
}

// ContextSupport is 1 when a canonical context is present, 0 otherwise.
func ContextSupport(c string) float64 {
	if c == "" {
		return 0
	}
	return 1
}

// #endregion derive

// #region helpers
func countBytes(counts *[256]int, s string) {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			continue
		}
		counts[s[i]]++
	}
}

// #endregion helpers
