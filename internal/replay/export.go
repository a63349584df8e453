package replay

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/transition-gate/internal/canon"
	"github.com/danielpatrickdp/transition-gate/internal/store"
)

// #region from-store
// CasesFromRows turns stored evaluations into replay cases that expect
// the stored posture, reason and values.
func CasesFromRows(rows []store.EvaluationRow) []Case {
	cases := make([]Case, len(rows))
	for i, row := range rows {
		c := Case{
			ID:      caseID(row),
			Record:  canon.Record{R: row.R, C: row.C, P: row.P},
			Posture: row.Posture,
			Reason:  row.Reason,
		}
		if !row.Malformed {
			c.G, c.A, c.C = ptr(row.G), ptr(row.A), ptr(row.K)
			if !math.IsNaN(row.Score) {
				c.Score = ptr(row.Score)
			}
		}
		cases[i] = c
	}
	return cases
}

// ExportFixture builds a fixture from a stored run. last > 0 keeps only
// the final last rows.
func ExportFixture(run store.RunRecord, rows []store.EvaluationRow, last int) Fixture {
	if last > 0 && len(rows) > last {
		rows = rows[len(rows)-last:]
	}
	f := Fixture{
		Description: fmt.Sprintf("exported from run %s (%s)", run.RunID, run.Source),
		Thresholds:  FixtureThresholds{Low: run.Thresholds.Low, High: run.Thresholds.High},
		Cases:       make([]FixtureCase, len(rows)),
	}
	for i, c := range CasesFromRows(rows) {
		f.Cases[i] = FixtureCase{
			ID: c.ID,
			R:  c.Record.R,
			C:  c.Record.C,
			P:  c.Record.P,
			Expected: FixtureExpected{
				Posture: string(c.Posture),
				Reason:  string(c.Reason),
				G:       c.G,
				A:       c.A,
				C:       c.C,
				Score:   c.Score,
			},
		}
	}
	return f
}

// #endregion from-store

func caseID(row store.EvaluationRow) string {
	if row.RecordID != "" {
		return row.RecordID
	}
	return fmt.Sprintf("seq-%d", row.Seq)
}

func ptr(x float64) *float64 { return &x }
