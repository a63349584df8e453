package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/danielpatrickdp/transition-gate/internal/batch"
	"github.com/danielpatrickdp/transition-gate/internal/controls"
	"github.com/danielpatrickdp/transition-gate/internal/gate"
	"github.com/danielpatrickdp/transition-gate/internal/pipeline"
	"github.com/danielpatrickdp/transition-gate/internal/source"
	"github.com/danielpatrickdp/transition-gate/internal/sweep"
)

// #region table
// Table is a named grid of string cells; it renders to CSV or an XLSX sheet.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// EvidenceHeaders is the fixed evidence column layout.
var EvidenceHeaders = []string{"R", "C", "P", "g", "a", "c", "score", "posture"}

// EvidenceOptions control optional evidence columns and sampling.
type EvidenceOptions struct {
	Extended bool // append record_id and reason
	EveryK   int  // keep every K-th row; <= 1 keeps all
}

// #endregion table

// #region builders
// Evidence renders evaluations as the evidence table. entries may be nil,
// in which case record_id is left empty.
func Evidence(entries []source.Entry, evs []pipeline.Evaluation, opts EvidenceOptions) Table {
	t := Table{Name: "evidence", Headers: append([]string(nil), EvidenceHeaders...)}
	if opts.Extended {
		t.Headers = append(t.Headers, "record_id", "reason")
	}
	for i, ev := range evs {
		if opts.EveryK > 1 && i%opts.EveryK != 0 {
			continue
		}
		row := evidenceRow(ev)
		if opts.Extended {
			var id string
			if i < len(entries) {
				id = entries[i].RecordID
			}
			row = append(row, id, string(ev.Result.Reason))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func evidenceRow(ev pipeline.Evaluation) []string {
	row := []string{ev.Record.R, ev.Record.C, ev.Record.P}
	if ev.Malformed {
		row = append(row, "", "", "")
	} else {
		row = append(row, f2(ev.Coordinate.G), f2(ev.Coordinate.A), f2(ev.Coordinate.C))
	}
	return append(row, f2(ev.Score()), string(ev.Posture()))
}

// Summary renders batch statistics as metric,value rows.
func Summary(s batch.Summary) Table {
	t := Table{Name: "summary", Headers: []string{"metric", "value"}}
	add := func(k, v string) { t.Rows = append(t.Rows, []string{k, v}) }
	add("total", strconv.Itoa(s.Total))
	for _, p := range gate.Postures() {
		add("posture_"+string(p), strconv.Itoa(s.Postures[p]))
	}
	for _, p := range gate.Postures() {
		add(string(p)+"_real", strconv.Itoa(s.Real[p]))
		add(string(p)+"_not", strconv.Itoa(s.NotReal[p]))
	}
	add("malformed", strconv.Itoa(s.Malformed))
	add("identity", strconv.Itoa(s.Identity))
	add("invariant_violations", strconv.Itoa(s.Violations))
	add("score_mean", f4(s.ScoreMean))
	add("score_median", f4(s.ScoreMedian))
	add("score_p25", f4(s.ScoreP25))
	add("score_p75", f4(s.ScoreP75))
	return t
}

// Controls renders per-kind posture counts and change counts.
func Controls(rep controls.Report) Table {
	t := Table{Name: "controls", Headers: []string{"kind", "DENY", "ABSTAIN", "ALLOW", "changed_vs_real", "change_rate"}}
	kinds := make([]controls.Kind, 0, len(rep.Counts))
	for k := range rep.Counts {
		if k != controls.KindReal {
			kinds = append(kinds, k)
		}
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	kinds = append([]controls.Kind{controls.KindReal}, kinds...)

	for _, k := range kinds {
		c := rep.Counts[k]
		t.Rows = append(t.Rows, []string{
			string(k),
			strconv.Itoa(c[gate.PostureDeny]),
			strconv.Itoa(c[gate.PostureAbstain]),
			strconv.Itoa(c[gate.PostureAllow]),
			strconv.Itoa(rep.Changed[k]),
			f4(rep.ChangeRate(k)),
		})
	}
	return t
}

// ControlRows renders sampled control evaluations.
func ControlRows(rep controls.Report) Table {
	t := Table{Name: "control_rows", Headers: append([]string{"line", "kind"}, EvidenceHeaders...)}
	for _, r := range rep.Rows {
		t.Rows = append(t.Rows, append([]string{strconv.Itoa(r.Line), string(r.Kind)}, evidenceRow(r.Evaluation)...))
	}
	return t
}

// Sweep renders one row per threshold configuration.
func Sweep(results []sweep.Result) Table {
	t := Table{Name: "sweep", Headers: []string{
		"tau_low", "tau_high", "grid_n", "points", "DENY", "ABSTAIN", "ALLOW",
		"viol_g", "viol_a", "viol_c", "viol_diag", "monotone",
	}}
	for _, r := range results {
		mono := "PASS"
		if !r.Monotone() {
			mono = "FAIL"
		}
		t.Rows = append(t.Rows, []string{
			f4(r.Thresholds.Low), f4(r.Thresholds.High),
			strconv.Itoa(r.GridN), strconv.Itoa(r.Points),
			strconv.Itoa(r.Counts[gate.PostureDeny]),
			strconv.Itoa(r.Counts[gate.PostureAbstain]),
			strconv.Itoa(r.Counts[gate.PostureAllow]),
			strconv.Itoa(r.AxisViolations[0]), strconv.Itoa(r.AxisViolations[1]),
			strconv.Itoa(r.AxisViolations[2]), strconv.Itoa(r.DiagonalViolations),
			mono,
		})
	}
	return t
}

// #endregion builders

// #region writers
// WriteCSV writes the table with a header row.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile creates path and writes the table to it.
func WriteCSVFile(path string, t Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteCSV(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteXLSX writes each table to its own sheet, in order.
func WriteXLSX(path string, tables ...Table) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", t.Name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return fmt.Errorf("new sheet %s: %w", t.Name, err)
		}
		if err := writeSheet(f, t); err != nil {
			return err
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, t Table) error {
	for c, h := range t.Headers {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		if err := f.SetCellValue(t.Name, cell, h); err != nil {
			return fmt.Errorf("sheet %s: %w", t.Name, err)
		}
	}
	for r, row := range t.Rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(t.Name, cell, v); err != nil {
				return fmt.Errorf("sheet %s: %w", t.Name, err)
			}
		}
	}
	return nil
}

// #endregion writers

// #region helpers
// f2 formats to two decimals; NaN renders as "NaN".
func f2(x float64) string {
	return strconv.FormatFloat(x, 'f', 2, 64)
}

func f4(x float64) string {
	return strconv.FormatFloat(x, 'f', 4, 64)
}

// #endregion helpers
