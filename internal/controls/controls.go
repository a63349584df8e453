package controls

import (
	"fmt"
	"strings"

	"github.com/danielpatrickdp/transition-gate/internal/canon"
	"github.com/danielpatrickdp/transition-gate/internal/gate"
	"github.com/danielpatrickdp/transition-gate/internal/pipeline"
	"github.com/danielpatrickdp/transition-gate/internal/source"
)

// #region kind
// Kind names a record transformation.
type Kind string

const (
	KindReal         Kind = "real"
	KindIdentity     Kind = "identity"
	KindSwap         Kind = "swap"
	KindShuffle      Kind = "shuffle"
	KindStripContext Kind = "strip_context"
)

// Kinds lists every negative control in report order.
func Kinds() []Kind {
	return []Kind{KindIdentity, KindSwap, KindShuffle, KindStripContext}
}

// ParseKinds reads a comma-separated list; empty input means all kinds.
func ParseKinds(s string) ([]Kind, error) {
	if strings.TrimSpace(s) == "" {
		return Kinds(), nil
	}
	var out []Kind
	for _, tok := range strings.Split(s, ",") {
		k := Kind(strings.TrimSpace(tok))
		switch k {
		case KindIdentity, KindSwap, KindShuffle, KindStripContext:
			out = append(out, k)
		default:
			return nil, fmt.Errorf("unknown control %q", tok)
		}
	}
	return out, nil
}

// Apply transforms rec. Shuffle reverses the raw reactant fragments, which
// canonicalization must undo.
func Apply(k Kind, rec canon.Record) canon.Record {
	switch k {
	case KindIdentity:
		return canon.Record{R: rec.R, C: rec.C, P: rec.R}
	case KindSwap:
		return rec.Swap()
	case KindShuffle:
		frags := strings.Split(rec.R, ".")
		for i, j := 0, len(frags)-1; i < j; i, j = i+1, j-1 {
			frags[i], frags[j] = frags[j], frags[i]
		}
		return canon.Record{R: strings.Join(frags, "."), C: rec.C, P: rec.P}
	case KindStripContext:
		return canon.Record{R: rec.R, P: rec.P}
	default:
		return rec
	}
}

// #endregion kind

// #region report
// Row is one sampled evaluation for evidence output.
type Row struct {
	Line       int
	RecordID   string
	Kind       Kind
	Evaluation pipeline.Evaluation
}

// Report aggregates control postures over a set of records.
type Report struct {
	Records int
	Counts  map[Kind]map[gate.Posture]int
	Changed map[Kind]int // records whose control posture differs from real
	Rows    []Row
}

// ChangeRate is Changed[k]/Records, or 0 for an empty report.
func (r Report) ChangeRate(k Kind) float64 {
	if r.Records == 0 {
		return 0
	}
	return float64(r.Changed[k]) / float64(r.Records)
}

// #endregion report

// #region run
// Run evaluates every entry and each control of it. Rows keeps every
// everyK-th entry (all entries when everyK <= 1).
func Run(g *gate.Gate, entries []source.Entry, kinds []Kind, everyK int) Report {
	rep := Report{
		Records: len(entries),
		Counts:  make(map[Kind]map[gate.Posture]int, len(kinds)+1),
		Changed: make(map[Kind]int, len(kinds)),
	}
	for _, k := range append([]Kind{KindReal}, kinds...) {
		rep.Counts[k] = make(map[gate.Posture]int, 3)
	}

	for i, e := range entries {
		sampled := everyK <= 1 || i%everyK == 0
		base := pipeline.Evaluate(e.Record, g)
		rep.Counts[KindReal][base.Posture()]++
		if sampled {
			rep.Rows = append(rep.Rows, Row{Line: e.Line, RecordID: e.RecordID, Kind: KindReal, Evaluation: base})
		}
		for _, k := range kinds {
			ev := pipeline.Evaluate(Apply(k, e.Record), g)
			rep.Counts[k][ev.Posture()]++
			if ev.Posture() != base.Posture() {
				rep.Changed[k]++
			}
			if sampled {
				rep.Rows = append(rep.Rows, Row{Line: e.Line, RecordID: e.RecordID, Kind: k, Evaluation: ev})
			}
		}
	}
	return rep
}

// #endregion run
