package logging

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// #region log-decision
// LogDecision writes a provenance entry to the provenance_log table.
func LogDecision(db *sql.DB, entry ProvenanceEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO provenance_log (run_id, record_id, trigger_type, signals_json, decision, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nullIfEmpty(entry.RunID),
		nullIfEmpty(entry.RecordID),
		entry.TriggerType,
		nullIfEmpty(entry.SignalsJSON),
		entry.Decision,
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	return nil
}

// LogEvaluation serializes rec and writes it as one provenance entry.
func LogEvaluation(db *sql.DB, runID, trigger string, rec EvaluationRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal evaluation record: %w", err)
	}
	return LogDecision(db, ProvenanceEntry{
		RunID:       runID,
		RecordID:    rec.RecordID,
		TriggerType: trigger,
		SignalsJSON: string(payload),
		Decision:    rec.Posture,
		Reason:      rec.Reason,
	})
}

// #endregion log-decision

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
