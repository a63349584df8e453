package logging

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/transition-gate/internal/canon"
	"github.com/danielpatrickdp/transition-gate/internal/gate"
	"github.com/danielpatrickdp/transition-gate/internal/pipeline"
)

// #region helpers
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	_, err = db.Exec(`CREATE TABLE provenance_log (
		run_id       TEXT,
		record_id    TEXT,
		trigger_type TEXT NOT NULL,
		signals_json TEXT,
		decision     TEXT NOT NULL,
		reason       TEXT,
		created_at   TEXT NOT NULL
	)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

// #endregion helpers

// #region log-decision-tests
func TestLogDecision_Success(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	entry := ProvenanceEntry{
		RunID:       "run-1",
		RecordID:    "abc123",
		TriggerType: "cli",
		SignalsJSON: `{"score":0.72}`,
		Decision:    "ALLOW",
		Reason:      "RC_TR_ADMISSIBLE",
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	err := LogDecision(db, entry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM provenance_log").Scan(&count)
	if count != 1 {
		t.Errorf("expected 1 row, got %d", count)
	}

	var runID, decision string
	db.QueryRow("SELECT run_id, decision FROM provenance_log").Scan(&runID, &decision)
	if runID != "run-1" {
		t.Errorf("expected run_id 'run-1', got %q", runID)
	}
	if decision != "ALLOW" {
		t.Errorf("expected decision 'ALLOW', got %q", decision)
	}
}

func TestLogDecision_ZeroCreatedAt(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	entry := ProvenanceEntry{
		TriggerType: "http",
		Decision:    "DENY",
	}

	before := time.Now().UTC()
	err := LogDecision(db, entry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var createdAtStr string
	db.QueryRow("SELECT created_at FROM provenance_log").Scan(&createdAtStr)
	createdAt, err := time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		t.Fatalf("parse created_at: %v", err)
	}
	if createdAt.Before(before) {
		t.Error("expected auto-filled created_at to be >= test start time")
	}
}

func TestLogDecision_EmptyOptionalFields(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	entry := ProvenanceEntry{
		TriggerType: "grpc",
		Decision:    "ABSTAIN",
		CreatedAt:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}

	err := LogDecision(db, entry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var runID, recordID, signalsJSON, reason sql.NullString
	db.QueryRow("SELECT run_id, record_id, signals_json, reason FROM provenance_log").Scan(
		&runID, &recordID, &signalsJSON, &reason,
	)
	if runID.Valid {
		t.Error("expected NULL run_id for empty string")
	}
	if recordID.Valid {
		t.Error("expected NULL record_id for empty string")
	}
	if signalsJSON.Valid {
		t.Error("expected NULL signals_json for empty string")
	}
	if reason.Valid {
		t.Error("expected NULL reason for empty string")
	}
}

func TestLogDecision_Error(t *testing.T) {
	db := setupDB(t)
	db.Close() // close to force error

	entry := ProvenanceEntry{
		TriggerType: "cli",
		Decision:    "ALLOW",
	}

	err := LogDecision(db, entry)
	if err == nil {
		t.Fatal("expected error on closed db")
	}
}

func TestLogEvaluation_RoundTripsRecord(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	cfg := gate.DefaultThresholdConfig()
	ev := pipeline.Evaluate(canon.Record{R: "CC", C: "Pd/C", P: "CCC"}, gate.Must(cfg))
	rec := NewEvaluationRecord("rid", ev, cfg)

	if err := LogEvaluation(db, "run-9", "cli", rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var payload, decision string
	db.QueryRow("SELECT signals_json, decision FROM provenance_log").Scan(&payload, &decision)
	if decision != "ALLOW" {
		t.Errorf("expected decision ALLOW, got %q", decision)
	}
	var got EvaluationRecord
	if err := json.Unmarshal([]byte(payload), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Score == nil || *got.Score != *rec.Score {
		t.Errorf("expected score %v, got %v", *rec.Score, got.Score)
	}
	if got.Thresholds.Low != cfg.Low || got.Thresholds.High != cfg.High {
		t.Errorf("expected thresholds %s, got %+v", cfg, got.Thresholds)
	}
}

// #endregion log-decision-tests

// #region evaluation-record-tests
func TestNewEvaluationRecord_MalformedHasNullScore(t *testing.T) {
	cfg := gate.DefaultThresholdConfig()
	ev := pipeline.Evaluate(canon.Record{R: "", P: "CC"}, gate.Must(cfg))
	rec := NewEvaluationRecord("", ev, cfg)

	if rec.Score != nil {
		t.Fatalf("expected nil score for malformed record, got %v", *rec.Score)
	}
	if !rec.Malformed || rec.Posture != "ABSTAIN" {
		t.Fatalf("unexpected record %+v", rec)
	}
	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	json.Unmarshal(b, &raw)
	if v, ok := raw["score"]; !ok || v != nil {
		t.Fatalf("expected explicit null score, got %v", v)
	}
}

// #endregion evaluation-record-tests

// #region null-if-empty-tests
func TestNullIfEmpty_Empty(t *testing.T) {
	result := nullIfEmpty("")
	if result != nil {
		t.Errorf("expected nil for empty string, got %v", result)
	}
}

func TestNullIfEmpty_NonEmpty(t *testing.T) {
	result := nullIfEmpty("hello")
	if result != "hello" {
		t.Errorf("expected 'hello', got %v", result)
	}
}

// #endregion null-if-empty-tests
