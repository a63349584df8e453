package store

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/transition-gate/internal/gate"
	"github.com/danielpatrickdp/transition-gate/internal/pipeline"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	source        TEXT NOT NULL,
	tau_low       REAL NOT NULL,
	tau_high      REAL NOT NULL,
	record_count  INTEGER NOT NULL DEFAULT 0,
	summary_json  TEXT,
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS evaluations (
	run_id     TEXT NOT NULL,
	seq        INTEGER NOT NULL,
	record_id  TEXT,
	r          TEXT NOT NULL,
	c          TEXT NOT NULL,
	p          TEXT NOT NULL,
	r_canon    TEXT NOT NULL,
	c_canon    TEXT NOT NULL,
	p_canon    TEXT NOT NULL,
	g          REAL NOT NULL,
	a          REAL NOT NULL,
	c_support  REAL NOT NULL,
	score      REAL,
	posture    TEXT NOT NULL,
	reason     TEXT NOT NULL,
	malformed  INTEGER NOT NULL,
	PRIMARY KEY (run_id, seq),
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS provenance_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT,
	record_id     TEXT,
	trigger_type  TEXT NOT NULL,
	signals_json  TEXT,
	decision      TEXT NOT NULL,
	reason        TEXT,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`

// #endregion schema

// timeLayout is fixed-width so created_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrRunNotFound is returned by GetRun for unknown IDs.
var ErrRunNotFound = errors.New("run not found")

// #region store-struct
// Store persists runs and their evaluations in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// pragmas are per connection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// #endregion constructor

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #region create-run
// CreateRun inserts a run, assigning a UUID and timestamp when unset.
func (s *Store) CreateRun(run RunRecord) (RunRecord, error) {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO runs (run_id, source, tau_low, tau_high, record_count, summary_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Source, run.Thresholds.Low, run.Thresholds.High,
		run.RecordCount, nullIfEmpty(run.SummaryJSON), run.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// FinishRun records the final count and summary of a run.
func (s *Store) FinishRun(runID string, count int, summaryJSON string) error {
	res, err := s.db.Exec(
		`UPDATE runs SET record_count = ?, summary_json = ? WHERE run_id = ?`,
		count, nullIfEmpty(summaryJSON), runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

// #endregion create-run

// #region save-evaluations
// SaveEvaluations writes evaluations for a run in one transaction. seq is the
// index in evs; recordIDs may be nil or shorter than evs.
func (s *Store) SaveEvaluations(runID string, evs []pipeline.Evaluation, recordIDs []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO evaluations (run_id, seq, record_id, r, c, p, r_canon, c_canon, p_canon,
		 g, a, c_support, score, posture, reason, malformed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, ev := range evs {
		var recordID string
		if i < len(recordIDs) {
			recordID = recordIDs[i]
		}
		score := sql.NullFloat64{Float64: ev.Score(), Valid: !math.IsNaN(ev.Score())}
		_, err := stmt.Exec(
			runID, i, nullIfEmpty(recordID),
			ev.Record.R, ev.Record.C, ev.Record.P,
			ev.Form.R, ev.Form.C, ev.Form.P,
			ev.Coordinate.G, ev.Coordinate.A, ev.Coordinate.C,
			score, string(ev.Posture()), string(ev.Result.Reason), ev.Malformed,
		)
		if err != nil {
			return fmt.Errorf("insert evaluation %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// #endregion save-evaluations

// #region get-run
// GetRun retrieves a run by ID.
func (s *Store) GetRun(id string) (RunRecord, error) {
	row := s.db.QueryRow(
		`SELECT run_id, source, tau_low, tau_high, record_count, summary_json, created_at
		 FROM runs WHERE run_id = ?`, id,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("get run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// #endregion get-run

// #region list-runs
// ListRuns returns the most recent runs.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, source, tau_low, tau_high, record_count, summary_json, created_at
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// #endregion list-runs

// #region list-evaluations
// ListEvaluations returns a run's evaluations in input order.
func (s *Store) ListEvaluations(runID string) ([]EvaluationRow, error) {
	rows, err := s.db.Query(
		`SELECT run_id, seq, record_id, r, c, p, r_canon, c_canon, p_canon,
		 g, a, c_support, score, posture, reason, malformed
		 FROM evaluations WHERE run_id = ? ORDER BY seq`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	defer rows.Close()

	var out []EvaluationRow
	for rows.Next() {
		var row EvaluationRow
		var recordID sql.NullString
		var score sql.NullFloat64
		var posture, reason string
		if err := rows.Scan(&row.RunID, &row.Seq, &recordID, &row.R, &row.C, &row.P,
			&row.RCanon, &row.CCanon, &row.PCanon, &row.G, &row.A, &row.K,
			&score, &posture, &reason, &row.Malformed); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row.RecordID = recordID.String
		row.Score = math.NaN()
		if score.Valid {
			row.Score = score.Float64
		}
		row.Posture = gate.Posture(posture)
		row.Reason = gate.ReasonCode(reason)
		out = append(out, row)
	}
	return out, rows.Err()
}

// #endregion list-evaluations

// #region helpers
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (RunRecord, error) {
	var run RunRecord
	var summary sql.NullString
	var createdStr string
	err := sc.Scan(&run.RunID, &run.Source, &run.Thresholds.Low, &run.Thresholds.High,
		&run.RecordCount, &summary, &createdStr)
	if err != nil {
		return RunRecord{}, err
	}
	run.SummaryJSON = summary.String
	run.CreatedAt, _ = time.Parse(timeLayout, createdStr)
	return run, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
