package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/banshee-data/flowcheck/internal/timeutil"
)

// ErrNotFound is returned when a run ID has no stored report.
var ErrNotFound = errors.New("report not found")

// Run is one persisted validation of a scenario.
type Run struct {
	RunID        string          `json:"run_id"`
	Scenario     string          `json:"scenario"`
	Method       string          `json:"method"`
	Trajectory   string          `json:"trajectory"`
	Passed       bool            `json:"passed"`
	FailureCount int             `json:"failure_count"`
	FileCount    int             `json:"file_count"`
	ParamsJSON   json.RawMessage `json:"params_json,omitempty"`
	DurationMS   int64           `json:"duration_ms"`
	CreatedAt    int64           `json:"created_at"`
}

// Failure is one stored mismatch of a run, in recording order.
type Failure struct {
	Seq      int    `json:"seq"`
	Kind     string `json:"kind"`
	File     string `json:"file"`
	Row      int    `json:"row"`
	Col      int    `json:"col"`
	Observed string `json:"observed"`
	Expected string `json:"expected"`
	Message  string `json:"message,omitempty"`
}

// ReportStore provides persistence for validation runs and their failures.
type ReportStore struct {
	db    *sql.DB
	clock timeutil.Clock
}

// NewReportStore creates a ReportStore. A nil clock uses the system time.
func NewReportStore(db *sql.DB, clock timeutil.Clock) *ReportStore {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &ReportStore{db: db, clock: clock}
}

// Insert persists run and its failures in one transaction. If RunID is
// empty a UUID is generated; if CreatedAt is zero the store's clock is used.
// FailureCount is taken from failures.
func (s *ReportStore) Insert(run *Run, failures []Failure) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = s.clock.Now().UnixNano()
	}
	run.FailureCount = len(failures)
	run.Passed = len(failures) == 0

	var paramsStr interface{}
	if len(run.ParamsJSON) > 0 {
		paramsStr = string(run.ParamsJSON)
	}

	return retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		_, err = tx.Exec(`
			INSERT INTO validation_runs (
				run_id, scenario, method, trajectory, passed,
				failure_count, file_count, params_json, duration_ms, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.Scenario, run.Method, run.Trajectory, run.Passed,
			run.FailureCount, run.FileCount, paramsStr, run.DurationMS, run.CreatedAt,
		)
		if err != nil {
			return err
		}

		stmt, err := tx.Prepare(`
			INSERT INTO validation_failures (
				run_id, seq, kind, file, row_idx, col_idx, observed, expected, message
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i := range failures {
			f := &failures[i]
			f.Seq = i
			var msg interface{}
			if f.Message != "" {
				msg = f.Message
			}
			if _, err := stmt.Exec(run.RunID, f.Seq, f.Kind, f.File, f.Row, f.Col, f.Observed, f.Expected, msg); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

const runColumns = `run_id, scenario, method, trajectory, passed,
		       failure_count, file_count, params_json, duration_ms, created_at`

// Get returns a single run by ID.
func (s *ReportStore) Get(runID string) (*Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM validation_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return r, err
}

// ListByScenario returns all runs of a scenario, newest first.
func (s *ReportStore) ListByScenario(scenario string) ([]*Run, error) {
	rows, err := s.db.Query(`
		SELECT `+runColumns+`
		FROM validation_runs
		WHERE scenario = ?
		ORDER BY created_at DESC`, scenario)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	return collectRuns(rows)
}

// ListRecent returns at most limit runs across all scenarios, newest first.
func (s *ReportStore) ListRecent(limit int) ([]*Run, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.Query(`
		SELECT `+runColumns+`
		FROM validation_runs
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	return collectRuns(rows)
}

// Failures returns the stored failures of a run in recording order.
func (s *ReportStore) Failures(runID string) ([]Failure, error) {
	rows, err := s.db.Query(`
		SELECT seq, kind, file, row_idx, col_idx, observed, expected, message
		FROM validation_failures
		WHERE run_id = ?
		ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	var out []Failure
	for rows.Next() {
		var f Failure
		var msg sql.NullString
		if err := rows.Scan(&f.Seq, &f.Kind, &f.File, &f.Row, &f.Col, &f.Observed, &f.Expected, &msg); err != nil {
			return nil, fmt.Errorf("scan failure row: %w", err)
		}
		f.Message = msg.String
		out = append(out, f)
	}
	return out, rows.Err()
}

// Delete removes a run and, through the foreign key, its failures.
func (s *ReportStore) Delete(runID string) error {
	return retryOnBusy(func() error {
		result, err := s.db.Exec(`DELETE FROM validation_runs WHERE run_id = ?`, runID)
		if err != nil {
			return fmt.Errorf("delete run: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var paramsStr sql.NullString
	err := row.Scan(
		&r.RunID, &r.Scenario, &r.Method, &r.Trajectory, &r.Passed,
		&r.FailureCount, &r.FileCount, &paramsStr, &r.DurationMS, &r.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	if paramsStr.Valid {
		r.ParamsJSON = json.RawMessage(paramsStr.String)
	}
	return &r, nil
}

func collectRuns(rows *sql.Rows) ([]*Run, error) {
	defer rows.Close()
	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
