// Package sqlite keeps a local ledger of extraction runs and per-trial
// outcomes so failed sessions can be found and reprocessed later.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/GeoQI/Cognitive-State-Estimation/internal/domain/entity"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    participant TEXT NOT NULL,
    method      TEXT NOT NULL,
    crop_size   INTEGER NOT NULL,
    succeeded   INTEGER NOT NULL DEFAULT 0,
    failed      INTEGER NOT NULL DEFAULT 0,
    started_at  TEXT NOT NULL,
    finished_at TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS trial_results (
    run_id      TEXT NOT NULL,
    n           INTEGER NOT NULL,
    trial_index INTEGER NOT NULL,
    status      TEXT NOT NULL,
    stage       TEXT NOT NULL DEFAULT '',
    error       TEXT NOT NULL DEFAULT '',
    frame_count INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (run_id, n, trial_index)
);
`

type Ledger struct {
	db *sql.DB
}

func OpenLedger(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init ledger schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) CreateRun(ctx context.Context, id uuid.UUID, participant string, method entity.Method, cropSize int) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, participant, method, crop_size, started_at) VALUES (?, ?, ?, ?, ?)`,
		id.String(), participant, method.String(), cropSize, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (l *Ledger) RecordTrial(ctx context.Context, runID uuid.UUID, run *entity.TrialRun) error {
	errMsg := ""
	if run.Err != nil {
		errMsg = run.Err.Error()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO trial_results (run_id, n, trial_index, status, stage, error, frame_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID.String(), run.Trial.Level, run.Trial.Index,
		string(run.Status), string(run.FailedStage), errMsg, run.FrameCount,
	)
	if err != nil {
		return fmt.Errorf("record trial: %w", err)
	}
	return nil
}

func (l *Ledger) FinishRun(ctx context.Context, runID uuid.UUID, summary *entity.RunSummary) error {
	_, err := l.db.ExecContext(ctx,
		`UPDATE runs SET succeeded = ?, failed = ?, finished_at = ? WHERE id = ?`,
		summary.Succeeded, len(summary.Failed), time.Now().UTC().Format(time.RFC3339), runID.String(),
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// TrialResult is a row read back from the ledger.
type TrialResult struct {
	N          int
	TrialIndex int
	Status     string
	Stage      string
	Error      string
	FrameCount int
}

// TrialResults returns the recorded outcomes for one run, in level then
// trial order.
func (l *Ledger) TrialResults(ctx context.Context, runID uuid.UUID) ([]TrialResult, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT n, trial_index, status, stage, error, frame_count
		 FROM trial_results WHERE run_id = ? ORDER BY n, trial_index`,
		runID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("query trial results: %w", err)
	}
	defer rows.Close()

	var out []TrialResult
	for rows.Next() {
		var r TrialResult
		if err := rows.Scan(&r.N, &r.TrialIndex, &r.Status, &r.Stage, &r.Error, &r.FrameCount); err != nil {
			return nil, fmt.Errorf("scan trial result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
