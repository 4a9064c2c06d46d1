package export

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/zeu5/keygrid-rl/metrics"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	mode          TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	episodes      INTEGER NOT NULL,
	first_success INTEGER NOT NULL,
	mean_reward   REAL NOT NULL,
	std_reward    REAL NOT NULL,
	mean_steps    REAL NOT NULL,
	success_rate  REAL NOT NULL,
	summary       TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS episodes (
	run_id  TEXT NOT NULL REFERENCES runs(run_id),
	episode INTEGER NOT NULL,
	reward  REAL NOT NULL,
	steps   INTEGER NOT NULL,
	epsilon REAL NOT NULL,
	success INTEGER NOT NULL,
	PRIMARY KEY (run_id, episode)
);`

// SQLiteSink keeps every exported run in a SQLite database
type SQLiteSink struct {
	db *sql.DB
}

var _ Sink = &SQLiteSink{}

// OpenSQLite opens (or creates) the database at path and applies the schema
func OpenSQLite(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func (s *SQLiteSink) Export(ctx context.Context, r *Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	final := r.Summary.Final
	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (run_id, mode, created_at, episodes, first_success, mean_reward, std_reward, mean_steps, success_rate, summary)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Mode, r.CreatedAt.UTC().Format(time.RFC3339Nano), len(r.Episodes), r.Summary.FirstSuccess,
		final.MeanReward, final.StdReward, final.MeanSteps, final.SuccessRate, r.Summary.Text(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM episodes WHERE run_id = ?`, r.RunID); err != nil {
		return fmt.Errorf("clear episodes: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO episodes (run_id, episode, reward, steps, epsilon, success) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare episodes: %w", err)
	}
	defer stmt.Close()
	for _, e := range r.Episodes {
		success := 0
		if e.Success {
			success = 1
		}
		if _, err := stmt.ExecContext(ctx, r.RunID, e.Episode, e.Reward, e.Steps, e.Epsilon, success); err != nil {
			return fmt.Errorf("insert episode %d: %w", e.Episode, err)
		}
	}
	return tx.Commit()
}

// RunRow is a stored run
type RunRow struct {
	RunID        string
	Mode         string
	Episodes     int
	FirstSuccess int
	SuccessRate  float64
}

func (s *SQLiteSink) Runs(ctx context.Context) ([]RunRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, mode, episodes, first_success, success_rate FROM runs ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	out := make([]RunRow, 0)
	for rows.Next() {
		var r RunRow
		if err := rows.Scan(&r.RunID, &r.Mode, &r.Episodes, &r.FirstSuccess, &r.SuccessRate); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteSink) Episodes(ctx context.Context, runID string) ([]metrics.EpisodeRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT episode, reward, steps, epsilon, success FROM episodes WHERE run_id = ? ORDER BY episode`, runID)
	if err != nil {
		return nil, fmt.Errorf("query episodes: %w", err)
	}
	defer rows.Close()

	out := make([]metrics.EpisodeRecord, 0)
	for rows.Next() {
		var e metrics.EpisodeRecord
		var success int
		if err := rows.Scan(&e.Episode, &e.Reward, &e.Steps, &e.Epsilon, &success); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		e.Success = success == 1
		out = append(out, e)
	}
	return out, rows.Err()
}
