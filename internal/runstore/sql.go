package runstore

import (
	"context"
	"database/sql"
	"time"
)

// sqlStore implements Store over database/sql, shared by the SQLite and
// MySQL constructors below — the schema and queries are identical, only the
// upsert dialect differs (upsertSuffix).
type sqlStore struct {
	db           *sql.DB
	upsertSuffix string // dialect-specific "ON CONFLICT..." / "ON DUPLICATE KEY..." clause
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS run_reports (
	run_id        TEXT PRIMARY KEY,
	mode          TEXT NOT NULL,
	started_at    DATETIME NOT NULL,
	finished_at   DATETIME NOT NULL,
	control_state INTEGER NOT NULL,
	transitions   INTEGER NOT NULL,
	por_fallbacks INTEGER NOT NULL,
	err           TEXT NOT NULL
)`

func newSQLStore(db *sql.DB, upsertSuffix string) (*sqlStore, error) {
	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, err
	}
	return &sqlStore{db: db, upsertSuffix: upsertSuffix}, nil
}

func (s *sqlStore) Save(ctx context.Context, r RunReport) error {
	query := `INSERT INTO run_reports
		(run_id, mode, started_at, finished_at, control_state, transitions, por_fallbacks, err)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)` + s.upsertSuffix
	_, err := s.db.ExecContext(ctx, query,
		r.RunID, r.Mode, r.StartedAt, r.FinishedAt, r.ControlState, r.Transitions, r.PORFallbacks, r.Err)
	return err
}

func (s *sqlStore) Get(ctx context.Context, runID string) (RunReport, error) {
	row := s.db.QueryRowContext(ctx, `SELECT run_id, mode, started_at, finished_at, control_state, transitions, por_fallbacks, err
		FROM run_reports WHERE run_id = ?`, runID)
	var r RunReport
	var started, finished time.Time
	if err := row.Scan(&r.RunID, &r.Mode, &started, &finished, &r.ControlState, &r.Transitions, &r.PORFallbacks, &r.Err); err != nil {
		if err == sql.ErrNoRows {
			return RunReport{}, ErrNotFound
		}
		return RunReport{}, err
	}
	r.StartedAt, r.FinishedAt = started, finished
	return r, nil
}

func (s *sqlStore) List(ctx context.Context) ([]RunReport, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, mode, started_at, finished_at, control_state, transitions, por_fallbacks, err
		FROM run_reports ORDER BY started_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunReport
	for rows.Next() {
		var r RunReport
		var started, finished time.Time
		if err := rows.Scan(&r.RunID, &r.Mode, &started, &finished, &r.ControlState, &r.Transitions, &r.PORFallbacks, &r.Err); err != nil {
			return nil, err
		}
		r.StartedAt, r.FinishedAt = started, finished
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *sqlStore) Close() error { return s.db.Close() }
