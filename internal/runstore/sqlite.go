package runstore

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// NewSQLite opens (creating if needed) a SQLite-backed run-report store at
// dsn, e.g. "file:runs.db?cache=shared".
func NewSQLite(dsn string) (Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	return newSQLStore(db, `
		ON CONFLICT(run_id) DO UPDATE SET
			mode=excluded.mode, started_at=excluded.started_at, finished_at=excluded.finished_at,
			control_state=excluded.control_state, transitions=excluded.transitions,
			por_fallbacks=excluded.por_fallbacks, err=excluded.err`)
}
