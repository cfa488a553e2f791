package runstore

import (
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
)

// NewMySQL opens a MySQL-backed run-report store at dsn, e.g.
// "user:pass@tcp(127.0.0.1:3306)/ntsseq?parseTime=true".
func NewMySQL(dsn string) (Store, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	return newSQLStore(db, `
		ON DUPLICATE KEY UPDATE
			mode=VALUES(mode), started_at=VALUES(started_at), finished_at=VALUES(finished_at),
			control_state=VALUES(control_state), transitions=VALUES(transitions),
			por_fallbacks=VALUES(por_fallbacks), err=VALUES(err)`)
}
