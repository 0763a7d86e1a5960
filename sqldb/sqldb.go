// Package sqldb provides SQL-backed implementations of the core storage
// interfaces. The SQL statements are compatible with sqlite3 and MySQL.
package sqldb

import (
	"database/sql"
	"fmt"
)

func mustPrepare(db *sql.DB, query string) *sql.Stmt {
	stmt, err := db.Prepare(query)
	if err != nil {
		panic(fmt.Sprintf("error preparing %s: %v", query, err))
	}
	return stmt
}
